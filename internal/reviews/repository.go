package reviews

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/phytopro-backend/internal/repo"
	"github.com/angelmondragon/phytopro-backend/pkg/db/models"
)

type Repository struct {
	repo.Base
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(db)}
}

func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{Base: r.Bind(tx)}
}

func (r *Repository) Create(ctx context.Context, review *models.Review) error {
	return r.DB(ctx).Create(review).Error
}

// Exists reports whether the user already reviewed the product.
func (r *Repository) Exists(ctx context.Context, productID, userID uuid.UUID) (bool, error) {
	var n int64
	err := r.DB(ctx).Model(&models.Review{}).
		Where("product_id = ? AND user_id = ?", productID, userID).
		Count(&n).Error
	return n > 0, err
}

// ListByProduct returns reviews newest first.
func (r *Repository) ListByProduct(ctx context.Context, productID uuid.UUID) ([]models.Review, error) {
	var rows []models.Review
	err := r.DB(ctx).
		Where("product_id = ?", productID).
		Order("created_at DESC").
		Order("id DESC").
		Find(&rows).Error
	return rows, err
}

// Aggregate returns the rating sum and count for a product.
type Aggregate struct {
	Sum   int64
	Count int64
}

func (r *Repository) Aggregate(ctx context.Context, productID uuid.UUID) (Aggregate, error) {
	var agg Aggregate
	err := r.DB(ctx).Model(&models.Review{}).
		Select("COALESCE(SUM(rating), 0) AS sum, COUNT(*) AS count").
		Where("product_id = ?", productID).
		Scan(&agg).Error
	return agg, err
}
