package stats

import (
	"context"

	"gorm.io/gorm"

	"github.com/angelmondragon/phytopro-backend/internal/repo"
	"github.com/angelmondragon/phytopro-backend/pkg/db/models"
	"github.com/angelmondragon/phytopro-backend/pkg/enums"
)

// Repository runs the read-only aggregate queries behind the admin dashboard.
type Repository struct {
	repo.Base
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(db)}
}

func (r *Repository) count(ctx context.Context, model any) (int64, error) {
	var n int64
	err := r.DB(ctx).Model(model).Count(&n).Error
	return n, err
}

func (r *Repository) ProductsCount(ctx context.Context) (int64, error) {
	return r.count(ctx, &models.Product{})
}

func (r *Repository) UsersCount(ctx context.Context) (int64, error) {
	return r.count(ctx, &models.User{})
}

func (r *Repository) OrdersCount(ctx context.Context) (int64, error) {
	return r.count(ctx, &models.Order{})
}

// PaidRevenueCents sums order totals over paid orders only.
func (r *Repository) PaidRevenueCents(ctx context.Context) (int64, error) {
	var total int64
	err := r.DB(ctx).Model(&models.Order{}).
		Select("COALESCE(SUM(total_cents), 0)").
		Where("status = ?", enums.OrderStatusPaid).
		Scan(&total).Error
	return total, err
}

// CategoryCount is one row of the products-by-category breakdown.
type CategoryCount struct {
	Category string `json:"category"`
	Count    int64  `json:"count"`
}

func (r *Repository) ProductsByCategory(ctx context.Context) ([]CategoryCount, error) {
	var rows []CategoryCount
	err := r.DB(ctx).Model(&models.Product{}).
		Select("category, COUNT(*) AS count").
		Group("category").
		Order("category ASC").
		Scan(&rows).Error
	return rows, err
}
