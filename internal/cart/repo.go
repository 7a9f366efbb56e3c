package cart

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/angelmondragon/phytopro-backend/internal/repo"
	"github.com/angelmondragon/phytopro-backend/pkg/db/models"
)

// Repository manages persistent cart items.
type Repository struct {
	repo.Base
}

// NewRepository binds the repository to the provided DB handle.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(db)}
}

// WithTx scopes the repository to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{Base: r.Bind(tx)}
}

// ListByUser returns the user's items in insertion order.
func (r *Repository) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.CartItem, error) {
	var rows []models.CartItem
	err := r.DB(ctx).
		Where("user_id = ?", userID).
		Order("created_at ASC").
		Order("id ASC").
		Find(&rows).Error
	return rows, err
}

// FindOwned loads an item only if it belongs to userID.
func (r *Repository) FindOwned(ctx context.Context, userID, itemID uuid.UUID) (*models.CartItem, error) {
	var row models.CartItem
	if err := r.DB(ctx).Where("id = ? AND user_id = ?", itemID, userID).First(&row).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

// QuantityFor returns the quantity already in the cart for a product (0 when absent).
func (r *Repository) QuantityFor(ctx context.Context, userID, productID uuid.UUID) (int, error) {
	var row models.CartItem
	err := r.DB(ctx).Where("user_id = ? AND product_id = ?", userID, productID).First(&row).Error
	if repo.IsNotFound(err) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return row.Quantity, nil
}

// AddOrMerge inserts a line or adds qty to the existing line for the same product.
func (r *Repository) AddOrMerge(ctx context.Context, userID, productID uuid.UUID, qty int) error {
	item := &models.CartItem{UserID: userID, ProductID: productID, Quantity: qty}
	return r.DB(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}, {Name: "product_id"}},
		DoUpdates: clause.Assignments(map[string]any{
			"quantity":   gorm.Expr("cart_items.quantity + excluded.quantity"),
			"updated_at": time.Now().UTC(),
		}),
	}).Create(item).Error
}

// SetQuantity overwrites an owned item's quantity and reports whether it matched.
func (r *Repository) SetQuantity(ctx context.Context, userID, itemID uuid.UUID, qty int) (bool, error) {
	res := r.DB(ctx).
		Model(&models.CartItem{}).
		Where("id = ? AND user_id = ?", itemID, userID).
		Updates(map[string]any{"quantity": qty})
	return res.RowsAffected > 0, res.Error
}

// Delete removes an owned item and reports whether it existed.
func (r *Repository) Delete(ctx context.Context, userID, itemID uuid.UUID) (bool, error) {
	res := r.DB(ctx).Where("id = ? AND user_id = ?", itemID, userID).Delete(&models.CartItem{})
	return res.RowsAffected > 0, res.Error
}

// Clear removes every item of userID.
func (r *Repository) Clear(ctx context.Context, userID uuid.UUID) (int64, error) {
	res := r.DB(ctx).Where("user_id = ?", userID).Delete(&models.CartItem{})
	return res.RowsAffected, res.Error
}
