package payments

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/phytopro-backend/internal/repo"
	"github.com/angelmondragon/phytopro-backend/pkg/db/models"
	"github.com/angelmondragon/phytopro-backend/pkg/enums"
)

// Repository persists payment transactions linked to checkout sessions.
type Repository struct {
	repo.Base
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(db)}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{Base: r.Bind(tx)}
}

func (r *Repository) Create(ctx context.Context, txn *models.PaymentTransaction) error {
	return r.DB(ctx).Create(txn).Error
}

func (r *Repository) FindBySession(ctx context.Context, sessionID string) (*models.PaymentTransaction, error) {
	var txn models.PaymentTransaction
	if err := r.DB(ctx).Where("session_id = ?", sessionID).First(&txn).Error; err != nil {
		return nil, err
	}
	return &txn, nil
}

// MarkPaid flips an unpaid transaction to completed/paid. It reports false
// when the session is unknown or was already confirmed.
func (r *Repository) MarkPaid(ctx context.Context, sessionID string) (bool, error) {
	res := r.DB(ctx).
		Model(&models.PaymentTransaction{}).
		Where("session_id = ? AND payment_status = ?", sessionID, enums.PaymentStatusUnpaid).
		Updates(map[string]any{
			"status":         enums.PaymentTransactionCompleted,
			"payment_status": enums.PaymentStatusPaid,
		})
	return res.RowsAffected > 0, res.Error
}

// MarkExpired moves a still-pending transaction to expired.
func (r *Repository) MarkExpired(ctx context.Context, sessionID string) (bool, error) {
	res := r.DB(ctx).
		Model(&models.PaymentTransaction{}).
		Where("session_id = ? AND status = ?", sessionID, enums.PaymentTransactionPending).
		Update("status", enums.PaymentTransactionExpired)
	return res.RowsAffected > 0, res.Error
}

// ListPendingBefore returns pending transactions created before cutoff, oldest first.
func (r *Repository) ListPendingBefore(ctx context.Context, cutoff time.Time, limit int) ([]models.PaymentTransaction, error) {
	var rows []models.PaymentTransaction
	q := r.DB(ctx).
		Where("status = ? AND created_at < ?", enums.PaymentTransactionPending, cutoff).
		Order("created_at ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// CountByOrder reports how many checkout sessions were opened for an order.
func (r *Repository) CountByOrder(ctx context.Context, orderID uuid.UUID) (int64, error) {
	var n int64
	err := r.DB(ctx).Model(&models.PaymentTransaction{}).Where("order_id = ?", orderID).Count(&n).Error
	return n, err
}
