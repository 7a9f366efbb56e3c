package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/phytopro-backend/pkg/enums"
)

// PaymentTransaction links a gateway checkout session to an order.
type PaymentTransaction struct {
	ID            uuid.UUID                      `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	SessionID     string                         `gorm:"column:session_id;not null;uniqueIndex"`
	UserID        uuid.UUID                      `gorm:"column:user_id;type:uuid;not null;index"`
	OrderID       uuid.UUID                      `gorm:"column:order_id;type:uuid;not null;index"`
	AmountCents   int                            `gorm:"column:amount_cents;not null"`
	Currency      string                         `gorm:"column:currency;not null"`
	Status        enums.PaymentTransactionStatus `gorm:"column:status;type:text;not null;default:'pending'"`
	PaymentStatus enums.PaymentStatus            `gorm:"column:payment_status;type:text;not null;default:'unpaid'"`
	Metadata      map[string]string              `gorm:"column:metadata;type:jsonb;serializer:json"`
	CreatedAt     time.Time                      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time                      `gorm:"column:updated_at;autoUpdateTime"`
}

func (p *PaymentTransaction) BeforeCreate(*gorm.DB) error {
	ensureID(&p.ID)
	return nil
}
