package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/phytopro-backend/pkg/enums"
	"github.com/angelmondragon/phytopro-backend/pkg/types"
)

// Order is an immutable snapshot of a purchase plus its mutable status.
type Order struct {
	ID                uuid.UUID             `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID            uuid.UUID             `gorm:"column:user_id;type:uuid;not null;index"`
	SubtotalCents     int                   `gorm:"column:subtotal_cents;not null"`
	ShippingCostCents int                   `gorm:"column:shipping_cost_cents;not null"`
	TotalCents        int                   `gorm:"column:total_cents;not null"`
	ShippingAddress   types.ShippingAddress `gorm:"column:shipping_address;type:jsonb;serializer:json;not null"`
	Status            enums.OrderStatus     `gorm:"column:status;type:text;not null;default:'pending'"`
	PaymentSessionID  *string               `gorm:"column:payment_session_id"`
	Items             []OrderItem           `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt         time.Time             `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time             `gorm:"column:updated_at;autoUpdateTime"`
}

func (o *Order) BeforeCreate(*gorm.DB) error {
	ensureID(&o.ID)
	return nil
}
