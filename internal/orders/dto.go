package orders

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/phytopro-backend/pkg/db/models"
	"github.com/angelmondragon/phytopro-backend/pkg/enums"
	"github.com/angelmondragon/phytopro-backend/pkg/types"
)

// ItemDTO is a snapshotted order line.
type ItemDTO struct {
	ProductID      uuid.UUID `json:"product_id"`
	ProductName    string    `json:"product_name"`
	Quantity       int       `json:"quantity"`
	UnitPrice      string    `json:"unit_price"`
	UnitPriceCents int       `json:"unit_price_cents"`
	TotalCents     int       `json:"total_cents"`
}

// OrderDTO is the order payload returned to owners and admins.
type OrderDTO struct {
	ID                uuid.UUID             `json:"id"`
	UserID            uuid.UUID             `json:"user_id"`
	Items             []ItemDTO             `json:"items"`
	Subtotal          string                `json:"subtotal"`
	SubtotalCents     int                   `json:"subtotal_cents"`
	ShippingCost      string                `json:"shipping_cost"`
	ShippingCostCents int                   `json:"shipping_cost_cents"`
	Total             string                `json:"total"`
	TotalCents        int                   `json:"total_cents"`
	ShippingAddress   types.ShippingAddress `json:"shipping_address"`
	Status            enums.OrderStatus     `json:"status"`
	PaymentSessionID  *string               `json:"payment_session_id,omitempty"`
	CreatedAt         time.Time             `json:"created_at"`
	UpdatedAt         time.Time             `json:"updated_at"`
}

// OrderList is one admin page of orders.
type OrderList struct {
	Orders     []OrderDTO `json:"orders"`
	NextCursor string     `json:"next_cursor,omitempty"`
}

// StatusChangeRequest asks for an admin status transition.
type StatusChangeRequest struct {
	Status string `json:"status" validate:"required"`
}

func FromModel(o *models.Order) OrderDTO {
	items := make([]ItemDTO, 0, len(o.Items))
	for _, it := range o.Items {
		items = append(items, ItemDTO{
			ProductID:      it.ProductID,
			ProductName:    it.ProductName,
			Quantity:       it.Quantity,
			UnitPrice:      types.FormatEuros(it.UnitPriceCents),
			UnitPriceCents: it.UnitPriceCents,
			TotalCents:     it.UnitPriceCents * it.Quantity,
		})
	}
	return OrderDTO{
		ID:                o.ID,
		UserID:            o.UserID,
		Items:             items,
		Subtotal:          types.FormatEuros(o.SubtotalCents),
		SubtotalCents:     o.SubtotalCents,
		ShippingCost:      types.FormatEuros(o.ShippingCostCents),
		ShippingCostCents: o.ShippingCostCents,
		Total:             types.FormatEuros(o.TotalCents),
		TotalCents:        o.TotalCents,
		ShippingAddress:   o.ShippingAddress,
		Status:            o.Status,
		PaymentSessionID:  o.PaymentSessionID,
		CreatedAt:         o.CreatedAt,
		UpdatedAt:         o.UpdatedAt,
	}
}

func fromModels(rows []models.Order) []OrderDTO {
	out := make([]OrderDTO, 0, len(rows))
	for i := range rows {
		out = append(out, FromModel(&rows[i]))
	}
	return out
}
