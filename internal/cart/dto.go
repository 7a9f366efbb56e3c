package cart

import (
	"github.com/google/uuid"

	"github.com/angelmondragon/phytopro-backend/pkg/db/models"
	"github.com/angelmondragon/phytopro-backend/pkg/types"
)

// AddItemRequest adds qty units of a product to the cart.
type AddItemRequest struct {
	ProductID uuid.UUID `json:"product_id" validate:"required"`
	Quantity  int       `json:"quantity" validate:"required,gte=1"`
}

// UpdateItemRequest overwrites a line quantity.
type UpdateItemRequest struct {
	Quantity int `json:"quantity" validate:"required,gte=1"`
}

// ProductSummary is the live product data joined onto a cart line.
type ProductSummary struct {
	ID         uuid.UUID `json:"id"`
	Name       string    `json:"name"`
	Slug       string    `json:"slug"`
	Price      string    `json:"price"`
	PriceCents int       `json:"price_cents"`
	Stock      int       `json:"stock"`
	Images     []string  `json:"images"`
}

// ItemDTO is a cart line enriched with its product.
type ItemDTO struct {
	ID        uuid.UUID      `json:"id"`
	ProductID uuid.UUID      `json:"product_id"`
	Quantity  int            `json:"quantity"`
	Product   ProductSummary `json:"product"`
}

// View is the whole cart with a live subtotal.
type View struct {
	Items         []ItemDTO `json:"items"`
	Subtotal      string    `json:"subtotal"`
	SubtotalCents int       `json:"subtotal_cents"`
}

func summarize(p models.Product) ProductSummary {
	images := []string(p.Images)
	if images == nil {
		images = []string{}
	}
	return ProductSummary{
		ID:         p.ID,
		Name:       p.Name,
		Slug:       p.Slug,
		Price:      types.FormatEuros(p.PriceCents),
		PriceCents: p.PriceCents,
		Stock:      p.Stock,
		Images:     images,
	}
}
