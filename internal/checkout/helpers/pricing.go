package helpers

import (
	"github.com/google/uuid"

	"github.com/angelmondragon/phytopro-backend/pkg/config"
	"github.com/angelmondragon/phytopro-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/phytopro-backend/pkg/errors"
)

// Line is a priced snapshot of one cart row taken at order time.
type Line struct {
	ProductID      uuid.UUID
	ProductName    string
	Quantity       int
	UnitPriceCents int
}

// SubtotalCents returns unit price times quantity.
func (l Line) SubtotalCents() int {
	return l.UnitPriceCents * l.Quantity
}

// SnapshotLines prices cart items against freshly loaded products. Items whose
// product no longer exists are skipped; a product that cannot cover the
// requested quantity fails the whole snapshot.
func SnapshotLines(items []models.CartItem, products map[uuid.UUID]models.Product) ([]Line, error) {
	lines := make([]Line, 0, len(items))
	for _, item := range items {
		product, ok := products[item.ProductID]
		if !ok {
			continue
		}
		if product.Stock < item.Quantity {
			return nil, pkgerrors.InsufficientStock(pkgerrors.StockDetails{
				ProductID:   product.ID.String(),
				ProductName: product.Name,
				Available:   product.Stock,
				Requested:   item.Quantity,
			})
		}
		lines = append(lines, Line{
			ProductID:      product.ID,
			ProductName:    product.Name,
			Quantity:       item.Quantity,
			UnitPriceCents: product.PriceCents,
		})
	}
	return lines, nil
}

// Totals holds the amounts written on an order.
type Totals struct {
	SubtotalCents int
	ShippingCents int
	TotalCents    int
	ItemCount     int
}

// ComputeTotals sums the lines and applies the shipping rule.
func ComputeTotals(lines []Line, shipping config.ShippingConfig) Totals {
	var totals Totals
	for _, line := range lines {
		totals.SubtotalCents += line.SubtotalCents()
		totals.ItemCount += line.Quantity
	}
	totals.ShippingCents = ShippingCost(totals.SubtotalCents, shipping)
	totals.TotalCents = totals.SubtotalCents + totals.ShippingCents
	return totals
}

// ShippingCost is free at or above the threshold, otherwise the flat fee.
func ShippingCost(subtotalCents int, shipping config.ShippingConfig) int {
	if subtotalCents >= shipping.FreeThresholdCents {
		return 0
	}
	return shipping.FlatFeeCents
}

// ShippingQuote previews the shipping cost for a subtotal.
type ShippingQuote struct {
	ShippingCostCents    int
	ThresholdCents       int
	IsFree               bool
	AmountRemainingCents int
}

func Quote(subtotalCents int, shipping config.ShippingConfig) ShippingQuote {
	cost := ShippingCost(subtotalCents, shipping)
	remaining := shipping.FreeThresholdCents - subtotalCents
	if remaining < 0 {
		remaining = 0
	}
	return ShippingQuote{
		ShippingCostCents:    cost,
		ThresholdCents:       shipping.FreeThresholdCents,
		IsFree:               cost == 0,
		AmountRemainingCents: remaining,
	}
}
