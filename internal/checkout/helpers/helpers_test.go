package helpers

import (
	"testing"

	"github.com/google/uuid"

	"github.com/angelmondragon/phytopro-backend/pkg/config"
	"github.com/angelmondragon/phytopro-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/phytopro-backend/pkg/errors"
)

var shipping = config.ShippingConfig{FlatFeeCents: 990, FreeThresholdCents: 15000}

func TestShippingThresholdBoundary(t *testing.T) {
	t.Parallel()
	cases := []struct {
		subtotal int
		want     int
	}{
		{15000, 0},
		{14999, 990},
		{0, 990},
		{20000, 0},
	}
	for _, tc := range cases {
		if got := ShippingCost(tc.subtotal, shipping); got != tc.want {
			t.Fatalf("subtotal %d: expected shipping %d, got %d", tc.subtotal, tc.want, got)
		}
	}
}

func TestQuote(t *testing.T) {
	t.Parallel()
	q := Quote(14999, shipping)
	if q.IsFree || q.ShippingCostCents != 990 || q.AmountRemainingCents != 1 || q.ThresholdCents != 15000 {
		t.Fatalf("unexpected quote %+v", q)
	}
	q = Quote(18000, shipping)
	if !q.IsFree || q.ShippingCostCents != 0 || q.AmountRemainingCents != 0 {
		t.Fatalf("unexpected quote %+v", q)
	}
}

func TestSnapshotLinesSkipsVanishedProducts(t *testing.T) {
	t.Parallel()
	keep := models.Product{ID: uuid.New(), Name: "Bouillie bordelaise", PriceCents: 1250, Stock: 10}
	items := []models.CartItem{
		{ProductID: keep.ID, Quantity: 2},
		{ProductID: uuid.New(), Quantity: 1},
	}
	lines, err := SnapshotLines(items, map[uuid.UUID]models.Product{keep.ID: keep})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(lines) != 1 {
		t.Fatalf("expected 1 line, got %d", len(lines))
	}
	if lines[0].UnitPriceCents != 1250 || lines[0].ProductName != keep.Name {
		t.Fatalf("line does not snapshot the product: %+v", lines[0])
	}

	totals := ComputeTotals(lines, shipping)
	if totals.SubtotalCents != 2500 || totals.ShippingCents != 990 || totals.TotalCents != 3490 || totals.ItemCount != 2 {
		t.Fatalf("unexpected totals %+v", totals)
	}
}

func TestSnapshotLinesInsufficientStock(t *testing.T) {
	t.Parallel()
	product := models.Product{ID: uuid.New(), Name: "Soufre", PriceCents: 800, Stock: 1}
	_, err := SnapshotLines([]models.CartItem{{ProductID: product.ID, Quantity: 3}}, map[uuid.UUID]models.Product{product.ID: product})
	if !pkgerrors.IsCode(err, pkgerrors.CodeInsufficientStock) {
		t.Fatalf("expected insufficient stock, got %v", err)
	}
	details, ok := pkgerrors.As(err).Details().(pkgerrors.StockDetails)
	if !ok || details.Available != 1 || details.Requested != 3 || details.ProductName != "Soufre" {
		t.Fatalf("unexpected details %+v", pkgerrors.As(err).Details())
	}
}

func TestRedirectURLs(t *testing.T) {
	t.Parallel()
	success, cancel, err := RedirectURLs("https://shop.example.fr/")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if success != "https://shop.example.fr/commande/succes?session_id={CHECKOUT_SESSION_ID}" {
		t.Fatalf("unexpected success url %s", success)
	}
	if cancel != "https://shop.example.fr/panier" {
		t.Fatalf("unexpected cancel url %s", cancel)
	}
	for _, bad := range []string{"", "shop.example.fr", "ftp://x"} {
		if _, _, err := RedirectURLs(bad); !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
			t.Fatalf("origin %q: expected validation error, got %v", bad, err)
		}
	}
}
