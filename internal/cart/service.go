package cart

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/angelmondragon/phytopro-backend/internal/repo"
	"github.com/angelmondragon/phytopro-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/phytopro-backend/pkg/errors"
	"github.com/angelmondragon/phytopro-backend/pkg/types"
)

type productLoader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.Product, error)
}

// Service exposes the per-user cart. Stock checks here are advisory; the
// order flow re-validates everything.
type Service interface {
	Get(ctx context.Context, userID uuid.UUID) (*View, error)
	Add(ctx context.Context, userID uuid.UUID, req AddItemRequest) error
	Update(ctx context.Context, userID, itemID uuid.UUID, qty int) error
	Remove(ctx context.Context, userID, itemID uuid.UUID) error
}

type service struct {
	repo     *Repository
	products productLoader
}

// NewService builds a cart service backed by the provided stack.
func NewService(r *Repository, products productLoader) (Service, error) {
	if r == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if products == nil {
		return nil, fmt.Errorf("product loader required")
	}
	return &service{repo: r, products: products}, nil
}

func (s *service) Get(ctx context.Context, userID uuid.UUID) (*View, error) {
	rows, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list cart")
	}
	ids := make([]uuid.UUID, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.ProductID)
	}
	products, err := s.products.FindByIDs(ctx, ids)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load cart products")
	}

	view := &View{Items: make([]ItemDTO, 0, len(rows))}
	for _, row := range rows {
		product, ok := products[row.ProductID]
		if !ok {
			continue
		}
		view.Items = append(view.Items, ItemDTO{
			ID:        row.ID,
			ProductID: row.ProductID,
			Quantity:  row.Quantity,
			Product:   summarize(product),
		})
		view.SubtotalCents += product.PriceCents * row.Quantity
	}
	view.Subtotal = types.FormatEuros(view.SubtotalCents)
	return view, nil
}

func (s *service) Add(ctx context.Context, userID uuid.UUID, req AddItemRequest) error {
	if req.Quantity < 1 {
		return pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1")
	}
	product, err := s.loadProduct(ctx, req.ProductID)
	if err != nil {
		return err
	}

	existing, err := s.repo.QuantityFor(ctx, userID, product.ID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load cart line")
	}
	if requested := existing + req.Quantity; requested > product.Stock {
		return insufficient(product, requested)
	}

	if err := s.repo.AddOrMerge(ctx, userID, product.ID, req.Quantity); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "add cart item")
	}
	return nil
}

func (s *service) Update(ctx context.Context, userID, itemID uuid.UUID, qty int) error {
	if qty < 1 {
		return pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1")
	}
	item, err := s.repo.FindOwned(ctx, userID, itemID)
	if err != nil {
		if repo.IsNotFound(err) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "cart item not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load cart item")
	}
	product, err := s.loadProduct(ctx, item.ProductID)
	if err != nil {
		return err
	}
	if qty > product.Stock {
		return insufficient(product, qty)
	}

	found, err := s.repo.SetQuantity(ctx, userID, itemID, qty)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update cart item")
	}
	if !found {
		return pkgerrors.New(pkgerrors.CodeNotFound, "cart item not found")
	}
	return nil
}

func (s *service) Remove(ctx context.Context, userID, itemID uuid.UUID) error {
	found, err := s.repo.Delete(ctx, userID, itemID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "remove cart item")
	}
	if !found {
		return pkgerrors.New(pkgerrors.CodeNotFound, "cart item not found")
	}
	return nil
}

func (s *service) loadProduct(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	product, err := s.products.FindByID(ctx, id)
	if err != nil {
		if repo.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load product")
	}
	return product, nil
}

func insufficient(p *models.Product, requested int) error {
	return pkgerrors.InsufficientStock(pkgerrors.StockDetails{
		ProductID:   p.ID.String(),
		ProductName: p.Name,
		Available:   p.Stock,
		Requested:   requested,
	})
}
