package stats

import (
	"context"
	"fmt"

	pkgerrors "github.com/angelmondragon/phytopro-backend/pkg/errors"
	"github.com/angelmondragon/phytopro-backend/pkg/types"
)

// Stats is the admin dashboard summary.
type Stats struct {
	ProductsCount      int64           `json:"products_count"`
	UsersCount         int64           `json:"users_count"`
	OrdersCount        int64           `json:"orders_count"`
	TotalRevenue       string          `json:"total_revenue"`
	TotalRevenueCents  int64           `json:"total_revenue_cents"`
	ProductsByCategory []CategoryCount `json:"products_by_category"`
}

type Service interface {
	Summary(ctx context.Context) (*Stats, error)
}

type service struct {
	repo *Repository
}

func NewService(r *Repository) (Service, error) {
	if r == nil {
		return nil, fmt.Errorf("stats repository required")
	}
	return &service{repo: r}, nil
}

func (s *service) Summary(ctx context.Context) (*Stats, error) {
	var out Stats
	var err error
	if out.ProductsCount, err = s.repo.ProductsCount(ctx); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "count products")
	}
	if out.UsersCount, err = s.repo.UsersCount(ctx); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "count users")
	}
	if out.OrdersCount, err = s.repo.OrdersCount(ctx); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "count orders")
	}
	if out.TotalRevenueCents, err = s.repo.PaidRevenueCents(ctx); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "sum revenue")
	}
	out.TotalRevenue = types.FormatEuros(int(out.TotalRevenueCents))
	if out.ProductsByCategory, err = s.repo.ProductsByCategory(ctx); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "group products")
	}
	if out.ProductsByCategory == nil {
		out.ProductsByCategory = []CategoryCount{}
	}
	return &out, nil
}
