package catalog

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/phytopro-backend/internal/repo"
	"github.com/angelmondragon/phytopro-backend/pkg/db"
	"github.com/angelmondragon/phytopro-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/phytopro-backend/pkg/errors"
	"github.com/angelmondragon/phytopro-backend/pkg/pagination"
	"github.com/angelmondragon/phytopro-backend/pkg/types"
)

// FeaturedLimit caps the featured products shown on the home page.
const FeaturedLimit = 6

// Service exposes catalog reads and admin product management.
type Service interface {
	List(ctx context.Context, filters ListFilters, page pagination.OffsetParams) ([]ProductDTO, error)
	Featured(ctx context.Context) ([]ProductDTO, error)
	GetBySlug(ctx context.Context, slug string) (*ProductDTO, error)
	Categories(ctx context.Context) ([]CategoryDTO, error)
	AdminList(ctx context.Context) ([]ProductDTO, error)
	Create(ctx context.Context, input ProductInput) (*ProductDTO, error)
	Update(ctx context.Context, id uuid.UUID, patch ProductPatch) (*ProductDTO, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type service struct {
	repo *Repository
}

// NewService builds the catalog service.
func NewService(r *Repository) (Service, error) {
	if r == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	return &service{repo: r}, nil
}

func (s *service) List(ctx context.Context, filters ListFilters, page pagination.OffsetParams) ([]ProductDTO, error) {
	if filters.MinPriceCents != nil && filters.MaxPriceCents != nil && *filters.MinPriceCents > *filters.MaxPriceCents {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "min_price must not exceed max_price")
	}
	rows, err := s.repo.List(ctx, filters, page)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list products")
	}
	return fromModels(rows), nil
}

func (s *service) Featured(ctx context.Context) ([]ProductDTO, error) {
	rows, err := s.repo.Featured(ctx, FeaturedLimit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list featured products")
	}
	return fromModels(rows), nil
}

func (s *service) GetBySlug(ctx context.Context, slug string) (*ProductDTO, error) {
	product, err := s.repo.FindBySlug(ctx, slug)
	if err != nil {
		if repo.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load product")
	}
	dto := FromModel(product)
	return &dto, nil
}

func (s *service) Categories(ctx context.Context) ([]CategoryDTO, error) {
	rows, err := s.repo.Categories(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list categories")
	}
	out := make([]CategoryDTO, 0, len(rows))
	for _, row := range rows {
		out = append(out, categoryFromModel(row))
	}
	return out, nil
}

func (s *service) AdminList(ctx context.Context) ([]ProductDTO, error) {
	rows, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list products")
	}
	return fromModels(rows), nil
}

func (s *service) Create(ctx context.Context, input ProductInput) (*ProductDTO, error) {
	priceCents, err := priceToCents(input.Price)
	if err != nil {
		return nil, err
	}
	if input.Stock < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "stock must be non-negative")
	}
	slug := strings.TrimSpace(input.Slug)
	if slug == "" || strings.TrimSpace(input.Name) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name and slug are required")
	}

	product := &models.Product{
		Name:               strings.TrimSpace(input.Name),
		Slug:               slug,
		Category:           input.Category,
		Subcategory:        input.Subcategory,
		Brand:              input.Brand,
		PriceCents:         priceCents,
		AMMNumber:          input.AMMNumber,
		Description:        input.Description,
		Composition:        input.Composition,
		Dosage:             input.Dosage,
		DangersGHS:         pq.StringArray(nonNil(input.DangersGHS)),
		Images:             pq.StringArray(nonNil(input.Images)),
		Stock:              input.Stock,
		IsBio:              input.IsBio,
		IsProfessionalOnly: input.IsProfessionalOnly,
		Featured:           input.Featured,
		Rating:             decimal.Zero,
	}
	if err := s.repo.Create(ctx, product); err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "product slug already exists")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create product")
	}
	dto := FromModel(product)
	return &dto, nil
}

func (s *service) Update(ctx context.Context, id uuid.UUID, patch ProductPatch) (*ProductDTO, error) {
	updates, err := patch.columns()
	if err != nil {
		return nil, err
	}

	if len(updates) > 0 {
		found, err := s.repo.Update(ctx, id, updates)
		if err != nil {
			if db.IsUniqueViolation(err, "") {
				return nil, pkgerrors.New(pkgerrors.CodeConflict, "product slug already exists")
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update product")
		}
		if !found {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
	}

	product, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if repo.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load product")
	}
	dto := FromModel(product)
	return &dto, nil
}

func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	found, err := s.repo.Delete(ctx, id)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete product")
	}
	if !found {
		return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	return nil
}

func (p ProductPatch) columns() (map[string]any, error) {
	updates := map[string]any{}
	setString := func(col string, v *string) {
		if v != nil {
			updates[col] = strings.TrimSpace(*v)
		}
	}
	setString("name", p.Name)
	setString("slug", p.Slug)
	setString("category", p.Category)
	setString("brand", p.Brand)
	setString("description", p.Description)
	if name, ok := updates["name"]; ok && name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name must not be empty")
	}
	if slug, ok := updates["slug"]; ok && slug == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "slug must not be empty")
	}

	if p.Subcategory != nil {
		updates["subcategory"] = *p.Subcategory
	}
	if p.AMMNumber != nil {
		updates["amm_number"] = *p.AMMNumber
	}
	if p.Composition != nil {
		updates["composition"] = *p.Composition
	}
	if p.Dosage != nil {
		updates["dosage"] = *p.Dosage
	}
	if p.DangersGHS != nil {
		updates["dangers_ghs"] = pq.StringArray(p.DangersGHS)
	}
	if p.Images != nil {
		updates["images"] = pq.StringArray(p.Images)
	}
	if p.Price != nil {
		cents, err := priceToCents(*p.Price)
		if err != nil {
			return nil, err
		}
		updates["price_cents"] = cents
	}
	if p.Stock != nil {
		if *p.Stock < 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "stock must be non-negative")
		}
		updates["stock"] = *p.Stock
	}
	if p.IsBio != nil {
		updates["is_bio"] = *p.IsBio
	}
	if p.IsProfessionalOnly != nil {
		updates["is_professional_only"] = *p.IsProfessionalOnly
	}
	if p.Featured != nil {
		updates["featured"] = *p.Featured
	}
	return updates, nil
}

func priceToCents(price decimal.Decimal) (int, error) {
	cents, err := types.EurosToCents(price)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "price "+err.Error())
	}
	return cents, nil
}
