package catalog

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/phytopro-backend/pkg/db/models"
	"github.com/angelmondragon/phytopro-backend/pkg/types"
)

// ProductDTO is the catalog listing returned to clients.
type ProductDTO struct {
	ID                 uuid.UUID `json:"id"`
	Name               string    `json:"name"`
	Slug               string    `json:"slug"`
	Category           string    `json:"category"`
	Subcategory        *string   `json:"subcategory,omitempty"`
	Brand              string    `json:"brand"`
	Price              string    `json:"price"`
	PriceCents         int       `json:"price_cents"`
	AMMNumber          *string   `json:"amm_number,omitempty"`
	Description        string    `json:"description"`
	Composition        *string   `json:"composition,omitempty"`
	Dosage             *string   `json:"dosage,omitempty"`
	DangersGHS         []string  `json:"dangers_ghs"`
	Images             []string  `json:"images"`
	Stock              int       `json:"stock"`
	IsBio              bool      `json:"is_bio"`
	IsProfessionalOnly bool      `json:"is_professional_only"`
	Featured           bool      `json:"featured"`
	Rating             float64   `json:"rating"`
	ReviewsCount       int       `json:"reviews_count"`
	CreatedAt          time.Time `json:"created_at"`
}

// CategoryDTO is a navigation category.
type CategoryDTO struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Slug        string    `json:"slug"`
	Icon        string    `json:"icon"`
	Description string    `json:"description"`
}

// ListFilters narrows the public product listing. Nil fields are ignored.
type ListFilters struct {
	Category      *string
	Subcategory   *string
	Brand         *string
	IsBio         *bool
	Search        string
	MinPriceCents *int
	MaxPriceCents *int
}

// ProductInput is the admin create payload.
type ProductInput struct {
	Name               string          `json:"name" validate:"required"`
	Slug               string          `json:"slug" validate:"required"`
	Category           string          `json:"category" validate:"required"`
	Subcategory        *string         `json:"subcategory,omitempty"`
	Brand              string          `json:"brand" validate:"required"`
	Price              decimal.Decimal `json:"price"`
	AMMNumber          *string         `json:"amm_number,omitempty"`
	Description        string          `json:"description"`
	Composition        *string         `json:"composition,omitempty"`
	Dosage             *string         `json:"dosage,omitempty"`
	DangersGHS         []string        `json:"dangers_ghs"`
	Images             []string        `json:"images"`
	Stock              int             `json:"stock" validate:"gte=0"`
	IsBio              bool            `json:"is_bio"`
	IsProfessionalOnly bool            `json:"is_professional_only"`
	Featured           bool            `json:"featured"`
}

// ProductPatch is the admin partial update payload; only non-nil fields change.
type ProductPatch struct {
	Name               *string          `json:"name,omitempty"`
	Slug               *string          `json:"slug,omitempty"`
	Category           *string          `json:"category,omitempty"`
	Subcategory        *string          `json:"subcategory,omitempty"`
	Brand              *string          `json:"brand,omitempty"`
	Price              *decimal.Decimal `json:"price,omitempty"`
	AMMNumber          *string          `json:"amm_number,omitempty"`
	Description        *string          `json:"description,omitempty"`
	Composition        *string          `json:"composition,omitempty"`
	Dosage             *string          `json:"dosage,omitempty"`
	DangersGHS         []string         `json:"dangers_ghs,omitempty"`
	Images             []string         `json:"images,omitempty"`
	Stock              *int             `json:"stock,omitempty" validate:"omitempty,gte=0"`
	IsBio              *bool            `json:"is_bio,omitempty"`
	IsProfessionalOnly *bool            `json:"is_professional_only,omitempty"`
	Featured           *bool            `json:"featured,omitempty"`
}

func FromModel(p *models.Product) ProductDTO {
	return ProductDTO{
		ID:                 p.ID,
		Name:               p.Name,
		Slug:               p.Slug,
		Category:           p.Category,
		Subcategory:        p.Subcategory,
		Brand:              p.Brand,
		Price:              types.FormatEuros(p.PriceCents),
		PriceCents:         p.PriceCents,
		AMMNumber:          p.AMMNumber,
		Description:        p.Description,
		Composition:        p.Composition,
		Dosage:             p.Dosage,
		DangersGHS:         nonNil(p.DangersGHS),
		Images:             nonNil(p.Images),
		Stock:              p.Stock,
		IsBio:              p.IsBio,
		IsProfessionalOnly: p.IsProfessionalOnly,
		Featured:           p.Featured,
		Rating:             p.Rating.InexactFloat64(),
		ReviewsCount:       p.ReviewsCount,
		CreatedAt:          p.CreatedAt,
	}
}

func fromModels(rows []models.Product) []ProductDTO {
	out := make([]ProductDTO, 0, len(rows))
	for i := range rows {
		out = append(out, FromModel(&rows[i]))
	}
	return out
}

func categoryFromModel(c models.Category) CategoryDTO {
	return CategoryDTO{
		ID:          c.ID,
		Name:        c.Name,
		Slug:        c.Slug,
		Icon:        c.Icon,
		Description: c.Description,
	}
}

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
