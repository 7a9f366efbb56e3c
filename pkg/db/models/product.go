package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Product is a catalog listing. Stock is guarded by a CHECK (stock >= 0).
type Product struct {
	ID                 uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name               string          `gorm:"column:name;not null"`
	Slug               string          `gorm:"column:slug;not null;uniqueIndex"`
	Category           string          `gorm:"column:category;not null;index"`
	Subcategory        *string         `gorm:"column:subcategory"`
	Brand              string          `gorm:"column:brand;not null"`
	PriceCents         int             `gorm:"column:price_cents;not null"`
	AMMNumber          *string         `gorm:"column:amm_number"`
	Description        string          `gorm:"column:description;not null;default:''"`
	Composition        *string         `gorm:"column:composition"`
	Dosage             *string         `gorm:"column:dosage"`
	DangersGHS         pq.StringArray  `gorm:"column:dangers_ghs;type:text[];not null;default:'{}'"`
	Images             pq.StringArray  `gorm:"column:images;type:text[];not null;default:'{}'"`
	Stock              int             `gorm:"column:stock;not null;default:0"`
	IsBio              bool            `gorm:"column:is_bio;not null;default:false"`
	IsProfessionalOnly bool            `gorm:"column:is_professional_only;not null;default:false"`
	Featured           bool            `gorm:"column:featured;not null;default:false"`
	Rating             decimal.Decimal `gorm:"column:rating;type:numeric(2,1);not null;default:0"`
	ReviewsCount       int             `gorm:"column:reviews_count;not null;default:0"`
	CreatedAt          time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt          time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

func (p *Product) BeforeCreate(*gorm.DB) error {
	ensureID(&p.ID)
	return nil
}
