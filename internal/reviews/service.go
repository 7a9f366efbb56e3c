package reviews

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/phytopro-backend/internal/catalog"
	"github.com/angelmondragon/phytopro-backend/pkg/db"
	"github.com/angelmondragon/phytopro-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/phytopro-backend/pkg/errors"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service records reviews and keeps product rating aggregates current.
type Service interface {
	Create(ctx context.Context, author *models.User, req CreateRequest) (*ReviewDTO, error)
	ListByProduct(ctx context.Context, productID uuid.UUID) ([]ReviewDTO, error)
}

type service struct {
	tx       txRunner
	reviews  *Repository
	products *catalog.Repository
}

func NewService(tx txRunner, reviews *Repository, products *catalog.Repository) (Service, error) {
	if tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if reviews == nil {
		return nil, fmt.Errorf("reviews repository required")
	}
	if products == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	return &service{tx: tx, reviews: reviews, products: products}, nil
}

func (s *service) Create(ctx context.Context, author *models.User, req CreateRequest) (*ReviewDTO, error) {
	if author == nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	if req.Rating < 1 || req.Rating > 5 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "rating must be between 1 and 5")
	}

	review := &models.Review{
		ProductID: req.ProductID,
		UserID:    author.ID,
		UserName:  author.Name,
		Rating:    req.Rating,
		Comment:   strings.TrimSpace(req.Comment),
	}
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		products := s.products.WithTx(tx)
		reviews := s.reviews.WithTx(tx)

		exists, err := products.Exists(ctx, req.ProductID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check product")
		}
		if !exists {
			return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		dup, err := reviews.Exists(ctx, req.ProductID, author.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check existing review")
		}
		if dup {
			return pkgerrors.New(pkgerrors.CodeDuplicateReview, "you have already reviewed this product")
		}
		if err := reviews.Create(ctx, review); err != nil {
			if db.IsUniqueViolation(err, "") {
				return pkgerrors.New(pkgerrors.CodeDuplicateReview, "you have already reviewed this product")
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create review")
		}

		agg, err := reviews.Aggregate(ctx, req.ProductID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "aggregate ratings")
		}
		if _, err := products.Update(ctx, req.ProductID, map[string]any{
			"rating":        AverageRating(agg),
			"reviews_count": agg.Count,
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update product rating")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	dto := FromModel(*review)
	return &dto, nil
}

func (s *service) ListByProduct(ctx context.Context, productID uuid.UUID) ([]ReviewDTO, error) {
	rows, err := s.reviews.ListByProduct(ctx, productID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list reviews")
	}
	out := make([]ReviewDTO, 0, len(rows))
	for _, row := range rows {
		out = append(out, FromModel(row))
	}
	return out, nil
}

// AverageRating rounds the mean rating to one decimal place.
func AverageRating(agg Aggregate) decimal.Decimal {
	if agg.Count == 0 {
		return decimal.Zero
	}
	return decimal.NewFromInt(agg.Sum).Div(decimal.NewFromInt(agg.Count)).Round(1)
}
