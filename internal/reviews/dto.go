package reviews

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/phytopro-backend/pkg/db/models"
)

// CreateRequest is the review submission body.
type CreateRequest struct {
	ProductID uuid.UUID `json:"product_id" validate:"required"`
	Rating    int       `json:"rating" validate:"required,min=1,max=5"`
	Comment   string    `json:"comment" validate:"max=2000"`
}

type ReviewDTO struct {
	ID        uuid.UUID `json:"id"`
	ProductID uuid.UUID `json:"product_id"`
	UserID    uuid.UUID `json:"user_id"`
	UserName  string    `json:"user_name"`
	Rating    int       `json:"rating"`
	Comment   string    `json:"comment"`
	CreatedAt time.Time `json:"created_at"`
}

func FromModel(m models.Review) ReviewDTO {
	return ReviewDTO{
		ID:        m.ID,
		ProductID: m.ProductID,
		UserID:    m.UserID,
		UserName:  m.UserName,
		Rating:    m.Rating,
		Comment:   m.Comment,
		CreatedAt: m.CreatedAt,
	}
}
