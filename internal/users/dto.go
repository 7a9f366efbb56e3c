package users

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/phytopro-backend/pkg/db/models"
)

// UserDTO is the transport shape that omits sensitive credentials.
type UserDTO struct {
	ID                uuid.UUID `json:"id"`
	Email             string    `json:"email"`
	Name              string    `json:"name"`
	Picture           *string   `json:"picture,omitempty"`
	IsProfessional    bool      `json:"is_professional"`
	CertificateNumber *string   `json:"certificate_number,omitempty"`
	IsAdmin           bool      `json:"is_admin"`
	CreatedAt         time.Time `json:"created_at"`
}

// CreateUserDTO holds the data required by the repo to persist a new user.
type CreateUserDTO struct {
	Email             string
	Name              string
	Picture           *string
	PasswordHash      *string
	IsProfessional    bool
	CertificateNumber *string
}

func FromModel(u *models.User) *UserDTO {
	if u == nil {
		return nil
	}
	return &UserDTO{
		ID:                u.ID,
		Email:             u.Email,
		Name:              u.Name,
		Picture:           u.Picture,
		IsProfessional:    u.IsProfessional,
		CertificateNumber: u.CertificateNumber,
		IsAdmin:           u.IsAdmin,
		CreatedAt:         u.CreatedAt,
	}
}

func (c CreateUserDTO) ToModel() *models.User {
	return &models.User{
		Email:             NormalizeEmail(c.Email),
		Name:              c.Name,
		Picture:           c.Picture,
		PasswordHash:      c.PasswordHash,
		IsProfessional:    c.IsProfessional,
		CertificateNumber: c.CertificateNumber,
	}
}
