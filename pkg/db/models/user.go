package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User represents a storefront customer or administrator.
type User struct {
	ID                uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Email             string    `gorm:"column:email;type:text;not null;uniqueIndex"`
	Name              string    `gorm:"column:name;not null"`
	Picture           *string   `gorm:"column:picture"`
	PasswordHash      *string   `gorm:"column:password_hash"`
	IsProfessional    bool      `gorm:"column:is_professional;not null;default:false"`
	CertificateNumber *string   `gorm:"column:certificate_number"`
	IsAdmin           bool      `gorm:"column:is_admin;not null;default:false"`
	CreatedAt         time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (u *User) BeforeCreate(*gorm.DB) error {
	ensureID(&u.ID)
	return nil
}
