package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// UserSession is a login session identified by an opaque token.
type UserSession struct {
	ID           uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID       uuid.UUID `gorm:"column:user_id;type:uuid;not null;index"`
	SessionToken string    `gorm:"column:session_token;not null;uniqueIndex"`
	ExpiresAt    time.Time `gorm:"column:expires_at;not null"`
	CreatedAt    time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (s *UserSession) BeforeCreate(*gorm.DB) error {
	ensureID(&s.ID)
	return nil
}
