package models

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Category groups catalog products for navigation.
type Category struct {
	ID          uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name        string    `gorm:"column:name;not null"`
	Slug        string    `gorm:"column:slug;not null;uniqueIndex"`
	Icon        string    `gorm:"column:icon;not null;default:''"`
	Description string    `gorm:"column:description;not null;default:''"`
}

func (c *Category) BeforeCreate(*gorm.DB) error {
	ensureID(&c.ID)
	return nil
}
