package types

import (
	"fmt"
	"strings"
)

// ShippingAddress is the delivery address captured on an order.
type ShippingAddress struct {
	FullName   string `json:"full_name" validate:"required"`
	Address    string `json:"address" validate:"required"`
	City       string `json:"city" validate:"required"`
	PostalCode string `json:"postal_code" validate:"required"`
	Country    string `json:"country"`
	Phone      string `json:"phone" validate:"required"`
}

// Normalize trims all fields and defaults the country.
func (a ShippingAddress) Normalize() ShippingAddress {
	a.FullName = strings.TrimSpace(a.FullName)
	a.Address = strings.TrimSpace(a.Address)
	a.City = strings.TrimSpace(a.City)
	a.PostalCode = strings.TrimSpace(a.PostalCode)
	a.Country = strings.TrimSpace(a.Country)
	a.Phone = strings.TrimSpace(a.Phone)
	if a.Country == "" {
		a.Country = "France"
	}
	return a
}

// Validate reports the first missing required field.
func (a ShippingAddress) Validate() error {
	required := []struct {
		name  string
		value string
	}{
		{"full_name", a.FullName},
		{"address", a.Address},
		{"city", a.City},
		{"postal_code", a.PostalCode},
		{"phone", a.Phone},
	}
	for _, field := range required {
		if strings.TrimSpace(field.value) == "" {
			return fmt.Errorf("shipping address: missing %s", field.name)
		}
	}
	return nil
}
