package domain

import (
	"errors"
	"strings"
	"time"
)

var (
	ErrEmptyProductID = errors.New("product id must not be empty")
	ErrEmptyName      = errors.New("product name must not be empty")
)

// Product is the catalog view the reservation core validates lines against.
// Catalog attributes beyond identity are owned by the catalog portals; only
// existence and basic metadata matter here.
type Product struct {
	ID        string
	Name      string
	SKU       string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewProduct validates and constructs a product record.
func NewProduct(id, name, sku string) (*Product, error) {
	id = strings.TrimSpace(id)
	name = strings.TrimSpace(name)
	if id == "" {
		return nil, ErrEmptyProductID
	}
	if name == "" {
		return nil, ErrEmptyName
	}
	return &Product{ID: id, Name: name, SKU: strings.TrimSpace(sku)}, nil
}
