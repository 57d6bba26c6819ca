package ports

import (
	"context"
	"errors"

	"github.com/Apurer/go-reservation-api-server/internal/domains/catalog/domain"
)

var ErrNotFound = errors.New("product not found")

// Provider supplies product existence and metadata for line validation.
// The full catalog surface (attributes, images, listings) lives elsewhere;
// the reservation core only consumes this narrow port.
type Provider interface {
	Exists(ctx context.Context, productID string) (bool, error)
	Get(ctx context.Context, productID string) (*domain.Product, error)
	Save(ctx context.Context, product *domain.Product) (*domain.Product, error)
}
