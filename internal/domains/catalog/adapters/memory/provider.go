package memory

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/Apurer/go-reservation-api-server/internal/domains/catalog/domain"
	"github.com/Apurer/go-reservation-api-server/internal/domains/catalog/ports"
)

var _ ports.Provider = (*Provider)(nil)

// Provider is an in-memory catalog adapter used for tests and dev fallbacks.
type Provider struct {
	mu       sync.RWMutex
	products map[string]*domain.Product
	clock    func() time.Time
}

func NewProvider() *Provider {
	return &Provider{products: map[string]*domain.Product{}, clock: time.Now}
}

func (p *Provider) Exists(_ context.Context, productID string) (bool, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	_, ok := p.products[productID]
	return ok, nil
}

func (p *Provider) Get(_ context.Context, productID string) (*domain.Product, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	product, ok := p.products[productID]
	if !ok {
		return nil, ports.ErrNotFound
	}
	clone := *product
	return &clone, nil
}

func (p *Provider) Save(_ context.Context, product *domain.Product) (*domain.Product, error) {
	if product == nil {
		return nil, errors.New("product is nil")
	}
	clone := *product
	now := p.clock()
	p.mu.Lock()
	defer p.mu.Unlock()
	if existing, ok := p.products[clone.ID]; ok {
		clone.CreatedAt = existing.CreatedAt
	} else {
		clone.CreatedAt = now
	}
	clone.UpdatedAt = now
	p.products[clone.ID] = &clone
	result := clone
	return &result, nil
}
