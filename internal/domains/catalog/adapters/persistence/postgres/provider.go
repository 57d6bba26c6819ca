package postgres

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Apurer/go-reservation-api-server/internal/domains/catalog/domain"
	"github.com/Apurer/go-reservation-api-server/internal/domains/catalog/ports"
)

var _ ports.Provider = (*Provider)(nil)

// Provider persists catalog products in PostgreSQL using GORM.
type Provider struct {
	db *gorm.DB
}

// NewProvider wires a PostgreSQL-backed catalog provider. Caller manages DB lifecycle.
func NewProvider(db *gorm.DB) *Provider {
	provider := &Provider{db: db}
	if db != nil {
		_ = db.AutoMigrate(&productRecord{})
	}
	return provider
}

type productRecord struct {
	ID        string    `gorm:"primaryKey;column:id;size:64"`
	Name      string    `gorm:"column:name;size:255"`
	SKU       string    `gorm:"column:sku;size:64;index"`
	CreatedAt time.Time `gorm:"column:created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
}

func (productRecord) TableName() string { return "catalog_products" }

func (p *Provider) Exists(ctx context.Context, productID string) (bool, error) {
	if err := p.ensureDB(); err != nil {
		return false, err
	}
	var count int64
	if err := p.db.WithContext(ctx).Model(&productRecord{}).
		Where("id = ?", productID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (p *Provider) Get(ctx context.Context, productID string) (*domain.Product, error) {
	if err := p.ensureDB(); err != nil {
		return nil, err
	}
	var record productRecord
	if err := p.db.WithContext(ctx).First(&record, "id = ?", productID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ports.ErrNotFound
		}
		return nil, err
	}
	return record.toDomain(), nil
}

func (p *Provider) Save(ctx context.Context, product *domain.Product) (*domain.Product, error) {
	if err := p.ensureDB(); err != nil {
		return nil, err
	}
	if product == nil {
		return nil, errors.New("product is nil")
	}
	record := productRecord{ID: product.ID, Name: product.Name, SKU: product.SKU}
	if err := p.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "id"}},
			DoUpdates: clause.Assignments(map[string]any{
				"name":       record.Name,
				"sku":        record.SKU,
				"updated_at": gorm.Expr("NOW()"),
			}),
		}).Create(&record).Error; err != nil {
		return nil, err
	}
	return p.Get(ctx, record.ID)
}

func (p *Provider) ensureDB() error {
	if p == nil || p.db == nil {
		return errors.New("postgres catalog provider not configured")
	}
	return nil
}

func (r productRecord) toDomain() *domain.Product {
	return &domain.Product{
		ID:        r.ID,
		Name:      r.Name,
		SKU:       r.SKU,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}
