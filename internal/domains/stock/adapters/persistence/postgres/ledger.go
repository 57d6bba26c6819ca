package postgres

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Apurer/go-reservation-api-server/internal/domains/stock/domain"
	"github.com/Apurer/go-reservation-api-server/internal/domains/stock/ports"
)

var _ ports.Ledger = (*Ledger)(nil)

// Ledger persists stock levels in PostgreSQL using GORM.
//
// Reserve relies on a single conditional UPDATE; the database serializes
// concurrent writers on the row, so the decrement and the availability check
// form one atomic step.
type Ledger struct {
	db *gorm.DB
}

// NewLedger wires a PostgreSQL-backed stock ledger. Caller manages DB lifecycle.
func NewLedger(db *gorm.DB) *Ledger {
	ledger := &Ledger{db: db}
	if db != nil {
		_ = db.AutoMigrate(&levelRecord{}, &movementRecord{})
	}
	return ledger
}

type levelRecord struct {
	ProductID string    `gorm:"primaryKey;column:product_id;size:64"`
	Available int64     `gorm:"column:available;not null"`
	CreatedAt time.Time `gorm:"column:created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at;index"`
}

func (levelRecord) TableName() string { return "stock_levels" }

type movementRecord struct {
	ID            int64     `gorm:"primaryKey;autoIncrement;column:id"`
	ProductID     string    `gorm:"column:product_id;size:64;index:idx_stock_movements_product"`
	Delta         int64     `gorm:"column:delta;not null"`
	Reason        string    `gorm:"column:reason;type:varchar(32)"`
	ReservationID string    `gorm:"column:reservation_id;size:64;index"`
	CreatedAt     time.Time `gorm:"column:created_at;index"`
}

func (movementRecord) TableName() string { return "stock_movements" }

// Reserve decrements availability only when the row still holds enough stock.
func (l *Ledger) Reserve(ctx context.Context, productID string, quantity int64, reservationID string) error {
	if err := validateMutation(productID, quantity); err != nil {
		return err
	}
	if err := l.ensureDB(); err != nil {
		return err
	}
	return l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&levelRecord{}).
			Where("product_id = ? AND available >= ?", productID, quantity).
			Updates(map[string]any{
				"available":  gorm.Expr("available - ?", quantity),
				"updated_at": gorm.Expr("NOW()"),
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			// Either the product is unknown or stock ran out; a snapshot
			// read distinguishes the two for the error payload.
			var record levelRecord
			if err := tx.First(&record, "product_id = ?", productID).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return domain.ErrUnknownProduct
				}
				return err
			}
			return &domain.InsufficientStockError{ProductID: productID, Requested: quantity, Available: record.Available}
		}
		return tx.Create(&movementRecord{
			ProductID:     productID,
			Delta:         -quantity,
			Reason:        string(domain.ReasonReserve),
			ReservationID: reservationID,
		}).Error
	})
}

// Release increments availability unconditionally and records the movement.
func (l *Ledger) Release(ctx context.Context, productID string, quantity int64, reservationID string, reason domain.MovementReason) error {
	if err := validateMutation(productID, quantity); err != nil {
		return err
	}
	if err := l.ensureDB(); err != nil {
		return err
	}
	return l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&levelRecord{}).
			Where("product_id = ?", productID).
			Updates(map[string]any{
				"available":  gorm.Expr("available + ?", quantity),
				"updated_at": gorm.Expr("NOW()"),
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return domain.ErrUnknownProduct
		}
		return tx.Create(&movementRecord{
			ProductID:     productID,
			Delta:         quantity,
			Reason:        string(reason),
			ReservationID: reservationID,
		}).Error
	})
}

// Get fetches a read-only snapshot of the level row.
func (l *Ledger) Get(ctx context.Context, productID string) (*domain.Level, error) {
	if err := l.ensureDB(); err != nil {
		return nil, err
	}
	var record levelRecord
	if err := l.db.WithContext(ctx).First(&record, "product_id = ?", productID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrUnknownProduct
		}
		return nil, err
	}
	return record.toDomain(), nil
}

// Provision upserts the level row, adding quantity to any existing stock.
func (l *Ledger) Provision(ctx context.Context, productID string, quantity int64) (*domain.Level, error) {
	if err := validateMutation(productID, quantity); err != nil {
		return nil, err
	}
	if err := l.ensureDB(); err != nil {
		return nil, err
	}
	record := levelRecord{ProductID: productID, Available: quantity}
	err := l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "product_id"}},
			DoUpdates: clause.Assignments(map[string]any{
				"available":  gorm.Expr("stock_levels.available + ?", quantity),
				"updated_at": gorm.Expr("NOW()"),
			}),
		}).Create(&record).Error; err != nil {
			return err
		}
		return tx.Create(&movementRecord{
			ProductID: productID,
			Delta:     quantity,
			Reason:    string(domain.ReasonProvision),
		}).Error
	})
	if err != nil {
		return nil, err
	}
	return l.Get(ctx, productID)
}

// Movements returns the audit trail for a product, newest first.
func (l *Ledger) Movements(ctx context.Context, productID string) ([]domain.Movement, error) {
	if err := l.ensureDB(); err != nil {
		return nil, err
	}
	var records []movementRecord
	if err := l.db.WithContext(ctx).
		Where("product_id = ?", productID).
		Order("id DESC").
		Find(&records).Error; err != nil {
		return nil, err
	}
	movements := make([]domain.Movement, 0, len(records))
	for i := range records {
		movements = append(movements, records[i].toDomain())
	}
	return movements, nil
}

func (l *Ledger) ensureDB() error {
	if l == nil || l.db == nil {
		return errors.New("postgres stock ledger not configured")
	}
	return nil
}

func validateMutation(productID string, quantity int64) error {
	if productID == "" {
		return domain.ErrEmptyProductID
	}
	if quantity <= 0 {
		return domain.ErrInvalidQuantity
	}
	return nil
}

func (r levelRecord) toDomain() *domain.Level {
	return &domain.Level{ProductID: r.ProductID, Available: r.Available, UpdatedAt: r.UpdatedAt}
}

func (r movementRecord) toDomain() domain.Movement {
	return domain.Movement{
		ID:            r.ID,
		ProductID:     r.ProductID,
		Delta:         r.Delta,
		Reason:        domain.MovementReason(r.Reason),
		ReservationID: r.ReservationID,
		CreatedAt:     r.CreatedAt,
	}
}
