package migrations

import (
	"time"

	"gorm.io/gorm"
)

// Run applies the schema for the bounded contexts. Intended to replace adapter-level automigrate.
func Run(db *gorm.DB) error {
	if db == nil {
		return nil
	}
	return db.AutoMigrate(
		&reservationRecord{},
		&lineRecord{},
		&levelRecord{},
		&movementRecord{},
		&productRecord{},
	)
}

// Reservation schema mirrors the reservations Postgres adapter.
type reservationRecord struct {
	ID                 string    `gorm:"primaryKey;column:id;size:64"`
	PurchaseRef        string    `gorm:"column:purchase_ref;size:128;index"`
	UserID             string    `gorm:"column:user_id;size:64;index:idx_reservations_user_created"`
	Status             string    `gorm:"column:status;type:varchar(16);index:idx_reservations_status_expiry"`
	CancellationReason string    `gorm:"column:cancellation_reason;size:255"`
	OperatorID         string    `gorm:"column:operator_id;size:64"`
	ExpiresAt          time.Time `gorm:"column:expires_at;index:idx_reservations_status_expiry"`
	CreatedAt          time.Time `gorm:"column:created_at;index:idx_reservations_user_created"`
	UpdatedAt          time.Time `gorm:"column:updated_at"`
}

func (reservationRecord) TableName() string { return "reservations" }

type lineRecord struct {
	ID            int64  `gorm:"primaryKey;autoIncrement;column:id"`
	ReservationID string `gorm:"column:reservation_id;size:64;index"`
	ProductID     string `gorm:"column:product_id;size:64;index"`
	Quantity      int64  `gorm:"column:quantity;not null"`
}

func (lineRecord) TableName() string { return "reservation_lines" }

// Stock schema mirrors the stock Postgres adapter.
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

// Catalog schema mirrors the catalog Postgres adapter.
type productRecord struct {
	ID        string    `gorm:"primaryKey;column:id;size:64"`
	Name      string    `gorm:"column:name;size:255"`
	SKU       string    `gorm:"column:sku;size:64;index"`
	CreatedAt time.Time `gorm:"column:created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
}

func (productRecord) TableName() string { return "catalog_products" }
