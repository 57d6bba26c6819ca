package postgres

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/Apurer/go-reservation-api-server/internal/domains/reservations/domain"
	"github.com/Apurer/go-reservation-api-server/internal/domains/reservations/ports"
)

var _ ports.Repository = (*Repository)(nil)

// Repository persists reservations in PostgreSQL using GORM. Status
// transitions are conditional UPDATEs guarded on the current status column;
// the database's row-level serialization arbitrates racing writers and
// RowsAffected reports who won.
type Repository struct {
	db *gorm.DB
}

// NewRepository wires a PostgreSQL-backed reservation store. Caller manages DB lifecycle.
func NewRepository(db *gorm.DB) *Repository {
	repo := &Repository{db: db}
	if db != nil {
		_ = db.AutoMigrate(&reservationRecord{}, &lineRecord{})
	}
	return repo
}

type reservationRecord struct {
	ID                 string       `gorm:"primaryKey;column:id;size:64"`
	PurchaseRef        string       `gorm:"column:purchase_ref;size:128;index"`
	UserID             string       `gorm:"column:user_id;size:64;index:idx_reservations_user_created"`
	Status             string       `gorm:"column:status;type:varchar(16);index:idx_reservations_status_expiry"`
	CancellationReason string       `gorm:"column:cancellation_reason;size:255"`
	OperatorID         string       `gorm:"column:operator_id;size:64"`
	ExpiresAt          time.Time    `gorm:"column:expires_at;index:idx_reservations_status_expiry"`
	CreatedAt          time.Time    `gorm:"column:created_at;index:idx_reservations_user_created"`
	UpdatedAt          time.Time    `gorm:"column:updated_at"`
	Lines              []lineRecord `gorm:"foreignKey:ReservationID;references:ID"`
}

func (reservationRecord) TableName() string { return "reservations" }

type lineRecord struct {
	ID            int64  `gorm:"primaryKey;autoIncrement;column:id"`
	ReservationID string `gorm:"column:reservation_id;size:64;index"`
	ProductID     string `gorm:"column:product_id;size:64;index"`
	Quantity      int64  `gorm:"column:quantity;not null"`
}

func (lineRecord) TableName() string { return "reservation_lines" }

// Create inserts the reservation and its lines in one transaction; this is
// the commit point of reservation creation.
func (r *Repository) Create(ctx context.Context, reservation *domain.Reservation) (*domain.Reservation, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	if reservation == nil {
		return nil, errors.New("reservation is nil")
	}
	record := toRecord(reservation)
	if err := r.db.WithContext(ctx).Create(&record).Error; err != nil {
		return nil, err
	}
	return r.GetByID(ctx, record.ID)
}

// GetByID loads a reservation with its lines.
func (r *Repository) GetByID(ctx context.Context, id string) (*domain.Reservation, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	var record reservationRecord
	if err := r.db.WithContext(ctx).Preload("Lines").First(&record, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ports.ErrNotFound
		}
		return nil, err
	}
	return record.toDomain(), nil
}

// List returns one page of the filtered reservations plus the unpaged total.
func (r *Repository) List(ctx context.Context, filter ports.ListFilter) ([]*domain.Reservation, int64, error) {
	if err := r.ensureDB(); err != nil {
		return nil, 0, err
	}
	query := r.db.WithContext(ctx).Model(&reservationRecord{}).Where("user_id = ?", filter.UserID)
	if filter.Status != nil {
		query = query.Where("status = ?", string(*filter.Status))
	}
	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var records []reservationRecord
	if err := query.
		Preload("Lines").
		Order("created_at DESC").
		Order("id DESC").
		Offset((filter.Page - 1) * filter.Limit).
		Limit(filter.Limit).
		Find(&records).Error; err != nil {
		return nil, 0, err
	}
	reservations := make([]*domain.Reservation, 0, len(records))
	for i := range records {
		reservations = append(reservations, records[i].toDomain())
	}
	return reservations, total, nil
}

// TransitionStatus applies the conditional status update. RowsAffected == 0
// means a racing operation changed the row first (or the id is unknown); a
// follow-up read distinguishes the two.
func (r *Repository) TransitionStatus(ctx context.Context, id string, from, to domain.Status, fields ports.TransitionFields) (*domain.Reservation, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	if !domain.CanTransition(from, to) {
		return nil, ports.ErrStatusConflict
	}
	updates := map[string]any{
		"status":     string(to),
		"updated_at": gorm.Expr("NOW()"),
	}
	if fields.CancellationReason != "" {
		updates["cancellation_reason"] = fields.CancellationReason
	}
	if fields.OperatorID != "" {
		updates["operator_id"] = fields.OperatorID
	}
	result := r.db.WithContext(ctx).Model(&reservationRecord{}).
		Where("id = ? AND status = ?", id, string(from)).
		Updates(updates)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		var count int64
		if err := r.db.WithContext(ctx).Model(&reservationRecord{}).Where("id = ?", id).Count(&count).Error; err != nil {
			return nil, err
		}
		if count == 0 {
			return nil, ports.ErrNotFound
		}
		return nil, ports.ErrStatusConflict
	}
	return r.GetByID(ctx, id)
}

// FindExpired selects confirmed reservations past their TTL, oldest first.
func (r *Repository) FindExpired(ctx context.Context, now time.Time, limit int) ([]*domain.Reservation, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	var records []reservationRecord
	query := r.db.WithContext(ctx).
		Preload("Lines").
		Where("status = ? AND expires_at < ?", string(domain.StatusConfirmed), now).
		Order("expires_at ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&records).Error; err != nil {
		return nil, err
	}
	reservations := make([]*domain.Reservation, 0, len(records))
	for i := range records {
		reservations = append(reservations, records[i].toDomain())
	}
	return reservations, nil
}

func (r *Repository) ensureDB() error {
	if r == nil || r.db == nil {
		return errors.New("postgres reservation repository not configured")
	}
	return nil
}

func toRecord(reservation *domain.Reservation) reservationRecord {
	record := reservationRecord{
		ID:                 reservation.ID,
		PurchaseRef:        reservation.PurchaseRef,
		UserID:             reservation.UserID,
		Status:             string(reservation.Status),
		CancellationReason: reservation.CancellationReason,
		OperatorID:         reservation.OperatorID,
		ExpiresAt:          reservation.ExpiresAt,
		CreatedAt:          reservation.CreatedAt,
		UpdatedAt:          reservation.UpdatedAt,
	}
	for _, line := range reservation.Lines {
		record.Lines = append(record.Lines, lineRecord{ProductID: line.ProductID, Quantity: line.Quantity})
	}
	return record
}

func (r reservationRecord) toDomain() *domain.Reservation {
	reservation := &domain.Reservation{
		ID:                 r.ID,
		PurchaseRef:        r.PurchaseRef,
		UserID:             r.UserID,
		Status:             domain.Status(r.Status),
		CancellationReason: r.CancellationReason,
		OperatorID:         r.OperatorID,
		ExpiresAt:          r.ExpiresAt,
		CreatedAt:          r.CreatedAt,
		UpdatedAt:          r.UpdatedAt,
	}
	for _, line := range r.Lines {
		reservation.Lines = append(reservation.Lines, domain.Line{ProductID: line.ProductID, Quantity: line.Quantity})
	}
	return reservation
}
