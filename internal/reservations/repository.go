package reservations

import (
	"context"
	"errors"
	"fmt"
	"time"

	"seatline/internal/events"
	"seatline/internal/seats"
	"seatline/internal/shared/dberr"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Repository exposes the row operations of the session state machine. The
// service composes them inside Transaction so every transition commits or
// rolls back as a whole.
type Repository interface {
	Transaction(ctx context.Context, fn func(tx Repository) error) error

	LockEvent(ctx context.Context, eventID uuid.UUID) (*events.Event, error)
	GetSeat(ctx context.Context, seatID uuid.UUID) (*seats.Seat, error)
	FindOpenSession(ctx context.Context, ownerID, eventID uuid.UUID) (*Reservation, error)
	FindSeatHolder(ctx context.Context, eventID, seatID uuid.UUID) (*Reservation, error)
	CountEventSeats(ctx context.Context, eventID uuid.UUID) (int64, error)

	GetByID(ctx context.Context, id uuid.UUID, forUpdate bool) (*Reservation, error)
	Create(ctx context.Context, reservation *Reservation) error
	AddSeat(ctx context.Context, seat *ReservationSeat) error
	Touch(ctx context.Context, id uuid.UUID, at time.Time) error
	Seal(ctx context.Context, id uuid.UUID, code string, at time.Time) error
	MarkPaid(ctx context.Context, id uuid.UUID, at time.Time) error
	Delete(ctx context.Context, id uuid.UUID) (int64, error)

	ListStale(ctx context.Context, cutoff time.Time, limit int) ([]Reservation, error)
	ListStaleOnEvent(ctx context.Context, eventID uuid.UUID, cutoff time.Time) ([]Reservation, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Transaction(ctx context.Context, fn func(tx Repository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&repository{db: tx})
	})
}

func forUpdate() clause.Locking {
	return clause.Locking{Strength: "UPDATE"}
}

func orderedSeats(db *gorm.DB) *gorm.DB {
	return db.Order("position ASC")
}

// LockEvent takes the event row lock that serializes claims on the event
func (r *repository) LockEvent(ctx context.Context, eventID uuid.UUID) (*events.Event, error) {
	var event events.Event
	err := r.db.WithContext(ctx).
		Clauses(forUpdate()).
		Where("id = ?", eventID).
		First(&event).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, events.ErrEventNotFound
		}
		return nil, mapLockError(err, "failed to lock event")
	}
	return &event, nil
}

func (r *repository) GetSeat(ctx context.Context, seatID uuid.UUID) (*seats.Seat, error) {
	var seat seats.Seat
	err := r.db.WithContext(ctx).Where("id = ?", seatID).First(&seat).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, seats.ErrSeatNotFound
		}
		return nil, err
	}
	return &seat, nil
}

// FindOpenSession returns the unfinished session of the owner on the event,
// locked, or nil when there is none.
func (r *repository) FindOpenSession(ctx context.Context, ownerID, eventID uuid.UUID) (*Reservation, error) {
	var found []Reservation
	err := r.db.WithContext(ctx).
		Clauses(forUpdate()).
		Preload("Seats", orderedSeats).
		Where("owner_id = ? AND event_id = ? AND finished = ?", ownerID, eventID, false).
		Order("updated_at DESC").
		Limit(1).
		Find(&found).Error
	if err != nil {
		return nil, mapLockError(err, "failed to load open session")
	}
	if len(found) == 0 {
		return nil, nil
	}
	return &found[0], nil
}

// FindSeatHolder returns the session holding the seat on the event, locked,
// or nil when the seat is free.
func (r *repository) FindSeatHolder(ctx context.Context, eventID, seatID uuid.UUID) (*Reservation, error) {
	var link ReservationSeat
	err := r.db.WithContext(ctx).
		Clauses(forUpdate()).
		Where("event_id = ? AND seat_id = ?", eventID, seatID).
		Limit(1).
		Find(&link).Error
	if err != nil {
		return nil, mapLockError(err, "failed to look up seat holder")
	}
	if link.ReservationID == uuid.Nil {
		return nil, nil
	}
	holder, err := r.GetByID(ctx, link.ReservationID, true)
	if errors.Is(err, ErrReservationNotFound) {
		return nil, nil
	}
	return holder, err
}

func (r *repository) CountEventSeats(ctx context.Context, eventID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&ReservationSeat{}).
		Where("event_id = ?", eventID).
		Count(&count).Error
	return count, err
}

func (r *repository) GetByID(ctx context.Context, id uuid.UUID, lock bool) (*Reservation, error) {
	db := r.db.WithContext(ctx)
	if lock {
		db = db.Clauses(forUpdate())
	}

	var reservation Reservation
	err := db.Preload("Seats", orderedSeats).Where("id = ?", id).First(&reservation).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrReservationNotFound
		}
		return nil, mapLockError(err, "failed to load reservation")
	}
	return &reservation, nil
}

func (r *repository) Create(ctx context.Context, reservation *Reservation) error {
	return r.db.WithContext(ctx).Omit("Seats").Create(reservation).Error
}

// AddSeat links a seat to a session. The unique (event_id, seat_id) index is
// the last line of defence against a double claim.
func (r *repository) AddSeat(ctx context.Context, seat *ReservationSeat) error {
	if err := r.db.WithContext(ctx).Create(seat).Error; err != nil {
		if dberr.IsUniqueViolation(err) {
			return ErrSeatTaken
		}
		return fmt.Errorf("failed to add seat: %w", err)
	}
	return nil
}

// Touch restarts the session lease
func (r *repository) Touch(ctx context.Context, id uuid.UUID, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&Reservation{}).
		Where("id = ?", id).
		Update("updated_at", at).Error
}

func (r *repository) Seal(ctx context.Context, id uuid.UUID, code string, at time.Time) error {
	res := r.db.WithContext(ctx).
		Model(&Reservation{}).
		Where("id = ? AND finished = ?", id, false).
		Updates(map[string]interface{}{
			"finished":   true,
			"code":       code,
			"updated_at": at,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrAlreadyFinished
	}
	return nil
}

func (r *repository) MarkPaid(ctx context.Context, id uuid.UUID, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&Reservation{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"is_paid":    true,
			"updated_at": at,
		}).Error
}

// Delete removes the session and releases its seats. It returns the number of
// seats released.
func (r *repository) Delete(ctx context.Context, id uuid.UUID) (int64, error) {
	released := r.db.WithContext(ctx).Where("reservation_id = ?", id).Delete(&ReservationSeat{})
	if released.Error != nil {
		return 0, fmt.Errorf("failed to release seats: %w", released.Error)
	}

	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&Reservation{})
	if res.Error != nil {
		return 0, fmt.Errorf("failed to delete reservation: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return 0, ErrReservationNotFound
	}
	return released.RowsAffected, nil
}

// ListStale returns unfinished sessions untouched since cutoff. Each session
// carries its own TTL, so callers still confirm with IsLive.
func (r *repository) ListStale(ctx context.Context, cutoff time.Time, limit int) ([]Reservation, error) {
	var stale []Reservation
	err := r.db.WithContext(ctx).
		Where("finished = ? AND updated_at < ?", false, cutoff).
		Order("updated_at ASC").
		Limit(limit).
		Find(&stale).Error
	return stale, err
}

// ListStaleOnEvent returns the event's unfinished sessions untouched since
// cutoff, locked.
func (r *repository) ListStaleOnEvent(ctx context.Context, eventID uuid.UUID, cutoff time.Time) ([]Reservation, error) {
	var stale []Reservation
	err := r.db.WithContext(ctx).
		Clauses(forUpdate()).
		Preload("Seats", orderedSeats).
		Where("event_id = ? AND finished = ? AND updated_at < ?", eventID, false, cutoff).
		Order("updated_at ASC").
		Find(&stale).Error
	if err != nil {
		return nil, mapLockError(err, "failed to load lapsed sessions")
	}
	return stale, nil
}

func mapLockError(err error, msg string) error {
	if dberr.IsLockTimeout(err) {
		return ErrClaimBusy
	}
	return fmt.Errorf("%s: %w", msg, err)
}
