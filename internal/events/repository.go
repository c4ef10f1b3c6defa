package events

import (
	"context"
	"errors"
	"fmt"
	"time"

	"seatline/internal/shared/apperr"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var ErrEventNotFound = apperr.New(apperr.NotFound, "event not found")

// reservationsTable is updated by name when an event is deleted so that
// reservations keep existing with a cleared event reference.
const reservationsTable = "reservations"

const defaultListLimit = 100

type Repository interface {
	Create(ctx context.Context, event *Event) error
	GetByID(ctx context.Context, id uuid.UUID) (*Event, error)
	List(ctx context.Context, query EventListQuery, now time.Time) ([]Event, error)
	Update(ctx context.Context, id uuid.UUID, updates map[string]interface{}) (*Event, error)
	DeleteAndDetach(ctx context.Context, id uuid.UUID) (int64, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, event *Event) error {
	return r.db.WithContext(ctx).Create(event).Error
}

func (r *repository) GetByID(ctx context.Context, id uuid.UUID) (*Event, error) {
	var event Event
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&event).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrEventNotFound
		}
		return nil, err
	}
	return &event, nil
}

func (r *repository) List(ctx context.Context, query EventListQuery, now time.Time) ([]Event, error) {
	limit := query.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}

	db := r.db.WithContext(ctx).Model(&Event{})
	if query.UpcomingOnly {
		db = db.Where("date_time > ?", now)
	}

	var events []Event
	if err := db.Order("date_time ASC").Limit(limit).Find(&events).Error; err != nil {
		return nil, err
	}
	return events, nil
}

func (r *repository) Update(ctx context.Context, id uuid.UUID, updates map[string]interface{}) (*Event, error) {
	var event Event
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ?", id).First(&event).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrEventNotFound
			}
			return err
		}
		if len(updates) == 0 {
			return nil
		}
		if err := tx.Model(&event).Updates(updates).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", id).First(&event).Error
	})
	if err != nil {
		return nil, err
	}
	return &event, nil
}

// DeleteAndDetach clears the event reference on its reservations and removes
// the event in one transaction. It returns how many reservations were detached.
func (r *repository) DeleteAndDetach(ctx context.Context, id uuid.UUID) (int64, error) {
	var detached int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Table(reservationsTable).
			Where("event_id = ?", id).
			Update("event_id", nil)
		if res.Error != nil {
			return fmt.Errorf("failed to detach reservations: %w", res.Error)
		}
		detached = res.RowsAffected

		del := tx.Where("id = ?", id).Delete(&Event{})
		if del.Error != nil {
			return fmt.Errorf("failed to delete event: %w", del.Error)
		}
		if del.RowsAffected == 0 {
			return ErrEventNotFound
		}
		return nil
	})
	return detached, err
}
