package seats

import (
	"context"
	"errors"

	"seatline/internal/shared/apperr"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var ErrSeatNotFound = apperr.New(apperr.NotFound, "seat not found")

// reservationSeatsTable holds the seat/session association; it is read by
// name to derive availability without depending on the reservations package.
const reservationSeatsTable = "reservation_seats"

type Repository interface {
	CreateMany(ctx context.Context, seats []Seat) (int64, error)
	GetByID(ctx context.Context, id uuid.UUID) (*Seat, error)
	GetByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]Seat, error)
	List(ctx context.Context, class SeatClass) ([]Seat, error)
	ReservedSeatIDs(ctx context.Context, eventID uuid.UUID) (map[uuid.UUID]bool, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

// CreateMany inserts the seats, skipping positions that already exist. It
// returns the number of new rows.
func (r *repository) CreateMany(ctx context.Context, seats []Seat) (int64, error) {
	if len(seats) == 0 {
		return 0, nil
	}
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		CreateInBatches(&seats, 200)
	return res.RowsAffected, res.Error
}

func (r *repository) GetByID(ctx context.Context, id uuid.UUID) (*Seat, error) {
	var seat Seat
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&seat).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSeatNotFound
		}
		return nil, err
	}
	return &seat, nil
}

// GetByIDs loads the given seats keyed by id. Unknown ids are absent from the map.
func (r *repository) GetByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]Seat, error) {
	out := make(map[uuid.UUID]Seat, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var seats []Seat
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&seats).Error; err != nil {
		return nil, err
	}
	for _, seat := range seats {
		out[seat.ID] = seat
	}
	return out, nil
}

func (r *repository) List(ctx context.Context, class SeatClass) ([]Seat, error) {
	db := r.db.WithContext(ctx).Model(&Seat{})
	if class != "" {
		db = db.Where("class = ?", class)
	}

	var seats []Seat
	err := db.Order("class DESC").Order("seat_row ASC").Order("seat_column ASC").Find(&seats).Error
	return seats, err
}

func (r *repository) ReservedSeatIDs(ctx context.Context, eventID uuid.UUID) (map[uuid.UUID]bool, error) {
	var ids []uuid.UUID
	err := r.db.WithContext(ctx).
		Table(reservationSeatsTable).
		Where("event_id = ?", eventID).
		Pluck("seat_id", &ids).Error
	if err != nil {
		return nil, err
	}

	reserved := make(map[uuid.UUID]bool, len(ids))
	for _, id := range ids {
		reserved[id] = true
	}
	return reserved, nil
}
