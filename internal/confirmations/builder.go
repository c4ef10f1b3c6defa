package confirmations

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"seatline/internal/events"
	"seatline/internal/reservations"
	"seatline/internal/seats"
	"seatline/internal/users"
	"seatline/pkg/datefmt"

	"github.com/google/uuid"
)

type ReservationReader interface {
	GetByID(ctx context.Context, id uuid.UUID, forUpdate bool) (*reservations.Reservation, error)
}

type UserReader interface {
	GetByID(ctx context.Context, id uuid.UUID) (*users.User, error)
}

type EventReader interface {
	GetByID(ctx context.Context, id uuid.UUID) (*events.Event, error)
}

type SeatReader interface {
	GetByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]seats.Seat, error)
}

// Builder assembles the Confirmation of a finished reservation
type Builder struct {
	reservations ReservationReader
	users        UserReader
	events       EventReader
	seats        SeatReader
	dates        datefmt.Options
}

func NewBuilder(reservationRepo ReservationReader, userRepo UserReader, eventRepo EventReader, seatRepo SeatReader, dates datefmt.Options) *Builder {
	return &Builder{
		reservations: reservationRepo,
		users:        userRepo,
		events:       eventRepo,
		seats:        seatRepo,
		dates:        dates,
	}
}

func (b *Builder) Build(ctx context.Context, reservationID uuid.UUID) (*Confirmation, error) {
	reservation, err := b.reservations.GetByID(ctx, reservationID, false)
	if err != nil {
		return nil, err
	}
	if !reservation.Finished || reservation.Code == nil {
		return nil, ErrNotSealed
	}

	event, err := b.event(ctx, reservation.EventID)
	if err != nil {
		return nil, err
	}
	owner, err := b.owner(ctx, reservation.OwnerID)
	if err != nil {
		return nil, err
	}
	labels, err := b.labels(ctx, reservation.Seats)
	if err != nil {
		return nil, err
	}

	confirmation := &Confirmation{
		OwnerName:  owner.FullName(),
		EventTitle: event.Title,
		EventDate:  event.DateLabel(b.dates),
		EventTime:  event.TimeLabel(b.dates),
		Seats:      labels,
		Code:       *reservation.Code,
	}
	if !owner.IsDeleted() {
		confirmation.OwnerEmail = owner.Email
	}
	return confirmation, nil
}

func (b *Builder) event(ctx context.Context, id *uuid.UUID) (*events.Event, error) {
	if id == nil {
		return nil, ErrEventDetached
	}
	event, err := b.events.GetByID(ctx, *id)
	if errors.Is(err, events.ErrEventNotFound) {
		return nil, ErrEventDetached
	}
	return event, err
}

// owner falls back to the deleted-user sentinel when the row is gone
func (b *Builder) owner(ctx context.Context, id *uuid.UUID) (*users.User, error) {
	if id == nil || *id == users.DeletedUserID {
		return users.DeletedUser(), nil
	}
	owner, err := b.users.GetByID(ctx, *id)
	if errors.Is(err, users.ErrUserNotFound) {
		return users.DeletedUser(), nil
	}
	return owner, err
}

func (b *Builder) labels(ctx context.Context, held []reservations.ReservationSeat) ([]string, error) {
	ordered := append([]reservations.ReservationSeat(nil), held...)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].Position < ordered[j].Position })

	ids := make([]uuid.UUID, len(ordered))
	for i, s := range ordered {
		ids[i] = s.SeatID
	}
	found, err := b.seats.GetByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load reservation seats: %w", err)
	}

	labels := make([]string, 0, len(ordered))
	for _, s := range ordered {
		seat, ok := found[s.SeatID]
		if !ok {
			return nil, fmt.Errorf("seat %s: %w", s.SeatID, seats.ErrSeatNotFound)
		}
		labels = append(labels, seat.Label())
	}
	return labels, nil
}
