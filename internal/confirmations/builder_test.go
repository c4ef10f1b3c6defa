package confirmations

import (
	"context"
	"testing"
	"time"

	"seatline/internal/events"
	"seatline/internal/reservations"
	"seatline/internal/seats"
	"seatline/internal/users"
	"seatline/pkg/datefmt"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"
)

type fakeReservations map[uuid.UUID]*reservations.Reservation

func (f fakeReservations) GetByID(ctx context.Context, id uuid.UUID, forUpdate bool) (*reservations.Reservation, error) {
	r, ok := f[id]
	if !ok {
		return nil, reservations.ErrReservationNotFound
	}
	return r, nil
}

type fakeUsers map[uuid.UUID]*users.User

func (f fakeUsers) GetByID(ctx context.Context, id uuid.UUID) (*users.User, error) {
	u, ok := f[id]
	if !ok {
		return nil, users.ErrUserNotFound
	}
	return u, nil
}

type fakeEvents map[uuid.UUID]*events.Event

func (f fakeEvents) GetByID(ctx context.Context, id uuid.UUID) (*events.Event, error) {
	e, ok := f[id]
	if !ok {
		return nil, events.ErrEventNotFound
	}
	return e, nil
}

type fakeSeats map[uuid.UUID]seats.Seat

func (f fakeSeats) GetByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]seats.Seat, error) {
	out := map[uuid.UUID]seats.Seat{}
	for _, id := range ids {
		if s, ok := f[id]; ok {
			out[id] = s
		}
	}
	return out, nil
}

type fixture struct {
	reservations fakeReservations
	users        fakeUsers
	events       fakeEvents
	seats        fakeSeats
	builder      *Builder
	sealed       *reservations.Reservation
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		reservations: fakeReservations{},
		users:        fakeUsers{},
		events:       fakeEvents{},
		seats:        fakeSeats{},
	}

	owner := &users.User{ID: uuid.New(), FirstName: "Ada", LastName: "Lovelace", Email: "ada@example.com"}
	f.users[owner.ID] = owner

	event := &events.Event{ID: uuid.New(), Title: "Recital", DateTime: time.Date(2026, 12, 20, 22, 30, 0, 0, time.UTC), MaxTickets: 4}
	f.events[event.ID] = event

	b2 := seats.Seat{ID: uuid.New(), Row: "B", Column: 2, Class: seats.ClassStage}
	a1 := seats.Seat{ID: uuid.New(), Row: "A", Column: 1, Class: seats.ClassStage}
	f.seats[b2.ID] = b2
	f.seats[a1.ID] = a1

	code := "ABCDEF1234"
	f.sealed = &reservations.Reservation{
		ID:       uuid.New(),
		OwnerID:  &owner.ID,
		EventID:  &event.ID,
		Finished: true,
		Code:     &code,
		Seats: []reservations.ReservationSeat{
			{SeatID: a1.ID, EventID: event.ID, Position: 2},
			{SeatID: b2.ID, EventID: event.ID, Position: 1},
		},
	}
	f.reservations[f.sealed.ID] = f.sealed

	dates := datefmt.Options{Location: time.FixedZone("BRT", -3*3600), Language: language.BrazilianPortuguese}
	f.builder = NewBuilder(f.reservations, f.users, f.events, f.seats, dates)
	return f
}

func TestBuild(t *testing.T) {
	f := newFixture(t)

	c, err := f.builder.Build(context.Background(), f.sealed.ID)

	require.NoError(t, err)
	assert.Equal(t, "Ada Lovelace", c.OwnerName)
	assert.Equal(t, "ada@example.com", c.OwnerEmail)
	assert.Equal(t, "Recital", c.EventTitle)
	assert.Equal(t, "20 DEZ", c.EventDate)
	assert.Equal(t, "19:30", c.EventTime)
	assert.Equal(t, []string{"B2", "A1"}, c.Seats)
	assert.Equal(t, "ABCDEF1234", c.Code)
}

func TestBuildFailures(t *testing.T) {
	tests := []struct {
		name    string
		prepare func(f *fixture) uuid.UUID
		wantErr error
	}{
		{
			name:    "unknown reservation",
			prepare: func(f *fixture) uuid.UUID { return uuid.New() },
			wantErr: reservations.ErrReservationNotFound,
		},
		{
			name: "not finished",
			prepare: func(f *fixture) uuid.UUID {
				f.sealed.Finished = false
				f.sealed.Code = nil
				return f.sealed.ID
			},
			wantErr: ErrNotSealed,
		},
		{
			name: "event detached",
			prepare: func(f *fixture) uuid.UUID {
				f.sealed.EventID = nil
				return f.sealed.ID
			},
			wantErr: ErrEventDetached,
		},
		{
			name: "event row gone",
			prepare: func(f *fixture) uuid.UUID {
				delete(f.events, *f.sealed.EventID)
				return f.sealed.ID
			},
			wantErr: ErrEventDetached,
		},
		{
			name: "seat row gone",
			prepare: func(f *fixture) uuid.UUID {
				delete(f.seats, f.sealed.Seats[0].SeatID)
				return f.sealed.ID
			},
			wantErr: seats.ErrSeatNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			id := tt.prepare(f)

			_, err := f.builder.Build(context.Background(), id)

			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestBuildWithDeletedOwner(t *testing.T) {
	t.Run("reassigned to sentinel", func(t *testing.T) {
		f := newFixture(t)
		deleted := users.DeletedUserID
		f.sealed.OwnerID = &deleted

		c, err := f.builder.Build(context.Background(), f.sealed.ID)

		require.NoError(t, err)
		assert.Equal(t, "Deleted User", c.OwnerName)
		assert.Empty(t, c.OwnerEmail)
	})

	t.Run("owner row missing", func(t *testing.T) {
		f := newFixture(t)
		delete(f.users, *f.sealed.OwnerID)

		c, err := f.builder.Build(context.Background(), f.sealed.ID)

		require.NoError(t, err)
		assert.Equal(t, "Deleted User", c.OwnerName)
		assert.Empty(t, c.OwnerEmail)
	})
}
