package reservations

import (
	"context"
	"sort"
	"sync"
	"time"

	"seatline/internal/events"
	"seatline/internal/notifications"
	"seatline/internal/seats"

	"github.com/google/uuid"
)

// fakeRepository keeps rows in memory and restores them when a transaction
// callback fails. Transactions run one at a time, standing in for the event
// row lock every claim takes first.
type fakeRepository struct {
	txMu         sync.Mutex
	mu           sync.Mutex
	events       map[uuid.UUID]*events.Event
	seats        map[uuid.UUID]*seats.Seat
	reservations map[uuid.UUID]*Reservation
}

func newFakeRepository() *fakeRepository {
	return &fakeRepository{
		events:       map[uuid.UUID]*events.Event{},
		seats:        map[uuid.UUID]*seats.Seat{},
		reservations: map[uuid.UUID]*Reservation{},
	}
}

func cloneReservation(r *Reservation) *Reservation {
	out := *r
	out.Seats = append([]ReservationSeat(nil), r.Seats...)
	return &out
}

func (f *fakeRepository) addEvent(maxTickets, maxSeatings int) *events.Event {
	e := &events.Event{ID: uuid.New(), Title: "Recital", MaxTickets: maxTickets, MaxSeatings: maxSeatings}
	f.events[e.ID] = e
	return e
}

func (f *fakeRepository) addSeat(row string, column int) *seats.Seat {
	s := &seats.Seat{ID: uuid.New(), Row: row, Column: column, Class: seats.ClassStage}
	f.seats[s.ID] = s
	return s
}

func (f *fakeRepository) stored(id uuid.UUID) (*Reservation, bool) {
	r, ok := f.reservations[id]
	if !ok {
		return nil, false
	}
	return cloneReservation(r), true
}

func (f *fakeRepository) Transaction(ctx context.Context, fn func(tx Repository) error) error {
	f.txMu.Lock()
	defer f.txMu.Unlock()

	f.mu.Lock()
	snapshot := make(map[uuid.UUID]*Reservation, len(f.reservations))
	for id, r := range f.reservations {
		snapshot[id] = cloneReservation(r)
	}
	f.mu.Unlock()

	if err := fn(f); err != nil {
		f.mu.Lock()
		f.reservations = snapshot
		f.mu.Unlock()
		return err
	}
	return nil
}

func (f *fakeRepository) LockEvent(ctx context.Context, eventID uuid.UUID) (*events.Event, error) {
	e, ok := f.events[eventID]
	if !ok {
		return nil, events.ErrEventNotFound
	}
	copied := *e
	return &copied, nil
}

func (f *fakeRepository) GetSeat(ctx context.Context, seatID uuid.UUID) (*seats.Seat, error) {
	s, ok := f.seats[seatID]
	if !ok {
		return nil, seats.ErrSeatNotFound
	}
	copied := *s
	return &copied, nil
}

func (f *fakeRepository) FindOpenSession(ctx context.Context, ownerID, eventID uuid.UUID) (*Reservation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.reservations {
		if r.Finished || r.OwnerID == nil || r.EventID == nil {
			continue
		}
		if *r.OwnerID == ownerID && *r.EventID == eventID {
			return cloneReservation(r), nil
		}
	}
	return nil, nil
}

func (f *fakeRepository) FindSeatHolder(ctx context.Context, eventID, seatID uuid.UUID) (*Reservation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.reservations {
		for _, s := range r.Seats {
			if s.EventID == eventID && s.SeatID == seatID {
				return cloneReservation(r), nil
			}
		}
	}
	return nil, nil
}

func (f *fakeRepository) CountEventSeats(ctx context.Context, eventID uuid.UUID) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for _, r := range f.reservations {
		for _, s := range r.Seats {
			if s.EventID == eventID {
				n++
			}
		}
	}
	return n, nil
}

func (f *fakeRepository) GetByID(ctx context.Context, id uuid.UUID, forUpdate bool) (*Reservation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.stored(id)
	if !ok {
		return nil, ErrReservationNotFound
	}
	return r, nil
}

func (f *fakeRepository) Create(ctx context.Context, reservation *Reservation) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if reservation.ID == uuid.Nil {
		reservation.ID = uuid.New()
	}
	if reservation.CreatedAt.IsZero() {
		reservation.CreatedAt = reservation.UpdatedAt
	}
	f.reservations[reservation.ID] = cloneReservation(reservation)
	return nil
}

func (f *fakeRepository) AddSeat(ctx context.Context, seat *ReservationSeat) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.reservations {
		for _, s := range r.Seats {
			if s.EventID == seat.EventID && s.SeatID == seat.SeatID {
				return ErrSeatTaken
			}
		}
	}
	r, ok := f.reservations[seat.ReservationID]
	if !ok {
		return ErrReservationNotFound
	}
	r.Seats = append(r.Seats, *seat)
	sort.Slice(r.Seats, func(i, j int) bool { return r.Seats[i].Position < r.Seats[j].Position })
	return nil
}

func (f *fakeRepository) Touch(ctx context.Context, id uuid.UUID, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if r, ok := f.reservations[id]; ok {
		r.UpdatedAt = at
	}
	return nil
}

func (f *fakeRepository) Seal(ctx context.Context, id uuid.UUID, code string, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.reservations[id]
	if !ok || r.Finished {
		return ErrAlreadyFinished
	}
	r.Finished = true
	r.Code = &code
	r.UpdatedAt = at
	return nil
}

func (f *fakeRepository) MarkPaid(ctx context.Context, id uuid.UUID, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if r, ok := f.reservations[id]; ok {
		r.IsPaid = true
		r.UpdatedAt = at
	}
	return nil
}

func (f *fakeRepository) Delete(ctx context.Context, id uuid.UUID) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.reservations[id]
	if !ok {
		return 0, ErrReservationNotFound
	}
	delete(f.reservations, id)
	return int64(len(r.Seats)), nil
}

func (f *fakeRepository) ListStale(ctx context.Context, cutoff time.Time, limit int) ([]Reservation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []Reservation
	for _, r := range f.reservations {
		if !r.Finished && r.UpdatedAt.Before(cutoff) {
			out = append(out, *cloneReservation(r))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.Before(out[j].UpdatedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeRepository) ListStaleOnEvent(ctx context.Context, eventID uuid.UUID, cutoff time.Time) ([]Reservation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []Reservation
	for _, r := range f.reservations {
		if r.Finished || r.EventID == nil || *r.EventID != eventID {
			continue
		}
		if r.UpdatedAt.Before(cutoff) {
			out = append(out, *cloneReservation(r))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.Before(out[j].UpdatedAt) })
	return out, nil
}

type recordingPublisher struct {
	mu       sync.Mutex
	messages []*notifications.ReservationEvent
}

func (p *recordingPublisher) Publish(ctx context.Context, event *notifications.ReservationEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.messages = append(p.messages, event)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) count(t notifications.EventType) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, m := range p.messages {
		if m.Type == t {
			n++
		}
	}
	return n
}

type recordingInvalidator struct {
	mu     sync.Mutex
	events []uuid.UUID
}

func (i *recordingInvalidator) InvalidateAvailability(ctx context.Context, eventID uuid.UUID) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.events = append(i.events, eventID)
}

type stubLocker struct {
	err      error
	acquired int
	released int
}

func (l *stubLocker) Acquire(ctx context.Context, eventID, seatID uuid.UUID) (func(), error) {
	if l.err != nil {
		return nil, l.err
	}
	l.acquired++
	return func() { l.released++ }, nil
}
