package reservations

import (
	"context"
	"errors"
	"regexp"
	"sync"
	"testing"
	"time"

	"seatline/internal/events"
	"seatline/internal/notifications"
	"seatline/internal/seats"
	"seatline/internal/shared/apperr"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var codePattern = regexp.MustCompile(`^[0-9A-F]{10}$`)

type fixture struct {
	svc         *service
	repo        *fakeRepository
	publisher   *recordingPublisher
	invalidator *recordingInvalidator
	now         time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		repo:        newFakeRepository(),
		publisher:   &recordingPublisher{},
		invalidator: &recordingInvalidator{},
		now:         time.Date(2024, 12, 20, 19, 50, 0, 0, time.UTC),
	}
	f.svc = NewService(f.repo, 20*time.Minute, nil, f.invalidator, f.publisher).(*service)
	f.svc.now = func() time.Time { return f.now }
	return f
}

func (f *fixture) advance(d time.Duration) {
	f.now = f.now.Add(d)
}

func (f *fixture) claim(t *testing.T, user uuid.UUID, event *events.Event, seat *seats.Seat) (*ClaimResult, error) {
	t.Helper()
	return f.svc.Claim(context.Background(), ClaimInput{UserID: user, EventID: event.ID, SeatID: seat.ID})
}

func TestReservationLifecycle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := uuid.New()
	event := f.repo.addEvent(4, 0)
	a1, a2 := f.repo.addSeat("A", 1), f.repo.addSeat("A", 2)

	first, err := f.claim(t, user, event, a1)
	require.NoError(t, err)
	assert.True(t, first.Created)
	assert.Equal(t, 3, first.Remaining)
	assert.Equal(t, StateActive, first.Reservation.State())
	assert.Nil(t, first.Reservation.Code)

	f.advance(time.Minute)
	second, err := f.claim(t, user, event, a2)
	require.NoError(t, err)
	assert.False(t, second.Created)
	assert.Equal(t, first.Reservation.ID, second.Reservation.ID)
	assert.Equal(t, 2, second.Remaining)
	assert.Equal(t, f.now, second.Reservation.UpdatedAt)

	sealed, err := f.svc.Finish(ctx, first.Reservation.ID, true)
	require.NoError(t, err)
	require.NotNil(t, sealed.Code)
	assert.Regexp(t, codePattern, *sealed.Code)
	assert.Equal(t, StateSealedUnpaid, sealed.State())

	paid, err := f.svc.Pay(ctx, sealed.ID, true)
	require.NoError(t, err)
	assert.Equal(t, StateSealedPaid, paid.State())
	assert.Equal(t, *sealed.Code, *paid.Code)

	stored, err := f.svc.Get(ctx, sealed.ID)
	require.NoError(t, err)
	require.Len(t, stored.Seats, 2)
	assert.Equal(t, a1.ID, stored.Seats[0].SeatID)
	assert.Equal(t, a2.ID, stored.Seats[1].SeatID)

	assert.Equal(t, 2, f.publisher.count(notifications.EventSeatClaimed))
	assert.Equal(t, 1, f.publisher.count(notifications.EventReservationFinished))
	assert.Equal(t, 1, f.publisher.count(notifications.EventReservationPaid))
	assert.Contains(t, f.invalidator.events, event.ID)
}

func TestSlidingLease(t *testing.T) {
	f := newFixture(t)
	user := uuid.New()
	event := f.repo.addEvent(4, 0)
	a1, a2, a3 := f.repo.addSeat("A", 1), f.repo.addSeat("A", 2), f.repo.addSeat("A", 3)

	first, err := f.claim(t, user, event, a1)
	require.NoError(t, err)

	f.advance(15 * time.Minute)
	second, err := f.claim(t, user, event, a2)
	require.NoError(t, err)
	assert.Equal(t, first.Reservation.ID, second.Reservation.ID)
	assert.Equal(t, f.now.Add(20*time.Minute), second.Reservation.ExpiresAt())

	// exactly at the end of the lease the session is still live
	f.advance(20 * time.Minute)
	got, err := f.svc.Get(context.Background(), first.Reservation.ID)
	require.NoError(t, err)
	assert.Len(t, got.Seats, 2)

	f.advance(time.Minute)
	third, err := f.claim(t, user, event, a3)
	require.NoError(t, err)
	assert.True(t, third.Created)
	assert.NotEqual(t, first.Reservation.ID, third.Reservation.ID)
	assert.Len(t, third.Reservation.Seats, 1)

	_, stillThere := f.repo.stored(first.Reservation.ID)
	assert.False(t, stillThere)
	holder, err := f.repo.FindSeatHolder(context.Background(), event.ID, a1.ID)
	require.NoError(t, err)
	assert.Nil(t, holder)
	assert.Equal(t, 1, f.publisher.count(notifications.EventReservationExpired))
}

func TestClaimWithoutActivityStartsFreshSession(t *testing.T) {
	f := newFixture(t)
	user := uuid.New()
	event := f.repo.addEvent(4, 0)
	a1 := f.repo.addSeat("A", 1)

	first, err := f.claim(t, user, event, a1)
	require.NoError(t, err)

	f.advance(21 * time.Minute)
	again, err := f.claim(t, user, event, a1)
	require.NoError(t, err)

	assert.True(t, again.Created)
	assert.False(t, again.Refreshed)
	assert.NotEqual(t, first.Reservation.ID, again.Reservation.ID)
}

func TestClaimCapacityBoundary(t *testing.T) {
	f := newFixture(t)
	user := uuid.New()
	event := f.repo.addEvent(2, 0)
	a1, a2, a3 := f.repo.addSeat("A", 1), f.repo.addSeat("A", 2), f.repo.addSeat("A", 3)

	_, err := f.claim(t, user, event, a1)
	require.NoError(t, err)
	last, err := f.claim(t, user, event, a2)
	require.NoError(t, err)
	assert.Equal(t, 0, last.Remaining)

	_, err = f.claim(t, user, event, a3)

	var capErr *CapacityError
	require.ErrorAs(t, err, &capErr)
	assert.Equal(t, 0, capErr.Available())
	assert.Equal(t, apperr.Capacity, apperr.KindOf(err))

	stored, _ := f.repo.stored(last.Reservation.ID)
	assert.Len(t, stored.Seats, 2)
	holder, _ := f.repo.FindSeatHolder(context.Background(), event.ID, a3.ID)
	assert.Nil(t, holder)
}

func TestReclaimRefreshesLeaseOnly(t *testing.T) {
	f := newFixture(t)
	user := uuid.New()
	event := f.repo.addEvent(1, 0)
	a1 := f.repo.addSeat("A", 1)

	_, err := f.claim(t, user, event, a1)
	require.NoError(t, err)

	f.advance(10 * time.Minute)
	again, err := f.claim(t, user, event, a1)

	require.NoError(t, err)
	assert.True(t, again.Refreshed)
	assert.Len(t, again.Reservation.Seats, 1)
	assert.Equal(t, f.now, again.Reservation.UpdatedAt)
}

func TestSeatConflicts(t *testing.T) {
	tests := []struct {
		name    string
		prepare func(t *testing.T, f *fixture, event *events.Event, seat *seats.Seat)
		wantErr error
	}{
		{
			name: "live foreign session keeps the seat",
			prepare: func(t *testing.T, f *fixture, event *events.Event, seat *seats.Seat) {
				f.advance(5 * time.Minute)
			},
			wantErr: ErrSeatTaken,
		},
		{
			name: "finished foreign session never releases the seat",
			prepare: func(t *testing.T, f *fixture, event *events.Event, seat *seats.Seat) {
				holder, _ := f.repo.FindSeatHolder(context.Background(), event.ID, seat.ID)
				_, err := f.svc.Finish(context.Background(), holder.ID, true)
				require.NoError(t, err)
				f.advance(3 * time.Hour)
			},
			wantErr: ErrSeatTaken,
		},
		{
			name: "expired foreign session is evicted",
			prepare: func(t *testing.T, f *fixture, event *events.Event, seat *seats.Seat) {
				f.advance(21 * time.Minute)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			event := f.repo.addEvent(4, 0)
			seat := f.repo.addSeat("B", 7)
			first, second := uuid.New(), uuid.New()

			_, err := f.claim(t, first, event, seat)
			require.NoError(t, err)
			tt.prepare(t, f, event, seat)

			result, err := f.claim(t, second, event, seat)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Equal(t, apperr.Conflict, apperr.KindOf(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, second, *result.Reservation.OwnerID)
			assert.Equal(t, 1, f.publisher.count(notifications.EventReservationExpired))
		})
	}
}

func TestEventWideCap(t *testing.T) {
	f := newFixture(t)
	event := f.repo.addEvent(4, 1)
	a1, a2 := f.repo.addSeat("A", 1), f.repo.addSeat("A", 2)

	_, err := f.claim(t, uuid.New(), event, a1)
	require.NoError(t, err)

	_, err = f.claim(t, uuid.New(), event, a2)
	assert.ErrorIs(t, err, ErrEventSoldOut)
}

func TestEventWideCapIgnoresLapsedSessions(t *testing.T) {
	f := newFixture(t)
	event := f.repo.addEvent(4, 1)
	a1, a2 := f.repo.addSeat("A", 1), f.repo.addSeat("A", 2)

	abandoned, err := f.claim(t, uuid.New(), event, a1)
	require.NoError(t, err)

	f.advance(25 * time.Minute)
	result, err := f.claim(t, uuid.New(), event, a2)

	require.NoError(t, err)
	assert.True(t, result.Created)
	_, ok := f.repo.stored(abandoned.Reservation.ID)
	assert.False(t, ok)
	assert.Equal(t, 1, f.publisher.count(notifications.EventReservationExpired))
}

func TestEventWideCapKeepsLiveAndSealedSessions(t *testing.T) {
	f := newFixture(t)
	event := f.repo.addEvent(4, 2)

	sealed, err := f.claim(t, uuid.New(), event, f.repo.addSeat("A", 1))
	require.NoError(t, err)
	_, err = f.svc.Finish(context.Background(), sealed.Reservation.ID, true)
	require.NoError(t, err)

	f.advance(15 * time.Minute)
	_, err = f.claim(t, uuid.New(), event, f.repo.addSeat("A", 2))
	require.NoError(t, err)

	f.advance(10 * time.Minute)
	_, err = f.claim(t, uuid.New(), event, f.repo.addSeat("A", 3))
	assert.ErrorIs(t, err, ErrEventSoldOut)
	assert.Equal(t, 0, f.publisher.count(notifications.EventReservationExpired))
}

func TestConcurrentClaimsOfOneSeat(t *testing.T) {
	f := newFixture(t)
	event := f.repo.addEvent(4, 0)
	seat := f.repo.addSeat("C", 3)

	const claimants = 16
	var (
		wg    sync.WaitGroup
		start = make(chan struct{})
		errs  = make([]error, claimants)
		users = make([]uuid.UUID, claimants)
	)
	for i := range users {
		users[i] = uuid.New()
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			_, errs[i] = f.svc.Claim(context.Background(), ClaimInput{UserID: users[i], EventID: event.ID, SeatID: seat.ID})
		}(i)
	}
	close(start)
	wg.Wait()

	winner := -1
	for i, err := range errs {
		if err == nil {
			assert.Equal(t, -1, winner, "more than one claim succeeded")
			winner = i
			continue
		}
		assert.ErrorIs(t, err, ErrSeatTaken)
		assert.Equal(t, apperr.Conflict, apperr.KindOf(err))
	}
	require.NotEqual(t, -1, winner)

	holder, err := f.repo.FindSeatHolder(context.Background(), event.ID, seat.ID)
	require.NoError(t, err)
	require.NotNil(t, holder)
	assert.Equal(t, users[winner], *holder.OwnerID)
	assert.Len(t, f.repo.reservations, 1)
}

func TestClaimUnknownRows(t *testing.T) {
	f := newFixture(t)
	event := f.repo.addEvent(4, 0)
	seat := f.repo.addSeat("A", 1)

	_, err := f.svc.Claim(context.Background(), ClaimInput{UserID: uuid.New(), EventID: uuid.New(), SeatID: seat.ID})
	assert.ErrorIs(t, err, events.ErrEventNotFound)

	_, err = f.svc.Claim(context.Background(), ClaimInput{UserID: uuid.New(), EventID: event.ID, SeatID: uuid.New()})
	assert.ErrorIs(t, err, seats.ErrSeatNotFound)
	assert.Equal(t, apperr.NotFound, apperr.KindOf(err))
}

func TestFinishRules(t *testing.T) {
	ctx := context.Background()

	t.Run("flag is required", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.svc.Finish(ctx, uuid.New(), false)

		var flagErr *FlagRequiredError
		require.ErrorAs(t, err, &flagErr)
		assert.Equal(t, "finished", flagErr.Flag)
		assert.Equal(t, apperr.Validation, apperr.KindOf(err))
	})

	t.Run("unknown reservation", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.svc.Finish(ctx, uuid.New(), true)
		assert.ErrorIs(t, err, ErrReservationNotFound)
	})

	t.Run("expired session is deleted", func(t *testing.T) {
		f := newFixture(t)
		event := f.repo.addEvent(4, 0)
		claimed, err := f.claim(t, uuid.New(), event, f.repo.addSeat("A", 1))
		require.NoError(t, err)

		f.advance(25 * time.Minute)
		_, err = f.svc.Finish(ctx, claimed.Reservation.ID, true)

		assert.ErrorIs(t, err, ErrSessionExpired)
		_, ok := f.repo.stored(claimed.Reservation.ID)
		assert.False(t, ok)
	})

	t.Run("second finish is rejected and keeps the code", func(t *testing.T) {
		f := newFixture(t)
		event := f.repo.addEvent(4, 0)
		claimed, err := f.claim(t, uuid.New(), event, f.repo.addSeat("A", 1))
		require.NoError(t, err)

		sealed, err := f.svc.Finish(ctx, claimed.Reservation.ID, true)
		require.NoError(t, err)

		f.advance(time.Second)
		_, err = f.svc.Finish(ctx, claimed.Reservation.ID, true)
		assert.ErrorIs(t, err, ErrAlreadyFinished)

		stored, _ := f.repo.stored(claimed.Reservation.ID)
		assert.Equal(t, *sealed.Code, *stored.Code)
	})
}

func TestPayRules(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	event := f.repo.addEvent(4, 0)
	claimed, err := f.claim(t, uuid.New(), event, f.repo.addSeat("A", 1))
	require.NoError(t, err)
	id := claimed.Reservation.ID

	_, err = f.svc.Pay(ctx, id, false)
	assert.Equal(t, apperr.Validation, apperr.KindOf(err))

	_, err = f.svc.Pay(ctx, id, true)
	assert.ErrorIs(t, err, ErrNotFinished)

	_, err = f.svc.Finish(ctx, id, true)
	require.NoError(t, err)

	// liveness is not re-checked once sealed
	f.advance(2 * time.Hour)
	_, err = f.svc.Pay(ctx, id, true)
	require.NoError(t, err)
	again, err := f.svc.Pay(ctx, id, true)
	require.NoError(t, err)

	assert.True(t, again.IsPaid)
	assert.Equal(t, 1, f.publisher.count(notifications.EventReservationPaid))
}

func TestCancelReleasesSeats(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	event := f.repo.addEvent(4, 0)
	seat := f.repo.addSeat("C", 3)
	claimed, err := f.claim(t, uuid.New(), event, seat)
	require.NoError(t, err)

	err = f.svc.Cancel(ctx, claimed.Reservation.ID, false)
	assert.Equal(t, apperr.Validation, apperr.KindOf(err))

	require.NoError(t, f.svc.Cancel(ctx, claimed.Reservation.ID, true))
	assert.ErrorIs(t, f.svc.Cancel(ctx, claimed.Reservation.ID, true), ErrReservationNotFound)

	other, err := f.claim(t, uuid.New(), event, seat)
	require.NoError(t, err)
	assert.True(t, other.Created)
	assert.Equal(t, 1, f.publisher.count(notifications.EventReservationCancelled))
}

func TestGetEvictsExpiredSession(t *testing.T) {
	f := newFixture(t)
	event := f.repo.addEvent(4, 0)
	claimed, err := f.claim(t, uuid.New(), event, f.repo.addSeat("A", 1))
	require.NoError(t, err)

	f.advance(20*time.Minute + time.Second)
	_, err = f.svc.Get(context.Background(), claimed.Reservation.ID)

	assert.ErrorIs(t, err, ErrSessionExpired)
	assert.Equal(t, apperr.Expired, apperr.KindOf(err))
	_, err = f.svc.Get(context.Background(), claimed.Reservation.ID)
	assert.ErrorIs(t, err, ErrReservationNotFound)
}

func TestEvictExpired(t *testing.T) {
	f := newFixture(t)
	event := f.repo.addEvent(4, 0)

	stale1, err := f.claim(t, uuid.New(), event, f.repo.addSeat("A", 1))
	require.NoError(t, err)
	stale2, err := f.claim(t, uuid.New(), event, f.repo.addSeat("A", 2))
	require.NoError(t, err)
	sealed, err := f.claim(t, uuid.New(), event, f.repo.addSeat("A", 3))
	require.NoError(t, err)
	_, err = f.svc.Finish(context.Background(), sealed.Reservation.ID, true)
	require.NoError(t, err)

	f.advance(30 * time.Minute)
	fresh, err := f.claim(t, uuid.New(), event, f.repo.addSeat("A", 4))
	require.NoError(t, err)

	evicted := NewReaper(f.svc, &ReaperConfig{Interval: time.Minute, BatchSize: 1}).Sweep(context.Background())

	assert.Equal(t, 2, evicted)
	for _, id := range []uuid.UUID{stale1.Reservation.ID, stale2.Reservation.ID} {
		_, ok := f.repo.stored(id)
		assert.False(t, ok)
	}
	for _, id := range []uuid.UUID{sealed.Reservation.ID, fresh.Reservation.ID} {
		_, ok := f.repo.stored(id)
		assert.True(t, ok)
	}
}

func TestClaimLockOutcomes(t *testing.T) {
	t.Run("held lock rejects early", func(t *testing.T) {
		f := newFixture(t)
		f.svc.locker = &stubLocker{err: errLockHeld}
		event := f.repo.addEvent(4, 0)

		_, err := f.claim(t, uuid.New(), event, f.repo.addSeat("A", 1))

		assert.ErrorIs(t, err, ErrClaimBusy)
		assert.Empty(t, f.repo.reservations)
	})

	t.Run("redis outage falls through to the database", func(t *testing.T) {
		f := newFixture(t)
		f.svc.locker = &stubLocker{err: errors.New("connection refused")}
		event := f.repo.addEvent(4, 0)

		_, err := f.claim(t, uuid.New(), event, f.repo.addSeat("A", 1))

		assert.NoError(t, err)
	})

	t.Run("lock is released after the claim", func(t *testing.T) {
		f := newFixture(t)
		locker := &stubLocker{}
		f.svc.locker = locker
		event := f.repo.addEvent(4, 0)

		_, err := f.claim(t, uuid.New(), event, f.repo.addSeat("A", 1))

		require.NoError(t, err)
		assert.Equal(t, 1, locker.acquired)
		assert.Equal(t, 1, locker.released)
	})
}

// endlessEvictor always reports a full batch until its context ends
type endlessEvictor struct {
	Service
	mu     sync.Mutex
	calls  int
	cancel context.CancelFunc
	after  int
}

func (e *endlessEvictor) EvictExpired(ctx context.Context, limit int) (int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	e.calls++
	if e.cancel != nil && e.calls == e.after {
		e.cancel()
	}
	return limit, nil
}

func TestNewReaperFallsBackToDefaults(t *testing.T) {
	for _, cfg := range []*ReaperConfig{
		nil,
		{},
		{Interval: -time.Second, BatchSize: -1},
	} {
		r := NewReaper(&endlessEvictor{}, cfg)
		assert.Equal(t, time.Minute, r.config.Interval)
		assert.Equal(t, 100, r.config.BatchSize)
	}
}

func TestSweepStopsWhenContextEnds(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	evictor := &endlessEvictor{cancel: cancel, after: 3}
	r := NewReaper(evictor, &ReaperConfig{Interval: time.Minute, BatchSize: 0})

	done := make(chan int, 1)
	go func() { done <- r.Sweep(ctx) }()

	select {
	case total := <-done:
		assert.Equal(t, 300, total)
		assert.Equal(t, 3, evictor.calls)
	case <-time.After(2 * time.Second):
		t.Fatal("sweep did not return after its context ended")
	}
}

func TestReaperStopInterruptsSweep(t *testing.T) {
	evictor := &endlessEvictor{}
	r := NewReaper(evictor, &ReaperConfig{Interval: time.Millisecond, BatchSize: 10})
	r.Start(context.Background())

	require.Eventually(t, func() bool {
		evictor.mu.Lock()
		defer evictor.mu.Unlock()
		return evictor.calls > 0
	}, time.Second, time.Millisecond)

	stopped := make(chan struct{})
	go func() {
		r.Stop()
		close(stopped)
	}()

	select {
	case <-stopped:
	case <-time.After(2 * time.Second):
		t.Fatal("Stop blocked on a running sweep")
	}
}
