package reservations

import (
	"context"
	"errors"
	"time"

	"seatline/internal/notifications"
	"seatline/internal/seats"
	"seatline/pkg/logger"

	"github.com/google/uuid"
)

type ClaimInput struct {
	UserID  uuid.UUID
	EventID uuid.UUID
	SeatID  uuid.UUID
}

type ClaimResult struct {
	Reservation *Reservation
	Seat        *seats.Seat
	// Created is set when the claim opened a new session
	Created bool
	// Refreshed is set when the seat was already in the session and only the
	// lease was renewed
	Refreshed bool
	Remaining int
}

type Service interface {
	Claim(ctx context.Context, in ClaimInput) (*ClaimResult, error)
	Finish(ctx context.Context, id uuid.UUID, flag bool) (*Reservation, error)
	Pay(ctx context.Context, id uuid.UUID, flag bool) (*Reservation, error)
	Cancel(ctx context.Context, id uuid.UUID, flag bool) error
	Get(ctx context.Context, id uuid.UUID) (*Reservation, error)
	EvictExpired(ctx context.Context, limit int) (int, error)
}

// AvailabilityInvalidator drops cached seat maps of an event
type AvailabilityInvalidator interface {
	InvalidateAvailability(ctx context.Context, eventID uuid.UUID)
}

type service struct {
	repo        Repository
	ttl         time.Duration
	locker      ClaimLocker
	invalidator AvailabilityInvalidator
	publisher   notifications.Publisher
	logger      *logger.Logger
	now         func() time.Time
}

// NewService builds the session state machine. locker, invalidator and
// publisher are optional.
func NewService(repo Repository, ttl time.Duration, locker ClaimLocker, invalidator AvailabilityInvalidator, publisher notifications.Publisher) Service {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	if publisher == nil {
		publisher = notifications.NoopPublisher{}
	}
	return &service{
		repo:        repo,
		ttl:         ttl,
		locker:      locker,
		invalidator: invalidator,
		publisher:   publisher,
		logger:      logger.GetDefault(),
		now:         time.Now,
	}
}

// Claim adds a seat to the caller's session on the event, opening one when
// needed. Every successful claim restarts the lease of the whole session.
func (s *service) Claim(ctx context.Context, in ClaimInput) (*ClaimResult, error) {
	if s.locker != nil {
		release, err := s.locker.Acquire(ctx, in.EventID, in.SeatID)
		switch {
		case errors.Is(err, errLockHeld):
			return nil, ErrClaimBusy
		case err != nil:
			s.logger.WithError(err).WarnContext(ctx, "claim lock unavailable, relying on row locks",
				"event_id", in.EventID.String(), "seat_id", in.SeatID.String())
		default:
			defer release()
		}
	}

	now := s.now()
	var (
		result  *ClaimResult
		evicted []*Reservation
	)

	err := s.repo.Transaction(ctx, func(tx Repository) error {
		result, evicted = nil, nil

		event, err := tx.LockEvent(ctx, in.EventID)
		if err != nil {
			return err
		}
		seat, err := tx.GetSeat(ctx, in.SeatID)
		if err != nil {
			return err
		}

		session, err := tx.FindOpenSession(ctx, in.UserID, in.EventID)
		if err != nil {
			return err
		}
		if session != nil && !session.IsLive(now) {
			if _, err := tx.Delete(ctx, session.ID); err != nil {
				return err
			}
			evicted = append(evicted, session)
			session = nil
		}

		if session != nil && session.HasSeat(seat.ID) {
			if err := tx.Touch(ctx, session.ID, now); err != nil {
				return err
			}
			session.UpdatedAt = now
			_, remaining := CheckCapacity(len(session.Seats), event.MaxTickets)
			result = &ClaimResult{Reservation: session, Seat: seat, Refreshed: true, Remaining: remaining}
			return nil
		}

		held := 0
		if session != nil {
			held = len(session.Seats)
		}
		if hasRoom, remaining := CheckCapacity(held, event.MaxTickets); !hasRoom {
			return &CapacityError{MaxTickets: event.MaxTickets, Remaining: remaining}
		}

		holder, err := tx.FindSeatHolder(ctx, event.ID, seat.ID)
		if err != nil {
			return err
		}
		if holder != nil {
			if holder.IsLive(now) {
				return ErrSeatTaken
			}
			if _, err := tx.Delete(ctx, holder.ID); err != nil {
				return err
			}
			evicted = append(evicted, holder)
		}

		if event.MaxSeatings > 0 {
			taken, err := tx.CountEventSeats(ctx, event.ID)
			if err != nil {
				return err
			}
			if taken >= int64(event.MaxSeatings) {
				// lapsed sessions nobody touched since still hold rows
				released, err := s.evictLapsed(ctx, tx, event.ID, now)
				if err != nil {
					return err
				}
				evicted = append(evicted, released...)
				if len(released) > 0 {
					if taken, err = tx.CountEventSeats(ctx, event.ID); err != nil {
						return err
					}
				}
			}
			if taken >= int64(event.MaxSeatings) {
				return ErrEventSoldOut
			}
		}

		created := false
		if session == nil {
			owner, eventID := in.UserID, event.ID
			session = &Reservation{
				OwnerID:    &owner,
				EventID:    &eventID,
				SessionTTL: s.ttl,
				UpdatedAt:  now,
			}
			if err := tx.Create(ctx, session); err != nil {
				return err
			}
			created = true
		} else {
			if err := tx.Touch(ctx, session.ID, now); err != nil {
				return err
			}
			session.UpdatedAt = now
		}

		link := &ReservationSeat{
			ReservationID: session.ID,
			SeatID:        seat.ID,
			EventID:       event.ID,
			Position:      session.nextPosition(),
		}
		if err := tx.AddSeat(ctx, link); err != nil {
			return err
		}
		session.Seats = append(session.Seats, *link)

		_, remaining := CheckCapacity(len(session.Seats), event.MaxTickets)
		result = &ClaimResult{Reservation: session, Seat: seat, Created: created, Remaining: remaining}
		return nil
	})
	if err != nil {
		return nil, err
	}

	for _, r := range evicted {
		s.afterExpire(ctx, r, now)
	}
	s.invalidate(ctx, in.EventID)

	s.logger.LogSeatClaimed(ctx, result.Reservation.ID.String(), in.EventID.String(), in.SeatID.String(), in.UserID.String(), result.Created)
	msg := s.message(notifications.EventSeatClaimed, result.Reservation, now)
	msg.SeatID = &result.Seat.ID
	s.publish(ctx, msg)

	return result, nil
}

// Finish seals a live session and assigns its confirmation code
func (s *service) Finish(ctx context.Context, id uuid.UUID, flag bool) (*Reservation, error) {
	if err := requireFlag("finished", flag); err != nil {
		return nil, err
	}

	now := s.now()
	var (
		sealed  *Reservation
		expired *Reservation
	)
	err := s.repo.Transaction(ctx, func(tx Repository) error {
		sealed, expired = nil, nil

		r, err := tx.GetByID(ctx, id, true)
		if err != nil {
			return err
		}
		if r.Finished {
			return ErrAlreadyFinished
		}
		if !r.IsLive(now) {
			if _, err := tx.Delete(ctx, r.ID); err != nil {
				return err
			}
			expired = r
			return nil
		}

		code := GenerateCode(now, r.ID)
		if err := tx.Seal(ctx, r.ID, code, now); err != nil {
			return err
		}
		r.Finished = true
		r.Code = &code
		r.UpdatedAt = now
		sealed = r
		return nil
	})
	if err != nil {
		return nil, err
	}
	if expired != nil {
		s.afterExpire(ctx, expired, now)
		return nil, ErrSessionExpired
	}

	s.logger.LogReservationFinished(ctx, sealed.ID.String(), *sealed.Code)
	s.publish(ctx, s.message(notifications.EventReservationFinished, sealed, now))
	return sealed, nil
}

// Pay settles a sealed session. Paying twice is a no-op.
func (s *service) Pay(ctx context.Context, id uuid.UUID, flag bool) (*Reservation, error) {
	if err := requireFlag("paid", flag); err != nil {
		return nil, err
	}

	now := s.now()
	var (
		paid        *Reservation
		alreadyPaid bool
	)
	err := s.repo.Transaction(ctx, func(tx Repository) error {
		r, err := tx.GetByID(ctx, id, true)
		if err != nil {
			return err
		}
		if !r.Finished {
			return ErrNotFinished
		}
		paid = r
		if r.IsPaid {
			alreadyPaid = true
			return nil
		}
		if err := tx.MarkPaid(ctx, r.ID, now); err != nil {
			return err
		}
		r.IsPaid = true
		r.UpdatedAt = now
		return nil
	})
	if err != nil {
		return nil, err
	}
	if alreadyPaid {
		return paid, nil
	}

	s.logger.LogReservationPaid(ctx, paid.ID.String())
	s.publish(ctx, s.message(notifications.EventReservationPaid, paid, now))
	return paid, nil
}

// Cancel deletes the session in any state and releases its seats
func (s *service) Cancel(ctx context.Context, id uuid.UUID, flag bool) error {
	if err := requireFlag("cancel", flag); err != nil {
		return err
	}

	now := s.now()
	var (
		cancelled *Reservation
		released  int64
	)
	err := s.repo.Transaction(ctx, func(tx Repository) error {
		r, err := tx.GetByID(ctx, id, true)
		if err != nil {
			return err
		}
		released, err = tx.Delete(ctx, r.ID)
		if err != nil {
			return err
		}
		cancelled = r
		return nil
	})
	if err != nil {
		return err
	}

	if cancelled.EventID != nil {
		s.invalidate(ctx, *cancelled.EventID)
	}
	s.logger.LogReservationCancelled(ctx, cancelled.ID.String(), int(released))
	s.publish(ctx, s.message(notifications.EventReservationCancelled, cancelled, now))
	return nil
}

// Get loads a session, evicting it when its lease has elapsed
func (s *service) Get(ctx context.Context, id uuid.UUID) (*Reservation, error) {
	r, err := s.repo.GetByID(ctx, id, false)
	if err != nil {
		return nil, err
	}

	now := s.now()
	if r.IsLive(now) {
		return r, nil
	}

	evicted := false
	err = s.repo.Transaction(ctx, func(tx Repository) error {
		locked, err := tx.GetByID(ctx, id, true)
		if err != nil {
			return err
		}
		if locked.IsLive(now) {
			r = locked
			return nil
		}
		if _, err := tx.Delete(ctx, locked.ID); err != nil {
			return err
		}
		r, evicted = locked, true
		return nil
	})
	if err != nil {
		return nil, err
	}
	if !evicted {
		return r, nil
	}

	s.afterExpire(ctx, r, now)
	return nil, ErrSessionExpired
}

// EvictExpired deletes up to limit unfinished sessions whose lease elapsed.
// It returns how many were removed.
func (s *service) EvictExpired(ctx context.Context, limit int) (int, error) {
	now := s.now()
	stale, err := s.repo.ListStale(ctx, now.Add(-s.ttl), limit)
	if err != nil {
		return 0, err
	}

	evicted := 0
	for i := range stale {
		var gone *Reservation
		err := s.repo.Transaction(ctx, func(tx Repository) error {
			r, err := tx.GetByID(ctx, stale[i].ID, true)
			if err != nil {
				return err
			}
			if r.IsLive(now) {
				return nil
			}
			if _, err := tx.Delete(ctx, r.ID); err != nil {
				return err
			}
			gone = r
			return nil
		})
		if errors.Is(err, ErrReservationNotFound) {
			continue
		}
		if err != nil {
			return evicted, err
		}
		if gone != nil {
			s.afterExpire(ctx, gone, now)
			evicted++
		}
	}
	return evicted, nil
}

// evictLapsed deletes the event's unfinished sessions whose lease elapsed,
// inside the caller's transaction.
func (s *service) evictLapsed(ctx context.Context, tx Repository, eventID uuid.UUID, now time.Time) ([]*Reservation, error) {
	stale, err := tx.ListStaleOnEvent(ctx, eventID, now.Add(-s.ttl))
	if err != nil {
		return nil, err
	}
	var released []*Reservation
	for i := range stale {
		r := &stale[i]
		if r.IsLive(now) {
			continue
		}
		if _, err := tx.Delete(ctx, r.ID); err != nil {
			return nil, err
		}
		released = append(released, r)
	}
	return released, nil
}

func (s *service) afterExpire(ctx context.Context, r *Reservation, now time.Time) {
	s.logger.LogReservationExpired(ctx, r.ID.String(), now.Sub(r.UpdatedAt))
	if r.EventID != nil {
		s.invalidate(ctx, *r.EventID)
	}
	s.publish(ctx, s.message(notifications.EventReservationExpired, r, now))
}

func (s *service) invalidate(ctx context.Context, eventID uuid.UUID) {
	if s.invalidator != nil {
		s.invalidator.InvalidateAvailability(ctx, eventID)
	}
}

func (s *service) message(eventType notifications.EventType, r *Reservation, now time.Time) *notifications.ReservationEvent {
	msg := notifications.NewReservationEvent(eventType, r.ID, now)
	msg.EventID = r.EventID
	msg.OwnerID = r.OwnerID
	msg.SeatCount = len(r.Seats)
	if r.Code != nil {
		msg.Code = *r.Code
	}
	return msg
}

// publish never fails the caller; the transition is already committed
func (s *service) publish(ctx context.Context, msg *notifications.ReservationEvent) {
	if err := s.publisher.Publish(ctx, msg); err != nil {
		s.logger.WithError(err).WarnContext(ctx, "reservation event publish failed",
			"type", string(msg.Type), "reservation_id", msg.ReservationID.String())
	}
}
