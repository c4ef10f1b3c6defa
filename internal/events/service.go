package events

import (
	"context"
	"time"

	"seatline/internal/shared/apperr"
	"seatline/internal/shared/constants"
	"seatline/pkg/cache"
	"seatline/pkg/datefmt"
	"seatline/pkg/logger"

	"github.com/google/uuid"
)

var ErrInvalidSeatingCaps = apperr.New(apperr.Validation, "max_seatings must be 0 or at least max_tickets")

type Service interface {
	List(ctx context.Context, query EventListQuery) ([]EventResponse, error)
	Get(ctx context.Context, id uuid.UUID) (*EventResponse, error)
	Create(ctx context.Context, adminID uuid.UUID, req CreateEventRequest) (*EventResponse, error)
	Update(ctx context.Context, id uuid.UUID, req UpdateEventRequest) (*EventResponse, error)
	Clone(ctx context.Context, id, adminID uuid.UUID, req CloneEventRequest) (*EventResponse, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type service struct {
	repo   Repository
	cache  cache.Service
	opts   datefmt.Options
	logger *logger.Logger
	now    func() time.Time
}

// NewService wires the catalogue. cacheService may be nil, in which case
// every read goes to the repository.
func NewService(repo Repository, cacheService cache.Service, opts datefmt.Options) Service {
	return &service{
		repo:   repo,
		cache:  cacheService,
		opts:   opts,
		logger: logger.GetDefault(),
		now:    time.Now,
	}
}

func (s *service) respond(e *Event) *EventResponse {
	resp := e.ToResponse(s.now(), s.opts)
	return &resp
}

func (s *service) List(ctx context.Context, query EventListQuery) ([]EventResponse, error) {
	events, err := s.repo.List(ctx, query, s.now())
	if err != nil {
		return nil, err
	}
	out := make([]EventResponse, 0, len(events))
	for i := range events {
		out = append(out, events[i].ToResponse(s.now(), s.opts))
	}
	return out, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*EventResponse, error) {
	event, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.respond(event), nil
}

func (s *service) load(ctx context.Context, id uuid.UUID) (*Event, error) {
	if s.cache == nil {
		return s.repo.GetByID(ctx, id)
	}
	var event Event
	err := s.cache.GetOrSet(ctx, constants.EventDetailKey(id.String()), constants.TTL_EVENT_DETAIL, func() (interface{}, error) {
		return s.repo.GetByID(ctx, id)
	}, &event)
	if err != nil {
		return nil, err
	}
	return &event, nil
}

func (s *service) Create(ctx context.Context, adminID uuid.UUID, req CreateEventRequest) (*EventResponse, error) {
	if err := validateCaps(req.MaxSeatings, req.MaxTickets); err != nil {
		return nil, err
	}

	event := &Event{
		Title:       req.Title,
		DateTime:    req.DateTime.UTC(),
		MaxSeatings: req.MaxSeatings,
		MaxTickets:  req.MaxTickets,
		CreatedBy:   &adminID,
	}
	if err := s.repo.Create(ctx, event); err != nil {
		return nil, err
	}

	s.logger.InfoWithContext(ctx, "Event Created", map[string]interface{}{
		"event_id": event.ID.String(),
		"user_id":  adminID.String(),
	})
	return s.respond(event), nil
}

func (s *service) Update(ctx context.Context, id uuid.UUID, req UpdateEventRequest) (*EventResponse, error) {
	current, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	maxSeatings, maxTickets := current.MaxSeatings, current.MaxTickets
	if req.Title != nil {
		updates["title"] = *req.Title
	}
	if req.DateTime != nil {
		updates["date_time"] = req.DateTime.UTC()
	}
	if req.MaxSeatings != nil {
		maxSeatings = *req.MaxSeatings
		updates["max_seatings"] = maxSeatings
	}
	if req.MaxTickets != nil {
		maxTickets = *req.MaxTickets
		updates["max_tickets"] = maxTickets
	}
	if err := validateCaps(maxSeatings, maxTickets); err != nil {
		return nil, err
	}

	event, err := s.repo.Update(ctx, id, updates)
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx, id)
	return s.respond(event), nil
}

// Clone copies an event to a new date and time
func (s *service) Clone(ctx context.Context, id, adminID uuid.UUID, req CloneEventRequest) (*EventResponse, error) {
	source, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	clone := source.CloneAt(req.DateTime.UTC(), &adminID)
	if err := s.repo.Create(ctx, clone); err != nil {
		return nil, err
	}

	s.logger.InfoWithContext(ctx, "Event Cloned", map[string]interface{}{
		"source_event_id": id.String(),
		"event_id":        clone.ID.String(),
	})
	return s.respond(clone), nil
}

func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	detached, err := s.repo.DeleteAndDetach(ctx, id)
	if err != nil {
		return err
	}
	s.invalidate(ctx, id)
	s.logger.InfoWithContext(ctx, "Event Deleted", map[string]interface{}{
		"event_id":              id.String(),
		"detached_reservations": detached,
	})
	return nil
}

func (s *service) invalidate(ctx context.Context, id uuid.UUID) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, constants.EventDetailKey(id.String())); err != nil {
		s.logger.WithError(err).WarnContext(ctx, "event cache invalidation failed", "event_id", id.String())
	}
}

func validateCaps(maxSeatings, maxTickets int) error {
	if maxSeatings != 0 && maxSeatings < maxTickets {
		return ErrInvalidSeatingCaps
	}
	return nil
}
