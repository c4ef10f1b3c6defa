package seats

import (
	"context"

	"seatline/internal/events"
	"seatline/internal/shared/constants"
	"seatline/pkg/cache"
	"seatline/pkg/logger"

	"github.com/google/uuid"
)

type Service interface {
	SeatMap(ctx context.Context, eventID uuid.UUID, class SeatClass) (*SeatMap, error)
	Get(ctx context.Context, id uuid.UUID) (*Seat, error)
	InvalidateAvailability(ctx context.Context, eventID uuid.UUID)
	SeedLayout(ctx context.Context) (int64, error)
}

type service struct {
	repo   Repository
	events events.Repository
	cache  cache.Service
	logger *logger.Logger
}

// NewService builds the inventory service. cacheService may be nil.
func NewService(repo Repository, eventRepo events.Repository, cacheService cache.Service) Service {
	return &service{
		repo:   repo,
		events: eventRepo,
		cache:  cacheService,
		logger: logger.GetDefault(),
	}
}

// SeatMap lists the venue seats marking the ones referenced by any
// reservation of the event.
func (s *service) SeatMap(ctx context.Context, eventID uuid.UUID, class SeatClass) (*SeatMap, error) {
	if _, err := s.events.GetByID(ctx, eventID); err != nil {
		return nil, err
	}

	if s.cache == nil {
		return s.buildSeatMap(ctx, eventID, class)
	}

	var seatMap SeatMap
	key := constants.SeatAvailabilityKey(eventID.String(), string(class))
	err := s.cache.GetOrSet(ctx, key, constants.TTL_SEAT_AVAILABILITY, func() (interface{}, error) {
		return s.buildSeatMap(ctx, eventID, class)
	}, &seatMap)
	if err != nil {
		return nil, err
	}
	return &seatMap, nil
}

func (s *service) buildSeatMap(ctx context.Context, eventID uuid.UUID, class SeatClass) (*SeatMap, error) {
	all, err := s.repo.List(ctx, class)
	if err != nil {
		return nil, err
	}
	reserved, err := s.repo.ReservedSeatIDs(ctx, eventID)
	if err != nil {
		return nil, err
	}

	seatMap := &SeatMap{
		EventID: eventID.String(),
		Total:   len(all),
		Seats:   make([]SeatResponse, 0, len(all)),
	}
	for i := range all {
		taken := reserved[all[i].ID]
		if taken {
			seatMap.Reserved++
		}
		seatMap.Seats = append(seatMap.Seats, all[i].ToResponse(taken))
	}
	seatMap.Available = seatMap.Total - seatMap.Reserved
	return seatMap, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*Seat, error) {
	return s.repo.GetByID(ctx, id)
}

// InvalidateAvailability drops every cached seat map of the event. Failures
// are logged only; the cached entries expire on their own.
func (s *service) InvalidateAvailability(ctx context.Context, eventID uuid.UUID) {
	if s.cache == nil {
		return
	}
	if err := s.cache.DeletePattern(ctx, constants.SeatAvailabilityPattern(eventID.String())); err != nil {
		s.logger.WithError(err).WarnContext(ctx, "seat availability invalidation failed", "event_id", eventID.String())
	}
}

// SeedLayout inserts the default venue layout. Running it twice is harmless.
func (s *service) SeedLayout(ctx context.Context) (int64, error) {
	created, err := s.repo.CreateMany(ctx, DefaultLayout())
	if err != nil {
		return 0, err
	}
	s.logger.InfoWithContext(ctx, "Seat layout seeded", map[string]interface{}{
		"created": created,
	})
	return created, nil
}
