package users

import (
	"context"

	"seatline/pkg/logger"

	"github.com/google/uuid"
)

type Service interface {
	Get(ctx context.Context, id uuid.UUID) (*User, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type service struct {
	repo   Repository
	logger *logger.Logger
}

func NewService(repo Repository) Service {
	return &service{
		repo:   repo,
		logger: logger.GetDefault(),
	}
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*User, error) {
	return s.repo.GetByID(ctx, id)
}

// Delete removes a user. Their reservations survive under the deleted-user
// sentinel instead of cascading.
func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	if id == DeletedUserID {
		return ErrCannotDeleteUser
	}
	moved, err := s.repo.DeleteAndReassign(ctx, id)
	if err != nil {
		return err
	}
	s.logger.InfoWithContext(ctx, "User deleted", map[string]interface{}{
		"user_id":                 id.String(),
		"reassigned_reservations": moved,
	})
	return nil
}
