package tokens

import (
	"context"
	"time"

	"seatline/pkg/logger"

	"github.com/google/uuid"
)

type Service interface {
	// Issue creates count fresh tokens valid for the given duration
	Issue(ctx context.Context, count int, validity time.Duration) ([]Token, error)
	List(ctx context.Context) ([]Token, error)
	// Validate redeems a token for userID. The validity window is checked
	// at redemption time; nothing expires tokens in the background.
	Validate(ctx context.Context, hashcode string, userID uuid.UUID) (*Token, error)
}

type service struct {
	repo   Repository
	logger *logger.Logger
	now    func() time.Time
}

func NewService(repo Repository) Service {
	return &service{
		repo:   repo,
		logger: logger.GetDefault(),
		now:    time.Now,
	}
}

func (s *service) Issue(ctx context.Context, count int, validity time.Duration) ([]Token, error) {
	if validity <= 0 {
		validity = DefaultValidity
	}
	now := s.now()
	tokens := make([]Token, 0, count)
	seen := make(map[string]bool, count)
	for len(tokens) < count {
		t := NewToken(now, validity)
		if seen[t.Hashcode] {
			continue
		}
		seen[t.Hashcode] = true
		tokens = append(tokens, *t)
	}

	created, err := s.repo.CreateMany(ctx, tokens)
	if err != nil {
		return nil, err
	}
	s.logger.InfoWithContext(ctx, "Tokens issued", map[string]interface{}{
		"requested": count,
		"created":   created,
		"valid_to":  now.Add(validity).Format(time.RFC3339),
	})
	return tokens, nil
}

func (s *service) List(ctx context.Context) ([]Token, error) {
	return s.repo.List(ctx)
}

func (s *service) Validate(ctx context.Context, hashcode string, userID uuid.UUID) (*Token, error) {
	now := s.now()
	return s.repo.Redeem(ctx, hashcode, func(token *Token) error {
		if token.Used() {
			return ErrTokenUsed
		}
		if token.Expired(now) {
			return ErrTokenExpired
		}
		token.ValidatedAt = &now
		token.ValidatedBy = &userID
		return nil
	})
}
