package tokens

import (
	"context"
	"errors"

	"seatline/internal/shared/apperr"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrTokenNotFound = apperr.New(apperr.NotFound, "token not found")
	ErrTokenExpired  = apperr.New(apperr.Expired, "token has expired")
	ErrTokenUsed     = apperr.New(apperr.Conflict, "token was already used")
)

type Repository interface {
	CreateMany(ctx context.Context, tokens []Token) (int64, error)
	List(ctx context.Context) ([]Token, error)
	// Redeem locks the token row and lets fn decide the new state
	Redeem(ctx context.Context, hashcode string, fn func(token *Token) error) (*Token, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) CreateMany(ctx context.Context, tokens []Token) (int64, error) {
	if len(tokens) == 0 {
		return 0, nil
	}
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		CreateInBatches(&tokens, 100)
	return res.RowsAffected, res.Error
}

func (r *repository) List(ctx context.Context) ([]Token, error) {
	var tokens []Token
	err := r.db.WithContext(ctx).Order("created_at DESC").Find(&tokens).Error
	return tokens, err
}

func (r *repository) Redeem(ctx context.Context, hashcode string, fn func(token *Token) error) (*Token, error) {
	var token Token
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("hashcode = ?", hashcode).
			First(&token).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrTokenNotFound
		}
		if err != nil {
			return err
		}

		if err := fn(&token); err != nil {
			return err
		}
		return tx.Model(&Token{}).Where("id = ?", token.ID).Updates(map[string]interface{}{
			"validated_at": token.ValidatedAt,
			"validated_by": token.ValidatedBy,
		}).Error
	})
	if err != nil {
		return nil, err
	}
	return &token, nil
}
