package tokens

import (
	"encoding/binary"
	"strconv"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// DefaultValidity is how long an issued token stays usable
const DefaultValidity = 15 * 24 * time.Hour

// Token is a single-use invitation code
type Token struct {
	ID          uuid.UUID  `json:"id" gorm:"type:char(36);primaryKey"`
	Hashcode    string     `json:"hashcode" gorm:"type:varchar(10);uniqueIndex;not null"`
	ValidUntil  time.Time  `json:"valid_until" gorm:"not null"`
	ValidatedAt *time.Time `json:"validated_at,omitempty"`
	ValidatedBy *uuid.UUID `json:"validated_by,omitempty" gorm:"type:char(36)"`
	CreatedAt   time.Time  `json:"created_at"`
}

func (Token) TableName() string {
	return "tokens"
}

func (t *Token) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}

func (t *Token) Used() bool {
	return t.ValidatedAt != nil
}

func (t *Token) Expired(now time.Time) bool {
	return now.After(t.ValidUntil)
}

// NewToken draws a decimal hashcode from 32 random bits
func NewToken(now time.Time, validity time.Duration) *Token {
	id := uuid.New()
	return &Token{
		ID:         id,
		Hashcode:   strconv.FormatUint(uint64(binary.BigEndian.Uint32(id[:4])), 10),
		ValidUntil: now.Add(validity),
	}
}
