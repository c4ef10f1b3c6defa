package seats

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// SeatClass partitions the venue
type SeatClass string

const (
	ClassStage   SeatClass = "STAGE"
	ClassBalcony SeatClass = "BALCONY"
)

func (c SeatClass) Valid() bool {
	return c == ClassStage || c == ClassBalcony
}

// Title is the human name used on tickets
func (c SeatClass) Title() string {
	switch c {
	case ClassStage:
		return "Stage"
	case ClassBalcony:
		return "Balcony"
	default:
		return string(c)
	}
}

// Seat is one fixed position of the venue. Seats are created once by the
// seeder and never mutated; whether a seat is reserved is derived per event.
type Seat struct {
	ID        uuid.UUID `gorm:"type:char(36);primaryKey" json:"id"`
	Row       string    `gorm:"column:seat_row;type:varchar(4);not null;uniqueIndex:idx_seat_position" json:"row"`
	Column    int       `gorm:"column:seat_column;not null;uniqueIndex:idx_seat_position" json:"column"`
	Class     SeatClass `gorm:"type:varchar(16);not null;uniqueIndex:idx_seat_position" json:"class"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName sets the table name for Seat
func (Seat) TableName() string {
	return "seats"
}

func (s *Seat) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

// Label is row followed by column, e.g. "A1"
func (s *Seat) Label() string {
	return fmt.Sprintf("%s%d", s.Row, s.Column)
}

// DisplayName prefixes the label with the class, e.g. "Balcony A1"
func (s *Seat) DisplayName() string {
	return s.Class.Title() + " " + s.Label()
}
