package events

import (
	"time"

	"seatline/pkg/datefmt"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Event struct {
	ID       uuid.UUID `json:"id" gorm:"type:char(36);primaryKey"`
	Title    string    `json:"title" gorm:"not null;size:255"`
	DateTime time.Time `json:"date_time" gorm:"not null;index"`
	// MaxSeatings caps the seats held across all reservations of the event; 0 means no cap.
	MaxSeatings int `json:"max_seatings" gorm:"not null;default:0;check:max_seatings >= 0"`
	// MaxTickets caps the seats a single reservation may hold.
	MaxTickets int        `json:"max_tickets" gorm:"not null;check:max_tickets > 0"`
	CreatedBy  *uuid.UUID `json:"created_by,omitempty" gorm:"type:char(36)"`
	CreatedAt  time.Time  `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt  time.Time  `json:"updated_at" gorm:"autoUpdateTime"`
}

// TableName specifies the table name for GORM
func (Event) TableName() string {
	return "events"
}

func (e *Event) BeforeCreate(tx *gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}

// DateLabel renders the short day/month label printed on confirmations
func (e *Event) DateLabel(opts datefmt.Options) string {
	return datefmt.DateLabel(e.DateTime, opts)
}

// TimeLabel renders the HH:MM start time printed on confirmations
func (e *Event) TimeLabel(opts datefmt.Options) string {
	return datefmt.TimeLabel(e.DateTime, opts)
}

// Status derives whether the event still lies ahead of now
func (e *Event) Status(now time.Time) Status {
	if e.DateTime.After(now) {
		return StatusUpcoming
	}
	return StatusEnded
}

// CloneAt copies the event's seating rules to a new date. The copy gets a
// fresh identity and a title marking it as a copy.
func (e *Event) CloneAt(at time.Time, by *uuid.UUID) *Event {
	return &Event{
		Title:       e.Title + " (copy)",
		DateTime:    at,
		MaxSeatings: e.MaxSeatings,
		MaxTickets:  e.MaxTickets,
		CreatedBy:   by,
	}
}
