package events

import (
	"time"

	"seatline/pkg/datefmt"
)

type EventResponse struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	DateTime    time.Time `json:"date_time"`
	DateLabel   string    `json:"date_label"`
	TimeLabel   string    `json:"time_label"`
	MaxSeatings int       `json:"max_seatings"`
	MaxTickets  int       `json:"max_tickets"`
	Status      Status    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ToResponse renders labels with the caller's formatting options
func (e *Event) ToResponse(now time.Time, opts datefmt.Options) EventResponse {
	return EventResponse{
		ID:          e.ID.String(),
		Title:       e.Title,
		DateTime:    e.DateTime,
		DateLabel:   e.DateLabel(opts),
		TimeLabel:   e.TimeLabel(opts),
		MaxSeatings: e.MaxSeatings,
		MaxTickets:  e.MaxTickets,
		Status:      e.Status(now),
		CreatedAt:   e.CreatedAt,
		UpdatedAt:   e.UpdatedAt,
	}
}
