package events

import "time"

type CreateEventRequest struct {
	Title       string    `json:"title" binding:"required,min=3,max=255"`
	DateTime    time.Time `json:"date_time" binding:"required"`
	MaxSeatings int       `json:"max_seatings" binding:"omitempty,min=0"`
	MaxTickets  int       `json:"max_tickets" binding:"required,min=1,max=100"`
}

type UpdateEventRequest struct {
	Title       *string    `json:"title" binding:"omitempty,min=3,max=255"`
	DateTime    *time.Time `json:"date_time"`
	MaxSeatings *int       `json:"max_seatings" binding:"omitempty,min=0"`
	MaxTickets  *int       `json:"max_tickets" binding:"omitempty,min=1,max=100"`
}

type CloneEventRequest struct {
	DateTime time.Time `json:"date_time" binding:"required"`
}

type EventListQuery struct {
	UpcomingOnly bool `form:"upcoming"`
	Limit        int  `form:"limit" binding:"omitempty,min=1,max=500"`
}
