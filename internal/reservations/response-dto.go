package reservations

import "time"

type ReservationSeatResponse struct {
	SeatID   string `json:"seat_id"`
	Position int    `json:"position"`
}

type ReservationResponse struct {
	ID        string                    `json:"id"`
	OwnerID   *string                   `json:"owner_id"`
	EventID   *string                   `json:"event_id"`
	State     State                     `json:"state"`
	IsPaid    bool                      `json:"is_paid"`
	Finished  bool                      `json:"finished"`
	Code      *string                   `json:"code"`
	Seats     []ReservationSeatResponse `json:"seats"`
	ExpiresAt *time.Time                `json:"expires_at,omitempty"`
	CreatedAt time.Time                 `json:"created_at"`
	UpdatedAt time.Time                 `json:"updated_at"`
}

type ClaimResponse struct {
	Reservation      ReservationResponse `json:"reservation"`
	Seat             string              `json:"seat"`
	SessionCreated   bool                `json:"session_created"`
	AvailableTickets int                 `json:"available_tickets"`
}

func (r *Reservation) ToResponse() ReservationResponse {
	resp := ReservationResponse{
		ID:        r.ID.String(),
		State:     r.State(),
		IsPaid:    r.IsPaid,
		Finished:  r.Finished,
		Code:      r.Code,
		Seats:     make([]ReservationSeatResponse, 0, len(r.Seats)),
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
	if r.OwnerID != nil {
		owner := r.OwnerID.String()
		resp.OwnerID = &owner
	}
	if r.EventID != nil {
		event := r.EventID.String()
		resp.EventID = &event
	}
	if !r.Finished {
		expires := r.ExpiresAt()
		resp.ExpiresAt = &expires
	}
	for _, s := range r.Seats {
		resp.Seats = append(resp.Seats, ReservationSeatResponse{SeatID: s.SeatID.String(), Position: s.Position})
	}
	return resp
}

func (res *ClaimResult) ToResponse() ClaimResponse {
	return ClaimResponse{
		Reservation:      res.Reservation.ToResponse(),
		Seat:             res.Seat.DisplayName(),
		SessionCreated:   res.Created,
		AvailableTickets: res.Remaining,
	}
}
