package reservations

type AddSeatRequest struct {
	EventID string `json:"event_id" binding:"required,uuid"`
	SeatID  string `json:"seat_id" binding:"required,uuid"`
}

type FinishRequest struct {
	Finished bool `json:"finished"`
}

type PaidRequest struct {
	Paid bool `json:"paid"`
}

type CancelRequest struct {
	Cancel bool `json:"cancel"`
}
