package seats

// SeatResponse is one seat with its reservation state for an event
type SeatResponse struct {
	ID          string    `json:"id"`
	Row         string    `json:"row"`
	Column      int       `json:"column"`
	Class       SeatClass `json:"class"`
	Label       string    `json:"label"`
	DisplayName string    `json:"display_name"`
	IsReserved  bool      `json:"is_reserved"`
}

// SeatMap is the availability view of an event
type SeatMap struct {
	EventID   string         `json:"event_id"`
	Total     int            `json:"total"`
	Reserved  int            `json:"reserved"`
	Available int            `json:"available"`
	Seats     []SeatResponse `json:"seats"`
}

func (s *Seat) ToResponse(reserved bool) SeatResponse {
	return SeatResponse{
		ID:          s.ID.String(),
		Row:         s.Row,
		Column:      s.Column,
		Class:       s.Class,
		Label:       s.Label(),
		DisplayName: s.DisplayName(),
		IsReserved:  reserved,
	}
}
