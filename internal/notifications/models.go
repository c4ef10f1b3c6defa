package notifications

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// EventType names a reservation lifecycle transition
type EventType string

const (
	EventSeatClaimed          EventType = "reservation.seat_claimed"
	EventReservationFinished  EventType = "reservation.finished"
	EventReservationPaid      EventType = "reservation.paid"
	EventReservationCancelled EventType = "reservation.cancelled"
	EventReservationExpired   EventType = "reservation.expired"
)

const (
	messageVersion = "1.0"
	producerName   = "seatline-api"
)

// ReservationEvent is the message published after a reservation transition
// commits.
type ReservationEvent struct {
	ID            uuid.UUID  `json:"id"`
	Type          EventType  `json:"type"`
	ReservationID uuid.UUID  `json:"reservation_id"`
	EventID       *uuid.UUID `json:"event_id,omitempty"`
	OwnerID       *uuid.UUID `json:"owner_id,omitempty"`
	SeatID        *uuid.UUID `json:"seat_id,omitempty"`
	SeatCount     int        `json:"seat_count"`
	Code          string     `json:"code,omitempty"`
	OccurredAt    time.Time  `json:"occurred_at"`
}

func NewReservationEvent(eventType EventType, reservationID uuid.UUID, at time.Time) *ReservationEvent {
	return &ReservationEvent{
		ID:            uuid.New(),
		Type:          eventType,
		ReservationID: reservationID,
		OccurredAt:    at.UTC(),
	}
}

// PartitionKey keeps every message of one reservation on the same partition
func (e *ReservationEvent) PartitionKey() string {
	return e.ReservationID.String()
}

func (e *ReservationEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// DecodeReservationEvent parses a message body
func DecodeReservationEvent(body []byte) (*ReservationEvent, error) {
	var event ReservationEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return nil, fmt.Errorf("failed to unmarshal reservation event: %w", err)
	}
	if event.ReservationID == uuid.Nil {
		return nil, fmt.Errorf("reservation event %s has no reservation id", event.ID)
	}
	return &event, nil
}
