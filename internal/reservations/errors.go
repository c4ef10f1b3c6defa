package reservations

import (
	"fmt"

	"seatline/internal/shared/apperr"
)

var (
	ErrReservationNotFound = apperr.New(apperr.NotFound, "reservation not found")
	ErrSessionExpired      = apperr.New(apperr.Expired, "your session expired and the reservation was not finished; choose new seats to continue")
	ErrSeatTaken           = apperr.New(apperr.Conflict, "seat is already reserved for this event")
	ErrEventSoldOut        = apperr.New(apperr.Conflict, "event has no seats left")
	ErrAlreadyFinished     = apperr.New(apperr.Conflict, "reservation is already finished")
	ErrNotFinished         = apperr.New(apperr.Conflict, "reservation must be finished before it is paid")
	ErrClaimBusy           = apperr.New(apperr.Conflict, "seat is being claimed by another request, try again")
)

// FlagRequiredError rejects a transition whose confirmation flag was not set
type FlagRequiredError struct {
	Flag string
}

func (e *FlagRequiredError) Error() string {
	return fmt.Sprintf("parameter '%s' is required", e.Flag)
}

func (e *FlagRequiredError) Kind() apperr.Kind { return apperr.Validation }

// CapacityError means the session already holds max_tickets seats
type CapacityError struct {
	MaxTickets int
	Remaining  int
}

func (e *CapacityError) Error() string {
	return fmt.Sprintf("you selected the maximum number of seats (%d) for this reservation; finish it to keep your seats", e.MaxTickets)
}

func (e *CapacityError) Kind() apperr.Kind { return apperr.Capacity }

func (e *CapacityError) Available() int { return e.Remaining }

func requireFlag(name string, value bool) error {
	if !value {
		return &FlagRequiredError{Flag: name}
	}
	return nil
}
