package confirmations

import (
	"fmt"
	"strings"

	"seatline/internal/shared/apperr"
)

// Template identifiers, relative to the embedded templates directory
const (
	TemplateBooking      = "booking-confirmation.html"
	TemplateBookingEmail = "emails/booking-confirmation.html"
)

const MailSubject = "Reservation confirmation"

var (
	ErrNotSealed        = apperr.New(apperr.Conflict, "reservation is not finished yet")
	ErrEventDetached    = apperr.New(apperr.NotFound, "the event of this reservation no longer exists")
	ErrTemplateNotFound = apperr.New(apperr.Validation, "template not found")
	ErrNoRecipient      = apperr.New(apperr.Validation, "reservation owner has no email address")
)

// Confirmation is everything printed on a confirmation document
type Confirmation struct {
	OwnerName  string
	OwnerEmail string
	EventTitle string
	EventDate  string
	EventTime  string
	// Seats holds the seat labels in the order they were claimed
	Seats []string
	Code  string
}

// SeatList joins the labels for single-line output
func (c *Confirmation) SeatList() string {
	return strings.Join(c.Seats, ", ")
}

// PlainText is the text/plain alternative of the confirmation mail
func (c *Confirmation) PlainText() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Hello %s,\n\n", c.OwnerName)
	fmt.Fprintf(&b, "your reservation for %s on %s at %s is confirmed.\n\n", c.EventTitle, c.EventDate, c.EventTime)
	fmt.Fprintf(&b, "Seats: %s\n", c.SeatList())
	fmt.Fprintf(&b, "Code: %s\n", c.Code)
	return b.String()
}

// GenerationError reports a document that could not be produced
type GenerationError struct {
	Diagnostic string
	Err        error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("failed to generate the PDF file: %s", e.Diagnostic)
}

func (e *GenerationError) Unwrap() error { return e.Err }

func (e *GenerationError) Kind() apperr.Kind { return apperr.Delivery }
