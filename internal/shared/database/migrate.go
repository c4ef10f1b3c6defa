package database

import (
	"seatline/internal/events"
	"seatline/internal/reservations"
	"seatline/internal/seats"
	"seatline/internal/tokens"
	"seatline/internal/users"

	"gorm.io/gorm"
)

// Migrate creates or updates every table and makes sure the deleted-user
// sentinel row exists before any reservation can be reassigned to it.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&users.User{},
		&events.Event{},
		&seats.Seat{},
		&reservations.Reservation{},
		&reservations.ReservationSeat{},
		&tokens.Token{},
	); err != nil {
		return err
	}
	return users.EnsureDeletedUser(db)
}
