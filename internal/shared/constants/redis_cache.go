package constants

import (
	"time"
)

// Redis keys follow seatline:{module}:{what}:{identifier}

const (
	CACHE_PREFIX = "seatline"
)

const (
	TTL_EVENT_DETAIL = 10 * time.Minute

	// Availability changes on every claim and is invalidated eagerly, so the
	// TTL only bounds staleness when an invalidation is lost.
	TTL_SEAT_AVAILABILITY = 30 * time.Second
)

// Events
const (
	CACHE_KEY_EVENT_DETAIL = CACHE_PREFIX + ":events:detail:"
)

// Seats
const (
	CACHE_KEY_SEAT_AVAILABILITY = CACHE_PREFIX + ":seats:availability:"
)

// Reservations
const (
	REDIS_KEY_CLAIM_LOCK = CACHE_PREFIX + ":claim_lock:"
)

// Rate limiting
const (
	REDIS_KEY_RATE_LIMIT = CACHE_PREFIX + ":rate_limit:"
)

// EventDetailKey caches one event
func EventDetailKey(eventID string) string {
	return CACHE_KEY_EVENT_DETAIL + eventID
}

// SeatAvailabilityKey caches the derived reserved/free map of an event. The
// class suffix keeps filtered listings apart.
func SeatAvailabilityKey(eventID, class string) string {
	if class == "" {
		class = "all"
	}
	return CACHE_KEY_SEAT_AVAILABILITY + eventID + ":" + class
}

// SeatAvailabilityPattern matches every availability key of an event
func SeatAvailabilityPattern(eventID string) string {
	return CACHE_KEY_SEAT_AVAILABILITY + eventID + ":*"
}

// ClaimLockKey serializes claims of one seat for one event across processes
func ClaimLockKey(eventID, seatID string) string {
	return REDIS_KEY_CLAIM_LOCK + eventID + ":" + seatID
}
