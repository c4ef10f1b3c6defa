package reservations

import (
	"crypto/sha1"
	"encoding/hex"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// DefaultSessionTTL is the sliding lease of an unfinished reservation
const DefaultSessionTTL = 20 * time.Minute

const codeLength = 10

// State is derived from the flags; expired and cancelled sessions are deleted
// rather than stored.
type State string

const (
	StateActive       State = "ACTIVE_UNSEALED"
	StateSealedUnpaid State = "SEALED_UNPAID"
	StateSealedPaid   State = "SEALED_PAID"
)

// Reservation is a user's session on one event. OwnerID and EventID become nil
// or the deleted-user sentinel when the referenced rows are removed.
type Reservation struct {
	ID         uuid.UUID         `gorm:"type:char(36);primaryKey" json:"id"`
	OwnerID    *uuid.UUID        `gorm:"type:char(36);index:idx_reservation_owner_event" json:"owner_id"`
	EventID    *uuid.UUID        `gorm:"type:char(36);index:idx_reservation_owner_event" json:"event_id"`
	Seats      []ReservationSeat `gorm:"foreignKey:ReservationID;constraint:OnDelete:CASCADE" json:"seats"`
	IsPaid     bool              `gorm:"not null;default:false" json:"is_paid"`
	Finished   bool              `gorm:"not null;default:false;index" json:"finished"`
	Code       *string           `gorm:"type:varchar(16);uniqueIndex" json:"code"`
	SessionTTL time.Duration     `gorm:"column:session_ttl;not null" json:"session_ttl"`
	CreatedAt  time.Time         `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time         `gorm:"not null;index;autoUpdateTime:false" json:"updated_at"`
}

func (Reservation) TableName() string {
	return "reservations"
}

func (r *Reservation) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

// ReservationSeat attaches a seat to a session. The event id is copied so the
// unique index can keep a seat to a single session per event.
type ReservationSeat struct {
	ReservationID uuid.UUID `gorm:"type:char(36);primaryKey" json:"reservation_id"`
	SeatID        uuid.UUID `gorm:"type:char(36);primaryKey;uniqueIndex:idx_event_seat,priority:2" json:"seat_id"`
	EventID       uuid.UUID `gorm:"type:char(36);not null;uniqueIndex:idx_event_seat,priority:1" json:"event_id"`
	Position      int       `gorm:"not null" json:"position"`
	CreatedAt     time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (ReservationSeat) TableName() string {
	return "reservation_seats"
}

func (r *Reservation) State() State {
	switch {
	case r.Finished && r.IsPaid:
		return StateSealedPaid
	case r.Finished:
		return StateSealedUnpaid
	default:
		return StateActive
	}
}

func (r *Reservation) ttl() time.Duration {
	if r.SessionTTL <= 0 {
		return DefaultSessionTTL
	}
	return r.SessionTTL
}

// IsLive reports whether the lease still holds at now. Sealed sessions never
// expire.
func (r *Reservation) IsLive(now time.Time) bool {
	if r.Finished {
		return true
	}
	return now.Sub(r.UpdatedAt) <= r.ttl()
}

// ExpiresAt is when an unfinished session stops being live
func (r *Reservation) ExpiresAt() time.Time {
	return r.UpdatedAt.Add(r.ttl())
}

func (r *Reservation) HasSeat(seatID uuid.UUID) bool {
	for _, s := range r.Seats {
		if s.SeatID == seatID {
			return true
		}
	}
	return false
}

func (r *Reservation) nextPosition() int {
	next := 0
	for _, s := range r.Seats {
		if s.Position >= next {
			next = s.Position + 1
		}
	}
	return next
}

// CheckCapacity reports whether another seat fits under maxTickets and how
// many remain. remaining is 0 whenever hasRoom is false.
func CheckCapacity(held, maxTickets int) (hasRoom bool, remaining int) {
	if held < maxTickets {
		return true, maxTickets - held
	}
	return false, 0
}

// GenerateCode derives the confirmation code from the sealing instant and the
// reservation id.
func GenerateCode(at time.Time, id uuid.UUID) string {
	h := sha1.New()
	h.Write([]byte(strconv.FormatInt(at.UnixNano(), 10)))
	h.Write(id[:])
	return strings.ToUpper(hex.EncodeToString(h.Sum(nil))[:codeLength])
}
