package users

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Role string

const (
	RoleUser  Role = "USER"
	RoleAdmin Role = "ADMIN"
	// RoleSystem marks rows the application owns, such as the deleted-user sentinel.
	RoleSystem Role = "SYSTEM"
)

// DeletedUserID is the fixed identity reservations are reassigned to when their
// owner is removed.
var DeletedUserID = uuid.MustParse("00000000-0000-0000-0000-00000000dead")

const deletedUserEmail = "deleted-user@seatline.invalid"

type User struct {
	ID        uuid.UUID `json:"id" gorm:"primaryKey;type:char(36)"`
	FirstName string    `json:"first_name" gorm:"not null"`
	LastName  string    `json:"last_name" gorm:"not null"`
	Password  string    `json:"-" gorm:"not null"` // hide in json
	Role      Role      `json:"role" gorm:"type:varchar(16);not null;default:'USER'"`
	Email     string    `json:"email" gorm:"type:varchar(255);uniqueIndex;not null"`
	Phone     string    `json:"phone,omitempty" gorm:"type:varchar(32)"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (User) TableName() string {
	return "users"
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

// FullName joins first and last name the way confirmations print it
func (u *User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// IsDeleted reports whether u is the deleted-user sentinel
func (u *User) IsDeleted() bool {
	return u.ID == DeletedUserID
}

// DeletedUser returns the in-memory sentinel used in place of a removed owner
func DeletedUser() *User {
	return &User{
		ID:        DeletedUserID,
		FirstName: "Deleted",
		LastName:  "User",
		Email:     deletedUserEmail,
		Role:      RoleSystem,
	}
}

// EnsureDeletedUser inserts the sentinel row if it is missing
func EnsureDeletedUser(db *gorm.DB) error {
	sentinel := DeletedUser()
	sentinel.Password = "!"
	err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(sentinel).Error
	if err != nil && !errors.Is(err, gorm.ErrDuplicatedKey) {
		return err
	}
	return nil
}

func IsValidRole(role string) bool {
	switch role {
	case string(RoleUser), string(RoleAdmin):
		return true
	default:
		return false
	}
}
