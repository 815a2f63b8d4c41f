package models

import (
	"time"

	"github.com/gofrs/uuid"
)

// AdminAccessLevel is the most privileged level. Larger numbers carry
// progressively fewer privileges.
const AdminAccessLevel = 0

// DefaultAccessLevel is assigned to newly registered users.
const DefaultAccessLevel = 1

const UsernameMaxLen = 64

type User struct {
	ID           uuid.UUID `json:"id" gorm:"primaryKey;type:uuid"`
	Username     string    `json:"username" gorm:"uniqueIndex;size:64;not null"`
	PasswordHash string    `json:"-" gorm:"size:128;not null"`
	AccessLevel  int       `json:"access_level" gorm:"not null;default:1"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (u *User) IsAdmin() bool {
	return u.AccessLevel == AdminAccessLevel
}

// CanAssign reports whether u may assign work to candidate. The comparison
// is non-strict: a user may assign to peers of equal level, and admins at
// level 0 may assign to anyone.
func (u *User) CanAssign(candidate *User) bool {
	return u.AccessLevel <= candidate.AccessLevel
}

// CanManage reports whether u may administer other's account. Only admins
// manage accounts; call sites additionally forbid self-modification.
func (u *User) CanManage(other *User) bool {
	return u.IsAdmin()
}
