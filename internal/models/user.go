package models

import "time"

// Roles are plain strings on the user row; there are only two.
const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

type User struct {
	ID        uint   `gorm:"primaryKey"`
	Username  string `gorm:"unique;not null;index"`
	Password  string `gorm:"not null"` // bcrypt hash
	Role      string `gorm:"not null;default:'user'"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsAdmin reports whether the user may perform admin-only mutations.
func (u *User) IsAdmin() bool { return u.Role == RoleAdmin }
