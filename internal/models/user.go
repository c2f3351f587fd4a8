package models

import "time"

// Role determines the capability set of a user. It is immutable for the
// lifetime of a session: handlers receive it inside the verified token and
// never re-read it mid-request.
type Role string

const (
	RoleAdmin      Role = "admin"
	RoleChefProjet Role = "chef_projet"
	RoleDonateur   Role = "donateur"
)

// Valid reports whether r is one of the three known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleChefProjet, RoleDonateur:
		return true
	}
	return false
}

// User represents an authenticated user. Users are created by an admin;
// there is no self-registration.
type User struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Email        string    `gorm:"uniqueIndex;size:255;not null" json:"email"`
	PasswordHash string    `gorm:"size:255;not null" json:"-"`
	FirstName    string    `gorm:"size:255;not null" json:"firstName"`
	LastName     string    `gorm:"size:255;not null" json:"lastName"`
	Role         Role      `gorm:"size:20;not null;index" json:"role"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// FullName is used in entry attribution and notification emails.
func (u *User) FullName() string {
	return u.FirstName + " " + u.LastName
}
