package models

import "time"

// Role is the account role carried in tokens and user records.
type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleUser
}

// User is an application account. The password hash is never serialized into
// API responses; the role is fixed at creation.
type User struct {
	ID           int64     `bson:"_id" json:"id"`
	Email        string    `bson:"email" json:"email"`
	PasswordHash string    `bson:"passwordHash" json:"-"`
	Role         Role      `bson:"role" json:"role"`
	CreatedAt    time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt    time.Time `bson:"updatedAt" json:"updatedAt"`
}

// AuthUser is the identity asserted by a verified token.
type AuthUser struct {
	ID    int64  `json:"id"`
	Email string `json:"email"`
	Role  Role   `json:"role"`
}

// Auth returns the token-facing identity for the user.
func (u *User) Auth() AuthUser {
	return AuthUser{ID: u.ID, Email: u.Email, Role: u.Role}
}
