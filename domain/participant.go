// Package domain contains core concepts of the chat system.
// This file defines the authenticated user as seen by the message core.
// No runtime, network, or UI logic should be added here.
package domain

type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// User is the read-only identity handed to the message service by the
// authentication provider.
type User struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Name     string `json:"name"`
	Role     Role   `json:"role"`
}

func (u User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAdmin
}
