package models

import (
	"time"

	"github.com/google/uuid"
)

type User struct {
	ID           uuid.UUID `json:"id"`
	CreatedAt    time.Time `json:"created_at"`
	Email        string    `json:"email"`
	Name         string    `json:"name,omitempty"`
	PasswordHash string    `json:"-"` // Don't return password in JSON
}

// Public returns the user fields safe to hand to clients.
func (u *User) Public() map[string]interface{} {
	return map[string]interface{}{
		"id":    u.ID.String(),
		"email": u.Email,
		"name":  u.Name,
	}
}
