package entity

import (
	"time"

	"github.com/google/uuid"
)

// User represents an account row in the `users` table.
// Password holds the bcrypt hash, never the cleartext.
type User struct {
	ID        uuid.UUID
	Username  string
	Email     string
	Password  string
	Features  []string
	CreatedAt time.Time
	UpdatedAt time.Time
}

