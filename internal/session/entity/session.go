package entity

import (
	"time"

	"github.com/google/uuid"
)

// Session is a row of the `sessions` table. Token is the opaque value carried
// in the session_id cookie and never changes after creation.
type Session struct {
	ID        uuid.UUID `db:"id"`
	Token     string    `db:"token"`
	UserID    uuid.UUID `db:"user_id"`
	ExpiresAt time.Time `db:"expires_at"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}
