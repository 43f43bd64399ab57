package entity

import (
	"time"

	"github.com/google/uuid"
)

// Token is a row of `user_activation_tokens`. The id doubles as the token
// sent by email.
type Token struct {
	ID        uuid.UUID  `db:"id"`
	UserID    uuid.UUID  `db:"user_id"`
	ExpiresAt time.Time  `db:"expires_at"`
	UsedAt    *time.Time `db:"used_at"`
	CreatedAt time.Time  `db:"created_at"`
	UpdatedAt time.Time  `db:"updated_at"`
}
