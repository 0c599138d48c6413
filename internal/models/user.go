package models

import (
	"time"

	"github.com/google/uuid"
)

// Profile is the relational identity events and participations point at.
// AuthID links it to the identity provider's user.
type Profile struct {
	ID        int64     `json:"id"`
	AuthID    uuid.UUID `json:"-"`
	Username  string    `json:"username" validate:"required,min=3,max=150"`
	Email     string    `json:"email" validate:"required,email"`
	Bio       string    `json:"bio"`
	Interests string    `json:"interests"`
	CreatedAt time.Time `json:"created_at"`
}

// SignupRequest is the registration payload.
type SignupRequest struct {
	Username  string `json:"username" validate:"required,min=3,max=150"`
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required,min=8"`
	Password2 string `json:"password2" validate:"required,eqfield=Password"`
}
