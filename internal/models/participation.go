package models

import (
	"context"
	"time"
)

type ParticipationStatus string

const (
	StatusJoined ParticipationStatus = "JOINED"
	// StatusBooked is reserved for a booking flow; it counts as active.
	StatusBooked    ParticipationStatus = "BOOKED"
	StatusCancelled ParticipationStatus = "CANCELLED"
)

// IsActive reports whether the status holds a seat.
func (s ParticipationStatus) IsActive() bool {
	return s != StatusCancelled
}

type EventParticipation struct {
	ID        int64               `json:"participation_id"`
	EventID   int64               `json:"event_id"`
	UserID    int64               `json:"user_id"`
	Status    ParticipationStatus `json:"status"`
	CreatedAt time.Time           `json:"created_at"`
}

// ParticipationTx is the view of the store inside a locked event
// transaction. Every call sees the writes made earlier in the same
// transaction.
type ParticipationTx interface {
	CountActiveParticipations(ctx context.Context, eventID int64) (int, error)
	// GetOrCreateParticipation returns the (event, user) row, inserting it
	// as JOINED when absent. created reports whether the insert happened.
	GetOrCreateParticipation(ctx context.Context, eventID, userID int64) (p *EventParticipation, created bool, err error)
	GetParticipation(ctx context.Context, eventID, userID int64) (*EventParticipation, error)
	SetParticipationStatus(ctx context.Context, id int64, status ParticipationStatus) (*EventParticipation, error)
}

// ParticipationRepo runs fn inside one transaction that holds an exclusive
// lock on the event row, so concurrent calls for the same event serialize.
// fn's error rolls the transaction back. ErrNotFound is returned, without
// calling fn, when the event does not exist.
type ParticipationRepo interface {
	WithEventLock(ctx context.Context, eventID int64, fn func(ctx context.Context, tx ParticipationTx, event *Event) error) error
}
