package models

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// pgParticipationTx runs participation statements on an open transaction.
type pgParticipationTx struct {
	tx pgx.Tx
}

// WithEventLock takes SELECT ... FOR UPDATE on the event row. Every join and
// leave for the same event queues on that lock, so the count read after it
// already includes the previous holder's committed write.
func (pg *PostgresRepo) WithEventLock(ctx context.Context, eventID int64, fn func(ctx context.Context, tx ParticipationTx, event *Event) error) error {
	tx, err := pg.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		// no-op once committed
		_ = tx.Rollback(ctx)
	}()

	event := &Event{}
	err = tx.QueryRow(ctx, `
		SELECT id, host_id, capacity, is_public, is_cancelled
		FROM events
		WHERE id = $1
		FOR UPDATE`, eventID,
	).Scan(&event.ID, &event.HostID, &event.Capacity, &event.IsPublic, &event.IsCancelled)
	if err != nil {
		return fmt.Errorf("failed to lock event %d: %w", eventID, pgError(err))
	}

	if err := fn(ctx, &pgParticipationTx{tx: tx}, event); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (t *pgParticipationTx) CountActiveParticipations(ctx context.Context, eventID int64) (int, error) {
	var n int
	err := t.tx.QueryRow(ctx, `
		SELECT COUNT(*)
		FROM event_participations
		WHERE event_id = $1 AND status <> 'CANCELLED'`, eventID,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count participations: %w", err)
	}
	return n, nil
}

func (t *pgParticipationTx) GetOrCreateParticipation(ctx context.Context, eventID, userID int64) (*EventParticipation, bool, error) {
	p, err := scanParticipation(t.tx.QueryRow(ctx, `
		INSERT INTO event_participations (event_id, user_id, status)
		VALUES ($1, $2, $3)
		ON CONFLICT (event_id, user_id) DO NOTHING
		RETURNING id, event_id, user_id, status, created_at`,
		eventID, userID, StatusJoined,
	))
	if err == nil {
		return p, true, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, false, fmt.Errorf("failed to create participation: %w", err)
	}

	// conflict: the row already exists
	p, err = getParticipation(ctx, t.tx, eventID, userID)
	if err != nil {
		return nil, false, err
	}
	return p, false, nil
}

func (t *pgParticipationTx) GetParticipation(ctx context.Context, eventID, userID int64) (*EventParticipation, error) {
	return getParticipation(ctx, t.tx, eventID, userID)
}

func (t *pgParticipationTx) SetParticipationStatus(ctx context.Context, id int64, status ParticipationStatus) (*EventParticipation, error) {
	p, err := scanParticipation(t.tx.QueryRow(ctx, `
		UPDATE event_participations
		SET status = $2
		WHERE id = $1
		RETURNING id, event_id, user_id, status, created_at`, id, status))
	if err != nil {
		return nil, fmt.Errorf("failed to update participation %d: %w", id, err)
	}
	return p, nil
}
