package models

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
)

const selectEventSQL = `
	SELECT e.id, e.host_id, p.username, e.title, e.description, e.category_id, c.name,
	       e.start_time, e.end_time, e.location_name, e.address, e.lat, e.lng,
	       e.capacity, e.is_public, e.is_cancelled, e.created_at
	FROM events e
	JOIN profiles p ON p.id = e.host_id
	LEFT JOIN categories c ON c.id = e.category_id`

func scanEvent(row pgx.Row) (*Event, error) {
	e := &Event{}
	err := row.Scan(
		&e.ID, &e.HostID, &e.HostName, &e.Title, &e.Description, &e.CategoryID, &e.CategoryName,
		&e.StartTime, &e.EndTime, &e.LocationName, &e.Address, &e.Lat, &e.Lng,
		&e.Capacity, &e.IsPublic, &e.IsCancelled, &e.CreatedAt,
	)
	if err != nil {
		return nil, pgError(err)
	}
	return e, nil
}

func (pg *PostgresRepo) CreateEvent(ctx context.Context, event *Event) (*Event, error) {
	var id int64
	err := pg.pool.QueryRow(ctx, `
		INSERT INTO events (host_id, title, description, category_id, start_time, end_time,
		                    location_name, address, lat, lng, capacity, is_public, is_cancelled)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING id`,
		event.HostID, event.Title, event.Description, event.CategoryID, event.StartTime, event.EndTime,
		event.LocationName, event.Address, event.Lat, event.Lng, event.Capacity, event.IsPublic, event.IsCancelled,
	).Scan(&id)
	if err != nil {
		return nil, fmt.Errorf("failed to create event: %w", pgError(err))
	}

	return pg.GetEventByID(ctx, id)
}

func (pg *PostgresRepo) GetEventByID(ctx context.Context, id int64) (*Event, error) {
	e, err := scanEvent(pg.pool.QueryRow(ctx, selectEventSQL+` WHERE e.id = $1`, id))
	if err != nil {
		return nil, fmt.Errorf("failed to get event %d: %w", id, err)
	}
	return e, nil
}

func (pg *PostgresRepo) ListEvents(ctx context.Context, filter EventFilter) ([]*Event, error) {
	query := selectEventSQL + ` WHERE (e.is_public OR e.host_id = $1)`
	args := []any{filter.ViewerID}
	if b := filter.Box; b != nil {
		query += ` AND e.lat BETWEEN $2 AND $3 AND e.lng BETWEEN $4 AND $5`
		args = append(args, b.MinLat, b.MaxLat, b.MinLng, b.MaxLng)
	}
	query += ` ORDER BY e.created_at DESC, e.id DESC`

	rows, err := pg.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	defer rows.Close()

	events := []*Event{}
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}

	return events, nil
}

func (pg *PostgresRepo) UpdateEvent(ctx context.Context, event *Event) (*Event, error) {
	tag, err := pg.pool.Exec(ctx, `
		UPDATE events
		SET title = $2, description = $3, category_id = $4, start_time = $5, end_time = $6,
		    location_name = $7, address = $8, lat = $9, lng = $10, capacity = $11,
		    is_public = $12, is_cancelled = $13
		WHERE id = $1`,
		event.ID, event.Title, event.Description, event.CategoryID, event.StartTime, event.EndTime,
		event.LocationName, event.Address, event.Lat, event.Lng, event.Capacity,
		event.IsPublic, event.IsCancelled,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to update event %d: %w", event.ID, pgError(err))
	}
	if tag.RowsAffected() == 0 {
		return nil, fmt.Errorf("failed to update event %d: %w", event.ID, ErrNotFound)
	}

	return pg.GetEventByID(ctx, event.ID)
}

func (pg *PostgresRepo) DeleteEvent(ctx context.Context, id int64) error {
	tag, err := pg.pool.Exec(ctx, `DELETE FROM events WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete event %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("failed to delete event %d: %w", id, ErrNotFound)
	}
	return nil
}

func (pg *PostgresRepo) CountActiveParticipations(ctx context.Context, eventIDs []int64) (map[int64]int, error) {
	counts := make(map[int64]int, len(eventIDs))
	if len(eventIDs) == 0 {
		return counts, nil
	}

	rows, err := pg.pool.Query(ctx, `
		SELECT event_id, COUNT(*)
		FROM event_participations
		WHERE event_id = ANY($1) AND status <> 'CANCELLED'
		GROUP BY event_id`, eventIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to count participations: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var eventID int64
		var n int
		if err := rows.Scan(&eventID, &n); err != nil {
			return nil, fmt.Errorf("failed to scan participation count: %w", err)
		}
		counts[eventID] = n
	}
	return counts, rows.Err()
}

func (pg *PostgresRepo) ListAttendees(ctx context.Context, eventID int64) ([]*Attendee, error) {
	rows, err := pg.pool.Query(ctx, `
		SELECT p.id, p.username
		FROM event_participations ep
		JOIN profiles p ON p.id = ep.user_id
		WHERE ep.event_id = $1 AND ep.status <> 'CANCELLED'
		ORDER BY ep.created_at, ep.id`, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to list attendees: %w", err)
	}
	defer rows.Close()

	attendees := []*Attendee{}
	for rows.Next() {
		a := &Attendee{}
		if err := rows.Scan(&a.ID, &a.Username); err != nil {
			return nil, fmt.Errorf("failed to scan attendee: %w", err)
		}
		attendees = append(attendees, a)
	}
	return attendees, rows.Err()
}

func (pg *PostgresRepo) GetParticipation(ctx context.Context, eventID, userID int64) (*EventParticipation, error) {
	return getParticipation(ctx, pg.pool, eventID, userID)
}

// querier is satisfied by both the pool and a transaction.
type querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func getParticipation(ctx context.Context, q querier, eventID, userID int64) (*EventParticipation, error) {
	p, err := scanParticipation(q.QueryRow(ctx, `
		SELECT id, event_id, user_id, status, created_at
		FROM event_participations
		WHERE event_id = $1 AND user_id = $2`, eventID, userID))
	if err != nil {
		return nil, fmt.Errorf("failed to get participation: %w", err)
	}
	return p, nil
}

func scanParticipation(row pgx.Row) (*EventParticipation, error) {
	p := &EventParticipation{}
	if err := row.Scan(&p.ID, &p.EventID, &p.UserID, &p.Status, &p.CreatedAt); err != nil {
		return nil, pgError(err)
	}
	return p, nil
}
