package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/cimillas/eventbook/internal/domain"
	"github.com/jackc/pgx/v5/pgxpool"
)

// EventRepository handles persistence for events outside the registration
// transaction (creation and read-side listings).
type EventRepository struct {
	pool *pgxpool.Pool
}

func NewEventRepository(pool *pgxpool.Pool) *EventRepository {
	return &EventRepository{pool: pool}
}

func (r *EventRepository) CreateEvent(ctx context.Context, event domain.Event) (domain.Event, error) {
	const stmt = `
INSERT INTO events (name, location, start_time, end_time, max_capacity)
VALUES ($1, $2, $3, $4, $5)
RETURNING id, created_at`

	err := r.pool.QueryRow(ctx, stmt,
		event.Name,
		event.Location,
		event.StartTime,
		event.EndTime,
		event.MaxCapacity,
	).Scan(&event.ID, &event.CreatedAt)
	if err != nil {
		return domain.Event{}, fmt.Errorf("create event: %w", err)
	}
	return event, nil
}

// ListUpcoming returns events starting at or after from, ordered by start
// time, sliced by offset/limit.
func (r *EventRepository) ListUpcoming(ctx context.Context, from time.Time, offset, limit int) ([]domain.Event, error) {
	const query = `
SELECT id, name, location, start_time, end_time, max_capacity, created_at
FROM events
WHERE start_time >= $1
ORDER BY start_time ASC
OFFSET $2 LIMIT $3`

	rows, err := r.pool.Query(ctx, query, from, offset, limit)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	var events []domain.Event
	for rows.Next() {
		var e domain.Event
		if err := rows.Scan(&e.ID, &e.Name, &e.Location, &e.StartTime, &e.EndTime, &e.MaxCapacity, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		events = append(events, e)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("iterate events: %w", rows.Err())
	}
	return events, nil
}

func (r *EventRepository) CountUpcoming(ctx context.Context, from time.Time) (int, error) {
	const query = `SELECT COUNT(*) FROM events WHERE start_time >= $1`

	var total int
	if err := r.pool.QueryRow(ctx, query, from).Scan(&total); err != nil {
		return 0, fmt.Errorf("count events: %w", err)
	}
	return total, nil
}
