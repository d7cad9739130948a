package postgres

import (
	"context"
	"fmt"

	"github.com/cimillas/eventbook/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// RegistrationRepository handles persistence for the registration flow:
// attendee lookup-or-create and the admission transaction.
type RegistrationRepository struct {
	pool *pgxpool.Pool
}

func NewRegistrationRepository(pool *pgxpool.Pool) *RegistrationRepository {
	return &RegistrationRepository{pool: pool}
}

func (r *RegistrationRepository) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return withTx(ctx, r.pool, fn)
}

func (r *RegistrationRepository) FindEvent(ctx context.Context, id int64) (domain.Event, error) {
	const query = `
SELECT id, name, location, start_time, end_time, max_capacity, created_at
FROM events
WHERE id = $1`

	return r.scanEvent(r.queryRow(ctx, query, id))
}

// FindEventForUpdate locks the event row for the rest of the transaction.
// Concurrent admissions for the same event serialize here.
func (r *RegistrationRepository) FindEventForUpdate(ctx context.Context, id int64) (domain.Event, error) {
	const query = `
SELECT id, name, location, start_time, end_time, max_capacity, created_at
FROM events
WHERE id = $1
FOR UPDATE`

	return r.scanEvent(r.queryRow(ctx, query, id))
}

func (r *RegistrationRepository) scanEvent(row pgx.Row) (domain.Event, error) {
	var e domain.Event
	err := row.Scan(&e.ID, &e.Name, &e.Location, &e.StartTime, &e.EndTime, &e.MaxCapacity, &e.CreatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return domain.Event{}, domain.ErrEventNotFound
		}
		return domain.Event{}, fmt.Errorf("get event: %w", err)
	}
	return e, nil
}

func (r *RegistrationRepository) FindAttendeeByEmail(ctx context.Context, email string) (*domain.Attendee, error) {
	const query = `SELECT id, name, email, created_at FROM attendees WHERE email = $1`

	var a domain.Attendee
	err := r.queryRow(ctx, query, email).Scan(&a.ID, &a.Name, &a.Email, &a.CreatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("find attendee by email: %w", err)
	}
	return &a, nil
}

func (r *RegistrationRepository) InsertAttendee(ctx context.Context, name, email string) (domain.Attendee, error) {
	const stmt = `
INSERT INTO attendees (name, email)
VALUES ($1, $2)
RETURNING id, created_at`

	a := domain.Attendee{Name: name, Email: email}
	err := r.queryRow(ctx, stmt, name, email).Scan(&a.ID, &a.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.Attendee{}, domain.ErrEmailTaken
		}
		return domain.Attendee{}, fmt.Errorf("insert attendee: %w", err)
	}
	return a, nil
}

// CountRegistrations reports confirmed registrations for an event. Inside
// the admission transaction the event row lock makes the count stable.
func (r *RegistrationRepository) CountRegistrations(ctx context.Context, eventID int64) (int, error) {
	const query = `SELECT COUNT(*) FROM registrations WHERE event_id = $1`

	var total int
	if err := r.queryRow(ctx, query, eventID).Scan(&total); err != nil {
		return 0, fmt.Errorf("count registrations: %w", err)
	}
	return total, nil
}

func (r *RegistrationRepository) FindRegistration(ctx context.Context, eventID, attendeeID int64) (*domain.Registration, error) {
	const query = `
SELECT id, event_id, attendee_id, created_at
FROM registrations
WHERE event_id = $1 AND attendee_id = $2`

	var reg domain.Registration
	err := r.queryRow(ctx, query, eventID, attendeeID).
		Scan(&reg.ID, &reg.EventID, &reg.AttendeeID, &reg.CreatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("find registration: %w", err)
	}
	return &reg, nil
}

func (r *RegistrationRepository) InsertRegistration(ctx context.Context, eventID, attendeeID int64) (domain.Registration, error) {
	const stmt = `
INSERT INTO registrations (event_id, attendee_id)
VALUES ($1, $2)
RETURNING id, created_at`

	reg := domain.Registration{EventID: eventID, AttendeeID: attendeeID}
	err := r.queryRow(ctx, stmt, eventID, attendeeID).Scan(&reg.ID, &reg.CreatedAt)
	if err != nil {
		// Safety net behind the explicit duplicate check.
		if isUniqueViolation(err) {
			return domain.Registration{}, domain.ErrAlreadyRegistered
		}
		if isForeignKeyViolation(err) {
			return domain.Registration{}, domain.ErrEventNotFound
		}
		return domain.Registration{}, fmt.Errorf("insert registration: %w", err)
	}
	return reg, nil
}

// ListAttendees returns attendees registered for an event in registration
// order, sliced by offset/limit.
func (r *RegistrationRepository) ListAttendees(ctx context.Context, eventID int64, offset, limit int) ([]domain.Attendee, error) {
	const query = `
SELECT a.id, a.name, a.email, a.created_at
FROM attendees a
JOIN registrations reg ON reg.attendee_id = a.id
WHERE reg.event_id = $1
ORDER BY reg.id ASC
OFFSET $2 LIMIT $3`

	rows, err := r.query(ctx, query, eventID, offset, limit)
	if err != nil {
		return nil, fmt.Errorf("list attendees: %w", err)
	}
	defer rows.Close()

	var attendees []domain.Attendee
	for rows.Next() {
		var a domain.Attendee
		if err := rows.Scan(&a.ID, &a.Name, &a.Email, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan attendee: %w", err)
		}
		attendees = append(attendees, a)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("iterate attendees: %w", rows.Err())
	}
	return attendees, nil
}

func (r *RegistrationRepository) query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	if tx := txFromContext(ctx); tx != nil {
		return tx.Query(ctx, sql, args...)
	}
	return r.pool.Query(ctx, sql, args...)
}

func (r *RegistrationRepository) queryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	if tx := txFromContext(ctx); tx != nil {
		return tx.QueryRow(ctx, sql, args...)
	}
	return r.pool.QueryRow(ctx, sql, args...)
}
