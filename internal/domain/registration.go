package domain

import "time"

// Registration links an attendee to an event. At most one exists per
// (event, attendee) pair.
type Registration struct {
	ID         int64
	EventID    int64
	AttendeeID int64
	CreatedAt  time.Time
}
