package domain

import "time"

// Attendee is a person identified by a unique email. Created lazily on the
// first registration attempt carrying that email.
type Attendee struct {
	ID        int64
	Name      string
	Email     string
	CreatedAt time.Time
}
