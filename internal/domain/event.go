package domain

import "time"

// Event is a happening with a fixed number of seats. StartTime and EndTime
// are stored normalized to UTC; conversion to a display zone happens at
// read time.
type Event struct {
	ID          int64
	Name        string
	Location    string
	StartTime   time.Time
	EndTime     time.Time
	MaxCapacity int
	CreatedAt   time.Time
}

// InZone returns a copy of the event with its instants shifted to loc for
// display. The underlying instants are unchanged.
func (e Event) InZone(loc *time.Location) Event {
	e.StartTime = e.StartTime.In(loc)
	e.EndTime = e.EndTime.In(loc)
	return e
}
