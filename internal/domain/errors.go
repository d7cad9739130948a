package domain

import "errors"

var (
	ErrEventNotFound         = errors.New("event not found")
	ErrEventFull             = errors.New("event is fully booked")
	ErrAlreadyRegistered     = errors.New("attendee already registered for this event")
	ErrEventNameRequired     = errors.New("event name required")
	ErrEventLocationRequired = errors.New("event location required")
	ErrInvalidCapacity       = errors.New("max_capacity must be positive")
	ErrUnknownTimezone       = errors.New("unknown timezone")

	// ErrEmailTaken signals that an attendee insert lost a concurrent
	// creation race. Consumed by the resolver, never surfaced to callers.
	ErrEmailTaken = errors.New("attendee email already exists")
)
