package app

import (
	"context"
	"math"
	"time"

	"github.com/cimillas/eventbook/internal/clock"
	"github.com/cimillas/eventbook/internal/domain"
)

type EventRepository interface {
	CreateEvent(ctx context.Context, event domain.Event) (domain.Event, error)
	ListUpcoming(ctx context.Context, from time.Time, offset, limit int) ([]domain.Event, error)
	CountUpcoming(ctx context.Context, from time.Time) (int, error)
}

type EventService struct {
	repo            EventRepository
	clock           clock.Clock
	defaultTimezone string
}

func NewEventService(repo EventRepository, clk clock.Clock, defaultTimezone string) *EventService {
	return &EventService{
		repo:            repo,
		clock:           clk,
		defaultTimezone: defaultTimezone,
	}
}

type CreateEventInput struct {
	Name        string
	Location    string
	StartTime   time.Time
	EndTime     time.Time
	MaxCapacity int
}

// CreateEvent stores a new event with its instants normalized to UTC.
func (s *EventService) CreateEvent(ctx context.Context, in CreateEventInput) (domain.Event, error) {
	if in.Name == "" {
		return domain.Event{}, domain.ErrEventNameRequired
	}
	if in.Location == "" {
		return domain.Event{}, domain.ErrEventLocationRequired
	}
	if in.MaxCapacity <= 0 || in.MaxCapacity > math.MaxInt32 {
		return domain.Event{}, domain.ErrInvalidCapacity
	}

	event := domain.Event{
		Name:        in.Name,
		Location:    in.Location,
		StartTime:   in.StartTime.UTC(),
		EndTime:     in.EndTime.UTC(),
		MaxCapacity: in.MaxCapacity,
	}
	return s.repo.CreateEvent(ctx, event)
}

type ListEventsInput struct {
	Page int
	Size int
	// Timezone is the IANA zone for display; empty means the configured
	// default.
	Timezone string
}

type EventPage struct {
	Total  int
	Page   int
	Size   int
	Events []domain.Event
}

// ListEvents returns one page of upcoming events ordered by start time,
// with instants converted to the requested display zone.
func (s *EventService) ListEvents(ctx context.Context, in ListEventsInput) (EventPage, error) {
	name := in.Timezone
	if name == "" {
		name = s.defaultTimezone
	}
	loc, err := domain.LoadZone(name)
	if err != nil {
		return EventPage{}, err
	}

	now := s.clock.Now()
	total, err := s.repo.CountUpcoming(ctx, now)
	if err != nil {
		return EventPage{}, err
	}

	offset := (in.Page - 1) * in.Size
	events, err := s.repo.ListUpcoming(ctx, now, offset, in.Size)
	if err != nil {
		return EventPage{}, err
	}
	for i := range events {
		events[i] = events[i].InZone(loc)
	}

	return EventPage{
		Total:  total,
		Page:   in.Page,
		Size:   in.Size,
		Events: events,
	}, nil
}
