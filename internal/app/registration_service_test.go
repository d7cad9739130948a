package app

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/cimillas/eventbook/internal/domain"
)

func TestRegistrationService_Register(t *testing.T) {
	t.Parallel()

	start := time.Date(2025, 6, 1, 18, 0, 0, 0, time.UTC)

	makeSvc := func(events ...domain.Event) (*RegistrationService, *fakeRegistrationRepo) {
		repo := newFakeRegistrationRepo(events)
		return NewRegistrationService(repo), repo
	}

	t.Run("registers when seats available", func(t *testing.T) {
		svc, repo := makeSvc(domain.Event{ID: 1, Name: "GopherCon", MaxCapacity: 2, StartTime: start})

		reg, err := svc.Register(context.Background(), RegisterInput{
			EventID: 1,
			Name:    "Ada",
			Email:   "ada@example.com",
		})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if reg.ID == 0 {
			t.Fatalf("expected registration ID to be set")
		}
		if reg.EventID != 1 {
			t.Fatalf("expected event_id 1, got %d", reg.EventID)
		}
		if len(repo.registrations) != 1 {
			t.Fatalf("expected 1 registration, got %d", len(repo.registrations))
		}
		if len(repo.attendees) != 1 {
			t.Fatalf("expected attendee to be created, got %d", len(repo.attendees))
		}
	})

	t.Run("event not found leaves no side effects", func(t *testing.T) {
		svc, repo := makeSvc()

		_, err := svc.Register(context.Background(), RegisterInput{
			EventID: 42,
			Name:    "Ada",
			Email:   "ada@example.com",
		})
		if err != domain.ErrEventNotFound {
			t.Fatalf("expected ErrEventNotFound, got %v", err)
		}
		if len(repo.attendees) != 0 {
			t.Fatalf("expected no attendee created, got %d", len(repo.attendees))
		}
		if len(repo.registrations) != 0 {
			t.Fatalf("expected no registrations, got %d", len(repo.registrations))
		}
	})

	t.Run("fails when event is full", func(t *testing.T) {
		svc, repo := makeSvc(domain.Event{ID: 1, Name: "GopherCon", MaxCapacity: 1, StartTime: start})

		if _, err := svc.Register(context.Background(), RegisterInput{EventID: 1, Name: "Ada", Email: "ada@example.com"}); err != nil {
			t.Fatalf("seed registration failed: %v", err)
		}

		_, err := svc.Register(context.Background(), RegisterInput{EventID: 1, Name: "Grace", Email: "grace@example.com"})
		if err != domain.ErrEventFull {
			t.Fatalf("expected ErrEventFull, got %v", err)
		}
		if len(repo.registrations) != 1 {
			t.Fatalf("expected registrations unchanged, got %d", len(repo.registrations))
		}
	})

	t.Run("duplicate registration fails and creates no second row", func(t *testing.T) {
		svc, repo := makeSvc(domain.Event{ID: 1, Name: "GopherCon", MaxCapacity: 10, StartTime: start})

		if _, err := svc.Register(context.Background(), RegisterInput{EventID: 1, Name: "Ada", Email: "ada@example.com"}); err != nil {
			t.Fatalf("first registration failed: %v", err)
		}

		_, err := svc.Register(context.Background(), RegisterInput{EventID: 1, Name: "Ada", Email: "ada@example.com"})
		if err != domain.ErrAlreadyRegistered {
			t.Fatalf("expected ErrAlreadyRegistered, got %v", err)
		}
		if len(repo.registrations) != 1 {
			t.Fatalf("expected 1 registration, got %d", len(repo.registrations))
		}
	})

	t.Run("same email across events reuses the attendee", func(t *testing.T) {
		svc, repo := makeSvc(
			domain.Event{ID: 1, Name: "GopherCon", MaxCapacity: 10, StartTime: start},
			domain.Event{ID: 2, Name: "FOSDEM", MaxCapacity: 10, StartTime: start},
		)

		first, err := svc.Register(context.Background(), RegisterInput{EventID: 1, Name: "Ada", Email: "ada@example.com"})
		if err != nil {
			t.Fatalf("first registration failed: %v", err)
		}
		second, err := svc.Register(context.Background(), RegisterInput{EventID: 2, Name: "Ada", Email: "ada@example.com"})
		if err != nil {
			t.Fatalf("second registration failed: %v", err)
		}

		if first.AttendeeID != second.AttendeeID {
			t.Fatalf("expected stable attendee id, got %d and %d", first.AttendeeID, second.AttendeeID)
		}
		if len(repo.attendees) != 1 {
			t.Fatalf("expected 1 attendee row, got %d", len(repo.attendees))
		}
	})

	t.Run("lost attendee creation race falls back to the winner's row", func(t *testing.T) {
		svc, repo := makeSvc(domain.Event{ID: 1, Name: "GopherCon", MaxCapacity: 10, StartTime: start})
		repo.loseAttendeeInsertRace = true

		reg, err := svc.Register(context.Background(), RegisterInput{EventID: 1, Name: "Ada", Email: "ada@example.com"})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(repo.attendees) != 1 {
			t.Fatalf("expected 1 attendee row, got %d", len(repo.attendees))
		}
		if reg.AttendeeID != repo.attendees[0].ID {
			t.Fatalf("expected registration against winner's attendee id %d, got %d", repo.attendees[0].ID, reg.AttendeeID)
		}
	})
}

func TestRegistrationService_Register_RaceForLastSeat(t *testing.T) {
	t.Parallel()

	repo := newFakeRegistrationRepo([]domain.Event{
		{ID: 1, Name: "GopherCon", MaxCapacity: 1, StartTime: time.Date(2025, 6, 1, 18, 0, 0, 0, time.UTC)},
	})
	svc := NewRegistrationService(repo)

	emails := []string{"ada@example.com", "grace@example.com"}
	errs := make([]error, len(emails))

	var wg sync.WaitGroup
	for i, email := range emails {
		wg.Add(1)
		go func(i int, email string) {
			defer wg.Done()
			_, errs[i] = svc.Register(context.Background(), RegisterInput{
				EventID: 1,
				Name:    "Attendee",
				Email:   email,
			})
		}(i, email)
	}
	wg.Wait()

	var succeeded, full int
	for _, err := range errs {
		switch err {
		case nil:
			succeeded++
		case domain.ErrEventFull:
			full++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if succeeded != 1 || full != 1 {
		t.Fatalf("expected exactly one winner and one ErrEventFull, got %d/%d", succeeded, full)
	}
	if len(repo.registrations) != 1 {
		t.Fatalf("expected 1 registration, got %d", len(repo.registrations))
	}
}

func TestRegistrationService_ListAttendees(t *testing.T) {
	t.Parallel()

	repo := newFakeRegistrationRepo([]domain.Event{
		{ID: 1, Name: "GopherCon", MaxCapacity: 10},
	})
	svc := NewRegistrationService(repo)

	for _, email := range []string{"a@example.com", "b@example.com", "c@example.com"} {
		if _, err := svc.Register(context.Background(), RegisterInput{EventID: 1, Name: "Attendee", Email: email}); err != nil {
			t.Fatalf("seed registration failed: %v", err)
		}
	}

	t.Run("first page", func(t *testing.T) {
		page, err := svc.ListAttendees(context.Background(), 1, 1, 2)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if page.Total != 3 {
			t.Fatalf("expected total 3, got %d", page.Total)
		}
		if len(page.Attendees) != 2 {
			t.Fatalf("expected 2 attendees, got %d", len(page.Attendees))
		}
		if page.Attendees[0].Email != "a@example.com" {
			t.Fatalf("expected insertion order, got %q first", page.Attendees[0].Email)
		}
	})

	t.Run("page past the end is empty, not an error", func(t *testing.T) {
		page, err := svc.ListAttendees(context.Background(), 1, 10, 2)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if page.Total != 3 {
			t.Fatalf("expected total 3, got %d", page.Total)
		}
		if len(page.Attendees) != 0 {
			t.Fatalf("expected empty page, got %d", len(page.Attendees))
		}
	})

	t.Run("unknown event", func(t *testing.T) {
		_, err := svc.ListAttendees(context.Background(), 42, 1, 10)
		if err != domain.ErrEventNotFound {
			t.Fatalf("expected ErrEventNotFound, got %v", err)
		}
	})
}

// fakeRegistrationRepo keeps state in memory. WithTx holds a mutex for the
// whole callback, standing in for the event row lock that serializes
// concurrent admissions in Postgres.
type fakeRegistrationRepo struct {
	txMu    sync.Mutex
	stateMu sync.Mutex

	events        map[int64]domain.Event
	attendees     []domain.Attendee
	registrations []domain.Registration

	nextAttendeeID     int64
	nextRegistrationID int64

	// loseAttendeeInsertRace makes the next InsertAttendee behave as if a
	// concurrent request created the row first.
	loseAttendeeInsertRace bool
}

func newFakeRegistrationRepo(events []domain.Event) *fakeRegistrationRepo {
	m := make(map[int64]domain.Event, len(events))
	for _, e := range events {
		m[e.ID] = e
	}
	return &fakeRegistrationRepo{
		events:             m,
		nextAttendeeID:     1,
		nextRegistrationID: 1,
	}
}

func (f *fakeRegistrationRepo) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	f.txMu.Lock()
	defer f.txMu.Unlock()
	return fn(ctx)
}

func (f *fakeRegistrationRepo) FindEvent(_ context.Context, id int64) (domain.Event, error) {
	f.stateMu.Lock()
	defer f.stateMu.Unlock()
	event, ok := f.events[id]
	if !ok {
		return domain.Event{}, domain.ErrEventNotFound
	}
	return event, nil
}

func (f *fakeRegistrationRepo) FindEventForUpdate(ctx context.Context, id int64) (domain.Event, error) {
	return f.FindEvent(ctx, id)
}

func (f *fakeRegistrationRepo) FindAttendeeByEmail(_ context.Context, email string) (*domain.Attendee, error) {
	f.stateMu.Lock()
	defer f.stateMu.Unlock()
	for i := range f.attendees {
		if f.attendees[i].Email == email {
			a := f.attendees[i]
			return &a, nil
		}
	}
	return nil, nil
}

func (f *fakeRegistrationRepo) InsertAttendee(_ context.Context, name, email string) (domain.Attendee, error) {
	f.stateMu.Lock()
	defer f.stateMu.Unlock()
	for _, a := range f.attendees {
		if a.Email == email {
			return domain.Attendee{}, domain.ErrEmailTaken
		}
	}
	a := domain.Attendee{ID: f.nextAttendeeID, Name: name, Email: email}
	f.nextAttendeeID++
	f.attendees = append(f.attendees, a)
	if f.loseAttendeeInsertRace {
		f.loseAttendeeInsertRace = false
		return domain.Attendee{}, domain.ErrEmailTaken
	}
	return a, nil
}

func (f *fakeRegistrationRepo) CountRegistrations(_ context.Context, eventID int64) (int, error) {
	f.stateMu.Lock()
	defer f.stateMu.Unlock()
	total := 0
	for _, reg := range f.registrations {
		if reg.EventID == eventID {
			total++
		}
	}
	return total, nil
}

func (f *fakeRegistrationRepo) FindRegistration(_ context.Context, eventID, attendeeID int64) (*domain.Registration, error) {
	f.stateMu.Lock()
	defer f.stateMu.Unlock()
	for i := range f.registrations {
		reg := f.registrations[i]
		if reg.EventID == eventID && reg.AttendeeID == attendeeID {
			return &reg, nil
		}
	}
	return nil, nil
}

func (f *fakeRegistrationRepo) InsertRegistration(_ context.Context, eventID, attendeeID int64) (domain.Registration, error) {
	f.stateMu.Lock()
	defer f.stateMu.Unlock()
	for _, reg := range f.registrations {
		if reg.EventID == eventID && reg.AttendeeID == attendeeID {
			return domain.Registration{}, domain.ErrAlreadyRegistered
		}
	}
	reg := domain.Registration{ID: f.nextRegistrationID, EventID: eventID, AttendeeID: attendeeID}
	f.nextRegistrationID++
	f.registrations = append(f.registrations, reg)
	return reg, nil
}

func (f *fakeRegistrationRepo) ListAttendees(_ context.Context, eventID int64, offset, limit int) ([]domain.Attendee, error) {
	f.stateMu.Lock()
	defer f.stateMu.Unlock()
	var ids []int64
	for _, reg := range f.registrations {
		if reg.EventID == eventID {
			ids = append(ids, reg.AttendeeID)
		}
	}
	if offset >= len(ids) {
		return nil, nil
	}
	end := offset + limit
	if end > len(ids) {
		end = len(ids)
	}
	var out []domain.Attendee
	for _, id := range ids[offset:end] {
		for _, a := range f.attendees {
			if a.ID == id {
				out = append(out, a)
			}
		}
	}
	return out, nil
}
