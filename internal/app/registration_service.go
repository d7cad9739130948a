package app

import (
	"context"
	"errors"

	"github.com/cimillas/eventbook/internal/domain"
)

// RegistrationRepository is the persistence surface for the registration
// flow. WithTx must carry the transaction on the context so every method
// called inside it joins the same atomic unit of work.
type RegistrationRepository interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
	FindEvent(ctx context.Context, id int64) (domain.Event, error)
	FindEventForUpdate(ctx context.Context, id int64) (domain.Event, error)
	FindAttendeeByEmail(ctx context.Context, email string) (*domain.Attendee, error)
	InsertAttendee(ctx context.Context, name, email string) (domain.Attendee, error)
	CountRegistrations(ctx context.Context, eventID int64) (int, error)
	FindRegistration(ctx context.Context, eventID, attendeeID int64) (*domain.Registration, error)
	InsertRegistration(ctx context.Context, eventID, attendeeID int64) (domain.Registration, error)
	ListAttendees(ctx context.Context, eventID int64, offset, limit int) ([]domain.Attendee, error)
}

type RegistrationService struct {
	repo RegistrationRepository
}

func NewRegistrationService(repo RegistrationRepository) *RegistrationService {
	return &RegistrationService{repo: repo}
}

type RegisterInput struct {
	EventID int64
	Name    string
	Email   string
}

// Register admits an attendee to an event or reports exactly why not.
//
// The capacity and duplicate checks run inside one transaction that locks
// the event row first, so concurrent attempts against the same event are
// totally ordered and the registration count can never pass max_capacity.
// A failed admission is final; nothing is retried.
func (s *RegistrationService) Register(ctx context.Context, in RegisterInput) (domain.Registration, error) {
	if _, err := s.repo.FindEvent(ctx, in.EventID); err != nil {
		return domain.Registration{}, err
	}

	attendee, err := s.resolveAttendee(ctx, in.Name, in.Email)
	if err != nil {
		return domain.Registration{}, err
	}

	var result domain.Registration
	err = s.repo.WithTx(ctx, func(txCtx context.Context) error {
		event, err := s.repo.FindEventForUpdate(txCtx, in.EventID)
		if err != nil {
			return err
		}

		count, err := s.repo.CountRegistrations(txCtx, event.ID)
		if err != nil {
			return err
		}
		if count >= event.MaxCapacity {
			return domain.ErrEventFull
		}

		existing, err := s.repo.FindRegistration(txCtx, event.ID, attendee.ID)
		if err != nil {
			return err
		}
		if existing != nil {
			return domain.ErrAlreadyRegistered
		}

		reg, err := s.repo.InsertRegistration(txCtx, event.ID, attendee.ID)
		if err != nil {
			return err
		}
		result = reg
		return nil
	})
	if err != nil {
		return domain.Registration{}, err
	}
	return result, nil
}

// resolveAttendee finds the attendee with the given email or creates one.
// When two requests race to create the same new email, the loser's insert
// hits the unique index; re-fetching the winner's row keeps the conflict
// invisible to callers.
func (s *RegistrationService) resolveAttendee(ctx context.Context, name, email string) (domain.Attendee, error) {
	if existing, err := s.repo.FindAttendeeByEmail(ctx, email); err != nil {
		return domain.Attendee{}, err
	} else if existing != nil {
		return *existing, nil
	}

	attendee, err := s.repo.InsertAttendee(ctx, name, email)
	if err != nil {
		if errors.Is(err, domain.ErrEmailTaken) {
			existing, err := s.repo.FindAttendeeByEmail(ctx, email)
			if err != nil {
				return domain.Attendee{}, err
			}
			if existing != nil {
				return *existing, nil
			}
		}
		return domain.Attendee{}, err
	}
	return attendee, nil
}

type AttendeePage struct {
	Total     int
	Page      int
	Size      int
	Attendees []domain.Attendee
}

// ListAttendees returns one page of an event's attendees in registration
// order, plus the total registration count. A page past the end yields an
// empty list, not an error.
func (s *RegistrationService) ListAttendees(ctx context.Context, eventID int64, page, size int) (AttendeePage, error) {
	if _, err := s.repo.FindEvent(ctx, eventID); err != nil {
		return AttendeePage{}, err
	}

	offset := (page - 1) * size
	attendees, err := s.repo.ListAttendees(ctx, eventID, offset, size)
	if err != nil {
		return AttendeePage{}, err
	}
	total, err := s.repo.CountRegistrations(ctx, eventID)
	if err != nil {
		return AttendeePage{}, err
	}

	return AttendeePage{
		Total:     total,
		Page:      page,
		Size:      size,
		Attendees: attendees,
	}, nil
}
