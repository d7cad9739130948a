package http

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/cimillas/eventbook/internal/app"
	"github.com/cimillas/eventbook/internal/domain"
)

// EventCreator is the minimal interface needed to create an event.
type EventCreator interface {
	CreateEvent(ctx context.Context, in app.CreateEventInput) (domain.Event, error)
}

// EventLister is the minimal interface needed to list events.
type EventLister interface {
	ListEvents(ctx context.Context, in app.ListEventsInput) (app.EventPage, error)
}

// HandleCreateEvent returns an HTTP handler for POST /events.
func HandleCreateEvent(svc EventCreator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createEventRequest
		dec := json.NewDecoder(r.Body)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
			return
		}
		if err := validate.Struct(req); err != nil {
			writeError(w, http.StatusBadRequest, codeValidationFailed, validationMessage(err))
			return
		}

		startTime, err := time.Parse(time.RFC3339, req.StartTime)
		if err != nil {
			writeError(w, http.StatusBadRequest, codeValidationFailed, "start_time must be RFC 3339")
			return
		}
		endTime, err := time.Parse(time.RFC3339, req.EndTime)
		if err != nil {
			writeError(w, http.StatusBadRequest, codeValidationFailed, "end_time must be RFC 3339")
			return
		}
		if !startTime.Before(endTime) {
			writeError(w, http.StatusBadRequest, codeInvalidTimeRange, "start_time must be before end_time")
			return
		}

		event, err := svc.CreateEvent(r.Context(), app.CreateEventInput{
			Name:        req.Name,
			Location:    req.Location,
			StartTime:   startTime,
			EndTime:     endTime,
			MaxCapacity: req.MaxCapacity,
		})
		if err != nil {
			switch err {
			case domain.ErrEventNameRequired, domain.ErrEventLocationRequired, domain.ErrInvalidCapacity:
				writeError(w, http.StatusBadRequest, codeValidationFailed, err.Error())
			default:
				writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
			}
			return
		}

		writeJSON(w, http.StatusCreated, toEventResponse(event))
	}
}

// HandleListEvents returns an HTTP handler for GET /events.
func HandleListEvents(svc EventLister) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page, size, ok := parsePageQuery(w, r)
		if !ok {
			return
		}

		result, err := svc.ListEvents(r.Context(), app.ListEventsInput{
			Page:     page,
			Size:     size,
			Timezone: r.URL.Query().Get("timezone"),
		})
		if err != nil {
			switch err {
			case domain.ErrUnknownTimezone:
				writeError(w, http.StatusBadRequest, codeInvalidTimezone, err.Error())
			default:
				writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
			}
			return
		}

		events := make([]eventResponse, 0, len(result.Events))
		for _, event := range result.Events {
			events = append(events, toEventResponse(event))
		}
		writeJSON(w, http.StatusOK, eventPageResponse{
			Total:  result.Total,
			Page:   result.Page,
			Size:   result.Size,
			Events: events,
		})
	}
}

type createEventRequest struct {
	Name        string `json:"name" validate:"required"`
	Location    string `json:"location" validate:"required"`
	StartTime   string `json:"start_time" validate:"required"`
	EndTime     string `json:"end_time" validate:"required"`
	MaxCapacity int    `json:"max_capacity" validate:"required,gt=0"`
}

type eventResponse struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Location    string    `json:"location"`
	StartTime   time.Time `json:"start_time"`
	EndTime     time.Time `json:"end_time"`
	MaxCapacity int       `json:"max_capacity"`
}

func toEventResponse(event domain.Event) eventResponse {
	return eventResponse{
		ID:          event.ID,
		Name:        event.Name,
		Location:    event.Location,
		StartTime:   event.StartTime,
		EndTime:     event.EndTime,
		MaxCapacity: event.MaxCapacity,
	}
}

type eventPageResponse struct {
	Total  int             `json:"total"`
	Page   int             `json:"page"`
	Size   int             `json:"size"`
	Events []eventResponse `json:"events"`
}

type pageQuery struct {
	Page int `json:"page" validate:"gte=1"`
	Size int `json:"size" validate:"gte=1,lte=100"`
}

// parsePageQuery reads page/size query parameters with defaults of 1/10,
// writing a 400 and returning ok=false when they are out of bounds.
func parsePageQuery(w http.ResponseWriter, r *http.Request) (page, size int, ok bool) {
	q := pageQuery{Page: 1, Size: 10}

	var err error
	if raw := r.URL.Query().Get("page"); raw != "" {
		if q.Page, err = strconv.Atoi(raw); err != nil {
			writeError(w, http.StatusBadRequest, codeValidationFailed, "page must be an integer")
			return 0, 0, false
		}
	}
	if raw := r.URL.Query().Get("size"); raw != "" {
		if q.Size, err = strconv.Atoi(raw); err != nil {
			writeError(w, http.StatusBadRequest, codeValidationFailed, "size must be an integer")
			return 0, 0, false
		}
	}
	if err := validate.Struct(q); err != nil {
		writeError(w, http.StatusBadRequest, codeValidationFailed, validationMessage(err))
		return 0, 0, false
	}
	return q.Page, q.Size, true
}
