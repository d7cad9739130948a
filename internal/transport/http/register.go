package http

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/cimillas/eventbook/internal/app"
	"github.com/cimillas/eventbook/internal/domain"
	"github.com/go-chi/chi/v5"
)

// Registrar is the minimal interface needed to register an attendee.
type Registrar interface {
	Register(ctx context.Context, in app.RegisterInput) (domain.Registration, error)
}

// HandleRegister returns an HTTP handler for POST /events/{id}/register.
func HandleRegister(svc Registrar) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		eventID, ok := parseEventID(w, r)
		if !ok {
			return
		}

		var req registerRequest
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

		reg, err := svc.Register(r.Context(), app.RegisterInput{
			EventID: eventID,
			Name:    req.Name,
			Email:   req.Email,
		})
		if err != nil {
			switch err {
			case domain.ErrEventNotFound:
				writeError(w, http.StatusNotFound, codeEventNotFound, err.Error())
			case domain.ErrEventFull:
				writeError(w, http.StatusBadRequest, codeEventFull, err.Error())
			case domain.ErrAlreadyRegistered:
				writeError(w, http.StatusBadRequest, codeAlreadyRegistered, err.Error())
			default:
				writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
			}
			return
		}

		writeJSON(w, http.StatusCreated, registrationResponse{
			ID:         reg.ID,
			EventID:    reg.EventID,
			AttendeeID: reg.AttendeeID,
		})
	}
}

type registerRequest struct {
	Name  string `json:"name" validate:"required"`
	Email string `json:"email" validate:"required,email"`
}

type registrationResponse struct {
	ID         int64 `json:"id"`
	EventID    int64 `json:"event_id"`
	AttendeeID int64 `json:"attendee_id"`
}

// parseEventID reads the {id} path parameter, writing a 400 and returning
// ok=false when it is not a positive integer.
func parseEventID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, codeInvalidID, "event id must be a positive integer")
		return 0, false
	}
	return id, true
}
