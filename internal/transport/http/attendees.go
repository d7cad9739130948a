package http

import (
	"context"
	"net/http"

	"github.com/cimillas/eventbook/internal/app"
	"github.com/cimillas/eventbook/internal/domain"
)

// AttendeeLister is the minimal interface needed to list an event's attendees.
type AttendeeLister interface {
	ListAttendees(ctx context.Context, eventID int64, page, size int) (app.AttendeePage, error)
}

// HandleListAttendees returns an HTTP handler for GET /events/{id}/attendees.
func HandleListAttendees(svc AttendeeLister) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		eventID, ok := parseEventID(w, r)
		if !ok {
			return
		}
		page, size, ok := parsePageQuery(w, r)
		if !ok {
			return
		}

		result, err := svc.ListAttendees(r.Context(), eventID, page, size)
		if err != nil {
			switch err {
			case domain.ErrEventNotFound:
				writeError(w, http.StatusNotFound, codeEventNotFound, err.Error())
			default:
				writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
			}
			return
		}

		attendees := make([]attendeeResponse, 0, len(result.Attendees))
		for _, a := range result.Attendees {
			attendees = append(attendees, attendeeResponse{
				ID:    a.ID,
				Name:  a.Name,
				Email: a.Email,
			})
		}
		writeJSON(w, http.StatusOK, attendeePageResponse{
			Total:     result.Total,
			Page:      result.Page,
			Size:      result.Size,
			Attendees: attendees,
		})
	}
}

type attendeeResponse struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

type attendeePageResponse struct {
	Total     int                `json:"total"`
	Page      int                `json:"page"`
	Size      int                `json:"size"`
	Attendees []attendeeResponse `json:"attendees"`
}
