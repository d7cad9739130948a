package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// NewRouter assembles the API routes and middleware stack.
func NewRouter(
	events interface {
		EventCreator
		EventLister
	},
	registrations interface {
		Registrar
		AttendeeLister
	},
	logger *zap.Logger,
	corsOrigins []string,
) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RealIP)
	r.Use(RequestID)
	r.Use(RequestLogger(logger))
	r.Use(CORS(corsOrigins))

	r.Get("/health", HealthHandler)

	r.Route("/events", func(r chi.Router) {
		r.Post("/", HandleCreateEvent(events))
		r.Get("/", HandleListEvents(events))
		r.Post("/{id}/register", HandleRegister(registrations))
		r.Get("/{id}/attendees", HandleListAttendees(registrations))
	})

	r.NotFound(NotFoundHandler())

	return r
}
