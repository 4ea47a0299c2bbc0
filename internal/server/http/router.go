// Package httpserver is the JSON HTTP API of the observer backend.
package httpserver

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"
	"go.uber.org/zap"

	"github.com/danek0100/External-Observer/internal/service"
)

// Services groups what the router dispatches to.
type Services struct {
	Auth      service.AuthService
	Documents service.DocumentService
	Habits    service.HabitService
}

// NewRouter builds the HTTP handler of the API.
//
// Everything under /api except registration and login requires a bearer token;
// the username carried by the token is the owner passed to every service call.
// CORS is limited to origins; an empty list disables cross-origin access.
func NewRouter(svc Services, log *zap.Logger, origins []string) http.Handler {
	auth := &AuthHandler{Service: svc.Auth}
	notes := &NotesHandler{Service: svc.Documents}
	habits := &HabitsHandler{Service: svc.Habits}

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(RequestLogger(log))
	r.Use(Recover(log))
	r.Use(cors.New(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Disposition"},
		AllowCredentials: true,
	}).Handler)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	r.Route("/api", func(r chi.Router) {
		r.Post("/auth/register", auth.Register)
		r.Post("/auth/login", auth.Login)

		r.Group(func(r chi.Router) {
			r.Use(Authenticate(svc.Auth))

			r.Delete("/auth/account", auth.DeleteAccount)

			r.Route("/notes", func(r chi.Router) {
				r.Get("/", notes.List)
				r.Post("/", notes.Create)
				r.Post("/search", notes.Search)
				r.Get("/search/tags", notes.SearchTags)
				r.Get("/search/keyword", notes.SearchKeyword)
				r.Get("/export", notes.Export)
				r.Get("/{id}", notes.Get)
				r.Put("/{id}", notes.Update)
				r.Delete("/{id}", notes.Delete)
				r.Get("/{id}/history", notes.History)
				r.Get("/{id}/backlinks", notes.Backlinks)
			})

			r.Route("/habits", func(r chi.Router) {
				r.Get("/", habits.List)
				r.Post("/", habits.Create)
				r.Put("/order", habits.Reorder)
				r.Get("/checks", habits.ChecksForDay)
				r.Post("/checks", habits.UpsertCheckJSON)
				r.Get("/checks/period", habits.ChecksForPeriod)
				r.Get("/report", habits.Report)
				r.Get("/export", habits.Export)
				r.Put("/{id}", habits.Update)
				r.Delete("/{id}", habits.Delete)
				r.Post("/{id}/checks", habits.UpsertCheck)
			})
		})
	})
	return r
}
