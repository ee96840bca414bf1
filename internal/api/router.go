package api

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"EntryBot/internal/models"
)

// maxBodyBytes - предел размера тела запроса с заявкой; сверх него ответ 413.
const maxBodyBytes = 64 << 10

// EntryCreator сохраняет заявку из веб-формы.
type EntryCreator interface {
	CreateEntry(ctx context.Context, e models.Entry) (models.Entry, error)
}

// Pinger проверяет доступность хранилища.
type Pinger interface {
	Ping(ctx context.Context) error
}

// ApiDependencies содержит зависимости для обработчиков API.
type ApiDependencies struct {
	Entries        EntryCreator
	Health         Pinger
	AllowedOrigins []string
}

// NewRouter собирает роутер с глобальными middleware и маршрутами формы.
func NewRouter(deps ApiDependencies) *chi.Mux {
	r := chi.NewRouter()

	origins := deps.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"https://*", "http://*"}
	}

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	SetupRoutes(r, deps)
	return r
}

// SetupRoutes настраивает все маршруты для API.
func SetupRoutes(r chi.Router, deps ApiDependencies) {
	h := &entryHandlers{entries: deps.Entries, health: deps.Health}

	r.Get("/", ServeForm)
	r.Get("/favicon.ico", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequestSize(maxBodyBytes))
		r.Post("/submit", h.SubmitForm)
		r.Post("/api/entries", h.CreateEntry)
	})

	r.Get("/api/healthz", h.Health)
}
