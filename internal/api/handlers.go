package api

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"EntryBot/internal/models"
)

//go:embed web/form.html
var formHTML []byte

const (
	msgEntryCreated   = "Дані успішно додані!"
	msgInvalidBody    = "Некоректне тіло запиту"
	msgBodyTooLarge   = "Запит завеликий"
	msgStoreFailure   = "Не вдалося зберегти заявку, спробуйте пізніше"
	msgStoreDown      = "Сховище недоступне"
	healthPingTimeout = 3 * time.Second
)

// jsonResponse - стандартная структура для JSON ответов.
type jsonResponse struct {
	Status  string      `json:"status"` // "success" или "error"
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// entryRequest - тело POST /api/entries. Поле type принимается как синоним service_type.
type entryRequest struct {
	Name        string `json:"name"`
	Email       string `json:"email"`
	Phone       string `json:"phone"`
	ServiceType string `json:"service_type"`
	Type        string `json:"type"`
}

func (req entryRequest) entry() models.Entry {
	e := models.Entry{Name: req.Name, Email: req.Email, Phone: req.Phone, ServiceType: req.ServiceType}
	if e.ServiceType == "" {
		e.ServiceType = req.Type
	}
	return e
}

type entryHandlers struct {
	entries EntryCreator
	health  Pinger
}

func writeJSON(w http.ResponseWriter, statusCode int, resp jsonResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(resp)
}

func writeJSONError(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, jsonResponse{Status: "error", Message: message})
}

func writeJSONSuccess(w http.ResponseWriter, statusCode int, message string, data interface{}) {
	writeJSON(w, statusCode, jsonResponse{Status: "success", Message: message, Data: data})
}

// ServeForm отдает встроенную HTML-форму заявки.
func ServeForm(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write(formHTML)
}

// SubmitForm принимает заявку из HTML-формы (поля name, email, phone, type).
func (h *entryHandlers) SubmitForm(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeBodyError(w, err)
		return
	}
	h.create(w, r.Context(), models.Entry{
		Name:        r.PostForm.Get("name"),
		Email:       r.PostForm.Get("email"),
		Phone:       r.PostForm.Get("phone"),
		ServiceType: r.PostForm.Get("type"),
	})
}

// CreateEntry принимает заявку в JSON.
func (h *entryHandlers) CreateEntry(w http.ResponseWriter, r *http.Request) {
	var req entryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBodyError(w, err)
		return
	}
	h.create(w, r.Context(), req.entry())
}

func (h *entryHandlers) create(w http.ResponseWriter, ctx context.Context, e models.Entry) {
	e = e.Normalize()
	if err := e.Validate(); err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	created, err := h.entries.CreateEntry(ctx, e)
	if err != nil {
		log.Printf("API.CreateEntry: ошибка сохранения заявки: %v", err)
		writeJSONError(w, http.StatusInternalServerError, msgStoreFailure)
		return
	}
	log.Printf("API.CreateEntry: создана заявка #%d", created.ID)
	writeJSONSuccess(w, http.StatusCreated, msgEntryCreated, created)
}

// Health проверяет соединение с базой.
func (h *entryHandlers) Health(w http.ResponseWriter, r *http.Request) {
	if h.health == nil {
		writeJSONSuccess(w, http.StatusOK, "ok", nil)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), healthPingTimeout)
	defer cancel()
	if err := h.health.Ping(ctx); err != nil {
		log.Printf("API.Health: %v", err)
		writeJSONError(w, http.StatusServiceUnavailable, msgStoreDown)
		return
	}
	writeJSONSuccess(w, http.StatusOK, "ok", nil)
}

func writeBodyError(w http.ResponseWriter, err error) {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		writeJSONError(w, http.StatusRequestEntityTooLarge, msgBodyTooLarge)
		return
	}
	writeJSONError(w, http.StatusBadRequest, msgInvalidBody)
}
