package widget

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/wolfman30/therapy-booking/internal/booking"
	"github.com/wolfman30/therapy-booking/internal/calendar"
	"github.com/wolfman30/therapy-booking/internal/sessions"
	"github.com/wolfman30/therapy-booking/pkg/logging"
)

// maxBodyBytes caps request bodies; the longest field is the free-text note.
const maxBodyBytes = 64 << 10

// Handler serves the widget JSON API.
type Handler struct {
	svc    *Service
	logger *logging.Logger
}

// NewHandler creates a new widget handler
func NewHandler(svc *Service, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{svc: svc, logger: logger}
}

// Routes returns the widget API, to be mounted under /api.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/services", h.ListServices)
	r.Get("/slots", h.ListSlots)
	r.Post("/ebook", h.Subscribe)
	r.Route("/widget/sessions", func(r chi.Router) {
		r.Post("/", h.StartSession)
		r.Route("/{sessionID}", func(r chi.Router) {
			r.Get("/", h.GetSession)
			r.Post("/calendar/{direction}", h.Navigate)
			r.Patch("/draft", h.UpdateDraft)
			r.Put("/date", h.SelectDate)
			r.Put("/time", h.SelectTime)
			r.Post("/submit", h.Submit)
		})
	})
	return r
}

// HealthCheck handles GET /health
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// ListServices handles GET /api/services
func (h *Handler) ListServices(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"services": booking.ServiceOptions()})
}

// ListSlots handles GET /api/slots
func (h *Handler) ListSlots(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"slots": calendar.TimeSlots()})
}

// StartSession handles POST /api/widget/sessions
func (h *Handler) StartSession(w http.ResponseWriter, r *http.Request) {
	view, err := h.svc.Start(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, view)
}

// GetSession handles GET /api/widget/sessions/{sessionID}
func (h *Handler) GetSession(w http.ResponseWriter, r *http.Request) {
	view, err := h.svc.View(r.Context(), chi.URLParam(r, "sessionID"))
	h.respond(w, view, err)
}

// Navigate handles POST /api/widget/sessions/{sessionID}/calendar/{direction}
func (h *Handler) Navigate(w http.ResponseWriter, r *http.Request) {
	view, err := h.svc.Navigate(r.Context(), chi.URLParam(r, "sessionID"), chi.URLParam(r, "direction"))
	h.respond(w, view, err)
}

// UpdateDraft handles PATCH /api/widget/sessions/{sessionID}/draft
func (h *Handler) UpdateDraft(w http.ResponseWriter, r *http.Request) {
	var req FieldUpdate
	if !h.decode(w, r, &req) {
		return
	}
	view, err := h.svc.UpdateFields(r.Context(), chi.URLParam(r, "sessionID"), req)
	h.respond(w, view, err)
}

type selectDateRequest struct {
	Date string `json:"date"`
}

// SelectDate handles PUT /api/widget/sessions/{sessionID}/date
func (h *Handler) SelectDate(w http.ResponseWriter, r *http.Request) {
	var req selectDateRequest
	if !h.decode(w, r, &req) {
		return
	}
	view, err := h.svc.SelectDate(r.Context(), chi.URLParam(r, "sessionID"), req.Date)
	h.respond(w, view, err)
}

type selectTimeRequest struct {
	Time string `json:"time"`
}

// SelectTime handles PUT /api/widget/sessions/{sessionID}/time
func (h *Handler) SelectTime(w http.ResponseWriter, r *http.Request) {
	var req selectTimeRequest
	if !h.decode(w, r, &req) {
		return
	}
	view, err := h.svc.SelectTime(r.Context(), chi.URLParam(r, "sessionID"), req.Time)
	h.respond(w, view, err)
}

// SubmitResponse is returned once the booking request was delivered.
type SubmitResponse struct {
	Message      string                `json:"message"`
	Confirmation *booking.Confirmation `json:"confirmation"`
	View         *View                 `json:"view"`
}

// Submit handles POST /api/widget/sessions/{sessionID}/submit
func (h *Handler) Submit(w http.ResponseWriter, r *http.Request) {
	view, err := h.svc.Submit(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, SubmitResponse{
		Message:      view.Submission.Message,
		Confirmation: view.Submission.Confirmation,
		View:         view,
	})
}

type subscribeRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Subscribe handles POST /api/ebook
func (h *Handler) Subscribe(w http.ResponseWriter, r *http.Request) {
	var req subscribeRequest
	if !h.decode(w, r, &req) {
		return
	}
	sub, err := h.svc.Subscribe(r.Context(), req.Name, req.Email)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": sub.ThankYou()})
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		h.logger.Warn("failed to decode request", "error", err, "path", r.URL.Path)
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Invalid request body"})
		return false
	}
	return true
}

func (h *Handler) respond(w http.ResponseWriter, view *View, err error) {
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

type errorResponse struct {
	Error   string   `json:"error"`
	Missing []string `json:"missing,omitempty"`
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	var verr *booking.ValidationError
	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: verr.Message, Missing: verr.Missing})
	case errors.Is(err, sessions.ErrSessionNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "session not found"})
	case errors.Is(err, ErrSubmissionInFlight):
		writeJSON(w, http.StatusConflict, errorResponse{Error: err.Error()})
	case errors.Is(err, booking.ErrDeliveryFailed):
		writeJSON(w, http.StatusBadGateway, errorResponse{Error: booking.ErrDeliveryFailed.Error()})
	case errors.Is(err, booking.ErrDateUnavailable),
		errors.Is(err, booking.ErrNoDateSelected),
		errors.Is(err, booking.ErrUnknownTimeSlot),
		errors.Is(err, booking.ErrUnknownService),
		errors.Is(err, ErrUnknownDirection),
		errors.Is(err, ErrInvalidDate):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
	default:
		h.logger.Error("widget request failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
