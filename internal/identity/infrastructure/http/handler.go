package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/sweetbyte/sweetshop/internal/identity/application"
	"github.com/sweetbyte/sweetshop/internal/identity/domain"
)

type Handler struct {
	log     *slog.Logger
	service *application.Service
	tracer  trace.Tracer
}

func NewHandler(log *slog.Logger, service *application.Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
		tracer:  otel.Tracer("identity-http"),
	}
}

// Routes returns the auth subtree, mounted at /auth.
func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Post("/register", h.register)
	r.Post("/login", h.login)
	return r
}

type buyerDTO struct {
	ID    uuid.UUID   `json:"id"`
	Email string      `json:"email"`
	Name  string      `json:"name"`
	Role  domain.Role `json:"role"`
}

func (h *Handler) register(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "Register")
	defer span.End()

	var req struct {
		Email    string `json:"email"`
		Name     string `json:"name"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "InvalidInput", "invalid body")
		return
	}

	b, err := h.service.Register(ctx, req.Email, req.Name, req.Password)
	if errors.Is(err, domain.ErrInvalidBuyer) {
		writeError(w, http.StatusBadRequest, "InvalidInput", err.Error())
		return
	}
	if errors.Is(err, domain.ErrEmailTaken) {
		writeError(w, http.StatusConflict, "Conflict", "email already registered")
		return
	}
	if err != nil {
		h.log.Error("register failed", "err", err)
		writeError(w, http.StatusInternalServerError, "Unavailable", "registration failed")
		return
	}
	writeJSON(w, http.StatusCreated, buyerDTO{ID: b.ID, Email: b.Email, Name: b.Name, Role: b.Role})
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "Login")
	defer span.End()

	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "InvalidInput", "invalid body")
		return
	}

	token, b, err := h.service.Login(ctx, req.Email, req.Password)
	if errors.Is(err, domain.ErrUnauthenticated) {
		writeError(w, http.StatusUnauthorized, "Unauthenticated", "invalid email or password")
		return
	}
	if err != nil {
		h.log.Error("login failed", "err", err)
		writeError(w, http.StatusInternalServerError, "Unavailable", "login failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"token": token,
		"buyer": buyerDTO{ID: b.ID, Email: b.Email, Name: b.Name, Role: b.Role},
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	writeJSON(w, status, map[string]string{"error": msg, "code": code})
}
