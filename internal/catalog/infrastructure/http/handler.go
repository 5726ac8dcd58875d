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

	"github.com/sweetbyte/sweetshop/internal/catalog/application"
	"github.com/sweetbyte/sweetshop/internal/catalog/domain"
	"github.com/sweetbyte/sweetshop/pkg/money"
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
		tracer:  otel.Tracer("catalog-http"),
	}
}

// Routes returns the catalog subtree, mounted at /sweets. Reads are public;
// mutations go behind the supplied admin middleware.
func (h *Handler) Routes(requireAdmin func(http.Handler) http.Handler) http.Handler {
	r := chi.NewRouter()
	r.Get("/", h.listSweets)
	r.Get("/{id}", h.getSweet)

	r.Group(func(r chi.Router) {
		r.Use(requireAdmin)
		r.Post("/", h.createSweet)
		r.Put("/{id}", h.updateSweet)
		r.Delete("/{id}", h.deleteSweet)
		r.Post("/{id}/restock", h.restock)
	})
	return r
}

type sweetDTO struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Category    string    `json:"category"`
	Price       string    `json:"price"`
	Quantity    int       `json:"quantity"`
	ImageURL    string    `json:"image_url,omitempty"`
}

func toDTO(s domain.Sweet) sweetDTO {
	return sweetDTO{
		ID:          s.ID,
		Name:        s.Name,
		Description: s.Description,
		Category:    s.Category,
		Price:       money.FormatCents(s.PriceCents),
		Quantity:    s.Quantity,
		ImageURL:    s.ImageURL,
	}
}

func (h *Handler) listSweets(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "ListSweets")
	defer span.End()

	f := domain.Filter{
		Query:    r.URL.Query().Get("q"),
		Category: r.URL.Query().Get("category"),
	}
	if v := r.URL.Query().Get("min_price"); v != "" {
		cents, err := money.ParsePrice(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "InvalidInput", "invalid min_price")
			return
		}
		f.MinPriceCents = &cents
	}
	if v := r.URL.Query().Get("max_price"); v != "" {
		cents, err := money.ParsePrice(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "InvalidInput", "invalid max_price")
			return
		}
		f.MaxPriceCents = &cents
	}

	sweets, err := h.service.ListSweets(ctx, f)
	if err != nil {
		h.log.Error("list sweets failed", "err", err)
		writeError(w, http.StatusInternalServerError, "Unavailable", "failed to list sweets")
		return
	}
	out := make([]sweetDTO, 0, len(sweets))
	for _, s := range sweets {
		out = append(out, toDTO(s))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) getSweet(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "GetSweet")
	defer span.End()

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "InvalidInput", "invalid sweet id")
		return
	}
	sweet, err := h.service.GetSweet(ctx, id)
	if errors.Is(err, domain.ErrSweetNotFound) {
		writeError(w, http.StatusNotFound, "ItemNotFound", "sweet not found")
		return
	}
	if err != nil {
		h.log.Error("get sweet failed", "sweet_id", id, "err", err)
		writeError(w, http.StatusInternalServerError, "Unavailable", "failed to fetch sweet")
		return
	}
	writeJSON(w, http.StatusOK, toDTO(*sweet))
}

type sweetReq struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	Category    *string `json:"category"`
	Price       *string `json:"price"`
	Quantity    *int    `json:"quantity"`
	ImageURL    *string `json:"image_url"`
}

func (h *Handler) createSweet(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "CreateSweet")
	defer span.End()

	var req sweetReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "InvalidInput", "invalid body")
		return
	}
	if req.Name == nil || req.Category == nil || req.Price == nil || req.Quantity == nil {
		writeError(w, http.StatusBadRequest, "InvalidInput", "name, category, price and quantity are required")
		return
	}
	cents, err := money.ParsePrice(*req.Price)
	if err != nil {
		writeError(w, http.StatusBadRequest, "InvalidInput", "invalid price")
		return
	}

	sweet := domain.Sweet{
		Name:       *req.Name,
		Category:   *req.Category,
		PriceCents: cents,
		Quantity:   *req.Quantity,
	}
	if req.Description != nil {
		sweet.Description = *req.Description
	}
	if req.ImageURL != nil {
		sweet.ImageURL = *req.ImageURL
	}

	created, err := h.service.CreateSweet(ctx, sweet)
	if errors.Is(err, domain.ErrInvalidSweet) {
		writeError(w, http.StatusBadRequest, "InvalidInput", err.Error())
		return
	}
	if err != nil {
		h.log.Error("create sweet failed", "err", err)
		writeError(w, http.StatusInternalServerError, "Unavailable", "failed to create sweet")
		return
	}
	writeJSON(w, http.StatusCreated, toDTO(*created))
}

func (h *Handler) updateSweet(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "UpdateSweet")
	defer span.End()

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "InvalidInput", "invalid sweet id")
		return
	}
	var req sweetReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "InvalidInput", "invalid body")
		return
	}

	p := domain.Patch{
		Name:        req.Name,
		Description: req.Description,
		Category:    req.Category,
		Quantity:    req.Quantity,
		ImageURL:    req.ImageURL,
	}
	if req.Price != nil {
		cents, err := money.ParsePrice(*req.Price)
		if err != nil {
			writeError(w, http.StatusBadRequest, "InvalidInput", "invalid price")
			return
		}
		p.PriceCents = &cents
	}

	updated, err := h.service.UpdateSweet(ctx, id, p)
	if errors.Is(err, domain.ErrSweetNotFound) {
		writeError(w, http.StatusNotFound, "ItemNotFound", "sweet not found")
		return
	}
	if errors.Is(err, domain.ErrInvalidSweet) {
		writeError(w, http.StatusBadRequest, "InvalidInput", err.Error())
		return
	}
	if err != nil {
		h.log.Error("update sweet failed", "sweet_id", id, "err", err)
		writeError(w, http.StatusInternalServerError, "Unavailable", "failed to update sweet")
		return
	}
	writeJSON(w, http.StatusOK, toDTO(*updated))
}

func (h *Handler) deleteSweet(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "DeleteSweet")
	defer span.End()

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "InvalidInput", "invalid sweet id")
		return
	}
	err = h.service.DeleteSweet(ctx, id)
	if errors.Is(err, domain.ErrSweetNotFound) {
		writeError(w, http.StatusNotFound, "ItemNotFound", "sweet not found")
		return
	}
	if err != nil {
		h.log.Error("delete sweet failed", "sweet_id", id, "err", err)
		writeError(w, http.StatusInternalServerError, "Unavailable", "failed to delete sweet")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) restock(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "Restock")
	defer span.End()

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "InvalidInput", "invalid sweet id")
		return
	}
	var req struct {
		Quantity int `json:"quantity"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "InvalidInput", "invalid body")
		return
	}

	sweet, err := h.service.Restock(ctx, id, req.Quantity)
	if errors.Is(err, domain.ErrSweetNotFound) {
		writeError(w, http.StatusNotFound, "ItemNotFound", "sweet not found")
		return
	}
	if errors.Is(err, domain.ErrInvalidSweet) {
		writeError(w, http.StatusBadRequest, "InvalidInput", err.Error())
		return
	}
	if err != nil {
		h.log.Error("restock failed", "sweet_id", id, "err", err)
		writeError(w, http.StatusInternalServerError, "Unavailable", "failed to restock")
		return
	}
	writeJSON(w, http.StatusOK, toDTO(*sweet))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	writeJSON(w, status, map[string]string{"error": msg, "code": code})
}
