package routing

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/pelyams/inventory_items_service/internal/domain"
	"github.com/pelyams/inventory_items_service/internal/ports"
)

const maxBodyBytes = 1 << 20

type ItemHandler struct {
	svc ports.InventoryService
}

func NewItemHandler(svc ports.InventoryService) *ItemHandler {
	return &ItemHandler{
		svc: svc,
	}
}

func (h *ItemHandler) ListItems(w http.ResponseWriter, r *http.Request) {
	items, err := h.svc.ListItems(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, items)
}

func (h *ItemHandler) GetItem(w http.ResponseWriter, r *http.Request) {
	item, err := h.svc.GetItem(r.Context(), r.PathValue("id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, item)
}

func (h *ItemHandler) CreateItem(w http.ResponseWriter, r *http.Request) {
	in := decodeInput(w, r)
	item, err := h.svc.CreateItem(r.Context(), in)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusCreated, item)
}

func (h *ItemHandler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	in := decodeInput(w, r)
	item, err := h.svc.UpdateItem(r.Context(), r.PathValue("id"), in)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, item)
}

func (h *ItemHandler) DeleteItem(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeleteItem(r.Context(), r.PathValue("id")); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, map[string]string{"message": "Item deleted"})
}

func (h *ItemHandler) Healthz(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Ping(r.Context()); err != nil {
		domain.RecordError(r.Context(), err)
		writeJSON(w, r, http.StatusServiceUnavailable, map[string]string{"status": "unavailable", "error": err.Error()})
		return
	}
	writeJSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
}

// decodeInput returns an empty input for a body that does not decode as a
// single JSON value, so the service reports it as invalid after it has
// checked the identifier.
func decodeInput(w http.ResponseWriter, r *http.Request) domain.ItemInput {
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	var in domain.ItemInput
	if err := decoder.Decode(&in); err != nil {
		domain.RecordError(r.Context(), fmt.Errorf("failed to decode payload: %w", err))
		return domain.ItemInput{}
	}
	if err := decoder.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		domain.RecordError(r.Context(), errors.New("failed to decode payload: trailing data after JSON value"))
		return domain.ItemInput{}
	}
	return in
}

func (h *ItemHandler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	domain.RecordError(r.Context(), err)
	switch {
	case errors.Is(err, domain.ErrInvalidIdentifier):
		writeJSON(w, r, http.StatusBadRequest, errorBody("Invalid ID"))
	case errors.Is(err, domain.ErrInvalidInput):
		writeJSON(w, r, http.StatusBadRequest, errorBody("Invalid data"))
	case errors.Is(err, domain.ErrNotFound):
		writeJSON(w, r, http.StatusNotFound, errorBody("Item not found"))
	default:
		writeJSON(w, r, http.StatusInternalServerError, errorBody(err.Error()))
	}
}

func errorBody(msg string) map[string]string {
	return map[string]string{"error": msg}
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		domain.RecordError(r.Context(), fmt.Errorf("failed to write response: %w", err))
	}
}
