package contacts

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	httpmiddleware "github.com/wolfman30/wellness-companion/internal/http/middleware"
	"github.com/wolfman30/wellness-companion/pkg/logging"
)

type adminStore interface {
	Active(ctx context.Context) (*EmergencyContact, error)
	Replace(ctx context.Context, c EmergencyContact) (*EmergencyContact, error)
}

// Handler serves the emergency-contact admin endpoints.
type Handler struct {
	store  adminStore
	logger *logging.Logger
}

// NewHandler creates a new contacts admin handler.
func NewHandler(store adminStore, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{store: store, logger: logger}
}

// GetActive handles GET /admin/emergency-contact.
func (h *Handler) GetActive(w http.ResponseWriter, r *http.Request) {
	contact, err := h.store.Active(r.Context())
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "no active emergency contact"})
			return
		}
		h.logger.Error("failed to load emergency contact", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to load emergency contact"})
		return
	}
	writeJSON(w, http.StatusOK, contact)
}

// Replace handles PUT /admin/emergency-contact.
func (h *Handler) Replace(w http.ResponseWriter, r *http.Request) {
	var req EmergencyContact
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 16<<10)).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if err := req.Validate(); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	contact, err := h.store.Replace(r.Context(), req)
	if err != nil {
		h.logger.Error("failed to replace emergency contact", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to update emergency contact"})
		return
	}
	updatedBy := "unknown"
	if claims, ok := httpmiddleware.AdminClaimsFromContext(r.Context()); ok && claims.Subject != "" {
		updatedBy = claims.Subject
	}
	h.logger.Info("emergency contact replaced", "id", contact.ID, "name", contact.Name, "updated_by", updatedBy)
	writeJSON(w, http.StatusOK, contact)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
