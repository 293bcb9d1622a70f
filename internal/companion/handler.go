package companion

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	httpmiddleware "github.com/wolfman30/wellness-companion/internal/http/middleware"
	"github.com/wolfman30/wellness-companion/pkg/logging"
)

const maxRequestBytes = 64 << 10

// InternalFaultMessage is the only text shown to users when a request fails
// unexpectedly.
const InternalFaultMessage = "I'm sorry, something went wrong on my side and I couldn't respond just now. Please try again in a moment. If you are in immediate danger, please call your local emergency number."

type messageService interface {
	HandleMessage(ctx context.Context, msg IncomingMessage) (*ChatResponse, error)
}

// Handler serves the chat endpoint.
type Handler struct {
	service messageService
	logger  *logging.Logger
}

// NewHandler creates a new chat handler.
func NewHandler(service messageService, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{service: service, logger: logger}
}

type messageRequest struct {
	UserID              json.RawMessage `json:"userId"`
	Message             json.RawMessage `json:"message"`
	ConversationHistory json.RawMessage `json:"conversationHistory"`
}

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// HandleMessage handles POST /api/chat/message.
func (h *Handler) HandleMessage(w http.ResponseWriter, r *http.Request) {
	defer func() {
		if rec := recover(); rec != nil {
			h.logger.Error("chat handler panic", "panic", rec)
			writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal_error", Message: InternalFaultMessage})
		}
	}()

	userID, ok := httpmiddleware.UserIDFromContext(r.Context())
	if !ok {
		h.writeError(w, ErrAuthenticationRequired)
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBytes+1))
	if err != nil || len(body) > maxRequestBytes {
		h.writeError(w, ErrInvalidMessage)
		return
	}
	if trimmed := bytes.TrimSpace(body); len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		h.writeError(w, ErrInvalidMessage)
		return
	}
	var req messageRequest
	if err := json.Unmarshal(body, &req); err != nil {
		h.logger.Warn("failed to decode chat request", "error", err)
		h.writeError(w, ErrInvalidMessage)
		return
	}

	msg, err := NewIncomingMessage(userID, parseClaimedUserID(req.UserID), decodeText(req.Message), decodeHistory(req.ConversationHistory))
	if err != nil {
		h.writeError(w, err)
		return
	}

	resp, err := h.service.HandleMessage(r.Context(), msg)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrAuthenticationRequired):
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "authentication required"})
	case errors.Is(err, ErrForbidden):
		writeJSON(w, http.StatusForbidden, errorResponse{Error: "userId does not match the authenticated user"})
	case errors.Is(err, ErrInvalidMessage):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "message is required and must be a non-empty string"})
	default:
		h.logger.Error("chat message failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal_error", Message: InternalFaultMessage})
	}
}

// parseClaimedUserID accepts a JSON number or numeric string. Anything else
// yields 0, which never matches an authenticated id.
func parseClaimedUserID(raw json.RawMessage) int64 {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return 0
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		if id, err := n.Int64(); err == nil {
			return id
		}
		return 0
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if id, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64); err == nil {
			return id
		}
	}
	return 0
}

// decodeText returns "" unless raw is a JSON string.
func decodeText(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return ""
	}
	return s
}

// decodeHistory keeps entries shaped like {role, content}; the rest are dropped.
func decodeHistory(raw json.RawMessage) []HistoryEntry {
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil
	}
	history := make([]HistoryEntry, 0, len(items))
	for _, item := range items {
		var entry struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		}
		if err := json.Unmarshal(item, &entry); err != nil {
			continue
		}
		if h, err := NewHistoryEntry(entry.Role, entry.Content); err == nil {
			history = append(history, h)
		}
	}
	return history
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
