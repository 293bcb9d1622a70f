// Package companion runs the chat companion's triage and response pipeline.
package companion

import (
	"strings"

	"github.com/wolfman30/wellness-companion/internal/risk"
)

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ChatMessage is one entry of a provider prompt.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// HistoryEntry is a prior turn supplied by the client.
type HistoryEntry struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// NewHistoryEntry validates a client-supplied turn. Role is case-insensitive.
func NewHistoryEntry(role, content string) (HistoryEntry, error) {
	role = strings.ToLower(strings.TrimSpace(role))
	if role != RoleUser && role != RoleAssistant {
		return HistoryEntry{}, ErrInvalidHistoryEntry
	}
	if strings.TrimSpace(content) == "" {
		return HistoryEntry{}, ErrInvalidHistoryEntry
	}
	return HistoryEntry{Role: role, Content: content}, nil
}

func (h HistoryEntry) valid() bool {
	_, err := NewHistoryEntry(h.Role, h.Content)
	return err == nil
}

// IncomingMessage is a validated chat turn.
type IncomingMessage struct {
	AuthenticatedUserID int64
	ClaimedUserID       int64
	Text                string
	History             []HistoryEntry
}

// NewIncomingMessage rejects requests that must not enter the pipeline.
// Invalid history turns are dropped rather than rejected.
func NewIncomingMessage(authenticatedUserID, claimedUserID int64, text string, history []HistoryEntry) (IncomingMessage, error) {
	if authenticatedUserID <= 0 {
		return IncomingMessage{}, ErrAuthenticationRequired
	}
	if claimedUserID != authenticatedUserID {
		return IncomingMessage{}, ErrForbidden
	}
	if strings.TrimSpace(text) == "" {
		return IncomingMessage{}, ErrInvalidMessage
	}
	kept := make([]HistoryEntry, 0, len(history))
	for _, h := range history {
		entry, err := NewHistoryEntry(h.Role, h.Content)
		if err != nil {
			continue
		}
		kept = append(kept, entry)
	}
	return IncomingMessage{
		AuthenticatedUserID: authenticatedUserID,
		ClaimedUserID:       claimedUserID,
		Text:                text,
		History:             kept,
	}, nil
}

// Provider names the path that produced a reply.
type Provider string

const (
	ProviderCrisis   Provider = "crisis"
	ProviderAPI      Provider = "provider-api"
	ProviderFallback Provider = "fallback"
)

// ResponseMeta describes how a reply was produced.
type ResponseMeta struct {
	Provider Provider `json:"provider"`
	Model    *string  `json:"model"`
}

// ResponseActions are hints for the client UI.
type ResponseActions struct {
	ShouldUpgradeDashboardRisk bool `json:"shouldUpgradeDashboardRisk"`
	SuggestBooking             bool `json:"suggestBooking"`
}

// ChatResponse is returned for every accepted message.
type ChatResponse struct {
	Message  string          `json:"message"`
	Analysis risk.Assessment `json:"analysis"`
	Meta     ResponseMeta    `json:"meta"`
	Actions  ResponseActions `json:"actions"`
}
