package companion

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	httpmiddleware "github.com/wolfman30/wellness-companion/internal/http/middleware"
	"github.com/wolfman30/wellness-companion/internal/risk"
)

type stubService struct {
	got   IncomingMessage
	resp  *ChatResponse
	err   error
	panic bool
}

func (s *stubService) HandleMessage(_ context.Context, msg IncomingMessage) (*ChatResponse, error) {
	if s.panic {
		panic("unexpected nil pointer")
	}
	s.got = msg
	return s.resp, s.err
}

func postMessage(t *testing.T, h *Handler, userID int64, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/chat/message", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if userID > 0 {
		req = req.WithContext(httpmiddleware.WithUserID(req.Context(), userID))
	}
	rec := httptest.NewRecorder()
	h.HandleMessage(rec, req)
	return rec
}

func TestHandleMessageSuccess(t *testing.T) {
	svc := &stubService{resp: &ChatResponse{
		Message:  "hello",
		Analysis: risk.Classify("hello"),
		Meta:     ResponseMeta{Provider: ProviderFallback},
	}}
	h := NewHandler(svc, nil)

	rec := postMessage(t, h, 7, `{
		"userId": 7,
		"message": "hello",
		"conversationHistory": [
			{"role": "user", "content": "earlier"},
			{"role": "system", "content": "nope"},
			"not an object",
			{"role": "assistant", "content": "reply"}
		]
	}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "hello", body["message"])
	meta := body["meta"].(map[string]any)
	assert.Equal(t, "fallback", meta["provider"])
	assert.Nil(t, meta["model"])
	analysis := body["analysis"].(map[string]any)
	assert.Equal(t, "low", analysis["riskLevel"])
	assert.Contains(t, body, "actions")

	assert.Equal(t, int64(7), svc.got.AuthenticatedUserID)
	assert.Equal(t, []HistoryEntry{
		{Role: RoleUser, Content: "earlier"},
		{Role: RoleAssistant, Content: "reply"},
	}, svc.got.History)
}

func TestHandleMessageAcceptsStringUserID(t *testing.T) {
	svc := &stubService{resp: &ChatResponse{Message: "ok"}}
	rec := postMessage(t, NewHandler(svc, nil), 7, `{"userId":"7","message":"hi","conversationHistory":"ignored"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, svc.got.History)
}

func TestHandleMessageRejections(t *testing.T) {
	tests := []struct {
		name   string
		userID int64
		body   string
		status int
	}{
		{"no identity", 0, `{"userId":7,"message":"hi"}`, http.StatusUnauthorized},
		{"other user", 7, `{"userId":8,"message":"hi"}`, http.StatusForbidden},
		{"missing user id", 7, `{"message":"hi"}`, http.StatusForbidden},
		{"non numeric user id", 7, `{"userId":"abc","message":"hi"}`, http.StatusForbidden},
		{"missing message", 7, `{"userId":7}`, http.StatusBadRequest},
		{"blank message", 7, `{"userId":7,"message":"   "}`, http.StatusBadRequest},
		{"non string message", 7, `{"userId":7,"message":42}`, http.StatusBadRequest},
		{"empty body", 7, ``, http.StatusBadRequest},
		{"null body", 7, `null`, http.StatusBadRequest},
		{"malformed json", 7, `{"userId":7,`, http.StatusBadRequest},
		{"array body", 7, `[1,2]`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &stubService{resp: &ChatResponse{}}
			rec := postMessage(t, NewHandler(svc, nil), tt.userID, tt.body)
			assert.Equal(t, tt.status, rec.Code)
			assert.Empty(t, svc.got.Text)
		})
	}
}

func TestHandleMessageBlankMessageText(t *testing.T) {
	for _, body := range []string{`{"userId":7,"message":"   "}`, `{"userId":7,"message":42}`} {
		rec := postMessage(t, NewHandler(&stubService{}, nil), 7, body)
		require.Equal(t, http.StatusBadRequest, rec.Code)

		var got map[string]string
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
		assert.Equal(t, "message is required and must be a non-empty string", got["error"])
	}
}

func TestHandleMessageOversizedBody(t *testing.T) {
	body := `{"userId":7,"message":"` + strings.Repeat("a", maxRequestBytes) + `"}`
	rec := postMessage(t, NewHandler(&stubService{}, nil), 7, body)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleMessageInternalFault(t *testing.T) {
	for name, svc := range map[string]*stubService{
		"service error": {err: errBoom},
		"panic":         {panic: true},
	} {
		t.Run(name, func(t *testing.T) {
			rec := postMessage(t, NewHandler(svc, nil), 7, `{"userId":7,"message":"hi"}`)
			require.Equal(t, http.StatusInternalServerError, rec.Code)

			var body errorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, InternalFaultMessage, body.Message)
			assert.NotContains(t, rec.Body.String(), "boom")
			assert.NotContains(t, rec.Body.String(), "nil pointer")
		})
	}
}

func TestParseClaimedUserID(t *testing.T) {
	tests := map[string]int64{
		`7`:       7,
		`"12"`:    12,
		`" 3 "`:   3,
		`1.5`:     0,
		`"x"`:     0,
		`null`:    0,
		`true`:    0,
		`{"a":1}`: 0,
		``:        0,
	}
	for raw, want := range tests {
		assert.Equal(t, want, parseClaimedUserID(json.RawMessage(raw)), "raw %q", raw)
	}
}
