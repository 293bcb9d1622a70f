package contacts

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	httpmiddleware "github.com/wolfman30/wellness-companion/internal/http/middleware"
	"github.com/wolfman30/wellness-companion/pkg/logging"
)

type fakeAdminStore struct {
	active    *EmergencyContact
	activeErr error
	replaced  []EmergencyContact
	replErr   error
}

func (f *fakeAdminStore) Active(context.Context) (*EmergencyContact, error) {
	return f.active, f.activeErr
}

func (f *fakeAdminStore) Replace(_ context.Context, c EmergencyContact) (*EmergencyContact, error) {
	if f.replErr != nil {
		return nil, f.replErr
	}
	f.replaced = append(f.replaced, c)
	c = c.Normalize()
	c.ID = int64(len(f.replaced))
	c.IsActive = true
	return &c, nil
}

func TestHandlerGetActive(t *testing.T) {
	tests := []struct {
		name   string
		store  *fakeAdminStore
		status int
	}{
		{"active", &fakeAdminStore{active: &EmergencyContact{ID: 2, Name: "On-Call", Email: "oncall@clinic.test", IsActive: true}}, http.StatusOK},
		{"none active", &fakeAdminStore{activeErr: ErrNotFound}, http.StatusNotFound},
		{"store down", &fakeAdminStore{activeErr: errors.New("connection refused")}, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			NewHandler(tt.store, nil).GetActive(rec, httptest.NewRequest(http.MethodGet, "/admin/emergency-contact", nil))
			assert.Equal(t, tt.status, rec.Code)
			assert.NotContains(t, rec.Body.String(), "connection refused")
		})
	}
}

func TestHandlerGetActiveBody(t *testing.T) {
	store := &fakeAdminStore{active: &EmergencyContact{ID: 2, Name: "On-Call", Email: "oncall@clinic.test", Region: "US", IsActive: true}}
	rec := httptest.NewRecorder()
	NewHandler(store, nil).GetActive(rec, httptest.NewRequest(http.MethodGet, "/admin/emergency-contact", nil))

	var got EmergencyContact
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, *store.active, got)
}

func TestHandlerReplace(t *testing.T) {
	store := &fakeAdminStore{}
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPut, "/admin/emergency-contact",
		strings.NewReader(`{"name":" Weekend Team ","phone":"+15550111","region":"ca"}`))

	NewHandler(store, nil).Replace(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var got EmergencyContact
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "Weekend Team", got.Name)
	assert.Equal(t, "CA", got.Region)
	assert.True(t, got.IsActive)
	require.Len(t, store.replaced, 1)
}

func TestHandlerReplaceLogsAdminSubject(t *testing.T) {
	var buf bytes.Buffer
	h := NewHandler(&fakeAdminStore{}, logging.NewWithWriter("info", &buf))

	req := httptest.NewRequest(http.MethodPut, "/admin/emergency-contact", strings.NewReader(`{"name":"Team","email":"a@b.test"}`))
	claims := httpmiddleware.AdminClaims{Role: httpmiddleware.AdminRole}
	claims.Subject = "admin-7"

	rec := httptest.NewRecorder()
	h.Replace(rec, req.WithContext(httpmiddleware.WithAdminClaims(req.Context(), claims)))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, buf.String(), `"updated_by":"admin-7"`)
}

func TestHandlerReplaceRejections(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		store  *fakeAdminStore
		status int
	}{
		{"malformed json", `{"name":`, &fakeAdminStore{}, http.StatusBadRequest},
		{"no channel", `{"name":"Team"}`, &fakeAdminStore{}, http.StatusBadRequest},
		{"no name", `{"email":"a@b.test"}`, &fakeAdminStore{}, http.StatusBadRequest},
		{"store failure", `{"name":"Team","email":"a@b.test"}`, &fakeAdminStore{replErr: errors.New("tx aborted")}, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPut, "/admin/emergency-contact", strings.NewReader(tt.body))
			NewHandler(tt.store, nil).Replace(rec, req)
			assert.Equal(t, tt.status, rec.Code)
			assert.Empty(t, tt.store.replaced)
		})
	}
}
