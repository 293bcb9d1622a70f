package companion

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/wolfman30/wellness-companion/internal/catalog"
	"github.com/wolfman30/wellness-companion/internal/contacts"
	"github.com/wolfman30/wellness-companion/internal/safety"
)

type fakeCatalog struct {
	staff    []catalog.StaffRecord
	articles []catalog.ArticleRecord
	err      error
}

func (f *fakeCatalog) ListStaff(context.Context, int) ([]catalog.StaffRecord, error) {
	return f.staff, f.err
}

func (f *fakeCatalog) ListArticles(context.Context, int) ([]catalog.ArticleRecord, error) {
	return f.articles, f.err
}

type staticResolver struct {
	contact contacts.EmergencyContact
	err     error
}

func (s staticResolver) Resolve(context.Context) contacts.Resolution {
	return contacts.Resolution{Contact: s.contact, Source: contacts.SourceStore, Err: s.err}
}

type fakeCompleter struct {
	mu         sync.Mutex
	calls      int
	messages   [][]ChatMessage
	completion Completion
	err        error
}

func (f *fakeCompleter) Complete(_ context.Context, messages []ChatMessage, _ string) (Completion, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.messages = append(f.messages, messages)
	if f.err != nil {
		return Completion{}, f.err
	}
	return f.completion, nil
}

type fakeAlerts struct {
	mu     sync.Mutex
	alerts []safety.Alert
	err    error
}

func (f *fakeAlerts) Create(_ context.Context, a safety.Alert) (*safety.Alert, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	a.ID = int64(len(f.alerts) + 1)
	f.alerts = append(f.alerts, a)
	return &a, nil
}

type fakeRiskLogs struct {
	mu          sync.Mutex
	entries     []safety.RiskLogEntry
	ensureCalls atomic.Int32
	ensureDelay time.Duration
	ensureErrs  []error
	appendErr   error
}

func (f *fakeRiskLogs) EnsureSchema(context.Context) error {
	n := f.ensureCalls.Add(1)
	if f.ensureDelay > 0 {
		time.Sleep(f.ensureDelay)
	}
	if int(n) <= len(f.ensureErrs) {
		return f.ensureErrs[n-1]
	}
	return nil
}

func (f *fakeRiskLogs) Append(_ context.Context, e safety.RiskLogEntry) (*safety.RiskLogEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.appendErr != nil {
		return nil, f.appendErr
	}
	e.ID = int64(len(f.entries) + 1)
	f.entries = append(f.entries, e)
	return &e, nil
}

type fakeNotifier struct {
	mu    sync.Mutex
	calls []safety.Alert
	err   error
}

func (f *fakeNotifier) NotifyAlert(_ context.Context, a safety.Alert, _ contacts.EmergencyContact) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, a)
	return f.err
}

var errBoom = errors.New("boom")

var testContact = contacts.EmergencyContact{
	Name:     "Care Team On-Call",
	Email:    "oncall@clinic.test",
	Phone:    "+1 555 0100",
	Region:   "US",
	IsActive: true,
}
