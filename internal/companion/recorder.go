package companion

import (
	"context"
	"sync"
	"sync/atomic"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/wolfman30/wellness-companion/internal/contacts"
	"github.com/wolfman30/wellness-companion/internal/observability/metrics"
	"github.com/wolfman30/wellness-companion/internal/risk"
	"github.com/wolfman30/wellness-companion/internal/safety"
	"github.com/wolfman30/wellness-companion/pkg/logging"
)

var recorderTracer = otel.Tracer("wellness.internal.companion.recorder")

const (
	ActionCrisisGuidance     = "Crisis guidance provided"
	ActionSupportiveResponse = "Supportive response provided"
)

// AlertWriter persists reviewer alerts.
type AlertWriter interface {
	Create(ctx context.Context, alert safety.Alert) (*safety.Alert, error)
}

// RiskLogWriter appends risk-log entries and can bring their table up to date.
type RiskLogWriter interface {
	EnsureSchema(ctx context.Context) error
	Append(ctx context.Context, entry safety.RiskLogEntry) (*safety.RiskLogEntry, error)
}

// AlertNotifier tells the emergency team about a crisis alert.
type AlertNotifier interface {
	NotifyAlert(ctx context.Context, alert safety.Alert, contact contacts.EmergencyContact) error
}

// schemaGuard runs an initializer once per process. Concurrent first callers
// wait for the one in flight; a failure leaves the guard open for a later call.
type schemaGuard struct {
	mu   sync.Mutex
	done atomic.Bool
}

func (g *schemaGuard) ensure(ctx context.Context, fn func(context.Context) error) error {
	if g.done.Load() {
		return nil
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.done.Load() {
		return nil
	}
	if err := fn(ctx); err != nil {
		return err
	}
	g.done.Store(true)
	return nil
}

// RecordResult reports each best-effort write.
type RecordResult struct {
	Alert   Outcome
	RiskLog Outcome
	Notify  Outcome
	Errors  []error
}

// Outcome folds the individual writes into one status.
func (r RecordResult) Outcome() Outcome {
	if r.Alert == OutcomeSkipped && r.RiskLog == OutcomeSkipped {
		return OutcomeSkipped
	}
	if len(r.Errors) == 0 {
		return OutcomeOK
	}
	if r.Alert == OutcomeFailed && r.RiskLog == OutcomeFailed {
		return OutcomeFailed
	}
	return OutcomeDegraded
}

// Recorder writes the alert and risk-log side effects of a message.
type Recorder struct {
	alerts   AlertWriter
	riskLogs RiskLogWriter
	notifier AlertNotifier
	schema   *schemaGuard
	logger   *logging.Logger
	metrics  *metrics.ChatMetrics
}

// NewRecorder builds a recorder. Any collaborator may be nil, in which case
// its write is reported as failed.
func NewRecorder(alerts AlertWriter, riskLogs RiskLogWriter, notifier AlertNotifier, logger *logging.Logger, m *metrics.ChatMetrics) *Recorder {
	if logger == nil {
		logger = logging.Default()
	}
	return &Recorder{
		alerts:   alerts,
		riskLogs: riskLogs,
		notifier: notifier,
		schema:   &schemaGuard{},
		logger:   logger,
		metrics:  m,
	}
}

// Record writes one alert and one risk-log entry when the assessment calls for
// it. Failures are logged and reported, never returned.
func (r *Recorder) Record(ctx context.Context, a risk.Assessment, userID int64, text string, crisisFired bool, contact contacts.EmergencyContact) RecordResult {
	result := RecordResult{Alert: OutcomeSkipped, RiskLog: OutcomeSkipped, Notify: OutcomeSkipped}
	if !a.NeedsRecording() {
		return result
	}
	ctx, span := recorderTracer.Start(ctx, "companion.record_side_effects")
	defer span.End()
	span.SetAttributes(
		attribute.String("wellness.risk.level", string(a.Level)),
		attribute.Bool("wellness.crisis_fired", crisisFired),
	)
	logger := r.logger.With("user_id", userID, "risk_level", string(a.Level))

	alert, err := r.writeAlert(ctx, a, userID, text)
	if err != nil {
		result.Alert = OutcomeFailed
		result.Errors = append(result.Errors, err)
		r.metrics.ObserveSideEffectFailure("alert")
		logger.Error("failed to write alert", "error", err)
	} else {
		result.Alert = OutcomeOK
	}

	if err := r.writeRiskLog(ctx, a, userID, text, crisisFired); err != nil {
		result.RiskLog = OutcomeFailed
		result.Errors = append(result.Errors, err)
		r.metrics.ObserveSideEffectFailure("risk_log")
		logger.Error("failed to write risk log", "error", err)
	} else {
		result.RiskLog = OutcomeOK
	}

	if alert != nil && a.Level.IsCrisis() && r.notifier != nil {
		if err := r.notifier.NotifyAlert(ctx, *alert, contact); err != nil {
			result.Notify = OutcomeFailed
			result.Errors = append(result.Errors, &PersistenceError{Op: "notify emergency team", Err: err})
			r.metrics.ObserveSideEffectFailure("notify")
			logger.Warn("failed to notify emergency team", "error", err)
		} else {
			result.Notify = OutcomeOK
		}
	}
	span.SetAttributes(
		attribute.String("wellness.record.alert", string(result.Alert)),
		attribute.String("wellness.record.risk_log", string(result.RiskLog)),
	)
	return result
}

func (r *Recorder) writeAlert(ctx context.Context, a risk.Assessment, userID int64, text string) (*safety.Alert, error) {
	if r.alerts == nil {
		return nil, &PersistenceError{Op: "write alert", Err: safety.ErrNilDB}
	}
	alert, err := r.alerts.Create(ctx, safety.Alert{
		UserID:    userID,
		RiskLevel: string(a.Level),
		IsHeavy:   a.IsHeavy,
		Excerpt:   safety.Truncate(text, safety.MaxExcerptRunes),
		FullText:  text,
		Status:    safety.StatusNew,
	})
	if err != nil {
		return nil, &PersistenceError{Op: "write alert", Err: err}
	}
	return alert, nil
}

func (r *Recorder) writeRiskLog(ctx context.Context, a risk.Assessment, userID int64, text string, crisisFired bool) error {
	if r.riskLogs == nil {
		return &PersistenceError{Op: "write risk log", Err: safety.ErrNilDB}
	}
	if err := r.schema.ensure(ctx, r.riskLogs.EnsureSchema); err != nil {
		return &PersistenceError{Op: "ensure risk log schema", Err: err}
	}
	action := ActionSupportiveResponse
	if crisisFired {
		action = ActionCrisisGuidance
	}
	_, err := r.riskLogs.Append(ctx, safety.RiskLogEntry{
		UserID:      userID,
		RiskLevel:   string(a.Level),
		RiskScore:   a.Score,
		RiskType:    string(a.Type),
		Indicator:   safety.Truncate(text, safety.MaxExcerptRunes),
		ActionTaken: action,
	})
	if err != nil {
		return &PersistenceError{Op: "write risk log", Err: err}
	}
	return nil
}
