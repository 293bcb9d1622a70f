package companion

import (
	"context"
	"errors"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/wolfman30/wellness-companion/internal/catalog"
	"github.com/wolfman30/wellness-companion/internal/contacts"
	"github.com/wolfman30/wellness-companion/internal/observability/metrics"
	"github.com/wolfman30/wellness-companion/internal/risk"
	"github.com/wolfman30/wellness-companion/pkg/logging"
)

var serviceTracer = otel.Tracer("wellness.internal.companion.service")

// Completer produces a provider reply for a prompt.
type Completer interface {
	Complete(ctx context.Context, messages []ChatMessage, modelPreference string) (Completion, error)
}

// ContactResolver yields the emergency contact for a turn.
type ContactResolver interface {
	Resolve(ctx context.Context) contacts.Resolution
}

// SideEffectRecorder writes the audit trail for a turn.
type SideEffectRecorder interface {
	Record(ctx context.Context, a risk.Assessment, userID int64, text string, crisisFired bool, contact contacts.EmergencyContact) RecordResult
}

// ServiceConfig holds the per-deployment knobs of the pipeline.
type ServiceConfig struct {
	Region          string
	Model           string
	CatalogPageSize int
}

// ServiceDeps are the collaborators of the pipeline. Completer is nil when no
// provider credential is configured; Catalog may be nil.
type ServiceDeps struct {
	Catalog   catalog.Store
	Contacts  ContactResolver
	Completer Completer
	Recorder  SideEffectRecorder
}

// Service runs one chat turn end to end.
type Service struct {
	cfg       ServiceConfig
	catalog   catalog.Store
	contacts  ContactResolver
	completer Completer
	recorder  SideEffectRecorder
	logger    *logging.Logger
	metrics   *metrics.ChatMetrics
}

// NewService wires the pipeline.
func NewService(cfg ServiceConfig, deps ServiceDeps, logger *logging.Logger, m *metrics.ChatMetrics) *Service {
	if logger == nil {
		logger = logging.Default()
	}
	cfg.Region = strings.ToUpper(strings.TrimSpace(cfg.Region))
	if cfg.CatalogPageSize <= 0 {
		cfg.CatalogPageSize = catalog.DefaultPageSize
	}
	contactResolver := deps.Contacts
	if contactResolver == nil {
		contactResolver = contacts.NewResolver(nil, contacts.EmergencyContact{}, logger)
	}
	return &Service{
		cfg:       cfg,
		catalog:   deps.Catalog,
		contacts:  contactResolver,
		completer: deps.Completer,
		recorder:  deps.Recorder,
		logger:    logger,
		metrics:   m,
	}
}

// ContextResult is the outcome of loading clinic context. Failures degrade to
// an empty context.
type ContextResult struct {
	Text   string
	Status Outcome
	Err    error
}

// ProviderResult is the outcome of the provider attempt on the grounded path.
type ProviderResult struct {
	Status     Outcome
	Completion Completion
	Err        error
}

// HandleMessage validates msg, classifies it, produces a reply and records
// side effects. Only ErrAuthenticationRequired, ErrForbidden and
// ErrInvalidMessage are returned for a well-formed service.
func (s *Service) HandleMessage(ctx context.Context, msg IncomingMessage) (*ChatResponse, error) {
	ctx, span := serviceTracer.Start(ctx, "companion.handle_message")
	defer span.End()

	// Authenticating
	msg, err := NewIncomingMessage(msg.AuthenticatedUserID, msg.ClaimedUserID, msg.Text, msg.History)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	logger := s.logger.With("user_id", msg.AuthenticatedUserID)

	// Classifying
	assessment := risk.Classify(msg.Text)
	s.metrics.ObserveAssessment(string(assessment.Level), assessment.IsHeavy)
	span.SetAttributes(
		attribute.String("wellness.risk.level", string(assessment.Level)),
		attribute.Int("wellness.risk.score", assessment.Score),
		attribute.Bool("wellness.risk.heavy", assessment.IsHeavy),
	)
	logger = logger.With("risk_level", string(assessment.Level))

	// ResolvingContact
	resolution := s.contacts.Resolve(ctx)
	if resolution.Err != nil {
		logger.Warn("emergency contact degraded to default", "error", resolution.Err)
	}
	contact := resolution.Contact

	resp := &ChatResponse{
		Analysis: assessment,
		Actions: ResponseActions{
			ShouldUpgradeDashboardRisk: assessment.Level.IsCrisis(),
			SuggestBooking:             !assessment.Level.IsCrisis() && (assessment.Level == risk.LevelMedium || assessment.MoodLevel <= 4),
		},
	}

	crisisFired := assessment.Level.IsCrisis()
	if crisisFired {
		// CrisisPath
		resp.Message = ComposeCrisis(s.cfg.Region, &contact)
		resp.Meta.Provider = ProviderCrisis
	} else {
		// GroundedPath
		s.grounded(ctx, logger, msg, assessment, contact, resp)
	}

	// Recording
	if s.recorder != nil {
		result := s.recorder.Record(ctx, assessment, msg.AuthenticatedUserID, msg.Text, crisisFired, contact)
		if outcome := result.Outcome(); outcome != OutcomeOK && outcome != OutcomeSkipped {
			logger.Warn("side effects incomplete", "status", string(outcome), "errors", len(result.Errors))
		}
	}

	// Responding
	s.metrics.ObserveResponse(string(resp.Meta.Provider))
	span.SetAttributes(attribute.String("wellness.chat.provider", string(resp.Meta.Provider)))
	logger.Info("chat message handled", "provider", string(resp.Meta.Provider))
	return resp, nil
}

func (s *Service) grounded(ctx context.Context, logger *logging.Logger, msg IncomingMessage, a risk.Assessment, contact contacts.EmergencyContact, resp *ChatResponse) {
	useFallback := func() {
		resp.Message = Fallback(msg.Text, a.MoodLevel, a.Level, s.cfg.Region, &contact)
		resp.Meta = ResponseMeta{Provider: ProviderFallback}
	}

	if s.completer == nil {
		useFallback()
		return
	}

	clinic := s.loadContext(ctx, msg.Text)
	if clinic.Status != OutcomeOK {
		logger.Warn("clinic context unavailable", "error", clinic.Err)
	}
	messages := AssemblePrompt(a, s.cfg.Region, clinic.Text, CrisisResourceText(s.cfg.Region), msg.History, msg.Text)

	result := s.attemptProvider(ctx, messages)
	if result.Status != OutcomeOK {
		logger.Warn("provider reply unavailable, using fallback", "status", string(result.Status), "error", result.Err)
		useFallback()
		return
	}
	model := result.Completion.Model
	resp.Message = result.Completion.Content
	resp.Meta = ResponseMeta{Provider: ProviderAPI, Model: &model}
}

func (s *Service) attemptProvider(ctx context.Context, messages []ChatMessage) ProviderResult {
	completion, err := s.completer.Complete(ctx, messages, s.cfg.Model)
	if err != nil {
		return ProviderResult{Status: OutcomeFailed, Err: err}
	}
	guard := GuardReply(completion.Content)
	if guard.Blocked {
		return ProviderResult{
			Status: OutcomeDegraded,
			Err:    errors.New("companion: reply blocked: " + strings.Join(guard.Reasons, ",")),
		}
	}
	completion.Content = guard.Reply
	return ProviderResult{Status: OutcomeOK, Completion: completion}
}

// loadContext reads both catalogs. Any failure yields an empty context.
func (s *Service) loadContext(ctx context.Context, query string) ContextResult {
	if s.catalog == nil {
		return ContextResult{Status: OutcomeDegraded, Err: &PersistenceError{Op: "load catalog", Err: catalog.ErrNilPool}}
	}
	staff, err := s.catalog.ListStaff(ctx, s.cfg.CatalogPageSize)
	if err != nil {
		return ContextResult{Status: OutcomeDegraded, Err: &PersistenceError{Op: "list staff", Err: err}}
	}
	articles, err := s.catalog.ListArticles(ctx, s.cfg.CatalogPageSize)
	if err != nil {
		return ContextResult{Status: OutcomeDegraded, Err: &PersistenceError{Op: "list articles", Err: err}}
	}
	return ContextResult{Text: BuildContext(query, staff, articles), Status: OutcomeOK}
}
