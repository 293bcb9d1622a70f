package bootstrap

import (
	"context"
	"math"

	"github.com/wolfman30/wellness-companion/internal/catalog"
	"github.com/wolfman30/wellness-companion/internal/companion"
	appconfig "github.com/wolfman30/wellness-companion/internal/config"
	"github.com/wolfman30/wellness-companion/internal/contacts"
	httpmiddleware "github.com/wolfman30/wellness-companion/internal/http/middleware"
	"github.com/wolfman30/wellness-companion/internal/notify"
	"github.com/wolfman30/wellness-companion/internal/observability/metrics"
	"github.com/wolfman30/wellness-companion/internal/safety"
	"github.com/wolfman30/wellness-companion/pkg/logging"
)

// ChatStack is the wired chat pipeline plus the pieces the router exposes.
type ChatStack struct {
	Service *companion.Service
	Gateway *companion.Gateway
	// Contacts is nil without Postgres; the admin API is then not mounted.
	Contacts    *contacts.Store
	RateLimiter *httpmiddleware.RateLimiter
}

// DefaultEmergencyContact is the contact seeded when none is active.
func DefaultEmergencyContact(cfg *appconfig.Config) contacts.EmergencyContact {
	return contacts.EmergencyContact{
		Name:   cfg.EmergencyTeamName,
		Email:  cfg.EmergencyTeamEmail,
		Phone:  cfg.EmergencyTeamPhone,
		Region: cfg.EmergencyTeamRegion,
	}.Normalize()
}

// BuildGateway returns the provider gateway, or nil without a credential.
func BuildGateway(cfg *appconfig.Config, logger *logging.Logger, m *metrics.ChatMetrics) *companion.Gateway {
	if !cfg.ProviderConfigured() {
		return nil
	}
	return companion.NewGateway(companion.GatewayConfig{
		APIKey:       cfg.LLMAPIKey,
		BaseURL:      cfg.LLMBaseURL,
		DefaultModel: cfg.LLMDefaultModel,
		Temperature:  cfg.LLMTemperature,
		TopP:         cfg.LLMTopP,
		MaxTokens:    cfg.LLMMaxTokens,
		HTTPTimeout:  cfg.LLMHTTPTimeout,
	}, logger, m)
}

// BuildCatalog returns the Postgres catalog behind the Redis read-through
// cache, or nil when Postgres is unavailable.
func BuildCatalog(rt *Runtime, cfg *appconfig.Config, logger *logging.Logger) catalog.Store {
	if rt == nil || rt.Pool == nil {
		return nil
	}
	return catalog.NewCachedStore(catalog.NewPostgresStore(rt.Pool), rt.Redis, cfg.CatalogCacheTTL, logger)
}

// BuildRateLimiter returns the per-user chat limiter, or nil when disabled.
func BuildRateLimiter(cfg *appconfig.Config) *httpmiddleware.RateLimiter {
	rps := cfg.ChatRateLimitRPS
	if math.IsNaN(rps) || rps <= 0 {
		return nil
	}
	burst := cfg.ChatRateLimitBurst
	if burst < 1 {
		burst = 1
	}
	return httpmiddleware.NewRateLimiter(rps, burst)
}

// BuildChatStack wires every collaborator of the chat pipeline.
func BuildChatStack(ctx context.Context, cfg *appconfig.Config, rt *Runtime, logger *logging.Logger, m *metrics.ChatMetrics) *ChatStack {
	if logger == nil {
		logger = logging.Default()
	}
	if rt == nil {
		rt = &Runtime{}
	}
	stack := &ChatStack{
		Gateway:     BuildGateway(cfg, logger, m),
		RateLimiter: BuildRateLimiter(cfg),
	}

	var contactStore contacts.ActiveStore
	if rt.Pool != nil {
		stack.Contacts = contacts.NewStore(rt.Pool)
		contactStore = stack.Contacts
	}
	defaultContact := DefaultEmergencyContact(cfg)
	if err := defaultContact.Validate(); err != nil {
		logger.Warn("emergency contact not configured, crisis replies omit the care-team line",
			"name", defaultContact.Name,
		)
	}
	resolver := contacts.NewResolver(contactStore, defaultContact, logger)

	recorder := companion.NewRecorder(
		safety.NewAlertStore(rt.SQLDB),
		safety.NewRiskLogStore(rt.SQLDB),
		notify.NewAlertNotifier(BuildEmailSender(ctx, cfg, logger), logger),
		logger,
		m,
	)

	deps := companion.ServiceDeps{
		Catalog:  BuildCatalog(rt, cfg, logger),
		Contacts: resolver,
		Recorder: recorder,
	}
	if stack.Gateway != nil {
		deps.Completer = stack.Gateway
	} else {
		logger.Warn("LLM_API_KEY not set, replies will use the fallback generator")
	}

	stack.Service = companion.NewService(companion.ServiceConfig{
		Region:          cfg.CrisisRegion,
		Model:           cfg.LLMModel,
		CatalogPageSize: cfg.CatalogPageSize,
	}, deps, logger, m)
	return stack
}
