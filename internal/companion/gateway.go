package companion

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"regexp"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/wolfman30/wellness-companion/internal/observability/metrics"
	"github.com/wolfman30/wellness-companion/pkg/logging"
)

var gatewayTracer = otel.Tracer("wellness.internal.companion.gateway")

const (
	DefaultModel       = "openai/gpt-4o-mini"
	defaultTemperature = 0.7
	defaultTopP        = 0.9
	defaultMaxTokens   = 512
	maxTokensCeiling   = 4096
	defaultHTTPTimeout = 60 * time.Second
	maxErrorBodyBytes  = 64 << 10
)

type chatClient interface {
	CreateChatCompletion(ctx context.Context, request openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// GatewayConfig configures the OpenAI-compatible completion provider.
type GatewayConfig struct {
	APIKey       string
	BaseURL      string
	DefaultModel string
	Temperature  float64
	TopP         float64
	MaxTokens    float64
	HTTPTimeout  time.Duration
	HTTPClient   *http.Client
}

// Completion is a successful provider reply.
type Completion struct {
	Content string
	Model   string
	Retried bool
}

// Gateway calls the chat-completion provider.
type Gateway struct {
	client       chatClient
	defaultModel string
	temperature  float32
	topP         float32
	maxTokens    int
	logger       *logging.Logger
	metrics      *metrics.ChatMetrics
}

// NewGateway builds a gateway against cfg.BaseURL. Sampling parameters are
// clamped once here.
func NewGateway(cfg GatewayConfig, logger *logging.Logger, m *metrics.ChatMetrics) *Gateway {
	if logger == nil {
		logger = logging.Default()
	}
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"); base != "" {
		clientCfg.BaseURL = base
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.HTTPTimeout
		if timeout <= 0 {
			timeout = defaultHTTPTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	client := *httpClient
	base := client.Transport
	if base == nil {
		base = http.DefaultTransport
	}
	client.Transport = rawResponseTransport{base: base}
	clientCfg.HTTPClient = &client
	return newGatewayWithClient(openai.NewClientWithConfig(clientCfg), cfg, logger, m)
}

func newGatewayWithClient(client chatClient, cfg GatewayConfig, logger *logging.Logger, m *metrics.ChatMetrics) *Gateway {
	if logger == nil {
		logger = logging.Default()
	}
	defaultModel := strings.TrimSpace(cfg.DefaultModel)
	if defaultModel == "" {
		defaultModel = DefaultModel
	}
	return &Gateway{
		client:       client,
		defaultModel: NormalizeModel(defaultModel, DefaultModel),
		temperature:  float32(clampFloat(cfg.Temperature, 0, 2, defaultTemperature)),
		topP:         float32(clampFloat(cfg.TopP, 0, 1, defaultTopP)),
		maxTokens:    int(math.Round(clampFloat(cfg.MaxTokens, 1, maxTokensCeiling, defaultMaxTokens))),
		logger:       logger,
		metrics:      m,
	}
}

// DefaultModel returns the model used for empty preferences and retries.
func (g *Gateway) DefaultModel() string { return g.defaultModel }

var vendorModelPattern = regexp.MustCompile(`^([A-Za-z0-9._-]+)\s*:\s*(\S.*)$`)

// NormalizeModel turns "Vendor: model-name" into "vendor/model-name". Other
// input is returned trimmed; empty input yields def.
func NormalizeModel(model, def string) string {
	model = strings.TrimSpace(model)
	if model == "" {
		return def
	}
	if m := vendorModelPattern.FindStringSubmatch(model); m != nil {
		return strings.ToLower(m[1]) + "/" + strings.TrimSpace(m[2])
	}
	return model
}

func clampFloat(v, lo, hi, fallback float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return fallback
	}
	return math.Min(hi, math.Max(lo, v))
}

// Complete sends messages to the provider. A rejected non-default model is
// retried exactly once against the default model; every other failure is
// returned as *UpstreamServiceError.
func (g *Gateway) Complete(ctx context.Context, messages []ChatMessage, modelPreference string) (Completion, error) {
	ctx, span := gatewayTracer.Start(ctx, "companion.llm_complete")
	defer span.End()

	model := NormalizeModel(modelPreference, g.defaultModel)
	span.SetAttributes(attribute.String("wellness.llm.model", model))

	content, err := g.call(ctx, messages, model)
	if err == nil {
		return Completion{Content: content, Model: model}, nil
	}

	var upstream *UpstreamServiceError
	if errors.As(err, &upstream) && model != g.defaultModel && isModelRejection(upstream) {
		g.logger.Warn("provider rejected model, retrying with default",
			"model", model,
			"default_model", g.defaultModel,
			"status", upstream.StatusCode,
		)
		g.metrics.ObserveProviderRetry()
		span.SetAttributes(attribute.Bool("wellness.llm.retried", true))

		content, err = g.call(ctx, messages, g.defaultModel)
		if err == nil {
			return Completion{Content: content, Model: g.defaultModel, Retried: true}, nil
		}
		if errors.As(err, &upstream) {
			upstream.Retried = true
		}
	}

	span.RecordError(err)
	span.SetStatus(codes.Error, "provider call failed")
	return Completion{}, err
}

func (g *Gateway) call(ctx context.Context, messages []ChatMessage, model string) (string, error) {
	req := openai.ChatCompletionRequest{
		Model:       model,
		Messages:    toOpenAIMessages(messages),
		Temperature: g.temperature,
		TopP:        g.topP,
		MaxTokens:   g.maxTokens,
	}

	raw := &rawResponse{}
	start := time.Now()
	resp, err := g.client.CreateChatCompletion(withRawResponse(ctx, raw), req)
	elapsed := time.Since(start).Seconds()
	if err != nil {
		g.metrics.ObserveProviderAttempt(string(OutcomeFailed), elapsed)
		return "", upstreamError(err, model, raw)
	}
	g.metrics.ObserveProviderAttempt(string(OutcomeOK), elapsed)

	if len(resp.Choices) == 0 {
		return "", nil
	}
	return resp.Choices[0].Message.Content, nil
}

func toOpenAIMessages(messages []ChatMessage) []openai.ChatCompletionMessage {
	out := make([]openai.ChatCompletionMessage, 0, len(messages))
	for _, m := range messages {
		role := openai.ChatMessageRoleUser
		switch m.Role {
		case RoleSystem:
			role = openai.ChatMessageRoleSystem
		case RoleAssistant:
			role = openai.ChatMessageRoleAssistant
		}
		out = append(out, openai.ChatCompletionMessage{Role: role, Content: m.Content})
	}
	return out
}

// rawResponse holds the status and body of an error response exactly as the
// provider sent them. The client library only decodes OpenAI-shaped error
// bodies, so the retry decision reads this instead.
type rawResponse struct {
	status int
	body   string
}

type rawResponseKey struct{}

func withRawResponse(ctx context.Context, raw *rawResponse) context.Context {
	return context.WithValue(ctx, rawResponseKey{}, raw)
}

// rawResponseTransport records error responses into the rawResponse carried
// by the request context and hands the client an identical body.
type rawResponseTransport struct {
	base http.RoundTripper
}

func (t rawResponseTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	resp, err := t.base.RoundTrip(req)
	if err != nil || resp.StatusCode < http.StatusBadRequest {
		return resp, err
	}
	raw, ok := req.Context().Value(rawResponseKey{}).(*rawResponse)
	if !ok || raw == nil {
		return resp, nil
	}
	body, readErr := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
	_ = resp.Body.Close()
	resp.Body = io.NopCloser(bytes.NewReader(body))
	raw.status = resp.StatusCode
	if readErr == nil {
		raw.body = strings.TrimSpace(string(body))
	}
	return resp, nil
}

func upstreamError(err error, model string, raw *rawResponse) *UpstreamServiceError {
	out := &UpstreamServiceError{Body: err.Error(), Model: model, Err: err}
	var apiErr *openai.APIError
	var reqErr *openai.RequestError
	switch {
	case errors.As(err, &apiErr):
		body := apiErr.Message
		if apiErr.Type != "" {
			body += " (type: " + apiErr.Type + ")"
		}
		if apiErr.Code != nil {
			body += fmt.Sprintf(" (code: %v)", apiErr.Code)
		}
		out.StatusCode, out.Body = apiErr.HTTPStatusCode, body
	case errors.As(err, &reqErr):
		out.StatusCode, out.Body = reqErr.HTTPStatusCode, ""
		if reqErr.Err != nil {
			out.Body = reqErr.Err.Error()
		}
	}
	if raw != nil && raw.status != 0 {
		out.StatusCode = raw.status
		if raw.body != "" {
			out.Body = raw.body
		}
	}
	return out
}

var modelRejectionPattern = regexp.MustCompile(`(?i)(model\b.*\b(not found|does not exist|not exist|invalid|unknown|not a valid|no endpoints|unsupported|not supported|not available)|(invalid|unknown|unsupported|not a valid) model|model_not_found)`)

func isModelRejection(err *UpstreamServiceError) bool {
	if err.StatusCode != http.StatusBadRequest && err.StatusCode != http.StatusNotFound {
		return false
	}
	return modelRejectionPattern.MatchString(err.Body)
}
