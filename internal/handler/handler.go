// Package handler exposes the single dispatch entry point: load settings
// once, resolve the API key, and route each prompt to the configured
// backend, returning either the model's text or a prefixed error string.
package handler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/efebarandurmaz/multillm/internal/config"
	"github.com/efebarandurmaz/multillm/internal/llm"
	"github.com/efebarandurmaz/multillm/internal/llmutil"
	"github.com/efebarandurmaz/multillm/internal/observability"
)

// Handler routes prompts to the backend named by the loaded configuration.
// It holds only immutable state and is safe for concurrent use.
type Handler struct {
	cfg     config.Config
	apiKey  string
	factory *llm.ProviderFactory
	metrics *observability.LLMMetrics
	logger  *slog.Logger

	loggerFor func(*config.Config) *slog.Logger
}

// Option configures a Handler.
type Option func(*Handler)

// WithLogger sets the logger used for warnings and per-call records.
func WithLogger(l *slog.Logger) Option {
	return func(h *Handler) {
		if l != nil {
			h.logger = l
		}
	}
}

// WithLoggerFor builds the logger from the loaded configuration, so the
// settings file can pick the level and format. It wins over WithLogger.
func WithLoggerFor(fn func(*config.Config) *slog.Logger) Option {
	return func(h *Handler) { h.loggerFor = fn }
}

// WithFactory replaces the compiled-in backend set.
func WithFactory(f *llm.ProviderFactory) Option {
	return func(h *Handler) {
		if f != nil {
			h.factory = f
		}
	}
}

// WithMetrics records every call into m.
func WithMetrics(m *observability.LLMMetrics) Option {
	return func(h *Handler) { h.metrics = m }
}

// New loads the settings file at configPath and builds a Handler. A missing
// or malformed file is logged as a warning and the defaults are used, so New
// never fails.
func New(configPath string, opts ...Option) *Handler {
	h := newHandler(opts)
	cfg, err := config.LoadOrDefault(configPath)
	h.init(cfg)
	if err != nil {
		if config.IsNotFound(err) {
			h.logger.Warn("config file not found, using defaults", "path", configPath)
		} else {
			h.logger.Warn("config file unreadable, using defaults", "path", configPath, "error", err)
		}
	}
	h.validate()
	return h
}

// NewFromConfig builds a Handler from an already loaded configuration.
func NewFromConfig(cfg *config.Config, opts ...Option) *Handler {
	h := newHandler(opts)
	if cfg == nil {
		cfg = config.Default()
	}
	h.init(cfg)
	h.validate()
	return h
}

func newHandler(opts []Option) *Handler {
	h := &Handler{
		factory: llmutil.NewDefaultFactory(),
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *Handler) init(cfg *config.Config) {
	h.cfg = *cfg
	h.apiKey = cfg.ResolvedAPIKey()
	if h.loggerFor != nil {
		if l := h.loggerFor(cfg); l != nil {
			h.logger = l
		}
	}
}

func (h *Handler) validate() {
	for _, w := range h.cfg.Validate() {
		h.logger.Warn("config", "warning", w)
	}
}

// Config returns a copy of the configuration the Handler was built with.
func (h *Handler) Config() config.Config { return h.cfg }

// Logger returns the logger the Handler writes to.
func (h *Handler) Logger() *slog.Logger { return h.logger }

func (h *Handler) ActiveModel() string { return h.cfg.ActiveModel }

// APIKey is the resolved key: LLM_API_KEY at construction time if set,
// else the file value.
func (h *Handler) APIKey() string { return h.apiKey }

func (h *Handler) ModelName() string { return h.cfg.ModelName }

func (h *Handler) BaseURL() string { return h.cfg.BaseURL }

// SendMessage sends prompt to the active backend and returns the reply text.
// Every failure is returned as text starting with "Error:" or
// "<Backend> ... Error:"; it never panics.
func (h *Handler) SendMessage(ctx context.Context, agentName, prompt string) string {
	text, err := h.Send(ctx, agentName, prompt)
	if err != nil {
		return llm.Describe(err)
	}
	return text
}

// Send is SendMessage with the failure kept as an error. The error's text
// is exactly what SendMessage would return.
func (h *Handler) Send(ctx context.Context, agentName, prompt string) (text string, err error) {
	backend := h.cfg.Backend()
	requestID := uuid.NewString()
	log := h.logger.With("agent", agentName, "backend", string(backend), "model", h.cfg.ModelName, "request_id", requestID)

	ctx, span := observability.StartLLMSpan(ctx, backend, h.cfg.ModelName, agentName, requestID)
	defer span.End()

	start := time.Now()
	var resp *llm.Response
	defer func() {
		if r := recover(); r != nil {
			text, err = "", fmt.Errorf("%v", r)
		}
		elapsed := time.Since(start)
		observability.RecordLLMUsage(span, resp, elapsed)
		observability.RecordError(span, err)
		h.metrics.RecordLLMRequest(backend, elapsed, resp, err)
		if err != nil {
			log.Warn("llm call failed", "outcome", observability.Outcome(err), "error", llm.Describe(err), "duration", elapsed)
			return
		}
		log.Debug("llm call", "duration", elapsed, "input_tokens", resp.InputTokens, "output_tokens", resp.OutputTokens)
	}()

	if !config.KeyConfigured(h.apiKey) {
		return "", &llm.Error{Backend: backend, Kind: llm.KindNotConfigured}
	}
	if !backend.Valid() {
		return "", &llm.Error{Backend: backend, Kind: llm.KindUnsupported}
	}

	provider, err := h.factory.Create(llm.ProviderConfig{
		Backend: backend,
		APIKey:  h.apiKey,
		Model:   h.cfg.ModelName,
		BaseURL: h.cfg.BaseURL,
	})
	if err != nil {
		return "", err
	}

	resp, err = provider.Complete(ctx, llm.UserPrompt(prompt))
	if err != nil {
		return "", err
	}
	if resp == nil {
		return "", fmt.Errorf("%s returned no response", backend)
	}
	return resp.Content, nil
}
