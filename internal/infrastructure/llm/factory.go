package llm

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/halo-extras/backend/internal/domain/ai"
	"github.com/halo-extras/backend/internal/infrastructure/metrics"
)

// ErrNoProviders is returned when the factory has nothing registered
var ErrNoProviders = errors.New("llm: no providers registered")

// Factory resolves providers by type key in registration order
type Factory struct {
	mu        sync.RWMutex
	providers map[string]ai.Provider
	order     []string
	logger    *zap.Logger
}

// FactoryOption configures a Factory
type FactoryOption func(*Factory)

// WithFactoryLogger sets the logger used for fallback warnings
func WithFactoryLogger(logger *zap.Logger) FactoryOption {
	return func(f *Factory) {
		if logger != nil {
			f.logger = logger
		}
	}
}

// NewFactory creates an empty factory
func NewFactory(opts ...FactoryOption) *Factory {
	f := &Factory{
		providers: make(map[string]ai.Provider),
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// NewDefaultFactory registers every built-in provider sharing one HTTP
// client. openAi is registered first and is therefore the fallback.
func NewDefaultFactory(timeout time.Duration, opts ...FactoryOption) *Factory {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	httpClient := &http.Client{Timeout: timeout}

	f := NewFactory(opts...)
	f.Register(Instrument(NewOpenAIProvider(httpClient)))
	f.Register(Instrument(NewZhipuProvider(httpClient)))
	f.Register(Instrument(NewDashScopeProvider(httpClient)))
	f.Register(Instrument(NewCodesphereProvider(httpClient)))
	f.Register(Instrument(NewSiliconFlowProvider(httpClient)))
	f.Register(Instrument(NewGeminiProvider(httpClient)))
	return f
}

// Register adds or replaces a provider under its type key
func (f *Factory) Register(p ai.Provider) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, exists := f.providers[p.Type()]; !exists {
		f.order = append(f.order, p.Type())
	}
	f.providers[p.Type()] = p
}

// Provider implements ai.ProviderFactory
func (f *Factory) Provider(aiType string) (ai.Provider, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	if p, ok := f.providers[aiType]; ok {
		return p, nil
	}
	if len(f.order) == 0 {
		return nil, ErrNoProviders
	}
	fallback := f.providers[f.order[0]]
	f.logger.Warn("Unknown AI type, falling back to default provider",
		zap.String("ai_type", aiType),
		zap.String("fallback", fallback.Type()))
	return fallback, nil
}

// Types lists registered keys in registration order
func (f *Factory) Types() []string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	out := make([]string, len(f.order))
	copy(out, f.order)
	return out
}

var _ ai.ProviderFactory = (*Factory)(nil)

// instrumented records call counts and latency for a provider
type instrumented struct {
	next ai.Provider
}

// Instrument wraps p with Prometheus call metrics
func Instrument(p ai.Provider) ai.Provider {
	return &instrumented{next: p}
}

func (i *instrumented) Type() string {
	return i.next.Type()
}

func (i *instrumented) Chat(ctx context.Context, prompt string, cfg ai.ProviderConfig) (string, error) {
	start := time.Now()
	out, err := i.next.Chat(ctx, prompt, cfg)
	metrics.ObserveAI(i.next.Type(), "chat", start, err)
	return out, err
}

func (i *instrumented) MultiTurnChat(ctx context.Context, history []ai.Message, systemPrompt string, cfg ai.ProviderConfig) (string, error) {
	start := time.Now()
	out, err := i.next.MultiTurnChat(ctx, history, systemPrompt, cfg)
	metrics.ObserveAI(i.next.Type(), "multi_turn_chat", start, err)
	return out, err
}

func (i *instrumented) StreamChat(ctx context.Context, history []ai.Message, systemPrompt string, cfg ai.ProviderConfig, onChunk ai.ChunkHandler) error {
	start := time.Now()
	err := i.next.StreamChat(ctx, history, systemPrompt, cfg, onChunk)
	metrics.ObserveAI(i.next.Type(), "stream_chat", start, err)
	return err
}
