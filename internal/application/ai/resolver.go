// Package ai implements the AI writing suite: article and title generation,
// polishing, post summaries, tag suggestions and the assistant conversation.
package ai

import (
	"context"
	"strings"

	"github.com/halo-extras/backend/internal/domain/ai"
	"github.com/halo-extras/backend/internal/infrastructure/config"
)

// Default system prompts used when a function has none configured
const (
	DefaultSummaryPrompt = "你是专业摘要助手，请为以下文章生成简明摘要："
	DefaultTagPrompt     = "你是一个专业的标签生成助手，请根据文章内容生成相关的中文标签。标签应准确反映主题，适合SEO，建议2-4字。"
	DefaultPolishPrompt  = "你是一个专业的文章润色助手，请改善以下文章的语言表达和流畅性，保持原意不变。"
)

// ConfigResolver picks the provider settings of each AI function.
// A function's own ai_type wins over the global one, which defaults to openAi.
type ConfigResolver struct {
	cfg config.AIConfig
}

// NewConfigResolver creates a resolver over the AI configuration
func NewConfigResolver(cfg config.AIConfig) *ConfigResolver {
	return &ConfigResolver{cfg: cfg}
}

// Resolve returns the effective configuration of fn
func (r *ConfigResolver) Resolve(fn ai.Function) ai.ResolvedConfig {
	fc := r.cfg.Functions[string(fn)]

	aiType := strings.TrimSpace(fc.AIType)
	if aiType == "" {
		aiType = strings.TrimSpace(r.cfg.AIType)
	}
	if aiType == "" {
		aiType = ai.TypeOpenAI
	}

	p := r.cfg.Providers[aiType]
	return ai.ResolvedConfig{
		AIType:       aiType,
		SystemPrompt: fc.SystemPrompt,
		Provider: ai.ProviderConfig{
			APIKey:    p.APIKey,
			ModelName: p.ModelName,
			BaseURL:   p.BaseURL,
		},
	}
}

// engine couples the provider factory with the resolver
type engine struct {
	factory  ai.ProviderFactory
	resolver *ConfigResolver
}

// provider returns the provider and settings for fn
func (e engine) provider(fn ai.Function) (ai.Provider, ai.ResolvedConfig, error) {
	rc := e.resolver.Resolve(fn)
	p, err := e.factory.Provider(rc.AIType)
	if err != nil {
		return nil, rc, err
	}
	return p, rc, nil
}

// chat resolves fn and sends a single prompt, returning the extracted text
func (e engine) chat(ctx context.Context, fn ai.Function, prompt string) (string, ai.ResolvedConfig, error) {
	p, rc, err := e.provider(fn)
	if err != nil {
		return "", rc, err
	}
	raw, err := p.Chat(ctx, prompt, rc.Provider)
	if err != nil {
		return "", rc, err
	}
	return ai.ExtractContent(raw), rc, nil
}
