package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/halo-extras/backend/internal/domain/ai"
)

// DashScopeURL is the text-generation endpoint of Alibaba DashScope
const DashScopeURL = "https://dashscope.aliyuncs.com/api/v1/services/aigc/text-generation/generation"

type dashScopeInput struct {
	Prompt   string        `json:"prompt,omitempty"`
	Messages []chatMessage `json:"messages,omitempty"`
}

type dashScopeParameters struct {
	IncrementalOutput bool `json:"incremental_output"`
}

type dashScopeRequest struct {
	Model      string               `json:"model"`
	Input      dashScopeInput       `json:"input"`
	Parameters *dashScopeParameters `json:"parameters,omitempty"`
}

type dashScopeResponse struct {
	Output *struct {
		Text         string `json:"text"`
		FinishReason string `json:"finish_reason"`
	} `json:"output"`
	Code    string `json:"code,omitempty"`
	Message string `json:"message,omitempty"`
}

// DashScopeProvider talks to the DashScope generation API, whose request
// wraps the conversation in an input object and streams output.text.
type DashScopeProvider struct {
	transport transport
}

// NewDashScopeProvider returns the dashScope provider
func NewDashScopeProvider(httpClient *http.Client) *DashScopeProvider {
	return &DashScopeProvider{transport: newTransport(ai.TypeDashScope, httpClient)}
}

// Type implements ai.Provider
func (p *DashScopeProvider) Type() string {
	return ai.TypeDashScope
}

// Endpoint returns the configured URL or the public DashScope endpoint
func (p *DashScopeProvider) Endpoint(baseURL string) string {
	if u := strings.TrimSpace(baseURL); u != "" {
		return u
	}
	return DashScopeURL
}

// Chat implements ai.Provider
func (p *DashScopeProvider) Chat(ctx context.Context, prompt string, cfg ai.ProviderConfig) (string, error) {
	const op = "chat"
	if err := requireConfig(ai.TypeDashScope, op, cfg); err != nil {
		return "", err
	}
	req := dashScopeRequest{Model: cfg.ModelName, Input: dashScopeInput{Prompt: prompt}}
	return p.transport.postJSON(ctx, op, p.Endpoint(cfg.BaseURL), cfg.APIKey, req, nil)
}

// MultiTurnChat implements ai.Provider
func (p *DashScopeProvider) MultiTurnChat(ctx context.Context, history []ai.Message, systemPrompt string, cfg ai.ProviderConfig) (string, error) {
	const op = "multi_turn_chat"
	if err := requireConfig(ai.TypeDashScope, op, cfg); err != nil {
		return "", err
	}
	req := dashScopeRequest{
		Model: cfg.ModelName,
		Input: dashScopeInput{Messages: toChatMessages(ai.WithSystemPrompt(history, systemPrompt))},
	}
	raw, err := p.transport.postJSON(ctx, op, p.Endpoint(cfg.BaseURL), cfg.APIKey, req, nil)
	if err != nil {
		return "", err
	}

	var parsed dashScopeResponse
	if json.Unmarshal([]byte(raw), &parsed) == nil && parsed.Output == nil && parsed.Code != "" {
		return "", upstreamError(ai.TypeDashScope, op, parsed.Code+": "+parsed.Message)
	}
	return ai.ExtractContent(raw), nil
}

// StreamChat implements ai.Provider. The stream ends on [DONE] or on the
// first chunk whose finish_reason is set to something other than "null".
func (p *DashScopeProvider) StreamChat(ctx context.Context, history []ai.Message, systemPrompt string, cfg ai.ProviderConfig, onChunk ai.ChunkHandler) error {
	const op = "stream_chat"
	if err := requireConfig(ai.TypeDashScope, op, cfg); err != nil {
		return err
	}
	req := dashScopeRequest{
		Model:      cfg.ModelName,
		Input:      dashScopeInput{Messages: toChatMessages(ai.WithSystemPrompt(history, systemPrompt))},
		Parameters: &dashScopeParameters{IncrementalOutput: true},
	}
	headers := map[string]string{
		"Accept":          "text/event-stream",
		"X-DashScope-SSE": "enable",
	}
	resp, err := p.transport.send(ctx, op, p.Endpoint(cfg.BaseURL), cfg.APIKey, req, headers)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	return p.transport.readEvents(ctx, op, resp.Body, func(data string) (bool, error) {
		var chunk dashScopeResponse
		if err := json.Unmarshal([]byte(data), &chunk); err != nil {
			return true, ai.NewDecodeError(ai.TypeDashScope, op, err)
		}
		if chunk.Output == nil {
			if chunk.Code != "" {
				return true, upstreamError(ai.TypeDashScope, op, chunk.Code+": "+chunk.Message)
			}
			return false, nil
		}
		if chunk.Output.Text != "" {
			if err := onChunk(chunk.Output.Text); err != nil {
				return true, err
			}
		}
		reason := chunk.Output.FinishReason
		return reason != "" && reason != "null", nil
	})
}

var _ ai.Provider = (*DashScopeProvider)(nil)
