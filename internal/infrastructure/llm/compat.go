package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/halo-extras/backend/internal/domain/ai"
)

// Default endpoints of the OpenAI wire-compatible vendors
const (
	OpenAIBaseURL      = "https://api.openai.com"
	CodesphereBaseURL  = "https://api.master-jsx.top"
	SiliconFlowBaseURL = "https://api.siliconflow.cn"
	ZhipuBaseURL       = "https://open.bigmodel.cn"

	openAIChatPath = "/v1/chat/completions"
	zhipuChatPath  = "/api/paas/v4/chat/completions"
)

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
	Stream   bool          `json:"stream,omitempty"`
}

type apiError struct {
	Message string `json:"message"`
	Type    string `json:"type,omitempty"`
	Code    any    `json:"code,omitempty"`
}

type chatChoice struct {
	Message *chatMessage `json:"message,omitempty"`
	Delta   *chatMessage `json:"delta,omitempty"`
}

type chatResponse struct {
	Choices []chatChoice `json:"choices"`
	Error   *apiError    `json:"error,omitempty"`
}

// CompatProvider speaks the OpenAI chat/completions wire format. It serves
// openAi, codesphere, siliconFlow and zhipuAi, which differ only in endpoint.
type CompatProvider struct {
	aiType         string
	defaultBaseURL string
	path           string
	acceptJSON     bool
	transport      transport
}

// NewOpenAIProvider returns the openAi provider
func NewOpenAIProvider(httpClient *http.Client) *CompatProvider {
	return newCompatProvider(ai.TypeOpenAI, OpenAIBaseURL, openAIChatPath, false, httpClient)
}

// NewCodesphereProvider returns the codesphere provider
func NewCodesphereProvider(httpClient *http.Client) *CompatProvider {
	return newCompatProvider(ai.TypeCodesphere, CodesphereBaseURL, openAIChatPath, true, httpClient)
}

// NewSiliconFlowProvider returns the siliconFlow provider
func NewSiliconFlowProvider(httpClient *http.Client) *CompatProvider {
	return newCompatProvider(ai.TypeSiliconFlow, SiliconFlowBaseURL, openAIChatPath, true, httpClient)
}

// NewZhipuProvider returns the zhipuAi provider
func NewZhipuProvider(httpClient *http.Client) *CompatProvider {
	return newCompatProvider(ai.TypeZhipuAI, ZhipuBaseURL, zhipuChatPath, false, httpClient)
}

func newCompatProvider(aiType, baseURL, path string, acceptJSON bool, httpClient *http.Client) *CompatProvider {
	return &CompatProvider{
		aiType:         aiType,
		defaultBaseURL: baseURL,
		path:           path,
		acceptJSON:     acceptJSON,
		transport:      newTransport(aiType, httpClient),
	}
}

// Type implements ai.Provider
func (p *CompatProvider) Type() string {
	return p.aiType
}

// Endpoint returns the chat URL for a configured base URL. Trailing slashes
// are stripped and the chat path is appended unless already present.
func (p *CompatProvider) Endpoint(baseURL string) string {
	base := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if base == "" {
		base = p.defaultBaseURL
	}
	if strings.HasSuffix(base, p.path) {
		return base
	}
	return base + p.path
}

func (p *CompatProvider) headers(stream bool) map[string]string {
	h := map[string]string{}
	if p.acceptJSON {
		h["Accept"] = "application/json"
	}
	if stream {
		h["Accept"] = "text/event-stream"
	}
	return h
}

// Chat implements ai.Provider
func (p *CompatProvider) Chat(ctx context.Context, prompt string, cfg ai.ProviderConfig) (string, error) {
	const op = "chat"
	if err := requireConfig(p.aiType, op, cfg); err != nil {
		return "", err
	}
	req := chatRequest{
		Model:    cfg.ModelName,
		Messages: []chatMessage{{Role: ai.RoleUser, Content: prompt}},
	}
	return p.transport.postJSON(ctx, op, p.Endpoint(cfg.BaseURL), cfg.APIKey, req, p.headers(false))
}

// MultiTurnChat implements ai.Provider
func (p *CompatProvider) MultiTurnChat(ctx context.Context, history []ai.Message, systemPrompt string, cfg ai.ProviderConfig) (string, error) {
	const op = "multi_turn_chat"
	if err := requireConfig(p.aiType, op, cfg); err != nil {
		return "", err
	}
	req := chatRequest{
		Model:    cfg.ModelName,
		Messages: toChatMessages(ai.WithSystemPrompt(history, systemPrompt)),
	}
	raw, err := p.transport.postJSON(ctx, op, p.Endpoint(cfg.BaseURL), cfg.APIKey, req, p.headers(false))
	if err != nil {
		return "", err
	}

	var parsed chatResponse
	if json.Unmarshal([]byte(raw), &parsed) == nil && parsed.Error != nil && len(parsed.Choices) == 0 {
		return "", upstreamError(p.aiType, op, parsed.Error.Message)
	}
	return ai.ExtractContent(raw), nil
}

// StreamChat implements ai.Provider
func (p *CompatProvider) StreamChat(ctx context.Context, history []ai.Message, systemPrompt string, cfg ai.ProviderConfig, onChunk ai.ChunkHandler) error {
	const op = "stream_chat"
	if err := requireConfig(p.aiType, op, cfg); err != nil {
		return err
	}
	req := chatRequest{
		Model:    cfg.ModelName,
		Messages: toChatMessages(ai.WithSystemPrompt(history, systemPrompt)),
		Stream:   true,
	}
	resp, err := p.transport.send(ctx, op, p.Endpoint(cfg.BaseURL), cfg.APIKey, req, p.headers(true))
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	return p.transport.readEvents(ctx, op, resp.Body, func(data string) (bool, error) {
		var chunk chatResponse
		if err := json.Unmarshal([]byte(data), &chunk); err != nil {
			// partial or keep-alive payloads are skipped
			return false, nil
		}
		if chunk.Error != nil {
			return true, upstreamError(p.aiType, op, chunk.Error.Message)
		}
		if len(chunk.Choices) == 0 || chunk.Choices[0].Delta == nil {
			return false, nil
		}
		if text := chunk.Choices[0].Delta.Content; text != "" {
			return false, onChunk(text)
		}
		return false, nil
	})
}

func toChatMessages(history []ai.Message) []chatMessage {
	out := make([]chatMessage, 0, len(history))
	for _, m := range history {
		out = append(out, chatMessage{Role: m.Role, Content: m.Content})
	}
	return out
}

var _ ai.Provider = (*CompatProvider)(nil)
