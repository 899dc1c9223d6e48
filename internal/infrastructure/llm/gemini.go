package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"sync"

	"google.golang.org/genai"

	"github.com/halo-extras/backend/internal/domain/ai"
)

// GeminiProvider calls Google Gemini through the genai SDK. Clients are
// created lazily and reused per API key and base URL.
type GeminiProvider struct {
	httpClient *http.Client

	mu      sync.Mutex
	clients map[string]*genai.Client
}

// NewGeminiProvider returns the gemini provider
func NewGeminiProvider(httpClient *http.Client) *GeminiProvider {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: DefaultTimeout}
	}
	return &GeminiProvider{
		httpClient: httpClient,
		clients:    make(map[string]*genai.Client),
	}
}

// Type implements ai.Provider
func (p *GeminiProvider) Type() string {
	return ai.TypeGemini
}

func (p *GeminiProvider) client(ctx context.Context, op string, cfg ai.ProviderConfig) (*genai.Client, error) {
	key := cfg.APIKey + "|" + cfg.BaseURL

	p.mu.Lock()
	defer p.mu.Unlock()
	if c, ok := p.clients[key]; ok {
		return c, nil
	}

	cc := &genai.ClientConfig{
		APIKey:     cfg.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: p.httpClient,
	}
	if base := strings.TrimSpace(cfg.BaseURL); base != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: base}
	}
	c, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, ai.NewConfigError(ai.TypeGemini, op, "failed to create GenAI client: "+err.Error())
	}
	p.clients[key] = c
	return c, nil
}

// Chat implements ai.Provider. The reply is wrapped in a {"content": ...}
// document so callers can treat it like the other raw bodies.
func (p *GeminiProvider) Chat(ctx context.Context, prompt string, cfg ai.ProviderConfig) (string, error) {
	const op = "chat"
	if err := requireConfig(ai.TypeGemini, op, cfg); err != nil {
		return "", err
	}
	c, err := p.client(ctx, op, cfg)
	if err != nil {
		return "", err
	}

	contents := []*genai.Content{genai.NewContentFromText(prompt, genai.RoleUser)}
	resp, err := c.Models.GenerateContent(ctx, cfg.ModelName, contents, nil)
	if err != nil {
		return "", geminiError(op, err)
	}
	raw, err := json.Marshal(map[string]string{"content": resp.Text()})
	if err != nil {
		return "", ai.NewDecodeError(ai.TypeGemini, op, err)
	}
	return string(raw), nil
}

// MultiTurnChat implements ai.Provider
func (p *GeminiProvider) MultiTurnChat(ctx context.Context, history []ai.Message, systemPrompt string, cfg ai.ProviderConfig) (string, error) {
	const op = "multi_turn_chat"
	if err := requireConfig(ai.TypeGemini, op, cfg); err != nil {
		return "", err
	}
	c, err := p.client(ctx, op, cfg)
	if err != nil {
		return "", err
	}

	contents, genCfg := toGeminiContents(history, systemPrompt)
	resp, err := c.Models.GenerateContent(ctx, cfg.ModelName, contents, genCfg)
	if err != nil {
		return "", geminiError(op, err)
	}
	return resp.Text(), nil
}

// StreamChat implements ai.Provider
func (p *GeminiProvider) StreamChat(ctx context.Context, history []ai.Message, systemPrompt string, cfg ai.ProviderConfig, onChunk ai.ChunkHandler) error {
	const op = "stream_chat"
	if err := requireConfig(ai.TypeGemini, op, cfg); err != nil {
		return err
	}
	c, err := p.client(ctx, op, cfg)
	if err != nil {
		return err
	}

	contents, genCfg := toGeminiContents(history, systemPrompt)
	for resp, err := range c.Models.GenerateContentStream(ctx, cfg.ModelName, contents, genCfg) {
		if err != nil {
			return geminiError(op, err)
		}
		if text := resp.Text(); text != "" {
			if err := onChunk(text); err != nil {
				return err
			}
		}
	}
	return nil
}

// toGeminiContents maps the conversation onto Gemini roles. System turns in
// the history are folded into the system instruction.
func toGeminiContents(history []ai.Message, systemPrompt string) ([]*genai.Content, *genai.GenerateContentConfig) {
	system := []string{}
	if s := strings.TrimSpace(systemPrompt); s != "" {
		system = append(system, s)
	}

	contents := make([]*genai.Content, 0, len(history))
	for _, m := range history {
		switch m.Role {
		case ai.RoleSystem:
			system = append(system, m.Content)
		case ai.RoleAssistant:
			contents = append(contents, genai.NewContentFromText(m.Content, genai.RoleModel))
		default:
			contents = append(contents, genai.NewContentFromText(m.Content, genai.RoleUser))
		}
	}

	var genCfg *genai.GenerateContentConfig
	if len(system) > 0 {
		genCfg = &genai.GenerateContentConfig{
			SystemInstruction: genai.NewContentFromText(strings.Join(system, "\n"), genai.RoleUser),
		}
	}
	return contents, genCfg
}

func geminiError(op string, err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return ai.NewStatusError(ai.TypeGemini, op, apiErr.Code, apiErr.Message)
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) && apiErrPtr != nil {
		return ai.NewStatusError(ai.TypeGemini, op, apiErrPtr.Code, apiErrPtr.Message)
	}
	return ai.NewTransportError(ai.TypeGemini, op, err)
}

var _ ai.Provider = (*GeminiProvider)(nil)
