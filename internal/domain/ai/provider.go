// Package ai defines the vendor-neutral language model contract used by the
// writing, summary, tag and conversation features.
package ai

import "context"

// Provider type keys
const (
	TypeOpenAI      = "openAi"
	TypeZhipuAI     = "zhipuAi"
	TypeDashScope   = "dashScope"
	TypeCodesphere  = "codesphere"
	TypeSiliconFlow = "siliconFlow"
	TypeGemini      = "gemini"
)

// Message roles
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one turn of a conversation
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ProviderConfig holds the credentials and model of one vendor
type ProviderConfig struct {
	APIKey    string
	ModelName string
	BaseURL   string
}

// ChunkHandler receives streamed text as it arrives. Returning an error stops the stream.
type ChunkHandler func(chunk string) error

// Provider is a chat-completion backend
type Provider interface {
	// Type returns the provider key, e.g. "openAi"
	Type() string

	// Chat sends a single user prompt and returns the raw response body
	Chat(ctx context.Context, prompt string, cfg ProviderConfig) (string, error)

	// MultiTurnChat sends a conversation and returns the assistant reply text
	MultiTurnChat(ctx context.Context, history []Message, systemPrompt string, cfg ProviderConfig) (string, error)

	// StreamChat sends a conversation and relays reply chunks to onChunk until done
	StreamChat(ctx context.Context, history []Message, systemPrompt string, cfg ProviderConfig, onChunk ChunkHandler) error
}

// ProviderFactory resolves a provider by type key
type ProviderFactory interface {
	// Provider returns the provider for aiType, falling back to the first
	// registered provider when the key is unknown
	Provider(aiType string) (Provider, error)
}

// WithSystemPrompt prepends the system prompt to history when it is not blank
func WithSystemPrompt(history []Message, systemPrompt string) []Message {
	out := make([]Message, 0, len(history)+1)
	if systemPrompt != "" {
		out = append(out, Message{Role: RoleSystem, Content: systemPrompt})
	}
	return append(out, history...)
}
