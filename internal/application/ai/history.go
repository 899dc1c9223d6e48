package ai

import (
	"encoding/json"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"github.com/halo-extras/backend/internal/domain/ai"
)

const historySchema = `{
	"type": "array",
	"items": {
		"type": "object",
		"properties": {
			"role": {"type": "string"},
			"content": {"type": "string"}
		}
	}
}`

var historySchemaLoader = gojsonschema.NewStringLoader(historySchema)

// ParseHistory turns a raw conversation history into chat messages.
//
// A JSON array of {role, content} objects keeps its user and assistant turns
// with trimmed, non-empty content; system turns are dropped because the
// configured system prompt is sent instead. Anything else is treated as a
// single user message.
func ParseHistory(raw string) []ai.Message {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}

	result, err := gojsonschema.Validate(historySchemaLoader, gojsonschema.NewStringLoader(raw))
	if err != nil || !result.Valid() {
		return []ai.Message{{Role: ai.RoleUser, Content: raw}}
	}

	var entries []ai.Message
	if err := json.Unmarshal([]byte(raw), &entries); err != nil {
		return []ai.Message{{Role: ai.RoleUser, Content: raw}}
	}

	messages := make([]ai.Message, 0, len(entries))
	for _, e := range entries {
		if e.Role != ai.RoleUser && e.Role != ai.RoleAssistant {
			continue
		}
		content := strings.TrimSpace(e.Content)
		if content == "" {
			continue
		}
		messages = append(messages, ai.Message{Role: e.Role, Content: content})
	}
	return messages
}
