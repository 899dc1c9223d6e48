package ai

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/halo-extras/backend/internal/domain/ai"
)

func TestParseHistory(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want []ai.Message
	}{
		{
			name: "keeps user and assistant turns",
			raw:  `[{"role":"system","content":"ignored"},{"role":"user","content":" hi "},{"role":"assistant","content":"hello"},{"role":"tool","content":"x"}]`,
			want: []ai.Message{{Role: ai.RoleUser, Content: "hi"}, {Role: ai.RoleAssistant, Content: "hello"}},
		},
		{
			name: "skips empty content",
			raw:  `[{"role":"user","content":"  "},{"role":"user","content":"q"}]`,
			want: []ai.Message{{Role: ai.RoleUser, Content: "q"}},
		},
		{
			name: "plain text becomes a user message",
			raw:  "你好",
			want: []ai.Message{{Role: ai.RoleUser, Content: "你好"}},
		},
		{
			name: "object instead of array",
			raw:  `{"role":"user","content":"q"}`,
			want: []ai.Message{{Role: ai.RoleUser, Content: `{"role":"user","content":"q"}`}},
		},
		{
			name: "wrong field types",
			raw:  `[{"role":1,"content":"q"}]`,
			want: []ai.Message{{Role: ai.RoleUser, Content: `[{"role":1,"content":"q"}]`}},
		},
		{
			name: "blank",
			raw:  "   ",
			want: nil,
		},
		{
			name: "only system turns",
			raw:  `[{"role":"system","content":"s"}]`,
			want: []ai.Message{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseHistory(tt.raw))
		})
	}
}
