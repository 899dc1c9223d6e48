package ai

// Function identifies a feature with its own provider settings
type Function string

const (
	FunctionSummary      Function = "summary"
	FunctionTags         Function = "tags"
	FunctionConversation Function = "conversation"
	FunctionPolish       Function = "polish"
	FunctionGenerate     Function = "generate"
	FunctionTitle        Function = "title"
)

// ResolvedConfig is the effective provider selection for one function
type ResolvedConfig struct {
	AIType       string
	SystemPrompt string
	Provider     ProviderConfig
}
