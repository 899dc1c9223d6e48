package ai

// GenerateArticleRequest represents a request to write an article
type GenerateArticleRequest struct {
	Topic     string `json:"topic"`
	Format    string `json:"format"`
	Style     string `json:"style"`
	Type      string `json:"type"`
	MaxLength int    `json:"maxLength"`
}

// GenerateArticleResponse is the flat article generation result
type GenerateArticleResponse struct {
	Success bool   `json:"success"`
	Content string `json:"content"`
	Message string `json:"message"`
}

// GenerateTitleRequest represents a request to suggest titles
type GenerateTitleRequest struct {
	Content string `json:"content"`
	Style   string `json:"style"`
	Count   int    `json:"count"`
}

// GenerateTitleResponse is the flat title generation result
type GenerateTitleResponse struct {
	Success bool     `json:"success"`
	Titles  []string `json:"titles"`
	Content string   `json:"content"`
	Message string   `json:"message"`
}

// PolishRequest represents a request to polish a text fragment
type PolishRequest struct {
	Content string `json:"content"`
}

// PolishResponse is the flat polishing result
type PolishResponse struct {
	Success         bool   `json:"success"`
	OriginalContent string `json:"originalContent"`
	PolishedContent string `json:"polishedContent"`
	Message         string `json:"message"`
	OriginalLength  int    `json:"originalLength"`
	PolishedLength  int    `json:"polishedLength"`
}

// SummaryRequest names the post to summarize
type SummaryRequest struct {
	PostName string `json:"postName"`
}

// SummaryResponse is a stored post summary
type SummaryResponse struct {
	PostName    string `json:"postName"`
	PostURL     string `json:"postUrl"`
	PostSummary string `json:"postSummary"`
}

// GenerateSummaryResponse is the result of a summary generation
type GenerateSummaryResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Summary string `json:"summary"`
}

// UpdateContentResponse is the result of copying a summary into the excerpt
type UpdateContentResponse struct {
	Success        bool   `json:"success"`
	Message        string `json:"message"`
	SummaryContent string `json:"summaryContent"`
	BlackList      bool   `json:"blackList"`
}

// SyncProgress reports a bulk summary sync
type SyncProgress struct {
	Total    int64 `json:"total"`
	Finished int64 `json:"finished"`
}

// ConversationRequest carries the raw conversation history
type ConversationRequest struct {
	ConversationHistory string `json:"conversationHistory"`
}

// ConversationResponse is the flat conversation result
type ConversationResponse struct {
	Success   bool   `json:"success"`
	Message   string `json:"message"`
	Response  string `json:"response"`
	AIType    string `json:"aiType"`
	Timestamp int64  `json:"timestamp"`
}

// DialogConfig is the assistant widget configuration
type DialogConfig struct {
	AssistantIcon    string   `json:"assistantIcon"`
	ConversationIcon string   `json:"conversationIcon"`
	AssistantName    string   `json:"assistantName"`
	InputPlaceholder string   `json:"inputPlaceholder"`
	DialogType       string   `json:"dialogType"`
	ButtonPosition   string   `json:"buttonPosition"`
	Suggestions      []string `json:"suggestions"`
}

// SummaryConfig is the summary box configuration
type SummaryConfig struct {
	Logo         string `json:"logo"`
	SummaryTitle string `json:"summaryTitle"`
	GPTName      string `json:"gptName"`
	TypeSpeed    int    `json:"typeSpeed"`
	DarkSelector string `json:"darkSelector"`
	ThemeName    string `json:"themeName"`
	Theme        string `json:"theme"`
	Typewriter   bool   `json:"typewriter"`
}

// GenerateTagsRequest asks for tag suggestions for a post
type GenerateTagsRequest struct {
	PostName string `json:"postName"`
	MaxCount int    `json:"maxCount"`
	Ensure   bool   `json:"ensure"`
}

// TagInfo is one suggested tag
type TagInfo struct {
	Name       string `json:"name"`
	IsExisting bool   `json:"isExisting"`
}

// GenerateTagsResponse is the flat tag suggestion result
type GenerateTagsResponse struct {
	Success       bool      `json:"success"`
	Message       string    `json:"message"`
	Tags          []TagInfo `json:"tags"`
	TotalCount    int       `json:"totalCount"`
	ExistingCount int       `json:"existingCount"`
	NewCount      int       `json:"newCount"`
}
