package handler

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	aiapp "github.com/halo-extras/backend/internal/application/ai"
	domainai "github.com/halo-extras/backend/internal/domain/ai"
	"github.com/halo-extras/backend/internal/domain/shared"
)

type MockGenerationService struct {
	mock.Mock
}

func (m *MockGenerationService) GenerateArticle(ctx context.Context, req aiapp.GenerateArticleRequest) (*aiapp.GenerateArticleResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*aiapp.GenerateArticleResponse), args.Error(1)
}

func (m *MockGenerationService) GenerateTitles(ctx context.Context, req aiapp.GenerateTitleRequest) (*aiapp.GenerateTitleResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*aiapp.GenerateTitleResponse), args.Error(1)
}

func (m *MockGenerationService) Polish(ctx context.Context, req aiapp.PolishRequest) (*aiapp.PolishResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*aiapp.PolishResponse), args.Error(1)
}

type MockSummaryService struct {
	mock.Mock
}

func (m *MockSummaryService) GenerateSummary(ctx context.Context, postName string) (*aiapp.GenerateSummaryResponse, error) {
	args := m.Called(ctx, postName)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*aiapp.GenerateSummaryResponse), args.Error(1)
}

func (m *MockSummaryService) FindSummaries(ctx context.Context, postName string) ([]aiapp.SummaryResponse, error) {
	args := m.Called(ctx, postName)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]aiapp.SummaryResponse), args.Error(1)
}

func (m *MockSummaryService) UpdateContent(ctx context.Context, postName string) (*aiapp.UpdateContentResponse, error) {
	args := m.Called(ctx, postName)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*aiapp.UpdateContentResponse), args.Error(1)
}

func (m *MockSummaryService) SyncAll(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *MockSummaryService) SyncProgress() aiapp.SyncProgress {
	return m.Called().Get(0).(aiapp.SyncProgress)
}

type MockConversationService struct {
	mock.Mock
	chunks []string
}

func (m *MockConversationService) Converse(ctx context.Context, rawHistory string) (*aiapp.ConversationResponse, error) {
	args := m.Called(ctx, rawHistory)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*aiapp.ConversationResponse), args.Error(1)
}

func (m *MockConversationService) Stream(ctx context.Context, rawHistory string, onChunk domainai.ChunkHandler) error {
	for _, c := range m.chunks {
		if err := onChunk(c); err != nil {
			return err
		}
	}
	return m.Called(ctx, rawHistory).Error(0)
}

func (m *MockConversationService) DialogConfig() aiapp.DialogConfig {
	return m.Called().Get(0).(aiapp.DialogConfig)
}

func (m *MockConversationService) SummaryConfig() aiapp.SummaryConfig {
	return m.Called().Get(0).(aiapp.SummaryConfig)
}

type MockTagService struct {
	mock.Mock
}

func (m *MockTagService) GenerateTags(ctx context.Context, req aiapp.GenerateTagsRequest) (*aiapp.GenerateTagsResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*aiapp.GenerateTagsResponse), args.Error(1)
}

type aiMocks struct {
	generation   *MockGenerationService
	summaries    *MockSummaryService
	conversation *MockConversationService
	tags         *MockTagService
}

func setupAIRouter() (*gin.Engine, *aiMocks) {
	m := &aiMocks{
		generation:   new(MockGenerationService),
		summaries:    new(MockSummaryService),
		conversation: new(MockConversationService),
		tags:         new(MockTagService),
	}
	h := NewAIHandler(m.generation, m.summaries, m.conversation, m.tags)

	router := gin.New()
	router.POST("/generate/article", h.GenerateArticle)
	router.POST("/generate/title", h.GenerateTitle)
	router.POST("/polish", h.Polish)
	router.POST("/summaries", h.GenerateSummary)
	router.GET("/findSummaries/:postName", h.FindSummaries)
	router.POST("/updateContent", h.UpdateContent)
	router.POST("/syncAll", h.SyncAll)
	router.GET("/syncProgress", h.SyncProgress)
	router.POST("/conversation", h.Conversation)
	router.POST("/conversationStream", h.ConversationStream)
	router.GET("/dialogConfig", h.DialogConfig)
	router.GET("/summaryConfig", h.SummaryConfig)
	router.POST("/generateTags", h.GenerateTags)
	return router, m
}

func decodeFlat(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestUserMessage(t *testing.T) {
	providerErr := &domainai.ProviderError{Provider: "openAi", Op: "chat", Kind: domainai.KindTimeout, Err: errors.New("deadline exceeded")}

	assert.Equal(t, "生成失败: boom", userMessage(&aiapp.OperationError{Message: "生成失败: boom", Err: providerErr}))
	assert.Equal(t, "摘要同步正在进行中", userMessage(aiapp.ErrSyncInProgress))
	assert.Equal(t, "服务异常: db down", userMessage(errors.New("db down")))
}

func TestAIHandler_GenerateArticle(t *testing.T) {
	router, m := setupAIRouter()
	m.generation.On("GenerateArticle", mock.Anything, aiapp.GenerateArticleRequest{Topic: "Go 并发", MaxLength: 800}).
		Return(&aiapp.GenerateArticleResponse{Success: true, Content: "# Go", Message: "文章生成成功"}, nil)

	w := serve(router, jsonRequest(http.MethodPost, "/generate/article", `{"topic":"Go 并发","maxLength":800}`))

	require.Equal(t, http.StatusOK, w.Code)
	body := decodeFlat(t, w)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "# Go", body["content"])
}

func TestAIHandler_FailuresStayFlat(t *testing.T) {
	router, m := setupAIRouter()
	m.generation.On("GenerateArticle", mock.Anything, mock.Anything).
		Return(nil, &aiapp.OperationError{Message: "生成失败: API密钥无效", Err: errors.New("401")})
	m.generation.On("GenerateTitles", mock.Anything, mock.Anything).
		Return(nil, shared.NewDomainError("INVALID_INPUT", "文章内容不能为空"))

	w := serve(router, jsonRequest(http.MethodPost, "/generate/article", `{"topic":"x"}`))
	require.Equal(t, http.StatusOK, w.Code)
	body := decodeFlat(t, w)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "生成失败: API密钥无效", body["message"])

	w = serve(router, jsonRequest(http.MethodPost, "/generate/title", `{"content":""}`))
	require.Equal(t, http.StatusOK, w.Code)
	body = decodeFlat(t, w)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "文章内容不能为空", body["message"])
	assert.Equal(t, []any{}, body["titles"])

	w = serve(router, jsonRequest(http.MethodPost, "/generate/article", `not json`))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, badBodyMessage, decodeFlat(t, w)["message"])
}

func TestAIHandler_Polish_Failure(t *testing.T) {
	router, m := setupAIRouter()
	m.generation.On("Polish", mock.Anything, aiapp.PolishRequest{Content: "你好世界"}).
		Return(nil, &aiapp.OperationError{Message: "AI服务响应超时，请稍后重试"})

	w := serve(router, jsonRequest(http.MethodPost, "/polish", `{"content":"你好世界"}`))

	body := decodeFlat(t, w)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "AI服务响应超时，请稍后重试", body["message"])
	assert.Equal(t, "你好世界", body["originalContent"])
	assert.Equal(t, float64(4), body["originalLength"])
}

func TestAIHandler_Summaries(t *testing.T) {
	router, m := setupAIRouter()
	m.summaries.On("GenerateSummary", mock.Anything, "hello-world").
		Return(&aiapp.GenerateSummaryResponse{Success: true, Message: "摘要生成成功", Summary: "短摘要"}, nil)
	m.summaries.On("FindSummaries", mock.Anything, "hello-world").Return([]aiapp.SummaryResponse{
		{PostName: "hello-world", PostURL: "/archives/hello-world", PostSummary: "短摘要"},
		{PostName: "hello-world", PostSummary: "  "},
	}, nil)
	m.summaries.On("UpdateContent", mock.Anything, "hello-world").
		Return(&aiapp.UpdateContentResponse{Message: "文章在黑名单中，不进行摘要更新", SummaryContent: "短摘要", BlackList: true}, nil)

	w := serve(router, jsonRequest(http.MethodPost, "/summaries", `{"postName":"hello-world"}`))
	assert.Equal(t, "短摘要", decodeFlat(t, w)["summary"])

	w = serve(router, httptest.NewRequest(http.MethodGet, "/findSummaries/hello-world", nil))
	require.Equal(t, http.StatusOK, w.Code)
	var found []aiapp.SummaryResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &found))
	require.Len(t, found, 1)
	assert.Equal(t, "/archives/hello-world", found[0].PostURL)

	w = serve(router, jsonRequest(http.MethodPost, "/updateContent", `{"postName":"hello-world"}`))
	body := decodeFlat(t, w)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, true, body["blackList"])
}

func TestAIHandler_SyncAll(t *testing.T) {
	router, m := setupAIRouter()
	m.summaries.On("SyncAll", mock.Anything).Return(nil).Once()
	m.summaries.On("SyncAll", mock.Anything).Return(aiapp.ErrSyncInProgress).Once()
	m.summaries.On("SyncProgress").Return(aiapp.SyncProgress{Total: 10, Finished: 4})

	w := serve(router, httptest.NewRequest(http.MethodPost, "/syncAll", nil))
	assert.Equal(t, true, decodeFlat(t, w)["success"])

	w = serve(router, httptest.NewRequest(http.MethodPost, "/syncAll", nil))
	body := decodeFlat(t, w)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "摘要同步正在进行中", body["message"])

	w = serve(router, httptest.NewRequest(http.MethodGet, "/syncProgress", nil))
	assert.JSONEq(t, `{"total":10,"finished":4}`, w.Body.String())
}

func TestAIHandler_Conversation_AcceptsRawBody(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		history string
	}{
		{"wrapped history", `{"conversationHistory":"[{\"role\":\"user\",\"content\":\"hi\"}]"}`, `[{"role":"user","content":"hi"}]`},
		{"raw array", `[{"role":"user","content":"hi"}]`, `[{"role":"user","content":"hi"}]`},
		{"plain text", `你好`, `你好`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router, m := setupAIRouter()
			m.conversation.On("Converse", mock.Anything, tt.history).
				Return(&aiapp.ConversationResponse{Success: true, Response: "hello", AIType: "openAi"}, nil)

			w := serve(router, jsonRequest(http.MethodPost, "/conversation", tt.body))

			body := decodeFlat(t, w)
			assert.Equal(t, "hello", body["response"])
			m.conversation.AssertExpectations(t)
		})
	}
}

type sseEvent struct {
	name string
	data string
}

func readEvents(t *testing.T, body string) []sseEvent {
	t.Helper()
	var events []sseEvent
	var cur sseEvent
	sc := bufio.NewScanner(strings.NewReader(body))
	for sc.Scan() {
		line := sc.Text()
		switch {
		case strings.HasPrefix(line, "event:"):
			cur.name = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
		case strings.HasPrefix(line, "data:"):
			cur.data = strings.TrimPrefix(strings.TrimPrefix(line, "data:"), " ")
		case line == "" && cur.name != "":
			events = append(events, cur)
			cur = sseEvent{}
		}
	}
	return events
}

func TestAIHandler_ConversationStream(t *testing.T) {
	router, m := setupAIRouter()
	m.conversation.chunks = []string{"你", "好"}
	m.conversation.On("Stream", mock.Anything, "hi").Return(nil)

	w := serve(router, jsonRequest(http.MethodPost, "/conversationStream", `{"conversationHistory":"hi"}`))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/event-stream", w.Header().Get("Content-Type"))
	assert.Equal(t, []sseEvent{
		{"message", "你"},
		{"message", "好"},
		{"done", "[DONE]"},
	}, readEvents(t, w.Body.String()))
}

func TestAIHandler_ConversationStream_Error(t *testing.T) {
	router, m := setupAIRouter()
	m.conversation.On("Stream", mock.Anything, "hi").
		Return(&aiapp.OperationError{Message: "connection refused"})

	w := serve(router, jsonRequest(http.MethodPost, "/conversationStream", `{"conversationHistory":"hi"}`))

	assert.Equal(t, []sseEvent{
		{"error", "ERROR: connection refused"},
		{"done", "[DONE]"},
	}, readEvents(t, w.Body.String()))
}

func TestAIHandler_WidgetConfigs(t *testing.T) {
	router, m := setupAIRouter()
	m.conversation.On("DialogConfig").Return(aiapp.DialogConfig{AssistantName: "小助手", Suggestions: []string{"总结本文"}})
	m.conversation.On("SummaryConfig").Return(aiapp.SummaryConfig{GPTName: "智阅GPT", TypeSpeed: 20, Typewriter: true})

	w := serve(router, httptest.NewRequest(http.MethodGet, "/dialogConfig", nil))
	assert.Equal(t, "小助手", decodeFlat(t, w)["assistantName"])

	w = serve(router, httptest.NewRequest(http.MethodGet, "/summaryConfig", nil))
	body := decodeFlat(t, w)
	assert.Equal(t, "智阅GPT", body["gptName"])
	assert.Equal(t, true, body["typewriter"])
}

func TestAIHandler_GenerateTags(t *testing.T) {
	router, m := setupAIRouter()
	m.tags.On("GenerateTags", mock.Anything, aiapp.GenerateTagsRequest{PostName: "hello-world", MaxCount: 3, Ensure: true}).
		Return(&aiapp.GenerateTagsResponse{
			Success:       true,
			Message:       "success",
			Tags:          []aiapp.TagInfo{{Name: "Go", IsExisting: true}, {Name: "并发"}},
			TotalCount:    2,
			ExistingCount: 1,
			NewCount:      1,
		}, nil)
	m.tags.On("GenerateTags", mock.Anything, aiapp.GenerateTagsRequest{PostName: "missing"}).
		Return(nil, shared.ErrNotFound)

	w := serve(router, jsonRequest(http.MethodPost, "/generateTags", `{"postName":"hello-world","maxCount":3,"ensure":true}`))
	body := decodeFlat(t, w)
	assert.Equal(t, float64(2), body["totalCount"])
	assert.Len(t, body["tags"], 2)

	w = serve(router, jsonRequest(http.MethodPost, "/generateTags", `{"postName":"missing"}`))
	body = decodeFlat(t, w)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "Resource not found", body["message"])
}
