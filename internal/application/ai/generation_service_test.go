package ai

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/halo-extras/backend/internal/domain/ai"
	"github.com/halo-extras/backend/internal/domain/shared"
	"github.com/halo-extras/backend/internal/infrastructure/config"
)

func newTestGenerationService(provider *MockProvider, cfg config.AIConfig) *GenerationService {
	return NewGenerationService(newTestFactory(provider), NewConfigResolver(cfg), cfg.PolishMaxLength, nil)
}

func TestGenerationService_GenerateArticle(t *testing.T) {
	ctx := context.Background()

	t.Run("applies defaults and builds the prompt", func(t *testing.T) {
		provider := new(MockProvider)
		var prompt string
		provider.On("Chat", ctx, mock.AnythingOfType("string"), openAIConfig()).
			Run(func(args mock.Arguments) { prompt = args.String(1) }).
			Return(`{"choices":[{"message":{"content":"# 标题\n正文"}}]}`, nil)

		resp, err := newTestGenerationService(provider, testAIConfig()).
			GenerateArticle(ctx, GenerateArticleRequest{Topic: " Go 并发 "})
		require.NoError(t, err)
		assert.True(t, resp.Success)
		assert.Equal(t, "# 标题\n正文", resp.Content)
		assert.Equal(t, "文章生成成功", resp.Message)

		assert.True(t, strings.HasPrefix(prompt, "请根据以下要求生成文章：\n主题：Go 并发\n"))
		assert.Contains(t, prompt, "写作风格：用简单语言解释复杂概念，适合大众阅读\n")
		assert.Contains(t, prompt, "文章长度：约2000字\n")
		assert.Contains(t, prompt, "输出格式：请使用Markdown格式输出\n")
		assert.True(t, strings.HasSuffix(prompt, "请直接输出生成的内容，不要包含任何解释或说明。"))
	})

	t.Run("system prompt and unknown style", func(t *testing.T) {
		cfg := testAIConfig()
		cfg.Functions[string(ai.FunctionGenerate)] = config.FunctionConfig{SystemPrompt: "你是作家"}
		provider := new(MockProvider)
		var prompt string
		provider.On("Chat", ctx, mock.AnythingOfType("string"), openAIConfig()).
			Run(func(args mock.Arguments) { prompt = args.String(1) }).
			Return("ok", nil)

		_, err := newTestGenerationService(provider, cfg).GenerateArticle(ctx, GenerateArticleRequest{
			Topic: "t", Style: "赛博朋克", Format: "html", MaxLength: 500,
		})
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(prompt, "你是作家\n\n请根据以下要求生成文章："))
		assert.Contains(t, prompt, "写作风格：赛博朋克\n")
		assert.Contains(t, prompt, "文章长度：约500字\n")
		assert.Contains(t, prompt, "输出格式：请使用HTML格式输出\n")
	})

	t.Run("validates topic", func(t *testing.T) {
		svc := newTestGenerationService(new(MockProvider), testAIConfig())

		_, err := svc.GenerateArticle(ctx, GenerateArticleRequest{Topic: "  "})
		assert.ErrorIs(t, err, shared.ErrInvalidInput)
		assert.Contains(t, err.Error(), "文章主题不能为空")

		_, err = svc.GenerateArticle(ctx, GenerateArticleRequest{Topic: strings.Repeat("字", MaxTopicLength+1)})
		assert.ErrorIs(t, err, shared.ErrInvalidInput)
	})

	t.Run("provider failure", func(t *testing.T) {
		provider := new(MockProvider)
		provider.On("Chat", ctx, mock.Anything, mock.Anything).
			Return("", ai.NewStatusError(ai.TypeOpenAI, "chat", 500, "boom"))

		_, err := newTestGenerationService(provider, testAIConfig()).GenerateArticle(ctx, GenerateArticleRequest{Topic: "t"})
		var opErr *OperationError
		require.ErrorAs(t, err, &opErr)
		assert.True(t, strings.HasPrefix(opErr.Message, "生成失败: "))
		assert.Contains(t, opErr.Message, "status 500")
	})
}

func TestGenerationService_GenerateTitles(t *testing.T) {
	ctx := context.Background()

	provider := new(MockProvider)
	var prompt string
	provider.On("Chat", ctx, mock.AnythingOfType("string"), openAIConfig()).
		Run(func(args mock.Arguments) { prompt = args.String(1) }).
		Return("1. Go 并发入门\n2. 《深入理解 channel》\n3、goroutine 实战", nil)

	resp, err := newTestGenerationService(provider, testAIConfig()).
		GenerateTitles(ctx, GenerateTitleRequest{Content: "正文", Count: 3})
	require.NoError(t, err)
	assert.Equal(t, []string{"Go 并发入门", "深入理解 channel", "goroutine 实战"}, resp.Titles)
	assert.Equal(t, "标题生成成功", resp.Message)

	assert.Contains(t, prompt, "请根据以下文章内容生成3个标题：\n\n文章内容：\n正文\n\n")
	assert.Contains(t, prompt, "写作风格：优化搜索引擎排名，包含关键词，吸引点击\n\n")
	assert.Contains(t, prompt, "1. 标题1\n2. 标题2\n3. 标题3\n")

	_, err = newTestGenerationService(provider, testAIConfig()).GenerateTitles(ctx, GenerateTitleRequest{})
	assert.ErrorIs(t, err, shared.ErrInvalidInput)
}

func TestParseTitles(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, ParseTitles("前言\n1. a\n2) b\n3. c", 2))
	assert.Equal(t, []string{"first", "second"}, ParseTitles("first\n\n**second**", 5))
	assert.Equal(t, []string{"引号标题"}, ParseTitles(`1. "引号标题"`, 5))
	assert.Empty(t, ParseTitles("", 5))
}

func TestGenerationService_Polish(t *testing.T) {
	ctx := context.Background()

	t.Run("polishes with the default prompt", func(t *testing.T) {
		provider := new(MockProvider)
		var prompt string
		provider.On("Chat", ctx, mock.AnythingOfType("string"), openAIConfig()).
			Run(func(args mock.Arguments) { prompt = args.String(1) }).
			Return(`{"output":{"text":"  润色后  "}}`, nil)

		resp, err := newTestGenerationService(provider, testAIConfig()).Polish(ctx, PolishRequest{Content: "原文内容"})
		require.NoError(t, err)
		assert.Equal(t, "润色后", resp.PolishedContent)
		assert.Equal(t, "原文内容", resp.OriginalContent)
		assert.Equal(t, 4, resp.OriginalLength)
		assert.Equal(t, 3, resp.PolishedLength)
		assert.Equal(t, "文章润色成功", resp.Message)
		assert.Equal(t, DefaultPolishPrompt+"\n\n需要润色的内容：\n原文内容\n\n请直接返回润色后的内容：", prompt)
	})

	t.Run("configured limit", func(t *testing.T) {
		cfg := testAIConfig()
		cfg.PolishMaxLength = 5
		_, err := newTestGenerationService(new(MockProvider), cfg).Polish(ctx, PolishRequest{Content: "一二三四五六"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "内容长度(6)超过最大限制(5)，请分段润色")
	})

	t.Run("hard limit", func(t *testing.T) {
		_, err := newTestGenerationService(new(MockProvider), testAIConfig()).
			Polish(ctx, PolishRequest{Content: strings.Repeat("a", MaxPolishContentLength+1)})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "文章内容长度不能超过8000个字符")
	})

	t.Run("friendly provider errors", func(t *testing.T) {
		provider := new(MockProvider)
		provider.On("Chat", ctx, mock.Anything, mock.Anything).
			Return("", ai.NewStatusError(ai.TypeOpenAI, "chat", 429, "slow down"))

		_, err := newTestGenerationService(provider, testAIConfig()).Polish(ctx, PolishRequest{Content: "x"})
		require.Error(t, err)
		assert.Equal(t, "API调用频率超限，请稍后重试", err.Error())
	})
}

func TestPolishErrorMessage(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{ai.NewTransportError(ai.TypeOpenAI, "chat", context.DeadlineExceeded), "AI服务响应超时，请稍后重试"},
		{ai.NewStatusError(ai.TypeOpenAI, "chat", 401, ""), "API密钥无效，请检查配置"},
		{ai.NewStatusError(ai.TypeOpenAI, "chat", 403, ""), "API访问被拒绝，请检查权限配置"},
		{ai.NewTransportError(ai.TypeOpenAI, "chat", errors.New("connection refused")), "网络连接失败，请检查网络设置"},
		{ai.NewConfigError(ai.TypeOpenAI, "chat", "API key is not configured"), "AI服务配置不完整: API key is not configured"},
		{errors.New("other"), "文章润色服务暂时不可用，请稍后重试"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, PolishErrorMessage(tt.err))
	}
}
