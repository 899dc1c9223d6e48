package ai

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/halo-extras/backend/internal/domain/ai"
	"github.com/halo-extras/backend/internal/domain/post"
	"github.com/halo-extras/backend/internal/domain/summary"
	"github.com/halo-extras/backend/internal/infrastructure/config"
)

// MockProvider is a mock implementation of ai.Provider
type MockProvider struct {
	mock.Mock
}

func (m *MockProvider) Type() string {
	return m.Called().String(0)
}

func (m *MockProvider) Chat(ctx context.Context, prompt string, cfg ai.ProviderConfig) (string, error) {
	args := m.Called(ctx, prompt, cfg)
	return args.String(0), args.Error(1)
}

func (m *MockProvider) MultiTurnChat(ctx context.Context, history []ai.Message, systemPrompt string, cfg ai.ProviderConfig) (string, error) {
	args := m.Called(ctx, history, systemPrompt, cfg)
	return args.String(0), args.Error(1)
}

func (m *MockProvider) StreamChat(ctx context.Context, history []ai.Message, systemPrompt string, cfg ai.ProviderConfig, onChunk ai.ChunkHandler) error {
	args := m.Called(ctx, history, systemPrompt, cfg, onChunk)
	return args.Error(0)
}

// MockProviderFactory is a mock implementation of ai.ProviderFactory
type MockProviderFactory struct {
	mock.Mock
}

func (m *MockProviderFactory) Provider(aiType string) (ai.Provider, error) {
	args := m.Called(aiType)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(ai.Provider), args.Error(1)
}

// MockPostRepository is a mock implementation of post.PostRepository
type MockPostRepository struct {
	mock.Mock
}

func (m *MockPostRepository) FindByName(ctx context.Context, name string) (*post.Post, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*post.Post), args.Error(1)
}

func (m *MockPostRepository) ListPublished(ctx context.Context) ([]post.Post, error) {
	args := m.Called(ctx)
	return args.Get(0).([]post.Post), args.Error(1)
}

func (m *MockPostRepository) ListAll(ctx context.Context) ([]post.Post, error) {
	args := m.Called(ctx)
	return args.Get(0).([]post.Post), args.Error(1)
}

func (m *MockPostRepository) Save(ctx context.Context, p *post.Post) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

// MockTagRepository is a mock implementation of post.TagRepository
type MockTagRepository struct {
	mock.Mock
}

func (m *MockTagRepository) FindAll(ctx context.Context) ([]post.Tag, error) {
	args := m.Called(ctx)
	return args.Get(0).([]post.Tag), args.Error(1)
}

func (m *MockTagRepository) FindByDisplayNames(ctx context.Context, names []string) ([]post.Tag, error) {
	args := m.Called(ctx, names)
	return args.Get(0).([]post.Tag), args.Error(1)
}

func (m *MockTagRepository) SaveBatch(ctx context.Context, tags []*post.Tag) error {
	args := m.Called(ctx, tags)
	return args.Error(0)
}

// MockSummaryRepository is a mock implementation of summary.SummaryRepository
type MockSummaryRepository struct {
	mock.Mock
}

func (m *MockSummaryRepository) FindByPostName(ctx context.Context, postName string) ([]summary.PostSummary, error) {
	args := m.Called(ctx, postName)
	return args.Get(0).([]summary.PostSummary), args.Error(1)
}

func (m *MockSummaryRepository) Save(ctx context.Context, s *summary.PostSummary) error {
	args := m.Called(ctx, s)
	return args.Error(0)
}

func testAIConfig() config.AIConfig {
	return config.AIConfig{
		AIType: ai.TypeOpenAI,
		Providers: map[string]config.ProviderConfig{
			ai.TypeOpenAI:  {APIKey: "sk-test", ModelName: "gpt-4o-mini"},
			ai.TypeZhipuAI: {APIKey: "zp-test", ModelName: "glm-4"},
		},
		Functions:       map[string]config.FunctionConfig{},
		PolishMaxLength: 2000,
		TagMaxCount:     6,
		SyncConcurrency: 3,
	}
}

// newTestFactory returns a factory that always yields provider
func newTestFactory(provider *MockProvider) *MockProviderFactory {
	factory := new(MockProviderFactory)
	factory.On("Provider", mock.Anything).Return(provider, nil)
	return factory
}

func openAIConfig() ai.ProviderConfig {
	return ai.ProviderConfig{APIKey: "sk-test", ModelName: "gpt-4o-mini"}
}
