package ai

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"github.com/halo-extras/backend/internal/domain/ai"
	"github.com/halo-extras/backend/internal/infrastructure/config"
)

// DefaultSummaryTheme is the summary box palette used when none is configured
const DefaultSummaryTheme = `{"bg":"#f7f9fe","main":"#4F8DFD","contentFontSize":"16px","title":"#3A5A8C","content":"#222","gptName":"#7B88A8","contentBg":"#fff","border":"#e3e8f7","shadow":"0 2px 12px 0 rgba(60,80,180,0.08)","tagBg":"#f0f4ff","cursor":"#4F8DFD"}`

// ConversationService runs the assistant widget conversation
type ConversationService struct {
	engine    engine
	assistant config.AssistantConfig
	widget    config.SummaryWidgetConfig
	now       func() time.Time
	logger    *zap.Logger
}

// NewConversationService creates a new ConversationService
func NewConversationService(factory ai.ProviderFactory, resolver *ConfigResolver, cfg config.AIConfig, logger *zap.Logger) *ConversationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ConversationService{
		engine:    engine{factory: factory, resolver: resolver},
		assistant: cfg.Assistant,
		widget:    cfg.SummaryWidget,
		now:       time.Now,
		logger:    logger,
	}
}

// Converse answers the last turn of a raw conversation history
func (s *ConversationService) Converse(ctx context.Context, rawHistory string) (*ConversationResponse, error) {
	history := ParseHistory(rawHistory)
	if len(history) == 0 {
		return nil, invalid("对话历史不能为空")
	}

	p, rc, err := s.engine.provider(ai.FunctionConversation)
	if err != nil {
		return nil, failed("多轮对话处理异常: ", err)
	}
	reply, err := p.MultiTurnChat(ctx, history, rc.SystemPrompt, rc.Provider)
	if err != nil {
		s.logger.Error("Conversation failed", zap.String("ai_type", rc.AIType), zap.Error(err))
		return nil, failed("多轮对话处理异常: ", err)
	}

	return &ConversationResponse{
		Success:   true,
		Message:   "多轮对话成功",
		Response:  reply,
		AIType:    rc.AIType,
		Timestamp: s.now().UnixMilli(),
	}, nil
}

// Stream relays the reply to onChunk as it is produced. The returned
// error message is suitable for showing to the user.
func (s *ConversationService) Stream(ctx context.Context, rawHistory string, onChunk ai.ChunkHandler) error {
	history := ParseHistory(rawHistory)
	if len(history) == 0 {
		return invalid("对话历史不能为空")
	}

	p, rc, err := s.engine.provider(ai.FunctionConversation)
	if err != nil {
		return failed("", err)
	}
	if err := p.StreamChat(ctx, history, rc.SystemPrompt, rc.Provider, onChunk); err != nil {
		s.logger.Warn("Conversation stream failed", zap.String("ai_type", rc.AIType), zap.Error(err))
		return failed("", err)
	}
	return nil
}

// DialogConfig returns the assistant widget configuration
func (s *ConversationService) DialogConfig() DialogConfig {
	a := s.assistant
	return DialogConfig{
		AssistantIcon:    a.AssistantIcon,
		ConversationIcon: a.ConversationIcon,
		AssistantName:    a.AssistantName,
		InputPlaceholder: a.InputPlaceholder,
		DialogType:       a.DialogType,
		ButtonPosition:   a.ButtonPosition,
		Suggestions:      append([]string{}, a.Suggestions...),
	}
}

// SummaryConfig returns the summary box configuration. The theme is
// rendered as a JSON object string.
func (s *ConversationService) SummaryConfig() SummaryConfig {
	w := s.widget
	theme := DefaultSummaryTheme
	if len(w.Theme) > 0 {
		if b, err := json.Marshal(w.Theme); err == nil {
			theme = string(b)
		} else {
			s.logger.Warn("Invalid summary theme, using default", zap.Error(err))
		}
	}
	return SummaryConfig{
		Logo:         w.Logo,
		SummaryTitle: w.SummaryTitle,
		GPTName:      w.GPTName,
		TypeSpeed:    w.TypeSpeed,
		DarkSelector: w.DarkSelector,
		ThemeName:    w.ThemeName,
		Theme:        theme,
		Typewriter:   w.Typewriter,
	}
}
