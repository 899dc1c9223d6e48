package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	aiapp "github.com/halo-extras/backend/internal/application/ai"
	domainai "github.com/halo-extras/backend/internal/domain/ai"
	"github.com/halo-extras/backend/internal/domain/shared"
	"github.com/halo-extras/backend/internal/infrastructure/logger"
)

// GenerationService writes articles, titles and polished text
type GenerationService interface {
	GenerateArticle(ctx context.Context, req aiapp.GenerateArticleRequest) (*aiapp.GenerateArticleResponse, error)
	GenerateTitles(ctx context.Context, req aiapp.GenerateTitleRequest) (*aiapp.GenerateTitleResponse, error)
	Polish(ctx context.Context, req aiapp.PolishRequest) (*aiapp.PolishResponse, error)
}

// SummaryService generates and publishes post summaries
type SummaryService interface {
	GenerateSummary(ctx context.Context, postName string) (*aiapp.GenerateSummaryResponse, error)
	FindSummaries(ctx context.Context, postName string) ([]aiapp.SummaryResponse, error)
	UpdateContent(ctx context.Context, postName string) (*aiapp.UpdateContentResponse, error)
	SyncAll(ctx context.Context) error
	SyncProgress() aiapp.SyncProgress
}

// ConversationService answers assistant conversations
type ConversationService interface {
	Converse(ctx context.Context, rawHistory string) (*aiapp.ConversationResponse, error)
	Stream(ctx context.Context, rawHistory string, onChunk domainai.ChunkHandler) error
	DialogConfig() aiapp.DialogConfig
	SummaryConfig() aiapp.SummaryConfig
}

// TagService suggests tags for posts
type TagService interface {
	GenerateTags(ctx context.Context, req aiapp.GenerateTagsRequest) (*aiapp.GenerateTagsResponse, error)
}

var (
	_ GenerationService   = (*aiapp.GenerationService)(nil)
	_ SummaryService      = (*aiapp.SummaryService)(nil)
	_ ConversationService = (*aiapp.ConversationService)(nil)
	_ TagService          = (*aiapp.TagService)(nil)
)

const badBodyMessage = "请求格式错误"

// AIHandler serves the AI writing endpoints. Their responses are flat
// objects carrying success and message; failures are reported in the
// body with status 200 so the editor widgets can show the message.
type AIHandler struct {
	BaseHandler
	generation   GenerationService
	summaries    SummaryService
	conversation ConversationService
	tags         TagService
}

// NewAIHandler creates a new AIHandler
func NewAIHandler(generation GenerationService, summaries SummaryService, conversation ConversationService, tags TagService) *AIHandler {
	return &AIHandler{
		generation:   generation,
		summaries:    summaries,
		conversation: conversation,
		tags:         tags,
	}
}

// userMessage picks the text shown to the user for a failed call
func userMessage(err error) string {
	var opErr *aiapp.OperationError
	if errors.As(err, &opErr) {
		return opErr.Message
	}
	var domainErr *shared.DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Message
	}
	return "服务异常: " + err.Error()
}

func logFailure(c *gin.Context, op string, err error) {
	logger.L(c.Request.Context()).Warn("AI request failed", zap.String("operation", op), zap.Error(err))
}

// GenerateArticle godoc
// @ID           generateArticle
// @Summary      Generate an article
// @Description  Write an article about a topic with the configured generate function
// @Tags         ai
// @Accept       json
// @Produce      json
// @Param        request body aiapp.GenerateArticleRequest true "Article request"
// @Success      200 {object} aiapp.GenerateArticleResponse
// @Router       /generate/article [post]
func (h *AIHandler) GenerateArticle(c *gin.Context) {
	var req aiapp.GenerateArticleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusOK, aiapp.GenerateArticleResponse{Message: badBodyMessage})
		return
	}

	resp, err := h.generation.GenerateArticle(c.Request.Context(), req)
	if err != nil {
		logFailure(c, "generate_article", err)
		c.JSON(http.StatusOK, aiapp.GenerateArticleResponse{Message: userMessage(err)})
		return
	}
	c.JSON(http.StatusOK, resp)
}

// GenerateTitle godoc
// @ID           generateTitle
// @Summary      Suggest titles
// @Description  Suggest titles for article content
// @Tags         ai
// @Accept       json
// @Produce      json
// @Param        request body aiapp.GenerateTitleRequest true "Title request"
// @Success      200 {object} aiapp.GenerateTitleResponse
// @Router       /generate/title [post]
func (h *AIHandler) GenerateTitle(c *gin.Context) {
	var req aiapp.GenerateTitleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusOK, aiapp.GenerateTitleResponse{Titles: []string{}, Message: badBodyMessage})
		return
	}

	resp, err := h.generation.GenerateTitles(c.Request.Context(), req)
	if err != nil {
		logFailure(c, "generate_title", err)
		c.JSON(http.StatusOK, aiapp.GenerateTitleResponse{Titles: []string{}, Message: userMessage(err)})
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Polish godoc
// @ID           polishContent
// @Summary      Polish text
// @Description  Rewrite a text fragment for fluency
// @Tags         ai
// @Accept       json
// @Produce      json
// @Param        request body aiapp.PolishRequest true "Polish request"
// @Success      200 {object} aiapp.PolishResponse
// @Router       /polish [post]
func (h *AIHandler) Polish(c *gin.Context) {
	var req aiapp.PolishRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusOK, aiapp.PolishResponse{Message: badBodyMessage})
		return
	}

	resp, err := h.generation.Polish(c.Request.Context(), req)
	if err != nil {
		logFailure(c, "polish", err)
		c.JSON(http.StatusOK, aiapp.PolishResponse{
			OriginalContent: req.Content,
			Message:         userMessage(err),
			OriginalLength:  len([]rune(req.Content)),
		})
		return
	}
	c.JSON(http.StatusOK, resp)
}

// GenerateSummary godoc
// @ID           generateSummary
// @Summary      Summarize a post
// @Description  Generate and store the summary of a post
// @Tags         ai
// @Accept       json
// @Produce      json
// @Param        request body aiapp.SummaryRequest true "Post"
// @Success      200 {object} aiapp.GenerateSummaryResponse
// @Failure      401 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /summaries [post]
func (h *AIHandler) GenerateSummary(c *gin.Context) {
	var req aiapp.SummaryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusOK, aiapp.GenerateSummaryResponse{Message: badBodyMessage})
		return
	}

	resp, err := h.summaries.GenerateSummary(c.Request.Context(), req.PostName)
	if err != nil {
		logFailure(c, "summary", err)
		c.JSON(http.StatusOK, aiapp.GenerateSummaryResponse{Message: userMessage(err)})
		return
	}
	c.JSON(http.StatusOK, resp)
}

// FindSummaries godoc
// @ID           findSummaries
// @Summary      Stored summaries of a post
// @Tags         ai
// @Produce      json
// @Param        postName path string true "Post name"
// @Success      200 {array} aiapp.SummaryResponse
// @Failure      500 {object} ErrorResponse
// @Router       /findSummaries/{postName} [get]
func (h *AIHandler) FindSummaries(c *gin.Context) {
	found, err := h.summaries.FindSummaries(c.Request.Context(), c.Param("postName"))
	if err != nil {
		h.HandleError(c, err)
		return
	}

	out := make([]aiapp.SummaryResponse, 0, len(found))
	for _, s := range found {
		if strings.TrimSpace(s.PostSummary) != "" {
			out = append(out, s)
		}
	}
	c.JSON(http.StatusOK, out)
}

// UpdateContent godoc
// @ID           updateSummaryContent
// @Summary      Copy a summary into the post excerpt
// @Tags         ai
// @Accept       json
// @Produce      json
// @Param        request body aiapp.SummaryRequest true "Post"
// @Success      200 {object} aiapp.UpdateContentResponse
// @Failure      401 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /updateContent [post]
func (h *AIHandler) UpdateContent(c *gin.Context) {
	var req aiapp.SummaryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusOK, aiapp.UpdateContentResponse{Message: badBodyMessage})
		return
	}

	resp, err := h.summaries.UpdateContent(c.Request.Context(), req.PostName)
	if err != nil {
		logFailure(c, "update_content", err)
		c.JSON(http.StatusOK, aiapp.UpdateContentResponse{Message: userMessage(err)})
		return
	}
	c.JSON(http.StatusOK, resp)
}

// SyncAll godoc
// @ID           syncAllSummaries
// @Summary      Summarize every post
// @Description  Start a background summary run over posts not synced yet
// @Tags         ai
// @Produce      json
// @Success      200 {object} MessageResponse
// @Failure      401 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /syncAll [post]
func (h *AIHandler) SyncAll(c *gin.Context) {
	if err := h.summaries.SyncAll(c.Request.Context()); err != nil {
		logFailure(c, "sync_all", err)
		c.JSON(http.StatusOK, MessageResponse{Message: userMessage(err)})
		return
	}
	c.JSON(http.StatusOK, MessageResponse{Success: true, Message: "同步任务已启动"})
}

// SyncProgress godoc
// @ID           getSyncProgress
// @Summary      Bulk summary progress
// @Tags         ai
// @Produce      json
// @Success      200 {object} aiapp.SyncProgress
// @Router       /syncProgress [get]
func (h *AIHandler) SyncProgress(c *gin.Context) {
	c.JSON(http.StatusOK, h.summaries.SyncProgress())
}

// conversationHistory accepts {"conversationHistory": "..."} or, when the
// body is anything else, the raw body itself.
func conversationHistory(c *gin.Context) (string, error) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		return "", err
	}
	var req aiapp.ConversationRequest
	if json.Unmarshal(body, &req) == nil && strings.TrimSpace(req.ConversationHistory) != "" {
		return req.ConversationHistory, nil
	}
	return string(body), nil
}

// Conversation godoc
// @ID           converse
// @Summary      Assistant conversation
// @Description  Answer the last turn of a conversation history
// @Tags         ai
// @Accept       json
// @Produce      json
// @Param        request body aiapp.ConversationRequest true "Conversation"
// @Success      200 {object} aiapp.ConversationResponse
// @Router       /conversation [post]
func (h *AIHandler) Conversation(c *gin.Context) {
	history, err := conversationHistory(c)
	if err != nil {
		c.JSON(http.StatusOK, aiapp.ConversationResponse{Message: badBodyMessage})
		return
	}

	resp, err := h.conversation.Converse(c.Request.Context(), history)
	if err != nil {
		logFailure(c, "conversation", err)
		c.JSON(http.StatusOK, aiapp.ConversationResponse{Message: userMessage(err)})
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ConversationStream godoc
// @ID           converseStream
// @Summary      Streaming assistant conversation
// @Description  Relay the reply as server-sent events: message events carry chunks,
// @Description  an error event carries "ERROR: <message>" and a done event ends the stream
// @Tags         ai
// @Accept       json
// @Produce      text/event-stream
// @Param        request body aiapp.ConversationRequest true "Conversation"
// @Success      200 {string} string "event stream"
// @Router       /conversationStream [post]
func (h *AIHandler) ConversationStream(c *gin.Context) {
	history, readErr := conversationHistory(c)

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
	c.Status(http.StatusOK)

	if readErr != nil {
		c.SSEvent("error", "ERROR: "+badBodyMessage)
		c.SSEvent("done", "[DONE]")
		return
	}

	ctx := c.Request.Context()
	err := h.conversation.Stream(ctx, history, func(chunk string) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		c.SSEvent("message", chunk)
		c.Writer.Flush()
		return nil
	})
	if err != nil {
		if ctx.Err() != nil {
			logger.L(ctx).Debug("Conversation stream closed by client")
			return
		}
		logFailure(c, "conversation_stream", err)
		c.SSEvent("error", "ERROR: "+userMessage(err))
	}
	c.SSEvent("done", "[DONE]")
	c.Writer.Flush()
}

// DialogConfig godoc
// @ID           getDialogConfig
// @Summary      Assistant widget configuration
// @Tags         ai
// @Produce      json
// @Success      200 {object} aiapp.DialogConfig
// @Router       /dialogConfig [get]
func (h *AIHandler) DialogConfig(c *gin.Context) {
	c.JSON(http.StatusOK, h.conversation.DialogConfig())
}

// SummaryConfig godoc
// @ID           getSummaryConfig
// @Summary      Summary box configuration
// @Tags         ai
// @Produce      json
// @Success      200 {object} aiapp.SummaryConfig
// @Router       /summaryConfig [get]
func (h *AIHandler) SummaryConfig(c *gin.Context) {
	c.JSON(http.StatusOK, h.conversation.SummaryConfig())
}

// GenerateTags godoc
// @ID           generateTags
// @Summary      Suggest tags for a post
// @Description  With ensure=true the suggested tags that do not exist yet are created
// @Tags         ai
// @Accept       json
// @Produce      json
// @Param        request body aiapp.GenerateTagsRequest true "Tag request"
// @Success      200 {object} aiapp.GenerateTagsResponse
// @Failure      401 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /generateTags [post]
func (h *AIHandler) GenerateTags(c *gin.Context) {
	var req aiapp.GenerateTagsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusOK, aiapp.GenerateTagsResponse{Tags: []aiapp.TagInfo{}, Message: badBodyMessage})
		return
	}

	resp, err := h.tags.GenerateTags(c.Request.Context(), req)
	if err != nil {
		logFailure(c, "generate_tags", err)
		c.JSON(http.StatusOK, aiapp.GenerateTagsResponse{Tags: []aiapp.TagInfo{}, Message: userMessage(err)})
		return
	}
	c.JSON(http.StatusOK, resp)
}
