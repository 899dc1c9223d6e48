package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	postapp "github.com/halo-extras/backend/internal/application/post"
)

// PostService stores the posts that summaries and tags are generated for
type PostService interface {
	Upsert(ctx context.Context, name string, req postapp.UpsertPostRequest) (*postapp.PostResponse, error)
	Get(ctx context.Context, name string) (*postapp.PostResponse, error)
	ListTags(ctx context.Context) ([]postapp.TagResponse, error)
}

var _ PostService = (*postapp.PostService)(nil)

// PostHandler handles post and tag HTTP requests
type PostHandler struct {
	BaseHandler
	service PostService
}

// NewPostHandler creates a new PostHandler
func NewPostHandler(service PostService) *PostHandler {
	return &PostHandler{service: service}
}

// Upsert godoc
// @ID           upsertPost
// @Summary      Create or replace a post
// @Description  Publishing a post that was not published emits a post-published event
// @Tags         posts
// @Accept       json
// @Produce      json
// @Param        name    path string                    true "Post name"
// @Param        request body postapp.UpsertPostRequest true "Post"
// @Success      200 {object} APIResponse[postapp.PostResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /posts/{name} [put]
func (h *PostHandler) Upsert(c *gin.Context) {
	var req postapp.UpsertPostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	p, err := h.service.Upsert(c.Request.Context(), c.Param("name"), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, p)
}

// Get godoc
// @ID           getPost
// @Summary      Get a post
// @Tags         posts
// @Produce      json
// @Param        name path string true "Post name"
// @Success      200 {object} APIResponse[postapp.PostResponse]
// @Failure      404 {object} ErrorResponse
// @Router       /posts/{name} [get]
func (h *PostHandler) Get(c *gin.Context) {
	p, err := h.service.Get(c.Request.Context(), c.Param("name"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, p)
}

// ListTags godoc
// @ID           listTags
// @Summary      List tags
// @Tags         posts
// @Produce      json
// @Success      200 {object} APIResponse[[]postapp.TagResponse]
// @Router       /tags [get]
func (h *PostHandler) ListTags(c *gin.Context) {
	tags, err := h.service.ListTags(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, tags)
}
