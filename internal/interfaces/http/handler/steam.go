package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	steamapp "github.com/halo-extras/backend/internal/application/steam"
	"github.com/halo-extras/backend/internal/domain/steam"
)

// SteamService serves the cached Steam game library
type SteamService interface {
	GetLibrary(ctx context.Context) (*steam.Library, error)
	Refresh(ctx context.Context) *steamapp.RefreshResult
	ClearCache(ctx context.Context) error
	TestConnection(ctx context.Context) *steamapp.TestResult
}

var _ SteamService = (*steamapp.SteamService)(nil)

// SteamHandler handles the Steam library widget endpoints
type SteamHandler struct {
	BaseHandler
	service SteamService
}

// NewSteamHandler creates a new SteamHandler
func NewSteamHandler(service SteamService) *SteamHandler {
	return &SteamHandler{service: service}
}

// GetGames godoc
// @ID           getSteamGames
// @Summary      Steam game library
// @Description  The library with playtime statistics, served from cache while it is fresh
// @Tags         steamview
// @Produce      json
// @Success      200 {object} steam.Library
// @Failure      502 {object} ErrorResponse
// @Failure      503 {object} ErrorResponse
// @Router       /steamview/games [get]
func (h *SteamHandler) GetGames(c *gin.Context) {
	lib, err := h.service.GetLibrary(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, lib)
}

// TestConnection godoc
// @ID           testSteamConnection
// @Summary      Check Steam credentials
// @Tags         steamview
// @Produce      json
// @Success      200 {object} steamapp.TestResult
// @Router       /steamview/test [get]
func (h *SteamHandler) TestConnection(c *gin.Context) {
	c.JSON(http.StatusOK, h.service.TestConnection(c.Request.Context()))
}

// Refresh godoc
// @ID           refreshSteamLibrary
// @Summary      Rebuild the Steam library
// @Description  Fetch the library from the Steam Web API regardless of cache age
// @Tags         steamview
// @Produce      json
// @Success      200 {object} steamapp.RefreshResult
// @Failure      401 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /steamview/refresh [post]
func (h *SteamHandler) Refresh(c *gin.Context) {
	c.JSON(http.StatusOK, h.service.Refresh(c.Request.Context()))
}

// ClearCache godoc
// @ID           clearSteamCache
// @Summary      Drop the cached Steam library
// @Tags         steamview
// @Success      204
// @Failure      401 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /steamview/cache [delete]
func (h *SteamHandler) ClearCache(c *gin.Context) {
	if err := h.service.ClearCache(c.Request.Context()); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}
