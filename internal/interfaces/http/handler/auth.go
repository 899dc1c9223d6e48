package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/halo-extras/backend/internal/infrastructure/auth"
	"github.com/halo-extras/backend/internal/infrastructure/logger"
	"github.com/halo-extras/backend/internal/interfaces/http/dto"
	"github.com/halo-extras/backend/internal/interfaces/http/middleware"
)

// Authenticator verifies admin credentials
type Authenticator interface {
	Authenticate(username, password string) error
}

// AuthHandler handles admin login and logout
type AuthHandler struct {
	BaseHandler
	authenticator Authenticator
	jwtService    *auth.JWTService
	revocations   auth.RevocationStore
}

// NewAuthHandler creates a new auth handler. revocations may be nil, in
// which case logout only acknowledges the request.
func NewAuthHandler(authenticator Authenticator, jwtService *auth.JWTService, revocations auth.RevocationStore) *AuthHandler {
	return &AuthHandler{
		authenticator: authenticator,
		jwtService:    jwtService,
		revocations:   revocations,
	}
}

// Login godoc
// @ID           loginAdmin
// @Summary      Admin login
// @Description  Authenticate the configured administrator and issue an access token
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body LoginRequest true "Login credentials"
// @Success      200 {object} APIResponse[LoginResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Failure      429 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Router       /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	log := logger.L(c.Request.Context())
	if err := h.authenticator.Authenticate(req.Username, req.Password); err != nil {
		log.Warn("Admin login rejected", zap.String("username", req.Username), zap.String("ip", c.ClientIP()))
		if errors.Is(err, auth.ErrInvalidCredentials) {
			h.Unauthorized(c, dto.ErrCodeInvalidCredential, "Invalid username or password")
			return
		}
		h.HandleError(c, err)
		return
	}

	token, err := h.jwtService.GenerateAccessToken(req.Username)
	if err != nil {
		log.Error("Failed to issue access token", zap.Error(err))
		h.InternalError(c, "Failed to issue access token")
		return
	}

	log.Info("Admin logged in", zap.String("username", req.Username))
	h.Success(c, LoginResponse{
		Token: TokenResponse{
			AccessToken:          token.Token,
			AccessTokenExpiresAt: token.ExpiresAt,
			TokenType:            token.TokenType,
		},
		Username: req.Username,
	})
}

// Logout godoc
// @ID           logoutAdmin
// @Summary      Admin logout
// @Description  Revoke the current access token
// @Tags         auth
// @Produce      json
// @Success      200 {object} APIResponse[LogoutResponse]
// @Failure      401 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /auth/logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	claims := middleware.GetJWTClaims(c)
	if claims == nil {
		h.Unauthorized(c, dto.ErrCodeUnauthorized, "Authentication required")
		return
	}

	if h.revocations != nil && claims.ID != "" {
		if err := h.revocations.Revoke(c.Request.Context(), claims.ID, claims.GetRemainingTTL()); err != nil {
			logger.L(c.Request.Context()).Error("Failed to revoke token", zap.Error(err))
			h.InternalError(c, "Failed to revoke token")
			return
		}
	}

	h.Success(c, LogoutResponse{Message: "Logged out successfully"})
}

// GetCurrentUser godoc
// @ID           getCurrentAdmin
// @Summary      Get current user
// @Description  Describe the subject of the presented access token
// @Tags         auth
// @Produce      json
// @Success      200 {object} APIResponse[CurrentUserResponse]
// @Failure      401 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /auth/me [get]
func (h *AuthHandler) GetCurrentUser(c *gin.Context) {
	claims := middleware.GetJWTClaims(c)
	if claims == nil {
		h.Error(c, http.StatusUnauthorized, dto.ErrCodeUnauthorized, "Authentication required")
		return
	}

	resp := CurrentUserResponse{Username: claims.Subject}
	if claims.ExpiresAt != nil {
		resp.ExpiresAt = claims.ExpiresAt.Time
	}
	h.Success(c, resp)
}
