package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/halo-extras/backend/internal/infrastructure/auth"
	"github.com/halo-extras/backend/internal/infrastructure/config"
	"github.com/halo-extras/backend/internal/interfaces/http/dto"
	"github.com/halo-extras/backend/internal/interfaces/http/middleware"
)

type authFixture struct {
	router      *gin.Engine
	jwt         *auth.JWTService
	revocations *auth.MemoryRevocationStore
}

func newAuthFixture(t *testing.T, authenticator Authenticator) *authFixture {
	t.Helper()
	jwtService := auth.NewJWTService(config.JWTConfig{
		Secret:                "test-secret-key-at-least-32-chars",
		AccessTokenExpiration: 15 * time.Minute,
		Issuer:                "test-issuer",
	})
	revocations := auth.NewMemoryRevocationStore()
	h := NewAuthHandler(authenticator, jwtService, revocations)

	router := gin.New()
	router.POST("/auth/login", h.Login)
	protected := router.Group("/auth", middleware.JWTAuthMiddlewareWithConfig(middleware.JWTMiddlewareConfig{
		JWTService:  jwtService,
		Revocations: revocations,
	}))
	protected.POST("/logout", h.Logout)
	protected.GET("/me", h.GetCurrentUser)

	return &authFixture{router: router, jwt: jwtService, revocations: revocations}
}

func newTestAuthenticator(t *testing.T) *auth.AdminAuthenticator {
	t.Helper()
	hash, err := auth.HashPassword("s3cret-pass")
	require.NoError(t, err)
	return auth.NewAdminAuthenticator(config.AdminConfig{Username: "admin", PasswordHash: hash})
}

func (f *authFixture) do(method, path, body, token string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func TestAuthHandler_Login_Success(t *testing.T) {
	f := newAuthFixture(t, newTestAuthenticator(t))

	w := f.do(http.MethodPost, "/auth/login", `{"username":"admin","password":"s3cret-pass"}`, "")

	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Success bool          `json:"success"`
		Data    LoginResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, "admin", resp.Data.Username)
	assert.Equal(t, "Bearer", resp.Data.Token.TokenType)
	assert.True(t, resp.Data.Token.AccessTokenExpiresAt.After(time.Now()))

	claims, err := f.jwt.ValidateAccessToken(resp.Data.Token.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "admin", claims.Subject)
}

func TestAuthHandler_Login_InvalidCredentials(t *testing.T) {
	f := newAuthFixture(t, newTestAuthenticator(t))

	w := f.do(http.MethodPost, "/auth/login", `{"username":"admin","password":"wrong"}`, "")

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	resp := decodeResponse(t, w)
	require.NotNil(t, resp.Error)
	assert.Equal(t, dto.ErrCodeInvalidCredential, resp.Error.Code)
}

type failingAuthenticator struct{}

func (failingAuthenticator) Authenticate(string, string) error {
	return errors.New("hash corrupted")
}

func TestAuthHandler_Login_UnexpectedError(t *testing.T) {
	f := newAuthFixture(t, failingAuthenticator{})

	w := f.do(http.MethodPost, "/auth/login", `{"username":"admin","password":"x"}`, "")

	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestAuthHandler_Login_InvalidRequestBody(t *testing.T) {
	f := newAuthFixture(t, newTestAuthenticator(t))

	w := f.do(http.MethodPost, "/auth/login", `{"username":"admin"}`, "")

	assert.Equal(t, http.StatusBadRequest, w.Code)
	resp := decodeResponse(t, w)
	require.NotNil(t, resp.Error)
	assert.Equal(t, dto.ErrCodeValidation, resp.Error.Code)
}

func TestAuthHandler_Logout_RevokesToken(t *testing.T) {
	f := newAuthFixture(t, newTestAuthenticator(t))
	token, err := f.jwt.GenerateAccessToken("admin")
	require.NoError(t, err)

	w := f.do(http.MethodPost, "/auth/logout", "", token.Token)
	require.Equal(t, http.StatusOK, w.Code)

	revoked, err := f.revocations.IsRevoked(context.Background(), token.ID)
	require.NoError(t, err)
	assert.True(t, revoked)

	w = f.do(http.MethodGet, "/auth/me", "", token.Token)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	resp := decodeResponse(t, w)
	require.NotNil(t, resp.Error)
	assert.Equal(t, dto.ErrCodeTokenRevoked, resp.Error.Code)
}

func TestAuthHandler_Logout_Unauthorized(t *testing.T) {
	h := NewAuthHandler(newTestAuthenticator(t), nil, nil)
	router := gin.New()
	router.POST("/auth/logout", h.Logout)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/auth/logout", nil))

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthHandler_GetCurrentUser(t *testing.T) {
	f := newAuthFixture(t, newTestAuthenticator(t))
	token, err := f.jwt.GenerateAccessToken("admin")
	require.NoError(t, err)

	w := f.do(http.MethodGet, "/auth/me", "", token.Token)

	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Data CurrentUserResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "admin", resp.Data.Username)
	assert.WithinDuration(t, token.ExpiresAt, resp.Data.ExpiresAt, time.Second)
}
