// Package steamapi is an HTTP client for the Steam Web API and storefront.
package steamapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/halo-extras/backend/internal/domain/steam"
)

const (
	// DefaultAPIBaseURL is the Steam Web API host
	DefaultAPIBaseURL = "https://api.steampowered.com"
	// DefaultStoreBaseURL is the storefront host serving appdetails
	DefaultStoreBaseURL = "https://store.steampowered.com"
	// DefaultLanguage is the storefront language for localized names
	DefaultLanguage = "schinese"
	// DefaultTimeout bounds a single request
	DefaultTimeout = 30 * time.Second

	maxResponseSize = 16 * 1024 * 1024
)

// Errors returned by the client
var (
	ErrRequestFailed  = errors.New("steam: request failed")
	ErrInvalidPayload = errors.New("steam: invalid response payload")
)

// Client implements steam.Client against the public endpoints
type Client struct {
	apiBaseURL   string
	storeBaseURL string
	language     string
	httpClient   *http.Client
	logger       *zap.Logger
}

// Option configures a Client
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) {
		if c != nil {
			cl.httpClient = c
		}
	}
}

// WithBaseURLs points the client at alternative API and store hosts
func WithBaseURLs(apiBaseURL, storeBaseURL string) Option {
	return func(cl *Client) {
		if apiBaseURL != "" {
			cl.apiBaseURL = apiBaseURL
		}
		if storeBaseURL != "" {
			cl.storeBaseURL = storeBaseURL
		}
	}
}

// WithLanguage sets the storefront language used for localized names
func WithLanguage(lang string) Option {
	return func(cl *Client) {
		if lang != "" {
			cl.language = lang
		}
	}
}

// WithLogger sets the client logger
func WithLogger(logger *zap.Logger) Option {
	return func(cl *Client) {
		if logger != nil {
			cl.logger = logger
		}
	}
}

// New creates a Steam client
func New(timeout time.Duration, opts ...Option) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	c := &Client{
		apiBaseURL:   DefaultAPIBaseURL,
		storeBaseURL: DefaultStoreBaseURL,
		language:     DefaultLanguage,
		httpClient:   &http.Client{Timeout: timeout},
		logger:       zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type vanityResponse struct {
	Response struct {
		Success int    `json:"success"`
		SteamID string `json:"steamid"`
		Message string `json:"message"`
	} `json:"response"`
}

type gameEntry struct {
	AppID                    json.Number `json:"appid"`
	Name                     string      `json:"name"`
	ImgIconURL               string      `json:"img_icon_url"`
	ImgLogoURL               string      `json:"img_logo_url"`
	HasCommunityVisibleStats bool        `json:"has_community_visible_stats"`
	PlaytimeForever          int64       `json:"playtime_forever"`
	Playtime2Weeks           int64       `json:"playtime_2weeks"`
	RTimeLastPlayed          int64       `json:"rtime_last_played"`
}

type gamesResponse struct {
	Response struct {
		GameCount int         `json:"game_count"`
		Games     []gameEntry `json:"games"`
	} `json:"response"`
}

type appDetails struct {
	Success bool `json:"success"`
	Data    struct {
		Name string `json:"name"`
	} `json:"data"`
}

// ResolveVanityURL maps a custom profile name to a 64-bit Steam ID
func (c *Client) ResolveVanityURL(ctx context.Context, apiKey, vanity string) (string, error) {
	q := url.Values{}
	q.Set("key", apiKey)
	q.Set("vanityurl", vanity)

	var resp vanityResponse
	if err := c.getJSON(ctx, c.apiBaseURL+"/ISteamUser/ResolveVanityURL/v0001/?"+q.Encode(), &resp); err != nil {
		return "", err
	}
	if resp.Response.Success != 1 {
		msg := resp.Response.Message
		if msg == "" {
			msg = "Unknown error"
		}
		return "", fmt.Errorf("Failed to resolve Steam ID: %s", msg)
	}
	return resp.Response.SteamID, nil
}

// GetOwnedGames lists the library including free games with app info
func (c *Client) GetOwnedGames(ctx context.Context, apiKey, steamID string) ([]steam.OwnedGame, error) {
	q := url.Values{}
	q.Set("key", apiKey)
	q.Set("steamid", steamID)
	q.Set("format", "json")
	q.Set("include_appinfo", "true")
	q.Set("include_played_free_games", "true")

	var resp gamesResponse
	if err := c.getJSON(ctx, c.apiBaseURL+"/IPlayerService/GetOwnedGames/v0001/?"+q.Encode(), &resp); err != nil {
		return nil, err
	}
	return toOwnedGames(resp.Response.Games), nil
}

// GetRecentlyPlayedGames lists games played in the last two weeks,
// which includes family-shared titles absent from the owned list
func (c *Client) GetRecentlyPlayedGames(ctx context.Context, apiKey, steamID string) ([]steam.OwnedGame, error) {
	q := url.Values{}
	q.Set("key", apiKey)
	q.Set("steamid", steamID)
	q.Set("format", "json")

	var resp gamesResponse
	if err := c.getJSON(ctx, c.apiBaseURL+"/IPlayerService/GetRecentlyPlayedGames/v0001/?"+q.Encode(), &resp); err != nil {
		return nil, err
	}
	return toOwnedGames(resp.Response.Games), nil
}

// GetLocalizedName returns the storefront name in the configured language,
// or "" when the store reports no entry for the app
func (c *Client) GetLocalizedName(ctx context.Context, appID string) (string, error) {
	q := url.Values{}
	q.Set("appids", appID)
	q.Set("l", c.language)

	var resp map[string]appDetails
	if err := c.getJSON(ctx, c.storeBaseURL+"/api/appdetails?"+q.Encode(), &resp); err != nil {
		return "", err
	}
	details, ok := resp[appID]
	if !ok || !details.Success {
		return "", nil
	}
	return details.Data.Name, nil
}

func (c *Client) getJSON(ctx context.Context, rawURL string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("steam: failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRequestFailed, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return fmt.Errorf("steam: failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		c.logger.Warn("Steam request failed",
			zap.String("path", req.URL.Path),
			zap.Int("status", resp.StatusCode))
		return fmt.Errorf("%w: HTTP %d", ErrRequestFailed, resp.StatusCode)
	}

	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	if err := dec.Decode(out); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	return nil
}

func toOwnedGames(entries []gameEntry) []steam.OwnedGame {
	games := make([]steam.OwnedGame, 0, len(entries))
	for _, e := range entries {
		appID := e.AppID.String()
		if n, err := e.AppID.Int64(); err == nil {
			appID = strconv.FormatInt(n, 10)
		}
		games = append(games, steam.OwnedGame{
			AppID:                    appID,
			Name:                     e.Name,
			ImgIconURL:               e.ImgIconURL,
			ImgLogoURL:               e.ImgLogoURL,
			HasCommunityVisibleStats: e.HasCommunityVisibleStats,
			PlaytimeForever:          e.PlaytimeForever,
			Playtime2Weeks:           e.Playtime2Weeks,
			RTimeLastPlayed:          e.RTimeLastPlayed,
		})
	}
	return games
}

var _ steam.Client = (*Client)(nil)
