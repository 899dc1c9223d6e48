// Package steam models the cached Steam game library shown on the site.
package steam

import (
	"context"
	"fmt"
	"time"
)

// NeverPlayed is the LastPlayed label for games without a play timestamp
const NeverPlayed = "从未游玩"

// OwnedGame is one entry returned by the Steam player service
type OwnedGame struct {
	AppID                    string
	Name                     string
	ImgIconURL               string
	ImgLogoURL               string
	HasCommunityVisibleStats bool
	PlaytimeForever          int64
	Playtime2Weeks           int64
	RTimeLastPlayed          int64
}

// Game is the display record of a game in the library
type Game struct {
	AppID          string  `json:"appId"`
	Name           string  `json:"name"`
	CoverURL       string  `json:"coverUrl"`
	TotalTime      int64   `json:"totalTime"`
	TwoWeekTime    int64   `json:"twoWeekTime"`
	LastPlayed     string  `json:"lastPlayed"`
	TotalPercent   float64 `json:"totalPercent"`
	TwoWeekPercent float64 `json:"twoWeekPercent"`
}

// Stats aggregates playtime over the whole library
type Stats struct {
	TotalGames  int   `json:"totalGames"`
	TotalTime   int64 `json:"totalTime"`
	TwoWeekTime int64 `json:"twoWeekTime"`
}

// Library is the cached payload served to the widget
type Library struct {
	Games       []Game `json:"games"`
	Stats       Stats  `json:"stats"`
	LastUpdated string `json:"lastUpdated"`
}

// UpdatedAt parses LastUpdated
func (l *Library) UpdatedAt() (time.Time, error) {
	return time.Parse(time.RFC3339, l.LastUpdated)
}

// FreshAt reports whether the library is younger than ttl at now
func (l *Library) FreshAt(now time.Time, ttl time.Duration) bool {
	updated, err := l.UpdatedAt()
	if err != nil {
		return false
	}
	return now.Sub(updated) < ttl
}

// CoverURL returns the store header image of an app
func CoverURL(appID string) string {
	return fmt.Sprintf("https://cdn.cloudflare.steamstatic.com/steam/apps/%s/header.jpg", appID)
}

// FormatLastPlayed renders a unix timestamp as a local calendar date
func FormatLastPlayed(rtime int64, loc *time.Location) string {
	if rtime <= 0 {
		return NeverPlayed
	}
	return time.Unix(rtime, 0).In(loc).Format("2006-01-02")
}

// MergeOwnedFirst combines owned and recently played games by app id.
// Owned entries win; recent-only entries such as family-shared games are appended.
func MergeOwnedFirst(owned, recent []OwnedGame) []OwnedGame {
	seen := make(map[string]struct{}, len(owned)+len(recent))
	merged := make([]OwnedGame, 0, len(owned)+len(recent))
	for _, g := range owned {
		if _, ok := seen[g.AppID]; ok {
			continue
		}
		seen[g.AppID] = struct{}{}
		merged = append(merged, g)
	}
	for _, g := range recent {
		if _, ok := seen[g.AppID]; ok {
			continue
		}
		seen[g.AppID] = struct{}{}
		merged = append(merged, g)
	}
	return merged
}

// Client is the Steam Web API surface used to build a library
type Client interface {
	ResolveVanityURL(ctx context.Context, apiKey, vanity string) (string, error)
	GetOwnedGames(ctx context.Context, apiKey, steamID string) ([]OwnedGame, error)
	GetRecentlyPlayedGames(ctx context.Context, apiKey, steamID string) ([]OwnedGame, error)
	// GetLocalizedName returns "" when the store has no localized entry
	GetLocalizedName(ctx context.Context, appID string) (string, error)
}

// LibraryCache stores the last built library
type LibraryCache interface {
	// Get returns the cached library; a missing entry yields shared.ErrNotFound
	Get(ctx context.Context) (*Library, error)
	Save(ctx context.Context, lib *Library) error
	Clear(ctx context.Context) error
	Exists(ctx context.Context) (bool, error)
}
