// Package steam builds and caches the Steam game library shown by the widget.
package steam

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/halo-extras/backend/internal/domain/shared"
	"github.com/halo-extras/backend/internal/domain/steam"
	"github.com/halo-extras/backend/internal/infrastructure/config"
	"github.com/halo-extras/backend/internal/infrastructure/metrics"
)

// DefaultLocalizeConcurrency bounds parallel store lookups
const DefaultLocalizeConcurrency = 10

var (
	// ErrAPIKeyMissing is returned when steam.api_key is empty
	ErrAPIKeyMissing = shared.NewDomainError("NOT_CONFIGURED", "Steam API Key 未配置")
	// ErrSteamIDMissing is returned when steam.steam_id is empty
	ErrSteamIDMissing = shared.NewDomainError("NOT_CONFIGURED", "Steam ID 未配置")
)

var numericID = regexp.MustCompile(`^\d+$`)

// SteamService serves the game library from cache, rebuilding it from the
// Steam Web API once it is older than the refresh interval
type SteamService struct {
	client steam.Client
	cache  steam.LibraryCache
	cfg    config.SteamConfig
	hidden map[string]struct{}
	loc    *time.Location
	now    func() time.Time
	logger *zap.Logger
}

// NewSteamService creates a new SteamService. loc is the zone used to
// render last-played dates; nil means the local zone.
func NewSteamService(client steam.Client, cache steam.LibraryCache, cfg config.SteamConfig, loc *time.Location, logger *zap.Logger) *SteamService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if loc == nil {
		loc = time.Local
	}
	if cfg.RefreshIntervalHrs <= 0 {
		cfg.RefreshIntervalHrs = 24
	}
	if cfg.LocalizeConcurrency <= 0 {
		cfg.LocalizeConcurrency = DefaultLocalizeConcurrency
	}
	hidden := make(map[string]struct{}, len(cfg.HiddenGames))
	for _, id := range cfg.HiddenGames {
		hidden[strings.TrimSpace(id)] = struct{}{}
	}
	return &SteamService{
		client: client,
		cache:  cache,
		cfg:    cfg,
		hidden: hidden,
		loc:    loc,
		now:    time.Now,
		logger: logger,
	}
}

// GetLibrary returns the cached library while it is fresh, otherwise rebuilds it
func (s *SteamService) GetLibrary(ctx context.Context) (*steam.Library, error) {
	lib, err := s.cache.Get(ctx)
	switch {
	case err == nil && lib.FreshAt(s.now(), s.cfg.RefreshInterval()):
		metrics.SteamCacheLookups.WithLabelValues(metrics.OutcomeHit).Inc()
		s.logger.Debug("Serving Steam library from cache", zap.String("last_updated", lib.LastUpdated))
		return lib, nil
	case err != nil && !errors.Is(err, shared.ErrNotFound):
		s.logger.Warn("Steam cache read failed, treating as miss", zap.Error(err))
	}
	metrics.SteamCacheLookups.WithLabelValues(metrics.OutcomeMiss).Inc()
	return s.rebuild(ctx)
}

// Refresh rebuilds the library regardless of its age
func (s *SteamService) Refresh(ctx context.Context) *RefreshResult {
	lib, err := s.rebuild(ctx)
	if err != nil {
		return &RefreshResult{Message: "刷新失败: " + err.Error()}
	}
	return &RefreshResult{Success: true, Message: "刷新成功", Data: lib}
}

// ClearCache drops the cached library
func (s *SteamService) ClearCache(ctx context.Context) error {
	if err := s.cache.Clear(ctx); err != nil {
		return fmt.Errorf("failed to clear steam cache: %w", err)
	}
	s.logger.Info("Steam library cache cleared")
	return nil
}

// TestConnection checks the configured credentials by listing owned games
func (s *SteamService) TestConnection(ctx context.Context) *TestResult {
	steamID, err := s.steamID(ctx)
	if err != nil {
		if errors.Is(err, shared.ErrNotConfigured) {
			return &TestResult{Message: err.Error()}
		}
		return &TestResult{Message: "连接失败: " + err.Error()}
	}
	games, err := s.client.GetOwnedGames(ctx, s.cfg.APIKey, steamID)
	if err != nil {
		return &TestResult{Message: "连接失败: " + err.Error()}
	}
	return &TestResult{
		Success:   true,
		Message:   fmt.Sprintf("连接成功！找到 %d 个游戏", len(games)),
		GameCount: len(games),
	}
}

// RefreshIfStale rebuilds the library when the cache is missing or old.
// It backs the periodic refresh job.
func (s *SteamService) RefreshIfStale(ctx context.Context) error {
	lib, err := s.cache.Get(ctx)
	if err == nil && lib.FreshAt(s.now(), s.cfg.RefreshInterval()) {
		return nil
	}
	_, err = s.rebuild(ctx)
	return err
}

func (s *SteamService) rebuild(ctx context.Context) (lib *steam.Library, err error) {
	defer func() {
		metrics.SteamFetchTotal.WithLabelValues(metrics.Outcome(err)).Inc()
	}()

	lib, err = s.fetch(ctx)
	if err != nil {
		s.logger.Error("Failed to build Steam library", zap.Error(err))
		return nil, err
	}
	if err := s.cache.Save(ctx, lib); err != nil {
		// the fresh library is still served
		s.logger.Warn("Failed to cache Steam library", zap.Error(err))
	}
	s.logger.Info("Steam library rebuilt",
		zap.Int("games", lib.Stats.TotalGames),
		zap.Int64("total_minutes", lib.Stats.TotalTime))
	return lib, nil
}

func (s *SteamService) steamID(ctx context.Context) (string, error) {
	if strings.TrimSpace(s.cfg.APIKey) == "" {
		return "", ErrAPIKeyMissing
	}
	id := strings.TrimSpace(s.cfg.SteamID)
	if id == "" {
		return "", ErrSteamIDMissing
	}
	if numericID.MatchString(id) {
		return id, nil
	}
	resolved, err := s.client.ResolveVanityURL(ctx, s.cfg.APIKey, id)
	if err != nil {
		return "", fmt.Errorf("failed to resolve vanity name %q: %w", id, err)
	}
	return resolved, nil
}

func (s *SteamService) fetch(ctx context.Context) (*steam.Library, error) {
	steamID, err := s.steamID(ctx)
	if err != nil {
		return nil, err
	}

	var owned, recent []steam.OwnedGame
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		owned, err = s.client.GetOwnedGames(gctx, s.cfg.APIKey, steamID)
		return err
	})
	g.Go(func() error {
		var err error
		recent, err = s.client.GetRecentlyPlayedGames(gctx, s.cfg.APIKey, steamID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	merged := steam.MergeOwnedFirst(owned, recent)
	games := make([]steam.Game, 0, len(merged))
	for _, og := range merged {
		if _, hidden := s.hidden[og.AppID]; hidden {
			continue
		}
		games = append(games, steam.Game{
			AppID:       og.AppID,
			Name:        og.Name,
			CoverURL:    steam.CoverURL(og.AppID),
			TotalTime:   og.PlaytimeForever,
			TwoWeekTime: og.Playtime2Weeks,
			LastPlayed:  steam.FormatLastPlayed(og.RTimeLastPlayed, s.loc),
		})
	}

	s.localize(ctx, games)
	return s.assemble(games), nil
}

// localize swaps in store names for the configured language. Lookup
// failures keep the original name.
func (s *SteamService) localize(ctx context.Context, games []steam.Game) {
	g := new(errgroup.Group)
	g.SetLimit(s.cfg.LocalizeConcurrency)
	for i := range games {
		g.Go(func() error {
			name, err := s.client.GetLocalizedName(ctx, games[i].AppID)
			if err != nil {
				s.logger.Debug("Localized name lookup failed",
					zap.String("app_id", games[i].AppID),
					zap.Error(err))
				return nil
			}
			if name != "" {
				games[i].Name = name
			}
			return nil
		})
	}
	_ = g.Wait()
}

func (s *SteamService) assemble(games []steam.Game) *steam.Library {
	var total, twoWeeks int64
	for _, g := range games {
		total += g.TotalTime
		twoWeeks += g.TwoWeekTime
	}
	for i := range games {
		games[i].TotalPercent = percent(games[i].TotalTime, total)
		games[i].TwoWeekPercent = percent(games[i].TwoWeekTime, twoWeeks)
	}
	sort.SliceStable(games, func(i, j int) bool {
		if games[i].TotalTime != games[j].TotalTime {
			return games[i].TotalTime > games[j].TotalTime
		}
		return games[i].AppID < games[j].AppID
	})

	return &steam.Library{
		Games: games,
		Stats: steam.Stats{
			TotalGames:  len(games),
			TotalTime:   total,
			TwoWeekTime: twoWeeks,
		},
		LastUpdated: s.now().UTC().Format(time.RFC3339),
	}
}

// percent returns part*100/whole rounded to two decimals, 0 when whole is 0
func percent(part, whole int64) float64 {
	if whole <= 0 {
		return 0
	}
	f, _ := decimal.NewFromInt(part).
		Mul(decimal.NewFromInt(100)).
		DivRound(decimal.NewFromInt(whole), 2).
		Float64()
	return f
}
