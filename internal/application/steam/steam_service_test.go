package steam

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/halo-extras/backend/internal/domain/shared"
	"github.com/halo-extras/backend/internal/domain/steam"
	"github.com/halo-extras/backend/internal/infrastructure/cache"
	"github.com/halo-extras/backend/internal/infrastructure/config"
)

// MockSteamClient is a mock implementation of steam.Client
type MockSteamClient struct {
	mock.Mock
}

func (m *MockSteamClient) ResolveVanityURL(ctx context.Context, apiKey, vanity string) (string, error) {
	args := m.Called(ctx, apiKey, vanity)
	return args.String(0), args.Error(1)
}

func (m *MockSteamClient) GetOwnedGames(ctx context.Context, apiKey, steamID string) ([]steam.OwnedGame, error) {
	args := m.Called(ctx, apiKey, steamID)
	games, _ := args.Get(0).([]steam.OwnedGame)
	return games, args.Error(1)
}

func (m *MockSteamClient) GetRecentlyPlayedGames(ctx context.Context, apiKey, steamID string) ([]steam.OwnedGame, error) {
	args := m.Called(ctx, apiKey, steamID)
	games, _ := args.Get(0).([]steam.OwnedGame)
	return games, args.Error(1)
}

func (m *MockSteamClient) GetLocalizedName(ctx context.Context, appID string) (string, error) {
	args := m.Called(ctx, appID)
	return args.String(0), args.Error(1)
}

// failingCache always errors on reads
type failingCache struct {
	steam.LibraryCache
}

func (failingCache) Get(context.Context) (*steam.Library, error) {
	return nil, errors.New("redis: connection refused")
}

func (failingCache) Save(context.Context, *steam.Library) error {
	return errors.New("redis: connection refused")
}

const steamID = "76561198000000000"

var fixedNow = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func testSteamConfig() config.SteamConfig {
	return config.SteamConfig{
		APIKey:             "key",
		SteamID:            steamID,
		RefreshIntervalHrs: 24,
		HiddenGames:        []string{"999"},
	}
}

func newTestService(client steam.Client, c steam.LibraryCache, cfg config.SteamConfig) *SteamService {
	svc := NewSteamService(client, c, cfg, time.UTC, nil)
	svc.now = func() time.Time { return fixedNow }
	return svc
}

func expectLibraryFetch(client *MockSteamClient) {
	client.On("GetOwnedGames", mock.Anything, "key", steamID).Return([]steam.OwnedGame{
		{AppID: "10", Name: "Counter-Strike", PlaytimeForever: 300, Playtime2Weeks: 30, RTimeLastPlayed: 1700000000},
		{AppID: "20", Name: "Portal", PlaytimeForever: 100},
		{AppID: "999", Name: "Hidden", PlaytimeForever: 5000},
	}, nil)
	client.On("GetRecentlyPlayedGames", mock.Anything, "key", steamID).Return([]steam.OwnedGame{
		{AppID: "10", Name: "ignored duplicate", Playtime2Weeks: 999},
		{AppID: "30", Name: "Shared Game", PlaytimeForever: 200, Playtime2Weeks: 60},
	}, nil)
	client.On("GetLocalizedName", mock.Anything, "10").Return("反恐精英", nil)
	client.On("GetLocalizedName", mock.Anything, "20").Return("", nil)
	client.On("GetLocalizedName", mock.Anything, "30").Return("", errors.New("store down"))
}

func TestSteamService_GetLibrary_BuildsAndCaches(t *testing.T) {
	ctx := context.Background()
	client := new(MockSteamClient)
	expectLibraryFetch(client)
	libCache := cache.NewInMemoryLibraryCache()

	lib, err := newTestService(client, libCache, testSteamConfig()).GetLibrary(ctx)
	require.NoError(t, err)

	assert.Equal(t, steam.Stats{TotalGames: 3, TotalTime: 600, TwoWeekTime: 90}, lib.Stats)
	assert.Equal(t, "2025-03-01T12:00:00Z", lib.LastUpdated)
	require.Len(t, lib.Games, 3)

	cs := lib.Games[0]
	assert.Equal(t, "10", cs.AppID)
	assert.Equal(t, "反恐精英", cs.Name)
	assert.Equal(t, steam.CoverURL("10"), cs.CoverURL)
	assert.Equal(t, 50.0, cs.TotalPercent)
	assert.Equal(t, 33.33, cs.TwoWeekPercent)
	assert.Equal(t, "2023-11-14", cs.LastPlayed)

	family := lib.Games[1]
	assert.Equal(t, "30", family.AppID)
	assert.Equal(t, "Shared Game", family.Name, "lookup failure keeps the name")
	assert.Equal(t, 66.67, family.TwoWeekPercent)

	portal := lib.Games[2]
	assert.Equal(t, "Portal", portal.Name)
	assert.Equal(t, steam.NeverPlayed, portal.LastPlayed)
	assert.Equal(t, 16.67, portal.TotalPercent)
	assert.Equal(t, 0.0, portal.TwoWeekPercent)

	cached, err := libCache.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, lib.LastUpdated, cached.LastUpdated)
}

func TestSteamService_GetLibrary_CacheFreshness(t *testing.T) {
	ctx := context.Background()

	t.Run("fresh cache is served", func(t *testing.T) {
		client := new(MockSteamClient)
		libCache := cache.NewInMemoryLibraryCache()
		require.NoError(t, libCache.Save(ctx, &steam.Library{
			Games:       []steam.Game{{AppID: "1"}},
			LastUpdated: fixedNow.Add(-23 * time.Hour).Format(time.RFC3339),
		}))

		lib, err := newTestService(client, libCache, testSteamConfig()).GetLibrary(ctx)
		require.NoError(t, err)
		assert.Len(t, lib.Games, 1)
		client.AssertNotCalled(t, "GetOwnedGames", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("stale cache is rebuilt", func(t *testing.T) {
		client := new(MockSteamClient)
		expectLibraryFetch(client)
		libCache := cache.NewInMemoryLibraryCache()
		require.NoError(t, libCache.Save(ctx, &steam.Library{
			LastUpdated: fixedNow.Add(-25 * time.Hour).Format(time.RFC3339),
		}))

		lib, err := newTestService(client, libCache, testSteamConfig()).GetLibrary(ctx)
		require.NoError(t, err)
		assert.Len(t, lib.Games, 3)
	})

	t.Run("cache errors count as a miss", func(t *testing.T) {
		client := new(MockSteamClient)
		expectLibraryFetch(client)

		lib, err := newTestService(client, failingCache{}, testSteamConfig()).GetLibrary(ctx)
		require.NoError(t, err)
		assert.Len(t, lib.Games, 3)
	})
}

func TestSteamService_MissingConfig(t *testing.T) {
	ctx := context.Background()

	cfg := testSteamConfig()
	cfg.APIKey = ""
	_, err := newTestService(new(MockSteamClient), cache.NewInMemoryLibraryCache(), cfg).GetLibrary(ctx)
	assert.ErrorIs(t, err, shared.ErrNotConfigured)
	assert.Equal(t, "Steam API Key 未配置", err.Error())

	cfg = testSteamConfig()
	cfg.SteamID = " "
	res := newTestService(new(MockSteamClient), cache.NewInMemoryLibraryCache(), cfg).TestConnection(ctx)
	assert.Equal(t, &TestResult{Message: "Steam ID 未配置"}, res)
}

func TestSteamService_ResolvesVanityName(t *testing.T) {
	ctx := context.Background()
	client := new(MockSteamClient)
	client.On("ResolveVanityURL", mock.Anything, "key", "gabelogannewell").Return(steamID, nil)
	client.On("GetOwnedGames", mock.Anything, "key", steamID).Return([]steam.OwnedGame{{AppID: "1"}, {AppID: "2"}}, nil)

	cfg := testSteamConfig()
	cfg.SteamID = "gabelogannewell"
	res := newTestService(client, cache.NewInMemoryLibraryCache(), cfg).TestConnection(ctx)
	assert.Equal(t, &TestResult{Success: true, Message: "连接成功！找到 2 个游戏", GameCount: 2}, res)
}

func TestSteamService_Refresh(t *testing.T) {
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		client := new(MockSteamClient)
		expectLibraryFetch(client)
		res := newTestService(client, cache.NewInMemoryLibraryCache(), testSteamConfig()).Refresh(ctx)
		assert.True(t, res.Success)
		assert.Equal(t, "刷新成功", res.Message)
		require.NotNil(t, res.Data)
		assert.Equal(t, 3, res.Data.Stats.TotalGames)
	})

	t.Run("failure", func(t *testing.T) {
		client := new(MockSteamClient)
		client.On("GetOwnedGames", mock.Anything, "key", steamID).Return(nil, errors.New("steam api returned 403"))
		client.On("GetRecentlyPlayedGames", mock.Anything, "key", steamID).Return([]steam.OwnedGame{}, nil)

		res := newTestService(client, cache.NewInMemoryLibraryCache(), testSteamConfig()).Refresh(ctx)
		assert.False(t, res.Success)
		assert.Equal(t, "刷新失败: steam api returned 403", res.Message)
		assert.Nil(t, res.Data)
	})
}

func TestSteamService_ClearAndRefreshIfStale(t *testing.T) {
	ctx := context.Background()
	client := new(MockSteamClient)
	expectLibraryFetch(client)
	libCache := cache.NewInMemoryLibraryCache()
	svc := newTestService(client, libCache, testSteamConfig())

	require.NoError(t, svc.RefreshIfStale(ctx))
	require.NoError(t, svc.RefreshIfStale(ctx))
	client.AssertNumberOfCalls(t, "GetOwnedGames", 1)

	require.NoError(t, svc.ClearCache(ctx))
	exists, err := libCache.Exists(ctx)
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestPercent(t *testing.T) {
	assert.Equal(t, 0.0, percent(5, 0))
	assert.Equal(t, 100.0, percent(7, 7))
	assert.Equal(t, 33.33, percent(1, 3))
	assert.Equal(t, 66.67, percent(2, 3))
}
