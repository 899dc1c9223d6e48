package steam

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLibrary_FreshAt(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	lib := &Library{LastUpdated: now.Add(-23 * time.Hour).Format(time.RFC3339)}

	assert.True(t, lib.FreshAt(now, 24*time.Hour))
	assert.False(t, lib.FreshAt(now, 23*time.Hour), "exactly ttl old is stale")
	assert.False(t, (&Library{LastUpdated: "yesterday"}).FreshAt(now, 24*time.Hour))
}

func TestFormatLastPlayed(t *testing.T) {
	shanghai := time.FixedZone("CST", 8*3600)

	assert.Equal(t, NeverPlayed, FormatLastPlayed(0, shanghai))
	// 2024-01-31T20:00:00Z is already Feb 1st in UTC+8
	assert.Equal(t, "2024-02-01", FormatLastPlayed(1706731200, shanghai))
	assert.Equal(t, "2024-01-31", FormatLastPlayed(1706731200, time.UTC))
}

func TestCoverURL(t *testing.T) {
	assert.Equal(t, "https://cdn.cloudflare.steamstatic.com/steam/apps/570/header.jpg", CoverURL("570"))
}

func TestMergeOwnedFirst(t *testing.T) {
	owned := []OwnedGame{{AppID: "1", Name: "owned", PlaytimeForever: 10}, {AppID: "2", Name: "two"}}
	recent := []OwnedGame{{AppID: "1", Name: "recent", PlaytimeForever: 99}, {AppID: "3", Name: "shared"}}

	merged := MergeOwnedFirst(owned, recent)

	assert.Len(t, merged, 3)
	assert.Equal(t, "owned", merged[0].Name)
	assert.Equal(t, int64(10), merged[0].PlaytimeForever)
	assert.Equal(t, "shared", merged[2].Name)
}
