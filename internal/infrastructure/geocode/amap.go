// Package geocode resolves addresses to coordinates through the Amap web service.
package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/halo-extras/backend/internal/domain/footprint"
	"github.com/halo-extras/backend/internal/domain/shared"
)

// DefaultAmapURL is the Amap v3 geocoding endpoint
const DefaultAmapURL = "https://restapi.amap.com/v3/geocode/geo"

const maxAmapResponseSize = 1 << 20

// Geocoding errors
var (
	ErrKeyNotConfigured = shared.NewDomainError("NOT_CONFIGURED", "高德地图Key未配置")
	ErrEmptyAddress     = shared.NewDomainError("INVALID_INPUT", "地址参数不能为空")
)

type amapResponse struct {
	Status   string `json:"status"`
	Info     string `json:"info"`
	Geocodes []struct {
		Location string `json:"location"`
	} `json:"geocodes"`
}

// AmapGeocoder implements footprint.Geocoder
type AmapGeocoder struct {
	key        string
	endpoint   string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewAmapGeocoder creates a geocoder for the given web service key
func NewAmapGeocoder(key, endpoint string, logger *zap.Logger) *AmapGeocoder {
	if endpoint == "" {
		endpoint = DefaultAmapURL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AmapGeocoder{
		key:        strings.TrimSpace(key),
		endpoint:   endpoint,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		logger:     logger,
	}
}

// Geocode returns the first match for address
func (g *AmapGeocoder) Geocode(ctx context.Context, address string) (footprint.Location, error) {
	address = strings.TrimSpace(address)
	if address == "" {
		return footprint.Location{}, ErrEmptyAddress
	}
	if g.key == "" {
		return footprint.Location{}, ErrKeyNotConfigured
	}

	q := url.Values{}
	q.Set("key", g.key)
	q.Set("address", address)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.endpoint+"?"+q.Encode(), nil)
	if err != nil {
		return footprint.Location{}, fmt.Errorf("geocode: failed to create request: %w", err)
	}
	resp, err := g.httpClient.Do(req)
	if err != nil {
		g.logger.Error("调用高德地图API失败", zap.String("address", address), zap.Error(err))
		return footprint.Location{}, fmt.Errorf("geocode: request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxAmapResponseSize))
	if err != nil {
		return footprint.Location{}, fmt.Errorf("geocode: failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return footprint.Location{}, fmt.Errorf("geocode: HTTP %d", resp.StatusCode)
	}

	var parsed amapResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return footprint.Location{}, shared.Errorf("GEOCODE_FAILED", "解析高德地图响应失败: %v", err)
	}
	if parsed.Status != "1" || len(parsed.Geocodes) == 0 {
		g.logger.Warn("高德地图API返回错误", zap.String("info", parsed.Info))
		return footprint.Location{}, shared.Errorf("GEOCODE_FAILED", "高德地图API返回错误: %s", parsed.Info)
	}
	return parseLocation(parsed.Geocodes[0].Location)
}

// parseLocation reads an Amap "lng,lat" pair
func parseLocation(s string) (footprint.Location, error) {
	parts := strings.Split(s, ",")
	if len(parts) < 2 {
		return footprint.Location{}, shared.Errorf("GEOCODE_FAILED", "解析高德地图响应失败: invalid location %q", s)
	}
	lng, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return footprint.Location{}, shared.Errorf("GEOCODE_FAILED", "解析高德地图响应失败: %v", err)
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return footprint.Location{}, shared.Errorf("GEOCODE_FAILED", "解析高德地图响应失败: %v", err)
	}
	return footprint.NewLocation(lng, lat)
}

var _ footprint.Geocoder = (*AmapGeocoder)(nil)
