package mapbox

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/goccy/go-json"
	"github.com/route-planner/internal/config"
	"github.com/route-planner/internal/domain"
	"go.uber.org/zap"
)

type client struct {
	httpClient  *http.Client
	baseURL     string
	accessToken string
	logger      *zap.Logger
}

// Client - прямой клиент Mapbox без защитных обёрток
type Client interface {
	GetDirections(ctx context.Context, profile string, from, to domain.Coordinate) ([]domain.Coordinate, error)
	SearchPlaces(ctx context.Context, query string, limit int) ([]domain.Place, error)
}

// NewMapboxClient создает новый клиент для Mapbox API
func NewMapboxClient(cfg *config.MapboxConfig, logger *zap.Logger) Client {
	return &client{
		httpClient: &http.Client{
			Timeout: time.Duration(cfg.RequestTimeout) * time.Second,
		},
		baseURL:     cfg.BaseURL,
		accessToken: cfg.AccessToken,
		logger:      logger,
	}
}

// GetDirections возвращает геометрию маршрута между двумя точками
func (c *client) GetDirections(
	ctx context.Context,
	profile string,
	from domain.Coordinate,
	to domain.Coordinate,
) ([]domain.Coordinate, error) {
	if profile == "" {
		return nil, fmt.Errorf("routing profile cannot be empty")
	}

	// Mapbox ожидает lon,lat;lon,lat
	coords := fmt.Sprintf("%f,%f;%f,%f", from.Lon, from.Lat, to.Lon, to.Lat)

	q := url.Values{}
	q.Set("geometries", "geojson")
	q.Set("overview", "full")
	q.Set("access_token", c.accessToken)

	reqURL := fmt.Sprintf("%s/directions/v5/mapbox/%s/%s?%s", c.baseURL, profile, coords, q.Encode())

	c.logger.Debug("Calling Mapbox Directions API",
		zap.String("profile", profile),
		zap.String("coordinates", coords))

	var dirResp domain.DirectionsResponse
	if err := c.getJSON(ctx, reqURL, &dirResp); err != nil {
		return nil, err
	}

	if dirResp.Code != "Ok" {
		c.logger.Error("Mapbox API returned non-OK code",
			zap.String("code", dirResp.Code),
			zap.String("message", dirResp.Message))
		return nil, fmt.Errorf("mapbox API returned code: %s", dirResp.Code)
	}

	if len(dirResp.Routes) == 0 {
		return nil, fmt.Errorf("mapbox API returned no routes")
	}

	raw := dirResp.Routes[0].Geometry.Coordinates
	path := make([]domain.Coordinate, 0, len(raw))
	for _, p := range raw {
		if len(p) < 2 {
			continue
		}
		path = append(path, domain.Coordinate{Lon: p[0], Lat: p[1]})
	}

	c.logger.Debug("Mapbox Directions API call successful",
		zap.Int("points", len(path)),
		zap.Float64("distance_m", dirResp.Routes[0].Distance))

	return path, nil
}

// SearchPlaces ищет места по свободному тексту через Geocoding API
func (c *client) SearchPlaces(ctx context.Context, query string, limit int) ([]domain.Place, error) {
	if query == "" {
		return nil, fmt.Errorf("query cannot be empty")
	}
	if limit <= 0 {
		limit = 5
	}

	q := url.Values{}
	q.Set("limit", strconv.Itoa(limit))
	q.Set("access_token", c.accessToken)

	reqURL := fmt.Sprintf("%s/geocoding/v5/mapbox.places/%s.json?%s",
		c.baseURL, url.PathEscape(query), q.Encode())

	var geoResp domain.GeocodingResponse
	if err := c.getJSON(ctx, reqURL, &geoResp); err != nil {
		return nil, err
	}

	places := make([]domain.Place, 0, len(geoResp.Features))
	for _, f := range geoResp.Features {
		if len(f.Center) < 2 {
			continue
		}
		places = append(places, domain.Place{
			ID:          f.ID,
			DisplayName: f.PlaceName,
			Coordinate:  domain.Coordinate{Lon: f.Center[0], Lat: f.Center[1]},
		})
	}

	return places, nil
}

func (c *client) getJSON(ctx context.Context, reqURL string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		c.logger.Error("Failed to create request", zap.Error(err))
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("Failed to execute request", zap.Error(err))
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		c.logger.Error("Mapbox API returned error",
			zap.Int("status_code", resp.StatusCode),
			zap.String("body", string(body)))
		return fmt.Errorf("mapbox API error: status %d, body: %s", resp.StatusCode, string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		c.logger.Error("Failed to decode response", zap.Error(err))
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return nil
}
