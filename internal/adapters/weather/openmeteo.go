// Package weather fetches daily forecasts from an Open-Meteo compatible API.
package weather

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/hylla/famboard/internal/app"
	"github.com/hylla/famboard/internal/domain"
)

var _ app.WeatherSource = (*Client)(nil)

// DefaultBaseURL is the public Open-Meteo endpoint.
const DefaultBaseURL = "https://api.open-meteo.com"

// maxParallel bounds concurrent requests per Fetch.
const maxParallel = 4

// Config holds configuration for the client.
type Config struct {
	BaseURL           string
	Timeout           time.Duration
	RequestsPerSecond float64
	HTTPClient        *http.Client
}

// Client fetches one forecast per location.
type Client struct {
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
	timeout time.Duration
}

// New constructs a new value for this package.
func New(cfg Config) *Client {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		base = DefaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{}
	}
	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}
	return &Client{
		baseURL: base,
		http:    cfg.HTTPClient,
		limiter: rate.NewLimiter(limit, maxParallel),
		timeout: cfg.Timeout,
	}
}

// Fetch returns the forecast for date at every location, in location order. Any failure fails the call.
func (c *Client) Fetch(ctx context.Context, locations []domain.Location, date domain.Date) ([]domain.Weather, error) {
	if date.IsZero() {
		return nil, domain.ErrInvalidDate
	}
	for _, loc := range locations {
		if err := loc.Validate(); err != nil {
			return nil, fmt.Errorf("%w: %q", err, loc.Name)
		}
	}
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	out := make([]domain.Weather, len(locations))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxParallel)
	for i, loc := range locations {
		g.Go(func() error {
			w, err := c.fetchOne(gctx, loc, date)
			if err != nil {
				return fmt.Errorf("forecast for %s: %w", loc.Name, err)
			}
			out[i] = w
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

type forecastResponse struct {
	Daily struct {
		Time                        []string   `json:"time"`
		WeatherCode                 []int      `json:"weather_code"`
		TemperatureMax              []float64  `json:"temperature_2m_max"`
		TemperatureMin              []float64  `json:"temperature_2m_min"`
		PrecipitationProbabilityMax []*float64 `json:"precipitation_probability_max"`
	} `json:"daily"`
	Reason string `json:"reason"`
}

func (c *Client) fetchOne(ctx context.Context, loc domain.Location, date domain.Date) (domain.Weather, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return domain.Weather{}, fmt.Errorf("%w: %w", app.ErrFetchFailed, err)
	}
	q := url.Values{}
	q.Set("latitude", strconv.FormatFloat(loc.Latitude, 'f', 4, 64))
	q.Set("longitude", strconv.FormatFloat(loc.Longitude, 'f', 4, 64))
	q.Set("daily", "weather_code,temperature_2m_max,temperature_2m_min,precipitation_probability_max")
	q.Set("timezone", "auto")
	q.Set("start_date", date.String())
	q.Set("end_date", date.String())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v1/forecast?"+q.Encode(), nil)
	if err != nil {
		return domain.Weather{}, err
	}
	req.Header.Set("Accept", "application/json")
	resp, err := c.http.Do(req)
	if err != nil {
		return domain.Weather{}, fmt.Errorf("%w: %w", app.ErrFetchFailed, err)
	}
	defer resp.Body.Close()

	var body forecastResponse
	decodeErr := json.NewDecoder(resp.Body).Decode(&body)
	if resp.StatusCode != http.StatusOK {
		reason := strings.TrimSpace(body.Reason)
		if reason == "" {
			reason = resp.Status
		}
		return domain.Weather{}, fmt.Errorf("%w: %s", app.ErrFetchFailed, reason)
	}
	if decodeErr != nil {
		return domain.Weather{}, fmt.Errorf("%w: decode forecast: %w", app.ErrFetchFailed, decodeErr)
	}

	d := body.Daily
	idx := -1
	for i, raw := range d.Time {
		if raw == date.String() {
			idx = i
			break
		}
	}
	if idx < 0 || idx >= len(d.WeatherCode) || idx >= len(d.TemperatureMax) || idx >= len(d.TemperatureMin) {
		return domain.Weather{}, fmt.Errorf("%w: %w", app.ErrFetchFailed, errors.New("forecast missing requested day"))
	}
	w := domain.Weather{
		Location: loc,
		Date:     date,
		Code:     d.WeatherCode[idx],
		Summary:  domain.WeatherSummary(d.WeatherCode[idx]),
		TempMaxC: d.TemperatureMax[idx],
		TempMinC: d.TemperatureMin[idx],
	}
	if idx < len(d.PrecipitationProbabilityMax) && d.PrecipitationProbabilityMax[idx] != nil {
		w.PrecipitationChance = int(*d.PrecipitationProbabilityMax[idx] + 0.5)
	}
	return w, nil
}
