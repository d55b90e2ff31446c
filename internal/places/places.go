// Package places searches for nearby locations through the SerpAPI Google
// Maps engine.
package places

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

const defaultEndpoint = "https://serpapi.com/search.json"

// Default coordinates used when a caller supplies none.
const (
	DefaultLat = 19.076
	DefaultLng = 72.8777
)

var ErrNoAPIKey = errors.New("places: SERPAPI_KEY is not configured")

type Place struct {
	Name    string   `json:"name"`
	Address string   `json:"address,omitempty"`
	Rating  float64  `json:"rating,omitempty"`
	Lat     *float64 `json:"lat"`
	Lng     *float64 `json:"lng"`
}

// Query is a free-text search, optionally centred on coordinates.
type Query struct {
	Text string
	Lat  *float64
	Lng  *float64
}

type Client struct {
	endpoint string
	apiKey   string
	http     *http.Client
	logger   *slog.Logger
}

type Option func(*Client)

func WithEndpoint(endpoint string) Option {
	return func(c *Client) { c.endpoint = endpoint }
}

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

func New(apiKey string, opts ...Option) *Client {
	c := &Client{
		endpoint: defaultEndpoint,
		apiKey:   apiKey,
		http:     &http.Client{Timeout: 10 * time.Second},
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type serpResponse struct {
	Error        string `json:"error"`
	LocalResults []struct {
		Title   string  `json:"title"`
		Address string  `json:"address"`
		Rating  float64 `json:"rating"`
		GPS     *struct {
			Latitude  float64 `json:"latitude"`
			Longitude float64 `json:"longitude"`
		} `json:"gps_coordinates"`
	} `json:"local_results"`
}

// Search returns matching places. An empty result is not an error.
func (c *Client) Search(ctx context.Context, q Query) ([]Place, error) {
	if c.apiKey == "" {
		return nil, ErrNoAPIKey
	}
	params := url.Values{}
	params.Set("engine", "google_maps")
	params.Set("q", q.Text)
	params.Set("api_key", c.apiKey)
	if q.Lat != nil && q.Lng != nil {
		params.Set("ll", fmt.Sprintf("@%s,%s,15z",
			strconv.FormatFloat(*q.Lat, 'f', -1, 64),
			strconv.FormatFloat(*q.Lng, 'f', -1, 64)))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build search request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, fmt.Errorf("read search response: %w", err)
	}
	var parsed serpResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("decode search response (status %d): %w", resp.StatusCode, err)
	}
	if resp.StatusCode >= 400 || parsed.Error != "" {
		return nil, fmt.Errorf("search failed with status %d: %s", resp.StatusCode, parsed.Error)
	}

	out := make([]Place, 0, len(parsed.LocalResults))
	for _, r := range parsed.LocalResults {
		p := Place{Name: r.Title, Address: r.Address, Rating: r.Rating}
		if r.GPS != nil {
			lat, lng := r.GPS.Latitude, r.GPS.Longitude
			p.Lat, p.Lng = &lat, &lng
		}
		out = append(out, p)
	}
	c.logger.Debug("place search", "query", q.Text, "results", len(out))
	return out, nil
}
