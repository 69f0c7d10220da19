// Package hospitals provides the find_hospitals tool: a lookup of
// medical facilities near a named place, backed by the OpenStreetMap
// Nominatim search API.
package hospitals

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/varshithaxx/MediBlaze-AI-Medical-Assistant-RAG/services/tools"
)

const (
	defaultBaseURL = "https://nominatim.openstreetmap.org"
	defaultLimit   = 5
	maxLimit       = 10
)

// Config holds connection settings for the geocoding API.
type Config struct {
	BaseURL string
	Timeout time.Duration
	// UserAgent is required by the Nominatim usage policy.
	UserAgent string
}

// Tool finds hospitals and clinics near a city or area.
type Tool struct {
	config     Config
	httpClient *http.Client
	logger     *zap.Logger
}

// New creates the tool with defaults filled in.
func New(config Config, logger *zap.Logger) *Tool {
	if config.BaseURL == "" {
		config.BaseURL = defaultBaseURL
	}
	if config.Timeout == 0 {
		config.Timeout = 10 * time.Second
	}
	if config.UserAgent == "" {
		config.UserAgent = "mediblaze-assistant/1.0"
	}
	return &Tool{
		config:     config,
		httpClient: &http.Client{Timeout: config.Timeout},
		logger:     logger,
	}
}

func (t *Tool) Name() string {
	return "find_hospitals"
}

func (t *Tool) Schema() tools.Schema {
	return tools.Schema{
		Name:        "find_hospitals",
		Description: "Find hospitals and clinics near a city or area. Use when the user asks where to get in-person medical care.",
		Parameters: map[string]tools.ParamSpec{
			"city": {
				Type:        tools.ParamTypeString,
				Description: "City or area to search near, e.g. \"Madrid\" or \"Brooklyn, NY\"",
				Required:    true,
			},
			"limit": {
				Type:        tools.ParamTypeInteger,
				Description: "Maximum number of facilities to return (default 5, max 10)",
			},
		},
	}
}

type place struct {
	DisplayName string `json:"display_name"`
	Type        string `json:"type"`
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
}

func (t *Tool) Invoke(ctx context.Context, args map[string]any) (string, error) {
	city, _ := args["city"].(string)
	city = strings.TrimSpace(city)
	if city == "" {
		return "", fmt.Errorf("city must not be empty")
	}

	limit := defaultLimit
	if raw, ok := args["limit"].(float64); ok {
		limit = int(raw)
		if limit < 1 {
			limit = 1
		}
		if limit > maxLimit {
			limit = maxLimit
		}
	}

	query := url.Values{}
	query.Set("q", "hospital in "+city)
	query.Set("format", "jsonv2")
	query.Set("limit", fmt.Sprintf("%d", limit))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, t.config.BaseURL+"/search?"+query.Encode(), nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", t.config.UserAgent)

	t.logger.Debug("looking up hospitals", zap.String("city", city), zap.Int("limit", limit))

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("facility lookup failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("facility lookup returned status %d", resp.StatusCode)
	}

	var places []place
	if err := json.NewDecoder(resp.Body).Decode(&places); err != nil {
		return "", fmt.Errorf("failed to decode facility response: %w", err)
	}

	if len(places) == 0 {
		return fmt.Sprintf("No hospitals found near %q. The place name may be misspelled, or coverage may be limited; suggest the user search a nearby larger city.", city), nil
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Hospitals near %s:\n", city)
	for i, p := range places {
		fmt.Fprintf(&sb, "%d. %s (coordinates: %s, %s)\n", i+1, p.DisplayName, p.Lat, p.Lon)
	}
	return sb.String(), nil
}

var _ tools.Tool = (*Tool)(nil)
