// Package websearch provides the medical_web_search tool: a web lookup
// for current health information, restricted to reputable medical
// domains, backed by the DuckDuckGo instant-answer API.
package websearch

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
	defaultBaseURL = "https://api.duckduckgo.com"
	maxResults     = 3
)

// trustedSites narrows results to established medical sources. Queries
// are rewritten with site: operators the way the upstream engine
// understands them.
var trustedSites = []string{
	"who.int",
	"mayoclinic.org",
	"medlineplus.gov",
	"cdc.gov",
	"nih.gov",
	"healthline.com",
}

// Config holds connection settings for the search API.
type Config struct {
	BaseURL string
	Timeout time.Duration
}

// Tool searches the web for current medical information.
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
	return &Tool{
		config:     config,
		httpClient: &http.Client{Timeout: config.Timeout},
		logger:     logger,
	}
}

func (t *Tool) Name() string {
	return "medical_web_search"
}

func (t *Tool) Schema() tools.Schema {
	return tools.Schema{
		Name:        "medical_web_search",
		Description: "Search the web for current medical and health information from reputable sources. Use for recent research, health news, or topics not covered by the knowledge base.",
		Parameters: map[string]tools.ParamSpec{
			"query": {
				Type:        tools.ParamTypeString,
				Description: "Health topic to search for, e.g. \"latest RSV vaccine guidance\"",
				Required:    true,
			},
		},
	}
}

type searchResponse struct {
	AbstractText   string `json:"AbstractText"`
	AbstractSource string `json:"AbstractSource"`
	AbstractURL    string `json:"AbstractURL"`
	RelatedTopics  []struct {
		Text     string `json:"Text"`
		FirstURL string `json:"FirstURL"`
	} `json:"RelatedTopics"`
}

func (t *Tool) Invoke(ctx context.Context, args map[string]any) (string, error) {
	query, _ := args["query"].(string)
	query = strings.TrimSpace(query)
	if query == "" {
		return "", fmt.Errorf("query must not be empty")
	}

	params := url.Values{}
	params.Set("q", restrictedQuery(query))
	params.Set("format", "json")
	params.Set("no_html", "1")
	params.Set("skip_disambig", "1")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, t.config.BaseURL+"/?"+params.Encode(), nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	t.logger.Debug("searching web for medical information", zap.String("query", query))

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("web search failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("web search returned status %d", resp.StatusCode)
	}

	var result searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("failed to decode search response: %w", err)
	}

	out := render(result)
	if out == "" {
		return "No current web information found about that health topic. Recommend the user consult a healthcare professional for the most accurate information.", nil
	}
	return out, nil
}

// restrictedQuery appends site: operators so results come from trusted
// medical sources.
func restrictedQuery(query string) string {
	sites := make([]string, len(trustedSites))
	for i, s := range trustedSites {
		sites[i] = "site:" + s
	}
	return query + " " + strings.Join(sites, " OR ")
}

func render(result searchResponse) string {
	var sb strings.Builder

	if result.AbstractText != "" {
		fmt.Fprintf(&sb, "%s (source: %s, %s)\n", result.AbstractText, result.AbstractSource, result.AbstractURL)
	}

	count := 0
	for _, topic := range result.RelatedTopics {
		if topic.Text == "" || count >= maxResults {
			continue
		}
		fmt.Fprintf(&sb, "- %s (%s)\n", topic.Text, topic.FirstURL)
		count++
	}

	return strings.TrimSpace(sb.String())
}

var _ tools.Tool = (*Tool)(nil)
