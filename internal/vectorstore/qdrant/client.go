package qdrant

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/qdrant/go-client/qdrant"
	"github.com/varshithaxx/MediBlaze-AI-Medical-Assistant-RAG/internal/vectorstore"
)

// Config holds Qdrant connection configuration.
type Config struct {
	// URL is the Qdrant server address (e.g., "https://example.qdrant.io:6334").
	URL string

	// Collection is the name of the collection holding the knowledge base.
	Collection string

	// APIKey is an optional API key for authentication.
	APIKey string
}

// Client implements vectorstore.VectorIndex over a Qdrant collection.
// The underlying gRPC connection is pooled and safe for concurrent use.
type Client struct {
	client     *qdrant.Client
	collection string
}

// New creates a new Qdrant index client.
func New(cfg Config) (*Client, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("qdrant url is required")
	}
	if cfg.Collection == "" {
		return nil, fmt.Errorf("qdrant collection is required")
	}

	parsedURL := cfg.URL
	if !strings.HasPrefix(parsedURL, "http://") && !strings.HasPrefix(parsedURL, "https://") {
		parsedURL = "https://" + parsedURL
	}

	u, err := url.Parse(parsedURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse qdrant url: %w", err)
	}

	host := u.Hostname()
	port := 6334 // default gRPC port
	if u.Port() != "" {
		p, err := strconv.Atoi(u.Port())
		if err != nil {
			return nil, fmt.Errorf("invalid port: %w", err)
		}
		port = p
	}

	qdrantClient, err := qdrant.NewClient(&qdrant.Config{
		Host:   host,
		Port:   port,
		APIKey: cfg.APIKey,
		UseTLS: u.Scheme == "https",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create qdrant client: %w", err)
	}

	return &Client{
		client:     qdrantClient,
		collection: cfg.Collection,
	}, nil
}

// Search implements vectorstore.VectorIndex.
func (c *Client) Search(ctx context.Context, vector []float32, topN int) ([]vectorstore.SearchHit, error) {
	limit := uint64(topN)
	points, err := c.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: c.collection,
		Query:          qdrant.NewQuery(vector...),
		Limit:          &limit,
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, fmt.Errorf("qdrant search failed: %w", err)
	}

	hits := make([]vectorstore.SearchHit, 0, len(points))
	for _, point := range points {
		hit := vectorstore.SearchHit{
			Score:    point.Score,
			Metadata: make(map[string]any),
		}

		if point.Id != nil {
			if id := point.Id.GetUuid(); id != "" {
				hit.ID = id
			} else {
				hit.ID = strconv.FormatUint(point.Id.GetNum(), 10)
			}
		}

		for k, v := range point.Payload {
			switch k {
			case "content", "text":
				if s := v.GetStringValue(); s != "" {
					hit.Content = s
				}
			case "source":
				if s := v.GetStringValue(); s != "" {
					hit.Source = s
				}
			default:
				hit.Metadata[k] = extractValue(v)
			}
		}

		hits = append(hits, hit)
	}

	return hits, nil
}

// Close implements vectorstore.VectorIndex.
func (c *Client) Close() error {
	return c.client.Close()
}

// extractValue extracts a Go value from a Qdrant payload value.
func extractValue(v *qdrant.Value) any {
	if v == nil {
		return nil
	}
	switch val := v.Kind.(type) {
	case *qdrant.Value_StringValue:
		return val.StringValue
	case *qdrant.Value_IntegerValue:
		return val.IntegerValue
	case *qdrant.Value_DoubleValue:
		return val.DoubleValue
	case *qdrant.Value_BoolValue:
		return val.BoolValue
	default:
		return nil
	}
}

// Compile-time check that Client implements VectorIndex.
var _ vectorstore.VectorIndex = (*Client)(nil)
