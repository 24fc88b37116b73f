package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/square-key-labs/voicebridge-ai/src/logger"
)

const (
	apiVersion     = "2023-11-01"
	defaultTopK    = 2
	defaultTimeout = 10 * time.Second

	// Returned for a hit whose chunk field is absent; absence is not an error
	missingChunkPlaceholder = "No content available"
)

// RetrievalError wraps a transport or backend failure. Callers treat it as
// recoverable; it must never take the session down.
type RetrievalError struct {
	Err error
}

func (e *RetrievalError) Error() string {
	return fmt.Sprintf("retrieval failed: %v", e.Err)
}

func (e *RetrievalError) Unwrap() error {
	return e.Err
}

// Client queries one Azure AI Search index with semantic ranking. One client
// is shared process-wide and injected into each session's tool bridge.
type Client struct {
	endpoint     string
	apiKey       string
	index        string
	semanticConf string
	topK         int
	httpClient   *http.Client
	log          *logger.Logger
}

// ClientConfig holds connection settings for Azure AI Search
type ClientConfig struct {
	Endpoint              string // e.g., "https://myservice.search.windows.net"
	APIKey                string
	Index                 string
	SemanticConfiguration string
	TopK                  int           // Results per query (default: 2)
	Timeout               time.Duration // Per-request deadline (default: 10s)
}

// NewClient creates a new Azure AI Search client
func NewClient(config ClientConfig) *Client {
	topK := config.TopK
	if topK == 0 {
		topK = defaultTopK
	}

	timeout := config.Timeout
	if timeout == 0 {
		timeout = defaultTimeout
	}

	return &Client{
		endpoint:     strings.TrimRight(config.Endpoint, "/"),
		apiKey:       config.APIKey,
		index:        config.Index,
		semanticConf: config.SemanticConfiguration,
		topK:         topK,
		httpClient:   &http.Client{Timeout: timeout},
		log:          logger.WithPrefix("AzureSearch"),
	}
}

type searchRequest struct {
	Search                string `json:"search"`
	Top                   int    `json:"top"`
	QueryType             string `json:"queryType"`
	SemanticConfiguration string `json:"semanticConfiguration,omitempty"`
}

type searchResponse struct {
	Value []searchDocument `json:"value"`
}

type searchDocument struct {
	Chunk *string `json:"chunk"`
}

// Search runs one semantic query and returns the ranked chunk texts. An
// empty slice is a valid outcome, not an error. Any transport or backend
// failure comes back as a *RetrievalError.
func (c *Client) Search(ctx context.Context, query string) ([]string, error) {
	c.log.Debug("Querying index %q with: %s", c.index, query)

	body, err := json.Marshal(searchRequest{
		Search:                query,
		Top:                   c.topK,
		QueryType:             "semantic",
		SemanticConfiguration: c.semanticConf,
	})
	if err != nil {
		return nil, &RetrievalError{Err: fmt.Errorf("failed to marshal search request: %w", err)}
	}

	url := fmt.Sprintf("%s/indexes/%s/docs/search?api-version=%s", c.endpoint, c.index, apiVersion)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, &RetrievalError{Err: fmt.Errorf("failed to build search request: %w", err)}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("api-key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &RetrievalError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return nil, &RetrievalError{
			Err: fmt.Errorf("search API returned %d: %s", resp.StatusCode, string(respBody)),
		}
	}

	var result searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, &RetrievalError{Err: fmt.Errorf("failed to decode search response: %w", err)}
	}

	chunks := make([]string, 0, len(result.Value))
	for _, doc := range result.Value {
		if doc.Chunk == nil {
			chunks = append(chunks, missingChunkPlaceholder)
			continue
		}
		chunks = append(chunks, *doc.Chunk)
	}

	c.log.Debug("Query returned %d chunks", len(chunks))
	return chunks, nil
}
