package knowledge

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"sort"
	"time"

	"github.com/jonathan/lmn-fulfillment/internal/types"
)

const (
	// DefaultTopK is the result count used when the caller does not specify one
	DefaultTopK = 5

	defaultEmbedModel  = "voyage-3-lite"
	defaultRerankModel = "rerank-2-lite"
	maxRetries         = 3
	initialRetryDelay  = 1 * time.Second
)

// Searcher is the read-only contract the generation agent consumes.
type Searcher interface {
	Search(ctx context.Context, query string, topK int) ([]types.KnowledgeSearchResult, error)
}

// Config holds the backend endpoints for the three search stages.
type Config struct {
	EmbedURL    string // embeddings endpoint (POST, bearer auth)
	RerankURL   string // cross-encoder rerank endpoint (POST, bearer auth)
	IndexURL    string // vector index query endpoint (POST, Api-Key auth)
	APIKey      string // key for the embed/rerank provider
	IndexAPIKey string // key for the vector index
	EmbedModel  string
	RerankModel string
}

// Client performs embedding-based retrieval against the coded reference index,
// followed by a cross-encoder rerank restricted to the retrieved top-K, so the
// returned order reflects rerank score rather than raw retrieval score.
type Client struct {
	cfg  Config
	http *http.Client
}

// NewClient creates a search client with sane model defaults.
func NewClient(cfg Config) *Client {
	if cfg.EmbedModel == "" {
		cfg.EmbedModel = defaultEmbedModel
	}
	if cfg.RerankModel == "" {
		cfg.RerankModel = defaultRerankModel
	}
	return &Client{
		cfg:  cfg,
		http: &http.Client{Timeout: 30 * time.Second},
	}
}

type embedRequest struct {
	Input     []string `json:"input"`
	Model     string   `json:"model"`
	InputType string   `json:"input_type"`
}

type embedResponse struct {
	Data []struct {
		Embedding []float32 `json:"embedding"`
	} `json:"data"`
}

type indexQueryRequest struct {
	Vector          []float32 `json:"vector"`
	TopK            int       `json:"topK"`
	IncludeMetadata bool      `json:"includeMetadata"`
}

type indexQueryResponse struct {
	Matches []struct {
		ID       string  `json:"id"`
		Score    float64 `json:"score"`
		Metadata struct {
			Code        string `json:"code"`
			Category    string `json:"category"`
			Description string `json:"description"`
		} `json:"metadata"`
	} `json:"matches"`
}

type rerankRequest struct {
	Query     string   `json:"query"`
	Documents []string `json:"documents"`
	Model     string   `json:"model"`
	TopK      int      `json:"top_k"`
}

type rerankResponse struct {
	Data []struct {
		Index          int     `json:"index"`
		RelevanceScore float64 `json:"relevance_score"`
	} `json:"data"`
}

type backendError struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

// Search returns up to topK coded reference entries ranked by rerank score.
// topK <= 0 selects DefaultTopK.
func (c *Client) Search(ctx context.Context, query string, topK int) ([]types.KnowledgeSearchResult, error) {
	if query == "" {
		return nil, &SearchError{Stage: "query", Message: "empty query"}
	}
	if topK <= 0 {
		topK = DefaultTopK
	}

	vector, err := c.embedQuery(ctx, query)
	if err != nil {
		return nil, err
	}

	candidates, err := c.queryIndex(ctx, vector, topK)
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		return []types.KnowledgeSearchResult{}, nil
	}

	return c.rerank(ctx, query, candidates, topK)
}

func (c *Client) embedQuery(ctx context.Context, query string) ([]float32, error) {
	req := embedRequest{Input: []string{query}, Model: c.cfg.EmbedModel, InputType: "query"}
	var resp embedResponse
	if err := c.postJSON(ctx, c.cfg.EmbedURL, "Bearer "+c.cfg.APIKey, req, &resp); err != nil {
		return nil, &SearchError{Stage: "embed", Message: "embedding backend failed", Cause: err}
	}
	if len(resp.Data) == 0 {
		return nil, &SearchError{Stage: "embed", Message: "no embedding returned"}
	}
	return resp.Data[0].Embedding, nil
}

func (c *Client) queryIndex(ctx context.Context, vector []float32, topK int) ([]types.KnowledgeSearchResult, error) {
	req := indexQueryRequest{Vector: vector, TopK: topK, IncludeMetadata: true}
	var resp indexQueryResponse
	if err := c.postJSON(ctx, c.cfg.IndexURL, "Api-Key "+c.cfg.IndexAPIKey, req, &resp); err != nil {
		return nil, &SearchError{Stage: "query", Message: "index backend failed", Cause: err}
	}

	results := make([]types.KnowledgeSearchResult, 0, len(resp.Matches))
	for _, match := range resp.Matches {
		results = append(results, types.KnowledgeSearchResult{
			Code:        match.Metadata.Code,
			Category:    match.Metadata.Category,
			Description: match.Metadata.Description,
			Score:       match.Score,
		})
	}
	return results, nil
}

// rerank re-scores the retrieved candidates with the cross-encoder. The
// candidate set is exactly the retrieved top-K; reranking never widens it.
func (c *Client) rerank(ctx context.Context, query string, candidates []types.KnowledgeSearchResult, topK int) ([]types.KnowledgeSearchResult, error) {
	docs := make([]string, len(candidates))
	for i, cand := range candidates {
		docs[i] = fmt.Sprintf("%s %s: %s", cand.Code, cand.Category, cand.Description)
	}

	req := rerankRequest{Query: query, Documents: docs, Model: c.cfg.RerankModel, TopK: topK}
	var resp rerankResponse
	if err := c.postJSON(ctx, c.cfg.RerankURL, "Bearer "+c.cfg.APIKey, req, &resp); err != nil {
		return nil, &SearchError{Stage: "rerank", Message: "rerank backend failed", Cause: err}
	}

	reranked := make([]types.KnowledgeSearchResult, 0, len(resp.Data))
	for _, item := range resp.Data {
		if item.Index < 0 || item.Index >= len(candidates) {
			return nil, &SearchError{Stage: "rerank", Message: fmt.Sprintf("rerank index %d out of range", item.Index)}
		}
		result := candidates[item.Index]
		result.Score = item.RelevanceScore
		reranked = append(reranked, result)
	}

	sort.SliceStable(reranked, func(i, j int) bool { return reranked[i].Score > reranked[j].Score })
	if len(reranked) > topK {
		reranked = reranked[:topK]
	}
	return reranked, nil
}

// postJSON issues a JSON POST with retry on rate limits and server errors.
func (c *Client) postJSON(ctx context.Context, url, auth string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt < maxRetries; attempt++ {
		if attempt > 0 {
			// Exponential backoff: 1s, 2s, 4s
			delay := time.Duration(math.Pow(2, float64(attempt))) * initialRetryDelay
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
		if err != nil {
			return fmt.Errorf("failed to create request: %w", err)
		}
		httpReq.Header.Set("Authorization", auth)
		httpReq.Header.Set("Content-Type", "application/json")

		resp, err := c.http.Do(httpReq)
		if err != nil {
			lastErr = fmt.Errorf("HTTP request failed: %w", err)
			continue
		}

		respBody, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			lastErr = fmt.Errorf("failed to read response body: %w", err)
			continue
		}

		if resp.StatusCode != http.StatusOK {
			var backendErr backendError
			if json.Unmarshal(respBody, &backendErr) == nil && backendErr.Error.Message != "" {
				lastErr = fmt.Errorf("backend error (%d): %s", resp.StatusCode, backendErr.Error.Message)
			} else {
				lastErr = fmt.Errorf("backend error (%d): %s", resp.StatusCode, string(respBody))
			}

			// Retry on rate limit (429) or server errors (5xx)
			if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
				continue
			}
			return lastErr
		}

		if err := json.Unmarshal(respBody, out); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
		return nil
	}

	return fmt.Errorf("max retries (%d) exceeded: %w", maxRetries, lastErr)
}
