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

	"github.com/suPer8Hu/chat-platform/internal/chat"
)

const indexName = "messages"

// Client talks to Elasticsearch over its HTTP API.
type Client struct {
	baseURL string
	httpc   *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpc: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

type searchResult struct {
	Hits struct {
		Total struct {
			Value int64 `json:"value"`
		} `json:"total"`
		Hits []struct {
			ID     string          `json:"_id"`
			Source chat.MessageDoc `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}

func (c *Client) do(ctx context.Context, method, path, contentType string, body []byte) ([]byte, error) {
	var rdr io.Reader
	if body != nil {
		rdr = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rdr)
	if err != nil {
		return nil, err
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("elasticsearch %s %s: status %d: %s", method, path, resp.StatusCode, string(respBody))
	}
	return respBody, nil
}

// EnsureIndex creates the messages index if it does not exist yet.
func (c *Client) EnsureIndex(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, c.baseURL+"/"+indexName, nil)
	if err != nil {
		return err
	}
	resp, err := c.httpc.Do(req)
	if err != nil {
		return err
	}
	resp.Body.Close()
	if resp.StatusCode == http.StatusOK {
		return nil
	}

	mapping := map[string]any{
		"mappings": map[string]any{
			"properties": map[string]any{
				"id":        map[string]any{"type": "long"},
				"number":    map[string]any{"type": "long"},
				"body":      map[string]any{"type": "text"},
				"chatId":    map[string]any{"type": "long"},
				"createdAt": map[string]any{"type": "date"},
			},
		},
	}
	body, err := json.Marshal(mapping)
	if err != nil {
		return err
	}
	_, err = c.do(ctx, http.MethodPut, "/"+indexName, "application/json", body)
	return err
}

// IndexMessage writes one document keyed by message identity, so retried
// writes overwrite instead of duplicating.
func (c *Client) IndexMessage(ctx context.Context, doc chat.MessageDoc) error {
	body, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	path := fmt.Sprintf("/%s/_doc/%d", indexName, doc.ID)
	_, err = c.do(ctx, http.MethodPut, path, "application/json", body)
	return err
}

// BulkIndex writes a batch of documents in one ndjson request.
func (c *Client) BulkIndex(ctx context.Context, docs []chat.MessageDoc) error {
	if len(docs) == 0 {
		return nil
	}

	var buf bytes.Buffer
	for _, doc := range docs {
		action := map[string]any{
			"index": map[string]any{
				"_index": indexName,
				"_id":    fmt.Sprintf("%d", doc.ID),
			},
		}
		actionJSON, err := json.Marshal(action)
		if err != nil {
			return err
		}
		docJSON, err := json.Marshal(doc)
		if err != nil {
			return err
		}
		buf.Write(actionJSON)
		buf.WriteByte('\n')
		buf.Write(docJSON)
		buf.WriteByte('\n')
	}

	respBody, err := c.do(ctx, http.MethodPost, "/_bulk", "application/x-ndjson", buf.Bytes())
	if err != nil {
		return err
	}

	var result struct {
		Errors bool `json:"errors"`
	}
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil
	}
	if result.Errors {
		return fmt.Errorf("bulk index: some documents failed: %s", string(respBody))
	}
	return nil
}

// SearchMessages runs a free-text match on body, restricted to one chat.
// Wildcard mode matches partial tokens with a *query* pattern.
func (c *Client) SearchMessages(ctx context.Context, query string, chatID uint64, p chat.PageParams, wildcard bool) ([]chat.MessageDoc, int64, error) {
	var must map[string]any
	if wildcard {
		must = map[string]any{
			"wildcard": map[string]any{
				"body": fmt.Sprintf("*%s*", query),
			},
		}
	} else {
		must = map[string]any{
			"match": map[string]any{
				"body": query,
			},
		}
	}

	searchBody := map[string]any{
		"query": map[string]any{
			"bool": map[string]any{
				"must": []any{must},
				"filter": []any{
					map[string]any{
						"term": map[string]any{"chatId": chatID},
					},
				},
			},
		},
		"sort": []any{
			map[string]any{"number": "asc"},
		},
		"from": (p.Page - 1) * p.Limit,
		"size": p.Limit,
	}

	body, err := json.Marshal(searchBody)
	if err != nil {
		return nil, 0, err
	}

	respBody, err := c.do(ctx, http.MethodPost, "/"+indexName+"/_search", "application/json", body)
	if err != nil {
		return nil, 0, err
	}

	var result searchResult
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, 0, err
	}

	docs := make([]chat.MessageDoc, 0, len(result.Hits.Hits))
	for _, hit := range result.Hits.Hits {
		docs = append(docs, hit.Source)
	}
	return docs, result.Hits.Total.Value, nil
}

// HealthCheck verifies the cluster responds.
func (c *Client) HealthCheck(ctx context.Context) error {
	_, err := c.do(ctx, http.MethodGet, "/_cluster/health", "", nil)
	return err
}
