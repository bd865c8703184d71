// Package opensearch wraps the search-engine collaborator described in
// spec §6: indices exists/create/delete/mapping, bulk writes, and the
// repository/snapshot endpoints the snapshot driver needs. Documents are
// passed as map[string]any; this package has no domain-specific schema.
package opensearch

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/opensearch-project/opensearch-go/v2"
	"github.com/opensearch-project/opensearch-go/v2/opensearchapi"

	"github.com/hub-search/indexcore/internal/config"
)

// Client wraps a search-engine connection for one indexer environment
// (spec §3: `{args, bulk, concurrency, name, host}`).
type Client struct {
	raw *opensearch.Client
}

// NewClient builds a client from the global scalar config and an
// environment's `args` map: `timeout` (seconds, applied as the transport's
// response-header timeout), `max_retries`, and `hosts`. A
// `retry_on_timeout` entry in args is not read.
func NewClient(cfg *config.Config, args map[string]any) (*Client, error) {
	timeout := 30 * time.Second
	if v, ok := args["timeout"]; ok {
		if secs, ok := toInt(v); ok {
			timeout = time.Duration(secs) * time.Second
		}
	}
	maxRetries := cfg.MaxRetries
	if v, ok := args["max_retries"]; ok {
		if n, ok := toInt(v); ok {
			maxRetries = n
		}
	}
	hosts := cfg.OpenSearchHosts
	if v, ok := args["hosts"]; ok {
		switch list := v.(type) {
		case []string:
			if len(list) > 0 {
				hosts = list
			}
		case []any:
			var strs []string
			for _, h := range list {
				if s, ok := h.(string); ok {
					strs = append(strs, s)
				}
			}
			if len(strs) > 0 {
				hosts = strs
			}
		}
	}

	transport := &http.Transport{
		TLSClientConfig: &tls.Config{
			InsecureSkipVerify: !cfg.OpenSearchVerifyCerts,
		},
		ResponseHeaderTimeout: timeout,
	}

	raw, err := opensearch.NewClient(opensearch.Config{
		Addresses:     hosts,
		Username:      cfg.OpenSearchUser,
		Password:      cfg.OpenSearchPassword,
		Transport:     transport,
		RetryOnStatus: []int{502, 503, 504},
		MaxRetries:    maxRetries,
	})
	if err != nil {
		return nil, fmt.Errorf("create opensearch client: %w", err)
	}

	res, err := raw.Info()
	if err != nil {
		return nil, fmt.Errorf("opensearch info: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return nil, fmt.Errorf("opensearch error: %s", res.String())
	}

	return &Client{raw: raw}, nil
}

// Close is a no-op, kept for interface symmetry with the source-store
// client's Close method.
func (c *Client) Close() error { return nil }

// Exists reports whether the named index exists (§4.1.1 preconditions).
func (c *Client) Exists(ctx context.Context, index string) (bool, error) {
	req := opensearchapi.IndicesExistsRequest{Index: []string{index}}
	res, err := req.Do(ctx, c.raw)
	if err != nil {
		return false, fmt.Errorf("indices.exists: %w", err)
	}
	defer res.Body.Close()
	return res.StatusCode == 200, nil
}

// Create issues indices.create with the given settings+mappings body
// (§4.1.1 "Creation body").
func (c *Client) Create(ctx context.Context, index string, body map[string]any) error {
	raw, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal create body: %w", err)
	}
	req := opensearchapi.IndicesCreateRequest{
		Index: index,
		Body:  bytes.NewReader(raw),
	}
	res, err := req.Do(ctx, c.raw)
	if err != nil {
		return fmt.Errorf("indices.create: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return fmt.Errorf("indices.create error: %s", res.String())
	}
	return nil
}

// Get fetches a single document's _source by id, returning ok=false if it
// does not exist. Used by merge-mode writes (§4.1.4 step 3) to read the
// currently-indexed document before deep-merging.
func (c *Client) Get(ctx context.Context, index, id string) (map[string]any, bool, error) {
	req := opensearchapi.GetRequest{Index: index, DocumentID: id}
	res, err := req.Do(ctx, c.raw)
	if err != nil {
		return nil, false, fmt.Errorf("get: %w", err)
	}
	defer res.Body.Close()
	if res.StatusCode == 404 {
		return nil, false, nil
	}
	if res.IsError() {
		return nil, false, fmt.Errorf("get error: %s", res.String())
	}
	var out struct {
		Source map[string]any `json:"_source"`
	}
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		return nil, false, fmt.Errorf("decode get response: %w", err)
	}
	return out.Source, true, nil
}

// Delete issues indices.delete with ignore_unavailable semantics (§4.1.1
// purge mode: "delete unconditionally (ignore-if-absent)").
func (c *Client) Delete(ctx context.Context, index string) error {
	req := opensearchapi.IndicesDeleteRequest{
		Index:             []string{index},
		IgnoreUnavailable: opensearchBoolPtr(true),
	}
	res, err := req.Do(ctx, c.raw)
	if err != nil {
		return fmt.Errorf("indices.delete: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() && res.StatusCode != 404 {
		return fmt.Errorf("indices.delete error: %s", res.String())
	}
	return nil
}

// GetMapping returns the live mapping for an index (§6 `indices.get_mapping`).
func (c *Client) GetMapping(ctx context.Context, index string) (map[string]any, error) {
	req := opensearchapi.IndicesGetMappingRequest{Index: []string{index}}
	res, err := req.Do(ctx, c.raw)
	if err != nil {
		return nil, fmt.Errorf("indices.get_mapping: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return nil, fmt.Errorf("indices.get_mapping error: %s", res.String())
	}
	var out map[string]any
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode mapping: %w", err)
	}
	return out, nil
}

// UpdateMappingMeta patches the live index's `_meta` (§6
// `indices.update_mapping_meta`, CLI verb `update_metadata`).
func (c *Client) UpdateMappingMeta(ctx context.Context, index string, meta map[string]any) error {
	body, err := json.Marshal(map[string]any{"_meta": meta})
	if err != nil {
		return fmt.Errorf("marshal meta: %w", err)
	}
	req := opensearchapi.IndicesPutMappingRequest{
		Index: []string{index},
		Body:  bytes.NewReader(body),
	}
	res, err := req.Do(ctx, c.raw)
	if err != nil {
		return fmt.Errorf("indices.put_mapping: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return fmt.Errorf("indices.put_mapping error: %s", res.String())
	}
	return nil
}

// BulkDoc is one document to write via BulkIndex.
type BulkDoc struct {
	ID     string
	Source map[string]any
}

// BulkResult reports the outcome of one bulk item.
type BulkResult struct {
	ID      string
	Success bool
	Err     string
}

// BulkIndex writes docs with the `index` opcode (create-or-overwrite),
// per spec §4.1.4 step 3. Per-document failures are reported in the
// returned slice and do not themselves return an error; only
// infrastructure failures (request/transport errors) return err.
func (c *Client) BulkIndex(ctx context.Context, index string, docs []BulkDoc) ([]BulkResult, error) {
	if len(docs) == 0 {
		return nil, nil
	}

	var buf bytes.Buffer
	for _, doc := range docs {
		action := map[string]any{
			"index": map[string]any{
				"_index": index,
				"_id":    doc.ID,
			},
		}
		actionBytes, _ := json.Marshal(action)
		buf.Write(actionBytes)
		buf.WriteByte('\n')

		docBytes, _ := json.Marshal(doc.Source)
		buf.Write(docBytes)
		buf.WriteByte('\n')
	}

	req := opensearchapi.BulkRequest{Body: strings.NewReader(buf.String())}
	res, err := req.Do(ctx, c.raw)
	if err != nil {
		return nil, fmt.Errorf("bulk request: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return nil, fmt.Errorf("bulk error: %s", res.String())
	}

	var bulkRes struct {
		Items []struct {
			Index struct {
				ID     string `json:"_id"`
				Status int    `json:"status"`
				Error  *struct {
					Reason string `json:"reason"`
				} `json:"error"`
			} `json:"index"`
		} `json:"items"`
	}
	if err := json.NewDecoder(res.Body).Decode(&bulkRes); err != nil {
		return nil, fmt.Errorf("decode bulk response: %w", err)
	}

	results := make([]BulkResult, len(bulkRes.Items))
	for i, item := range bulkRes.Items {
		ok := item.Index.Status >= 200 && item.Index.Status < 300
		reason := ""
		if item.Index.Error != nil {
			reason = item.Index.Error.Reason
		}
		results[i] = BulkResult{ID: item.Index.ID, Success: ok, Err: reason}
	}
	return results, nil
}

func toInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		return int(n), true
	default:
		return 0, false
	}
}

func opensearchBoolPtr(b bool) *bool { return &b }
