package opensearch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/opensearch-project/opensearch-go/v2/opensearchapi"
)

// GetRepository returns the repository config if it exists, or
// (nil, nil) if it does not, per spec §4.4.1's `get_repository` primitive.
func (c *Client) GetRepository(ctx context.Context, name string) (map[string]any, error) {
	req := opensearchapi.SnapshotGetRepositoryRequest{Repository: []string{name}}
	res, err := req.Do(ctx, c.raw)
	if err != nil {
		return nil, fmt.Errorf("snapshot.repository.get: %w", err)
	}
	defer res.Body.Close()
	if res.StatusCode == 404 {
		return nil, nil
	}
	if res.IsError() {
		return nil, fmt.Errorf("snapshot.repository.get error: %s", res.String())
	}
	var out map[string]any
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode repository: %w", err)
	}
	repo, ok := out[name].(map[string]any)
	if !ok {
		return nil, fmt.Errorf("snapshot.repository.get: response missing repository %q", name)
	}
	return repo, nil
}

// CreateRepository registers a snapshot repository (§4.4.1).
func (c *Client) CreateRepository(ctx context.Context, name, repoType string, settings map[string]any) error {
	body, err := json.Marshal(map[string]any{
		"type":     repoType,
		"settings": settings,
	})
	if err != nil {
		return fmt.Errorf("marshal repository body: %w", err)
	}
	req := opensearchapi.SnapshotCreateRepositoryRequest{
		Repository: name,
		Body:       bytes.NewReader(body),
	}
	res, err := req.Do(ctx, c.raw)
	if err != nil {
		return fmt.Errorf("snapshot.repository.create: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return fmt.Errorf("snapshot.repository.create error: %s", res.String())
	}
	return nil
}

// CreateSnapshot kicks off an asynchronous snapshot of index into repo
// under snapshotName (§4.4.2 step 1).
func (c *Client) CreateSnapshot(ctx context.Context, repo, snapshotName, index string) error {
	body, err := json.Marshal(map[string]any{
		"indices":             index,
		"ignore_unavailable":  true,
		"include_global_state": false,
	})
	if err != nil {
		return fmt.Errorf("marshal snapshot body: %w", err)
	}
	req := opensearchapi.SnapshotCreateRequest{
		Repository: repo,
		Snapshot:   snapshotName,
		Body:       bytes.NewReader(body),
	}
	res, err := req.Do(ctx, c.raw)
	if err != nil {
		return fmt.Errorf("snapshot.create: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return fmt.Errorf("snapshot.create error: %s", res.String())
	}
	return nil
}

// SnapshotStatus is the decoded shape of `get_snapshot_status` (§4.4.2
// step 3): a lifecycle state plus shard failure counts.
type SnapshotStatus struct {
	State        string
	ShardsFailed int
}

// GetSnapshotStatus polls the current status of one snapshot.
func (c *Client) GetSnapshotStatus(ctx context.Context, repo, snapshotName string) (SnapshotStatus, error) {
	req := opensearchapi.SnapshotGetRequest{
		Repository: repo,
		Snapshot:   []string{snapshotName},
	}
	res, err := req.Do(ctx, c.raw)
	if err != nil {
		return SnapshotStatus{}, fmt.Errorf("snapshot.get: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return SnapshotStatus{}, fmt.Errorf("snapshot.get error: %s", res.String())
	}

	var out struct {
		Snapshots []struct {
			State       string `json:"state"`
			ShardsStats struct {
				Failed int `json:"failed"`
			} `json:"shards_stats"`
		} `json:"snapshots"`
	}
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		return SnapshotStatus{}, fmt.Errorf("decode snapshot status: %w", err)
	}
	if len(out.Snapshots) == 0 {
		return SnapshotStatus{State: "INIT"}, nil
	}
	s := out.Snapshots[0]
	return SnapshotStatus{State: s.State, ShardsFailed: s.ShardsStats.Failed}, nil
}
