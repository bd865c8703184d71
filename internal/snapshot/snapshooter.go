// Package snapshot implements the Snapshooter of spec §4.4: per-environment
// snapshot driver with repository reconciliation, snapshot creation, a
// status poll loop, and job-state registration across the same
// pre/snapshot/post phase sequencing the Indexer uses.
package snapshot

import (
	"context"
	"fmt"
	"time"

	"github.com/hub-search/indexcore/internal/config"
	"github.com/hub-search/indexcore/internal/errs"
	"github.com/hub-search/indexcore/internal/jobstate"
	"github.com/hub-search/indexcore/internal/opensearch"
)

// Phase names, mirroring the indexer's pre/index/post triad (spec §4.4:
// "same sequencing semantics as the indexer").
const (
	PhasePre      = "pre"
	PhaseSnapshot = "snapshot"
	PhasePost     = "post"
)

// RegistrarFactory returns the job-state registrar for one phase, scoped to
// the build and snapshot this Snapshooter owns.
type RegistrarFactory func(phase string) *jobstate.Registrar

// Snapshooter drives one named snapshot against one environment.
type Snapshooter struct {
	SnapshotName string
	Index        string
	IndexMeta    map[string]any

	Dest *opensearch.Client

	RepositoryConfig config.RepositoryConfig
	CloudConfig      config.CloudConfig
	MonitorDelay     time.Duration

	Registrar RegistrarFactory
}

// Run executes the requested phases sequentially, recording job state the
// same way Indexer.Index does (spec §4.4: "same sequencing semantics").
func (s *Snapshooter) Run(ctx context.Context, steps []string) (map[string]any, error) {
	result := map[string]any{}

	for _, step := range steps {
		reg := s.Registrar(step)
		if err := reg.Started(ctx); err != nil {
			return result, fmt.Errorf("record %s started: %w", step, err)
		}

		var stepErr error
		switch step {
		case PhasePre:
			var repoConf config.RepositoryConfig
			repoConf, stepErr = ReconcileRepository(ctx, s.Dest, s.RepositoryConfig, s.CloudConfig, s.IndexMeta)
			if stepErr == nil {
				s.RepositoryConfig = repoConf
				result["repository"] = repoConf.Name
			}
		case PhaseSnapshot:
			stepErr = s.runSnapshot(ctx)
			if stepErr == nil {
				result["state"] = "success"
			}
		case PhasePost:
			// Reserved extension point; no-op by default, mirroring the
			// indexer's post_index.
		}

		if stepErr != nil {
			_ = reg.Failed(ctx, stepErr)
			return result, stepErr
		}
		if err := reg.Succeeded(ctx, nil); err != nil {
			return result, fmt.Errorf("record %s succeeded: %w", step, err)
		}
	}

	return result, nil
}

// runSnapshot implements spec §4.4.2: kick off the snapshot, then poll
// get_snapshot_status every monitor_delay seconds until a terminal state.
func (s *Snapshooter) runSnapshot(ctx context.Context) error {
	repoName := s.RepositoryConfig.Name
	if err := s.Dest.CreateSnapshot(ctx, repoName, s.SnapshotName, s.Index); err != nil {
		return fmt.Errorf("create snapshot %s: %w", s.SnapshotName, err)
	}

	delay := s.MonitorDelay
	if delay <= 0 {
		delay = 30 * time.Second
	}

	ticker := time.NewTicker(delay)
	defer ticker.Stop()

	for {
		status, err := s.Dest.GetSnapshotStatus(ctx, repoName, s.SnapshotName)
		if err != nil {
			return fmt.Errorf("poll snapshot %s: %w", s.SnapshotName, err)
		}

		switch status.State {
		case "SUCCESS":
			if status.ShardsFailed > 0 {
				return &errs.SnapshotPartial{State: status.State, ShardsFailed: status.ShardsFailed}
			}
			return nil
		case "FAILED":
			return &errs.SnapshotFailed{State: status.State}
		case "INIT", "IN_PROGRESS", "STARTED":
			// keep polling
		default:
			return &errs.SnapshotFailed{State: status.State}
		}

		select {
		case <-ticker.C:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
