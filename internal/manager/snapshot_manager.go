package manager

import (
	"fmt"
	"time"

	"github.com/hub-search/indexcore/internal/errs"
	"github.com/hub-search/indexcore/internal/jobstate"
	"github.com/hub-search/indexcore/internal/opensearch"
	"github.com/hub-search/indexcore/internal/snapshot"
)

// SnapshotManager resolves a build/environment pair into a ready-to-run
// Snapshooter, sharing the IndexManager's single-flight guard (spec §4.5:
// "snapshot creation, publishing, and index creation never run
// concurrently within one manager").
type SnapshotManager struct {
	Index *IndexManager
}

// BuildSnapshooter constructs the Snapshooter for snapshotName against env,
// reading repository/cloud/monitor_delay from the hub config and the
// finished index's metadata for `%(key)s` template expansion.
func (m *SnapshotManager) BuildSnapshooter(buildID, snapshotName, env, indexName string, indexMeta map[string]any) (*snapshot.Snapshooter, error) {
	envCfg, ok := m.Index.Hub.EnvByName(env)
	if !ok {
		return nil, &errs.ConfigError{Key: "env." + env}
	}
	snapCfg, ok := m.Index.Hub.Snapshot.EnvByName(env)
	if !ok {
		return nil, &errs.ConfigError{Key: "snapshot.env." + env}
	}

	dest, err := opensearch.NewClient(m.Index.Cfg, envCfg.Args)
	if err != nil {
		return nil, fmt.Errorf("build opensearch client for env %s: %w", env, err)
	}

	store := m.Index.Store
	return &snapshot.Snapshooter{
		SnapshotName:     snapshotName,
		Index:            indexName,
		IndexMeta:        indexMeta,
		Dest:             dest,
		RepositoryConfig: snapCfg.Repository,
		CloudConfig:      snapCfg.Cloud,
		MonitorDelay:     time.Duration(snapCfg.MonitorDelayOrDefault()) * time.Second,
		Registrar: func(phase string) *jobstate.Registrar {
			return store.Registrar(buildID, "snapshot."+snapshotName+"."+phase)
		},
	}, nil
}
