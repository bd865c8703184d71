package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadHubConfig_MissingFileYieldsEmptyConfig(t *testing.T) {
	cfg, err := LoadHubConfig(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	require.NoError(t, err)
	require.Empty(t, cfg.Env)
	require.Empty(t, cfg.IndexerSelect)
}

func TestLoadHubConfig_DecodesNestedStructure(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "hub.yaml")
	contents := `
env:
  - name: prod
    host: https://search.internal:9200
    concurrency: 5
    args:
      timeout: 30
    bulk:
      chunk_size: 500
indexer_select:
  build_config.name: CourseIndexer
snapshot:
  env:
    prod:
      repository:
        name: "hub-%(env)s-snapshots"
        type: s3
        settings:
          bucket: hub-snapshots
      cloud:
        type: aws
      monitor_delay: 45
`
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))

	cfg, err := LoadHubConfig(path)
	require.NoError(t, err)

	env, ok := cfg.EnvByName("prod")
	require.True(t, ok)
	require.Equal(t, "https://search.internal:9200", env.Host)
	require.Equal(t, 5, env.ConcurrencyOrDefault())

	require.Equal(t, "CourseIndexer", cfg.IndexerSelect["build_config.name"])

	snapCfg, ok := cfg.Snapshot.EnvByName("prod")
	require.True(t, ok)
	require.Equal(t, "s3", snapCfg.Repository.Type)
	require.Equal(t, "hub-%(env)s-snapshots", snapCfg.Repository.Name)
	require.Equal(t, 45, snapCfg.MonitorDelayOrDefault())
}

func TestConcurrencyOrDefault_FallsBackWhenUnset(t *testing.T) {
	require.Equal(t, 3, EnvConfig{}.ConcurrencyOrDefault())
}

func TestMonitorDelayOrDefault_FallsBackWhenUnset(t *testing.T) {
	require.Equal(t, 30, SnapshotEnvConfig{}.MonitorDelayOrDefault())
}

