package config

import (
	"fmt"
	"os"

	"github.com/go-viper/mapstructure/v2"
	"gopkg.in/yaml.v3"
)

// EnvConfig is the "Indexer environment" of spec §3: a named search-engine
// endpoint plus the tuning knobs that govern how workers write to it.
type EnvConfig struct {
	Name        string         `mapstructure:"name"`
	Host        string         `mapstructure:"host"`
	Args        map[string]any `mapstructure:"args"` // client kwargs: timeout, max_retries, retry_on_timeout, hosts
	Bulk        map[string]any `mapstructure:"bulk"`
	Concurrency int            `mapstructure:"concurrency"`
}

// RepositoryConfig describes a snapshot repository target (§6,
// `snapshot.env.<name>.repository`). Name and any string value under
// Settings may contain `%(key)s` placeholders resolved against index
// metadata at reconciliation time.
type RepositoryConfig struct {
	Name     string         `mapstructure:"name"`
	Type     string         `mapstructure:"type"` // s3 | fs | gcs | azure
	Settings map[string]any `mapstructure:"settings"`
}

// CloudConfig describes the cloud credentials used to provision a
// repository's backing storage (§6, `snapshot.env.<name>.cloud`).
type CloudConfig struct {
	Type      string `mapstructure:"type"` // only "aws" is accepted
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
}

// SnapshotEnvConfig is one environment's snapshot driver configuration.
type SnapshotEnvConfig struct {
	Repository   RepositoryConfig `mapstructure:"repository"`
	Cloud        CloudConfig      `mapstructure:"cloud"`
	MonitorDelay int              `mapstructure:"monitor_delay"` // seconds, default 30
}

// HubConfig is the full indexer-facing configuration surface described in
// spec §6: environments, indexer-class selection rules, and per-environment
// snapshot drivers. It is decoded from YAML via mapstructure so that nested,
// open-ended maps (Args/Bulk/Settings) stay as-is for the clients that
// consume them, while the structural fields get typed access.
type HubConfig struct {
	Env []EnvConfig `mapstructure:"env"`

	// IndexerSelect maps a dotted build-document path to a registered
	// indexer classpath (§4.5). The key "" (serialized as the literal
	// string "null" in YAML) is the explicit default override.
	IndexerSelect map[string]string `mapstructure:"indexer_select"`

	Snapshot SnapshotConfig `mapstructure:"snapshot"`
}

// SnapshotConfig holds `snapshot.env.<name>` (§6).
type SnapshotConfig struct {
	Env map[string]SnapshotEnvConfig `mapstructure:"env"`
}

// EnvByName returns the named environment's snapshot driver config, or
// ok=false if undeclared.
func (s SnapshotConfig) EnvByName(name string) (SnapshotEnvConfig, bool) {
	c, ok := s.Env[name]
	return c, ok
}

// EnvByName returns the named environment, or ok=false if undeclared.
func (h *HubConfig) EnvByName(name string) (EnvConfig, bool) {
	for _, e := range h.Env {
		if e.Name == name {
			return e, true
		}
	}
	return EnvConfig{}, false
}

// ConcurrencyOrDefault returns the configured per-environment batch concurrency
// bound, defaulting to 3 per spec §3.
func (e EnvConfig) ConcurrencyOrDefault() int {
	if e.Concurrency > 0 {
		return e.Concurrency
	}
	return 3
}

// MonitorDelayOrDefault returns the snapshot poll interval, defaulting to
// 30 seconds per spec §6.
func (s SnapshotEnvConfig) MonitorDelayOrDefault() int {
	if s.MonitorDelay > 0 {
		return s.MonitorDelay
	}
	return 30
}

// LoadHubConfig reads and decodes the YAML document at path. A missing file
// yields an empty, zero-value HubConfig rather than an error: every field
// the core consults has a documented default (§6), and an absent hub.yaml
// is a valid "use defaults everywhere" configuration.
func LoadHubConfig(path string) (*HubConfig, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &HubConfig{}, nil
		}
		return nil, fmt.Errorf("read hub config %s: %w", path, err)
	}

	var generic map[string]any
	if err := yaml.Unmarshal(raw, &generic); err != nil {
		return nil, fmt.Errorf("parse hub config %s: %w", path, err)
	}

	var cfg HubConfig
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &cfg,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return nil, fmt.Errorf("build hub config decoder: %w", err)
	}
	if err := dec.Decode(generic); err != nil {
		return nil, fmt.Errorf("decode hub config %s: %w", path, err)
	}

	return &cfg, nil
}
