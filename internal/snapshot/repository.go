package snapshot

import (
	"context"
	"fmt"
	"regexp"

	"github.com/hub-search/indexcore/internal/config"
	"github.com/hub-search/indexcore/internal/opensearch"
	snapshots3 "github.com/hub-search/indexcore/internal/snapshot/s3"
)

// templatePattern matches the `%(key)s` placeholders spec §4.4.1 allows in
// a repository name and in any string setting value.
var templatePattern = regexp.MustCompile(`%\(([^)]+)\)s`)

// expandTemplate resolves every `%(key)s` occurrence in s against meta.
// Per spec §9 Design Notes, substitution is fail-closed: a key absent from
// meta is an error, not a literal "%(...)s" left in the final value.
func expandTemplate(s string, meta map[string]any) (string, error) {
	var missing error
	expanded := templatePattern.ReplaceAllStringFunc(s, func(m string) string {
		key := templatePattern.FindStringSubmatch(m)[1]
		v, ok := meta[key]
		if !ok {
			if missing == nil {
				missing = fmt.Errorf("template key %q not found in index metadata", key)
			}
			return m
		}
		return fmt.Sprintf("%v", v)
	})
	if missing != nil {
		return "", missing
	}
	return expanded, nil
}

func expandSettings(settings map[string]any, meta map[string]any) (map[string]any, error) {
	out := make(map[string]any, len(settings))
	for k, v := range settings {
		if s, ok := v.(string); ok {
			expanded, err := expandTemplate(s, meta)
			if err != nil {
				return nil, fmt.Errorf("setting %q: %w", k, err)
			}
			out[k] = expanded
			continue
		}
		out[k] = v
	}
	return out, nil
}

// ReconcileRepository implements spec §4.4.1: template-expand the config,
// fetch the repository, and create it (plus its backing bucket for
// type=s3) if it is missing. Returns the expanded repo_conf.
func ReconcileRepository(ctx context.Context, client *opensearch.Client, repoCfg config.RepositoryConfig, cloudCfg config.CloudConfig, meta map[string]any) (config.RepositoryConfig, error) {
	name, err := expandTemplate(repoCfg.Name, meta)
	if err != nil {
		return config.RepositoryConfig{}, fmt.Errorf("repository name: %w", err)
	}
	settings, err := expandSettings(repoCfg.Settings, meta)
	if err != nil {
		return config.RepositoryConfig{}, fmt.Errorf("repository %s: %w", name, err)
	}
	expanded := config.RepositoryConfig{
		Name:     name,
		Type:     repoCfg.Type,
		Settings: settings,
	}

	existing, err := client.GetRepository(ctx, expanded.Name)
	if err != nil {
		return expanded, fmt.Errorf("get repository %s: %w", expanded.Name, err)
	}
	if existing != nil {
		return expanded, nil
	}

	switch expanded.Type {
	case "s3":
		if cloudCfg.Type != "" && cloudCfg.Type != "aws" {
			return expanded, fmt.Errorf("unsupported cloud type %q: only aws is accepted", cloudCfg.Type)
		}
		bucket, _ := expanded.Settings["bucket"].(string)
		region, _ := expanded.Settings["region"].(string)
		if bucket == "" {
			return expanded, fmt.Errorf("repository %s: type=s3 requires settings.bucket", expanded.Name)
		}
		if err := snapshots3.EnsureBucket(ctx, snapshots3.Config{
			Bucket:          bucket,
			Region:          region,
			AccessKeyID:     cloudCfg.AccessKey,
			SecretAccessKey: cloudCfg.SecretKey,
		}); err != nil {
			return expanded, fmt.Errorf("ensure bucket for repository %s: %w", expanded.Name, err)
		}
	case "fs":
		// Mount is assumed present, per spec §4.4.1.
	default:
		// Other types pass settings through unchanged.
	}

	if err := client.CreateRepository(ctx, expanded.Name, expanded.Type, expanded.Settings); err != nil {
		return expanded, fmt.Errorf("create repository %s: %w", expanded.Name, err)
	}
	return expanded, nil
}
