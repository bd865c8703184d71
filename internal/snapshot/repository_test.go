package snapshot

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestExpandTemplate_ResolvesKnownKeys(t *testing.T) {
	meta := map[string]any{"build_id": "b123", "env": "prod"}
	out, err := expandTemplate("snapshot-%(env)s-%(build_id)s", meta)
	require.NoError(t, err)
	require.Equal(t, "snapshot-prod-b123", out)
}

func TestExpandTemplate_FailsClosedOnUnresolvedKeys(t *testing.T) {
	_, err := expandTemplate("snapshot-%(missing)s", map[string]any{})
	require.Error(t, err)
	require.Contains(t, err.Error(), "missing")
}

func TestExpandTemplate_StringifiesNonStringValues(t *testing.T) {
	out, err := expandTemplate("shard-%(num)s", map[string]any{"num": 7})
	require.NoError(t, err)
	require.Equal(t, "shard-7", out)
}

func TestExpandSettings_ExpandsOnlyStringValues(t *testing.T) {
	meta := map[string]any{"env": "prod"}
	settings := map[string]any{
		"bucket":      "hub-%(env)s-snapshots",
		"max_retries": 3,
	}

	out, err := expandSettings(settings, meta)
	require.NoError(t, err)
	require.Equal(t, "hub-prod-snapshots", out["bucket"])
	require.Equal(t, 3, out["max_retries"])
}

func TestExpandSettings_FailsClosedOnUnresolvedKeys(t *testing.T) {
	_, err := expandSettings(map[string]any{"bucket": "hub-%(missing)s"}, map[string]any{})
	require.Error(t, err)
}
