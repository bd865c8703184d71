package config

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoad_DefaultsApplyWhenEnvUnset(t *testing.T) {
	for _, key := range []string{
		"MONGODB_URI", "MONGO_MAX_POOL_SIZE", "OPENSEARCH_HOSTS",
		"OPENSEARCH_VERIFY_CERTS", "MONGO_BATCH_SIZE", "NUM_WORKERS", "MAX_RETRIES",
	} {
		t.Setenv(key, "")
	}

	cfg := Load()
	require.Equal(t, "mongodb://localhost:27017/hub", cfg.MongoURI)
	require.Equal(t, 20, cfg.MongoMaxPoolSize)
	require.Equal(t, []string{"https://localhost:9200"}, cfg.OpenSearchHosts)
	require.False(t, cfg.OpenSearchVerifyCerts)
	require.Equal(t, 10000, cfg.MongoBatchSize)
	require.Equal(t, 8, cfg.NumWorkers)
	require.Equal(t, 3, cfg.MaxRetries)
}

func TestLoad_EnvOverridesDefaults(t *testing.T) {
	t.Setenv("MONGODB_URI", "mongodb://custom:27017/hub")
	t.Setenv("MONGO_MAX_POOL_SIZE", "50")
	t.Setenv("OPENSEARCH_HOSTS", "https://a:9200,https://b:9200")
	t.Setenv("OPENSEARCH_VERIFY_CERTS", "true")

	cfg := Load()
	require.Equal(t, "mongodb://custom:27017/hub", cfg.MongoURI)
	require.Equal(t, 50, cfg.MongoMaxPoolSize)
	require.Equal(t, []string{"https://a:9200", "https://b:9200"}, cfg.OpenSearchHosts)
	require.True(t, cfg.OpenSearchVerifyCerts)
}

func TestGetEnvInt_IgnoresUnparseableValue(t *testing.T) {
	t.Setenv("NUM_WORKERS", "not-a-number")
	cfg := Load()
	require.Equal(t, 8, cfg.NumWorkers)
}
