package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds the scalar configuration values that drive the source and
// destination clients. Everything that needs to vary per-environment or
// per-index lives in HubConfig instead (see hub.go).
type Config struct {
	// MongoDB
	MongoURI         string
	MongoDatabase    string
	MongoMaxPoolSize int // Connection pool limit
	MongoBulkDelayMs int // Delay between bulk writes

	// OpenSearch
	OpenSearchHosts       []string
	OpenSearchUser        string
	OpenSearchPassword    string
	OpenSearchVerifyCerts bool

	// Batch sizes
	MongoBatchSize     int
	OpenSearchBulkSize int

	// Workers
	NumWorkers int

	// Retry
	MaxRetries int
	RetryDelay int

	// HubConfigPath points at the YAML document describing indexer
	// environments, indexer-class selection rules, and snapshot
	// repositories (see HubConfig).
	HubConfigPath string
}

// Load reads configuration from environment variables.
func Load() *Config {
	// Load .env file if present
	_ = godotenv.Load()

	return &Config{
		// MongoDB
		MongoURI:         getEnv("MONGODB_URI", "mongodb://localhost:27017/hub"),
		MongoDatabase:    getEnv("MONGODB_DATABASE", "hub"),
		MongoMaxPoolSize: getEnvInt("MONGO_MAX_POOL_SIZE", 20),
		MongoBulkDelayMs: getEnvInt("MONGO_BULK_DELAY_MS", 0),

		// OpenSearch
		OpenSearchHosts:       strings.Split(getEnv("OPENSEARCH_HOSTS", "https://localhost:9200"), ","),
		OpenSearchUser:        getEnv("OPENSEARCH_USER", "admin"),
		OpenSearchPassword:    getEnv("OPENSEARCH_PASSWORD", "admin"),
		OpenSearchVerifyCerts: getEnv("OPENSEARCH_VERIFY_CERTS", "false") == "true",

		// Batch sizes
		MongoBatchSize:     getEnvInt("MONGO_BATCH_SIZE", 10000),
		OpenSearchBulkSize: getEnvInt("OPENSEARCH_BULK_SIZE", 1000),

		// Workers
		NumWorkers: getEnvInt("NUM_WORKERS", 8),

		// Retry
		MaxRetries: getEnvInt("MAX_RETRIES", 3),
		RetryDelay: getEnvInt("RETRY_DELAY", 5),

		HubConfigPath: getEnv("HUB_CONFIG_PATH", "hub.yaml"),
	}
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}
