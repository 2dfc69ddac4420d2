// Package config loads process configuration from environment variables
// (with optional .env support via godotenv), following tarsy's
// pkg/database.LoadConfigFromEnv pattern generalized to every recognised
// option in the external-interfaces contract: datastore URL, event-bus
// URL, vector-store DSN, legislation URLs, health-check interval, event
// replay window, heartbeat interval, embedding settings, chunk token
// targets, upload size ceiling, model tiers, semantic-cache settings,
// and the dead-letter retry count.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config is the umbrella configuration object for the whole process.
type Config struct {
	// Datastores
	DatabaseURL string
	RedisURL    string
	// VectorStoreDSN reuses DatabaseURL when empty, since the vector
	// index lives in Postgres tables (see DESIGN.md).
	VectorStoreDSN string

	// Legislation Gateway (C3)
	LegislationPrimaryURL  string
	LegislationFallbackURL string
	HealthCheckInterval    time.Duration
	HealthMaxFailures      int

	// Event Fabric (C1)
	EventReplayWindowSeconds int
	HeartbeatIntervalSeconds int

	// Retrieval Core (C2)
	EmbeddingModel      string
	EmbeddingDimensions int
	EmbeddingBatchSize  int
	ChunkTargetTokens    int
	ChunkMaxTokens       int
	ChunkOverlapTokens   int

	// Upload handling
	MaxUploadSizeBytes int64

	// Model routing (C5/C6)
	ModelFast     string
	ModelStandard string
	ModelAdvanced string

	// Semantic cache
	SemanticCacheThreshold float64
	SemanticCacheTTL       time.Duration

	// Document processing dead-letter
	MaxRetryCount int

	// QA gating (Open Question, see DESIGN.md): preserved as an
	// explicit switch rather than silently resolved.
	QATestingMode bool

	// Retention / cleanup sweep
	CleanupInterval            time.Duration
	DocumentStaleTimeoutSeconds int
}

// Load reads configuration from the environment, optionally loading a
// .env file first (tarsy's cmd/tarsy/main.go pattern). envPath may be
// empty, in which case only the process environment is consulted.
func Load(envPath string) (*Config, error) {
	if envPath != "" {
		if err := godotenv.Load(envPath); err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("loading env file %s: %w", envPath, err)
		}
	}

	healthInterval, err := parseDuration(getEnvOrDefault("HEALTH_CHECK_INTERVAL", "30s"))
	if err != nil {
		return nil, fmt.Errorf("invalid HEALTH_CHECK_INTERVAL: %w", err)
	}
	cacheTTL, err := parseDuration(getEnvOrDefault("SEMANTIC_CACHE_TTL", "720h")) // 30 days
	if err != nil {
		return nil, fmt.Errorf("invalid SEMANTIC_CACHE_TTL: %w", err)
	}

	replayWindow, err := strconv.Atoi(getEnvOrDefault("EVENT_REPLAY_WINDOW_SECONDS", "300"))
	if err != nil {
		return nil, fmt.Errorf("invalid EVENT_REPLAY_WINDOW_SECONDS: %w", err)
	}
	heartbeat, err := strconv.Atoi(getEnvOrDefault("HEARTBEAT_INTERVAL_SECONDS", "15"))
	if err != nil {
		return nil, fmt.Errorf("invalid HEARTBEAT_INTERVAL_SECONDS: %w", err)
	}
	embedDims, err := strconv.Atoi(getEnvOrDefault("EMBEDDING_DIMENSIONS", "1536"))
	if err != nil {
		return nil, fmt.Errorf("invalid EMBEDDING_DIMENSIONS: %w", err)
	}
	embedBatch, err := strconv.Atoi(getEnvOrDefault("EMBEDDING_BATCH_SIZE", "64"))
	if err != nil {
		return nil, fmt.Errorf("invalid EMBEDDING_BATCH_SIZE: %w", err)
	}
	chunkTarget, err := strconv.Atoi(getEnvOrDefault("CHUNK_TARGET_TOKENS", "400"))
	if err != nil {
		return nil, fmt.Errorf("invalid CHUNK_TARGET_TOKENS: %w", err)
	}
	chunkMax, err := strconv.Atoi(getEnvOrDefault("CHUNK_MAX_TOKENS", "600"))
	if err != nil {
		return nil, fmt.Errorf("invalid CHUNK_MAX_TOKENS: %w", err)
	}
	chunkOverlap, err := strconv.Atoi(getEnvOrDefault("CHUNK_OVERLAP_TOKENS", "50"))
	if err != nil {
		return nil, fmt.Errorf("invalid CHUNK_OVERLAP_TOKENS: %w", err)
	}
	maxUpload, err := strconv.ParseInt(getEnvOrDefault("MAX_UPLOAD_SIZE_BYTES", "26214400"), 10, 64) // 25MiB
	if err != nil {
		return nil, fmt.Errorf("invalid MAX_UPLOAD_SIZE_BYTES: %w", err)
	}
	cacheThreshold, err := strconv.ParseFloat(getEnvOrDefault("SEMANTIC_CACHE_THRESHOLD", "0.95"), 64)
	if err != nil {
		return nil, fmt.Errorf("invalid SEMANTIC_CACHE_THRESHOLD: %w", err)
	}
	maxRetry, err := strconv.Atoi(getEnvOrDefault("MAX_RETRY_COUNT", "3"))
	if err != nil {
		return nil, fmt.Errorf("invalid MAX_RETRY_COUNT: %w", err)
	}
	healthMaxFailures, err := strconv.Atoi(getEnvOrDefault("LEGISLATION_HEALTH_MAX_FAILURES", "3"))
	if err != nil {
		return nil, fmt.Errorf("invalid LEGISLATION_HEALTH_MAX_FAILURES: %w", err)
	}
	qaTestingMode, err := strconv.ParseBool(getEnvOrDefault("QA_TESTING_MODE", "true"))
	if err != nil {
		return nil, fmt.Errorf("invalid QA_TESTING_MODE: %w", err)
	}
	cleanupInterval, err := parseDuration(getEnvOrDefault("CLEANUP_INTERVAL", "1h"))
	if err != nil {
		return nil, fmt.Errorf("invalid CLEANUP_INTERVAL: %w", err)
	}
	staleTimeout, err := strconv.Atoi(getEnvOrDefault("DOCUMENT_STALE_TIMEOUT_SECONDS", "3600"))
	if err != nil {
		return nil, fmt.Errorf("invalid DOCUMENT_STALE_TIMEOUT_SECONDS: %w", err)
	}

	cfg := &Config{
		DatabaseURL:              os.Getenv("DATABASE_URL"),
		RedisURL:                 getEnvOrDefault("REDIS_URL", "redis://localhost:6379/0"),
		VectorStoreDSN:           os.Getenv("VECTOR_STORE_DSN"),
		LegislationPrimaryURL:    os.Getenv("LEGISLATION_PRIMARY_URL"),
		LegislationFallbackURL:   os.Getenv("LEGISLATION_FALLBACK_URL"),
		HealthCheckInterval:      healthInterval,
		HealthMaxFailures:        healthMaxFailures,
		EventReplayWindowSeconds: replayWindow,
		HeartbeatIntervalSeconds: heartbeat,
		EmbeddingModel:           getEnvOrDefault("EMBEDDING_MODEL", "text-embedding-3-small"),
		EmbeddingDimensions:      embedDims,
		EmbeddingBatchSize:       embedBatch,
		ChunkTargetTokens:        chunkTarget,
		ChunkMaxTokens:           chunkMax,
		ChunkOverlapTokens:       chunkOverlap,
		MaxUploadSizeBytes:       maxUpload,
		ModelFast:                getEnvOrDefault("MODEL_FAST", "claude-haiku-4-5"),
		ModelStandard:            getEnvOrDefault("MODEL_STANDARD", "claude-sonnet-4-5"),
		ModelAdvanced:            getEnvOrDefault("MODEL_ADVANCED", "claude-opus-4-1"),
		SemanticCacheThreshold:   cacheThreshold,
		SemanticCacheTTL:         cacheTTL,
		MaxRetryCount:            maxRetry,
		QATestingMode:            qaTestingMode,
		CleanupInterval:             cleanupInterval,
		DocumentStaleTimeoutSeconds: staleTimeout,
	}

	if cfg.VectorStoreDSN == "" {
		cfg.VectorStoreDSN = cfg.DatabaseURL
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that the required options are set and internally
// consistent.
func (c *Config) Validate() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if c.LegislationPrimaryURL == "" {
		return fmt.Errorf("LEGISLATION_PRIMARY_URL is required")
	}
	if c.HealthMaxFailures < 1 {
		return fmt.Errorf("LEGISLATION_HEALTH_MAX_FAILURES must be at least 1")
	}
	if c.SemanticCacheThreshold < 0 || c.SemanticCacheThreshold > 1 {
		return fmt.Errorf("SEMANTIC_CACHE_THRESHOLD must be between 0 and 1")
	}
	if c.ChunkOverlapTokens >= c.ChunkTargetTokens {
		return fmt.Errorf("CHUNK_OVERLAP_TOKENS must be less than CHUNK_TARGET_TOKENS")
	}
	return nil
}

// DefaultEnvPath returns the conventional .env location next to the
// binary's configured config directory, mirroring tarsy's cmd/tarsy
// flag-driven lookup.
func DefaultEnvPath(configDir string) string {
	return filepath.Join(configDir, ".env")
}

func parseDuration(s string) (time.Duration, error) {
	return time.ParseDuration(s)
}

func getEnvOrDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}
