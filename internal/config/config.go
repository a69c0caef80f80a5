package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/ligastats/ligastats/internal/platform/logging"
)

const (
	EnvDev   = "dev"
	EnvStage = "stage"
	EnvProd  = "prod"
)

// Config stores runtime configuration for the service.
type Config struct {
	AppEnv                         string
	ServiceName                    string
	ServiceVersion                 string
	DBURL                          string
	DBDisablePreparedBinary        bool
	CacheEnabled                   bool
	CacheTTL                       time.Duration
	StreakLength                   int
	RecomputeMaxWorkers            int
	StatsFeedEnabled               bool
	StatsFeedBaseURL               string
	StatsFeedToken                 string
	StatsFeedTimeout               time.Duration
	StatsFeedMaxRetries            int
	StatsFeedCircuitEnabled        bool
	StatsFeedCircuitFailureCount   int
	StatsFeedCircuitOpenTimeout    time.Duration
	StatsFeedCircuitHalfOpenMaxReq int
	UptraceEnabled                 bool
	UptraceDSN                     string
	PyroscopeEnabled               bool
	PyroscopeServerAddress         string
	PyroscopeAppName               string
	PyroscopeAuthToken             string
	PyroscopeUploadRate            time.Duration
	LogLevel                       logging.Level
}

func Load() (Config, error) {
	appEnv, err := parseAppEnv(getEnv("APP_ENV", EnvDev))
	if err != nil {
		return Config{}, err
	}

	dbDisablePreparedBinary, err := strconv.ParseBool(getEnv("DB_DISABLE_PREPARED_BINARY_RESULT", "true"))
	if err != nil {
		return Config{}, fmt.Errorf("parse DB_DISABLE_PREPARED_BINARY_RESULT: %w", err)
	}

	cacheEnabled, err := strconv.ParseBool(getEnv("CACHE_ENABLED", "true"))
	if err != nil {
		return Config{}, fmt.Errorf("parse CACHE_ENABLED: %w", err)
	}
	cacheTTL, err := time.ParseDuration(getEnv("CACHE_TTL", "60s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse CACHE_TTL: %w", err)
	}
	if cacheTTL <= 0 {
		return Config{}, fmt.Errorf("CACHE_TTL must be > 0")
	}

	streakLength, err := getEnvAsInt("STREAK_LENGTH", 5)
	if err != nil {
		return Config{}, fmt.Errorf("parse STREAK_LENGTH: %w", err)
	}
	if streakLength < 1 {
		return Config{}, fmt.Errorf("STREAK_LENGTH must be >= 1")
	}

	recomputeMaxWorkers, err := getEnvAsInt("RECOMPUTE_MAX_WORKERS", 4)
	if err != nil {
		return Config{}, fmt.Errorf("parse RECOMPUTE_MAX_WORKERS: %w", err)
	}
	if recomputeMaxWorkers < 1 {
		return Config{}, fmt.Errorf("RECOMPUTE_MAX_WORKERS must be >= 1")
	}

	statsFeedEnabled, err := strconv.ParseBool(getEnv("STATSFEED_ENABLED", "false"))
	if err != nil {
		return Config{}, fmt.Errorf("parse STATSFEED_ENABLED: %w", err)
	}
	statsFeedTimeout, err := time.ParseDuration(getEnv("STATSFEED_TIMEOUT", "20s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse STATSFEED_TIMEOUT: %w", err)
	}
	if statsFeedTimeout <= 0 {
		return Config{}, fmt.Errorf("STATSFEED_TIMEOUT must be > 0")
	}
	statsFeedMaxRetries, err := getEnvAsInt("STATSFEED_MAX_RETRIES", 1)
	if err != nil {
		return Config{}, fmt.Errorf("parse STATSFEED_MAX_RETRIES: %w", err)
	}
	if statsFeedMaxRetries < 0 {
		return Config{}, fmt.Errorf("STATSFEED_MAX_RETRIES must be >= 0")
	}
	statsFeedCircuitEnabled, err := strconv.ParseBool(getEnv("STATSFEED_CIRCUIT_ENABLED", "true"))
	if err != nil {
		return Config{}, fmt.Errorf("parse STATSFEED_CIRCUIT_ENABLED: %w", err)
	}
	statsFeedCircuitFailureCount, err := getEnvAsInt("STATSFEED_CIRCUIT_FAILURE_COUNT", 5)
	if err != nil {
		return Config{}, fmt.Errorf("parse STATSFEED_CIRCUIT_FAILURE_COUNT: %w", err)
	}
	if statsFeedCircuitFailureCount < 1 {
		return Config{}, fmt.Errorf("STATSFEED_CIRCUIT_FAILURE_COUNT must be >= 1")
	}
	statsFeedCircuitOpenTimeout, err := time.ParseDuration(getEnv("STATSFEED_CIRCUIT_OPEN_TIMEOUT", "15s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse STATSFEED_CIRCUIT_OPEN_TIMEOUT: %w", err)
	}
	if statsFeedCircuitOpenTimeout <= 0 {
		return Config{}, fmt.Errorf("STATSFEED_CIRCUIT_OPEN_TIMEOUT must be > 0")
	}
	statsFeedCircuitHalfOpenMaxReq, err := getEnvAsInt("STATSFEED_CIRCUIT_HALF_OPEN_MAX_REQ", 2)
	if err != nil {
		return Config{}, fmt.Errorf("parse STATSFEED_CIRCUIT_HALF_OPEN_MAX_REQ: %w", err)
	}
	if statsFeedCircuitHalfOpenMaxReq < 1 {
		return Config{}, fmt.Errorf("STATSFEED_CIRCUIT_HALF_OPEN_MAX_REQ must be >= 1")
	}
	statsFeedBaseURL := strings.TrimSpace(getEnv("STATSFEED_BASE_URL", "https://feed.ligastats.dev/v1"))
	statsFeedToken := strings.TrimSpace(getEnv("STATSFEED_TOKEN", ""))
	if statsFeedEnabled && statsFeedToken == "" {
		return Config{}, fmt.Errorf("STATSFEED_TOKEN is required when STATSFEED_ENABLED=true")
	}

	uptraceEnabled, err := strconv.ParseBool(getEnv("UPTRACE_ENABLED", "false"))
	if err != nil {
		return Config{}, fmt.Errorf("parse UPTRACE_ENABLED: %w", err)
	}
	uptraceDSN := strings.TrimSpace(getEnv("UPTRACE_DSN", ""))
	if uptraceEnabled && uptraceDSN == "" {
		return Config{}, fmt.Errorf("UPTRACE_DSN is required when UPTRACE_ENABLED=true")
	}

	pyroscopeEnabled, err := strconv.ParseBool(getEnv("PYROSCOPE_ENABLED", "false"))
	if err != nil {
		return Config{}, fmt.Errorf("parse PYROSCOPE_ENABLED: %w", err)
	}
	pyroscopeServerAddress := strings.TrimSpace(getEnv("PYROSCOPE_SERVER_ADDRESS", ""))
	if pyroscopeEnabled && pyroscopeServerAddress == "" {
		return Config{}, fmt.Errorf("PYROSCOPE_SERVER_ADDRESS is required when PYROSCOPE_ENABLED=true")
	}
	pyroscopeUploadRate, err := time.ParseDuration(getEnv("PYROSCOPE_UPLOAD_RATE", "15s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse PYROSCOPE_UPLOAD_RATE: %w", err)
	}
	if pyroscopeUploadRate <= 0 {
		return Config{}, fmt.Errorf("PYROSCOPE_UPLOAD_RATE must be > 0")
	}

	cfg := Config{
		AppEnv:                         appEnv,
		ServiceName:                    getEnv("APP_SERVICE_NAME", "ligastats"),
		ServiceVersion:                 getEnv("APP_SERVICE_VERSION", "dev"),
		DBURL:                          getEnv("DB_URL", ""),
		DBDisablePreparedBinary:        dbDisablePreparedBinary,
		CacheEnabled:                   cacheEnabled,
		CacheTTL:                       cacheTTL,
		StreakLength:                   streakLength,
		RecomputeMaxWorkers:            recomputeMaxWorkers,
		StatsFeedEnabled:               statsFeedEnabled,
		StatsFeedBaseURL:               statsFeedBaseURL,
		StatsFeedToken:                 statsFeedToken,
		StatsFeedTimeout:               statsFeedTimeout,
		StatsFeedMaxRetries:            statsFeedMaxRetries,
		StatsFeedCircuitEnabled:        statsFeedCircuitEnabled,
		StatsFeedCircuitFailureCount:   statsFeedCircuitFailureCount,
		StatsFeedCircuitOpenTimeout:    statsFeedCircuitOpenTimeout,
		StatsFeedCircuitHalfOpenMaxReq: statsFeedCircuitHalfOpenMaxReq,
		UptraceEnabled:                 uptraceEnabled,
		UptraceDSN:                     uptraceDSN,
		PyroscopeEnabled:               pyroscopeEnabled,
		PyroscopeServerAddress:         pyroscopeServerAddress,
		PyroscopeAuthToken:             strings.TrimSpace(getEnv("PYROSCOPE_AUTH_TOKEN", "")),
		PyroscopeUploadRate:            pyroscopeUploadRate,
		LogLevel:                       parseLogLevel(getEnv("APP_LOG_LEVEL", "info")),
	}
	cfg.PyroscopeAppName = strings.TrimSpace(getEnv("PYROSCOPE_APP_NAME", cfg.ServiceName))
	if cfg.PyroscopeEnabled && cfg.PyroscopeAppName == "" {
		return Config{}, fmt.Errorf("PYROSCOPE_APP_NAME cannot be empty when PYROSCOPE_ENABLED=true")
	}

	return cfg, nil
}

func parseLogLevel(v string) logging.Level {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "debug":
		return logging.LevelDebug
	case "warn", "warning":
		return logging.LevelWarn
	case "error":
		return logging.LevelError
	default:
		return logging.LevelInfo
	}
}

func parseAppEnv(v string) (string, error) {
	value := strings.ToLower(strings.TrimSpace(v))
	switch value {
	case EnvDev, EnvStage, EnvProd:
		return value, nil
	default:
		return "", fmt.Errorf("invalid APP_ENV %q: valid values are %s, %s, %s", v, EnvDev, EnvStage, EnvProd)
	}
}

func getEnv(key, fallback string) string {
	value := os.Getenv(key)
	if strings.TrimSpace(value) == "" {
		return fallback
	}

	return value
}

func getEnvAsInt(key string, fallback int) (int, error) {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback, nil
	}

	out, err := strconv.Atoi(value)
	if err != nil {
		return 0, err
	}

	return out, nil
}
