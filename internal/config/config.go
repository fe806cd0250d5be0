package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/blurexe/draftcore/internal/platform/logging"
)

// Config stores runtime configuration for the service.
type Config struct {
	AppEnv                     string
	ServiceName                string
	ServiceVersion             string
	HTTPAddr                   string
	DBURL                      string
	DBDisablePreparedBinary    bool
	CORSAllowedOrigins         []string
	ReadTimeout                time.Duration
	WriteTimeout               time.Duration
	PprofEnabled               bool
	PprofAddr                  string
	UptraceEnabled             bool
	UptraceDSN                 string
	PyroscopeEnabled           bool
	PyroscopeServerAddress     string
	PyroscopeAppName           string
	PyroscopeAuthToken         string
	PyroscopeBasicAuthUser     string
	PyroscopeBasicAuthPassword string
	PyroscopeUploadRate        time.Duration
	PayFeedEnabled             bool
	PayFeedBaseURL             string
	PayFeedToken               string
	PayFeedTimeout             time.Duration
	PayFeedMaxRetries          int
	PayFeedPageLimit           int
	PayFeedPollInterval        time.Duration
	PayFeedCircuitEnabled      bool
	PayFeedCircuitFailureCount int
	PayFeedCircuitOpenTimeout  time.Duration
	PayFeedCircuitHalfOpenReq  int
	QueueReapAfter             time.Duration
	QueueReapInterval          time.Duration
	DoubleVoteWindow           time.Duration
	DoubleVoteTick             time.Duration
	DoubleStakesMultiplier     int
	NotifyWorkers              int
	LogLevel                   logging.Level
}

func Load() (Config, error) {
	appEnv, err := parseAppEnv(getEnv("APP_ENV", EnvDev))
	if err != nil {
		return Config{}, err
	}

	uptraceEnabled, err := strconv.ParseBool(getEnv("UPTRACE_ENABLED", "false"))
	if err != nil {
		return Config{}, fmt.Errorf("parse UPTRACE_ENABLED: %w", err)
	}
	uptraceDSN := strings.TrimSpace(getEnv("UPTRACE_DSN", ""))
	if uptraceDSN == "" {
		uptraceDSN = parseUptraceDSNFromOTLPHeaders(getEnv("OTEL_EXPORTER_OTLP_HEADERS", ""))
	}
	if uptraceEnabled && uptraceDSN == "" {
		return Config{}, fmt.Errorf("UPTRACE_DSN is required when UPTRACE_ENABLED=true")
	}

	pprofEnabled, err := strconv.ParseBool(getEnv("PPROF_ENABLED", "false"))
	if err != nil {
		return Config{}, fmt.Errorf("parse PPROF_ENABLED: %w", err)
	}
	pprofAddr := strings.TrimSpace(getEnv("PPROF_ADDR", ":6060"))
	if pprofEnabled && pprofAddr == "" {
		return Config{}, fmt.Errorf("PPROF_ADDR is required when PPROF_ENABLED=true")
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

	payFeedEnabled, err := strconv.ParseBool(getEnv("PAYFEED_ENABLED", "false"))
	if err != nil {
		return Config{}, fmt.Errorf("parse PAYFEED_ENABLED: %w", err)
	}
	payFeedBaseURL := strings.TrimSpace(getEnv("PAYFEED_BASE_URL", ""))
	payFeedToken := strings.TrimSpace(getEnv("PAYFEED_TOKEN", ""))
	if payFeedEnabled {
		if payFeedBaseURL == "" {
			return Config{}, fmt.Errorf("PAYFEED_BASE_URL is required when PAYFEED_ENABLED=true")
		}
		if payFeedToken == "" {
			return Config{}, fmt.Errorf("PAYFEED_TOKEN is required when PAYFEED_ENABLED=true")
		}
	}
	payFeedTimeout, err := time.ParseDuration(getEnv("PAYFEED_TIMEOUT", "20s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse PAYFEED_TIMEOUT: %w", err)
	}
	if payFeedTimeout <= 0 {
		return Config{}, fmt.Errorf("PAYFEED_TIMEOUT must be > 0")
	}
	payFeedMaxRetries, err := getEnvAsInt("PAYFEED_MAX_RETRIES", 1)
	if err != nil {
		return Config{}, fmt.Errorf("parse PAYFEED_MAX_RETRIES: %w", err)
	}
	if payFeedMaxRetries < 0 {
		return Config{}, fmt.Errorf("PAYFEED_MAX_RETRIES must be >= 0")
	}
	payFeedPageLimit, err := getEnvAsInt("PAYFEED_PAGE_LIMIT", 100)
	if err != nil {
		return Config{}, fmt.Errorf("parse PAYFEED_PAGE_LIMIT: %w", err)
	}
	if payFeedPageLimit < 1 {
		return Config{}, fmt.Errorf("PAYFEED_PAGE_LIMIT must be >= 1")
	}
	payFeedPollInterval, err := time.ParseDuration(getEnv("PAYFEED_POLL_INTERVAL", "15s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse PAYFEED_POLL_INTERVAL: %w", err)
	}
	if payFeedPollInterval <= 0 {
		return Config{}, fmt.Errorf("PAYFEED_POLL_INTERVAL must be > 0")
	}
	payFeedCircuitEnabled, err := strconv.ParseBool(getEnv("PAYFEED_CIRCUIT_ENABLED", "true"))
	if err != nil {
		return Config{}, fmt.Errorf("parse PAYFEED_CIRCUIT_ENABLED: %w", err)
	}
	payFeedCircuitFailureCount, err := getEnvAsInt("PAYFEED_CIRCUIT_FAILURE_COUNT", 5)
	if err != nil {
		return Config{}, fmt.Errorf("parse PAYFEED_CIRCUIT_FAILURE_COUNT: %w", err)
	}
	if payFeedCircuitFailureCount < 1 {
		return Config{}, fmt.Errorf("PAYFEED_CIRCUIT_FAILURE_COUNT must be >= 1")
	}
	payFeedCircuitOpenTimeout, err := time.ParseDuration(getEnv("PAYFEED_CIRCUIT_OPEN_TIMEOUT", "15s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse PAYFEED_CIRCUIT_OPEN_TIMEOUT: %w", err)
	}
	if payFeedCircuitOpenTimeout <= 0 {
		return Config{}, fmt.Errorf("PAYFEED_CIRCUIT_OPEN_TIMEOUT must be > 0")
	}
	payFeedCircuitHalfOpenReq, err := getEnvAsInt("PAYFEED_CIRCUIT_HALF_OPEN_MAX_REQ", 2)
	if err != nil {
		return Config{}, fmt.Errorf("parse PAYFEED_CIRCUIT_HALF_OPEN_MAX_REQ: %w", err)
	}
	if payFeedCircuitHalfOpenReq < 1 {
		return Config{}, fmt.Errorf("PAYFEED_CIRCUIT_HALF_OPEN_MAX_REQ must be >= 1")
	}

	queueReapAfter, err := time.ParseDuration(getEnv("QUEUE_REAP_AFTER", "10m"))
	if err != nil {
		return Config{}, fmt.Errorf("parse QUEUE_REAP_AFTER: %w", err)
	}
	if queueReapAfter <= 0 {
		return Config{}, fmt.Errorf("QUEUE_REAP_AFTER must be > 0")
	}
	queueReapInterval, err := time.ParseDuration(getEnv("QUEUE_REAP_INTERVAL", "1m"))
	if err != nil {
		return Config{}, fmt.Errorf("parse QUEUE_REAP_INTERVAL: %w", err)
	}
	if queueReapInterval <= 0 {
		return Config{}, fmt.Errorf("QUEUE_REAP_INTERVAL must be > 0")
	}

	doubleVoteWindow, err := time.ParseDuration(getEnv("DOUBLE_VOTE_WINDOW", "60s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse DOUBLE_VOTE_WINDOW: %w", err)
	}
	if doubleVoteWindow <= 0 {
		return Config{}, fmt.Errorf("DOUBLE_VOTE_WINDOW must be > 0")
	}
	doubleVoteTick, err := time.ParseDuration(getEnv("DOUBLE_VOTE_TICK", "5s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse DOUBLE_VOTE_TICK: %w", err)
	}
	if doubleVoteTick <= 0 {
		return Config{}, fmt.Errorf("DOUBLE_VOTE_TICK must be > 0")
	}
	doubleStakesMultiplier, err := getEnvAsInt("DOUBLE_STAKES_MULTIPLIER", 2)
	if err != nil {
		return Config{}, fmt.Errorf("parse DOUBLE_STAKES_MULTIPLIER: %w", err)
	}
	if doubleStakesMultiplier < 1 {
		return Config{}, fmt.Errorf("DOUBLE_STAKES_MULTIPLIER must be >= 1")
	}

	notifyWorkers, err := getEnvAsInt("NOTIFY_WORKERS", 8)
	if err != nil {
		return Config{}, fmt.Errorf("parse NOTIFY_WORKERS: %w", err)
	}
	if notifyWorkers < 1 {
		return Config{}, fmt.Errorf("NOTIFY_WORKERS must be >= 1")
	}

	readTimeout, err := time.ParseDuration(getEnv("APP_READ_TIMEOUT", "10s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse APP_READ_TIMEOUT: %w", err)
	}
	writeTimeout, err := time.ParseDuration(getEnv("APP_WRITE_TIMEOUT", "15s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse APP_WRITE_TIMEOUT: %w", err)
	}

	dbDisablePreparedBinary, err := strconv.ParseBool(getEnv("DB_DISABLE_PREPARED_BINARY_RESULT", "true"))
	if err != nil {
		return Config{}, fmt.Errorf("parse DB_DISABLE_PREPARED_BINARY_RESULT: %w", err)
	}

	cfg := Config{
		AppEnv:                     appEnv,
		ServiceName:                getEnv("APP_SERVICE_NAME", "draftcore-api"),
		ServiceVersion:             getEnv("APP_SERVICE_VERSION", "dev"),
		HTTPAddr:                   getEnv("APP_HTTP_ADDR", ":8080"),
		DBURL:                      strings.TrimSpace(getEnv("DB_URL", "")),
		DBDisablePreparedBinary:    dbDisablePreparedBinary,
		CORSAllowedOrigins:         splitCSV(getEnv("CORS_ALLOWED_ORIGINS", "*")),
		ReadTimeout:                readTimeout,
		WriteTimeout:               writeTimeout,
		PprofEnabled:               pprofEnabled,
		PprofAddr:                  pprofAddr,
		UptraceEnabled:             uptraceEnabled,
		UptraceDSN:                 uptraceDSN,
		PyroscopeEnabled:           pyroscopeEnabled,
		PyroscopeServerAddress:     pyroscopeServerAddress,
		PyroscopeAuthToken:         strings.TrimSpace(getEnv("PYROSCOPE_AUTH_TOKEN", "")),
		PyroscopeBasicAuthUser:     strings.TrimSpace(getEnv("PYROSCOPE_BASIC_AUTH_USER", "")),
		PyroscopeBasicAuthPassword: strings.TrimSpace(getEnv("PYROSCOPE_BASIC_AUTH_PASSWORD", "")),
		PyroscopeUploadRate:        pyroscopeUploadRate,
		PayFeedEnabled:             payFeedEnabled,
		PayFeedBaseURL:             payFeedBaseURL,
		PayFeedToken:               payFeedToken,
		PayFeedTimeout:             payFeedTimeout,
		PayFeedMaxRetries:          payFeedMaxRetries,
		PayFeedPageLimit:           payFeedPageLimit,
		PayFeedPollInterval:        payFeedPollInterval,
		PayFeedCircuitEnabled:      payFeedCircuitEnabled,
		PayFeedCircuitFailureCount: payFeedCircuitFailureCount,
		PayFeedCircuitOpenTimeout:  payFeedCircuitOpenTimeout,
		PayFeedCircuitHalfOpenReq:  payFeedCircuitHalfOpenReq,
		QueueReapAfter:             queueReapAfter,
		QueueReapInterval:          queueReapInterval,
		DoubleVoteWindow:           doubleVoteWindow,
		DoubleVoteTick:             doubleVoteTick,
		DoubleStakesMultiplier:     doubleStakesMultiplier,
		NotifyWorkers:              notifyWorkers,
		LogLevel:                   parseLogLevel(getEnv("APP_LOG_LEVEL", "info")),
	}
	cfg.PyroscopeAppName = strings.TrimSpace(getEnv("PYROSCOPE_APP_NAME", cfg.ServiceName))
	if cfg.PyroscopeEnabled && cfg.PyroscopeAppName == "" {
		return Config{}, fmt.Errorf("PYROSCOPE_APP_NAME cannot be empty when PYROSCOPE_ENABLED=true")
	}
	if len(cfg.CORSAllowedOrigins) == 0 {
		return Config{}, fmt.Errorf("CORS_ALLOWED_ORIGINS cannot be empty")
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

func splitCSV(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		item := strings.TrimSpace(part)
		if item == "" {
			continue
		}
		out = append(out, item)
	}

	return out
}

func parseUptraceDSNFromOTLPHeaders(raw string) string {
	if strings.TrimSpace(raw) == "" {
		return ""
	}

	items := strings.Split(raw, ",")
	for _, item := range items {
		parts := strings.SplitN(strings.TrimSpace(item), "=", 2)
		if len(parts) != 2 {
			continue
		}
		if strings.EqualFold(strings.TrimSpace(parts[0]), "uptrace-dsn") {
			value := strings.TrimSpace(parts[1])
			return strings.Trim(value, "\"'")
		}
	}

	return ""
}

const (
	EnvDev   = "dev"
	EnvStage = "stage"
	EnvProd  = "prod"
)

func parseAppEnv(v string) (string, error) {
	value := strings.ToLower(strings.TrimSpace(v))
	switch value {
	case EnvDev, EnvStage, EnvProd:
		return value, nil
	default:
		return "", fmt.Errorf("invalid APP_ENV %q: valid values are %s, %s, %s", v, EnvDev, EnvStage, EnvProd)
	}
}
