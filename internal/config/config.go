package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/WarenOdhiambo1/oddsengine/internal/engine/dixoncoles"
	"github.com/WarenOdhiambo1/oddsengine/internal/platform/logging"
)

const (
	EnvDev   = "dev"
	EnvStage = "stage"
	EnvProd  = "prod"
)

// Config stores runtime configuration for the engine.
type Config struct {
	AppEnv         string
	ServiceName    string
	ServiceVersion string

	DBURL       string
	ArtifactDir string

	// Engine tuning.
	LeagueAvgGoals   float64 `validate:"gt=0"`
	HomeAdvantage    float64 `validate:"gt=0"`
	Rho              float64 `validate:"gt=-1,lt=1"`
	MaxGoals         int     `validate:"gte=5,lte=15"`
	ValueThreshold   float64 `validate:"gt=0,lt=1"`
	BatchWorkers     int     `validate:"gt=0,lte=64"`
	BatchTaskTimeout time.Duration

	UptraceEnabled bool
	UptraceDSN     string

	PyroscopeEnabled       bool
	PyroscopeServerAddress string
	PyroscopeAppName       string
	PyroscopeAuthToken     string
	PyroscopeUploadRate    time.Duration

	LogLevel logging.Level
}

var validate = validator.New()

func Load() (Config, error) {
	appEnv, err := parseAppEnv(getEnv("APP_ENV", EnvDev))
	if err != nil {
		return Config{}, err
	}

	leagueAvgGoals, err := getEnvAsFloat("ENGINE_LEAGUE_AVG_GOALS", 1.5)
	if err != nil {
		return Config{}, fmt.Errorf("parse ENGINE_LEAGUE_AVG_GOALS: %w", err)
	}
	homeAdvantage, err := getEnvAsFloat("ENGINE_HOME_ADVANTAGE", 1.15)
	if err != nil {
		return Config{}, fmt.Errorf("parse ENGINE_HOME_ADVANTAGE: %w", err)
	}
	rho, err := getEnvAsFloat("ENGINE_RHO", -0.13)
	if err != nil {
		return Config{}, fmt.Errorf("parse ENGINE_RHO: %w", err)
	}
	maxGoals, err := getEnvAsInt("ENGINE_MAX_GOALS", 10)
	if err != nil {
		return Config{}, fmt.Errorf("parse ENGINE_MAX_GOALS: %w", err)
	}
	valueThreshold, err := getEnvAsFloat("ENGINE_VALUE_THRESHOLD", 0.05)
	if err != nil {
		return Config{}, fmt.Errorf("parse ENGINE_VALUE_THRESHOLD: %w", err)
	}
	batchWorkers, err := getEnvAsInt("ENGINE_BATCH_WORKERS", 8)
	if err != nil {
		return Config{}, fmt.Errorf("parse ENGINE_BATCH_WORKERS: %w", err)
	}
	batchTaskTimeout, err := getEnvAsDuration("ENGINE_BATCH_TASK_TIMEOUT", 30*time.Second)
	if err != nil {
		return Config{}, fmt.Errorf("parse ENGINE_BATCH_TASK_TIMEOUT: %w", err)
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
	pyroscopeUploadRate, err := getEnvAsDuration("PYROSCOPE_UPLOAD_RATE", 15*time.Second)
	if err != nil {
		return Config{}, fmt.Errorf("parse PYROSCOPE_UPLOAD_RATE: %w", err)
	}

	cfg := Config{
		AppEnv:         appEnv,
		ServiceName:    getEnv("SERVICE_NAME", "oddsengine"),
		ServiceVersion: getEnv("SERVICE_VERSION", "dev"),

		DBURL:       getEnv("DB_URL", ""),
		ArtifactDir: getEnv("ARTIFACT_DIR", "./artifacts"),

		LeagueAvgGoals:   leagueAvgGoals,
		HomeAdvantage:    homeAdvantage,
		Rho:              rho,
		MaxGoals:         maxGoals,
		ValueThreshold:   valueThreshold,
		BatchWorkers:     batchWorkers,
		BatchTaskTimeout: batchTaskTimeout,

		UptraceEnabled: uptraceEnabled,
		UptraceDSN:     uptraceDSN,

		PyroscopeEnabled:       pyroscopeEnabled,
		PyroscopeServerAddress: pyroscopeServerAddress,
		PyroscopeAppName:       getEnv("PYROSCOPE_APP_NAME", "oddsengine"),
		PyroscopeAuthToken:     getEnv("PYROSCOPE_AUTH_TOKEN", ""),
		PyroscopeUploadRate:    pyroscopeUploadRate,

		LogLevel: parseLogLevel(getEnv("LOG_LEVEL", "info")),
	}

	if err := validate.Struct(cfg); err != nil {
		return Config{}, fmt.Errorf("validate engine config: %w", err)
	}
	return cfg, nil
}

// EngineParams maps the tunable knobs onto the model parameter set.
func (c Config) EngineParams() dixoncoles.Params {
	p := dixoncoles.DefaultParams()
	p.LeagueAvgGoals = c.LeagueAvgGoals
	p.HomeAdvantage = c.HomeAdvantage
	p.Rho = c.Rho
	p.MaxGoals = c.MaxGoals
	return p
}

func parseAppEnv(v string) (string, error) {
	v = strings.ToLower(strings.TrimSpace(v))
	switch v {
	case EnvDev, EnvStage, EnvProd:
		return v, nil
	default:
		return "", fmt.Errorf("invalid APP_ENV %q: valid values are %s, %s, %s", v, EnvDev, EnvStage, EnvProd)
	}
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

func getEnvAsFloat(key string, fallback float64) (float64, error) {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback, nil
	}

	out, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, err
	}

	return out, nil
}

func getEnvAsDuration(key string, fallback time.Duration) (time.Duration, error) {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback, nil
	}

	return time.ParseDuration(value)
}
