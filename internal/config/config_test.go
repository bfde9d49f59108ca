package config

import (
	"testing"
	"time"

	"github.com/WarenOdhiambo1/oddsengine/internal/platform/logging"
)

func TestLoad_AppEnvValidation(t *testing.T) {
	t.Setenv("APP_ENV", "invalid")
	if _, err := Load(); err == nil {
		t.Fatalf("expected error for invalid APP_ENV")
	}
}

func TestLoad_UptraceRequiresDSNWhenEnabled(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)
	t.Setenv("UPTRACE_ENABLED", "true")
	t.Setenv("UPTRACE_DSN", "")

	if _, err := Load(); err == nil {
		t.Fatalf("expected error when UPTRACE_ENABLED=true without UPTRACE_DSN")
	}
}

func TestLoad_PyroscopeRequiresServerWhenEnabled(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)
	t.Setenv("PYROSCOPE_ENABLED", "true")
	t.Setenv("PYROSCOPE_SERVER_ADDRESS", "")

	if _, err := Load(); err == nil {
		t.Fatalf("expected error when PYROSCOPE_ENABLED=true without PYROSCOPE_SERVER_ADDRESS")
	}
}

func TestLoad_EngineDefaults(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.LeagueAvgGoals != 1.5 {
		t.Fatalf("unexpected LeagueAvgGoals: %v", cfg.LeagueAvgGoals)
	}
	if cfg.HomeAdvantage != 1.15 {
		t.Fatalf("unexpected HomeAdvantage: %v", cfg.HomeAdvantage)
	}
	if cfg.Rho != -0.13 {
		t.Fatalf("unexpected Rho: %v", cfg.Rho)
	}
	if cfg.MaxGoals != 10 {
		t.Fatalf("unexpected MaxGoals: %d", cfg.MaxGoals)
	}
	if cfg.ValueThreshold != 0.05 {
		t.Fatalf("unexpected ValueThreshold: %v", cfg.ValueThreshold)
	}
	if cfg.BatchWorkers != 8 {
		t.Fatalf("unexpected BatchWorkers: %d", cfg.BatchWorkers)
	}
	if cfg.BatchTaskTimeout != 30*time.Second {
		t.Fatalf("unexpected BatchTaskTimeout: %s", cfg.BatchTaskTimeout)
	}
	if cfg.LogLevel != logging.LevelInfo {
		t.Fatalf("unexpected LogLevel: %s", cfg.LogLevel)
	}
}

func TestLoad_EngineOverrides(t *testing.T) {
	t.Setenv("APP_ENV", EnvStage)
	t.Setenv("ENGINE_LEAGUE_AVG_GOALS", "1.4")
	t.Setenv("ENGINE_HOME_ADVANTAGE", "1.2")
	t.Setenv("ENGINE_RHO", "-0.1")
	t.Setenv("ENGINE_MAX_GOALS", "12")
	t.Setenv("ENGINE_VALUE_THRESHOLD", "0.08")
	t.Setenv("ENGINE_BATCH_WORKERS", "16")
	t.Setenv("ENGINE_BATCH_TASK_TIMEOUT", "45s")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.AppEnv != EnvStage {
		t.Fatalf("unexpected AppEnv: %q", cfg.AppEnv)
	}

	params := cfg.EngineParams()
	if params.LeagueAvgGoals != 1.4 {
		t.Fatalf("unexpected LeagueAvgGoals: %v", params.LeagueAvgGoals)
	}
	if params.HomeAdvantage != 1.2 {
		t.Fatalf("unexpected HomeAdvantage: %v", params.HomeAdvantage)
	}
	if params.Rho != -0.1 {
		t.Fatalf("unexpected Rho: %v", params.Rho)
	}
	if params.MaxGoals != 12 {
		t.Fatalf("unexpected MaxGoals: %d", params.MaxGoals)
	}
	if cfg.ValueThreshold != 0.08 {
		t.Fatalf("unexpected ValueThreshold: %v", cfg.ValueThreshold)
	}
	if cfg.BatchWorkers != 16 {
		t.Fatalf("unexpected BatchWorkers: %d", cfg.BatchWorkers)
	}
	if cfg.BatchTaskTimeout != 45*time.Second {
		t.Fatalf("unexpected BatchTaskTimeout: %s", cfg.BatchTaskTimeout)
	}
	if cfg.LogLevel != logging.LevelDebug {
		t.Fatalf("unexpected LogLevel: %s", cfg.LogLevel)
	}
}

func TestLoad_RejectsOutOfRangeKnobs(t *testing.T) {
	cases := map[string]string{
		"ENGINE_RHO":             "1.5",
		"ENGINE_MAX_GOALS":       "3",
		"ENGINE_VALUE_THRESHOLD": "0",
		"ENGINE_BATCH_WORKERS":   "200",
	}
	for key, value := range cases {
		t.Run(key, func(t *testing.T) {
			t.Setenv("APP_ENV", EnvDev)
			t.Setenv(key, value)
			if _, err := Load(); err == nil {
				t.Fatalf("expected validation error for %s=%s", key, value)
			}
		})
	}
}

func TestLoad_BadFloatIsAParseError(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)
	t.Setenv("ENGINE_RHO", "not-a-number")
	if _, err := Load(); err == nil {
		t.Fatalf("expected parse error for ENGINE_RHO")
	}
}
