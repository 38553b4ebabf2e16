package app

import (
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"github.com/yungbote/collabhub-backend/internal/observability"
	"github.com/yungbote/collabhub-backend/internal/pkg/envutil"
	"github.com/yungbote/collabhub-backend/internal/pkg/logger"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

type Config struct {
	Port       string
	AppEnv     string
	AppVersion string

	DBDriver   string
	SQLitePath string

	RedisAddr    string
	RedisChannel string

	JWTSecretKey string

	FanoutConcurrency int
	RosterCASRetries  int
	RealtimeBuffer    int

	CORSOrigins []string

	Otel observability.OtelConfig
}

// LoadDotEnv reads .env when present. A missing file is not an error and
// variables already set in the environment win.
func LoadDotEnv(log *logger.Logger) {
	if err := godotenv.Load(); err != nil {
		log.Debug("No .env file loaded", "error", err)
	}
}

func LoadConfig(log *logger.Logger) Config {
	driver := strings.ToLower(envutil.GetEnv("DB_DRIVER", DriverPostgres, log))
	if driver != DriverSQLite {
		driver = DriverPostgres
	}
	return Config{
		Port:       envutil.GetEnv("PORT", "8080", log),
		AppEnv:     envutil.GetEnv("APP_ENV", "development", log),
		AppVersion: envutil.GetEnv("APP_VERSION", "dev", log),

		DBDriver:   driver,
		SQLitePath: envutil.GetEnv("SQLITE_PATH", "collabhub.db", log),

		RedisAddr:    envutil.GetEnv("REDIS_ADDR", "", log),
		RedisChannel: envutil.GetEnv("REDIS_CHANNEL", "collabhub:realtime", log),

		JWTSecretKey: envutil.GetEnv("JWT_SECRET_KEY", "defaultsecret", log),

		FanoutConcurrency: envutil.GetEnvAsInt("FANOUT_CONCURRENCY", 8, log),
		RosterCASRetries:  envutil.GetEnvAsInt("ROSTER_CAS_RETRIES", 5, log),
		RealtimeBuffer:    envutil.GetEnvAsInt("REALTIME_BUFFER", 64, log),

		CORSOrigins: envutil.GetEnvAsList("CORS_ALLOWED_ORIGINS", nil, log),

		Otel: observability.OtelConfig{
			Enabled:     envutil.GetEnvAsBool("OTEL_ENABLED", false, log),
			ServiceName: envutil.GetEnv("OTEL_SERVICE_NAME", observability.DefaultServiceName, log),
			Environment: envutil.GetEnv("APP_ENV", "development", log),
			Version:     envutil.GetEnv("APP_VERSION", "dev", log),
			Endpoint:    envutil.GetEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "", log),
			Headers:     observability.ParseHeaders(envutil.GetEnv("OTEL_EXPORTER_OTLP_HEADERS", "", log)),
			Insecure:    envutil.GetEnvAsBool("OTEL_EXPORTER_OTLP_INSECURE", false, log),
			SampleRatio: parseRatio(envutil.GetEnv("OTEL_SAMPLER_RATIO", "0.1", log)),
		},
	}
}

func parseRatio(raw string) float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return 0.1
	}
	return observability.ClampRatio(f)
}
