package config

import (
	"log"
	"strings"

	"github.com/spf13/viper"
)

// Config holds all configuration values.
type Config struct {
	AppPort           string `mapstructure:"APP_PORT"`
	Env               string `mapstructure:"ENV"`
	JWTSecret         string `mapstructure:"JWT_SECRET"`
	LogLevel          string `mapstructure:"LOG_LEVEL"`
	MaxRequestsPerMin int    `mapstructure:"MAX_REQUESTS_PER_MIN"`
	TrustedProxies    string `mapstructure:"TRUSTED_PROXIES"` // comma separated IPs or CIDRs

	// Storage. DB_DRIVER selects mongo, postgres or sqlite.
	DBDriver     string `mapstructure:"DB_DRIVER"`
	DatabaseURL  string `mapstructure:"DATABASE_URL"`
	DatabaseName string `mapstructure:"DATABASE_NAME"`
	PostgresDSN  string `mapstructure:"POSTGRES_DSN"`
	SQLitePath   string `mapstructure:"SQLITE_PATH"`

	// Redis configuration.
	RedisAddr     string `mapstructure:"REDIS_ADDR"`
	RedisPassword string `mapstructure:"REDIS_PASSWORD"`
	RedisCacheDB  int    `mapstructure:"REDIS_CACHE_DB"`
	RedisQueueDB  int    `mapstructure:"REDIS_QUEUE_DB"`

	// Engine policy.
	EngineTimezone      string `mapstructure:"ENGINE_TIMEZONE"`
	AllowUnfunded       bool   `mapstructure:"BOOKING_ALLOW_UNFUNDED"`
	PricingMandatory    bool   `mapstructure:"PRICING_MANDATORY"`
	FundingPriority     string `mapstructure:"FUNDING_PRIORITY"` // comma separated pools
	MaxSessionMinutes   int    `mapstructure:"MAX_SESSION_MINUTES"`
	RecurringDefaultAt  string `mapstructure:"RECURRING_DEFAULT_TIME"` // HH:MM
	RecurringDefaultDur int    `mapstructure:"RECURRING_DEFAULT_DURATION"`
	RecurringCron       string `mapstructure:"RECURRING_DISPATCH_CRON"`
	WorkerEnabled       bool   `mapstructure:"WORKER_ENABLED"`
	PriceCacheTTL       int    `mapstructure:"PRICE_CACHE_TTL"` // seconds

	// Tracing.
	OtelEnabled     bool    `mapstructure:"OTEL_ENABLED"`
	OtelEndpoint    string  `mapstructure:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	OtelInsecure    bool    `mapstructure:"OTEL_EXPORTER_OTLP_INSECURE"`
	OtelSampleRatio float64 `mapstructure:"OTEL_SAMPLER_RATIO"`
}

var AppConfig = Defaults()

// Defaults returns the configuration used when nothing is set. Tests build on it.
func Defaults() Config {
	return Config{
		AppPort:             "8080",
		Env:                 "development",
		LogLevel:            "info",
		MaxRequestsPerMin:   100,
		DBDriver:            "mongo",
		DatabaseURL:         "mongodb://localhost:27017",
		DatabaseName:        "wellness",
		SQLitePath:          "wellness.db",
		RedisAddr:           "localhost:6379",
		RedisCacheDB:        0,
		RedisQueueDB:        1,
		EngineTimezone:      "UTC",
		AllowUnfunded:       true,
		FundingPriority:     "company,personal,bonus",
		MaxSessionMinutes:   240,
		RecurringDefaultAt:  "09:00",
		RecurringDefaultDur: 60,
		RecurringCron:       "@every 1h",
		WorkerEnabled:       true,
		PriceCacheTTL:       300,
		OtelSampleRatio:     0.1,
	}
}

func LoadConfig() {
	// Look for a config file named "config.yaml" in the current and "config" directory.
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	viper.AutomaticEnv()

	d := Defaults()
	viper.SetDefault("APP_PORT", d.AppPort)
	viper.SetDefault("ENV", d.Env)
	viper.SetDefault("LOG_LEVEL", d.LogLevel)
	viper.SetDefault("JWT_SECRET", "")
	viper.SetDefault("MAX_REQUESTS_PER_MIN", d.MaxRequestsPerMin)
	viper.SetDefault("TRUSTED_PROXIES", "")
	viper.SetDefault("DB_DRIVER", d.DBDriver)
	viper.SetDefault("DATABASE_URL", d.DatabaseURL)
	viper.SetDefault("DATABASE_NAME", d.DatabaseName)
	viper.SetDefault("POSTGRES_DSN", "")
	viper.SetDefault("SQLITE_PATH", d.SQLitePath)
	viper.SetDefault("REDIS_ADDR", d.RedisAddr)
	viper.SetDefault("REDIS_PASSWORD", "")
	viper.SetDefault("REDIS_CACHE_DB", d.RedisCacheDB)
	viper.SetDefault("REDIS_QUEUE_DB", d.RedisQueueDB)
	viper.SetDefault("ENGINE_TIMEZONE", d.EngineTimezone)
	viper.SetDefault("BOOKING_ALLOW_UNFUNDED", d.AllowUnfunded)
	viper.SetDefault("PRICING_MANDATORY", d.PricingMandatory)
	viper.SetDefault("FUNDING_PRIORITY", d.FundingPriority)
	viper.SetDefault("MAX_SESSION_MINUTES", d.MaxSessionMinutes)
	viper.SetDefault("RECURRING_DEFAULT_TIME", d.RecurringDefaultAt)
	viper.SetDefault("RECURRING_DEFAULT_DURATION", d.RecurringDefaultDur)
	viper.SetDefault("RECURRING_DISPATCH_CRON", d.RecurringCron)
	viper.SetDefault("WORKER_ENABLED", d.WorkerEnabled)
	viper.SetDefault("PRICE_CACHE_TTL", d.PriceCacheTTL)
	viper.SetDefault("OTEL_ENABLED", false)
	viper.SetDefault("OTEL_EXPORTER_OTLP_ENDPOINT", "")
	viper.SetDefault("OTEL_EXPORTER_OTLP_INSECURE", false)
	viper.SetDefault("OTEL_SAMPLER_RATIO", d.OtelSampleRatio)

	if err := viper.ReadInConfig(); err != nil {
		log.Println("No config file found, using environment variables only")
	}

	if err := viper.Unmarshal(&AppConfig); err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
}

func GetEnv() string {
	return AppConfig.Env
}

func IsProduction() bool {
	return GetEnv() == "production"
}

// FundingOrder parses FUNDING_PRIORITY into a list of pool names.
func (c Config) FundingOrder() []string {
	var out []string
	for _, p := range strings.Split(c.FundingPriority, ",") {
		if p = strings.TrimSpace(strings.ToLower(p)); p != "" {
			out = append(out, p)
		}
	}
	return out
}
