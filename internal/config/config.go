package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// RotationPolicy holds the retirement rules applied during rotation sweeps.
// The approaching thresholds are policy knobs, not invariants, so they live in
// configuration rather than code.
type RotationPolicy struct {
	MaxAgeDays             int
	MaxCompletions         int
	ApproachingDays        int
	ApproachingCompletions int
}

// Config holds runtime configuration values for the API service.
type Config struct {
	AppName           string
	AppEnv            string
	AppPort           string
	DatabaseURL       string
	RedisURL          string
	NATSURL           string
	JWTSecret         string
	SkillsConfigPath  string
	EventChannelBase  string
	Rotation          RotationPolicy
	SweepInterval     time.Duration
	SweepTimeout      time.Duration
	SweepLeaseTTL     time.Duration
	CorpusWindowDays  int
	FairnessThreshold float64
	FairnessReference float64
	FairnessCacheTTL  time.Duration
	ForgeProvider     string
	OpenAIAPIKey      string
	OpenAIModel       string
}

// HTTPAddress returns the address the HTTP server should listen on.
func (c Config) HTTPAddress() string {
	if strings.HasPrefix(c.AppPort, ":") {
		return c.AppPort
	}

	return fmt.Sprintf(":%s", c.AppPort)
}

// Load reads configuration values from environment variables and optional .env file.
func Load() (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("SKILLPULSE")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("app.name", "SkillPulse API")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", "8080")
	v.SetDefault("skills.config_path", "configs/skills.json")
	v.SetDefault("events.channel_base", "skillpulse")
	v.SetDefault("rotation.max_age_days", 14)
	v.SetDefault("rotation.max_completions", 50)
	v.SetDefault("rotation.approaching_days", 3)
	v.SetDefault("rotation.approaching_completions", 10)
	v.SetDefault("rotation.sweep_interval", "1h")
	v.SetDefault("rotation.sweep_timeout", "2m")
	v.SetDefault("rotation.sweep_lease_ttl", "5m")
	v.SetDefault("corpus.window_days", 0)
	v.SetDefault("fairness.threshold", 10.0)
	v.SetDefault("fairness.reference_score", 80.0)
	v.SetDefault("fairness.cache_ttl", "10m")
	v.SetDefault("forge.provider", "template")
	v.SetDefault("openai.model", "gpt-4o-mini")

	sweepInterval, err := parseDuration(v, "rotation.sweep_interval", time.Hour)
	if err != nil {
		return Config{}, err
	}
	sweepTimeout, err := parseDuration(v, "rotation.sweep_timeout", 2*time.Minute)
	if err != nil {
		return Config{}, err
	}
	leaseTTL, err := parseDuration(v, "rotation.sweep_lease_ttl", 5*time.Minute)
	if err != nil {
		return Config{}, err
	}
	fairnessTTL, err := parseDuration(v, "fairness.cache_ttl", 10*time.Minute)
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		AppName:          v.GetString("app.name"),
		AppEnv:           v.GetString("app.env"),
		AppPort:          v.GetString("app.port"),
		DatabaseURL:      v.GetString("database.url"),
		RedisURL:         v.GetString("redis.url"),
		NATSURL:          v.GetString("nats.url"),
		JWTSecret:        v.GetString("jwt.secret"),
		SkillsConfigPath: v.GetString("skills.config_path"),
		EventChannelBase: v.GetString("events.channel_base"),
		Rotation: RotationPolicy{
			MaxAgeDays:             v.GetInt("rotation.max_age_days"),
			MaxCompletions:         v.GetInt("rotation.max_completions"),
			ApproachingDays:        v.GetInt("rotation.approaching_days"),
			ApproachingCompletions: v.GetInt("rotation.approaching_completions"),
		},
		SweepInterval:     sweepInterval,
		SweepTimeout:      sweepTimeout,
		SweepLeaseTTL:     leaseTTL,
		CorpusWindowDays:  v.GetInt("corpus.window_days"),
		FairnessThreshold: v.GetFloat64("fairness.threshold"),
		FairnessReference: v.GetFloat64("fairness.reference_score"),
		FairnessCacheTTL:  fairnessTTL,
		ForgeProvider:     strings.ToLower(v.GetString("forge.provider")),
		OpenAIAPIKey:      v.GetString("openai_api_key"),
		OpenAIModel:       v.GetString("openai.model"),
	}

	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("jwt secret must be provided")
	}

	if cfg.Rotation.MaxAgeDays <= 0 {
		return Config{}, fmt.Errorf("rotation max age days must be positive, got %d", cfg.Rotation.MaxAgeDays)
	}
	if cfg.Rotation.MaxCompletions <= 0 {
		return Config{}, fmt.Errorf("rotation max completions must be positive, got %d", cfg.Rotation.MaxCompletions)
	}
	if cfg.CorpusWindowDays < 0 {
		return Config{}, fmt.Errorf("corpus window days must not be negative, got %d", cfg.CorpusWindowDays)
	}
	if cfg.FairnessThreshold <= 0 {
		cfg.FairnessThreshold = 10.0
	}
	if cfg.FairnessReference <= 0 || cfg.FairnessReference > 100 {
		cfg.FairnessReference = 80.0
	}

	return cfg, nil
}

func parseDuration(v *viper.Viper, key string, fallback time.Duration) (time.Duration, error) {
	raw := v.GetString(key)
	if raw == "" {
		return fallback, nil
	}

	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return parsed, nil
}
