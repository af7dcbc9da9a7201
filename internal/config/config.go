// Package config loads service settings from configs/config.yml, .env and the environment.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const envPrefix = "POWERSENSE"

// Config is the typed view of the viper settings.
type Config struct {
	Port      string
	LogLevel  string
	LogFormat string
	Server    ServerConfig
	DB        DBConfig
	Auth      AuthConfig
	Usage     UsageConfig
	Schedule  ScheduleConfig
	Tips      TipsConfig
	Influx    InfluxConfig
}

type ServerConfig struct {
	ReadHeaderTimeout time.Duration
	IdleTimeout       time.Duration
	ShutdownTimeout   time.Duration
}

type DBConfig struct {
	Path string
}

type AuthConfig struct {
	SigningKey string
	TokenTTL   time.Duration
}

type UsageConfig struct {
	Capacity int
	Interval time.Duration
}

// ScheduleConfig places the mock outage slots relative to process start.
type ScheduleConfig struct {
	Stage    string
	Offsets  []time.Duration
	Duration time.Duration
	Timezone string
}

type TipsConfig struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration
}

// InfluxConfig is optional; an empty URL disables the sample sink.
type InfluxConfig struct {
	URL    string
	Token  string
	Org    string
	Bucket string
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("port", "8080")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("server.read_header_timeout", 10*time.Second)
	v.SetDefault("server.idle_timeout", 60*time.Second)
	v.SetDefault("server.shutdown_timeout", 10*time.Second)
	v.SetDefault("db.path", ":memory:")
	v.SetDefault("auth.signing_key", "powersense-dev-key")
	v.SetDefault("auth.token_ttl", time.Hour)
	v.SetDefault("usage.capacity", 30)
	v.SetDefault("usage.interval", 3*time.Second)
	v.SetDefault("schedule.stage", "Stage 4")
	v.SetDefault("schedule.offsets", []string{"2h", "10h"})
	v.SetDefault("schedule.duration", 150*time.Minute)
	v.SetDefault("schedule.timezone", "Africa/Johannesburg")
	v.SetDefault("tips.base_url", "https://generativelanguage.googleapis.com/v1beta")
	v.SetDefault("tips.model", "gemini-2.5-flash")
	v.SetDefault("tips.timeout", 20*time.Second)
}

// Load reads .env (if present), then the YAML file at path (or configs/config.yml
// when path is empty), then environment overrides. A missing config file is not an error.
func Load(path string) (*Config, error) {
	// .env is optional; a missing file is the common case outside development
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.AddConfigPath("configs")
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	_ = v.BindEnv("tips.api_key", envPrefix+"_TIPS_API_KEY", "GEMINI_API_KEY", "API_KEY")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) || path != "" {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}
	return fromViper(v)
}

func fromViper(v *viper.Viper) (*Config, error) {
	offsets, err := parseOffsets(v.GetStringSlice("schedule.offsets"))
	if err != nil {
		return nil, err
	}
	cfg := &Config{
		Port:      v.GetString("port"),
		LogLevel:  v.GetString("log.level"),
		LogFormat: v.GetString("log.format"),
		Server: ServerConfig{
			ReadHeaderTimeout: v.GetDuration("server.read_header_timeout"),
			IdleTimeout:       v.GetDuration("server.idle_timeout"),
			ShutdownTimeout:   v.GetDuration("server.shutdown_timeout"),
		},
		DB: DBConfig{Path: v.GetString("db.path")},
		Auth: AuthConfig{
			SigningKey: v.GetString("auth.signing_key"),
			TokenTTL:   v.GetDuration("auth.token_ttl"),
		},
		Usage: UsageConfig{
			Capacity: v.GetInt("usage.capacity"),
			Interval: v.GetDuration("usage.interval"),
		},
		Schedule: ScheduleConfig{
			Stage:    v.GetString("schedule.stage"),
			Offsets:  offsets,
			Duration: v.GetDuration("schedule.duration"),
			Timezone: v.GetString("schedule.timezone"),
		},
		Tips: TipsConfig{
			APIKey:  strings.TrimSpace(v.GetString("tips.api_key")),
			BaseURL: v.GetString("tips.base_url"),
			Model:   v.GetString("tips.model"),
			Timeout: v.GetDuration("tips.timeout"),
		},
		Influx: InfluxConfig{
			URL:    v.GetString("influx.url"),
			Token:  v.GetString("influx.token"),
			Org:    v.GetString("influx.org"),
			Bucket: v.GetString("influx.bucket"),
		},
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func parseOffsets(raw []string) ([]time.Duration, error) {
	out := make([]time.Duration, 0, len(raw))
	for _, s := range raw {
		d, err := time.ParseDuration(strings.TrimSpace(s))
		if err != nil {
			return nil, fmt.Errorf("schedule.offsets: %w", err)
		}
		out = append(out, d)
	}
	return out, nil
}

func (c *Config) validate() error {
	if c.Usage.Capacity <= 0 {
		return fmt.Errorf("usage.capacity must be positive, got %d", c.Usage.Capacity)
	}
	if c.Usage.Interval <= 0 {
		return fmt.Errorf("usage.interval must be positive, got %s", c.Usage.Interval)
	}
	if c.Schedule.Duration <= 0 {
		return fmt.Errorf("schedule.duration must be positive, got %s", c.Schedule.Duration)
	}
	if c.Auth.SigningKey == "" {
		return errors.New("auth.signing_key is empty")
	}
	return nil
}

// Location resolves the schedule timezone, falling back to the local zone.
func (c ScheduleConfig) Location() *time.Location {
	if c.Timezone == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}

// InfluxEnabled reports whether the sample sink should be wired.
func (c *Config) InfluxEnabled() bool {
	return c.Influx.URL != "" && c.Influx.Bucket != ""
}
