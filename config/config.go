// Package config loads service settings from .env, an optional YAML file
// and the process environment, in that order of increasing precedence.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Scheduling holds the reflow defaults.
type Scheduling struct {
	// DayStart is the HH:mm start of a day whose first item has no time yet.
	DayStart string `yaml:"day_start"`
	// DefaultDuration is used for items without a positive duration.
	DefaultDuration int `yaml:"default_duration"`
	// MaxTripDays caps a date range request.
	MaxTripDays int `yaml:"max_trip_days"`
}

type Config struct {
	Port          string `yaml:"port"`
	MongoURI      string `yaml:"mongo_uri"`
	MongoDatabase string `yaml:"mongo_db"`
	// RedisAddr may be empty; drafts then live in process memory.
	RedisAddr     string `yaml:"redis_addr"`
	RedisPassword string `yaml:"redis_password"`
	RedisDB       int    `yaml:"redis_db"`

	JWTSecret string `yaml:"jwt_secret"`
	// PublicBaseURL prefixes share links printed on exports.
	PublicBaseURL string `yaml:"public_base_url"`
	LogLevel      string `yaml:"log_level"`

	// DraftTTL is how long an untouched editing session is kept.
	DraftTTL time.Duration `yaml:"draft_ttl"`

	// PurgeCron schedules removal of soft-deleted itineraries older than PurgeAfterDays.
	PurgeCron      string `yaml:"purge_cron"`
	PurgeAfterDays int    `yaml:"purge_after_days"`

	RateLimit float64 `yaml:"rate_limit"`
	RateBurst int     `yaml:"rate_burst"`

	Scheduling Scheduling `yaml:"scheduling"`
}

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	c := &Config{}
	c.Normalize()
	return c
}

// Normalize fills zero values with defaults.
func (c *Config) Normalize() {
	if c.Port == "" {
		c.Port = ":8080"
	} else if c.Port[0] != ':' {
		c.Port = ":" + c.Port
	}
	if c.MongoURI == "" {
		c.MongoURI = "mongodb://localhost:27017"
	}
	if c.MongoDatabase == "" {
		c.MongoDatabase = "itinera"
	}
	if c.PublicBaseURL == "" {
		c.PublicBaseURL = "http://localhost:8080"
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.DraftTTL <= 0 {
		c.DraftTTL = 12 * time.Hour
	}
	if c.PurgeCron == "" {
		c.PurgeCron = "0 3 * * *"
	}
	if c.PurgeAfterDays <= 0 {
		c.PurgeAfterDays = 30
	}
	if c.RateLimit <= 0 {
		c.RateLimit = 5
	}
	if c.RateBurst <= 0 {
		c.RateBurst = 10
	}
	if c.Scheduling.DayStart == "" {
		c.Scheduling.DayStart = "09:00"
	}
	if c.Scheduling.DefaultDuration <= 0 {
		c.Scheduling.DefaultDuration = 60
	}
	if c.Scheduling.MaxTripDays <= 0 {
		c.Scheduling.MaxTripDays = 60
	}
}

// Load reads .env (if present), the YAML file named by CONFIG_FILE (if set)
// and then environment overrides.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}
	c := &Config{}
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := c.loadFile(path); err != nil {
			return nil, err
		}
	}
	if err := c.applyEnv(); err != nil {
		return nil, err
	}
	c.Normalize()
	if c.JWTSecret == "" {
		return nil, errors.New("JWT_SECRET is not set")
	}
	return c, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parsing config %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() error {
	str := map[string]*string{
		"PORT":            &c.Port,
		"MONGO_URI":       &c.MongoURI,
		"MONGO_DB":        &c.MongoDatabase,
		"REDIS_ADDR":      &c.RedisAddr,
		"REDIS_PASSWORD":  &c.RedisPassword,
		"JWT_SECRET":      &c.JWTSecret,
		"PUBLIC_BASE_URL": &c.PublicBaseURL,
		"LOG_LEVEL":       &c.LogLevel,
		"PURGE_CRON":      &c.PurgeCron,
		"DAY_START":       &c.Scheduling.DayStart,
	}
	for key, dst := range str {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	ints := map[string]*int{
		"REDIS_DB":         &c.RedisDB,
		"PURGE_AFTER_DAYS": &c.PurgeAfterDays,
		"RATE_BURST":       &c.RateBurst,
		"DEFAULT_DURATION": &c.Scheduling.DefaultDuration,
		"MAX_TRIP_DAYS":    &c.Scheduling.MaxTripDays,
	}
	for key, dst := range ints {
		if v := os.Getenv(key); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("%s: %w", key, err)
			}
			*dst = n
		}
	}
	if v := os.Getenv("RATE_LIMIT"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("RATE_LIMIT: %w", err)
		}
		c.RateLimit = f
	}
	if v := os.Getenv("DRAFT_TTL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("DRAFT_TTL: %w", err)
		}
		c.DraftTTL = d
	}
	return nil
}
