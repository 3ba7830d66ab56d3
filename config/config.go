package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Auth     AuthConfig
	App      AppConfig
	Cache    CacheConfig
	Sheets   SheetsConfig
	Airtable AirtableConfig
	Monday   MondayConfig
}

type ServerConfig struct {
	Port string
}

type DatabaseConfig struct {
	Driver string
	URL    string
}

type AuthConfig struct {
	JWTSecret        string
	JWTExpiration    time.Duration
	InviteExpiration time.Duration
}

type AppConfig struct {
	Environment string
	LogLevel    string
}

type CacheConfig struct {
	RedisURL string
	FeedTTL  time.Duration
}

// SheetRef points at one tab of a published Google Sheet.
type SheetRef struct {
	SheetID string
	GID     string
}

// Configured reports whether the sheet has an id.
func (s SheetRef) Configured() bool {
	return s.SheetID != ""
}

type SheetsConfig struct {
	BaseURL      string
	HR           SheetRef
	Buildings    SheetRef
	ProjectStats SheetRef
	PXT          SheetRef
}

type AirtableConfig struct {
	BaseURL   string
	APIKey    string
	BaseID    string
	FlowTable string
	RateLimit float64
}

type MondayConfig struct {
	APIURL         string
	Token          string
	BoardIDs       []string
	StatusColumn   string
	TimelineColumn string
}

func Load() (*Config, error) {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := &Config{
		Server: ServerConfig{
			Port: getEnv("SERVER_PORT", "8080"),
		},
		Database: DatabaseConfig{
			Driver: getEnv("DATABASE_DRIVER", "postgres"),
			URL:    getEnv("DATABASE_URL", "postgresql://postgres@localhost:5432/studio"),
		},
		Auth: AuthConfig{
			JWTSecret:        getEnv("JWT_SECRET", "your-super-secret-key-change-in-production"),
			JWTExpiration:    getEnvAsDuration("JWT_EXPIRATION", 24*time.Hour),
			InviteExpiration: getEnvAsDuration("INVITE_EXPIRATION", 7*24*time.Hour),
		},
		App: AppConfig{
			Environment: getEnv("APP_ENV", "development"),
			LogLevel:    getEnv("LOG_LEVEL", "info"),
		},
		Cache: CacheConfig{
			RedisURL: getEnv("REDIS_URL", ""),
			FeedTTL:  getEnvAsDuration("FEED_CACHE_TTL", 5*time.Minute),
		},
		Sheets: SheetsConfig{
			BaseURL:      getEnv("SHEETS_BASE_URL", "https://docs.google.com"),
			HR:           getSheetRef("HR"),
			Buildings:    getSheetRef("BUILDINGS"),
			ProjectStats: getSheetRef("PROJECT_STATS"),
			PXT:          getSheetRef("PXT"),
		},
		Airtable: AirtableConfig{
			BaseURL:   getEnv("AIRTABLE_BASE_URL", "https://api.airtable.com"),
			APIKey:    getEnv("AIRTABLE_API_KEY", ""),
			BaseID:    getEnv("AIRTABLE_BASE_ID", ""),
			FlowTable: getEnv("AIRTABLE_FLOW_TABLE", "Flow Standards"),
			RateLimit: float64(getEnvAsInt("AIRTABLE_RATE_LIMIT", 5)),
		},
		Monday: MondayConfig{
			APIURL:         getEnv("MONDAY_API_URL", "https://api.monday.com/v2"),
			Token:          getEnv("MONDAY_API_TOKEN", ""),
			BoardIDs:       getEnvAsList("MONDAY_BOARD_IDS"),
			StatusColumn:   getEnv("MONDAY_STATUS_COLUMN", "status"),
			TimelineColumn: getEnv("MONDAY_TIMELINE_COLUMN", "timeline"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// IsProduction reports whether APP_ENV is production.
func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("SERVER_PORT is required")
	}

	switch c.Database.Driver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("DATABASE_DRIVER must be postgres or sqlite, got %q", c.Database.Driver)
	}

	if c.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}

	if c.IsProduction() && len(c.Auth.JWTSecret) < 32 {
		return fmt.Errorf("JWT_SECRET must be at least 32 characters in production")
	}

	if c.Airtable.RateLimit <= 0 {
		return fmt.Errorf("AIRTABLE_RATE_LIMIT must be positive")
	}

	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		log.Printf("Warning: Invalid integer for %s, using default: %d", key, defaultValue)
		return defaultValue
	}

	return value
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := time.ParseDuration(valueStr)
	if err != nil {
		log.Printf("Warning: Invalid duration for %s, using default: %s", key, defaultValue)
		return defaultValue
	}

	return value
}

// getEnvAsList splits a comma separated variable, dropping blanks.
func getEnvAsList(key string) []string {
	var out []string
	for _, part := range strings.Split(os.Getenv(key), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func getSheetRef(prefix string) SheetRef {
	return SheetRef{
		SheetID: getEnv(prefix+"_SHEET_ID", ""),
		GID:     getEnv(prefix+"_GID", "0"),
	}
}
