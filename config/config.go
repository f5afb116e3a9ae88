// Package config loads service settings from an optional TOML file, a .env file
// and the process environment, in that order of precedence (environment wins).
package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata" // REWARDS_TIMEZONE must resolve in images without a zoneinfo database

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

type Config struct {
	Server   ServerConfig   `toml:"server"`
	Database DatabaseConfig `toml:"database"`
	Rewards  RewardsConfig  `toml:"rewards"`
	SMTP     SMTPConfig     `toml:"smtp"`
	Archive  ArchiveConfig  `toml:"archive"`
}

type ServerConfig struct {
	Port           int    `toml:"port"`
	AllowedOrigins string `toml:"allowed_origins"`
	GatewayToken   string `toml:"gateway_token"`
	SignupBaseURL  string `toml:"signup_base_url"`
}

type DatabaseConfig struct {
	URL  string `toml:"url"`
	Type string `toml:"type"` // postgres | sqlite
}

// RewardsConfig holds the winner rules. Thresholds are referral counts within the
// period window; amounts are credited to the winner's balance.
type RewardsConfig struct {
	Timezone          string  `toml:"timezone"`
	DailyThreshold    int64   `toml:"daily_threshold"`
	DailyPrizeAmount  float64 `toml:"daily_prize_amount"`
	WeeklyThreshold   int64   `toml:"weekly_threshold"`
	WeeklyPrizeAmount float64 `toml:"weekly_prize_amount"`
	DailyCron         string  `toml:"daily_cron"`
	WeeklyCron        string  `toml:"weekly_cron"`
}

type SMTPConfig struct {
	Host     string `toml:"host"`
	Port     int    `toml:"port"`
	Username string `toml:"username"`
	Password string `toml:"password"`
	From     string `toml:"from"`
}

// Enabled reports whether outbound email is configured.
func (c SMTPConfig) Enabled() bool { return c.Host != "" && c.From != "" }

// ArchiveConfig points at the R2 bucket winner receipts are written to.
type ArchiveConfig struct {
	AccountID       string `toml:"account_id"`
	AccessKeyID     string `toml:"access_key_id"`
	AccessKeySecret string `toml:"access_key_secret"`
	Bucket          string `toml:"bucket"`
	CDNBaseURL      string `toml:"cdn_base_url"`
}

// Enabled reports whether the receipt archive is configured.
func (c ArchiveConfig) Enabled() bool {
	return c.AccountID != "" && c.AccessKeyID != "" && c.AccessKeySecret != "" && c.Bucket != ""
}

// Default returns the built-in settings before any file or environment is applied.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Port:           5200,
			AllowedOrigins: "http://localhost:3000",
			SignupBaseURL:  "http://localhost:3000/signup",
		},
		Database: DatabaseConfig{
			Type: "postgres",
		},
		Rewards: RewardsConfig{
			Timezone:          "America/New_York",
			DailyThreshold:    20,
			DailyPrizeAmount:  1.0,
			WeeklyThreshold:   100,
			WeeklyPrizeAmount: 5.0,
			DailyCron:         "59 23 * * *",
			WeeklyCron:        "59 23 * * 6",
		},
		SMTP: SMTPConfig{
			Port: 465,
		},
	}
}

// Load builds the configuration. path may be empty; a missing .env file is not an error.
func Load(path string) (Config, error) {
	cfg := Default()

	if err := godotenv.Load(); err != nil {
		log.Println("⚠️  No .env file found, reading environment variables directly")
	}

	if path != "" {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return Config{}, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	setString(&c.Server.AllowedOrigins, "ALLOWED_ORIGINS")
	setString(&c.Server.GatewayToken, "GATEWAY_TOKEN")
	setString(&c.Server.SignupBaseURL, "SIGNUP_BASE_URL")
	setString(&c.Database.URL, "DATABASE_URL")
	setString(&c.Database.Type, "DATABASE_TYPE")
	setString(&c.Rewards.Timezone, "REWARDS_TIMEZONE")
	setString(&c.Rewards.DailyCron, "DAILY_WINNER_CRON")
	setString(&c.Rewards.WeeklyCron, "WEEKLY_WINNER_CRON")
	setString(&c.SMTP.Host, "SMTP_HOST")
	setString(&c.SMTP.Username, "SMTP_USERNAME")
	setString(&c.SMTP.Password, "SMTP_PASSWORD")
	setString(&c.SMTP.From, "SMTP_FROM")
	setString(&c.Archive.AccountID, "CLOUDFLARE_ACCOUNT_ID")
	setString(&c.Archive.AccessKeyID, "R2_ACCESS_KEY_ID")
	setString(&c.Archive.AccessKeySecret, "R2_ACCESS_KEY_SECRET")
	setString(&c.Archive.Bucket, "R2_BUCKET_NAME")
	setString(&c.Archive.CDNBaseURL, "CDN_BASE_URL")

	if err := setInt(&c.Server.Port, "PORT"); err != nil {
		return err
	}
	if err := setInt(&c.SMTP.Port, "SMTP_PORT"); err != nil {
		return err
	}
	if err := setInt64(&c.Rewards.DailyThreshold, "DAILY_THRESHOLD"); err != nil {
		return err
	}
	if err := setInt64(&c.Rewards.WeeklyThreshold, "WEEKLY_THRESHOLD"); err != nil {
		return err
	}
	if err := setFloat(&c.Rewards.DailyPrizeAmount, "DAILY_PRIZE_AMOUNT"); err != nil {
		return err
	}
	return setFloat(&c.Rewards.WeeklyPrizeAmount, "WEEKLY_PRIZE_AMOUNT")
}

// Validate checks the settings the service cannot start without.
func (c Config) Validate() error {
	if c.Database.URL == "" {
		return errors.New("DATABASE_URL environment variable not set")
	}
	switch c.Database.Type {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("unsupported DATABASE_TYPE %q (use postgres or sqlite)", c.Database.Type)
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	if c.Rewards.DailyThreshold <= 0 || c.Rewards.WeeklyThreshold <= 0 {
		return errors.New("winner thresholds must be positive")
	}
	if c.Rewards.DailyPrizeAmount <= 0 || c.Rewards.WeeklyPrizeAmount <= 0 {
		return errors.New("prize amounts must be positive")
	}
	return nil
}

// Location resolves the rewards timezone all period windows are computed in.
func (c Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Rewards.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid REWARDS_TIMEZONE %q: %w", c.Rewards.Timezone, err)
	}
	return loc, nil
}

// Origins splits AllowedOrigins and trims each entry.
func (c ServerConfig) Origins() string {
	parts := strings.Split(c.AllowedOrigins, ",")
	for i, origin := range parts {
		parts[i] = strings.TrimSpace(origin)
	}
	return strings.Join(parts, ",")
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("invalid %s env variable: %w", key, err)
	}
	*dst = n
	return nil
}

func setInt64(dst *int64, key string) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid %s env variable: %w", key, err)
	}
	*dst = n
	return nil
}

func setFloat(dst *float64, key string) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fmt.Errorf("invalid %s env variable: %w", key, err)
	}
	*dst = f
	return nil
}
