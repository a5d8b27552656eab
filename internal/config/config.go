// internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"rewardvault/internal/domain"
	"rewardvault/pkg/db" // Import db package for its Config struct

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// RedisConfig configures the optional sweep lease backend.
type RedisConfig struct {
	Enabled  bool
	Addr     string
	Password string
	DB       int
}

// SweepConfig controls the background accrual sweep.
type SweepConfig struct {
	Enabled   bool
	Schedule  string
	BatchSize int
	LockTTL   time.Duration
}

// AppConfig holds all application-wide configurations.
type AppConfig struct {
	ServerPort         string
	DB                 db.Config
	Redis              RedisConfig
	JWTSecret          string
	LogLevel           string
	Sweep              SweepConfig
	SignupBonus        decimal.Decimal
	CheckinBonus       decimal.Decimal
	MinWithdrawal      decimal.Decimal
	WithdrawalFeeRate  decimal.Decimal
	CORSAllowedOrigins []string
}

// env mirrors the recognised environment variables one to one.
type env struct {
	ServerPort         string        `mapstructure:"SERVER_PORT"`
	DBHost             string        `mapstructure:"DB_HOST"`
	DBPort             int           `mapstructure:"DB_PORT"`
	DBUser             string        `mapstructure:"DB_USER"`
	DBPassword         string        `mapstructure:"DB_PASSWORD"`
	DBName             string        `mapstructure:"DB_NAME"`
	DBSSLMode          string        `mapstructure:"DB_SSLMODE"`
	DBMaxOpenConns     int           `mapstructure:"DB_MAX_OPEN_CONNS"`
	DBMaxIdleConns     int           `mapstructure:"DB_MAX_IDLE_CONNS"`
	RedisAddr          string        `mapstructure:"REDIS_ADDR"`
	RedisPassword      string        `mapstructure:"REDIS_PASSWORD"`
	RedisDB            int           `mapstructure:"REDIS_DB"`
	JWTSecret          string        `mapstructure:"JWT_SECRET"`
	LogLevel           string        `mapstructure:"LOG_LEVEL"`
	SweepEnabled       bool          `mapstructure:"SWEEP_ENABLED"`
	SweepSchedule      string        `mapstructure:"SWEEP_SCHEDULE"`
	SweepBatchSize     int           `mapstructure:"SWEEP_BATCH_SIZE"`
	SweepLockTTL       time.Duration `mapstructure:"SWEEP_LOCK_TTL"`
	SignupBonus        string        `mapstructure:"SIGNUP_BONUS"`
	CheckinBonus       string        `mapstructure:"CHECKIN_BONUS"`
	MinWithdrawal      string        `mapstructure:"MIN_WITHDRAWAL"`
	WithdrawalFeeRate  string        `mapstructure:"WITHDRAWAL_FEE_RATE"`
	CORSAllowedOrigins string        `mapstructure:"CORS_ALLOWED_ORIGINS"`
}

var defaults = map[string]interface{}{
	"SERVER_PORT":          "8080",
	"DB_HOST":              "localhost",
	"DB_PORT":              5432,
	"DB_USER":              "user",
	"DB_PASSWORD":          "password",
	"DB_NAME":              "rewardvault",
	"DB_SSLMODE":           "disable",
	"DB_MAX_OPEN_CONNS":    25,
	"DB_MAX_IDLE_CONNS":    10,
	"REDIS_ADDR":           "",
	"REDIS_PASSWORD":       "",
	"REDIS_DB":             0,
	"JWT_SECRET":           "",
	"LOG_LEVEL":            "info",
	"SWEEP_ENABLED":        true,
	"SWEEP_SCHEDULE":       "@every 5m",
	"SWEEP_BATCH_SIZE":     200,
	"SWEEP_LOCK_TTL":       "4m",
	"SIGNUP_BONUS":         "20",
	"CHECKIN_BONUS":        "1",
	"MIN_WITHDRAWAL":       "20",
	"WITHDRAWAL_FEE_RATE":  "0.15",
	"CORS_ALLOWED_ORIGINS": "*",
}

// LoadConfig loads configuration from environment variables, reading a .env
// file first when one is present. It returns an error if any variable is invalid.
func LoadConfig() (*AppConfig, error) {
	_ = godotenv.Load()

	for key, value := range defaults {
		viper.SetDefault(key, value)
		// Bind explicitly so every key takes part in Unmarshal.
		_ = viper.BindEnv(key)
	}
	viper.AutomaticEnv()

	var e env
	if err := viper.Unmarshal(&e); err != nil {
		return nil, fmt.Errorf("failed to decode configuration: %w", err)
	}

	if e.JWTSecret == "" {
		return nil, errors.New("JWT_SECRET is required")
	}
	if e.SweepBatchSize <= 0 {
		return nil, fmt.Errorf("invalid SWEEP_BATCH_SIZE: %d", e.SweepBatchSize)
	}

	cfg := &AppConfig{
		ServerPort: e.ServerPort,
		DB: db.Config{
			Host:         e.DBHost,
			Port:         e.DBPort,
			User:         e.DBUser,
			Password:     e.DBPassword,
			DBName:       e.DBName,
			SSLMode:      e.DBSSLMode,
			MaxOpenConns: e.DBMaxOpenConns,
			MaxIdleConns: e.DBMaxIdleConns,
		},
		Redis: RedisConfig{
			Enabled:  e.RedisAddr != "",
			Addr:     e.RedisAddr,
			Password: e.RedisPassword,
			DB:       e.RedisDB,
		},
		JWTSecret: e.JWTSecret,
		LogLevel:  e.LogLevel,
		Sweep: SweepConfig{
			Enabled:   e.SweepEnabled,
			Schedule:  e.SweepSchedule,
			BatchSize: e.SweepBatchSize,
			LockTTL:   e.SweepLockTTL,
		},
		CORSAllowedOrigins: splitList(e.CORSAllowedOrigins),
	}

	amounts := []struct {
		key   string
		raw   string
		dst   *decimal.Decimal
		money bool
	}{
		{"SIGNUP_BONUS", e.SignupBonus, &cfg.SignupBonus, true},
		{"CHECKIN_BONUS", e.CheckinBonus, &cfg.CheckinBonus, true},
		{"MIN_WITHDRAWAL", e.MinWithdrawal, &cfg.MinWithdrawal, true},
		{"WITHDRAWAL_FEE_RATE", e.WithdrawalFeeRate, &cfg.WithdrawalFeeRate, false},
	}
	for _, a := range amounts {
		v, err := decimal.NewFromString(strings.TrimSpace(a.raw))
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %w", a.key, err)
		}
		if v.IsNegative() {
			return nil, fmt.Errorf("invalid %s: must not be negative", a.key)
		}
		if a.money && !domain.IsCents(v) {
			return nil, fmt.Errorf("invalid %s: %s has more than %d decimal places", a.key, v, domain.MoneyScale)
		}
		*a.dst = v
	}
	if cfg.WithdrawalFeeRate.GreaterThanOrEqual(decimal.NewFromInt(1)) {
		return nil, fmt.Errorf("invalid WITHDRAWAL_FEE_RATE: %s is not below 1", cfg.WithdrawalFeeRate)
	}

	return cfg, nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
