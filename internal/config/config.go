// Package config は環境変数ベースのアプリケーション設定を提供する。
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config はアプリケーション全体の設定を保持する。
// 環境変数から起動時に1回読み込み、イミュータブルとして扱う。
type Config struct {
	// Database
	DatabaseURL string

	// Email (SES)
	EmailFrom       string
	EmailRatePerSec int

	// Reminder sweep
	ReminderSweepInterval time.Duration
	ReminderBatchLimit    int
	ReminderMaxConcurrent int

	// Task deadline sweep
	TaskSweepInterval  time.Duration
	TaskDueSoonHorizon time.Duration

	// Cleanup
	OTPCleanupInterval     time.Duration
	SessionCleanupInterval time.Duration

	// OAuth handoff cache
	HandoffTTL             time.Duration
	HandoffCleanupInterval time.Duration

	// Lifecycle
	StopTimeout time.Duration

	// Ops HTTP (healthz / metrics)
	OpsPort string
}

// Load は環境変数からConfigを読み込む。
// 必須環境変数が未設定の場合はエラーを返す。
func Load() (*Config, error) {
	cfg := &Config{}

	// Required fields
	var missing []string

	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	if cfg.DatabaseURL == "" {
		missing = append(missing, "DATABASE_URL")
	}

	cfg.EmailFrom = os.Getenv("SES_FROM_EMAIL")
	if cfg.EmailFrom == "" {
		missing = append(missing, "SES_FROM_EMAIL")
	}

	if len(missing) > 0 {
		return nil, fmt.Errorf("required environment variables are not set: %v", missing)
	}

	// Optional fields with defaults
	cfg.EmailRatePerSec = getEnvInt("EMAIL_RATE_PER_SEC", 5)
	cfg.ReminderSweepInterval = getEnvDuration("REMINDER_SWEEP_INTERVAL", 60*time.Second)
	cfg.ReminderBatchLimit = getEnvInt("REMINDER_BATCH_LIMIT", 50)
	cfg.ReminderMaxConcurrent = getEnvInt("REMINDER_MAX_CONCURRENT", 5)
	cfg.TaskSweepInterval = getEnvDuration("TASK_SWEEP_INTERVAL", time.Hour)
	cfg.TaskDueSoonHorizon = getEnvDuration("TASK_DUE_SOON_HORIZON", 24*time.Hour)
	cfg.OTPCleanupInterval = getEnvDuration("OTP_CLEANUP_INTERVAL", time.Hour)
	cfg.SessionCleanupInterval = getEnvDuration("SESSION_CLEANUP_INTERVAL", 24*time.Hour)
	cfg.HandoffTTL = getEnvDuration("HANDOFF_TTL", 10*time.Minute)
	cfg.HandoffCleanupInterval = getEnvDuration("HANDOFF_CLEANUP_INTERVAL", time.Minute)
	cfg.StopTimeout = getEnvDuration("STOP_TIMEOUT", 30*time.Second)
	cfg.OpsPort = getEnvString("OPS_PORT", "8080")

	return cfg, nil
}

func getEnvString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return i
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return defaultVal
	}
	return d
}
