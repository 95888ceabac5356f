// Package config は環境変数からのアプリケーション設定の読み込みを提供する。
package config

import (
	"os"
	"strconv"
	"time"
)

// Config はアプリケーション全体の設定を保持する。
// 環境変数から起動時に1回読み込み、イミュータブルとして扱う。
type Config struct {
	// Database（未設定の場合はプロセス内メモリストアを使用）
	DatabaseURL string

	// Collect
	CollectInterval    time.Duration
	FetchTimeout       time.Duration
	FetchMaxSize       int64
	FetchMaxConcurrent int
	RetentionDays      int

	// Live
	LivePushInterval time.Duration
	LiveWindow       time.Duration

	// Rate Limit
	RateLimitGeneral int
	RateLimitRefresh int

	// External API
	WAQIToken string

	// Server
	ServerPort string

	// CORS
	CORSAllowedOrigin string
}

// Load は環境変数からConfigを読み込む。
// 全項目にデフォルト値があるため、環境変数なしでも起動できる。
// DATABASE_URLが未設定の場合はメモリストアが選択される。
func Load() (*Config, error) {
	cfg := &Config{
		DatabaseURL:        os.Getenv("DATABASE_URL"),
		CollectInterval:    getEnvDuration("COLLECT_INTERVAL", 15*time.Minute),
		FetchTimeout:       getEnvDuration("FETCH_TIMEOUT", 10*time.Second),
		FetchMaxSize:       getEnvInt64("FETCH_MAX_SIZE", 5242880),
		FetchMaxConcurrent: getEnvInt("FETCH_MAX_CONCURRENT", 10),
		RetentionDays:      getEnvInt("RETENTION_DAYS", 0),
		LivePushInterval:   getEnvDuration("LIVE_PUSH_INTERVAL", 5*time.Second),
		LiveWindow:         getEnvDuration("LIVE_WINDOW", 5*time.Minute),
		RateLimitGeneral:   getEnvInt("RATE_LIMIT_GENERAL", 120),
		RateLimitRefresh:   getEnvInt("RATE_LIMIT_REFRESH", 10),
		WAQIToken:          getEnvString("WAQI_TOKEN", "demo"),
		ServerPort:         getEnvString("SERVER_PORT", "8080"),
		CORSAllowedOrigin:  getEnvString("CORS_ALLOWED_ORIGIN", "http://localhost:3000"),
	}

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

func getEnvInt64(key string, defaultVal int64) int64 {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.ParseInt(v, 10, 64)
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
