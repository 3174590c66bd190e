package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Config 聚合客户端与本地替身后端的配置项。
type Config struct {
	API    APIConfig
	Server ServerConfig
	Cache  CacheConfig
}

// Load 从环境变量加载配置。
func Load() (*Config, error) {
	apiCfg, err := loadAPIConfig()
	if err != nil {
		return nil, err
	}

	server, err := loadServerConfig()
	if err != nil {
		return nil, err
	}

	return &Config{API: apiCfg, Server: server, Cache: loadCacheConfig()}, nil
}

// APIConfig 描述请求网关的行为。
type APIConfig struct {
	BaseURL     string
	Timeout     time.Duration
	MaxAttempts int
	RetryDelay  time.Duration
	Nickname    string
	PID         string
}

func loadAPIConfig() (APIConfig, error) {
	timeoutSeconds := 30
	if override, err := parseOptionalIntEnv("EMOBOT_TIMEOUT_SECONDS"); err != nil {
		return APIConfig{}, err
	} else if override != nil {
		if *override < 1 {
			return APIConfig{}, fmt.Errorf("EMOBOT_TIMEOUT_SECONDS must be positive, got %d", *override)
		}
		timeoutSeconds = *override
	}

	maxAttempts := 3
	if override, err := parseOptionalIntEnv("EMOBOT_MAX_ATTEMPTS"); err != nil {
		return APIConfig{}, err
	} else if override != nil {
		if *override < 1 {
			maxAttempts = 1
		} else {
			maxAttempts = *override
		}
	}

	retryDelayMS := 1000
	if override, err := parseOptionalIntEnv("EMOBOT_RETRY_DELAY_MS"); err != nil {
		return APIConfig{}, err
	} else if override != nil && *override >= 0 {
		retryDelayMS = *override
	}

	return APIConfig{
		BaseURL:     getEnvOrDefault("EMOBOT_API_BASE", "https://emobot-backend.onrender.com"),
		Timeout:     time.Duration(timeoutSeconds) * time.Second,
		MaxAttempts: maxAttempts,
		RetryDelay:  time.Duration(retryDelayMS) * time.Millisecond,
		Nickname:    strings.TrimSpace(os.Getenv("EMOBOT_NICKNAME")),
		PID:         strings.TrimSpace(os.Getenv("EMOBOT_PID")),
	}, nil
}

// ServerConfig 描述本地替身后端的监听地址。
type ServerConfig struct {
	Addr string
}

func loadServerConfig() (ServerConfig, error) {
	port := strings.TrimSpace(os.Getenv("PORT"))
	if port == "" {
		port = "8080"
	}

	if strings.Contains(port, ":") {
		// 允许直接传入 ":8080" 或 "127.0.0.1:8080"。
		return ServerConfig{Addr: port}, nil
	}

	if strings.Contains(port, " ") {
		return ServerConfig{}, fmt.Errorf("invalid PORT value: %q", port)
	}

	return ServerConfig{Addr: ":" + port}, nil
}

// CacheConfig 描述客户端缓存文件的位置。
type CacheConfig struct {
	Path string
}

func loadCacheConfig() CacheConfig {
	if path := strings.TrimSpace(os.Getenv("EMOBOT_CACHE_FILE")); path != "" {
		return CacheConfig{Path: path}
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return CacheConfig{Path: "emobot-cache.json"}
	}
	return CacheConfig{Path: filepath.Join(home, ".emobot", "cache.json")}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func parseOptionalIntEnv(key string) (*int, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.Atoi(value)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}
