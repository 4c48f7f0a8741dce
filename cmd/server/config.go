package main

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/spf13/viper"
)

// Config keys
const (
	cfgKeyAddr            = "addr"
	cfgKeyDBPath          = "db_path"
	cfgKeyLogLevel        = "log_level"
	cfgKeyRateLimit       = "rate_limit"
	cfgKeyRateWindow      = "rate_window"
	cfgKeyShutdownTimeout = "shutdown_timeout"
)

// Config содержит конфигурацию сервера
type Config struct {
	Addr            string
	DBPath          string
	LogLevel        string
	RateLimit       int
	RateWindow      time.Duration
	ShutdownTimeout time.Duration
}

// loadConfig читает конфигурацию: значения по умолчанию, опциональный
// файл конфигурации (путь из -config) и переменные окружения с префиксом SYNCKEEPER
// (SYNCKEEPER_ADDR, SYNCKEEPER_DB_PATH, ...). Отсутствующий файл
// конфигурации - не ошибка.
func loadConfig(configPath string) (*Config, error) {
	v := viper.New()

	v.SetDefault(cfgKeyAddr, ":8080")
	v.SetDefault(cfgKeyDBPath, "synckeeper-server.db")
	v.SetDefault(cfgKeyLogLevel, "info")
	v.SetDefault(cfgKeyRateLimit, 100)
	v.SetDefault(cfgKeyRateWindow, time.Minute)
	v.SetDefault(cfgKeyShutdownTimeout, 10*time.Second)

	v.SetEnvPrefix("SYNCKEEPER")
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok && !errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}

	return &Config{
		Addr:            v.GetString(cfgKeyAddr),
		DBPath:          v.GetString(cfgKeyDBPath),
		LogLevel:        v.GetString(cfgKeyLogLevel),
		RateLimit:       v.GetInt(cfgKeyRateLimit),
		RateWindow:      v.GetDuration(cfgKeyRateWindow),
		ShutdownTimeout: v.GetDuration(cfgKeyShutdownTimeout),
	}, nil
}
