package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"

	"github.com/svcdeck/svcdeck/internal/registry"
)

// FileConfig represents the top-level TOML structure.
type FileConfig struct {
	Server   ServerConfig             `toml:"server" mapstructure:"server"`
	Monitor  MonitorConfig            `toml:"monitor" mapstructure:"monitor"`
	Defaults DefaultsConfig           `toml:"defaults" mapstructure:"defaults"`
	Log      LogConfig                `toml:"log" mapstructure:"log"`
	History  HistoryConfig            `toml:"history" mapstructure:"history"`
	Services []registry.ServiceConfig `toml:"services" mapstructure:"services"`
}

type ServerConfig struct {
	Listen   string `toml:"listen" mapstructure:"listen"`
	BasePath string `toml:"base_path" mapstructure:"base_path"`
	Ordering string `toml:"ordering" mapstructure:"ordering"`
}

type MonitorConfig struct {
	Enabled  bool          `toml:"enabled" mapstructure:"enabled"`
	Interval time.Duration `toml:"interval" mapstructure:"interval"`
}

type DefaultsConfig struct {
	SettleDelay    time.Duration `toml:"settle_delay" mapstructure:"settle_delay"`
	CorrelateDelay time.Duration `toml:"correlate_delay" mapstructure:"correlate_delay"`
	RestartDelay   time.Duration `toml:"restart_delay" mapstructure:"restart_delay"`
	BatchDelay     time.Duration `toml:"batch_delay" mapstructure:"batch_delay"`
}

type LogConfig struct {
	Level string `toml:"level" mapstructure:"level"`
	File  string `toml:"file" mapstructure:"file"`
}

type HistoryConfig struct {
	SQLDSN          string `toml:"sql_dsn" mapstructure:"sql_dsn"`
	ClickHouseAddr  string `toml:"clickhouse_addr" mapstructure:"clickhouse_addr"`
	ClickHouseTable string `toml:"clickhouse_table" mapstructure:"clickhouse_table"`
}

// Load reads and validates a TOML config file.
func Load(path string) (*FileConfig, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("toml")
	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}
	var fc FileConfig
	if err := v.Unmarshal(&fc); err != nil {
		return nil, err
	}
	if fc.Server.Listen == "" {
		fc.Server.Listen = "127.0.0.1:8099"
	}
	if fc.Server.BasePath == "" {
		fc.Server.BasePath = "/api"
	}
	if fc.History.ClickHouseAddr != "" && fc.History.ClickHouseTable == "" {
		return nil, fmt.Errorf("history.clickhouse_table is required when clickhouse_addr is set")
	}
	return &fc, nil
}

// BuildRegistry constructs the service registry from the loaded config.
func (fc *FileConfig) BuildRegistry() (*registry.Registry, error) {
	return registry.New(fc.Services)
}
