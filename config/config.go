/*
 * Copyright 2025 tomoncle.
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package config loads application settings.
//
// Sources, later ones winning:
//  1. built-in defaults
//  2. the YAML file ($APP_CONFIG, ./config.yaml or ./configs/config.yaml)
//  3. a .env file in the working directory, if present
//  4. APP_* environment variables
//
// The database section additionally honours the DB_* variables applied by
// the database factory.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
	"gopkg.in/yaml.v3"

	"github.com/tomoncle/baserepo/database"
	"github.com/tomoncle/baserepo/utils"
)

const envPrefix = "APP_"

type Config struct {
	Server   ServerConfig    `yaml:"server"`
	Log      LogConfig       `yaml:"log"`
	Database database.Config `yaml:"database"`
}

type ServerConfig struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port" validate:"gte=1,lte=65535"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	CORSOrigins     string        `yaml:"cors_origins"`

	// RateLimit is the number of requests per minute allowed per client IP; 0 disables limiting.
	RateLimit int `yaml:"rate_limit" validate:"gte=0"`
}

// Addr is the listen address, e.g. "0.0.0.0:8080".
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

type LogConfig struct {
	Level  string `yaml:"level" validate:"oneof=trace debug info warn warning error"`
	Format string `yaml:"format" validate:"oneof=text json"`
	File   string `yaml:"file"`
}

// Default returns a config that serves on :8080 backed by a local SQLite file.
func Default() *Config {
	conn := database.DefaultConnectionConfig()
	conn.Type = "sqlite"
	conn.DBName = "baserepo.db"
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8080,
			ReadTimeout:     10 * time.Second,
			WriteTimeout:    10 * time.Second,
			IdleTimeout:     30 * time.Second,
			ShutdownTimeout: 30 * time.Second,
			CORSOrigins:     "*",
			RateLimit:       200,
		},
		Log: LogConfig{Level: "info", Format: "text"},
		Database: database.Config{
			ConnectionConfig:  *conn,
			DataMigrateConfig: database.DataMigrateConfig{EnableMigrateOnStartup: true},
		},
	}
}

// FindConfigPath returns the first existing config file, or "" when none exists.
func FindConfigPath() string {
	if p := os.Getenv("APP_CONFIG"); p != "" {
		return p
	}
	for _, p := range []string{"config.yaml", "configs/config.yaml"} {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// Load reads path (or the discovered config file when path is empty),
// applies environment overrides and validates the result.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	if path == "" {
		path = FindConfigPath()
	}

	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	cfg.Database.ConnectionConfig.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks field constraints declared with validate tags.
func (c *Config) Validate() error {
	if err := utils.NewValidator().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// envKeys maps the supported APP_* variables to config paths.
var envKeys = map[string]string{
	"APP_SERVER_HOST":      "server.host",
	"APP_SERVER_PORT":      "server.port",
	"APP_CORS_ORIGINS":     "server.cors_origins",
	"APP_RATE_LIMIT":       "server.rate_limit",
	"APP_LOG_LEVEL":        "log.level",
	"APP_LOG_FORMAT":       "log.format",
	"APP_LOG_FILE":         "log.file",
	"APP_DATABASE_TYPE":    "database.connection.type",
	"APP_DATABASE_NAME":    "database.connection.dbname",
	"APP_DATABASE_MIGRATE": "database.migrate.enable_migrate_on_startup",
}

// applyEnv overlays the APP_* variables that are set onto c. Values are
// decoded weakly, so "8081" fills an int and "30s" a duration.
func (c *Config) applyEnv() error {
	k := koanf.New(".")
	provider := env.Provider(envPrefix, ".", func(s string) string {
		return envKeys[s]
	})
	if err := k.Load(provider, nil); err != nil {
		return fmt.Errorf("load environment: %w", err)
	}
	if err := k.UnmarshalWithConf("", c, koanf.UnmarshalConf{Tag: "yaml"}); err != nil {
		return fmt.Errorf("apply environment: %w", err)
	}
	return nil
}
