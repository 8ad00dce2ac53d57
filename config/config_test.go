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

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "0.0.0.0:8080", cfg.Server.Addr())
	assert.Equal(t, "sqlite", cfg.Database.ConnectionConfig.Type)
	assert.True(t, cfg.Database.DataMigrateConfig.EnableMigrateOnStartup)
	assert.Equal(t, 100, cfg.Database.ConnectionConfig.MaxOpenConns)
}

func TestLoadYAMLAndEnv(t *testing.T) {
	t.Chdir(t.TempDir())
	path := writeFile(t, "config.yaml", `
server:
  port: 9090
  read_timeout: 5s
log:
  level: debug
  format: json
database:
  connection:
    type: postgres
    host: db.internal
    port: 5432
    dbname: users
    slow_query_time: 500ms
  migrate:
    enable_migrate_on_startup: false
`)
	t.Setenv("APP_LOG_LEVEL", "warn")
	t.Setenv("APP_SERVER_HOST", "127.0.0.1")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:9090", cfg.Server.Addr())
	assert.Equal(t, 5*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, 10*time.Second, cfg.Server.WriteTimeout, "unset keys keep defaults")
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)

	conn := cfg.Database.ConnectionConfig
	assert.Equal(t, "postgres", conn.Type)
	assert.Equal(t, "db.internal", conn.Host)
	assert.Equal(t, "users", conn.DBName)
	assert.Equal(t, 500*time.Millisecond, conn.SlowQueryTime)
	assert.False(t, cfg.Database.DataMigrateConfig.EnableMigrateOnStartup)
}

func TestLoadFromAppConfigAndDotEnv(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("APP_SERVER_PORT=7070\n"), 0o644))
	t.Setenv("APP_CONFIG", writeFile(t, "app.yaml", "log:\n  level: error\n"))
	t.Cleanup(func() { _ = os.Unsetenv("APP_SERVER_PORT") })

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "error", cfg.Log.Level)
	assert.Equal(t, 7070, cfg.Server.Port)
}

func TestLoadRejectsInvalid(t *testing.T) {
	t.Chdir(t.TempDir())

	_, err := Load(writeFile(t, "bad.yaml", "log:\n  format: xml\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "log.format must be one of")

	_, err = Load(writeFile(t, "db.yaml", "database:\n  connection:\n    type: oracle\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "type must be one of")

	_, err = Load(writeFile(t, "broken.yaml", "server: [\n"))
	assert.Error(t, err)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	t.Setenv("APP_SERVER_PORT", "http")
	_, err = Load("")
	assert.Error(t, err)
}

func TestEnvOverridesAreTyped(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("APP_RATE_LIMIT", "5")
	t.Setenv("APP_DATABASE_MIGRATE", "false")
	t.Setenv("APP_DATABASE_NAME", "other.db")
	t.Setenv("APP_UNRELATED", "ignored")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 5, cfg.Server.RateLimit)
	assert.False(t, cfg.Database.DataMigrateConfig.EnableMigrateOnStartup)
	assert.Equal(t, "other.db", cfg.Database.ConnectionConfig.DBName)
	assert.Equal(t, 8080, cfg.Server.Port)
}
