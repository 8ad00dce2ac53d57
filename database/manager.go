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

package database

import (
	"context"
	"database/sql"
	"fmt"
	"net"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/mysqldialect"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
	"github.com/uptrace/bun/extra/bundebug"
	"github.com/uptrace/bun/schema"
)

// driver knows how to open one database type.
type driver struct {
	sqlName string
	dsn     func(*ConnectionConfig) string
	dialect func() schema.Dialect
}

var (
	mysqlDriver = driver{
		sqlName: "mysql",
		dsn:     mysqlDSN,
		dialect: func() schema.Dialect { return mysqldialect.New() },
	}
	postgresDriver = driver{
		sqlName: "postgres",
		dsn:     postgresDSN,
		dialect: func() schema.Dialect { return pgdialect.New() },
	}
	sqliteDriver = driver{
		sqlName: sqliteshim.ShimName,
		dsn:     sqliteDSN,
		dialect: func() schema.Dialect { return sqlitedialect.New() },
	}

	drivers = map[string]driver{
		"mysql":      mysqlDriver,
		"postgres":   postgresDriver,
		"postgresql": postgresDriver,
		"sqlite":     sqliteDriver,
		"sqlite3":    sqliteDriver,
	}
)

// SupportedTypes lists the accepted ConnectionConfig.Type values.
func SupportedTypes() []string {
	types := make([]string, 0, len(drivers))
	for name := range drivers {
		types = append(types, name)
	}
	sort.Strings(types)
	return types
}

func mysqlDSN(c *ConnectionConfig) string {
	mc := mysql.NewConfig()
	mc.User = c.Username
	mc.Passwd = c.Password
	mc.Net = "tcp"
	mc.Addr = net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
	mc.DBName = c.DBName
	mc.ParseTime = true
	mc.Loc = time.Local
	mc.Timeout = c.ConnectTimeout
	mc.ReadTimeout = c.ReadTimeout
	mc.WriteTimeout = c.WriteTimeout
	mc.Params = map[string]string{"charset": "utf8mb4"}
	return mc.FormatDSN()
}

func postgresDSN(c *ConnectionConfig) string {
	sslMode := c.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	query := url.Values{}
	query.Set("sslmode", sslMode)
	if c.ConnectTimeout > 0 {
		query.Set("connect_timeout", strconv.Itoa(int(c.ConnectTimeout.Seconds())))
	}
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.Username, c.Password),
		Host:     net.JoinHostPort(c.Host, strconv.Itoa(c.Port)),
		Path:     "/" + c.DBName,
		RawQuery: query.Encode(),
	}
	return u.String()
}

// sqliteDSN accepts ":memory:", "file:..." URIs, paths ending in .db or
// .sqlite, or a bare name that becomes "<name>.db".
func sqliteDSN(c *ConnectionConfig) string {
	name := c.DBName
	switch {
	case c.IsInMemory():
		return ":memory:"
	case strings.HasPrefix(name, "file:"), strings.HasSuffix(name, ".db"), strings.HasSuffix(name, ".sqlite"):
		return name
	default:
		return name + ".db"
	}
}

// queryHooks returns the hooks enabled by c: the colored or bundebug query
// log and the slow query log.
func queryHooks(c *ConnectionConfig, logger Logger) []bun.QueryHook {
	var hooks []bun.QueryHook
	if c.EnableQueryLog {
		if c.ColorQueryLog {
			hooks = append(hooks, NewQueryHook("BUNDEBUG", true, true))
		} else {
			hooks = append(hooks, bundebug.NewQueryHook(
				bundebug.WithVerbose(true),
				bundebug.FromEnv("BUNDEBUG"),
			))
		}
	}
	if c.SlowQueryTime > 0 {
		hooks = append(hooks, NewSlowQueryHook(c.SlowQueryTime, logger))
	}
	return hooks
}

type defaultDatabaseManager struct {
	config *ConnectionConfig

	mu        sync.RWMutex
	db        *bun.DB
	sqlDB     *sql.DB
	logger    Logger
	lastError error
	status    *HealthStatus
	stopWatch context.CancelFunc

	reconnectTries atomic.Int32
}

// NewDatabaseManager returns an AbstractDatabaseManager backed by Bun. A nil
// config falls back to DefaultConnectionConfig.
func NewDatabaseManager(config *ConnectionConfig) AbstractDatabaseManager {
	if config == nil {
		config = DefaultConnectionConfig()
	}
	return &defaultDatabaseManager{config: config, status: &HealthStatus{}}
}

// Connect opens and pings the database. When HealthCheckInterval is set a
// background watcher pings it periodically and reconnects if allowed.
func (dm *defaultDatabaseManager) Connect(ctx context.Context) error {
	dm.mu.Lock()
	defer dm.mu.Unlock()
	if dm.db != nil {
		return nil
	}
	if err := dm.openLocked(ctx); err != nil {
		return err
	}
	if dm.config.HealthCheckInterval > 0 && dm.stopWatch == nil {
		watchCtx, cancel := context.WithCancel(context.Background())
		dm.stopWatch = cancel
		go dm.watch(watchCtx, dm.config.HealthCheckInterval)
	}
	return nil
}

func (dm *defaultDatabaseManager) openLocked(ctx context.Context) error {
	drv, ok := drivers[dm.config.Type]
	if !ok {
		return fmt.Errorf("unsupported database type: %s", dm.config.Type)
	}
	if dm.config.ConnectTimeout <= 0 {
		dm.config.ConnectTimeout = 30 * time.Second
	}

	sqlDB, err := sql.Open(drv.sqlName, drv.dsn(dm.config))
	if err != nil {
		dm.lastError = err
		return fmt.Errorf("failed to create database connection: %w", err)
	}
	db := bun.NewDB(sqlDB, drv.dialect())
	for _, hook := range queryHooks(dm.config, dm.logger) {
		db.AddQueryHook(hook)
	}
	configurePool(sqlDB, dm.config)

	pingCtx, cancel := context.WithTimeout(ctx, dm.config.ConnectTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		dm.lastError = err
		_ = db.Close()
		return fmt.Errorf("database connection test failed: %w", err)
	}

	dm.db, dm.sqlDB = db, sqlDB
	dm.lastError = nil
	if dm.logger != nil {
		dm.logger.Info("Database connected successfully", "type", dm.config.Type, "host", dm.config.Host, "dbname", dm.config.DBName)
	}
	return nil
}

func configurePool(sqlDB *sql.DB, c *ConnectionConfig) {
	if c.IsInMemory() {
		// Every new connection to :memory: would see an empty database.
		sqlDB.SetMaxOpenConns(1)
		sqlDB.SetMaxIdleConns(1)
		sqlDB.SetConnMaxLifetime(0)
		sqlDB.SetConnMaxIdleTime(0)
		return
	}
	sqlDB.SetMaxIdleConns(c.MaxIdleConns)
	sqlDB.SetMaxOpenConns(c.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(c.ConnMaxLifetime)
	sqlDB.SetConnMaxIdleTime(c.ConnMaxIdleTime)
}

// Disconnect stops the health watcher and closes the pool.
func (dm *defaultDatabaseManager) Disconnect() error {
	dm.mu.Lock()
	defer dm.mu.Unlock()
	if dm.stopWatch != nil {
		dm.stopWatch()
		dm.stopWatch = nil
	}
	return dm.closeLocked()
}

func (dm *defaultDatabaseManager) closeLocked() error {
	if dm.db == nil {
		return nil
	}
	err := dm.db.Close()
	dm.db, dm.sqlDB = nil, nil
	if dm.logger != nil {
		if err != nil {
			dm.logger.Error("Failed to close database connection", "error", err)
		} else {
			dm.logger.Info("Database connection closed")
		}
	}
	return err
}

// Reconnect re-establishes connectivity without replacing the handle, so
// *bun.DB values already handed out keep working. Idle connections are
// dropped and the pool dials fresh ones on the next ping. A closed manager
// is opened again. A running health watcher keeps running.
func (dm *defaultDatabaseManager) Reconnect(ctx context.Context) error {
	dm.mu.Lock()
	defer dm.mu.Unlock()
	return dm.reconnectLocked(ctx)
}

func (dm *defaultDatabaseManager) reconnectLocked(ctx context.Context) error {
	if dm.logger != nil {
		dm.logger.Info("Attempting to reconnect to the database")
	}
	if dm.db == nil {
		return dm.openLocked(ctx)
	}
	if !dm.config.IsInMemory() {
		dm.sqlDB.SetMaxIdleConns(0)
		configurePool(dm.sqlDB, dm.config)
	}

	pingCtx, cancel := context.WithTimeout(ctx, dm.config.ConnectTimeout)
	defer cancel()
	if err := dm.db.PingContext(pingCtx); err != nil {
		dm.lastError = err
		return fmt.Errorf("database reconnect failed: %w", err)
	}
	dm.lastError = nil
	return nil
}

func (dm *defaultDatabaseManager) Ping(ctx context.Context) error {
	db := dm.GetDB()
	if db == nil {
		return fmt.Errorf("database not connected")
	}
	return db.PingContext(ctx)
}

func (dm *defaultDatabaseManager) GetDB() *bun.DB {
	dm.mu.RLock()
	defer dm.mu.RUnlock()
	return dm.db
}

func (dm *defaultDatabaseManager) GetSQLDB() *sql.DB {
	dm.mu.RLock()
	defer dm.mu.RUnlock()
	return dm.sqlDB
}

func (dm *defaultDatabaseManager) HealthCheck(ctx context.Context) *HealthStatus {
	dm.mu.RLock()
	db, sqlDB := dm.db, dm.sqlDB
	dm.mu.RUnlock()

	start := time.Now()
	status := &HealthStatus{LastCheckTime: start}
	var err error
	if db == nil {
		err = fmt.Errorf("database not initialized")
	} else {
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		err = db.PingContext(pingCtx)
		cancel()
		status.ResponseTime = time.Since(start)

		stats := sqlDB.Stats()
		status.ActiveConns = stats.InUse
		status.IdleConns = stats.Idle
		status.MaxOpenConns = stats.MaxOpenConnections
	}
	if err != nil {
		status.LastError = err.Error()
	} else {
		status.Healthy = true
		status.Connected = true
	}

	dm.mu.Lock()
	dm.status = status
	dm.lastError = err
	dm.mu.Unlock()
	return status
}

func (dm *defaultDatabaseManager) watch(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			checkCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			status := dm.HealthCheck(checkCtx)
			cancel()
			if !status.Healthy && dm.config.EnableReconnect {
				dm.tryReconnect(ctx)
			}
		}
	}
}

// tryReconnect waits ReconnectInterval times the attempt number, then
// reconnects. It gives up after MaxReconnectTries consecutive failures.
func (dm *defaultDatabaseManager) tryReconnect(ctx context.Context) {
	try := int(dm.reconnectTries.Add(1))
	if try > dm.config.MaxReconnectTries {
		if try == dm.config.MaxReconnectTries+1 && dm.logger != nil {
			dm.logger.Error("Max reconnect attempts reached, stopping", "tries", dm.config.MaxReconnectTries)
		}
		return
	}
	if dm.logger != nil {
		dm.logger.Info("Starting database reconnect", "try", try)
	}

	select {
	case <-ctx.Done():
		return
	case <-time.After(dm.config.ReconnectInterval * time.Duration(try)):
	}

	connectCtx, cancel := context.WithTimeout(ctx, dm.config.ConnectTimeout)
	defer cancel()
	dm.mu.Lock()
	var err error
	if ctx.Err() == nil {
		// The watcher context is cancelled by Disconnect.
		err = dm.reconnectLocked(connectCtx)
	}
	dm.mu.Unlock()
	if ctx.Err() != nil {
		return
	}
	if err != nil {
		if dm.logger != nil {
			dm.logger.Error("Reconnect failed", "error", err, "try", try)
		}
		return
	}
	dm.reconnectTries.Store(0)
	if dm.logger != nil {
		dm.logger.Info("Reconnect succeeded")
	}
}

func (dm *defaultDatabaseManager) GetStats() *DBStats {
	sqlDB := dm.GetSQLDB()
	if sqlDB == nil {
		return &DBStats{}
	}
	stats := sqlDB.Stats()
	return &DBStats{
		MaxOpenConns:      stats.MaxOpenConnections,
		OpenConns:         stats.OpenConnections,
		InUse:             stats.InUse,
		Idle:              stats.Idle,
		WaitCount:         stats.WaitCount,
		WaitDuration:      stats.WaitDuration,
		MaxIdleClosed:     stats.MaxIdleClosed,
		MaxIdleTimeClosed: stats.MaxIdleTimeClosed,
		MaxLifetimeClosed: stats.MaxLifetimeClosed,
	}
}

func (dm *defaultDatabaseManager) RunMigrations(ctx context.Context) error {
	db := dm.GetDB()
	if db == nil {
		return fmt.Errorf("database not initialized")
	}
	dm.mu.RLock()
	logger := dm.logger
	dm.mu.RUnlock()
	return NewMigrationManager(db, logger).RunMigrations(ctx)
}

func (dm *defaultDatabaseManager) SetLogger(logger Logger) {
	dm.mu.Lock()
	defer dm.mu.Unlock()
	dm.logger = logger
}
