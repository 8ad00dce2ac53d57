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
	"fmt"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/uptrace/bun"
)

// Migration is an applied migration record stored in the database.
type Migration struct {
	bun.BaseModel `bun:"table:schema_migrations"`

	Version     string    `bun:"version,pk"`
	Name        string    `bun:"name"`
	AppliedAt   time.Time `bun:"applied_at"`
	Description string    `bun:"description"`
}

// MigrationFunc is a migration step executed within a transaction.
type MigrationFunc func(ctx context.Context, db bun.IDB) error

// MigrationItem describes a single migration version.
type MigrationItem struct {
	Version     string
	Name        string
	Description string
	Up          MigrationFunc
}

const baseTablesVersion = "000"

var (
	registeredMigrationsMu sync.Mutex
	registeredMigrations   []MigrationItem
)

// RegisterMigration adds a migration that every MigrationManager created
// afterwards runs. Versions sort as strings; "000" is reserved for table
// creation of registered models.
func RegisterMigration(item MigrationItem) {
	registeredMigrationsMu.Lock()
	defer registeredMigrationsMu.Unlock()
	for _, m := range registeredMigrations {
		if m.Version == item.Version {
			return
		}
	}
	registeredMigrations = append(registeredMigrations, item)
}

// MigrationManager creates registered tables and applies migrations once each.
type MigrationManager struct {
	db       *bun.DB
	logger   Logger
	registry ModelRegistry
	items    []MigrationItem
}

// NewMigrationManager builds a manager over the default model registry and
// the migrations registered so far.
func NewMigrationManager(db *bun.DB, logger Logger) *MigrationManager {
	registeredMigrationsMu.Lock()
	items := make([]MigrationItem, len(registeredMigrations))
	copy(items, registeredMigrations)
	registeredMigrationsMu.Unlock()
	return &MigrationManager{db: db, logger: logger, registry: defaultRegistry, items: items}
}

// WithRegistry swaps the model registry, mostly for tests.
func (mm *MigrationManager) WithRegistry(r ModelRegistry) *MigrationManager {
	mm.registry = r
	return mm
}

// Add appends migrations to this manager only.
func (mm *MigrationManager) Add(items ...MigrationItem) *MigrationManager {
	mm.items = append(mm.items, items...)
	return mm
}

// RunMigrations creates the tracking table and applies pending migrations in
// ascending version order.
func (mm *MigrationManager) RunMigrations(ctx context.Context) error {
	if mm.db == nil {
		return fmt.Errorf("database not initialized")
	}
	if _, ok := os.LookupEnv("BUNDEBUG_MIGRATION"); !ok {
		EnableBunSqlSilent(true)
		defer EnableBunSqlSilent(false)
	}

	if _, err := mm.db.NewCreateTable().Model((*Migration)(nil)).IfNotExists().Exec(ctx); err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	migrations := append([]MigrationItem{{
		Version:     baseTablesVersion,
		Name:        "create_base_tables",
		Description: "Create tables of registered models",
		Up:          mm.createBaseTables,
	}}, mm.items...)
	sort.SliceStable(migrations, func(i, j int) bool {
		return migrations[i].Version < migrations[j].Version
	})

	for _, m := range migrations {
		if err := mm.runMigration(ctx, m); err != nil {
			return fmt.Errorf("failed to execute migration %s: %w", m.Version, err)
		}
	}
	if mm.logger != nil {
		mm.logger.Info("Database migrations completed!")
	}
	return nil
}

func (mm *MigrationManager) runMigration(ctx context.Context, m MigrationItem) error {
	applied, err := mm.db.NewSelect().
		Model((*Migration)(nil)).
		Where("version = ?", m.Version).
		Exists(ctx)
	if err != nil {
		return err
	}
	// Table creation always runs so models registered after the first
	// deployment still get their tables.
	if applied && m.Version != baseTablesVersion {
		return nil
	}

	err = mm.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if err := m.Up(ctx, tx); err != nil {
			return err
		}
		if applied {
			return nil
		}
		_, err := tx.NewInsert().
			Model(&Migration{
				Version:     m.Version,
				Name:        m.Name,
				AppliedAt:   time.Now(),
				Description: m.Description,
			}).
			Exec(ctx)
		return err
	})
	if err != nil {
		return err
	}
	if mm.logger != nil && !applied {
		mm.logger.Debug("Migration executed successfully", "version", m.Version, "name", m.Name)
	}
	return nil
}

func (mm *MigrationManager) createBaseTables(ctx context.Context, db bun.IDB) error {
	for _, model := range mm.registry.Instances() {
		_, err := db.NewCreateTable().
			Model(model).
			IfNotExists().
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to create table %T: %w", model, err)
		}
	}
	return nil
}

// GetAppliedMigrations returns migration records ordered by version.
func (mm *MigrationManager) GetAppliedMigrations(ctx context.Context) ([]Migration, error) {
	var migrations []Migration
	err := mm.db.NewSelect().
		Model(&migrations).
		Order("version ASC").
		Scan(ctx)
	return migrations, err
}
