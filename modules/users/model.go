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

package users

import (
	"context"
	"time"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect"

	"github.com/tomoncle/baserepo/database"
	"github.com/tomoncle/baserepo/types"
)

// User is an account. InvitedBy is loaded on demand through the
// "invitedBy" populate path.
type User struct {
	bun.BaseModel `bun:"table:users,alias:u"`

	ID          string           `bun:"id,pk,type:varchar(36)" json:"id"`
	UserName    string           `bun:"user_name,notnull" json:"userName"`
	Email       string           `bun:"email,nullzero,unique" json:"email,omitempty"`
	Password    string           `bun:"password,notnull" json:"-"`
	Phone       string           `bun:"phone,nullzero,notnull,default:''" json:"phone"`
	Address     string           `bun:"address,nullzero,notnull,default:''" json:"address"`
	Role        Role             `bun:"role,nullzero,notnull,default:'USER'" json:"role"`
	Status      Status           `bun:"status,nullzero,notnull,default:'INACTIVE'" json:"status"`
	Settings    types.JsonObject `bun:"settings,type:text" json:"settings,omitempty"`
	InvitedByID string           `bun:"invited_by_id,nullzero,type:varchar(36)" json:"invitedById,omitempty"`
	InvitedBy   *User            `bun:"rel:belongs-to,join:invited_by_id=id" json:"invitedBy,omitempty"`
	CreatedAt   time.Time        `bun:"created_at,nullzero,notnull,default:current_timestamp" json:"createdAt"`
	UpdatedAt   time.Time        `bun:"updated_at,nullzero,notnull,default:current_timestamp" json:"updatedAt"`
}

// StatusCount is one row of the per-status aggregation.
type StatusCount struct {
	Status Status `bun:"status" json:"status"`
	Count  int    `bun:"count" json:"count"`
}

// RegisterModels adds the users table and its indexes to the migration set.
func RegisterModels() {
	database.RegisterModel((*User)(nil), 10)
	database.RegisterMigration(database.MigrationItem{
		Version:     "001",
		Name:        "users_status_index",
		Description: "Index users by status",
		Up:          createStatusIndex,
	})
}

func createStatusIndex(ctx context.Context, db bun.IDB) error {
	q := db.NewCreateIndex().
		Model((*User)(nil)).
		Index("idx_users_status").
		Column("status")
	// MySQL has no CREATE INDEX IF NOT EXISTS; the migration runs once anyway.
	if db.Dialect().Name() != dialect.MySQL {
		q = q.IfNotExists()
	}
	_, err := q.Exec(ctx)
	return err
}
