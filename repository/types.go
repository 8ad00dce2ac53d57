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

package repository

import (
	"context"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/schema"

	"github.com/tomoncle/baserepo/types"
)

// ReadOptions tunes a read. Columns is a projection (the key column is
// always selected); Limit and Offset are ignored by single-record reads.
type ReadOptions struct {
	Columns []string
	Sort    []types.Sort
	Limit   int
	Offset  int
}

// CrudRepository defines the write operations of a generic entity type.
type CrudRepository[T any] interface {
	// Create inserts entity, generating a string key when it is empty,
	// and returns it refreshed with datastore defaults.
	Create(ctx context.Context, entity *T) (*T, error)

	// CreateOrUpdate creates entity when no record has its key, otherwise
	// overwrites every stored column except created_at with its fields.
	CreateOrUpdate(ctx context.Context, entity *T) (*T, error)

	InsertMany(ctx context.Context, entities []*T) ([]*T, error)

	// Upsert inserts entities and, on key conflict, overwrites columns
	// (every non-key column when empty).
	Upsert(ctx context.Context, columns []string, entities ...*T) error

	// UpdateOne applies update to the first record matching filter and
	// returns the updated record, or nil when nothing matched.
	UpdateOne(ctx context.Context, filter types.Filter, update types.Update) (*T, error)

	UpdateByID(ctx context.Context, id any, update types.Update) (*T, error)

	// RemoveByID deletes a record and returns it. Removing an absent key
	// returns nil without error.
	RemoveByID(ctx context.Context, id any) (*T, error)

	// RemoveAll deletes every record matching filter; an empty filter
	// deletes all records.
	RemoveAll(ctx context.Context, filter types.Filter) (int64, error)
}

// FinderRepository defines the read operations of a generic entity type.
// The populates arguments name relations resolved in order on each result.
type FinderRepository[T any] interface {
	FindByID(ctx context.Context, id any, opts *ReadOptions, populates ...string) (*T, error)

	// FindOne returns nil, nil when nothing matches.
	FindOne(ctx context.Context, filter types.Filter, opts *ReadOptions, populates ...string) (*T, error)

	FindOneOrFail(ctx context.Context, filter types.Filter) (*T, error)

	Find(ctx context.Context, filter types.Filter, opts *ReadOptions, populates ...string) ([]*T, error)

	FindOrFail(ctx context.Context, id any) (*T, error)

	// FindAll returns at most limit records (0 means no limit).
	FindAll(ctx context.Context, filter types.Filter, limit int, sort ...types.Sort) ([]*T, error)

	Count(ctx context.Context, filter types.Filter) (int, error)
}

// PageQueryRepository defines pagination functionality for listing entities.
type PageQueryRepository[T any] interface {
	Paginate(ctx context.Context, page *types.PageRequest) (*types.Pagination[T], error)
}

// Repository combines reads, writes and pagination and exposes the
// underlying Bun handles for queries the generic operations cannot express.
type Repository[T any] interface {
	CrudRepository[T]
	FinderRepository[T]
	PageQueryRepository[T]

	DB() bun.IDB
	AggDB() bun.IDB
	Table() *schema.Table
	PrimaryKey() string
	Populate(ctx context.Context, entity *T, populates ...string) error

	// WithTx returns a repository running every operation inside tx.
	WithTx(tx bun.Tx) Repository[T]
}
