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
	"fmt"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/feature"
)

func (r *baseRepositoryImpl[T]) Upsert(ctx context.Context, columns []string, entities ...*T) error {
	if len(entities) == 0 {
		return nil
	}
	if len(columns) == 0 {
		columns = r.dataColumns()
	}
	for _, col := range columns {
		if !r.table.HasField(col) {
			return badInputError(nil, "unknown field %q for model [%s]", col, r.table.Name)
		}
	}
	for _, e := range entities {
		r.assignKey(e)
	}

	switch {
	case r.hasFeature(feature.InsertOnConflict):
		return r.upsertOnConflict(ctx, columns, entities)
	case r.hasFeature(feature.InsertOnDuplicateKey):
		return r.upsertOnDuplicateKey(ctx, columns, entities)
	default:
		return r.upsertFallback(ctx, entities)
	}
}

// dataColumns lists the columns an upsert overwrites by default: all but
// the key and created_at.
func (r *baseRepositoryImpl[T]) dataColumns() []string {
	cols := make([]string, 0, len(r.table.DataFields))
	for _, f := range r.table.DataFields {
		if f.Name == "created_at" {
			continue
		}
		cols = append(cols, f.Name)
	}
	return cols
}

// upsertOnConflict serves PostgreSQL and SQLite.
func (r *baseRepositoryImpl[T]) upsertOnConflict(ctx context.Context, columns []string, entities []*T) error {
	q := r.db.NewInsert().
		Model(&entities).
		On("CONFLICT (?) DO UPDATE", bun.Ident(r.pk.Name))
	for _, col := range columns {
		q = q.Set("? = EXCLUDED.?", bun.Ident(col), bun.Ident(col))
	}
	_, err := q.Exec(ctx)
	return err
}

// upsertOnDuplicateKey serves MySQL.
func (r *baseRepositoryImpl[T]) upsertOnDuplicateKey(ctx context.Context, columns []string, entities []*T) error {
	_, err := r.duplicateKeyInsert(columns, entities).Exec(ctx)
	return err
}

func (r *baseRepositoryImpl[T]) duplicateKeyInsert(columns []string, entities []*T) *bun.InsertQuery {
	q := r.db.NewInsert().
		Model(&entities).
		On("DUPLICATE KEY UPDATE")
	for _, col := range columns {
		q = q.Set("? = VALUES(?)", bun.Ident(col), bun.Ident(col))
	}
	return q
}

func (r *baseRepositoryImpl[T]) upsertFallback(ctx context.Context, entities []*T) error {
	for _, entity := range entities {
		if _, err := r.CreateOrUpdate(ctx, entity); err != nil {
			return fmt.Errorf("upsert failed for key %v: %w", r.keyValue(entity).Interface(), err)
		}
	}
	return nil
}
