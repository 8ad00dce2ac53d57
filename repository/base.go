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
	"database/sql"
	"errors"
	"fmt"
	"reflect"
	"time"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/feature"
	"github.com/uptrace/bun/schema"

	"github.com/tomoncle/baserepo/types"
)

const updatedAtColumn = "updated_at"

type baseRepositoryImpl[T any] struct {
	db        bun.IDB
	aggDB     bun.IDB
	table     *schema.Table
	pk        *schema.Field
	populator *Populator[T]
	opts      *options
}

// NewRepository returns a generic repository over the table of T. Every
// relation declared on T is populatable under its Go field name. It panics
// when T is not a bun model with a primary key.
func NewRepository[T any](db bun.IDB, opts ...Option) Repository[T] {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}

	table := db.Dialect().Tables().Get(reflect.TypeOf((*T)(nil)).Elem())
	r := &baseRepositoryImpl[T]{
		db:        db,
		aggDB:     o.aggDB,
		table:     table,
		pk:        primaryKeyField(table, o.primaryKey),
		populator: NewPopulator[T](),
		opts:      o,
	}
	for name := range table.Relations {
		r.populator.Register(name, RelationResolver[T](name))
	}
	for _, p := range o.populators {
		typed, ok := p.(*Populator[T])
		if !ok {
			panic(fmt.Sprintf("repository: populator %T does not match model %s", p, table.TypeName))
		}
		r.populator.merge(typed)
	}
	return r
}

func primaryKeyField(table *schema.Table, column string) *schema.Field {
	if column != "" {
		field, ok := table.FieldMap[column]
		if !ok {
			panic(fmt.Sprintf("repository: model %s has no column %q", table.TypeName, column))
		}
		return field
	}
	if len(table.PKs) == 0 {
		panic(fmt.Sprintf("repository: model %s has no primary key", table.TypeName))
	}
	return table.PKs[0]
}

func (r *baseRepositoryImpl[T]) DB() bun.IDB { return r.db }

// AggDB falls back to the main handle when no aggregation handle was given.
func (r *baseRepositoryImpl[T]) AggDB() bun.IDB {
	if r.aggDB != nil {
		return r.aggDB
	}
	return r.db
}

func (r *baseRepositoryImpl[T]) Table() *schema.Table { return r.table }

func (r *baseRepositoryImpl[T]) PrimaryKey() string { return r.pk.Name }

func (r *baseRepositoryImpl[T]) WithTx(tx bun.Tx) Repository[T] {
	cp := *r
	cp.db = tx
	cp.aggDB = tx
	return &cp
}

func (r *baseRepositoryImpl[T]) hasFeature(f feature.Feature) bool {
	return r.db.Dialect().Features().Has(f)
}

func (r *baseRepositoryImpl[T]) Create(ctx context.Context, entity *T) (*T, error) {
	r.assignKey(entity)
	q := r.db.NewInsert().Model(entity)
	if r.hasFeature(feature.InsertReturning) {
		_, err := q.Returning("*").Exec(ctx)
		if err != nil {
			return nil, err
		}
		return entity, nil
	}
	if _, err := q.Exec(ctx); err != nil {
		return nil, err
	}
	if err := r.db.NewSelect().Model(entity).WherePK().Scan(ctx); err != nil {
		return nil, err
	}
	return entity, nil
}

func (r *baseRepositoryImpl[T]) CreateOrUpdate(ctx context.Context, entity *T) (*T, error) {
	key := r.keyValue(entity)
	if key.IsZero() {
		return r.Create(ctx, entity)
	}

	var saved *T
	err := r.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		txRepo := r.WithTx(tx)
		stored := new(T)
		err := tx.NewSelect().Model(stored).Where("? = ?", bun.Ident(r.pk.Name), key.Interface()).Scan(ctx)
		if errors.Is(err, sql.ErrNoRows) {
			saved, err = txRepo.Create(ctx, entity)
			return err
		}
		if err != nil {
			return err
		}
		update := r.payloadColumns(entity)
		if len(update) == 0 {
			saved = stored
			return nil
		}
		saved, err = txRepo.UpdateByID(ctx, key.Interface(), update)
		return err
	})
	if err != nil {
		return nil, err
	}
	return saved, nil
}

// payloadColumns maps every data column of entity except created_at to its
// value, so zero values overwrite stored ones. A zero nullzero field gets
// what an insert would store: its SQL default, or NULL. A zero updated_at
// is left for prepareUpdate to stamp.
func (r *baseRepositoryImpl[T]) payloadColumns(entity *T) types.Update {
	v := reflect.ValueOf(entity).Elem()
	update := make(types.Update)
	for _, f := range r.table.DataFields {
		if f.Name == "created_at" {
			continue
		}
		fv := v.FieldByIndex(f.Index)
		switch {
		case fv.IsZero() && f.Name == updatedAtColumn:
			continue
		case fv.IsZero() && f.NullZero && f.SQLDefault != "":
			update[f.Name] = bun.Safe(f.SQLDefault)
		case fv.IsZero() && f.NullZero:
			update[f.Name] = nil
		default:
			update[f.Name] = fv.Interface()
		}
	}
	return update
}

func (r *baseRepositoryImpl[T]) FindByID(ctx context.Context, id any, opts *ReadOptions, populates ...string) (*T, error) {
	key, err := r.parseKey(id)
	if err != nil {
		return nil, err
	}
	entity := new(T)
	q, err := r.readQuery(r.db.NewSelect().Model(entity), opts)
	if err != nil {
		return nil, err
	}
	err = q.Where("? = ?", bun.Ident(r.pk.Name), key).Limit(1).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFoundError(id)
	}
	if err != nil {
		return nil, err
	}
	if err := r.Populate(ctx, entity, populates...); err != nil {
		return nil, err
	}
	return entity, nil
}

func (r *baseRepositoryImpl[T]) FindOne(ctx context.Context, filter types.Filter, opts *ReadOptions, populates ...string) (*T, error) {
	if err := r.checkFilter(filter); err != nil {
		return nil, err
	}
	entity := new(T)
	q, err := r.readQuery(r.db.NewSelect().Model(entity), opts)
	if err != nil {
		return nil, err
	}
	err = q.ApplyQueryBuilder(whereFilter(filter)).Limit(1).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if err := r.Populate(ctx, entity, populates...); err != nil {
		return nil, err
	}
	return entity, nil
}

func (r *baseRepositoryImpl[T]) FindOneOrFail(ctx context.Context, filter types.Filter) (*T, error) {
	entity, err := r.FindOne(ctx, filter, nil)
	if err != nil {
		return nil, err
	}
	if entity == nil {
		return nil, modelNotFoundError(r.table.Name, filter.String())
	}
	return entity, nil
}

func (r *baseRepositoryImpl[T]) Find(ctx context.Context, filter types.Filter, opts *ReadOptions, populates ...string) ([]*T, error) {
	if err := r.checkFilter(filter); err != nil {
		return nil, err
	}
	entities := make([]*T, 0)
	q, err := r.readQuery(r.db.NewSelect().Model(&entities), opts)
	if err != nil {
		return nil, err
	}
	if err := q.ApplyQueryBuilder(whereFilter(filter)).Scan(ctx); err != nil {
		return nil, err
	}
	if err := r.populator.Populate(ctx, r.db, populates, entities...); err != nil {
		return nil, err
	}
	return entities, nil
}

// FindOrFail is FindByID without projection or population. A key that
// cannot be cast to the key column type is reported as KindBadInput.
func (r *baseRepositoryImpl[T]) FindOrFail(ctx context.Context, id any) (*T, error) {
	return r.FindByID(ctx, id, nil)
}

func (r *baseRepositoryImpl[T]) FindAll(ctx context.Context, filter types.Filter, limit int, sort ...types.Sort) ([]*T, error) {
	return r.Find(ctx, filter, &ReadOptions{Limit: limit, Sort: sort})
}

func (r *baseRepositoryImpl[T]) Count(ctx context.Context, filter types.Filter) (int, error) {
	if err := r.checkFilter(filter); err != nil {
		return 0, err
	}
	return r.db.NewSelect().
		Model((*T)(nil)).
		ApplyQueryBuilder(whereFilter(filter)).
		Count(ctx)
}

func (r *baseRepositoryImpl[T]) Paginate(ctx context.Context, pageRequest *types.PageRequest) (*types.Pagination[T], error) {
	if pageRequest == nil {
		pageRequest = types.NewDefaultPageRequest(types.DefaultPage, types.DefaultPageSize)
	}
	filter := pageRequest.GetFilter()
	if err := r.checkFilter(filter); err != nil {
		return nil, err
	}
	pagination := types.NewDefaultPagination[T](pageRequest.GetPage(), pageRequest.GetPageSize())
	total, err := r.Count(ctx, filter)
	if err != nil {
		return nil, err
	}
	if total == 0 {
		return pagination, nil
	}
	pagination.SetTotal(total)

	entities := make([]*T, 0, pageRequest.GetPageSize())
	q, err := r.readQuery(r.db.NewSelect().Model(&entities), &ReadOptions{
		Columns: pageRequest.GetColumns(),
		Sort:    pageRequest.GetOrders(),
		Limit:   pageRequest.GetPageSize(),
		Offset:  pageRequest.GetOffset(),
	})
	if err != nil {
		return nil, err
	}
	if err := q.ApplyQueryBuilder(whereFilter(filter)).Scan(ctx); err != nil {
		return nil, err
	}
	if err := r.populator.Populate(ctx, r.db, pageRequest.GetPopulates(), entities...); err != nil {
		return nil, err
	}
	pagination.Items = entities
	return pagination, nil
}

func (r *baseRepositoryImpl[T]) UpdateOne(ctx context.Context, filter types.Filter, update types.Update) (*T, error) {
	if err := r.checkFilter(filter); err != nil {
		return nil, err
	}
	update, err := r.prepareUpdate(update)
	if err != nil {
		return nil, err
	}

	var updated *T
	err = r.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		target := new(T)
		err := tx.NewSelect().
			Model(target).
			Column(r.pk.Name).
			ApplyQueryBuilder(whereFilter(filter)).
			Limit(1).
			Scan(ctx)
		if errors.Is(err, sql.ErrNoRows) {
			return nil
		}
		if err != nil {
			return err
		}
		key := r.keyValue(target).Interface()

		q := tx.NewUpdate().Model((*T)(nil))
		for _, col := range update.Columns() {
			q = q.Set("? = ?", bun.Ident(col), update[col])
		}
		if _, err := q.Where("? = ?", bun.Ident(r.pk.Name), key).Exec(ctx); err != nil {
			return err
		}
		updated = new(T)
		return tx.NewSelect().Model(updated).Where("? = ?", bun.Ident(r.pk.Name), key).Scan(ctx)
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// prepareUpdate copies update, rejects unknown or key columns and stamps
// updated_at when the model has it and the caller did not set it.
func (r *baseRepositoryImpl[T]) prepareUpdate(update types.Update) (types.Update, error) {
	if len(update) == 0 {
		return nil, badInputError(nil, "empty update for model [%s]", r.table.Name)
	}
	out := make(types.Update, len(update)+1)
	for col, val := range update {
		if !r.table.HasField(col) {
			return nil, badInputError(nil, "unknown field %q for model [%s]", col, r.table.Name)
		}
		if col == r.pk.Name {
			return nil, badInputError(nil, "key field %q cannot be updated", col)
		}
		out[col] = val
	}
	if _, ok := out[updatedAtColumn]; !ok && r.table.HasField(updatedAtColumn) {
		out[updatedAtColumn] = time.Now()
	}
	return out, nil
}

func (r *baseRepositoryImpl[T]) UpdateByID(ctx context.Context, id any, update types.Update) (*T, error) {
	key, err := r.parseKey(id)
	if err != nil {
		return nil, err
	}
	return r.UpdateOne(ctx, types.Where(types.Eq(r.pk.Name, key)), update)
}

func (r *baseRepositoryImpl[T]) RemoveByID(ctx context.Context, id any) (*T, error) {
	key, err := r.parseKey(id)
	if err != nil {
		return nil, err
	}
	var removed *T
	err = r.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		entity := new(T)
		err := tx.NewSelect().Model(entity).Where("? = ?", bun.Ident(r.pk.Name), key).Scan(ctx)
		if errors.Is(err, sql.ErrNoRows) {
			return nil
		}
		if err != nil {
			return err
		}
		if _, err := tx.NewDelete().Model((*T)(nil)).Where("? = ?", bun.Ident(r.pk.Name), key).Exec(ctx); err != nil {
			return err
		}
		removed = entity
		return nil
	})
	if err != nil {
		return nil, err
	}
	return removed, nil
}

func (r *baseRepositoryImpl[T]) RemoveAll(ctx context.Context, filter types.Filter) (int64, error) {
	if err := r.checkFilter(filter); err != nil {
		return 0, err
	}
	q := r.db.NewDelete().Model((*T)(nil))
	if filter.IsEmpty() {
		q = q.Where("1 = 1")
	} else {
		q = q.ApplyQueryBuilder(whereFilter(filter))
	}
	res, err := q.Exec(ctx)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (r *baseRepositoryImpl[T]) InsertMany(ctx context.Context, entities []*T) ([]*T, error) {
	if len(entities) == 0 {
		return []*T{}, nil
	}
	for _, e := range entities {
		r.assignKey(e)
	}
	q := r.db.NewInsert().Model(&entities)
	if r.hasFeature(feature.InsertReturning) {
		q = q.Returning("*")
	}
	if _, err := q.Exec(ctx); err != nil {
		return nil, err
	}
	return entities, nil
}

// Populate resolves paths on entity in order.
func (r *baseRepositoryImpl[T]) Populate(ctx context.Context, entity *T, populates ...string) error {
	if len(populates) == 0 || entity == nil {
		return nil
	}
	return r.populator.Populate(ctx, r.db, populates, entity)
}
