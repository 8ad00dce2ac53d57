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
	"reflect"
	"sort"

	"github.com/uptrace/bun"
)

// Resolver expands one relation of rec in place, reading through db.
type Resolver[T any] func(ctx context.Context, db bun.IDB, rec *T) error

// Populator maps relation names to resolvers. Names are what callers pass
// as populates; they need not match Go field names.
type Populator[T any] struct {
	resolvers map[string]Resolver[T]
}

func NewPopulator[T any]() *Populator[T] {
	return &Populator[T]{resolvers: make(map[string]Resolver[T])}
}

// Register adds or replaces the resolver for name.
func (p *Populator[T]) Register(name string, resolver Resolver[T]) *Populator[T] {
	p.resolvers[name] = resolver
	return p
}

// Relation registers name as an alias for a relation declared with a bun
// "rel:" tag on field.
func (p *Populator[T]) Relation(name, field string) *Populator[T] {
	return p.Register(name, RelationResolver[T](field))
}

func (p *Populator[T]) Has(name string) bool {
	_, ok := p.resolvers[name]
	return ok
}

// Names returns the registered names in sorted order.
func (p *Populator[T]) Names() []string {
	names := make([]string, 0, len(p.resolvers))
	for name := range p.resolvers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (p *Populator[T]) merge(other *Populator[T]) {
	for name, r := range other.resolvers {
		p.resolvers[name] = r
	}
}

// Populate resolves each path on every record, one path at a time. An
// unregistered path fails before anything is read.
func (p *Populator[T]) Populate(ctx context.Context, db bun.IDB, paths []string, recs ...*T) error {
	resolvers := make([]Resolver[T], len(paths))
	for i, path := range paths {
		r, ok := p.resolvers[path]
		if !ok {
			return badInputError(nil, "unknown populate path %q, expected one of %v", path, p.Names())
		}
		resolvers[i] = r
	}
	for _, r := range resolvers {
		for _, rec := range recs {
			if rec == nil {
				continue
			}
			if err := r(ctx, db, rec); err != nil {
				return err
			}
		}
	}
	return nil
}

// RelationResolver loads the bun relation named field (the Go field name)
// into rec. Only the key columns of rec are re-read, so a projected record
// keeps its other fields untouched.
func RelationResolver[T any](field string) Resolver[T] {
	return func(ctx context.Context, db bun.IDB, rec *T) error {
		table := db.Dialect().Tables().Get(reflect.TypeOf(rec).Elem())
		keys := make([]string, 0, len(table.PKs))
		for _, pk := range table.PKs {
			keys = append(keys, pk.Name)
		}
		return db.NewSelect().
			Model(rec).
			Column(keys...).
			Relation(field).
			WherePK().
			Scan(ctx)
	}
}
