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
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

type Option func(*options)

type options struct {
	primaryKey   string
	aggDB        bun.IDB
	populators   []interface{}
	keyGenerator func() string
	uuidKeys     bool
}

func defaultOptions() *options {
	return &options{keyGenerator: uuid.NewString, uuidKeys: true}
}

// WithPrimaryKey selects the key column when the model declares more than
// one pk field or the key is not the first one.
func WithPrimaryKey(column string) Option {
	return func(o *options) { o.primaryKey = column }
}

// WithAggDB routes aggregation queries to a separate handle, e.g. a replica.
func WithAggDB(db bun.IDB) Option {
	return func(o *options) { o.aggDB = db }
}

// WithPopulator adds named resolvers on top of the relations declared on
// the model. Later registrations win.
func WithPopulator[T any](p *Populator[T]) Option {
	return func(o *options) {
		if p != nil {
			o.populators = append(o.populators, p)
		}
	}
}

// WithKeyGenerator replaces UUID generation for string keys. Keys are then
// only required to be non-empty.
func WithKeyGenerator(gen func() string) Option {
	return func(o *options) {
		if gen != nil {
			o.keyGenerator = gen
			o.uuidKeys = false
		}
	}
}
