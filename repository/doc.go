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

// Package repository implements a generic, Bun-backed repository: typed
// CRUD over one table, filter and sort translation, key validation,
// pagination, relation population and grouped (aggregate) paging.
//
// Reads always scan into fresh values; callers own what they get back.
// Lookups by key distinguish three outcomes: the record, an *Error of
// KindNotFound, or an *Error of KindBadInput for a key that cannot be cast
// to the key column type. Datastore errors pass through unchanged.
package repository
