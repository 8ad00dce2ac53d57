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

package baserepo

import (
	"context"

	"github.com/uptrace/bun"

	"github.com/tomoncle/baserepo/repository"
	"github.com/tomoncle/baserepo/types"
)

type Service[T any] interface {
	// Get returns a single entity by its identifier, or nil when absent.
	Get(ctx context.Context, id any) (*T, error)

	// GetOrFail returns a single entity by its identifier or a not-found error.
	GetOrFail(ctx context.Context, id any) (*T, error)

	// List returns entities that match the provided filter.
	List(ctx context.Context, filter types.Filter, sort ...types.Sort) ([]*T, error)

	// Page returns a paginated list of entities.
	Page(ctx context.Context, page *types.PageRequest) (*types.Pagination[T], error)

	// Save inserts a new entity.
	Save(ctx context.Context, model *T) (*T, error)

	// SaveAll inserts several entities at once.
	SaveAll(ctx context.Context, models ...*T) ([]*T, error)

	// SaveOrUpdate creates the entity or replaces the stored one with it.
	SaveOrUpdate(ctx context.Context, model *T) (*T, error)

	// Update applies a partial update to the entity with the given id.
	Update(ctx context.Context, id any, update types.Update) (*T, error)

	// Delete removes an entity by its identifier and returns it.
	Delete(ctx context.Context, id any) (*T, error)

	// DeleteAll removes the entities that match filter.
	DeleteAll(ctx context.Context, filter types.Filter) (int64, error)

	// Count returns the number of entities that match filter.
	Count(ctx context.Context, filter types.Filter) (int, error)

	// Transaction runs fn with a service bound to a single transaction.
	Transaction(ctx context.Context, fn func(ctx context.Context, tx Service[T]) error) error

	// Repository exposes the underlying repository.
	Repository() repository.Repository[T]
}

type baseServiceImpl[T any] struct {
	repo repository.Repository[T]
}

// NewService returns a Service backed by repo.
func NewService[T any](repo repository.Repository[T]) Service[T] {
	return &baseServiceImpl[T]{repo: repo}
}

// NewServiceFromDB builds the generic repository over db and wraps it.
func NewServiceFromDB[T any](db bun.IDB, opts ...repository.Option) Service[T] {
	return NewService[T](repository.NewRepository[T](db, opts...))
}

func (s *baseServiceImpl[T]) Get(ctx context.Context, id any) (*T, error) {
	model, err := s.repo.FindByID(ctx, id, nil)
	if kind, ok := repository.KindOf(err); ok && kind == repository.KindNotFound {
		return nil, nil
	}
	return model, err
}

func (s *baseServiceImpl[T]) GetOrFail(ctx context.Context, id any) (*T, error) {
	return s.repo.FindOrFail(ctx, id)
}

func (s *baseServiceImpl[T]) List(ctx context.Context, filter types.Filter, sort ...types.Sort) ([]*T, error) {
	return s.repo.FindAll(ctx, filter, 0, sort...)
}

func (s *baseServiceImpl[T]) Page(ctx context.Context, page *types.PageRequest) (*types.Pagination[T], error) {
	return s.repo.Paginate(ctx, page)
}

func (s *baseServiceImpl[T]) Save(ctx context.Context, model *T) (*T, error) {
	return s.repo.Create(ctx, model)
}

func (s *baseServiceImpl[T]) SaveAll(ctx context.Context, models ...*T) ([]*T, error) {
	return s.repo.InsertMany(ctx, models)
}

func (s *baseServiceImpl[T]) SaveOrUpdate(ctx context.Context, model *T) (*T, error) {
	return s.repo.CreateOrUpdate(ctx, model)
}

func (s *baseServiceImpl[T]) Update(ctx context.Context, id any, update types.Update) (*T, error) {
	return s.repo.UpdateByID(ctx, id, update)
}

func (s *baseServiceImpl[T]) Delete(ctx context.Context, id any) (*T, error) {
	return s.repo.RemoveByID(ctx, id)
}

func (s *baseServiceImpl[T]) DeleteAll(ctx context.Context, filter types.Filter) (int64, error) {
	return s.repo.RemoveAll(ctx, filter)
}

func (s *baseServiceImpl[T]) Count(ctx context.Context, filter types.Filter) (int, error) {
	return s.repo.Count(ctx, filter)
}

func (s *baseServiceImpl[T]) Transaction(ctx context.Context, fn func(ctx context.Context, tx Service[T]) error) error {
	return s.repo.DB().RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		return fn(ctx, &baseServiceImpl[T]{repo: s.repo.WithTx(tx)})
	})
}

func (s *baseServiceImpl[T]) Repository() repository.Repository[T] {
	return s.repo
}
