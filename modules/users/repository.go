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
	"strings"

	"github.com/uptrace/bun"

	"github.com/tomoncle/baserepo/repository"
	"github.com/tomoncle/baserepo/types"
)

type Repository interface {
	repository.Repository[User]

	// FindByEmail returns nil, nil when no user has email.
	FindByEmail(ctx context.Context, email string) (*User, error)

	CountByStatus(ctx context.Context, page *types.PageRequest) (*types.Pagination[StatusCount], error)
}

type userRepository struct {
	repository.Repository[User]
}

func NewRepository(db bun.IDB) Repository {
	populator := repository.NewPopulator[User]().Relation("invitedBy", "InvitedBy")
	return &userRepository{
		Repository: repository.NewRepository[User](db, repository.WithPopulator(populator)),
	}
}

func (r *userRepository) FindByEmail(ctx context.Context, email string) (*User, error) {
	return r.FindOne(ctx, types.Where(types.Eq("email", strings.ToLower(strings.TrimSpace(email)))), nil)
}

func (r *userRepository) CountByStatus(ctx context.Context, page *types.PageRequest) (*types.Pagination[StatusCount], error) {
	return repository.AggregatePaginate[User, StatusCount](ctx, r, func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Column("status").ColumnExpr("count(*) AS count").Group("status")
	}, page)
}
