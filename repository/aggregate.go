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

	"github.com/tomoncle/baserepo/types"
)

// AggregatePaginate pages through the rows of a grouped or projected query
// built on the aggregation handle of repo. build receives a select over the
// table of T and returns the query whose rows scan into R. The page filter
// is applied as a WHERE clause and is not checked against the model, so it
// may reference joined tables; orders may name output aliases.
func AggregatePaginate[T, R any](
	ctx context.Context,
	repo Repository[T],
	build func(q *bun.SelectQuery) *bun.SelectQuery,
	pageRequest *types.PageRequest,
) (*types.Pagination[R], error) {
	if pageRequest == nil {
		pageRequest = types.NewDefaultPageRequest(types.DefaultPage, types.DefaultPageSize)
	}
	if err := pageRequest.GetFilter().Validate(); err != nil {
		return nil, badInputError(err, "invalid filter for model [%s]", repo.Table().Name)
	}

	newQuery := func() *bun.SelectQuery {
		q := repo.AggDB().NewSelect().Model((*T)(nil))
		if build != nil {
			q = build(q)
		}
		return q.ApplyQueryBuilder(whereFilter(pageRequest.GetFilter()))
	}

	pagination := types.NewDefaultPagination[R](pageRequest.GetPage(), pageRequest.GetPageSize())
	total, err := newQuery().Count(ctx)
	if err != nil {
		return nil, err
	}
	if total == 0 {
		return pagination, nil
	}
	pagination.SetTotal(total)

	items := make([]*R, 0, pageRequest.GetPageSize())
	err = orderBy(newQuery(), pageRequest.GetOrders()).
		Offset(pageRequest.GetOffset()).
		Limit(pageRequest.GetPageSize()).
		Scan(ctx, &items)
	if err != nil {
		return nil, err
	}
	pagination.Items = items
	return pagination, nil
}
