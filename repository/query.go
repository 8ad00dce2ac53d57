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
	"strings"

	"github.com/uptrace/bun"

	"github.com/tomoncle/baserepo/types"
)

// whereFilter appends one WHERE clause per condition. Conditions are ANDed
// and an empty filter leaves the query unrestricted.
func whereFilter(filter types.Filter) func(bun.QueryBuilder) bun.QueryBuilder {
	return func(qb bun.QueryBuilder) bun.QueryBuilder {
		for _, c := range filter {
			col := bun.Ident(c.Field)
			switch c.Op {
			case types.OpEq:
				if c.Value == nil {
					qb = qb.Where("? IS NULL", col)
				} else {
					qb = qb.Where("? = ?", col, c.Value)
				}
			case types.OpNe:
				if c.Value == nil {
					qb = qb.Where("? IS NOT NULL", col)
				} else {
					qb = qb.Where("? != ?", col, c.Value)
				}
			case types.OpGt:
				qb = qb.Where("? > ?", col, c.Value)
			case types.OpGte:
				qb = qb.Where("? >= ?", col, c.Value)
			case types.OpLt:
				qb = qb.Where("? < ?", col, c.Value)
			case types.OpLte:
				qb = qb.Where("? <= ?", col, c.Value)
			case types.OpLike:
				qb = qb.Where("? LIKE ?", col, c.Value)
			case types.OpIsNull:
				qb = qb.Where("? IS NULL", col)
			case types.OpNotNull:
				qb = qb.Where("? IS NOT NULL", col)
			case types.OpIn:
				values, _ := c.Value.([]interface{})
				if len(values) == 0 {
					qb = qb.Where("1 = 0")
				} else {
					qb = qb.Where("? IN (?)", col, bun.In(values))
				}
			case types.OpNotIn:
				if values, _ := c.Value.([]interface{}); len(values) > 0 {
					qb = qb.Where("? NOT IN (?)", col, bun.In(values))
				}
			case types.OpRaw:
				qb = qb.Where(c.Field, c.Args...)
			}
		}
		return qb
	}
}

func orderBy(q *bun.SelectQuery, sorts []types.Sort) *bun.SelectQuery {
	for _, s := range sorts {
		if s.Desc {
			q = q.OrderExpr("? DESC", bun.Ident(s.Field))
		} else {
			q = q.OrderExpr("? ASC", bun.Ident(s.Field))
		}
	}
	return q
}

// checkFilter rejects malformed conditions and columns the model does not
// have. Qualified names ("u.status") and raw expressions are passed through.
func (r *baseRepositoryImpl[T]) checkFilter(filter types.Filter) error {
	if err := filter.Validate(); err != nil {
		return badInputError(err, "invalid filter for model [%s]", r.table.Name)
	}
	for _, c := range filter {
		if c.Op == types.OpRaw {
			continue
		}
		if err := r.checkColumn(c.Field); err != nil {
			return err
		}
	}
	return nil
}

func (r *baseRepositoryImpl[T]) checkSort(sorts []types.Sort) error {
	for _, s := range sorts {
		if err := r.checkColumn(s.Field); err != nil {
			return err
		}
	}
	return nil
}

func (r *baseRepositoryImpl[T]) checkColumn(name string) error {
	if strings.Contains(name, ".") || r.table.HasField(name) {
		return nil
	}
	return badInputError(nil, "unknown field %q for model [%s]", name, r.table.Name)
}

// readQuery applies projection, ordering and paging from opts.
func (r *baseRepositoryImpl[T]) readQuery(q *bun.SelectQuery, opts *ReadOptions) (*bun.SelectQuery, error) {
	if opts == nil {
		return q, nil
	}
	if err := r.checkSort(opts.Sort); err != nil {
		return nil, err
	}
	if len(opts.Columns) > 0 {
		cols, err := r.projection(opts.Columns)
		if err != nil {
			return nil, err
		}
		q = q.Column(cols...)
	}
	q = orderBy(q, opts.Sort)
	if opts.Limit > 0 {
		q = q.Limit(opts.Limit)
	}
	if opts.Offset > 0 {
		q = q.Offset(opts.Offset)
	}
	return q, nil
}

func (r *baseRepositoryImpl[T]) projection(columns []string) ([]string, error) {
	cols := make([]string, 0, len(columns)+1)
	hasKey := false
	for _, c := range columns {
		if err := r.checkColumn(c); err != nil {
			return nil, err
		}
		if c == r.pk.Name {
			hasKey = true
		}
		cols = append(cols, c)
	}
	if !hasKey {
		cols = append([]string{r.pk.Name}, cols...)
	}
	return cols, nil
}
