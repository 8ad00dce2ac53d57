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

package types

const (
	DefaultPage     = 1
	DefaultPageSize = 10
	MaxPageSize     = 1000
)

// PageRequest describes pagination, optional filter, ordering and the
// relations to populate on each returned record.
type PageRequest struct {
	page      int
	pageSize  int
	filter    Filter
	orders    []Sort
	columns   []string
	populates []string
}

func (p *PageRequest) GetPageSize() int {
	if p.pageSize < 1 {
		p.pageSize = DefaultPageSize
	}
	if p.pageSize > MaxPageSize {
		p.pageSize = MaxPageSize
	}
	return p.pageSize
}

func (p *PageRequest) GetPage() int {
	if p.page < 1 {
		p.page = DefaultPage
	}
	return p.page
}

func (p *PageRequest) GetOffset() int {
	return (p.GetPage() - 1) * p.GetPageSize()
}

func (p *PageRequest) GetFilter() Filter {
	return p.filter
}

func (p *PageRequest) GetOrders() []Sort {
	return p.orders
}

func (p *PageRequest) GetColumns() []string {
	return p.columns
}

func (p *PageRequest) GetPopulates() []string {
	return p.populates
}

// WithColumns restricts the selected columns (projection).
func (p *PageRequest) WithColumns(columns ...string) *PageRequest {
	p.columns = append(p.columns, columns...)
	return p
}

// WithPopulate adds relations to expand on every item of the page.
func (p *PageRequest) WithPopulate(paths ...string) *PageRequest {
	p.populates = append(p.populates, paths...)
	return p
}

// NewPageRequest constructs a PageRequest with filter and order settings.
func NewPageRequest(page int, pageSize int, filter Filter, orders []Sort) *PageRequest {
	return &PageRequest{page: page, pageSize: pageSize, filter: filter, orders: orders}
}

// NewPageRequestWithFilter constructs a PageRequest with a filter only.
func NewPageRequestWithFilter(page int, pageSize int, filter Filter) *PageRequest {
	return NewPageRequest(page, pageSize, filter, nil)
}

// NewPageRequestWithOrders constructs a PageRequest with ordering only.
func NewPageRequestWithOrders(page int, pageSize int, orders []Sort) *PageRequest {
	return NewPageRequest(page, pageSize, nil, orders)
}

// NewDefaultPageRequest constructs a PageRequest with no filter or ordering.
func NewDefaultPageRequest(page int, pageSize int) *PageRequest {
	return NewPageRequest(page, pageSize, nil, nil)
}

// Pagination holds paged result items along with pagination metadata.
type Pagination[T any] struct {
	Items         []*T `json:"items"`
	Total         int  `json:"total"`
	Page          int  `json:"page"`
	PageSize      int  `json:"pageSize"`
	TotalPages    int  `json:"totalPages"`
	PagingCounter int  `json:"pagingCounter"`
	HasPrevPage   bool `json:"hasPrevPage"`
	HasNextPage   bool `json:"hasNextPage"`
	PrevPage      *int `json:"prevPage"`
	NextPage      *int `json:"nextPage"`
}

// NewDefaultPagination constructs an empty pagination container.
func NewDefaultPagination[T any](page int, pageSize int) *Pagination[T] {
	p := &Pagination[T]{Page: page, PageSize: pageSize, Items: make([]*T, 0)}
	p.SetTotal(0)
	return p
}

// SetTotal records the total match count and derives the page metadata.
func (p *Pagination[T]) SetTotal(total int) {
	p.Total = total
	p.TotalPages = 1
	if p.PageSize > 0 && total > 0 {
		p.TotalPages = (total + p.PageSize - 1) / p.PageSize
	}
	p.PagingCounter = (p.Page-1)*p.PageSize + 1
	p.HasPrevPage = p.Page > 1
	p.HasNextPage = p.Page < p.TotalPages
	p.PrevPage, p.NextPage = nil, nil
	if p.HasPrevPage {
		prev := p.Page - 1
		p.PrevPage = &prev
	}
	if p.HasNextPage {
		next := p.Page + 1
		p.NextPage = &next
	}
}

// MapPagination converts the items of a page while keeping its metadata.
func MapPagination[T, R any](p *Pagination[T], fn func(*T) *R) *Pagination[R] {
	out := &Pagination[R]{
		Items:         make([]*R, 0, len(p.Items)),
		Total:         p.Total,
		Page:          p.Page,
		PageSize:      p.PageSize,
		TotalPages:    p.TotalPages,
		PagingCounter: p.PagingCounter,
		HasPrevPage:   p.HasPrevPage,
		HasNextPage:   p.HasNextPage,
		PrevPage:      p.PrevPage,
		NextPage:      p.NextPage,
	}
	for _, item := range p.Items {
		out.Items = append(out.Items, fn(item))
	}
	return out
}
