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

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// Operator is the comparison kind of a Condition.
type Operator string

const (
	OpEq      Operator = "$eq"
	OpNe      Operator = "$ne"
	OpGt      Operator = "$gt"
	OpGte     Operator = "$gte"
	OpLt      Operator = "$lt"
	OpLte     Operator = "$lte"
	OpIn      Operator = "$in"
	OpNotIn   Operator = "$nin"
	OpLike    Operator = "$like"
	OpIsNull  Operator = "$null"
	OpNotNull Operator = "$notnull"
	OpRaw     Operator = "$raw"
)

// Condition matches one column against a value. For OpRaw, Field holds a
// WHERE expression with ? placeholders and Args its arguments.
type Condition struct {
	Field string
	Op    Operator
	Value interface{}
	Args  []interface{}
}

// Filter is a conjunction of conditions. An empty filter matches every record.
type Filter []Condition

func Eq(field string, value interface{}) Condition  { return Condition{Field: field, Op: OpEq, Value: value} }
func Ne(field string, value interface{}) Condition  { return Condition{Field: field, Op: OpNe, Value: value} }
func Gt(field string, value interface{}) Condition  { return Condition{Field: field, Op: OpGt, Value: value} }
func Gte(field string, value interface{}) Condition { return Condition{Field: field, Op: OpGte, Value: value} }
func Lt(field string, value interface{}) Condition  { return Condition{Field: field, Op: OpLt, Value: value} }
func Lte(field string, value interface{}) Condition { return Condition{Field: field, Op: OpLte, Value: value} }
func Like(field, pattern string) Condition          { return Condition{Field: field, Op: OpLike, Value: pattern} }
func IsNull(field string) Condition                 { return Condition{Field: field, Op: OpIsNull} }
func NotNull(field string) Condition                { return Condition{Field: field, Op: OpNotNull} }

// In matches when the column equals any of values. An empty list matches nothing.
func In(field string, values ...interface{}) Condition {
	return Condition{Field: field, Op: OpIn, Value: values}
}

// NotIn matches when the column equals none of values.
func NotIn(field string, values ...interface{}) Condition {
	return Condition{Field: field, Op: OpNotIn, Value: values}
}

// Raw is an escape hatch for expressions the typed operators cannot express.
func Raw(expr string, args ...interface{}) Condition {
	return Condition{Field: expr, Op: OpRaw, Args: args}
}

// Where builds a filter from conditions.
func Where(conds ...Condition) Filter {
	return append(Filter{}, conds...)
}

// NewQueryFilter builds a filter holding a single raw expression.
func NewQueryFilter(schema string, args ...interface{}) Filter {
	return Where(Raw(schema, args...))
}

// FilterFromMap builds equality conditions from a field/value map. Keys are
// sorted so the resulting filter is deterministic.
func FilterFromMap(m map[string]interface{}) Filter {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	f := make(Filter, 0, len(keys))
	for _, k := range keys {
		f = append(f, Eq(k, m[k]))
	}
	return f
}

// And returns a new filter with conds appended.
func (f Filter) And(conds ...Condition) Filter {
	out := make(Filter, 0, len(f)+len(conds))
	out = append(out, f...)
	return append(out, conds...)
}

// IsEmpty reports whether the filter matches every record.
func (f Filter) IsEmpty() bool { return len(f) == 0 }

// Validate checks that every condition is well formed.
func (f Filter) Validate() error {
	for i, c := range f {
		if strings.TrimSpace(c.Field) == "" {
			return fmt.Errorf("condition %d: field cannot be empty", i)
		}
		switch c.Op {
		case OpEq, OpNe, OpGt, OpGte, OpLt, OpLte, OpLike, OpIsNull, OpNotNull, OpRaw:
		case OpIn, OpNotIn:
			if _, ok := c.Value.([]interface{}); !ok {
				return fmt.Errorf("condition %d: %s expects a list value", i, c.Op)
			}
		default:
			return fmt.Errorf("condition %d: unknown operator %q", i, c.Op)
		}
	}
	return nil
}

// String renders the filter as JSON, e.g. {"status":{"$eq":"ACTIVE"}}.
func (f Filter) String() string {
	doc := make(map[string]interface{}, len(f))
	for _, c := range f {
		key := c.Field
		var val interface{}
		switch c.Op {
		case OpRaw:
			key = string(OpRaw)
			val = map[string]interface{}{"expr": c.Field, "args": c.Args}
		case OpIsNull, OpNotNull:
			val = true
		default:
			val = c.Value
		}
		ops, ok := doc[key].(map[string]interface{})
		if !ok {
			ops = make(map[string]interface{})
			doc[key] = ops
		}
		ops[string(c.Op)] = val
	}
	b, err := json.Marshal(doc)
	if err != nil {
		return fmt.Sprintf("%v", []Condition(f))
	}
	return string(b)
}

// Update is a partial update document: column name to new value.
type Update map[string]interface{}

// Columns returns the update's column names in sorted order.
func (u Update) Columns() []string {
	cols := make([]string, 0, len(u))
	for k := range u {
		cols = append(cols, k)
	}
	sort.Strings(cols)
	return cols
}

// Sort orders results by a column.
type Sort struct {
	Field string
	Desc  bool
}

func Asc(field string) Sort  { return Sort{Field: field} }
func Desc(field string) Sort { return Sort{Field: field, Desc: true} }

// ParseSort accepts "name", "-name", "name asc" and "name desc".
func ParseSort(s string) (Sort, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Sort{}, fmt.Errorf("empty sort expression")
	}
	if strings.HasPrefix(s, "-") {
		return Desc(strings.TrimSpace(s[1:])), nil
	}
	if strings.HasPrefix(s, "+") {
		return Asc(strings.TrimSpace(s[1:])), nil
	}
	parts := strings.Fields(s)
	switch len(parts) {
	case 1:
		return Asc(parts[0]), nil
	case 2:
		switch strings.ToUpper(parts[1]) {
		case "ASC":
			return Asc(parts[0]), nil
		case "DESC":
			return Desc(parts[0]), nil
		}
	}
	return Sort{}, fmt.Errorf("invalid sort expression %q", s)
}

// ParseSorts parses a comma separated list of sort expressions.
func ParseSorts(s string) ([]Sort, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	var sorts []Sort
	for _, part := range strings.Split(s, ",") {
		srt, err := ParseSort(part)
		if err != nil {
			return nil, err
		}
		sorts = append(sorts, srt)
	}
	return sorts, nil
}

func (s Sort) String() string {
	if s.Desc {
		return s.Field + " DESC"
	}
	return s.Field + " ASC"
}
