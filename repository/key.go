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
	"fmt"
	"reflect"
	"strconv"

	"github.com/google/uuid"
)

var uuidType = reflect.TypeOf(uuid.UUID{})

// parseKey converts a caller supplied id into a value of the key column's
// type. Strings that cannot be cast fail with KindBadInput.
func (r *baseRepositoryImpl[T]) parseKey(id any) (interface{}, error) {
	typ := r.pk.IndirectType
	switch {
	case typ == uuidType:
		switch v := id.(type) {
		case uuid.UUID:
			return v, nil
		case string:
			u, err := uuid.Parse(v)
			if err != nil {
				return nil, r.castError(id, "UUID", err)
			}
			return u, nil
		}
		return nil, r.castError(id, "UUID", nil)

	case typ.Kind() == reflect.String:
		var s string
		switch v := id.(type) {
		case string:
			s = v
		case uuid.UUID:
			s = v.String()
		case fmt.Stringer:
			s = v.String()
		default:
			return nil, r.castError(id, "string", nil)
		}
		if s == "" {
			return nil, r.castError(id, "string", nil)
		}
		if r.opts.uuidKeys {
			if _, err := uuid.Parse(s); err != nil {
				return nil, r.castError(id, "UUID", err)
			}
		}
		return s, nil

	case isIntKind(typ.Kind()):
		v := reflect.ValueOf(id)
		switch {
		case id == nil:
			return nil, r.castError(id, "integer", nil)
		case isIntKind(v.Kind()):
			return v.Int(), nil
		case isUintKind(v.Kind()):
			return int64(v.Uint()), nil
		case v.Kind() == reflect.String:
			n, err := strconv.ParseInt(v.String(), 10, 64)
			if err != nil {
				return nil, r.castError(id, "integer", err)
			}
			return n, nil
		}
		return nil, r.castError(id, "integer", nil)

	case isUintKind(typ.Kind()):
		v := reflect.ValueOf(id)
		switch {
		case id == nil:
			return nil, r.castError(id, "integer", nil)
		case isUintKind(v.Kind()):
			return v.Uint(), nil
		case isIntKind(v.Kind()) && v.Int() >= 0:
			return uint64(v.Int()), nil
		case v.Kind() == reflect.String:
			n, err := strconv.ParseUint(v.String(), 10, 64)
			if err != nil {
				return nil, r.castError(id, "integer", err)
			}
			return n, nil
		}
		return nil, r.castError(id, "integer", nil)
	}
	if id == nil {
		return nil, r.castError(id, typ.String(), nil)
	}
	return id, nil
}

func (r *baseRepositoryImpl[T]) castError(id any, target string, err error) *Error {
	return badInputError(err, "Cast to %s failed for value \"%v\" (type %T) at path \"%s\" for model \"%s\"",
		target, id, id, r.pk.Name, r.table.Name)
}

// keyValue returns the key field of rec.
func (r *baseRepositoryImpl[T]) keyValue(rec *T) reflect.Value {
	return reflect.ValueOf(rec).Elem().FieldByIndex(r.pk.Index)
}

// assignKey generates a key for string and UUID keys left empty. Integer
// keys are left to the datastore.
func (r *baseRepositoryImpl[T]) assignKey(rec *T) {
	fv := r.keyValue(rec)
	if !fv.IsZero() || !fv.CanSet() {
		return
	}
	switch {
	case fv.Type() == uuidType:
		fv.Set(reflect.ValueOf(uuid.New()))
	case fv.Kind() == reflect.String:
		fv.SetString(r.opts.keyGenerator())
	}
}

func isIntKind(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return true
	}
	return false
}

func isUintKind(k reflect.Kind) bool {
	switch k {
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return true
	}
	return false
}
