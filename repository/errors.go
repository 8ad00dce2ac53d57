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
	"errors"
	"fmt"
)

// Kind classifies repository failures so transports can map them to
// status codes without inspecting messages.
type Kind int

const (
	KindNotFound      Kind = iota + 1 // no record under the given key
	KindModelNotFound                 // no record matches a filter on a strict lookup
	KindBadInput                      // malformed key, filter or update
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindModelNotFound:
		return "model_not_found"
	case KindBadInput:
		return "bad_input"
	default:
		return "unknown"
	}
}

// Error is the single error type produced by the repository. Datastore
// errors are never wrapped in it; they are returned as the driver made them.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

var (
	ErrNotFound      = &Error{Kind: KindNotFound, Message: "not found"}
	ErrModelNotFound = &Error{Kind: KindModelNotFound, Message: "model not found"}
	ErrBadInput      = &Error{Kind: KindBadInput, Message: "bad input"}
)

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error of the same kind, so errors.Is(err, ErrNotFound)
// works regardless of the message.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

// KindOf reports the kind of a repository error anywhere in err's chain.
func KindOf(err error) (Kind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return 0, false
}

func notFoundError(id interface{}) *Error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf("Not found id: %v", id)}
}

func modelNotFoundError(table, query string) *Error {
	return &Error{Kind: KindModelNotFound, Message: fmt.Sprintf("Model [%s] not found for query %s", table, query)}
}

func badInputError(err error, format string, args ...interface{}) *Error {
	return &Error{Kind: KindBadInput, Message: fmt.Sprintf(format, args...), Err: err}
}

// NewError builds an *Error for callers that report repository-style
// failures, e.g. services validating input before touching the datastore.
func NewError(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}
