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

import "github.com/tomoncle/baserepo/types"

type Role string

const (
	RoleUser  Role = "USER"
	RoleAdmin Role = "ADMIN"
)

var roles = []Role{RoleUser, RoleAdmin}

func (r Role) IsValid() bool { return r.Number() != types.IllegalValue }

func (r Role) Number() int {
	for i, v := range roles {
		if v == r {
			return i
		}
	}
	return types.IllegalValue
}

func (r Role) String() string { return string(r) }

func (r Role) Name() string { return string(r) }

func (r Role) Desc() string {
	switch r {
	case RoleUser:
		return "regular user"
	case RoleAdmin:
		return "administrator"
	default:
		return types.IllegalDesc
	}
}

// ParseRole accepts role names in any case.
func ParseRole(s string) (Role, bool) { return types.ParseEnum(s, roles...) }

type Status string

const (
	StatusActive   Status = "ACTIVE"
	StatusInactive Status = "INACTIVE"
)

var statuses = []Status{StatusActive, StatusInactive}

func (s Status) IsValid() bool { return s.Number() != types.IllegalValue }

func (s Status) Number() int {
	for i, v := range statuses {
		if v == s {
			return i
		}
	}
	return types.IllegalValue
}

func (s Status) String() string { return string(s) }

func (s Status) Name() string { return string(s) }

func (s Status) Desc() string {
	switch s {
	case StatusActive:
		return "account is active"
	case StatusInactive:
		return "account awaits activation"
	default:
		return types.IllegalDesc
	}
}

// ParseStatus accepts status names in any case.
func ParseStatus(s string) (Status, bool) { return types.ParseEnum(s, statuses...) }
