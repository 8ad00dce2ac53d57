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
	"github.com/gofiber/fiber/v2"
	"github.com/uptrace/bun"
)

// Module wires the users repository, service and HTTP handler.
type Module struct {
	Repository Repository
	Service    *Service
	Handler    *Handler
}

func NewModule(db bun.IDB) *Module {
	repo := NewRepository(db)
	svc := NewService(repo)
	return &Module{Repository: repo, Service: svc, Handler: NewHandler(svc)}
}

func (m *Module) Mount(router fiber.Router) {
	m.Handler.Register(router)
}
