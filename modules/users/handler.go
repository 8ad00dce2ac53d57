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
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/tomoncle/baserepo/middleware"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Register mounts the user routes under router.
func (h *Handler) Register(router fiber.Router) {
	g := router.Group("/users")
	g.Post("/", h.create)
	g.Get("/", h.list)
	g.Get("/stats/status", h.statusStats)
	g.Post("/authenticate", h.authenticate)
	g.Get("/:id", h.get)
	g.Patch("/:id", h.update)
	g.Post("/:id/activate", h.activate)
	g.Delete("/:id", h.remove)
}

func (h *Handler) create(c *fiber.Ctx) error {
	var in CreateUserInput
	if err := c.BodyParser(&in); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	user, err := h.service.Register(c.UserContext(), in)
	if err != nil {
		return translate(err)
	}
	return c.Status(fiber.StatusCreated).JSON(user)
}

func (h *Handler) list(c *fiber.Ctx) error {
	var q ListQuery
	if err := c.QueryParser(&q); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid query parameters")
	}
	page, err := h.service.List(c.UserContext(), q)
	if err != nil {
		return translate(err)
	}
	return c.JSON(page)
}

func (h *Handler) get(c *fiber.Ctx) error {
	var populates []string
	if p := c.Query("populate"); p != "" {
		populates = strings.Split(p, ",")
	}
	user, err := h.service.Get(c.UserContext(), c.Params("id"), populates...)
	if err != nil {
		return translate(err)
	}
	return c.JSON(user)
}

func (h *Handler) update(c *fiber.Ctx) error {
	var in UpdateUserInput
	if err := c.BodyParser(&in); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	user, err := h.service.Update(c.UserContext(), c.Params("id"), in)
	if err != nil {
		return translate(err)
	}
	return c.JSON(user)
}

func (h *Handler) activate(c *fiber.Ctx) error {
	user, err := h.service.Activate(c.UserContext(), c.Params("id"))
	if err != nil {
		return translate(err)
	}
	return c.JSON(user)
}

func (h *Handler) remove(c *fiber.Ctx) error {
	if _, err := h.service.Delete(c.UserContext(), c.Params("id")); err != nil {
		return translate(err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *Handler) statusStats(c *fiber.Ctx) error {
	page, err := h.service.CountByStatus(c.UserContext())
	if err != nil {
		return translate(err)
	}
	return c.JSON(page.Items)
}

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *Handler) authenticate(c *fiber.Ctx) error {
	var in credentials
	if err := c.BodyParser(&in); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	user, err := h.service.Authenticate(c.UserContext(), in.Email, in.Password)
	if err != nil {
		return translate(err)
	}
	return c.JSON(user)
}

// translate turns account errors into HTTP errors; the rest is left to
// middleware.ErrorHandler.
func translate(err error) error {
	switch {
	case errors.Is(err, ErrInvalidCredentials):
		return middleware.ErrUnauthorized
	case errors.Is(err, ErrAccountInactive):
		return fiber.NewError(fiber.StatusForbidden, err.Error())
	case errors.Is(err, ErrEmailTaken):
		return fiber.NewError(fiber.StatusConflict, err.Error())
	}
	return err
}
