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

package middleware

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	"github.com/tomoncle/baserepo/database"
	"github.com/tomoncle/baserepo/repository"
	"github.com/tomoncle/baserepo/utils"
)

// ErrorResponse is the JSON body of every failed request.
type ErrorResponse struct {
	Code    int                    `json:"code"`
	Message string                 `json:"message"`
	Details utils.ValidationErrors `json:"details,omitempty"`
}

// ErrUnauthorized is returned by handlers when credentials do not match.
var ErrUnauthorized = fiber.NewError(fiber.StatusUnauthorized, "invalid credentials")

// StatusFor maps an error to an HTTP status: bad input and validation 400,
// both not-found kinds 404, unique violations 409, fiber errors their own
// code and everything else 500.
func StatusFor(err error) int {
	var verrs utils.ValidationErrors
	if errors.As(err, &verrs) {
		return fiber.StatusBadRequest
	}
	if kind, ok := repository.KindOf(err); ok {
		switch kind {
		case repository.KindBadInput:
			return fiber.StatusBadRequest
		case repository.KindNotFound, repository.KindModelNotFound:
			return fiber.StatusNotFound
		}
	}
	if database.IsDuplicateKey(err) {
		return fiber.StatusConflict
	}
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return fe.Code
	}
	return fiber.StatusInternalServerError
}

// ErrorHandler renders errors returned by handlers as ErrorResponse. Server
// errors are logged and their message hidden from the client.
func ErrorHandler(logger *logrus.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		code := StatusFor(err)
		resp := ErrorResponse{Code: code, Message: err.Error()}

		var verrs utils.ValidationErrors
		if errors.As(err, &verrs) {
			resp.Details = verrs
		}
		switch {
		case database.IsDuplicateKey(err):
			resp.Message = "resource already exists"
		case code >= fiber.StatusInternalServerError:
			resp.Message = "internal server error"
			logger.WithFields(logrus.Fields{
				"request_id": requestID(c),
				"method":     c.Method(),
				"path":       c.Path(),
				"status":     code,
				"error":      err,
			}).Error("request failed")
		}
		return c.Status(code).JSON(resp)
	}
}
