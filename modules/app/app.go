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

// Package app assembles the HTTP server: middleware, health endpoint and
// the feature modules.
package app

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/sirupsen/logrus"
	"github.com/uptrace/bun"

	"github.com/tomoncle/baserepo/config"
	"github.com/tomoncle/baserepo/database"
	"github.com/tomoncle/baserepo/middleware"
	"github.com/tomoncle/baserepo/modules/users"
	"github.com/tomoncle/baserepo/utils"
)

// HealthChecker reports datastore health; *database.BaseDatabaseFactory
// implements it.
type HealthChecker interface {
	GetHealthStatus(ctx context.Context) *database.HealthStatus
}

// App is the HTTP server with its modules.
type App struct {
	Fiber  *fiber.App
	Users  *users.Module
	cfg    config.ServerConfig
	logger *logrus.Logger
}

func New(cfg *config.Config, db bun.IDB, health HealthChecker) *App {
	logger := utils.NewLogger("HTTP")
	f := fiber.New(fiber.Config{
		ReadTimeout:           cfg.Server.ReadTimeout,
		WriteTimeout:          cfg.Server.WriteTimeout,
		IdleTimeout:           cfg.Server.IdleTimeout,
		DisableStartupMessage: true,
		ErrorHandler:          middleware.ErrorHandler(logger),
	})

	f.Use(
		recover.New(),
		middleware.RequestLogger(logger),
		cors.New(cors.Config{
			AllowOrigins: cfg.Server.CORSOrigins,
			AllowMethods: "GET,POST,PATCH,DELETE,OPTIONS",
			AllowHeaders: "Origin,Content-Type,Accept,Authorization,X-Request-ID",
			MaxAge:       86400,
		}),
	)
	if cfg.Server.RateLimit > 0 {
		f.Use(limiter.New(limiter.Config{
			Max:        cfg.Server.RateLimit,
			Expiration: time.Minute,
			LimitReached: func(c *fiber.Ctx) error {
				return fiber.NewError(fiber.StatusTooManyRequests, "rate limit exceeded")
			},
		}))
	}

	a := &App{Fiber: f, Users: users.NewModule(db), cfg: cfg.Server, logger: logger}
	f.Get("/health", a.healthHandler(health))

	api := f.Group("/api")
	a.Users.Mount(api)
	return a
}

func (a *App) healthHandler(health HealthChecker) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if health == nil {
			return c.JSON(fiber.Map{"status": "ok"})
		}
		ctx, cancel := context.WithTimeout(c.UserContext(), 5*time.Second)
		defer cancel()
		status := health.GetHealthStatus(ctx)
		if !status.Healthy {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"status": "unavailable", "database": status})
		}
		return c.JSON(fiber.Map{"status": "ok", "database": status})
	}
}

// Listen serves until the server is shut down.
func (a *App) Listen() error {
	a.logger.WithField("addr", a.cfg.Addr()).Info("starting server")
	return a.Fiber.Listen(a.cfg.Addr())
}

// Shutdown waits for in-flight requests up to the configured timeout.
func (a *App) Shutdown(ctx context.Context) error {
	if a.cfg.ShutdownTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.cfg.ShutdownTimeout)
		defer cancel()
	}
	return a.Fiber.ShutdownWithContext(ctx)
}
