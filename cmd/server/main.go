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

package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/tomoncle/baserepo/config"
	"github.com/tomoncle/baserepo/database"
	"github.com/tomoncle/baserepo/modules/app"
	"github.com/tomoncle/baserepo/modules/users"
	"github.com/tomoncle/baserepo/utils"
)

func main() {
	configPath := flag.String("config", "", "path to the YAML config file")
	flag.Parse()

	logger := utils.NewLogger("MAIN")
	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.WithError(err).Fatal("failed to load config")
	}

	utils.ConfigureLogLevel(cfg.Log.Level)
	utils.ConfigureConsoleLogFormat(cfg.Log.Format)
	if cfg.Log.File != "" {
		f, err := utils.ConfigureLogFile(cfg.Log.File)
		if err != nil {
			logger.WithError(err).Fatal("failed to open log file")
		}
		defer f.Close()
	}

	users.RegisterModels()
	factory, err := database.InitDB(context.Background(), &cfg.Database)
	if err != nil {
		logger.WithError(err).Fatal("failed to initialize database")
	}
	defer factory.Close()
	logger.WithField("type", cfg.Database.ConnectionConfig.Type).Info("database initialized")

	server := app.New(cfg, factory.GetDB(), factory)
	go func() {
		if err := server.Listen(); err != nil {
			logger.WithError(err).Error("server failed")
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server gracefully")
	if err := server.Shutdown(context.Background()); err != nil {
		logger.WithError(err).Error("server forced to shutdown")
	}
	logger.Info("server stopped")
}
