/*
 * Copyright (c) 2025 the clipshelf authors.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// clipshelfd serves the group/video CRUD API over HTTP. The storage
// backend is picked once at startup: a non-empty connection string
// selects the relational backend, otherwise the flat JSON file is used.
package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"clipshelf/internal/config"
	"clipshelf/internal/crash"
	applog "clipshelf/internal/log"
	"clipshelf/internal/server"
	"clipshelf/internal/storage"
	"clipshelf/internal/version"
)

func main() {
	defer crash.Recover()

	args := os.Args
	if len(args) > 1 {
		switch args[1] {
		case "version", "--version", "-v":
			fmt.Println(version.String())
			return
		}
	}

	cfg := config.Load()
	applog.Init(applog.Options{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		AddSource: cfg.Logging.SourceEnabled(),
		File:      cfg.Logging.File,
	})
	l := applog.WithComponent("clipshelfd")

	if err := run(cfg, l); err != nil {
		l.Error("server failed", slog.Any("err", err))
		os.Exit(1)
	}
}

func run(cfg config.AppConfig, l *slog.Logger) error {
	store, err := storage.Open(cfg.Storage.DatabaseURL, cfg.Storage.DataFile)
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			l.Error("storage close", slog.Any("err", err))
		}
	}()

	l.Info("listening",
		slog.String("addr", cfg.Server.Addr),
		slog.String("storage", store.Kind()),
		slog.String("ver", version.Version),
	)
	return http.ListenAndServe(cfg.Server.Addr, server.New(store, l))
}
