/*
 * Copyright (c) 2025 the clipshelf authors.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package server is the thin dispatch layer: it translates HTTP requests
// into storage contract calls and storage errors into status codes.
// NotFound maps to 404; every other failure is a 500 with a message body.
package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"clipshelf/internal/domain"
	"clipshelf/internal/storage"
)

// maxImportBytes bounds the PUT /data request body.
const maxImportBytes = 8 << 20

// Server holds shared dependencies for all HTTP handlers.
type Server struct {
	store storage.Store
	log   *slog.Logger
}

// New registers all routes and returns the root http.Handler. Uses Go
// 1.22 method+path mux patterns, so no external router is needed.
func New(store storage.Store, logger *slog.Logger) http.Handler {
	s := &Server{store: store, log: logger}

	mux := http.NewServeMux()

	mux.HandleFunc("GET /data", s.handleGetAll)
	mux.HandleFunc("PUT /data", s.handleReplaceAll)

	mux.HandleFunc("GET /groups", s.handleListGroups)
	mux.HandleFunc("POST /groups", s.handleCreateGroup)
	mux.HandleFunc("PUT /groups/{id}", s.handleUpdateGroup)
	mux.HandleFunc("DELETE /groups/{id}", s.handleDeleteGroup)

	mux.HandleFunc("GET /videos", s.handleListVideos)
	mux.HandleFunc("POST /videos", s.handleCreateVideo)
	mux.HandleFunc("PUT /videos/{id}", s.handleUpdateVideo)
	mux.HandleFunc("DELETE /videos/{id}", s.handleDeleteVideo)

	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)

	return requestLog(logger, recoverPanic(logger, mux))
}

func (s *Server) handleGetAll(w http.ResponseWriter, r *http.Request) {
	ds, err := s.store.GetAll(r.Context())
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ds)
}

func (s *Server) handleReplaceAll(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxImportBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("read body: %w", err))
		return
	}
	if err := domain.ValidateDatasetJSON(body); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	var ds domain.Dataset
	if err := json.Unmarshal(body, &ds); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("parse dataset: %w", err))
		return
	}
	if err := s.store.ReplaceAll(r.Context(), ds); err != nil {
		s.writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (s *Server) handleListGroups(w http.ResponseWriter, r *http.Request) {
	groups, err := s.store.ListGroups(r.Context())
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, groups)
}

func (s *Server) handleCreateGroup(w http.ResponseWriter, r *http.Request) {
	var g domain.Group
	if err := decodeJSON(r, &g); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	created, err := s.store.CreateGroup(r.Context(), g)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleUpdateGroup(w http.ResponseWriter, r *http.Request) {
	var patch domain.GroupPatch
	if err := decodeJSON(r, &patch); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	updated, err := s.store.UpdateGroup(r.Context(), r.PathValue("id"), patch)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (s *Server) handleDeleteGroup(w http.ResponseWriter, r *http.Request) {
	ok, err := s.store.DeleteGroup(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	if !ok {
		writeError(w, http.StatusNotFound, fmt.Errorf("group %q: %w", r.PathValue("id"), storage.ErrNotFound))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (s *Server) handleListVideos(w http.ResponseWriter, r *http.Request) {
	videos, err := s.store.ListVideos(r.Context())
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, videos)
}

func (s *Server) handleCreateVideo(w http.ResponseWriter, r *http.Request) {
	var v domain.Video
	if err := decodeJSON(r, &v); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	created, err := s.store.CreateVideo(r.Context(), v)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleUpdateVideo(w http.ResponseWriter, r *http.Request) {
	var patch domain.Video
	if err := decodeJSON(r, &patch); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	updated, err := s.store.UpdateVideo(r.Context(), r.PathValue("id"), patch)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (s *Server) handleDeleteVideo(w http.ResponseWriter, r *http.Request) {
	ok, err := s.store.DeleteVideo(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	if !ok {
		writeError(w, http.StatusNotFound, fmt.Errorf("video %q: %w", r.PathValue("id"), storage.ErrNotFound))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"storage": s.store.Kind(),
	})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if _, err := s.store.ListGroups(r.Context()); err != nil {
		writeError(w, http.StatusServiceUnavailable, fmt.Errorf("storage not ready: %w", err))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "ready"})
}

// writeStoreError translates storage failures: ErrNotFound becomes 404,
// invalid input becomes 400, everything else is a 500.
func (s *Server) writeStoreError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		writeError(w, http.StatusNotFound, err)
	case errors.Is(err, domain.ErrInvalid):
		writeError(w, http.StatusBadRequest, err)
	default:
		s.log.Error("storage failure", slog.Any("err", err))
		writeError(w, http.StatusInternalServerError, err)
	}
}

func decodeJSON(r *http.Request, dest any) error {
	b, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("read body: %w", err)
	}
	if err := json.Unmarshal(b, dest); err != nil {
		return fmt.Errorf("parse body: %w", err)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	_ = enc.Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]any{"error": err.Error()})
}
