/*
 * Copyright (c) 2025 the clipshelf authors.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package storage provides the data-access contract for groups and videos
// and its two interchangeable backends: a flat JSON file and a relational
// database. The backend is selected once at startup and held as shared
// state for the life of the process.
package storage

import (
	"context"
	"errors"

	"clipshelf/internal/domain"
)

var (
	// ErrNotFound indicates the operation's target id does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicateID indicates a create (or rename) collided with an
	// existing group id.
	ErrDuplicateID = errors.New("record already exists")
)

// Store is the uniform data-access contract implemented by both backends.
//
// Video ids are assigned by the store at creation time; a caller-supplied
// id is discarded. Deleting a group cascades to its videos. Changing a
// group's id through UpdateGroup re-points every referencing video
// atomically from the caller's perspective.
type Store interface {
	// GetAll returns the full dataset snapshot, no pagination.
	GetAll(ctx context.Context) (domain.Dataset, error)
	// ReplaceAll discards the entire current dataset and substitutes the
	// given one. Videos receive fresh store-assigned ids.
	ReplaceAll(ctx context.Context, ds domain.Dataset) error

	// ListGroups returns all groups ordered by name ascending.
	ListGroups(ctx context.Context) ([]domain.Group, error)
	// CreateGroup stores a new group. Returns ErrDuplicateID when the id
	// is already taken.
	CreateGroup(ctx context.Context, g domain.Group) (domain.Group, error)
	// UpdateGroup merges patch onto the group with the given id. A patch
	// id different from id performs the rename-and-repoint. Returns
	// ErrNotFound when no group has the id.
	UpdateGroup(ctx context.Context, id string, patch domain.GroupPatch) (domain.Group, error)
	// DeleteGroup removes the group and every video referencing it.
	// Returns false when no group has the id.
	DeleteGroup(ctx context.Context, id string) (bool, error)

	// ListVideos returns all videos in insertion order (equivalently,
	// ascending numeric id order).
	ListVideos(ctx context.Context) ([]domain.Video, error)
	// CreateVideo stores a new video under a fresh store-assigned id and
	// returns the stored record.
	CreateVideo(ctx context.Context, v domain.Video) (domain.Video, error)
	// UpdateVideo overwrites every editable field of the video with the
	// given id using patch values. Returns ErrNotFound when missing.
	UpdateVideo(ctx context.Context, id string, patch domain.Video) (domain.Video, error)
	// DeleteVideo removes one video, no cascade. Returns false when
	// no video has the id.
	DeleteVideo(ctx context.Context, id string) (bool, error)

	// Kind names the backend ("file", "sqlite", "postgres") for the
	// health endpoint and logs.
	Kind() string
	// Close releases backend resources.
	Close() error
}

// Open selects and initializes a backend: a non-empty connection string
// picks the relational backend, otherwise the flat-file backend is opened
// against dataFile.
func Open(databaseURL, dataFile string) (Store, error) {
	if databaseURL != "" {
		return OpenSQL(databaseURL)
	}
	return OpenFile(dataFile)
}
