/*
 * Copyright (c) 2025 the clipshelf authors.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"clipshelf/internal/domain"
)

// FileStore persists the whole dataset as one JSON document. Every
// operation loads the document, mutates an in-memory copy, and writes the
// document back through a temp file + rename. The mutex serializes
// writers within this process; concurrent processes sharing the file
// remain unprotected.
type FileStore struct {
	path string

	mu sync.Mutex
	// lastID is the highest video id issued by this process. Ids are
	// millisecond timestamps with a monotonic guard so rapid successive
	// creates never collide.
	lastID int64
}

var _ Store = (*FileStore)(nil)

// OpenFile opens the flat-file backend at path. An absent file is created
// with an empty dataset; an existing file is left untouched.
func OpenFile(path string) (*FileStore, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("data file path is required")
	}
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create data dir: %w", err)
		}
	}
	f := &FileStore{path: path}
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		if err := f.save(domain.Dataset{Groups: []domain.Group{}, Videos: []domain.Video{}}); err != nil {
			return nil, fmt.Errorf("init data file: %w", err)
		}
	} else if err != nil {
		return nil, fmt.Errorf("stat data file: %w", err)
	}
	return f, nil
}

func (f *FileStore) Kind() string { return "file" }

func (f *FileStore) Close() error { return nil }

func (f *FileStore) load() (domain.Dataset, error) {
	var ds domain.Dataset
	b, err := os.ReadFile(f.path)
	if err != nil {
		return ds, fmt.Errorf("read data file: %w", err)
	}
	if err := json.Unmarshal(b, &ds); err != nil {
		return ds, fmt.Errorf("parse data file: %w", err)
	}
	if ds.Groups == nil {
		ds.Groups = []domain.Group{}
	}
	if ds.Videos == nil {
		ds.Videos = []domain.Video{}
	}
	return ds, nil
}

// save writes the dataset in human-readable form with transactional
// semantics: temp file in the same directory, fsync, then rename over
// the target.
func (f *FileStore) save(ds domain.Dataset) error {
	data, err := json.MarshalIndent(ds, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal dataset: %w", err)
	}
	data = append(data, '\n')

	dir := filepath.Dir(f.path)
	temp := filepath.Join(dir, fmt.Sprintf(".%s.tmp-%d", filepath.Base(f.path), os.Getpid()))
	if err := writeFileSync(temp, data); err != nil {
		return fmt.Errorf("write temp dataset: %w", err)
	}
	if err := os.Rename(temp, f.path); err != nil {
		_ = os.Remove(temp)
		return fmt.Errorf("replace dataset: %w", err)
	}
	return nil
}

// writeFileSync writes data to a file and flushes it to disk.
func writeFileSync(path string, data []byte) (err error) {
	fh, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := fh.Close(); err == nil {
			err = cerr
		}
	}()
	if _, err := fh.Write(data); err != nil {
		return err
	}
	return fh.Sync()
}

// nextVideoID issues a fresh id. Millisecond wall clock, bumped past both
// the last id issued in-process and the highest id already on disk, so
// the numeric values stay strictly increasing.
func (f *FileStore) nextVideoID(ds domain.Dataset) string {
	id := time.Now().UnixMilli()
	if id <= f.lastID {
		id = f.lastID + 1
	}
	for _, v := range ds.Videos {
		if n, err := strconv.ParseInt(v.ID, 10, 64); err == nil && n >= id {
			id = n + 1
		}
	}
	f.lastID = id
	return strconv.FormatInt(id, 10)
}

func (f *FileStore) GetAll(ctx context.Context) (domain.Dataset, error) {
	if err := ctx.Err(); err != nil {
		return domain.Dataset{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.load()
}

func (f *FileStore) ReplaceAll(ctx context.Context, ds domain.Dataset) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	next := domain.Dataset{Groups: []domain.Group{}, Videos: []domain.Video{}}
	for _, g := range ds.Groups {
		g = g.Normalize()
		if err := g.Validate(); err != nil {
			return err
		}
		next.Groups = append(next.Groups, g)
	}
	for _, v := range ds.Videos {
		v = v.Normalize()
		if err := v.Validate(); err != nil {
			return err
		}
		v.ID = f.nextVideoID(next)
		next.Videos = append(next.Videos, v)
	}
	return f.save(next)
}

func (f *FileStore) ListGroups(ctx context.Context) ([]domain.Group, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	ds, err := f.load()
	if err != nil {
		return nil, err
	}
	groups := ds.Groups
	sort.Slice(groups, func(i, j int) bool { return groups[i].Name < groups[j].Name })
	return groups, nil
}

func (f *FileStore) CreateGroup(ctx context.Context, g domain.Group) (domain.Group, error) {
	if err := ctx.Err(); err != nil {
		return domain.Group{}, err
	}
	g = g.Normalize()
	if err := g.Validate(); err != nil {
		return domain.Group{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	ds, err := f.load()
	if err != nil {
		return domain.Group{}, err
	}
	for _, existing := range ds.Groups {
		if existing.ID == g.ID {
			return domain.Group{}, fmt.Errorf("group %q: %w", g.ID, ErrDuplicateID)
		}
	}
	ds.Groups = append(ds.Groups, g)
	if err := f.save(ds); err != nil {
		return domain.Group{}, err
	}
	return g, nil
}

func (f *FileStore) UpdateGroup(ctx context.Context, id string, patch domain.GroupPatch) (domain.Group, error) {
	if err := ctx.Err(); err != nil {
		return domain.Group{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	ds, err := f.load()
	if err != nil {
		return domain.Group{}, err
	}

	idx := -1
	for i, g := range ds.Groups {
		if g.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return domain.Group{}, fmt.Errorf("group %q: %w", id, ErrNotFound)
	}

	merged := patch.Apply(ds.Groups[idx])
	if err := merged.Validate(); err != nil {
		return domain.Group{}, err
	}
	if merged.ID != id {
		for _, g := range ds.Groups {
			if g.ID == merged.ID {
				return domain.Group{}, fmt.Errorf("group %q: %w", merged.ID, ErrDuplicateID)
			}
		}
		// Rename-and-repoint: one in-memory batch, one write-back.
		for i, v := range ds.Videos {
			if v.GroupID == id {
				ds.Videos[i].GroupID = merged.ID
			}
		}
	}
	ds.Groups[idx] = merged
	if err := f.save(ds); err != nil {
		return domain.Group{}, err
	}
	return merged, nil
}

func (f *FileStore) DeleteGroup(ctx context.Context, id string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	ds, err := f.load()
	if err != nil {
		return false, err
	}

	groups := ds.Groups[:0]
	found := false
	for _, g := range ds.Groups {
		if g.ID == id {
			found = true
			continue
		}
		groups = append(groups, g)
	}
	if !found {
		return false, nil
	}
	ds.Groups = groups

	videos := ds.Videos[:0]
	for _, v := range ds.Videos {
		if v.GroupID == id {
			continue
		}
		videos = append(videos, v)
	}
	ds.Videos = videos

	if err := f.save(ds); err != nil {
		return false, err
	}
	return true, nil
}

func (f *FileStore) ListVideos(ctx context.Context) ([]domain.Video, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	ds, err := f.load()
	if err != nil {
		return nil, err
	}
	return ds.Videos, nil
}

func (f *FileStore) CreateVideo(ctx context.Context, v domain.Video) (domain.Video, error) {
	if err := ctx.Err(); err != nil {
		return domain.Video{}, err
	}
	v = v.Normalize()
	if err := v.Validate(); err != nil {
		return domain.Video{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	ds, err := f.load()
	if err != nil {
		return domain.Video{}, err
	}
	v.ID = f.nextVideoID(ds)
	ds.Videos = append(ds.Videos, v)
	if err := f.save(ds); err != nil {
		return domain.Video{}, err
	}
	return v, nil
}

func (f *FileStore) UpdateVideo(ctx context.Context, id string, patch domain.Video) (domain.Video, error) {
	if err := ctx.Err(); err != nil {
		return domain.Video{}, err
	}
	patch = patch.Normalize()
	if err := patch.Validate(); err != nil {
		return domain.Video{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	ds, err := f.load()
	if err != nil {
		return domain.Video{}, err
	}
	for i, v := range ds.Videos {
		if v.ID != id {
			continue
		}
		patch.ID = id
		ds.Videos[i] = patch
		if err := f.save(ds); err != nil {
			return domain.Video{}, err
		}
		return patch, nil
	}
	return domain.Video{}, fmt.Errorf("video %q: %w", id, ErrNotFound)
}

func (f *FileStore) DeleteVideo(ctx context.Context, id string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	ds, err := f.load()
	if err != nil {
		return false, err
	}
	videos := ds.Videos[:0]
	found := false
	for _, v := range ds.Videos {
		if v.ID == id {
			found = true
			continue
		}
		videos = append(videos, v)
	}
	if !found {
		return false, nil
	}
	ds.Videos = videos
	if err := f.save(ds); err != nil {
		return false, err
	}
	return true, nil
}
