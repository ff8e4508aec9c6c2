/*
 * Copyright (c) 2025 the clipshelf authors.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package domain defines the record types shared by every storage backend
// and the HTTP layer, plus their normalization and validation rules.
package domain

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalid marks a record that failed validation. Callers test for it
// with errors.Is to distinguish bad input from storage failures.
var ErrInvalid = errors.New("invalid record")

// Group is a named collection that videos can belong to. The id is
// caller-supplied and unique across the dataset.
type Group struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// Video is a single media reference record. The id is assigned by the
// storage layer at creation time and is always the string form of a
// numeric identifier, regardless of backend.
type Video struct {
	ID          string `json:"id"`
	GroupID     string `json:"groupId"`
	URL         string `json:"url"`
	Username    string `json:"username"`
	Caption     string `json:"caption,omitempty"`
	Description string `json:"description,omitempty"`
}

// Dataset is the full-document payload shape used by export, import,
// and the flat-file backend's on-disk representation.
type Dataset struct {
	Groups []Group `json:"groups"`
	Videos []Video `json:"videos"`
}

// GroupPatch carries a partial group update. Nil fields are left
// untouched; a non-nil ID different from the target's id renames the
// group and re-points every video referencing the old id.
type GroupPatch struct {
	ID          *string `json:"id"`
	Name        *string `json:"name"`
	Description *string `json:"description"`
}

// Normalize trims surrounding whitespace from all fields.
func (g Group) Normalize() Group {
	g.ID = strings.TrimSpace(g.ID)
	g.Name = strings.TrimSpace(g.Name)
	g.Description = strings.TrimSpace(g.Description)
	return g
}

// Validate reports whether the group satisfies the data-shape rules.
func (g Group) Validate() error {
	if g.ID == "" {
		return fmt.Errorf("%w: group id is required", ErrInvalid)
	}
	if g.Name == "" {
		return fmt.Errorf("%w: group name is required", ErrInvalid)
	}
	return nil
}

// Normalize trims surrounding whitespace from all fields except the id,
// which the storage layer overwrites anyway.
func (v Video) Normalize() Video {
	v.GroupID = strings.TrimSpace(v.GroupID)
	v.URL = strings.TrimSpace(v.URL)
	v.Username = strings.TrimSpace(v.Username)
	v.Caption = strings.TrimSpace(v.Caption)
	v.Description = strings.TrimSpace(v.Description)
	return v
}

// Validate reports whether the video satisfies the data-shape rules.
// Group existence is not checked here; the relational backend enforces
// it through its foreign key, the flat-file backend does not.
func (v Video) Validate() error {
	if v.GroupID == "" {
		return fmt.Errorf("%w: video groupId is required", ErrInvalid)
	}
	if v.URL == "" {
		return fmt.Errorf("%w: video url is required", ErrInvalid)
	}
	if v.Username == "" {
		return fmt.Errorf("%w: video username is required", ErrInvalid)
	}
	return nil
}

// Apply merges the patch onto g, field by field.
func (p GroupPatch) Apply(g Group) Group {
	if p.ID != nil {
		g.ID = strings.TrimSpace(*p.ID)
	}
	if p.Name != nil {
		g.Name = strings.TrimSpace(*p.Name)
	}
	if p.Description != nil {
		g.Description = strings.TrimSpace(*p.Description)
	}
	return g
}
