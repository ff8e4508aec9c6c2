/*
 * Copyright (c) 2025 the clipshelf authors.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package client is a minimal typed HTTP client for the clipshelf API,
// used by the clipshelfctl tool for health checks and dataset
// export/import.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Client talks to a running clipshelf server.
type Client struct {
	BaseURL string
	client  *http.Client
}

// New creates a client. baseURL may include a trailing slash; it will be
// normalized.
func New(baseURL string) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

// Health is the GET /health response body.
type Health struct {
	Status  string `json:"status"`
	Storage string `json:"storage"`
}

// Dataset mirrors the full-document payload of GET/PUT /data. It is kept
// as raw records so the CLI round-trips exactly what the server sent.
type Dataset struct {
	Groups json.RawMessage `json:"groups"`
	Videos json.RawMessage `json:"videos"`
}

func (c *Client) doJSON(ctx context.Context, method, path string, body []byte, dest any) error {
	var rd io.Reader
	if body != nil {
		rd = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, rd)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return fmt.Errorf("server %s %s: %s: %s", method, path, resp.Status, strings.TrimSpace(string(msg)))
	}
	if dest == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(dest)
}

// GetHealth probes the server and reports which backend it runs on.
func (c *Client) GetHealth(ctx context.Context) (Health, error) {
	var h Health
	if err := c.doJSON(ctx, http.MethodGet, "/health", nil, &h); err != nil {
		return Health{}, err
	}
	return h, nil
}

// Export fetches the full dataset snapshot.
func (c *Client) Export(ctx context.Context) (Dataset, error) {
	var ds Dataset
	if err := c.doJSON(ctx, http.MethodGet, "/data", nil, &ds); err != nil {
		return Dataset{}, err
	}
	return ds, nil
}

// Import replaces the server's dataset with the given document.
func (c *Client) Import(ctx context.Context, doc []byte) error {
	return c.doJSON(ctx, http.MethodPut, "/data", doc, nil)
}
