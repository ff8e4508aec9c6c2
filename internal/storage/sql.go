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
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"clipshelf/internal/domain"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
	msqlite "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"
)

// SQLStore persists groups and videos in two tables with a foreign key
// from videos to groups. Video primary keys are numeric and surfaced as
// strings through the contract.
type SQLStore struct {
	db      *sql.DB
	dialect string // "sqlite" or "postgres"
}

var _ Store = (*SQLStore)(nil)

// Schemas are issued one statement at a time; the pgx driver's extended
// protocol rejects multi-statement strings.
var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS groups (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE TABLE IF NOT EXISTS videos (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		group_id TEXT NOT NULL REFERENCES groups(id) ON DELETE CASCADE ON UPDATE CASCADE,
		url TEXT NOT NULL,
		username TEXT NOT NULL,
		caption TEXT NOT NULL DEFAULT '',
		description TEXT NOT NULL DEFAULT ''
	)`,
}

var postgresSchema = []string{
	`CREATE TABLE IF NOT EXISTS groups (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE TABLE IF NOT EXISTS videos (
		id BIGSERIAL PRIMARY KEY,
		group_id TEXT NOT NULL REFERENCES groups(id) ON DELETE CASCADE ON UPDATE CASCADE,
		url TEXT NOT NULL,
		username TEXT NOT NULL,
		caption TEXT NOT NULL DEFAULT '',
		description TEXT NOT NULL DEFAULT ''
	)`,
}

// OpenSQL opens the relational backend. postgres:// and postgresql://
// connection strings use the pgx driver; anything else is treated as a
// SQLite path or DSN via the modernc driver. Table creation is idempotent.
func OpenSQL(dsn string) (*SQLStore, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, errors.New("connection string is required")
	}

	dialect, driver := "sqlite", "sqlite"
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		dialect, driver = "postgres", "pgx"
	} else if !strings.Contains(dsn, "_pragma=") {
		// The cascade behavior depends on foreign keys being enforced on
		// every SQLite connection.
		sep := "?"
		if strings.Contains(dsn, "?") {
			sep = "&"
		}
		dsn += sep + "_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}

	schema := sqliteSchema
	if dialect == "postgres" {
		schema = postgresSchema
	}
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("create tables: %w", err)
		}
	}

	return &SQLStore{db: db, dialect: dialect}, nil
}

func (s *SQLStore) Kind() string { return s.dialect }

func (s *SQLStore) Close() error { return s.db.Close() }

// rebind converts ?-style placeholders to $n for postgres.
func (s *SQLStore) rebind(query string) string {
	if s.dialect != "postgres" {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func isDuplicateKey(err error) bool {
	var sqliteErr *msqlite.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() {
		case sqlite3lib.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3lib.SQLITE_CONSTRAINT_UNIQUE:
			return true
		}
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return true
	}
	return false
}

func (s *SQLStore) GetAll(ctx context.Context) (domain.Dataset, error) {
	ds := domain.Dataset{Groups: []domain.Group{}, Videos: []domain.Video{}}

	// Both reads run in one transaction so a concurrent ReplaceAll cannot
	// commit between them and produce a mixed snapshot. Postgres needs
	// repeatable read for that; SQLite transactions are serializable and
	// the driver does not take isolation options.
	var opts *sql.TxOptions
	if s.dialect == "postgres" {
		opts = &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true}
	}
	tx, err := s.db.BeginTx(ctx, opts)
	if err != nil {
		return ds, fmt.Errorf("begin snapshot: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	groups, err := listGroups(ctx, tx)
	if err != nil {
		return ds, err
	}
	videos, err := listVideos(ctx, tx)
	if err != nil {
		return ds, err
	}
	if err := tx.Commit(); err != nil {
		return ds, fmt.Errorf("commit snapshot: %w", err)
	}
	ds.Groups = groups
	ds.Videos = videos
	return ds, nil
}

func (s *SQLStore) ReplaceAll(ctx context.Context, ds domain.Dataset) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin replace: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	// Foreign-key order: dependents first.
	if _, err := tx.ExecContext(ctx, `DELETE FROM videos`); err != nil {
		return fmt.Errorf("clear videos: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM groups`); err != nil {
		return fmt.Errorf("clear groups: %w", err)
	}
	for _, g := range ds.Groups {
		g = g.Normalize()
		if err := g.Validate(); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx,
			s.rebind(`INSERT INTO groups (id, name, description) VALUES (?, ?, ?)`),
			g.ID, g.Name, g.Description,
		); err != nil {
			if isDuplicateKey(err) {
				return fmt.Errorf("group %q: %w", g.ID, ErrDuplicateID)
			}
			return fmt.Errorf("insert group %q: %w", g.ID, err)
		}
	}
	for _, v := range ds.Videos {
		v = v.Normalize()
		if err := v.Validate(); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx,
			s.rebind(`INSERT INTO videos (group_id, url, username, caption, description) VALUES (?, ?, ?, ?, ?)`),
			v.GroupID, v.URL, v.Username, v.Caption, v.Description,
		); err != nil {
			return fmt.Errorf("insert video for group %q: %w", v.GroupID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit replace: %w", err)
	}
	return nil
}

// querier is satisfied by both *sql.DB and *sql.Tx so the list reads can
// run standalone or inside a snapshot transaction.
type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func (s *SQLStore) ListGroups(ctx context.Context) ([]domain.Group, error) {
	return listGroups(ctx, s.db)
}

func listGroups(ctx context.Context, q querier) ([]domain.Group, error) {
	rows, err := q.QueryContext(ctx, `SELECT id, name, description FROM groups ORDER BY name ASC`)
	if err != nil {
		return nil, fmt.Errorf("list groups: %w", err)
	}
	defer rows.Close()

	groups := []domain.Group{}
	for rows.Next() {
		var g domain.Group
		if err := rows.Scan(&g.ID, &g.Name, &g.Description); err != nil {
			return nil, fmt.Errorf("scan group: %w", err)
		}
		groups = append(groups, g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list groups: %w", err)
	}
	return groups, nil
}

func (s *SQLStore) CreateGroup(ctx context.Context, g domain.Group) (domain.Group, error) {
	g = g.Normalize()
	if err := g.Validate(); err != nil {
		return domain.Group{}, err
	}
	_, err := s.db.ExecContext(ctx,
		s.rebind(`INSERT INTO groups (id, name, description) VALUES (?, ?, ?)`),
		g.ID, g.Name, g.Description,
	)
	if err != nil {
		if isDuplicateKey(err) {
			return domain.Group{}, fmt.Errorf("group %q: %w", g.ID, ErrDuplicateID)
		}
		return domain.Group{}, fmt.Errorf("create group: %w", err)
	}
	return g, nil
}

func (s *SQLStore) UpdateGroup(ctx context.Context, id string, patch domain.GroupPatch) (domain.Group, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return domain.Group{}, fmt.Errorf("begin update: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	current := domain.Group{ID: id}
	err = tx.QueryRowContext(ctx,
		s.rebind(`SELECT name, description FROM groups WHERE id = ?`), id,
	).Scan(&current.Name, &current.Description)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Group{}, fmt.Errorf("group %q: %w", id, ErrNotFound)
	}
	if err != nil {
		return domain.Group{}, fmt.Errorf("load group: %w", err)
	}

	merged := patch.Apply(current)
	if err := merged.Validate(); err != nil {
		return domain.Group{}, err
	}

	// A single UPDATE moves the id; the ON UPDATE CASCADE foreign key
	// re-points every referencing video within the same transaction.
	_, err = tx.ExecContext(ctx,
		s.rebind(`UPDATE groups SET id = ?, name = ?, description = ? WHERE id = ?`),
		merged.ID, merged.Name, merged.Description, id,
	)
	if err != nil {
		if isDuplicateKey(err) {
			return domain.Group{}, fmt.Errorf("group %q: %w", merged.ID, ErrDuplicateID)
		}
		return domain.Group{}, fmt.Errorf("update group: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return domain.Group{}, fmt.Errorf("commit update: %w", err)
	}
	return merged, nil
}

func (s *SQLStore) DeleteGroup(ctx context.Context, id string) (bool, error) {
	res, err := s.db.ExecContext(ctx, s.rebind(`DELETE FROM groups WHERE id = ?`), id)
	if err != nil {
		return false, fmt.Errorf("delete group: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete group: %w", err)
	}
	return n > 0, nil
}

func (s *SQLStore) ListVideos(ctx context.Context) ([]domain.Video, error) {
	return listVideos(ctx, s.db)
}

func listVideos(ctx context.Context, q querier) ([]domain.Video, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT id, group_id, url, username, caption, description FROM videos ORDER BY id ASC`)
	if err != nil {
		return nil, fmt.Errorf("list videos: %w", err)
	}
	defer rows.Close()

	videos := []domain.Video{}
	for rows.Next() {
		var v domain.Video
		var id int64
		if err := rows.Scan(&id, &v.GroupID, &v.URL, &v.Username, &v.Caption, &v.Description); err != nil {
			return nil, fmt.Errorf("scan video: %w", err)
		}
		v.ID = strconv.FormatInt(id, 10)
		videos = append(videos, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list videos: %w", err)
	}
	return videos, nil
}

func (s *SQLStore) CreateVideo(ctx context.Context, v domain.Video) (domain.Video, error) {
	v = v.Normalize()
	if err := v.Validate(); err != nil {
		return domain.Video{}, err
	}
	var id int64
	err := s.db.QueryRowContext(ctx,
		s.rebind(`INSERT INTO videos (group_id, url, username, caption, description) VALUES (?, ?, ?, ?, ?) RETURNING id`),
		v.GroupID, v.URL, v.Username, v.Caption, v.Description,
	).Scan(&id)
	if err != nil {
		return domain.Video{}, fmt.Errorf("create video: %w", err)
	}
	v.ID = strconv.FormatInt(id, 10)
	return v, nil
}

func (s *SQLStore) UpdateVideo(ctx context.Context, id string, patch domain.Video) (domain.Video, error) {
	numericID, err := strconv.ParseInt(id, 10, 64)
	if err != nil {
		return domain.Video{}, fmt.Errorf("video %q: %w", id, ErrNotFound)
	}
	patch = patch.Normalize()
	if err := patch.Validate(); err != nil {
		return domain.Video{}, err
	}
	res, err := s.db.ExecContext(ctx,
		s.rebind(`UPDATE videos SET group_id = ?, url = ?, username = ?, caption = ?, description = ? WHERE id = ?`),
		patch.GroupID, patch.URL, patch.Username, patch.Caption, patch.Description, numericID,
	)
	if err != nil {
		return domain.Video{}, fmt.Errorf("update video: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return domain.Video{}, fmt.Errorf("update video: %w", err)
	}
	if n == 0 {
		return domain.Video{}, fmt.Errorf("video %q: %w", id, ErrNotFound)
	}
	patch.ID = id
	return patch, nil
}

func (s *SQLStore) DeleteVideo(ctx context.Context, id string) (bool, error) {
	numericID, err := strconv.ParseInt(id, 10, 64)
	if err != nil {
		return false, nil
	}
	res, err := s.db.ExecContext(ctx, s.rebind(`DELETE FROM videos WHERE id = ?`), numericID)
	if err != nil {
		return false, fmt.Errorf("delete video: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete video: %w", err)
	}
	return n > 0, nil
}
