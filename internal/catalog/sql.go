// Lodestar - Learning Content Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lodestar

package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/duckdb/duckdb-go/v2" // register "duckdb" driver
	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	_ "modernc.org/sqlite" // register "sqlite" driver

	"github.com/tomtom215/lodestar/internal/models"
)

// Catalog drivers.
const (
	DriverMemory = "memory"
	DriverDuckDB = "duckdb"
	DriverSQLite = "sqlite"
)

// Config selects and configures the catalog.
type Config struct {
	Driver   string
	DSN      string // database file path for duckdb and sqlite
	Migrate  bool   // create tables when missing
	Snapshot string // JSON snapshot loaded into the memory catalog
}

// Open returns the configured catalog. The caller closes it when it
// implements io.Closer.
func Open(ctx context.Context, cfg Config, logger zerolog.Logger) (Catalog, error) {
	switch cfg.Driver {
	case "", DriverMemory:
		m := NewMemoryCatalog()
		if cfg.Snapshot != "" {
			if err := m.LoadSnapshotFile(cfg.Snapshot); err != nil {
				return nil, err
			}
			logger.Info().Str("snapshot", cfg.Snapshot).Msg("Catalog snapshot loaded")
		}
		return m, nil
	case DriverDuckDB, DriverSQLite:
		return OpenSQL(ctx, cfg, logger)
	default:
		return nil, fmt.Errorf("unknown catalog driver %q", cfg.Driver)
	}
}

// SQLCatalog reads entities from a relational database.
//
// Timestamps are stored as unix seconds and tag lists as JSON text so the
// same schema works on DuckDB and SQLite.
type SQLCatalog struct {
	db     *sql.DB
	driver string
}

// OpenSQL opens a DuckDB or SQLite database.
func OpenSQL(ctx context.Context, cfg Config, logger zerolog.Logger) (*SQLCatalog, error) {
	if cfg.DSN == "" {
		return nil, errors.New("catalog dsn is required")
	}
	if dir := filepath.Dir(cfg.DSN); dir != "" && dir != "." && !strings.HasPrefix(cfg.DSN, ":memory:") {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("failed to create catalog directory %s: %w", dir, err)
		}
	}

	db, err := sql.Open(cfg.Driver, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog: %w", err)
	}
	if cfg.Driver == DriverSQLite {
		// Single writer; also keeps ":memory:" databases on one connection.
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to connect to catalog: %w", err)
	}

	c := &SQLCatalog{db: db, driver: cfg.Driver}
	if cfg.Migrate {
		if err := c.Migrate(ctx); err != nil {
			_ = db.Close()
			return nil, err
		}
	}

	logger.Info().Str("driver", cfg.Driver).Bool("migrate", cfg.Migrate).Msg("SQL catalog opened")
	return c, nil
}

// NewSQLCatalog wraps an existing connection.
func NewSQLCatalog(db *sql.DB, driver string) *SQLCatalog {
	return &SQLCatalog{db: db, driver: driver}
}

// Close closes the database.
func (c *SQLCatalog) Close() error {
	return c.db.Close()
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id BIGINT PRIMARY KEY,
		username TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS algorithms (
		id BIGINT PRIMARY KEY,
		name TEXT NOT NULL,
		chinese_name TEXT NOT NULL DEFAULT '',
		description TEXT NOT NULL DEFAULT '',
		difficulty TEXT NOT NULL DEFAULT '',
		tags TEXT NOT NULL DEFAULT '[]',
		theory TEXT NOT NULL DEFAULT '',
		code_example TEXT NOT NULL DEFAULT '',
		category TEXT NOT NULL DEFAULT '',
		created_at BIGINT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS posts (
		id BIGINT PRIMARY KEY,
		title TEXT NOT NULL,
		content TEXT NOT NULL DEFAULT '',
		author_id BIGINT NOT NULL,
		tags TEXT NOT NULL DEFAULT '[]',
		like_count INTEGER NOT NULL DEFAULT 0,
		comment_count INTEGER NOT NULL DEFAULT 0,
		is_featured BOOLEAN NOT NULL DEFAULT FALSE,
		created_at BIGINT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS learning_records (
		user_id BIGINT NOT NULL,
		algorithm_id BIGINT NOT NULL,
		progress DOUBLE NOT NULL DEFAULT 0,
		interests TEXT NOT NULL DEFAULT '[]',
		last_accessed BIGINT NOT NULL,
		PRIMARY KEY (user_id, algorithm_id)
	)`,
	`CREATE TABLE IF NOT EXISTS post_interactions (
		user_id BIGINT NOT NULL,
		post_id BIGINT NOT NULL,
		kind TEXT NOT NULL,
		created_at BIGINT NOT NULL,
		PRIMARY KEY (user_id, post_id, kind)
	)`,
	`CREATE TABLE IF NOT EXISTS algorithm_posts (
		algorithm_id BIGINT NOT NULL,
		post_id BIGINT NOT NULL,
		PRIMARY KEY (algorithm_id, post_id)
	)`,
}

// Migrate creates missing tables.
func (c *SQLCatalog) Migrate(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := c.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate catalog: %w", err)
		}
	}
	return nil
}

const algorithmColumns = `id, name, chinese_name, description, difficulty, tags, theory, code_example, category, created_at`

const postSelect = `SELECT p.id, p.title, p.content, p.author_id, COALESCE(u.username, ''), p.tags,
	p.like_count, p.comment_count, p.is_featured, p.created_at
	FROM posts p LEFT JOIN users u ON u.id = p.author_id`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAlgorithm(row rowScanner) (models.Algorithm, error) {
	var (
		a          models.Algorithm
		difficulty string
		tags       string
		created    int64
	)
	if err := row.Scan(&a.ID, &a.Name, &a.ChineseName, &a.Description, &difficulty, &tags,
		&a.Theory, &a.CodeExample, &a.Category, &created); err != nil {
		return a, err
	}
	a.Difficulty = models.Difficulty(difficulty)
	a.Tags = decodeStrings(tags)
	a.CreatedAt = time.Unix(created, 0).UTC()
	return a, nil
}

func scanPost(row rowScanner) (models.Post, error) {
	var (
		p       models.Post
		tags    string
		created int64
	)
	if err := row.Scan(&p.ID, &p.Title, &p.Content, &p.Author.ID, &p.Author.Username, &tags,
		&p.LikeCount, &p.CommentCount, &p.IsFeatured, &created); err != nil {
		return p, err
	}
	p.Tags = decodeStrings(tags)
	p.CreatedAt = time.Unix(created, 0).UTC()
	return p, nil
}

func decodeStrings(s string) []string {
	var out []string
	if s == "" {
		return out
	}
	if err := json.Unmarshal([]byte(s), &out); err != nil {
		return nil
	}
	return out
}

func encodeStrings(v []string) string {
	if v == nil {
		v = []string{}
	}
	b, err := json.Marshal(v)
	if err != nil {
		return "[]"
	}
	return string(b)
}

func (c *SQLCatalog) queryPosts(ctx context.Context, query string, args ...any) ([]models.Post, error) {
	rows, err := c.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query posts: %w", err)
	}
	defer rows.Close()

	var out []models.Post
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, fmt.Errorf("scan post: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (c *SQLCatalog) queryIDs(ctx context.Context, query string, args ...any) ([]int64, error) {
	rows, err := c.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

// Algorithm implements Catalog.
func (c *SQLCatalog) Algorithm(ctx context.Context, id int64) (*models.Algorithm, error) {
	row := c.db.QueryRowContext(ctx, `SELECT `+algorithmColumns+` FROM algorithms WHERE id = ?`, id)
	a, err := scanAlgorithm(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("algorithm %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("query algorithm %d: %w", id, err)
	}
	return &a, nil
}

// Algorithms implements Catalog.
func (c *SQLCatalog) Algorithms(ctx context.Context) ([]models.Algorithm, error) {
	rows, err := c.db.QueryContext(ctx, `SELECT `+algorithmColumns+` FROM algorithms ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query algorithms: %w", err)
	}
	defer rows.Close()

	var out []models.Algorithm
	for rows.Next() {
		a, err := scanAlgorithm(rows)
		if err != nil {
			return nil, fmt.Errorf("scan algorithm: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (c *SQLCatalog) count(ctx context.Context, table string) (int, error) {
	var n int
	if err := c.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM `+table).Scan(&n); err != nil {
		return 0, fmt.Errorf("count %s: %w", table, err)
	}
	return n, nil
}

// CountAlgorithms implements Catalog.
func (c *SQLCatalog) CountAlgorithms(ctx context.Context) (int, error) {
	return c.count(ctx, "algorithms")
}

// CountPosts implements Catalog.
func (c *SQLCatalog) CountPosts(ctx context.Context) (int, error) {
	return c.count(ctx, "posts")
}

// Post implements Catalog.
func (c *SQLCatalog) Post(ctx context.Context, id int64) (*models.Post, error) {
	p, err := scanPost(c.db.QueryRowContext(ctx, postSelect+` WHERE p.id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("post %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("query post %d: %w", id, err)
	}
	return &p, nil
}

// Posts implements Catalog.
func (c *SQLCatalog) Posts(ctx context.Context) ([]models.Post, error) {
	return c.queryPosts(ctx, postSelect+` ORDER BY p.id`)
}

// PostsByIDs implements Catalog.
func (c *SQLCatalog) PostsByIDs(ctx context.Context, ids []int64) (map[int64]models.Post, error) {
	out := make(map[int64]models.Post, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	posts, err := c.queryPosts(ctx, postSelect+` WHERE p.id IN (`+placeholders(len(ids))+`)`, args...)
	if err != nil {
		return nil, err
	}
	for _, p := range posts {
		out[p.ID] = p
	}
	return out, nil
}

// PopularPosts implements Catalog.
func (c *SQLCatalog) PopularPosts(ctx context.Context, excludeAuthorID int64, limit int) ([]models.Post, error) {
	return c.queryPosts(ctx, postSelect+` WHERE p.author_id <> ?
		ORDER BY p.like_count DESC, p.created_at DESC, p.id DESC LIMIT ?`, excludeAuthorID, limit)
}

// PostsByTags implements Catalog.
func (c *SQLCatalog) PostsByTags(ctx context.Context, tags []string, limit int) ([]models.Post, error) {
	if len(tags) == 0 {
		return nil, nil
	}
	conds := make([]string, len(tags))
	args := make([]any, 0, len(tags)+1)
	for i, tag := range tags {
		conds[i] = `p.tags LIKE ? ESCAPE '\'`
		// Match the JSON string inside the array text, quotes included.
		quoted := encodeStrings([]string{tag})
		quoted = quoted[1 : len(quoted)-1]
		args = append(args, "%"+escapeLike(quoted)+"%")
	}
	args = append(args, limit)
	return c.queryPosts(ctx, postSelect+` WHERE `+strings.Join(conds, " OR ")+` ORDER BY p.id LIMIT ?`, args...)
}

// PostsByKeywords implements Catalog.
func (c *SQLCatalog) PostsByKeywords(ctx context.Context, keywords []string, limit int) ([]models.Post, error) {
	if len(keywords) == 0 {
		return nil, nil
	}
	conds := make([]string, 0, len(keywords))
	args := make([]any, 0, len(keywords)*2+1)
	for _, k := range keywords {
		pattern := "%" + escapeLike(strings.ToLower(k)) + "%"
		conds = append(conds, `LOWER(p.title) LIKE ? ESCAPE '\' OR LOWER(p.content) LIKE ? ESCAPE '\'`)
		args = append(args, pattern, pattern)
	}
	args = append(args, limit)
	return c.queryPosts(ctx, postSelect+` WHERE `+strings.Join(conds, " OR ")+` ORDER BY p.id LIMIT ?`, args...)
}

// LinkedPostIDs implements Catalog.
func (c *SQLCatalog) LinkedPostIDs(ctx context.Context, algorithmID int64) ([]int64, error) {
	ids, err := c.queryIDs(ctx, `SELECT post_id FROM algorithm_posts WHERE algorithm_id = ? ORDER BY post_id`, algorithmID)
	if err != nil {
		return nil, fmt.Errorf("query linked posts: %w", err)
	}
	return ids, nil
}

// User implements Catalog.
func (c *SQLCatalog) User(ctx context.Context, id int64) (*models.User, error) {
	var u models.User
	err := c.db.QueryRowContext(ctx, `SELECT id, username FROM users WHERE id = ?`, id).Scan(&u.ID, &u.Username)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("user %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("query user %d: %w", id, err)
	}
	return &u, nil
}

// LearningRecords implements Catalog.
func (c *SQLCatalog) LearningRecords(ctx context.Context, userID int64) ([]models.LearningRecord, error) {
	rows, err := c.db.QueryContext(ctx, `SELECT user_id, algorithm_id, progress, interests, last_accessed
		FROM learning_records WHERE user_id = ? ORDER BY last_accessed DESC, algorithm_id`, userID)
	if err != nil {
		return nil, fmt.Errorf("query learning records: %w", err)
	}
	defer rows.Close()

	var out []models.LearningRecord
	for rows.Next() {
		var (
			r         models.LearningRecord
			interests string
			accessed  int64
		)
		if err := rows.Scan(&r.UserID, &r.AlgorithmID, &r.Progress, &interests, &accessed); err != nil {
			return nil, fmt.Errorf("scan learning record: %w", err)
		}
		r.Interests = decodeStrings(interests)
		r.LastAccessed = time.Unix(accessed, 0).UTC()
		out = append(out, r)
	}
	return out, rows.Err()
}

// Interactions implements Catalog.
func (c *SQLCatalog) Interactions(ctx context.Context, userID int64) (*models.Interactions, error) {
	rows, err := c.db.QueryContext(ctx, `SELECT post_id, kind FROM post_interactions
		WHERE user_id = ? ORDER BY created_at DESC, post_id DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("query interactions: %w", err)
	}
	defer rows.Close()

	in := &models.Interactions{}
	for rows.Next() {
		var (
			postID int64
			kind   string
		)
		if err := rows.Scan(&postID, &kind); err != nil {
			return nil, fmt.Errorf("scan interaction: %w", err)
		}
		switch kind {
		case KindLike:
			in.Liked = append(in.Liked, postID)
		case KindFavorite:
			in.Favorited = append(in.Favorited, postID)
		case KindComment:
			in.Commented = append(in.Commented, postID)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	in.Authored, err = c.queryIDs(ctx, `SELECT id FROM posts WHERE author_id = ? ORDER BY created_at DESC, id DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("query authored posts: %w", err)
	}
	return in, nil
}

func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.Repeat("?, ", n-1) + "?"
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
