package store

import (
	"context"
	"database/sql"
	"encoding/binary"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver (no CGO)

	"github.com/storyseek/storyseek/internal/errors"
	"github.com/storyseek/storyseek/internal/model"
)

// SQLiteStoryStore implements StoryStore backed by SQLite in WAL mode.
type SQLiteStoryStore struct {
	mu     sync.RWMutex
	db     *sql.DB
	closed bool
}

var _ StoryStore = (*SQLiteStoryStore)(nil)

const storiesSchema = `
CREATE TABLE IF NOT EXISTS stories (
	id             INTEGER PRIMARY KEY AUTOINCREMENT,
	title          TEXT NOT NULL,
	author         TEXT NOT NULL DEFAULT '',
	genre          TEXT NOT NULL DEFAULT '',
	published_year INTEGER NOT NULL DEFAULT 0,
	summary        TEXT NOT NULL DEFAULT '',
	content        TEXT NOT NULL DEFAULT '',
	content_hash   TEXT NOT NULL DEFAULT '',
	embedding      BLOB,
	created_at     INTEGER NOT NULL,
	updated_at     INTEGER NOT NULL
);
CREATE UNIQUE INDEX IF NOT EXISTS idx_stories_title ON stories(title);
`

// NewSQLiteStoryStore opens (or creates) the story database.
// If path is empty an in-memory database is used, for tests.
func NewSQLiteStoryStore(path string) (*SQLiteStoryStore, error) {
	dsn := ":memory:"
	if path != "" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create data directory: %w", err)
		}
		dsn = path
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStoreUnavailable, "open story database", err)
	}

	// WAL for concurrent readers while ingestion writes; busy timeout so
	// readers wait for the batch commit instead of failing immediately.
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA synchronous = NORMAL",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, errors.Wrap(errors.ErrCodeStoreUnavailable, "configure story database", err)
		}
	}

	if _, err := db.Exec(storiesSchema); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(errors.ErrCodeStoreUnavailable, "create stories schema", err)
	}

	return &SQLiteStoryStore{db: db}, nil
}

// DB exposes the underlying handle for transactional batch commits.
func (s *SQLiteStoryStore) DB() *sql.DB {
	return s.db
}

// Save inserts a new story and returns it with the assigned ID.
func (s *SQLiteStoryStore) Save(ctx context.Context, story *model.Story) (*model.Story, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, errors.New(errors.ErrCodeStoreUnavailable, "story store is closed", nil)
	}

	now := time.Now().UTC()
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO stories (title, author, genre, published_year, summary, content, content_hash, embedding, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		story.Title, story.Author, story.Genre, story.PublishedYear,
		story.Summary, story.Content, story.ContentHash,
		encodeEmbedding(story.Embedding), now.Unix(), now.Unix(),
	)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStoreWrite, fmt.Sprintf("insert story %q", story.Title), err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStoreWrite, "read inserted story id", err)
	}

	saved := *story
	saved.ID = id
	saved.CreatedAt = now
	saved.UpdatedAt = now
	return &saved, nil
}

// Replace overwrites every column of an existing story, keeping its ID.
// Ingestion uses this for changed content: the row is fully replaced,
// never patched field by field.
func (s *SQLiteStoryStore) Replace(ctx context.Context, story *model.Story) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return errors.New(errors.ErrCodeStoreUnavailable, "story store is closed", nil)
	}

	now := time.Now().UTC()
	res, err := s.db.ExecContext(ctx, `
		UPDATE stories
		SET title = ?, author = ?, genre = ?, published_year = ?,
		    summary = ?, content = ?, content_hash = ?, embedding = ?, updated_at = ?
		WHERE id = ?`,
		story.Title, story.Author, story.Genre, story.PublishedYear,
		story.Summary, story.Content, story.ContentHash,
		encodeEmbedding(story.Embedding), now.Unix(), story.ID,
	)
	if err != nil {
		return errors.Wrap(errors.ErrCodeStoreWrite, fmt.Sprintf("replace story %d", story.ID), err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(errors.ErrCodeStoreWrite, "read replace result", err)
	}
	if affected == 0 {
		return errors.Newf(errors.ErrCodeStoreWrite, "story %d does not exist", story.ID)
	}
	return nil
}

// ApplyBatch commits a set of inserts and replaces in one transaction.
// Ingestion uses this so a run's decisions land atomically. Returns the
// inserted stories with their assigned IDs, in input order.
func (s *SQLiteStoryStore) ApplyBatch(ctx context.Context, inserts, replaces []*model.Story) ([]*model.Story, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, errors.New(errors.ErrCodeStoreUnavailable, "story store is closed", nil)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStoreWrite, "begin batch transaction", err)
	}
	defer func() { _ = tx.Rollback() }()

	now := time.Now().UTC()
	saved := make([]*model.Story, 0, len(inserts))
	for _, story := range inserts {
		res, err := tx.ExecContext(ctx, `
			INSERT INTO stories (title, author, genre, published_year, summary, content, content_hash, embedding, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			story.Title, story.Author, story.Genre, story.PublishedYear,
			story.Summary, story.Content, story.ContentHash,
			encodeEmbedding(story.Embedding), now.Unix(), now.Unix(),
		)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeStoreWrite, fmt.Sprintf("batch insert story %q", story.Title), err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeStoreWrite, "read inserted story id", err)
		}
		inserted := *story
		inserted.ID = id
		inserted.CreatedAt = now
		inserted.UpdatedAt = now
		saved = append(saved, &inserted)
	}

	for _, story := range replaces {
		res, err := tx.ExecContext(ctx, `
			UPDATE stories
			SET title = ?, author = ?, genre = ?, published_year = ?,
			    summary = ?, content = ?, content_hash = ?, embedding = ?, updated_at = ?
			WHERE id = ?`,
			story.Title, story.Author, story.Genre, story.PublishedYear,
			story.Summary, story.Content, story.ContentHash,
			encodeEmbedding(story.Embedding), now.Unix(), story.ID,
		)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeStoreWrite, fmt.Sprintf("batch replace story %d", story.ID), err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeStoreWrite, "read replace result", err)
		}
		if affected == 0 {
			return nil, errors.Newf(errors.ErrCodeStoreWrite, "story %d does not exist", story.ID)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeStoreWrite, "commit batch transaction", err)
	}
	return saved, nil
}

// GetByID returns the story or nil when absent.
func (s *SQLiteStoryStore) GetByID(ctx context.Context, id int64) (*model.Story, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, selectStories+" WHERE id = ?", id)
	return scanStory(row)
}

// GetByTitle returns the story with the given title or nil when absent.
func (s *SQLiteStoryStore) GetByTitle(ctx context.Context, title string) (*model.Story, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, selectStories+" WHERE title = ?", title)
	return scanStory(row)
}

// GetByIDs returns stories for the given IDs, keyed by ID.
// Missing IDs are simply absent from the map.
func (s *SQLiteStoryStore) GetByIDs(ctx context.Context, ids []int64) (map[int64]*model.Story, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make(map[int64]*model.Story, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	// Build a placeholder list; result sets stay small (bounded by the
	// search over-fetch) so a single IN query is fine.
	query := selectStories + " WHERE id IN (?" + strings.Repeat(",?", len(ids)-1) + ")"
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStoreQuery, "load stories by id", err)
	}
	defer rows.Close()

	for rows.Next() {
		story, err := scanStoryRow(rows)
		if err != nil {
			return nil, err
		}
		result[story.ID] = story
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeStoreQuery, "iterate stories", err)
	}
	return result, nil
}

// List returns all stories ordered by ID.
func (s *SQLiteStoryStore) List(ctx context.Context) ([]*model.Story, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, selectStories+" ORDER BY id")
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStoreQuery, "list stories", err)
	}
	defer rows.Close()

	var stories []*model.Story
	for rows.Next() {
		story, err := scanStoryRow(rows)
		if err != nil {
			return nil, err
		}
		stories = append(stories, story)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeStoreQuery, "iterate stories", err)
	}
	return stories, nil
}

// Count returns the number of persisted stories.
func (s *SQLiteStoryStore) Count(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM stories").Scan(&n); err != nil {
		return 0, errors.Wrap(errors.ErrCodeStoreQuery, "count stories", err)
	}
	return n, nil
}

// Close releases the database handle.
func (s *SQLiteStoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}

const selectStories = `
SELECT id, title, author, genre, published_year, summary, content, content_hash, embedding, created_at, updated_at
FROM stories`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanStory(row *sql.Row) (*model.Story, error) {
	story, err := scanStoryRow(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return story, err
}

func scanStoryRow(row rowScanner) (*model.Story, error) {
	var (
		story     model.Story
		blob      []byte
		createdAt int64
		updatedAt int64
	)
	err := row.Scan(
		&story.ID, &story.Title, &story.Author, &story.Genre, &story.PublishedYear,
		&story.Summary, &story.Content, &story.ContentHash, &blob, &createdAt, &updatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, err
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStoreQuery, "scan story row", err)
	}

	story.Embedding = decodeEmbedding(blob)
	story.CreatedAt = time.Unix(createdAt, 0).UTC()
	story.UpdatedAt = time.Unix(updatedAt, 0).UTC()
	return &story, nil
}

// encodeEmbedding serializes a vector as little-endian float32s.
// A nil vector stores as NULL to keep "never embedded" distinguishable.
func encodeEmbedding(vec []float32) []byte {
	if len(vec) == 0 {
		return nil
	}
	buf := make([]byte, len(vec)*4)
	for i, v := range vec {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(v))
	}
	return buf
}

func decodeEmbedding(buf []byte) []float32 {
	if len(buf) == 0 || len(buf)%4 != 0 {
		return nil
	}
	vec := make([]float32, len(buf)/4)
	for i := range vec {
		vec[i] = math.Float32frombits(binary.LittleEndian.Uint32(buf[i*4:]))
	}
	return vec
}
