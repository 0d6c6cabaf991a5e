// Package sqlite persists tag converter entries in a SQLite database and
// serves batched lookups to the resolution engine.
package sqlite

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/crosspost-dev/go-crosspost/pkg/tagconv"

	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var schemaSQL string

const entryColumns = `id, tag, convert_to, created_at, updated_at`

// Store is a tagconv.Source backed by SQLite.
type Store struct {
	db     *sql.DB
	logger *zap.Logger
	now    func() time.Time
}

var _ tagconv.Source = (*Store)(nil)

// Option customises a Store.
type Option func(*Store)

// WithLogger attaches a logger.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// Open opens (or creates) the database at dsn, applies pragmas and the
// schema. Use ":memory:" for a throwaway store.
func Open(dsn string, opts ...Option) (*Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, errors.Wrap(err, "open sqlite")
	}
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, errors.Wrapf(err, "exec pragma %q", pragma)
		}
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "exec schema")
	}

	s := &Store{db: db, logger: zap.NewNop(), now: time.Now}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Create inserts entry, assigning an ID and timestamps when unset.
// Returns tagconv.ErrAlreadyExists when the tag already has an entry.
func (s *Store) Create(ctx context.Context, entry *tagconv.Entry) error {
	if entry == nil || strings.TrimSpace(entry.Tag) == "" {
		return errors.New("create entry: tag is required")
	}
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	now := s.now()
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = now
	}
	entry.UpdatedAt = now

	payload, err := encodeConvertTo(entry.ConvertTo)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO tag_converters (`+entryColumns+`)
		VALUES (?, ?, ?, ?, ?)`,
		entry.ID,
		entry.Tag,
		payload,
		formatTime(entry.CreatedAt),
		formatTime(entry.UpdatedAt),
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return tagconv.ErrAlreadyExists
		}
		return errors.Wrapf(err, "insert entry %q", entry.Tag)
	}
	s.logger.Debug("tag converter created", zap.String("id", entry.ID), zap.String("tag", entry.Tag))
	return nil
}

// Get returns the entry with id.
func (s *Store) Get(ctx context.Context, id string) (tagconv.Entry, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+entryColumns+` FROM tag_converters WHERE id = ?`, id)
	return scanOne(row)
}

// GetByTag returns the entry for tag.
func (s *Store) GetByTag(ctx context.Context, tag string) (tagconv.Entry, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+entryColumns+` FROM tag_converters WHERE tag = ?`, tag)
	return scanOne(row)
}

// List returns every entry ordered by tag.
func (s *Store) List(ctx context.Context) ([]tagconv.Entry, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+entryColumns+` FROM tag_converters ORDER BY tag ASC`)
	if err != nil {
		return nil, errors.Wrap(err, "list entries")
	}
	return scanAll(rows)
}

// Update replaces the tag and conversions of an existing entry.
func (s *Store) Update(ctx context.Context, entry *tagconv.Entry) error {
	if entry == nil || entry.ID == "" {
		return errors.New("update entry: id is required")
	}
	payload, err := encodeConvertTo(entry.ConvertTo)
	if err != nil {
		return err
	}
	entry.UpdatedAt = s.now()
	res, err := s.db.ExecContext(ctx, `
		UPDATE tag_converters SET tag = ?, convert_to = ?, updated_at = ?
		WHERE id = ?`,
		entry.Tag,
		payload,
		formatTime(entry.UpdatedAt),
		entry.ID,
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return tagconv.ErrAlreadyExists
		}
		return errors.Wrapf(err, "update entry %q", entry.ID)
	}
	return requireAffected(res)
}

// Delete removes the entry with id.
func (s *Store) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM tag_converters WHERE id = ?`, id)
	if err != nil {
		return errors.Wrapf(err, "delete entry %q", id)
	}
	return requireAffected(res)
}

// Lookup fetches the entries for tags in one query.
func (s *Store) Lookup(ctx context.Context, tags []string) ([]tagconv.Entry, error) {
	query := tagconv.Unique(tags)
	if len(query) == 0 {
		return []tagconv.Entry{}, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(query)), ",")
	args := make([]any, len(query))
	for i, tag := range query {
		args[i] = tag
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+entryColumns+` FROM tag_converters WHERE tag IN (`+placeholders+`) ORDER BY tag ASC`, args...)
	if err != nil {
		return nil, errors.Wrap(err, "lookup entries")
	}
	entries, err := scanAll(rows)
	if err != nil {
		return nil, err
	}
	s.logger.Debug("tag converter lookup", zap.Int("requested", len(query)), zap.Int("matched", len(entries)))
	return entries, nil
}

func scanEntry(scanner interface{ Scan(dest ...any) error }) (tagconv.Entry, error) {
	var (
		entry     tagconv.Entry
		convertTo string
		createdAt string
		updatedAt string
	)
	if err := scanner.Scan(&entry.ID, &entry.Tag, &convertTo, &createdAt, &updatedAt); err != nil {
		return tagconv.Entry{}, err
	}
	if err := json.Unmarshal([]byte(convertTo), &entry.ConvertTo); err != nil {
		return tagconv.Entry{}, errors.Wrapf(err, "decode conversions of %q", entry.Tag)
	}
	var err error
	if entry.CreatedAt, err = parseTime(createdAt); err != nil {
		return tagconv.Entry{}, err
	}
	if entry.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return tagconv.Entry{}, err
	}
	return entry, nil
}

func scanOne(row *sql.Row) (tagconv.Entry, error) {
	entry, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return tagconv.Entry{}, tagconv.ErrNotFound
	}
	if err != nil {
		return tagconv.Entry{}, errors.Wrap(err, "scan entry")
	}
	return entry, nil
}

func scanAll(rows *sql.Rows) ([]tagconv.Entry, error) {
	defer rows.Close()
	entries := []tagconv.Entry{}
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, errors.Wrap(err, "scan entry")
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "iterate entries")
	}
	return entries, nil
}

func requireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "rows affected")
	}
	if n == 0 {
		return tagconv.ErrNotFound
	}
	return nil
}

func encodeConvertTo(convertTo map[string]string) (string, error) {
	if convertTo == nil {
		convertTo = map[string]string{}
	}
	data, err := json.Marshal(convertTo)
	if err != nil {
		return "", errors.Wrap(err, "encode conversions")
	}
	return string(data), nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, errors.Wrapf(err, "parse time %q", s)
	}
	return t, nil
}
