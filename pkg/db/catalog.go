package db

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	_ "modernc.org/sqlite"

	"github.com/lbogdanov/stethoscope/pkg/model"
)

// Catalog is the SQLite backed catalog of tracks, books and chapters.
type Catalog struct {
	db *sql.DB
}

func NewCatalog(config *Config) (*Catalog, error) {
	path := config.Path
	if path == "" {
		path = filepath.Join(config.Dir, "catalog.db")
	}

	log.Infof("opening catalog %q", path)

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, errors.Wrap(err, "could not mkdir catalog dir")
	}

	dsn := fmt.Sprintf("file:%s?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open catalog")
	}

	// SQLite allows a single writer
	db.SetMaxOpenConns(1)

	catalog := &Catalog{db: db}
	if err := catalog.migrate(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}

	return catalog, nil
}

func (c *Catalog) migrate(ctx context.Context) error {
	return c.tx(ctx, func(tx *sql.Tx) error {
		for _, stmt := range schema {
			if _, err := tx.ExecContext(ctx, stmt); err != nil {
				return errors.Wrap(err, "failed to apply schema")
			}
		}

		_, err := tx.ExecContext(ctx, fmt.Sprintf("PRAGMA user_version = %d", CurrentVersion))
		return errors.Wrap(err, "failed to set schema version")
	})
}

func (c *Catalog) Close() error {
	log.Debug("closing catalog")
	return c.db.Close()
}

func (c *Catalog) Version() (int, error) {
	var version int
	err := c.db.QueryRow("PRAGMA user_version").Scan(&version)
	return version, err
}

// CreateEntry inserts a new entry. It fails with ErrConflict if the id is taken,
// ErrNotFound if the parent is missing and ErrInvalidInput if the parent is a chapter itself.
func (c *Catalog) CreateEntry(ctx context.Context, entry *model.Entry) error {
	return c.tx(ctx, func(tx *sql.Tx) error {
		if _, err := getEntry(ctx, tx, entry.ID); err == nil {
			return errors.Wrapf(model.ErrConflict, "entry %q", entry.ID)
		} else if err != model.ErrNotFound {
			return err
		}

		if entry.ParentID != "" {
			parent, err := getEntry(ctx, tx, entry.ParentID)
			if err == model.ErrNotFound {
				return errors.Wrapf(model.ErrNotFound, "parent %q", entry.ParentID)
			} else if err != nil {
				return err
			}

			if parent.IsChapter() {
				return errors.Wrapf(model.ErrInvalidInput, "%q is a chapter and can't have chapters", parent.ID)
			}
		}

		_, err := tx.ExecContext(ctx, insertEntry,
			entry.ID,
			nullString(entry.ParentID),
			entry.Filename,
			nullPtr(entry.Title),
			nullPtr(entry.Description),
			unixNano(entry.Created),
			unixNano(entry.Published),
			nullInt(entry.AudioSize),
			nullString(entry.AudioType),
			entry.Duration,
			nullString(entry.ThumbnailURL),
		)
		return errors.Wrapf(err, "failed to insert entry %q", entry.ID)
	})
}

func (c *Catalog) GetEntry(ctx context.Context, id string) (*model.Entry, error) {
	entry, err := getEntry(ctx, c.db, id)
	if err == model.ErrNotFound {
		return nil, errors.Wrapf(model.ErrNotFound, "entry %q", id)
	}
	return entry, err
}

// GetEntryWithChildren loads an entry and its chapters in insertion order.
func (c *Catalog) GetEntryWithChildren(ctx context.Context, id string) (*model.Entry, error) {
	var entry *model.Entry

	err := c.tx(ctx, func(tx *sql.Tx) error {
		var err error
		if entry, err = getEntry(ctx, tx, id); err != nil {
			if err == model.ErrNotFound {
				return errors.Wrapf(model.ErrNotFound, "entry %q", id)
			}
			return err
		}

		entry.Children, err = queryEntries(ctx, tx, selectChildren, id)
		return err
	})

	return entry, err
}

func (c *Catalog) Exists(ctx context.Context, id string) (bool, error) {
	var n int
	if err := c.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM catalog WHERE id = ?`, id).Scan(&n); err != nil {
		return false, errors.Wrap(err, "failed to query entry")
	}
	return n > 0, nil
}

func (c *Catalog) CountChildren(ctx context.Context, id string) (int, error) {
	var n int
	if err := c.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM catalog WHERE parent_id = ?`, id).Scan(&n); err != nil {
		return 0, errors.Wrap(err, "failed to count children")
	}
	return n, nil
}

// ListRoots returns finalized root entries, most recent first. When ids is not empty
// only the listed entries are returned.
func (c *Catalog) ListRoots(ctx context.Context, ids []string) ([]*model.Listing, error) {
	query := selectRoots
	args := make([]interface{}, 0, len(ids))

	if len(ids) > 0 {
		query += ` AND c.id IN (?` + strings.Repeat(`, ?`, len(ids)-1) + `)`
		for _, id := range ids {
			args = append(args, id)
		}
	}

	rows, err := c.db.QueryContext(ctx, query+orderRoots, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query roots")
	}
	defer rows.Close()

	var result []*model.Listing
	for rows.Next() {
		var (
			listing     model.Listing
			description sql.NullString
			thumbnail   sql.NullString
			children    int
		)

		if err := rows.Scan(&listing.ID, &listing.Title, &description, &thumbnail, &listing.Duration, &children); err != nil {
			return nil, errors.Wrap(err, "failed to scan root")
		}

		listing.Description = description.String
		listing.Thumbnail = thumbnail.String
		listing.Type = model.TypeYoutube
		if children > 0 {
			listing.Type = model.TypeAudiobook
		}

		result = append(result, &listing)
	}

	return result, errors.Wrap(rows.Err(), "failed to iterate roots")
}

// ListStandalone returns finalized roots without chapters, oldest first.
func (c *Catalog) ListStandalone(ctx context.Context) ([]*model.Entry, error) {
	return queryEntries(ctx, c.db, selectStandalone)
}

// ListChapters returns the chapters of a book sorted by filename.
func (c *Catalog) ListChapters(ctx context.Context, bookID string) ([]*model.Entry, error) {
	return queryEntries(ctx, c.db, selectChapters, bookID)
}

// Children returns the chapters of a book in insertion order.
func (c *Catalog) Children(ctx context.Context, bookID string) ([]*model.Entry, error) {
	return queryEntries(ctx, c.db, selectChildren, bookID)
}

func (c *Catalog) UpdateChapterInfo(ctx context.Context, id string, info *model.ChapterInfo) error {
	return c.tx(ctx, func(tx *sql.Tx) error {
		return updateInfo(ctx, tx, updateChapter, id, info)
	})
}

// FinalizeBook writes the aggregated metadata to a book root, which makes it feed eligible.
func (c *Catalog) FinalizeBook(ctx context.Context, bookID string, info *model.ChapterInfo) error {
	return c.tx(ctx, func(tx *sql.Tx) error {
		return updateInfo(ctx, tx, updateBook, bookID, info)
	})
}

// DeleteEntry removes an entry together with its chapters.
func (c *Catalog) DeleteEntry(ctx context.Context, id string) error {
	return c.tx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, deleteEntry, id, id)
		if err != nil {
			return errors.Wrapf(err, "failed to delete entry %q", id)
		}

		if n, _ := res.RowsAffected(); n == 0 {
			return errors.Wrapf(model.ErrNotFound, "entry %q", id)
		}
		return nil
	})
}

func (c *Catalog) tx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "failed to begin transaction")
	}

	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}

	return errors.Wrap(tx.Commit(), "failed to commit transaction")
}

func updateInfo(ctx context.Context, tx *sql.Tx, query string, id string, info *model.ChapterInfo) error {
	res, err := tx.ExecContext(ctx, query,
		info.Title,
		info.Description,
		info.Duration,
		info.AudioSize,
		nullString(info.AudioType),
		id,
	)
	if err != nil {
		return errors.Wrapf(err, "failed to update entry %q", id)
	}

	if n, _ := res.RowsAffected(); n == 0 {
		return errors.Wrapf(model.ErrNotFound, "entry %q", id)
	}
	return nil
}

type querier interface {
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func getEntry(ctx context.Context, q querier, id string) (*model.Entry, error) {
	entry, err := scanEntry(q.QueryRowContext(ctx, selectEntry, id))
	if err == sql.ErrNoRows {
		return nil, model.ErrNotFound
	}
	return entry, err
}

func queryEntries(ctx context.Context, q querier, query string, args ...interface{}) ([]*model.Entry, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query entries")
	}
	defer rows.Close()

	var result []*model.Entry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, entry)
	}

	return result, errors.Wrap(rows.Err(), "failed to iterate entries")
}

func scanEntry(row scanner) (*model.Entry, error) {
	var (
		entry       model.Entry
		parentID    sql.NullString
		title       sql.NullString
		description sql.NullString
		created     int64
		published   int64
		audioSize   sql.NullInt64
		audioType   sql.NullString
		thumbnail   sql.NullString
	)

	err := row.Scan(
		&entry.ID,
		&parentID,
		&entry.Filename,
		&title,
		&description,
		&created,
		&published,
		&audioSize,
		&audioType,
		&entry.Duration,
		&thumbnail,
	)
	if err == sql.ErrNoRows {
		return nil, err
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to scan entry")
	}

	entry.ParentID = parentID.String
	if title.Valid {
		entry.Title = model.String(title.String)
	}
	if description.Valid {
		entry.Description = model.String(description.String)
	}
	entry.Created = fromUnixNano(created)
	entry.Published = fromUnixNano(published)
	entry.AudioSize = audioSize.Int64
	entry.AudioType = audioType.String
	entry.ThumbnailURL = thumbnail.String

	return &entry, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullInt(n int64) sql.NullInt64 {
	return sql.NullInt64{Int64: n, Valid: n != 0}
}

func nullPtr(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func unixNano(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixNano()
}

func fromUnixNano(n int64) time.Time {
	if n == 0 {
		return time.Time{}
	}
	return time.Unix(0, n).UTC()
}
