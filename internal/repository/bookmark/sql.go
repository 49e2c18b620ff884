package bookmark

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/kailas-cloud/bookmarkd/internal/db"
	"github.com/kailas-cloud/bookmarkd/internal/db/sqldb"
	"github.com/kailas-cloud/bookmarkd/internal/domain"
	dombm "github.com/kailas-cloud/bookmarkd/internal/domain/bookmark"
)

const selectColumns = `SELECT id, url, title, content, processed_content, summary,
	meta_data, embedding, created_at, updated_at FROM bookmarks`

// sqlDB is the consumer interface for the SQL backend (ISP).
type sqlDB interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	Rebind(query string) string
}

// Compile-time check: *sqldb.DB satisfies the consumer interface.
var _ sqlDB = (*sqldb.DB)(nil)

// SQLRepo stores bookmarks in the bookmarks table.
type SQLRepo struct {
	db  sqlDB
	now func() time.Time
}

// NewSQLRepo creates a SQL-backed bookmark repository.
func NewSQLRepo(d sqlDB) *SQLRepo {
	return &SQLRepo{db: d, now: time.Now}
}

// Create inserts the bookmark and returns it with the generated id.
func (r *SQLRepo) Create(ctx context.Context, b *dombm.Bookmark) (dombm.Bookmark, error) {
	meta, err := encodeMetadata(b.Metadata())
	if err != nil {
		return dombm.Bookmark{}, err
	}
	// Postgres TIMESTAMPTZ keeps microseconds; match it so reads agree with the create response.
	createdAt := r.now().UTC().Truncate(time.Microsecond)

	q := r.db.Rebind(`INSERT INTO bookmarks
		(url, title, content, processed_content, summary, meta_data, embedding, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?) RETURNING id`)

	var id int64
	err = r.db.QueryRowContext(ctx, q,
		b.URL(), b.Title(), b.Content(), b.ProcessedContent(), b.Summary(),
		meta, b.Embedding(), sqldb.Time{Time: createdAt, Valid: true},
	).Scan(&id)
	if err != nil {
		return dombm.Bookmark{}, storeErr(db.OpInsert, err)
	}
	return b.WithIdentity(id, createdAt), nil
}

// Get returns a bookmark by id.
func (r *SQLRepo) Get(ctx context.Context, id int64) (dombm.Bookmark, error) {
	row := r.db.QueryRowContext(ctx, r.db.Rebind(selectColumns+` WHERE id = ?`), id)
	b, err := scanBookmark(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return dombm.Bookmark{}, domain.ErrBookmarkNotFound
		}
		return dombm.Bookmark{}, storeErr(db.OpSelect, err)
	}
	return b, nil
}

// All returns every stored bookmark ordered by id.
func (r *SQLRepo) All(ctx context.Context) ([]dombm.Bookmark, error) {
	return r.query(ctx, selectColumns+` ORDER BY id`)
}

// List returns a page of bookmarks ordered by id.
func (r *SQLRepo) List(ctx context.Context, skip, limit int) ([]dombm.Bookmark, error) {
	return r.query(ctx, selectColumns+` ORDER BY id LIMIT ? OFFSET ?`, limit, skip)
}

func (r *SQLRepo) query(ctx context.Context, q string, args ...any) ([]dombm.Bookmark, error) {
	rows, err := r.db.QueryContext(ctx, r.db.Rebind(q), args...)
	if err != nil {
		return nil, storeErr(db.OpSelect, err)
	}
	defer rows.Close()

	out := []dombm.Bookmark{}
	for rows.Next() {
		b, err := scanBookmark(rows)
		if err != nil {
			return nil, storeErr(db.OpSelect, err)
		}
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr(db.OpSelect, err)
	}
	return out, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanBookmark(s scanner) (dombm.Bookmark, error) {
	var (
		id                                                   int64
		url, title, content, processed, summary, meta, embed string
		createdAt, updatedAt                                 sqldb.Time
	)
	if err := s.Scan(&id, &url, &title, &content, &processed, &summary,
		&meta, &embed, &createdAt, &updatedAt); err != nil {
		return dombm.Bookmark{}, err
	}
	metadata, err := decodeMetadata(meta)
	if err != nil {
		return dombm.Bookmark{}, fmt.Errorf("bookmark %d: %w", id, err)
	}
	return dombm.Reconstruct(id, url, title, content, processed, summary,
		metadata, embed, createdAt.Time, updatedAt.Ptr()), nil
}

func storeErr(op string, err error) error {
	return fmt.Errorf("%w: %w", domain.ErrStoreUnavailable, &db.Error{Op: op, Err: err})
}
