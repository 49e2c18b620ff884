package bookmark

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/kailas-cloud/bookmarkd/internal/domain"
	dombm "github.com/kailas-cloud/bookmarkd/internal/domain/bookmark"
)

var (
	hashKeyPrefix = domain.KeyPrefix + "bookmark:"
	hashSeqKey    = domain.KeyPrefix + "bookmark_seq"
)

// Hash field names.
const (
	fieldID               = "id"
	fieldURL              = "url"
	fieldTitle            = "title"
	fieldContent          = "content"
	fieldProcessedContent = "processed_content"
	fieldSummary          = "summary"
	fieldMetadata         = "meta_data"
	fieldEmbedding        = "embedding"
	fieldCreatedAt        = "created_at"
	fieldUpdatedAt        = "updated_at"
)

// hashStore is the consumer interface for the hash backend (ISP).
type hashStore interface {
	HSet(ctx context.Context, key string, fields map[string]string) error
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	HGetAllMulti(ctx context.Context, keys []string) ([]map[string]string, error)
	Scan(ctx context.Context, pattern string) ([]string, error)
	Incr(ctx context.Context, key string) (int64, error)
}

// HashRepo stores each bookmark as a hash keyed by its id.
type HashRepo struct {
	store hashStore
	now   func() time.Time
}

// NewHashRepo creates a hash-backed bookmark repository.
func NewHashRepo(s hashStore) *HashRepo {
	return &HashRepo{store: s, now: time.Now}
}

// Create assigns the next id from the sequence key and writes the hash.
func (r *HashRepo) Create(ctx context.Context, b *dombm.Bookmark) (dombm.Bookmark, error) {
	meta, err := encodeMetadata(b.Metadata())
	if err != nil {
		return dombm.Bookmark{}, err
	}

	id, err := r.store.Incr(ctx, hashSeqKey)
	if err != nil {
		return dombm.Bookmark{}, fmt.Errorf("next id: %w: %w", domain.ErrStoreUnavailable, err)
	}
	created := b.WithIdentity(id, r.now().UTC())

	fields := map[string]string{
		fieldID:               strconv.FormatInt(id, 10),
		fieldURL:              created.URL(),
		fieldTitle:            created.Title(),
		fieldContent:          created.Content(),
		fieldProcessedContent: created.ProcessedContent(),
		fieldSummary:          created.Summary(),
		fieldMetadata:         meta,
		fieldEmbedding:        created.Embedding(),
		fieldCreatedAt:        created.CreatedAt().Format(time.RFC3339Nano),
	}
	key := hashKey(id)
	if err := r.store.HSet(ctx, key, fields); err != nil {
		return dombm.Bookmark{}, fmt.Errorf("hset %s: %w: %w", key, domain.ErrStoreUnavailable, err)
	}
	return created, nil
}

// Get returns a bookmark by id.
func (r *HashRepo) Get(ctx context.Context, id int64) (dombm.Bookmark, error) {
	key := hashKey(id)
	fields, err := r.store.HGetAll(ctx, key)
	if err != nil {
		return dombm.Bookmark{}, fmt.Errorf("hgetall %s: %w: %w", key, domain.ErrStoreUnavailable, err)
	}
	if len(fields) == 0 {
		return dombm.Bookmark{}, domain.ErrBookmarkNotFound
	}
	return parseHash(fields)
}

// All returns every stored bookmark ordered by id.
func (r *HashRepo) All(ctx context.Context) ([]dombm.Bookmark, error) {
	keys, err := r.store.Scan(ctx, hashKeyPrefix+"*")
	if err != nil {
		return nil, fmt.Errorf("scan bookmarks: %w: %w", domain.ErrStoreUnavailable, err)
	}
	if len(keys) == 0 {
		return []dombm.Bookmark{}, nil
	}

	hashes, err := r.store.HGetAllMulti(ctx, keys)
	if err != nil {
		return nil, fmt.Errorf("load bookmarks: %w: %w", domain.ErrStoreUnavailable, err)
	}

	out := make([]dombm.Bookmark, 0, len(hashes))
	for i, fields := range hashes {
		if len(fields) == 0 {
			continue // deleted between SCAN and HGETALL
		}
		b, err := parseHash(fields)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", keys[i], err)
		}
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID() < out[j].ID() })
	return out, nil
}

// List returns a page of bookmarks ordered by id. The hash backend has no
// secondary index, so pages are cut from a full scan.
func (r *HashRepo) List(ctx context.Context, skip, limit int) ([]dombm.Bookmark, error) {
	all, err := r.All(ctx)
	if err != nil {
		return nil, err
	}
	if skip >= len(all) {
		return []dombm.Bookmark{}, nil
	}
	end := len(all)
	if limit > 0 && skip+limit < end {
		end = skip + limit
	}
	return all[skip:end], nil
}

func hashKey(id int64) string {
	return hashKeyPrefix + strconv.FormatInt(id, 10)
}

func parseHash(fields map[string]string) (dombm.Bookmark, error) {
	id, err := strconv.ParseInt(fields[fieldID], 10, 64)
	if err != nil {
		return dombm.Bookmark{}, fmt.Errorf("invalid id %q: %w", fields[fieldID], err)
	}
	createdAt, err := time.Parse(time.RFC3339Nano, fields[fieldCreatedAt])
	if err != nil {
		return dombm.Bookmark{}, fmt.Errorf("invalid created_at %q: %w", fields[fieldCreatedAt], err)
	}
	var updatedAt *time.Time
	if v := fields[fieldUpdatedAt]; v != "" {
		t, err := time.Parse(time.RFC3339Nano, v)
		if err != nil {
			return dombm.Bookmark{}, fmt.Errorf("invalid updated_at %q: %w", v, err)
		}
		updatedAt = &t
	}
	meta, err := decodeMetadata(fields[fieldMetadata])
	if err != nil {
		return dombm.Bookmark{}, err
	}

	return dombm.Reconstruct(
		id,
		fields[fieldURL],
		fields[fieldTitle],
		fields[fieldContent],
		fields[fieldProcessedContent],
		fields[fieldSummary],
		meta,
		fields[fieldEmbedding],
		createdAt.UTC(),
		updatedAt,
	), nil
}
