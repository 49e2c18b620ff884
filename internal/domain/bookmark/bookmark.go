package bookmark

import (
	"fmt"
	"net/url"
	"time"
)

// MaxContentSize is the maximum bookmark content size in bytes.
const MaxContentSize = 1 << 20

// TagsKey is the metadata field holding the bookmark's tag list.
const TagsKey = "tags"

// Bookmark is the bookmark aggregate. Read-only once persisted.
type Bookmark struct {
	id               int64
	url              string
	title            string
	content          string
	processedContent string
	summary          string
	metadata         map[string]any
	embedding        string
	createdAt        time.Time
	updatedAt        *time.Time
}

// New validates and creates a Bookmark that has not been stored yet.
// URL: absolute http(s). Content: optional, max 1 MiB.
func New(rawURL, title, content string) (Bookmark, error) {
	if rawURL == "" {
		return Bookmark{}, fmt.Errorf("url is required")
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return Bookmark{}, fmt.Errorf("invalid url: %w", err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return Bookmark{}, fmt.Errorf("url must be an absolute http(s) url")
	}
	if len(content) > MaxContentSize {
		return Bookmark{}, fmt.Errorf("content too large (max %d bytes)", MaxContentSize)
	}

	return Bookmark{
		url:      rawURL,
		title:    title,
		content:  content,
		metadata: map[string]any{},
	}, nil
}

// Reconstruct creates a Bookmark without validation (storage hydration).
func Reconstruct(
	id int64, rawURL, title, content, processedContent, summary string,
	metadata map[string]any, embedding string, createdAt time.Time, updatedAt *time.Time,
) Bookmark {
	if metadata == nil {
		metadata = map[string]any{}
	}
	return Bookmark{
		id: id, url: rawURL, title: title, content: content,
		processedContent: processedContent, summary: summary,
		metadata: metadata, embedding: embedding,
		createdAt: createdAt, updatedAt: updatedAt,
	}
}

// ID returns the store-assigned identifier (0 before persistence).
func (b *Bookmark) ID() int64 { return b.id }

// URL returns the bookmarked location.
func (b *Bookmark) URL() string { return b.url }

// Title returns the bookmark title.
func (b *Bookmark) Title() string { return b.title }

// Content returns the raw content.
func (b *Bookmark) Content() string { return b.content }

// ProcessedContent returns the cleaned-up content, if any.
func (b *Bookmark) ProcessedContent() string { return b.processedContent }

// Summary returns the derived summary.
func (b *Bookmark) Summary() string { return b.summary }

// Metadata returns the structured metadata.
func (b *Bookmark) Metadata() map[string]any { return b.metadata }

// Embedding returns the serialized content embedding ("" when the bookmark has no content).
func (b *Bookmark) Embedding() string { return b.embedding }

// HasEmbedding reports whether an embedding was stored.
func (b *Bookmark) HasEmbedding() bool { return b.embedding != "" }

// CreatedAt returns the creation timestamp.
func (b *Bookmark) CreatedAt() time.Time { return b.createdAt }

// UpdatedAt returns the last update timestamp, nil if never updated.
func (b *Bookmark) UpdatedAt() *time.Time { return b.updatedAt }

// SetEmbedding sets the serialized embedding in place (mutation, pre-persistence only).
func (b *Bookmark) SetEmbedding(e string) { b.embedding = e }

// SetMetadata replaces the metadata map in place (mutation, pre-persistence only).
func (b *Bookmark) SetMetadata(m map[string]any) {
	if m == nil {
		m = map[string]any{}
	}
	b.metadata = m
}

// WithIdentity returns a copy carrying the store-assigned id and creation time.
func (b *Bookmark) WithIdentity(id int64, createdAt time.Time) Bookmark {
	c := *b
	c.id = id
	c.createdAt = createdAt
	return c
}

// Tags returns the string entries of metadata["tags"].
// Non-string entries are ignored; a missing or non-list field yields nil.
func (b *Bookmark) Tags() []string {
	raw, ok := b.metadata[TagsKey]
	if !ok {
		return nil
	}
	switch v := raw.(type) {
	case []string:
		return v
	case []any:
		tags := make([]string, 0, len(v))
		for _, t := range v {
			if s, ok := t.(string); ok {
				tags = append(tags, s)
			}
		}
		return tags
	default:
		return nil
	}
}
