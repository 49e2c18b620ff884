package domain

import "errors"

var (
	// ErrBookmarkNotFound signals a missing bookmark.
	ErrBookmarkNotFound = errors.New("bookmark not found")
	// ErrInvalidRequest signals a request that failed validation.
	ErrInvalidRequest = errors.New("invalid request")
	// ErrInvalidDateRange signals unparsable or inverted date range boundaries.
	ErrInvalidDateRange = errors.New("invalid date range")
	// ErrCorruptEmbedding signals a stored embedding that cannot be decoded.
	ErrCorruptEmbedding = errors.New("corrupt embedding")
	// ErrVectorDimMismatch signals a vector dimension mismatch.
	ErrVectorDimMismatch = errors.New("vector dimension mismatch")

	// ErrAnalyzerUnavailable signals a failed or timed out query analysis call.
	ErrAnalyzerUnavailable = errors.New("query analyzer unavailable")
	// ErrStoreUnavailable signals that candidate bookmarks could not be fetched.
	ErrStoreUnavailable = errors.New("bookmark store unavailable")
	// ErrEmbeddingProviderError signals an embedding provider failure.
	ErrEmbeddingProviderError = errors.New("embedding provider error")
)
