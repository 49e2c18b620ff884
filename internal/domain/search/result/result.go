package result

import "github.com/kailas-cloud/bookmarkd/internal/domain/search/strategy"

// Result is a single scored search hit. Scores are strategy-local until merged.
type Result struct {
	id       int64
	url      string
	title    string
	summary  string
	metadata map[string]any
	score    float64
	strategy strategy.Strategy
}

// New creates a search result.
func New(
	id int64, url, title, summary string, metadata map[string]any,
	score float64, s strategy.Strategy,
) Result {
	return Result{
		id: id, url: url, title: title, summary: summary,
		metadata: metadata, score: score, strategy: s,
	}
}

// ID returns the bookmark identifier.
func (r *Result) ID() int64 { return r.id }

// URL returns the bookmark URL.
func (r *Result) URL() string { return r.url }

// Title returns the bookmark title.
func (r *Result) Title() string { return r.title }

// Summary returns the bookmark summary.
func (r *Result) Summary() string { return r.summary }

// Metadata returns the bookmark metadata.
func (r *Result) Metadata() map[string]any { return r.metadata }

// Score returns the relevance score.
func (r *Result) Score() float64 { return r.score }

// Strategy returns which strategy produced the score.
func (r *Result) Strategy() strategy.Strategy { return r.strategy }

// WithScore returns a copy carrying a different score and provenance.
func (r *Result) WithScore(score float64, s strategy.Strategy) Result {
	c := *r
	c.score = score
	c.strategy = s
	return c
}
