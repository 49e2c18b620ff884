package search

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/kailas-cloud/bookmarkd/internal/domain"
	"github.com/kailas-cloud/bookmarkd/internal/domain/analysis"
	dombm "github.com/kailas-cloud/bookmarkd/internal/domain/bookmark"
	"github.com/kailas-cloud/bookmarkd/internal/domain/search/request"
	"github.com/kailas-cloud/bookmarkd/internal/domain/search/result"
	"github.com/kailas-cloud/bookmarkd/internal/domain/search/strategy"
	"github.com/kailas-cloud/bookmarkd/internal/domain/vector"
)

// --- Mocks ---

type mockRepo struct {
	bookmarks []dombm.Bookmark
	err       error
}

func (m *mockRepo) All(_ context.Context) ([]dombm.Bookmark, error) {
	return m.bookmarks, m.err
}

type mockEmbedder struct {
	vec   []float32
	err   error
	mu    sync.Mutex
	calls int
}

func (m *mockEmbedder) Embed(_ context.Context, _ string) (domain.EmbeddingResult, error) {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()
	if m.err != nil {
		return domain.EmbeddingResult{}, m.err
	}
	return domain.EmbeddingResult{Embedding: m.vec}, nil
}

type mockAnalyzer struct {
	out   analysis.Analysis
	err   error
	delay time.Duration
}

func (m *mockAnalyzer) Analyze(ctx context.Context, _ string) (analysis.Analysis, error) {
	if m.delay > 0 {
		select {
		case <-time.After(m.delay):
		case <-ctx.Done():
			return analysis.Analysis{}, ctx.Err()
		}
	}
	return m.out, m.err
}

type countingAnalyzer struct {
	mu    sync.Mutex
	calls int
}

func (c *countingAnalyzer) Analyze(_ context.Context, _ string) (analysis.Analysis, error) {
	c.mu.Lock()
	c.calls++
	c.mu.Unlock()
	return analysis.Analysis{}, nil
}

func (c *countingAnalyzer) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls
}

// --- Helpers ---

var baseTime = time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC)

func bm(id int64, vec []float32, tags []string, createdAt time.Time) dombm.Bookmark {
	meta := map[string]any{}
	if tags != nil {
		meta[dombm.TagsKey] = tags
	}
	emb := ""
	if vec != nil {
		emb = vector.Encode(vec)
	}
	return dombm.Reconstruct(id, "https://example.com/bm", "title", "content", "", "summary",
		meta, emb, createdAt, nil)
}

// mustRequest builds a request; limit 0 leaves the default in place.
func mustRequest(t *testing.T, query string, tags []string, dr *request.DateRangeInput, limit int) *request.Request {
	t.Helper()
	var lim *int
	if limit > 0 {
		lim = &limit
	}
	req, err := request.New(query, tags, dr, nil, lim)
	if err != nil {
		t.Fatalf("request.New: %v", err)
	}
	return &req
}

func find(rs []result.Result, id int64) (result.Result, bool) {
	for _, r := range rs {
		if r.ID() == id {
			return r, true
		}
	}
	return result.Result{}, false
}

// --- Tests ---

func TestSearch_EmptyStore(t *testing.T) {
	svc := New(&mockRepo{}, &mockEmbedder{vec: []float32{0, 0}}, 2, nil)

	req := mustRequest(t, "anything", []string{"ai"},
		&request.DateRangeInput{Start: "2024-01-01", End: "2024-12-31"}, 0)
	got, err := svc.Search(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got == nil || len(got) != 0 {
		t.Errorf("expected empty non-nil list, got %#v", got)
	}
}

func TestSearch_StoreUnavailable(t *testing.T) {
	svc := New(&mockRepo{err: errors.New("connection refused")}, &mockEmbedder{}, 2, nil)

	_, err := svc.Search(context.Background(), mustRequest(t, "q", nil, nil, 0))
	if !errors.Is(err, domain.ErrStoreUnavailable) {
		t.Fatalf("expected ErrStoreUnavailable, got %v", err)
	}
}

func TestSearch_SemanticRanking(t *testing.T) {
	repo := &mockRepo{bookmarks: []dombm.Bookmark{
		bm(1, []float32{3, 4}, nil, baseTime), // distance 5
		bm(2, []float32{0, 0}, nil, baseTime), // distance 0
		bm(3, nil, nil, baseTime),             // no content, no embedding
	}}
	svc := New(repo, &mockEmbedder{vec: []float32{0, 0}}, 2, nil)

	got, err := svc.Search(context.Background(), mustRequest(t, "q", nil, nil, 0))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 results, got %d", len(got))
	}
	if got[0].ID() != 2 || got[0].Score() != 1.0 {
		t.Errorf("first = (%d, %v), want (2, 1.0)", got[0].ID(), got[0].Score())
	}
	if got[1].ID() != 1 || got[1].Score() != 1.0/6.0 {
		t.Errorf("second = (%d, %v), want (1, 1/6)", got[1].ID(), got[1].Score())
	}
	if got[0].Strategy() != strategy.Semantic {
		t.Errorf("Strategy() = %q, want semantic", got[0].Strategy())
	}
}

func TestSearch_TagScoring(t *testing.T) {
	repo := &mockRepo{bookmarks: []dombm.Bookmark{
		bm(1, nil, []string{"news", "sports"}, baseTime),
		bm(2, nil, []string{"cooking"}, baseTime),
	}}
	svc := New(repo, &mockEmbedder{vec: []float32{0, 0}}, 2, nil)

	got, err := svc.Search(context.Background(), mustRequest(t, "q", []string{"ai", "news"}, nil, 0))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 result, got %d", len(got))
	}
	if got[0].ID() != 1 || got[0].Score() != 0.5 {
		t.Errorf("got (%d, %v), want (1, 0.5)", got[0].ID(), got[0].Score())
	}
}

func TestSearch_DateRangeInclusive(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC)
	repo := &mockRepo{bookmarks: []dombm.Bookmark{
		bm(1, nil, nil, start),
		bm(2, nil, nil, end),
		bm(3, nil, nil, end.Add(time.Nanosecond)),
		bm(4, nil, nil, start.Add(-time.Second)),
	}}
	svc := New(repo, &mockEmbedder{vec: []float32{0, 0}}, 2, nil)

	req := mustRequest(t, "q", nil,
		&request.DateRangeInput{Start: "2024-01-01T00:00:00Z", End: "2024-01-31T00:00:00Z"}, 0)
	got, err := svc.Search(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 results, got %d", len(got))
	}
	for _, id := range []int64{1, 2} {
		r, ok := find(got, id)
		if !ok {
			t.Errorf("bookmark %d missing", id)
			continue
		}
		if r.Score() != 1.0 || r.Strategy() != strategy.Date {
			t.Errorf("bookmark %d: (%v, %q), want (1.0, date)", id, r.Score(), r.Strategy())
		}
	}
}

func TestSearch_MaxScoreAcrossStrategies(t *testing.T) {
	// distance 1 -> semantic score 0.5; tag score 1.0
	repo := &mockRepo{bookmarks: []dombm.Bookmark{
		bm(1, []float32{1, 0}, []string{"go"}, baseTime),
	}}
	svc := New(repo, &mockEmbedder{vec: []float32{0, 0}}, 2, nil)

	got, err := svc.Search(context.Background(), mustRequest(t, "q", []string{"go"}, nil, 0))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected deduplicated single result, got %d", len(got))
	}
	if got[0].Score() != 1.0 || got[0].Strategy() != strategy.Tag {
		t.Errorf("got (%v, %q), want (1.0, tag)", got[0].Score(), got[0].Strategy())
	}
}

func TestSearch_Truncation(t *testing.T) {
	var bms []dombm.Bookmark
	for i := int64(1); i <= 10; i++ {
		bms = append(bms, bm(i, []float32{float32(i), 0}, nil, baseTime))
	}
	svc := New(&mockRepo{bookmarks: bms}, &mockEmbedder{vec: []float32{0, 0}}, 2, nil)

	got, err := svc.Search(context.Background(), mustRequest(t, "q", nil, nil, 3))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 results, got %d", len(got))
	}
	for i, want := range []int64{1, 2, 3} {
		if got[i].ID() != want {
			t.Errorf("position %d: got %d, want %d", i, got[i].ID(), want)
		}
	}
}

func TestSearch_CorruptEmbeddingStillTagMatched(t *testing.T) {
	corrupt := dombm.Reconstruct(7, "https://example.com/c", "c", "content", "", "",
		map[string]any{dombm.TagsKey: []any{"go"}}, "!!!not-base64", baseTime, nil)
	repo := &mockRepo{bookmarks: []dombm.Bookmark{
		corrupt,
		bm(8, []float32{0, 0}, nil, baseTime),
	}}
	svc := New(repo, &mockEmbedder{vec: []float32{0, 0}}, 2, nil)

	semanticOnly, err := svc.Search(context.Background(), mustRequest(t, "q", nil, nil, 0))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := find(semanticOnly, 7); ok {
		t.Error("corrupt embedding must be excluded from semantic results")
	}
	if _, ok := find(semanticOnly, 8); !ok {
		t.Error("healthy bookmark missing from semantic results")
	}

	withTags, err := svc.Search(context.Background(), mustRequest(t, "q", []string{"go"}, nil, 0))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	r, ok := find(withTags, 7)
	if !ok {
		t.Fatal("corrupt-embedding bookmark must still be tag-matched")
	}
	if r.Strategy() != strategy.Tag {
		t.Errorf("Strategy() = %q, want tag", r.Strategy())
	}
}

func TestSearch_WrongDimensionEmbeddingSkipped(t *testing.T) {
	repo := &mockRepo{bookmarks: []dombm.Bookmark{
		bm(1, []float32{0, 0, 0}, nil, baseTime),
		bm(2, []float32{0, 0}, nil, baseTime),
	}}
	svc := New(repo, &mockEmbedder{vec: []float32{0, 0}}, 2, nil)

	got, err := svc.Search(context.Background(), mustRequest(t, "q", nil, nil, 0))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 || got[0].ID() != 2 {
		t.Errorf("expected only bookmark 2, got %v", ids(got))
	}
}

func TestSearch_EmbedFailureDegrades(t *testing.T) {
	repo := &mockRepo{bookmarks: []dombm.Bookmark{
		bm(1, []float32{0, 0}, []string{"go"}, baseTime),
	}}
	svc := New(repo, &mockEmbedder{err: domain.ErrEmbeddingProviderError}, 2, nil)

	got, err := svc.Search(context.Background(), mustRequest(t, "q", []string{"go"}, nil, 0))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 || got[0].Strategy() != strategy.Tag {
		t.Fatalf("expected tag result only, got %v", ids(got))
	}
}

func TestSearch_SkipsQueryEmbeddingWithoutVectors(t *testing.T) {
	emb := &mockEmbedder{vec: []float32{0, 0}}
	repo := &mockRepo{bookmarks: []dombm.Bookmark{bm(1, nil, []string{"go"}, baseTime)}}
	svc := New(repo, emb, 2, nil)

	if _, err := svc.Search(context.Background(), mustRequest(t, "q", []string{"go"}, nil, 0)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if emb.calls != 0 {
		t.Errorf("expected no embed calls, got %d", emb.calls)
	}
}

func TestSearch_AnalyzerFailureIsolated(t *testing.T) {
	bms := []dombm.Bookmark{
		bm(1, []float32{1, 0}, []string{"go"}, baseTime),
		bm(2, []float32{2, 0}, nil, baseTime),
	}
	req := mustRequest(t, "q", []string{"go"}, nil, 0)

	ok := New(&mockRepo{bookmarks: bms}, &mockEmbedder{vec: []float32{0, 0}}, 2, nil).
		WithAnalyzer(&mockAnalyzer{out: analysis.Analysis{Model: "m", Content: "intent"}}, time.Second)
	failing := New(&mockRepo{bookmarks: bms}, &mockEmbedder{vec: []float32{0, 0}}, 2, nil).
		WithAnalyzer(&mockAnalyzer{err: domain.ErrAnalyzerUnavailable}, time.Second)

	want, err := ok.Search(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got, err := failing.Search(context.Background(), req)
	if err != nil {
		t.Fatalf("analyzer failure must not fail the search: %v", err)
	}

	if len(got) != len(want) {
		t.Fatalf("result count differs: %d vs %d", len(got), len(want))
	}
	for i := range want {
		if got[i].ID() != want[i].ID() || got[i].Score() != want[i].Score() {
			t.Errorf("position %d differs: (%d, %v) vs (%d, %v)",
				i, got[i].ID(), got[i].Score(), want[i].ID(), want[i].Score())
		}
	}
}

func TestSearch_SlowAnalyzerDoesNotDelayResults(t *testing.T) {
	repo := &mockRepo{bookmarks: []dombm.Bookmark{bm(1, []float32{0, 0}, nil, baseTime)}}
	svc := New(repo, &mockEmbedder{vec: []float32{0, 0}}, 2, nil).
		WithAnalyzer(&mockAnalyzer{delay: time.Minute}, 2*time.Second)

	start := time.Now()
	got, err := svc.Search(context.Background(), mustRequest(t, "q", nil, nil, 0))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("search waited for the analyzer: took %v", elapsed)
	}
	if len(got) != 1 {
		t.Errorf("expected 1 result, got %d", len(got))
	}
}

func TestSearch_AnalyzerTimeout(t *testing.T) {
	repo := &mockRepo{bookmarks: []dombm.Bookmark{bm(1, []float32{0, 0}, nil, baseTime)}}
	called := make(chan struct{}, 1)
	svc := New(repo, &mockEmbedder{vec: []float32{0, 0}}, 2, nil).
		WithAnalyzer(&mockAnalyzer{delay: time.Minute}, 20*time.Millisecond).
		WithAnalysisHook(func(context.Context, *request.Request, analysis.Analysis) {
			called <- struct{}{}
		})

	if _, err := svc.Search(context.Background(), mustRequest(t, "q", nil, nil, 0)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	select {
	case <-called:
		t.Error("hook must not run when the analyzer times out")
	case <-time.After(200 * time.Millisecond):
	}
}

func TestSearch_AnalysisHook(t *testing.T) {
	repo := &mockRepo{bookmarks: []dombm.Bookmark{bm(1, []float32{0, 0}, nil, baseTime)}}

	hooked := make(chan analysis.Analysis, 1)
	svc := New(repo, &mockEmbedder{vec: []float32{0, 0}}, 2, nil).
		WithAnalyzer(&mockAnalyzer{out: analysis.Analysis{Model: "grok-beta", Content: "looking for go"}}, time.Second).
		WithAnalysisHook(func(_ context.Context, _ *request.Request, a analysis.Analysis) {
			hooked <- a
		})

	ctx, cancel := context.WithCancel(context.Background())
	if _, err := svc.Search(ctx, mustRequest(t, "q", nil, nil, 0)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// The analysis is detached from the request and survives its cancellation.
	cancel()

	select {
	case got := <-hooked:
		if got.Content != "looking for go" {
			t.Errorf("hook got %+v", got)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("analysis hook was not called")
	}
}

func TestSearch_BlankQuerySkipsSemanticAndAnalyzer(t *testing.T) {
	emb := &mockEmbedder{vec: []float32{0, 0}}
	analyzer := &countingAnalyzer{}
	repo := &mockRepo{bookmarks: []dombm.Bookmark{
		bm(1, []float32{0, 0}, []string{"go"}, baseTime),
		bm(2, []float32{1, 0}, nil, baseTime),
	}}
	svc := New(repo, emb, 2, nil).WithAnalyzer(analyzer, time.Second)

	got, err := svc.Search(context.Background(), mustRequest(t, "", []string{"go"}, nil, 0))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 || got[0].ID() != 1 || got[0].Strategy() != strategy.Tag {
		t.Fatalf("expected only the tag match, got %v", ids(got))
	}
	emb.mu.Lock()
	calls := emb.calls
	emb.mu.Unlock()
	if calls != 0 {
		t.Errorf("blank query must not be embedded, got %d calls", calls)
	}
	if analyzer.count() != 0 {
		t.Errorf("blank query must not be analyzed, got %d calls", analyzer.count())
	}
}

func TestSearch_ExplicitZeroLimit(t *testing.T) {
	repo := &mockRepo{bookmarks: []dombm.Bookmark{bm(1, []float32{0, 0}, []string{"go"}, baseTime)}}
	svc := New(repo, &mockEmbedder{vec: []float32{0, 0}}, 2, nil)

	zero := 0
	req, err := request.New("q", []string{"go"}, nil, nil, &zero)
	if err != nil {
		t.Fatal(err)
	}
	got, err := svc.Search(context.Background(), &req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got == nil || len(got) != 0 {
		t.Errorf("expected empty non-nil result, got %v", got)
	}
}

func TestSearch_LimitAboveDefaultCap(t *testing.T) {
	bms := make([]dombm.Bookmark, 0, 150)
	for i := int64(1); i <= 150; i++ {
		bms = append(bms, bm(i, nil, []string{"go"}, baseTime))
	}
	svc := New(&mockRepo{bookmarks: bms}, &mockEmbedder{vec: []float32{0, 0}}, 2, nil)

	got, err := svc.Search(context.Background(), mustRequest(t, "q", []string{"go"}, nil, 120))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 120 {
		t.Errorf("expected 120 results, got %d", len(got))
	}
}

func TestSearch_CanceledContext(t *testing.T) {
	repo := &mockRepo{bookmarks: []dombm.Bookmark{bm(1, []float32{0, 0}, nil, baseTime)}}
	svc := New(repo, &mockEmbedder{vec: []float32{0, 0}}, 2, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := svc.Search(ctx, mustRequest(t, "q", nil, nil, 0)); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}
