package main

import (
	"context"
	"fmt"
	"slices"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/bookmarkd/internal/config"
	dbRedis "github.com/kailas-cloud/bookmarkd/internal/db/redis"
	"github.com/kailas-cloud/bookmarkd/internal/domain"
	"github.com/kailas-cloud/bookmarkd/internal/metrics"
	"github.com/kailas-cloud/bookmarkd/internal/repository/embcache"
	"github.com/kailas-cloud/bookmarkd/internal/transport/fastembed"
	openaiTransport "github.com/kailas-cloud/bookmarkd/internal/transport/openai"
	embeddinguc "github.com/kailas-cloud/bookmarkd/internal/usecase/embedding"
	healthuc "github.com/kailas-cloud/bookmarkd/internal/usecase/health"
)

// embedders holds the document and query embedding chains. Both share one
// provider; only the query chain is cached.
type embedders struct {
	document domain.Embedder
	query    domain.Embedder
	health   healthuc.EmbeddingChecker
	cache    healthuc.DBPinger
	model    string
	dim      int
	closers  []func()
}

func (e *embedders) close() {
	for _, c := range slices.Backward(e.closers) {
		c()
	}
}

// buildEmbedders assembles the decorator chain: provider -> instrumented (document),
// provider -> cache -> instrumented (query).
func buildEmbedders(ctx context.Context, cfg *config.Config, st *store, logger *zap.Logger) (*embedders, error) {
	ec := cfg.Embedding
	e := &embedders{model: ec.Model, dim: ec.Dimensions}

	var base domain.Embedder
	switch ec.Provider {
	case config.ProviderFastEmbed:
		fe, err := fastembed.New(fastembed.Config{Model: ec.Model, CacheDir: ec.CacheDir})
		if err != nil {
			return nil, fmt.Errorf("fastembed: %w", err)
		}
		e.closers = append(e.closers, func() { _ = fe.Close() })
		e.model = fe.Model()
		e.dim = fe.Dimension()
		base = fe
	case config.ProviderOpenAI:
		oe := openaiTransport.NewEmbedder(&openaiTransport.Config{
			APIKey:     ec.APIKey,
			BaseURL:    ec.BaseURL,
			Model:      ec.Model,
			Dimensions: ec.Dimensions,
			Provider:   ec.Provider,
			Logger:     logger,
		})
		e.health = oe
		base = oe
	default:
		return nil, fmt.Errorf("unknown embedding provider %q", ec.Provider)
	}

	e.document = embeddinguc.NewInstrumentedEmbedder(base, ec.Provider, e.model, e.dim, logger)

	query := base
	if ec.Cache.Enabled {
		kv, err := cacheStore(ctx, cfg, st)
		if err != nil {
			return nil, err
		}
		if kv != st.kv {
			e.closers = append(e.closers, kv.Close)
		}
		query = embcache.New(base, kv, embcache.Options{
			Model: e.model,
			Dim:   e.dim,
			TTL:   time.Duration(ec.Cache.TTLSec) * time.Second,
		}, metrics.EmbeddingCacheTotal, logger)
		e.cache = kv
	}
	e.query = embeddinguc.NewInstrumentedEmbedder(query, ec.Provider, e.model, e.dim, logger)
	return e, nil
}

// cacheStore reuses the main redis/valkey connection when the addresses match.
func cacheStore(ctx context.Context, cfg *config.Config, st *store) (*dbRedis.Store, error) {
	cc := cfg.Embedding.Cache
	if st.kv != nil && slices.Equal(cc.Addrs, cfg.Database.Addrs) {
		return st.kv, nil
	}
	kv, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:      cc.Addrs,
		Password:   cc.Password,
		ClientName: "bookmarkd-embcache",
	})
	if err != nil {
		return nil, fmt.Errorf("open embedding cache: %w", err)
	}
	if err := kv.WaitForReady(ctx, time.Duration(cfg.Database.ReadinessTimeout)*time.Second); err != nil {
		kv.Close()
		return nil, fmt.Errorf("embedding cache not ready: %w", err)
	}
	return kv, nil
}
