// Package pipeline orchestrates a complete digest run: collect,
// translate, deduplicate, rank and assemble.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/worldbrief/worldbrief/internal/cache"
	"github.com/worldbrief/worldbrief/internal/collector"
	"github.com/worldbrief/worldbrief/internal/dedup"
	"github.com/worldbrief/worldbrief/internal/llm"
	"github.com/worldbrief/worldbrief/internal/model"
	"github.com/worldbrief/worldbrief/internal/rank"
	"github.com/worldbrief/worldbrief/internal/sources"
	"github.com/worldbrief/worldbrief/internal/translate"
)

// ErrNoArticles is returned when collection yields nothing at all. A run
// with zero articles has no digest to assemble.
var ErrNoArticles = errors.New("pipeline: no articles collected")

// Pipeline wires the processing stages together.
type Pipeline struct {
	collector  *collector.RSS
	translator *translate.Translator
	dedup      *dedup.Deduplicator
	ranker     *rank.Ranker
	eventDedup *dedup.EventDeduplicator
	provider   llm.Provider
	config     *model.Config
	logger     *slog.Logger
}

// New builds a pipeline from configuration. A missing model provider is
// not an error: ranking then falls back to neutral scores and event
// deduplication to truncation.
func New(cfg *model.Config) (*Pipeline, error) {
	provider, err := llm.NewProvider(llm.Config{
		Provider:  cfg.Ranking.Provider,
		Model:     cfg.Ranking.Model,
		APIKey:    cfg.Ranking.APIKey,
		BaseURL:   cfg.Ranking.BaseURL,
		Timeout:   cfg.Ranking.Timeout,
		MaxTokens: cfg.Ranking.MaxTokens,
	})
	if err != nil {
		return nil, fmt.Errorf("initialize provider: %w", err)
	}

	var translationCache cache.Cache
	if cfg.Cache.Enabled {
		translationCache = cache.NewLayeredCache(cfg.Cache.MemoryTTL, cfg.Cache.Dir, cfg.Cache.DiskTTL)
	}

	rss := collector.NewRSS(collector.Options{
		Timeout:              cfg.Collection.Timeout,
		UserAgent:            cfg.Collection.UserAgent,
		MaxArticlesPerSource: cfg.Collection.MaxArticlesPerSource,
		MaxBodyBytes:         cfg.Collection.MaxBodyBytes,
		MaxConcurrent:        cfg.Collection.MaxConcurrent,
		RequestsPerSecond:    cfg.Collection.RequestsPerSecond,
		Burst:                cfg.Collection.Burst,
		RespectRobots:        cfg.Collection.RespectRobots,
	})

	translator := translate.New(
		translate.NewGoogleOracle(cfg.Collection.Timeout),
		translationCache,
		cfg.Translation.TargetLanguage,
		cfg.Translation.Enabled,
	)

	return &Pipeline{
		collector:  rss,
		translator: translator,
		dedup:      dedup.NewDeduplicator(cfg.Dedup.SimilarityThreshold, cfg.Dedup.Enabled),
		ranker:     rank.NewRanker(provider, cfg.Ranking.BatchSize),
		eventDedup: dedup.NewEventDeduplicator(provider),
		provider:   provider,
		config:     cfg,
		logger:     slog.Default(),
	}, nil
}

// Collect runs the gathering half of the pipeline: fetch all feeds,
// translate and lexically deduplicate. Returned articles are normalized
// but not yet scored.
func (p *Pipeline) Collect(ctx context.Context, srcs []model.Source) ([]model.Article, model.RunStats, error) {
	stats := model.RunStats{SourcesAttempted: len(srcs)}

	if len(srcs) == 0 {
		return nil, stats, errors.New("pipeline: no sources configured")
	}

	// 1. Collect feeds concurrently.
	raws, errs := p.collector.CollectAll(ctx, srcs)
	stats.SourcesSucceeded = len(srcs) - len(errs)
	stats.Collected = len(raws)
	for _, err := range errs {
		stats.AddError(err.Error())
	}
	if len(raws) == 0 {
		return nil, stats, ErrNoArticles
	}
	p.logger.Info("collection complete",
		"sources", len(srcs),
		"succeeded", stats.SourcesSucceeded,
		"articles", len(raws))

	// 2. Translate and normalize.
	articles := p.translator.Process(ctx, raws)

	// 3. Lexical dedup.
	articles = p.dedup.Process(articles)
	stats.AfterDedup = len(articles)

	return articles, stats, nil
}

// Run executes one full digest run over the given sources.
func (p *Pipeline) Run(ctx context.Context, srcs []model.Source) (*model.Digest, error) {
	start := time.Now()

	articles, stats, err := p.Collect(ctx, srcs)
	if err != nil {
		return nil, err
	}

	// 4. Rank by significance.
	ranked, err := p.rankArticles(ctx, articles)
	if err != nil {
		return nil, err
	}

	// 5. Event-level dedup over the top of the ranking.
	top := p.eventDedup.DeduplicateTop(ctx, ranked, p.config.Digest.StoryCount)

	stats.Duration = time.Since(start)
	digest := Assemble(top, stats, p.config.Digest)

	p.logger.Info("digest assembled",
		"stories", digest.StoryCount(),
		"sms_headlines", len(digest.SMSHeadlines),
		"duration", stats.Duration)
	return digest, nil
}

// rankArticles scores articles, or assigns neutral scores when no
// provider is configured.
func (p *Pipeline) rankArticles(ctx context.Context, articles []model.Article) ([]model.RankedArticle, error) {
	if p.provider == nil {
		p.logger.Warn("no model provider configured, using neutral scores")
		ranked := make([]model.RankedArticle, 0, len(articles))
		for _, art := range articles {
			ranked = append(ranked, model.RankedArticle{
				Article:   art,
				Score:     rank.NeutralScore,
				Rationale: "ranking disabled",
			})
		}
		return ranked, nil
	}

	ranked, err := p.ranker.Rank(ctx, articles)
	if err != nil {
		return nil, fmt.Errorf("rank articles: %w", err)
	}
	return ranked, nil
}

// Sources loads the configured feed registry.
func (p *Pipeline) Sources() ([]model.Source, error) {
	return sources.Load(p.config.FeedsPath)
}

// HealthCheck probes every source and reports reachability.
func (p *Pipeline) HealthCheck(ctx context.Context, srcs []model.Source) map[string]bool {
	return p.collector.HealthCheck(ctx, srcs)
}
