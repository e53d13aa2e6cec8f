// Package storage persists digest articles and run history in SQLite
// with full-text search over titles and descriptions.
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	sq "github.com/Masterminds/squirrel"
	_ "modernc.org/sqlite"

	"github.com/worldbrief/worldbrief/internal/model"
	"github.com/worldbrief/worldbrief/internal/rank"
)

const schema = `
CREATE TABLE IF NOT EXISTS articles (
    id TEXT PRIMARY KEY,
    source_name TEXT NOT NULL,
    source_region TEXT NOT NULL,
    source_category TEXT NOT NULL,
    original_title TEXT NOT NULL,
    title TEXT NOT NULL,
    url TEXT NOT NULL UNIQUE,
    description TEXT,
    original_language TEXT NOT NULL,
    published_at TIMESTAMP,
    collected_at TIMESTAMP NOT NULL,
    significance_score REAL,
    ranking_rationale TEXT,
    digest_date DATE,
    included_in_digest BOOLEAN DEFAULT FALSE,
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_articles_digest_date ON articles(digest_date);
CREATE INDEX IF NOT EXISTS idx_articles_collected_at ON articles(collected_at);
CREATE INDEX IF NOT EXISTS idx_articles_significance ON articles(significance_score DESC);
CREATE INDEX IF NOT EXISTS idx_articles_source_region ON articles(source_region);

CREATE VIRTUAL TABLE IF NOT EXISTS articles_fts USING fts5(
    title,
    description,
    content='articles',
    content_rowid='rowid'
);

CREATE TRIGGER IF NOT EXISTS articles_ai AFTER INSERT ON articles BEGIN
    INSERT INTO articles_fts(rowid, title, description)
    VALUES (new.rowid, new.title, new.description);
END;

CREATE TRIGGER IF NOT EXISTS articles_ad AFTER DELETE ON articles BEGIN
    INSERT INTO articles_fts(articles_fts, rowid, title, description)
    VALUES('delete', old.rowid, old.title, old.description);
END;

CREATE TRIGGER IF NOT EXISTS articles_au AFTER UPDATE ON articles BEGIN
    INSERT INTO articles_fts(articles_fts, rowid, title, description)
    VALUES('delete', old.rowid, old.title, old.description);
    INSERT INTO articles_fts(rowid, title, description)
    VALUES (new.rowid, new.title, new.description);
END;

CREATE TABLE IF NOT EXISTS digests (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    digest_date DATE UNIQUE NOT NULL,
    email_sent BOOLEAN DEFAULT FALSE,
    sms_sent BOOLEAN DEFAULT FALSE,
    article_count INTEGER,
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS collection_runs (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    run_date TIMESTAMP NOT NULL,
    sources_attempted INTEGER,
    sources_succeeded INTEGER,
    articles_collected INTEGER,
    articles_after_dedup INTEGER,
    errors TEXT,
    duration_seconds REAL,
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);
`

// Archive is the SQLite-backed article archive.
type Archive struct {
	db     *sql.DB
	logger *slog.Logger
}

// Open opens (and if necessary initializes) the archive at path.
func Open(path string) (*Archive, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create archive directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}

	slog.Info("archive opened", "path", path)
	return &Archive{db: db, logger: slog.Default()}, nil
}

// Close releases the underlying database handle.
func (a *Archive) Close() error {
	return a.db.Close()
}

// SaveArticles stores ranked articles under a digest date. Existing rows
// with the same ID or URL are replaced.
func (a *Archive) SaveArticles(ctx context.Context, articles []model.RankedArticle, digestDate time.Time) (int, error) {
	saved := 0
	for _, art := range articles {
		query, args, err := sq.Replace("articles").
			Columns("id", "source_name", "source_region", "source_category",
				"original_title", "title", "url", "description", "original_language",
				"published_at", "collected_at", "significance_score", "ranking_rationale",
				"digest_date", "included_in_digest").
			Values(art.ID, art.SourceName, string(art.SourceRegion), string(art.SourceCategory),
				art.OriginalTitle, art.Title, art.URL, art.Description, art.Language,
				art.PublishedAt.UTC().Format(time.RFC3339), art.CollectedAt.UTC().Format(time.RFC3339),
				art.Score, art.Rationale,
				digestDate.Format("2006-01-02"), true).
			ToSql()
		if err != nil {
			return saved, fmt.Errorf("build insert: %w", err)
		}

		if _, err := a.db.ExecContext(ctx, query, args...); err != nil {
			return saved, fmt.Errorf("save article %s: %w", art.ID, err)
		}
		saved++
	}

	a.logger.Info("saved articles", "count", saved)
	return saved, nil
}

// SaveRunStats records one collection run for monitoring.
func (a *Archive) SaveRunStats(ctx context.Context, stats model.RunStats) error {
	errJSON, err := json.Marshal(stats.Errors)
	if err != nil {
		return fmt.Errorf("marshal errors: %w", err)
	}

	query, args, err := sq.Insert("collection_runs").
		Columns("run_date", "sources_attempted", "sources_succeeded",
			"articles_collected", "articles_after_dedup", "errors", "duration_seconds").
		Values(time.Now().UTC().Format(time.RFC3339), stats.SourcesAttempted,
			stats.SourcesSucceeded, stats.Collected, stats.AfterDedup,
			string(errJSON), stats.Duration.Seconds()).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	_, err = a.db.ExecContext(ctx, query, args...)
	return err
}

// MarkDigestSent records delivery status for a digest date.
func (a *Archive) MarkDigestSent(ctx context.Context, digestDate time.Time, emailSent, smsSent bool) error {
	date := digestDate.Format("2006-01-02")
	_, err := a.db.ExecContext(ctx, `
		INSERT INTO digests (digest_date, email_sent, sms_sent, article_count)
		VALUES (?, ?, ?, (SELECT COUNT(*) FROM articles WHERE digest_date = ?))
		ON CONFLICT(digest_date) DO UPDATE SET
		    email_sent = email_sent OR excluded.email_sent,
		    sms_sent = sms_sent OR excluded.sms_sent`,
		date, emailSent, smsSent, date)
	return err
}

// SearchOptions filter full-text search results.
type SearchOptions struct {
	Since    time.Time
	Region   string
	Category string
	Limit    int
}

// Search runs a full-text query over archived titles and descriptions,
// most significant articles first.
func (a *Archive) Search(ctx context.Context, query string, opts SearchOptions) ([]model.RankedArticle, error) {
	if opts.Limit <= 0 {
		opts.Limit = 20
	}

	builder := sq.Select(articleColumns...).
		From("articles a").
		Join("articles_fts fts ON a.rowid = fts.rowid").
		Where("fts.articles_fts MATCH ?", query)

	if !opts.Since.IsZero() {
		builder = builder.Where(sq.Gt{"a.collected_at": opts.Since.UTC().Format(time.RFC3339)})
	}
	if opts.Region != "" {
		builder = builder.Where(sq.Eq{"a.source_region": opts.Region})
	}
	if opts.Category != "" {
		builder = builder.Where(sq.Eq{"a.source_category": opts.Category})
	}

	sqlStr, args, err := builder.
		OrderBy("a.significance_score DESC").
		Limit(uint64(opts.Limit)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	return a.queryArticles(ctx, sqlStr, args...)
}

// ArticlesByDate returns the articles archived under a digest date.
func (a *Archive) ArticlesByDate(ctx context.Context, digestDate time.Time, limit int) ([]model.RankedArticle, error) {
	builder := sq.Select(articleColumns...).
		From("articles a").
		Where(sq.Eq{"a.digest_date": digestDate.Format("2006-01-02")}).
		OrderBy("a.significance_score DESC")
	if limit > 0 {
		builder = builder.Limit(uint64(limit))
	}

	sqlStr, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}
	return a.queryArticles(ctx, sqlStr, args...)
}

// RecentArticles returns articles collected in the last days days.
func (a *Archive) RecentArticles(ctx context.Context, days, limit int) ([]model.RankedArticle, error) {
	if days <= 0 {
		days = 7
	}
	if limit <= 0 {
		limit = 100
	}
	since := time.Now().UTC().AddDate(0, 0, -days)

	sqlStr, args, err := sq.Select(articleColumns...).
		From("articles a").
		Where(sq.Gt{"a.collected_at": since.Format(time.RFC3339)}).
		OrderBy("a.significance_score DESC").
		Limit(uint64(limit)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}
	return a.queryArticles(ctx, sqlStr, args...)
}

// ArchiveStats summarizes recent archive activity.
type ArchiveStats struct {
	TotalArticles    int
	ArticlesByRegion map[string]int
	CollectionRuns   int
	PeriodDays       int
}

// Stats computes archive statistics over the last days days.
func (a *Archive) Stats(ctx context.Context, days int) (*ArchiveStats, error) {
	if days <= 0 {
		days = 30
	}
	since := time.Now().UTC().AddDate(0, 0, -days).Format(time.RFC3339)

	stats := &ArchiveStats{
		ArticlesByRegion: make(map[string]int),
		PeriodDays:       days,
	}

	row := a.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM articles WHERE collected_at > ?", since)
	if err := row.Scan(&stats.TotalArticles); err != nil {
		return nil, fmt.Errorf("count articles: %w", err)
	}

	rows, err := a.db.QueryContext(ctx, `
		SELECT source_region, COUNT(*) FROM articles
		WHERE collected_at > ?
		GROUP BY source_region
		ORDER BY COUNT(*) DESC`, since)
	if err != nil {
		return nil, fmt.Errorf("count by region: %w", err)
	}
	defer func() { _ = rows.Close() }()
	for rows.Next() {
		var region string
		var count int
		if err := rows.Scan(&region, &count); err != nil {
			return nil, fmt.Errorf("scan region count: %w", err)
		}
		stats.ArticlesByRegion[region] = count
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	row = a.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM collection_runs WHERE run_date > ?", since)
	if err := row.Scan(&stats.CollectionRuns); err != nil {
		return nil, fmt.Errorf("count runs: %w", err)
	}

	return stats, nil
}

var articleColumns = []string{
	"a.id", "a.source_name", "a.source_region", "a.source_category",
	"a.original_title", "a.title", "a.url", "a.description",
	"a.original_language", "a.published_at", "a.collected_at",
	"a.significance_score", "a.ranking_rationale",
}

func (a *Archive) queryArticles(ctx context.Context, sqlStr string, args ...any) ([]model.RankedArticle, error) {
	rows, err := a.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, fmt.Errorf("query articles: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var articles []model.RankedArticle
	for rows.Next() {
		art, err := scanArticle(rows)
		if err != nil {
			return nil, err
		}
		articles = append(articles, art)
	}
	return articles, rows.Err()
}

func scanArticle(rows *sql.Rows) (model.RankedArticle, error) {
	var art model.RankedArticle
	var region, category string
	var description, publishedAt, collectedAt, rationale sql.NullString
	var score sql.NullFloat64

	err := rows.Scan(&art.ID, &art.SourceName, &region, &category,
		&art.OriginalTitle, &art.Title, &art.URL, &description,
		&art.Language, &publishedAt, &collectedAt, &score, &rationale)
	if err != nil {
		return art, fmt.Errorf("scan article: %w", err)
	}

	art.SourceRegion = model.Region(region)
	art.SourceCategory = model.Category(category)
	art.Description = description.String
	art.Rationale = rationale.String

	art.Score = rank.NeutralScore
	if score.Valid {
		art.Score = score.Float64
	}

	if publishedAt.Valid {
		if t, err := time.Parse(time.RFC3339, publishedAt.String); err == nil {
			art.PublishedAt = t
		}
	}
	if collectedAt.Valid {
		if t, err := time.Parse(time.RFC3339, collectedAt.String); err == nil {
			art.CollectedAt = t
		}
	}

	return art, nil
}
