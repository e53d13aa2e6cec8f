package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/worldbrief/worldbrief/internal/model"
	"github.com/worldbrief/worldbrief/internal/rank"
)

func testArchive(t *testing.T) *Archive {
	t.Helper()
	archive, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = archive.Close() })
	return archive
}

func rankedArticle(id, title string, score float64) model.RankedArticle {
	now := time.Now().UTC().Truncate(time.Second)
	return model.RankedArticle{
		Article: model.Article{
			ID:             id,
			SourceName:     "Wire",
			SourceRegion:   model.RegionEurope,
			SourceCategory: model.CategoryGeneral,
			OriginalTitle:  title,
			Title:          title,
			URL:            "https://example.com/" + id,
			Description:    "Details about " + title,
			Language:       "en",
			PublishedAt:    now,
			CollectedAt:    now,
		},
		Score:     score,
		Rationale: "test",
	}
}

func TestSaveAndLoadByDate(t *testing.T) {
	archive := testArchive(t)
	ctx := context.Background()
	date := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)

	saved, err := archive.SaveArticles(ctx, []model.RankedArticle{
		rankedArticle("a1", "Summit opens", 90),
		rankedArticle("a2", "Markets rally", 60),
	}, date)
	if err != nil {
		t.Fatal(err)
	}
	if saved != 2 {
		t.Errorf("saved = %d", saved)
	}

	articles, err := archive.ArticlesByDate(ctx, date, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(articles) != 2 {
		t.Fatalf("loaded %d articles", len(articles))
	}
	if articles[0].ID != "a1" {
		t.Errorf("expected highest score first, got %s", articles[0].ID)
	}
	if articles[0].Title != "Summit opens" || articles[0].SourceRegion != model.RegionEurope {
		t.Errorf("round trip lost fields: %+v", articles[0])
	}
}

func TestSaveReplacesSameID(t *testing.T) {
	archive := testArchive(t)
	ctx := context.Background()
	date := time.Now().UTC()

	first := rankedArticle("dup", "Original title", 50)
	updated := rankedArticle("dup", "Updated title", 75)

	if _, err := archive.SaveArticles(ctx, []model.RankedArticle{first}, date); err != nil {
		t.Fatal(err)
	}
	if _, err := archive.SaveArticles(ctx, []model.RankedArticle{updated}, date); err != nil {
		t.Fatal(err)
	}

	articles, err := archive.ArticlesByDate(ctx, date, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(articles) != 1 {
		t.Fatalf("expected last-write-wins, got %d rows", len(articles))
	}
	if articles[0].Title != "Updated title" {
		t.Errorf("Title = %q", articles[0].Title)
	}
}

func TestSearch(t *testing.T) {
	archive := testArchive(t)
	ctx := context.Background()
	date := time.Now().UTC()

	if _, err := archive.SaveArticles(ctx, []model.RankedArticle{
		rankedArticle("q1", "Earthquake hits coastal region", 85),
		rankedArticle("q2", "Football cup final tonight", 40),
	}, date); err != nil {
		t.Fatal(err)
	}

	results, err := archive.Search(ctx, "earthquake", SearchOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 1 {
		t.Fatalf("expected 1 match, got %d", len(results))
	}
	if results[0].ID != "q1" {
		t.Errorf("got %s", results[0].ID)
	}
}

func TestSearchFilters(t *testing.T) {
	archive := testArchive(t)
	ctx := context.Background()
	date := time.Now().UTC()

	asia := rankedArticle("f1", "Trade talks resume", 70)
	asia.SourceRegion = model.RegionAsiaPacific
	europe := rankedArticle("f2", "Trade deficit widens", 60)

	if _, err := archive.SaveArticles(ctx, []model.RankedArticle{asia, europe}, date); err != nil {
		t.Fatal(err)
	}

	results, err := archive.Search(ctx, "trade", SearchOptions{Region: "asia_pacific"})
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 1 || results[0].ID != "f1" {
		t.Fatalf("region filter failed: %+v", results)
	}
}

func TestRecentArticles(t *testing.T) {
	archive := testArchive(t)
	ctx := context.Background()

	old := rankedArticle("old", "Ancient news", 90)
	old.CollectedAt = time.Now().UTC().AddDate(0, 0, -30)
	fresh := rankedArticle("fresh", "Breaking now", 80)

	if _, err := archive.SaveArticles(ctx, []model.RankedArticle{old, fresh}, time.Now().UTC()); err != nil {
		t.Fatal(err)
	}

	results, err := archive.RecentArticles(ctx, 7, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 1 || results[0].ID != "fresh" {
		t.Fatalf("expected only the fresh article: %+v", results)
	}
}

func TestRunStatsAndArchiveStats(t *testing.T) {
	archive := testArchive(t)
	ctx := context.Background()

	stats := model.RunStats{
		SourcesAttempted: 10,
		SourcesSucceeded: 9,
		Collected:        80,
		AfterDedup:       60,
		Duration:         90 * time.Second,
	}
	stats.AddError("Feed X: timeout")

	if err := archive.SaveRunStats(ctx, stats); err != nil {
		t.Fatal(err)
	}
	if _, err := archive.SaveArticles(ctx, []model.RankedArticle{
		rankedArticle("s1", "Story one", 50),
	}, time.Now().UTC()); err != nil {
		t.Fatal(err)
	}

	got, err := archive.Stats(ctx, 30)
	if err != nil {
		t.Fatal(err)
	}
	if got.CollectionRuns != 1 {
		t.Errorf("runs = %d", got.CollectionRuns)
	}
	if got.TotalArticles != 1 {
		t.Errorf("articles = %d", got.TotalArticles)
	}
	if got.ArticlesByRegion["europe"] != 1 {
		t.Errorf("by region = %v", got.ArticlesByRegion)
	}
}

func TestNullScoreReadsAsNeutral(t *testing.T) {
	archive := testArchive(t)
	now := time.Now().UTC()

	// Rows written by older runs may carry no score at all.
	_, err := archive.db.Exec(`
		INSERT INTO articles (id, source_name, source_region, source_category,
			original_title, title, url, original_language, collected_at, digest_date)
		VALUES ('unscored01', 'Wire', 'europe', 'general', 'T', 'T',
			'https://example.com/unscored', 'en', ?, ?)`,
		now.Format(time.RFC3339), now.Format("2006-01-02"))
	if err != nil {
		t.Fatal(err)
	}

	articles, err := archive.ArticlesByDate(context.Background(), now, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(articles) != 1 {
		t.Fatalf("expected 1 article, got %d", len(articles))
	}
	if articles[0].Score != rank.NeutralScore {
		t.Errorf("NULL score should read as the neutral default, got %.0f", articles[0].Score)
	}
}

func TestMarkDigestSent(t *testing.T) {
	archive := testArchive(t)
	ctx := context.Background()
	date := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)

	if err := archive.MarkDigestSent(ctx, date, true, false); err != nil {
		t.Fatal(err)
	}
	// Second call must update, not violate the unique date.
	if err := archive.MarkDigestSent(ctx, date, false, true); err != nil {
		t.Fatal(err)
	}

	var emailSent, smsSent bool
	row := archive.db.QueryRow("SELECT email_sent, sms_sent FROM digests WHERE digest_date = ?", "2026-03-02")
	if err := row.Scan(&emailSent, &smsSent); err != nil {
		t.Fatal(err)
	}
	if !emailSent || !smsSent {
		t.Errorf("email=%v sms=%v, both should stick", emailSent, smsSent)
	}
}
