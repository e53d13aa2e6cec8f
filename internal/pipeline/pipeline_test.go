package pipeline

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/worldbrief/worldbrief/internal/model"
)

func feedXML(titles ...string) string {
	xml := `<?xml version="1.0"?><rss version="2.0"><channel><title>Feed</title>`
	for i, title := range titles {
		xml += fmt.Sprintf("<item><title>%s</title><link>https://example.com/%s/%d</link><description>About %s</description></item>",
			title, title, i, title)
	}
	return xml + "</channel></rss>"
}

func testConfig(t *testing.T) *model.Config {
	t.Helper()
	cfg := model.DefaultConfig()
	cfg.Cache.Enabled = false
	cfg.Translation.Enabled = false
	cfg.Collection.Timeout = 5 * time.Second
	cfg.Collection.RequestsPerSecond = 1000
	cfg.Collection.Burst = 1000
	cfg.Ranking.Provider = "" // neutral scores
	return cfg
}

func feedSource(name, url string) model.Source {
	return model.Source{
		Name:     name,
		Region:   model.RegionGlobal,
		Category: model.CategoryGeneral,
		URL:      url,
		Language: "en",
		Enabled:  true,
	}
}

func TestRunEndToEnd(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, feedXML("Summit opens in Geneva", "Markets close higher", "Volcano erupts in Iceland"))
	}))
	defer server.Close()

	p, err := New(testConfig(t))
	if err != nil {
		t.Fatal(err)
	}

	digest, err := p.Run(context.Background(), []model.Source{feedSource("Wire", server.URL)})
	if err != nil {
		t.Fatal(err)
	}

	if digest.StoryCount() != 3 {
		t.Errorf("expected 3 stories, got %d", digest.StoryCount())
	}
	if digest.Stats.SourcesAttempted != 1 || digest.Stats.SourcesSucceeded != 1 {
		t.Errorf("stats: %+v", digest.Stats)
	}
	for _, story := range digest.TopStories {
		if story.Score != 50 {
			t.Errorf("without a provider every story gets the neutral score, got %.0f", story.Score)
		}
	}
}

func TestRunDeduplicatesAcrossSources(t *testing.T) {
	// Two outlets carrying near-identical earthquake coverage.
	a := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, feedXML("Earthquake strikes Japan, dozens injured"))
	}))
	defer a.Close()
	b := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, feedXML("Earthquake strikes Japan, dozens hurt", "Parliament passes budget"))
	}))
	defer b.Close()

	p, err := New(testConfig(t))
	if err != nil {
		t.Fatal(err)
	}

	digest, err := p.Run(context.Background(), []model.Source{
		feedSource("Outlet A", a.URL),
		feedSource("Outlet B", b.URL),
	})
	if err != nil {
		t.Fatal(err)
	}

	if digest.Stats.Collected != 3 {
		t.Errorf("collected = %d", digest.Stats.Collected)
	}
	if digest.Stats.AfterDedup != 2 {
		t.Errorf("after dedup = %d, duplicate earthquake coverage should merge", digest.Stats.AfterDedup)
	}
}

func TestRunToleratesFailingSource(t *testing.T) {
	good := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, feedXML("Only story of the day"))
	}))
	defer good.Close()
	bad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer bad.Close()

	p, err := New(testConfig(t))
	if err != nil {
		t.Fatal(err)
	}

	digest, err := p.Run(context.Background(), []model.Source{
		feedSource("Good", good.URL),
		feedSource("Bad", bad.URL),
	})
	if err != nil {
		t.Fatal(err)
	}

	if digest.Stats.SourcesSucceeded != 1 {
		t.Errorf("succeeded = %d", digest.Stats.SourcesSucceeded)
	}
	if len(digest.Stats.Errors) != 1 {
		t.Errorf("errors = %v", digest.Stats.Errors)
	}
	if digest.StoryCount() != 1 {
		t.Errorf("stories = %d", digest.StoryCount())
	}
}

func TestRunAllSourcesFailing(t *testing.T) {
	bad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer bad.Close()

	p, err := New(testConfig(t))
	if err != nil {
		t.Fatal(err)
	}

	_, err = p.Run(context.Background(), []model.Source{feedSource("Bad", bad.URL)})
	if !errors.Is(err, ErrNoArticles) {
		t.Fatalf("expected ErrNoArticles, got %v", err)
	}
}

func TestRunNoSources(t *testing.T) {
	p, err := New(testConfig(t))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := p.Run(context.Background(), nil); err == nil {
		t.Error("expected an error for an empty source list")
	}
}

func TestAssembleSlicing(t *testing.T) {
	ranked := make([]model.RankedArticle, 20)
	for i := range ranked {
		ranked[i] = model.RankedArticle{
			Article: model.Article{ID: fmt.Sprintf("id-%d", i)},
			Score:   float64(100 - i),
		}
	}

	digest := Assemble(ranked, model.RunStats{}, model.DigestConfig{StoryCount: 15, SMSHeadlineCount: 5})

	if len(digest.TopStories) != 15 {
		t.Errorf("top stories = %d", len(digest.TopStories))
	}
	if len(digest.SMSHeadlines) != 5 {
		t.Errorf("sms headlines = %d", len(digest.SMSHeadlines))
	}
	// SMS headlines are a prefix of the stories.
	for i := range digest.SMSHeadlines {
		if digest.SMSHeadlines[i].ID != digest.TopStories[i].ID {
			t.Errorf("headline %d disagrees with story list", i)
		}
	}
}

func TestAssembleFewerThanTarget(t *testing.T) {
	ranked := []model.RankedArticle{
		{Article: model.Article{ID: "only"}, Score: 80},
	}

	digest := Assemble(ranked, model.RunStats{}, model.DigestConfig{StoryCount: 15, SMSHeadlineCount: 5})
	if len(digest.TopStories) != 1 || len(digest.SMSHeadlines) != 1 {
		t.Errorf("stories=%d headlines=%d", len(digest.TopStories), len(digest.SMSHeadlines))
	}
}
