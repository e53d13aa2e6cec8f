package dedup

import (
	"fmt"
	"testing"

	"github.com/worldbrief/worldbrief/internal/model"
)

func article(title, description string) model.Article {
	return model.Article{
		ID:          model.ArticleID("https://example.com/" + title),
		Title:       title,
		Description: description,
	}
}

func TestProcessRemovesNearIdenticalTitles(t *testing.T) {
	d := NewDeduplicator(0.7, true)

	articles := []model.Article{
		article("Earthquake strikes Japan, dozens injured", ""),
		article("Earthquake strikes Japan, dozens hurt", ""),
		article("Parliament passes budget bill", ""),
	}

	got := d.Process(articles)
	if len(got) != 2 {
		t.Fatalf("expected 2 unique articles, got %d", len(got))
	}
	if got[0].Title != articles[0].Title {
		t.Errorf("first member should be kept, got %q", got[0].Title)
	}
}

func TestProcessIdempotent(t *testing.T) {
	d := NewDeduplicator(0.7, true)

	articles := []model.Article{
		article("Earthquake strikes Japan, dozens injured", ""),
		article("Earthquake strikes Japan, dozens hurt", ""),
		article("Parliament passes budget bill", ""),
		article("Central bank raises interest rates", ""),
	}

	once := d.Process(articles)
	twice := d.Process(once)

	if len(twice) != len(once) {
		t.Fatalf("second pass removed articles: %d -> %d", len(once), len(twice))
	}
	for i := range once {
		if twice[i].ID != once[i].ID {
			t.Errorf("second pass changed article %d: %q -> %q", i, once[i].Title, twice[i].Title)
		}
	}
}

func TestProcessKeepsDistinctStories(t *testing.T) {
	d := NewDeduplicator(0.7, true)

	articles := []model.Article{
		article("Central bank raises interest rates", ""),
		article("Wildfires spread across southern Europe", ""),
		article("New trade agreement signed in Asia", ""),
	}

	got := d.Process(articles)
	if len(got) != 3 {
		t.Fatalf("expected all 3 articles kept, got %d", len(got))
	}
}

func TestProcessTokenOverlap(t *testing.T) {
	d := NewDeduplicator(0.7, true)

	// Different phrasing, same key tokens.
	articles := []model.Article{
		article("Zelensky Trump summit peace talks Washington", ""),
		article("Washington summit: Trump, Zelensky peace talks continue today", ""),
	}

	got := d.Process(articles)
	if len(got) != 1 {
		t.Fatalf("expected token overlap to merge, got %d articles", len(got))
	}
}

func TestProcessShortTitlesNotMergedByOverlap(t *testing.T) {
	d := NewDeduplicator(0.7, true)

	// Two content words each: overlap rule must not apply.
	articles := []model.Article{
		article("Markets rally", ""),
		article("Rally markets", ""),
	}

	got := d.Process(articles)
	if len(got) != 2 {
		t.Fatalf("short titles should not merge via overlap, got %d", len(got))
	}
}

func TestProcessDisabled(t *testing.T) {
	d := NewDeduplicator(0.7, false)

	articles := []model.Article{
		article("Earthquake strikes Japan, dozens injured", ""),
		article("Earthquake strikes Japan, dozens injured", ""),
	}

	got := d.Process(articles)
	if len(got) != 2 {
		t.Fatalf("disabled dedup must pass articles through, got %d", len(got))
	}
}

func TestProcessPreservesOrder(t *testing.T) {
	d := NewDeduplicator(0.7, true)

	var articles []model.Article
	for i := 0; i < 5; i++ {
		articles = append(articles, article(fmt.Sprintf("Completely distinct headline number %d about topic %d", i, i*7), ""))
	}

	got := d.Process(articles)
	if len(got) != len(articles) {
		t.Fatalf("expected %d articles, got %d", len(articles), len(got))
	}
	for i := range got {
		if got[i].Title != articles[i].Title {
			t.Errorf("order changed at %d: %q", i, got[i].Title)
		}
	}
}

func TestIsDuplicateCombinedText(t *testing.T) {
	d := NewDeduplicator(0.7, true)

	a := article("Breaking news update", "The president announced sweeping new tariffs on imported steel and aluminum today")
	b := article("Latest developments", "The president announced sweeping new tariffs on imported steel and aluminum this morning")

	if !d.isDuplicate(a, b) {
		t.Error("expected combined title+description similarity to match")
	}
}

func TestTokenOverlapThreshold(t *testing.T) {
	tests := []struct {
		name   string
		a, b   string
		expect bool
	}{
		{
			name:   "high overlap",
			a:      "france election results runoff macron",
			b:      "macron runoff election results france today",
			expect: true,
		},
		{
			name:   "low overlap",
			a:      "france election results announced today",
			b:      "germany football match postponed rain",
			expect: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tokenOverlap(tt.a, tt.b) > 0.6
			if got != tt.expect {
				t.Errorf("tokenOverlap(%q, %q) > 0.6 = %v, want %v", tt.a, tt.b, got, tt.expect)
			}
		})
	}
}
