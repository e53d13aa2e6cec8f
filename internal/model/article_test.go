package model

import (
	"testing"
	"time"
)

func TestArticleID(t *testing.T) {
	tests := []struct {
		name  string
		link  string
		other string
		same  bool
	}{
		{
			name:  "same link same id",
			link:  "https://example.com/story",
			other: "https://example.com/story",
			same:  true,
		},
		{
			name:  "different links different ids",
			link:  "https://example.com/story",
			other: "https://example.com/other",
			same:  false,
		},
		{
			name:  "query string matters",
			link:  "https://example.com/story",
			other: "https://example.com/story?utm=1",
			same:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, b := ArticleID(tt.link), ArticleID(tt.other)
			if (a == b) != tt.same {
				t.Errorf("ArticleID(%q)=%q, ArticleID(%q)=%q, same=%v want %v",
					tt.link, a, tt.other, b, a == b, tt.same)
			}
		})
	}
}

func TestArticleIDLength(t *testing.T) {
	id := ArticleID("https://example.com/story")
	if len(id) != 16 {
		t.Errorf("expected 16 hex chars, got %d: %q", len(id), id)
	}
}

func TestFromRaw(t *testing.T) {
	published := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	raw := RawArticle{
		SourceName:     "Le Monde",
		SourceRegion:   RegionEurope,
		SourceCategory: CategoryGeneral,
		Title:          "Titre original",
		URL:            "https://lemonde.fr/article",
		Description:    "Description originale",
		PublishedAt:    &published,
		Language:       "fr",
	}

	art := FromRaw(raw, "Translated title", "Translated description")

	if art.ID != raw.ID() {
		t.Errorf("ID mismatch: %q vs %q", art.ID, raw.ID())
	}
	if art.Title != "Translated title" {
		t.Errorf("Title = %q", art.Title)
	}
	if art.OriginalTitle != "Titre original" {
		t.Errorf("OriginalTitle = %q", art.OriginalTitle)
	}
	if art.Description != "Translated description" {
		t.Errorf("Description = %q", art.Description)
	}
	if !art.PublishedAt.Equal(published) {
		t.Errorf("PublishedAt = %v", art.PublishedAt)
	}
}

func TestFromRawKeepsOriginalsWhenNotTranslated(t *testing.T) {
	raw := RawArticle{
		Title:       "Original title",
		URL:         "https://example.com/a",
		Description: "Original description",
		Language:    "en",
	}

	art := FromRaw(raw, "", "")

	if art.Title != "Original title" {
		t.Errorf("Title = %q", art.Title)
	}
	if art.Description != "Original description" {
		t.Errorf("Description = %q", art.Description)
	}
	if art.PublishedAt.IsZero() {
		t.Error("PublishedAt should default to collection time")
	}
}
