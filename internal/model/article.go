package model

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// ArticleID derives the stable content identity for a canonical link.
// The same link always maps to the same ID, across runs and processes.
func ArticleID(link string) string {
	sum := sha256.Sum256([]byte(link))
	return hex.EncodeToString(sum[:])[:16]
}

// RawArticle is a feed entry as collected from a source, before any
// processing. Immutable once constructed.
type RawArticle struct {
	SourceName     string     `json:"source_name"`
	SourceRegion   Region     `json:"source_region"`
	SourceCategory Category   `json:"source_category"`
	Title          string     `json:"title"`
	URL            string     `json:"url"`
	Description    string     `json:"description,omitempty"`
	PublishedAt    *time.Time `json:"published_at,omitempty"`
	Language       string     `json:"language"`
	ImageURL       string     `json:"image_url,omitempty"`
}

// ID returns the content identity derived from the article's canonical link.
func (a RawArticle) ID() string {
	return ArticleID(a.URL)
}

// Article is a raw article after translation and normalization. Two articles
// with the same ID refer to the same link; storage treats them as
// last-write-wins.
type Article struct {
	ID             string    `json:"id"`
	SourceName     string    `json:"source_name"`
	SourceRegion   Region    `json:"source_region"`
	SourceCategory Category  `json:"source_category"`
	OriginalTitle  string    `json:"original_title"`
	Title          string    `json:"title"` // translated if needed
	URL            string    `json:"url"`
	Description    string    `json:"description"`
	Language       string    `json:"original_language"`
	PublishedAt    time.Time `json:"published_at"`
	CollectedAt    time.Time `json:"collected_at"`
}

// FromRaw builds an Article from a RawArticle, substituting translated
// title/description when provided (empty strings keep the originals).
func FromRaw(raw RawArticle, translatedTitle, translatedDescription string) Article {
	title := raw.Title
	if translatedTitle != "" {
		title = translatedTitle
	}
	description := raw.Description
	if translatedDescription != "" {
		description = translatedDescription
	}

	published := time.Now().UTC()
	if raw.PublishedAt != nil {
		published = *raw.PublishedAt
	}

	return Article{
		ID:             raw.ID(),
		SourceName:     raw.SourceName,
		SourceRegion:   raw.SourceRegion,
		SourceCategory: raw.SourceCategory,
		OriginalTitle:  raw.Title,
		Title:          title,
		URL:            raw.URL,
		Description:    description,
		Language:       raw.Language,
		PublishedAt:    published,
		CollectedAt:    time.Now().UTC(),
	}
}

// RankedArticle is an article with an oracle-assigned significance score.
// The score is always present; on oracle failure it holds the neutral
// default rather than being absent.
type RankedArticle struct {
	Article
	Score     float64 `json:"significance_score"` // 0..100
	Rationale string  `json:"ranking_rationale"`
	ClusterID string  `json:"dedupe_cluster_id,omitempty"`
}

// RunStats accumulates counters across one pipeline run.
type RunStats struct {
	SourcesAttempted int           `json:"sources_attempted"`
	SourcesSucceeded int           `json:"sources_succeeded"`
	Collected        int           `json:"articles_collected"`
	AfterDedup       int           `json:"articles_after_dedup"`
	Errors           []string      `json:"errors,omitempty"`
	Duration         time.Duration `json:"duration"`
}

// AddError records a non-fatal error for observability.
func (s *RunStats) AddError(msg string) {
	s.Errors = append(s.Errors, msg)
}

// Digest is the final ordered, size-bounded output of one pipeline run.
// Immutable after construction.
type Digest struct {
	Date         time.Time       `json:"date"`
	TopStories   []RankedArticle `json:"top_stories"`
	SMSHeadlines []RankedArticle `json:"sms_headlines"`
	Stats        RunStats        `json:"collection_stats"`
}

// StoryCount returns the number of stories in the full digest.
func (d Digest) StoryCount() int {
	return len(d.TopStories)
}
