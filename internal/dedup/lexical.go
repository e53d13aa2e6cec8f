// Package dedup removes duplicate coverage of the same story, first by
// lexical similarity and then by model-assisted event clustering.
package dedup

import (
	"log/slog"
	"strings"

	"github.com/adrg/strutil"
	"github.com/adrg/strutil/metrics"

	"github.com/worldbrief/worldbrief/internal/model"
)

// DefaultThreshold is the similarity ratio above which two articles are
// treated as duplicates.
const DefaultThreshold = 0.7

// stopwords excluded from token-overlap comparison.
var stopwords = map[string]struct{}{
	"the": {}, "a": {}, "an": {}, "in": {}, "on": {}, "at": {}, "to": {},
	"for": {}, "of": {}, "and": {}, "is": {}, "are": {}, "was": {},
	"were": {}, "be": {},
}

// Deduplicator groups lexically similar articles and keeps one
// representative per group.
type Deduplicator struct {
	threshold float64
	enabled   bool
	sim       *metrics.RatcliffObershelp
	logger    *slog.Logger
}

// NewDeduplicator creates a deduplicator with the given similarity
// threshold. A threshold of 0 uses the default.
func NewDeduplicator(threshold float64, enabled bool) *Deduplicator {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	return &Deduplicator{
		threshold: threshold,
		enabled:   enabled,
		sim:       metrics.NewRatcliffObershelp(),
		logger:    slog.Default(),
	}
}

// Process removes duplicates from articles, preserving input order. The
// first article of each duplicate group is kept.
func (d *Deduplicator) Process(articles []model.Article) []model.Article {
	if !d.enabled || len(articles) < 2 {
		return articles
	}

	// Greedy first-fit clustering: each article is compared against the
	// first member of every existing cluster.
	clusters := make([][]model.Article, 0, len(articles))
	for _, art := range articles {
		placed := false
		for i := range clusters {
			if d.isDuplicate(art, clusters[i][0]) {
				clusters[i] = append(clusters[i], art)
				placed = true
				break
			}
		}
		if !placed {
			clusters = append(clusters, []model.Article{art})
		}
	}

	unique := make([]model.Article, 0, len(clusters))
	for _, cluster := range clusters {
		unique = append(unique, cluster[0])
	}

	if removed := len(articles) - len(unique); removed > 0 {
		d.logger.Info("removed duplicate articles",
			"removed", removed,
			"remaining", len(unique))
	}
	return unique
}

// isDuplicate reports whether two articles cover the same story.
func (d *Deduplicator) isDuplicate(a, b model.Article) bool {
	titleA := strings.ToLower(a.Title)
	titleB := strings.ToLower(b.Title)

	if strutil.Similarity(titleA, titleB, d.sim) > d.threshold {
		return true
	}

	combinedA := strings.ToLower(a.Title + " " + a.Description)
	combinedB := strings.ToLower(b.Title + " " + b.Description)
	if strutil.Similarity(combinedA, combinedB, d.sim) > d.threshold {
		return true
	}

	return tokenOverlap(titleA, titleB) > 0.6
}

// tokenOverlap computes the overlap of non-stopword title tokens as a
// share of the smaller token set. Returns 0 unless both token sets have
// more than two words.
func tokenOverlap(titleA, titleB string) float64 {
	tokensA := contentTokens(titleA)
	tokensB := contentTokens(titleB)
	if len(tokensA) <= 2 || len(tokensB) <= 2 {
		return 0
	}

	intersection := 0
	for tok := range tokensA {
		if _, ok := tokensB[tok]; ok {
			intersection++
		}
	}
	smaller := len(tokensA)
	if len(tokensB) < smaller {
		smaller = len(tokensB)
	}
	return float64(intersection) / float64(smaller)
}

func contentTokens(s string) map[string]struct{} {
	tokens := make(map[string]struct{})
	for _, word := range strings.Fields(s) {
		if _, stop := stopwords[word]; stop {
			continue
		}
		tokens[word] = struct{}{}
	}
	return tokens
}
