package dedup

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/worldbrief/worldbrief/internal/llm"
	"github.com/worldbrief/worldbrief/internal/model"
)

// candidateMultiplier controls how many ranked articles beyond the target
// are examined for event clustering.
const candidateMultiplier = 3

// EventDeduplicator collapses articles that cover the same underlying
// event using a language model. It runs as a final pass over ranked
// articles so the digest carries one story per event.
type EventDeduplicator struct {
	provider llm.Provider
	logger   *slog.Logger
}

// NewEventDeduplicator creates an event deduplicator backed by the given
// provider. The provider may be nil, in which case DeduplicateTop falls
// back to plain truncation.
func NewEventDeduplicator(provider llm.Provider) *EventDeduplicator {
	return &EventDeduplicator{
		provider: provider,
		logger:   slog.Default(),
	}
}

// DeduplicateTop returns up to targetCount articles with one article per
// unique event. Input must already be sorted by score descending. On any
// clustering failure the top targetCount articles are returned unchanged.
func (d *EventDeduplicator) DeduplicateTop(ctx context.Context, articles []model.RankedArticle, targetCount int) []model.RankedArticle {
	if len(articles) <= targetCount {
		return articles
	}

	if d.provider == nil {
		return articles[:targetCount]
	}

	window := targetCount * candidateMultiplier
	if window > len(articles) {
		window = len(articles)
	}
	candidates := articles[:window]

	clusters, err := d.identifyEventClusters(ctx, candidates)
	if err != nil {
		d.logger.Error("event clustering failed, falling back to top articles",
			"error", err)
		return articles[:targetCount]
	}

	return selectBestPerCluster(candidates, clusters, targetCount)
}

// identifyEventClusters asks the model to group headlines by the event
// they cover. Returns clusters of candidate indices.
func (d *EventDeduplicator) identifyEventClusters(ctx context.Context, articles []model.RankedArticle) ([][]int, error) {
	var headlines strings.Builder
	for i, art := range articles {
		fmt.Fprintf(&headlines, "[%d] %s\n", i, art.Title)
	}

	prompt := fmt.Sprintf(`You are an expert news editor. Below are headlines from different news sources.
Group them by the underlying EVENT they cover. Articles about the same event/story should be in the same group.

Headlines:
%s
Return a JSON array of arrays, where each inner array contains the indices of articles about the SAME event.
Single-article events should still be in their own array.

Example output for 6 articles where 0,2,4 are about one event and 1,3,5 are three separate events:
[[0, 2, 4], [1], [3], [5]]

Important:
- Focus on the core EVENT, not just similar topics
- Different aspects of same breaking story = same event
- Reports from different outlets about the SAME meeting or incident = same event

Return ONLY the JSON array:`, headlines.String())

	resp, err := d.provider.Complete(ctx, llm.CompletionRequest{
		Prompt:    prompt,
		MaxTokens: 1024,
	})
	if err != nil {
		return nil, fmt.Errorf("completion: %w", err)
	}

	text := llm.StripCodeFence(resp.Text)

	var clusters [][]int
	if err := json.Unmarshal([]byte(text), &clusters); err != nil {
		return nil, fmt.Errorf("parse clusters: %w", err)
	}

	d.logger.Info("clustered articles by event",
		"articles", len(articles),
		"events", len(clusters))
	return clusters, nil
}

// selectBestPerCluster keeps the highest-scored member of each cluster.
// Since candidates are sorted by score, that is the lowest index.
func selectBestPerCluster(articles []model.RankedArticle, clusters [][]int, targetCount int) []model.RankedArticle {
	selected := make([]model.RankedArticle, 0, targetCount)

	for clusterID, cluster := range clusters {
		if len(selected) >= targetCount {
			break
		}
		if len(cluster) == 0 {
			continue
		}

		best := cluster[0]
		for _, idx := range cluster[1:] {
			if idx < best {
				best = idx
			}
		}
		if best < 0 || best >= len(articles) {
			continue
		}

		art := articles[best]
		art.ClusterID = strconv.Itoa(clusterID)
		selected = append(selected, art)
	}

	return selected
}
