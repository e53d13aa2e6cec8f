// Package rank scores articles by significance using a language model
// and orders them for digest assembly.
package rank

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/worldbrief/worldbrief/internal/llm"
	"github.com/worldbrief/worldbrief/internal/model"
	"github.com/worldbrief/worldbrief/internal/util"
)

// NeutralScore is assigned when the model gives no usable score for an
// article.
const NeutralScore = 50

// DefaultBatchSize is the number of articles ranked per model call.
const DefaultBatchSize = 50

// ErrNotConfigured is returned when ranking is attempted without a
// model provider.
var ErrNotConfigured = errors.New("rank: no provider configured")

// Ranker assigns significance scores to articles in batches.
type Ranker struct {
	provider  llm.Provider
	batchSize int
	logger    *slog.Logger
}

// NewRanker creates a ranker. A batchSize of 0 uses the default.
func NewRanker(provider llm.Provider, batchSize int) *Ranker {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &Ranker{
		provider:  provider,
		batchSize: batchSize,
		logger:    slog.Default(),
	}
}

type rankingItem struct {
	Index     int     `json:"index"`
	Score     float64 `json:"score"`
	Rationale string  `json:"rationale"`
}

// Rank scores every article and returns them sorted by score descending.
// Equal scores keep their input order. Every input article appears in
// the output exactly once.
func (r *Ranker) Rank(ctx context.Context, articles []model.Article) ([]model.RankedArticle, error) {
	if r.provider == nil {
		return nil, ErrNotConfigured
	}
	if len(articles) == 0 {
		return nil, nil
	}

	ranked := make([]model.RankedArticle, 0, len(articles))
	for start := 0; start < len(articles); start += r.batchSize {
		end := start + r.batchSize
		if end > len(articles) {
			end = len(articles)
		}
		ranked = append(ranked, r.rankBatch(ctx, articles[start:end])...)
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})

	r.logger.Info("ranked articles", "count", len(ranked))
	return ranked, nil
}

// rankBatch scores one batch. On model or parse failure every article in
// the batch gets the neutral score; other batches are unaffected.
func (r *Ranker) rankBatch(ctx context.Context, batch []model.Article) []model.RankedArticle {
	resp, err := r.provider.Complete(ctx, llm.CompletionRequest{
		Prompt:    buildRankingPrompt(batch),
		MaxTokens: 4096,
	})
	if err != nil {
		r.logger.Error("ranking batch failed", "size", len(batch), "error", err)
		return neutralBatch(batch, "ranking unavailable")
	}

	rankings, err := parseRankingResponse(resp.Text)
	if err != nil {
		r.logger.Error("unparseable ranking response", "error", err)
		return neutralBatch(batch, "ranking unavailable")
	}

	out := make([]model.RankedArticle, 0, len(batch))
	for i, art := range batch {
		item, ok := rankings[i]
		if !ok {
			item = rankingItem{Score: NeutralScore, Rationale: "no ranking"}
		}
		out = append(out, model.RankedArticle{
			Article:   art,
			Score:     clampScore(item.Score),
			Rationale: item.Rationale,
		})
	}
	return out
}

func neutralBatch(batch []model.Article, rationale string) []model.RankedArticle {
	out := make([]model.RankedArticle, 0, len(batch))
	for _, art := range batch {
		out = append(out, model.RankedArticle{
			Article:   art,
			Score:     NeutralScore,
			Rationale: rationale,
		})
	}
	return out
}

func clampScore(score float64) float64 {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

func buildRankingPrompt(articles []model.Article) string {
	var listing strings.Builder
	for i, art := range articles {
		desc := util.Truncate(art.Description, 200)
		if desc == "" {
			desc = "N/A"
		}
		fmt.Fprintf(&listing, "\n[%d]\nTitle: %s\nSource: %s (%s)\nCategory: %s\nDescription: %s\n",
			i, art.Title, art.SourceName, art.SourceRegion, art.SourceCategory, desc)
	}

	return fmt.Sprintf(`You are an expert news editor ranking stories for a world news digest for a reader in New York City.

Rate each story from 0-100 based on these criteria:
- Global significance and impact (weight: 40%%)
- Relevance to US readers (weight: 25%%)
- Uniqueness/underreported angle (weight: 20%%)
- Timeliness and urgency (weight: 15%%)

Important guidelines:
- Major global events (wars, disasters, elections in large countries) should score 80-100
- Significant policy changes or economic news affecting multiple countries: 60-80
- Regional news with limited global impact: 40-60
- Local/niche stories: 20-40
- Underreported stories from Africa, Latin America, etc. get a bonus if truly significant

Here are the stories to rank:
%s
Return ONLY a valid JSON array with your rankings. Each item should have:
- "index": the story number
- "score": 0-100 significance score
- "rationale": 1 sentence explaining the score

Example format:
[{"index": 0, "score": 85, "rationale": "Major geopolitical development affecting multiple regions"}]

Respond with only the JSON array, no other text:`, listing.String())
}

// parseRankingResponse maps article index to its ranking. Duplicate
// indices keep the last occurrence.
func parseRankingResponse(text string) (map[int]rankingItem, error) {
	text = llm.StripCodeFence(text)

	var items []rankingItem
	if err := json.Unmarshal([]byte(text), &items); err != nil {
		return nil, fmt.Errorf("parse rankings: %w", err)
	}

	rankings := make(map[int]rankingItem, len(items))
	for _, item := range items {
		rankings[item.Index] = item
	}
	return rankings, nil
}
