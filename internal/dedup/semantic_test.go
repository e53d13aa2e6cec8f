package dedup

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/worldbrief/worldbrief/internal/llm"
	"github.com/worldbrief/worldbrief/internal/model"
)

// stubProvider returns a canned completion for cluster tests.
type stubProvider struct {
	response string
	err      error
	calls    int
}

func (p *stubProvider) Name() string { return "stub" }

func (p *stubProvider) IsAvailable(ctx context.Context) bool { return true }

func (p *stubProvider) Complete(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
	p.calls++
	if p.err != nil {
		return nil, p.err
	}
	return &llm.CompletionResponse{Text: p.response, Model: "stub"}, nil
}

func rankedArticles(n int) []model.RankedArticle {
	out := make([]model.RankedArticle, n)
	for i := range out {
		out[i] = model.RankedArticle{
			Article: model.Article{
				ID:    fmt.Sprintf("id-%d", i),
				Title: fmt.Sprintf("Headline %d", i),
			},
			Score: float64(100 - i),
		}
	}
	return out
}

func TestDeduplicateTopBelowTarget(t *testing.T) {
	provider := &stubProvider{}
	d := NewEventDeduplicator(provider)

	articles := rankedArticles(3)
	got := d.DeduplicateTop(context.Background(), articles, 5)

	if len(got) != 3 {
		t.Fatalf("expected passthrough of 3 articles, got %d", len(got))
	}
	if provider.calls != 0 {
		t.Errorf("provider should not be called below target, got %d calls", provider.calls)
	}
}

func TestDeduplicateTopMergesClusters(t *testing.T) {
	// Articles 0 and 2 cover one event; everything else is distinct.
	provider := &stubProvider{
		response: "[[0, 2], [1], [3], [4], [5]]",
	}
	d := NewEventDeduplicator(provider)

	articles := rankedArticles(6)
	got := d.DeduplicateTop(context.Background(), articles, 3)

	if len(got) != 3 {
		t.Fatalf("expected 3 stories, got %d", len(got))
	}
	if got[0].ID != "id-0" || got[1].ID != "id-1" || got[2].ID != "id-3" {
		t.Errorf("unexpected selection: %s, %s, %s", got[0].ID, got[1].ID, got[2].ID)
	}

	// ClusterID labels the group each survivor came from, in response order.
	for i, want := range []string{"0", "1", "2"} {
		if got[i].ClusterID != want {
			t.Errorf("story %d: ClusterID = %q, want %q", i, got[i].ClusterID, want)
		}
	}
}

func TestDeduplicateTopKeepsHighestScoredMember(t *testing.T) {
	// Cluster lists a later article first; the lowest index must win.
	provider := &stubProvider{
		response: "[[3, 0, 2], [1], [4], [5]]",
	}
	d := NewEventDeduplicator(provider)

	articles := rankedArticles(6)
	got := d.DeduplicateTop(context.Background(), articles, 2)

	if len(got) != 2 {
		t.Fatalf("expected 2 stories, got %d", len(got))
	}
	if got[0].ID != "id-0" {
		t.Errorf("expected highest scored cluster member id-0, got %s", got[0].ID)
	}
}

func TestDeduplicateTopFencedResponse(t *testing.T) {
	provider := &stubProvider{
		response: "```json\n[[0], [1], [2], [3]]\n```",
	}
	d := NewEventDeduplicator(provider)

	got := d.DeduplicateTop(context.Background(), rankedArticles(4), 2)
	if len(got) != 2 {
		t.Fatalf("expected 2 stories from fenced response, got %d", len(got))
	}
}

func TestDeduplicateTopFallbackOnError(t *testing.T) {
	provider := &stubProvider{err: errors.New("model unavailable")}
	d := NewEventDeduplicator(provider)

	articles := rankedArticles(10)
	got := d.DeduplicateTop(context.Background(), articles, 4)

	if len(got) != 4 {
		t.Fatalf("expected truncation fallback to 4, got %d", len(got))
	}
	for i := range got {
		if got[i].ID != articles[i].ID {
			t.Errorf("fallback must keep ranking order, got %s at %d", got[i].ID, i)
		}
	}
}

func TestDeduplicateTopFallbackOnGarbage(t *testing.T) {
	provider := &stubProvider{response: "not json at all"}
	d := NewEventDeduplicator(provider)

	got := d.DeduplicateTop(context.Background(), rankedArticles(10), 4)
	if len(got) != 4 {
		t.Fatalf("expected truncation fallback to 4, got %d", len(got))
	}
}

func TestDeduplicateTopNilProvider(t *testing.T) {
	d := NewEventDeduplicator(nil)

	got := d.DeduplicateTop(context.Background(), rankedArticles(10), 4)
	if len(got) != 4 {
		t.Fatalf("expected truncation with nil provider, got %d", len(got))
	}
}

func TestDeduplicateTopIgnoresOutOfRangeIndices(t *testing.T) {
	provider := &stubProvider{
		response: "[[0], [99], [1], [2]]",
	}
	d := NewEventDeduplicator(provider)

	got := d.DeduplicateTop(context.Background(), rankedArticles(4), 3)
	if len(got) != 3 {
		t.Fatalf("expected 3 stories, got %d", len(got))
	}
	for _, art := range got {
		if art.ID == "" {
			t.Error("selected an out of range article")
		}
	}
}
