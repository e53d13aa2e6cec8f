package translate

import (
	"context"
	"log/slog"

	"github.com/worldbrief/worldbrief/internal/cache"
	"github.com/worldbrief/worldbrief/internal/model"
)

// Oracle is the external translation service. Implementations are expected
// to auto-detect the source language when the hint is wrong.
type Oracle interface {
	Translate(ctx context.Context, text, sourceLang, targetLang string) (string, error)
}

// Translator normalizes raw articles into the target language. Translation
// failures are never fatal; the original text passes through.
type Translator struct {
	oracle  Oracle
	cache   cache.Cache // nil disables caching
	target  string
	enabled bool
}

// New creates a translator targeting the given language.
func New(oracle Oracle, c cache.Cache, targetLanguage string, enabled bool) *Translator {
	if targetLanguage == "" {
		targetLanguage = "en"
	}
	return &Translator{
		oracle:  oracle,
		cache:   c,
		target:  targetLanguage,
		enabled: enabled,
	}
}

// Text translates a single string, consulting the cache first. On any
// failure the original text is returned.
func (t *Translator) Text(ctx context.Context, text, sourceLang string) string {
	if text == "" || sourceLang == t.target {
		return text
	}

	key := cache.Key(sourceLang + ":" + t.target + ":" + text)
	if t.cache != nil {
		if cached, found := t.cache.Get(key); found {
			return string(cached)
		}
	}

	translated, err := t.oracle.Translate(ctx, text, sourceLang, t.target)
	if err != nil {
		slog.Warn("translation failed", "lang", sourceLang, "error", err)
		return text
	}
	if translated == "" {
		return text
	}

	if t.cache != nil {
		if err := t.cache.Set(key, []byte(translated), 0); err != nil {
			slog.Debug("translation cache write failed", "error", err)
		}
	}

	return translated
}

// Article normalizes one raw article, translating title and description when
// the source language differs from the target.
func (t *Translator) Article(ctx context.Context, raw model.RawArticle) model.Article {
	if !t.enabled || raw.Language == t.target || t.oracle == nil {
		return model.FromRaw(raw, "", "")
	}

	title := t.Text(ctx, raw.Title, raw.Language)
	description := ""
	if raw.Description != "" {
		description = t.Text(ctx, raw.Description, raw.Language)
	}

	return model.FromRaw(raw, title, description)
}

// Process normalizes a batch of raw articles, one Article per RawArticle.
func (t *Translator) Process(ctx context.Context, raws []model.RawArticle) []model.Article {
	articles := make([]model.Article, 0, len(raws))
	for _, raw := range raws {
		articles = append(articles, t.Article(ctx, raw))
	}
	slog.Info("normalized articles", "count", len(articles))
	return articles
}
