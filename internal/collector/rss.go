package collector

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"

	"github.com/worldbrief/worldbrief/internal/model"
	"github.com/worldbrief/worldbrief/internal/ratelimit"
	"github.com/worldbrief/worldbrief/internal/util"
)

const maxDescriptionLen = 500

// RSS collects articles from RSS/Atom feeds.
type RSS struct {
	httpClient  *http.Client
	limiter     *ratelimit.Limiter
	robots      *util.RobotsChecker // nil when robots checking is disabled
	userAgent   string
	maxArticles int
	maxBytes    int64
	concurrency int
}

// Options configures an RSS collector.
type Options struct {
	Timeout              time.Duration
	UserAgent            string
	MaxArticlesPerSource int
	MaxBodyBytes         int64
	MaxConcurrent        int
	RequestsPerSecond    float64
	Burst                int
	RespectRobots        bool
}

// NewRSS creates an RSS collector.
func NewRSS(opts Options) *RSS {
	if opts.Timeout == 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.MaxArticlesPerSource <= 0 {
		opts.MaxArticlesPerSource = 10
	}
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = 2_000_000
	}
	if opts.MaxConcurrent <= 0 {
		opts.MaxConcurrent = 10
	}
	if opts.RequestsPerSecond <= 0 {
		opts.RequestsPerSecond = 2
	}

	var robots *util.RobotsChecker
	if opts.RespectRobots {
		robots = util.NewRobotsChecker(opts.UserAgent, 10*time.Second)
	}

	return &RSS{
		httpClient: &http.Client{
			Timeout: opts.Timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 3 {
					return fmt.Errorf("stopped after 3 redirects")
				}
				return nil
			},
		},
		limiter:     ratelimit.New(opts.RequestsPerSecond, opts.Burst),
		robots:      robots,
		userAgent:   opts.UserAgent,
		maxArticles: opts.MaxArticlesPerSource,
		maxBytes:    opts.MaxBodyBytes,
		concurrency: opts.MaxConcurrent,
	}
}

// Fetch collects articles from a single feed. A broken source returns an
// error and zero articles; it never panics the batch.
func (c *RSS) Fetch(ctx context.Context, source model.Source) ([]model.RawArticle, error) {
	if err := c.limiter.Wait(ctx, source.URL); err != nil {
		return nil, fmt.Errorf("rate limit: %w", err)
	}
	if c.robots != nil && !c.robots.Allowed(ctx, source.URL) {
		return nil, fmt.Errorf("disallowed by robots.txt")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, source.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/rss+xml,application/atom+xml,application/xml;q=0.9,*/*;q=0.8")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch feed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBytes))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	feed, err := gofeed.NewParser().ParseString(string(body))
	if err != nil {
		return nil, fmt.Errorf("parse feed: %w", err)
	}
	if len(feed.Items) == 0 {
		return nil, fmt.Errorf("feed has no entries")
	}

	items := feed.Items
	if len(items) > c.maxArticles {
		items = items[:c.maxArticles]
	}

	var articles []model.RawArticle
	for _, item := range items {
		article, ok := parseEntry(item, source)
		if !ok {
			continue
		}
		articles = append(articles, article)
	}

	return articles, nil
}

// Probe checks source reachability with a HEAD request.
func (c *RSS) Probe(ctx context.Context, source model.Source) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, source.URL, nil)
	if err != nil {
		return false
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false
	}
	defer func() { _ = resp.Body.Close() }()

	return resp.StatusCode < 400
}

// CollectAll fans out over all sources with bounded concurrency and returns
// the union of everything collected. One slow or failing source never blocks
// or fails the rest; its error is returned alongside the articles for the
// run-stats ledger. Result ordering follows no particular contract.
func (c *RSS) CollectAll(ctx context.Context, srcs []model.Source) ([]model.RawArticle, []error) {
	if len(srcs) == 0 {
		return nil, nil
	}

	perSource := make([][]model.RawArticle, len(srcs))
	perErr := make([]error, len(srcs))

	semaphore := make(chan struct{}, c.concurrency)
	var wg sync.WaitGroup

	for i, source := range srcs {
		wg.Add(1)
		go func(idx int, src model.Source) {
			defer wg.Done()

			select {
			case <-ctx.Done():
				perErr[idx] = fmt.Errorf("%s: %w", src.Name, ctx.Err())
				return
			case semaphore <- struct{}{}:
			}
			defer func() { <-semaphore }()

			articles, err := c.Fetch(ctx, src)
			if err != nil {
				perErr[idx] = fmt.Errorf("%s: %w", src.Name, err)
				slog.Error("source collection failed", "source", src.Name, "error", err)
				return
			}
			perSource[idx] = articles
			slog.Info("collected source", "source", src.Name, "articles", len(articles))
		}(i, source)
	}

	wg.Wait()

	var all []model.RawArticle
	var errs []error
	for i := range srcs {
		all = append(all, perSource[i]...)
		if perErr[i] != nil {
			errs = append(errs, perErr[i])
		}
	}

	return all, errs
}

// HealthCheck probes every source and returns reachability by source name.
func (c *RSS) HealthCheck(ctx context.Context, srcs []model.Source) map[string]bool {
	results := make([]bool, len(srcs))

	semaphore := make(chan struct{}, c.concurrency)
	var wg sync.WaitGroup

	for i, source := range srcs {
		wg.Add(1)
		go func(idx int, src model.Source) {
			defer wg.Done()

			select {
			case <-ctx.Done():
				return
			case semaphore <- struct{}{}:
			}
			defer func() { <-semaphore }()

			results[idx] = c.Probe(ctx, src)
		}(i, source)
	}

	wg.Wait()

	health := make(map[string]bool, len(srcs))
	for i, src := range srcs {
		health[src.Name] = results[i]
	}
	return health
}

var (
	tagPattern        = regexp.MustCompile(`<[^>]+>`)
	whitespacePattern = regexp.MustCompile(`\s+`)
)

// parseEntry maps one feed entry to a RawArticle. Entries without a title or
// link are dropped.
func parseEntry(item *gofeed.Item, source model.Source) (model.RawArticle, bool) {
	title := strings.TrimSpace(item.Title)
	link := strings.TrimSpace(item.Link)
	if title == "" || link == "" {
		return model.RawArticle{}, false
	}

	description := item.Description
	if description == "" {
		description = item.Content
	}
	description = util.Truncate(stripHTML(description), maxDescriptionLen)

	return model.RawArticle{
		SourceName:     source.Name,
		SourceRegion:   source.Region,
		SourceCategory: source.Category,
		Title:          title,
		URL:            link,
		Description:    description,
		PublishedAt:    resolvePublished(item),
		Language:       source.Language,
		ImageURL:       resolveImage(item),
	}, true
}

// resolvePublished resolves the publish timestamp in order: parsed published,
// parsed updated, best-effort parse of the raw published string.
func resolvePublished(item *gofeed.Item) *time.Time {
	if item.PublishedParsed != nil {
		return item.PublishedParsed
	}
	if item.UpdatedParsed != nil {
		return item.UpdatedParsed
	}
	if item.Published != "" {
		for _, layout := range []string{time.RFC1123Z, time.RFC1123, time.RFC3339} {
			if t, err := time.Parse(layout, item.Published); err == nil {
				return &t
			}
		}
	}
	return nil
}

func resolveImage(item *gofeed.Item) string {
	if item.Image != nil && item.Image.URL != "" {
		return item.Image.URL
	}

	media, ok := item.Extensions["media"]
	if !ok {
		return ""
	}
	for _, key := range []string{"content", "thumbnail"} {
		for _, ext := range media[key] {
			if url := ext.Attrs["url"]; url != "" {
				return url
			}
		}
	}
	return ""
}

// stripHTML flattens markup into plain text and collapses whitespace.
func stripHTML(text string) string {
	if text == "" {
		return ""
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(text))
	if err != nil {
		// Fall back to a regexp strip when the fragment is unparseable
		text = tagPattern.ReplaceAllString(text, " ")
		return strings.TrimSpace(whitespacePattern.ReplaceAllString(text, " "))
	}

	return strings.TrimSpace(whitespacePattern.ReplaceAllString(doc.Text(), " "))
}
