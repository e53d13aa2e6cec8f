package delivery

import (
	"fmt"
	"html"
	"log/slog"
	"strings"

	"github.com/worldbrief/worldbrief/internal/model"
)

// EmailDelivery sends the full digest as an HTML email.
type EmailDelivery struct {
	mailer     *Mailer
	recipients []string
	logger     *slog.Logger
}

// NewEmailDelivery creates an email digest sender.
func NewEmailDelivery(mailer *Mailer, recipients []string) *EmailDelivery {
	return &EmailDelivery{
		mailer:     mailer,
		recipients: recipients,
		logger:     slog.Default(),
	}
}

// SendDigest emails the digest to all configured recipients.
func (d *EmailDelivery) SendDigest(digest *model.Digest) error {
	if len(d.recipients) == 0 {
		return fmt.Errorf("no email recipients configured")
	}

	subject := fmt.Sprintf("World News Digest - %s", digest.Date.Format("Jan 2, 2006"))
	body := FormatHTML(digest)

	if err := d.mailer.Send(d.recipients, subject, "text/html", body); err != nil {
		return fmt.Errorf("send digest email: %w", err)
	}

	d.logger.Info("digest emailed",
		"recipients", len(d.recipients),
		"stories", digest.StoryCount())
	return nil
}

// FormatHTML renders the digest as a self-contained HTML document.
func FormatHTML(digest *model.Digest) string {
	var b strings.Builder

	b.WriteString("<!DOCTYPE html><html><head><meta charset=\"utf-8\"></head>")
	b.WriteString("<body style=\"font-family:Georgia,serif;max-width:680px;margin:0 auto;padding:16px\">")
	fmt.Fprintf(&b, "<h1 style=\"border-bottom:2px solid #333\">World News Digest</h1>")
	fmt.Fprintf(&b, "<p style=\"color:#666\">%s</p>", digest.Date.Format("Monday, January 2, 2006"))

	for i, story := range digest.TopStories {
		fmt.Fprintf(&b, "<div style=\"margin:16px 0\">")
		fmt.Fprintf(&b, "<h3 style=\"margin-bottom:4px\">%d. <a href=\"%s\">%s</a></h3>",
			i+1, html.EscapeString(story.URL), html.EscapeString(story.Title))
		fmt.Fprintf(&b, "<p style=\"color:#888;font-size:13px;margin:2px 0\">%s &middot; %s &middot; score %.0f</p>",
			html.EscapeString(story.SourceName), html.EscapeString(string(story.SourceRegion)), story.Score)
		if story.Description != "" {
			fmt.Fprintf(&b, "<p style=\"margin:4px 0\">%s</p>", html.EscapeString(story.Description))
		}
		b.WriteString("</div>")
	}

	fmt.Fprintf(&b, "<hr><p style=\"color:#aaa;font-size:12px\">%d sources, %d articles collected, %d after dedup</p>",
		digest.Stats.SourcesAttempted, digest.Stats.Collected, digest.Stats.AfterDedup)
	b.WriteString("</body></html>")

	return b.String()
}

// FormatPlain renders the digest as plain text, one story per block.
func FormatPlain(digest *model.Digest) string {
	var b strings.Builder

	fmt.Fprintf(&b, "WORLD NEWS DIGEST - %s\n", digest.Date.Format("Monday, January 2, 2006"))
	b.WriteString(strings.Repeat("=", 40) + "\n\n")

	for i, story := range digest.TopStories {
		fmt.Fprintf(&b, "%d. %s\n", i+1, story.Title)
		fmt.Fprintf(&b, "   %s (%s) - score %.0f\n", story.SourceName, story.SourceRegion, story.Score)
		if story.Description != "" {
			fmt.Fprintf(&b, "   %s\n", story.Description)
		}
		fmt.Fprintf(&b, "   %s\n\n", story.URL)
	}

	return b.String()
}
