package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/worldbrief/worldbrief/internal/delivery"
	"github.com/worldbrief/worldbrief/internal/model"
	"github.com/worldbrief/worldbrief/internal/pipeline"
	"github.com/worldbrief/worldbrief/internal/storage"
)

var (
	feedsPath    string
	provider     string
	providerModl string
	runTimeout   time.Duration
	skipDelivery bool
	skipStorage  bool
	region       string
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Collect, rank and deliver today's news digest",
	Long: `Run executes a complete digest cycle:
- Collect articles from all enabled RSS sources concurrently
- Translate non-English articles
- Remove duplicate and same-event coverage
- Rank stories by significance
- Archive everything and deliver the digest

Example:
  worldbrief run
  worldbrief run --provider anthropic --skip-delivery
  worldbrief run --feeds feeds.yaml --region europe`,
	RunE: runDigest,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVar(&feedsPath, "feeds", "", "path to feeds registry (default from config)")
	runCmd.Flags().StringVar(&provider, "provider", "", "model provider for ranking (openai, anthropic, ollama)")
	runCmd.Flags().StringVar(&providerModl, "llm-model", "", "model name for ranking")
	runCmd.Flags().DurationVar(&runTimeout, "timeout", 15*time.Minute, "overall run timeout")
	runCmd.Flags().BoolVar(&skipDelivery, "skip-delivery", false, "assemble and archive the digest without sending it")
	runCmd.Flags().BoolVar(&skipStorage, "skip-storage", false, "do not archive the digest")
	runCmd.Flags().StringVar(&region, "region", "", "restrict collection to one region")
}

func runDigest(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	applyRunFlags(cfg)

	ctx, cancel := context.WithTimeout(context.Background(), runTimeout)
	defer cancel()

	p, err := pipeline.New(cfg)
	if err != nil {
		return err
	}

	srcs, err := p.Sources()
	if err != nil {
		return fmt.Errorf("load sources: %w", err)
	}
	if region != "" {
		srcs = filterByRegion(srcs, region)
	}

	if verbose {
		fmt.Fprintf(os.Stderr, "Sources: %d\n", len(srcs))
		fmt.Fprintf(os.Stderr, "Provider: %s\n", cfg.Ranking.Provider)
		fmt.Fprintln(os.Stderr)
	}

	digest, err := p.Run(ctx, srcs)
	if err != nil {
		if errors.Is(err, pipeline.ErrNoArticles) {
			return fmt.Errorf("every source failed, nothing to assemble: %w", err)
		}
		return fmt.Errorf("digest run failed: %w", err)
	}

	if !skipStorage {
		if err := archiveDigest(ctx, cfg, digest); err != nil {
			// Archiving problems should not lose the digest itself.
			fmt.Fprintf(os.Stderr, "Warning: archive failed: %v\n", err)
		}
	}

	emailSent, smsSent := false, false
	if !skipDelivery {
		emailSent, smsSent = deliverDigest(cfg, digest)
	}
	if !skipStorage && (emailSent || smsSent) {
		if err := markDelivered(ctx, cfg, digest, emailSent, smsSent); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: recording delivery failed: %v\n", err)
		}
	}

	printSummary(digest)
	return nil
}

func applyRunFlags(cfg *model.Config) {
	if feedsPath != "" {
		cfg.FeedsPath = feedsPath
	}
	if provider != "" {
		cfg.Ranking.Provider = provider
		switch provider {
		case "openai":
			cfg.Ranking.APIKey = os.Getenv("OPENAI_API_KEY")
		case "anthropic", "claude":
			cfg.Ranking.APIKey = os.Getenv("ANTHROPIC_API_KEY")
		}
	}
	if providerModl != "" {
		cfg.Ranking.Model = providerModl
	}
}

func archiveDigest(ctx context.Context, cfg *model.Config, digest *model.Digest) error {
	archive, err := storage.Open(cfg.Storage.Path)
	if err != nil {
		return err
	}
	defer func() { _ = archive.Close() }()

	if _, err := archive.SaveArticles(ctx, digest.TopStories, digest.Date); err != nil {
		return err
	}
	return archive.SaveRunStats(ctx, digest.Stats)
}

func deliverDigest(cfg *model.Config, digest *model.Digest) (emailSent, smsSent bool) {
	mailer := delivery.NewMailer(cfg.Email.SMTPHost, cfg.Email.SMTPPort, cfg.Email.Sender, cfg.Email.Password)

	if len(cfg.Email.Recipients) > 0 {
		email := delivery.NewEmailDelivery(mailer, cfg.Email.Recipients)
		if err := email.SendDigest(digest); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: email delivery failed: %v\n", err)
		} else {
			emailSent = true
		}
	}

	if len(cfg.SMS.Recipients) > 0 {
		sms := delivery.NewSMSDelivery(mailer, cfg.SMS.CarrierGateway, cfg.SMS.Recipients)
		if err := sms.SendHeadlines(digest); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: SMS delivery failed: %v\n", err)
		} else {
			smsSent = true
		}
	}

	return emailSent, smsSent
}

func markDelivered(ctx context.Context, cfg *model.Config, digest *model.Digest, emailSent, smsSent bool) error {
	archive, err := storage.Open(cfg.Storage.Path)
	if err != nil {
		return err
	}
	defer func() { _ = archive.Close() }()
	return archive.MarkDigestSent(ctx, digest.Date, emailSent, smsSent)
}

func filterByRegion(srcs []model.Source, region string) []model.Source {
	var out []model.Source
	for _, src := range srcs {
		if string(src.Region) == region {
			out = append(out, src)
		}
	}
	return out
}

func printSummary(digest *model.Digest) {
	fmt.Printf("Digest for %s\n", digest.Date.Format("2006-01-02"))
	fmt.Printf("  Sources: %d/%d succeeded\n", digest.Stats.SourcesSucceeded, digest.Stats.SourcesAttempted)
	fmt.Printf("  Articles: %d collected, %d after dedup\n", digest.Stats.Collected, digest.Stats.AfterDedup)
	fmt.Printf("  Stories: %d (plus %d SMS headlines)\n", digest.StoryCount(), len(digest.SMSHeadlines))
	fmt.Printf("  Duration: %s\n\n", digest.Stats.Duration.Round(time.Millisecond))

	for i, story := range digest.TopStories {
		fmt.Printf("%2d. [%3.0f] %s\n", i+1, story.Score, story.Title)
		fmt.Printf("          %s (%s)\n", story.SourceName, story.SourceRegion)
	}
}
