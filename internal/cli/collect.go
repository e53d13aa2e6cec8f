package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/worldbrief/worldbrief/internal/model"
	"github.com/worldbrief/worldbrief/internal/pipeline"
	"github.com/worldbrief/worldbrief/internal/rank"
	"github.com/worldbrief/worldbrief/internal/storage"
)

var (
	collectTimeout     time.Duration
	collectSkipStorage bool
)

// collectCmd runs the gathering stages only, leaving ranking and delivery
// for a later full run.
var collectCmd = &cobra.Command{
	Use:   "collect",
	Short: "Collect, translate and deduplicate articles without ranking",
	Long: `Collect fetches every enabled feed, translates non-English coverage
and removes duplicates, then archives the result with neutral scores.

Useful for testing the feed registry or for splitting collection and
ranking across separate scheduled jobs.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if feedsPath != "" {
			cfg.FeedsPath = feedsPath
		}

		ctx, cancel := context.WithTimeout(context.Background(), collectTimeout)
		defer cancel()

		p, err := pipeline.New(cfg)
		if err != nil {
			return err
		}

		srcs, err := p.Sources()
		if err != nil {
			return fmt.Errorf("load sources: %w", err)
		}

		articles, stats, err := p.Collect(ctx, srcs)
		if err != nil {
			return fmt.Errorf("collection failed: %w", err)
		}

		if !collectSkipStorage {
			if err := archiveUnranked(ctx, cfg, articles); err != nil {
				fmt.Fprintf(os.Stderr, "Warning: archive failed: %v\n", err)
			}
		}

		fmt.Printf("Collected %d articles from %d/%d sources, %d after dedup\n",
			stats.Collected, stats.SourcesSucceeded, stats.SourcesAttempted, stats.AfterDedup)
		for _, msg := range stats.Errors {
			fmt.Fprintf(os.Stderr, "  failed: %s\n", msg)
		}
		return nil
	},
}

// archiveUnranked stores collected articles with neutral scores so they
// are searchable before any ranking has happened.
func archiveUnranked(ctx context.Context, cfg *model.Config, articles []model.Article) error {
	archive, err := storage.Open(cfg.Storage.Path)
	if err != nil {
		return err
	}
	defer func() { _ = archive.Close() }()

	ranked := make([]model.RankedArticle, 0, len(articles))
	for _, art := range articles {
		ranked = append(ranked, model.RankedArticle{
			Article:   art,
			Score:     rank.NeutralScore,
			Rationale: "not ranked",
		})
	}

	_, err = archive.SaveArticles(ctx, ranked, time.Now().UTC())
	return err
}

func init() {
	rootCmd.AddCommand(collectCmd)

	collectCmd.Flags().StringVar(&feedsPath, "feeds", "", "path to feeds registry (default from config)")
	collectCmd.Flags().DurationVar(&collectTimeout, "timeout", 10*time.Minute, "overall collection timeout")
	collectCmd.Flags().BoolVar(&collectSkipStorage, "skip-storage", false, "do not archive the collected articles")
}
