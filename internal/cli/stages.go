package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/worldbrief/worldbrief/internal/llm"
	"github.com/worldbrief/worldbrief/internal/model"
	"github.com/worldbrief/worldbrief/internal/pipeline"
	"github.com/worldbrief/worldbrief/internal/rank"
)

var rankTimeout time.Duration

// rankCmd re-ranks today's archived articles, for a workflow where
// collection and ranking run as separate scheduled jobs.
var rankCmd = &cobra.Command{
	Use:   "rank",
	Short: "Rank today's collected articles",
	Long: `Rank loads today's archived articles, scores them with the
configured model provider and writes the scores back to the archive.

Run 'worldbrief collect' first.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		provider, err := llm.NewProvider(llm.Config{
			Provider:  cfg.Ranking.Provider,
			Model:     cfg.Ranking.Model,
			APIKey:    cfg.Ranking.APIKey,
			BaseURL:   cfg.Ranking.BaseURL,
			Timeout:   cfg.Ranking.Timeout,
			MaxTokens: cfg.Ranking.MaxTokens,
		})
		if err != nil {
			return fmt.Errorf("initialize provider: %w", err)
		}
		if provider == nil {
			return fmt.Errorf("no model provider configured; set ranking.provider or use --provider on 'run'")
		}

		ctx, cancel := context.WithTimeout(context.Background(), rankTimeout)
		defer cancel()

		archive, err := openArchive()
		if err != nil {
			return err
		}
		defer func() { _ = archive.Close() }()

		today := time.Now().UTC()
		stored, err := archive.ArticlesByDate(ctx, today, 0)
		if err != nil {
			return fmt.Errorf("load articles: %w", err)
		}
		if len(stored) == 0 {
			fmt.Println("No articles found to rank. Run 'worldbrief collect' first.")
			return nil
		}

		articles := make([]model.Article, 0, len(stored))
		for _, art := range stored {
			articles = append(articles, art.Article)
		}

		ranked, err := rank.NewRanker(provider, cfg.Ranking.BatchSize).Rank(ctx, articles)
		if err != nil {
			return fmt.Errorf("rank articles: %w", err)
		}

		if _, err := archive.SaveArticles(ctx, ranked, today); err != nil {
			return fmt.Errorf("save rankings: %w", err)
		}

		fmt.Printf("Ranked %d articles\n", len(ranked))
		return nil
	},
}

// deliverCmd sends today's already-ranked digest without recollecting.
var deliverCmd = &cobra.Command{
	Use:   "deliver",
	Short: "Deliver today's digest from the archive",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()

		archive, err := openArchive()
		if err != nil {
			return err
		}
		defer func() { _ = archive.Close() }()

		today := time.Now().UTC()
		articles, err := archive.ArticlesByDate(ctx, today, cfg.Digest.StoryCount)
		if err != nil {
			return fmt.Errorf("load articles: %w", err)
		}
		if len(articles) == 0 {
			fmt.Println("No articles found to deliver. Run the full pipeline first.")
			return nil
		}

		digest := pipeline.Assemble(articles, model.RunStats{}, cfg.Digest)
		emailSent, smsSent := deliverDigest(cfg, digest)
		if !emailSent && !smsSent {
			return fmt.Errorf("no delivery channel succeeded")
		}

		if err := archive.MarkDigestSent(ctx, digest.Date, emailSent, smsSent); err != nil {
			return fmt.Errorf("record delivery: %w", err)
		}

		fmt.Printf("Delivered %d stories (email: %v, sms: %v)\n",
			digest.StoryCount(), emailSent, smsSent)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(rankCmd)
	rootCmd.AddCommand(deliverCmd)

	rankCmd.Flags().DurationVar(&rankTimeout, "timeout", 10*time.Minute, "overall ranking timeout")
}
