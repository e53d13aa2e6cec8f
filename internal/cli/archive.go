package cli

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"
	"unicode/utf8"

	"github.com/spf13/cobra"

	"github.com/worldbrief/worldbrief/internal/model"
	"github.com/worldbrief/worldbrief/internal/storage"
	"github.com/worldbrief/worldbrief/internal/util"
)

var (
	searchDays     int
	searchRegion   string
	searchCategory string
	searchLimit    int
	digestDateStr  string
	digestLimit    int
	statsDays      int
	recentDays     int
	recentLimit    int
	exportDays     int
	exportFormat   string
)

// searchCmd queries the article archive with full-text search.
var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search the news archive",
	Long: `Search archived articles using full-text search over titles and
descriptions.

Example:
  worldbrief search "climate summit"
  worldbrief search earthquake --days 30 --region asia_pacific`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		archive, err := openArchive()
		if err != nil {
			return err
		}
		defer func() { _ = archive.Close() }()

		results, err := archive.Search(context.Background(), args[0], storage.SearchOptions{
			Since:    time.Now().UTC().AddDate(0, 0, -searchDays),
			Region:   searchRegion,
			Category: searchCategory,
			Limit:    searchLimit,
		})
		if err != nil {
			return fmt.Errorf("search: %w", err)
		}
		if len(results) == 0 {
			fmt.Printf("No results found for %q\n", args[0])
			return nil
		}

		printArticleTable(results)
		fmt.Printf("\nFound %d results\n", len(results))
		return nil
	},
}

// digestCmd shows an archived digest.
var digestCmd = &cobra.Command{
	Use:   "digest",
	Short: "Show the digest for a specific date",
	RunE: func(cmd *cobra.Command, args []string) error {
		targetDate := time.Now().UTC()
		if digestDateStr != "" {
			var err error
			targetDate, err = time.Parse("2006-01-02", digestDateStr)
			if err != nil {
				return fmt.Errorf("invalid date format, use YYYY-MM-DD: %w", err)
			}
		}

		archive, err := openArchive()
		if err != nil {
			return err
		}
		defer func() { _ = archive.Close() }()

		articles, err := archive.ArticlesByDate(context.Background(), targetDate, digestLimit)
		if err != nil {
			return fmt.Errorf("load digest: %w", err)
		}
		if len(articles) == 0 {
			fmt.Printf("No digest found for %s\n", targetDate.Format("2006-01-02"))
			return nil
		}

		fmt.Printf("World News Digest - %s\n\n", targetDate.Format("January 2, 2006"))
		for i, art := range articles {
			fmt.Printf("%d. %s\n", i+1, art.Title)
			fmt.Printf("   %s | %s | Score: %.0f\n", art.SourceRegion, art.SourceName, art.Score)
			fmt.Printf("   %s\n", art.URL)
			if art.Description != "" {
				desc := art.Description
				if utf8.RuneCountInString(desc) > 150 {
					desc = util.Truncate(desc, 150) + "..."
				}
				fmt.Printf("   %s\n", desc)
			}
			fmt.Println()
		}
		return nil
	},
}

// statsCmd summarizes archive activity.
var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show collection statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		archive, err := openArchive()
		if err != nil {
			return err
		}
		defer func() { _ = archive.Close() }()

		stats, err := archive.Stats(context.Background(), statsDays)
		if err != nil {
			return fmt.Errorf("load stats: %w", err)
		}

		fmt.Printf("Collection statistics, last %d days\n\n", stats.PeriodDays)
		fmt.Printf("Total articles:  %d\n", stats.TotalArticles)
		fmt.Printf("Collection runs: %d\n", stats.CollectionRuns)
		if len(stats.ArticlesByRegion) > 0 {
			fmt.Printf("\nArticles by region:\n")
			for region, count := range stats.ArticlesByRegion {
				fmt.Printf("  %-16s %d\n", region, count)
			}
		}
		return nil
	},
}

// recentCmd shows recent top articles.
var recentCmd = &cobra.Command{
	Use:   "recent",
	Short: "Show recent top articles",
	RunE: func(cmd *cobra.Command, args []string) error {
		archive, err := openArchive()
		if err != nil {
			return err
		}
		defer func() { _ = archive.Close() }()

		articles, err := archive.RecentArticles(context.Background(), recentDays, recentLimit)
		if err != nil {
			return fmt.Errorf("load recent articles: %w", err)
		}
		if len(articles) == 0 {
			fmt.Println("No recent articles found")
			return nil
		}

		printArticleTable(articles)
		return nil
	},
}

// exportCmd dumps recent articles to CSV or JSON.
var exportCmd = &cobra.Command{
	Use:   "export <output>",
	Short: "Export articles to CSV or JSON",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		archive, err := openArchive()
		if err != nil {
			return err
		}
		defer func() { _ = archive.Close() }()

		articles, err := archive.RecentArticles(context.Background(), exportDays, 10000)
		if err != nil {
			return fmt.Errorf("load articles: %w", err)
		}
		if len(articles) == 0 {
			fmt.Println("No articles to export")
			return nil
		}

		output := args[0]
		if exportFormat == "json" || filepath.Ext(output) == ".json" {
			err = exportJSON(output, articles)
		} else {
			err = exportCSV(output, articles)
		}
		if err != nil {
			return err
		}

		fmt.Printf("Exported %d articles to %s\n", len(articles), output)
		return nil
	},
}

func openArchive() (*storage.Archive, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return storage.Open(cfg.Storage.Path)
}

func printArticleTable(articles []model.RankedArticle) {
	fmt.Printf("%-6s %-14s %-52s %s\n", "Score", "Region", "Title", "Source")
	for _, art := range articles {
		title := art.Title
		if utf8.RuneCountInString(title) > 50 {
			title = util.Truncate(title, 50) + "..."
		}
		fmt.Printf("%5.0f  %-14s %-52s %s\n", art.Score, art.SourceRegion, title, art.SourceName)
	}
}

func exportJSON(path string, articles []model.RankedArticle) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create output file: %w", err)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(articles)
}

func exportCSV(path string, articles []model.RankedArticle) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create output file: %w", err)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"id", "title", "url", "source", "region", "category", "score", "collected_at", "description"}); err != nil {
		return err
	}
	for _, art := range articles {
		desc := util.Truncate(art.Description, 200)
		record := []string{
			art.ID, art.Title, art.URL, art.SourceName,
			string(art.SourceRegion), string(art.SourceCategory),
			strconv.FormatFloat(art.Score, 'f', 1, 64),
			art.CollectedAt.UTC().Format(time.RFC3339),
			desc,
		}
		if err := w.Write(record); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func init() {
	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(digestCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(recentCmd)
	rootCmd.AddCommand(exportCmd)

	searchCmd.Flags().IntVarP(&searchDays, "days", "d", 7, "search last N days")
	searchCmd.Flags().StringVarP(&searchRegion, "region", "r", "", "filter by region")
	searchCmd.Flags().StringVarP(&searchCategory, "category", "c", "", "filter by category")
	searchCmd.Flags().IntVarP(&searchLimit, "limit", "l", 20, "max results")

	digestCmd.Flags().StringVarP(&digestDateStr, "date", "d", "", "date (YYYY-MM-DD), defaults to today")
	digestCmd.Flags().IntVarP(&digestLimit, "limit", "l", 15, "number of stories")

	statsCmd.Flags().IntVarP(&statsDays, "days", "d", 30, "stats for last N days")

	recentCmd.Flags().IntVarP(&recentDays, "days", "d", 1, "show articles from last N days")
	recentCmd.Flags().IntVarP(&recentLimit, "limit", "l", 10, "max articles to show")

	exportCmd.Flags().IntVarP(&exportDays, "days", "d", 30, "export last N days")
	exportCmd.Flags().StringVarP(&exportFormat, "format", "f", "csv", "output format: csv or json")
}
