package cli

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"github.com/worldbrief/worldbrief/internal/model"
	"github.com/worldbrief/worldbrief/internal/pipeline"
	"github.com/worldbrief/worldbrief/internal/sources"
)

var (
	sourcesRegion   string
	sourcesCategory string
	healthTimeout   time.Duration
)

// sourcesCmd represents the sources command
var sourcesCmd = &cobra.Command{
	Use:   "sources",
	Short: "Inspect the configured feed registry",
}

var sourcesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List enabled sources",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if feedsPath != "" {
			cfg.FeedsPath = feedsPath
		}

		srcs, err := sources.Load(cfg.FeedsPath)
		if err != nil {
			return fmt.Errorf("load sources: %w", err)
		}

		if sourcesRegion != "" {
			srcs = sources.ByRegion(srcs, model.Region(sourcesRegion))
		}
		if sourcesCategory != "" {
			srcs = sources.ByCategory(srcs, model.Category(sourcesCategory))
		}

		sort.Slice(srcs, func(i, j int) bool {
			if srcs[i].Region != srcs[j].Region {
				return srcs[i].Region < srcs[j].Region
			}
			return srcs[i].Name < srcs[j].Name
		})

		for _, src := range srcs {
			fmt.Printf("%-28s %-14s %-10s %s\n", src.Name, src.Region, src.Category, src.URL)
		}
		fmt.Printf("\n%d sources\n", len(srcs))
		return nil
	},
}

var sourcesHealthCmd = &cobra.Command{
	Use:   "health",
	Short: "Probe every source and report reachability",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if feedsPath != "" {
			cfg.FeedsPath = feedsPath
		}

		p, err := pipeline.New(cfg)
		if err != nil {
			return err
		}

		srcs, err := p.Sources()
		if err != nil {
			return fmt.Errorf("load sources: %w", err)
		}

		ctx, cancel := context.WithTimeout(context.Background(), healthTimeout)
		defer cancel()

		health := p.HealthCheck(ctx, srcs)

		names := make([]string, 0, len(health))
		for name := range health {
			names = append(names, name)
		}
		sort.Strings(names)

		healthy := 0
		for _, name := range names {
			status := "FAIL"
			if health[name] {
				status = "ok"
				healthy++
			}
			fmt.Printf("%-28s %s\n", name, status)
		}
		fmt.Printf("\n%d/%d sources reachable\n", healthy, len(health))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(sourcesCmd)
	sourcesCmd.AddCommand(sourcesListCmd)
	sourcesCmd.AddCommand(sourcesHealthCmd)

	sourcesCmd.PersistentFlags().StringVar(&feedsPath, "feeds", "", "path to feeds registry (default from config)")
	sourcesListCmd.Flags().StringVar(&sourcesRegion, "region", "", "filter by region")
	sourcesListCmd.Flags().StringVar(&sourcesCategory, "category", "", "filter by category")
	sourcesHealthCmd.Flags().DurationVar(&healthTimeout, "timeout", 2*time.Minute, "overall probe timeout")
}
