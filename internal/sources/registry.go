package sources

import (
	"fmt"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/worldbrief/worldbrief/internal/model"
)

// feedsFile is the YAML layout of the feeds registry:
//
//	sources:
//	  - name: BBC World
//	    region: europe
//	    category: general
//	    url: https://feeds.bbci.co.uk/news/world/rss.xml
//	    language: en
//	    priority: high
type feedsFile struct {
	Sources []sourceEntry `yaml:"sources"`
}

type sourceEntry struct {
	Name     string `yaml:"name"`
	Region   string `yaml:"region"`
	Category string `yaml:"category"`
	URL      string `yaml:"url"`
	Language string `yaml:"language"`
	Priority string `yaml:"priority"`
	Enabled  *bool  `yaml:"enabled"`
}

// Load reads the feeds registry and returns all enabled sources. Malformed
// entries are skipped with a warning so one bad source never blocks the rest.
func Load(path string) ([]model.Source, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read feeds file: %w", err)
	}

	var file feedsFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse feeds file: %w", err)
	}

	var out []model.Source
	for _, entry := range file.Sources {
		source, err := buildSource(entry)
		if err != nil {
			slog.Warn("skipping feed entry", "name", entry.Name, "error", err)
			continue
		}
		if !source.Enabled {
			continue
		}
		out = append(out, source)
	}

	return out, nil
}

func buildSource(entry sourceEntry) (model.Source, error) {
	if entry.Name == "" {
		return model.Source{}, fmt.Errorf("missing name")
	}
	if entry.URL == "" {
		return model.Source{}, fmt.Errorf("missing url")
	}

	region := model.Region(entry.Region)
	if !region.Valid() {
		return model.Source{}, fmt.Errorf("unknown region %q", entry.Region)
	}
	category := model.Category(entry.Category)
	if !category.Valid() {
		return model.Source{}, fmt.Errorf("unknown category %q", entry.Category)
	}

	language := entry.Language
	if language == "" {
		language = "en"
	}
	priority := entry.Priority
	if priority == "" {
		priority = "medium"
	}
	enabled := true
	if entry.Enabled != nil {
		enabled = *entry.Enabled
	}

	return model.Source{
		Name:     entry.Name,
		Region:   region,
		Category: category,
		URL:      entry.URL,
		Language: language,
		Priority: priority,
		Enabled:  enabled,
	}, nil
}

// ByRegion filters sources by region.
func ByRegion(sources []model.Source, region model.Region) []model.Source {
	var out []model.Source
	for _, s := range sources {
		if s.Region == region {
			out = append(out, s)
		}
	}
	return out
}

// ByCategory filters sources by category.
func ByCategory(sources []model.Source, category model.Category) []model.Source {
	var out []model.Source
	for _, s := range sources {
		if s.Category == category {
			out = append(out, s)
		}
	}
	return out
}

// ByPriority filters sources by priority level.
func ByPriority(sources []model.Source, priority string) []model.Source {
	var out []model.Source
	for _, s := range sources {
		if s.Priority == priority {
			out = append(out, s)
		}
	}
	return out
}

// NeedingTranslation returns sources whose language differs from target.
func NeedingTranslation(sources []model.Source, target string) []model.Source {
	var out []model.Source
	for _, s := range sources {
		if s.Language != target {
			out = append(out, s)
		}
	}
	return out
}
