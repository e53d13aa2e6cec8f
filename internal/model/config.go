package model

import "time"

// Config holds the full application configuration.
type Config struct {
	FeedsPath string `yaml:"feeds_path" mapstructure:"feeds_path"`

	Collection  CollectionConfig  `yaml:"collection" mapstructure:"collection"`
	Translation TranslationConfig `yaml:"translation" mapstructure:"translation"`
	Dedup       DedupConfig       `yaml:"dedup" mapstructure:"dedup"`
	Ranking     RankingConfig     `yaml:"ranking" mapstructure:"ranking"`
	Digest      DigestConfig      `yaml:"digest" mapstructure:"digest"`
	Cache       CacheConfig       `yaml:"cache" mapstructure:"cache"`
	Storage     StorageConfig     `yaml:"storage" mapstructure:"storage"`
	Email       EmailConfig       `yaml:"email" mapstructure:"email"`
	SMS         SMSConfig         `yaml:"sms" mapstructure:"sms"`
}

// CollectionConfig controls feed fetching.
type CollectionConfig struct {
	MaxArticlesPerSource int           `yaml:"max_articles_per_source" mapstructure:"max_articles_per_source"`
	Timeout              time.Duration `yaml:"timeout" mapstructure:"timeout"`
	MaxConcurrent        int           `yaml:"max_concurrent" mapstructure:"max_concurrent"`
	UserAgent            string        `yaml:"user_agent" mapstructure:"user_agent"`
	MaxBodyBytes         int64         `yaml:"max_body_bytes" mapstructure:"max_body_bytes"`
	RequestsPerSecond    float64       `yaml:"requests_per_second" mapstructure:"requests_per_second"`
	Burst                int           `yaml:"burst" mapstructure:"burst"`
	RespectRobots        bool          `yaml:"respect_robots" mapstructure:"respect_robots"`
}

// TranslationConfig controls normalization of non-target-language articles.
type TranslationConfig struct {
	Enabled        bool   `yaml:"enabled" mapstructure:"enabled"`
	TargetLanguage string `yaml:"target_language" mapstructure:"target_language"`
}

// DedupConfig controls lexical deduplication.
type DedupConfig struct {
	Enabled             bool    `yaml:"enabled" mapstructure:"enabled"`
	SimilarityThreshold float64 `yaml:"similarity_threshold" mapstructure:"similarity_threshold"`
}

// RankingConfig controls the significance-scoring oracle.
type RankingConfig struct {
	Provider  string `yaml:"provider" mapstructure:"provider"` // openai, anthropic, ollama, ""
	Model     string `yaml:"model" mapstructure:"model"`
	APIKey    string `yaml:"api_key" mapstructure:"api_key"`
	BaseURL   string `yaml:"base_url" mapstructure:"base_url"`
	Timeout   int    `yaml:"timeout" mapstructure:"timeout"` // seconds
	MaxTokens int    `yaml:"max_tokens" mapstructure:"max_tokens"`
	BatchSize int    `yaml:"batch_size" mapstructure:"batch_size"`
}

// DigestConfig bounds the digest views.
type DigestConfig struct {
	StoryCount       int `yaml:"story_count" mapstructure:"story_count"`
	SMSHeadlineCount int `yaml:"sms_headline_count" mapstructure:"sms_headline_count"`
}

// CacheConfig controls the translation cache layers.
type CacheConfig struct {
	Enabled   bool          `yaml:"enabled" mapstructure:"enabled"`
	Dir       string        `yaml:"dir" mapstructure:"dir"`
	MemoryTTL time.Duration `yaml:"memory_ttl" mapstructure:"memory_ttl"`
	DiskTTL   time.Duration `yaml:"disk_ttl" mapstructure:"disk_ttl"`
}

// StorageConfig locates the article archive.
type StorageConfig struct {
	Path string `yaml:"path" mapstructure:"path"`
}

// EmailConfig configures digest delivery over SMTP.
type EmailConfig struct {
	SMTPHost   string   `yaml:"smtp_host" mapstructure:"smtp_host"`
	SMTPPort   int      `yaml:"smtp_port" mapstructure:"smtp_port"`
	Sender     string   `yaml:"sender" mapstructure:"sender"`
	Password   string   `yaml:"password" mapstructure:"password"`
	Recipients []string `yaml:"recipients" mapstructure:"recipients"`
}

// SMSConfig configures headline delivery via an email-to-SMS gateway.
type SMSConfig struct {
	CarrierGateway string   `yaml:"carrier_gateway" mapstructure:"carrier_gateway"`
	Recipients     []string `yaml:"recipients" mapstructure:"recipients"`
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	return &Config{
		FeedsPath: "feeds.yaml",
		Collection: CollectionConfig{
			MaxArticlesPerSource: 10,
			Timeout:              30 * time.Second,
			MaxConcurrent:        10,
			UserAgent:            "worldbrief/0.1 (+https://github.com/worldbrief/worldbrief)",
			MaxBodyBytes:         2_000_000,
			RequestsPerSecond:    2,
			Burst:                5,
			RespectRobots:        false,
		},
		Translation: TranslationConfig{
			Enabled:        true,
			TargetLanguage: "en",
		},
		Dedup: DedupConfig{
			Enabled:             true,
			SimilarityThreshold: 0.7,
		},
		Ranking: RankingConfig{
			Provider:  "",
			Model:     "",
			Timeout:   60,
			MaxTokens: 4096,
			BatchSize: 50,
		},
		Digest: DigestConfig{
			StoryCount:       15,
			SMSHeadlineCount: 5,
		},
		Cache: CacheConfig{
			Enabled:   true,
			Dir:       "data/cache",
			MemoryTTL: 1 * time.Hour,
			DiskTTL:   24 * time.Hour,
		},
		Storage: StorageConfig{
			Path: "data/news_archive.db",
		},
		Email: EmailConfig{
			SMTPHost: "smtp.gmail.com",
			SMTPPort: 587,
		},
		SMS: SMSConfig{
			CarrierGateway: "txt.att.net",
		},
	}
}
