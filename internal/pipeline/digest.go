package pipeline

import (
	"time"

	"github.com/worldbrief/worldbrief/internal/model"
)

// Assemble builds the final digest from event-deduplicated ranked
// articles. Stories keep their ranking order; SMS headlines are a prefix
// of the stories, so both views always agree on the top of the ranking.
func Assemble(top []model.RankedArticle, stats model.RunStats, cfg model.DigestConfig) *model.Digest {
	storyCount := cfg.StoryCount
	if storyCount <= 0 {
		storyCount = 15
	}
	smsCount := cfg.SMSHeadlineCount
	if smsCount <= 0 {
		smsCount = 5
	}

	stories := top
	if len(stories) > storyCount {
		stories = stories[:storyCount]
	}

	headlines := stories
	if len(headlines) > smsCount {
		headlines = headlines[:smsCount]
	}

	return &model.Digest{
		Date:         time.Now().UTC(),
		TopStories:   stories,
		SMSHeadlines: headlines,
		Stats:        stats,
	}
}
