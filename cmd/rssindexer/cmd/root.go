// Package cmd implements the rssindexer command tree.
package cmd

import (
	"context"
	"log/slog"

	"github.com/spf13/cobra"

	"rss-indexer/pkg/config"
	"rss-indexer/pkg/feed"
	"rss-indexer/pkg/logging"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:           "rssindexer",
	Short:         "Fetch RSS feeds and build a word-frequency index over their articles",
	SilenceUsage:  true,
	SilenceErrors: false,
}

// Execute runs the command tree.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to YAML config (default: $RSS_INDEXER_CONFIG)")
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(feedsCmd)
}

// setup loads config, builds the logger, and resolves the feed list source.
func setup() (config.Config, *slog.Logger, feed.ListSource, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return cfg, nil, nil, err
	}
	logger := logging.New(cfg.Logging.Level)

	var source feed.ListSource
	if cfg.FeedFile != "" {
		source = feed.NewFileSource(cfg.FeedFile)
	} else {
		source = feed.NewConfigSource(cfg.Feeds)
	}
	return cfg, logger, source, nil
}

func resolveFeeds(ctx context.Context, source feed.ListSource) ([]string, error) {
	refs, err := source.Feeds(ctx)
	if err != nil {
		return nil, err
	}
	urls := make([]string, 0, len(refs))
	for _, r := range refs {
		urls = append(urls, r.URL)
	}
	return urls, nil
}
