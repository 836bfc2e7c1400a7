package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"rss-indexer/pkg/content"
	"rss-indexer/pkg/feed"
	"rss-indexer/pkg/httpclient"
	"rss-indexer/pkg/pipeline"
)

var (
	runMode string
	runWord string
	runTop  int
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Fetch every configured feed, index every article, and report",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, source, err := setup()
		if err != nil {
			return err
		}
		ctx := cmd.Context()

		modeName := cfg.Pipeline.Mode
		if runMode != "" {
			modeName = runMode
		}
		mode, err := pipeline.ParseMode(modeName)
		if err != nil {
			return err
		}

		client, err := httpclient.New(httpclient.Options{
			Profile:      httpclient.Profile(cfg.Fetch.Profile),
			Timeout:      cfg.Fetch.Timeout(),
			HostInterval: cfg.Fetch.HostInterval(),
			CacheSize:    cfg.Fetch.CacheSize,
		})
		if err != nil {
			return err
		}

		runner, err := pipeline.New(mode, pipeline.Options{
			Feeds:          feed.NewHTTPFetcher(client),
			Articles:       content.NewHTTPFetcher(client),
			Logger:         logger,
			FeedWorkers:    cfg.Pipeline.FeedWorkers,
			ArticleWorkers: cfg.Pipeline.ArticleWorkers,
			QueueSize:      cfg.Pipeline.QueueSize,
			MaxInFlight:    int64(cfg.Pipeline.MaxInFlight),
			MaxPerHost:     int64(cfg.Pipeline.MaxPerHost),
		})
		if err != nil {
			return err
		}

		feedRefs, err := source.Feeds(ctx)
		if err != nil {
			return err
		}
		logger.Info("starting run", "mode", mode, "feeds", len(feedRefs))

		ix, report, err := runner.Run(ctx, feedRefs)
		if err != nil {
			if errors.Is(err, pipeline.ErrAllFeedsFailed) {
				logger.Error("run produced no articles", "failed_feeds", report.FailedFeeds)
			}
			return err
		}

		fmt.Printf("indexed %d articles from %d feeds (%d words, %d failures, %d skipped)\n",
			ix.Articles(), report.Feeds-report.FailedFeeds, ix.Words(),
			report.FailedFeeds+report.FailedArticles, report.Skipped)

		if runWord != "" {
			for i, ac := range ix.TopArticles(runWord, runTop) {
				title := ac.Ref.Title
				if title == "" {
					title = ac.Ref.URL
				}
				fmt.Printf("%2d. %4d  %s [%s]\n", i+1, ac.Count, title, ac.Ref.URL)
			}
		}
		return nil
	},
}

func init() {
	runCmd.Flags().StringVarP(&runMode, "mode", "m", "", "execution mode: sequential, threads, async, pool (default from config)")
	runCmd.Flags().StringVarP(&runWord, "word", "w", "", "query the built index for a word after the run")
	runCmd.Flags().IntVarP(&runTop, "top", "n", 10, "number of articles to show for --word")
}
