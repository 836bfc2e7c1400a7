package main

import (
	"os"

	"rss-indexer/cmd/rssindexer/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
