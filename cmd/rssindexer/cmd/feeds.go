package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var feedsCmd = &cobra.Command{
	Use:   "feeds",
	Short: "Print the resolved feed list without fetching anything",
	RunE: func(cmd *cobra.Command, args []string) error {
		_, _, source, err := setup()
		if err != nil {
			return err
		}

		urls, err := resolveFeeds(cmd.Context(), source)
		if err != nil {
			return err
		}
		for _, u := range urls {
			fmt.Println(u)
		}
		fmt.Printf("%d feeds\n", len(urls))
		return nil
	},
}
