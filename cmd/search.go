package cmd

import (
	"context"
	"fmt"
	"time"

	"hackertok/internal/hackernews"
	"hackertok/internal/search"

	"github.com/spf13/cobra"
)

var (
	searchLocal bool
	searchSort  string
	searchPage  int
	searchLimit int
)

// searchCmd finds stories through Algolia or the local index.
var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search Hacker News stories",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := GetConfig()
		out := cmd.OutOrStdout()

		if searchLocal {
			idx, err := search.Open(cfg.Search.IndexPath)
			if err != nil {
				return err
			}
			defer idx.Close()
			hits, err := idx.Search(args[0], searchLimit)
			if err != nil {
				return err
			}
			for i, h := range hits {
				fmt.Fprintf(out, "%3d. %s\n     %s\n", i+1, h.Story.Title, storyMeta(h.Story, false, false))
			}
			return nil
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
		defer cancel()
		res, err := newHNClient(cfg).Search(ctx, hackernews.SearchParams{
			Query:       args[0],
			Sort:        hackernews.SearchSort(searchSort),
			Page:        searchPage,
			HitsPerPage: searchLimit,
		})
		if err != nil {
			return err
		}
		for i, s := range res.Hits {
			fmt.Fprintf(out, "%3d. %s\n     %s\n", res.Page*res.HitsPerPage+i+1, s.Title, storyMeta(s, false, false))
		}
		fmt.Fprintf(out, "page %d of %d, %d hits\n", res.Page+1, res.NbPages, res.NbHits)
		return nil
	},
}

func init() {
	searchCmd.Flags().BoolVar(&searchLocal, "local", false, "search the local index built by serve")
	searchCmd.Flags().StringVar(&searchSort, "sort", "relevance", "relevance or date")
	searchCmd.Flags().IntVar(&searchPage, "page", 0, "result page (0-based)")
	searchCmd.Flags().IntVar(&searchLimit, "limit", 20, "results per page")
	rootCmd.AddCommand(searchCmd)
}
