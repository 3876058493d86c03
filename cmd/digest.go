package cmd

import (
	"fmt"
	"sort"

	"hackertok/internal/digest"

	"github.com/spf13/cobra"
)

var digestCmd = &cobra.Command{
	Use:   "digest",
	Short: "Digest utilities",
}

// digestShowCmd prints the front matter of a digest, by default the latest
// one written for the configured feed.
var digestShowCmd = &cobra.Command{
	Use:   "show [markdown_path]",
	Short: "Parse a digest and print its front matter and story IDs",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := GetConfig()
		var (
			doc  digest.Document
			path string
			err  error
		)
		if len(args) == 1 {
			path = args[0]
			doc, err = digest.ParseFile(path)
		} else {
			doc, path, err = digest.LatestFor(cfg.Digest.OutputDir, cfg.Session.Feed)
		}
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "path: %s\n", path)
		keys := make([]string, 0, len(doc.FrontMatter))
		for k := range doc.FrontMatter {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			if k == "story_ids" {
				continue
			}
			fmt.Fprintf(out, "%s: %v\n", k, doc.FrontMatter[k])
		}
		fmt.Fprintf(out, "story_ids: %v\n", doc.StoryIDs())
		fmt.Fprintf(out, "body bytes: %d\n", len(doc.Body))
		return nil
	},
}

func init() {
	digestCmd.AddCommand(digestShowCmd)
	rootCmd.AddCommand(digestCmd)
}
