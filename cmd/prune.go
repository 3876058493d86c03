package cmd

import (
	"context"
	"fmt"
	"time"

	"hackertok/internal/storage"

	"github.com/spf13/cobra"
)

var pruneMax int

// pruneCmd drops events past the retention window or above the cap.
var pruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Remove old events from the history",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := GetConfig()
		maxEvents := cfg.Store.MaxEvents
		if cmd.Flags().Changed("max-events") {
			maxEvents = pruneMax
		}
		return withStore(cmd.Context(), func(ctx context.Context, st storage.Store) error {
			n, err := st.Prune(ctx, storage.RetentionCutoff(cfg.Store, time.Now()), maxEvents)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "pruned %d events\n", n)
			return nil
		})
	},
}

func init() {
	pruneCmd.Flags().IntVar(&pruneMax, "max-events", 0, "keep at most this many events (default: store.max_events)")
	rootCmd.AddCommand(pruneCmd)
}
