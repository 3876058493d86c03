package cmd

import (
	"context"
	"fmt"
	"time"

	"hackertok/internal/redisclient"
	"hackertok/internal/storage"

	"github.com/spf13/cobra"
)

// pingCmd checks the configured Redis server and reports how many events
// live under the configured key prefix.
var pingCmd = &cobra.Command{
	Use:   "ping",
	Short: "Ping Redis and count stored events",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := GetConfig()

		rdb := redisclient.New(cfg.Redis)
		defer rdb.Close()

		ctx, cancel := context.WithTimeout(cmd.Context(), storage.DefaultProbeTimeout)
		defer cancel()

		start := time.Now()
		res, err := rdb.Ping(ctx).Result()
		if err != nil {
			return err
		}
		n, err := storage.NewRedisStore(rdb, cfg.Redis.Prefix).Count(ctx)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "%s (%s)\n", res, time.Since(start).Round(time.Millisecond))
		fmt.Fprintf(out, "events under %q: %d\n", cfg.Redis.Prefix, n)
		return nil
	},
}

func init() {
	redisCmd.AddCommand(pingCmd)
}
