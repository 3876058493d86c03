package cmd

import "github.com/spf13/cobra"

// redisCmd groups commands for the redis event-store backend.
var redisCmd = &cobra.Command{
	Use:   "redis",
	Short: "Redis event-store utilities",
}

func init() {
	rootCmd.AddCommand(redisCmd)
}
