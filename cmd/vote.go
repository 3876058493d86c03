package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"

	"hackertok/internal/upstream"

	"github.com/spf13/cobra"
)

var voteDown bool

// voteCmd casts a single vote through the relay, outside any session.
var voteCmd = &cobra.Command{
	Use:   "vote <item-id>",
	Short: "Upvote (or downvote) a Hacker News item on your account",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid item id %q: %w", args[0], err)
		}
		dir := upstream.Up
		if voteDown {
			dir = upstream.Down
		}
		return castVote(cmd.Context(), cmd.OutOrStdout(), newVoter(GetConfig()), id, dir)
	},
}

func castVote(ctx context.Context, w io.Writer, c *upstream.Client, id int64, dir upstream.Direction) error {
	if !c.Authenticated() {
		return errors.New("vote: no relay endpoint or token configured (upstream.endpoint, upstream.token)")
	}
	if err := c.VoteDirection(ctx, id, dir); err != nil {
		return err
	}
	slog.Debug("vote: sent", "item", id, "direction", dir)
	fmt.Fprintf(w, "voted %s on %d\n", dir, id)
	return nil
}

func init() {
	voteCmd.Flags().BoolVar(&voteDown, "down", false, "downvote instead of upvote")
	rootCmd.AddCommand(voteCmd)
}
