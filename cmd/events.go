package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"hackertok/internal/model"
	"hackertok/internal/storage"
	"hackertok/internal/topics"

	"github.com/spf13/cobra"
)

// eventsCmd groups event-store subcommands.
var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "Inspect and edit the interaction history",
}

var (
	eventsType  string
	eventsLimit int
	eventsJSON  bool
	addDwellMs  int64
)

var eventsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recorded events, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(cmd.Context(), func(ctx context.Context, st storage.Store) error {
			var (
				events []model.Event
				err    error
			)
			if eventsType != "" {
				t, perr := model.ParseEventType(eventsType)
				if perr != nil {
					return perr
				}
				events, err = st.OfType(ctx, t)
			} else {
				events, err = st.All(ctx)
				for i, j := 0, len(events)-1; i < j; i, j = i+1, j-1 {
					events[i], events[j] = events[j], events[i]
				}
			}
			if err != nil {
				return err
			}
			if eventsLimit > 0 && len(events) > eventsLimit {
				events = events[:eventsLimit]
			}

			out := cmd.OutOrStdout()
			if eventsJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(events)
			}
			for _, ev := range events {
				line := fmt.Sprintf("%-6d %s %-16s post=%d", ev.ID, ev.Time().Format(time.RFC3339), ev.Type, ev.PostID)
				if ev.DwellMs > 0 {
					line += fmt.Sprintf(" dwell=%dms", ev.DwellMs)
				}
				if ev.Title != "" {
					line += " " + strconv.Quote(ev.Title)
				}
				fmt.Fprintln(out, line)
			}
			return nil
		})
	},
}

var eventsAddCmd = &cobra.Command{
	Use:   "add <type> <item-id>",
	Short: "Record an event for a Hacker News item",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		t, err := model.ParseEventType(args[0])
		if err != nil {
			return err
		}
		id, err := strconv.ParseInt(args[1], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid item id %q: %w", args[1], err)
		}
		cfg := GetConfig()
		return withStore(cmd.Context(), func(ctx context.Context, st storage.Store) error {
			var ev model.Event
			switch t {
			case model.EventCommentLike, model.EventCommentBookmark:
				dup, err := st.ExistsForComment(ctx, t, id)
				if err != nil {
					return err
				}
				if dup {
					fmt.Fprintf(cmd.OutOrStdout(), "%s for comment %d already recorded\n", t, id)
					return nil
				}
				ev = model.Event{Type: t, CommentID: id, Timestamp: time.Now().UnixMilli()}
			default:
				s, err := newHNClient(cfg).Item(ctx, id)
				if err != nil {
					return fmt.Errorf("look up item %d: %w", id, err)
				}
				ev = model.NewStoryEvent(t, s, time.Now(), topics.Classify)
				ev.DwellMs = addDwellMs
			}
			if err := st.Append(ctx, &ev); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "recorded %s for %d (event %d)\n", t, id, ev.ID)
			return nil
		})
	},
}

var eventsDeleteCmd = &cobra.Command{
	Use:   "delete <type> <item-id>",
	Short: "Delete every event of a type for an item",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		t, err := model.ParseEventType(args[0])
		if err != nil {
			return err
		}
		id, err := strconv.ParseInt(args[1], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid item id %q: %w", args[1], err)
		}
		return withStore(cmd.Context(), func(ctx context.Context, st storage.Store) error {
			var n int64
			switch t {
			case model.EventCommentLike, model.EventCommentBookmark:
				n, err = st.DeleteByComment(ctx, t, id)
			default:
				n, err = st.DeleteByPost(ctx, t, id)
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted %d events\n", n)
			return nil
		})
	},
}

var eventsStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Summarize the history by event type",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(cmd.Context(), func(ctx context.Context, st storage.Store) error {
			events, err := st.All(ctx)
			if err != nil {
				return err
			}
			s := storage.Summarize(events)
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "total: %d\n", s.Total)
			for _, t := range model.EventTypes() {
				if n := s.ByType[t]; n > 0 {
					fmt.Fprintf(out, "  %-16s %d\n", t, n)
				}
			}
			if s.Total > 0 {
				fmt.Fprintf(out, "oldest: %s\nnewest: %s\n", s.Oldest.Format(time.RFC3339), s.Newest.Format(time.RFC3339))
			}
			return nil
		})
	},
}

// withStore opens the configured store unguarded: these commands should
// fail loudly when it is unreachable.
func withStore(parent context.Context, fn func(ctx context.Context, st storage.Store) error) error {
	st, err := storage.Open(GetConfig())
	if err != nil {
		return err
	}
	defer st.Close()
	ctx, cancel := context.WithTimeout(parent, 30*time.Second)
	defer cancel()
	return fn(ctx, st)
}

func init() {
	eventsListCmd.Flags().StringVar(&eventsType, "type", "", "only this event type")
	eventsListCmd.Flags().IntVar(&eventsLimit, "limit", 50, "maximum events to print (0 = all)")
	eventsListCmd.Flags().BoolVar(&eventsJSON, "json", false, "print JSON")
	eventsAddCmd.Flags().Int64Var(&addDwellMs, "dwell-ms", 0, "dwell duration for dwell events")

	eventsCmd.AddCommand(eventsListCmd, eventsAddCmd, eventsDeleteCmd, eventsStatsCmd)
	rootCmd.AddCommand(eventsCmd)
}
