package cmd

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"hackertok/internal/model"
	"hackertok/internal/session"

	"github.com/spf13/cobra"
)

var (
	swipeFeed    string
	swipeOffline bool
)

// swipeCmd runs an interactive session in the terminal.
var swipeCmd = &cobra.Command{
	Use:   "swipe",
	Short: "Browse a ranked feed one story at a time",
	Long: `Browse a ranked feed one story at a time. Commands:
  n  next story (a quick n counts as a skip)
  p  previous story
  l  like / unlike
  b  bookmark / unbookmark
  o  open: print the link and record a click
  q  quit`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := GetConfig()
		feed := swipeFeed
		if feed == "" {
			feed = cfg.Session.Feed
		}

		src, closeSrc, err := candidateSource(cfg, feed, swipeOffline)
		if err != nil {
			return err
		}
		defer closeSrc()

		st, events, err := openEvents(cfg, nil)
		if err != nil {
			return err
		}
		defer st.Close()

		ctl := session.New(src, events, session.OptionsFrom(cfg, newVoter(cfg), nil))
		defer ctl.Close()

		ctx := cmd.Context()
		if err := ctl.Start(ctx, nil); err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		showCurrent(out, ctl)
		sc := bufio.NewScanner(cmd.InOrStdin())
		for {
			fmt.Fprint(out, "> ")
			if !sc.Scan() {
				return sc.Err()
			}
			switch strings.ToLower(strings.TrimSpace(sc.Text())) {
			case "n", "next", "":
				if !ctl.Next(ctx) {
					if ctl.Exhausted() {
						fmt.Fprintln(out, "End of feed.")
					} else {
						fmt.Fprintln(out, "Loading more stories, try again in a moment.")
					}
					continue
				}
			case "p", "prev":
				if !ctl.Previous() {
					fmt.Fprintln(out, "Already at the first story.")
					continue
				}
			case "l", "like":
				fmt.Fprintln(out, toggleReply(ctx, ctl, model.EventLike))
				continue
			case "b", "bookmark":
				fmt.Fprintln(out, toggleReply(ctx, ctl, model.EventBookmark))
				continue
			case "o", "open":
				if s, ok := ctl.Current(); ok {
					ctl.Click(ctx)
					link := s.URL
					if link == "" {
						link = s.DiscussionURL()
					}
					fmt.Fprintln(out, link)
				}
				continue
			case "q", "quit", "exit":
				return nil
			default:
				fmt.Fprintln(out, "Commands: n p l b o q")
				continue
			}
			showCurrent(out, ctl)
		}
	},
}

// toggleReply flips a like or bookmark on the current story and says what
// happened. Nothing is toggled without a current story or after Close.
func toggleReply(ctx context.Context, ctl *session.Controller, kind model.EventType) string {
	if _, ok := ctl.Current(); !ok || ctl.Closed() {
		return "No story to act on."
	}
	if kind == model.EventBookmark {
		if ctl.ToggleBookmark(ctx) {
			return "Bookmarked."
		}
		return "Bookmark removed."
	}
	if ctl.ToggleLike(ctx) {
		return "Liked."
	}
	return "Unliked."
}

func showCurrent(w io.Writer, ctl *session.Controller) {
	s, ok := ctl.Current()
	if !ok {
		fmt.Fprintln(w, "No stories.")
		return
	}
	fmt.Fprintf(w, "\n[%d/%d] %s\n", ctl.Position()+1, len(ctl.Items()), s.Title)
	fmt.Fprintf(w, "      %s\n", storyMeta(s, ctl.Liked(s.ID), ctl.Bookmarked(s.ID)))
}

func storyMeta(s model.Story, liked, bookmarked bool) string {
	parts := []string{fmt.Sprintf("%d points by %s", s.Score, s.Author)}
	if d := s.Domain(); d != "" {
		parts = append(parts, d)
	}
	parts = append(parts, fmt.Sprintf("%d comments", s.CommentCount))
	if liked {
		parts = append(parts, "liked")
	}
	if bookmarked {
		parts = append(parts, "bookmarked")
	}
	return strings.Join(parts, " | ")
}

func init() {
	swipeCmd.Flags().StringVar(&swipeFeed, "feed", "", "feed to browse (default: session.feed)")
	swipeCmd.Flags().BoolVar(&swipeOffline, "offline", false, "browse the local search index instead of the live feed")
	rootCmd.AddCommand(swipeCmd)
}
