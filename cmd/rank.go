package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"hackertok/internal/digest"
	"hackertok/internal/model"
	"hackertok/internal/ranking"

	"github.com/spf13/cobra"
)

var (
	rankFeed    string
	rankPages   int
	rankExplain bool
	rankFormat  string
	rankOffline bool
	rankOut     string
	rankUnseen  bool
)

// rankCmd ranks one or more feed pages against the stored history.
var rankCmd = &cobra.Command{
	Use:   "rank",
	Short: "Rank a feed against your reading history and print it",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := GetConfig()
		feed := rankFeed
		if feed == "" {
			feed = cfg.Session.Feed
		}

		src, closeSrc, err := candidateSource(cfg, feed, rankOffline)
		if err != nil {
			return err
		}
		defer closeSrc()

		st, events, err := openEvents(cfg, nil)
		if err != nil {
			return err
		}
		defer st.Close()

		ctx, cancel := context.WithTimeout(cmd.Context(), 2*time.Minute)
		defer cancel()

		candidates, err := fetchPages(ctx, src, rankPages)
		if err != nil {
			return err
		}
		history := events.Events(ctx)
		if rankUnseen {
			candidates = dropSeen(candidates, events.Seen(ctx))
		}

		now := time.Now()
		scored := ranking.RankScored(candidates, history, ranking.Options{Now: now, Params: cfg.RankingParams()})
		slog.Debug("rank: ranked feed", "feed", feed, "candidates", len(candidates), "events", len(history), "took", time.Since(now))

		out := cmd.OutOrStdout()
		switch strings.ToLower(rankFormat) {
		case "json":
			return writeRankJSON(out, scored, rankExplain)
		case "markdown", "md":
			ranked := make([]model.Story, len(scored))
			for i, s := range scored {
				ranked[i] = s.Story
			}
			d := digest.Build(cfg.Digest.Title, feed, ranked, cfg.Digest.TopN, now)
			d.Preface = digest.ExpandVars(cfg.Digest.Preface, feed, now)
			d.Postscript = digest.ExpandVars(cfg.Digest.Postscript, feed, now)
			if rankOut != "" {
				path, err := digest.Write(rankOut, d)
				if err != nil {
					return err
				}
				fmt.Fprintln(out, path)
				return nil
			}
			md, err := digest.Render(d)
			if err != nil {
				return err
			}
			fmt.Fprint(out, md)
			return nil
		case "text", "":
			writeRankText(out, scored, rankExplain)
			return nil
		default:
			return fmt.Errorf("unknown format %q (text, markdown, json)", rankFormat)
		}
	},
}

func dropSeen(stories []model.Story, seen map[int64]struct{}) []model.Story {
	out := stories[:0:0]
	for _, s := range stories {
		if _, ok := seen[s.ID]; !ok {
			out = append(out, s)
		}
	}
	return out
}

func writeRankText(w io.Writer, scored []ranking.Scored, explain bool) {
	for i, s := range scored {
		domain := s.Story.Domain()
		if domain == "" {
			domain = "self"
		}
		fmt.Fprintf(w, "%3d. %-8.1f %s (%s) by %s, %d points\n", i+1, s.Weight, s.Story.Title, domain, s.Story.Author, s.Story.Score)
		if explain {
			fmt.Fprintf(w, "     %s\n", explainLine(s.Breakdown))
		}
	}
}

func explainLine(b ranking.Breakdown) string {
	parts := []string{fmt.Sprintf("base=%.0f", b.Base)}
	add := func(name string, v float64) {
		if v != 0 {
			parts = append(parts, fmt.Sprintf("%s=%+.1f", name, v))
		}
	}
	add("proximity", b.Proximity)
	add("author", b.Author)
	add("domain", b.Domain)
	add("dwell_author", b.HighDwellAuthor)
	add("dwell_domain", b.HighDwellDomain)
	add("short_author", b.ShortDwellAuthor)
	add("short_domain", b.ShortDwellDomain)
	add("keyword", b.Keyword)
	add("topic", b.Topic)
	add("skip", b.Skip)
	return strings.Join(parts, " ")
}

type rankedJSON struct {
	Rank      int                `json:"rank"`
	Story     model.Story        `json:"story"`
	Weight    float64            `json:"weight"`
	Breakdown *ranking.Breakdown `json:"breakdown,omitempty"`
}

func writeRankJSON(w io.Writer, scored []ranking.Scored, explain bool) error {
	out := make([]rankedJSON, len(scored))
	for i, s := range scored {
		out[i] = rankedJSON{Rank: i + 1, Story: s.Story, Weight: s.Weight}
		if explain {
			b := s.Breakdown
			out[i].Breakdown = &b
		}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func init() {
	rankCmd.Flags().StringVar(&rankFeed, "feed", "", "feed to rank: news, newest, best, ask, show, jobs (default: session.feed)")
	rankCmd.Flags().IntVar(&rankPages, "pages", 1, "number of feed pages to rank")
	rankCmd.Flags().BoolVar(&rankExplain, "explain", false, "show how each adjustment contributed")
	rankCmd.Flags().StringVar(&rankFormat, "format", "text", "output format: text, markdown or json")
	rankCmd.Flags().BoolVar(&rankOffline, "offline", false, "rank stories from the local search index instead of the live feed")
	rankCmd.Flags().StringVar(&rankOut, "out", "", "with --format markdown, write the digest into this directory")
	rankCmd.Flags().BoolVar(&rankUnseen, "unseen", false, "drop stories you already interacted with")
	rootCmd.AddCommand(rankCmd)
}
