// Package ranking orders candidate stories for one reader: it folds the
// event history into Signals, scores each candidate, sorts by weight and
// then breaks up same-author and same-domain runs.
package ranking

import (
	"sort"
	"time"

	"hackertok/internal/model"
)

// Options carries the inputs of a ranking pass besides candidates and
// events.
type Options struct {
	Now          time.Time // zero means time.Now()
	SessionStart time.Time // zero disables the session boost
	Params       Params    // zero value means DefaultParams()

	// Index resolves stories referenced by events lacking their own
	// snapshot. The candidates are always included.
	Index map[int64]model.Story
}

// Scored pairs a story with its weight.
type Scored struct {
	Story     model.Story
	Weight    float64
	Breakdown Breakdown
}

func (o Options) normalize() Options {
	if o.Now.IsZero() {
		o.Now = time.Now()
	}
	if o.Params == (Params{}) {
		o.Params = DefaultParams()
	}
	return o
}

// Rank returns candidates ordered for the reader. Given identical inputs it
// always returns the same order; ties keep input order.
func Rank(candidates []model.Story, events []model.Event, opts Options) []model.Story {
	scored := RankScored(candidates, events, opts)
	out := make([]model.Story, len(scored))
	for i, s := range scored {
		out[i] = s.Story
	}
	return out
}

// RankScored is Rank with each story's weight and breakdown attached.
func RankScored(candidates []model.Story, events []model.Event, opts Options) []Scored {
	if len(candidates) == 0 {
		return []Scored{}
	}
	opts = opts.normalize()

	index := model.Index(candidates)
	for id, s := range opts.Index {
		if _, ok := index[id]; !ok {
			index[id] = s
		}
	}
	sig := Aggregate(events, index, opts.Now, opts.SessionStart, opts.Params)

	scored := make([]Scored, len(candidates))
	for i, c := range candidates {
		b := Explain(c, sig, opts.Params)
		scored[i] = Scored{Story: c, Weight: b.Final, Breakdown: b}
	}
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Weight > scored[j].Weight
	})

	sorted := make([]model.Story, len(scored))
	for i, s := range scored {
		sorted[i] = s.Story
	}
	order := diversifyOrder(sorted, opts.Params.DiversityInterval)

	out := make([]Scored, len(order))
	for i, idx := range order {
		out[i] = scored[idx]
	}
	return out
}
