package ranking

import (
	"math"
	"time"

	"hackertok/internal/model"
)

// Signals is a snapshot of reader preferences folded from the full event
// history. It is rebuilt on every ranking pass.
type Signals struct {
	Events int // number of events folded

	AvgLikedScore float64

	Authors  map[string]float64
	Domains  map[string]float64
	Keywords map[string]float64
	Topics   map[string]float64

	Skipped map[int64]struct{}

	ShortDwellAuthors map[string]struct{}
	ShortDwellDomains map[string]struct{}
	HighDwellAuthors  map[string]struct{}
	HighDwellDomains  map[string]struct{}
}

// Cold reports whether no history was available.
func (s Signals) Cold() bool {
	return s.Events == 0
}

func newSignals() Signals {
	return Signals{
		Authors:           map[string]float64{},
		Domains:           map[string]float64{},
		Keywords:          map[string]float64{},
		Topics:            map[string]float64{},
		Skipped:           map[int64]struct{}{},
		ShortDwellAuthors: map[string]struct{}{},
		ShortDwellDomains: map[string]struct{}{},
		HighDwellAuthors:  map[string]struct{}{},
		HighDwellDomains:  map[string]struct{}{},
	}
}

// decayer weights an event by age with an exponential half-life, doubling
// (by default) anything from the current session.
type decayer struct {
	nowMs        int64
	halfLifeMs   float64
	sessionMs    int64
	sessionBoost float64
}

func (d decayer) weight(ts int64) float64 {
	age := float64(d.nowMs - ts)
	if age < 0 {
		age = 0
	}
	w := 1.0
	if d.halfLifeMs > 0 {
		w = math.Pow(0.5, age/d.halfLifeMs)
	}
	if d.sessionMs > 0 && ts >= d.sessionMs {
		w *= d.sessionBoost
	}
	return w
}

// Aggregate folds events into a Signals snapshot. index supplies author,
// domain and title for events that lack their own copies. A zero
// sessionStart disables the session boost.
func Aggregate(events []model.Event, index map[int64]model.Story, now, sessionStart time.Time, p Params) Signals {
	sig := newSignals()
	sig.Events = len(events)
	if len(events) == 0 {
		return sig
	}

	d := decayer{
		nowMs:        now.UnixMilli(),
		halfLifeMs:   float64(p.HalfLife.Milliseconds()),
		sessionBoost: p.SessionBoost,
	}
	if !sessionStart.IsZero() {
		d.sessionMs = sessionStart.UnixMilli()
	}

	var (
		scoreSum, weightSum float64
		authorDwell         = map[string][]int64{}
		domainDwell         = map[string][]int64{}
		dwellTotal          int64
		dwellCount          int
	)

	for _, ev := range events {
		author, domain, title := resolve(ev, index)

		switch ev.Type {
		case model.EventLike, model.EventClick, model.EventBookmark:
			w := d.weight(ev.Timestamp) * positiveMultiplier(ev.Type, p)
			if author != "" {
				sig.Authors[author] += w
			}
			if domain != "" {
				sig.Domains[domain] += w
			}
			for _, kw := range Keywords(title) {
				sig.Keywords[kw] += w
			}
			for _, t := range ev.Topics {
				sig.Topics[t] += w
			}
			scoreSum += float64(ev.Score) * w
			weightSum += w

		case model.EventSkip:
			sig.Skipped[ev.PostID] = struct{}{}

		case model.EventDwell:
			if ev.DwellMs <= 0 {
				continue
			}
			if author != "" {
				authorDwell[author] = append(authorDwell[author], ev.DwellMs)
			}
			if domain != "" {
				domainDwell[domain] = append(domainDwell[domain], ev.DwellMs)
			}
			dwellTotal += ev.DwellMs
			dwellCount++

			w := d.weight(ev.Timestamp)
			if ev.DwellMs < p.ShortDwellMs {
				for _, kw := range Keywords(title) {
					sig.Keywords[kw] -= w * p.ShortDwellKeywordCost
				}
				if author != "" {
					sig.ShortDwellAuthors[author] = struct{}{}
				}
				if domain != "" {
					sig.ShortDwellDomains[domain] = struct{}{}
				}
			} else {
				engagement := 1.0
				if p.DwellSaturationMs > 0 {
					engagement = math.Min(float64(ev.DwellMs)/float64(p.DwellSaturationMs), 1.0)
				}
				for _, kw := range Keywords(title) {
					sig.Keywords[kw] += w * engagement * p.DwellKeywordWeight
				}
			}
		}
	}

	if weightSum > 0 {
		sig.AvgLikedScore = scoreSum / weightSum
	}

	if dwellCount > 0 {
		globalMean := float64(dwellTotal) / float64(dwellCount)
		markAboveMean(authorDwell, globalMean, sig.HighDwellAuthors)
		markAboveMean(domainDwell, globalMean, sig.HighDwellDomains)
	}
	return sig
}

// resolve prefers the event's own snapshot and falls back to the story
// index for whatever is missing.
func resolve(ev model.Event, index map[int64]model.Story) (author, domain, title string) {
	author, domain, title = ev.Author, ev.Domain, ev.Title
	if author != "" && domain != "" && title != "" {
		return author, domain, title
	}
	s, ok := index[ev.PostID]
	if !ok {
		return author, domain, title
	}
	if author == "" {
		author = s.Author
	}
	if domain == "" {
		domain = s.Domain()
	}
	if title == "" {
		title = s.Title
	}
	return author, domain, title
}

func positiveMultiplier(t model.EventType, p Params) float64 {
	switch t {
	case model.EventClick:
		return p.ClickWeight
	case model.EventBookmark:
		return p.BookmarkWeight
	default:
		return p.LikeWeight
	}
}

func markAboveMean(dwells map[string][]int64, globalMean float64, dst map[string]struct{}) {
	for key, ds := range dwells {
		var sum int64
		for _, v := range ds {
			sum += v
		}
		if float64(sum)/float64(len(ds)) > globalMean {
			dst[key] = struct{}{}
		}
	}
}
