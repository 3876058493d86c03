// Package session drives one swipe session: it keeps the ranked candidate
// list, records what the reader does with each item, re-ranks the part of
// the list not yet shown and pulls further pages from a Supplier.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"hackertok/internal/metrics"
	"hackertok/internal/model"
	"hackertok/internal/ranking"
	"hackertok/internal/storage"
	"hackertok/internal/topics"
)

const (
	DefaultRefillThreshold    = 10
	DefaultMaxBackgroundPages = 4
	DefaultSkipThreshold      = 2 * time.Second
	DefaultMinDwell           = 500 * time.Millisecond
	DefaultMaxFetchFailures   = 3
)

// ErrStarted is returned by Start on a controller that already started.
var ErrStarted = errors.New("session: already started")

// State is the controller's lifecycle state.
type State int

const (
	StateInitializing State = iota
	StateViewing
	StateRefilling
)

func (s State) String() string {
	switch s {
	case StateInitializing:
		return "initializing"
	case StateViewing:
		return "viewing"
	case StateRefilling:
		return "refilling"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Supplier returns one page of candidates. Pages start at 1; an empty page
// means the feed has nothing more.
type Supplier interface {
	Fetch(ctx context.Context, page int) ([]model.Story, error)
}

// SupplierFunc adapts a function to Supplier.
type SupplierFunc func(ctx context.Context, page int) ([]model.Story, error)

func (f SupplierFunc) Fetch(ctx context.Context, page int) ([]model.Story, error) {
	return f(ctx, page)
}

// Voter mirrors likes to the upstream site.
type Voter interface {
	Authenticated() bool
	Vote(ctx context.Context, itemID int64) error
}

// Options tunes a Controller. Zero values take the defaults.
type Options struct {
	RefillThreshold    int
	MaxBackgroundPages int
	SkipThreshold      time.Duration
	MinDwell           time.Duration
	MaxFetchFailures   int
	Params             ranking.Params

	Clock   func() time.Time
	Voter   Voter
	Metrics *metrics.Metrics
}

func (o Options) withDefaults() Options {
	if o.RefillThreshold <= 0 {
		o.RefillThreshold = DefaultRefillThreshold
	}
	if o.MaxBackgroundPages <= 0 {
		o.MaxBackgroundPages = DefaultMaxBackgroundPages
	}
	if o.SkipThreshold <= 0 {
		o.SkipThreshold = DefaultSkipThreshold
	}
	if o.MinDwell <= 0 {
		o.MinDwell = DefaultMinDwell
	}
	if o.MaxFetchFailures <= 0 {
		o.MaxFetchFailures = DefaultMaxFetchFailures
	}
	if o.Params == (ranking.Params{}) {
		o.Params = ranking.DefaultParams()
	}
	if o.Clock == nil {
		o.Clock = time.Now
	}
	return o
}

// Controller owns the ranked list of one session. All methods are safe for
// concurrent use; list mutations serialize on one mutex.
type Controller struct {
	id       string
	supplier Supplier
	store    *storage.Guarded
	opts     Options

	bg     context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu           sync.Mutex
	state        State
	items        []model.Story
	known        map[int64]struct{}
	pos          int
	viewStart    time.Time
	sessionStart time.Time
	nextPage     int
	fetching     bool
	exhausted    bool
	failures     int
	lastErr      error
	liked        map[int64]struct{}
	bookmarked   map[int64]struct{}
	closed       bool
}

// New returns a controller that reads candidates from supplier and events
// from store.
func New(supplier Supplier, store *storage.Guarded, opts Options) *Controller {
	bg, cancel := context.WithCancel(context.Background())
	return &Controller{
		id:         uuid.NewString(),
		supplier:   supplier,
		store:      store,
		opts:       opts.withDefaults(),
		bg:         bg,
		cancel:     cancel,
		known:      map[int64]struct{}{},
		liked:      map[int64]struct{}{},
		bookmarked: map[int64]struct{}{},
		nextPage:   1,
	}
}

// ID identifies the session in logs.
func (c *Controller) ID() string {
	return c.id
}

// Start seeds the list with initial, or with page 1 of the supplier when
// initial is empty, ranks it and begins loading further pages in the
// background. Only an error fetching page 1 is returned.
func (c *Controller) Start(ctx context.Context, initial []model.Story) error {
	c.mu.Lock()
	if c.state != StateInitializing || c.closed {
		c.mu.Unlock()
		return ErrStarted
	}
	c.mu.Unlock()

	stories := initial
	if len(stories) == 0 {
		page, err := c.supplier.Fetch(ctx, 1)
		if err != nil {
			return fmt.Errorf("session: fetch page 1: %w", err)
		}
		stories = page
	}

	h := c.loadHistory(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateInitializing {
		return ErrStarted
	}
	now := c.opts.Clock()
	c.sessionStart = now
	c.viewStart = now
	c.nextPage = 2
	if len(stories) == 0 {
		c.exhausted = true
	}
	for _, s := range model.Dedupe(stories) {
		c.items = append(c.items, s)
		c.known[s.ID] = struct{}{}
	}
	for _, ev := range h.events {
		switch ev.Type {
		case model.EventLike:
			c.liked[ev.PostID] = struct{}{}
		case model.EventBookmark:
			c.bookmarked[ev.PostID] = struct{}{}
		}
	}
	c.rankFromLocked(0, h, metrics.TriggerStart)
	c.state = StateViewing
	slog.Info("session: started", "session", c.id, "candidates", len(c.items), "events", len(h.events))

	if c.opts.MaxBackgroundPages > 1 {
		c.launchLocked(c.opts.MaxBackgroundPages - 1)
	}
	return nil
}

// Current returns the item being viewed.
func (c *Controller) Current() (model.Story, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.currentLocked()
}

func (c *Controller) currentLocked() (model.Story, bool) {
	if c.pos < 0 || c.pos >= len(c.items) {
		return model.Story{}, false
	}
	return c.items[c.pos], true
}

// Next leaves the current item, recording a skip when it was viewed for
// less than the skip threshold and a navigate otherwise, plus a dwell event
// once the view lasted at least MinDwell. It reports whether the position
// moved; at the end of the list it only asks for more.
func (c *Controller) Next(ctx context.Context) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == StateInitializing || c.closed {
		return false
	}
	if c.pos >= len(c.items)-1 {
		c.maybeRefillLocked()
		return false
	}

	left := c.items[c.pos]
	now := c.opts.Clock()
	dwell := now.Sub(c.viewStart)

	kind := model.EventNavigate
	if dwell < c.opts.SkipThreshold {
		kind = model.EventSkip
	}
	ev := model.NewStoryEvent(kind, left, now, topics.Classify)
	c.store.Record(ctx, &ev)
	if dwell >= c.opts.MinDwell {
		d := model.NewStoryEvent(model.EventDwell, left, now, topics.Classify)
		d.DwellMs = dwell.Milliseconds()
		c.store.Record(ctx, &d)
	}

	c.pos++
	c.viewStart = now
	c.rankFromLocked(c.pos+1, c.loadHistory(ctx), metrics.TriggerNavigate)
	c.maybeRefillLocked()
	return true
}

// Previous steps back one item. It records nothing.
func (c *Controller) Previous() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == StateInitializing || c.closed || c.pos == 0 {
		return false
	}
	c.pos--
	c.viewStart = c.opts.Clock()
	return true
}

// ToggleLike likes the current item, or unlikes it when it already is.
// It returns the new liked state.
func (c *Controller) ToggleLike(ctx context.Context) bool {
	return c.toggle(ctx, model.EventLike, c.liked)
}

// ToggleBookmark bookmarks or unbookmarks the current item.
func (c *Controller) ToggleBookmark(ctx context.Context) bool {
	return c.toggle(ctx, model.EventBookmark, c.bookmarked)
}

func (c *Controller) toggle(ctx context.Context, kind model.EventType, set map[int64]struct{}) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	cur, ok := c.currentLocked()
	if !ok || c.closed {
		return false
	}

	_, present := set[cur.ID]
	if !present {
		present = c.store.Has(ctx, kind, cur.ID)
	}
	active := !present
	if present {
		n := c.store.Remove(ctx, kind, cur.ID)
		delete(set, cur.ID)
		slog.Debug("session: removed events", "session", c.id, "type", kind, "post", cur.ID, "count", n)
	} else {
		ev := model.NewStoryEvent(kind, cur, c.opts.Clock(), topics.Classify)
		c.store.Record(ctx, &ev)
		set[cur.ID] = struct{}{}
		if kind == model.EventLike {
			c.voteLocked(cur.ID)
		}
	}
	c.rankFromLocked(c.pos+1, c.loadHistory(ctx), metrics.TriggerToggle)
	return active
}

// voteLocked mirrors a like upstream without waiting for the answer.
func (c *Controller) voteLocked(id int64) {
	v := c.opts.Voter
	if v == nil || !v.Authenticated() {
		return
	}
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		if err := v.Vote(c.bg, id); err != nil {
			slog.Warn("session: upstream vote failed", "session", c.id, "post", id, "error", err)
		}
	}()
}

// Click records that the reader opened the current item's link.
func (c *Controller) Click(ctx context.Context) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	cur, ok := c.currentLocked()
	if !ok || c.closed {
		return false
	}
	ev := model.NewStoryEvent(model.EventClick, cur, c.opts.Clock(), topics.Classify)
	recorded := c.store.Record(ctx, &ev)
	c.rankFromLocked(c.pos+1, c.loadHistory(ctx), metrics.TriggerClick)
	return recorded
}

// history is the event log and the set of post IDs it mentions.
type history struct {
	events []model.Event
	seen   map[int64]struct{}
}

func (c *Controller) loadHistory(ctx context.Context) history {
	return history{events: c.store.Events(ctx), seen: c.store.Seen(ctx)}
}

// rankFromLocked re-orders items[from:] against h: stories with no event
// of any kind come first, each group ranked on its own. Items before from
// are never touched.
func (c *Controller) rankFromLocked(from int, h history, trigger string) {
	if from >= len(c.items) {
		return
	}
	started := time.Now()

	tail := c.items[from:]
	var unseen, touched []model.Story
	for _, s := range tail {
		if _, ok := h.seen[s.ID]; ok {
			touched = append(touched, s)
		} else {
			unseen = append(unseen, s)
		}
	}

	opts := ranking.Options{
		Now:          c.opts.Clock(),
		SessionStart: c.sessionStart,
		Params:       c.opts.Params,
		Index:        model.Index(c.items),
	}
	ranked := append(ranking.Rank(unseen, h.events, opts), ranking.Rank(touched, h.events, opts)...)
	copy(tail, ranked)
	c.opts.Metrics.ObserveRank(trigger, len(tail), time.Since(started).Seconds())
}

func (c *Controller) maybeRefillLocked() {
	if len(c.items)-1-c.pos > c.opts.RefillThreshold {
		return
	}
	c.launchLocked(1)
}

// launchLocked fetches up to pages sequential pages off the caller's
// goroutine. Only one fetch runs at a time.
func (c *Controller) launchLocked(pages int) {
	if c.fetching || c.exhausted || c.closed {
		return
	}
	c.fetching = true
	c.state = StateRefilling
	c.wg.Add(1)
	go c.fetchPages(pages)
}

func (c *Controller) fetchPages(pages int) {
	defer c.wg.Done()
	for i := 0; i < pages; i++ {
		c.mu.Lock()
		page := c.nextPage
		c.mu.Unlock()

		stories, err := c.supplier.Fetch(c.bg, page)
		var h history
		if err == nil && len(stories) > 0 {
			h = c.loadHistory(c.bg)
		}
		if !c.merge(page, stories, h, err) {
			break
		}
	}

	c.mu.Lock()
	c.fetching = false
	if c.state == StateRefilling {
		c.state = StateViewing
	}
	c.mu.Unlock()
}

// merge folds one fetched page into the tail and reports whether fetching
// should go on.
func (c *Controller) merge(page int, stories []model.Story, h history, err error) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	if err != nil {
		if c.bg.Err() != nil {
			return false
		}
		c.failures++
		c.lastErr = err
		c.opts.Metrics.IncRefill(metrics.StatusFailure)
		if c.failures >= c.opts.MaxFetchFailures {
			c.exhausted = true
			slog.Warn("session: giving up on feed", "session", c.id, "page", page, "failures", c.failures, "error", err)
		} else {
			slog.Warn("session: page fetch failed", "session", c.id, "page", page, "failures", c.failures, "error", err)
		}
		return false
	}
	c.failures = 0
	if len(stories) == 0 {
		c.exhausted = true
		c.opts.Metrics.IncRefill(metrics.StatusEmpty)
		slog.Info("session: feed exhausted", "session", c.id, "page", page)
		return false
	}

	c.nextPage = page + 1
	wasEmpty := len(c.items) == 0
	added := 0
	for _, s := range stories {
		if _, ok := c.known[s.ID]; ok {
			continue
		}
		c.known[s.ID] = struct{}{}
		c.items = append(c.items, s)
		added++
	}
	c.opts.Metrics.IncRefill(metrics.StatusSuccess)
	slog.Debug("session: merged page", "session", c.id, "page", page, "fetched", len(stories), "added", added)
	if added > 0 {
		from := c.pos + 1
		if wasEmpty {
			from = 0
			c.viewStart = c.opts.Clock()
		}
		c.rankFromLocked(from, h, metrics.TriggerRefill)
	}
	return true
}

// Liked reports whether id is liked.
func (c *Controller) Liked(id int64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.liked[id]
	return ok
}

// Bookmarked reports whether id is bookmarked.
func (c *Controller) Bookmarked(id int64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.bookmarked[id]
	return ok
}

// Items returns a copy of the list in display order.
func (c *Controller) Items() []model.Story {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]model.Story(nil), c.items...)
}

func (c *Controller) Position() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pos
}

func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Exhausted reports whether the supplier has no more pages, either because
// it returned an empty page or because it failed too often in a row.
func (c *Controller) Exhausted() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.exhausted
}

// LastError returns the most recent fetch error.
func (c *Controller) LastError() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastErr
}

// Wait blocks until background fetches and votes finish.
func (c *Controller) Wait() {
	c.wg.Wait()
}

// Closed reports whether Close has been called.
func (c *Controller) Closed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// Close stops background work and waits for it. Further calls are no-ops.
func (c *Controller) Close() {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
	c.cancel()
	c.wg.Wait()
}
