package ranking

import (
	"testing"
	"time"

	"hackertok/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAggregate_Empty(t *testing.T) {
	sig := Aggregate(nil, nil, testNow, time.Time{}, DefaultParams())
	assert.True(t, sig.Cold())
	assert.Zero(t, sig.AvgLikedScore)
	assert.Empty(t, sig.Authors)
}

func TestAggregate_PositiveMultipliers(t *testing.T) {
	ts := testNow.UnixMilli()
	events := []model.Event{
		{Type: model.EventLike, PostID: 1, Timestamp: ts, Author: "liker"},
		{Type: model.EventClick, PostID: 2, Timestamp: ts, Author: "clicker"},
		{Type: model.EventBookmark, PostID: 3, Timestamp: ts, Author: "saver"},
	}
	sig := Aggregate(events, nil, testNow, time.Time{}, DefaultParams())
	assert.InDelta(t, 1.0, sig.Authors["liker"], 1e-9)
	assert.InDelta(t, 1.2, sig.Authors["clicker"], 1e-9)
	assert.InDelta(t, 1.5, sig.Authors["saver"], 1e-9)
}

func TestAggregate_HalfLife(t *testing.T) {
	events := []model.Event{
		{Type: model.EventLike, PostID: 1, Timestamp: testNow.Add(-10 * time.Minute).UnixMilli(), Author: "a"},
		{Type: model.EventLike, PostID: 2, Timestamp: testNow.Add(-20 * time.Minute).UnixMilli(), Author: "b"},
	}
	sig := Aggregate(events, nil, testNow, time.Time{}, DefaultParams())
	assert.InDelta(t, 0.5, sig.Authors["a"], 1e-9)
	assert.InDelta(t, 0.25, sig.Authors["b"], 1e-9)
}

func TestAggregate_FutureTimestampClampsToFullWeight(t *testing.T) {
	events := []model.Event{
		{Type: model.EventLike, PostID: 1, Timestamp: testNow.Add(time.Hour).UnixMilli(), Author: "a"},
	}
	sig := Aggregate(events, nil, testNow, time.Time{}, DefaultParams())
	assert.InDelta(t, 1.0, sig.Authors["a"], 1e-9)
}

func TestAggregate_SessionBoost(t *testing.T) {
	start := testNow.Add(-5 * time.Minute)
	events := []model.Event{
		{Type: model.EventLike, PostID: 1, Timestamp: testNow.UnixMilli(), Author: "inside"},
		{Type: model.EventLike, PostID: 2, Timestamp: start.Add(-time.Millisecond).UnixMilli(), Author: "before"},
	}
	sig := Aggregate(events, nil, testNow, start, DefaultParams())
	assert.InDelta(t, 2.0, sig.Authors["inside"], 1e-9)
	assert.Less(t, sig.Authors["before"], 1.0)
}

func TestAggregate_AvgLikedScoreIsWeighted(t *testing.T) {
	events := []model.Event{
		{Type: model.EventLike, PostID: 1, Timestamp: testNow.UnixMilli(), Score: 100},
		{Type: model.EventBookmark, PostID: 2, Timestamp: testNow.UnixMilli(), Score: 200},
	}
	sig := Aggregate(events, nil, testNow, time.Time{}, DefaultParams())
	// (100*1 + 200*1.5) / 2.5
	assert.InDelta(t, 160.0, sig.AvgLikedScore, 1e-9)
}

func TestAggregate_FallsBackToIndex(t *testing.T) {
	index := map[int64]model.Story{
		7: {ID: 7, Title: "Kernel Scheduler Rewrite", URL: "https://www.lwn.net/a", Author: "torvalds"},
	}
	events := []model.Event{{Type: model.EventLike, PostID: 7, Timestamp: testNow.UnixMilli()}}
	sig := Aggregate(events, index, testNow, time.Time{}, DefaultParams())
	assert.InDelta(t, 1.0, sig.Authors["torvalds"], 1e-9)
	assert.InDelta(t, 1.0, sig.Domains["lwn.net"], 1e-9)
	assert.InDelta(t, 1.0, sig.Keywords["kernel"], 1e-9)
	assert.InDelta(t, 1.0, sig.Keywords["scheduler"], 1e-9)
}

func TestAggregate_EventSnapshotWinsOverIndex(t *testing.T) {
	index := map[int64]model.Story{7: {ID: 7, Author: "indexed"}}
	events := []model.Event{{Type: model.EventLike, PostID: 7, Timestamp: testNow.UnixMilli(), Author: "recorded"}}
	sig := Aggregate(events, index, testNow, time.Time{}, DefaultParams())
	assert.Contains(t, sig.Authors, "recorded")
	assert.NotContains(t, sig.Authors, "indexed")
}

func TestAggregate_SkipOnlyMarksPost(t *testing.T) {
	events := []model.Event{{Type: model.EventSkip, PostID: 3, Timestamp: testNow.UnixMilli(), Author: "alice", Title: "Anything Goes"}}
	sig := Aggregate(events, nil, testNow, time.Time{}, DefaultParams())
	assert.Contains(t, sig.Skipped, int64(3))
	assert.Empty(t, sig.Authors)
	assert.Empty(t, sig.Keywords)
	assert.False(t, sig.Cold())
}

func TestAggregate_DwellKeywords(t *testing.T) {
	ts := testNow.UnixMilli()
	events := []model.Event{
		{Type: model.EventDwell, PostID: 1, Timestamp: ts, DwellMs: 500, Title: "Boring Thing"},
		{Type: model.EventDwell, PostID: 2, Timestamp: ts, DwellMs: 5000, Title: "Halfway Read"},
		{Type: model.EventDwell, PostID: 3, Timestamp: ts, DwellMs: 60000, Title: "Kernel Patches"},
	}
	sig := Aggregate(events, nil, testNow, time.Time{}, DefaultParams())
	assert.InDelta(t, -0.3, sig.Keywords["boring"], 1e-9)
	assert.InDelta(t, 0.25, sig.Keywords["halfway"], 1e-9)
	assert.InDelta(t, 0.5, sig.Keywords["kernel"], 1e-9, "engagement saturates at 1")
}

func TestAggregate_DwellWithoutDurationIgnored(t *testing.T) {
	events := []model.Event{{Type: model.EventDwell, PostID: 1, Timestamp: testNow.UnixMilli(), Author: "a", Title: "Something Here"}}
	sig := Aggregate(events, nil, testNow, time.Time{}, DefaultParams())
	assert.Empty(t, sig.Keywords)
	assert.Empty(t, sig.ShortDwellAuthors)
	assert.Empty(t, sig.HighDwellAuthors)
}

func TestAggregate_HighAndShortDwell(t *testing.T) {
	ts := testNow.UnixMilli()
	events := []model.Event{
		{Type: model.EventDwell, PostID: 1, Timestamp: ts, DwellMs: 10000, Author: "alice", Domain: "deep.io"},
		{Type: model.EventDwell, PostID: 2, Timestamp: ts, DwellMs: 1000, Author: "bob", Domain: "shallow.io"},
	}
	sig := Aggregate(events, nil, testNow, time.Time{}, DefaultParams())
	require.NotNil(t, sig.HighDwellAuthors)
	assert.Contains(t, sig.HighDwellAuthors, "alice")
	assert.NotContains(t, sig.HighDwellAuthors, "bob")
	assert.Contains(t, sig.HighDwellDomains, "deep.io")
	assert.Contains(t, sig.ShortDwellAuthors, "bob")
	assert.Contains(t, sig.ShortDwellDomains, "shallow.io")
	assert.NotContains(t, sig.ShortDwellAuthors, "alice")
}

func TestAggregate_SingleDwellIsNotHigh(t *testing.T) {
	events := []model.Event{{Type: model.EventDwell, PostID: 1, Timestamp: testNow.UnixMilli(), DwellMs: 9000, Author: "solo"}}
	sig := Aggregate(events, nil, testNow, time.Time{}, DefaultParams())
	assert.Empty(t, sig.HighDwellAuthors)
}

func TestAggregate_TopicsComeFromEvents(t *testing.T) {
	events := []model.Event{{Type: model.EventLike, PostID: 1, Timestamp: testNow.UnixMilli(), Topics: []string{"security", "programming"}}}
	sig := Aggregate(events, nil, testNow, time.Time{}, DefaultParams())
	assert.InDelta(t, 1.0, sig.Topics["security"], 1e-9)
	assert.InDelta(t, 1.0, sig.Topics["programming"], 1e-9)
}

func TestExplain_ColdReturnsRawScore(t *testing.T) {
	b := Explain(story(1, "a", 123), Signals{}, DefaultParams())
	assert.Equal(t, 123.0, b.Final)
	assert.Equal(t, 123.0, b.Base)
}

func TestExplain_ZeroScoreNeverBoosted(t *testing.T) {
	events := []model.Event{{Type: model.EventLike, PostID: 9, Timestamp: testNow.UnixMilli(), Author: "a", Title: "Story Things"}}
	sig := Aggregate(events, nil, testNow, time.Time{}, DefaultParams())
	b := Explain(story(1, "a", 0), sig, DefaultParams())
	assert.Zero(t, b.Final)
}

func TestExplain_AdjustmentsStack(t *testing.T) {
	events := []model.Event{
		{Type: model.EventLike, PostID: 9, Timestamp: testNow.UnixMilli(), Score: 100, Author: "alice", Domain: "example.com"},
		{Type: model.EventSkip, PostID: 1, Timestamp: testNow.UnixMilli()},
	}
	sig := Aggregate(events, nil, testNow, time.Time{}, DefaultParams())
	b := Explain(story(1, "alice", 100), sig, DefaultParams())
	assert.InDelta(t, 30.0, b.Proximity, 1e-9)
	assert.InDelta(t, 50.0, b.Author, 1e-9)
	assert.InDelta(t, 25.0, b.Domain, 1e-9)
	assert.InDelta(t, -30.0, b.Skip, 1e-9)
	assert.InDelta(t, 175.0, b.Final, 1e-9)
}

func TestExplain_KeywordBoostCapped(t *testing.T) {
	events := []model.Event{
		{Type: model.EventLike, PostID: 9, Timestamp: testNow.UnixMilli(), Title: "Kernel Scheduler Latency Fixes"},
		{Type: model.EventLike, PostID: 8, Timestamp: testNow.UnixMilli(), Title: "Kernel Scheduler Latency Fixes"},
	}
	sig := Aggregate(events, nil, testNow, time.Time{}, DefaultParams())
	s := story(1, "x", 100)
	s.Title = "Kernel Scheduler Latency Fixes"
	b := Explain(s, sig, DefaultParams())
	assert.InDelta(t, 40.0, b.Keyword, 1e-9)
}

func TestKeywords(t *testing.T) {
	assert.Equal(t, []string{"show", "built", "tiny", "compiler"}, Keywords("Show HN: I built a tiny compiler"))
	assert.Equal(t, []string{"rust", "guide"}, Keywords("The Rust guide for your rust"))
	assert.Nil(t, Keywords(""))
	assert.Empty(t, Keywords("C++ & Go"))
}
