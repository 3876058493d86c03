package model

import (
	"fmt"
	"strconv"
	"time"
)

// EventType names one kind of reader interaction.
type EventType string

const (
	EventLike            EventType = "like"
	EventBookmark        EventType = "bookmark"
	EventCommentLike     EventType = "comment_like"
	EventCommentBookmark EventType = "comment_bookmark"
	EventSkip            EventType = "skip"
	EventDwell           EventType = "dwell"
	EventClick           EventType = "click"
	EventNavigate        EventType = "navigate"
)

// EventTypes returns every known event type.
func EventTypes() []EventType {
	return []EventType{
		EventLike, EventBookmark, EventCommentLike, EventCommentBookmark,
		EventSkip, EventDwell, EventClick, EventNavigate,
	}
}

// ParseEventType validates s against the known event types.
func ParseEventType(s string) (EventType, error) {
	for _, t := range EventTypes() {
		if string(t) == s {
			return t, nil
		}
	}
	return "", fmt.Errorf("unknown event type %q", s)
}

// Event is an immutable record of one interaction. Story fields are copied
// onto the event when it is created so later aggregation does not depend on
// the story still being a candidate.
type Event struct {
	ID           int64     `json:"id,omitempty"`
	Type         EventType `json:"type"`
	PostID       int64     `json:"postId"`
	Timestamp    int64     `json:"timestamp"` // ms since epoch
	Score        int       `json:"score"`
	DwellMs      int64     `json:"dwellMs,omitempty"` // 0 = absent
	Author       string    `json:"by,omitempty"`
	Domain       string    `json:"domain,omitempty"`
	Title        string    `json:"title,omitempty"`
	Topics       []string  `json:"topics,omitempty"`
	URL          string    `json:"url,omitempty"`
	CommentCount int       `json:"descendants,omitempty"`

	CommentID      int64  `json:"commentId,omitempty"` // 0 = absent
	CommentUser    string `json:"commentUser,omitempty"`
	CommentContent string `json:"commentContent,omitempty"`
	CommentTime    int64  `json:"commentTime,omitempty"`
}

// Time returns the event timestamp as a time.Time.
func (e Event) Time() time.Time {
	return time.UnixMilli(e.Timestamp)
}

// NewStoryEvent snapshots s into a new event of type t. classify derives
// the topic labels at write time; it may be nil.
func NewStoryEvent(t EventType, s Story, now time.Time, classify func(title, domain string) []string) Event {
	domain := s.Domain()
	ev := Event{
		Type:         t,
		PostID:       s.ID,
		Timestamp:    now.UnixMilli(),
		Score:        s.Score,
		Author:       s.Author,
		Domain:       domain,
		Title:        s.Title,
		URL:          s.URL,
		CommentCount: s.CommentCount,
	}
	if classify != nil {
		ev.Topics = append([]string(nil), classify(s.Title, domain)...)
	}
	return ev
}

func itoa(n int64) string {
	return strconv.FormatInt(n, 10)
}
