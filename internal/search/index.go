// Package search keeps a local bleve index of stories seen in feeds, used
// for offline search and as an offline candidate source.
package search

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"hackertok/internal/model"
	"hackertok/internal/topics"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/mapping"
)

// PageSize is the number of stories Fetch returns per page.
const PageSize = 30

// Index wraps a bleve index of stories.
type Index struct {
	index bleve.Index
}

// document is the indexed form of a story.
type document struct {
	ID           int64    `json:"id"`
	Title        string   `json:"title"`
	URL          string   `json:"url"`
	Author       string   `json:"by"`
	Domain       string   `json:"domain"`
	Topics       []string `json:"topics"`
	Time         int64    `json:"time"`
	Score        int      `json:"score"`
	CommentCount int      `json:"descendants"`
}

// Hit is one search result.
type Hit struct {
	Story     model.Story
	Relevance float64
}

// Open opens the index at path, creating it if missing.
func Open(path string) (*Index, error) {
	idx, err := bleve.Open(path)
	if errors.Is(err, bleve.ErrorIndexPathDoesNotExist) {
		idx, err = bleve.New(path, buildIndexMapping())
		if err != nil {
			return nil, fmt.Errorf("search: create index: %w", err)
		}
	} else if err != nil {
		return nil, fmt.Errorf("search: open index: %w", err)
	}
	return &Index{index: idx}, nil
}

// NewMemOnly returns an index that lives only in memory.
func NewMemOnly() (*Index, error) {
	idx, err := bleve.NewMemOnly(buildIndexMapping())
	if err != nil {
		return nil, fmt.Errorf("search: create index: %w", err)
	}
	return &Index{index: idx}, nil
}

func buildIndexMapping() mapping.IndexMapping {
	title := bleve.NewTextFieldMapping()
	title.Analyzer = "en"

	stored := bleve.NewTextFieldMapping()
	stored.Index = false
	stored.IncludeInAll = false

	doc := bleve.NewDocumentMapping()
	doc.AddFieldMappingsAt("title", title)
	doc.AddFieldMappingsAt("url", stored)
	for _, name := range []string{"by", "domain", "topics"} {
		doc.AddFieldMappingsAt(name, bleve.NewKeywordFieldMapping())
	}
	for _, name := range []string{"id", "time", "score", "descendants"} {
		doc.AddFieldMappingsAt(name, bleve.NewNumericFieldMapping())
	}

	// unfielded queries hit _all, which must stem like title does
	im := bleve.NewIndexMapping()
	im.DefaultMapping = doc
	im.DefaultAnalyzer = "en"
	return im
}

func (i *Index) Close() error {
	return i.index.Close()
}

// IndexStories adds or replaces stories in one batch.
func (i *Index) IndexStories(stories []model.Story) error {
	if len(stories) == 0 {
		return nil
	}
	batch := i.index.NewBatch()
	for _, s := range stories {
		domain := s.Domain()
		doc := document{
			ID:           s.ID,
			Title:        s.Title,
			URL:          s.URL,
			Author:       s.Author,
			Domain:       domain,
			Topics:       topics.Classify(s.Title, domain),
			Time:         s.Time,
			Score:        s.Score,
			CommentCount: s.CommentCount,
		}
		if err := batch.Index(strconv.FormatInt(s.ID, 10), doc); err != nil {
			return fmt.Errorf("search: batch index %d: %w", s.ID, err)
		}
	}
	if err := i.index.Batch(batch); err != nil {
		return fmt.Errorf("search: commit batch: %w", err)
	}
	return nil
}

// Search runs a query-string query (quotes, +/-, field:value, fuzzy ~).
func (i *Index) Search(queryStr string, limit int) ([]Hit, error) {
	if limit <= 0 {
		limit = 20
	}
	req := bleve.NewSearchRequestOptions(bleve.NewQueryStringQuery(queryStr), limit, 0, false)
	req.Fields = []string{"*"}
	res, err := i.index.Search(req)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}
	hits := make([]Hit, 0, len(res.Hits))
	for _, h := range res.Hits {
		hits = append(hits, Hit{Story: storyFromFields(h.ID, h.Fields), Relevance: h.Score})
	}
	return hits, nil
}

// Fetch returns page (1-based) of indexed stories, newest first. It lets
// the index stand in for the live feed.
func (i *Index) Fetch(ctx context.Context, page int) ([]model.Story, error) {
	if page < 1 {
		page = 1
	}
	req := bleve.NewSearchRequestOptions(bleve.NewMatchAllQuery(), PageSize, (page-1)*PageSize, false)
	req.Fields = []string{"*"}
	req.SortBy([]string{"-time", "-_id"})
	res, err := i.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("search: page %d: %w", page, err)
	}
	out := make([]model.Story, 0, len(res.Hits))
	for _, h := range res.Hits {
		out = append(out, storyFromFields(h.ID, h.Fields))
	}
	return out, nil
}

func (i *Index) Count() (uint64, error) {
	return i.index.DocCount()
}

func storyFromFields(id string, f map[string]interface{}) model.Story {
	s := model.Story{}
	s.ID, _ = strconv.ParseInt(id, 10, 64)
	s.Title, _ = f["title"].(string)
	s.URL, _ = f["url"].(string)
	s.Author, _ = f["by"].(string)
	if v, ok := f["time"].(float64); ok {
		s.Time = int64(v)
	}
	if v, ok := f["score"].(float64); ok {
		s.Score = int(v)
	}
	if v, ok := f["descendants"].(float64); ok {
		s.CommentCount = int(v)
	}
	return s
}
