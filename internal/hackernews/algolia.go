package hackernews

import (
	"context"
	"net/url"
	"strconv"

	"hackertok/internal/model"
)

// SearchSort picks the Algolia endpoint.
type SearchSort string

const (
	SortRelevance SearchSort = "relevance"
	SortDate      SearchSort = "date"
)

// SearchParams describes one search page. Page is 0-based as in Algolia.
type SearchParams struct {
	Query       string
	Sort        SearchSort
	Page        int
	HitsPerPage int
}

// SearchResult is one page of search hits.
type SearchResult struct {
	Hits        []model.Story
	NbHits      int
	NbPages     int
	Page        int
	HitsPerPage int
}

type algoliaHit struct {
	ObjectID    string `json:"objectID"`
	Title       string `json:"title"`
	URL         string `json:"url"`
	Author      string `json:"author"`
	Points      *int   `json:"points"`
	NumComments *int   `json:"num_comments"`
	CreatedAtI  int64  `json:"created_at_i"`
}

type algoliaResponse struct {
	Hits        []algoliaHit `json:"hits"`
	NbHits      int          `json:"nbHits"`
	NbPages     int          `json:"nbPages"`
	Page        int          `json:"page"`
	HitsPerPage int          `json:"hitsPerPage"`
}

// Search queries Algolia for stories. Hits without a title or a numeric ID
// are dropped.
func (c *Client) Search(ctx context.Context, p SearchParams) (SearchResult, error) {
	if p.HitsPerPage <= 0 {
		p.HitsPerPage = 20
	}
	endpoint := "search"
	if p.Sort == SortDate {
		endpoint = "search_by_date"
	}
	q := url.Values{}
	q.Set("query", p.Query)
	q.Set("tags", "story")
	q.Set("page", strconv.Itoa(p.Page))
	q.Set("hitsPerPage", strconv.Itoa(p.HitsPerPage))

	var resp algoliaResponse
	if err := c.getJSON(ctx, c.algoliaAPI+"/"+endpoint+"?"+q.Encode(), &resp); err != nil {
		return SearchResult{}, err
	}

	out := SearchResult{
		Hits:        make([]model.Story, 0, len(resp.Hits)),
		NbHits:      resp.NbHits,
		NbPages:     resp.NbPages,
		Page:        resp.Page,
		HitsPerPage: resp.HitsPerPage,
	}
	for _, h := range resp.Hits {
		id, err := strconv.ParseInt(h.ObjectID, 10, 64)
		if err != nil || id <= 0 || h.Title == "" {
			continue
		}
		s := model.Story{
			ID:     id,
			Title:  h.Title,
			Author: h.Author,
			Time:   h.CreatedAtI,
		}
		if h.Points != nil {
			s.Score = *h.Points
		}
		if h.NumComments != nil {
			s.CommentCount = *h.NumComments
		}
		if model.IsHTTPURL(h.URL) {
			s.URL = h.URL
		}
		out.Hits = append(out.Hits, s)
	}
	return out, nil
}
