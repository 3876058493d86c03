// Package digest renders a ranked feed as a markdown document with YAML
// front matter and reads such documents back.
package digest

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/template"
	"time"

	"hackertok/internal/model"
	"hackertok/internal/topics"

	"gopkg.in/yaml.v3"
)

type Item struct {
	ID            int64
	Rank          int
	Title         string
	URL           string
	Domain        string
	Author        string
	Score         int
	Comments      int
	DiscussionURL string
	Topics        []string
}

type Data struct {
	Title      string
	Slug       string
	Feed       string
	Datetime   time.Time
	Summary    string
	Preface    string
	Postscript string
	Items      []Item
}

// frontMatter is the YAML header of a digest.
type frontMatter struct {
	Title    string  `yaml:"title"`
	Slug     string  `yaml:"slug"`
	Feed     string  `yaml:"feed,omitempty"`
	Datetime string  `yaml:"datetime"`
	Summary  string  `yaml:"summary,omitempty"`
	StoryIDs []int64 `yaml:"story_ids"`
}

//go:embed digest.tmpl
var digestTpl string

var compiled = template.Must(template.New("digest").Funcs(template.FuncMap{
	"join": strings.Join,
}).Parse(digestTpl))

// Build turns ranked stories into digest data, keeping at most topN
// (all when topN <= 0).
func Build(title, feed string, ranked []model.Story, topN int, now time.Time) Data {
	if topN <= 0 || topN > len(ranked) {
		topN = len(ranked)
	}
	d := Data{
		Title:    ExpandVars(title, feed, now),
		Slug:     Slug(feed, now),
		Feed:     feed,
		Datetime: now.UTC(),
		Items:    make([]Item, 0, topN),
	}
	for i, s := range ranked[:topN] {
		domain := s.Domain()
		ts := topics.Classify(s.Title, domain)
		if len(ts) == 1 && ts[0] == topics.Other {
			ts = nil
		}
		d.Items = append(d.Items, Item{
			ID:            s.ID,
			Rank:          i + 1,
			Title:         s.Title,
			URL:           s.URL,
			Domain:        domain,
			Author:        s.Author,
			Score:         s.Score,
			Comments:      s.CommentCount,
			DiscussionURL: s.DiscussionURL(),
			Topics:        ts,
		})
	}
	titles := make([]string, 0, 3)
	for i := 0; i < len(d.Items) && i < 3; i++ {
		titles = append(titles, d.Items[i].Title)
	}
	if len(titles) > 0 {
		d.Summary = fmt.Sprintf("Top picks: %s.", strings.Join(titles, "; "))
	}
	return d
}

// StoryIDs lists the IDs of the stories in d, in rank order.
func (d Data) StoryIDs() []int64 {
	ids := make([]int64, 0, len(d.Items))
	for _, it := range d.Items {
		ids = append(ids, it.ID)
	}
	return ids
}

// Render produces the markdown document.
func Render(d Data) (string, error) {
	fm, err := yaml.Marshal(frontMatter{
		Title:    d.Title,
		Slug:     d.Slug,
		Feed:     d.Feed,
		Datetime: d.Datetime.UTC().Format("2006-01-02 15:04"),
		Summary:  d.Summary,
		StoryIDs: d.StoryIDs(),
	})
	if err != nil {
		return "", fmt.Errorf("digest: front matter: %w", err)
	}
	view := struct {
		Data
		FrontMatter string
	}{Data: d, FrontMatter: string(fm)}

	var buf bytes.Buffer
	if err := compiled.Execute(&buf, view); err != nil {
		return "", fmt.Errorf("digest: render: %w", err)
	}
	return buf.String(), nil
}

// Slug names a digest after its feed and UTC day.
func Slug(feed string, now time.Time) string {
	if feed == "" {
		feed = "feed"
	}
	return fmt.Sprintf("%s-%s", strings.ToLower(feed), now.UTC().Format("20060102"))
}

// Write renders d into dir/<slug>.md and returns the path.
func Write(dir string, d Data) (string, error) {
	out, err := Render(d)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("digest: create %s: %w", dir, err)
	}
	path := filepath.Join(dir, d.Slug+".md")
	if err := os.WriteFile(path, []byte(out), 0o644); err != nil {
		return "", fmt.Errorf("digest: write %s: %w", path, err)
	}
	return path, nil
}
