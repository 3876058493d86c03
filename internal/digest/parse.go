package digest

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Document is a markdown file split into front matter and body.
type Document struct {
	FrontMatter map[string]any
	Body        string
}

// ParseFile reads a markdown file whose optional YAML front matter sits
// between two lines containing only "---".
func ParseFile(path string) (Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return Document{}, err
	}
	defer f.Close()
	return Parse(f)
}

// Parse is ParseFile over a reader.
func Parse(r io.Reader) (Document, error) {
	br := bufio.NewReader(r)
	peek, err := br.Peek(3)
	if err != nil && !errors.Is(err, io.EOF) {
		return Document{}, err
	}
	hasFM := string(peek) == "---"

	var fmBuf, bodyBuf strings.Builder
	if hasFM {
		if _, err := br.ReadString('\n'); err != nil && !errors.Is(err, io.EOF) {
			return Document{}, err
		}
		for {
			l, err := br.ReadString('\n')
			if err != nil && !errors.Is(err, io.EOF) {
				return Document{}, err
			}
			if strings.TrimSpace(l) == "---" {
				break
			}
			fmBuf.WriteString(l)
			if errors.Is(err, io.EOF) {
				break
			}
		}
	}
	for {
		l, err := br.ReadString('\n')
		bodyBuf.WriteString(l)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return Document{}, err
		}
	}

	d := Document{FrontMatter: map[string]any{}, Body: bodyBuf.String()}
	if hasFM {
		if err := yaml.Unmarshal([]byte(fmBuf.String()), &d.FrontMatter); err != nil {
			return Document{}, fmt.Errorf("digest: front matter: %w", err)
		}
		if d.FrontMatter == nil {
			d.FrontMatter = map[string]any{}
		}
	}
	return d, nil
}

// StoryIDs returns the story_ids listed in the front matter.
func (d Document) StoryIDs() []int64 {
	raw, ok := d.FrontMatter["story_ids"].([]any)
	if !ok {
		return nil
	}
	ids := make([]int64, 0, len(raw))
	for _, v := range raw {
		switch n := v.(type) {
		case int:
			ids = append(ids, int64(n))
		case int64:
			ids = append(ids, n)
		}
	}
	return ids
}

// LatestFor returns the newest digest of feed in dir, or os.ErrNotExist.
// Digest slugs embed the date, so lexical order is chronological.
func LatestFor(dir, feed string) (Document, string, error) {
	matches, err := filepath.Glob(filepath.Join(dir, strings.ToLower(feed)+"-*.md"))
	if err != nil {
		return Document{}, "", err
	}
	if len(matches) == 0 {
		return Document{}, "", os.ErrNotExist
	}
	sort.Strings(matches)
	path := matches[len(matches)-1]
	doc, err := ParseFile(path)
	return doc, path, err
}
