package topics

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify_Keywords(t *testing.T) {
	assert.Contains(t, Classify("Machine Learning Model Training", ""), "ai-ml")
	assert.Contains(t, Classify("Building REST APIs with React", ""), "web-dev")
	assert.Equal(t, []string{Other}, Classify("The Weather Today", ""))
}

func TestClassify_Domain(t *testing.T) {
	assert.Contains(t, Classify("hello world", "github.com"), "programming")
	assert.Contains(t, Classify("hello world", "openai.com"), "ai-ml")
	assert.Contains(t, Classify("hello world", "www.github.com"), "programming")
	assert.Equal(t, []string{Other}, Classify("hello world", "unknown.com"))
}

func TestClassify_MultiTopic(t *testing.T) {
	got := Classify("Rust compiler security vulnerability", "")
	assert.Equal(t, []string{"programming", "security"}, got)
}

func TestClassify_SingleKeywordIsBelowThreshold(t *testing.T) {
	// one incidental hit on "web" must not label the story
	assert.Equal(t, []string{Other}, Classify("A web of lies", ""))
}

func TestClassify_HyphenatedKeyword(t *testing.T) {
	got := Classify("Zero-day exploit found", "")
	assert.Equal(t, []string{"security"}, got)
}

func TestClassify_EmptyTitle(t *testing.T) {
	assert.Equal(t, []string{Other}, Classify("", ""))
}

func TestAll(t *testing.T) {
	all := All()
	assert.Len(t, all, 11)
	assert.Equal(t, Other, all[len(all)-1])
}
