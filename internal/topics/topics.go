// Package topics assigns coarse topic labels to a story from its title and
// domain using a fixed rule table.
package topics

import (
	"regexp"
	"strings"
)

// Other is returned when no topic clears the threshold.
const Other = "other"

const (
	keywordWeight = 1
	domainWeight  = 3
	minScore      = 2
)

type rule struct {
	topic    string
	keywords []string
	domains  []string
}

var rules = []rule{
	{
		topic: "ai-ml",
		keywords: []string{
			"ai", "machine", "learning", "neural", "gpt", "llm", "model", "transformer",
			"diffusion", "openai", "anthropic", "deepmind", "training", "inference",
			"embedding", "chatbot", "generative", "deep",
		},
		domains: []string{"openai.com", "anthropic.com", "deepmind.google", "huggingface.co"},
	},
	{
		topic: "programming",
		keywords: []string{
			"rust", "python", "javascript", "typescript", "golang", "compiler", "language",
			"syntax", "library", "framework", "programming", "developer", "code", "debug",
			"refactor",
		},
		domains: []string{"github.com", "gitlab.com", "dev.to"},
	},
	{
		topic: "security",
		keywords: []string{
			"security", "vulnerability", "exploit", "hack", "breach", "encryption",
			"malware", "ransomware", "phishing", "cybersecurity", "zero-day", "auth",
			"authentication",
		},
		domains: []string{"krebsonsecurity.com", "schneier.com", "thehackernews.com"},
	},
	{
		topic: "startups",
		keywords: []string{
			"startup", "founder", "funding", "venture", "seed", "series", "valuation",
			"acquisition", "ipo", "pitch", "accelerator", "yc", "ycombinator",
		},
		domains: []string{"techcrunch.com", "crunchbase.com", "ycombinator.com"},
	},
	{
		topic: "science",
		keywords: []string{
			"research", "study", "discovery", "physics", "biology", "chemistry", "space",
			"quantum", "genome", "climate", "nasa", "nature", "experiment",
		},
		domains: []string{"nature.com", "science.org", "arxiv.org", "nasa.gov"},
	},
	{
		topic: "hardware",
		keywords: []string{
			"chip", "processor", "cpu", "gpu", "silicon", "semiconductor", "fpga",
			"arduino", "raspberry", "hardware", "circuit", "manufacturing", "intel",
			"amd", "nvidia", "apple",
		},
		domains: []string{"anandtech.com", "tomshardware.com", "semianalysis.com"},
	},
	{
		topic: "web-dev",
		keywords: []string{
			"react", "nextjs", "css", "html", "browser", "frontend", "backend", "api",
			"rest", "graphql", "webpack", "vite", "tailwind", "dom", "http", "web",
		},
		domains: []string{"mdn.io", "web.dev", "css-tricks.com", "smashingmagazine.com"},
	},
	{
		topic: "systems",
		keywords: []string{
			"linux", "kernel", "os", "database", "postgres", "redis", "docker",
			"kubernetes", "distributed", "networking", "tcp", "dns", "storage",
			"filesystem", "cloud", "aws",
		},
		domains: []string{"lwn.net", "kernel.org", "aws.amazon.com"},
	},
	{
		topic: "culture",
		keywords: []string{
			"culture", "remote", "hiring", "interview", "management", "career", "salary",
			"burnout", "productivity", "work", "team", "leadership",
		},
	},
	{
		topic: "finance",
		keywords: []string{
			"bitcoin", "crypto", "blockchain", "trading", "market", "stock", "fintech",
			"bank", "payment", "defi", "ethereum", "price",
		},
		domains: []string{"coindesk.com", "bloomberg.com", "ft.com"},
	},
}

var (
	keywordTopics = map[string][]string{}
	domainTopics  = map[string][]string{}
	order         = map[string]int{}
)

func init() {
	for i, r := range rules {
		order[r.topic] = i
		for _, kw := range r.keywords {
			keywordTopics[kw] = append(keywordTopics[kw], r.topic)
		}
		for _, d := range r.domains {
			domainTopics[d] = append(domainTopics[d], r.topic)
		}
	}
}

var wordSplit = regexp.MustCompile(`[^a-z0-9-]+`)

// All returns every topic label in table order, followed by Other.
func All() []string {
	out := make([]string, 0, len(rules)+1)
	for _, r := range rules {
		out = append(out, r.topic)
	}
	return append(out, Other)
}

// Classify returns the topics whose keyword and domain evidence reaches the
// threshold, in table order. A domain hit counts as three keyword hits. The
// result is never empty.
func Classify(title, domain string) []string {
	scores := map[string]int{}

	for _, word := range wordSplit.Split(strings.ToLower(title), -1) {
		if word == "" {
			continue
		}
		for _, t := range keywordTopics[word] {
			scores[t] += keywordWeight
		}
	}

	if d := strings.TrimPrefix(strings.ToLower(strings.TrimSpace(domain)), "www."); d != "" {
		for _, t := range domainTopics[d] {
			scores[t] += domainWeight
		}
	}

	var matched []string
	for _, r := range rules {
		if scores[r.topic] >= minScore {
			matched = append(matched, r.topic)
		}
	}
	if len(matched) == 0 {
		return []string{Other}
	}
	return matched
}
