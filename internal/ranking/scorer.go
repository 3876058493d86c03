package ranking

import (
	"math"

	"hackertok/internal/model"
	"hackertok/internal/topics"
)

// Breakdown shows how each adjustment contributed to a story's weight.
// Penalties are negative.
type Breakdown struct {
	Base             float64 `json:"base"`
	Proximity        float64 `json:"proximity,omitempty"`
	Author           float64 `json:"author,omitempty"`
	Domain           float64 `json:"domain,omitempty"`
	HighDwellAuthor  float64 `json:"high_dwell_author,omitempty"`
	HighDwellDomain  float64 `json:"high_dwell_domain,omitempty"`
	ShortDwellAuthor float64 `json:"short_dwell_author,omitempty"`
	ShortDwellDomain float64 `json:"short_dwell_domain,omitempty"`
	Keyword          float64 `json:"keyword,omitempty"`
	Topic            float64 `json:"topic,omitempty"`
	Skip             float64 `json:"skip,omitempty"`
	Final            float64 `json:"final"`
}

// Score returns the ranking weight of s under sig.
func Score(s model.Story, sig Signals, p Params) float64 {
	return Explain(s, sig, p).Final
}

// Explain computes the weight of s with every adjustment itemized. All
// adjustments are proportional to the story's own score and stack.
func Explain(s model.Story, sig Signals, p Params) Breakdown {
	score := float64(s.Score)
	b := Breakdown{Base: score}
	if sig.Cold() {
		b.Final = score
		return b
	}

	lower := sig.AvgLikedScore * (1 - p.ProximityBand)
	upper := sig.AvgLikedScore * (1 + p.ProximityBand)
	if score >= lower && score <= upper {
		b.Proximity = score * p.ProximityBoost
	}

	domain := s.Domain()
	if sig.Authors[s.Author] > p.AuthorThreshold {
		b.Author = score * p.AuthorBoost
	}
	if domain != "" && sig.Domains[domain] > p.DomainThreshold {
		b.Domain = score * p.DomainBoost
	}

	if _, ok := sig.HighDwellAuthors[s.Author]; ok && s.Author != "" {
		b.HighDwellAuthor = score * p.HighDwellAuthorBoost
	}
	if _, ok := sig.HighDwellDomains[domain]; ok && domain != "" {
		b.HighDwellDomain = score * p.HighDwellDomainBoost
	}
	if _, ok := sig.ShortDwellAuthors[s.Author]; ok && s.Author != "" {
		b.ShortDwellAuthor = -score * p.ShortDwellAuthorPenalty
	}
	if _, ok := sig.ShortDwellDomains[domain]; ok && domain != "" {
		b.ShortDwellDomain = -score * p.ShortDwellDomainPenalty
	}

	var overlap float64
	for _, kw := range Keywords(s.Title) {
		overlap += sig.Keywords[kw]
	}
	if overlap > 0 {
		b.Keyword = score * math.Min(overlap/p.KeywordDivisor, p.KeywordCap)
	}

	var topicSum float64
	for _, t := range topics.Classify(s.Title, domain) {
		topicSum += sig.Topics[t]
	}
	if topicSum > p.TopicThreshold {
		b.Topic = score * math.Min(topicSum/p.TopicDivisor, p.TopicCap)
	}

	if _, ok := sig.Skipped[s.ID]; ok {
		b.Skip = -score * p.SkipPenalty
	}

	b.Final = b.Base + b.Proximity + b.Author + b.Domain +
		b.HighDwellAuthor + b.HighDwellDomain +
		b.ShortDwellAuthor + b.ShortDwellDomain +
		b.Keyword + b.Topic + b.Skip
	return b
}
