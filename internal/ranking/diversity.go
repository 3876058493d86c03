package ranking

import "hackertok/internal/model"

// Diversify breaks up runs of the same author or domain. At every
// interval-th position it pulls forward the first remaining story whose
// author and domain were not used since the last break, if one exists.
// The output holds exactly the input stories.
func Diversify(sorted []model.Story, interval int) []model.Story {
	order := diversifyOrder(sorted, interval)
	out := make([]model.Story, len(order))
	for i, idx := range order {
		out[i] = sorted[idx]
	}
	return out
}

// diversifyOrder returns the permutation of sorted chosen by Diversify.
func diversifyOrder(sorted []model.Story, interval int) []int {
	pool := make([]int, len(sorted))
	for i := range pool {
		pool[i] = i
	}
	out := make([]int, 0, len(sorted))
	recentAuthors := map[string]struct{}{}
	recentDomains := map[string]struct{}{}

	for i := 0; len(pool) > 0; i++ {
		if interval > 0 && i > 0 && i%interval == 0 {
			if j := firstFresh(sorted, pool, recentAuthors, recentDomains); j >= 0 {
				pick := pool[j]
				pool = append(pool[:j], pool[j+1:]...)
				out = append(out, pick)
				recentAuthors = map[string]struct{}{sorted[pick].Author: {}}
				recentDomains = map[string]struct{}{}
				if d := sorted[pick].Domain(); d != "" {
					recentDomains[d] = struct{}{}
				}
				continue
			}
		}
		head := pool[0]
		pool = pool[1:]
		out = append(out, head)
		recentAuthors[sorted[head].Author] = struct{}{}
		if d := sorted[head].Domain(); d != "" {
			recentDomains[d] = struct{}{}
		}
	}
	return out
}

func firstFresh(sorted []model.Story, pool []int, authors, domains map[string]struct{}) int {
	for j, idx := range pool {
		s := sorted[idx]
		if _, used := authors[s.Author]; used {
			continue
		}
		if d := s.Domain(); d != "" {
			if _, used := domains[d]; used {
				continue
			}
		}
		return j
	}
	return -1
}
