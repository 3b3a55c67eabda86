package bias

import (
	"fmt"
	"sort"
)

// RBO computes rank-biased overlap between two ranked lists with
// persistence parameter p, over deduped prefixes up to min(|A|,|B|).
// Empty input yields 0.
func RBO(a, b []string, p float64) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	depth := len(a)
	if len(b) < depth {
		depth = len(b)
	}
	setA := make(map[string]bool, depth)
	setB := make(map[string]bool, depth)
	var score, weight, weightSum float64
	weight = 1 - p
	for d := 1; d <= depth; d++ {
		setA[a[d-1]] = true
		setB[b[d-1]] = true
		overlap := 0
		for item := range setA {
			if setB[item] {
				overlap++
			}
		}
		agreement := float64(overlap) / float64(d)
		score += weight * agreement
		weightSum += weight
		weight *= p
	}
	if weightSum == 0 {
		return 0
	}
	return score / weightSum
}

// KendallTauRanking computes Kendall's tau over the intersection of two
// ranked item lists (not raw numeric vectors). Fewer than 2 common items
// yields 0, per spec §4.3.
func KendallTauRanking(a, b []string) float64 {
	posA := indexOf(a)
	posB := indexOf(b)
	var common []string
	for item := range posA {
		if _, ok := posB[item]; ok {
			common = append(common, item)
		}
	}
	if len(common) < 2 {
		return 0
	}
	sort.Strings(common)
	var concordant, discordant int
	for i := 0; i < len(common); i++ {
		for j := i + 1; j < len(common); j++ {
			da := posA[common[i]] - posA[common[j]]
			db := posB[common[i]] - posB[common[j]]
			switch {
			case da*db > 0:
				concordant++
			case da*db < 0:
				discordant++
			}
		}
	}
	total := len(common) * (len(common) - 1) / 2
	if total == 0 {
		return 0
	}
	return float64(concordant-discordant) / float64(total)
}

// DeltaRankEntry reports a single item's rank shift between two lists, or
// flags it as missing from one side.
type DeltaRankEntry struct {
	Item       string `json:"item"`
	RankA      int    `json:"rank_a,omitempty"`
	RankB      int    `json:"rank_b,omitempty"`
	Delta      int    `json:"delta,omitempty"`
	MissingIn  string `json:"missing_in,omitempty"`
}

// DeltaRankMap computes rank_B - rank_A for items present in both lists
// (1-based ranks), and reports items present in only one list as missing.
func DeltaRankMap(a, b []string) []DeltaRankEntry {
	posA := indexOf(a)
	posB := indexOf(b)
	seen := make(map[string]bool)
	var out []DeltaRankEntry
	for _, item := range a {
		if seen[item] {
			continue
		}
		seen[item] = true
		if rb, ok := posB[item]; ok {
			ra := posA[item]
			out = append(out, DeltaRankEntry{Item: item, RankA: ra + 1, RankB: rb + 1, Delta: rb - ra})
		} else {
			out = append(out, DeltaRankEntry{Item: item, MissingIn: "b"})
		}
	}
	for _, item := range b {
		if seen[item] {
			continue
		}
		seen[item] = true
		out = append(out, DeltaRankEntry{Item: item, MissingIn: "a"})
	}
	return out
}

// OverlapRatio computes |A∩B| / |A∪B| over the top-k prefixes of two
// lists (k=10 per spec §4.3).
func OverlapRatio(a, b []string, k int) float64 {
	topA := truncate(a, k)
	topB := truncate(b, k)
	setA := indexOf(topA)
	setB := indexOf(topB)
	union := make(map[string]bool, len(setA)+len(setB))
	intersection := 0
	for item := range setA {
		union[item] = true
		if _, ok := setB[item]; ok {
			intersection++
		}
	}
	for item := range setB {
		union[item] = true
	}
	if len(union) == 0 {
		return 0
	}
	return float64(intersection) / float64(len(union))
}

// SimilarityValidation reconciles tau, RBO, overlap ratio, and the common
// item count into a human-readable consistency explanation.
type SimilarityValidation struct {
	Consistent  bool   `json:"consistent"`
	Explanation string `json:"explanation"`
}

// ValidateCompoundSimilarity reconciles the three similarity measures,
// flagging apparent contradictions such as a high tau alongside a low RBO
// (explained by few common items concentrated at the tail of the lists).
func ValidateCompoundSimilarity(tau, rbo, overlap float64, commonCount int) SimilarityValidation {
	lowRBO := rbo < 0.4
	highTau := tau > 0.7 || tau < -0.7
	lowOverlap := overlap < 0.3
	invertedOrder := tau < -0.7
	switch {
	case highTau && lowRBO && commonCount <= 3:
		return SimilarityValidation{
			Consistent:  true,
			Explanation: "high rank agreement with low top-weighted overlap is explained by few common items concentrated away from the top of the lists",
		}
	case lowOverlap && rbo > 0.6:
		return SimilarityValidation{
			Consistent:  true,
			Explanation: "low overall overlap with high top-weighted similarity is explained by strong agreement at the head of the lists despite divergence further down",
		}
	case invertedOrder:
		// A strongly negative tau means the two lists agree on which items
		// appear but disagree on their order — this holds regardless of
		// overlap or RBO, so it is checked on its own rather than folded
		// into the tau<0 && rbo>0.6 case below.
		return SimilarityValidation{
			Consistent:  false,
			Explanation: fmt.Sprintf("low overlap: %t, inverted order: %t — rankings share %d common items but disagree on their order (tau=%.2f)", lowOverlap, invertedOrder, commonCount, tau),
		}
	case tau < 0 && rbo > 0.6:
		return SimilarityValidation{
			Consistent:  false,
			Explanation: "inverted ordering (negative tau) alongside high top-weighted similarity is inconsistent and should be reviewed",
		}
	default:
		return SimilarityValidation{
			Consistent:  true,
			Explanation: "similarity measures agree within expected tolerance",
		}
	}
}

func indexOf(items []string) map[string]int {
	idx := make(map[string]int, len(items))
	for i, item := range items {
		if _, exists := idx[item]; !exists {
			idx[item] = i
		}
	}
	return idx
}

func truncate(items []string, k int) []string {
	if len(items) <= k {
		return items
	}
	return items[:k]
}
