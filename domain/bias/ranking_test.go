package bias

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRBOOfIdenticalListsIsOne(t *testing.T) {
	list := []string{"a.com", "b.com", "c.com", "d.com"}
	assert.InDelta(t, 1.0, RBO(list, list, 0.9), 1e-9)
}

func TestRBOOfEmptyListIsZero(t *testing.T) {
	assert.Equal(t, 0.0, RBO(nil, []string{"a"}, 0.9))
}

func TestKendallTauRankingIdenticalListsIsOne(t *testing.T) {
	list := []string{"a.com", "b.com", "c.com"}
	assert.InDelta(t, 1.0, KendallTauRanking(list, list), 1e-9)
}

func TestKendallTauRankingFewerThanTwoCommonItemsIsZero(t *testing.T) {
	assert.Equal(t, 0.0, KendallTauRanking([]string{"a.com"}, []string{"b.com"}))
}

func TestOverlapRatioIdenticalListsIsOne(t *testing.T) {
	list := []string{"a.com", "b.com"}
	assert.InDelta(t, 1.0, OverlapRatio(list, list, 10), 1e-9)
}

func TestOverlapRatioDisjointListsIsZero(t *testing.T) {
	assert.Equal(t, 0.0, OverlapRatio([]string{"a.com"}, []string{"b.com"}, 10))
}

func TestValidateCompoundSimilarityFullyInvertedRankingIsInconsistent(t *testing.T) {
	google := []string{"g1", "g2", "g3", "g4", "g5", "g6", "g7", "g8", "g9", "g10"}
	citations := []string{"g10", "g9", "g8", "g7", "g6", "g5", "g4", "g3", "g2", "g1"}

	tau := KendallTauRanking(google, citations)
	rbo := RBO(google, citations, 0.9)
	overlap := OverlapRatio(google, citations, 10)
	common := commonCount(google, citations)

	assert.InDelta(t, -1.0, tau, 1e-9)
	assert.InDelta(t, 1.0, overlap, 1e-9)
	assert.Equal(t, 10, common)
	assert.Less(t, rbo, 0.6)

	result := ValidateCompoundSimilarity(tau, rbo, overlap, common)
	assert.False(t, result.Consistent)
	assert.Contains(t, result.Explanation, "low overlap: false")
	assert.Contains(t, result.Explanation, "inverted order: true")
}

func TestDeltaRankMapFlagsMissingItems(t *testing.T) {
	a := []string{"a.com", "b.com"}
	b := []string{"b.com", "c.com"}
	deltas := DeltaRankMap(a, b)
	var found map[string]DeltaRankEntry
	found = make(map[string]DeltaRankEntry)
	for _, d := range deltas {
		found[d.Item] = d
	}
	assert.Equal(t, "b", found["a.com"].MissingIn)
	assert.Equal(t, "a", found["c.com"].MissingIn)
	assert.Empty(t, found["b.com"].MissingIn)
}
