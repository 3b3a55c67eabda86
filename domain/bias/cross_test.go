package bias

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSentimentRankingCorrelationForStrongNegative(t *testing.T) {
	entities := []SentimentRankingInput{
		{Entity: "a", BiasIndex: 0.9, AvgRank: 1},
		{Entity: "b", BiasIndex: 0.5, AvgRank: 2},
		{Entity: "c", BiasIndex: 0.1, AvgRank: 3},
		{Entity: "d", BiasIndex: -0.3, AvgRank: 4},
	}
	result := SentimentRankingCorrelationFor(entities)
	assert.Equal(t, 4, result.SampleSize)
	assert.True(t, result.Pearson.Available)
	assert.Less(t, result.Pearson.Value, 0.0)
	assert.Equal(t, "strong", result.Interpretation)
	assert.NotNil(t, result.PValue)
}

func TestConsistentLeadersLaggardsFiltersByThresholds(t *testing.T) {
	bySub := map[string][]SentimentRankingInput{
		"llm_comparison": {
			{Entity: "openai", BiasIndex: 0.8, Significant: true, Stability: 0.9, AvgRank: 1, RankPercentile: 0.1},
			{Entity: "also-ran", BiasIndex: 0.8, Significant: true, Stability: 0.5, AvgRank: 1, RankPercentile: 0.1},
			{Entity: "laggy", BiasIndex: -0.7, Significant: true, Stability: 0.9, AvgRank: 10, RankPercentile: 0.9},
		},
	}
	leaders, laggards := ConsistentLeadersLaggards(bySub)
	assert.Len(t, leaders, 1)
	assert.Equal(t, "openai", leaders[0].Entity)
	assert.Len(t, laggards, 1)
	assert.Equal(t, "laggy", laggards[0].Entity)
}

func TestPlatformAlignmentFromEmptyReturnsZeroValue(t *testing.T) {
	result := PlatformAlignmentFrom(nil)
	assert.Equal(t, PlatformAlignment{}, result)
}

func TestPlatformAlignmentFromAveragesAcrossResults(t *testing.T) {
	results := []RankingSimilarity{
		{KendallTau: 1, RBOScore: 1, OverlapRatio: 1},
		{KendallTau: 0, RBOScore: 0, OverlapRatio: 0},
	}
	result := PlatformAlignmentFrom(results)
	assert.InDelta(t, 0.5, result.Score, 1e-9)
	assert.Equal(t, 2, result.SampleCount)
}

func TestOverallBiasPatternFromNoSignificanceIsBalanced(t *testing.T) {
	points := []EnterpriseBiasPoint{{Tier: "mega_enterprise", BiasIndex: 0.9, Significant: false}}
	result := OverallBiasPatternFrom(points)
	assert.Equal(t, "balanced", result.Pattern)
}

func TestOverallBiasPatternFromStrongLargeFavoritism(t *testing.T) {
	points := []EnterpriseBiasPoint{
		{Tier: "mega_enterprise", BiasIndex: 0.9, Significant: true},
		{Tier: "mid_enterprise", BiasIndex: -0.1, Significant: true},
	}
	result := OverallBiasPatternFrom(points)
	assert.Equal(t, "strong_large_enterprise_favoritism", result.Pattern)
}

func TestCrossPlatformConsistencyFromReliabilityBands(t *testing.T) {
	assert.Equal(t, "high", CrossPlatformConsistencyFrom(0.5, 0.5, 25).Reliability)
	assert.Equal(t, "medium", CrossPlatformConsistencyFrom(0.5, 0.5, 12).Reliability)
	assert.Equal(t, "basic", CrossPlatformConsistencyFrom(0.5, 0.5, 6).Reliability)
	assert.Equal(t, "low", CrossPlatformConsistencyFrom(0.5, 0.5, 2).Reliability)
}
