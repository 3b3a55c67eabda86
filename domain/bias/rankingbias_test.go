package bias

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRankingBiasAnalyzerNilInputReturnsZeroValue(t *testing.T) {
	var analyzer RankingBiasAnalyzer
	result := analyzer.AnalyzeSubcategory(nil)
	assert.Equal(t, SubcategoryRankingResult{}, result)
}

func TestRankingBiasAnalyzerComputesStabilityAndQuality(t *testing.T) {
	in := &RankingSubcategory{
		RankingSummary: RankingSummary{
			AvgRanking: []string{"alpha", "beta", "gamma"},
			Entities: map[string]*RankingEntityInput{
				"alpha": {AllRanks: []int{1, 1, 1, 1, 1}, AvgRank: 1},
				"beta":  {AllRanks: []int{2, 2, 3, 2, 2}, AvgRank: 2.2},
				"gamma": {AllRanks: []int{3, 3, 2, 3, 3}, AvgRank: 2.8},
			},
		},
	}
	var analyzer RankingBiasAnalyzer
	result := analyzer.AnalyzeSubcategory(in)

	assert.Equal(t, 5, result.CategorySummary.ExecutionCount)
	assert.True(t, result.CategorySummary.StabilityAnalysis.Available)
	assert.Equal(t, 1.0, result.RankingVariation["alpha"].MeanRank)
	assert.Contains(t, result.RankingComparison, "alpha_vs_beta")

	tiers := result.CategorySummary.CategoryLevel.CompetitionAnalysis.Tiers
	assert.Len(t, tiers, 3)
}

func TestRankingBiasAnalyzerSignificanceRequiresFiveExecutions(t *testing.T) {
	in := &RankingSubcategory{
		RankingSummary: RankingSummary{
			AvgRanking: []string{"alpha", "beta"},
			Entities: map[string]*RankingEntityInput{
				"alpha": {AllRanks: []int{1, 1, 1}},
				"beta":  {AllRanks: []int{2, 2, 2}},
			},
		},
	}
	var analyzer RankingBiasAnalyzer
	result := analyzer.AnalyzeSubcategory(in)
	assert.Nil(t, result.EntitySignificance)
}

func TestBuildCompetitionAnalysisBalanceBands(t *testing.T) {
	cl := buildCompetitionAnalysis([]string{"a", "b"}, []string{"a", "b"})
	assert.Equal(t, "low", cl.CompetitionAnalysis.Balance)
	assert.Equal(t, "full", cl.CompetitionAnalysis.Spread)

	cl = buildCompetitionAnalysis([]string{"a", "b", "c", "d", "e"}, []string{"a", "b", "c", "d", "e"})
	assert.Equal(t, "high", cl.CompetitionAnalysis.Balance)
}
