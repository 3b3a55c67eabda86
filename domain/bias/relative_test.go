package bias

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func f64ptr(v float64) *float64 { return &v }

func TestHHIOfMonopolyIsTenThousand(t *testing.T) {
	assert.InDelta(t, 10000.0, HHI(map[string]float64{"a": 1.0}), 1e-9)
}

func TestHHIBandThresholds(t *testing.T) {
	assert.Equal(t, "low", hhiBand(1000))
	assert.Equal(t, "moderate", hhiBand(2000))
	assert.Equal(t, "high", hhiBand(3000))
}

func TestEnterpriseTierThresholds(t *testing.T) {
	assert.Equal(t, "mega_enterprise", enterpriseTier(150))
	assert.Equal(t, "large_enterprise", enterpriseTier(50))
	assert.Equal(t, "mid_enterprise", enterpriseTier(1))
}

func TestRelativeAnalyzerMarketShareCorrelationRequiresTwoEntities(t *testing.T) {
	r := RelativeAnalyzer{
		MarketShares: map[string]MarketShareEntry{
			"openai": {MarketShare: f64ptr(0.6)},
		},
	}
	entities := []EntityBias{{Entity: "openai", BiasIndex: 0.4}}
	result := r.Analyze(entities)
	assert.False(t, result.ShareCorrelation.CorrelationAvailable)
}

func TestRelativeAnalyzerEnterpriseLevelTierGapsAndFairness(t *testing.T) {
	r := RelativeAnalyzer{
		MarketCaps: map[string]float64{
			"openai":    150,
			"anthropic": 50,
			"mistral":   1,
		},
	}
	entities := []EntityBias{
		{Entity: "openai", BiasIndex: 0.8},
		{Entity: "anthropic", BiasIndex: 0.5},
		{Entity: "mistral", BiasIndex: 0.1},
	}
	result := r.Analyze(entities)

	assert.True(t, result.MarketDominance.EnterpriseLevel.Available)
	assert.Equal(t, 3, result.MarketDominance.EnterpriseLevel.EnterpriseCount)
	assert.Contains(t, result.MarketDominance.EnterpriseLevel.TierGaps, "mega_vs_mid_gap")
	assert.InDelta(t, 0.7, result.MarketDominance.EnterpriseLevel.TierGaps["mega_vs_mid_gap"], 1e-9)
	assert.Equal(t, "large_enterprise_favoritism", result.MarketDominance.EnterpriseLevel.FavoritismType)
}

func TestRelativeAnalyzerNoMarketDataReturnsUnavailable(t *testing.T) {
	var r RelativeAnalyzer
	result := r.Analyze([]EntityBias{{Entity: "openai", BiasIndex: 0.2}})
	assert.False(t, result.MarketDominance.EnterpriseLevel.Available)
	assert.False(t, result.MarketDominance.ServiceLevel.Available)
	assert.Equal(t, 0.5, result.MarketDominance.IntegratedFairness.IntegratedScore)
}

func TestNormalizeSharesRatioClipsToUnitRange(t *testing.T) {
	out := normalizeShares(map[string]float64{"a": 1.4, "b": -0.2}, "ratio")
	assert.Equal(t, 1.0, out["a"])
	assert.Equal(t, 0.0, out["b"])
}

func TestNormalizeSharesAllIdenticalFallsBackToHalf(t *testing.T) {
	out := normalizeShares(map[string]float64{"a": 5, "b": 5}, "monetary")
	assert.Equal(t, 0.5, out["a"])
	assert.Equal(t, 0.5, out["b"])
}

func TestFairnessInterpretationBands(t *testing.T) {
	assert.Equal(t, "very_fair", fairnessInterpretation(0.9))
	assert.Equal(t, "fair", fairnessInterpretation(0.65))
	assert.Equal(t, "mild_bias", fairnessInterpretation(0.45))
	assert.Equal(t, "severe_bias", fairnessInterpretation(0.1))
}

func TestCrossCategoryHHIBiasCorrelationSelfCorrelated(t *testing.T) {
	hhis := []float64{1000, 2000, 3000, 4000}
	bias := []float64{0.1, 0.2, 0.3, 0.4}
	c := CrossCategoryHHIBiasCorrelation(hhis, bias)
	assert.True(t, c.Available)
	assert.InDelta(t, 1.0, c.Value, 1e-9)
}
