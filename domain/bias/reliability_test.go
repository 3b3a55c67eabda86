package bias

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestReliabilityTierForBoundaries(t *testing.T) {
	cases := []struct {
		n    int
		tier ReliabilityTier
		conf ConfidenceLevel
	}{
		{0, TierExecutionInsufficient, ConfidenceNone},
		{1, TierExecutionInsufficient, ConfidenceNone},
		{2, TierReferenceOnly, ConfidenceLow},
		{3, TierBasic, ConfidenceLow},
		{5, TierPractical, ConfidenceBasic},
		{10, TierStandard, ConfidenceMedium},
		{20, TierHighPrecision, ConfidenceHigh},
		{100, TierHighPrecision, ConfidenceHigh},
	}
	for _, c := range cases {
		tier, conf := ReliabilityTierFor(c.n)
		assert.Equal(t, c.tier, tier, "n=%d", c.n)
		assert.Equal(t, c.conf, conf, "n=%d", c.n)
	}
}

func TestCheckMetricBelowMinimumIsUnavailable(t *testing.T) {
	result := CheckMetric(MetricSignTest, 3)
	assert.False(t, result.Available)
	assert.Equal(t, "execution_count_below_minimum", result.Reason)
	assert.Equal(t, 5, result.RequiredN)
}

func TestCheckMetricAtMinimumIsAvailable(t *testing.T) {
	result := CheckMetric(MetricSignTest, 5)
	assert.True(t, result.Available)
}

func TestAvailabilityTableCoversAllMetrics(t *testing.T) {
	table := AvailabilityTable(5)
	assert.Len(t, table, len(minimumN))
	assert.True(t, table[MetricRawDelta].Available)
	assert.True(t, table[MetricBootstrapCI].Available)
}

func TestBuildLimitationsHighPrecisionHasNoWarningOrRecommendations(t *testing.T) {
	lim := BuildLimitations(25, nil)
	assert.Empty(t, lim.ExecutionCountWarning)
	assert.Empty(t, lim.RecommendedActions)
	assert.NotEmpty(t, lim.ScopeLimitations)
	assert.NotEmpty(t, lim.InterpretationCaveats)
}

func TestBuildLimitationsLowExecutionCountWarns(t *testing.T) {
	lim := BuildLimitations(1, []string{"missing ranking data for x/y"})
	assert.NotEmpty(t, lim.ExecutionCountWarning)
	assert.NotEmpty(t, lim.RecommendedActions)
	assert.Equal(t, []string{"missing ranking data for x/y"}, lim.DataQualityIssues)
}
