package bias

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	rngadapter "gohypo/adapters/rng"
)

func TestRawDelta(t *testing.T) {
	assert.Equal(t, 0.0, RawDelta(nil, []float64{1, 2}))
	assert.InDelta(t, 1.0, RawDelta([]float64{1, 2, 3}, []float64{2, 3, 4}), 1e-9)
}

func TestCliffsDeltaIdenticalDistributionsIsZero(t *testing.T) {
	same := []float64{1, 2, 3, 4}
	assert.InDelta(t, 0.0, CliffsDelta(same, same), 1e-9)
}

func TestCliffsDeltaFullySeparated(t *testing.T) {
	masked := []float64{1, 2, 3}
	unmasked := []float64{4, 5, 6}
	assert.InDelta(t, 1.0, CliffsDelta(masked, unmasked), 1e-9)
	assert.InDelta(t, -1.0, CliffsDelta(unmasked, masked), 1e-9)
}

func TestEffectMagnitudeBands(t *testing.T) {
	assert.Equal(t, "negligible", EffectMagnitude(0.05))
	assert.Equal(t, "small", EffectMagnitude(0.2))
	assert.Equal(t, "medium", EffectMagnitude(0.4))
	assert.Equal(t, "large", EffectMagnitude(0.9))
}

func TestSignTestPValueBelowMinimumPairsReturnsOne(t *testing.T) {
	masked := []float64{1, 1, 1}
	unmasked := []float64{2, 2, 2}
	assert.Equal(t, 1.0, SignTestPValue(masked, unmasked))
}

func TestSignTestPValueAllTiedReturnsOne(t *testing.T) {
	same := []float64{1, 2, 3, 4, 5, 6}
	assert.Equal(t, 1.0, SignTestPValue(same, same))
}

func TestSignTestPValueConsistentDirectionIsSmall(t *testing.T) {
	masked := []float64{1, 1, 1, 1, 1, 1}
	unmasked := []float64{2, 2, 2, 2, 2, 2}
	p := SignTestPValue(masked, unmasked)
	assert.Less(t, p, 0.05)
}

func TestBootstrapCISingleSampleReturnsSamePoint(t *testing.T) {
	rng := rngadapter.New()
	lo, hi, err := BootstrapCI([]float64{3.5}, 1000, 95, rng, "run-1", "stage", "key", 42)
	assert.NoError(t, err)
	assert.Equal(t, 3.5, lo)
	assert.Equal(t, 3.5, hi)
}

func TestBootstrapCIEmptyReturnsZero(t *testing.T) {
	rng := rngadapter.New()
	lo, hi, err := BootstrapCI(nil, 1000, 95, rng, "run-1", "stage", "key", 42)
	assert.NoError(t, err)
	assert.Equal(t, 0.0, lo)
	assert.Equal(t, 0.0, hi)
}

func TestBootstrapCIIsDeterministicForSameSeed(t *testing.T) {
	samples := []float64{1, 2, 3, 4, 5, 2, 3, 4}
	rng1 := rngadapter.New()
	rng2 := rngadapter.New()
	lo1, hi1, err1 := BootstrapCI(samples, 500, 95, rng1, "run-1", "stage", "key", 7)
	lo2, hi2, err2 := BootstrapCI(samples, 500, 95, rng2, "run-1", "stage", "key", 7)
	assert.NoError(t, err1)
	assert.NoError(t, err2)
	assert.Equal(t, lo1, lo2)
	assert.Equal(t, hi1, hi2)
}

func TestBootstrapCIBoundsContainTheMean(t *testing.T) {
	samples := []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}
	rng := rngadapter.New()
	lo, hi, err := BootstrapCI(samples, 2000, 95, rng, "run-1", "stage", "key", 7)
	assert.NoError(t, err)
	assert.LessOrEqual(t, lo, 5.5)
	assert.GreaterOrEqual(t, hi, 5.5)
}

func TestStabilityScoreConstantSequenceIsFullyStable(t *testing.T) {
	score, err := StabilityScore([]float64{4, 4, 4, 4})
	assert.NoError(t, err)
	assert.InDelta(t, 1.0, score, 1e-9)
}

func TestStabilityScoreSingleValueReturnsZero(t *testing.T) {
	score, err := StabilityScore([]float64{4})
	assert.NoError(t, err)
	assert.Equal(t, 0.0, score)
}

func TestSeverityScoreClampedToTen(t *testing.T) {
	s := SeverityScore(100, 1, 0, 1)
	assert.Equal(t, 10.0, s)
}

func TestSeverityScoreNeverNegative(t *testing.T) {
	s := SeverityScore(-5, -1, 0, 1)
	assert.GreaterOrEqual(t, s, 0.0)
}

func TestNormalizedBiasIndexFallsBackToRawDeltaWhenPeersAllZero(t *testing.T) {
	bi := NormalizedBiasIndex(2.5, []float64{0, 0, 0})
	assert.Equal(t, 2.5, bi)
}

func TestGiniOfEqualValuesIsZero(t *testing.T) {
	g := Gini([]float64{1, 1, 1, 1})
	assert.InDelta(t, 0.0, g, 1e-9)
}

func TestGiniIsWithinUnitRange(t *testing.T) {
	g := Gini([]float64{0, 0, 0, 10})
	assert.GreaterOrEqual(t, g, 0.0)
	assert.LessOrEqual(t, g, 1.0)
}

func TestGiniEmptyIsZero(t *testing.T) {
	assert.Equal(t, 0.0, Gini(nil))
}

func TestPearsonRSelfCorrelationIsOne(t *testing.T) {
	x := []float64{1, 2, 3, 4, 5}
	r := PearsonR(x, x)
	assert.True(t, r.Available)
	assert.InDelta(t, 1.0, r.Value, 1e-9)
}

func TestPearsonRInsufficientPoints(t *testing.T) {
	r := PearsonR([]float64{1}, []float64{1})
	assert.False(t, r.Available)
	assert.Equal(t, "insufficient_common_items", r.Reason)
}

func TestSpearmanRhoSelfCorrelationIsOne(t *testing.T) {
	x := []float64{3, 1, 4, 1, 5, 9, 2, 6}
	r := SpearmanRho(x, x)
	assert.True(t, r.Available)
	assert.InDelta(t, 1.0, r.Value, 1e-9)
}

func TestKendallTauSelfCorrelationIsOne(t *testing.T) {
	x := []float64{1, 2, 3, 4, 5}
	r := KendallTau(x, x)
	assert.True(t, r.Available)
	assert.InDelta(t, 1.0, r.Value, 1e-9)
}

func TestKendallTauReversedIsMinusOne(t *testing.T) {
	x := []float64{1, 2, 3, 4, 5}
	y := []float64{5, 4, 3, 2, 1}
	r := KendallTau(x, y)
	assert.True(t, r.Available)
	assert.InDelta(t, -1.0, r.Value, 1e-9)
}

func TestWelchTTestRequiresTwoPerSide(t *testing.T) {
	r := WelchTTest([]float64{1}, []float64{1, 2})
	assert.False(t, r.Performed)
}

func TestWelchTTestDetectsClearDifference(t *testing.T) {
	a := []float64{1, 2, 1, 2, 1}
	b := []float64{10, 11, 10, 11, 10}
	r := WelchTTest(a, b)
	assert.True(t, r.Performed)
	assert.Less(t, r.PValue, 0.01)
	assert.False(t, math.IsNaN(r.TStatistic))
}
