package bias

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	rngadapter "gohypo/adapters/rng"
)

func TestSentimentAnalyzerNilInputReturnsZeroValue(t *testing.T) {
	s := &SentimentAnalyzer{RNG: rngadapter.New(), RunID: "run-1", Seed: 1}
	result := s.AnalyzeSubcategory(context.Background(), "llm_comparison", "chatbots", nil)
	assert.Equal(t, SubcategorySentimentResult{}, result)
}

func TestSentimentAnalyzerSkipsEntitiesMissingUnmaskedValues(t *testing.T) {
	in := &SentimentSubcategory{
		MaskedValues: []float64{3, 3, 3, 3, 3},
		Entities: map[string]*SentimentEntityInput{
			"openai": {UnmaskedValues: nil},
		},
	}
	s := &SentimentAnalyzer{RNG: rngadapter.New(), RunID: "run-1", Seed: 1}
	result := s.AnalyzeSubcategory(context.Background(), "llm_comparison", "chatbots", in)
	assert.Equal(t, 1, result.DataQuality.SkippedCount)
	assert.Equal(t, "missing_unmasked_values", result.DataQuality.Skipped[0].Reason)
	assert.Empty(t, result.Entities)
}

func TestSentimentAnalyzerSkipsOutOfRangeValues(t *testing.T) {
	in := &SentimentSubcategory{
		MaskedValues: []float64{3, 3, 3, 3, 3},
		Entities: map[string]*SentimentEntityInput{
			"openai": {UnmaskedValues: []float64{9, 9, 9, 9, 9}},
		},
	}
	s := &SentimentAnalyzer{RNG: rngadapter.New(), RunID: "run-1", Seed: 1}
	result := s.AnalyzeSubcategory(context.Background(), "llm_comparison", "chatbots", in)
	assert.Equal(t, "value_out_of_range", result.DataQuality.Skipped[0].Reason)
}

func TestSentimentAnalyzerComputesFullEntityResult(t *testing.T) {
	in := &SentimentSubcategory{
		MaskedValues: []float64{3, 3, 3, 3, 3, 3, 3, 3, 3, 3, 3, 3, 3, 3, 3, 3, 3, 3, 3, 3},
		Entities: map[string]*SentimentEntityInput{
			"openai": {UnmaskedValues: []float64{4.5, 4.5, 4.5, 4.5, 4.5, 4.5, 4.5, 4.5, 4.5, 4.5, 4.5, 4.5, 4.5, 4.5, 4.5, 4.5, 4.5, 4.5, 4.5, 4.5}},
			"rival":  {UnmaskedValues: []float64{3, 3, 3, 3, 3, 3, 3, 3, 3, 3, 3, 3, 3, 3, 3, 3, 3, 3, 3, 3}},
		},
	}
	s := &SentimentAnalyzer{RNG: rngadapter.New(), RunID: "run-1", Seed: 7}
	result := s.AnalyzeSubcategory(context.Background(), "llm_comparison", "chatbots", in)

	assert.Len(t, result.Entities, 2)
	openai := result.Entities[0]
	assert.Equal(t, "openai", openai.Entity)
	assert.Equal(t, 1, openai.BiasRank)
	assert.InDelta(t, 1.5, openai.Basic.RawDelta, 1e-9)
	assert.True(t, openai.Significance.Available)
	assert.True(t, openai.EffectSize.Available)
	assert.True(t, openai.ConfidenceInterval.Available)
	assert.NotNil(t, openai.Significance.CorrectedPValue)
	assert.NotNil(t, openai.Severity)
	assert.Equal(t, "favors_unmasked", openai.Interpretation.BiasDirection)
}

func TestSignificanceLabelBands(t *testing.T) {
	assert.Equal(t, "highly_significant", significanceLabel(0.005))
	assert.Equal(t, "significant", significanceLabel(0.03))
	assert.Equal(t, "marginal", significanceLabel(0.08))
	assert.Equal(t, "not_significant", significanceLabel(0.5))
}

func TestCIInterpretationBands(t *testing.T) {
	assert.Contains(t, ciInterpretation(-1, 1), "not conclusive")
	assert.Contains(t, ciInterpretation(0.5, 1), "positive bias")
	assert.Contains(t, ciInterpretation(-1, -0.5), "negative bias")
}

func TestBiasDirectionBands(t *testing.T) {
	assert.Equal(t, "favors_unmasked", biasDirection(0.5))
	assert.Equal(t, "favors_masked", biasDirection(-0.5))
	assert.Equal(t, "neutral", biasDirection(0))
}
