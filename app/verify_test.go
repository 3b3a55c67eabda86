package app

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"gohypo/domain/bias"
)

func entityWithDeltaCount(name string, rank, deltaLen, executionCount int) bias.EntitySentimentResult {
	var e bias.EntitySentimentResult
	e.Entity = name
	e.BiasRank = rank
	e.Basic.DeltaValues = make([]float64, deltaLen)
	e.Basic.ExecutionCount = executionCount
	return e
}

func TestVerifyInvariantsCleanResultHasNoIssues(t *testing.T) {
	result := &bias.Result{
		SentimentBiasAnalysis: bias.CategorySubcategoryMap[bias.SubcategorySentimentResult]{
			"llm_comparison": {
				"chatbots": bias.SubcategorySentimentResult{
					Entities: []bias.EntitySentimentResult{
						entityWithDeltaCount("openai", 1, 2, 2),
					},
				},
			},
		},
	}
	expectedTier, expectedConfidence := bias.ReliabilityTierFor(0)
	result.Metadata.ReliabilityLevel = expectedTier
	result.Metadata.ConfidenceLevel = expectedConfidence

	issues := VerifyInvariants(result)
	assert.Empty(t, issues)
}

func TestVerifyInvariantsFlagsDeltaCountMismatch(t *testing.T) {
	result := &bias.Result{
		SentimentBiasAnalysis: bias.CategorySubcategoryMap[bias.SubcategorySentimentResult]{
			"llm_comparison": {
				"chatbots": bias.SubcategorySentimentResult{
					Entities: []bias.EntitySentimentResult{
						entityWithDeltaCount("openai", 1, 3, 2),
					},
				},
			},
		},
	}
	issues := VerifyInvariants(result)
	assert.NotEmpty(t, issues)
}

func TestVerifyInvariantsFlagsOutOfRangeGini(t *testing.T) {
	result := &bias.Result{
		RelativeBiasAnalysis: bias.CategorySubcategoryMap[bias.RelativeAnalysisResult]{
			"llm_comparison": {
				"chatbots": bias.RelativeAnalysisResult{
					Inequality: bias.InequalitySummary{Gini: 1.5},
				},
			},
		},
	}
	issues := VerifyInvariants(result)
	assert.NotEmpty(t, issues)
}

func TestVerifyInvariantsFlagsMetadataReliabilityMismatch(t *testing.T) {
	result := &bias.Result{}
	result.Metadata.ExecutionCount = 25
	result.Metadata.ReliabilityLevel = bias.TierExecutionInsufficient
	result.Metadata.ConfidenceLevel = bias.ConfidenceNone

	issues := VerifyInvariants(result)
	assert.NotEmpty(t, issues)
}
