package app

import (
	"fmt"

	"gohypo/domain/bias"
)

// VerifyInvariants re-checks a persisted result against the bias engine's
// universal invariants (spec §8) that can be re-derived from the output
// alone, without re-reading the original integrated dataset.
func VerifyInvariants(result *bias.Result) []string {
	var issues []string

	for category, subcategories := range result.SentimentBiasAnalysis {
		for subcategory, sr := range subcategories {
			ranks := make(map[int]bool)
			for _, e := range sr.Entities {
				if len(e.Basic.DeltaValues) != e.Basic.ExecutionCount {
					issues = append(issues, fmt.Sprintf("%s/%s: entity %s has %d delta values but execution_count=%d",
						category, subcategory, e.Entity, len(e.Basic.DeltaValues), e.Basic.ExecutionCount))
				}
				if e.BiasRank <= 0 {
					issues = append(issues, fmt.Sprintf("%s/%s: entity %s has non-positive bias_rank %d", category, subcategory, e.Entity, e.BiasRank))
				}
				if ranks[e.BiasRank] {
					issues = append(issues, fmt.Sprintf("%s/%s: duplicate bias_rank %d", category, subcategory, e.BiasRank))
				}
				ranks[e.BiasRank] = true
			}
		}
	}

	for category, subcategories := range result.RelativeBiasAnalysis {
		for subcategory, rel := range subcategories {
			if rel.Inequality.Gini < 0 || rel.Inequality.Gini > 1 {
				issues = append(issues, fmt.Sprintf("%s/%s: gini %.3f out of [0,1]", category, subcategory, rel.Inequality.Gini))
			}
			if rel.MarketDominance.EnterpriseHHI.Value < 0 || rel.MarketDominance.EnterpriseHHI.Value > 10000 {
				issues = append(issues, fmt.Sprintf("%s/%s: enterprise HHI %.3f out of [0,10000]", category, subcategory, rel.MarketDominance.EnterpriseHHI.Value))
			}
			if rel.MarketDominance.ServiceHHI.Value < 0 || rel.MarketDominance.ServiceHHI.Value > 10000 {
				issues = append(issues, fmt.Sprintf("%s/%s: service HHI %.3f out of [0,10000]", category, subcategory, rel.MarketDominance.ServiceHHI.Value))
			}
		}
	}

	expectedTier, expectedConfidence := bias.ReliabilityTierFor(result.Metadata.ExecutionCount)
	if result.Metadata.ReliabilityLevel != expectedTier || result.Metadata.ConfidenceLevel != expectedConfidence {
		issues = append(issues, fmt.Sprintf("metadata reliability/confidence (%s/%s) does not match execution_count=%d (expected %s/%s)",
			result.Metadata.ReliabilityLevel, result.Metadata.ConfidenceLevel, result.Metadata.ExecutionCount, expectedTier, expectedConfidence))
	}

	return issues
}
