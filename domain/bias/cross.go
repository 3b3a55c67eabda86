package bias

import "math"

// SentimentRankingCorrelation is the per-subcategory sentiment-ranking
// correlation block (spec §4.8).
type SentimentRankingCorrelation struct {
	Pearson        CorrelationResult `json:"pearson"`
	PValue         *float64          `json:"p_value,omitempty"`
	Spearman       CorrelationResult `json:"spearman"`
	SampleSize     int               `json:"n"`
	Interpretation string            `json:"interpretation"`
}

// LeaderLaggardEntry names an entity found to be a consistent leader or
// laggard across sentiment, ranking, and stability signals.
type LeaderLaggardEntry struct {
	Entity      string `json:"entity"`
	Subcategory string `json:"subcategory"`
	BiasIndex   float64 `json:"bias_index"`
	AvgRank     float64 `json:"avg_rank"`
}

// PlatformAlignment is the platform_alignment block combining C6 signals.
type PlatformAlignment struct {
	Score          float64 `json:"score"`
	Level          string  `json:"level"`
	SampleCount    int     `json:"sample_count"`
}

// OverallBiasPattern classifies entity-level enterprise size vs BI.
type OverallBiasPattern struct {
	Pattern string `json:"pattern"`
}

// CrossPlatformConsistency is the per-category cross-platform consistency
// score.
type CrossPlatformConsistency struct {
	Score       float64 `json:"score"`
	Reliability string  `json:"reliability"`
	SampleCount int     `json:"sample_count"`
}

// CrossAnalysisResult bundles all of C8's output.
type CrossAnalysisResult struct {
	SentimentRanking map[string]SentimentRankingCorrelation `json:"sentiment_ranking_correlation"`
	ConsistentLeaders []LeaderLaggardEntry                   `json:"consistent_leaders"`
	ConsistentLaggards []LeaderLaggardEntry                  `json:"consistent_laggards"`
	PlatformAlignment  PlatformAlignment                     `json:"platform_alignment"`
	OverallPattern     OverallBiasPattern                    `json:"overall_bias_pattern"`
	CrossPlatformConsistency CrossPlatformConsistency        `json:"cross_platform_consistency"`
}

// SentimentRankingInput is the minimal per-entity input C8 needs, joined
// from C4 and C5 output for one subcategory.
type SentimentRankingInput struct {
	Entity       string
	BiasIndex    float64
	Significant  bool // BH-rejected sign test
	Stability    float64
	AvgRank      float64
	RankPercentile float64 // 0 = best rank, 1 = worst, within its subcategory
}

// CrossAnalyzer holds an enterprise-tier lookup for C8. It has no methods:
// the orchestrator joins the C4/C5/C6/C7 results per subcategory itself
// and calls the package-level C8 functions below directly.
type CrossAnalyzer struct {
	EnterpriseTierOf func(entity string) (tier string, ok bool)
}

// SentimentRankingCorrelationFor computes the Pearson/Spearman correlation
// between bias_index and avg_rank for one subcategory's joined entities.
func SentimentRankingCorrelationFor(entities []SentimentRankingInput) SentimentRankingCorrelation {
	var bis, ranks []float64
	for _, e := range entities {
		bis = append(bis, e.BiasIndex)
		ranks = append(ranks, e.AvgRank)
	}
	pearson := PearsonR(bis, ranks)
	spearman := SpearmanRho(bis, ranks)
	var result SentimentRankingCorrelation
	result.SampleSize = len(entities)
	if pearson.Available {
		pearson.Value = round3(pearson.Value)
		p := round4(pearsonPValue(pearson.Value, len(entities)))
		result.PValue = &p
	}
	result.Pearson = pearson
	if spearman.Available {
		spearman.Value = round3(spearman.Value)
	}
	result.Spearman = spearman
	result.Interpretation = correlationStrengthBand(pearson.Value)
	return result
}

func pearsonPValue(r float64, n int) float64 {
	if n < 3 {
		return 1.0
	}
	df := float64(n - 2)
	denom := 1 - r*r
	if denom <= 0 {
		return 0
	}
	t := r * math.Sqrt(df/denom)
	dist := studentsTCDFHelper(df)
	return 2 * dist(-math.Abs(t))
}

func correlationStrengthBand(r float64) string {
	a := math.Abs(r)
	switch {
	case a >= 0.7:
		return "strong"
	case a >= 0.3:
		return "moderate"
	default:
		return "weak"
	}
}

// ConsistentLeadersLaggards finds entities whose sentiment bias is
// BH-significant, |BI|>0.5, whose avg_rank falls in the top or bottom 20%
// of its subcategory, and whose stability is >=0.8 (spec §4.8).
func ConsistentLeadersLaggards(bySubcategory map[string][]SentimentRankingInput) ([]LeaderLaggardEntry, []LeaderLaggardEntry) {
	var leaders, laggards []LeaderLaggardEntry
	for sub, entities := range bySubcategory {
		for _, e := range entities {
			if !e.Significant || math.Abs(e.BiasIndex) <= 0.5 || e.Stability < 0.8 {
				continue
			}
			entry := LeaderLaggardEntry{Entity: e.Entity, Subcategory: sub, BiasIndex: round3(e.BiasIndex), AvgRank: round3(e.AvgRank)}
			switch {
			case e.RankPercentile <= 0.2 && e.BiasIndex > 0:
				leaders = append(leaders, entry)
			case e.RankPercentile >= 0.8 && e.BiasIndex < 0:
				laggards = append(laggards, entry)
			}
		}
	}
	return leaders, laggards
}

// PlatformAlignmentFrom aggregates (|tau|, RBO, overlap) across a set of
// C6 ranking-similarity results into a per-category alignment score.
func PlatformAlignmentFrom(results []RankingSimilarity) PlatformAlignment {
	if len(results) == 0 {
		return PlatformAlignment{}
	}
	var sum float64
	for _, r := range results {
		sum += 0.4*math.Abs(r.KendallTau) + 0.4*r.RBOScore + 0.2*r.OverlapRatio
	}
	avg := sum / float64(len(results))
	return PlatformAlignment{
		Score:       round3(avg),
		Level:       similarityBand(avg),
		SampleCount: len(results),
	}
}

// EnterpriseBiasPoint is one entity's enterprise tier and bias index, used
// by OverallBiasPatternFrom.
type EnterpriseBiasPoint struct {
	Tier      string
	BiasIndex float64
	Significant bool
}

// OverallBiasPatternFrom classifies the overall bias pattern across all
// entities, reusing C7's enterprise tier map for consistency (spec §9,
// third bullet: "this spec requires using the same enterprise→tier map as
// the market-dominance analyzer for consistency").
func OverallBiasPatternFrom(points []EnterpriseBiasPoint) OverallBiasPattern {
	var anySignificant bool
	var largeBias, smallBias []float64
	var largePos, smallPos, largeTotal, smallTotal int
	for _, p := range points {
		if p.Significant {
			anySignificant = true
		}
		if p.Tier == "mega_enterprise" || p.Tier == "large_enterprise" {
			largeBias = append(largeBias, p.BiasIndex)
			largeTotal++
			if p.BiasIndex > 0 {
				largePos++
			}
		} else {
			smallBias = append(smallBias, p.BiasIndex)
			smallTotal++
			if p.BiasIndex > 0 {
				smallPos++
			}
		}
	}
	if !anySignificant {
		return OverallBiasPattern{Pattern: "balanced"}
	}
	largeAvg := mean(largeBias)
	smallAvg := mean(smallBias)
	gap := largeAvg - smallAvg
	var largePosRatio, smallPosRatio float64
	if largeTotal > 0 {
		largePosRatio = float64(largePos) / float64(largeTotal)
	}
	if smallTotal > 0 {
		smallPosRatio = float64(smallPos) / float64(smallTotal)
	}

	switch {
	case gap > 0.6 || (largePosRatio > smallPosRatio+0.4 && largePosRatio > 0.7):
		return OverallBiasPattern{Pattern: "strong_large_enterprise_favoritism"}
	case gap > 0.4:
		return OverallBiasPattern{Pattern: "moderate_large_enterprise_favoritism"}
	case gap < -0.6 || (smallPosRatio > largePosRatio+0.4 && smallPosRatio > 0.7):
		return OverallBiasPattern{Pattern: "strong_small_enterprise_favoritism"}
	case gap < -0.4:
		return OverallBiasPattern{Pattern: "moderate_small_enterprise_favoritism"}
	case largeTotal > 0 && smallTotal == 0:
		return OverallBiasPattern{Pattern: "large_enterprise_dominance"}
	case smallTotal > 0 && largeTotal == 0:
		return OverallBiasPattern{Pattern: "small_enterprise_dominance"}
	default:
		return OverallBiasPattern{Pattern: "mixed_pattern"}
	}
}

// CrossPlatformConsistencyFrom combines the sentiment-ranking correlation
// strength and the citation-alignment score into a single per-category
// reliability-weighted consistency score.
func CrossPlatformConsistencyFrom(sentimentRankCorr, platformAlignmentScore float64, sampleCount int) CrossPlatformConsistency {
	score := (math.Abs(sentimentRankCorr) + platformAlignmentScore) / 2
	reliability := "low"
	switch {
	case sampleCount >= 20:
		reliability = "high"
	case sampleCount >= 10:
		reliability = "medium"
	case sampleCount >= 5:
		reliability = "basic"
	}
	return CrossPlatformConsistency{
		Score:       round3(score),
		Reliability: reliability,
		SampleCount: sampleCount,
	}
}

// studentsTCDFHelper returns a closure computing the Student's t CDF at a
// given value for df degrees of freedom, isolated so pearsonPValue reads
// as a simple formula.
func studentsTCDFHelper(df float64) func(float64) float64 {
	return func(x float64) float64 {
		return studentsTCDF(x, df)
	}
}
