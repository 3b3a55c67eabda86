package bias

import (
	"context"
	"fmt"
	"math"
	"sort"

	"gohypo/ports"
)

const (
	bootstrapReps    = 10000
	bootstrapCIPct   = 95.0
	correctionAlpha  = 0.05
	categoryBIThresh = 0.1
)

// EntitySentimentResult is the per-entity output of the sentiment bias
// analyzer (spec §4.4 contract).
type EntitySentimentResult struct {
	Entity  string `json:"entity"`
	Basic   struct {
		RawDelta             float64   `json:"raw_delta"`
		NormalizedBiasIndex  float64   `json:"normalized_bias_index"`
		DeltaValues          []float64 `json:"delta_values"`
		ExecutionCount       int       `json:"execution_count"`
	} `json:"basic_metrics"`
	Significance struct {
		SignTestPValue    *float64 `json:"sign_test_p_value,omitempty"`
		SignificanceLevel string   `json:"significance_level"`
		Available         bool     `json:"available"`
		TestPower         string   `json:"test_power"`
		CorrectedPValue   *float64 `json:"corrected_p_value,omitempty"`
		Rejected          *bool    `json:"rejected,omitempty"`
		CorrectionMethod  string   `json:"correction_method,omitempty"`
		Alpha             float64  `json:"alpha,omitempty"`
	} `json:"statistical_significance"`
	EffectSize struct {
		CliffsDelta            *float64 `json:"cliffs_delta,omitempty"`
		EffectMagnitude        string   `json:"effect_magnitude"`
		PracticalSignificance  bool     `json:"practical_significance"`
		Available              bool     `json:"available"`
	} `json:"effect_size"`
	ConfidenceInterval struct {
		CILower        *float64 `json:"ci_lower,omitempty"`
		CIUpper        *float64 `json:"ci_upper,omitempty"`
		ConfidenceLevel float64 `json:"confidence_level"`
		Available      bool    `json:"available"`
		Interpretation string  `json:"interpretation"`
	} `json:"confidence_interval"`
	Stability struct {
		StabilityScore        float64 `json:"stability_score"`
		CoefficientOfVariation float64 `json:"coefficient_of_variation"`
		Reliability           string  `json:"reliability"`
		Interpretation        string  `json:"interpretation"`
	} `json:"stability_metrics"`
	Severity *struct {
		SeverityScore  float64            `json:"severity_score"`
		Components     map[string]float64 `json:"components"`
		Interpretation string             `json:"interpretation"`
	} `json:"severity_score"`
	Interpretation struct {
		BiasDirection  string `json:"bias_direction"`
		BiasStrength   string `json:"bias_strength"`
		ConfidenceNote string `json:"confidence_note"`
		Recommendation string `json:"recommendation"`
	} `json:"interpretation"`
	BiasIndex float64 `json:"bias_index"`
	BiasRank  int     `json:"bias_rank"`
}

// CategoryLevelSentiment is the category_level_analysis block attached to
// each subcategory's sentiment output.
type CategoryLevelSentiment struct {
	BiasDistribution struct {
		Positive int `json:"positive"`
		Negative int `json:"negative"`
		Neutral  int `json:"neutral"`
	} `json:"bias_distribution"`
	BiasRange      float64 `json:"bias_range"`
	StabilityAverage float64 `json:"stability_average"`
}

// SubcategorySentimentResult bundles a subcategory's entities plus its
// category-level rollup and data-quality diagnostics (SPEC_FULL §D.5).
type SubcategorySentimentResult struct {
	Entities            []EntitySentimentResult `json:"entities"`
	CategoryLevel       CategoryLevelSentiment   `json:"category_level_analysis"`
	DataQuality         struct {
		SkippedCount int          `json:"skipped_count"`
		Skipped      []SkipReason `json:"skipped,omitempty"`
	} `json:"data_quality"`
}

// SentimentAnalyzer runs C4 over the perplexity_sentiment block.
type SentimentAnalyzer struct {
	RNG    ports.RNGPort
	RunID  string
	Seed   int64
}

// AnalyzeSubcategory runs the sentiment bias algorithm for one
// (category, subcategory) block.
func (s *SentimentAnalyzer) AnalyzeSubcategory(ctx context.Context, category, subcategory string, in *SentimentSubcategory) SubcategorySentimentResult {
	var out SubcategorySentimentResult
	if in == nil {
		return out
	}

	masked := in.MaskedValues
	type validEntity struct {
		name   string
		delta  float64
		values []float64
		n      int
	}
	var valid []validEntity

	names := make([]string, 0, len(in.Entities))
	for name := range in.Entities {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		ent := in.Entities[name]
		if ent == nil || len(ent.UnmaskedValues) == 0 {
			out.DataQuality.Skipped = append(out.DataQuality.Skipped, SkipReason{Entity: name, Reason: "missing_unmasked_values"})
			continue
		}
		n := len(masked)
		if len(ent.UnmaskedValues) < n {
			n = len(ent.UnmaskedValues)
		}
		if n == 0 {
			out.DataQuality.Skipped = append(out.DataQuality.Skipped, SkipReason{Entity: name, Reason: "zero_paired_executions"})
			continue
		}
		outOfRange := false
		for i := 0; i < n; i++ {
			if masked[i] < 1.0 || masked[i] > 5.0 || ent.UnmaskedValues[i] < 1.0 || ent.UnmaskedValues[i] > 5.0 {
				outOfRange = true
				break
			}
		}
		if outOfRange {
			out.DataQuality.Skipped = append(out.DataQuality.Skipped, SkipReason{Entity: name, Reason: "value_out_of_range"})
			continue
		}
		maskedN := masked[:n]
		unmaskedN := ent.UnmaskedValues[:n]
		delta := RawDelta(maskedN, unmaskedN)
		deltaValues := make([]float64, n)
		for i := 0; i < n; i++ {
			deltaValues[i] = unmaskedN[i] - maskedN[i]
		}
		valid = append(valid, validEntity{name: name, delta: delta, values: deltaValues, n: n})
	}
	out.DataQuality.SkippedCount = len(out.DataQuality.Skipped)
	if len(valid) == 0 {
		return out
	}

	allDeltas := make([]float64, len(valid))
	for i, v := range valid {
		allDeltas[i] = v.delta
	}

	results := make([]EntitySentimentResult, 0, len(valid))
	pValues := make([]float64, 0, len(valid))
	pIndexByEntity := make(map[string]int)

	for _, v := range valid {
		maskedN := masked[:v.n]
		unmaskedN := make([]float64, v.n)
		for i := 0; i < v.n; i++ {
			unmaskedN[i] = maskedN[i] + v.values[i]
		}

		var r EntitySentimentResult
		r.Entity = v.name
		r.Basic.RawDelta = round3(v.delta)
		bi := NormalizedBiasIndex(v.delta, allDeltas)
		r.Basic.NormalizedBiasIndex = round3(bi)
		r.Basic.DeltaValues = roundAll3(v.values)
		r.Basic.ExecutionCount = v.n
		r.BiasIndex = round3(bi)

		signAvail := CheckMetric(MetricSignTest, v.n).Available
		r.Significance.Available = signAvail
		r.Significance.TestPower = testPowerLabel(v.n)
		if signAvail {
			p := SignTestPValue(maskedN, unmaskedN)
			pRounded := round4(p)
			r.Significance.SignTestPValue = &pRounded
			r.Significance.SignificanceLevel = significanceLabel(p)
			pValues = append(pValues, p)
			pIndexByEntity[v.name] = len(pValues) - 1
		} else {
			r.Significance.SignificanceLevel = "unavailable"
		}

		effectAvail := CheckMetric(MetricCliffsDelta, v.n).Available
		r.EffectSize.Available = effectAvail
		if effectAvail {
			d := CliffsDelta(maskedN, unmaskedN)
			dr := round3(d)
			r.EffectSize.CliffsDelta = &dr
			r.EffectSize.EffectMagnitude = EffectMagnitude(d)
			r.EffectSize.PracticalSignificance = EffectMagnitude(d) == "medium" || EffectMagnitude(d) == "large"
		} else {
			r.EffectSize.EffectMagnitude = "unavailable"
		}

		ciAvail := CheckMetric(MetricBootstrapCI, v.n).Available
		r.ConfidenceInterval.ConfidenceLevel = bootstrapCIPct / 100
		r.ConfidenceInterval.Available = ciAvail
		if ciAvail {
			lo, hi, err := BootstrapCI(v.values, bootstrapReps, bootstrapCIPct, s.RNG, s.RunID, "sentiment_bootstrap", category+"/"+subcategory+"/"+v.name, s.Seed)
			if err == nil {
				loR, hiR := round3(lo), round3(hi)
				r.ConfidenceInterval.CILower = &loR
				r.ConfidenceInterval.CIUpper = &hiR
				r.ConfidenceInterval.Interpretation = ciInterpretation(lo, hi)
			} else {
				r.ConfidenceInterval.Available = false
				r.ConfidenceInterval.Interpretation = "bootstrap_failed"
			}
		} else {
			r.ConfidenceInterval.Interpretation = "unavailable"
		}

		stabAvail := CheckMetric(MetricStability, v.n).Available
		if stabAvail {
			score, _ := StabilityScore(v.values)
			r.Stability.StabilityScore = round3(score)
			mean, sd := meanAndSD(v.values)
			var cv float64
			if mean != 0 {
				cv = sd / absF(mean)
			}
			r.Stability.CoefficientOfVariation = round3(cv)
			r.Stability.Reliability = StabilityInterpretation(score)
			r.Stability.Interpretation = StabilityInterpretation(score)
		} else {
			r.Stability.Interpretation = "unavailable"
		}

		if signAvail && effectAvail && stabAvail {
			p := *r.Significance.SignTestPValue
			d := *r.EffectSize.CliffsDelta
			stab := r.Stability.StabilityScore
			sev := SeverityScore(bi, d, p, stab)
			r.Severity = &struct {
				SeverityScore  float64            `json:"severity_score"`
				Components     map[string]float64 `json:"components"`
				Interpretation string             `json:"interpretation"`
			}{
				SeverityScore: round3(sev),
				Components: map[string]float64{
					"bias_index":   round3(absF(bi)),
					"cliffs_delta": round3(absF(d)),
					"significance": round3(1 - p),
					"stability":    round3(stab),
				},
				Interpretation: SeverityInterpretation(sev),
			}
		}

		r.Interpretation.BiasDirection = biasDirection(bi)
		r.Interpretation.BiasStrength = BIMagnitude(bi)
		r.Interpretation.ConfidenceNote = confidenceNote(v.n)
		r.Interpretation.Recommendation = sentimentRecommendation(v.n, bi)

		results = append(results, r)
	}

	if len(pValues) >= 2 {
		corr := Correct(pValues, MethodBenjaminiHochberg, correctionAlpha)
		for i := range results {
			idx, ok := pIndexByEntity[results[i].Entity]
			if !ok {
				continue
			}
			cp := round4(corr.Corrected[idx])
			rej := corr.Rejected[idx]
			results[i].Significance.CorrectedPValue = &cp
			results[i].Significance.Rejected = &rej
			results[i].Significance.CorrectionMethod = string(corr.Method)
			results[i].Significance.Alpha = corr.Alpha
		}
	}

	sort.SliceStable(results, func(i, j int) bool {
		if results[i].BiasIndex != results[j].BiasIndex {
			return results[i].BiasIndex > results[j].BiasIndex
		}
		sevI, sevJ := severityOf(results[i]), severityOf(results[j])
		if sevI != sevJ {
			return sevI > sevJ
		}
		return results[i].Entity < results[j].Entity
	})
	for i := range results {
		results[i].BiasRank = i + 1
	}

	out.Entities = results
	out.CategoryLevel = buildCategoryLevel(results)
	return out
}

func severityOf(r EntitySentimentResult) float64 {
	if r.Severity == nil {
		return -1
	}
	return r.Severity.SeverityScore
}

func buildCategoryLevel(results []EntitySentimentResult) CategoryLevelSentiment {
	var c CategoryLevelSentiment
	var bis []float64
	var stabs []float64
	for _, r := range results {
		bis = append(bis, r.BiasIndex)
		if r.Stability.Interpretation != "unavailable" {
			stabs = append(stabs, r.Stability.StabilityScore)
		}
		switch {
		case r.BiasIndex > categoryBIThresh:
			c.BiasDistribution.Positive++
		case r.BiasIndex < -categoryBIThresh:
			c.BiasDistribution.Negative++
		default:
			c.BiasDistribution.Neutral++
		}
	}
	c.BiasRange = round3(ValueRange(bis))
	if len(stabs) > 0 {
		var sum float64
		for _, s := range stabs {
			sum += s
		}
		c.StabilityAverage = round3(sum / float64(len(stabs)))
	}
	return c
}

func testPowerLabel(n int) string {
	switch {
	case n >= 20:
		return "high"
	case n >= 10:
		return "medium"
	case n >= 5:
		return "low"
	default:
		return "insufficient"
	}
}

func significanceLabel(p float64) string {
	switch {
	case p < 0.01:
		return "highly_significant"
	case p < 0.05:
		return "significant"
	case p < 0.1:
		return "marginal"
	default:
		return "not_significant"
	}
}

func ciInterpretation(lo, hi float64) string {
	if lo <= 0 && hi >= 0 {
		return "interval includes zero; direction not conclusive"
	}
	if lo > 0 {
		return "interval entirely positive; consistent positive bias"
	}
	return "interval entirely negative; consistent negative bias"
}

func biasDirection(bi float64) string {
	switch {
	case bi > 0:
		return "favors_unmasked"
	case bi < 0:
		return "favors_masked"
	default:
		return "neutral"
	}
}

func confidenceNote(n int) string {
	tier, conf := ReliabilityTierFor(n)
	return fmt.Sprintf("%s reliability (%s tier, n=%d)", conf, tier, n)
}

func sentimentRecommendation(n int, bi float64) string {
	tier, _ := ReliabilityTierFor(n)
	if recs := RecommendationsFor(tier); len(recs) > 0 {
		return recs[0]
	}
	if absF(bi) > 0.8 {
		return "investigate source of strong bias; consider manual review"
	}
	return "no action needed"
}

func meanAndSD(x []float64) (mean, sd float64) {
	if len(x) == 0 {
		return 0, 0
	}
	var sum float64
	for _, v := range x {
		sum += v
	}
	mean = sum / float64(len(x))
	var sq float64
	for _, v := range x {
		d := v - mean
		sq += d * d
	}
	sd = math.Sqrt(sq / float64(len(x)))
	return mean, sd
}

func absF(v float64) float64 {
	return math.Abs(v)
}

func roundAll3(x []float64) []float64 {
	out := make([]float64, len(x))
	for i, v := range x {
		out[i] = round3(v)
	}
	return out
}
