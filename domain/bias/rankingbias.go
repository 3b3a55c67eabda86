package bias

import (
	"math"
	"sort"
)

// EntityRankStats is the per-entity rank_variance / ranking_variation
// summary derived from an entity's all_ranks history.
type EntityRankStats struct {
	MeanRank  float64 `json:"mean_rank"`
	RankStd   float64 `json:"rank_std"`
	RankRange float64 `json:"rank_range"`
}

// EntityQuality is the per-entity quality_analysis.entity_quality entry.
type EntityQuality struct {
	RankConsistency  float64 `json:"rank_consistency"`
	HasOfficialURL   bool    `json:"has_official_url"`
	AvgRank          float64 `json:"avg_rank"`
	RankStability    float64 `json:"rank_stability"`
}

// StabilityAnalysis is the category_summary.stability_analysis block.
type StabilityAnalysis struct {
	OverallStability      float64                    `json:"overall_stability"`
	AvgRankStd            float64                    `json:"avg_rank_std"`
	ExecutionCount        int                        `json:"execution_count"`
	RankVariance          map[string]EntityRankStats `json:"rank_variance"`
	StabilityInterpretation string                   `json:"stability_interpretation"`
	Available             bool                       `json:"available"`
}

// QualityAnalysis is the category_summary.quality_analysis block.
type QualityAnalysis struct {
	QualityMetrics struct {
		CompletenessScore float64 `json:"completeness_score"`
		ConsistencyScore  float64 `json:"consistency_score"`
		EntityCoverage    int     `json:"entity_coverage"`
		RankingLength     int     `json:"ranking_length"`
	} `json:"quality_metrics"`
	EntityQuality        map[string]EntityQuality `json:"entity_quality"`
	OverallQualityScore  float64                  `json:"overall_quality_score"`
	QualityInterpretation string                  `json:"quality_interpretation"`
}

// CompetitionAnalysis classifies entities into rank tiers (spec §4.5).
type CompetitionAnalysis struct {
	Tiers   map[string]string `json:"tiers"` // entity -> "上位"|"中位"|"下位"
	Balance string            `json:"balance"`
	Spread  string            `json:"spread"`
}

// CategoryLevelRanking is the category_summary.category_level_analysis block.
type CategoryLevelRanking struct {
	RankDistribution    map[string]int      `json:"rank_distribution"`
	CompetitionAnalysis CompetitionAnalysis `json:"competition_analysis"`
}

// CategorySummary is the category_summary block of C5's output.
type CategorySummary struct {
	ExecutionCount      int                  `json:"execution_count"`
	AnswerList          []string             `json:"answer_list"`
	StabilityAnalysis   StabilityAnalysis    `json:"stability_analysis"`
	QualityAnalysis     QualityAnalysis      `json:"quality_analysis"`
	CategoryLevel       CategoryLevelRanking `json:"category_level_analysis"`
}

// EntitySignificance is the optional ranking_significance block attached
// to an entity when a sign test of its per-execution ranks against the
// top-ranked entity's was performed. Only PValue is filled; no multiple-
// comparison correction is applied.
type EntitySignificance struct {
	PValue           *float64 `json:"p_value,omitempty"`
	CorrectedPValue  *float64 `json:"corrected_p_value,omitempty"`
	Rejected         *bool    `json:"rejected,omitempty"`
	CorrectionMethod string   `json:"correction_method,omitempty"`
	Alpha            float64  `json:"alpha,omitempty"`
}

// SubcategoryRankingResult is the full per-subcategory C5 output.
type SubcategoryRankingResult struct {
	CategorySummary    CategorySummary                        `json:"category_summary"`
	RankingVariation   map[string]EntityRankStats              `json:"ranking_variation"`
	RankingComparison  map[string]float64                      `json:"ranking_comparison"`
	EntitySignificance map[string]EntitySignificance           `json:"entity_significance,omitempty"`
}

// RankingBiasAnalyzer runs C5 over the perplexity_rankings block.
type RankingBiasAnalyzer struct{}

// AnalyzeSubcategory runs the ranking bias algorithm for one
// (category, subcategory) block.
func (RankingBiasAnalyzer) AnalyzeSubcategory(in *RankingSubcategory) SubcategoryRankingResult {
	var out SubcategoryRankingResult
	if in == nil {
		return out
	}
	summary := in.RankingSummary
	entityNames := make([]string, 0, len(summary.Entities))
	for name := range summary.Entities {
		entityNames = append(entityNames, name)
	}
	sort.Strings(entityNames)

	n := 0
	for _, name := range entityNames {
		if e := summary.Entities[name]; e != nil && len(e.AllRanks) > n {
			n = len(e.AllRanks)
		}
	}

	rankVariance := make(map[string]EntityRankStats, len(entityNames))
	entityQuality := make(map[string]EntityQuality, len(entityNames))
	var stdSum float64
	var stdCount int

	for _, name := range entityNames {
		e := summary.Entities[name]
		if e == nil || len(e.AllRanks) == 0 {
			continue
		}
		ranks := make([]float64, len(e.AllRanks))
		for i, r := range e.AllRanks {
			ranks[i] = float64(r)
		}
		mean, sd := meanAndSD(ranks)
		rng := ValueRange(ranks)
		rankVariance[name] = EntityRankStats{MeanRank: round3(mean), RankStd: round3(sd), RankRange: round3(rng)}
		consistency := math.Max(0, 1-sd/3)
		entityQuality[name] = EntityQuality{
			RankConsistency: round3(consistency),
			HasOfficialURL:  e.OfficialURL != "",
			AvgRank:         round3(e.AvgRank),
			RankStability:   round3(consistency),
		}
		stdSum += sd
		stdCount++
	}

	var stabilityAvail bool
	var overallStability, avgRankStd float64
	if stdCount > 0 {
		stabilityAvail = true
		avgRankStd = stdSum / float64(stdCount)
		overallStability = math.Max(0, 1-avgRankStd/3)
	}

	out.CategorySummary.ExecutionCount = n
	out.CategorySummary.AnswerList = append([]string(nil), summary.AvgRanking...)
	out.CategorySummary.StabilityAnalysis = StabilityAnalysis{
		OverallStability:        round3(overallStability),
		AvgRankStd:              round3(avgRankStd),
		ExecutionCount:          n,
		RankVariance:            rankVariance,
		StabilityInterpretation: StabilityInterpretation(overallStability),
		Available:               stabilityAvail,
	}

	var consistencySum float64
	for _, eq := range entityQuality {
		consistencySum += eq.RankConsistency
	}
	var consistencyScore float64
	if len(entityQuality) > 0 {
		consistencyScore = consistencySum / float64(len(entityQuality))
	}
	var completeness float64
	if len(entityNames) > 0 {
		completeness = float64(len(summary.AvgRanking)) / float64(len(entityNames))
	}
	overallQuality := (completeness + consistencyScore) / 2

	out.CategorySummary.QualityAnalysis = QualityAnalysis{
		EntityQuality:        entityQuality,
		OverallQualityScore:  round3(overallQuality),
		QualityInterpretation: StabilityInterpretation(overallQuality),
	}
	out.CategorySummary.QualityAnalysis.QualityMetrics.CompletenessScore = round3(completeness)
	out.CategorySummary.QualityAnalysis.QualityMetrics.ConsistencyScore = round3(consistencyScore)
	out.CategorySummary.QualityAnalysis.QualityMetrics.EntityCoverage = len(entityNames)
	out.CategorySummary.QualityAnalysis.QualityMetrics.RankingLength = len(summary.AvgRanking)

	out.CategorySummary.CategoryLevel = buildCompetitionAnalysis(summary.AvgRanking, entityNames)

	out.RankingVariation = rankVariance

	out.RankingComparison = make(map[string]float64)
	order := summary.AvgRanking
	for i := 0; i < len(order); i++ {
		for j := i + 1; j < len(order); j++ {
			e1, e2 := order[i], order[j]
			ent1, ok1 := summary.Entities[e1]
			ent2, ok2 := summary.Entities[e2]
			if !ok1 || !ok2 || len(ent1.AllRanks) == 0 || len(ent1.AllRanks) != len(ent2.AllRanks) {
				continue
			}
			var sum float64
			for k := range ent1.AllRanks {
				sum += float64(ent1.AllRanks[k] - ent2.AllRanks[k])
			}
			key := e1 + "_vs_" + e2
			out.RankingComparison[key] = round3(sum / float64(len(ent1.AllRanks)))
		}
	}

	out.EntitySignificance = buildRankingSignificance(order, summary.Entities)

	return out
}

// buildCompetitionAnalysis classifies entities by final-rank tier and
// reports how balanced the tiers are and how complete the ranking is
// relative to the entity roster (spec §4.5).
func buildCompetitionAnalysis(order []string, entityNames []string) CategoryLevelRanking {
	var cl CategoryLevelRanking
	cl.RankDistribution = make(map[string]int)
	cl.CompetitionAnalysis.Tiers = make(map[string]string)

	n := len(order)
	if n > 0 {
		third := n / 3
		for i, name := range order {
			var tier string
			switch {
			case i < third:
				tier = "上位"
			case i < n-third:
				tier = "中位"
			default:
				tier = "下位"
			}
			cl.CompetitionAnalysis.Tiers[name] = tier
			cl.RankDistribution[tier]++
		}
	}

	switch {
	case len(entityNames) >= 5:
		cl.CompetitionAnalysis.Balance = "high"
	case len(entityNames) >= 3:
		cl.CompetitionAnalysis.Balance = "mid"
	default:
		cl.CompetitionAnalysis.Balance = "low"
	}

	if n == len(entityNames) {
		cl.CompetitionAnalysis.Spread = "full"
	} else {
		cl.CompetitionAnalysis.Spread = "partial"
	}
	return cl
}

// buildRankingSignificance compares each non-leading entity's rank history
// against the top-ranked entity's via a sign test over paired executions,
// then applies BH correction across the resulting p-values. This operates
// on the same sign-test/correction primitives C2 supplies to C4, applied
// here to rank values instead of sentiment scores (spec §4.5 "multiple-
// comparison applied to any entity-level p-values present").
func buildRankingSignificance(order []string, entities map[string]*RankingEntityInput) map[string]EntitySignificance {
	if len(order) < 2 {
		return nil
	}
	leader, ok := entities[order[0]]
	if !ok || len(leader.AllRanks) < 5 {
		return nil
	}
	leaderRanks := toFloat(leader.AllRanks)

	out := make(map[string]EntitySignificance)
	var pValues []float64
	var names []string
	for _, name := range order[1:] {
		e, ok := entities[name]
		if !ok || len(e.AllRanks) != len(leader.AllRanks) {
			continue
		}
		p := SignTestPValue(leaderRanks, toFloat(e.AllRanks))
		pValues = append(pValues, p)
		names = append(names, name)
	}
	if len(pValues) == 0 {
		return nil
	}
	if len(pValues) >= 2 {
		corr := Correct(pValues, MethodBenjaminiHochberg, correctionAlpha)
		for i, name := range names {
			p := round4(pValues[i])
			cp := round4(corr.Corrected[i])
			rej := corr.Rejected[i]
			out[name] = EntitySignificance{PValue: &p, CorrectedPValue: &cp, Rejected: &rej, CorrectionMethod: string(corr.Method), Alpha: corr.Alpha}
		}
	} else {
		p := round4(pValues[0])
		out[names[0]] = EntitySignificance{PValue: &p}
	}
	return out
}

func toFloat(x []int) []float64 {
	out := make([]float64, len(x))
	for i, v := range x {
		out[i] = float64(v)
	}
	return out
}
