package bias

import (
	"math"
	"sort"
)

// InequalitySummary is the bias_inequality block shared by C7's
// per-subcategory output (spec §4.2 / §4.7).
type InequalitySummary struct {
	Gini  float64 `json:"gini"`
	StdDev float64 `json:"std_dev"`
	Range float64 `json:"range"`
	Band  string  `json:"band"`
}

// MarketShareCorrelation is the market-share-vs-BI correlation block.
type MarketShareCorrelation struct {
	Pearson              CorrelationResult `json:"pearson"`
	Spearman              CorrelationResult `json:"spearman"`
	CorrelationAvailable  bool              `json:"correlation_available"`
	OverallFairnessScore  float64           `json:"overall_fairness_score"`
}

// EnterpriseTierStats aggregates bias statistics for one enterprise tier.
type EnterpriseTierStats struct {
	Count    int      `json:"count"`
	MeanBias float64  `json:"mean_bias"`
	MedianBias float64 `json:"median_bias"`
	StdDevBias float64 `json:"stdev_bias"`
	Entities []string `json:"entities"`
}

// EnterpriseLevelAnalysis is the enterprise-level market-dominance block.
type EnterpriseLevelAnalysis struct {
	Available          bool                           `json:"available"`
	EnterpriseCount     int                            `json:"enterprise_count"`
	TierAnalysis        map[string]EnterpriseTierStats `json:"tier_analysis"`
	TierGaps            map[string]float64             `json:"tier_gaps"`
	FavoritismType       string                         `json:"favoritism_type"`
	SignificanceTest     WelchTTestResult               `json:"significance_test"`
	CorrelationAnalysis  CorrelationResult               `json:"correlation_analysis"`
	FairnessScore        float64                         `json:"fairness_score"`
}

// ServiceEntry is one service's normalized share + fair-share ratio.
type ServiceEntry struct {
	Service           string  `json:"service"`
	RawShare          float64 `json:"raw_share"`
	NormalizedShare   float64 `json:"normalized_share"`
	BiasIndex         float64 `json:"bias_index"`
	FairShareRatio    float64 `json:"fair_share_ratio"`
}

// ServiceLevelAnalysis is the service-level market-dominance block.
type ServiceLevelAnalysis struct {
	Available             bool           `json:"available"`
	DataType               string         `json:"data_type"`
	Services               []ServiceEntry `json:"services"`
	CategoryFairnessScore  float64        `json:"category_fairness_score"`
	EqualOpportunityScore  float64        `json:"equal_opportunity_score"`
	ShareCorrelation       CorrelationResult `json:"share_correlation"`
	ShareCorrelationNote   string         `json:"share_correlation_note"`
}

// HHISummary is a concentration-index block with its qualitative band.
type HHISummary struct {
	Value float64 `json:"value"`
	Band  string  `json:"band"`
}

// MarketDominanceAnalysis bundles enterprise- and service-level analysis
// plus their HHI summaries and integrated fairness score (spec §4.7).
type MarketDominanceAnalysis struct {
	EnterpriseLevel     EnterpriseLevelAnalysis `json:"enterprise_level"`
	ServiceLevel        ServiceLevelAnalysis    `json:"service_level"`
	EnterpriseHHI       HHISummary              `json:"enterprise_hhi"`
	ServiceHHI           HHISummary              `json:"service_hhi"`
	HHIBiasCorrelation  CorrelationResult       `json:"hhi_bias_correlation"`
	IntegratedFairness   IntegratedFairness      `json:"integrated_fairness"`
}

// IntegratedFairness is the final combined fairness score + confidence.
type IntegratedFairness struct {
	IntegratedScore float64 `json:"integrated_score"`
	Confidence      string  `json:"confidence"`
	Interpretation  string  `json:"interpretation"`
}

// RelativeAnalysisResult is the full per-subcategory C7 output.
type RelativeAnalysisResult struct {
	Inequality      InequalitySummary       `json:"bias_inequality"`
	ShareCorrelation MarketShareCorrelation `json:"market_share_correlation"`
	MarketDominance MarketDominanceAnalysis `json:"market_dominance_analysis"`
}

// RelativeAnalyzer runs C7 over C4's entity bias indices plus market
// reference data.
type RelativeAnalyzer struct {
	MarketShares        map[string]MarketShareEntry
	MarketCaps          map[string]float64
	ServiceToEnterprise map[string]string
}

// EntityBias is the minimal per-entity input C7 needs from C4's output.
type EntityBias struct {
	Entity    string
	BiasIndex float64
}

// Analyze runs the relative/market-structure analysis for one subcategory
// given its category's market reference tables and the entity bias
// indices produced by C4.
func (r RelativeAnalyzer) Analyze(entities []EntityBias) RelativeAnalysisResult {
	var out RelativeAnalysisResult

	bis := make([]float64, len(entities))
	for i, e := range entities {
		bis[i] = e.BiasIndex
	}
	out.Inequality = InequalitySummary{
		Gini:   round3(Gini(bis)),
		StdDev: round3(PopulationStdDev(bis)),
		Range:  round3(ValueRange(bis)),
		Band:   GiniBand(Gini(bis)),
	}

	out.ShareCorrelation = r.marketShareCorrelation(entities)
	out.MarketDominance = r.marketDominance(entities)

	return out
}

func (r RelativeAnalyzer) marketShareCorrelation(entities []EntityBias) MarketShareCorrelation {
	var shares, bisVals []float64
	for _, e := range entities {
		entry, ok := r.MarketShares[e.Entity]
		if !ok {
			continue
		}
		share := extractShareValue(entry)
		if share == nil {
			continue
		}
		shares = append(shares, *share)
		bisVals = append(bisVals, e.BiasIndex)
	}
	if len(shares) < 2 {
		return MarketShareCorrelation{CorrelationAvailable: false}
	}
	p := PearsonR(shares, bisVals)
	s := SpearmanRho(shares, bisVals)
	fairness := 1.0
	if p.Available {
		fairness = 1 - absF(p.Value)
	}
	return MarketShareCorrelation{
		Pearson:              roundedCorrelation(p),
		Spearman:              roundedCorrelation(s),
		CorrelationAvailable:  true,
		OverallFairnessScore:  round3(fairness),
	}
}

func roundedCorrelation(c CorrelationResult) CorrelationResult {
	c.Value = round3(c.Value)
	return c
}

// extractShareValue applies the field priority market_share > gmv > users
// > utilization_rate (spec §4.7).
func extractShareValue(e MarketShareEntry) *float64 {
	switch {
	case e.MarketShare != nil:
		return e.MarketShare
	case e.GMV != nil:
		return e.GMV
	case e.Users != nil:
		return e.Users
	case e.UtilizationRate != nil:
		return e.UtilizationRate
	default:
		return nil
	}
}

func categoryDataType(e MarketShareEntry) string {
	switch {
	case e.MarketShare != nil:
		return "ratio"
	case e.GMV != nil:
		return "monetary"
	case e.Users != nil:
		return "user_count"
	default:
		return "other"
	}
}

func enterpriseTier(marketCap float64) string {
	switch {
	case marketCap >= 100:
		return "mega_enterprise"
	case marketCap >= 10:
		return "large_enterprise"
	default:
		return "mid_enterprise"
	}
}

func (r RelativeAnalyzer) marketDominance(entities []EntityBias) MarketDominanceAnalysis {
	var out MarketDominanceAnalysis
	out.EnterpriseLevel = r.enterpriseLevel(entities)
	out.ServiceLevel = r.serviceLevel(entities)

	if out.EnterpriseLevel.Available {
		shares := tierSharesFromCounts(out.EnterpriseLevel.TierAnalysis)
		hhi := HHI(shares)
		out.EnterpriseHHI = HHISummary{Value: round3(hhi), Band: hhiBand(hhi)}
	}
	if out.ServiceLevel.Available {
		shares := make(map[string]float64, len(out.ServiceLevel.Services))
		for _, s := range out.ServiceLevel.Services {
			shares[s.Service] = s.NormalizedShare
		}
		hhi := HHI(shares)
		out.ServiceHHI = HHISummary{Value: round3(hhi), Band: hhiBand(hhi)}
	}

	out.HHIBiasCorrelation = hhiBiasCorrelation(out)
	out.IntegratedFairness = integratedFairness(out.EnterpriseLevel, out.ServiceLevel)
	return out
}

// HHI computes the Herfindahl-Hirschman Index over a share map: sum of
// (share*100)^2 (spec §4.7, GLOSSARY).
func HHI(shares map[string]float64) float64 {
	var sum float64
	for _, s := range shares {
		pct := s * 100
		sum += pct * pct
	}
	return sum
}

func hhiBand(hhi float64) string {
	switch {
	case hhi < 1500:
		return "low"
	case hhi <= 2500:
		return "moderate"
	default:
		return "high"
	}
}

func tierSharesFromCounts(tiers map[string]EnterpriseTierStats) map[string]float64 {
	total := 0
	for _, t := range tiers {
		total += t.Count
	}
	shares := make(map[string]float64, len(tiers))
	if total == 0 {
		return shares
	}
	for name, t := range tiers {
		shares[name] = float64(t.Count) / float64(total)
	}
	return shares
}

func (r RelativeAnalyzer) enterpriseLevel(entities []EntityBias) EnterpriseLevelAnalysis {
	var out EnterpriseLevelAnalysis
	out.TierAnalysis = make(map[string]EnterpriseTierStats)
	out.TierGaps = make(map[string]float64)

	if len(r.MarketCaps) == 0 {
		return out
	}

	tierBiases := map[string][]float64{}
	tierEntities := map[string][]string{}
	seenEnterprise := make(map[string]bool)

	for _, e := range entities {
		enterprise := e.Entity
		if mapped, ok := r.ServiceToEnterprise[e.Entity]; ok {
			enterprise = mapped
		}
		cap, ok := r.MarketCaps[enterprise]
		if !ok {
			continue
		}
		seenEnterprise[enterprise] = true
		tier := enterpriseTier(cap)
		tierBiases[tier] = append(tierBiases[tier], e.BiasIndex)
		tierEntities[tier] = append(tierEntities[tier], e.Entity)
	}

	if len(seenEnterprise) == 0 {
		return out
	}
	out.Available = true
	out.EnterpriseCount = len(seenEnterprise)

	for _, tier := range []string{"mega_enterprise", "large_enterprise", "mid_enterprise"} {
		values := tierBiases[tier]
		if len(values) == 0 {
			continue
		}
		mean, _ := meanAndSD(values)
		out.TierAnalysis[tier] = EnterpriseTierStats{
			Count:      len(values),
			MeanBias:   round3(mean),
			MedianBias: round3(median(values)),
			StdDevBias: round3(sampleStdDev(values)),
			Entities:   tierEntities[tier],
		}
	}

	gap := func(a, b string) (float64, bool) {
		sa, okA := out.TierAnalysis[a]
		sb, okB := out.TierAnalysis[b]
		if !okA || !okB {
			return 0, false
		}
		return sa.MeanBias - sb.MeanBias, true
	}
	if g, ok := gap("mega_enterprise", "mid_enterprise"); ok {
		out.TierGaps["mega_vs_mid_gap"] = round3(g)
	}
	if g, ok := gap("large_enterprise", "mid_enterprise"); ok {
		out.TierGaps["large_vs_mid_gap"] = round3(g)
	}
	if g, ok := gap("mega_enterprise", "large_enterprise"); ok {
		out.TierGaps["mega_vs_large_gap"] = round3(g)
	}

	out.FavoritismType = favoritismType(out.TierAnalysis)

	var large, small, caps, capBias []float64
	for _, e := range entities {
		enterprise := e.Entity
		if mapped, ok := r.ServiceToEnterprise[e.Entity]; ok {
			enterprise = mapped
		}
		cap, ok := r.MarketCaps[enterprise]
		if !ok {
			continue
		}
		caps = append(caps, cap)
		capBias = append(capBias, e.BiasIndex)
		if cap >= 10 {
			large = append(large, e.BiasIndex)
		} else {
			small = append(small, e.BiasIndex)
		}
	}
	out.SignificanceTest = WelchTTest(large, small)

	var allBias []float64
	for _, vals := range tierBiases {
		allBias = append(allBias, vals...)
	}
	if len(caps) == len(seenEnterprise) && len(caps) >= 2 {
		out.CorrelationAnalysis = PearsonR(caps, capBias)
		out.CorrelationAnalysis.Value = round3(out.CorrelationAnalysis.Value)
	} else {
		out.CorrelationAnalysis = CorrelationResult{Reason: "insufficient_common_items"}
	}

	out.FairnessScore = round3(enterpriseFairnessScore(out.TierGaps, allBias))
	return out
}

// favoritismType classifies tier aggregates by the gap between the most
// advantaged tier and the mean of the others (spec §4.7 table).
func favoritismType(tiers map[string]EnterpriseTierStats) string {
	if len(tiers) == 0 {
		return "neutral"
	}
	var mostAdvantaged string
	maxMean := math.Inf(-1)
	for name, t := range tiers {
		if t.MeanBias > maxMean {
			maxMean = t.MeanBias
			mostAdvantaged = name
		}
	}
	var otherSum float64
	var otherCount int
	for name, t := range tiers {
		if name == mostAdvantaged {
			continue
		}
		otherSum += t.MeanBias
		otherCount++
	}
	if otherCount == 0 {
		return "neutral"
	}
	gap := maxMean - otherSum/float64(otherCount)
	switch {
	case math.Abs(gap) < 0.2:
		return "neutral"
	case gap >= 0.5:
		return "large_enterprise_favoritism"
	case gap >= 0.2:
		return "moderate_large_favoritism"
	case gap <= -0.5:
		return "small_enterprise_favoritism"
	default:
		return "moderate_small_favoritism"
	}
}

func enterpriseFairnessScore(gaps map[string]float64, allBias []float64) float64 {
	var components []float64
	for _, g := range gaps {
		components = append(components, 1-math.Min(math.Abs(g), 1))
	}
	if len(allBias) > 1 {
		variance := sampleStdDev(allBias)
		variance = variance * variance
		components = append(components, math.Max(0, 1-variance))
	}
	if len(components) == 0 {
		return 0.5
	}
	var sum float64
	for _, c := range components {
		sum += c
	}
	return sum / float64(len(components))
}

func (r RelativeAnalyzer) serviceLevel(entities []EntityBias) ServiceLevelAnalysis {
	var out ServiceLevelAnalysis
	if len(r.MarketShares) == 0 {
		return out
	}

	biasByEntity := make(map[string]float64, len(entities))
	for _, e := range entities {
		biasByEntity[e.Entity] = e.BiasIndex
	}

	var dataType string
	names := make([]string, 0, len(r.MarketShares))
	for name := range r.MarketShares {
		names = append(names, name)
	}
	sort.Strings(names)
	if len(names) > 0 {
		dataType = categoryDataType(r.MarketShares[names[0]])
	}
	out.DataType = dataType

	rawShares := make(map[string]float64)
	var biasForService []float64
	var serviceNames []string
	for _, name := range names {
		bi, ok := biasByEntity[name]
		if !ok {
			continue
		}
		share := extractShareValue(r.MarketShares[name])
		if share == nil {
			continue
		}
		rawShares[name] = *share
		biasForService = append(biasForService, bi)
		serviceNames = append(serviceNames, name)
	}
	if len(serviceNames) == 0 {
		return out
	}
	out.Available = true

	normalized := normalizeShares(rawShares, dataType)

	var fsrDeviations []float64
	var opportunityTerms []float64
	for _, name := range serviceNames {
		share := normalized[name]
		bi := biasByEntity[name]
		var fsr float64
		if share > 0 {
			fsr = 1 + bi
		}
		out.Services = append(out.Services, ServiceEntry{
			Service:         name,
			RawShare:        round3(rawShares[name]),
			NormalizedShare: round3(share),
			BiasIndex:       round3(bi),
			FairShareRatio:  round3(fsr),
		})
		fsrDeviations = append(fsrDeviations, math.Abs(fsr-1))
		opportunityTerms = append(opportunityTerms, math.Max(0, 1-math.Abs(fsr-1)))
	}

	ratioFairness := 1 - mean(fsrDeviations)
	if ratioFairness < 0 {
		ratioFairness = 0
	}
	var varianceFairness float64 = 1
	if len(biasForService) > 1 {
		sd := sampleStdDev(biasForService)
		varianceFairness = 1 / (1 + sd*sd)
	}
	concentration := 1 / (1 + HHI(normalized)/10000)
	out.CategoryFairnessScore = round3(mean([]float64{ratioFairness, varianceFairness, concentration}))
	out.EqualOpportunityScore = round3(mean(opportunityTerms))

	shareVals := make([]float64, len(serviceNames))
	for i, name := range serviceNames {
		shareVals[i] = normalized[name]
	}
	corr := PearsonR(shareVals, biasForService)
	corr.Value = round3(corr.Value)
	out.ShareCorrelation = corr
	out.ShareCorrelationNote = shareCorrelationNote(corr)

	return out
}

func shareCorrelationNote(c CorrelationResult) string {
	if !c.Available {
		return "insufficient data"
	}
	switch {
	case c.Value > 0.3:
		return "market-share-large services favored"
	case c.Value < -0.3:
		return "market-share-small services favored"
	default:
		return "no clear relationship"
	}
}

// normalizeShares clips ratio data to [0,1]; for other data types it
// min-max normalizes across the category, falling back to 0.5 for all
// entries when every value is identical (spec §4.7).
func normalizeShares(shares map[string]float64, dataType string) map[string]float64 {
	out := make(map[string]float64, len(shares))
	if dataType == "ratio" {
		for k, v := range shares {
			if v < 0 {
				v = 0
			}
			if v > 1 {
				v = 1
			}
			out[k] = v
		}
		return out
	}
	var min, max float64
	first := true
	for _, v := range shares {
		if first {
			min, max = v, v
			first = false
			continue
		}
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}
	if max == min {
		for k := range shares {
			out[k] = 0.5
		}
		return out
	}
	for k, v := range shares {
		out[k] = (v - min) / (max - min)
	}
	return out
}

// hhiBiasCorrelation is left unavailable at the per-subcategory level: HHI
// only varies meaningfully across categories, not within one, so this
// correlation is computed once across all subcategories by the
// orchestrator via CrossCategoryHHIBiasCorrelation after every
// subcategory's C7 result is in hand.
func hhiBiasCorrelation(m MarketDominanceAnalysis) CorrelationResult {
	return CorrelationResult{Reason: "computed_across_categories_by_orchestrator"}
}

// CrossCategoryHHIBiasCorrelation computes the correlation between each
// category's HHI and its mean |BI|, across all of a run's subcategories
// (spec §4.7 "correlation between HHI and mean |BI| is reported").
func CrossCategoryHHIBiasCorrelation(hhis, meanAbsBias []float64) CorrelationResult {
	c := PearsonR(hhis, meanAbsBias)
	c.Value = round3(c.Value)
	return c
}

func integratedFairness(ent EnterpriseLevelAnalysis, svc ServiceLevelAnalysis) IntegratedFairness {
	var scores []float64
	if ent.Available {
		scores = append(scores, ent.FairnessScore)
	}
	if svc.Available {
		scores = append(scores, svc.EqualOpportunityScore)
	}
	if len(scores) == 0 {
		return IntegratedFairness{IntegratedScore: 0.5, Confidence: "low", Interpretation: fairnessInterpretation(0.5)}
	}
	score := mean(scores)
	confidence := "medium"
	if len(scores) == 2 {
		confidence = "high"
	}
	return IntegratedFairness{
		IntegratedScore: round3(score),
		Confidence:      confidence,
		Interpretation:  fairnessInterpretation(score),
	}
}

func fairnessInterpretation(score float64) string {
	switch {
	case score >= 0.8:
		return "very_fair"
	case score >= 0.6:
		return "fair"
	case score >= 0.4:
		return "mild_bias"
	default:
		return "severe_bias"
	}
}

func mean(x []float64) float64 {
	if len(x) == 0 {
		return 0
	}
	var sum float64
	for _, v := range x {
		sum += v
	}
	return sum / float64(len(x))
}

func median(x []float64) float64 {
	if len(x) == 0 {
		return 0
	}
	sorted := append([]float64(nil), x...)
	sort.Float64s(sorted)
	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}

// sampleStdDev computes the population standard deviation (ddof=0), used
// throughout C7 for within-tier bias dispersion.
func sampleStdDev(x []float64) float64 {
	_, sd := meanAndSD(x)
	return sd
}
