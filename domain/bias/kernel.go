package bias

import (
	"context"
	"math"
	"sort"

	mstats "github.com/montanaflynn/stats"
	gonumstat "gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"

	"gohypo/ports"
)

// RawDelta is Δ = mean(unmasked) - mean(masked). Returns 0 for empty input.
func RawDelta(masked, unmasked []float64) float64 {
	if len(masked) == 0 || len(unmasked) == 0 {
		return 0
	}
	mm, err := mstats.Mean(mstats.Float64Data(masked))
	if err != nil {
		return 0
	}
	mu, err := mstats.Mean(mstats.Float64Data(unmasked))
	if err != nil {
		return 0
	}
	return mu - mm
}

// SignTestPValue computes the two-sided binomial sign-test p-value over
// paired differences (unmasked_i - masked_i), ignoring zero differences.
// Returns 1.0 when fewer than 5 paired observations remain, or when every
// pair is tied (per spec §4.2 and §9: the field is omitted upstream rather
// than reported misleadingly when unavailable).
func SignTestPValue(masked, unmasked []float64) float64 {
	n := len(masked)
	if len(unmasked) < n {
		n = len(unmasked)
	}
	pos, neg := 0, 0
	for i := 0; i < n; i++ {
		d := unmasked[i] - masked[i]
		switch {
		case d > 0:
			pos++
		case d < 0:
			neg++
		}
	}
	total := pos + neg
	if total < 5 {
		return 1.0
	}
	return twoSidedBinomialTest(pos, total, 0.5)
}

// twoSidedBinomialTest returns the two-sided exact binomial test p-value
// for observing k successes in n trials under success probability p,
// defined as the sum of probabilities of all outcomes no more likely than
// the observed one.
func twoSidedBinomialTest(k, n int, p float64) float64 {
	if n == 0 {
		return 1.0
	}
	dist := distuv.Binomial{N: float64(n), P: p}
	observed := dist.Prob(float64(k))
	const eps = 1e-10
	var total float64
	for i := 0; i <= n; i++ {
		pr := dist.Prob(float64(i))
		if pr <= observed*(1+eps) {
			total += pr
		}
	}
	if total > 1 {
		total = 1
	}
	return total
}

// CliffsDelta computes Cliff's δ over unordered pairs (a in A=masked, b in
// B=unmasked): δ = (#{a<b} - #{a>b}) / (|A|·|B|).
func CliffsDelta(masked, unmasked []float64) float64 {
	m, n := len(masked), len(unmasked)
	if m == 0 || n == 0 {
		return 0
	}
	var gt, lt int
	for _, a := range masked {
		for _, b := range unmasked {
			if a < b {
				gt++
			} else if a > b {
				lt++
			}
		}
	}
	return float64(gt-lt) / float64(m*n)
}

// EffectMagnitude classifies |Cliff's δ| into a qualitative band.
func EffectMagnitude(delta float64) string {
	a := math.Abs(delta)
	switch {
	case a > 0.474:
		return "large"
	case a > 0.330:
		return "medium"
	case a > 0.147:
		return "small"
	default:
		return "negligible"
	}
}

// BootstrapCI computes a percentile bootstrap confidence interval over a
// sample of per-execution deltas, using reps resamples with replacement,
// drawn from the RNG port's SeededStream named stageName+"/"+key with the
// given seed, so the same samples and seed give the same interval on every
// run; runID does not influence the draws. For |samples|<=1 it returns
// (value, value) per spec §4.2.
func BootstrapCI(samples []float64, reps int, ciPercent float64, rng ports.RNGPort, runID, stageName, key string, seed int64) (float64, float64, error) {
	if len(samples) == 0 {
		return 0, 0, nil
	}
	if len(samples) == 1 {
		return samples[0], samples[0], nil
	}
	stream, err := rng.SeededStream(context.Background(), stageName+"/"+key, seed)
	if err != nil {
		return 0, 0, err
	}
	n := len(samples)
	means := make([]float64, reps)
	resample := make([]float64, n)
	for r := 0; r < reps; r++ {
		var sum float64
		for i := 0; i < n; i++ {
			resample[i] = samples[stream.Intn(n)]
			sum += resample[i]
		}
		means[r] = sum / float64(n)
	}
	sort.Float64s(means)
	tail := (100 - ciPercent) / 2
	lowP, err := mstats.Percentile(means, tail)
	if err != nil {
		return 0, 0, err
	}
	highP, err := mstats.Percentile(means, 100-tail)
	if err != nil {
		return 0, 0, err
	}
	return lowP, highP, nil
}

// StabilityScore computes 1/(1+cv) where cv is the coefficient of
// variation (population stdev / |mean|, 0 when mean is 0) of a sequence
// with at least 2 elements.
func StabilityScore(x []float64) (float64, error) {
	if len(x) < 2 {
		return 0, nil
	}
	mean, err := mstats.Mean(mstats.Float64Data(x))
	if err != nil {
		return 0, err
	}
	sd, err := mstats.StandardDeviationPopulation(mstats.Float64Data(x))
	if err != nil {
		return 0, err
	}
	var cv float64
	if mean != 0 {
		cv = sd / math.Abs(mean)
	}
	return 1 / (1 + cv), nil
}

// StabilityInterpretation classifies a stability score into a band.
func StabilityInterpretation(score float64) string {
	switch {
	case score >= 0.9:
		return "very_stable"
	case score >= 0.8:
		return "stable"
	case score >= 0.7:
		return "somewhat_stable"
	default:
		return "unstable"
	}
}

// SeverityScore = clamp(|BI|·|δ|·max(0,1-p)·stability, 0, 10).
func SeverityScore(bi, cliffsDelta, signP, stability float64) float64 {
	s := math.Abs(bi) * math.Abs(cliffsDelta) * math.Max(0, 1-signP) * stability
	if s < 0 {
		return 0
	}
	if s > 10 {
		return 10
	}
	return s
}

// SeverityInterpretation classifies a severity score into a band.
func SeverityInterpretation(score float64) string {
	switch {
	case score >= 7:
		return "very_severe"
	case score >= 4:
		return "severe"
	case score >= 2:
		return "moderate"
	case score >= 0.5:
		return "minor"
	default:
		return "negligible"
	}
}

// NormalizedBiasIndex computes BI_e = delta_e / mean(|delta|) over the
// entity's subcategory peers. If the mean of absolute deltas is 0, BI
// falls back to the raw delta itself (spec §4.2, resolved per DESIGN.md).
func NormalizedBiasIndex(entityDelta float64, allDeltasInSubcategory []float64) float64 {
	if len(allDeltasInSubcategory) == 0 {
		return entityDelta
	}
	var sum float64
	for _, d := range allDeltasInSubcategory {
		sum += math.Abs(d)
	}
	absMean := sum / float64(len(allDeltasInSubcategory))
	if absMean == 0 {
		return entityDelta
	}
	return entityDelta / absMean
}

// BIMagnitude classifies |BI| into a qualitative band.
func BIMagnitude(bi float64) string {
	a := math.Abs(bi)
	switch {
	case a > 1.5:
		return "very_strong"
	case a > 0.8:
		return "strong"
	case a > 0.3:
		return "moderate"
	default:
		return "mild"
	}
}

// Gini computes the Gini coefficient of a non-negative-shiftable vector
// using the ascending-sorted formula. Values may be signed bias indices;
// the coefficient is computed over their magnitudes' rank-weighted sum as
// is conventional for an inequality index applied to a deviation measure.
func Gini(values []float64) float64 {
	n := len(values)
	if n == 0 {
		return 0
	}
	abs := make([]float64, n)
	var sum float64
	for i, v := range values {
		abs[i] = math.Abs(v)
		sum += abs[i]
	}
	if sum == 0 {
		return 0
	}
	sort.Float64s(abs)
	var weighted float64
	for i, v := range abs {
		weighted += float64(2*(i+1)-n-1) * v
	}
	return weighted / (float64(n) * sum)
}

// GiniBand classifies a Gini coefficient into an inequality band.
func GiniBand(g float64) string {
	switch {
	case g < 0.2:
		return "equal"
	case g < 0.4:
		return "somewhat_unequal"
	case g < 0.6:
		return "moderate"
	default:
		return "strong"
	}
}

// PopulationStdDev and Range are small helpers reused by the inequality
// summary (spec §4.2 "bias inequality").
func PopulationStdDev(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sd, err := mstats.StandardDeviationPopulation(mstats.Float64Data(values))
	if err != nil {
		return 0
	}
	return sd
}

func ValueRange(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	min, max := values[0], values[0]
	for _, v := range values[1:] {
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}
	return max - min
}

// CorrelationResult carries a correlation coefficient with its
// availability and an "insufficient" marker for <2 common items.
type CorrelationResult struct {
	Value     float64 `json:"value"`
	Available bool    `json:"available"`
	Reason    string  `json:"reason,omitempty"`
}

// PearsonR computes Pearson's r over paired samples of equal length;
// fewer than 2 points yields an unavailable result.
func PearsonR(x, y []float64) CorrelationResult {
	n := len(x)
	if len(y) < n {
		n = len(y)
	}
	if n < 2 {
		return CorrelationResult{Reason: "insufficient_common_items"}
	}
	r := gonumstat.Correlation(x[:n], y[:n], nil)
	if math.IsNaN(r) {
		return CorrelationResult{Reason: "insufficient_common_items"}
	}
	return CorrelationResult{Value: r, Available: true}
}

// SpearmanRho computes Spearman's rho over paired samples via rank
// transform then Pearson correlation of the ranks.
func SpearmanRho(x, y []float64) CorrelationResult {
	n := len(x)
	if len(y) < n {
		n = len(y)
	}
	if n < 2 {
		return CorrelationResult{Reason: "insufficient_common_items"}
	}
	rx := rankWithTies(x[:n])
	ry := rankWithTies(y[:n])
	r := gonumstat.Correlation(rx, ry, nil)
	if math.IsNaN(r) {
		return CorrelationResult{Reason: "insufficient_common_items"}
	}
	return CorrelationResult{Value: r, Available: true}
}

// KendallTau computes Kendall's tau-a over paired samples: (concordant -
// discordant) / total pairs.
func KendallTau(x, y []float64) CorrelationResult {
	n := len(x)
	if len(y) < n {
		n = len(y)
	}
	if n < 2 {
		return CorrelationResult{Reason: "insufficient_common_items"}
	}
	var concordant, discordant int
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			dx := x[i] - x[j]
			dy := y[i] - y[j]
			switch {
			case dx*dy > 0:
				concordant++
			case dx*dy < 0:
				discordant++
			}
		}
	}
	total := n * (n - 1) / 2
	if total == 0 {
		return CorrelationResult{Reason: "insufficient_common_items"}
	}
	return CorrelationResult{Value: float64(concordant-discordant) / float64(total), Available: true}
}

// WelchTTestResult carries Welch's unequal-variance t-test outcome.
type WelchTTestResult struct {
	TStatistic  float64 `json:"t_statistic"`
	DegreesFreedom float64 `json:"degrees_of_freedom"`
	PValue      float64 `json:"p_value"`
	Performed   bool    `json:"test_performed"`
	TestType    string  `json:"test_type"`
}

// WelchTTest runs Welch's t-test for unequal variances between two
// samples, requiring at least 2 observations per side (spec §4.7
// "favoritism significance"). Grounded on the Welch-Satterthwaite degrees
// of freedom calculation in adapters/stats/senses/welch_ttest.go, with the
// p-value computed from gonum's exact Student's t CDF rather than a
// hand-rolled normal approximation.
func WelchTTest(a, b []float64) WelchTTestResult {
	if len(a) < 2 || len(b) < 2 {
		return WelchTTestResult{TestType: "welch_t_test"}
	}
	meanA, sdA := meanAndSDLocal(a)
	meanB, sdB := meanAndSDLocal(b)
	varA := sdA * sdA
	varB := sdB * sdB
	na, nb := float64(len(a)), float64(len(b))

	seA := varA / na
	seB := varB / nb
	se := math.Sqrt(seA + seB)
	if se == 0 {
		return WelchTTestResult{TestType: "welch_t_test"}
	}
	t := (meanA - meanB) / se

	df := math.Pow(seA+seB, 2) / (math.Pow(seA, 2)/(na-1) + math.Pow(seB, 2)/(nb-1))
	if df <= 0 || math.IsNaN(df) {
		return WelchTTestResult{TestType: "welch_t_test"}
	}

	dist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: df}
	p := 2 * dist.CDF(-math.Abs(t))

	return WelchTTestResult{
		TStatistic:     t,
		DegreesFreedom: df,
		PValue:         p,
		Performed:      true,
		TestType:       "welch_t_test",
	}
}

// studentsTCDF evaluates the Student's t CDF at x for df degrees of
// freedom, shared by the Welch's-t p-value above and C8's Pearson
// significance test.
func studentsTCDF(x, df float64) float64 {
	dist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: df}
	return dist.CDF(x)
}

func meanAndSDLocal(x []float64) (mean, sd float64) {
	n := float64(len(x))
	var sum float64
	for _, v := range x {
		sum += v
	}
	mean = sum / n
	var sq float64
	for _, v := range x {
		d := v - mean
		sq += d * d
	}
	sd = math.Sqrt(sq / n)
	return
}

// rankWithTies assigns average ranks (1-based) to values, averaging the
// rank across ties, the same tie-averaging convention used elsewhere in
// the corpus's Spearman implementation.
func rankWithTies(x []float64) []float64 {
	n := len(x)
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	sort.Slice(idx, func(i, j int) bool { return x[idx[i]] < x[idx[j]] })
	ranks := make([]float64, n)
	i := 0
	for i < n {
		j := i
		for j+1 < n && x[idx[j+1]] == x[idx[i]] {
			j++
		}
		avgRank := float64(i+j)/2 + 1
		for k := i; k <= j; k++ {
			ranks[idx[k]] = avgRank
		}
		i = j + 1
	}
	return ranks
}
