package bias

// ReliabilityTier is the qualitative label derived from an execution count.
type ReliabilityTier string

const (
	TierExecutionInsufficient ReliabilityTier = "execution_insufficient"
	TierReferenceOnly         ReliabilityTier = "reference_only"
	TierBasic                 ReliabilityTier = "basic"
	TierPractical             ReliabilityTier = "practical"
	TierStandard              ReliabilityTier = "standard"
	TierHighPrecision         ReliabilityTier = "high_precision"
)

// ConfidenceLevel is the coarse confidence label attached to a reliability tier.
type ConfidenceLevel string

const (
	ConfidenceNone   ConfidenceLevel = "analysis_not_possible"
	ConfidenceLow    ConfidenceLevel = "low"
	ConfidenceBasic  ConfidenceLevel = "basic"
	ConfidenceMedium ConfidenceLevel = "medium"
	ConfidenceHigh   ConfidenceLevel = "high"
)

// MetricKey identifies one of the per-metric minimum-N gates.
type MetricKey string

const (
	MetricRawDelta    MetricKey = "raw_delta"
	MetricNormBI      MetricKey = "normalized_bias_index"
	MetricSignTest    MetricKey = "sign_test_p_value"
	MetricCliffsDelta MetricKey = "cliffs_delta"
	MetricBootstrapCI MetricKey = "bootstrap_ci"
	MetricStability   MetricKey = "stability_score"
	MetricCorrelation MetricKey = "correlation"
)

// minimumN is the per-metric minimum execution count required before the
// metric may be reported as available. See spec §4.1.
var minimumN = map[MetricKey]int{
	MetricRawDelta:    2,
	MetricNormBI:      3,
	MetricSignTest:    5,
	MetricCliffsDelta: 5,
	MetricBootstrapCI: 5,
	MetricStability:   3,
	MetricCorrelation: 3,
}

// tierBounds holds the inclusive lower bound of each reliability tier, in
// descending order so ReliabilityTierFor can scan top-down.
var tierBounds = []struct {
	min   int
	tier  ReliabilityTier
	conf  ConfidenceLevel
}{
	{20, TierHighPrecision, ConfidenceHigh},
	{10, TierStandard, ConfidenceMedium},
	{5, TierPractical, ConfidenceBasic},
	{3, TierBasic, ConfidenceLow},
	{2, TierReferenceOnly, ConfidenceLow},
	{0, TierExecutionInsufficient, ConfidenceNone},
}

// ReliabilityTierFor maps an execution count to its qualitative tier and
// confidence label.
func ReliabilityTierFor(n int) (ReliabilityTier, ConfidenceLevel) {
	for _, b := range tierBounds {
		if n >= b.min {
			return b.tier, b.conf
		}
	}
	return TierExecutionInsufficient, ConfidenceNone
}

// MetricAvailability reports whether a metric may be computed for an
// execution count, and if not, a machine-readable reason.
type MetricAvailability struct {
	Available bool      `json:"available"`
	Metric    MetricKey `json:"metric"`
	RequiredN int       `json:"required_n,omitempty"`
	Reason    string    `json:"reason,omitempty"`
}

// CheckMetric reports availability of a single metric for execution count n.
func CheckMetric(metric MetricKey, n int) MetricAvailability {
	required, ok := minimumN[metric]
	if !ok {
		return MetricAvailability{Available: true, Metric: metric}
	}
	if n >= required {
		return MetricAvailability{Available: true, Metric: metric, RequiredN: required}
	}
	return MetricAvailability{
		Available: false,
		Metric:    metric,
		RequiredN: required,
		Reason:    "execution_count_below_minimum",
	}
}

// AvailabilityTable builds the per-metric availability table for a given
// execution count, keyed by metric name, for the data_availability_summary
// output block.
func AvailabilityTable(n int) map[MetricKey]MetricAvailability {
	table := make(map[MetricKey]MetricAvailability, len(minimumN))
	for metric := range minimumN {
		table[metric] = CheckMetric(metric, n)
	}
	return table
}

// recommendations maps a reliability tier to fixed, templated recommended
// actions. Supplements spec.md's analysis_limitations "recommended actions"
// field with the content the distillation left unspecified (SPEC_FULL §D.1).
var recommendations = map[ReliabilityTier][]string{
	TierExecutionInsufficient: {
		"collect at least 2 executions before attempting any bias analysis",
	},
	TierReferenceOnly: {
		"treat results as directional only; increase execution count to at least 3 for basic-tier statistics",
	},
	TierBasic: {
		"increase execution count to at least 5 to unlock effect-size and confidence-interval metrics",
	},
	TierPractical: {
		"increase execution count to at least 10 for standard-tier statistics",
	},
	TierStandard: {
		"increase execution count to at least 20 for high-precision statistics",
	},
	TierHighPrecision: nil,
}

// RecommendationsFor returns the recommended actions for a reliability tier.
func RecommendationsFor(tier ReliabilityTier) []string {
	return recommendations[tier]
}

// Limitations is the analysis_limitations output block (spec §6).
type Limitations struct {
	ExecutionCountWarning string   `json:"execution_count_warning,omitempty"`
	DataQualityIssues     []string `json:"data_quality_issues,omitempty"`
	RecommendedActions    []string `json:"recommended_actions,omitempty"`
	ScopeLimitations       []string `json:"scope_limitations"`
	InterpretationCaveats  []string `json:"interpretation_caveats"`
}

// scopeLimitations and interpretationCaveats are fixed static notes
// attached to every result, independent of execution count.
var (
	scopeLimitations = []string{
		"covers only entities present in the integrated dataset for the analyzed date",
		"market reference data (shares, caps) reflects a single snapshot, not a time series",
	}
	interpretationCaveats = []string{
		"bias metrics describe statistical association in model outputs, not a causal claim about entity quality",
		"small subcategories (few entities) make inequality and correlation metrics noisy even when formally available",
	}
)

// BuildLimitations assembles the analysis_limitations block for a run.
func BuildLimitations(n int, dataQualityIssues []string) Limitations {
	tier, _ := ReliabilityTierFor(n)
	var warning string
	if tier == TierExecutionInsufficient || tier == TierReferenceOnly || tier == TierBasic {
		warning = "execution count is low; several metrics are unavailable or low-confidence"
	}
	return Limitations{
		ExecutionCountWarning: warning,
		DataQualityIssues:     dataQualityIssues,
		RecommendedActions:    RecommendationsFor(tier),
		ScopeLimitations:      scopeLimitations,
		InterpretationCaveats: interpretationCaveats,
	}
}
