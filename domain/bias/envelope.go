package bias

// Metadata is the result envelope's metadata block (spec §6).
type Metadata struct {
	AnalysisDate      string          `json:"analysis_date"`
	AnalysisVersion   string          `json:"analysis_version"`
	SourceData        string          `json:"source_data"`
	ExecutionCount    int             `json:"execution_count"`
	ReliabilityLevel  ReliabilityTier `json:"reliability_level"`
	ConfidenceLevel   ConfidenceLevel `json:"confidence_level"`
}

// CategorySubcategoryMap is the stable three-level nesting used
// throughout the output (category -> subcategory -> value), sorted by key
// before emission for determinism (spec §9).
type CategorySubcategoryMap[T any] map[string]map[string]T

// Result is the full bias_analysis_results document (spec §6).
type Result struct {
	Metadata                Metadata                                      `json:"metadata"`
	SentimentBiasAnalysis   CategorySubcategoryMap[SubcategorySentimentResult] `json:"sentiment_bias_analysis"`
	RankingBiasAnalysis     CategorySubcategoryMap[SubcategoryRankingResult]   `json:"ranking_bias_analysis"`
	CitationsGoogleComparison CategorySubcategoryMap[CitationsComparisonResult] `json:"citations_google_comparison"`
	RelativeBiasAnalysis    CategorySubcategoryMap[RelativeAnalysisResult]     `json:"relative_bias_analysis"`
	CrossAnalysisInsights   map[string]CrossAnalysisResult                     `json:"cross_analysis_insights"`
	DataAvailabilitySummary map[MetricKey]MetricAvailability                   `json:"data_availability_summary"`
	AnalysisLimitations     Limitations                                        `json:"analysis_limitations"`
}
