// Package bias implements the pure, I/O-free core of the bias analysis
// engine: C1 through C8 of the component design. Nothing in this package
// touches a filesystem, a network, or a clock other than through injected
// ports (ports.RNGPort for the bootstrap).
package bias

// IntegratedRecord is the decoded integrated dataset for one date (spec §3,
// §6). Top-level keys absent from the source document decode to nil maps,
// which the orchestrator treats per spec §6 ("absent top-level keys
// disable the corresponding analyzer; absent perplexity_sentiment is
// fatal").
type IntegratedRecord struct {
	Metadata             map[string]interface{}                        `json:"metadata,omitempty"`
	PerplexitySentiment  map[string]map[string]*SentimentSubcategory   `json:"perplexity_sentiment,omitempty"`
	PerplexityRankings   map[string]map[string]*RankingSubcategory     `json:"perplexity_rankings,omitempty"`
	PerplexityCitations  map[string]map[string]*DomainSubcategory      `json:"perplexity_citations,omitempty"`
	GoogleData           map[string]map[string]*DomainSubcategory      `json:"google_data,omitempty"`
	MarketShares         map[string]map[string]MarketShareEntry        `json:"market_shares,omitempty"`
	MarketCaps           map[string]map[string]float64                 `json:"market_caps,omitempty"`
	ServiceToEnterprise  map[string]string                             `json:"service_to_enterprise,omitempty"`
}

// SentimentSubcategory is one (category, subcategory) block of
// perplexity_sentiment (spec §3).
type SentimentSubcategory struct {
	MaskedValues []float64                         `json:"masked_values"`
	Entities     map[string]*SentimentEntityInput   `json:"entities"`
	MaskedPrompt string                             `json:"masked_prompt,omitempty"`
	MaskedAnswer string                             `json:"masked_answer,omitempty"`
}

// SentimentEntityInput is one entity's unmasked sentiment scores.
type SentimentEntityInput struct {
	UnmaskedValues []float64 `json:"unmasked_values"`
}

// RankingSubcategory is one (category, subcategory) block of
// perplexity_rankings.
type RankingSubcategory struct {
	RankingSummary RankingSummary `json:"ranking_summary"`
}

// RankingSummary holds the per-entity rank histories and the canonical
// average ordering for a subcategory.
type RankingSummary struct {
	Entities    map[string]*RankingEntityInput `json:"entities"`
	AvgRanking  []string                       `json:"avg_ranking"`
}

// RankingEntityInput is one entity's rank history across executions.
type RankingEntityInput struct {
	AllRanks   []int   `json:"all_ranks"`
	AvgRank    float64 `json:"avg_rank"`
	OfficialURL string `json:"official_url,omitempty"`
}

// DomainSubcategory is one (category, subcategory) block shared by
// google_data and perplexity_citations.
type DomainSubcategory struct {
	Entities map[string]*DomainEntityInput `json:"entities"`
}

// DomainEntityInput is one entity's search/citation result lists.
type DomainEntityInput struct {
	OfficialResults   []DomainResult `json:"official_results"`
	ReputationResults []DomainResult `json:"reputation_results"`
}

// DomainResult is one search or citation result item.
type DomainResult struct {
	Rank      int    `json:"rank"`
	Domain    string `json:"domain"`
	Title     string `json:"title,omitempty"`
	Snippet   string `json:"snippet,omitempty"`
	Sentiment string `json:"sentiment,omitempty"` // positive|negative|neutral|unknown
}

// MarketShareEntry is one service's market reference data (spec §3); only
// one of the four fields is expected to be populated per category's data
// type, selected by field priority in C7.
type MarketShareEntry struct {
	MarketShare       *float64 `json:"market_share,omitempty"`
	GMV               *float64 `json:"gmv,omitempty"`
	Users             *float64 `json:"users,omitempty"`
	UtilizationRate   *float64 `json:"utilization_rate,omitempty"`
	Enterprise        string   `json:"enterprise,omitempty"`
}

// SkipReason records why a per-entity value was excluded from analysis
// (spec §7 kind 2: per-entity data defects, logged and skipped).
type SkipReason struct {
	Entity string `json:"entity"`
	Reason string `json:"reason"`
}

// round3 and round4 round floating values for display fields
// per spec §6 ("3 decimals... 4 decimals for p-values").
func round3(v float64) float64 { return roundTo(v, 3) }
func round4(v float64) float64 { return roundTo(v, 4) }

func roundTo(v float64, places int) float64 {
	mult := 1.0
	for i := 0; i < places; i++ {
		mult *= 10
	}
	if v >= 0 {
		return float64(int64(v*mult+0.5)) / mult
	}
	return float64(int64(v*mult-0.5)) / mult
}
