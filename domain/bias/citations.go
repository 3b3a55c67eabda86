package bias

import "sort"

const rboPersistence = 0.9

// RankingSimilarity is the ranking_similarity block of C6's output.
type RankingSimilarity struct {
	RBOScore           float64               `json:"rbo_score"`
	KendallTau         float64               `json:"kendall_tau"`
	OverlapRatio       float64               `json:"overlap_ratio"`
	DeltaRanksAvailable bool                 `json:"delta_ranks_available"`
	MetricsValidation  SimilarityValidation  `json:"metrics_validation"`
	SimilarityLevel    string                `json:"similarity_level"`
	BiasDirection      string                `json:"bias_direction"`
}

// OfficialDomainAnalysis is the official_domain_analysis block.
type OfficialDomainAnalysis struct {
	GoogleOfficialRatio    float64 `json:"google_official_ratio"`
	CitationsOfficialRatio float64 `json:"citations_official_ratio"`
	OfficialBiasDelta      float64 `json:"official_bias_delta"`
	BiasDirection          string  `json:"bias_direction"`
	GoogleCounts           struct {
		Official   int `json:"official"`
		Reputation int `json:"reputation"`
	} `json:"google_counts"`
	CitationsCounts struct {
		Official   int `json:"official"`
		Reputation int `json:"reputation"`
	} `json:"citations_counts"`
}

// SentimentDistribution tallies result sentiment labels.
type SentimentDistribution struct {
	Positive int `json:"positive"`
	Negative int `json:"negative"`
	Neutral  int `json:"neutral"`
	Unknown  int `json:"unknown"`
}

// SentimentComparison is the sentiment_comparison block.
type SentimentComparison struct {
	GoogleDistribution     SentimentDistribution `json:"google_sentiment_distribution"`
	CitationsDistribution  SentimentDistribution `json:"citations_sentiment_distribution"`
	SentimentCorrelation   float64               `json:"sentiment_correlation"`
	PositiveBiasDelta      float64               `json:"positive_bias_delta"`
	GoogleSampleSize       int                   `json:"google_sample_size"`
	CitationsSampleSize    int                   `json:"citations_sample_size"`
}

// CitationsComparisonResult is the full per-subcategory C6 output.
type CitationsComparisonResult struct {
	RankingSimilarity      RankingSimilarity      `json:"ranking_similarity"`
	OfficialDomainAnalysis OfficialDomainAnalysis `json:"official_domain_analysis"`
	SentimentComparison    SentimentComparison    `json:"sentiment_comparison"`
	GoogleDomainsCount     int                    `json:"google_domains_count"`
	CitationsDomainsCount  int                    `json:"citations_domains_count"`
	DataQuality            string                 `json:"data_quality"`
}

// CitationsComparator runs C6 by comparing a google_data subcategory
// against its perplexity_citations counterpart.
type CitationsComparator struct{}

// Compare runs the citations-vs-search comparison for one
// (category, subcategory) pair present in both inputs.
func (CitationsComparator) Compare(google, citations *DomainSubcategory) CitationsComparisonResult {
	var out CitationsComparisonResult
	if google == nil || citations == nil {
		out.DataQuality = "missing_side"
		return out
	}

	googleDomains := extractDomains(google)
	citationsDomains := extractDomains(citations)
	out.GoogleDomainsCount = len(googleDomains)
	out.CitationsDomainsCount = len(citationsDomains)

	tau := KendallTauRanking(googleDomains, citationsDomains)
	rbo := RBO(googleDomains, citationsDomains, rboPersistence)
	overlap := OverlapRatio(googleDomains, citationsDomains, 10)
	deltaRanks := DeltaRankMap(googleDomains, citationsDomains)

	validation := ValidateCompoundSimilarity(tau, rbo, overlap, commonCount(googleDomains, citationsDomains))

	out.RankingSimilarity = RankingSimilarity{
		RBOScore:            round3(rbo),
		KendallTau:          round3(tau),
		OverlapRatio:        round3(overlap),
		DeltaRanksAvailable: len(deltaRanks) > 0,
		MetricsValidation:   validation,
		SimilarityLevel:     similarityLevel(tau, rbo, overlap),
		BiasDirection:       citationsBiasDirection(tau),
	}

	gOff, gRep := countResults(google)
	cOff, cRep := countResults(citations)
	gRatio := officialRatio(gOff, gRep)
	cRatio := officialRatio(cOff, cRep)
	delta := cRatio - gRatio

	out.OfficialDomainAnalysis.GoogleOfficialRatio = round3(gRatio)
	out.OfficialDomainAnalysis.CitationsOfficialRatio = round3(cRatio)
	out.OfficialDomainAnalysis.OfficialBiasDelta = round3(delta)
	out.OfficialDomainAnalysis.BiasDirection = officialBiasDirection(delta)
	out.OfficialDomainAnalysis.GoogleCounts.Official = gOff
	out.OfficialDomainAnalysis.GoogleCounts.Reputation = gRep
	out.OfficialDomainAnalysis.CitationsCounts.Official = cOff
	out.OfficialDomainAnalysis.CitationsCounts.Reputation = cRep

	gDist, gSample := sentimentDistribution(google)
	cDist, cSample := sentimentDistribution(citations)
	gPosShare := shareOf(gDist.Positive, gSample)
	cPosShare := shareOf(cDist.Positive, cSample)

	out.SentimentComparison = SentimentComparison{
		GoogleDistribution:    gDist,
		CitationsDistribution: cDist,
		SentimentCorrelation:  round3(1 - absF(gPosShare-cPosShare)),
		PositiveBiasDelta:     round3(cPosShare - gPosShare),
		GoogleSampleSize:      gSample,
		CitationsSampleSize:   cSample,
	}

	out.DataQuality = "ok"
	return out
}

// extractDomains returns the deduped, order-preserving domain list across
// all entities' official_results then reputation_results, truncated to 20
// (spec §4.6).
func extractDomains(sub *DomainSubcategory) []string {
	names := sortedEntityNames(sub.Entities)
	seen := make(map[string]bool)
	var out []string
	for _, name := range names {
		for _, r := range sub.Entities[name].OfficialResults {
			if r.Domain != "" && !seen[r.Domain] {
				seen[r.Domain] = true
				out = append(out, r.Domain)
			}
		}
	}
	for _, name := range names {
		for _, r := range sub.Entities[name].ReputationResults {
			if r.Domain != "" && !seen[r.Domain] {
				seen[r.Domain] = true
				out = append(out, r.Domain)
			}
		}
	}
	if len(out) > 20 {
		out = out[:20]
	}
	return out
}

func sortedEntityNames(m map[string]*DomainEntityInput) []string {
	names := make([]string, 0, len(m))
	for n := range m {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

func countResults(sub *DomainSubcategory) (official, reputation int) {
	for _, e := range sub.Entities {
		official += len(e.OfficialResults)
		reputation += len(e.ReputationResults)
	}
	return
}

func officialRatio(official, reputation int) float64 {
	total := official + reputation
	if total == 0 {
		return 0
	}
	return float64(official) / float64(total)
}

func officialBiasDirection(delta float64) string {
	switch {
	case delta > 0.1:
		return "citations_favors_official"
	case delta < -0.1:
		return "google_favors_official"
	default:
		return "neutral"
	}
}

func sentimentDistribution(sub *DomainSubcategory) (SentimentDistribution, int) {
	var d SentimentDistribution
	var n int
	for _, e := range sub.Entities {
		for _, r := range e.ReputationResults {
			n++
			switch r.Sentiment {
			case "positive":
				d.Positive++
			case "negative":
				d.Negative++
			case "neutral":
				d.Neutral++
			default:
				d.Unknown++
			}
		}
	}
	return d, n
}

func shareOf(count, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(count) / float64(total)
}

func similarityLevel(tau, rbo, overlap float64) string {
	score := 0.4*absF(tau) + 0.4*rbo + 0.2*overlap
	return similarityBand(score)
}

// similarityBand buckets an already-combined weighted similarity score
// (spec §4.6/§4.8: tau 0.4, RBO 0.4, overlap 0.2 weights) into a level.
func similarityBand(score float64) string {
	switch {
	case score > 0.7:
		return "high"
	case score > 0.4:
		return "moderate"
	default:
		return "low"
	}
}

func citationsBiasDirection(tau float64) string {
	switch {
	case tau > 0.3:
		return "aligned"
	case tau < -0.3:
		return "inverted"
	default:
		return "divergent"
	}
}

func commonCount(a, b []string) int {
	setA := indexOf(a)
	n := 0
	for item := range indexOf(b) {
		if _, ok := setA[item]; ok {
			n++
		}
	}
	return n
}
