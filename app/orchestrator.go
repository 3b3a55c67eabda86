// Package app wires the domain/bias analyzers (C1-C8) together behind
// the orchestrator that the CLI and server entrypoints depend on.
package app

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"golang.org/x/sync/errgroup"

	"gohypo/domain/bias"
	"gohypo/domain/core"
	"gohypo/internal/errors"
	"gohypo/ports"
)

// Orchestrator runs C9: it loads one date's integrated record, drives
// C4 through C8, and assembles the final result envelope.
type Orchestrator struct {
	Input   ports.InputLoader
	Sink    ports.ResultSink
	RNG     ports.RNGPort
	Seed    int64
	Version string

	// Exporters produce additional sibling artifacts (keyed by filename)
	// alongside the primary bias_analysis_results.json, e.g. an xlsx
	// export or a console-rendered summary saved for later reference.
	Exporters map[string]func(*bias.Result) ([]byte, error)

	// HistoryRepo, when set, records a queryable summary of each
	// completed run in addition to the primary JSON sink.
	HistoryRepo ports.RunHistoryRepository
}

// Run executes one full analysis pass for date and persists the result.
func (o *Orchestrator) Run(ctx context.Context, date string) (*bias.Result, error) {
	record, err := o.Input.Load(ctx, date)
	if err != nil {
		return nil, err
	}
	if record.PerplexitySentiment == nil {
		return nil, errors.StructuralInput("perplexity_sentiment")
	}

	runID := core.NewID().String()

	result := &bias.Result{
		SentimentBiasAnalysis:     make(bias.CategorySubcategoryMap[bias.SubcategorySentimentResult]),
		RankingBiasAnalysis:       make(bias.CategorySubcategoryMap[bias.SubcategoryRankingResult]),
		CitationsGoogleComparison: make(bias.CategorySubcategoryMap[bias.CitationsComparisonResult]),
		RelativeBiasAnalysis:      make(bias.CategorySubcategoryMap[bias.RelativeAnalysisResult]),
		CrossAnalysisInsights:     make(map[string]bias.CrossAnalysisResult),
	}

	sentimentAnalyzer := &bias.SentimentAnalyzer{RNG: o.RNG, RunID: runID, Seed: o.Seed}
	rankingAnalyzer := bias.RankingBiasAnalyzer{}
	citationsComparator := bias.CitationsComparator{}

	executionCount := 0
	var dataQualityIssues []string

	categories := sortedKeys(record.PerplexitySentiment)
	for _, category := range categories {
		subMap := record.PerplexitySentiment[category]
		subNames := sortedKeys(subMap)

		g, gctx := errgroup.WithContext(ctx)
		// Each goroutine owns a distinct slice index, never a shared map key —
		// concurrent writes to the same map from multiple goroutines are a
		// runtime fatal error even when the keys themselves never collide.
		sentimentBySub := make([]bias.SubcategorySentimentResult, len(subNames))
		rankingBySub := make([]bias.SubcategoryRankingResult, len(subNames))
		citationBySub := make([]*bias.CitationsComparisonResult, len(subNames))

		for i, subcategory := range subNames {
			i, subcategory := i, subcategory
			in := subMap[subcategory]
			g.Go(func() error {
				sentimentBySub[i] = sentimentAnalyzer.AnalyzeSubcategory(gctx, category, subcategory, in)
				return nil
			})

			var rankIn *bias.RankingSubcategory
			if m := record.PerplexityRankings[category]; m != nil {
				rankIn = m[subcategory]
			}
			g.Go(func() error {
				rankingBySub[i] = rankingAnalyzer.AnalyzeSubcategory(rankIn)
				return nil
			})

			var googleIn, citeIn *bias.DomainSubcategory
			if m := record.GoogleData[category]; m != nil {
				googleIn = m[subcategory]
			}
			if m := record.PerplexityCitations[category]; m != nil {
				citeIn = m[subcategory]
			}
			g.Go(func() error {
				if googleIn != nil && citeIn != nil {
					r := citationsComparator.Compare(googleIn, citeIn)
					citationBySub[i] = &r
				}
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}

		// Folding the indexed slices back into keyed maps happens here, after
		// g.Wait(), on a single goroutine — safe to write freely.
		sentimentResults := make(map[string]bias.SubcategorySentimentResult, len(subNames))
		rankingResults := make(map[string]bias.SubcategoryRankingResult, len(subNames))
		citationResults := make(map[string]bias.CitationsComparisonResult, len(subNames))
		for i, subcategory := range subNames {
			sentimentResults[subcategory] = sentimentBySub[i]
			rankingResults[subcategory] = rankingBySub[i]
			if citationBySub[i] != nil {
				citationResults[subcategory] = *citationBySub[i]
			}
		}

		result.SentimentBiasAnalysis[category] = sentimentResults
		if len(rankingResults) > 0 {
			result.RankingBiasAnalysis[category] = rankingResults
		}
		if len(citationResults) > 0 {
			result.CitationsGoogleComparison[category] = citationResults
		}

		for _, subcategory := range subNames {
			sr := sentimentResults[subcategory]
			for _, e := range sr.Entities {
				if e.Basic.ExecutionCount > executionCount {
					executionCount = e.Basic.ExecutionCount
				}
			}
			for _, skip := range sr.DataQuality.Skipped {
				dataQualityIssues = append(dataQualityIssues, fmt.Sprintf("%s/%s: %s (%s)", category, subcategory, skip.Entity, skip.Reason))
			}
		}
	}

	relativeAnalyzer := bias.RelativeAnalyzer{
		ServiceToEnterprise: record.ServiceToEnterprise,
	}
	var subcategoryHHIs, subcategoryMeanAbsBias []float64

	for _, category := range categories {
		shares := record.MarketShares[category]
		caps := record.MarketCaps[category]
		analyzer := relativeAnalyzer
		analyzer.MarketShares = shares
		analyzer.MarketCaps = caps

		sentimentResults := result.SentimentBiasAnalysis[category]
		subNames := sortedKeys(sentimentResults)
		relByCategory := make(map[string]bias.RelativeAnalysisResult, len(subNames))

		for _, subcategory := range subNames {
			sr := sentimentResults[subcategory]
			var entities []bias.EntityBias
			var absBiasSum float64
			for _, e := range sr.Entities {
				entities = append(entities, bias.EntityBias{Entity: e.Entity, BiasIndex: e.BiasIndex})
				absBiasSum += absVal(e.BiasIndex)
			}
			if len(entities) == 0 {
				continue
			}
			rel := analyzer.Analyze(entities)
			relByCategory[subcategory] = rel

			if rel.MarketDominance.EnterpriseLevel.Available {
				subcategoryHHIs = append(subcategoryHHIs, rel.MarketDominance.EnterpriseHHI.Value)
				subcategoryMeanAbsBias = append(subcategoryMeanAbsBias, absBiasSum/float64(len(entities)))
			}
		}
		if len(relByCategory) > 0 {
			result.RelativeBiasAnalysis[category] = relByCategory
		}
	}

	if len(subcategoryHHIs) >= 2 {
		corr := bias.CrossCategoryHHIBiasCorrelation(subcategoryHHIs, subcategoryMeanAbsBias)
		for category, subcategories := range result.RelativeBiasAnalysis {
			for subcategory, rel := range subcategories {
				if rel.MarketDominance.EnterpriseLevel.Available {
					rel.MarketDominance.HHIBiasCorrelation = corr
					subcategories[subcategory] = rel
				}
			}
			result.RelativeBiasAnalysis[category] = subcategories
		}
	}

	enterpriseTierOf := func(category, entity string) (string, bool) {
		enterprise := entity
		if mapped, ok := record.ServiceToEnterprise[entity]; ok {
			enterprise = mapped
		}
		cap, ok := record.MarketCaps[category][enterprise]
		if !ok {
			return "", false
		}
		return enterpriseTierLabel(cap), true
	}

	for _, category := range categories {
		sentimentResults := result.SentimentBiasAnalysis[category]
		rankingResults := result.RankingBiasAnalysis[category]
		citationResults := result.CitationsGoogleComparison[category]
		subNames := sortedKeys(sentimentResults)

		var cross bias.CrossAnalysisResult
		cross.SentimentRanking = make(map[string]bias.SentimentRankingCorrelation)

		var bySubcategory = make(map[string][]bias.SentimentRankingInput)
		var allPoints []bias.EnterpriseBiasPoint
		var similarityResults []bias.RankingSimilarity
		var corrStrengthSum float64
		var corrStrengthCount int

		for _, subcategory := range subNames {
			sr := sentimentResults[subcategory]
			rr, hasRanking := rankingResults[subcategory]

			avgRankOf := make(map[string]float64)
			percentileOf := make(map[string]float64)
			if hasRanking {
				order := rr.CategorySummary.AnswerList
				n := len(order)
				for i, name := range order {
					if n > 1 {
						percentileOf[name] = float64(i) / float64(n-1)
					}
					if stats, ok := rr.RankingVariation[name]; ok {
						avgRankOf[name] = stats.MeanRank
					}
				}
			}

			var joined []bias.SentimentRankingInput
			for _, e := range sr.Entities {
				rank, hasRank := avgRankOf[e.Entity]
				if !hasRank {
					continue
				}
				sig := e.Significance.Rejected != nil && *e.Significance.Rejected
				joined = append(joined, bias.SentimentRankingInput{
					Entity:         e.Entity,
					BiasIndex:      e.BiasIndex,
					Significant:    sig,
					Stability:      e.Stability.StabilityScore,
					AvgRank:        rank,
					RankPercentile: percentileOf[e.Entity],
				})
				tier, ok := enterpriseTierOf(category, e.Entity)
				if ok {
					allPoints = append(allPoints, bias.EnterpriseBiasPoint{Tier: tier, BiasIndex: e.BiasIndex, Significant: sig})
				}
			}
			if len(joined) >= 2 {
				corr := bias.SentimentRankingCorrelationFor(joined)
				cross.SentimentRanking[subcategory] = corr
				if corr.Pearson.Available {
					corrStrengthSum += absVal(corr.Pearson.Value)
					corrStrengthCount++
				}
			}
			bySubcategory[subcategory] = joined

			if cr, ok := citationResults[subcategory]; ok {
				similarityResults = append(similarityResults, cr.RankingSimilarity)
			}
		}

		leaders, laggards := bias.ConsistentLeadersLaggards(bySubcategory)
		cross.ConsistentLeaders = leaders
		cross.ConsistentLaggards = laggards
		cross.PlatformAlignment = bias.PlatformAlignmentFrom(similarityResults)
		cross.OverallPattern = bias.OverallBiasPatternFrom(allPoints)

		var avgCorrStrength float64
		if corrStrengthCount > 0 {
			avgCorrStrength = corrStrengthSum / float64(corrStrengthCount)
		}
		sampleCount := 0
		for _, j := range bySubcategory {
			sampleCount += len(j)
		}
		cross.CrossPlatformConsistency = bias.CrossPlatformConsistencyFrom(avgCorrStrength, cross.PlatformAlignment.Score, sampleCount)

		result.CrossAnalysisInsights[category] = cross
	}

	tier, confidence := bias.ReliabilityTierFor(executionCount)
	result.Metadata = bias.Metadata{
		AnalysisDate:     date,
		AnalysisVersion:  o.Version,
		SourceData:       "integrated_dataset",
		ExecutionCount:   executionCount,
		ReliabilityLevel: tier,
		ConfidenceLevel:  confidence,
	}
	result.DataAvailabilitySummary = bias.AvailabilityTable(executionCount)
	result.AnalysisLimitations = bias.BuildLimitations(executionCount, dataQualityIssues)

	if o.Sink != nil {
		payload, marshalErr := json.MarshalIndent(result, "", "  ")
		if marshalErr != nil {
			return nil, errors.Wrap(marshalErr, "failed to encode analysis result")
		}
		siblings := make(map[string][]byte, len(o.Exporters))
		for name, export := range o.Exporters {
			blob, err := export(result)
			if err != nil {
				return nil, errors.Wrap(err, "export "+name+" failed")
			}
			siblings[name] = blob
		}
		if err := o.Sink.WriteResult(ctx, date, payload, siblings); err != nil {
			return nil, err
		}
	}

	if o.HistoryRepo != nil {
		summary := ports.RunHistorySummary{
			AnalysisDate:     date,
			AnalysisVersion:  o.Version,
			ExecutionCount:   executionCount,
			ReliabilityLevel: string(tier),
			ConfidenceLevel:  string(confidence),
		}
		if err := o.HistoryRepo.RecordRun(ctx, summary); err != nil {
			return nil, err
		}
	}

	return result, nil
}

func enterpriseTierLabel(marketCap float64) string {
	switch {
	case marketCap >= 100:
		return "mega_enterprise"
	case marketCap >= 10:
		return "large_enterprise"
	default:
		return "mid_enterprise"
	}
}

func sortedKeys[T any](m map[string]T) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func absVal(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
