package app

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	rngadapter "gohypo/adapters/rng"
	"gohypo/domain/bias"
	"gohypo/internal/errors"
	"gohypo/ports"
)

type fakeLoader struct {
	record *bias.IntegratedRecord
	err    error
}

func (f *fakeLoader) Load(ctx context.Context, date string) (*bias.IntegratedRecord, error) {
	return f.record, f.err
}

type fakeSink struct {
	date     string
	result   []byte
	siblings map[string][]byte
	calls    int
}

func (f *fakeSink) WriteResult(ctx context.Context, date string, result []byte, siblings map[string][]byte) error {
	f.date = date
	f.result = result
	f.siblings = siblings
	f.calls++
	return nil
}

type fakeHistoryRepo struct {
	recorded []ports.RunHistorySummary
}

func (f *fakeHistoryRepo) RecordRun(ctx context.Context, summary ports.RunHistorySummary) error {
	f.recorded = append(f.recorded, summary)
	return nil
}

func (f *fakeHistoryRepo) GetRun(ctx context.Context, date string) (*ports.RunHistorySummary, error) {
	for _, r := range f.recorded {
		if r.AnalysisDate == date {
			return &r, nil
		}
	}
	return nil, errors.StorageRead("no run recorded for "+date, nil)
}

func (f *fakeHistoryRepo) ListRuns(ctx context.Context, limit int) ([]ports.RunHistorySummary, error) {
	return f.recorded, nil
}

func sampleRecord() *bias.IntegratedRecord {
	return &bias.IntegratedRecord{
		PerplexitySentiment: map[string]map[string]*bias.SentimentSubcategory{
			"llm_comparison": {
				"chatbots": {
					MaskedValues: []float64{3, 3, 3, 3, 3},
					Entities: map[string]*bias.SentimentEntityInput{
						"openai": {UnmaskedValues: []float64{4.5, 4.5, 4.5, 4.5, 4.5}},
						"rival":  {UnmaskedValues: []float64{3, 3, 3, 3, 3}},
					},
				},
				"coding_assistants": {
					MaskedValues: []float64{3, 3, 3, 3, 3},
					Entities: map[string]*bias.SentimentEntityInput{
						"openai": {UnmaskedValues: []float64{3.5, 3.5, 3.5, 3.5, 3.5}},
						"rival":  {UnmaskedValues: []float64{3, 3, 3, 3, 3}},
					},
				},
			},
		},
		PerplexityRankings: map[string]map[string]*bias.RankingSubcategory{
			"llm_comparison": {
				"chatbots": {
					RankingSummary: bias.RankingSummary{
						AvgRanking: []string{"openai", "rival"},
						Entities: map[string]*bias.RankingEntityInput{
							"openai": {AllRanks: []int{1, 1, 1, 1, 1}, AvgRank: 1},
							"rival":  {AllRanks: []int{2, 2, 2, 2, 2}, AvgRank: 2},
						},
					},
				},
				"coding_assistants": {
					RankingSummary: bias.RankingSummary{
						AvgRanking: []string{"openai", "rival"},
						Entities: map[string]*bias.RankingEntityInput{
							"openai": {AllRanks: []int{1, 1, 1, 1, 1}, AvgRank: 1},
							"rival":  {AllRanks: []int{2, 2, 2, 2, 2}, AvgRank: 2},
						},
					},
				},
			},
		},
		MarketCaps: map[string]map[string]float64{
			"llm_comparison": {
				"openai": 150,
				"rival":  5,
			},
		},
	}
}

func TestOrchestratorRunProducesResultAndWritesSink(t *testing.T) {
	sink := &fakeSink{}
	o := &Orchestrator{
		Input: &fakeLoader{record: sampleRecord()},
		Sink:  sink,
		RNG:   rngadapter.New(),
		Seed:  7,
		Version: "test-version",
	}
	result, err := o.Run(context.Background(), "2026-01-01")
	require.NoError(t, err)
	require.NotNil(t, result)

	assert.Equal(t, "2026-01-01", result.Metadata.AnalysisDate)
	assert.Equal(t, "test-version", result.Metadata.AnalysisVersion)
	assert.Equal(t, 5, result.Metadata.ExecutionCount)
	assert.Contains(t, result.SentimentBiasAnalysis, "llm_comparison")
	assert.Contains(t, result.RelativeBiasAnalysis, "llm_comparison")
	assert.Contains(t, result.CrossAnalysisInsights, "llm_comparison")
	assert.Equal(t, 1, sink.calls)
	assert.Equal(t, "2026-01-01", sink.date)
}

func TestOrchestratorRunRecordsHistoryWhenRepoSet(t *testing.T) {
	sink := &fakeSink{}
	history := &fakeHistoryRepo{}
	o := &Orchestrator{
		Input:       &fakeLoader{record: sampleRecord()},
		Sink:        sink,
		RNG:         rngadapter.New(),
		Seed:        7,
		Version:     "test-version",
		HistoryRepo: history,
	}
	_, err := o.Run(context.Background(), "2026-01-01")
	require.NoError(t, err)
	require.Len(t, history.recorded, 1)
	assert.Equal(t, "2026-01-01", history.recorded[0].AnalysisDate)
}

func TestOrchestratorRunMissingSentimentBlockFails(t *testing.T) {
	o := &Orchestrator{
		Input: &fakeLoader{record: &bias.IntegratedRecord{}},
		Sink:  &fakeSink{},
		RNG:   rngadapter.New(),
	}
	_, err := o.Run(context.Background(), "2026-01-01")
	assert.Error(t, err)
}

func TestOrchestratorRunPropagatesLoaderError(t *testing.T) {
	o := &Orchestrator{
		Input: &fakeLoader{err: errors.NotFound("dataset")},
		Sink:  &fakeSink{},
		RNG:   rngadapter.New(),
	}
	_, err := o.Run(context.Background(), "2026-01-01")
	assert.Error(t, err)
}
