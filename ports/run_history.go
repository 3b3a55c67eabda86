package ports

import "context"

// RunHistorySummary is one persisted run's queryable metadata, used by the
// history-backed query surface (--history-db) without re-reading the full
// result blob.
type RunHistorySummary struct {
	AnalysisDate     string
	AnalysisVersion  string
	ExecutionCount   int
	ReliabilityLevel string
	ConfidenceLevel  string
}

// RunHistoryRepository records a summary of every completed run and answers
// history queries over them (spec's storage abstraction is pluggable; this
// is an additive backend beyond the primary JSON sink, not a replacement
// for it).
type RunHistoryRepository interface {
	RecordRun(ctx context.Context, summary RunHistorySummary) error
	GetRun(ctx context.Context, date string) (*RunHistorySummary, error)
	ListRuns(ctx context.Context, limit int) ([]RunHistorySummary, error)
}
