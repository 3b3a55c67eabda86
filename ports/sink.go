package ports

import (
	"context"
)

// ResultSink persists a completed analysis result (spec §6: "an output
// sink that persists JSON blobs to a date-keyed directory"). Storage is
// pluggable: a local filesystem path and an object-store URI may both be
// written; the sink abstraction owns the choice (spec §5).
type ResultSink interface {
	// WriteResult persists the primary bias_analysis_results.json document
	// for a date, plus any additional named sibling blobs requested by the
	// caller (e.g. a console summary or an xlsx export).
	WriteResult(ctx context.Context, date string, result []byte, siblings map[string][]byte) error
}
