// Package local implements ports.ResultSink over a local filesystem
// directory, persisting results under the conventional
// corporate_bias_datasets/integrated/<date>/ layout (spec §6).
package local

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"

	"gohypo/domain/bias"
	"gohypo/internal/errors"
)

// Sink writes bias_analysis_results.json and sibling blobs under
// <Root>/integrated/<date>/.
type Sink struct {
	Root string
}

// New creates a Sink rooted at root.
func New(root string) *Sink {
	return &Sink{Root: root}
}

func (s *Sink) WriteResult(ctx context.Context, date string, result []byte, siblings map[string][]byte) error {
	dir := filepath.Join(s.Root, "integrated", date)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.StorageWrite("failed to create output directory", err)
	}

	primary := filepath.Join(dir, "bias_analysis_results.json")
	if err := os.WriteFile(primary, result, 0o644); err != nil {
		return errors.StorageWrite("failed to write bias_analysis_results.json", err)
	}

	for name, blob := range siblings {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, blob, 0o644); err != nil {
			return errors.StorageWrite("failed to write sibling artifact "+name, err)
		}
	}
	return nil
}

// ReadResult reads back a previously persisted bias_analysis_results.json,
// used by the verify command and by cmd/server's read-only query path.
func (s *Sink) ReadResult(ctx context.Context, date string) (*bias.Result, error) {
	path := filepath.Join(s.Root, "integrated", date, "bias_analysis_results.json")
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.StorageRead("failed to read bias_analysis_results.json for "+date, err)
	}
	var result bias.Result
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, errors.StorageRead("failed to decode bias_analysis_results.json for "+date, err)
	}
	return &result, nil
}
