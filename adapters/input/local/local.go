// Package local implements ports.InputLoader over a local filesystem
// directory, reading the merged integrated dataset produced upstream of
// the engine.
package local

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"gohypo/domain/bias"
	"gohypo/internal/errors"
)

// Loader reads one bias.IntegratedRecord per date from
// <Root>/integrated/<date>/integrated_<date>.json, falling back to
// <Root>/integrated/<date>.json if the nested form is absent.
type Loader struct {
	Root string
}

// New creates a Loader rooted at root (typically config.StorageConfig.DataRoot).
func New(root string) *Loader {
	return &Loader{Root: root}
}

func (l *Loader) Load(ctx context.Context, date string) (*bias.IntegratedRecord, error) {
	candidates := []string{
		filepath.Join(l.Root, "integrated", date, fmt.Sprintf("integrated_%s.json", date)),
		filepath.Join(l.Root, "integrated", date+".json"),
	}

	var data []byte
	var err error
	var path string
	for _, c := range candidates {
		data, err = os.ReadFile(c)
		if err == nil {
			path = c
			break
		}
	}
	if err != nil {
		return nil, errors.StorageRead(fmt.Sprintf("no integrated dataset found for date %q", date), err)
	}

	var rec bias.IntegratedRecord
	if unmarshalErr := json.Unmarshal(data, &rec); unmarshalErr != nil {
		return nil, errors.StructuralInput(path)
	}
	return &rec, nil
}
