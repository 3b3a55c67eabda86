// Package xlsx flattens a bias analysis result into a per-entity
// spreadsheet export, superseding the plain CSV export an earlier
// iteration of this pipeline used.
package xlsx

import (
	"bytes"
	"fmt"
	"sort"

	"github.com/xuri/excelize/v2"

	"gohypo/domain/bias"
)

var header = []string{
	"category", "subcategory", "entity", "raw_delta", "bias_index", "bias_rank",
	"sign_test_p_value", "cliffs_delta", "effect_magnitude", "stability_score",
	"severity_score", "bias_direction",
}

// Export flattens every sentiment entity across every (category, subcategory)
// into rows on a single "Sentiment Bias" sheet.
func Export(result *bias.Result) ([]byte, error) {
	f := excelize.NewFile()
	const sheet = "Sentiment Bias"
	f.SetSheetName(f.GetSheetName(0), sheet)

	for col, title := range header {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return nil, err
		}
		f.SetCellValue(sheet, cell, title)
	}

	row := 2
	categories := sortedCategoryKeys(result.SentimentBiasAnalysis)
	for _, category := range categories {
		subcategories := result.SentimentBiasAnalysis[category]
		subNames := make([]string, 0, len(subcategories))
		for name := range subcategories {
			subNames = append(subNames, name)
		}
		sort.Strings(subNames)

		for _, sub := range subNames {
			for _, e := range subcategories[sub].Entities {
				values := []interface{}{
					category, sub, e.Entity,
					e.Basic.RawDelta, e.BiasIndex, e.BiasRank,
					pointerOrNil(e.Significance.SignTestPValue),
					pointerOrNil(e.EffectSize.CliffsDelta),
					e.EffectSize.EffectMagnitude,
					e.Stability.StabilityScore,
					severityOrNil(e),
					e.Interpretation.BiasDirection,
				}
				for col, v := range values {
					cell, err := excelize.CoordinatesToCellName(col+1, row)
					if err != nil {
						return nil, err
					}
					f.SetCellValue(sheet, cell, v)
				}
				row++
			}
		}
	}

	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("failed to serialize xlsx export: %w", err)
	}
	return buf.Bytes(), nil
}

func pointerOrNil(p *float64) interface{} {
	if p == nil {
		return nil
	}
	return *p
}

func severityOrNil(e bias.EntitySentimentResult) interface{} {
	if e.Severity == nil {
		return nil
	}
	return e.Severity.SeverityScore
}

func sortedCategoryKeys(m bias.CategorySubcategoryMap[bias.SubcategorySentimentResult]) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
