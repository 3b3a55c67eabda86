// Package console renders a bias analysis result as a terminal-friendly
// summary, built as markdown and flattened through gomarkdown so the
// same renderer the project uses elsewhere for documentation also
// drives the CLI's human-readable output.
package console

import (
	"bytes"
	"fmt"
	"regexp"
	"sort"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"

	"gohypo/domain/bias"
)

var tagPattern = regexp.MustCompile(`<[^>]*>`)

// Render builds a plain-text summary of result suitable for a terminal.
func Render(result *bias.Result) (string, error) {
	md := buildMarkdown(result)
	p := parser.NewWithExtensions(parser.CommonExtensions)
	renderer := html.NewRenderer(html.RendererOptions{Flags: html.CommonFlags})
	rendered := markdown.ToHTML([]byte(md), p, renderer)
	return tagPattern.ReplaceAllString(string(rendered), ""), nil
}

func buildMarkdown(result *bias.Result) string {
	var b bytes.Buffer
	fmt.Fprintf(&b, "# Bias Analysis Summary: %s\n\n", result.Metadata.AnalysisDate)
	fmt.Fprintf(&b, "Execution count: %d\n\n", result.Metadata.ExecutionCount)
	fmt.Fprintf(&b, "Reliability: %s (%s confidence)\n\n", result.Metadata.ReliabilityLevel, result.Metadata.ConfidenceLevel)

	for _, category := range sortedKeys(result.SentimentBiasAnalysis) {
		fmt.Fprintf(&b, "## %s\n\n", category)
		subcategories := result.SentimentBiasAnalysis[category]
		subNames := make([]string, 0, len(subcategories))
		for name := range subcategories {
			subNames = append(subNames, name)
		}
		sort.Strings(subNames)
		for _, sub := range subNames {
			fmt.Fprintf(&b, "### %s\n\n", sub)
			for _, e := range subcategories[sub].Entities {
				fmt.Fprintf(&b, "- %s: bias_index=%.3f (%s)\n", e.Entity, e.BiasIndex, e.Interpretation.BiasDirection)
			}
			b.WriteString("\n")
		}
	}

	if len(result.AnalysisLimitations.ScopeLimitations) > 0 {
		b.WriteString("## Limitations\n\n")
		for _, l := range result.AnalysisLimitations.ScopeLimitations {
			fmt.Fprintf(&b, "- %s\n", l)
		}
	}
	return b.String()
}

func sortedKeys(m bias.CategorySubcategoryMap[bias.SubcategorySentimentResult]) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
