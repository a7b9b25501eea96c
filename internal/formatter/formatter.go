// Package formatter renders scan results for CLI and summary output.
package formatter

import (
	"github.com/classgraph/internal/scan"
	"github.com/classgraph/pkg/model"
	"github.com/classgraph/pkg/utils"
)

// ResultFormatter formats a scan result for a particular presentation.
type ResultFormatter interface {
	// Format writes a human-readable rendering of the result to the logger.
	Format(jobUUID string, result *scan.Result, summary *model.ScanResult, log utils.Logger)

	// FormatSummary returns a JSON-serializable summary of the result.
	FormatSummary(jobUUID string, result *scan.Result, summary *model.ScanResult) map[string]interface{}
}

// Registry holds the default formatter. Kept as a registry (rather than a
// bare struct) so additional output formats can be registered without
// touching call sites, following the same multi-formatter-registry shape
// used for CPU/heap/memleak profile rendering.
type Registry struct {
	formatter ResultFormatter
}

// NewRegistry creates a formatter registry with the default text formatter.
func NewRegistry() *Registry {
	return &Registry{formatter: &DefaultFormatter{}}
}

// Format renders the result using the registered formatter.
func (r *Registry) Format(jobUUID string, result *scan.Result, summary *model.ScanResult, log utils.Logger) {
	r.formatter.Format(jobUUID, result, summary, log)
}

// FormatSummary builds a serializable summary using the registered formatter.
func (r *Registry) FormatSummary(jobUUID string, result *scan.Result, summary *model.ScanResult) map[string]interface{} {
	return r.formatter.FormatSummary(jobUUID, result, summary)
}

func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
