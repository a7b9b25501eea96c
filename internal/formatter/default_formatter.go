package formatter

import (
	"sort"

	"github.com/classgraph/internal/scan"
	"github.com/classgraph/pkg/model"
	"github.com/classgraph/pkg/utils"
)

// DefaultFormatter renders a scan result as a plain-text summary.
type DefaultFormatter struct{}

// Format outputs the scan result to the logger.
func (f *DefaultFormatter) Format(jobUUID string, result *scan.Result, summary *model.ScanResult, log utils.Logger) {
	log.Info("=== Scan Results ===")
	log.Info("Job UUID:       %s", jobUUID)
	log.Info("Classes:        %d", summary.ClassCount)
	log.Info("External refs:  %d", summary.ExternalCount)
	log.Info("Packages:       %d", summary.PackageCount)
	log.Info("Resources:      %d", summary.ResourceCount)
	log.Info("Non-fatal errs: %d", summary.NonFatalErrors)
	log.Info("Duration:       %dms", summary.ScanDuration)
	log.Info("")

	if result == nil {
		return
	}

	log.Info("=== Largest Packages ===")
	counts := make(map[string]int)
	for _, rec := range result.Graph.All() {
		counts[packageOf(rec.Name)]++
	}
	type pkgCount struct {
		name  string
		count int
	}
	entries := make([]pkgCount, 0, len(counts))
	for name, count := range counts {
		entries = append(entries, pkgCount{name, count})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].count > entries[j].count })

	n := min(10, len(entries))
	for i := 0; i < n; i++ {
		log.Info("  %2d. %5d classes  %s", i+1, entries[i].count, truncateString(entries[i].name, 80))
	}
	log.Info("")

	if len(result.NonFatalErrors) > 0 {
		log.Info("=== Non-fatal Errors ===")
		for i, err := range result.NonFatalErrors {
			if i >= 5 {
				log.Info("  ... and %d more", len(result.NonFatalErrors)-5)
				break
			}
			log.Info("  - %v", err)
		}
	}
}

// FormatSummary returns a summary map for serialization.
func (f *DefaultFormatter) FormatSummary(jobUUID string, result *scan.Result, summary *model.ScanResult) map[string]interface{} {
	out := map[string]interface{}{
		"job_uuid":         jobUUID,
		"class_count":      summary.ClassCount,
		"external_count":   summary.ExternalCount,
		"package_count":    summary.PackageCount,
		"resource_count":   summary.ResourceCount,
		"non_fatal_errors": summary.NonFatalErrors,
		"scan_duration_ms": summary.ScanDuration,
	}

	if result != nil {
		errs := make([]string, len(result.NonFatalErrors))
		for i, err := range result.NonFatalErrors {
			errs[i] = err.Error()
		}
		out["errors"] = errs
	}

	return out
}

func packageOf(className string) string {
	for i := len(className) - 1; i >= 0; i-- {
		if className[i] == '.' {
			return className[:i]
		}
	}
	return ""
}
