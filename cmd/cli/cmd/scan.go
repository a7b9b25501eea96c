package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/classgraph/internal/archive"
	"github.com/classgraph/internal/classpath"
	"github.com/classgraph/internal/formatter"
	"github.com/classgraph/internal/scan"
	"github.com/classgraph/internal/scanspec"
	"github.com/classgraph/pkg/model"
	"github.com/classgraph/pkg/writer"
)

var (
	scanClasspath string
	scanOutputDir string
	scanWorkers   int
	scanWhitelist []string
	scanBlacklist []string
	scanExternals bool
	scanJobUUID   string
)

// scanCmd represents the scan command
var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Scan a classpath and print a summary",
	Long: `Scan resolves a classpath into root archives and directories, parses every
classfile reachable from it, cross-links the results into a class graph,
and prints a summary of what was found.`,
	RunE: runScan,
}

func init() {
	rootCmd.AddCommand(scanCmd)

	binName := BinName()
	scanCmd.Example = `  # Scan a single jar
  ` + binName + ` scan -c ./app.jar

  # Scan a classpath with several roots and write a summary file
  ` + binName + ` scan -c "./app.jar:./lib/*:./classes" -o ./output`

	scanCmd.Flags().StringVarP(&scanClasspath, "classpath", "c", "", "Classpath to scan (required)")
	scanCmd.Flags().StringVarP(&scanOutputDir, "output", "o", "./output", "Output directory for the summary file")
	scanCmd.Flags().IntVarP(&scanWorkers, "workers", "w", 4, "Number of parse workers")
	scanCmd.Flags().StringSliceVar(&scanWhitelist, "whitelist", nil, "Whitelisted packages")
	scanCmd.Flags().StringSliceVar(&scanBlacklist, "blacklist", nil, "Blacklisted packages")
	scanCmd.Flags().BoolVar(&scanExternals, "externals", true, "Retain external stub records for referenced-but-unscanned classes")
	scanCmd.Flags().StringVar(&scanJobUUID, "uuid", "", "Job UUID (auto-generated if empty)")
	scanCmd.MarkFlagRequired("classpath")
}

func runScan(cmd *cobra.Command, args []string) error {
	log := GetLogger()

	uuid := scanJobUUID
	if uuid == "" {
		uuid = fmt.Sprintf("local-%s", time.Now().Format("20060102-150405"))
	}

	if err := os.MkdirAll(scanOutputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	spec := scanspec.New(
		scanspec.WithWhitelistPackages(scanWhitelist...),
		scanspec.WithBlacklistPackages(scanBlacklist...),
		scanspec.WithExternalClasses(scanExternals),
	)

	registry := classpath.NewRegistry()
	pool := archive.NewPool(scanWorkers)
	openArchive := func(path, packageRootPrefix string) (classpath.ArchiveHandle, error) {
		return pool.Open(path, packageRootPrefix)
	}
	resolver := classpath.NewResolver(registry, openArchive, nil)

	scanner := scan.NewScanner(spec, resolver, pool, scan.WithWorkers(scanWorkers))

	log.Info("=== classgraph scan ===")
	log.Info("Classpath:  %s", scanClasspath)
	log.Info("Job UUID:   %s", uuid)
	log.Info("")

	ctx := context.Background()
	start := time.Now()
	result, err := scanner.Run(ctx, scan.Request{Override: scanClasspath})
	duration := time.Since(start)
	if err != nil {
		return fmt.Errorf("scan failed: %w", err)
	}

	classCount, externalCount := 0, 0
	packages := make(map[string]struct{})
	for _, rec := range result.Graph.All() {
		if rec.IsExternal {
			externalCount++
		} else {
			classCount++
		}
		packages[packageOf(rec.Name)] = struct{}{}
	}

	summary := &model.ScanResult{
		JobUUID:        uuid,
		ClassCount:     classCount,
		ExternalCount:  externalCount,
		PackageCount:   len(packages),
		ResourceCount:  len(result.Resources),
		NonFatalErrors: len(result.NonFatalErrors),
		ScanDuration:   duration.Milliseconds(),
		AnalyzedAt:     time.Now(),
	}

	registryFmt := formatter.NewRegistry()
	registryFmt.Format(uuid, result, summary, log)

	summaryPath := filepath.Join(scanOutputDir, uuid+"-summary.json")
	summaryWriter := writer.NewPrettyJSONWriter[map[string]interface{}]()
	if err := summaryWriter.WriteToFile(registryFmt.FormatSummary(uuid, result, summary), summaryPath); err != nil {
		log.Warn("Failed to write summary file: %v", err)
	} else {
		log.Info("Summary written to: %s", summaryPath)
	}

	return nil
}

func packageOf(className string) string {
	for i := len(className) - 1; i >= 0; i-- {
		if className[i] == '.' {
			return className[:i]
		}
	}
	return ""
}
