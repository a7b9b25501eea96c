package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/classgraph/internal/archive"
	"github.com/classgraph/internal/classpath"
	"github.com/classgraph/internal/query"
	"github.com/classgraph/internal/scan"
	"github.com/classgraph/internal/scanspec"
)

var (
	queryClasspath string
	queryWorkers   int
)

// queryCmd is the parent for structural queries against a scanned classpath.
var queryCmd = &cobra.Command{
	Use:   "query",
	Short: "Run a structural query against a scanned classpath",
}

var subtypesCmd = &cobra.Command{
	Use:   "subtypes <class-or-interface>",
	Short: "List classes implementing or extending the given type",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		engine, err := scanForQuery(cmd.Context())
		if err != nil {
			return err
		}
		for _, rec := range engine.SubtypesImplementing(args[0]) {
			fmt.Println(rec.Name)
		}
		return nil
	},
}

var annotatedCmd = &cobra.Command{
	Use:   "annotated <annotation>",
	Short: "List classes carrying the given annotation",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		engine, err := scanForQuery(cmd.Context())
		if err != nil {
			return err
		}
		for _, rec := range engine.ClassesWithAnnotation(args[0]) {
			fmt.Println(rec.Name)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(queryCmd)
	queryCmd.AddCommand(subtypesCmd)
	queryCmd.AddCommand(annotatedCmd)

	queryCmd.PersistentFlags().StringVarP(&queryClasspath, "classpath", "c", "", "Classpath to scan (required)")
	queryCmd.PersistentFlags().IntVarP(&queryWorkers, "workers", "w", 4, "Number of parse workers")
	queryCmd.MarkPersistentFlagRequired("classpath")
}

// scanForQuery runs a scan with default spec settings and returns its query engine.
func scanForQuery(ctx context.Context) (*query.Engine, error) {
	spec := scanspec.New(scanspec.WithExternalClasses(true))

	registry := classpath.NewRegistry()
	pool := archive.NewPool(queryWorkers)
	openArchive := func(path, packageRootPrefix string) (classpath.ArchiveHandle, error) {
		return pool.Open(path, packageRootPrefix)
	}
	resolver := classpath.NewResolver(registry, openArchive, nil)

	scanner := scan.NewScanner(spec, resolver, pool, scan.WithWorkers(queryWorkers))

	result, err := scanner.Run(ctx, scan.Request{Override: queryClasspath})
	if err != nil {
		return nil, fmt.Errorf("scan failed: %w", err)
	}

	return result.Engine, nil
}
