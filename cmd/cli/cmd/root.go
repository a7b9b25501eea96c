package cmd

import (
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/classgraph/pkg/utils"
)

var (
	// Global flags
	verbose bool
	logger  utils.Logger
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "classgraph",
	Short: "A JVM classpath scanning and query tool",
	Long: `classgraph scans a JVM classpath, builds a linked class graph, and answers
structural queries against it (subtype relations, annotation usage,
resource enumeration) without ever loading the classes into a JVM.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		logLevel := utils.LevelInfo
		if verbose {
			logLevel = utils.LevelDebug
		}
		logger = utils.NewDefaultLogger(logLevel, os.Stdout)
		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")

	binName := BinName()
	rootCmd.Example = `  # Scan a classpath and print a summary
  ` + binName + ` scan -c ./app.jar:./lib -o ./output

  # List classes implementing an interface
  ` + binName + ` query subtypes -c ./app.jar com.example.Plugin

  # Print version information
  ` + binName + ` version`
}

// GetLogger returns the configured logger.
func GetLogger() utils.Logger {
	return logger
}

// BinName returns the base name of the current executable.
func BinName() string {
	return filepath.Base(os.Args[0])
}
