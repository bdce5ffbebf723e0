package cmd

import (
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/couchcryptid/gear-smarts-service/internal/eval"
)

var (
	baseURL  string
	maxCalls int
	dataDir  string
	timeout  time.Duration
	verbose  bool
)

var rootCmd = &cobra.Command{
	Use:          "gearsmarts-eval",
	Short:        "Evaluate the gear-smarts classifier",
	Long:         "Train and test labeled datasets against a running gear-smarts API.",
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&baseURL, "url", eval.DefaultBaseURL, "machine learning API root")
	rootCmd.PersistentFlags().IntVar(&maxCalls, "max-calls", eval.DefaultMaxCalls, "maximum concurrent API calls")
	rootCmd.PersistentFlags().StringVar(&dataDir, "data-dir", "eval", "directory holding <suite>/train.txt and <suite>/test.txt")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 30*time.Second, "per-request timeout")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log each phase")

	rootCmd.AddCommand(trainCmd)
	rootCmd.AddCommand(testCmd)
	rootCmd.AddCommand(xorCmd)
	rootCmd.AddCommand(partitionCmd)
}

func newRunner() *eval.Runner {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelInfo
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	return eval.NewRunner(eval.NewClient(baseURL, timeout), maxCalls, logger)
}
