package cmd

import (
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/couchcryptid/gear-smarts-service/internal/eval"
)

var testCmd = &cobra.Command{
	Use:   "test <suite> <positive-class>",
	Short: "Classify a suite's test.txt and report statistics",
	Args:  cobra.ExactArgs(2),
	RunE:  runTest,
}

func runTest(cmd *cobra.Command, args []string) error {
	suite, positive := args[0], args[1]
	samples, err := eval.ReadDataset(filepath.Join(dataDir, suite, eval.TestFile))
	if err != nil {
		return err
	}

	report, err := newRunner().TestDataset(cmd.Context(), eval.NamespaceFor(suite), positive, samples)
	if err != nil {
		return err
	}
	return report.Write(cmd.OutOrStdout())
}
