package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/couchcryptid/gear-smarts-service/internal/eval"
)

var trainCmd = &cobra.Command{
	Use:   "train <suite>",
	Short: "Train a suite's train.txt into its namespace",
	Args:  cobra.ExactArgs(1),
	RunE:  runTrain,
}

func runTrain(cmd *cobra.Command, args []string) error {
	suite := args[0]
	samples, err := eval.ReadDataset(filepath.Join(dataDir, suite, eval.TrainFile))
	if err != nil {
		return err
	}

	dataset, err := newRunner().TrainDataset(cmd.Context(), eval.NamespaceFor(suite), samples)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "trained %s: %d distinct rows\n", eval.NamespaceFor(suite), len(dataset))
	return nil
}
