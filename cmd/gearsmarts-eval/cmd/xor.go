package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/couchcryptid/gear-smarts-service/internal/eval"
)

var xorCmd = &cobra.Command{
	Use:   "xor",
	Short: "Smoke test: train and test the XOR truth table",
	Args:  cobra.NoArgs,
	RunE:  runXOR,
}

var xorSamples = []eval.Sample{
	{Features: []string{"0", "0"}, Class: "0"},
	{Features: []string{"0", "1"}, Class: "1"},
	{Features: []string{"1", "0"}, Class: "1"},
	{Features: []string{"1", "1"}, Class: "0"},
}

func runXOR(cmd *cobra.Command, _ []string) error {
	runner := newRunner()
	ns := eval.NamespaceFor("xor")

	if _, err := runner.TrainDataset(cmd.Context(), ns, xorSamples); err != nil {
		return err
	}
	report, err := runner.TestDataset(cmd.Context(), ns, "1", xorSamples)
	if err != nil {
		return err
	}
	if err := report.Write(cmd.OutOrStdout()); err != nil {
		return err
	}
	if report.Accuracy != 1 {
		return fmt.Errorf("xor accuracy %v, want 1", report.Accuracy)
	}
	return nil
}
