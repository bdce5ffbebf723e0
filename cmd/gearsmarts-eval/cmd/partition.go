package cmd

import (
	"fmt"
	"math/rand/v2"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/couchcryptid/gear-smarts-service/internal/eval"
)

var seed uint64

var partitionCmd = &cobra.Command{
	Use:   "partition <percent> <input> <outdir>",
	Short: "Randomly split a dataset into train.txt and test.txt",
	Args:  cobra.ExactArgs(3),
	RunE:  runPartition,
}

func init() {
	partitionCmd.Flags().Uint64Var(&seed, "seed", 0, "shuffle seed (0 picks one from the clock)")
}

func runPartition(cmd *cobra.Command, args []string) error {
	percent, err := strconv.ParseFloat(args[0], 64)
	if err != nil {
		return fmt.Errorf("invalid percent %q: %w", args[0], err)
	}

	s := seed
	if s == 0 {
		s = uint64(time.Now().UnixNano())
	}
	trainRows, testRows, err := eval.PartitionFile(percent, args[1], args[2], rand.New(rand.NewPCG(s, s>>1)))
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "partitioned %s at %v%%: %d training, %d testing rows\n", args[1], percent, trainRows, testRows)
	return nil
}
