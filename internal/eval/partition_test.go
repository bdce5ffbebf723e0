package eval

import (
	"math/rand/v2"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPartition(t *testing.T) {
	lines := []string{"a", "b", "c", "d", "e", "f", "g", "h", "i", "j"}
	rng := rand.New(rand.NewPCG(1, 2))

	train, test := Partition(lines, 60, rng)

	assert.Len(t, train, 6)
	assert.Len(t, test, 4)
	all := append(slices.Clone(train), test...)
	slices.Sort(all)
	assert.Equal(t, lines, all)
}

func TestPartition_Bounds(t *testing.T) {
	lines := []string{"a", "b"}
	rng := rand.New(rand.NewPCG(1, 2))

	train, test := Partition(lines, 100, rng)
	assert.Len(t, train, 2)
	assert.Empty(t, test)

	train, test = Partition(lines, 0, rng)
	assert.Empty(t, train)
	assert.Len(t, test, 2)
}

func TestPartitionFile(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "normalized.txt")
	require.NoError(t, os.WriteFile(src, []byte("a 1:1\nb 2:1\n\nc 3:1\nd 4:1\n"), 0o644))

	out := filepath.Join(dir, "suite")
	trainRows, testRows, err := PartitionFile(50, src, out, rand.New(rand.NewPCG(3, 4)))
	require.NoError(t, err)
	assert.Equal(t, 2, trainRows)
	assert.Equal(t, 2, testRows)

	train, err := ReadDataset(filepath.Join(out, TrainFile))
	require.NoError(t, err)
	test, err := ReadDataset(filepath.Join(out, TestFile))
	require.NoError(t, err)
	assert.Len(t, train, 2)
	assert.Len(t, test, 2)

	data, err := os.ReadFile(filepath.Join(out, TrainFile))
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(string(data), "\n"))
}

func TestPartitionFile_RejectsBadPercent(t *testing.T) {
	_, _, err := PartitionFile(120, "unused", t.TempDir(), rand.New(rand.NewPCG(1, 1)))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "percent")
}
