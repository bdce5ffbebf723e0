package eval

import (
	"bufio"
	"fmt"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strings"
)

// Partition shuffles lines and splits them so that percent of them land in
// the training set.
func Partition(lines []string, percent float64, rng *rand.Rand) (train, test []string) {
	boundary := int(float64(len(lines)) * percent / 100)
	boundary = max(0, min(boundary, len(lines)))

	order := rng.Perm(len(lines))
	train = make([]string, 0, boundary)
	test = make([]string, 0, len(lines)-boundary)
	for i, idx := range order {
		if i < boundary {
			train = append(train, lines[idx])
		} else {
			test = append(test, lines[idx])
		}
	}
	return train, test
}

// PartitionFile splits the non-blank lines of src into destDir/train.txt and
// destDir/test.txt.
func PartitionFile(percent float64, src, destDir string, rng *rand.Rand) (trainRows, testRows int, err error) {
	if percent < 0 || percent > 100 {
		return 0, 0, fmt.Errorf("percent must be between 0 and 100, got %v", percent)
	}

	lines, err := readLines(src)
	if err != nil {
		return 0, 0, err
	}
	train, test := Partition(lines, percent, rng)

	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return 0, 0, fmt.Errorf("create %s: %w", destDir, err)
	}
	if err := writeLines(filepath.Join(destDir, TrainFile), train); err != nil {
		return 0, 0, err
	}
	if err := writeLines(filepath.Join(destDir, TestFile), test); err != nil {
		return 0, 0, err
	}
	return len(train), len(test), nil
}

func readLines(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		if strings.TrimSpace(scanner.Text()) != "" {
			lines = append(lines, scanner.Text())
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return lines, nil
}

func writeLines(path string, lines []string) error {
	data := strings.Join(lines, "\n")
	if len(lines) > 0 {
		data += "\n"
	}
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
