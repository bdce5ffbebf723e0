package eval

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

// Sample is one labeled row of an evaluation dataset.
type Sample struct {
	Features []string
	Class    string
}

// ParseDataset reads one sample per line. Lines are either libsvm style
// ("+1 2:1 8:1", features keep the index before the colon) or comma style
// ("good, temp=70, jacket"). Blank lines and lines without a class are
// skipped.
func ParseDataset(r io.Reader) ([]Sample, error) {
	var samples []Sample
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		s, ok := parseLine(scanner.Text())
		if ok {
			samples = append(samples, s)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read dataset: %w", err)
	}
	return samples, nil
}

// ReadDataset parses the dataset at path.
func ReadDataset(path string) ([]Sample, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open dataset: %w", err)
	}
	defer f.Close()
	return ParseDataset(f)
}

func parseLine(line string) (Sample, bool) {
	line = strings.TrimSpace(line)
	if line == "" {
		return Sample{}, false
	}

	if strings.Contains(line, ",") {
		parts := strings.Split(line, ",")
		s := Sample{Class: strings.TrimSpace(parts[0]), Features: []string{}}
		for _, p := range parts[1:] {
			if p = strings.TrimSpace(p); p != "" {
				s.Features = append(s.Features, p)
			}
		}
		return s, s.Class != ""
	}

	fields := strings.Fields(line)
	s := Sample{Class: fields[0], Features: make([]string, 0, len(fields)-1)}
	for _, f := range fields[1:] {
		idx, _, _ := strings.Cut(f, ":")
		if idx != "" {
			s.Features = append(s.Features, idx)
		}
	}
	return s, true
}
