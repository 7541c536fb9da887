// Package input consolidates target acquisition for both CLIs:
// positional arguments, repeatable -f files, and a stdin pipe.
package input

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

// TargetSource consolidates all target input methods.
type TargetSource struct {
	Args  []string  // Positional targets
	Files []string  // From -f flags, newline-delimited
	Stdin io.Reader // Non-nil when targets should also be read from a pipe
}

// Targets returns the raw target list in input order. Blank lines and
// #-comments in files are skipped. Duplicates are preserved: the
// expansion layer treats every raw target as its own work item.
func (ts *TargetSource) Targets() ([]string, error) {
	var targets []string

	add := func(t string) {
		t = strings.TrimSpace(t)
		if t == "" || strings.HasPrefix(t, "#") {
			return
		}
		targets = append(targets, t)
	}

	for _, a := range ts.Args {
		add(a)
	}

	for _, path := range ts.Files {
		lines, err := readLines(path)
		if err != nil {
			return nil, fmt.Errorf("target file %s: %w", path, err)
		}
		for _, line := range lines {
			add(line)
		}
	}

	if ts.Stdin != nil {
		scanner := bufio.NewScanner(ts.Stdin)
		for scanner.Scan() {
			add(scanner.Text())
		}
		if err := scanner.Err(); err != nil {
			return nil, fmt.Errorf("stdin: %w", err)
		}
	}

	return targets, nil
}

func readLines(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var lines []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	return lines, scanner.Err()
}
