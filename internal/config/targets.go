package config

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/nao1215/sitecheck/internal/model"
)

// LoadTargets reads site URLs from r, one per line.
// Blank lines and lines starting with '#' are skipped.
func LoadTargets(r io.Reader) ([]string, error) {
	var targets []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		targets = append(targets, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read target list: %w", err)
	}
	return targets, nil
}

// LoadTargetsFile reads site URLs from the file at path.
func LoadTargetsFile(path string) ([]string, error) {
	f, err := os.Open(path) //nolint:gosec // User-provided list path is intentional
	if err != nil {
		return nil, fmt.Errorf("failed to open target list: %w", err)
	}
	defer f.Close()

	return LoadTargets(f)
}

// ParseTargets parses raw URLs into targets, keeping their order.
// Duplicate URLs are checked once.
func ParseTargets(raws []string) ([]model.Target, error) {
	targets := make([]model.Target, 0, len(raws))
	seen := make(map[string]struct{}, len(raws))
	for _, raw := range raws {
		target, err := model.ParseTarget(raw)
		if err != nil {
			return nil, err
		}
		if _, ok := seen[target.URL]; ok {
			continue
		}
		seen[target.URL] = struct{}{}
		targets = append(targets, target)
	}
	return targets, nil
}
