// Package corpus loads the lists of book URLs a run should process,
// either from local manifest files or from a GitHub repository.
package corpus

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

// ReadURLList reads one URL per line from a manifest file. Blank lines
// and lines starting with # are skipped; surrounding whitespace is
// trimmed.
func ReadURLList(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening manifest %s: %w", path, err)
	}
	defer f.Close()

	var urls []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		urls = append(urls, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading manifest %s: %w", path, err)
	}
	return urls, nil
}

// WriteRetryFile writes the failed URLs to path, one per line, in the
// same format ReadURLList accepts. An empty list removes any stale
// retry file instead of leaving a zero-length one behind.
func WriteRetryFile(path string, urls []string) error {
	if len(urls) == 0 {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("removing retry file %s: %w", path, err)
		}
		return nil
	}
	var b strings.Builder
	for _, u := range urls {
		b.WriteString(u)
		b.WriteByte('\n')
	}
	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		return fmt.Errorf("writing retry file %s: %w", path, err)
	}
	return nil
}
