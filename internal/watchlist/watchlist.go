// Package watchlist loads ticker watchlists from newline-delimited files.
package watchlist

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

// Load reads a newline-delimited watchlist file and returns the tickers
// uppercased, blank lines skipped, duplicates removed, order preserved.
func Load(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening watchlist %s: %w", path, err)
	}
	defer f.Close()

	seen := make(map[string]struct{})
	var symbols []string

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		symbol := strings.ToUpper(strings.TrimSpace(scanner.Text()))
		if symbol == "" {
			continue
		}
		if _, dup := seen[symbol]; dup {
			continue
		}
		seen[symbol] = struct{}{}
		symbols = append(symbols, symbol)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading watchlist %s: %w", path, err)
	}
	return symbols, nil
}
