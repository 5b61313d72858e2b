// Package wordlist parses word/frequency asset files into the map the
// trie compiler consumes.
//
// Asset files are named <lang>_words.txt and hold one word per line,
// optionally followed by a frequency. Blank lines and lines starting
// with '#' are skipped; tabs and commas act as field separators.
package wordlist

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"glidecore/internal/trie"
)

// DefaultMaxWords caps how many entries a single asset file contributes.
const DefaultMaxWords = 50000

// assetSuffix is the naming convention for word list assets.
const assetSuffix = "_words.txt"

// Parse reads word/frequency pairs from r. Lines without a numeric
// frequency get a rank-based default of 1000+index, which after clamping
// means plain word lists all land at frequency 255. maxWords <= 0 uses
// DefaultMaxWords.
func Parse(r io.Reader, maxWords int) (map[string]int, error) {
	if maxWords <= 0 {
		maxWords = DefaultMaxWords
	}

	words := make(map[string]int)
	scanner := bufio.NewScanner(r)
	count := 0

	for scanner.Scan() {
		if count >= maxWords {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		line = strings.ReplaceAll(line, "\t", " ")
		line = strings.ReplaceAll(line, ",", " ")
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue // separator-only line
		}

		freq := 1000 + count
		if len(fields) > 1 {
			if n, err := strconv.Atoi(fields[1]); err == nil && n >= 0 {
				freq = n
			}
		}
		words[fields[0]] = int(trie.ClampFrequency(freq))
		count++
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read word list: %w", err)
	}
	return words, nil
}

// ParseFile parses the asset file at path.
func ParseFile(path string, maxWords int) (map[string]int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open word list: %w", err)
	}
	defer f.Close()

	words, err := Parse(f, maxWords)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return words, nil
}

// AssetPath returns the conventional asset path for a language.
func AssetPath(dir, lang string) string {
	return filepath.Join(dir, lang+assetSuffix)
}

// DiscoverLanguages lists the languages that have word list assets in
// dir, sorted for stable iteration.
func DiscoverLanguages(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("scan asset directory: %w", err)
	}

	var langs []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, assetSuffix) {
			continue
		}
		langs = append(langs, strings.TrimSuffix(name, assetSuffix))
	}
	sort.Strings(langs)
	return langs, nil
}
