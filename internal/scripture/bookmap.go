// Package scripture turns line-oriented scripture text files into addressable
// verse records with resolved book names and carried-forward section headings.
package scripture

import (
	"bufio"
	"fmt"
	"os"
	"regexp"
	"strings"
)

// BookMapping maps book abbreviations (e.g. "GEN") to full book names
// (e.g. "Genesis").
type BookMapping map[string]string

// Name resolves an abbreviation to its full book name, falling back to the
// abbreviation itself when unknown.
func (m BookMapping) Name(abbrev string) string {
	if name, ok := m[abbrev]; ok {
		return name
	}
	return abbrev
}

// Matches table-of-contents lines like:
//
//	Genesis   . . . . . . . . . . . . . . . . .   GEN
//	Doctrine-and-Covenants  . . . . . . . . . .   D&C
//	1-Nephi   . . . . . . . . . . . . . . . . .   NE1
var contentsLineRe = regexp.MustCompile(`^([A-Za-z0-9&-]+)\s+\.\s+\.\s+.*\s+([A-Z0-9&]+)\s*$`)

// ParseBookMapping extracts abbreviation-to-name pairs from table-of-contents
// text. Lines that do not match the dot-leader layout (headers, blank
// separators, prose) are skipped. If an abbreviation repeats, the later line
// wins.
func ParseBookMapping(content string) BookMapping {
	mapping := BookMapping{}
	scanner := bufio.NewScanner(strings.NewReader(content))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		m := contentsLineRe.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		mapping[m[2]] = m[1]
	}
	return mapping
}

// LoadBookMapping reads and parses the contents file at the given path.
func LoadBookMapping(path string) (BookMapping, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read contents file %s: %w", path, err)
	}
	return ParseBookMapping(string(data)), nil
}
