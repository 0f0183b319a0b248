package scripture

import (
	"bufio"
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/scripture-rag-search-api/internal/models"
)

// Matches verse lines like:
//
//	JON 1:1 Now the word of the LORD came unto Jonah...
//	NE1 1:1 I, Nephi, having been born of goodly parents...
var verseLineRe = regexp.MustCompile(`^([A-Z0-9&-]+)\s+(\d+):(\d+)\s+(.+)$`)

// Parse extracts verse records from one scripture file's content. Lines that
// do not match the verse grammar are skipped without diagnostics; the corpus
// format mixes tables of contents, blank lines, and verse lines in one file.
//
// A matched line with verse 0 is a section heading: it updates the heading
// applied to every later record in the same content and emits no record.
// Heading state never crosses file boundaries.
//
// Content that is not valid UTF-8 is rejected so the corpus loader can skip
// the file.
func Parse(content []byte, mapping BookMapping, sourceFile string) ([]models.VerseRecord, error) {
	if !utf8.Valid(content) {
		return nil, fmt.Errorf("%s: content is not valid UTF-8", sourceFile)
	}

	var records []models.VerseRecord
	heading := ""

	scanner := bufio.NewScanner(strings.NewReader(string(content)))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		m := verseLineRe.FindStringSubmatch(line)
		if m == nil {
			continue
		}

		abbrev := m[1]
		chapter, err := strconv.Atoi(m[2])
		if err != nil {
			continue
		}
		verse, err := strconv.Atoi(m[3])
		if err != nil {
			continue
		}
		text := m[4]

		if verse == 0 {
			heading = text
			continue
		}

		book := mapping.Name(abbrev)
		records = append(records, models.VerseRecord{
			Text:           text,
			Book:           book,
			Abbrev:         abbrev,
			Chapter:        chapter,
			Verse:          verse,
			Reference:      models.FormatReference(book, chapter, verse),
			SectionHeading: heading,
			SourceFile:     sourceFile,
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("%s: scan content: %w", sourceFile, err)
	}

	return records, nil
}

// ParseFile reads and parses a single scripture text file.
func ParseFile(path string, mapping BookMapping) ([]models.VerseRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scripture file: %w", err)
	}
	return Parse(data, mapping, path)
}
