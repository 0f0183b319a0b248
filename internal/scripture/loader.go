package scripture

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/scripture-rag-search-api/internal/models"
)

// Loader aggregates verse records from every scripture file under a corpus
// root. Each immediate subdirectory is one sub-collection (e.g. one volume).
type Loader struct {
	mapping BookMapping
	logger  *log.Logger
}

// NewLoader creates a corpus loader using the given book mapping.
func NewLoader(mapping BookMapping) *Loader {
	return &Loader{
		mapping: mapping,
		logger:  log.New(os.Stderr, "", log.LstdFlags),
	}
}

// LoadDir parses every .txt file in the immediate subdirectories of root.
// A file that cannot be read or decoded is logged as a warning and skipped;
// loading continues with the remaining files. Within a single file output
// order matches input line order; no ordering is guaranteed across files.
// An empty root yields an empty result, not an error.
func (l *Loader) LoadDir(root string) ([]models.VerseRecord, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("read corpus root: %w", err)
	}

	var all []models.VerseRecord
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		subdir := filepath.Join(root, entry.Name())
		files, err := os.ReadDir(subdir)
		if err != nil {
			l.logger.Printf("Warning: failed to read %s: %v", subdir, err)
			continue
		}

		for _, file := range files {
			if file.IsDir() || !strings.HasSuffix(strings.ToLower(file.Name()), ".txt") {
				continue
			}
			path := filepath.Join(subdir, file.Name())
			records, err := ParseFile(path, l.mapping)
			if err != nil {
				l.logger.Printf("Warning: failed to parse %s: %v", path, err)
				continue
			}
			all = append(all, records...)
		}
	}

	return all, nil
}
