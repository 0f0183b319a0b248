package models

import "fmt"

// VerseRecord is the atomic unit of retrieval: one verse with its
// book/chapter/verse coordinates and any section heading in force.
type VerseRecord struct {
	Text           string `json:"text" db:"text"`
	Book           string `json:"book" db:"book"`
	Abbrev         string `json:"abbrev" db:"abbrev"`
	Chapter        int    `json:"chapter" db:"chapter"`
	Verse          int    `json:"verse" db:"verse"`
	Reference      string `json:"reference" db:"reference"`
	SectionHeading string `json:"section_heading" db:"section_heading"`
	SourceFile     string `json:"source_file,omitempty" db:"source_file"`
}

// ID returns the stable identifier used by the vector index. It is a
// deterministic function of (abbrev, chapter, verse) so re-indexing the same
// verse overwrites rather than duplicates.
func (r VerseRecord) ID() string {
	return fmt.Sprintf("%s_%d:%d", r.Abbrev, r.Chapter, r.Verse)
}

// FormatReference renders the canonical display reference for a verse.
func FormatReference(book string, chapter, verse int) string {
	return fmt.Sprintf("%s %d:%d", book, chapter, verse)
}

// VerseMeta carries the verse attributes returned alongside matched text by
// the similarity index.
type VerseMeta struct {
	Book           string `json:"book"`
	Abbrev         string `json:"abbrev"`
	Chapter        int    `json:"chapter"`
	Verse          int    `json:"verse"`
	Reference      string `json:"reference"`
	SectionHeading string `json:"section_heading"`
	SourceFile     string `json:"source_file,omitempty"`
}

// Meta returns the record's attributes without the verse text.
func (r VerseRecord) Meta() VerseMeta {
	return VerseMeta{
		Book:           r.Book,
		Abbrev:         r.Abbrev,
		Chapter:        r.Chapter,
		Verse:          r.Verse,
		Reference:      r.Reference,
		SectionHeading: r.SectionHeading,
		SourceFile:     r.SourceFile,
	}
}

// RetrievalCandidate is a matched verse with its similarity distance and,
// after reranking, a cross-encoder relevance score. Distance is lower = more
// similar; RerankerScore is higher = more relevant and nil until reranking.
type RetrievalCandidate struct {
	Reference      string   `json:"reference"`
	Text           string   `json:"text"`
	SectionHeading string   `json:"section_heading,omitempty"`
	Book           string   `json:"book"`
	Chapter        int      `json:"chapter"`
	Verse          int      `json:"verse"`
	Distance       float64  `json:"distance"`
	RerankerScore  *float64 `json:"reranker_score,omitempty"`
}

// RAGResponse is the final answer set for one query invocation. Answer is
// empty when no generation capability is configured or generation failed.
type RAGResponse struct {
	Query   string               `json:"query"`
	Results []RetrievalCandidate `json:"results"`
	Answer  string               `json:"answer,omitempty"`
}
