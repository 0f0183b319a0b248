package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVerseRecordID(t *testing.T) {
	rec := VerseRecord{Abbrev: "GEN", Chapter: 1, Verse: 1}
	assert.Equal(t, "GEN_1:1", rec.ID())

	// The ID depends only on the coordinates, so re-parsing the same verse
	// always maps to the same index entry.
	again := VerseRecord{Abbrev: "GEN", Chapter: 1, Verse: 1, Text: "different text"}
	assert.Equal(t, rec.ID(), again.ID())
}

func TestVerseRecordIDDistinguishesCoordinates(t *testing.T) {
	a := VerseRecord{Abbrev: "GEN", Chapter: 1, Verse: 12}
	b := VerseRecord{Abbrev: "GEN", Chapter: 11, Verse: 2}
	assert.NotEqual(t, a.ID(), b.ID())
}

func TestFormatReference(t *testing.T) {
	assert.Equal(t, "Genesis 1:1", FormatReference("Genesis", 1, 1))
	assert.Equal(t, "1&2KINGS 3:16", FormatReference("1&2KINGS", 3, 16))
}

func TestMetaOmitsText(t *testing.T) {
	rec := VerseRecord{
		Text:           "In the beginning",
		Book:           "Genesis",
		Abbrev:         "GEN",
		Chapter:        1,
		Verse:          1,
		Reference:      "Genesis 1:1",
		SectionHeading: "The Creation",
		SourceFile:     "old_testament/genesis.txt",
	}

	meta := rec.Meta()
	assert.Equal(t, "Genesis", meta.Book)
	assert.Equal(t, "GEN", meta.Abbrev)
	assert.Equal(t, 1, meta.Chapter)
	assert.Equal(t, 1, meta.Verse)
	assert.Equal(t, "Genesis 1:1", meta.Reference)
	assert.Equal(t, "The Creation", meta.SectionHeading)
	assert.Equal(t, "old_testament/genesis.txt", meta.SourceFile)
}
