package scripture

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testMapping = BookMapping{
	"GEN": "Genesis",
	"JON": "Jonah",
	"NE1": "1-Nephi",
	"D&C": "Doctrine-and-Covenants",
}

func TestParse_VerseLine(t *testing.T) {
	content := []byte("GEN 1:1 In the beginning God created the heaven and the earth.\n")

	records, err := Parse(content, testMapping, "test.txt")
	require.NoError(t, err)
	require.Len(t, records, 1)

	r := records[0]
	assert.Equal(t, "In the beginning God created the heaven and the earth.", r.Text)
	assert.Equal(t, "Genesis", r.Book)
	assert.Equal(t, "GEN", r.Abbrev)
	assert.Equal(t, 1, r.Chapter)
	assert.Equal(t, 1, r.Verse)
	assert.Equal(t, "Genesis 1:1", r.Reference)
	assert.Equal(t, "", r.SectionHeading)
	assert.Equal(t, "test.txt", r.SourceFile)
}

func TestParse_ReferenceMatchesFields(t *testing.T) {
	content := []byte("JON 2:10 And the LORD spake unto the fish.\nNE1 3:7 I will go and do.\nD&C 76:24 Worlds are created.\n")

	records, err := Parse(content, testMapping, "test.txt")
	require.NoError(t, err)
	require.Len(t, records, 3)

	for _, r := range records {
		assert.Equalf(t, fmt.Sprintf("%s %d:%d", r.Book, r.Chapter, r.Verse), r.Reference,
			"record %q", r.Text)
	}
}

func TestParse_VerseZeroIsHeadingNotRecord(t *testing.T) {
	content := []byte("GEN 1:0 The Creation\nGEN 1:1 In the beginning.\n")

	records, err := Parse(content, testMapping, "test.txt")
	require.NoError(t, err)
	require.Len(t, records, 1)

	assert.Equal(t, 1, records[0].Verse)
	assert.Equal(t, "The Creation", records[0].SectionHeading)
}

func TestParse_HeadingCarriesForward(t *testing.T) {
	content := []byte(
		"A 1:0 Heading X\n" +
			"A 1:1 text1\n" +
			"A 1:2 text2\n" +
			"B 1:0 Heading Y\n" +
			"B 1:1 text3\n")

	records, err := Parse(content, BookMapping{}, "test.txt")
	require.NoError(t, err)
	require.Len(t, records, 3)

	assert.Equal(t, "Heading X", records[0].SectionHeading)
	assert.Equal(t, "Heading X", records[1].SectionHeading)
	assert.Equal(t, "Heading Y", records[2].SectionHeading)
}

func TestParse_UnknownAbbreviationFallsBack(t *testing.T) {
	content := []byte("ZZZ 3:16 For God so loved the world.\n")

	records, err := Parse(content, testMapping, "test.txt")
	require.NoError(t, err)
	require.Len(t, records, 1)

	assert.Equal(t, "ZZZ", records[0].Book)
	assert.Equal(t, "ZZZ 3:16", records[0].Reference)
}

func TestParse_SkipsMalformedLines(t *testing.T) {
	content := []byte(
		"The First Book of Moses\n" +
			"\n" +
			"gen 1:1 lowercase abbreviation\n" +
			"GEN one:1 non-numeric chapter\n" +
			"GEN 1:1\n" +
			"GEN 1:1 In the beginning.\n" +
			"   \t  \n")

	records, err := Parse(content, testMapping, "test.txt")
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "In the beginning.", records[0].Text)
}

func TestParse_TrimsOuterWhitespaceOnly(t *testing.T) {
	content := []byte("  GEN 1:2 And the earth was without form,  and void.  \n")

	records, err := Parse(content, testMapping, "test.txt")
	require.NoError(t, err)
	require.Len(t, records, 1)

	// Internal whitespace in the verse text is preserved verbatim.
	assert.Equal(t, "And the earth was without form,  and void.", records[0].Text)
}

func TestParse_EmptyContent(t *testing.T) {
	records, err := Parse(nil, testMapping, "test.txt")
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestParse_InvalidUTF8(t *testing.T) {
	content := []byte{0xff, 0xfe, 'G', 'E', 'N'}

	_, err := Parse(content, testMapping, "bad.txt")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad.txt")
}

func TestParse_PreservesLineOrder(t *testing.T) {
	content := []byte(
		"GEN 1:1 first\n" +
			"GEN 1:2 second\n" +
			"GEN 2:1 third\n")

	records, err := Parse(content, testMapping, "test.txt")
	require.NoError(t, err)
	require.Len(t, records, 3)

	assert.Equal(t, "first", records[0].Text)
	assert.Equal(t, "second", records[1].Text)
	assert.Equal(t, "third", records[2].Text)
}
