package scripture

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseBookMapping(t *testing.T) {
	content := `
                        THE OLD TESTAMENT

Genesis   . . . . . . . . . . . . . . . . .   GEN
Exodus    . . . . . . . . . . . . . . . . .   EXO
Doctrine-and-Covenants  . . . . . . . . . .   D&C
1-Nephi   . . . . . . . . . . . . . . . . .   NE1
`

	mapping := ParseBookMapping(content)

	assert.Equal(t, "Genesis", mapping["GEN"])
	assert.Equal(t, "Exodus", mapping["EXO"])
	assert.Equal(t, "Doctrine-and-Covenants", mapping["D&C"])
	assert.Equal(t, "1-Nephi", mapping["NE1"])
	assert.Len(t, mapping, 4)
}

func TestParseBookMapping_SkipsNonMatchingLines(t *testing.T) {
	content := `
THE CONTENTS OF THE VOLUME

This file lists each book and its abbreviation.

Genesis   . . . . . . . . . . . . . . . . .   GEN
`

	mapping := ParseBookMapping(content)
	assert.Len(t, mapping, 1)
	assert.Equal(t, "Genesis", mapping["GEN"])
}

func TestParseBookMapping_LastOccurrenceWins(t *testing.T) {
	content := `
Genesis   . . . . . . . . . . . . . . . . .   GEN
Genesis-Revised . . . . . . . . . . . . . .   GEN
`

	mapping := ParseBookMapping(content)
	assert.Equal(t, "Genesis-Revised", mapping["GEN"])
}

func TestParseBookMapping_Empty(t *testing.T) {
	mapping := ParseBookMapping("")
	assert.Empty(t, mapping)
}

func TestBookMapping_Name(t *testing.T) {
	mapping := BookMapping{"GEN": "Genesis"}

	assert.Equal(t, "Genesis", mapping.Name("GEN"))
	assert.Equal(t, "XYZ", mapping.Name("XYZ"))
}

func TestLoadBookMapping(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "Contents.txt")
	content := "Genesis   . . . . . . . . . . . . . . . . .   GEN\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	mapping, err := LoadBookMapping(path)
	require.NoError(t, err)
	assert.Equal(t, "Genesis", mapping["GEN"])
}

func TestLoadBookMapping_NotFound(t *testing.T) {
	_, err := LoadBookMapping(filepath.Join(t.TempDir(), "missing.txt"))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}
