package repository

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBookFilter_AllBooks(t *testing.T) {
	f := AllBooks()
	assert.True(t, f.Empty())
	assert.Nil(t, f.Names())
}

func TestBookFilter_OneBook(t *testing.T) {
	f := OneBook("Alma")
	assert.False(t, f.Empty())
	assert.Equal(t, []string{"Alma"}, f.Names())
}

func TestBookFilter_Books(t *testing.T) {
	f := Books([]string{"Alma", "Moroni"})
	assert.False(t, f.Empty())
	assert.Equal(t, []string{"Alma", "Moroni"}, f.Names())
}

func TestBookFilter_EmptyListMeansNoFilter(t *testing.T) {
	assert.True(t, Books(nil).Empty())
	assert.True(t, Books([]string{}).Empty())
	assert.Equal(t, AllBooks(), Books([]string{}))
}

func TestBookFilter_CopiesInput(t *testing.T) {
	names := []string{"Alma"}
	f := Books(names)
	names[0] = "Moroni"
	assert.Equal(t, []string{"Alma"}, f.Names())
}
