package repository

// BookFilter restricts a similarity query to one or more book names, matched
// exactly and OR-combined. The zero value matches all books. A filter built
// from an empty list also matches all books rather than none; callers rely on
// passing an empty selection to mean "no filter", so this equivalence is part
// of the contract.
type BookFilter struct {
	books []string
}

// AllBooks returns the unrestricted filter.
func AllBooks() BookFilter {
	return BookFilter{}
}

// OneBook restricts to a single book name.
func OneBook(name string) BookFilter {
	return BookFilter{books: []string{name}}
}

// Books restricts to any of the given book names.
func Books(names []string) BookFilter {
	if len(names) == 0 {
		return BookFilter{}
	}
	books := make([]string, len(names))
	copy(books, names)
	return BookFilter{books: books}
}

// Empty reports whether the filter places no restriction.
func (f BookFilter) Empty() bool {
	return len(f.books) == 0
}

// Names returns the book names the filter allows; nil when unrestricted.
func (f BookFilter) Names() []string {
	return f.books
}
