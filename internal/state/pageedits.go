package state

import (
	"errors"
	"sort"
)

var (
	ErrInvalidPage    = errors.New("page numbers start at 1")
	ErrEmptyOperation = errors.New("operation has no points")
)

// PageEditSet holds the operations of every edited page, keyed by page number.
// Pages without operations have no entry. It is not safe for concurrent use; the owner serializes access.
type PageEditSet struct {
	pages map[int]*PageEdits
}

// NewPageEditSet creates an empty set.
func NewPageEditSet() *PageEditSet {
	return &PageEditSet{pages: make(map[int]*PageEdits)}
}

// Append commits op at the end of page's operation list.
func (s *PageEditSet) Append(page int, op EditOperation) error {
	if page < 1 {
		return ErrInvalidPage
	}
	if len(op.Points) == 0 {
		return ErrEmptyOperation
	}

	edits, ok := s.pages[page]
	if !ok {
		edits = &PageEdits{PageNumber: page}
		s.pages[page] = edits
	}
	edits.Operations = append(edits.Operations, op)
	return nil
}

// Operations returns a copy of page's operations in insertion order.
func (s *PageEditSet) Operations(page int) []EditOperation {
	edits, ok := s.pages[page]
	if !ok {
		return nil
	}
	ops := make([]EditOperation, len(edits.Operations))
	for i, op := range edits.Operations {
		ops[i] = op.Clone()
	}
	return ops
}

// Clear removes page's entry and reports whether it had one.
func (s *PageEditSet) Clear(page int) bool {
	if _, ok := s.pages[page]; !ok {
		return false
	}
	delete(s.pages, page)
	return true
}

// Reset drops every page.
func (s *PageEditSet) Reset() {
	s.pages = make(map[int]*PageEdits)
}

// Pages returns the edited page numbers in ascending order.
func (s *PageEditSet) Pages() []int {
	pages := make([]int, 0, len(s.pages))
	for p := range s.pages {
		pages = append(pages, p)
	}
	sort.Ints(pages)
	return pages
}

// Len returns the number of edited pages.
func (s *PageEditSet) Len() int {
	return len(s.pages)
}

// OperationCount returns the number of operations across all pages.
func (s *PageEditSet) OperationCount() int {
	n := 0
	for _, edits := range s.pages {
		n += len(edits.Operations)
	}
	return n
}

// Snapshot returns a deep copy that later mutations of s do not affect.
func (s *PageEditSet) Snapshot() *PageEditSet {
	c := NewPageEditSet()
	for page := range s.pages {
		c.pages[page] = &PageEdits{PageNumber: page, Operations: s.Operations(page)}
	}
	return c
}
