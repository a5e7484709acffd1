package index

import (
	"sort"
	"strings"

	"github.com/Adithya-Monish-Kumar-K/search-core/internal/indexer/tokenizer"
)

// MemoryIndex maps terms to their postings lists. It does no locking of
// its own; the owning engine holds one lock across the index, the
// document store and the document counter.
type MemoryIndex struct {
	index    map[string]PostingList
	postings int
}

func NewMemoryIndex() *MemoryIndex {
	return &MemoryIndex{
		index: make(map[string]PostingList),
	}
}

// AddDocument appends one posting per distinct term of text and returns
// the number of tokens seen.
func (m *MemoryIndex) AddDocument(docID int64, text string) int {
	tokens := tokenizer.Tokenize(text)
	for term, count := range tokenizer.Frequencies(tokens) {
		m.index[term] = append(m.index[term], Posting{
			DocID:  docID,
			Weight: TermWeight(count),
		})
		m.postings++
	}
	return len(tokens)
}

// Postings returns the postings list of term. The slice aliases the
// index and must not be retained past the caller's critical section.
func (m *MemoryIndex) Postings(term string) PostingList {
	return m.index[term]
}

// DocFreq is the length of term's postings list.
func (m *MemoryIndex) DocFreq(term string) int {
	return len(m.index[term])
}

func (m *MemoryIndex) Terms() int {
	return len(m.index)
}

func (m *MemoryIndex) PostingCount() int {
	return m.postings
}

// Snapshot copies every term starting with prefix, and its postings,
// sorted by term. An empty prefix selects every term.
func (m *MemoryIndex) Snapshot(prefix string) []TermEntry {
	entries := make([]TermEntry, 0)
	for term, postings := range m.index {
		if !strings.HasPrefix(term, prefix) {
			continue
		}
		cp := make(PostingList, len(postings))
		copy(cp, postings)
		entries = append(entries, TermEntry{
			Term:     term,
			Postings: cp,
		})
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Term < entries[j].Term
	})
	return entries
}
