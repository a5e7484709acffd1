package index

import "math"

// Posting records that a document contains a term, with the document's
// log-scaled term-frequency weight.
type Posting struct {
	DocID  int64   `json:"doc_id"`
	Weight float32 `json:"weight"`
}

// PostingList holds the postings of one term in insertion order.
type PostingList []Posting

// TermEntry is one term with a copy of its postings.
type TermEntry struct {
	Term     string
	Postings PostingList
}

// TermWeight converts an in-document occurrence count into a posting
// weight: 1 + ln(count). count must be at least 1, so the weight is
// always >= 1.
func TermWeight(count int) float32 {
	return float32(1 + math.Log(float64(count)))
}
