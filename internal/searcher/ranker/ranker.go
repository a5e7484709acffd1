package ranker

import (
	"math"
	"sort"

	"github.com/Adithya-Monish-Kumar-K/search-core/internal/indexer/index"
)

type ScoredDoc struct {
	DocID int64   `json:"doc_id"`
	Score float64 `json:"score"`
}

// Rank scores every document that appears in postingsPerTerm with
// sum(weight * idf) over the query terms, then orders by descending
// score with ascending document id breaking ties. limit <= 0 keeps every
// candidate.
func Rank(postingsPerTerm map[string]index.PostingList, totalDocs int64, limit int) []ScoredDoc {
	// Terms are visited in sorted order so floating-point sums, and
	// therefore the ordering, are identical across calls.
	terms := make([]string, 0, len(postingsPerTerm))
	for term := range postingsPerTerm {
		terms = append(terms, term)
	}
	sort.Strings(terms)

	scores := make(map[int64]float64)
	for _, term := range terms {
		postings := postingsPerTerm[term]
		if len(postings) == 0 {
			continue
		}
		idf := IDF(totalDocs, int64(len(postings)))
		for _, posting := range postings {
			scores[posting.DocID] += float64(posting.Weight) * idf
		}
	}
	result := make([]ScoredDoc, 0, len(scores))
	for docID, score := range scores {
		result = append(result, ScoredDoc{
			DocID: docID,
			Score: score,
		})
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Score != result[j].Score {
			return result[i].Score > result[j].Score
		}
		return result[i].DocID < result[j].DocID
	})
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result
}

// IDF is the smoothed inverse document frequency ln(1 + N/(1+df)). It is
// positive for every N >= 1 and continuous at df == N.
func IDF(totalDocs int64, docFreq int64) float64 {
	return math.Log(1 + float64(totalDocs)/(1+float64(docFreq)))
}
