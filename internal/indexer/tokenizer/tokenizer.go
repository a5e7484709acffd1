// Package tokenizer provides text tokenisation for the search engine.
// It splits on anything that is not an ASCII letter or digit, lower-cases
// each run, and drops runs shorter than MinTermLength. There is no
// stop-word removal and no stemming: every surviving run is a term.
package tokenizer

// MinTermLength is the shortest run kept as a term.
const MinTermLength = 2

// Tokenize breaks text into lowercased terms in order of appearance.
// Non-ASCII bytes act as separators. The result is never nil.
func Tokenize(text string) []string {
	terms := make([]string, 0, len(text)/6)
	buf := make([]byte, 0, 32)
	for i := 0; i < len(text); i++ {
		c := text[i]
		switch {
		case c >= 'a' && c <= 'z', c >= '0' && c <= '9':
			buf = append(buf, c)
		case c >= 'A' && c <= 'Z':
			buf = append(buf, c+('a'-'A'))
		default:
			if len(buf) >= MinTermLength {
				terms = append(terms, string(buf))
			}
			buf = buf[:0]
		}
	}
	if len(buf) >= MinTermLength {
		terms = append(terms, string(buf))
	}
	return terms
}

// Unique returns the distinct terms of terms in first-seen order.
func Unique(terms []string) []string {
	seen := make(map[string]struct{}, len(terms))
	out := make([]string, 0, len(terms))
	for _, term := range terms {
		if _, ok := seen[term]; ok {
			continue
		}
		seen[term] = struct{}{}
		out = append(out, term)
	}
	return out
}

// Frequencies counts how often each term occurs.
func Frequencies(terms []string) map[string]int {
	freq := make(map[string]int, len(terms))
	for _, term := range terms {
		freq[term]++
	}
	return freq
}
