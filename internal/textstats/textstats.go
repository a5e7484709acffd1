// Package textstats computes descriptive statistics over a single text:
// counts, lexical diversity, a stopword-based language guess, keyword and
// n-gram tables.
package textstats

import (
	"sort"
	"strings"

	"github.com/Adithya-Monish-Kumar-K/search-core/internal/indexer/tokenizer"
)

const (
	LanguageEnglish = "en"
	LanguageFrench  = "fr"

	minKeywordLength = 3
)

type Stats struct {
	CharCount        int     `json:"char_count"`
	WordCount        int     `json:"word_count"`
	SentenceCount    int     `json:"sentence_count"`
	UniqueWords      int     `json:"unique_words"`
	AvgWordLength    float64 `json:"avg_word_length"`
	LexicalDiversity float64 `json:"lexical_diversity"`
	Language         string  `json:"language"`
}

type WordFrequency struct {
	Word  string  `json:"word"`
	Count int     `json:"count"`
	TF    float64 `json:"tf"`
}

type NGram struct {
	Text  string `json:"text"`
	Count int    `json:"count"`
}

// Report is the analysis of one text. It is immutable once built.
type Report struct {
	Stats  Stats
	tokens []string
	freq   map[string]int
}

// Analyze tokenizes text and computes its Stats. SentenceCount is the
// number of '.', '!' and '?' bytes, with a floor of one.
func Analyze(text string) Report {
	tokens := tokenizer.Tokenize(text)
	freq := tokenizer.Frequencies(tokens)

	totalLength := 0
	for _, tok := range tokens {
		totalLength += len(tok)
	}

	sentences := strings.Count(text, ".") + strings.Count(text, "!") + strings.Count(text, "?")
	if sentences == 0 {
		sentences = 1
	}

	stats := Stats{
		CharCount:     len(text),
		WordCount:     len(tokens),
		SentenceCount: sentences,
		UniqueWords:   len(freq),
		Language:      detectLanguage(freq),
	}
	if len(tokens) > 0 {
		stats.AvgWordLength = float64(totalLength) / float64(len(tokens))
		stats.LexicalDiversity = float64(len(freq)) / float64(len(tokens))
	}
	return Report{
		Stats:  stats,
		tokens: tokens,
		freq:   freq,
	}
}

// detectLanguage picks French only when French stopwords strictly
// outnumber English ones.
func detectLanguage(freq map[string]int) string {
	en, fr := 0, 0
	for word, count := range freq {
		if _, ok := stopwordsEN[word]; ok {
			en += count
		}
		if _, ok := stopwordsFR[word]; ok {
			fr += count
		}
	}
	if fr > en {
		return LanguageFrench
	}
	return LanguageEnglish
}

// TopWords returns the n most frequent words that are at least three
// characters long and not stopwords of the detected language, ordered by
// count then alphabetically. n <= 0 returns every candidate.
func (r Report) TopWords(n int) []WordFrequency {
	stopwords := stopwordsEN
	if r.Stats.Language == LanguageFrench {
		stopwords = stopwordsFR
	}

	words := make([]WordFrequency, 0, len(r.freq))
	for word, count := range r.freq {
		if len(word) < minKeywordLength {
			continue
		}
		if _, ok := stopwords[word]; ok {
			continue
		}
		words = append(words, WordFrequency{
			Word:  word,
			Count: count,
			TF:    float64(count) / float64(len(r.tokens)),
		})
	}
	sort.Slice(words, func(i, j int) bool {
		if words[i].Count != words[j].Count {
			return words[i].Count > words[j].Count
		}
		return words[i].Word < words[j].Word
	})
	if n > 0 && len(words) > n {
		words = words[:n]
	}
	return words
}

// NGrams counts every run of n consecutive tokens, most frequent first.
func (r Report) NGrams(n int) []NGram {
	if n <= 0 || n > len(r.tokens) {
		return []NGram{}
	}
	counts := make(map[string]int)
	for i := 0; i+n <= len(r.tokens); i++ {
		counts[strings.Join(r.tokens[i:i+n], " ")]++
	}
	grams := make([]NGram, 0, len(counts))
	for text, count := range counts {
		grams = append(grams, NGram{Text: text, Count: count})
	}
	sort.Slice(grams, func(i, j int) bool {
		if grams[i].Count != grams[j].Count {
			return grams[i].Count > grams[j].Count
		}
		return grams[i].Text < grams[j].Text
	})
	return grams
}

// TF is the share of tokens equal to term, case-insensitively.
func (r Report) TF(term string) float64 {
	if len(r.tokens) == 0 {
		return 0
	}
	return float64(r.freq[strings.ToLower(term)]) / float64(len(r.tokens))
}
