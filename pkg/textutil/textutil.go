// Package textutil holds stateless text helpers shared by the search
// service, the CLI and embedding callers.
package textutil

import (
	"bytes"
	"fmt"
	"hash/fnv"
	"strings"

	"github.com/Adithya-Monish-Kumar-K/search-core/internal/indexer/tokenizer"
	apperrors "github.com/Adithya-Monish-Kumar-K/search-core/pkg/errors"
)

const (
	// Escape starts an encoded run in Compress output: Escape, count, byte.
	Escape = 0x1b
	// MinRun is the shortest run Compress encodes.
	MinRun = 4
	// MaxRun is the longest run one escape sequence can carry.
	MaxRun = 255
)

// Hash is the 64-bit FNV-1a hash of text's bytes.
func Hash(text string) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(text))
	return h.Sum64()
}

// Normalize lowercases ASCII letters, keeps ASCII digits and collapses
// every run of other bytes into a single space, trimmed at both ends.
func Normalize(text string) string {
	var b strings.Builder
	b.Grow(len(text))
	pendingSpace := false
	for i := 0; i < len(text); i++ {
		c := text[i]
		switch {
		case c >= 'A' && c <= 'Z':
			c += 'a' - 'A'
		case c >= 'a' && c <= 'z', c >= '0' && c <= '9':
		default:
			pendingSpace = b.Len() > 0
			continue
		}
		if pendingSpace {
			b.WriteByte(' ')
			pendingSpace = false
		}
		b.WriteByte(c)
	}
	return b.String()
}

// Similarity is the Jaccard coefficient of the term sets of a and b. It is
// 0 when either side has no terms.
func Similarity(a, b string) float64 {
	setA := termSet(a)
	setB := termSet(b)
	if len(setA) == 0 || len(setB) == 0 {
		return 0
	}
	intersection := 0
	for term := range setA {
		if _, ok := setB[term]; ok {
			intersection++
		}
	}
	union := len(setA) + len(setB) - intersection
	return float64(intersection) / float64(union)
}

func termSet(text string) map[string]struct{} {
	terms := tokenizer.Tokenize(text)
	set := make(map[string]struct{}, len(terms))
	for _, t := range terms {
		set[t] = struct{}{}
	}
	return set
}

// Compress run-length encodes data. Runs of MinRun or more identical bytes
// become Escape, count, byte with runs split at MaxRun; shorter runs are
// copied. A literal Escape byte is always encoded as a run so Decompress
// can tell the two apart, which means a lone 0x1b grows to three bytes.
// Output is therefore not byte-compatible with a plain RLE that copies
// every short run literally.
func Compress(data []byte) []byte {
	var out bytes.Buffer
	out.Grow(len(data))
	for i := 0; i < len(data); {
		c := data[i]
		run := 1
		for i+run < len(data) && data[i+run] == c && run < MaxRun {
			run++
		}
		if run >= MinRun || c == Escape {
			out.WriteByte(Escape)
			out.WriteByte(byte(run))
			out.WriteByte(c)
		} else {
			for k := 0; k < run; k++ {
				out.WriteByte(c)
			}
		}
		i += run
	}
	return out.Bytes()
}

// Decompress reverses Compress.
func Decompress(data []byte) ([]byte, error) {
	var out bytes.Buffer
	out.Grow(len(data))
	for i := 0; i < len(data); i++ {
		c := data[i]
		if c != Escape {
			out.WriteByte(c)
			continue
		}
		if i+2 >= len(data) {
			return nil, fmt.Errorf("%w: truncated run at offset %d", apperrors.ErrInvalidInput, i)
		}
		count := int(data[i+1])
		if count == 0 {
			return nil, fmt.Errorf("%w: zero-length run at offset %d", apperrors.ErrInvalidInput, i)
		}
		out.Write(bytes.Repeat([]byte{data[i+2]}, count))
		i += 2
	}
	return out.Bytes(), nil
}
