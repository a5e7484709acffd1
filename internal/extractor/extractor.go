// Package extractor scans free text with an ordered set of named regular
// expressions. Rules are compiled once when the Extractor is built and the
// Extractor is safe for concurrent use afterwards.
package extractor

import (
	"fmt"
	"regexp"
	"runtime"

	apperrors "github.com/Adithya-Monish-Kumar-K/search-core/pkg/errors"
)

const (
	TypeEmail  = "email"
	TypeAmount = "amount"
	TypeDate   = "date"
	TypePerson = "person"
)

// Built-in rules, in the order Default applies them. The person rule is a
// capitalised-word-pair heuristic and matches things like "New York".
var builtinRules = []Rule{
	{Name: TypeEmail, Expr: regexp.MustCompile(`[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}`)},
	// A currency symbol is required; bare figures like "500,000" are not amounts.
	{Name: TypeAmount, Expr: regexp.MustCompile(`[$€£]\d[\d,]*(?:\.\d{2})?`)},
	{Name: TypeDate, Expr: regexp.MustCompile(`\b\d{4}-\d{2}-\d{2}\b`)},
	{Name: TypePerson, Expr: regexp.MustCompile(`\b[A-Z][a-z]{2,15} [A-Z][a-z]{2,15}\b`)},
}

type Rule struct {
	Name string
	Expr *regexp.Regexp
}

type Match struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

type Extractor struct {
	rules   []Rule
	workers int
}

// New builds an Extractor that applies rules in the given order.
func New(rules ...Rule) *Extractor {
	cp := make([]Rule, len(rules))
	copy(cp, rules)
	workers := runtime.NumCPU()
	if workers < 1 {
		workers = 1
	}
	return &Extractor{
		rules:   cp,
		workers: workers,
	}
}

// Default returns an Extractor with the built-in email, amount, date and
// person rules followed by any extra rules.
func Default(extra ...Rule) *Extractor {
	rules := make([]Rule, 0, len(builtinRules)+len(extra))
	rules = append(rules, builtinRules...)
	rules = append(rules, extra...)
	return New(rules...)
}

// Compile builds a Rule from a configured name and pattern.
func Compile(name, pattern string) (Rule, error) {
	if name == "" {
		return Rule{}, fmt.Errorf("%w: rule name is empty", apperrors.ErrInvalidInput)
	}
	expr, err := regexp.Compile(pattern)
	if err != nil {
		return Rule{}, fmt.Errorf("compiling rule %q: %w", name, err)
	}
	return Rule{Name: name, Expr: expr}, nil
}

// SetBatchWorkers bounds the worker pool used by ExtractBatch. It must be
// called before the Extractor is shared.
func (e *Extractor) SetBatchWorkers(n int) {
	if n < 1 {
		n = 1
	}
	e.workers = n
}

// Rules returns the rule names in application order.
func (e *Extractor) Rules() []string {
	names := make([]string, len(e.rules))
	for i, r := range e.rules {
		names[i] = r.Name
	}
	return names
}

// Extract runs every rule over the whole of text, in rule order. Matches of
// one rule never overlap each other; matches of different rules may.
func (e *Extractor) Extract(text string) []Match {
	matches := make([]Match, 0)
	for _, rule := range e.rules {
		for _, value := range rule.Expr.FindAllString(text, -1) {
			matches = append(matches, Match{
				Type:  rule.Name,
				Value: value,
			})
		}
	}
	return matches
}

// CountByType tallies matches per rule name.
func CountByType(matches []Match) map[string]int {
	counts := make(map[string]int)
	for _, m := range matches {
		counts[m.Type]++
	}
	return counts
}
