package extractor

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var numberExpr = regexp.MustCompile(`[$€£]?(\d[\d,]*(?:\.\d+)?)\s*([KkMmBb](?:illion)?\b|%|USD\b|EUR\b)?`)

// Quantity is a number found in text. Value has any K/M/B multiplier
// applied; Unit is the suffix as written, or empty.
type Quantity struct {
	Text  string  `json:"text"`
	Value float64 `json:"value"`
	Unit  string  `json:"unit,omitempty"`
}

// Numbers returns every numeric quantity in text, left to right.
// Thousands separators are dropped before parsing.
func Numbers(text string) []Quantity {
	found := numberExpr.FindAllStringSubmatch(text, -1)
	quantities := make([]Quantity, 0, len(found))
	for _, m := range found {
		literal := strings.ReplaceAll(m[1], ",", "")
		value, err := strconv.ParseFloat(literal, 64)
		if err != nil {
			// The expression only admits digits, commas and one dot.
			panic(fmt.Sprintf("extractor: numeric match %q did not parse: %v", m[1], err))
		}
		unit := m[2]
		value *= multiplier(unit)
		quantities = append(quantities, Quantity{
			Text:  strings.TrimSpace(m[0]),
			Value: value,
			Unit:  unit,
		})
	}
	return quantities
}

func multiplier(unit string) float64 {
	if unit == "" {
		return 1
	}
	switch unit[0] {
	case 'K', 'k':
		return 1e3
	case 'M', 'm':
		return 1e6
	case 'B', 'b':
		return 1e9
	default:
		return 1
	}
}
