package extractor

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func valuesOf(matches []Match, typ string) []string {
	var out []string
	for _, m := range matches {
		if m.Type == typ {
			out = append(out, m.Value)
		}
	}
	return out
}

func TestExtractTitleAndBody(t *testing.T) {
	title := "Alice Smith"
	body := "paid $500,000 to Bob Jones on 2024-01-15"

	matches := Default().Extract(title + " " + body)

	assert.Equal(t, []string{"$500,000"}, valuesOf(matches, TypeAmount))
	assert.Equal(t, []string{"2024-01-15"}, valuesOf(matches, TypeDate))
	assert.Equal(t, []string{"Alice Smith", "Bob Jones"}, valuesOf(matches, TypePerson))
	assert.Empty(t, valuesOf(matches, TypeEmail))
}

func TestExtractBodyOnly(t *testing.T) {
	matches := Default().Extract("paid $500,000 to Bob Jones on 2024-01-15")
	assert.Equal(t, []string{"Bob Jones"}, valuesOf(matches, TypePerson))
}

func TestExtractRuleOrder(t *testing.T) {
	text := "Mary Poppins wrote to mary@example.org on 2023-12-01 about $12.50"
	matches := Default().Extract(text)

	require.Len(t, matches, 4)
	assert.Equal(t, []Match{
		{Type: TypeEmail, Value: "mary@example.org"},
		{Type: TypeAmount, Value: "$12.50"},
		{Type: TypeDate, Value: "2023-12-01"},
		{Type: TypePerson, Value: "Mary Poppins"},
	}, matches)
}

func TestExtractSourceOrderWithinRule(t *testing.T) {
	matches := Default().Extract("a@bb.io then c@dd.io then e@ff.io")
	assert.Equal(t, []string{"a@bb.io", "c@dd.io", "e@ff.io"}, valuesOf(matches, TypeEmail))
}

func TestExtractNoMatches(t *testing.T) {
	matches := Default().Extract("nothing interesting here, 12 items")
	assert.NotNil(t, matches)
	assert.Empty(t, matches)
	assert.Empty(t, Default().Extract(""))
}

func TestAmountRequiresCurrency(t *testing.T) {
	matches := Default().Extract("qty 500,000 cost €1,250.00 and £3")
	assert.Equal(t, []string{"€1,250.00", "£3"}, valuesOf(matches, TypeAmount))

	assert.Empty(t, valuesOf(Default().Extract("invoice total 1500.00 due"), TypeAmount))
}

func TestDateIsStrict(t *testing.T) {
	matches := Default().Extract("01/15/2024 or 2024-1-15 or 12024-01-15 but 1999-12-31")
	assert.Equal(t, []string{"1999-12-31"}, valuesOf(matches, TypeDate))
}

func TestCompile(t *testing.T) {
	rule, err := Compile("ticket", `[A-Z]{3}-\d+`)
	require.NoError(t, err)

	ext := Default(rule)
	assert.Equal(t, []string{TypeEmail, TypeAmount, TypeDate, TypePerson, "ticket"}, ext.Rules())
	assert.Equal(t, []string{"OPS-42"}, valuesOf(ext.Extract("see OPS-42"), "ticket"))

	_, err = Compile("broken", `(`)
	assert.Error(t, err)
	_, err = Compile("", `x`)
	assert.Error(t, err)
}

func TestNewCustomRules(t *testing.T) {
	rule, err := Compile("hashtag", `#\w+`)
	require.NoError(t, err)
	ext := New(rule)

	assert.Equal(t, []Match{{Type: "hashtag", Value: "#go"}, {Type: "hashtag", Value: "#search"}},
		ext.Extract("#go and #search, Alice Smith"))
}

func TestCountByType(t *testing.T) {
	counts := CountByType(Default().Extract("Alice Smith and Bob Jones met on 2024-01-15"))
	assert.Equal(t, 2, counts[TypePerson])
	assert.Equal(t, 1, counts[TypeDate])
}

func TestExtractBatch(t *testing.T) {
	ext := Default()
	ext.SetBatchWorkers(3)

	texts := make([]string, 25)
	for i := range texts {
		texts[i] = fmt.Sprintf("invoice on 2024-02-%02d for $%d", i+1, (i+1)*100)
	}
	results, err := ext.ExtractBatch(context.Background(), texts)
	require.NoError(t, err)
	require.Len(t, results, len(texts))
	for i, matches := range results {
		assert.Equal(t, ext.Extract(texts[i]), matches, "text %d", i)
	}
}

func TestExtractBatchEmpty(t *testing.T) {
	results, err := Default().ExtractBatch(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestExtractBatchCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Default().ExtractBatch(ctx, []string{"a@bb.io"})
	assert.ErrorIs(t, err, context.Canceled)
}

func BenchmarkExtract(b *testing.B) {
	ext := Default()
	text := "Alice Smith paid $500,000 to Bob Jones on 2024-01-15, cc alice@example.com"
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		ext.Extract(text)
	}
}
