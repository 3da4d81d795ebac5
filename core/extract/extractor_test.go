package extract

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rvalverde/rankpipe/core/codes"
)

const samplePage = `<!DOCTYPE html>
<html><head><title>catalog</title>
<script>var item_99999 = "ignored";</script>
<style>.item { color: red }</style>
</head>
<body>
<p>First: <a href="/items/12345.html">item_12345</a></p>
<p>again ITEM-12345 later</p>
<div><a href="/items/67890"><span>Item 67890</span></a></div>
<p>loose item 44444 mention</p>
<noscript>item_11111</noscript>
</body></html>`

func itemPrefix(t *testing.T) codes.Prefix {
	t.Helper()
	p, err := codes.Normalize("item")
	require.NoError(t, err)
	return p
}

func TestParseMode(t *testing.T) {
	t.Parallel()

	m, err := ParseMode("Unique")
	require.NoError(t, err)
	assert.Equal(t, ModeUnique, m)

	m, err = ParseMode("all")
	require.NoError(t, err)
	assert.Equal(t, ModeAll, m)

	_, err = ParseMode("everything")
	assert.Error(t, err)
}

func TestExtractUnique(t *testing.T) {
	t.Parallel()

	res := New().Extract(samplePage, itemPrefix(t), Options{
		Mode:    ModeUnique,
		BaseURL: "http://example.com/page",
	})

	require.Len(t, res.Matches, 3)
	assert.Empty(t, res.Warnings)

	first := res.Matches[0]
	assert.Equal(t, "ITEM-12345", first.Code)
	assert.Equal(t, "item_12345", first.Raw)
	assert.Equal(t, 1, first.Rank)
	assert.Equal(t, 2, first.Count, "both spellings of the code are counted")
	assert.Equal(t, "http://example.com/items/12345.html", first.LinkURL)

	second := res.Matches[1]
	assert.Equal(t, "ITEM-67890", second.Code)
	assert.Equal(t, "http://example.com/items/67890", second.LinkURL, "anchor carries through nested elements")

	third := res.Matches[2]
	assert.Equal(t, "ITEM-44444", third.Code)
	assert.Empty(t, third.LinkURL)

	for i, rec := range res.Matches {
		assert.Equal(t, i+1, rec.Rank, "ranks are contiguous from 1")
	}
}

func TestExtractSkipsScriptStyleNoscript(t *testing.T) {
	t.Parallel()

	res := New().Extract(samplePage, itemPrefix(t), Options{Mode: ModeUnique})
	for _, rec := range res.Matches {
		assert.NotEqual(t, "ITEM-99999", rec.Code)
		assert.NotEqual(t, "ITEM-11111", rec.Code)
	}
}

func TestExtractDeterministic(t *testing.T) {
	t.Parallel()

	p := itemPrefix(t)
	opts := Options{Mode: ModeUnique, IncludeContext: true, BaseURL: "http://example.com"}

	first := New().Extract(samplePage, p, opts)
	second := New().Extract(samplePage, p, opts)
	assert.Equal(t, first, second)
}

func TestExtractUniqueLimit(t *testing.T) {
	t.Parallel()

	html := `<html><body>item 1 item 2 item 3</body></html>`
	res := New().Extract(html, itemPrefix(t), Options{Mode: ModeUnique, Limit: 2})

	require.Len(t, res.Matches, 2)
	assert.Equal(t, "ITEM-1", res.Matches[0].Code)
	assert.Equal(t, "ITEM-2", res.Matches[1].Code)
	assert.Equal(t, 2, res.Matches[1].Rank)

	require.Len(t, res.Warnings, 1)
	assert.Contains(t, res.Warnings[0], "truncated to 2")
	assert.Contains(t, res.Warnings[0], "found 3")
}

func TestExtractAllMode(t *testing.T) {
	t.Parallel()

	res := New().Extract(samplePage, itemPrefix(t), Options{Mode: ModeAll, Limit: 1})

	require.Len(t, res.Matches, 4, "all mode is never capped")
	require.NotNil(t, res.Summary)
	assert.Equal(t, 4, res.Summary.TotalOccurrences)
	assert.Equal(t, 3, res.Summary.UniqueTotal)

	for i, rec := range res.Matches {
		assert.Equal(t, i+1, rec.Rank)
		assert.Zero(t, rec.Count)
	}
	assert.Equal(t, "ITEM-12345", res.Matches[0].Code)
	assert.Equal(t, "ITEM-12345", res.Matches[1].Code)
}

func TestExtractContext(t *testing.T) {
	t.Parallel()

	html := `<html><body><p>` + strings.Repeat("pad ", 30) + `item 12345 tail words</p></body></html>`

	res := New().Extract(html, itemPrefix(t), Options{Mode: ModeUnique, IncludeContext: true})
	require.Len(t, res.Matches, 1)

	ctx := res.Matches[0].Context
	assert.Contains(t, ctx, "item 12345")
	assert.Contains(t, ctx, "tail")
	assert.NotContains(t, ctx, "  ", "snippet whitespace is collapsed")
	assert.Less(t, len(ctx), len(html))

	res = New().Extract(html, itemPrefix(t), Options{Mode: ModeUnique})
	require.Len(t, res.Matches, 1)
	assert.Empty(t, res.Matches[0].Context)
}

func TestExtractInnermostAnchorWins(t *testing.T) {
	t.Parallel()

	html := `<html><body><a href="/outer">item 1 <a href="/inner">item 2</a></a></body></html>`
	res := New().Extract(html, itemPrefix(t), Options{Mode: ModeUnique, BaseURL: "http://h.test"})

	require.Len(t, res.Matches, 2)
	assert.Equal(t, "http://h.test/outer", res.Matches[0].LinkURL)
	assert.Equal(t, "http://h.test/inner", res.Matches[1].LinkURL)
}

func TestExtractMatchSpansElements(t *testing.T) {
	t.Parallel()

	html := `<html><body><b>item</b> 12345</body></html>`
	res := New().Extract(html, itemPrefix(t), Options{Mode: ModeUnique})

	require.Len(t, res.Matches, 1)
	assert.Equal(t, "ITEM-12345", res.Matches[0].Code)
}

func TestExtractPlainText(t *testing.T) {
	t.Parallel()

	res := New().Extract("inventory: item 777 and item_888\nnothing else", itemPrefix(t), Options{Mode: ModeUnique})

	require.Len(t, res.Matches, 2)
	assert.Equal(t, "ITEM-777", res.Matches[0].Code)
	assert.Equal(t, "ITEM-888", res.Matches[1].Code)
	assert.Empty(t, res.Matches[0].LinkURL)
}

func TestExtractEmptyInput(t *testing.T) {
	t.Parallel()

	res := New().Extract("", itemPrefix(t), Options{Mode: ModeUnique})
	assert.Empty(t, res.Matches)
	assert.Empty(t, res.Warnings)
	assert.Nil(t, res.Summary)

	res = New().Extract("<html><body>no codes</body></html>", itemPrefix(t), Options{Mode: ModeAll})
	assert.Empty(t, res.Matches)
}
