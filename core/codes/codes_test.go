package codes

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		raw   string
		want  string
		error error
	}{
		{name: "lowercase single token", raw: "item", want: "ITEM"},
		{name: "trailing hyphen", raw: "ITEM-", want: "ITEM"},
		{name: "two words", raw: "video code", want: "VIDEO-CODE"},
		{name: "underscore separator", raw: "Video_Code", want: "VIDEO-CODE"},
		{name: "surrounding whitespace", raw: "  fc2  ppv ", want: "FC2-PPV"},
		{name: "mixed separators", raw: "a-b_c d", want: "A-B-C-D"},
		{name: "empty", raw: "", error: ErrEmptyPrefix},
		{name: "separators only", raw: " -_- ", error: ErrEmptyPrefix},
		{name: "numeric token", raw: "123", error: ErrNumericToken},
		{name: "numeric token among words", raw: "item 123", error: ErrNumericToken},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			p, err := Normalize(tt.raw)
			if tt.error != nil {
				require.ErrorIs(t, err, tt.error)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, p.String())
		})
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	t.Parallel()

	for _, raw := range []string{"item", "video code", "A_b-C", "ITEM-"} {
		first, err := Normalize(raw)
		require.NoError(t, err)

		second, err := Normalize(first.String())
		require.NoError(t, err)
		assert.Equal(t, first.String(), second.String())
	}
}

func TestFindAllFormatVariants(t *testing.T) {
	t.Parallel()

	p, err := Normalize("item")
	require.NoError(t, err)

	for _, text := range []string{"item_12345", "ITEM-12345", "Item 12345"} {
		matches := p.FindAll(text)
		require.Len(t, matches, 1, "input %q", text)
		assert.Equal(t, "12345", matches[0].Digits)
		assert.Equal(t, "ITEM-12345", p.Canonical(matches[0].Digits))
	}
}

func TestFindAllMultiToken(t *testing.T) {
	t.Parallel()

	p, err := Normalize("video code")
	require.NoError(t, err)

	matches := p.FindAll("see Video code 12345 and video_code99 here")
	require.Len(t, matches, 2)
	assert.Equal(t, "VIDEO-CODE-12345", p.Canonical(matches[0].Digits))
	assert.Equal(t, "VIDEO-CODE-99", p.Canonical(matches[1].Digits))
}

func TestFindAllOffsetsAndOrder(t *testing.T) {
	t.Parallel()

	p, err := Normalize("item")
	require.NoError(t, err)

	text := "x item 1 y item 2"
	matches := p.FindAll(text)
	require.Len(t, matches, 2)

	assert.Equal(t, "item 1", matches[0].Raw)
	assert.Equal(t, text[matches[0].Start:matches[0].End], matches[0].Raw)
	assert.Less(t, matches[0].Start, matches[1].Start)

	assert.Nil(t, p.FindAll("nothing relevant"))
}

func TestRecanonicalize(t *testing.T) {
	t.Parallel()

	p, err := Normalize("item")
	require.NoError(t, err)

	tests := []struct {
		name string
		raw  string
		want string
		ok   bool
	}{
		{name: "grammar form", raw: "ITEM-00042", want: "ITEM-00042", ok: true},
		{name: "loose grammar form", raw: "item 7", want: "ITEM-7", ok: true},
		{name: "longest run fallback", raw: "x17-000999", want: "ITEM-000999", ok: true},
		{name: "tie takes later run", raw: "ab12cd34", want: "ITEM-34", ok: true},
		{name: "no digits", raw: "nothing", ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, ok := p.Recanonicalize(tt.raw)
			require.Equal(t, tt.ok, ok)
			if ok {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestLongestDigitRun(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{in: "/download/42.html", want: "42", ok: true},
		{in: "v2/article/1234567/x9", want: "1234567", ok: true},
		{in: "12 and 34", want: "34", ok: true},
		{in: "no digits here", ok: false},
		{in: "", ok: false},
	}

	for _, tt := range tests {
		got, ok := LongestDigitRun(tt.in)
		assert.Equal(t, tt.ok, ok, "input %q", tt.in)
		assert.Equal(t, tt.want, got, "input %q", tt.in)
	}
}
