// Package extract implements the identifier-code extractor.
// It scans a fetched document in a single pass:
//  1. Assemble the visible text (script/style/noscript dropped), recording
//     the byte span of every text segment and the anchor it sits inside.
//  2. Run the prefix matcher over the assembled text.
//  3. Emit match records, attaching the enclosing link and a context
//     snippet where requested.
//
// Non-HTML input is matched against the raw content directly.
package extract

import (
	"fmt"
	"net/url"
	"sort"
	"strings"
	"unicode/utf8"

	"golang.org/x/net/html"

	"github.com/rvalverde/rankpipe/core"
	"github.com/rvalverde/rankpipe/core/codes"
)

// Mode selects how occurrences are reported.
type Mode string

const (
	// ModeUnique keeps the first occurrence per code, ranked by appearance.
	ModeUnique Mode = "unique"
	// ModeAll keeps every occurrence in document order.
	ModeAll Mode = "all"
)

// ParseMode validates a mode string from config or flags.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(s)) {
	case ModeUnique:
		return ModeUnique, nil
	case ModeAll:
		return ModeAll, nil
	}
	return "", fmt.Errorf("unknown extract mode %q (want unique or all)", s)
}

// contextRadius is the number of bytes kept on each side of a match
// when building context snippets.
const contextRadius = 40

// Options control a single extraction run.
type Options struct {
	Mode           Mode
	Limit          int // unique-mode cap; <= 0 disables it
	IncludeContext bool
	BaseURL        string // base for resolving anchor hrefs
}

// Result is the outcome of one extraction run.
type Result struct {
	Matches  []core.MatchRecord
	Summary  *core.ExtractSummary // all mode only
	Warnings []string
}

// Extractor finds identifier codes in fetched documents.
type Extractor struct{}

// New creates an Extractor.
func New() *Extractor {
	return &Extractor{}
}

// Extract scans content for the prefix grammar. Input with no matches
// yields an empty result, not an error. Repeated calls on the same
// input produce identical results.
func (e *Extractor) Extract(content string, prefix codes.Prefix, opts Options) Result {
	var (
		text string
		segs []segment
	)
	if looksLikeHTML(content) {
		text, segs = visibleText(content, opts.BaseURL)
	} else {
		text = content
	}

	found := prefix.FindAll(text)
	if len(found) == 0 {
		return Result{}
	}

	if opts.Mode == ModeAll {
		return collectAll(found, prefix, text, segs, opts)
	}
	return collectUnique(found, prefix, text, segs, opts)
}

// collectUnique keeps the first occurrence per code. Counts cover the
// whole document; the cap truncates the kept list afterwards so ranks
// stay contiguous from 1.
func collectUnique(found []codes.Match, prefix codes.Prefix, text string, segs []segment, opts Options) Result {
	var (
		order  []string
		firsts = make(map[string]codes.Match)
		counts = make(map[string]int)
	)
	for _, m := range found {
		code := prefix.Canonical(m.Digits)
		counts[code]++
		if _, seen := firsts[code]; !seen {
			firsts[code] = m
			order = append(order, code)
		}
	}

	var warnings []string
	if opts.Limit > 0 && len(order) > opts.Limit {
		warnings = append(warnings,
			fmt.Sprintf("unique codes truncated to %d (found %d)", opts.Limit, len(order)))
		order = order[:opts.Limit]
	}

	records := make([]core.MatchRecord, 0, len(order))
	for i, code := range order {
		m := firsts[code]
		records = append(records, record(m, code, i+1, counts[code], text, segs, opts))
	}
	return Result{Matches: records, Warnings: warnings}
}

// collectAll keeps every occurrence in document order, never capped.
func collectAll(found []codes.Match, prefix codes.Prefix, text string, segs []segment, opts Options) Result {
	unique := make(map[string]struct{})
	records := make([]core.MatchRecord, 0, len(found))
	for i, m := range found {
		code := prefix.Canonical(m.Digits)
		unique[code] = struct{}{}
		records = append(records, record(m, code, i+1, 0, text, segs, opts))
	}
	return Result{
		Matches: records,
		Summary: &core.ExtractSummary{
			TotalOccurrences: len(records),
			UniqueTotal:      len(unique),
		},
	}
}

func record(m codes.Match, code string, rank, count int, text string, segs []segment, opts Options) core.MatchRecord {
	rec := core.MatchRecord{
		Raw:   m.Raw,
		Code:  code,
		Rank:  rank,
		Count: count,
	}
	if seg, ok := findSegment(segs, m.Start); ok {
		rec.LinkURL = seg.href
	}
	if opts.IncludeContext {
		rec.Context = snippet(text, m.Start, m.End)
	}
	return rec
}

// segment is a run of visible text and the anchor destination it sits
// inside, if any.
type segment struct {
	start, end int
	href       string
}

// visibleText assembles the document's visible text in one tokenizer
// pass. Text inside script, style, and noscript is dropped. Segments
// are separated by single spaces so matches can span element
// boundaries. Open anchors form a stack; malformed nesting resolves to
// the innermost one.
func visibleText(content, baseURL string) (string, []segment) {
	var (
		b       strings.Builder
		segs    []segment
		anchors []string
		skip    int
	)

	z := html.NewTokenizer(strings.NewReader(content))
	for {
		tt := z.Next()
		switch tt {
		case html.ErrorToken:
			// Includes io.EOF; truncated markup keeps whatever was read.
			return b.String(), segs

		case html.StartTagToken, html.SelfClosingTagToken:
			name, hasAttr := z.TagName()
			switch string(name) {
			case "script", "style", "noscript":
				if tt == html.StartTagToken {
					skip++
				}
			case "a":
				href := ""
				for hasAttr {
					var k, v []byte
					k, v, hasAttr = z.TagAttr()
					if string(k) == "href" {
						href = resolveRef(baseURL, string(v))
					}
				}
				if tt == html.StartTagToken {
					anchors = append(anchors, href)
				}
			}

		case html.EndTagToken:
			name, _ := z.TagName()
			switch string(name) {
			case "script", "style", "noscript":
				if skip > 0 {
					skip--
				}
			case "a":
				if len(anchors) > 0 {
					anchors = anchors[:len(anchors)-1]
				}
			}

		case html.TextToken:
			if skip > 0 {
				continue
			}
			text := string(z.Text())
			if text == "" {
				continue
			}
			if b.Len() > 0 {
				b.WriteByte(' ')
			}
			seg := segment{start: b.Len(), end: b.Len() + len(text)}
			if len(anchors) > 0 {
				seg.href = anchors[len(anchors)-1]
			}
			segs = append(segs, seg)
			b.WriteString(text)
		}
	}
}

// findSegment locates the segment containing the given byte offset.
func findSegment(segs []segment, off int) (segment, bool) {
	i := sort.Search(len(segs), func(i int) bool { return segs[i].end > off })
	if i < len(segs) && segs[i].start <= off {
		return segs[i], true
	}
	return segment{}, false
}

// snippet returns the whitespace-collapsed text around a match.
func snippet(text string, start, end int) string {
	lo := start - contextRadius
	if lo < 0 {
		lo = 0
	}
	hi := end + contextRadius
	if hi > len(text) {
		hi = len(text)
	}
	// Keep rune boundaries intact.
	for lo > 0 && !utf8.RuneStart(text[lo]) {
		lo--
	}
	for hi < len(text) && !utf8.RuneStart(text[hi]) {
		hi++
	}
	return strings.Join(strings.Fields(text[lo:hi]), " ")
}

// resolveRef resolves href against base, falling back to href as-is
// when either side fails to parse.
func resolveRef(base, href string) string {
	if href == "" || base == "" {
		return href
	}
	bu, err := url.Parse(base)
	if err != nil {
		return href
	}
	hu, err := url.Parse(href)
	if err != nil {
		return href
	}
	return bu.ResolveReference(hu).String()
}

// htmlMarkers are cheap signals that content is markup rather than
// plain text. Only the head of the document is probed.
var htmlMarkers = []string{"<!doctype", "<html", "<head", "<body", "<div", "<p", "<a ", "<span", "<table", "<br"}

func looksLikeHTML(content string) bool {
	head := content
	if len(head) > 2048 {
		head = head[:2048]
	}
	head = strings.ToLower(head)
	for _, marker := range htmlMarkers {
		if strings.Contains(head, marker) {
			return true
		}
	}
	return false
}
