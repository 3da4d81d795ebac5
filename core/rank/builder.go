// Package rank implements the ranking-page entry builder.
// It walks every anchor of a listing page in document order, derives a
// stable item ID from the link (or from the anchor text via the prefix
// grammar), and emits deduplicated, rank-numbered entries.
package rank

import (
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/rvalverde/rankpipe/core"
	"github.com/rvalverde/rankpipe/core/codes"
)

// ErrNoEntries reports a page that yielded no parseable entries.
// Callers usually treat it as a warning with an empty result.
var ErrNoEntries = errors.New("no rank entries found")

// Link shapes that carry an item ID on listing pages.
var idPatterns = []*regexp.Regexp{
	regexp.MustCompile(`/article/(\d+)/`),
	regexp.MustCompile(`[?&]id=(\d+)`),
}

// Builder turns listing-page HTML into rank entries.
type Builder struct{}

// New creates a Builder.
func New() *Builder {
	return &Builder{}
}

// Build parses the listing page and returns entries ranked by first
// appearance. Anchors sharing an item ID collapse into the earliest
// one. A positive limit caps the result. Returns ErrNoEntries when the
// page has no recognizable entries.
func (b *Builder) Build(pageHTML string, prefix codes.Prefix, sourceURL string, limit int) ([]core.RankEntry, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(pageHTML))
	if err != nil {
		return nil, fmt.Errorf("parsing listing page: %w", err)
	}

	seen := make(map[string]bool)
	var entries []core.RankEntry

	doc.Find("a[href]").EachWithBreak(func(_ int, a *goquery.Selection) bool {
		href, _ := a.Attr("href")
		title := collapseSpace(a.Text())

		itemID := idFromHref(href)
		if itemID == "" {
			itemID = idFromText(title, prefix)
		}
		if itemID == "" || seen[itemID] {
			return true
		}
		seen[itemID] = true

		if title == "" {
			title = fallbackTitle(prefix, itemID)
		}
		entries = append(entries, core.RankEntry{
			Rank:   len(entries) + 1,
			Code:   prefix.Canonical(itemID),
			Title:  title,
			ItemID: itemID,
			Link:   resolveLink(sourceURL, href),
		})
		return limit <= 0 || len(entries) < limit
	})

	if len(entries) == 0 {
		return nil, ErrNoEntries
	}
	return entries, nil
}

// idFromHref tries the known listing link shapes.
func idFromHref(href string) string {
	for _, re := range idPatterns {
		if m := re.FindStringSubmatch(href); m != nil {
			return m[1]
		}
	}
	return ""
}

// idFromText applies the prefix grammar to the anchor text.
func idFromText(text string, prefix codes.Prefix) string {
	matches := prefix.FindAll(text)
	if len(matches) == 0 {
		return ""
	}
	return matches[0].Digits
}

// fallbackTitle builds a display title for anchors without text,
// e.g. "VIDEO CODE 12345".
func fallbackTitle(prefix codes.Prefix, itemID string) string {
	return strings.ReplaceAll(prefix.String(), "-", " ") + " " + itemID
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// resolveLink resolves href against the page URL, keeping href as-is
// when either side fails to parse.
func resolveLink(pageURL, href string) string {
	if href == "" || pageURL == "" {
		return href
	}
	base, err := url.Parse(pageURL)
	if err != nil {
		return href
	}
	ref, err := url.Parse(href)
	if err != nil {
		return href
	}
	return base.ResolveReference(ref).String()
}
