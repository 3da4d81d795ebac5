package fetch

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// gateHints mark interstitial pages that demand a confirmation before
// showing content. Matched against lowercased page text.
var gateHints = []string{
	"age verification",
	"verify your age",
	"are you over",
	"confirm you are",
	"human verification",
	"access restricted",
	"enable javascript and cookies",
	"checking your browser",
}

// gateURLHints mark gate redirect targets. Matched against the
// lowercased final URL.
var gateURLHints = []string{"verify", "age_check", "agecheck", "gate"}

// Gated reports whether the fetched page is a verification gate rather
// than the requested content.
func Gated(html, finalURL string) bool {
	body := strings.ToLower(html)
	for _, hint := range gateHints {
		if strings.Contains(body, hint) {
			return true
		}
	}
	lowered := strings.ToLower(finalURL)
	for _, hint := range gateURLHints {
		if strings.Contains(lowered, hint) {
			return true
		}
	}
	return false
}

// pageTitle extracts the <title> text for log messages.
func pageTitle(html string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(doc.Find("title").First().Text())
}
