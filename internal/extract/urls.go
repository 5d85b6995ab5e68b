package extract

import (
	"regexp"

	"github.com/felo/som-extract/internal/parser"
)

// urlPattern matches http(s) URLs and their defanged schemes (hxxp, hxxps,
// hxtp, htxp) up to the next whitespace, quote or angle bracket
var urlPattern = regexp.MustCompile(`(?i)h(?:tt|xx|xt|tx)p(s?)://[^\s"'<>]+`)

// ExtractURLs scans the HTML body of msg for URLs and rewrites defanged
// schemes to http/https. Matches keep document order, duplicates included.
func ExtractURLs(msg parser.Message) []string {
	return FindURLs(msg.HTMLBody())
}

// FindURLs returns the re-fanged URLs found in html
func FindURLs(html string) []string {
	matches := urlPattern.FindAllStringSubmatchIndex(html, -1)
	urls := make([]string, 0, len(matches))
	for _, m := range matches {
		scheme := "http"
		if m[3] > m[2] {
			scheme = "https"
		}
		// Everything from "://" onwards is kept as written
		rest := html[m[3]:m[1]]
		urls = append(urls, scheme+rest)
	}
	return urls
}
