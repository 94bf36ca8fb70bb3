// Package extract pulls email addresses and name-proximity context
// snippets out of raw HTML.
package extract

import (
	"regexp"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
)

// DefaultWindow is how many characters of context are kept on each side
// of a name or email occurrence.
const DefaultWindow = 250

// fallbackLen is how much of the document is kept when the target name
// never appears, so the scorer always has at least one context block.
const fallbackLen = 1000

var (
	emailPattern      = regexp.MustCompile(`[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}`)
	whitespacePattern = regexp.MustCompile(`\s+`)
	wordPattern       = regexp.MustCompile(`\b\w+\b`)
)

// Emails returns the distinct email-shaped substrings in html, sorted.
func Emails(html string) []string {
	matches := emailPattern.FindAllString(html, -1)
	if len(matches) == 0 {
		return nil
	}
	seen := make(map[string]bool, len(matches))
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		if !seen[m] {
			seen[m] = true
			out = append(out, m)
		}
	}
	slices.Sort(out)
	return out
}

// NamedSnippets collapses whitespace in html and returns a window of
// context around every case-insensitive occurrence of name. When the
// name never appears, the document's first 1000 characters are returned
// as a single fallback snippet.
func NamedSnippets(html, name string, window int) []string {
	if window <= 0 {
		window = DefaultWindow
	}
	clean := whitespacePattern.ReplaceAllString(html, " ")
	lower := strings.ToLower(clean)
	target := strings.ToLower(name)

	var snippets []string
	if target != "" {
		idx := 0
		for {
			i := strings.Index(lower[idx:], target)
			if i < 0 {
				break
			}
			at := idx + i
			snippets = append(snippets, snip(clean, at-window, at+window))
			idx = at + len(target)
		}
	}
	if len(snippets) == 0 {
		snippets = []string{snip(clean, 0, fallbackLen)}
	}
	return snippets
}

// Candidate is an email paired with the text surrounding its occurrence.
type Candidate struct {
	Email   string
	Context string
}

// EmailsWithContext extracts the page's visible text and returns every
// email occurrence with a window of surrounding text. Unlike Emails,
// repeated addresses are kept: each occurrence carries its own context.
func EmailsWithContext(html string, window int) []Candidate {
	if window <= 0 {
		window = DefaultWindow
	}
	text := Text(html)

	var out []Candidate
	for _, loc := range emailPattern.FindAllStringIndex(text, -1) {
		start, end := loc[0], loc[1]
		out = append(out, Candidate{
			Email:   text[start:end],
			Context: snip(text, start-window, end+window),
		})
	}
	return out
}

// snip slices s between lo and hi, clamping to the string and backing
// each cut point off to a rune boundary so multibyte characters at the
// window edges are never split.
func snip(s string, lo, hi int) string {
	lo = max(0, lo)
	hi = min(len(s), hi)
	for lo > 0 && !utf8.RuneStart(s[lo]) {
		lo--
	}
	for hi < len(s) && !utf8.RuneStart(s[hi]) {
		hi--
	}
	return s[lo:hi]
}

// Text returns the visible text of an HTML document with whitespace
// runs collapsed. Script and style contents are dropped. Falls back to
// the raw input when the document cannot be parsed.
func Text(html string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return strings.TrimSpace(whitespacePattern.ReplaceAllString(html, " "))
	}
	doc.Find("script, style, noscript").Remove()
	text := doc.Text()
	return strings.TrimSpace(whitespacePattern.ReplaceAllString(text, " "))
}

// Words tokenizes text into lowercase word-boundary tokens longer than
// two characters. Used for the word-frequency diagnostic.
func Words(text string) []string {
	var out []string
	for _, w := range wordPattern.FindAllString(strings.ToLower(text), -1) {
		if len(w) > 2 {
			out = append(out, w)
		}
	}
	return out
}
