// Package namematch decides whether an email username plausibly belongs
// to a named person, and generates candidate username patterns.
package namematch

import (
	"slices"
	"strings"
)

// usernamePatterns is the table of local-part shapes people actually use.
// {f} and {l} are first/last initials.
var usernamePatterns = []string{
	"{first}.{last}", "{first}_{last}", "{first}-{last}", "{first}{last}",
	"{f}{last}", "{first}", "{last}", "{last}{f}", "{l}{first}",
	"{f}.{last}", "{first}{l}", "{last}_{first}",
}

// Usernames expands the pattern table for a first/last name pair.
// Output is lowercase, distinct, and sorted.
func Usernames(first, last string) []string {
	first = strings.ToLower(strings.TrimSpace(first))
	last = strings.ToLower(strings.TrimSpace(last))
	if first == "" || last == "" {
		return nil
	}
	f, l := first[:1], last[:1]

	seen := make(map[string]bool, len(usernamePatterns))
	r := strings.NewReplacer("{first}", first, "{last}", last, "{f}", f, "{l}", l)
	for _, p := range usernamePatterns {
		seen[r.Replace(p)] = true
	}

	out := make([]string, 0, len(seen))
	for u := range seen {
		out = append(out, u)
	}
	slices.Sort(out)
	return out
}

// predicate is one named matching rule. Rules are independent: Matches is
// a pure OR, the ordering only short-circuits the common cases first.
type predicate struct {
	name string
	fn   func(username, first, last, f, l string) bool
}

var predicates = []predicate{
	{"exact-pattern", func(u, first, last, f, _ string) bool {
		switch u {
		case first + "." + last, first + "_" + last, first + last,
			f + last, last + f, last + "." + first:
			return true
		}
		return false
	}},
	{"both-names", func(u, first, last, _, _ string) bool {
		return strings.Contains(u, first) && strings.Contains(u, last)
	}},
	{"initial-prefix", func(u, _, last, f, _ string) bool {
		return strings.HasPrefix(u, f+last) || strings.HasPrefix(u, last+f)
	}},
	{"first-plus-initial", func(u, first, _, _, l string) bool {
		return strings.HasPrefix(u, first) && strings.Contains(u, l)
	}},
	{"initial-plus-last", func(u, _, last, f, _ string) bool {
		return strings.HasPrefix(u, f) && strings.Contains(u, last)
	}},
	{"three-char-prefix", func(u, first, last, _, _ string) bool {
		return strings.HasPrefix(u, prefix(first, 3)) && strings.Contains(u, prefix(last, 3))
	}},
}

// Matches reports whether username plausibly belongs to first/last.
// Intentionally permissive: false positives are pruned downstream by
// semantic scoring.
func Matches(username, first, last string) bool {
	username, first, last, f, l, ok := normalize(username, first, last)
	if !ok {
		return false
	}
	for _, p := range predicates {
		if p.fn(username, first, last, f, l) {
			return true
		}
	}
	return false
}

// ExactPattern reports whether username is one of the strong exact-style
// shapes (first.last, flast, ...). Used for confidence bonuses.
func ExactPattern(username, first, last string) bool {
	username, first, last, f, l, ok := normalize(username, first, last)
	if !ok {
		return false
	}
	return predicates[0].fn(username, first, last, f, l)
}

func normalize(username, first, last string) (u, fl, ll, f, l string, ok bool) {
	u = strings.ToLower(strings.TrimSpace(username))
	fl = strings.ToLower(strings.TrimSpace(first))
	ll = strings.ToLower(strings.TrimSpace(last))
	if u == "" || fl == "" || ll == "" {
		return "", "", "", "", "", false
	}
	return u, fl, ll, fl[:1], ll[:1], true
}

func prefix(s string, n int) string {
	if len(s) < n {
		return s
	}
	return s[:n]
}
