package mfc

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var (
	isoFullDate  = regexp.MustCompile(`\b(\d{4})-(\d{1,2})-(\d{1,2})\b`)
	usDate       = regexp.MustCompile(`\b(\d{1,2})/(\d{1,2})/(\d{4})\b`)
	isoYearMonth = regexp.MustCompile(`\b(\d{4})-(\d{1,2})\b`)
	bareYear     = regexp.MustCompile(`\b(\d{4})\b`)

	trailingParen = regexp.MustCompile(`\(([^()]*)\)\s*$`)
	listSeparator = regexp.MustCompile(`[\n;•・]+`)
	sentenceEnd   = regexp.MustCompile(`[.!?]\s`)
)

const captionLimit = 160

// stripRole removes a trailing role annotation like "SEGA as Manufacturer" or
// "SEGA (Manufacturer)" and returns the bare value plus the detected role.
func stripRole(value string) (bare, role string) {
	value = strings.TrimSpace(value)
	if value == "" {
		return "", ""
	}
	if idx := strings.LastIndex(strings.ToLower(value), " as "); idx > 0 {
		bare = strings.TrimSpace(value[:idx])
		role = strings.TrimSpace(value[idx+len(" as "):])
		if bare != "" && role != "" {
			return bare, role
		}
	}
	if m := trailingParen.FindStringSubmatchIndex(value); m != nil {
		inner := strings.TrimSpace(value[m[2]:m[3]])
		head := strings.TrimSpace(value[:m[0]])
		// A parenthetical only reads as a role annotation when it is a short
		// word phrase, not a measurement or date.
		if head != "" && inner != "" && !strings.ContainsAny(inner, "0123456789=") {
			return head, inner
		}
	}
	return value, ""
}

// parseCompanies splits a multi-valued company cell into {name, role} pairs,
// deduplicated by lowercase name::role.
func parseCompanies(raw string) []Company {
	var out []Company
	seen := make(map[string]struct{})
	for _, part := range splitList(raw) {
		name, role := stripRole(part)
		if role == "" {
			// A dash separator is the remaining convention: "SEGA - Manufacturer".
			if head, tail, found := cutAny(name, " - ", " – "); found {
				name, role = strings.TrimSpace(head), strings.TrimSpace(tail)
			}
		}
		if name == "" {
			continue
		}
		key := strings.ToLower(name) + "::" + strings.ToLower(role)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, Company{Name: name, Role: role})
	}
	return out
}

// parseReleases splits a release cell into entries, locating a date token, a
// trailing parenthetical region, and a remaining type phrase per line.
func parseReleases(raw string) []Release {
	var out []Release
	for _, line := range splitList(raw) {
		release := parseReleaseLine(line)
		if release == (Release{}) {
			continue
		}
		out = append(out, release)
	}
	return out
}

func parseReleaseLine(line string) Release {
	line = strings.TrimSpace(line)
	if line == "" {
		return Release{}
	}
	release := Release{Label: line}
	rest := line

	if m := trailingParen.FindStringSubmatchIndex(rest); m != nil {
		release.Region = strings.TrimSpace(rest[m[2]:m[3]])
		rest = rest[:m[0]]
	}

	token, date := findDate(rest)
	release.Date = date
	if token != "" {
		rest = strings.Replace(rest, token, "", 1)
	}

	rest = strings.TrimSpace(rest)
	rest = strings.TrimPrefix(rest, "as ")
	rest = strings.TrimSuffix(rest, " as")
	release.Type = strings.Trim(rest, " -–:,")
	return release
}

// findDate locates the first date token in text and returns both the raw
// match and its normalized zero-padded form (YYYY-MM-DD, YYYY-MM, or YYYY).
func findDate(text string) (token, normalized string) {
	if m := isoFullDate.FindStringSubmatch(text); m != nil {
		return m[0], fmt.Sprintf("%s-%02d-%02d", m[1], atoi(m[2]), atoi(m[3]))
	}
	if m := usDate.FindStringSubmatch(text); m != nil {
		return m[0], fmt.Sprintf("%s-%02d-%02d", m[3], atoi(m[1]), atoi(m[2]))
	}
	if m := isoYearMonth.FindStringSubmatch(text); m != nil {
		return m[0], fmt.Sprintf("%s-%02d", m[1], atoi(m[2]))
	}
	if m := bareYear.FindStringSubmatch(text); m != nil {
		if year, err := strconv.Atoi(m[0]); err == nil && year >= 1900 && year <= 2200 {
			return m[0], m[0]
		}
	}
	return "", ""
}

// earliestReleaseDate derives the representative scalar release date: the
// earliest normalized date, truncated to year-month when a day is present.
// Zero-padded ISO-like strings sort correctly as plain strings.
func earliestReleaseDate(releases []Release) string {
	earliest := ""
	for _, r := range releases {
		if r.Date == "" {
			continue
		}
		if earliest == "" || r.Date < earliest {
			earliest = r.Date
		}
	}
	if len(earliest) > len("2006-01") {
		earliest = earliest[:len("2006-01")]
	}
	return earliest
}

// splitList breaks a multi-valued cell on newlines, semicolons and bullets.
func splitList(raw string) []string {
	var out []string
	for _, part := range listSeparator.Split(raw, -1) {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// splitMaterials additionally breaks on commas.
func splitMaterials(raw string) []string {
	return splitList(strings.ReplaceAll(raw, ",", "\n"))
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}

// summarize returns the first sentence of a description, truncated with an
// ellipsis when it runs past the caption limit.
func summarize(text string) string {
	text = strings.TrimSpace(text)
	if text == "" {
		return ""
	}
	sentence := text
	if loc := sentenceEnd.FindStringIndex(text); loc != nil {
		sentence = strings.TrimSpace(text[:loc[0]+1])
	}
	if len(sentence) > captionLimit {
		return truncateRunes(sentence, captionLimit-3) + "…"
	}
	return sentence
}

func truncateRunes(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}

// splitTags breaks a keyword string on commas, trimming and role-stripping
// each keyword.
func splitTags(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		tag, _ := stripRole(part)
		if tag != "" {
			out = append(out, tag)
		}
	}
	return out
}

func cutAny(s string, separators ...string) (before, after string, found bool) {
	for _, sep := range separators {
		if b, a, ok := strings.Cut(s, sep); ok {
			return b, a, true
		}
	}
	return s, "", false
}
