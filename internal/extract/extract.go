// Package extract pulls structured prospect data out of free-form
// journalist-request text. Everything here is heuristic pattern matching:
// results are best-effort suggestions for human review, not authoritative
// contact records.
package extract

import (
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"outreach/internal/model"
)

// Query is one journalist request split out of a digest email body.
type Query struct {
	Number string
	Text   string
}

// maxQueryLen caps the text captured for a single query.
const maxQueryLen = 2000

var (
	queryMarkerPattern = regexp.MustCompile(`(?i)query\s*#?\s*(\d+)[:.]?`)
	tripleBlankPattern = regexp.MustCompile(`\n\s*\n\s*\n`)

	numberedLinePattern = regexp.MustCompile(`^\d+[.)]\s+`)
	capsHeaderPattern   = regexp.MustCompile(`^[A-Z][A-Z\s]+:`)

	emailPattern = regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`)
	urlPattern   = regexp.MustCompile(`https?://[^\s<>"{}|\\^` + "`" + `\[\]]+[^\s<>"{}|\\^` + "`" + `\[\].,;:!?]`)

	commaLinePattern = regexp.MustCompile(`^([^,]+),\s*(.+)$`)
	dashLinePattern  = regexp.MustCompile(`^(.+?)\s*[-–—]\s*(.+)$`)
	atLinePattern    = regexp.MustCompile(`(?i)(.+?)\s+at\s+(.+)`)
)

// SplitQueries splits a request digest body into individual queries. Digest
// emails usually carry "Query #N" markers; bodies without them fall back to
// numbered-list or header-based splitting, and a body with no recognizable
// structure is returned as a single query.
func SplitQueries(body string) []Query {
	body = strings.TrimSpace(body)
	if body == "" {
		return nil
	}

	if queries := splitByMarkers(body); len(queries) > 0 {
		return queries
	}

	if queries := splitByLines(body); len(queries) > 0 {
		return queries
	}

	return []Query{{Number: "1", Text: clipQuery(body)}}
}

// splitByMarkers splits on explicit "Query #N" markers.
func splitByMarkers(body string) []Query {
	markers := queryMarkerPattern.FindAllStringSubmatchIndex(body, -1)
	if len(markers) == 0 {
		return nil
	}

	var queries []Query
	for i, m := range markers {
		number := body[m[2]:m[3]]

		start := m[1]
		end := len(body)
		if i+1 < len(markers) {
			end = markers[i+1][0]
		}

		text := strings.TrimSpace(body[start:end])
		if text == "" {
			continue
		}

		// A triple blank line marks the end of the query block.
		if loc := tripleBlankPattern.FindStringIndex(text); loc != nil {
			text = strings.TrimSpace(text[:loc[0]])
		}

		queries = append(queries, Query{Number: number, Text: clipQuery(text)})
	}

	return queries
}

// splitByLines groups lines into queries, starting a new one at numbered
// list items, ALL-CAPS headers, or blank-line boundaries.
func splitByLines(body string) []Query {
	var queries []Query
	var current []string
	num := 1

	flush := func() {
		if len(current) == 0 {
			return
		}
		queries = append(queries, Query{
			Number: fmt.Sprintf("%d", num),
			Text:   clipQuery(strings.Join(current, "\n")),
		})
		current = nil
		num++
	}

	for _, line := range strings.Split(body, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			flush()
			continue
		}

		if numberedLinePattern.MatchString(line) || capsHeaderPattern.MatchString(line) {
			flush()
		}

		current = append(current, line)
	}
	flush()

	return queries
}

func clipQuery(text string) string {
	return truncateOnRune(text, maxQueryLen)
}

// truncateOnRune cuts s to at most max bytes without splitting a UTF-8
// sequence.
func truncateOnRune(s string, max int) string {
	if len(s) <= max {
		return s
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}

// Prospect extracts publication contact data from one query. It returns nil
// when the query carries neither an email address nor a URL — there is
// nothing actionable in it. matchedKeywords, when given, are recorded in the
// relevance note.
func Prospect(queryText string, matchedKeywords []string) *model.Prospect {
	contactEmail := firstMatch(emailPattern, queryText)
	homepageURL := firstMatch(urlPattern, queryText)

	if contactEmail == nil && homepageURL == nil {
		return nil
	}

	siteName, _ := guessSiteAndReporter(queryText)
	if siteName == "" {
		siteName = siteNameFromEmail(contactEmail)
	}

	if homepageURL == nil && contactEmail != nil {
		if domain := emailDomain(*contactEmail); domain != "" {
			url := "https://" + domain
			homepageURL = &url
		}
	}

	return &model.Prospect{
		SiteName:     siteName,
		HomepageURL:  homepageURL,
		ContactEmail: contactEmail,
		Relevance:    relevanceNote(queryText, matchedKeywords),
		FoundAt:      time.Now(),
	}
}

func firstMatch(re *regexp.Regexp, s string) *string {
	if m := re.FindString(s); m != "" {
		return &m
	}
	return nil
}

// guessSiteAndReporter scans the first lines of a query for the usual
// byline shapes: "Reporter, Publication", "Publication - Reporter", and
// "Reporter at Publication".
func guessSiteAndReporter(queryText string) (site, reporter string) {
	lines := strings.Split(queryText, "\n")
	if len(lines) > 10 {
		lines = lines[:10]
	}

	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if m := commaLinePattern.FindStringSubmatch(line); m != nil {
			return strings.TrimSpace(m[2]), strings.TrimSpace(m[1])
		}
		if m := dashLinePattern.FindStringSubmatch(line); m != nil {
			return strings.TrimSpace(m[1]), strings.TrimSpace(m[2])
		}
		if m := atLinePattern.FindStringSubmatch(line); m != nil {
			return strings.TrimSpace(m[2]), strings.TrimSpace(m[1])
		}
	}

	return "", ""
}

// siteNameFromEmail derives a display name from the contact's email domain.
func siteNameFromEmail(contactEmail *string) string {
	if contactEmail == nil {
		return "HARO Request Publication"
	}

	domain := emailDomain(*contactEmail)
	if domain == "" {
		return "HARO Request Publication"
	}

	domain = strings.TrimPrefix(domain, "mail.")
	domain = strings.TrimPrefix(domain, "email.")

	label, _, _ := strings.Cut(domain, ".")
	if label == "" {
		return "HARO Request Publication"
	}

	return capitalize(label) + " Publication"
}

func emailDomain(email string) string {
	_, domain, ok := strings.Cut(email, "@")
	if !ok {
		return ""
	}
	return strings.ToLower(strings.TrimSpace(domain))
}

// MatchKeywords returns the configured keywords that appear in the query
// text, case-insensitively.
func MatchKeywords(queryText string, keywords []string) []string {
	lowered := strings.ToLower(queryText)

	var matched []string
	for _, kw := range keywords {
		kw = strings.TrimSpace(kw)
		if kw == "" {
			continue
		}
		if strings.Contains(lowered, strings.ToLower(kw)) {
			matched = append(matched, kw)
		}
	}
	return matched
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// relevanceNote builds the free-text relevance description from a query
// preview and the matched keywords.
func relevanceNote(queryText string, matchedKeywords []string) string {
	preview := truncateOnRune(strings.Join(strings.Fields(queryText), " "), 200)

	if len(matchedKeywords) == 0 {
		return fmt.Sprintf("HARO request: %s...", preview)
	}

	if len(matchedKeywords) > 5 {
		matchedKeywords = matchedKeywords[:5]
	}
	return fmt.Sprintf("HARO request: %s... (Keywords: %s)", preview, strings.Join(matchedKeywords, ", "))
}
