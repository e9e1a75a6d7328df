// Package classify decides whether a mailbox message is a journalist-request
// email by matching sender and subject against known source-request service
// patterns.
package classify

import "strings"

// defaultPatterns covers the common HARO-style request services. Matching is
// substring-based and case-insensitive, applied to both sender and subject.
var defaultPatterns = []string{
	"helpareporter",
	"haro",
	"help a reporter",
	"qwoted",
	"sourcebottle",
	"journorequests",
}

// Classifier matches messages against a pattern list.
type Classifier struct {
	patterns []string
}

// New creates a Classifier from the default service patterns plus any extra
// configured keywords. Empty keywords are ignored.
func New(extra []string) *Classifier {
	patterns := make([]string, 0, len(defaultPatterns)+len(extra))
	patterns = append(patterns, defaultPatterns...)

	for _, kw := range extra {
		kw = strings.ToLower(strings.TrimSpace(kw))
		if kw != "" {
			patterns = append(patterns, kw)
		}
	}

	return &Classifier{patterns: patterns}
}

// Match reports whether the sender or subject contains any known pattern.
func (c *Classifier) Match(sender, subject string) bool {
	sender = strings.ToLower(sender)
	subject = strings.ToLower(subject)

	for _, p := range c.patterns {
		if strings.Contains(sender, p) || strings.Contains(subject, p) {
			return true
		}
	}

	return false
}
