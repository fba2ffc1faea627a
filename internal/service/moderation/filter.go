package moderation

import (
	"regexp"
	"strings"
)

// Filter is the content gate the chat engine consults before forwarding
// a message. It detects profanity and contact-info leaks (phone
// numbers, email addresses, links) and normalizes whitespace. The
// engine only sees pass/fail plus the sanitized text.
type Filter struct {
	profanity []string
	phoneRe   *regexp.Regexp
	emailRe   *regexp.Regexp
	urlRe     *regexp.Regexp
}

// NewFilter builds a gate with the default patterns and any extra
// profanity words.
func NewFilter(profanity ...string) *Filter {
	return &Filter{
		profanity: profanity,
		// Indian mobile format, optional +91 prefix
		phoneRe: regexp.MustCompile(`(\+91[\s-]?)?[6-9]\d{9}`),
		emailRe: regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`),
		urlRe:   regexp.MustCompile(`https?://[^\s]+`),
	}
}

// Check sanitizes the text and reports whether it may be forwarded.
// When ok is false, reason carries the user-facing explanation.
func (f *Filter) Check(text string) (sanitized string, ok bool, reason string) {
	if f.containsProfanity(text) {
		return text, false, "message contains inappropriate content"
	}
	if f.containsContactInfo(text) {
		return text, false, "sharing contact information is not allowed"
	}
	return strings.Join(strings.Fields(text), " "), true, ""
}

func (f *Filter) containsProfanity(text string) bool {
	lower := strings.ToLower(text)
	for _, word := range f.profanity {
		if word != "" && strings.Contains(lower, strings.ToLower(word)) {
			return true
		}
	}
	return false
}

func (f *Filter) containsContactInfo(text string) bool {
	return f.phoneRe.MatchString(text) || f.emailRe.MatchString(text) || f.urlRe.MatchString(text)
}
