package moderation_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/chatlink/anonchat/internal/service/moderation"
)

func TestCheckPassesCleanText(t *testing.T) {
	f := moderation.NewFilter()

	sanitized, ok, reason := f.Check("hello, how are you?")
	assert.True(t, ok)
	assert.Empty(t, reason)
	assert.Equal(t, "hello, how are you?", sanitized)
}

func TestCheckCollapsesWhitespace(t *testing.T) {
	f := moderation.NewFilter()

	sanitized, ok, _ := f.Check("  hello \t  there\n\nfriend  ")
	assert.True(t, ok)
	assert.Equal(t, "hello there friend", sanitized)
}

func TestCheckRejectsPhoneNumbers(t *testing.T) {
	f := moderation.NewFilter()

	cases := []string{
		"call me at 9876543210",
		"my number is +91 9876543210",
		"+91-8765432109 anytime",
	}
	for _, text := range cases {
		_, ok, reason := f.Check(text)
		assert.False(t, ok, "text: %q", text)
		assert.Contains(t, reason, "contact information")
	}
}

func TestCheckRejectsEmail(t *testing.T) {
	f := moderation.NewFilter()

	_, ok, _ := f.Check("write to me: someone@example.com")
	assert.False(t, ok)
}

func TestCheckRejectsLinks(t *testing.T) {
	f := moderation.NewFilter()

	_, ok, _ := f.Check("join https://example.com/group")
	assert.False(t, ok)
	_, ok, _ = f.Check("or http://short.ly/x")
	assert.False(t, ok)
}

func TestCheckRejectsProfanity(t *testing.T) {
	f := moderation.NewFilter("badword")

	_, ok, reason := f.Check("you are such a BadWord honestly")
	assert.False(t, ok)
	assert.Contains(t, reason, "inappropriate")

	// Without a configured word list nothing is flagged.
	_, ok, _ = moderation.NewFilter().Check("badword")
	assert.True(t, ok)
}

func TestCheckAllowsPlainNumbers(t *testing.T) {
	f := moderation.NewFilter()

	// Short numbers are not phone numbers.
	_, ok, _ := f.Check("i am 25 years old")
	assert.True(t, ok)
}
