// Package identity turns caller-supplied names and learner keys into stable values.
package identity

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

const (
	Anonymous      = "anonymous"
	maxNameRunes   = 40
	maxKeyLength   = 64
	anonymousTitle = "there"
)

// DisplayName trims raw and caps its length; an empty name becomes Anonymous.
func DisplayName(raw string) string {
	name := strings.Join(strings.Fields(raw), " ")
	if name == "" {
		return Anonymous
	}
	if utf8.RuneCountInString(name) > maxNameRunes {
		name = strings.TrimSpace(string([]rune(name)[:maxNameRunes]))
	}
	return name
}

func Greeting(name string) string {
	name = DisplayName(name)
	if name == Anonymous {
		name = anonymousTitle
	}
	return fmt.Sprintf("Hi %s, ready to level up your career?", name)
}

// LearnerKey normalizes a caller-supplied key that identifies a learner across visits.
// Letters are lowercased; anything outside [a-z0-9._@-] is dropped. Empty means no key.
func LearnerKey(raw string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(strings.TrimSpace(raw)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '.', r == '_', r == '@', r == '-':
			b.WriteRune(r)
		}
		if b.Len() == maxKeyLength {
			break
		}
	}
	return b.String()
}
