package dialogue

import (
	"strings"
	"unicode"
)

// GreetingReply is the fixed self-introduction sent for greeting-only input.
const GreetingReply = "Hello, I'm ADA, the Spirit AI reservation assistant. How can I help you today?"

var greetings = map[string]struct{}{
	"hi": {}, "hello": {}, "hey": {}, "hi there": {}, "hello there": {}, "hey there": {},
	"good morning": {}, "good afternoon": {}, "good evening": {}, "greetings": {},
	"merhaba": {}, "merhabalar": {}, "selam": {}, "selamlar": {},
	"günaydın": {}, "iyi günler": {}, "iyi akşamlar": {},
}

// IsGreeting report whether text is nothing but a greeting.
func IsGreeting(text string) bool {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return unicode.IsSpace(r) || unicode.IsPunct(r)
	})
	if len(fields) == 0 {
		return false
	}
	_, ok := greetings[strings.Join(fields, " ")]
	return ok
}
