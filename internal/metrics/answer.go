// Package metrics derives cheap text features from agent answers for telemetry.
package metrics

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Answer holds shape features of a final answer.
type Answer struct {
	Bytes     int
	Runes     int
	Words     int
	Sentences int
}

// OneSentence reports whether the answer is exactly one sentence long.
func (a Answer) OneSentence() bool { return a.Sentences == 1 }

// Fields renders a as telemetry fields with the given key prefix.
func (a Answer) Fields(prefix string) map[string]any {
	return map[string]any{
		prefix + "bytes":     a.Bytes,
		prefix + "runes":     a.Runes,
		prefix + "words":     a.Words,
		prefix + "sentences": a.Sentences,
	}
}

// Measure computes Answer features for s.
func Measure(s string) Answer {
	return Answer{
		Bytes:     len(s),
		Runes:     utf8.RuneCountInString(s),
		Words:     len(strings.Fields(s)),
		Sentences: countSentences(s),
	}
}

// countSentences counts runs of '.', '!' or '?' followed by whitespace or the
// end of text. Trailing text without a terminator counts as one more sentence.
// A '.' inside a number such as 21.5 is not a terminator.
func countSentences(s string) int {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	runes := []rune(s)
	n := 0
	terminated := false
	for i := 0; i < len(runes); i++ {
		if !isTerminator(runes[i]) {
			terminated = false
			continue
		}
		j := i
		for j+1 < len(runes) && isTerminator(runes[j+1]) {
			j++
		}
		if j+1 == len(runes) || unicode.IsSpace(runes[j+1]) {
			n++
			terminated = true
		}
		i = j
	}
	if !terminated {
		n++
	}
	return n
}

func isTerminator(r rune) bool { return r == '.' || r == '!' || r == '?' }
