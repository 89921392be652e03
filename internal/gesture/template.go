package gesture

import (
	"unicode/utf8"

	"github.com/ayusman/handson/internal/detector"
)

// Kind classifies a gesture for statistics.
type Kind string

const (
	// KindLetter is a single fingerspelled character.
	KindLetter Kind = "letter"
	// KindPhrase is a word or short phrase.
	KindPhrase Kind = "phrase"
)

// Statistic keys incremented once per completed repetition.
const (
	StatLetters = "Letters"
	StatPhrases = "Phrases"
)

// Template is the reference fingerprint of one gesture.
type Template struct {
	Name      string           `json:"name"`
	Joints    []detector.Joint `json:"joints"`
	Distances []float64        `json:"distances"`
	Tolerance float64          `json:"tolerance"`
}

// Kind reports whether the template is a letter or a phrase.
func (t *Template) Kind() Kind {
	if utf8.RuneCountInString(t.Name) == 1 {
		return KindLetter
	}
	return KindPhrase
}

// StatKey returns the statistic incremented when a repetition of this
// gesture completes.
func (t *Template) StatKey() string {
	if t.Kind() == KindLetter {
		return StatLetters
	}
	return StatPhrases
}
