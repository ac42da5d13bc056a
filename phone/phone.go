// phone/phone.go
package phone

import (
	"regexp"
	"strings"

	"golang.org/x/text/width"
)

// MaxDigits is the exact number of digits a complete phone number has.
const MaxDigits = 11

// Placeholder is the hint shown in an empty phone field.
const Placeholder = "01*********"

var pattern = regexp.MustCompile(`^[0-9]{11}$`)

// Valid reports whether s is exactly 11 ASCII decimal digits.
func Valid(s string) bool {
	return pattern.MatchString(s)
}

// Option configures a Normalizer.
type Option func(*Normalizer)

// WithWideDigits folds full-width digits (U+FF10..U+FF19) to their ASCII
// forms before non-digits are stripped. Without it they are dropped.
func WithWideDigits(enabled bool) Option {
	return func(n *Normalizer) { n.foldWide = enabled }
}

// Normalizer turns raw keystroke text into a PhoneInput: ASCII digits only,
// at most MaxDigits long. The zero value is ready to use.
type Normalizer struct {
	foldWide bool
}

// NewNormalizer returns a Normalizer with the given options applied.
func NewNormalizer(opts ...Option) Normalizer {
	var n Normalizer
	for _, opt := range opts {
		opt(&n)
	}
	return n
}

// Normalize strips every non-digit character from raw and truncates the
// result to MaxDigits. It never fails.
func (n Normalizer) Normalize(raw string) string {
	if n.foldWide {
		raw = width.Fold.String(raw)
	}

	var b strings.Builder
	b.Grow(MaxDigits)
	count := 0
	for i := 0; i < len(raw) && count < MaxDigits; i++ {
		c := raw[i]
		if c < '0' || c > '9' {
			continue
		}
		b.WriteByte(c)
		count++
	}
	return b.String()
}

// Normalize applies the default Normalizer to raw.
func Normalize(raw string) string {
	return Normalizer{}.Normalize(raw)
}
