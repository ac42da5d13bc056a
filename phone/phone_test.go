package phone

import (
	"math/rand"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"empty", "", ""},
		{"digits only", "0123", "0123"},
		{"strips punctuation", "(012) 345-6789", "0123456789"},
		{"strips letters", "a1b2c3", "123"},
		{"truncates to eleven", "0123456789012345", "01234567890"},
		{"truncates after stripping", "+1 (234) 567-8901 ext 22", "12345678901"},
		{"drops wide digits by default", "０１２3", "3"},
		{"drops unicode digits", "٣4", "4"},
		{"whitespace", " \t\n", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.raw))
		})
	}
}

func TestNormalize_WideDigits(t *testing.T) {
	n := NewNormalizer(WithWideDigits(true))

	assert.Equal(t, "0123", n.Normalize("０１２3"))
	assert.Equal(t, "01234567890", n.Normalize("０１２３４５６７８９０１２"))
	assert.Equal(t, "", n.Normalize("ｐｈｏｎｅ"))
}

func TestNormalize_OutputIsDigitsWithinLimit(t *testing.T) {
	digitsOnly := regexp.MustCompile(`^[0-9]*$`)
	alphabet := []rune("0123456789abcXYZ -()+./０１٣é😀\x00")
	rng := rand.New(rand.NewSource(42))

	for i := 0; i < 2000; i++ {
		var b strings.Builder
		for j := rng.Intn(40); j > 0; j-- {
			b.WriteRune(alphabet[rng.Intn(len(alphabet))])
		}
		raw := b.String()

		for _, n := range []Normalizer{NewNormalizer(), NewNormalizer(WithWideDigits(true))} {
			got := n.Normalize(raw)
			if !digitsOnly.MatchString(got) {
				t.Fatalf("Normalize(%q) = %q contains non-digits", raw, got)
			}
			if len(got) > MaxDigits {
				t.Fatalf("Normalize(%q) = %q longer than %d", raw, got, MaxDigits)
			}
		}
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	for _, s := range []string{"12345678901", "01700000000", "", "123"} {
		once := Normalize(s)
		assert.Equal(t, s, once)
		assert.Equal(t, once, Normalize(once))
	}
}

func TestValid(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"12345678901", true},
		{"01700000000", true},
		{"", false},
		{"1234", false},
		{"1234567890", false},
		{"123456789012", false},
		{"1234567890a", false},
		{"1234567890 ", false},
		{"+1234567890", false},
		{"１２３４５６７８９０１", false},
		{"12345678901\n", false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, Valid(tt.in), "Valid(%q)", tt.in)
	}
}

func TestValid_MatchesReferencePattern(t *testing.T) {
	ref := regexp.MustCompile(`^[0-9]{11}$`)
	rng := rand.New(rand.NewSource(7))
	alphabet := "0123456789x "

	for i := 0; i < 2000; i++ {
		n := rng.Intn(14)
		b := make([]byte, n)
		for j := range b {
			b[j] = alphabet[rng.Intn(len(alphabet))]
		}
		s := string(b)
		if Valid(s) != ref.MatchString(s) {
			t.Fatalf("Valid(%q) = %v, reference says %v", s, Valid(s), ref.MatchString(s))
		}
	}
}
