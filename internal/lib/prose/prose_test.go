package prose

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWordCount(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want int
	}{
		{name: "empty", in: "", want: 0},
		{name: "only whitespace", in: " \n\t  ", want: 0},
		{name: "sentence", in: "Call me Ishmael.", want: 3},
		{name: "mixed whitespace", in: "one\ttwo\nthree  four", want: 4},
		{name: "leading and trailing", in: "  padded words  ", want: 2},
		{name: "markup counts as tokens", in: "<p>Hello world</p>", want: 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, WordCount(tt.in))
		})
	}
}

func TestStripTags(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "plain text", in: "no markup", want: "no markup"},
		{name: "paragraphs", in: "<p>Call me <strong>Ishmael</strong>.</p>", want: "Call me Ishmael."},
		{name: "attributes", in: `<a href="x">link</a>`, want: "link"},
		{name: "unterminated tag", in: "text <p", want: "text p"},
		{name: "stray closing bracket", in: "5 > 3", want: "5  3"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := StripTags(tt.in)
			assert.Equal(t, tt.want, got)
			assert.False(t, strings.ContainsAny(got, "<>"))
		})
	}
}
