package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTokenize(t *testing.T) {
	testCases := []struct {
		input string
		want  []string
	}{
		{`foo bar "baz qux" quux`, []string{"foo", "bar", "baz qux", "quux"}},
		{"ls -l", []string{"ls", "-l"}},
		{"  ls \t  -l  ", []string{"ls", "-l"}},
		{`echo "say \"hi\""`, []string{"echo", `say "hi"`}},
		{`echo "a\\b"`, []string{"echo", `a\b`}},
		{`echo "a\nb"`, []string{"echo", `a\nb`}},
		{`echo a\b`, []string{"echo", `a\b`}},
		{`echo a"b c"d`, []string{"echo", "ab cd"}},
		{`echo ""`, []string{"echo", ""}},
		{`""`, []string{""}},
		{`echo "unterminated  span`, []string{"echo", "unterminated  span"}},
		{`echo "trailing\`, []string{"echo", `trailing\`}},
		{`echo it's`, []string{"echo", "it's"}},
		{"grep -i 'pattern' file.txt", []string{"grep", "-i", "'pattern'", "file.txt"}},
	}

	for _, tc := range testCases {
		assert.Equal(t, tc.want, Tokenize(tc.input), "Tokenize(%q)", tc.input)
	}
}

func TestTokenizeBlankLine(t *testing.T) {
	for _, input := range []string{"", " ", "\t \t", "   "} {
		assert.Empty(t, Tokenize(input), "Tokenize(%q)", input)
	}
}

func TestSplit(t *testing.T) {
	testCases := []struct {
		input string
		done  []string
		word  Word
	}{
		{"", nil, Word{}},
		{"ec", nil, Word{Text: "ec", Raw: "ec"}},
		{"echo ", []string{"echo"}, Word{}},
		{"echo fo", []string{"echo"}, Word{Text: "fo", Raw: "fo"}},
		{`echo "two wo`, []string{"echo"}, Word{Text: "two wo", Raw: `"two wo`, InQuote: true}},
		{`echo "two words" `, []string{"echo", "two words"}, Word{}},
		{`echo "two words"`, []string{"echo"}, Word{Text: "two words", Raw: `"two words"`}},
		{`echo my" d`, []string{"echo"}, Word{Text: "my d", Raw: `my" d`, InQuote: true}},
		{`echo "a\"b`, []string{"echo"}, Word{Text: `a"b`, Raw: `"a\"b`, InQuote: true}},
	}

	for _, tc := range testCases {
		done, word := Split(tc.input)
		assert.Equal(t, tc.done, done, "Split(%q) tokens", tc.input)
		assert.Equal(t, tc.word, word, "Split(%q) word", tc.input)
	}
}
