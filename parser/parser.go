package parser

import (
	"strings"

	"github.com/alecthomas/participle/v2/lexer"
)

// lineLexer splits an input line into whitespace, double-quoted spans and
// bare words. Every input character matches one of the rules, so lexing a
// line never fails.
var lineLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Whitespace", Pattern: `\s+`},
	{Name: "Quote", Pattern: `"(?:\\[\s\S]|[^"\\])*(?:"|\\)?`}, // closing quote is optional
	{Name: "Word", Pattern: `[^\s"]+`},
})

var (
	whitespaceToken = lineLexer.Symbols()["Whitespace"]
	quoteToken      = lineLexer.Symbols()["Quote"]
)

// Tokenize splits line into argv-style tokens.
//
// Whitespace separates tokens unless it is inside a double-quoted span.
// Inside a span \" stands for a quote and \\ for a backslash; other
// backslashes are kept as typed. Quotes are stripped, and quoted and bare
// fragments that touch are joined into one token. A quote that is never
// closed runs to the end of the line. A blank line yields no tokens.
func Tokenize(line string) []string {
	tokens, word, open := split(line)
	if open {
		tokens = append(tokens, word.Text)
	}
	return tokens
}

// Word is the token under the cursor of a line that is still being typed.
type Word struct {
	// Text is the token as Tokenize would return it.
	Text string
	// Raw is the token as typed, quotes and escapes included.
	Raw string
	// InQuote is set when the cursor is inside a quote that is not closed.
	InQuote bool
}

// Split is Tokenize for a line that is still being typed. It returns the
// completed tokens and the word under the cursor, which is empty when the
// line ends with separating whitespace.
func Split(line string) ([]string, Word) {
	tokens, word, _ := split(line)
	return tokens, word
}

func split(line string) (tokens []string, word Word, open bool) {
	lex, err := lineLexer.Lex("", strings.NewReader(line))
	if err != nil {
		return strings.Fields(line), Word{}, false
	}

	var (
		b     strings.Builder
		start int
	)
	for {
		tok, err := lex.Next()
		if err != nil {
			// Unreachable with lineLexer; keep what has been read.
			break
		}
		if tok.EOF() {
			break
		}
		word.InQuote = false
		switch tok.Type {
		case whitespaceToken:
			if open {
				tokens = append(tokens, b.String())
				b.Reset()
				open = false
			}
			start = tok.Pos.Offset + len(tok.Value)
		case quoteToken:
			text, closed := unquote(tok.Value)
			b.WriteString(text)
			word.InQuote = !closed
			open = true
		default:
			b.WriteString(tok.Value)
			open = true
		}
	}

	word.Text = b.String()
	if start < len(line) {
		word.Raw = line[start:]
	}
	return tokens, word, open
}

// unquote strips the quotes from a Quote token and resolves \" and \\.
// closed reports whether the token ends with its closing quote.
func unquote(s string) (text string, closed bool) {
	var b strings.Builder
	for i := 1; i < len(s); i++ {
		switch c := s[i]; c {
		case '"':
			return b.String(), true
		case '\\':
			if i+1 == len(s) {
				b.WriteByte(c)
				continue
			}
			next := s[i+1]
			if next != '"' && next != '\\' {
				b.WriteByte(c)
			}
			b.WriteByte(next)
			i++
		default:
			b.WriteByte(c)
		}
	}
	return b.String(), false
}
