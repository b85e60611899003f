package parser

import (
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

var templateLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Var", Pattern: `\$\{[^}]+\}`},
	{Name: "Text", Pattern: `[^$]+|\$`},
})

// Template is a line of text with ${name} placeholders.
type Template struct {
	Parts []*Part `parser:"@@*"`
}

// Part is either literal text or a placeholder, kept with its ${ } markers.
type Part struct {
	Var  string `parser:"  @Var"`
	Text string `parser:"| @Text"`
}

var templateParser = participle.MustBuild[Template](
	participle.Lexer(templateLexer),
)

// ParseTemplate parses s. A "$" that does not open a complete ${name}
// placeholder is literal text.
func ParseTemplate(s string) (*Template, error) {
	return templateParser.ParseString("", s)
}

// Name returns the placeholder name, or "" for literal text.
func (p *Part) Name() string {
	if p.Var == "" {
		return ""
	}
	return strings.TrimSuffix(strings.TrimPrefix(p.Var, "${"), "}")
}

// Expand replaces each placeholder with the value lookup returns for it.
// Placeholders lookup cannot resolve are written back unchanged and their
// names returned in order of appearance.
func (t *Template) Expand(lookup func(name string) (string, bool)) (string, []string) {
	var (
		b       strings.Builder
		missing []string
	)
	for _, p := range t.Parts {
		name := p.Name()
		if name == "" {
			b.WriteString(p.Text)
			continue
		}
		if value, ok := lookup(name); ok {
			b.WriteString(value)
			continue
		}
		b.WriteString(p.Var)
		missing = append(missing, name)
	}
	return b.String(), missing
}
