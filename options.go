package stemshell

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/pflag"
)

// ErrHelp is returned by ParseOptions when -h or --help is given to a
// command that does not declare them itself.
var ErrHelp = errors.New("help requested")

// OptionSpec declares one option of a command.
type OptionSpec struct {
	Long     string // --long form; may be empty when Short is set
	Short    string // single letter -s form
	HasArg   bool
	Required bool
	Default  string
	Usage    string
}

// VerboseOption is the conventional -v/--verbose flag. When set on a failing
// invocation the shell prints the full failure detail.
var VerboseOption = OptionSpec{Long: "verbose", Short: "v", Usage: "show full error detail on failure"}

func (o OptionSpec) key() string {
	if o.Long != "" {
		return o.Long
	}
	return o.Short
}

// Names returns the option as typed on a command line, long form first.
func (o OptionSpec) Names() []string {
	var names []string
	if o.Long != "" {
		names = append(names, "--"+o.Long)
	}
	if o.Short != "" {
		names = append(names, "-"+o.Short)
	}
	return names
}

// Schema is the set of options a command accepts.
type Schema struct {
	specs []OptionSpec
}

func NewSchema(specs ...OptionSpec) *Schema {
	return &Schema{specs: specs}
}

func (s *Schema) Specs() []OptionSpec {
	if s == nil {
		return nil
	}
	return s.specs
}

// Validate reports options that could never be parsed: missing or
// multi-letter short names and names declared twice.
func (s *Schema) Validate() error {
	longs := make(map[string]bool)
	shorts := make(map[string]bool)
	for _, o := range s.Specs() {
		if o.Long == "" && o.Short == "" {
			return errors.New("option without a name")
		}
		if strings.HasPrefix(o.Long, "-") || strings.HasPrefix(o.Short, "-") {
			return fmt.Errorf("option %q: names are declared without dashes", o.key())
		}
		if o.Short != "" && len(o.Short) != 1 {
			return fmt.Errorf("option %q: short name must be a single letter", o.Short)
		}
		if longs[o.key()] || (o.Short != "" && shorts[o.Short]) {
			return fmt.Errorf("option %q declared twice", o.key())
		}
		longs[o.key()] = true
		if o.Short != "" {
			shorts[o.Short] = true
		}
	}
	return nil
}

// Usage renders the option list as shown by --help.
func (s *Schema) Usage() string {
	if err := s.Validate(); err != nil {
		return ""
	}
	lines := strings.Split(s.flagSet("").FlagUsages(), "\n")
	for i, line := range lines {
		for _, o := range s.Specs() {
			if o.Long != "" {
				continue
			}
			// Short-only options are registered under their letter; hide
			// that long form.
			both := "  -" + o.Short + ", --" + o.Short
			rest, ok := strings.CutPrefix(line, both)
			if ok && (rest == "" || rest[0] == ' ') {
				lines[i] = "  -" + o.Short + strings.Repeat(" ", len(both)-len(o.Short)-3) + rest
			}
		}
	}
	return strings.Join(lines, "\n")
}

// rejectLongShorthands reports --x for options declared with only a short
// name. args are scanned the way pflag reads them so that option values are
// not mistaken for options.
func (s *Schema) rejectLongShorthands(args []string) error {
	shortOnly := make(map[string]bool)
	takesArg := make(map[string]bool)
	for _, o := range s.Specs() {
		if o.Long == "" {
			shortOnly[o.Short] = true
		}
		if o.HasArg {
			takesArg[o.key()] = true
			if o.Short != "" {
				takesArg["-"+o.Short] = true
			}
		}
	}

	for i := 0; i < len(args); i++ {
		arg := args[i]
		switch {
		case arg == "--":
			return nil
		case strings.HasPrefix(arg, "--"):
			name, _, hasValue := strings.Cut(arg[2:], "=")
			if shortOnly[name] {
				return fmt.Errorf("unknown flag: --%s", name)
			}
			if takesArg[name] && !hasValue {
				i++
			}
		case len(arg) > 1 && arg[0] == '-':
			for j := 1; j < len(arg); j++ {
				if takesArg["-"+arg[j:j+1]] {
					if j == len(arg)-1 {
						i++
					}
					break
				}
			}
		}
	}
	return nil
}

// flagSet builds a pflag set for the schema. The schema must be valid.
func (s *Schema) flagSet(name string) *pflag.FlagSet {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.SortFlags = false
	for _, o := range s.Specs() {
		if o.HasArg {
			fs.StringP(o.key(), o.Short, o.Default, o.Usage)
		} else {
			fs.BoolP(o.key(), o.Short, o.Default == "true", o.Usage)
		}
	}
	return fs
}

// ParseError describes command line arguments a schema rejected.
type ParseError struct {
	Command string
	Err     error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s: %v", e.Command, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// ParsedOptions is the result of matching arguments against a Schema.
type ParsedOptions struct {
	fs *pflag.FlagSet
}

// ParseOptions matches args, the tokens after the command name, against
// schema. Options follow POSIX and GNU conventions: short options combine
// (-abc), values attach with a space or "=" (--out=x, --out x, -ox, -o x),
// options and positional arguments may be mixed and "--" ends option
// parsing.
func ParseOptions(command string, schema *Schema, args []string) (*ParsedOptions, error) {
	if err := schema.Validate(); err != nil {
		return nil, &ParseError{Command: command, Err: err}
	}
	if err := schema.rejectLongShorthands(args); err != nil {
		return nil, &ParseError{Command: command, Err: err}
	}
	fs := schema.flagSet(command)
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil, ErrHelp
		}
		return nil, &ParseError{Command: command, Err: err}
	}
	for _, o := range schema.Specs() {
		if o.Required && !fs.Changed(o.key()) {
			return nil, &ParseError{
				Command: command,
				Err:     fmt.Errorf("missing required option: %s", strings.Join(o.Names(), ", ")),
			}
		}
	}
	return &ParsedOptions{fs: fs}, nil
}

func (p *ParsedOptions) lookup(name string) *pflag.Flag {
	if f := p.fs.Lookup(name); f != nil {
		return f
	}
	if len(name) == 1 {
		return p.fs.ShorthandLookup(name)
	}
	return nil
}

// Has reports whether the option, by long or short name, was given.
func (p *ParsedOptions) Has(name string) bool {
	f := p.lookup(name)
	return f != nil && f.Changed
}

// Value returns the option's value, or its default when it was not given.
func (p *ParsedOptions) Value(name string) string {
	f := p.lookup(name)
	if f == nil {
		return ""
	}
	return f.Value.String()
}

// Args returns the positional arguments.
func (p *ParsedOptions) Args() []string {
	return p.fs.Args()
}

// Verbose reports whether -v or --verbose was given.
func (p *ParsedOptions) Verbose() bool {
	return p.Has("verbose") || p.Has("v")
}
