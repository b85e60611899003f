package stemshell

import (
	"os"

	"github.com/chzyer/readline"
	"golang.org/x/term"
)

// Editor is the line editor driving the shell loop.
type Editor interface {
	LineEditor
	SaveHistory(line string) error
	Close() error
}

// EditorFactory creates the line editor from the shell's readline settings.
type EditorFactory func(cfg *readline.Config) (Editor, error)

// NewReadlineEditor is the default EditorFactory.
func NewReadlineEditor(cfg *readline.Config) (Editor, error) {
	rl, err := readline.NewEx(cfg)
	if err != nil {
		return nil, err
	}
	return rl, nil
}

func (s *Shell) readlineConfig(completer readline.AutoCompleter) *readline.Config {
	return &readline.Config{
		Prompt:                 s.env.Prompt() + " ",
		AutoComplete:           completer,
		DisableAutoSaveHistory: true,
		HistorySearchFold:      true,
		InterruptPrompt:        "^C",
		Stdin:                  s.Stdin,
		Stdout:                 s.Stdout,
		Stderr:                 s.Stderr,
		FuncIsTerminal:         s.isTerminal,
	}
}

// isTerminal reports whether both ends of the session are a terminal. Piped
// sessions get plain line reading without raw mode or completion.
func (s *Shell) isTerminal() bool {
	in, ok := s.Stdin.(*os.File)
	if !ok {
		return false
	}
	out, ok := s.Stdout.(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(in.Fd())) && term.IsTerminal(int(out.Fd()))
}
