package stemshell

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"stemshell/parser"
)

// Completer proposes candidates for the word being typed. args holds the
// completed arguments after the command name; word is the partial word under
// the cursor. Candidates are whole words; those not starting with word are
// discarded by the caller.
type Completer interface {
	Complete(args []string, word string) []string
}

// CompleterFunc adapts a function to the Completer interface.
type CompleterFunc func(args []string, word string) []string

func (f CompleterFunc) Complete(args []string, word string) []string {
	return f(args, word)
}

// NoCompletion never proposes anything.
var NoCompletion Completer = CompleterFunc(func([]string, string) []string { return nil })

// Words completes from a fixed word list.
func Words(words ...string) Completer {
	return CompleterFunc(func([]string, string) []string { return words })
}

// Merge combines the candidates of several completers.
func Merge(completers ...Completer) Completer {
	return CompleterFunc(func(args []string, word string) []string {
		var all []string
		for _, c := range completers {
			all = append(all, c.Complete(args, word)...)
		}
		return all
	})
}

// Files completes file system paths relative to the working directory.
// Directories end in "/". Hidden entries are offered only once the word
// being completed starts with ".".
func Files() Completer {
	return CompleterFunc(completeFiles)
}

func completeFiles(_ []string, word string) []string {
	typedDir := word[:strings.LastIndex(word, "/")+1]
	base := word[len(typedDir):]

	dir := typedDir
	if strings.HasPrefix(dir, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			dir = filepath.Join(home, dir[2:])
		}
	}
	if dir == "" {
		dir = "."
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}

	var candidates []string
	for _, entry := range entries {
		name := entry.Name()
		if !strings.HasPrefix(name, base) {
			continue
		}
		if strings.HasPrefix(name, ".") && !strings.HasPrefix(base, ".") {
			continue
		}
		candidate := typedDir + name
		if entry.IsDir() {
			candidate += "/"
		}
		candidates = append(candidates, candidate)
	}
	return candidates
}

type completionNode struct {
	name    string
	args    Completer
	options []string
}

// CompletionTree completes a command line against the commands of an
// Environment: the first word from the command names, later words from the
// completer of the command named by the first word.
type CompletionTree struct {
	names []string
	nodes map[string]*completionNode
}

// BuildCompleter assembles the completion tree for every command registered
// in env. Commands registered after the call are not included.
func BuildCompleter(env *Environment) *CompletionTree {
	t := &CompletionTree{nodes: make(map[string]*completionNode)}
	for _, name := range env.Names() {
		cmd, _ := env.Lookup(name)
		node := &completionNode{name: name, args: cmd.Completer()}
		if node.args == nil {
			node.args = NoCompletion
		}
		for _, o := range cmd.Options().Specs() {
			node.options = append(node.options, o.Names()...)
		}
		t.names = append(t.names, name)
		t.nodes[name] = node
	}
	return t
}

// Candidates returns the sorted, de-duplicated completions for line, which
// ends at the cursor, together with the partial word they complete.
func (t *CompletionTree) Candidates(line string) ([]string, string) {
	done, word := parser.Split(line)
	return t.candidates(done, word.Text), word.Text
}

func (t *CompletionTree) candidates(done []string, word string) []string {
	var proposed []string
	if len(done) == 0 {
		proposed = t.names
	} else {
		node, ok := t.nodes[done[0]]
		if !ok {
			return nil
		}
		proposed = node.args.Complete(done[1:], word)
		if strings.HasPrefix(word, "-") {
			proposed = append(proposed, node.options...)
		}
	}

	seen := make(map[string]bool)
	var candidates []string
	for _, c := range proposed {
		if !strings.HasPrefix(c, word) || seen[c] {
			continue
		}
		seen[c] = true
		candidates = append(candidates, c)
	}
	sort.Strings(candidates)
	return candidates
}

// Do implements readline.AutoCompleter. The inserted text is quoted so that
// the completed line tokenizes back to the chosen candidate.
func (t *CompletionTree) Do(line []rune, pos int) (newLine [][]rune, length int) {
	done, word := parser.Split(string(line[:pos]))
	candidates := t.candidates(done, word.Text)
	for _, c := range candidates {
		newLine = append(newLine, []rune(quoteSuffix(c[len(word.Text):], word.InQuote)))
	}
	if len(newLine) == 1 && !strings.HasSuffix(candidates[0], "/") {
		if word.InQuote {
			newLine[0] = append(newLine[0], '"')
		}
		newLine[0] = append(newLine[0], ' ')
	}
	return newLine, len([]rune(word.Raw))
}

var quoteEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`)

// quoteSuffix renders the completed part of a word for insertion after what
// was typed. Inside an open quote only quotes and backslashes need escaping;
// outside, text with whitespace or quotes becomes a quoted fragment, which
// the tokenizer joins to the typed part.
func quoteSuffix(suffix string, inQuote bool) string {
	if inQuote {
		return quoteEscaper.Replace(suffix)
	}
	if !strings.ContainsAny(suffix, " \t\n\r\v\f\"") {
		return suffix
	}
	return `"` + quoteEscaper.Replace(suffix) + `"`
}
