package stemshell

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stemshell/parser"
)

func completionEnv(t *testing.T) *Environment {
	t.Helper()
	env := NewEnvironment()
	require.NoError(t, env.Register(&FuncCommand{
		Use:      "connect",
		Flags:    NewSchema(VerboseOption, OptionSpec{Long: "port", Short: "p", HasArg: true}),
		Complete: Words("localhost", "prod", "staging"),
	}))
	require.NoError(t, env.Register(&FuncCommand{
		Use: "config",
		Complete: CompleterFunc(func(args []string, word string) []string {
			if len(args) == 0 {
				return []string{"get", "set"}
			}
			return []string{"color", "editor"}
		}),
	}))
	require.NoError(t, env.Register(named("exit")))
	return env
}

func TestCompletionCommandNames(t *testing.T) {
	tree := BuildCompleter(completionEnv(t))

	got, word := tree.Candidates("")
	assert.Equal(t, []string{"config", "connect", "exit"}, got)
	assert.Equal(t, "", word)

	got, word = tree.Candidates("con")
	assert.Equal(t, []string{"config", "connect"}, got)
	assert.Equal(t, "con", word)

	got, _ = tree.Candidates("zz")
	assert.Empty(t, got)
}

func TestCompletionArguments(t *testing.T) {
	tree := BuildCompleter(completionEnv(t))

	got, word := tree.Candidates("connect ")
	assert.Equal(t, []string{"localhost", "prod", "staging"}, got)
	assert.Equal(t, "", word)

	got, word = tree.Candidates("connect pr")
	assert.Equal(t, []string{"prod"}, got)
	assert.Equal(t, "pr", word)

	got, _ = tree.Candidates("config ")
	assert.Equal(t, []string{"get", "set"}, got)

	got, _ = tree.Candidates("config set e")
	assert.Equal(t, []string{"editor"}, got)

	got, _ = tree.Candidates("exit ")
	assert.Empty(t, got)

	got, _ = tree.Candidates("unknown ")
	assert.Empty(t, got)
}

func TestCompletionOptionNames(t *testing.T) {
	tree := BuildCompleter(completionEnv(t))

	got, _ := tree.Candidates("connect -")
	assert.Equal(t, []string{"--port", "--verbose", "-p", "-v"}, got)

	got, _ = tree.Candidates("connect --p")
	assert.Equal(t, []string{"--port"}, got)
}

func TestCompletionIgnoresLaterRegistrations(t *testing.T) {
	env := completionEnv(t)
	tree := BuildCompleter(env)
	require.NoError(t, env.Register(named("connectivity")))

	got, _ := tree.Candidates("connect")
	assert.Equal(t, []string{"connect"}, got)
}

func TestCompletionDo(t *testing.T) {
	tree := BuildCompleter(completionEnv(t))

	line := []rune("connect pr")
	newLine, length := tree.Do(line, len(line))
	assert.Equal(t, [][]rune{[]rune("od ")}, newLine)
	assert.Equal(t, 2, length)

	line = []rune("co")
	newLine, length = tree.Do(line, len(line))
	assert.Equal(t, [][]rune{[]rune("nfig"), []rune("nnect")}, newLine)
	assert.Equal(t, 2, length)

	// Only the text before the cursor counts.
	line = []rune("ex whatever")
	newLine, _ = tree.Do(line, 2)
	assert.Equal(t, [][]rune{[]rune("it ")}, newLine)
}

func TestCompletionDoQuotesCandidates(t *testing.T) {
	env := NewEnvironment()
	require.NoError(t, env.Register(&FuncCommand{
		Use:      "open",
		Complete: Words("my dir/", "say \"hi\"", `C:\temp`, "plain"),
	}))
	tree := BuildCompleter(env)

	testCases := []struct {
		typed  string
		insert string
		want   string
	}{
		{"open my", `" dir/"`, "my dir/"},
		{`open "my`, " dir/", "my dir/"},
		{"open sa", `"y \"hi\"" `, `say "hi"`},
		{`open "sa`, `y \"hi\"" `, `say "hi"`},
		{`open "C:`, `\\temp" `, `C:\temp`},
		{"open C:", `\temp `, `C:\temp`},
		{"open pl", "ain ", "plain"},
	}

	for _, tc := range testCases {
		line := []rune(tc.typed)
		newLine, length := tree.Do(line, len(line))
		require.Len(t, newLine, 1, tc.typed)
		assert.Equal(t, tc.insert, string(newLine[0]), tc.typed)
		assert.Equal(t, len([]rune(tc.typed))-len("open "), length, tc.typed)

		completed := tc.typed + string(newLine[0])
		assert.Equal(t, []string{"open", tc.want}, parser.Tokenize(completed), completed)
	}
}

func TestFilesCompletionWithSpaces(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(dir, "my dir"), 0755))
	t.Chdir(dir)

	env := NewEnvironment()
	require.NoError(t, env.Register(&FuncCommand{Use: "ls", Complete: Files()}))

	line := []rune("ls my")
	newLine, _ := BuildCompleter(env).Do(line, len(line))
	require.Len(t, newLine, 1)
	assert.Equal(t, []string{"ls", "my dir/"}, parser.Tokenize("ls my"+string(newLine[0])))
}

func TestFilesCompleter(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(dir, "src"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "main.go"), nil, 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".hidden"), nil, 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "src", "lib.go"), nil, 0644))

	files := Files()
	prefix := dir + "/"

	assert.ElementsMatch(t, []string{prefix + "main.go", prefix + "src/"}, files.Complete(nil, prefix))
	assert.ElementsMatch(t, []string{prefix + ".hidden"}, files.Complete(nil, prefix+"."))
	assert.ElementsMatch(t, []string{prefix + "src/lib.go"}, files.Complete(nil, prefix+"src/l"))
	assert.Empty(t, files.Complete(nil, prefix+"missing/x"))

	env := NewEnvironment()
	require.NoError(t, env.Register(&FuncCommand{Use: "cat", Complete: files}))
	line := []rune("cat " + prefix + "s")
	newLine, _ := BuildCompleter(env).Do(line, len(line))
	assert.Equal(t, [][]rune{[]rune("rc/")}, newLine)
}

func TestMergeCompleter(t *testing.T) {
	c := Merge(Words("a", "b"), NoCompletion, Words("b", "c"))
	assert.Equal(t, []string{"a", "b", "b", "c"}, c.Complete(nil, ""))

	env := NewEnvironment()
	require.NoError(t, env.Register(&FuncCommand{Use: "pick", Complete: c}))
	got, _ := BuildCompleter(env).Candidates("pick ")
	assert.Equal(t, []string{"a", "b", "c"}, got)
}
