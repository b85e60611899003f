package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"stemshell"
	"stemshell/audit"
)

var errRequested = errors.New("failure requested")

// app is the demo application. shell and audit are set before Run.
type app struct {
	shell *stemshell.Shell
	audit *audit.Log
	args  []string
}

func (a *app) Name() string {
	return appName
}

func (a *app) PreprocessArgs(args []string) error {
	a.args = append([]string(nil), args...)
	return nil
}

func (a *app) Initialize(env *stemshell.Environment) error {
	env.Set("args", strings.Join(a.args, " "))

	commands := []stemshell.Command{
		&stemshell.FuncCommand{
			Use:   "echo",
			Flags: stemshell.NewSchema(stemshell.OptionSpec{Short: "n", Usage: "do not print the trailing newline"}),
			Run:   a.echo,
		},
		&stemshell.FuncCommand{
			Use:      "help",
			Complete: stemshell.CompleterFunc(func([]string, string) []string { return env.Names() }),
			Run:      a.help,
		},
		&stemshell.FuncCommand{
			Use: "history",
			Run: a.history,
		},
		&stemshell.FuncCommand{
			Use: "prompt",
			Run: a.prompt,
		},
		&stemshell.FuncCommand{
			Use: "set",
			Run: a.set,
		},
		&stemshell.FuncCommand{
			Use:      "get",
			Complete: stemshell.CompleterFunc(func([]string, string) []string { return env.Keys() }),
			Run:      a.get,
		},
		&stemshell.FuncCommand{
			Use: "fail",
			Flags: stemshell.NewSchema(
				stemshell.VerboseOption,
				stemshell.OptionSpec{Long: "panic", Usage: "panic instead of returning an error"},
			),
			Run: a.fail,
		},
		&stemshell.FuncCommand{
			Use:      "ls",
			Flags:    stemshell.NewSchema(stemshell.OptionSpec{Short: "a", Usage: "include hidden entries"}),
			Complete: a.argumentHistory("ls", stemshell.Files()),
			Run:      a.ls,
		},
		&stemshell.FuncCommand{
			Use: "audit",
			Flags: stemshell.NewSchema(
				stemshell.OptionSpec{Short: "n", HasArg: true, Default: "10", Usage: "number of entries to show"},
				stemshell.OptionSpec{Long: "trim", HasArg: true, Usage: "keep only the `N` most used arguments per command"},
			),
			Run: a.recent,
		},
	}
	for _, cmd := range commands {
		if err := env.Register(cmd); err != nil {
			return err
		}
	}
	return nil
}

func (a *app) PostprocessArgs(_ []string, editor stemshell.LineEditor) error {
	fmt.Fprintln(editor.Stdout(), SubtitleStyle.Render(`Type "help" to list commands.`))
	return nil
}

// argumentHistory adds previously used arguments to c when auditing is on.
func (a *app) argumentHistory(command string, c stemshell.Completer) stemshell.Completer {
	if a.audit == nil {
		return c
	}
	return stemshell.Merge(c, a.audit.Completer(command))
}

func (a *app) echo(_ *stemshell.Environment, opts *stemshell.ParsedOptions, editor stemshell.LineEditor) error {
	out := strings.Join(opts.Args(), " ")
	if !opts.Has("n") {
		out += "\n"
	}
	_, err := fmt.Fprint(editor.Stdout(), out)
	return err
}

func (a *app) help(env *stemshell.Environment, opts *stemshell.ParsedOptions, editor stemshell.LineEditor) error {
	w := editor.Stdout()
	if args := opts.Args(); len(args) > 0 {
		cmd, ok := env.Lookup(args[0])
		if !ok {
			return fmt.Errorf("no such command: %s", args[0])
		}
		fmt.Fprintln(w, TitleStyle.Render(cmd.Name()))
		if usage := cmd.Options().Usage(); usage != "" {
			fmt.Fprint(w, usage)
		}
		return nil
	}

	fmt.Fprintln(w, TitleStyle.Render("Commands:"))
	for _, name := range env.Names() {
		cmd, _ := env.Lookup(name)
		var flags []string
		for _, spec := range cmd.Options().Specs() {
			flags = append(flags, spec.Names()...)
		}
		fmt.Fprintln(w, "  "+CmdStyle.Render(name)+SubtitleStyle.Render(strings.Join(flags, " ")))
	}
	return nil
}

func (a *app) history(_ *stemshell.Environment, _ *stemshell.ParsedOptions, editor stemshell.LineEditor) error {
	h := a.shell.History()
	if h == nil {
		return errors.New("history is disabled")
	}
	for i, line := range h.Entries() {
		fmt.Fprintf(editor.Stdout(), "%5d  %s\n", i+1, line)
	}
	return nil
}

func (a *app) prompt(env *stemshell.Environment, opts *stemshell.ParsedOptions, editor stemshell.LineEditor) error {
	if len(opts.Args()) == 0 {
		fmt.Fprintln(editor.Stdout(), env.Prompt())
		return nil
	}
	env.SetPrompt(expandPrompt(strings.Join(opts.Args(), " ")))
	return nil
}

func (a *app) set(env *stemshell.Environment, opts *stemshell.ParsedOptions, _ stemshell.LineEditor) error {
	args := opts.Args()
	if len(args) == 0 {
		return errors.New("usage: set NAME [VALUE...]")
	}
	if len(args) == 1 {
		env.Delete(args[0])
		return nil
	}
	env.Set(args[0], strings.Join(args[1:], " "))
	return nil
}

func (a *app) get(env *stemshell.Environment, opts *stemshell.ParsedOptions, editor stemshell.LineEditor) error {
	args := opts.Args()
	if len(args) == 0 {
		for _, key := range env.Keys() {
			v, _ := env.Get(key)
			fmt.Fprintf(editor.Stdout(), "%s=%v\n", key, v)
		}
		return nil
	}
	for _, key := range args {
		v, ok := env.Get(key)
		if !ok {
			return fmt.Errorf("%s is not set", key)
		}
		fmt.Fprintf(editor.Stdout(), "%v\n", v)
	}
	return nil
}

func (a *app) fail(_ *stemshell.Environment, opts *stemshell.ParsedOptions, _ stemshell.LineEditor) error {
	reason := strings.Join(opts.Args(), " ")
	if opts.Has("panic") {
		panic("fail: " + reason)
	}
	if reason == "" {
		return errRequested
	}
	return fmt.Errorf("%s: %w", reason, errRequested)
}

func (a *app) ls(_ *stemshell.Environment, opts *stemshell.ParsedOptions, editor stemshell.LineEditor) error {
	dirs := opts.Args()
	if len(dirs) == 0 {
		dirs = []string{"."}
	}
	w := editor.Stdout()
	for _, dir := range dirs {
		entries, err := os.ReadDir(dir)
		if err != nil {
			return err
		}
		if len(dirs) > 1 {
			fmt.Fprintf(w, "%s:\n", dir)
		}
		for _, e := range entries {
			name := e.Name()
			if strings.HasPrefix(name, ".") && !opts.Has("a") {
				continue
			}
			if e.IsDir() {
				name += "/"
			}
			fmt.Fprintln(w, name)
		}
	}
	return nil
}

func (a *app) recent(_ *stemshell.Environment, opts *stemshell.ParsedOptions, editor stemshell.LineEditor) error {
	if a.audit == nil {
		return errors.New("auditing is disabled")
	}
	if opts.Has("trim") {
		keep, err := strconv.Atoi(opts.Value("trim"))
		if err != nil || keep < 0 {
			return fmt.Errorf("invalid argument count %q", opts.Value("trim"))
		}
		return a.audit.Trim(keep)
	}

	n, err := strconv.Atoi(opts.Value("n"))
	if err != nil || n <= 0 {
		return fmt.Errorf("invalid entry count %q", opts.Value("n"))
	}
	entries, err := a.audit.Recent(n)
	if err != nil {
		return err
	}
	for _, e := range entries {
		line := strings.TrimSpace(e.Command + " " + strings.Join(e.Args, " "))
		fmt.Fprintf(editor.Stdout(), "%s  %-11s %8s  %s\n",
			e.Start.Format("2006-01-02 15:04:05"), e.Outcome, e.Duration.Round(time.Microsecond), line)
	}
	return nil
}
