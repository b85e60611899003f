package stemshell

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"runtime/debug"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/chzyer/readline"

	"stemshell/parser"
)

// Shell is the interactive read-dispatch loop of an Application.
//
// NewShell fills every exported field with a default; embedders may replace
// them before calling Run.
type Shell struct {
	Config   Config
	Logger   *log.Logger
	Metadata MetadataFunc
	// Banner, when set, is printed once at startup with ${name}
	// placeholders resolved through Metadata.
	Banner io.Reader
	// Recorder, when set, receives every dispatched invocation. It is closed
	// at shutdown if it implements io.Closer.
	Recorder  Recorder
	Stdin     io.ReadCloser
	Stdout    io.Writer
	Stderr    io.Writer
	NewEditor EditorFactory
	// HandleSignals makes Run catch SIGTERM and SIGHUP, run the exit
	// callbacks and exit the process with status 128+signal. Embedders that
	// manage signals themselves turn it off.
	HandleSignals bool

	app     Application
	env     *Environment
	history *History

	cleanups    []func() error
	cleanupOnce sync.Once
	done        chan struct{}
	exit        func(code int)
}

func NewShell(app Application) *Shell {
	return &Shell{
		Config:        DefaultConfig(),
		Logger:        log.NewWithOptions(os.Stderr, log.Options{Prefix: app.Name(), Level: log.WarnLevel}),
		Metadata:      BuildMetadata(nil),
		Stdin:         os.Stdin,
		Stdout:        os.Stdout,
		Stderr:        os.Stderr,
		NewEditor:     NewReadlineEditor,
		HandleSignals: true,
		app:           app,
		env:           NewEnvironment(),
		done:          make(chan struct{}),
		exit:          os.Exit,
	}
}

// Environment returns the environment handed to the application and its
// commands.
func (s *Shell) Environment() *Environment {
	return s.env
}

// History returns the session history, or nil when history is disabled or
// the shell has not started.
func (s *Shell) History() *History {
	return s.history
}

// AtExit registers fn to run once when the shell stops, whether Run returns
// or the process is terminated by SIGTERM or SIGHUP. Callbacks run in
// reverse registration order.
func (s *Shell) AtExit(fn func() error) {
	s.cleanups = append(s.cleanups, fn)
}

// Run starts the shell and reads commands until end of input. Errors from
// startup are returned before any prompt is shown; errors from commands are
// reported and never end the loop. Reaching end of input returns nil; any
// other failure to read input is returned.
//
// Unless HandleSignals is off, SIGTERM and SIGHUP received while Run is
// active run the exit callbacks and terminate the process.
func (s *Shell) Run(args []string) error {
	defer s.shutdown()

	editor, err := s.start(args)
	if err != nil {
		return err
	}

	return s.loop(editor)
}

func (s *Shell) start(args []string) (Editor, error) {
	name := s.app.Name()

	if c, ok := s.Recorder.(io.Closer); ok {
		s.AtExit(c.Close)
	}

	if p, ok := s.app.(ArgsPreprocessor); ok {
		if err := p.PreprocessArgs(args); err != nil {
			return nil, fmt.Errorf("failed to process arguments: %w", err)
		}
	}

	if err := s.app.Initialize(s.env); err != nil {
		return nil, fmt.Errorf("failed to initialize %s: %w", name, err)
	}

	if s.env.Prompt() == "" {
		prompt := s.Config.Prompt
		if prompt == "" {
			prompt = name + "$"
		}
		s.env.SetPrompt(prompt)
	}

	if s.Banner != nil && s.Config.Banner {
		if err := s.printBanner(s.Banner); err != nil {
			return nil, err
		}
	}

	if s.Config.History {
		path := s.Config.HistoryFile
		if path == "" {
			var err error
			if path, err = HistoryPath(name); err != nil {
				return nil, err
			}
		}
		h, err := OpenHistory(path)
		if err != nil {
			return nil, err
		}
		s.history = h
		s.AtExit(h.Flush)
	}

	editor, err := s.NewEditor(s.readlineConfig(BuildCompleter(s.env)))
	if err != nil {
		return nil, fmt.Errorf("failed to create line editor: %w", err)
	}
	s.AtExit(editor.Close)
	if s.HandleSignals {
		s.watchSignals()
	}

	if s.history != nil {
		for _, line := range s.history.Entries() {
			s.saveHistory(editor, line)
		}
	}

	if p, ok := s.app.(ArgsPostprocessor); ok {
		if err := p.PostprocessArgs(args, editor); err != nil {
			return nil, fmt.Errorf("failed to process arguments: %w", err)
		}
	}

	return editor, nil
}

func (s *Shell) loop(editor Editor) error {
	for {
		editor.SetPrompt(s.env.Prompt() + " ")
		line, err := editor.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			continue
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to read input: %w", err)
		}

		if strings.TrimSpace(line) != "" {
			if s.history != nil {
				s.history.Append(line)
			}
			s.saveHistory(editor, line)
		}
		s.Process(line, editor)
	}
}

func (s *Shell) saveHistory(editor Editor, line string) {
	if err := editor.SaveHistory(line); err != nil {
		s.Logger.Warn("failed to add line to editor history", "err", err)
	}
}

// Process dispatches one input line. Unknown commands, option errors and
// command failures are reported on the editor's output streams.
func (s *Shell) Process(line string, editor LineEditor) {
	argv := parser.Tokenize(line)
	if len(argv) == 0 || argv[0] == "" {
		return
	}

	inv := Invocation{Command: argv[0], Args: argv[1:], Start: time.Now()}
	defer func() { s.record(inv) }()

	cmd, ok := s.env.Lookup(argv[0])
	if !ok {
		fmt.Fprintf(editor.Stdout(), "%s: command not found\n", argv[0])
		inv.Outcome = OutcomeNotFound
		return
	}

	opts, err := ParseOptions(cmd.Name(), cmd.Options(), argv[1:])
	if errors.Is(err, ErrHelp) {
		fmt.Fprintf(editor.Stdout(), "Usage of %s:\n%s", cmd.Name(), cmd.Options().Usage())
		inv.Outcome = OutcomeHelp
		return
	}
	if err != nil {
		fmt.Fprintln(editor.Stderr(), err)
		inv.Outcome = OutcomeParseError
		inv.Err = err.Error()
		return
	}

	s.Logger.Debug("running", "command", cmd.Name(), "type", fmt.Sprintf("%T", cmd), "args", opts.Args())
	if err := s.execute(cmd, opts, editor); err != nil {
		fmt.Fprintf(editor.Stdout(), "Command failed with error: %v\n", err)
		if opts.Verbose() {
			writeFailureDetail(editor.Stderr(), err)
		}
		inv.Outcome = OutcomeFailed
		inv.Err = err.Error()
		return
	}
	inv.Outcome = OutcomeOK
}

// execute runs cmd, converting a panic into a *PanicError.
func (s *Shell) execute(cmd Command, opts *ParsedOptions, editor LineEditor) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &PanicError{Value: r, Stack: debug.Stack()}
		}
	}()
	return cmd.Execute(s.env, opts, editor)
}

func (s *Shell) record(inv Invocation) {
	if s.Recorder == nil {
		return
	}
	inv.Duration = time.Since(inv.Start)
	if err := s.Recorder.Record(inv); err != nil {
		s.Logger.Warn("failed to record invocation", "command", inv.Command, "err", err)
	}
}

// watchSignals runs the exit callbacks when the process is asked to stop
// while the loop is blocked reading input.
func (s *Shell) watchSignals() {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGTERM, syscall.SIGHUP)
	go func() {
		defer signal.Stop(sigs)
		select {
		case sig := <-sigs:
			s.Logger.Info("shutting down", "signal", sig)
			s.shutdown()
			code := 1
			if n, ok := sig.(syscall.Signal); ok {
				code = 128 + int(n)
			}
			s.exit(code)
		case <-s.done:
		}
	}()
}

// shutdown runs the exit callbacks exactly once. Failures are logged and
// never block exit.
func (s *Shell) shutdown() {
	s.cleanupOnce.Do(func() {
		close(s.done)
		for i := len(s.cleanups) - 1; i >= 0; i-- {
			if err := s.cleanups[i](); err != nil {
				s.Logger.Warn("cleanup failed", "err", err)
			}
		}
	})
}
