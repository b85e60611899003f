package stemshell

import (
	"io"
)

// Command is a named unit of work the shell can dispatch to.
type Command interface {
	// Name is the word that invokes the command.
	Name() string

	// Options declares the flags the command accepts.
	Options() *Schema

	// Completer proposes candidates for the command's arguments.
	Completer() Completer

	// Execute runs the command. Any error, or panic, is reported by the shell
	// and does not end the session.
	Execute(env *Environment, opts *ParsedOptions, editor LineEditor) error
}

// Application is implemented by programs embedding the shell.
type Application interface {
	// Name names the shell. It is the default prompt and the name of the
	// per-user directory that holds history and configuration.
	Name() string

	// Initialize registers commands and any application state. It is called
	// once before the first prompt.
	Initialize(env *Environment) error
}

// ArgsPreprocessor is an optional Application hook that receives the process
// arguments before Initialize.
type ArgsPreprocessor interface {
	PreprocessArgs(args []string) error
}

// ArgsPostprocessor is an optional Application hook that receives the process
// arguments once the line editor exists.
type ArgsPostprocessor interface {
	PostprocessArgs(args []string, editor LineEditor) error
}

// LineEditor is the terminal handle passed to commands.
type LineEditor interface {
	Readline() (string, error)
	ReadPassword(prompt string) ([]byte, error)
	SetPrompt(prompt string)
	Stdout() io.Writer
	Stderr() io.Writer
}

// FuncCommand adapts a function to the Command interface.
type FuncCommand struct {
	Use      string
	Flags    *Schema
	Complete Completer
	Run      func(env *Environment, opts *ParsedOptions, editor LineEditor) error
}

func (c *FuncCommand) Name() string {
	return c.Use
}

func (c *FuncCommand) Options() *Schema {
	if c.Flags == nil {
		return NewSchema()
	}
	return c.Flags
}

func (c *FuncCommand) Completer() Completer {
	if c.Complete == nil {
		return NoCompletion
	}
	return c.Complete
}

func (c *FuncCommand) Execute(env *Environment, opts *ParsedOptions, editor LineEditor) error {
	if c.Run == nil {
		return nil
	}
	return c.Run(env, opts, editor)
}
