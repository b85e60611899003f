package stemshell

import (
	"errors"
	"fmt"
	"sort"
)

// ErrDuplicateCommand is returned when a command name is registered twice.
var ErrDuplicateCommand = errors.New("command already registered")

// Environment is the registry of commands and the shared state they operate
// on. It is populated during Application.Initialize and only read by the
// shell loop afterwards.
type Environment struct {
	commands map[string]Command
	names    []string
	prompt   string
	values   map[string]any
}

func NewEnvironment() *Environment {
	return &Environment{
		commands: make(map[string]Command),
		values:   make(map[string]any),
	}
}

// Register adds cmd under its name. Names are case sensitive and must be
// unique; a second registration of the same name fails rather than replacing
// the first.
func (e *Environment) Register(cmd Command) error {
	if cmd == nil {
		return errors.New("register: nil command")
	}
	name := cmd.Name()
	if name == "" {
		return errors.New("register: command has no name")
	}
	if _, exists := e.commands[name]; exists {
		return fmt.Errorf("register %q: %w", name, ErrDuplicateCommand)
	}
	if err := cmd.Options().Validate(); err != nil {
		return fmt.Errorf("register %q: %w", name, err)
	}
	e.commands[name] = cmd
	e.names = append(e.names, name)
	return nil
}

// Lookup returns the command registered under exactly name.
func (e *Environment) Lookup(name string) (Command, bool) {
	cmd, ok := e.commands[name]
	return cmd, ok
}

// Names returns the registered command names in registration order.
func (e *Environment) Names() []string {
	names := make([]string, len(e.names))
	copy(names, e.names)
	return names
}

func (e *Environment) Prompt() string {
	return e.prompt
}

func (e *Environment) SetPrompt(prompt string) {
	e.prompt = prompt
}

// Set stores an application value under key.
func (e *Environment) Set(key string, value any) {
	e.values[key] = value
}

func (e *Environment) Get(key string) (any, bool) {
	v, ok := e.values[key]
	return v, ok
}

func (e *Environment) Delete(key string) {
	delete(e.values, key)
}

// Keys returns the keys of all application values, sorted.
func (e *Environment) Keys() []string {
	keys := make([]string, 0, len(e.values))
	for k := range e.values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
