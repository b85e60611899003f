package stemshell

import (
	"fmt"
	"io"
	"strings"
)

// PanicError is a panic raised by a command, recovered by the shell.
type PanicError struct {
	Value any
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprint(e.Value)
}

// Unwrap exposes the panic value when it was an error.
func (e *PanicError) Unwrap() error {
	err, _ := e.Value.(error)
	return err
}

// writeFailureDetail prints the cause chain of err, one error per line and
// indented by depth, followed by the goroutine stack for panics.
func writeFailureDetail(w io.Writer, err error) {
	writeCause(w, err, 0)
	if pe, ok := err.(*PanicError); ok && len(pe.Stack) > 0 {
		fmt.Fprintf(w, "\n%s", pe.Stack)
	}
}

func writeCause(w io.Writer, err error, depth int) {
	if err == nil {
		return
	}
	label := "error"
	if depth > 0 {
		label = "caused by"
	}
	fmt.Fprintf(w, "%s%s: %T: %v\n", strings.Repeat("  ", depth), label, err, err)

	switch e := err.(type) {
	case interface{ Unwrap() []error }:
		for _, inner := range e.Unwrap() {
			writeCause(w, inner, depth+1)
		}
	case interface{ Unwrap() error }:
		writeCause(w, e.Unwrap(), depth+1)
	}
}
