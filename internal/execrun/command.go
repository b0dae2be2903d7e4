package execrun

import (
	"strings"
	"time"
)

// Command is a fully rendered toolkit invocation.
type Command struct {
	// Name is the human-readable stage label used in progress output.
	Name string
	Path string
	Args []string
}

// Argv returns the executable followed by its arguments.
func (c Command) Argv() []string {
	argv := make([]string, 0, len(c.Args)+1)
	argv = append(argv, c.Path)
	return append(argv, c.Args...)
}

// String renders the command line with shell-style quoting for display.
func (c Command) String() string {
	argv := c.Argv()
	quoted := make([]string, 0, len(argv))
	for _, arg := range argv {
		quoted = append(quoted, quoteArg(arg))
	}
	return strings.Join(quoted, " ")
}

// Result captures the outcome of a single process run.
type Result struct {
	ExitCode int
	Stdout   []byte
	Stderr   []byte
	Duration time.Duration
}

// Success reports whether the process exited with code zero.
func (r Result) Success() bool { return r.ExitCode == 0 }

func quoteArg(arg string) string {
	if arg == "" {
		return "''"
	}
	if !strings.ContainsAny(arg, " \t\n'\"\\$`*?[]{}()<>|&;#~") {
		return arg
	}
	return "'" + strings.ReplaceAll(arg, "'", `'\''`) + "'"
}
