package navigator

import (
	"strconv"
	"strings"

	"github.com/aretw0/axnav/pkg/domain"
)

// Verb names a navigator command.
type Verb string

const (
	VerbSelect   Verb = "select"
	VerbParent   Verb = "parent"
	VerbExpand   Verb = "expand"
	VerbCollapse Verb = "collapse"
	VerbActions  Verb = "actions"
	VerbExecute  Verb = "execute"
	VerbRefresh  Verb = "refresh"
	VerbQuit     Verb = "quit"
	VerbAttrs    Verb = "attrs"
	VerbGoto     Verb = "goto"
	VerbFind     Verb = "find"
	VerbApps     Verb = "apps"
	VerbOpen     Verb = "open"
	VerbHelp     Verb = "help"
)

var aliases = map[string]Verb{
	"s":    VerbSelect,
	"up":   VerbParent,
	"..":   VerbParent,
	"e":    VerbExpand,
	"x":    VerbExecute,
	"exit": VerbQuit,
	"q":    VerbQuit,
	"?":    VerbHelp,
}

// Command is a parsed navigator command.
type Command struct {
	Verb Verb
	// N is the numeric argument of select, execute and open.
	N int
	// Field is "role" or "title" for find.
	Field string
	// Arg is the text argument of goto and find.
	Arg string
}

// FindField values.
const (
	FieldRole  = "role"
	FieldTitle = "title"
)

func invalid(format string, args ...any) error {
	err := domain.Invalidf("parse command", format, args...)
	err.Hint = "type help to list the commands"
	return err
}

// Parse reads one command line. A bare number is shorthand for select.
func Parse(line string) (Command, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return Command{}, invalid("empty command")
	}

	word := strings.ToLower(fields[0])
	if n, err := strconv.Atoi(word); err == nil && len(fields) == 1 {
		return Command{Verb: VerbSelect, N: n}, nil
	}
	verb := Verb(word)
	if a, ok := aliases[word]; ok {
		verb = a
	}
	rest := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(line), fields[0]))

	switch verb {
	case VerbParent, VerbExpand, VerbCollapse, VerbActions, VerbRefresh, VerbQuit, VerbAttrs, VerbApps, VerbHelp:
		if len(fields) > 1 {
			return Command{}, invalid("%s takes no arguments", verb)
		}
		return Command{Verb: verb}, nil

	case VerbSelect, VerbExecute, VerbOpen:
		if len(fields) != 2 {
			return Command{}, invalid("usage: %s <n>", verb)
		}
		n, err := strconv.Atoi(fields[1])
		if err != nil {
			return Command{}, invalid("%s: %q is not a number", verb, fields[1])
		}
		return Command{Verb: verb, N: n}, nil

	case VerbGoto:
		if rest == "" {
			return Command{}, invalid("usage: goto <path>")
		}
		return Command{Verb: verb, Arg: rest}, nil

	case VerbFind:
		if len(fields) < 3 {
			return Command{}, invalid("usage: find <role|title> <text>")
		}
		field := strings.ToLower(fields[1])
		if field != FieldRole && field != FieldTitle {
			return Command{}, invalid("find: search by role or title, not %q", fields[1])
		}
		text := strings.TrimSpace(strings.TrimPrefix(rest, fields[1]))
		return Command{Verb: verb, Field: field, Arg: text}, nil
	}

	return Command{}, invalid("unknown command %q", fields[0])
}
