package commands

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"unicode"

	"claymud/internal/game"
)

// Definition describes a single command's metadata.
type Definition struct {
	Name        string
	Aliases     []string
	Usage       string
	Description string
}

// Handler executes a command and returns what should be delivered.
type Handler func(*Context) game.Result

// Command couples metadata with the executable handler.
type Command struct {
	Definition
	Handler Handler
}

// Input is a parsed command line.
type Input struct {
	// Verb is the first word as typed.
	Verb string
	// Rest is everything after the first run of whitespace.
	Rest string
	Raw  string
}

// ParseInput splits line on its first whitespace run. ok is false for a
// blank line.
func ParseInput(line string) (Input, bool) {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		return Input{}, false
	}
	in := Input{Verb: trimmed, Raw: line}
	if idx := strings.IndexFunc(trimmed, unicode.IsSpace); idx >= 0 {
		in.Verb = trimmed[:idx]
		in.Rest = strings.TrimLeftFunc(trimmed[idx:], unicode.IsSpace)
	}
	return in, true
}

// Args splits Rest into at most n parts on whitespace runs. The last part
// keeps its internal spacing.
func (in Input) Args(n int) []string {
	rest := in.Rest
	var out []string
	for rest != "" && (n <= 0 || len(out) < n-1) {
		idx := strings.IndexFunc(rest, unicode.IsSpace)
		if idx < 0 {
			break
		}
		out = append(out, rest[:idx])
		rest = strings.TrimLeftFunc(rest[idx:], unicode.IsSpace)
	}
	if rest != "" {
		out = append(out, rest)
	}
	return out
}

// Context provides the runtime data available to a command handler. Handlers
// run on the hub goroutine.
type Context struct {
	Input
	Hub     *game.Hub
	Session *game.Session
	Command *Command
}

// Name is the acting player's display name.
func (ctx *Context) Name() string {
	return ctx.Session.Username()
}

var (
	registryMu sync.RWMutex
	registry   = make(map[string]*Command)
	ordered    []*Command
)

// Define registers a new command using the provided definition and handler.
// It panics when metadata is incomplete or duplicates an existing command.
func Define(def Definition, handler Handler) *Command {
	if handler == nil {
		panic("commands: handler must not be nil")
	}
	if strings.TrimSpace(def.Name) == "" {
		panic("commands: command must have a name")
	}

	cmd := &Command{Definition: def, Handler: handler}

	registryMu.Lock()
	defer registryMu.Unlock()

	registerName := func(name string) {
		key := strings.ToLower(name)
		if _, exists := registry[key]; exists {
			panic(fmt.Sprintf("commands: duplicate registration for %q", name))
		}
		registry[key] = cmd
	}

	registerName(def.Name)
	for _, alias := range def.Aliases {
		if strings.TrimSpace(alias) == "" {
			continue
		}
		registerName(alias)
	}

	ordered = append(ordered, cmd)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Name < ordered[j].Name
	})

	return cmd
}

// All returns the registered commands sorted by primary name.
func All() []*Command {
	registryMu.RLock()
	defer registryMu.RUnlock()

	out := make([]*Command, len(ordered))
	copy(out, ordered)
	return out
}

// Find resolves a command name or alias, ignoring case.
func Find(name string) (*Command, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	cmd, ok := registry[strings.ToLower(strings.TrimSpace(name))]
	return cmd, ok
}

// Dispatch parses the input line, looks up the command, and executes it. It
// has the game.Dispatcher signature.
func Dispatch(h *game.Hub, s *game.Session, line string) game.Result {
	in, ok := ParseInput(game.Trim(line))
	if !ok {
		return game.Result{}
	}
	cmd, ok := Find(in.Verb)
	if !ok {
		return fail(fmt.Sprintf("Unknown command: %s. Type 'help' for a list of commands.", in.Verb))
	}
	return cmd.Handler(&Context{
		Input:   in,
		Hub:     h,
		Session: s,
		Command: cmd,
	})
}
