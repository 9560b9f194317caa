package commands

import (
	"strings"

	"claymud/internal/game"
)

func reply(text string) game.Result {
	return game.Reply(game.KindMessage, text)
}

func fail(text string) game.Result {
	return game.Reply(game.KindError, text)
}

func messages(envs ...game.Envelope) game.Result {
	return game.Result{Messages: envs}
}

var directionAliases = map[string]string{
	"n": "north",
	"s": "south",
	"e": "east",
	"w": "west",
	"u": "up",
	"d": "down",
}

// canonicalDirection expands the one-letter compass shortcuts. Anything else
// is passed through lower-cased so rooms can name their own exits.
func canonicalDirection(dir string) string {
	dir = strings.ToLower(strings.TrimSpace(dir))
	if full, ok := directionAliases[dir]; ok {
		return full
	}
	return dir
}
