package commands

import (
	"fmt"

	"claymud/internal/game"
)

var Whisper = Define(Definition{
	Name:        "whisper",
	Aliases:     []string{"tell"},
	Usage:       "whisper <player> <message>",
	Description: "send a private message to one player",
}, func(ctx *Context) game.Result {
	args := ctx.Args(2)
	if len(args) == 0 {
		return fail("Usage: whisper <player> <message>")
	}
	if len(args) < 2 {
		return fail("What do you want to whisper?")
	}
	name, msg := args[0], args[1]
	target, ok := ctx.Hub.Sessions().FindActive(name)
	if !ok {
		return fail(fmt.Sprintf("Player '%s' not found", name))
	}
	if target == ctx.Session {
		return fail("You can't whisper to yourself.")
	}
	return messages(
		game.ToSelf(game.KindMessage, fmt.Sprintf("You whisper to %s: %s", target.Username(), msg)),
		game.ToSession(target.ID(), fmt.Sprintf("%s whispers: %s", ctx.Name(), msg)),
	)
})
