package commands

import (
	"claymud/internal/game"
)

var Emote = Define(Definition{
	Name:        "emote",
	Aliases:     []string{"me"},
	Usage:       "emote <action>",
	Description: "act something out for the room",
}, func(ctx *Context) game.Result {
	action := ctx.Rest
	if action == "" {
		return fail("Emote what?")
	}
	line := ctx.Name() + " " + action
	return messages(
		game.ToSelf(game.KindMessage, line),
		game.ToRoom(line),
	)
})
