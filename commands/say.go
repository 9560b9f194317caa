package commands

import (
	"fmt"

	"claymud/internal/game"
)

var Say = Define(Definition{
	Name:        "say",
	Usage:       "say <message>",
	Description: "speak to everyone in the room",
}, func(ctx *Context) game.Result {
	msg := ctx.Rest
	if msg == "" {
		return fail("What do you want to say?")
	}
	return messages(
		game.ToSelf(game.KindMessage, "You say: "+msg),
		game.ToRoom(fmt.Sprintf("%s says: %s", ctx.Name(), msg)),
	)
})
