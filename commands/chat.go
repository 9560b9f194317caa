package commands

import (
	"fmt"

	"claymud/internal/game"
)

var Chat = Define(Definition{
	Name:        "chat",
	Aliases:     []string{"ooc"},
	Usage:       "chat <message>",
	Description: "talk to everyone online",
}, func(ctx *Context) game.Result {
	msg := ctx.Rest
	if msg == "" {
		return fail("What do you want to say globally?")
	}
	return messages(
		game.ToSelf(game.KindMessage, "You say globally: "+msg),
		game.ToGlobal(fmt.Sprintf("[Global] %s: %s", ctx.Name(), msg)),
	)
})
