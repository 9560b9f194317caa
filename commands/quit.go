package commands

import (
	"fmt"

	"claymud/internal/game"
)

var Quit = Define(Definition{
	Name:        "quit",
	Aliases:     []string{"exit"},
	Usage:       "quit",
	Description: "disconnect",
}, func(ctx *Context) game.Result {
	return game.Result{
		Messages: []game.Envelope{
			game.ToSelf(game.KindGoodbye, fmt.Sprintf("Goodbye, %s. Come back soon!", ctx.Name())),
		},
		Quit: true,
	}
})
