package commands

import (
	"fmt"
	"strings"

	"claymud/internal/game"
)

var Who = Define(Definition{
	Name:        "who",
	Usage:       "who",
	Description: "list connected players",
}, func(ctx *Context) game.Result {
	names := ctx.Hub.Sessions().ActiveUsernames()
	if len(names) == 0 {
		return reply("No players are online.")
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Players online (%d):", len(names))
	for _, name := range names {
		b.WriteString("\n  ")
		b.WriteString(name)
	}
	return reply(b.String())
})
