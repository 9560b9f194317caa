package commands

import (
	"fmt"
	"strings"

	"claymud/internal/game"
)

var Talk = Define(Definition{
	Name:        "talk",
	Usage:       "talk <npc>",
	Description: "strike up a conversation; repeat to keep talking",
}, func(ctx *Context) game.Result {
	target := strings.TrimSpace(ctx.Rest)
	if target == "" {
		return fail("Talk to whom?")
	}
	npc, ok := ctx.Hub.World().FindNPC(ctx.Session.Room(), target)
	if !ok {
		return fail(fmt.Sprintf("You don't see %s here.", target))
	}
	dialogue := ctx.Hub.Dialogue()
	if dialogue == nil {
		return reply(fmt.Sprintf("%s has nothing to say.", npc.Name))
	}
	line, ok := dialogue.Continue(ctx.Name(), npc.Name)
	if !ok {
		line = dialogue.Begin(ctx.Name(), npc)
	}
	return messages(
		game.ToSelf(game.KindMessage, fmt.Sprintf("%s says: \"%s\"", npc.Name, line)),
		game.ToRoom(fmt.Sprintf("%s talks with %s.", ctx.Name(), npc.Name)),
	)
})
