package commands

import (
	"fmt"
	"strings"

	"claymud/internal/game"
)

var Look = Define(Definition{
	Name:        "look",
	Aliases:     []string{"l"},
	Usage:       "look [target]",
	Description: "describe your surroundings or inspect a target",
}, func(ctx *Context) game.Result {
	target := strings.TrimSpace(ctx.Rest)
	if target == "" {
		return messages(ctx.Hub.RoomInfo(ctx.Session))
	}

	world := ctx.Hub.World()
	room := ctx.Session.Room()
	if npc, found := world.FindNPC(room, target); found {
		line := fmt.Sprintf("%s stands here.", npc.Name)
		if greet := strings.TrimSpace(npc.AutoGreet); greet != "" {
			line = fmt.Sprintf("%s They say, \"%s\"", line, greet)
		}
		return reply(line)
	}
	if other, found := ctx.Hub.Sessions().FindActive(target); found && other.Room() == room {
		if other == ctx.Session {
			return reply("You look yourself over. Still in one piece.")
		}
		return reply(fmt.Sprintf("%s is here with you.", other.Username()))
	}
	if dir, dest, found := world.FindExit(room, canonicalDirection(target)); found {
		if next, ok := world.Room(dest); ok {
			return reply(fmt.Sprintf("Looking %s you glimpse %s.", dir, next.Title))
		}
		return reply(fmt.Sprintf("Looking %s you glimpse a passage.", dir))
	}
	return fail("You don't see that here.")
})
