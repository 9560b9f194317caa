package commands

import (
	"errors"
	"fmt"
	"strings"

	"claymud/internal/game"
)

var Move = Define(Definition{
	Name:        "go",
	Aliases:     []string{"north", "south", "east", "west", "up", "down", "n", "s", "e", "w", "u", "d"},
	Usage:       "go <direction>",
	Description: "move (north/south/east/west/up/down or n/s/e/w/u/d)",
}, func(ctx *Context) game.Result {
	dir := ctx.Verb
	if strings.EqualFold(ctx.Verb, "go") {
		dir = ctx.Rest
	}
	dir = canonicalDirection(dir)
	if dir == "" {
		return fail("Usage: go <direction>")
	}
	return move(ctx, dir)
})

func move(ctx *Context, dir string) game.Result {
	res, err := ctx.Hub.Move(ctx.Session, dir)
	if errors.Is(err, game.ErrNoExit) {
		return fail(game.ErrNoExit.Error())
	}
	if err != nil {
		return messages(ctx.Hub.Internal(ctx.Session, err))
	}
	name := ctx.Name()
	return messages(
		game.ToRoomID(res.From, game.KindMovement, fmt.Sprintf("%s leaves %s.", name, res.Exit)),
		game.ToRoomID(res.To, game.KindMovement, name+" has entered the room."),
		game.ToSelf(game.KindMovement, fmt.Sprintf("You go %s.", res.Exit)),
		ctx.Hub.RoomInfo(ctx.Session),
	)
}
