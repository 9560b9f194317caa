package commands

import (
	"claymud/internal/game"
	"claymud/internal/pkg/logx"
)

var Password = Define(Definition{
	Name:        "password",
	Usage:       "password <new password>",
	Description: "protect your name with a password",
}, func(ctx *Context) game.Result {
	accounts := ctx.Hub.Accounts()
	if accounts == nil {
		return fail("Name protection is not available on this server.")
	}
	pass := ctx.Rest
	if err := game.ValidatePassword(pass); err != nil {
		return fail(err.Error())
	}
	name := ctx.Name()
	ctx.Hub.Go(ctx.Session, func() []game.Envelope {
		if err := accounts.SetPassword(name, pass); err != nil {
			logx.Error(err, "set password", "username", name)
			return []game.Envelope{game.ToSelf(game.KindError, "Something went wrong. Please try again.")}
		}
		return []game.Envelope{game.ToSelf(game.KindSystem, "Password set. Your name is now protected.")}
	})
	return game.Result{}
})
