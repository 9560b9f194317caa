package commands

import (
	"fmt"
	"strings"

	"claymud/internal/game"
)

var Help = Define(Definition{
	Name:        "help",
	Aliases:     []string{"?"},
	Usage:       "help [command]",
	Description: "show this message",
}, func(ctx *Context) game.Result {
	if topic := strings.TrimSpace(ctx.Rest); topic != "" {
		cmd, ok := Find(topic)
		if !ok {
			return fail(fmt.Sprintf("No help for '%s'. Type 'help' for a list of commands.", topic))
		}
		return game.Reply(game.KindHelp, commandHelp(cmd))
	}
	return game.Reply(game.KindHelp, helpMessage("Commands:", All()))
})

func helpMessage(title string, commands []*Command) string {
	var builder strings.Builder
	builder.WriteString(title)
	for _, cmd := range commands {
		usage := cmd.Usage
		if strings.TrimSpace(usage) == "" {
			usage = cmd.Name
		}
		builder.WriteString(fmt.Sprintf("\n  %-28s - %s", usage, cmd.Description))
	}
	return builder.String()
}

func commandHelp(cmd *Command) string {
	var builder strings.Builder
	builder.WriteString(cmd.Usage)
	builder.WriteString("\n  ")
	builder.WriteString(cmd.Description)
	if len(cmd.Aliases) > 0 {
		builder.WriteString("\n  Aliases: ")
		builder.WriteString(strings.Join(cmd.Aliases, ", "))
	}
	return builder.String()
}
