package game

import (
	"regexp"
	"strings"
)

const (
	AnsiReset     = "\x1b[0m"
	AnsiBold      = "\x1b[1m"
	AnsiDim       = "\x1b[2m"
	AnsiItalic    = "\x1b[3m"
	AnsiUnderline = "\x1b[4m"
	AnsiBlue      = "\x1b[34m"
	AnsiCyan      = "\x1b[36m"
	AnsiYellow    = "\x1b[33m"
	AnsiGreen     = "\x1b[32m"
	AnsiMagenta   = "\x1b[35m"
)

var ansiSequence = regexp.MustCompile(`\x1b\[[0-9;]*m`)

// stripANSI removes the colour sequences Style adds.
func stripANSI(s string) string {
	return ansiSequence.ReplaceAllString(s, "")
}

// Style wraps text with the provided ANSI attributes.
func Style(text string, attrs ...string) string {
	if len(attrs) == 0 {
		return text
	}
	return strings.Join(attrs, "") + text + AnsiReset
}

// HighlightName formats player names consistently.
func HighlightName(name string) string {
	return Style(name, AnsiBold, AnsiCyan)
}

// HighlightNames formats each name in the slice.
func HighlightNames(list []string) []string {
	out := make([]string, len(list))
	for i, name := range list {
		out[i] = HighlightName(name)
	}
	return out
}

// Trim strips control characters from an input line and trims surrounding
// whitespace.
func Trim(s string) string {
	return strings.TrimSpace(cleanInput(s))
}

// Ansi ensures output strings end with a reset sequence.
func Ansi(c string) string {
	if strings.Contains(c, "\x1b[") && !strings.HasSuffix(c, AnsiReset) {
		return c + AnsiReset
	}
	return c
}

// renderANSI turns a frame into the styled text a telnet client sees. Every
// frame but the prompt starts on a fresh line.
func renderANSI(f Frame, width int) string {
	switch f.Kind {
	case KindPrompt:
		return Ansi(Style("\n"+f.Text, AnsiBold, AnsiYellow))
	case KindSecret:
		return "\n" + f.Text + " "
	case KindWelcome:
		return Ansi("\n" + Style(f.Text, AnsiMagenta, AnsiBold))
	case KindRoomInfo:
		if view, ok := f.Data.(RoomView); ok {
			return Ansi("\n" + styleRoom(view, width))
		}
		return "\n" + f.Text
	case KindMovement:
		return Ansi("\n" + Style(f.Text, AnsiGreen))
	case KindError:
		return Ansi("\n" + Style(f.Text, AnsiYellow))
	case KindHelp:
		return "\n" + styleHelp(f.Text)
	case KindGoodbye:
		return Ansi("\n" + Style(f.Text, AnsiMagenta, AnsiBold) + "\n")
	case KindSystem:
		return Ansi("\n" + Style(f.Text, AnsiBlue))
	default:
		return "\n" + f.Text
	}
}

func styleRoom(v RoomView, width int) string {
	var b strings.Builder
	b.WriteString("\n")
	b.WriteString(Style(v.Title, AnsiBold, AnsiCyan))
	b.WriteString("\n")
	b.WriteString(Style(WrapText(v.Description, width), AnsiItalic, AnsiDim))
	b.WriteString("\nExits: ")
	if len(v.Exits) == 0 {
		b.WriteString(Style("none", AnsiGreen))
	} else {
		b.WriteString(Style(strings.Join(v.Exits, " "), AnsiGreen))
	}
	if len(v.Players) > 0 {
		b.WriteString("\nAlso here: ")
		b.WriteString(strings.Join(HighlightNames(v.Players), ", "))
	}
	if len(v.NPCs) > 0 {
		names := make([]string, len(v.NPCs))
		for i, n := range v.NPCs {
			names[i] = Style(n, AnsiBold, AnsiMagenta)
		}
		b.WriteString("\nYou see: ")
		b.WriteString(strings.Join(names, ", "))
	}
	return b.String()
}

// styleHelp underlines the first line of a help block.
func styleHelp(text string) string {
	head, rest, found := strings.Cut(text, "\n")
	out := Style(head, AnsiBold, AnsiUnderline)
	if found {
		out += "\n" + rest
	}
	return out
}
