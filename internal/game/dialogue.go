package game

import (
	"strings"
	"sync"
)

// Dialogue produces NPC conversation lines.
type Dialogue interface {
	// Begin starts a conversation between player and npc and returns the
	// first line.
	Begin(player string, npc *NPC) string
	// Continue returns the next line of the conversation player has open with
	// npcName. ok is false when there is no such conversation.
	Continue(player, npcName string) (line string, ok bool)
	// End forgets any conversation player has open.
	End(player string)
}

type conversation struct {
	npc   string
	lines []string
	next  int
}

// ScriptedDialogue walks each NPC's Dialogue lines in order and wraps around
// at the end.
type ScriptedDialogue struct {
	mu     sync.Mutex
	active map[string]*conversation
}

func NewScriptedDialogue() *ScriptedDialogue {
	return &ScriptedDialogue{active: make(map[string]*conversation)}
}

func (d *ScriptedDialogue) Begin(player string, npc *NPC) string {
	lines := npc.Dialogue
	if len(lines) == 0 {
		if greet := strings.TrimSpace(npc.AutoGreet); greet != "" {
			lines = []string{greet}
		} else {
			lines = []string{"..."}
		}
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.active[NameKey(player)] = &conversation{npc: npc.Name, lines: lines, next: 1 % len(lines)}
	return lines[0]
}

func (d *ScriptedDialogue) Continue(player, npcName string) (string, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	c, ok := d.active[NameKey(player)]
	if !ok || !strings.EqualFold(c.npc, npcName) {
		return "", false
	}
	line := c.lines[c.next]
	c.next = (c.next + 1) % len(c.lines)
	return line, true
}

func (d *ScriptedDialogue) End(player string) {
	d.mu.Lock()
	delete(d.active, NameKey(player))
	d.mu.Unlock()
}
