package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"careerquest-service/internal/app"
)

type snapshotMsg app.Snapshot

type attentionMsg int

// Bridge carries player hook calls into the Bubble Tea event loop.
type Bridge struct {
	msgs chan tea.Msg
}

func NewBridge() *Bridge {
	return &Bridge{msgs: make(chan tea.Msg, 64)}
}

// Hooks never block; the model re-reads the player on every message, so a dropped one is harmless.
func (b *Bridge) Hooks() app.Hooks {
	return app.Hooks{
		OnChange:         func(s app.Snapshot) { b.offer(snapshotMsg(s)) },
		OnAttentionReset: func(index int) { b.offer(attentionMsg(index)) },
	}
}

func (b *Bridge) offer(msg tea.Msg) {
	select {
	case b.msgs <- msg:
	default:
		select {
		case <-b.msgs:
		default:
		}
		select {
		case b.msgs <- msg:
		default:
		}
	}
}

func (b *Bridge) wait() tea.Cmd {
	return func() tea.Msg {
		return <-b.msgs
	}
}
