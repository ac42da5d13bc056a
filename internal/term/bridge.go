package term

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/dalemusser/phoneform/form"
)

const bridgeBuffer = 32

type notificationMsg form.Notification

// resetMsg reports that the reset timer returned the form to its initial
// state. Other transitions happen inside Update and need no message.
type resetMsg struct{}

// bridge carries form callbacks into the Bubble Tea loop. The form calls
// it with its lock held, so sends never block; if the loop falls behind,
// messages are dropped.
type bridge struct {
	ch chan tea.Msg
}

func newBridge() *bridge {
	return &bridge{ch: make(chan tea.Msg, bridgeBuffer)}
}

// Notify implements form.Notifier.
func (b *bridge) Notify(n form.Notification) {
	b.send(notificationMsg(n))
}

func (b *bridge) observe(ev form.Event, _ form.Snapshot) {
	if ev == form.EventReset {
		b.send(resetMsg{})
	}
}

func (b *bridge) send(msg tea.Msg) {
	select {
	case b.ch <- msg:
	default:
	}
}

// listen waits for the next form message.
func (b *bridge) listen() tea.Cmd {
	return func() tea.Msg {
		return <-b.ch
	}
}
