package term

import (
	"strings"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/dalemusser/phoneform/form"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func newTestModel(t *testing.T) (*Model, *clock.Mock) {
	t.Helper()
	mock := clock.NewMock()
	m := NewModel("Phone Verification", zaptest.NewLogger(t), form.WithClock(mock))
	t.Cleanup(m.Form().Close)
	return m, mock
}

func typeText(m *Model, s string) {
	for _, r := range s {
		m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
}

// nextMsg waits for the next form callback the way the program would.
func nextMsg(t *testing.T, m *Model) tea.Msg {
	t.Helper()
	ch := make(chan tea.Msg, 1)
	go func() { ch <- m.bridge.listen()() }()
	select {
	case msg := <-ch:
		return msg
	case <-time.After(2 * time.Second):
		t.Fatal("no message from form")
		return nil
	}
}

func TestTyping_NormalizesField(t *testing.T) {
	m, _ := newTestModel(t)

	typeText(m, "01-23 a4")
	assert.Equal(t, "01234", m.input.Value())
	assert.Equal(t, "01234", m.Form().Snapshot().Value)
	assert.True(t, m.view.Valid)
	assert.Contains(t, m.View(), "5/11 digits")
}

func TestTyping_TruncatesToEleven(t *testing.T) {
	m, _ := newTestModel(t)

	typeText(m, "0123456789012345")
	assert.Equal(t, "01234567890", m.input.Value())
	assert.Equal(t, form.IndicatorComplete, m.view.Indicator)
	assert.Contains(t, m.View(), completeMark)
}

func TestSubmit_InvalidShowsErrorToast(t *testing.T) {
	m, _ := newTestModel(t)

	typeText(m, "1234")
	m.Update(tea.KeyMsg{Type: tea.KeyEnter})

	assert.False(t, m.view.Valid)
	assert.Contains(t, m.View(), "Please enter a valid 11-digit number.")

	msg := nextMsg(t, m)
	require.IsType(t, notificationMsg{}, msg)
	m.Update(msg)
	require.Len(t, m.toasts, 1)
	assert.Equal(t, form.InvalidNotice(), m.toasts[0].n)
	assert.Contains(t, m.View(), "Invalid Phone Number")
}

func TestSubmit_ValidThenReset(t *testing.T) {
	m, mock := newTestModel(t)

	typeText(m, "12345678901")
	m.Update(tea.KeyMsg{Type: tea.KeyEnter})

	assert.True(t, m.view.Submitted)
	out := m.View()
	assert.Contains(t, out, "Submitted Successfully!")
	assert.Contains(t, out, "Phone number verification initiated!")

	msg := nextMsg(t, m)
	require.IsType(t, notificationMsg{}, msg)
	m.Update(msg)
	assert.Equal(t, form.SuccessNotice(), m.toasts[0].n)

	m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.True(t, m.view.Submitted, "second submit is ignored")

	mock.Add(form.ResetDelay)
	msg = nextMsg(t, m)
	require.IsType(t, resetMsg{}, msg)
	m.Update(msg)

	assert.Equal(t, form.Initial(), m.view.Snapshot)
	assert.Equal(t, "", m.input.Value())
}

func TestToastExpires(t *testing.T) {
	m, _ := newTestModel(t)
	m.Update(notificationMsg(form.SuccessNotice()))
	m.Update(notificationMsg(form.InvalidNotice()))
	require.Len(t, m.toasts, 2)

	m.Update(toastExpiredMsg{id: m.toasts[0].id})
	require.Len(t, m.toasts, 1)
	assert.Equal(t, form.InvalidNotice(), m.toasts[0].n)
}

func TestQuitKeys(t *testing.T) {
	m, _ := newTestModel(t)
	for _, k := range []tea.KeyType{tea.KeyEsc, tea.KeyCtrlC} {
		_, cmd := m.Update(tea.KeyMsg{Type: k})
		require.NotNil(t, cmd)
		assert.IsType(t, tea.QuitMsg{}, cmd())
	}
}

func TestViewShowsPlaceholderAndHelp(t *testing.T) {
	m, _ := newTestModel(t)
	out := m.View()
	assert.True(t, strings.Contains(out, "01*********") || strings.Contains(out, "1*********"))
	assert.Contains(t, out, "0/11 digits")
	assert.Contains(t, out, "enter submit")
	assert.Contains(t, out, form.Heading)
	assert.Contains(t, out, form.Subtitle)
}

func TestBridgeDropsWhenFull(t *testing.T) {
	b := newBridge()
	for i := 0; i < bridgeBuffer+5; i++ {
		b.Notify(form.SuccessNotice())
	}
	assert.Len(t, b.ch, bridgeBuffer)
}
