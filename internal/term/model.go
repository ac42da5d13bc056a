// Package term is the terminal rendition of the phone form.
package term

import (
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dalemusser/phoneform/form"
	"github.com/dalemusser/phoneform/phone"
	"go.uber.org/zap"
)

// ToastDuration is how long a notification stays on screen.
const ToastDuration = 4 * time.Second

// inputLimit leaves room for separators typed or pasted alongside the
// digits; the normalizer trims the rest.
const inputLimit = 32

type toast struct {
	id int
	n  form.Notification
}

type toastExpiredMsg struct{ id int }

// Model is the Bubble Tea model driving one form.
type Model struct {
	form   *form.Form
	bridge *bridge
	logger *zap.Logger

	input  textinput.Model
	view   form.View
	toasts []toast
	nextID int
	title  string
}

// NewModel mounts a form wired to the returned Model. opts are passed to
// form.New after the model's own notifier and observer.
func NewModel(title string, logger *zap.Logger, opts ...form.Option) *Model {
	if logger == nil {
		logger = zap.NewNop()
	}
	b := newBridge()
	f := form.New(append([]form.Option{
		form.WithNotifier(b),
		form.WithObserver(b.observe),
	}, opts...)...)

	in := textinput.New()
	in.Placeholder = phone.Placeholder
	in.CharLimit = inputLimit
	in.Width = phone.MaxDigits + 2
	in.Prompt = "☎ "
	in.Focus()

	return &Model{
		form:   f,
		bridge: b,
		logger: logger,
		input:  in,
		view:   f.Snapshot().View(),
		title:  title,
	}
}

// Form returns the form the model drives.
func (m *Model) Form() *form.Form { return m.form }

// Init starts listening for form callbacks.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.bridge.listen())
}

// Update handles keys, form callbacks and toast expiry.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case notificationMsg:
		m.nextID++
		id := m.nextID
		m.toasts = append(m.toasts, toast{id: id, n: form.Notification(msg)})
		expire := tea.Tick(ToastDuration, func(time.Time) tea.Msg { return toastExpiredMsg{id: id} })
		return m, tea.Batch(expire, m.bridge.listen())

	case resetMsg:
		m.logger.Debug("form reset")
		m.apply(m.form.Snapshot())
		return m, m.bridge.listen()

	case toastExpiredMsg:
		for i, t := range m.toasts {
			if t.id == msg.id {
				m.toasts = append(m.toasts[:i], m.toasts[i+1:]...)
				break
			}
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyCtrlC, tea.KeyEsc:
		return m, tea.Quit

	case tea.KeyEnter:
		snap, err := m.form.Submit()
		if err != nil {
			m.logger.Debug("submit not accepted", zap.Error(err))
		}
		m.apply(snap)
		return m, nil
	}

	before := m.input.Value()
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	if m.input.Value() == before {
		return m, cmd
	}

	snap, err := m.form.Change(m.input.Value())
	if err != nil {
		m.logger.Debug("change not applied", zap.Error(err))
		return m, cmd
	}
	m.apply(snap)
	return m, cmd
}

// apply shows snap, keeping the field text equal to the normalized value.
func (m *Model) apply(snap form.Snapshot) {
	m.view = snap.View()
	if m.input.Value() != snap.Value {
		m.input.SetValue(snap.Value)
		m.input.CursorEnd()
	}
}

// View renders the form.
func (m *Model) View() string {
	var b strings.Builder
	v := m.view

	b.WriteString(titleStyle.Render(m.title))
	b.WriteString("\n")
	b.WriteString(headingStyle.Render(form.Heading))
	b.WriteString("\n")
	b.WriteString(subtitleStyle.Render(form.Subtitle))
	b.WriteString("\n")

	b.WriteString(m.input.View())
	switch v.Indicator {
	case form.IndicatorComplete:
		b.WriteString(" " + completeMark)
	case form.IndicatorError:
		b.WriteString(" " + errorMark)
	}
	b.WriteString("\n")
	b.WriteString(counterStyle.Render(v.Counter))
	b.WriteString("\n")
	if v.Message != "" {
		b.WriteString(messageStyle.Render(v.Message))
		b.WriteString("\n")
	}

	if v.CanSubmit {
		b.WriteString(buttonStyle.Render(v.SubmitLabel))
	} else {
		b.WriteString(disabledButtonStyle.Render(v.SubmitLabel))
	}
	b.WriteString("\n")
	if v.Banner != "" {
		b.WriteString(bannerStyle.Render(v.Banner))
		b.WriteString("\n")
	}

	if len(m.toasts) > 0 {
		boxes := make([]string, 0, len(m.toasts))
		for _, t := range m.toasts {
			style := toastStyle
			if t.n.Severity == form.SeverityError {
				style = errorToastStyle
			}
			boxes = append(boxes, style.Render(lipgloss.NewStyle().Bold(true).Render(t.n.Title)+"\n"+t.n.Description))
		}
		b.WriteString(lipgloss.JoinVertical(lipgloss.Left, boxes...))
		b.WriteString("\n")
	}

	b.WriteString(helpStyle.Render("enter submit • esc quit"))
	b.WriteString("\n")
	return b.String()
}
