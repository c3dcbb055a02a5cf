// Package tui is the terminal rendition of the "sync from OnQ" modal: a
// credential form, live progress with the 2FA number, and a result panel.
package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"eduseek/internal/onq"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Controller is the part of the orchestrator the modal drives.
type Controller interface {
	Start(ctx context.Context, creds onq.Credentials) error
	Close()
	View() onq.View
}

type screen int

const (
	screenForm screen = iota
	screenRunning
	screenSuccess
	screenError
)

const (
	fieldUsername = iota
	fieldPassword
)

type Model struct {
	ctrl   Controller
	ctx    context.Context
	styles Styles

	inputs []textinput.Model
	focus  int

	screen   screen
	attempt  string
	view     onq.View
	formErr  string
	note     string
	noteKind onq.Kind
	files    int
	result   *onq.SyncResult
	closed   bool

	spinner  spinner.Model
	progress progress.Model
}

func New(ctx context.Context, ctrl Controller, username string) Model {
	user := textinput.New()
	user.Placeholder = "NetID"
	user.CharLimit = 64
	user.SetValue(username)

	pass := textinput.New()
	pass.Placeholder = "Password"
	pass.EchoMode = textinput.EchoPassword
	pass.EchoCharacter = '•'
	pass.CharLimit = 128

	m := Model{
		ctrl:     ctrl,
		ctx:      ctx,
		styles:   DefaultStyles(),
		inputs:   []textinput.Model{user, pass},
		files:    -1,
		spinner:  spinner.New(spinner.WithSpinner(spinner.Dot)),
		progress: progress.New(progress.WithDefaultGradient(), progress.WithWidth(40)),
	}

	if username != "" {
		m.focus = fieldPassword
	}
	m.inputs[m.focus].Focus()

	return m
}

func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

// Result is the reconciled result once the sync succeeded, otherwise nil.
func (m Model) Result() *onq.SyncResult {
	return m.result
}

// Err is the terminal error of the last attempt, if any.
func (m Model) Err() error {
	if m.screen != screenError {
		return nil
	}
	return m.view.Err
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.progress.Width = min(max(msg.Width-16, 10), 40)
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case viewMsg:
		if m.screen == screenForm || msg.view.AttemptID != m.attempt {
			return m, nil
		}
		return m.applyView(msg.view)

	case noteMsg:
		if m.screen == screenForm {
			return m, nil
		}
		m.note, m.noteKind = msg.message, msg.kind
		return m, nil

	case filesMsg:
		m.files = msg.count
		return m, nil

	case autoCloseMsg:
		if m.screen != screenSuccess {
			return m, nil
		}
		m.closed = true
		return m, tea.Quit

	case spinner.TickMsg:
		if m.screen != screenRunning {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	if m.screen == screenForm {
		return m.updateInputs(msg)
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "esc":
		m.ctrl.Close()
		m.closed = true
		return m, tea.Quit
	}

	switch m.screen {
	case screenForm:
		switch msg.String() {
		case "tab", "shift+tab", "up", "down":
			m.setFocus(1 - m.focus)
			return m, textinput.Blink
		case "enter":
			if m.focus == fieldUsername {
				m.setFocus(fieldPassword)
				return m, textinput.Blink
			}
			return m.submit()
		}
		return m.updateInputs(msg)

	case screenError:
		if msg.String() == "r" {
			m.ctrl.Close()
			return m.backToForm()
		}

	case screenSuccess:
		if msg.String() == "enter" {
			m.ctrl.Close()
			m.closed = true
			return m, tea.Quit
		}
	}

	return m, nil
}

func (m Model) submit() (tea.Model, tea.Cmd) {
	creds := onq.Credentials{
		Username: strings.TrimSpace(m.inputs[fieldUsername].Value()),
		Password: m.inputs[fieldPassword].Value(),
	}

	if err := m.ctrl.Start(m.ctx, creds); err != nil {
		m.formErr = err.Error()
		if vErr, ok := errors.AsType[*onq.ValidationError](err); ok && vErr.Field == "username" {
			m.setFocus(fieldUsername)
		}
		return m, nil
	}

	m.inputs[fieldPassword].Reset()
	m.formErr = ""
	m.note = ""
	m.files = -1
	m.result = nil
	m.view = m.ctrl.View()
	m.attempt = m.view.AttemptID
	m.screen = screenRunning

	return m, m.spinner.Tick
}

func (m Model) backToForm() (tea.Model, tea.Cmd) {
	m.screen = screenForm
	m.attempt = ""
	m.view = onq.View{}
	m.note = ""
	m.setFocus(fieldPassword)
	return m, textinput.Blink
}

func (m Model) applyView(v onq.View) (tea.Model, tea.Cmd) {
	m.view = v

	switch s := v.State.(type) {
	case onq.Completed:
		res := s.Result
		m.result = &res
		m.screen = screenSuccess
	case onq.Failed:
		m.screen = screenError
	default:
		m.screen = screenRunning
	}

	return m, nil
}

func (m *Model) setFocus(i int) {
	m.focus = i
	for j := range m.inputs {
		if j == i {
			m.inputs[j].Focus()
		} else {
			m.inputs[j].Blur()
		}
	}
}

func (m Model) updateInputs(msg tea.Msg) (tea.Model, tea.Cmd) {
	cmds := make([]tea.Cmd, len(m.inputs))
	for i := range m.inputs {
		m.inputs[i], cmds[i] = m.inputs[i].Update(msg)
	}
	return m, tea.Batch(cmds...)
}

func (m Model) View() string {
	if m.closed {
		return ""
	}

	var body string
	switch m.screen {
	case screenForm:
		body = m.formView()
	case screenRunning:
		body = m.runningView()
	case screenSuccess:
		body = m.successView()
	case screenError:
		body = m.errorView()
	}

	return m.styles.Modal.Render(m.styles.Title.Render("Sync from OnQ") + "\n" + body)
}

func (m Model) formView() string {
	var b strings.Builder

	b.WriteString(m.styles.Muted.Render("Sign in with your Queen's NetID to pull course files from OnQ."))
	b.WriteString("\n\n")
	b.WriteString(m.styles.Label.Render("Username") + "\n")
	b.WriteString(m.inputs[fieldUsername].View() + "\n\n")
	b.WriteString(m.styles.Label.Render("Password") + "\n")
	b.WriteString(m.inputs[fieldPassword].View())

	if m.formErr != "" {
		b.WriteString("\n\n" + m.styles.Error.Render(m.formErr))
	}

	b.WriteString(m.styles.Help.Render("\nenter start • tab switch field • esc cancel"))
	return b.String()
}

func (m Model) runningView() string {
	step := onq.StepInitializing
	var pct float64
	var message string
	var twoFA *onq.TwoFactorPrompt

	if r, ok := m.view.State.(onq.Running); ok {
		step, pct, message, twoFA = r.Step, r.Progress, r.Message, r.TwoFactor
	}

	var b strings.Builder
	b.WriteString(m.spinner.View() + " " + m.styles.Label.Render(step.Label()) + "\n\n")
	b.WriteString(m.progress.ViewAs(pct/100) + "\n")
	if message != "" {
		b.WriteString("\n" + m.styles.Muted.Render(message) + "\n")
	}

	if twoFA != nil {
		prompt := lipgloss.JoinVertical(lipgloss.Center,
			"Approve the sign-in on your phone",
			m.styles.TwoFANum.Render(twoFA.Number),
		)
		b.WriteString("\n" + m.styles.TwoFA.Render(prompt) + "\n")
	}

	b.WriteString(m.styles.Help.Render("esc cancel"))
	return b.String()
}

func (m Model) successView() string {
	var b strings.Builder

	summary := m.note
	if summary == "" && m.result != nil {
		summary = onq.Summary(*m.result)
	}
	b.WriteString(m.styles.Success.Render("✓ "+summary) + "\n")

	if m.result != nil {
		fmt.Fprintf(&b, "\n%-12s %d\n%-12s %d\n%-12s %d\n%-12s %d\n",
			"Found", m.result.FilesFound,
			"Uploaded", m.result.Uploaded,
			"Duplicates", m.result.Duplicates,
			"Failed", m.result.Failed)
		if m.result.Missing > 0 {
			fmt.Fprintf(&b, "%-12s %d\n", "Missing", m.result.Missing)
		}
	}

	if m.files >= 0 {
		b.WriteString("\n" + m.styles.Muted.Render(fmt.Sprintf("%d files in your library", m.files)) + "\n")
	}

	b.WriteString(m.styles.Help.Render("enter close"))
	return b.String()
}

func (m Model) errorView() string {
	var b strings.Builder

	msg := "Sync failed"
	if m.view.Err != nil {
		msg = m.view.Err.Error()
	}
	b.WriteString(m.styles.Error.Render("✗ "+msg) + "\n")

	if m.view.Hint != "" {
		b.WriteString("\n" + m.styles.Warning.Render(m.view.Hint) + "\n")
	}

	b.WriteString(m.styles.Help.Render("r try again • esc close"))
	return b.String()
}
