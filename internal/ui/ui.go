package ui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/testivid/testivid/internal/capture"
	"github.com/testivid/testivid/internal/recording"
)

// ViewState represents the current view in the recording wizard.
type ViewState int

const (
	InfoView ViewState = iota
	RecordingView
	PreviewView
	ProcessingView
	DoneView
)

// Model represents the recording wizard state.
type Model struct {
	ctx     context.Context
	engine  *recording.Engine
	view    ViewState
	width   int
	height  int
	eventCh <-chan capture.Event

	nameInput  textinput.Model
	titleInput textinput.Model
	focusTitle bool

	err  error
	help help.Model
	keys keyMap
}

// NewModel creates a wizard model driving the given recording engine.
func NewModel(ctx context.Context, engine *recording.Engine) *Model {
	nameInput := textinput.New()
	nameInput.Placeholder = "Your name"
	nameInput.CharLimit = 80
	nameInput.Focus()

	titleInput := textinput.New()
	titleInput.Placeholder = "Your title (optional)"
	titleInput.CharLimit = 80

	return &Model{
		ctx:        ctx,
		engine:     engine,
		view:       InfoView,
		nameInput:  nameInput,
		titleInput: titleInput,
		help:       help.New(),
		keys:       newKeyMap(),
	}
}

// Init starts the cursor blink on the info form.
func (m *Model) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		switch m.view {
		case InfoView:
			return m.handleInfoKeys(msg)
		case RecordingView:
			return m.handleRecordingKeys(msg)
		case PreviewView:
			return m.handlePreviewKeys(msg)
		case DoneView:
			return m.handleDoneKeys(msg)
		case ProcessingView:
			if msg.String() == "ctrl+c" {
				return m, tea.Quit
			}
			return m, nil
		}

	case Msg:
		return m.handleMsg(msg)
	}

	return m.updateInputs(msg)
}

// handleMsg folds wizard messages (ticks, device events, submission) into the engine.
func (m *Model) handleMsg(msg Msg) (tea.Model, tea.Cmd) {
	switch msg.kind {
	case MsgTick:
		state := m.engine.CaptureState()
		if state != recording.CaptureCountdown && state != recording.CaptureRecording {
			return m, nil
		}
		if err := m.engine.Tick(m.ctx); err != nil {
			m.err = err
			return m, nil
		}

		// Countdown hitting zero starts the device; begin relaying its events.
		if m.eventCh == nil && m.engine.CaptureState() == recording.CaptureRecording {
			m.eventCh = m.engine.DeviceEvents()
			return m, tea.Batch(m.tick(), m.waitForDeviceEvent())
		}
		return m, m.tick()

	case MsgDeviceEvent:
		ev := msg.data.(capture.Event)
		m.engine.HandleEvent(ev)
		if m.engine.CaptureState() == recording.CapturePreviewReady {
			m.view = PreviewView
		}
		return m, m.waitForDeviceEvent()

	case MsgDeviceClosed:
		m.eventCh = nil
		switch m.engine.CaptureState() {
		case recording.CapturePreviewReady:
			m.view = PreviewView
		case recording.CaptureIdle:
			// Device failed mid-take; surface the capture error.
			m.err = m.engine.Err()
		}
		return m, nil

	case MsgSubmitted:
		if err, ok := msg.data.(error); ok && err != nil {
			m.err = err
		}
		m.view = DoneView
		return m, nil
	}

	return m, nil
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	switch m.view {
	case InfoView:
		return m.renderInfo()
	case RecordingView:
		return m.renderRecording()
	case PreviewView:
		return m.renderPreview()
	case ProcessingView:
		return m.renderProcessing()
	case DoneView:
		return m.renderDone()
	default:
		return ""
	}
}

func (m *Model) handleInfoKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit
	case "tab", "shift+tab":
		m.focusTitle = !m.focusTitle
		if m.focusTitle {
			m.nameInput.Blur()
			return m, m.titleInput.Focus()
		}
		m.titleInput.Blur()
		return m, m.nameInput.Focus()
	case "enter":
		if err := m.engine.CompleteInfo(strings.TrimSpace(m.nameInput.Value()), strings.TrimSpace(m.titleInput.Value())); err != nil {
			m.err = err
			return m, nil
		}
		m.err = nil
		m.view = RecordingView
		return m, nil
	}

	return m.updateInputs(msg)
}

func (m *Model) handleRecordingKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch m.engine.CaptureState() {
	case recording.CaptureIdle:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "enter", " ":
			if err := m.engine.StartCountdown(m.ctx); err != nil {
				m.err = err
				return m, nil
			}
			m.err = nil
			return m, m.tick()
		}

	case recording.CaptureRecording:
		switch msg.String() {
		case "ctrl+c":
			return m, tea.Quit
		case "s", "enter":
			if err := m.engine.StopTake(); err != nil {
				m.err = err
			}
			return m, nil
		}

	case recording.CaptureCountdown:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
	}

	return m, nil
}

func (m *Model) handlePreviewKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit
	case "y":
		final, err := m.engine.Accept()
		if err != nil {
			m.err = err
			return m, nil
		}
		if final {
			m.view = ProcessingView
			return m, m.submit()
		}
		m.view = RecordingView
		return m, nil
	case "n":
		if err := m.engine.Retake(); err != nil {
			m.err = err
			return m, nil
		}
		m.view = RecordingView
		return m, nil
	}
	return m, nil
}

func (m *Model) handleDoneKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c", "enter":
		return m, tea.Quit
	}
	return m, nil
}

func (m *Model) updateInputs(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd
	var cmd tea.Cmd
	m.nameInput, cmd = m.nameInput.Update(msg)
	cmds = append(cmds, cmd)
	m.titleInput, cmd = m.titleInput.Update(msg)
	cmds = append(cmds, cmd)
	return m, tea.Batch(cmds...)
}

func (m *Model) tick() tea.Cmd {
	return tea.Tick(recording.TickInterval, func(time.Time) tea.Msg {
		return tickMsg()
	})
}

func (m *Model) waitForDeviceEvent() tea.Cmd {
	ch := m.eventCh
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		ev, ok := <-ch
		if !ok {
			return deviceClosedMsg()
		}
		return deviceEventMsg(ev)
	}
}

func (m *Model) submit() tea.Cmd {
	return func() tea.Msg {
		return submittedMsg(m.engine.Submit(m.ctx))
	}
}

func (m *Model) renderInfo() string {
	title := styles.title.Render("Record your testimonial")
	intro := fmt.Sprintf("You'll answer %d questions on camera.\n", len(m.engine.Questions()))
	form := fmt.Sprintf("%s\n%s\n", m.nameInput.View(), m.titleInput.View())

	var errLine string
	if m.err != nil {
		errLine = styles.err.Render(fmt.Sprintf("\n%v\n", m.err))
	}

	helpKeys := []key.Binding{m.keys.next, m.keys.start, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)

	return fmt.Sprintf("%s\n%s\n%s%s\n%s", title, intro, form, errLine, helpView)
}

func (m *Model) renderRecording() string {
	question := m.engine.CurrentQuestion()
	if question == nil {
		return ""
	}

	title := styles.title.Render(fmt.Sprintf("Question %d of %d", m.engine.QuestionIndex()+1, len(m.engine.Questions())))
	text := fmt.Sprintf("%s\n", question.Text)

	var status, helpView string
	switch m.engine.CaptureState() {
	case recording.CaptureCountdown:
		status = styles.warn.Render(fmt.Sprintf("Recording starts in %d...", m.engine.CountdownRemaining()))
	case recording.CaptureRecording:
		elapsed := m.engine.TakeElapsed().Round(time.Second)
		status = styles.err.Render(fmt.Sprintf("● REC %s", elapsed))
		helpView = m.help.ShortHelpView([]key.Binding{m.keys.stop})
	default:
		status = "Press enter when you're ready."
		helpView = m.help.ShortHelpView([]key.Binding{m.keys.start, m.keys.quit})
	}

	var errLine string
	if m.err != nil {
		errLine = styles.err.Render(fmt.Sprintf("\n%v", m.err))
	}

	return fmt.Sprintf("%s\n%s\n%s%s\n\n%s", title, text, status, errLine, helpView)
}

func (m *Model) renderPreview() string {
	title := styles.title.Render("How was that take?")
	info := fmt.Sprintf("Recorded %d KB for question %d of %d.\n",
		m.engine.PreviewSize()/1024, m.engine.QuestionIndex()+1, len(m.engine.Questions()))

	helpKeys := []key.Binding{m.keys.accept, m.keys.retake, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)

	return fmt.Sprintf("%s\n%s\n%s", title, info, helpView)
}

func (m *Model) renderProcessing() string {
	title := styles.title.Render("Uploading your testimonial")
	return fmt.Sprintf("%s\nSending %d recordings...\n", title, len(m.engine.Recordings()))
}

func (m *Model) renderDone() string {
	if m.err != nil {
		return styles.err.Render(fmt.Sprintf("Submission failed: %v\n\nPress q to quit", m.err))
	}

	title := styles.ok.Render("✓ Thank you!")
	info := "\nYour testimonial has been submitted.\n"

	var urls string
	for i, url := range m.engine.VideoURLs() {
		urls += fmt.Sprintf("  %d. %s\n", i+1, url)
	}

	helpView := m.help.ShortHelpView([]key.Binding{m.keys.quit})

	return fmt.Sprintf("%s%s%s\n%s", title, info, urls, helpView)
}
