// Package tui provides the interactive Bubble Tea recorder.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/fakeyudi/screenrec/internal/capture"
	"github.com/fakeyudi/screenrec/internal/output"
	"github.com/fakeyudi/screenrec/internal/session"
)

// ── Styles ────────────

var (
	// Title bar at the very top
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("15")).
			Background(lipgloss.Color("62")).
			Padding(0, 2)

	activeTabStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("15")).
			Background(lipgloss.Color("62")).
			Padding(0, 1)

	inactiveTabStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("245")).
				Background(lipgloss.Color("235")).
				Padding(0, 1)

	tabSepStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("238")).
			Background(lipgloss.Color("235"))

	sectionHeader = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("86"))

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("33")).
			Bold(true)

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))

	timeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("178"))

	recStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("196"))

	errStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))

	kindPipelineStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("82")).Bold(true)
	kindSaveStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("39")).Bold(true)
	kindErrorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	kindConfigStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("214")).Bold(true)

	statusBarStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("235")).
			Foreground(lipgloss.Color("245")).
			Padding(0, 1)

	selectedRowStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("15")).
				Background(lipgloss.Color("237"))
)

// ── Tabs ────────────

type tabID int

const (
	tabSources tabID = iota
	tabActivity
	tabCount
)

var tabNames = [tabCount]string{"Sources", "Activity"}

// ── Activity log ────────────

type eventKind string

const (
	kindSelect  eventKind = "SELECT"
	kindStart   eventKind = "START"
	kindStop    eventKind = "STOP"
	kindSave    eventKind = "SAVE"
	kindDiscard eventKind = "DISCARD"
	kindError   eventKind = "ERROR"
	kindConfig  eventKind = "CONFIG"
)

type activityEvent struct {
	ts   time.Time
	kind eventKind
	text string
}

// ── Pipeline ────────────

// Pipeline is the part of the controller the TUI drives.
type Pipeline interface {
	Sources(ctx context.Context) ([]capture.Target, error)
	Select(ctx context.Context, target *capture.Target) error
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
	Save(ctx context.Context, dialog output.Dialog) (output.Result, error)
	Reset()
	State() session.State
	Session() *session.RecordingSession
}

// ── Messages ────────────

// RemoteStopMsg asks the model to stop the recording, e.g. after
// `screenrec stop` signalled this process.
type RemoteStopMsg struct{}

// ConfigReloadedMsg reports that the config files changed on disk.
type ConfigReloadedMsg struct{ Err error }

type sourcesMsg struct {
	targets []capture.Target
	err     error
}

type actionMsg struct {
	kind   eventKind
	text   string
	result output.Result
	err    error
}

type tickMsg time.Time

// stopTimeout bounds how long the encoder may take to write its trailer.
const stopTimeout = 30 * time.Second

// ── Model ────────────

// Model is the root Bubble Tea model for the recorder.
type Model struct {
	pipeline Pipeline
	dialog   *promptDialog

	activeTab tabID
	viewport  viewport.Model
	width     int
	height    int
	ready     bool

	targets []capture.Target
	cursor  int

	busy    bool
	spinner spinner.Model

	// Save prompt, shown while the save dialog is waiting for an answer.
	prompt  *promptRequest
	input   textinput.Model
	err     string
	notice  string
	history []activityEvent
}

// New creates a recorder model driving p.
func New(p Pipeline) Model {
	sp := spinner.New(spinner.WithSpinner(spinner.Dot))
	sp.Style = recStyle

	ti := textinput.New()
	ti.Prompt = "Save video: "
	ti.CharLimit = 4096

	return Model{
		pipeline: p,
		dialog:   newPromptDialog(),
		spinner:  sp,
		input:    ti,
		busy:     true,
	}
}

// ── Bubble Tea interface ───────────────

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.loadSources(), m.spinner.Tick)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.prompt != nil {
			return m.updatePrompt(msg)
		}
		return m.updateKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		m.initViewport()
		return m, nil

	case sourcesMsg:
		m.busy = false
		if msg.err != nil {
			m.fail(msg.err)
			return m, nil
		}
		m.targets = msg.targets
		if m.cursor >= len(m.targets) {
			m.cursor = max(len(m.targets)-1, 0)
		}
		m.err = ""
		m.refresh()
		return m, nil

	case actionMsg:
		m.busy = false
		if msg.err != nil {
			m.fail(msg.err)
			return m, m.tickIfRecording()
		}
		m.err = ""
		m.record(msg.kind, msg.text)
		switch msg.kind {
		case kindStart:
			return m, tick()
		case kindStop:
			// The recording is finalized; ask where it goes.
			return m.beginSave()
		}
		return m, nil

	case promptRequest:
		m.prompt = &msg
		m.input.SetValue(msg.defaultPath)
		m.input.CursorEnd()
		return m, m.input.Focus()

	case RemoteStopMsg:
		if m.busy || m.pipeline.State() != session.StateRecording {
			return m, nil
		}
		return m.beginAction(kindStop)

	case ConfigReloadedMsg:
		if msg.Err != nil {
			m.fail(msg.Err)
			return m, nil
		}
		m.record(kindConfig, "configuration reloaded; applies to the next selected source")
		return m, nil

	case tickMsg:
		return m, m.tickIfRecording()

	case spinner.TickMsg:
		if !m.busy {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m Model) updateKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		m.pipeline.Reset()
		return m, tea.Quit
	case "tab", "l", "right":
		m.activeTab = (m.activeTab + 1) % tabCount
		m.refresh()
		return m, nil
	case "shift+tab", "h", "left":
		m.activeTab = (m.activeTab - 1 + tabCount) % tabCount
		m.refresh()
		return m, nil
	case "1", "2":
		m.activeTab = tabID(msg.String()[0] - '1')
		m.refresh()
		return m, nil
	case "up", "k":
		if m.activeTab == tabSources && m.cursor > 0 {
			m.cursor--
			m.refresh()
			return m, nil
		}
	case "down", "j":
		if m.activeTab == tabSources && m.cursor < len(m.targets)-1 {
			m.cursor++
			m.refresh()
			return m, nil
		}
	}

	// Pipeline actions run one at a time.
	if m.busy {
		return m, nil
	}
	switch msg.String() {
	case "r":
		m.busy = true
		return m, tea.Batch(m.loadSources(), m.spinner.Tick)
	case "enter", " ":
		if m.activeTab == tabSources && len(m.targets) > 0 {
			return m.beginAction(kindSelect)
		}
		return m, nil
	case "s":
		return m.beginAction(kindStart)
	case "x":
		return m.beginAction(kindStop)
	case "w":
		if m.pipeline.State() == session.StateStopped {
			return m.beginSave()
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m Model) updatePrompt(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		m.prompt.answer(strings.TrimSpace(m.input.Value()), true)
		m.prompt = nil
		m.input.Blur()
		return m, nil
	case "esc", "ctrl+c":
		m.prompt.answer("", false)
		m.prompt = nil
		m.input.Blur()
		return m, nil
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) View() string {
	if !m.ready {
		return "Loading…"
	}

	// ── Row 1: title bar ──────────────────────────────────────────────────────
	title := "  screenrec"
	if sess := m.pipeline.Session(); sess != nil {
		title += "  " + sess.Target().DisplayName
	}
	titleRow := titleStyle.Width(m.width).Render(title)

	// ── Row 2: tab bar ────────────────────────────────────────────────────────
	var tabParts []string
	for i := tabID(0); i < tabCount; i++ {
		label := fmt.Sprintf(" %d %s ", i+1, tabNames[i])
		if i == m.activeTab {
			tabParts = append(tabParts, activeTabStyle.Render(label))
		} else {
			tabParts = append(tabParts, inactiveTabStyle.Render(label))
		}
		if i < tabCount-1 {
			tabParts = append(tabParts, tabSepStyle.Render("│"))
		}
	}
	tabRow := lipgloss.NewStyle().
		Background(lipgloss.Color("235")).
		Width(m.width).
		Render(lipgloss.JoinHorizontal(lipgloss.Top, tabParts...))

	// ── Row 3…N-2: content ────────────────────────────────────────────────────
	content := m.viewport.View()

	// ── Row N-1: state / prompt / error line ─────────────────────────────────
	var line string
	switch {
	case m.prompt != nil:
		line = "  " + m.input.View() + dimStyle.Render("  (enter save, esc discard)")
	case m.err != "":
		line = errStyle.Render("  " + m.err)
	default:
		line = "  " + m.stateLine()
	}

	// ── Row N: hint bar ───────────────────────────────────────────────────────
	hint := "  ↑/↓ move  enter select  s start  x stop  r refresh  q quit"
	if m.pipeline.State() == session.StateStopped && m.prompt == nil {
		hint = "  w save  enter select another source  q quit"
	}
	statusBar := statusBarStyle.Width(m.width).Render(hint)

	return lipgloss.JoinVertical(lipgloss.Left, titleRow, tabRow, content, line, statusBar)
}

func (m Model) stateLine() string {
	var parts []string
	if m.busy {
		parts = append(parts, m.spinner.View())
	}
	sess := m.pipeline.Session()
	state := session.StateIdle
	if sess != nil {
		state = sess.State()
	}
	switch state {
	case session.StateIdle:
		if m.notice != "" {
			parts = append(parts, m.notice)
		} else {
			parts = append(parts, dimStyle.Render("Select a source to record."))
		}
	case session.StateArmed:
		parts = append(parts, labelStyle.Render("Ready")+"  press s to start")
	case session.StateRecording:
		snap := sess.Snapshot()
		elapsed := time.Duration(0)
		if snap.StartedAt != nil {
			elapsed = time.Since(*snap.StartedAt)
		}
		parts = append(parts, recStyle.Render("● REC"),
			timeStyle.Render(output.FormatDuration(elapsed)),
			output.FormatBytes(snap.Bytes))
	case session.StateStopped:
		parts = append(parts, labelStyle.Render("Stopped"),
			fmt.Sprintf("%s not saved", output.FormatBytes(sess.Size())))
	}
	return strings.Join(parts, "  ")
}

// ── Actions ────────────

func (m Model) loadSources() tea.Cmd {
	p := m.pipeline
	return func() tea.Msg {
		targets, err := p.Sources(context.Background())
		return sourcesMsg{targets: targets, err: err}
	}
}

func (m Model) beginAction(kind eventKind) (tea.Model, tea.Cmd) {
	p := m.pipeline
	var run func() tea.Msg
	switch kind {
	case kindSelect:
		target := m.targets[m.cursor]
		run = func() tea.Msg {
			err := p.Select(context.Background(), &target)
			return actionMsg{kind: kindSelect, text: target.String(), err: err}
		}
	case kindStart:
		run = func() tea.Msg {
			err := p.Start(context.Background())
			return actionMsg{kind: kindStart, text: "recording started", err: err}
		}
	case kindStop:
		run = func() tea.Msg {
			ctx, cancel := context.WithTimeout(context.Background(), stopTimeout)
			defer cancel()
			err := p.Stop(ctx)
			text := "recording stopped"
			if sess := p.Session(); sess != nil && err == nil {
				text = fmt.Sprintf("recording stopped, %s captured", output.FormatBytes(sess.Size()))
			}
			return actionMsg{kind: kindStop, text: text, err: err}
		}
	default:
		return m, nil
	}
	m.busy = true
	m.notice = ""
	return m, tea.Batch(run, m.spinner.Tick)
}

// beginSave runs the save in the background. Its dialog hands a
// promptRequest back to the model and blocks until the prompt is answered.
func (m Model) beginSave() (tea.Model, tea.Cmd) {
	p, dialog := m.pipeline, m.dialog
	run := func() tea.Msg {
		res, err := p.Save(context.Background(), dialog)
		switch {
		case err != nil:
			return actionMsg{kind: kindSave, err: err}
		case res.Abandoned:
			return actionMsg{kind: kindDiscard, text: "save abandoned; press w to save again", result: res}
		}
		return actionMsg{kind: kindSave, text: fmt.Sprintf("%s (%s)", res.Path, output.FormatBytes(res.Bytes)), result: res}
	}
	m.busy = true
	return m, tea.Batch(run, dialog.wait(), m.spinner.Tick)
}

func (m Model) tickIfRecording() tea.Cmd {
	if m.pipeline.State() == session.StateRecording {
		return tick()
	}
	return nil
}

func tick() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m *Model) fail(err error) {
	m.err = output.Message(err)
	m.record(kindError, m.err)
}

func (m *Model) record(kind eventKind, text string) {
	m.history = append(m.history, activityEvent{ts: time.Now(), kind: kind, text: text})
	if kind == kindSave {
		m.notice = "Saved " + text
	}
	m.refresh()
}

// ── Viewport management ───────────────────────────────────────────────────────

func (m *Model) initViewport() {
	// title(1) + tabRow(1) + state line(1) + statusBar(1) = 4 fixed rows
	vpHeight := m.height - 4
	if vpHeight < 1 {
		vpHeight = 1
	}
	m.viewport = viewport.New(m.width, vpHeight)
	m.viewport.SetContent(m.renderTab(m.activeTab))
}

func (m *Model) refresh() {
	if !m.ready {
		return
	}
	m.viewport.SetContent(m.renderTab(m.activeTab))
}

// ── Tab renderers ─────────────────────────────────────────────────────────────

func (m *Model) renderTab(t tabID) string {
	switch t {
	case tabSources:
		return m.renderSources()
	case tabActivity:
		return m.renderActivity()
	}
	return ""
}

func heading(s string) string {
	return "\n" + sectionHeader.Render("  "+s) + "\n\n"
}

func (m *Model) renderSources() string {
	var sb strings.Builder
	sb.WriteString(heading(fmt.Sprintf("Sources (%d)", len(m.targets))))
	if len(m.targets) == 0 {
		sb.WriteString(dimStyle.Render("  (no screens or windows found, press r to refresh)") + "\n")
		return sb.String()
	}

	armed := ""
	if sess := m.pipeline.Session(); sess != nil {
		armed = sess.Target().ID
	}
	for i, t := range m.targets {
		icon := "▭ "
		if t.Kind == capture.KindWindow {
			icon = "◫ "
		}
		mark := "  "
		if t.ID == armed {
			mark = recStyle.Render("● ")
		}
		geometry := ""
		if t.Width > 0 && t.Height > 0 {
			geometry = dimStyle.Render(fmt.Sprintf("  %dx%d", t.Width, t.Height))
		}
		row := fmt.Sprintf("  %s%s%s%s", mark, icon, t.DisplayName, geometry)
		if i == m.cursor {
			// Pad to width so the highlight fills the line
			row = selectedRowStyle.Width(max(m.width-2, 1)).Render(row)
		}
		sb.WriteString(row + "\n")
	}
	return sb.String()
}

func (m *Model) renderActivity() string {
	var sb strings.Builder
	sb.WriteString(heading("Activity (newest first)"))
	if len(m.history) == 0 {
		sb.WriteString(dimStyle.Render("  (nothing yet)") + "\n")
		return sb.String()
	}
	for i := len(m.history) - 1; i >= 0; i-- {
		ev := m.history[i]
		ts := timeStyle.Render(ev.ts.Format("15:04:05"))
		var style lipgloss.Style
		switch ev.kind {
		case kindSave, kindDiscard:
			style = kindSaveStyle
		case kindError:
			style = kindErrorStyle
		case kindConfig:
			style = kindConfigStyle
		default:
			style = kindPipelineStyle
		}
		badge := style.Render(fmt.Sprintf("  %-8s", string(ev.kind)))
		sb.WriteString(ts + badge + "  " + ev.text + "\n")
	}
	return sb.String()
}

// NewProgram returns a full-screen program for p. The caller owns signal
// handling and forwards stop requests as RemoteStopMsg.
func NewProgram(p Pipeline) *tea.Program {
	return tea.NewProgram(New(p), tea.WithAltScreen(), tea.WithoutSignalHandler())
}
