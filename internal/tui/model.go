// Package tui is the interactive terminal viewer for one analysis.
package tui

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/sells-group/rfp-cli/internal/present"
	"github.com/sells-group/rfp-cli/internal/render"
	"github.com/sells-group/rfp-cli/internal/session"
	"github.com/sells-group/rfp-cli/internal/view"
)

// Loader fetches the analysis to display.
type Loader func(ctx context.Context) (*session.Result, error)

// State is the screen being shown.
type State int

const (
	StateLoading State = iota
	StateError
	StateReady
)

type loadedMsg struct{ res *session.Result }

type failedMsg struct{ err error }

type phraseTickMsg struct{}

const helpText = "i: toggle AI interpretations • t: cycle minimum confidence • ↑/↓: scroll • q: quit"

var (
	errorStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#c62828"))
	helpStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#9e9e9e"))
	titleStyle = lipgloss.NewStyle().Bold(true)
)

// Option configures a Model.
type Option func(*Model)

// WithFilter sets the initial display filter.
func WithFilter(f present.Filter) Option {
	return func(m *Model) { m.filter = f }
}

// WithOnReady runs once when the analysis has loaded.
func WithOnReady(fn func(*session.Result)) Option {
	return func(m *Model) { m.onReady = fn }
}

// Model is the bubbletea model for the viewer. Its context is cancelled on
// quit so in-flight requests stop with the view.
type Model struct {
	ctx     context.Context
	cancel  context.CancelFunc
	load    Loader
	onReady func(*session.Result)

	sessionID string
	state     State
	err       error
	result    *session.Result
	filter    present.Filter
	phrase    int

	spinner  spinner.Model
	viewport viewport.Model
	width    int
	height   int
}

// New creates a viewer for sessionID that loads through load.
func New(ctx context.Context, sessionID string, load Loader, opts ...Option) *Model {
	ctx, cancel := context.WithCancel(ctx)
	m := &Model{
		ctx:       ctx,
		cancel:    cancel,
		load:      load,
		sessionID: sessionID,
		filter:    present.DefaultFilter(),
		spinner:   spinner.New(spinner.WithSpinner(spinner.Dot)),
		viewport:  viewport.New(render.DefaultWidth, 20),
		width:     render.DefaultWidth,
		height:    24,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// State returns the current screen.
func (m *Model) State() State { return m.state }

// Filter returns the current display filter.
func (m *Model) Filter() present.Filter { return m.filter }

// Err returns the load error shown on the error screen.
func (m *Model) Err() error { return m.err }

// Close cancels outstanding requests.
func (m *Model) Close() { m.cancel() }

func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.loadCmd(), phraseTick())
}

func (m *Model) loadCmd() tea.Cmd {
	ctx, load := m.ctx, m.load
	return func() tea.Msg {
		res, err := load(ctx)
		if err != nil {
			return failedMsg{err: err}
		}
		return loadedMsg{res: res}
	}
}

func phraseTick() tea.Cmd {
	return tea.Tick(view.PhraseInterval, func(time.Time) tea.Msg { return phraseTickMsg{} })
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.viewport.Width = msg.Width
		m.viewport.Height = max(msg.Height-3, 1)
		m.refresh()
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			m.cancel()
			return m, tea.Quit
		case "i":
			if m.state == StateReady {
				m.filter = m.filter.ToggleInterpreted()
				m.refresh()
			}
			return m, nil
		case "t":
			if m.state == StateReady {
				m.filter = m.filter.NextThreshold()
				m.refresh()
			}
			return m, nil
		}
		if m.state == StateReady {
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(msg)
			return m, cmd
		}
		return m, nil

	case loadedMsg:
		m.state = StateReady
		m.result = msg.res
		m.refresh()
		if m.onReady != nil {
			m.onReady(msg.res)
		}
		return m, nil

	case failedMsg:
		if m.ctx.Err() != nil {
			return m, nil
		}
		m.state = StateError
		m.err = msg.err
		return m, nil

	case phraseTickMsg:
		if m.state != StateLoading {
			return m, nil
		}
		m.phrase++
		return m, phraseTick()

	case spinner.TickMsg:
		if m.state != StateLoading {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	if m.state == StateReady {
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	}
	return m, nil
}

// refresh re-presents the analysis under the current filter.
func (m *Model) refresh() {
	if m.result == nil {
		return
	}
	v := view.Build(m.result.Document, m.filter, m.result.Similarity)
	v.SessionID = m.sessionID
	m.viewport.SetContent(render.Text(v, m.width))
}

func (m *Model) View() string {
	switch m.state {
	case StateError:
		msg := errorStyle.Render("Error: " + session.Message(m.err))
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, msg)
	case StateReady:
		return m.viewport.View() + "\n" + helpStyle.Render(helpText)
	default:
		body := m.spinner.View() + " " + titleStyle.Render(view.LoadingTitle) + "\n\n" + view.Phrase(m.phrase)
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, body)
	}
}

// Run shows the viewer until the user quits.
func Run(ctx context.Context, m *Model) error {
	defer m.Close()
	_, err := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx)).Run()
	return err
}
