package commands

import (
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/sabaimran/vox-locus/pkg/cli"
	"github.com/sabaimran/vox-locus/pkg/session"
)

// recordModel is the bubbletea model behind `vox record --tui`.
type recordModel struct {
	id     string
	engine string

	started  time.Time
	chunks   int
	captions []string
	logLines []string

	// Log writer for capturing log output
	logWriter *cli.LogWriter

	// UI
	styles cli.Styles
	width  int
	height int

	// Quit flag
	quitting bool
}

func newRecordModel(id, engine string, logWriter *cli.LogWriter) recordModel {
	return recordModel{
		id:        id,
		engine:    engine,
		started:   time.Now(),
		captions:  []string{},
		logLines:  []string{},
		logWriter: logWriter,
		styles:    cli.NewStyles(cli.DefaultTheme),
	}
}

// chunkMsg wraps completed chunks for bubbletea.
type chunkMsg session.ChunkEvent

// logMsg wraps captured log lines for bubbletea.
type logMsg string

// tickMsg is sent periodically to refresh the elapsed time.
type tickMsg time.Time

// Init initializes the model.
func (m recordModel) Init() tea.Cmd {
	return tea.Batch(
		m.listenLogs(),
		m.tick(),
	)
}

func (m recordModel) listenLogs() tea.Cmd {
	if m.logWriter == nil {
		return nil
	}
	return func() tea.Msg {
		line, ok := <-m.logWriter.Channel()
		if !ok {
			return nil
		}
		return logMsg(line)
	}
}

func (m recordModel) tick() tea.Cmd {
	return tea.Tick(500*time.Millisecond, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// Update handles messages.
func (m recordModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			m.quitting = true
			return m, tea.Quit
		case tea.KeyRunes:
			if len(msg.Runes) == 1 && msg.Runes[0] == 'q' {
				m.quitting = true
				return m, tea.Quit
			}
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case chunkMsg:
		m.chunks++
		text := msg.Text
		if text == "" {
			text = "(silence)"
		}
		ts := time.Now().Format("15:04:05")
		m.captions = append(m.captions, fmt.Sprintf("[%s] %s", ts, text))
		if len(m.captions) > 50 {
			m.captions = m.captions[len(m.captions)-50:]
		}

	case logMsg:
		m.logLines = append(m.logLines, string(msg))
		if len(m.logLines) > 50 {
			m.logLines = m.logLines[len(m.logLines)-50:]
		}
		cmds = append(cmds, m.listenLogs())

	case tickMsg:
		cmds = append(cmds, m.tick())
	}

	return m, tea.Batch(cmds...)
}

// View renders the UI.
func (m recordModel) View() string {
	if m.quitting {
		return "Finalizing session...\n"
	}

	elapsed := time.Since(m.started).Round(time.Second)
	status := fmt.Sprintf("● REC %s  |  %d chunks  |  %s", elapsed, m.chunks, m.engine)

	frame := cli.Frame{
		Styles: m.styles,
		Title:  "VOX // " + m.id,
		Status: status,
		Sections: []cli.Section{
			{Label: "🎙 Captions", Content: func() []string { return m.captions }},
			{Label: "📋 System Log", Content: func() []string { return m.logLines }},
		},
		Help: "q/Ctrl+C=stop recording and finalize",
	}

	return frame.Render(m.width, m.height)
}
