package commands

import (
	"encoding/json"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/vargava/xr-emcee-demo/pkg/cli"
	"github.com/vargava/xr-emcee-demo/pkg/gateway"
)

// monitorModel is the dashboard model.
type monitorModel struct {
	serverURL string
	stream    *eventStream
	logWriter *cli.LogWriter

	// Content buffers, newest entries win
	conversation *cli.LogBuffer
	gestures     *cli.LogBuffer

	// UI
	styles cli.Styles
	width  int
	height int

	state     string
	connected bool
	quitting  bool
}

func newMonitorModel(serverURL string, stream *eventStream, logWriter *cli.LogWriter) monitorModel {
	return monitorModel{
		serverURL:    serverURL,
		stream:       stream,
		logWriter:    logWriter,
		conversation: cli.NewLogBuffer(50),
		gestures:     cli.NewLogBuffer(50),
		styles:       cli.NewStyles(cli.DefaultTheme),
		state:        "connecting",
	}
}

// StreamEventMsg wraps server events for bubbletea.
type StreamEventMsg streamEvent

// StreamClosedMsg reports that the event stream ended.
type StreamClosedMsg struct{}

// LogMsg wraps captured log lines for bubbletea.
type LogMsg string

// TickMsg is sent periodically to update the UI.
type TickMsg time.Time

// Init initializes the model.
func (m monitorModel) Init() tea.Cmd {
	return tea.Batch(
		m.listenStream(),
		m.listenLogs(),
		m.tick(),
	)
}

func (m monitorModel) listenStream() tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-m.stream.Events()
		if !ok {
			return StreamClosedMsg{}
		}
		return StreamEventMsg(ev)
	}
}

func (m monitorModel) listenLogs() tea.Cmd {
	if m.logWriter == nil {
		return nil
	}
	return func() tea.Msg {
		line, ok := <-m.logWriter.Channel()
		if !ok {
			return nil
		}
		return LogMsg(line)
	}
}

func (m monitorModel) tick() tea.Cmd {
	return tea.Tick(500*time.Millisecond, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}

// Update handles messages.
func (m monitorModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
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

	case StreamEventMsg:
		m.handleStreamEvent(streamEvent(msg))
		cmds = append(cmds, m.listenStream())

	case StreamClosedMsg:
		m.connected = false
		m.state = "disconnected"

	case LogMsg:
		// The log pane renders straight from the writer's buffer; the
		// message only forces a redraw.
		cmds = append(cmds, m.listenLogs())

	case TickMsg:
		cmds = append(cmds, m.tick())
	}

	return m, tea.Batch(cmds...)
}

func (m *monitorModel) addConversation(s string) {
	ts := time.Now().Format("15:04:05")
	_ = m.conversation.Add(fmt.Sprintf("[%s] %s", ts, s))
}

func (m *monitorModel) addGesture(s string) {
	ts := time.Now().Format("15:04:05")
	_ = m.gestures.Add(fmt.Sprintf("[%s] %s", ts, s))
}

func (m *monitorModel) handleStreamEvent(e streamEvent) {
	switch e.Event {
	case gateway.EventConnectionStatus:
		m.connected = true
		if m.state == "connecting" {
			m.state = "idle"
		}

	case gateway.EventState:
		var su struct {
			State string `json:"state"`
		}
		if json.Unmarshal(e.Data, &su) == nil {
			m.state = su.State
		}

	case gateway.EventTranscription:
		var t gateway.Transcription
		if json.Unmarshal(e.Data, &t) == nil {
			m.addConversation(fmt.Sprintf("visitor: %s", t.Text))
		}

	case gateway.EventBotResponse:
		var r gateway.BotResponse
		if json.Unmarshal(e.Data, &r) == nil {
			m.addConversation(fmt.Sprintf("bot: %s", r.Text))
			m.addGesture(fmt.Sprintf("%s (exchange %d)", r.Gesture, r.ExchangeCount))
		}

	case gateway.EventError, gateway.EventTranscriptionError:
		var em gateway.ErrorMessage
		if json.Unmarshal(e.Data, &em) == nil {
			m.addConversation(fmt.Sprintf("ERR: %s", em.Message))
		}

	default:
		m.addConversation(fmt.Sprintf("%s: %s", e.Event, string(e.Data)))
	}
}

// View renders the UI.
func (m monitorModel) View() string {
	if m.quitting {
		return "Goodbye!\n"
	}

	frame := cli.Frame{
		Styles: m.styles,
		Title:  "EMCEE // MONITOR",
		Status: m.state,
		Sections: []cli.Section{
			{Label: "💬 Conversation", Content: func() []string { return m.conversation.Bytes() }},
			{Label: "🤖 Gestures", Content: func() []string { return m.gestures.Bytes() }},
			{Label: "📋 System Log", Content: func() []string { return m.logWriter.Lines() }},
		},
		Help: fmt.Sprintf("q/Ctrl+C=quit  |  Server: %s", m.serverURL),
	}

	return frame.Render(m.width, m.height)
}
