package commands

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/vargava/xr-emcee-demo/pkg/cli"
)

var (
	monitorContext string
	monitorURL     string
)

var monitorCmd = &cobra.Command{
	Use:   "monitor",
	Short: "Live dashboard for a running emcee server",
	Long: `Tail a running server's event stream in a terminal dashboard.

The dashboard shows the conversation as it happens, the gestures the
robot plays, and the server's own log output. The session state is
shown in the title bar.

The server URL defaults to the listen address of the current context.

Examples:
  emcee monitor
  emcee monitor --url http://booth-robot.local:5000`,
	RunE: runMonitor,
}

func init() {
	monitorCmd.Flags().StringVarP(&monitorContext, "context", "c", "", "context name to use")
	monitorCmd.Flags().StringVar(&monitorURL, "url", "", "base URL of the emcee server")

	rootCmd.AddCommand(monitorCmd)
}

func runMonitor(cmd *cobra.Command, args []string) error {
	base := monitorURL
	if base == "" {
		s, err := resolveSettings(monitorContext)
		if err != nil {
			return err
		}
		base = serverURL(s.Addr)
	}

	// Route logs into the dashboard's log pane instead of the terminal.
	logWriter := cli.NewLogWriter(50)
	slog.SetDefault(slog.New(slog.NewTextHandler(logWriter, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stream := newEventStream(base)
	go stream.run(ctx)

	model := newMonitorModel(base, stream, logWriter)
	p := tea.NewProgram(model, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("failed to run monitor: %w", err)
	}
	return nil
}

// serverURL turns a listen address like ":5000" into a dialable base
// URL.
func serverURL(addr string) string {
	if strings.Contains(addr, "://") {
		return addr
	}
	if strings.HasPrefix(addr, ":") {
		return "http://localhost" + addr
	}
	return "http://" + addr
}

// streamEvent is one decoded entry from the server's event stream.
type streamEvent struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// eventStream tails the /events endpoint of a running server and
// delivers decoded events on a channel. The channel closes when the
// stream ends.
type eventStream struct {
	base   string
	events chan streamEvent
}

func newEventStream(base string) *eventStream {
	return &eventStream{
		base:   base,
		events: make(chan streamEvent, 100),
	}
}

// Events returns the decoded event channel.
func (s *eventStream) Events() <-chan streamEvent { return s.events }

// run reads the stream until it ends or ctx is cancelled.
func (s *eventStream) run(ctx context.Context) {
	defer close(s.events)

	url := strings.TrimSuffix(s.base, "/") + "/events"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		slog.Error("monitor: bad server URL", "url", url, "err", err)
		return
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		slog.Error("monitor: connect failed", "url", url, "err", err)
		return
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		slog.Error("monitor: unexpected status", "url", url, "status", resp.Status)
		return
	}

	sc := bufio.NewScanner(resp.Body)
	sc.Buffer(make([]byte, 64*1024), 1<<20)
	for sc.Scan() {
		data, ok := strings.CutPrefix(sc.Text(), "data: ")
		if !ok {
			continue
		}
		var ev streamEvent
		if err := json.Unmarshal([]byte(data), &ev); err != nil {
			slog.Warn("monitor: undecodable event", "err", err)
			continue
		}
		select {
		case s.events <- ev:
		case <-ctx.Done():
			return
		}
	}
	if err := sc.Err(); err != nil && ctx.Err() == nil {
		slog.Error("monitor: stream read failed", "err", err)
	}
}
