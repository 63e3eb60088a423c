package gesture

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
)

// Simulator renders gestures to a terminal instead of moving hardware.
// It always succeeds, so it is the fallback strategy when no daemon is
// reachable.
type Simulator struct {
	mu      sync.Mutex
	w       io.Writer
	verbose bool

	label  lipgloss.Style
	detail lipgloss.Style
}

// SimulatorOption configures a Simulator.
type SimulatorOption func(*Simulator)

// WithWriter directs simulated gestures to w instead of stdout.
func WithWriter(w io.Writer) SimulatorOption {
	return func(s *Simulator) { s.w = w }
}

// WithVerbose also prints joint targets and animation frames.
func WithVerbose(verbose bool) SimulatorOption {
	return func(s *Simulator) { s.verbose = verbose }
}

// NewSimulator builds a console gesture simulator.
func NewSimulator(opts ...SimulatorOption) *Simulator {
	s := &Simulator{
		w:      os.Stdout,
		label:  lipgloss.NewStyle().Foreground(lipgloss.Color("#00ff9f")),
		detail: lipgloss.NewStyle().Foreground(lipgloss.Color("#6e7681")),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Perform prints the gesture. It never fails.
func (s *Simulator) Perform(_ context.Context, g Gesture) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	fmt.Fprintf(s.w, "%s %s\n", g.Glyph, s.label.Render("[Mini: "+g.Description+"]"))
	if !s.verbose {
		return nil
	}
	if len(g.Joints) > 0 {
		fmt.Fprintf(s.w, "   %s\n", s.detail.Render("joints: "+formatJoints(g.Joints)))
	}
	for _, f := range g.Frames {
		fmt.Fprintf(s.w, "   %s\n", s.detail.Render(fmt.Sprintf("frame: %s for %s", formatJoints(f.Joints), f.Duration)))
	}
	return nil
}

// Status reports simulation mode with no hardware link.
func (s *Simulator) Status() Status {
	return Status{Mode: ModeSimulation, Connected: false}
}

func formatJoints(joints map[string]float64) string {
	names := make([]string, 0, len(joints))
	for name := range joints {
		names = append(names, name)
	}
	sort.Strings(names)
	parts := make([]string, len(names))
	for i, name := range names {
		parts[i] = fmt.Sprintf("%s=%g", name, joints[name])
	}
	return strings.Join(parts, " ")
}
