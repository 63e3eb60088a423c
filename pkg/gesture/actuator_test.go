package gesture

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

// recordActuator signals each performed gesture on a channel. When
// block is set, Perform waits on it after signalling.
type recordActuator struct {
	performed chan string
	block     chan struct{}
	err       error
}

func (a *recordActuator) Perform(_ context.Context, g Gesture) error {
	a.performed <- g.Name
	if a.block != nil {
		<-a.block
	}
	return a.err
}

func (a *recordActuator) Status() Status {
	return Status{Mode: ModeSimulation}
}

func waitPerformed(t *testing.T, a *recordActuator, want string) {
	t.Helper()
	select {
	case got := <-a.performed:
		if got != want {
			t.Errorf("performed %q, want %q", got, want)
		}
	case <-time.After(time.Second):
		t.Fatalf("timed out waiting for %q", want)
	}
}

func TestDispatcherPerformsInOrder(t *testing.T) {
	act := &recordActuator{performed: make(chan string, 8)}
	d := NewDispatcher(act, 4)
	defer d.Close()

	for _, name := range []string{"wave", "nod", "spin"} {
		d.Dispatch(Lookup(name))
	}
	for _, want := range []string{"wave", "nod", "spin"} {
		waitPerformed(t, act, want)
	}
}

func TestDispatcherDropsWhenFull(t *testing.T) {
	act := &recordActuator{performed: make(chan string, 8), block: make(chan struct{})}
	d := NewDispatcher(act, 1)

	d.Dispatch(Lookup("wave"))
	// The worker now holds the first gesture, leaving the queue empty.
	waitPerformed(t, act, "wave")

	d.Dispatch(Lookup("nod"))  // fills the single queue slot
	d.Dispatch(Lookup("spin")) // no room, dropped

	if got := d.Dropped(); got != 1 {
		t.Errorf("Dropped() = %d, want 1", got)
	}

	close(act.block)
	waitPerformed(t, act, "nod")
	d.Close()
}

func TestDispatcherSwallowsActuatorErrors(t *testing.T) {
	act := &recordActuator{performed: make(chan string, 8), err: errors.New("hardware unreachable")}
	d := NewDispatcher(act, 4)
	defer d.Close()

	d.Dispatch(Lookup("wave"))
	waitPerformed(t, act, "wave")

	// Still operational after the failure.
	d.Dispatch(Lookup("nod"))
	waitPerformed(t, act, "nod")
}

func TestDispatcherCloseIdempotent(t *testing.T) {
	d := NewDispatcher(&recordActuator{performed: make(chan string, 8)}, 2)
	if err := d.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := d.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
	// Dispatch after close is a silent no-op.
	d.Dispatch(Lookup("wave"))
}

func TestSimulatorOutput(t *testing.T) {
	var buf bytes.Buffer
	s := NewSimulator(WithWriter(&buf), WithVerbose(true))

	if err := s.Perform(context.Background(), Lookup("wave")); err != nil {
		t.Fatalf("Perform: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"👋", "Wave hello with right arm", "r_shoulder_pitch=-60", "300ms"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}

	if st := s.Status(); st.Mode != ModeSimulation || st.Connected {
		t.Errorf("Status() = %+v, want disconnected simulation", st)
	}
}

func TestSimulatorQuietByDefault(t *testing.T) {
	var buf bytes.Buffer
	s := NewSimulator(WithWriter(&buf))

	if err := s.Perform(context.Background(), Lookup("nod")); err != nil {
		t.Fatalf("Perform: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "Nod head gently") {
		t.Errorf("output missing description:\n%s", out)
	}
	if strings.Contains(out, "neck_pitch") {
		t.Errorf("joint detail printed without verbose:\n%s", out)
	}
}
