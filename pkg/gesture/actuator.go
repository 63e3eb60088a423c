package gesture

import (
	"context"
	"log/slog"
	"sync"
)

// Actuator modes reported by Status.
const (
	ModeSimulation = "simulation"
	ModeRemote     = "remote"
)

// Status reports an actuator's mode and hardware link state.
type Status struct {
	Mode      string `json:"mode"`
	Connected bool   `json:"connected"`
	Addr      string `json:"addr,omitempty"`
}

// Actuator performs gestures on some embodiment of the robot.
// Implementations are best-effort; callers that must never block on
// hardware route Perform through a Dispatcher.
type Actuator interface {
	Perform(ctx context.Context, g Gesture) error
	Status() Status
}

const defaultQueueDepth = 8

// Dispatcher serializes gesture execution on one worker goroutine so a
// slow or failing actuator never stalls the conversation. Execution
// errors are logged, not returned.
type Dispatcher struct {
	act     Actuator
	queue   chan Gesture
	closeCh chan struct{}
	done    chan struct{}

	closeOnce sync.Once

	mu      sync.Mutex
	dropped int
}

// NewDispatcher starts a dispatcher over act. A depth <= 0 selects the
// default queue depth.
func NewDispatcher(act Actuator, depth int) *Dispatcher {
	if depth <= 0 {
		depth = defaultQueueDepth
	}
	d := &Dispatcher{
		act:     act,
		queue:   make(chan Gesture, depth),
		closeCh: make(chan struct{}),
		done:    make(chan struct{}),
	}
	go d.run()
	return d
}

func (d *Dispatcher) run() {
	defer close(d.done)
	for {
		select {
		case g := <-d.queue:
			d.perform(g)
		case <-d.closeCh:
			for {
				select {
				case g := <-d.queue:
					d.perform(g)
				default:
					return
				}
			}
		}
	}
}

func (d *Dispatcher) perform(g Gesture) {
	if err := d.act.Perform(context.Background(), g); err != nil {
		slog.Warn("gesture: perform failed", "gesture", g.Name, "err", err)
	}
}

// Dispatch queues g for execution. It never blocks and never fails;
// when the queue is full the gesture is dropped and counted instead.
func (d *Dispatcher) Dispatch(g Gesture) {
	select {
	case <-d.closeCh:
		return
	default:
	}
	select {
	case d.queue <- g:
	default:
		d.mu.Lock()
		d.dropped++
		d.mu.Unlock()
		slog.Debug("gesture: queue full, dropped", "gesture", g.Name)
	}
}

// Dropped reports how many gestures were discarded on a full queue.
func (d *Dispatcher) Dropped() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.dropped
}

// Status reports the underlying actuator's status.
func (d *Dispatcher) Status() Status {
	return d.act.Status()
}

// Close stops the worker after draining already-queued gestures.
func (d *Dispatcher) Close() error {
	d.closeOnce.Do(func() { close(d.closeCh) })
	<-d.done
	return nil
}
