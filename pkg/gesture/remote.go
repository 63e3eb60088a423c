package gesture

import (
	"context"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/vmihailenco/msgpack/v5"
)

// DefaultDaemonAddr is where a gesture daemon listens unless
// configured otherwise.
const DefaultDaemonAddr = "localhost:50055"

const remoteIOTimeout = 5 * time.Second

// Remote drives a gesture daemon over a persistent TCP connection.
// Each Perform sends one msgpack-encoded Gesture; the daemon executes
// it best-effort and sends nothing back. A broken connection is
// redialed once per Perform before reporting failure.
type Remote struct {
	addr string

	mu   sync.Mutex
	conn net.Conn
	enc  *msgpack.Encoder
}

// NewRemote dials the gesture daemon at addr. An empty addr selects
// DefaultDaemonAddr.
func NewRemote(addr string) (*Remote, error) {
	if addr == "" {
		addr = DefaultDaemonAddr
	}
	r := &Remote{addr: addr}
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.redialLocked(); err != nil {
		return nil, fmt.Errorf("gesture: connect %s: %w", addr, err)
	}
	return r, nil
}

func (r *Remote) redialLocked() error {
	if r.conn != nil {
		r.conn.Close()
		r.conn = nil
		r.enc = nil
	}
	conn, err := net.DialTimeout("tcp", r.addr, remoteIOTimeout)
	if err != nil {
		return err
	}
	r.conn = conn
	r.enc = msgpack.NewEncoder(conn)
	return nil
}

func (r *Remote) sendLocked(ctx context.Context, g *Gesture) error {
	deadline := time.Now().Add(remoteIOTimeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	r.conn.SetWriteDeadline(deadline)
	return r.enc.Encode(g)
}

// Perform sends g to the daemon.
func (r *Remote) Perform(ctx context.Context, g Gesture) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.conn == nil {
		if err := r.redialLocked(); err != nil {
			return fmt.Errorf("gesture: connect %s: %w", r.addr, err)
		}
	}
	err := r.sendLocked(ctx, &g)
	if err == nil {
		return nil
	}
	if rerr := r.redialLocked(); rerr != nil {
		return fmt.Errorf("gesture: send %s: %w", g.Name, err)
	}
	if err := r.sendLocked(ctx, &g); err != nil {
		r.conn.Close()
		r.conn = nil
		r.enc = nil
		return fmt.Errorf("gesture: send %s: %w", g.Name, err)
	}
	return nil
}

// Status reports the daemon link state.
func (r *Remote) Status() Status {
	r.mu.Lock()
	defer r.mu.Unlock()
	return Status{Mode: ModeRemote, Connected: r.conn != nil, Addr: r.addr}
}

// Close shuts down the daemon connection.
func (r *Remote) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.conn == nil {
		return nil
	}
	err := r.conn.Close()
	r.conn = nil
	r.enc = nil
	return err
}
