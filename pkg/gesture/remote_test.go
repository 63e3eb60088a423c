package gesture

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/vmihailenco/msgpack/v5"
)

func TestRemotePerformSendsGesture(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer ln.Close()

	type result struct {
		g   Gesture
		err error
	}
	received := make(chan result, 1)
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			received <- result{err: err}
			return
		}
		defer conn.Close()
		var g Gesture
		err = msgpack.NewDecoder(conn).Decode(&g)
		received <- result{g: g, err: err}
	}()

	r, err := NewRemote(ln.Addr().String())
	if err != nil {
		t.Fatalf("NewRemote: %v", err)
	}
	defer r.Close()

	if st := r.Status(); st.Mode != ModeRemote || !st.Connected {
		t.Errorf("Status() = %+v, want connected remote", st)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := r.Perform(ctx, Lookup("wave")); err != nil {
		t.Fatalf("Perform: %v", err)
	}

	select {
	case res := <-received:
		if res.err != nil {
			t.Fatalf("decode: %v", res.err)
		}
		if res.g.Name != "wave" || res.g.Glyph != "👋" {
			t.Errorf("received %q %q, want wave with glyph", res.g.Name, res.g.Glyph)
		}
		if res.g.Joints["r_elbow_pitch"] != -90 {
			t.Errorf("r_elbow_pitch = %g, want -90", res.g.Joints["r_elbow_pitch"])
		}
		if len(res.g.Frames) != 3 || res.g.Frames[0].Duration.Duration() != 300*time.Millisecond {
			t.Errorf("frames = %+v, want 3 frames of 300ms", res.g.Frames)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("gesture never received")
	}
}

func TestRemoteCloseThenStatus(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer ln.Close()
	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			conn.Close()
		}
	}()

	r, err := NewRemote(ln.Addr().String())
	if err != nil {
		t.Fatalf("NewRemote: %v", err)
	}
	if err := r.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if st := r.Status(); st.Connected {
		t.Errorf("Status() = %+v, want disconnected after Close", st)
	}
	if err := r.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
}
