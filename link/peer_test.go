package link

import (
	"context"
	"net"
	"testing"
	"time"

	"skylink/wire"
)

func newTestPeer(t *testing.T) *Peer {
	t.Helper()
	p, err := New(GroundStation, Direct, "127.0.0.1", Callbacks{})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(p.Deinit)
	return p
}

func TestSendCmdSyncTimesOutWithNoResponder(t *testing.T) {
	p := newTestPeer(t)
	_, err := p.SendCmdSync(context.Background(), wire.SubCmdFPS, wire.PutU32(30), 50*time.Millisecond)
	if err != ErrTimeout {
		t.Fatalf("err = %v, want ErrTimeout", err)
	}
}

func TestSendCmdSyncBusyWhileInFlight(t *testing.T) {
	p := newTestPeer(t)

	done := make(chan struct{})
	go func() {
		defer close(done)
		p.SendCmdSync(context.Background(), wire.SubCmdFPS, nil, 200*time.Millisecond)
	}()

	// Give the first call a moment to claim the slot.
	time.Sleep(10 * time.Millisecond)

	_, err := p.SendCmdSync(context.Background(), wire.SubCmdGOP, nil, 200*time.Millisecond)
	if err != ErrBusy {
		t.Fatalf("err = %v, want ErrBusy", err)
	}

	<-done
}

func TestSendCmdSyncSlotFreedAfterCompletion(t *testing.T) {
	p := newTestPeer(t)

	if _, err := p.SendCmdSync(context.Background(), wire.SubCmdFPS, nil, 20*time.Millisecond); err != ErrTimeout {
		t.Fatalf("first call err = %v, want ErrTimeout", err)
	}
	// The slot must be free again once the first call returns.
	if _, err := p.SendCmdSync(context.Background(), wire.SubCmdFPS, nil, 20*time.Millisecond); err != ErrTimeout {
		t.Fatalf("second call err = %v, want ErrTimeout", err)
	}
}

func TestDeinitCancelsInFlightWaiter(t *testing.T) {
	p, err := New(GroundStation, Direct, "127.0.0.1", Callbacks{})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	result := make(chan error, 1)
	go func() {
		_, err := p.SendCmdSync(context.Background(), wire.SubCmdFPS, nil, 5*time.Second)
		result <- err
	}()

	time.Sleep(10 * time.Millisecond)
	p.Deinit()

	select {
	case err := <-result:
		if err != ErrShutdown {
			t.Fatalf("err = %v, want ErrShutdown", err)
		}
	case <-time.After(time.Second):
		t.Fatal("SendCmdSync did not return after Deinit")
	}
}

func TestSendCmdSyncRoundTripsThroughRealDroneAck(t *testing.T) {
	var drone *Peer
	drone, err := New(Drone, Direct, "127.0.0.1", Callbacks{
		OnCmd: func(cmd wire.Command, from *net.UDPAddr) {
			if cmd.Kind != wire.CmdSet {
				return
			}
			drone.SendCmd(wire.CmdAck, cmd.Sub, wire.PutU32(60))
		},
	})
	if err != nil {
		t.Fatalf("New(Drone): %v", err)
	}
	defer drone.Deinit()

	gs, err := New(GroundStation, Direct, "127.0.0.1", Callbacks{})
	if err != nil {
		t.Fatalf("New(GroundStation): %v", err)
	}
	defer gs.Deinit()

	data, err := gs.SendCmdSync(context.Background(), wire.SubCmdFPS, wire.PutU32(60), time.Second)
	if err != nil {
		t.Fatalf("SendCmdSync: %v", err)
	}
	got, err := wire.GetU32(data)
	if err != nil || got != 60 {
		t.Fatalf("ack payload = %d, %v, want 60", got, err)
	}
}
