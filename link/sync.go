package link

import (
	"context"
	"sync"
	"time"

	"skylink/wire"
)

// syncSlot is the single-slot rendezvous backing send_cmd_sync (§3
// "Synchronous-wait slot", §4.1, Design Notes §9). A queue would imply
// pipelining, which the protocol explicitly disallows: at most one
// send_cmd_sync may be outstanding at a time.
type syncSlot struct {
	mu   sync.Mutex
	cond *sync.Cond

	waiting   bool
	sub       wire.SubCmd
	result    wire.CmdKind // CmdAck or CmdNack once ready
	data      []byte
	ready     bool
	shuttingDown bool
}

func (s *syncSlot) init() {
	s.cond = sync.NewCond(&s.mu)
}

// begin reserves the slot for sub. It returns ErrBusy if another
// send_cmd_sync is already in flight, and a release func that must be
// called (even on error from the caller's subsequent send) to free the
// slot.
func (s *syncSlot) begin(sub wire.SubCmd) (release func(), err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.shuttingDown {
		return func() {}, ErrShutdown
	}
	if s.waiting {
		return func() {}, ErrBusy
	}

	s.waiting = true
	s.sub = sub
	s.ready = false
	s.data = nil

	return func() {
		s.mu.Lock()
		s.waiting = false
		s.mu.Unlock()
	}, nil
}

// abort marks the slot ready with a local send failure so wait() returns
// promptly instead of blocking for a reply that will never be sent.
func (s *syncSlot) abort() {
	s.mu.Lock()
	s.result = wire.CmdNack
	s.ready = true
	s.mu.Unlock()
	s.cond.Broadcast()
}

// wait blocks until a matching ACK/NACK arrives, the deadline expires, or
// the peer is deinitialized. It uses a monotonic deadline and re-checks the
// ready flag on every wakeup to tolerate spurious signals (§4.1 Timeout).
func (s *syncSlot) wait(ctx context.Context, timeout time.Duration) ([]byte, error) {
	deadline := time.Now().Add(timeout)

	// A goroutine translates the deadline/ctx into a Broadcast so the
	// blocking Cond.Wait below can be interrupted; Cond has no native
	// timed wait.
	done := make(chan struct{})
	defer close(done)
	go func() {
		timer := time.NewTimer(time.Until(deadline))
		defer timer.Stop()
		select {
		case <-timer.C:
			s.cond.Broadcast()
		case <-ctx.Done():
			s.cond.Broadcast()
		case <-done:
		}
	}()

	s.mu.Lock()
	defer s.mu.Unlock()
	for !s.ready && !s.shuttingDown && time.Now().Before(deadline) && ctx.Err() == nil {
		s.cond.Wait()
	}

	switch {
	case s.shuttingDown:
		s.ready = false
		return nil, ErrShutdown
	case s.ready:
		kind, data := s.result, s.data
		s.ready = false
		if kind == wire.CmdNack {
			return data, ErrNack
		}
		return data, nil
	default:
		return nil, ErrTimeout
	}
}

// tryResolve is called from the receive loop for every incoming Cmd. If a
// sync waiter is pending for this sub-command and the reply is an ACK/NACK,
// it copies the body into the slot, wakes the waiter, and reports true so
// the caller suppresses ordinary callback delivery (§4.1).
func (s *syncSlot) tryResolve(cmd wire.Command) bool {
	if cmd.Kind != wire.CmdAck && cmd.Kind != wire.CmdNack {
		return false
	}
	s.mu.Lock()
	if !s.waiting || cmd.Sub != s.sub {
		s.mu.Unlock()
		return false
	}
	s.result = cmd.Kind
	s.data = append([]byte(nil), cmd.Data...)
	s.ready = true
	s.mu.Unlock()
	s.cond.Broadcast()
	return true
}

// shutdown marks the slot as shutting down and wakes any waiter, which
// then returns ErrShutdown promptly (§4.1 Cancellation on deinit).
func (s *syncSlot) shutdown() {
	s.mu.Lock()
	s.shuttingDown = true
	s.mu.Unlock()
	s.cond.Broadcast()
}
