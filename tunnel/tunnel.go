// Package tunnel implements the auxiliary tunneling described in §4.6:
// four UDP relays bridging local ports to a remote IPv4 address for
// stream, command-downlink, command-uplink, and RC traffic.
//
// Design Notes §9 flags the original's relay-by-external-process approach
// as racy ("killing external processes by name") and recommends modeling
// tunnels as owned child processes/goroutines instead; this implementation
// follows that recommendation directly — each relay is a goroutine this
// package starts and joins, never a forked subprocess.
package tunnel

import (
	"context"
	"fmt"
	"log"
	"net"
	"sync"
)

// relay ports, local side. The remote side uses the same four ports on
// the peer IP (§4.6 "bridging four local ports to a remote IPv4"). Stream
// and command-downlink match spec.md:234 (and the original's fixed socat
// tunnel ports in proxy.c) exactly; command-uplink and RC are not pinned
// by the original (passed through to drone_nat_proxy as remote-side
// ports instead of fixed local ones) — see DESIGN.md's Open Question
// entry for how these two were chosen.
const (
	portStream      = 5602
	portCmdDownlink = 5610
	portCmdUplink   = 5612
	portRC          = 5613
)

var relayPorts = [4]int{portStream, portCmdDownlink, portCmdUplink, portRC}

// Manager owns the lifecycle of the four relays. State is the small record
// §4.6 calls for: active flag, remote IP, and the four ports (fixed here
// as constants rather than configurable fields, since nothing in the
// protocol varies them per session).
type Manager struct {
	mu       sync.Mutex
	active   bool
	remoteIP string
	cancel   context.CancelFunc
	wg       sync.WaitGroup
}

func New() *Manager {
	return &Manager{}
}

// Restart implements dispatch.TunnelRestarter: terminate the current
// relays (if any) and launch new ones pointed at remoteIP, synchronously —
// the caller (SetGSIP handler) only returns once teardown of the old set
// has completed, so two relay generations are never live at once (§4.6,
// Shared-State Map "Auxiliary tunnels": "teardown is synchronous and must
// complete before new relays start").
func (m *Manager) Restart(remoteIP string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.active {
		m.cancel()
		m.wg.Wait()
		m.active = false
	}

	ctx, cancel := context.WithCancel(context.Background())
	for _, port := range relayPorts {
		conn, err := net.ListenUDP("udp", &net.UDPAddr{IP: net.IPv4zero, Port: port})
		if err != nil {
			cancel()
			m.wg.Wait()
			return fmt.Errorf("tunnel: listen :%d: %w", port, err)
		}
		m.wg.Add(1)
		go m.relayLoop(ctx, conn, remoteIP, port)
	}

	m.remoteIP = remoteIP
	m.cancel = cancel
	m.active = true
	return nil
}

// Stop tears down all relays; safe to call when nothing is active.
func (m *Manager) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.active {
		return
	}
	m.cancel()
	m.wg.Wait()
	m.active = false
}

func (m *Manager) relayLoop(ctx context.Context, conn *net.UDPConn, remoteIP string, port int) {
	defer m.wg.Done()
	defer conn.Close()

	remote := &net.UDPAddr{IP: net.ParseIP(remoteIP), Port: port}
	buf := make([]byte, 64*1024)

	go func() {
		<-ctx.Done()
		conn.Close()
	}()

	for {
		n, from, err := conn.ReadFromUDP(buf)
		if err != nil {
			select {
			case <-ctx.Done():
				return
			default:
				log.Println("tunnel: relay port", port, "read error:", err)
				return
			}
		}
		if from.IP.Equal(remote.IP) {
			continue // avoid bridging a packet back to where it came from
		}
		if _, err := conn.WriteToUDP(buf[:n], remote); err != nil {
			log.Println("tunnel: relay port", port, "write error:", err)
		}
	}
}
