// Package link implements the symmetric UDP peer runtime shared by the
// drone and the ground station: a receive loop that dispatches framed
// packets to typed callbacks, a fire-and-forget send path, and a
// synchronous request/reply helper layered on top of it (§4.1).
//
// Modeled on the teacher's server/hub.go Hub: one owned goroutine per
// long-running loop, state behind a mutex, callbacks installed once and
// invoked from that goroutine only.
package link

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"sync"
	"time"

	"skylink/wire"
)

// Role selects which default ports a peer binds/sends to (§4.1, §6).
type Role int

const (
	Drone Role = iota
	GroundStation
)

// Mode selects Direct (separate drone/GS ports over loopback) or Tunnel
// (both sides share one port over a virtual overlay) addressing, §4.1.
type Mode int

const (
	Direct Mode = iota
	Tunnel
)

const (
	portDroneCmd = 5611 // drone listens here (commands in)
	portGSData   = 5610 // GS listens here (data in)
	portTunnel   = 6211
)

// Endpoints resolves the local listen address and default remote send
// address for a role/mode pair.
func Endpoints(role Role, mode Mode, remoteIP string) (listen, sendTo string) {
	if mode == Tunnel {
		return fmt.Sprintf("%s:%d", remoteIP, portTunnel), fmt.Sprintf("%s:%d", remoteIP, portTunnel)
	}
	if remoteIP == "" {
		remoteIP = "127.0.0.1"
	}
	switch role {
	case Drone:
		return fmt.Sprintf("0.0.0.0:%d", portDroneCmd), fmt.Sprintf("%s:%d", remoteIP, portGSData)
	default: // GroundStation
		return fmt.Sprintf("0.0.0.0:%d", portGSData), fmt.Sprintf("%s:%d", remoteIP, portDroneCmd)
	}
}

// Callbacks is a fixed-shape record of optional handlers installed once at
// construction and invoked from the receive goroutine only (Design Notes
// §9: avoid per-event allocation, no dynamic registration after init).
type Callbacks struct {
	OnCmd          func(cmd wire.Command, from *net.UDPAddr)
	OnDetection    func(d wire.Detection)
	OnSysTelemetry func(t wire.SysTelemetry)
	OnDisplayport  func(data []byte)
	OnRC           func(rc wire.RC)
}

// Sentinel errors for send_cmd_sync outcomes (§7).
var (
	ErrBusy     = errors.New("link: a synchronous command is already in flight")
	ErrTimeout  = errors.New("link: synchronous command timed out")
	ErrShutdown = errors.New("link: peer shut down while waiting")
	ErrNack     = errors.New("link: remote rejected the command")
)

// Peer is one endpoint of the link. Callers construct exactly one per
// process and pass it explicitly to consumers; there is no package-level
// singleton (Design Notes §9).
type Peer struct {
	role Role
	conn *net.UDPConn
	send *net.UDPAddr
	cb   Callbacks

	stop   chan struct{}
	stopMu sync.Mutex
	closed bool
	wg     sync.WaitGroup

	sync syncSlot
}

// New opens the UDP socket for role/mode and starts the receive loop.
// Fatal-init errors (bind/socket failure) propagate to the caller (§7).
func New(role Role, mode Mode, remoteIP string, cb Callbacks) (*Peer, error) {
	listenAddr, sendAddr, err := resolveAddrs(role, mode, remoteIP)
	if err != nil {
		return nil, err
	}

	conn, err := net.ListenUDP("udp", listenAddr)
	if err != nil {
		return nil, fmt.Errorf("link: listen %s: %w", listenAddr, err)
	}

	p := &Peer{
		role: role,
		conn: conn,
		send: sendAddr,
		cb:   cb,
		stop: make(chan struct{}),
	}
	p.sync.init()

	p.wg.Add(1)
	go p.receiveLoop()

	return p, nil
}

func resolveAddrs(role Role, mode Mode, remoteIP string) (*net.UDPAddr, *net.UDPAddr, error) {
	listenStr, sendStr := Endpoints(role, mode, remoteIP)
	listenAddr, err := net.ResolveUDPAddr("udp", listenStr)
	if err != nil {
		return nil, nil, fmt.Errorf("link: resolve listen %s: %w", listenStr, err)
	}
	sendAddr, err := net.ResolveUDPAddr("udp", sendStr)
	if err != nil {
		return nil, nil, fmt.Errorf("link: resolve send %s: %w", sendStr, err)
	}
	return listenAddr, sendAddr, nil
}

// Deinit stops the receive loop, releases any pending synchronous waiter
// with ErrShutdown, joins the loop goroutine, then closes the socket
// (§4.1 Cancellation on deinit). Safe to call more than once.
func (p *Peer) Deinit() {
	p.stopMu.Lock()
	if p.closed {
		p.stopMu.Unlock()
		return
	}
	p.closed = true
	close(p.stop)
	p.stopMu.Unlock()

	p.sync.shutdown()

	// Unblock the blocking ReadFromUDP in receiveLoop.
	_ = p.conn.SetReadDeadline(time.Now())
	p.wg.Wait()
	p.conn.Close()
}

// receiveLoop is the single dispatch goroutine: one blocking read at a
// time, switched on packet type, fed to the registered callback (§4.1).
func (p *Peer) receiveLoop() {
	defer p.wg.Done()

	buf := make([]byte, 64*1024)
	for {
		select {
		case <-p.stop:
			return
		default:
		}

		_ = p.conn.SetReadDeadline(time.Now().Add(time.Second))
		n, addr, err := p.conn.ReadFromUDP(buf)
		if err != nil {
			if ne, ok := err.(net.Error); ok && ne.Timeout() {
				continue
			}
			select {
			case <-p.stop:
				return
			default:
			}
			log.Println("link: recvfrom error:", err)
			continue
		}

		p.dispatch(buf[:n], addr)
	}
}

func (p *Peer) dispatch(datagram []byte, from *net.UDPAddr) {
	hdr, body, err := wire.Decode(datagram)
	if err != nil {
		log.Println("link: dropping malformed packet:", err)
		return
	}

	switch hdr.Type {
	case wire.TypeCmd:
		cmd, err := wire.DecodeCommand(body)
		if err != nil {
			log.Println("link: dropping malformed command:", err)
			return
		}
		if p.sync.tryResolve(cmd) {
			return // consumed by the outstanding send_cmd_sync waiter
		}
		if p.cb.OnCmd != nil {
			p.cb.OnCmd(cmd, from)
		}
	case wire.TypeDetection:
		d, err := wire.DecodeDetection(body)
		if err != nil {
			log.Println("link: dropping malformed detection:", err)
			return
		}
		if p.cb.OnDetection != nil {
			p.cb.OnDetection(d)
		}
	case wire.TypeSysTelemetry:
		t, err := wire.DecodeSysTelemetry(body)
		if err != nil {
			log.Println("link: dropping malformed telemetry:", err)
			return
		}
		if p.cb.OnSysTelemetry != nil {
			p.cb.OnSysTelemetry(t)
		}
	case wire.TypeDisplayport:
		if p.cb.OnDisplayport != nil {
			p.cb.OnDisplayport(wire.DecodeDisplayport(body))
		}
	case wire.TypeRc:
		rc, err := wire.DecodeRC(body)
		if err != nil {
			log.Println("link: dropping malformed rc:", err)
			return
		}
		if p.cb.OnRC != nil {
			p.cb.OnRC(rc)
		}
	case wire.TypeAck:
		log.Println("link: informational ack from", from)
	}
}

// Send transmits a raw packet of kind t, fire-and-forget. UDP writes are
// OS-atomic so concurrent callers never tear a datagram (§5).
func (p *Peer) Send(t wire.PacketType, body []byte) error {
	datagram, err := wire.Encode(t, body)
	if err != nil {
		return err
	}
	_, err = p.conn.WriteToUDP(datagram, p.send)
	return err
}

// SendDetection, SendSysTelemetry, SendDisplayport, SendRC are typed
// conveniences over Send.
func (p *Peer) SendDetection(d wire.Detection) error {
	body, err := wire.EncodeDetection(d)
	if err != nil {
		return err
	}
	return p.sendRaw(body)
}

func (p *Peer) SendSysTelemetry(t wire.SysTelemetry) error {
	body, err := wire.EncodeSysTelemetry(t)
	if err != nil {
		return err
	}
	return p.sendRaw(body)
}

func (p *Peer) SendDisplayport(data []byte) error {
	body, err := wire.EncodeDisplayport(data)
	if err != nil {
		return err
	}
	return p.sendRaw(body)
}

func (p *Peer) SendRC(rc wire.RC) error {
	body, err := wire.EncodeRC(rc)
	if err != nil {
		return err
	}
	return p.sendRaw(body)
}

func (p *Peer) sendRaw(fullDatagram []byte) error {
	_, err := p.conn.WriteToUDP(fullDatagram, p.send)
	return err
}

// SendCmd fires a Cmd packet without waiting for a reply.
func (p *Peer) SendCmd(kind wire.CmdKind, sub wire.SubCmd, data []byte) error {
	datagram, err := wire.EncodeCommand(wire.Command{Kind: kind, Sub: sub, Data: data})
	if err != nil {
		return err
	}
	return p.sendRaw(datagram)
}

// SendCmdSync sends a command and blocks for a matching ACK/NACK up to
// timeout. At most one call may be in flight per peer; a concurrent second
// call returns ErrBusy without touching the wire (§4.1 invariant).
func (p *Peer) SendCmdSync(ctx context.Context, sub wire.SubCmd, data []byte, timeout time.Duration) ([]byte, error) {
	release, err := p.sync.begin(sub)
	if err != nil {
		return nil, err
	}
	defer release()

	if err := p.SendCmd(wire.CmdSet, sub, data); err != nil {
		p.sync.abort()
		return nil, err
	}

	return p.sync.wait(ctx, timeout)
}
