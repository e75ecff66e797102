package transport

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"go.bug.st/serial"

	"github.com/urmzd/go-znp/pkg/mt"
	"github.com/urmzd/go-znp/pkg/mt/catalog"
	"github.com/urmzd/go-znp/pkg/mt/command"
	"github.com/urmzd/go-znp/pkg/znp/config"
	"github.com/urmzd/go-znp/pkg/znp/correlation"
)

// Application is the external collaborator the core calls back into
// after every successful reconnection. It is defined here, not in a
// shared top-level package, so transport has no dependency on any
// particular controller implementation.
type Application interface {
	Startup(ctx context.Context, autoForm bool) error
}

// pingTimeout bounds the liveness probe issued by Probe; it is
// deliberately short since a live radio replies within milliseconds.
const pingTimeout = 2 * time.Second

// Transport owns the serial port, the decoder feeding it, and the
// correlation core built over it. It drives the single dispatcher
// goroutine that reads bytes, decodes frames, and calls
// correlation.Core.HandleFrame. A Transport survives across reconnects:
// attach opens a new port, builds a new core and publishes both on the
// same Transport rather than constructing a new one, so one closed flag
// governs the connection's lifetime.
type Transport struct {
	cfg config.Config
	cat *catalog.Catalog
	app Application

	mu        sync.Mutex
	port      *Port
	core      *correlation.Core
	closed    bool
	reconnect chan struct{} // non-nil while a reconnection loop is running; closed to cancel it
}

// Connect opens the configured serial device, wires the decoder and
// correlation core, starts the dispatcher goroutine, and issues a SYS.Ping
// liveness probe. On probe failure the port is closed and the error
// surfaced.
func Connect(cfg config.Config, cat *catalog.Catalog, app Application) (*Transport, error) {
	t := &Transport{cfg: cfg, cat: cat, app: app}
	if err := t.attach(); err != nil {
		return nil, err
	}
	return t, nil
}

// attach opens the port, builds a fresh correlation core over it, starts a
// new dispatcher goroutine, and probes liveness. Called both from Connect
// and from the reconnection loop, always against the same Transport
// receiver.
//
// t.port/t.core are only published once the liveness probe succeeds. The
// dispatch loop has to run beforehand so it can read the probe's own SRSP
// off the wire, but until publication a probe failure's port.Close() must
// not be mistaken for an unexpected disconnect of an established
// connection: dispatchLoop tells the two apart by comparing t.port against
// its own generation pointer, so a failed probe clears t.port back to nil
// (if it still points at this attempt's port) rather than leaving it set.
func (t *Transport) attach() error {
	port, err := Open(t.cfg.DevicePath, t.cfg.BaudRate, t.cfg.FlowControl)
	if err != nil {
		return err
	}

	core, err := correlation.New(t.cat, port, t.cfg.SREQTimeout)
	if err != nil {
		_ = port.Close()
		return err
	}

	go t.dispatchLoop(port, core)

	if err := t.probeLiveness(core); err != nil {
		t.mu.Lock()
		if t.port == port {
			t.port = nil
			t.core = nil
		}
		t.mu.Unlock()
		_ = port.Close()
		return fmt.Errorf("liveness probe: %w", err)
	}

	t.mu.Lock()
	t.port = port
	t.core = core
	t.mu.Unlock()
	return nil
}

// Probe opens cfg's device, issues a single SYS.Ping within a short
// timeout, then closes the port — the "does anything answer on this
// device" check used by autodetection and diagnostics. It does not start
// a reconnection policy.
func Probe(cfg config.Config, cat *catalog.Catalog) (bool, error) {
	port, err := Open(cfg.DevicePath, cfg.BaudRate, cfg.FlowControl)
	if err != nil {
		return false, err
	}
	defer func() { _ = port.Close() }()

	core, err := correlation.New(cat, port, pingTimeout)
	if err != nil {
		return false, err
	}
	defer core.Close()

	decoder := mt.NewDecoder()
	stop := make(chan struct{})
	go func() {
		buf := make([]byte, 1)
		for {
			select {
			case <-stop:
				return
			default:
			}
			b, err := port.ReadByte()
			if err != nil {
				return
			}
			buf[0] = b
			for _, frame := range decoder.Feed(buf) {
				core.HandleFrame(frame)
			}
		}
	}()
	defer close(stop)

	pingReq, ok := cat.ByName("SYS.Ping.Req")
	if !ok {
		return false, fmt.Errorf("catalog is missing SYS.Ping.Req")
	}
	inst, err := command.New(pingReq, map[string]any{})
	if err != nil {
		return false, err
	}

	if _, err := core.Request(inst, nil); err != nil {
		return false, nil
	}
	return true, nil
}

// Autodetect probes every serial port on the host with cfg's parameters
// and returns the path of the first device that answers a SYS.Ping — the
// device.path "auto" behavior.
func Autodetect(cfg config.Config, cat *catalog.Catalog) (string, error) {
	ports, err := serial.GetPortsList()
	if err != nil {
		return "", fmt.Errorf("list serial ports: %w", err)
	}

	for _, path := range ports {
		probeCfg := cfg
		probeCfg.DevicePath = path
		ok, err := Probe(probeCfg, cat)
		if err != nil {
			log.Debug().Err(err).Str("port", path).Msg("autodetect probe failed to open port")
			continue
		}
		if ok {
			log.Info().Str("port", path).Msg("autodetected ZNP radio")
			return path, nil
		}
	}
	return "", ErrNoDevice
}

// ErrNoDevice is returned by Autodetect when no serial port on the host
// answers a ping.
var ErrNoDevice = fmt.Errorf("no ZNP radio answered on any serial port")

// Core returns the correlation core currently backing this transport, the
// seam the controller layer issues Request/WaitForResponse/
// CallbackForResponse calls through. It changes identity across a
// reconnect.
func (t *Transport) Core() *correlation.Core {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.core
}

// Connected reports whether the transport has not been explicitly closed
// (it may still be mid-reconnection attempt after a read failure).
func (t *Transport) Connected() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return !t.closed
}

func (t *Transport) probeLiveness(core *correlation.Core) error {
	pingReq, ok := t.cat.ByName("SYS.Ping.Req")
	if !ok {
		return fmt.Errorf("catalog is missing SYS.Ping.Req")
	}
	inst, err := command.New(pingReq, map[string]any{})
	if err != nil {
		return err
	}

	_, err = core.Request(inst, nil)
	return err
}

// dispatchLoop is the single goroutine that reads decoded bytes off the
// wire and feeds them to the correlation core active at attach time. port
// and core are the generation this goroutine was started for; an
// unexpected read error (anything other than this exact port having been
// closed on purpose) triggers the reconnection policy. If the transport
// has since moved to a newer generation (another attach already
// succeeded), this goroutine simply exits.
func (t *Transport) dispatchLoop(port *Port, core *correlation.Core) {
	decoder := mt.NewDecoder()
	buf := make([]byte, 1)

	for {
		b, err := port.ReadByte()
		if err != nil {
			t.mu.Lock()
			current := t.port
			closed := t.closed
			t.mu.Unlock()
			if closed || current != port {
				return
			}
			log.Error().Err(err).Msg("serial read failed, treating as unexpected disconnect")
			t.onUnexpectedDisconnect(core)
			return
		}
		buf[0] = b
		for _, frame := range decoder.Feed(buf) {
			core.HandleFrame(frame)
		}
	}
}

// onUnexpectedDisconnect cancels every listener on the core that just
// lost its transport, then, if configured, starts a reconnection task
// retrying attach + app.Startup indefinitely, sleeping the configured
// retry delay between attempts.
func (t *Transport) onUnexpectedDisconnect(core *correlation.Core) {
	core.Close()

	if !t.cfg.AutoReconnect {
		return
	}

	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return
	}
	cancel := make(chan struct{})
	t.reconnect = cancel
	t.mu.Unlock()

	go t.reconnectLoop(cancel)
}

func (t *Transport) reconnectLoop(cancel chan struct{}) {
	for {
		select {
		case <-cancel:
			return
		default:
		}

		if err := t.attach(); err != nil {
			log.Warn().Err(err).Msg("reconnect attempt failed")
			select {
			case <-cancel:
				return
			case <-time.After(t.cfg.AutoReconnectRetryDelay):
				continue
			}
		}

		if err := t.app.Startup(context.Background(), false); err != nil {
			log.Warn().Err(err).Msg("post-reconnect startup failed, retrying")
			select {
			case <-cancel:
				return
			case <-time.After(t.cfg.AutoReconnectRetryDelay):
				continue
			}
		}

		log.Info().Msg("reconnected and restarted application")
		return
	}
}

// Close idempotently tears down the serial port, cancels every pending
// listener, and cancels any in-flight reconnection task.
func (t *Transport) Close() error {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return nil
	}
	t.closed = true
	port, core, cancel := t.port, t.core, t.reconnect
	t.mu.Unlock()

	if cancel != nil {
		close(cancel)
	}
	if core != nil {
		core.Close()
	}
	if port != nil {
		return port.Close()
	}
	return nil
}
