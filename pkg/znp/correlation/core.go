// Package correlation implements the request/response correlation core:
// a listener registry dispatching decoded MT commands to one-shot waiters
// and persistent callbacks, an SREQ mutex enforcing at-most-one
// outstanding synchronous request, and the composite Request and
// RequestCallbackRsp operations the controller layer is built from.
package correlation

import (
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/urmzd/go-znp/pkg/mt"
	"github.com/urmzd/go-znp/pkg/mt/catalog"
	"github.com/urmzd/go-znp/pkg/mt/command"
)

// DefaultSREQTimeout is used when Core is constructed with a zero timeout.
const DefaultSREQTimeout = 5 * time.Second

// Sender is the write side of the transport: Core never touches the UART
// directly, only through this seam.
type Sender interface {
	Send(frame mt.GeneralFrame) error
}

// Core owns the listener registry and the SREQ mutex. It is safe for
// concurrent use: Dispatch is expected to be called serially from a
// single dispatcher goroutine (the transport's read loop), while Request,
// WaitForResponse and CallbackForResponse may be called concurrently from
// other goroutines.
type Core struct {
	cat     *catalog.Catalog
	sender  Sender
	timeout time.Duration

	reg *registry

	sreqMu sync.Mutex

	notRecognized *catalog.Class
}

// New builds a correlation core over cat, writing outbound frames through
// sender. timeout is the default SREQ wait (DefaultSREQTimeout if zero).
func New(cat *catalog.Catalog, sender Sender, timeout time.Duration) (*Core, error) {
	if timeout <= 0 {
		timeout = DefaultSREQTimeout
	}
	notRecognized, ok := cat.ByName("RPC_ERROR.CommandNotRecognized.Rsp")
	if !ok {
		return nil, fmt.Errorf("catalog is missing the distinguished RPC_ERROR.CommandNotRecognized.Rsp entry")
	}
	return &Core{
		cat:           cat,
		sender:        sender,
		timeout:       timeout,
		reg:           newRegistry(),
		notRecognized: notRecognized,
	}, nil
}

// HandleFrame decodes frame against the catalog and dispatches it to
// registered listeners. It is the single entry point the transport's read
// loop calls for every decoded frame, which is what makes dispatch
// effectively single-threaded even though Core itself uses a
// mutex to guard the registry against concurrent Register* calls.
func (c *Core) HandleFrame(frame mt.GeneralFrame) {
	class, err := c.cat.Lookup(frame.Header)
	if err != nil {
		log.Warn().Str("header", frame.Header.String()).Msg("unknown command header, frame dropped")
		return
	}

	inst, err := command.FromFrame(class, frame, true)
	if err != nil {
		log.Warn().Err(err).Str("class", class.Name).Msg("failed to deserialize inbound command")
		return
	}

	c.Dispatch(inst)
}

// Dispatch resolves inst against every listener registered under its
// header, in registration order, and logs "unhandled command" if none
// matched.
func (c *Core) Dispatch(inst command.Instance) {
	entries := c.reg.entriesFor(inst.Class().Header)
	matched := false

	for _, e := range entries {
		if !e.matchesAny(inst) {
			continue
		}
		matched = true

		switch {
		case e.oneShot != nil:
			if !e.oneShot.resolve(inst) {
				log.Debug().Str("class", inst.Class().Name).Msg("one-shot listener already resolved, ignoring duplicate match")
			}
		case e.cb != nil:
			e.cb.invoke(inst)
		}
	}

	if !matched {
		log.Warn().Str("class", inst.Class().Name).Msg("unhandled command")
	}
}

// Request is the central outbound operation. For an
// AREQ-with-request class it serializes and sends req, returning
// immediately. For an SREQ class it enforces the SREQ mutex, registers a
// one-shot listener that accepts either a matching Rsp or the
// distinguished CommandNotRecognized response tagged with req's header,
// sends req, and waits up to the core's configured timeout.
func (c *Core) Request(req command.Instance, rspConstraints map[string]any) (command.Instance, error) {
	class := req.Class()
	if class.Kind != catalog.KindReq {
		return command.Instance{}, fmt.Errorf("%w: %s is not a request class", ErrNotSREQ, class.Name)
	}

	if class.Def.Type == mt.FrameTypeAREQ {
		if class.Rsp != nil {
			return command.Instance{}, fmt.Errorf("%w: %s", ErrNotSREQ, class.Name)
		}
		frame, err := req.ToFrame()
		if err != nil {
			return command.Instance{}, err
		}
		if err := c.sender.Send(frame); err != nil {
			return command.Instance{}, fmt.Errorf("send %s: %w", class.Name, err)
		}
		return command.Instance{}, nil
	}

	if class.Rsp == nil {
		return command.Instance{}, fmt.Errorf("%w: %s", ErrNotSREQ, class.Name)
	}
	rspClass := class.Rsp

	// Constraints are checked against the arrived response, not used to
	// filter the listener: a response that fails them must surface as an
	// invalid-response error, not go unhandled until the timeout fires.
	rspPattern, err := command.NewPartial(rspClass, rspConstraints)
	if err != nil {
		return command.Instance{}, fmt.Errorf("invalid response constraints for %s: %w", rspClass.Name, err)
	}
	rspAny, err := command.NewPartial(rspClass, nil)
	if err != nil {
		return command.Instance{}, err
	}

	cnrPattern, err := command.NewPartial(c.notRecognized, map[string]any{
		"RequestHeader": uint16(class.Header.Raw()),
	})
	if err != nil {
		return command.Instance{}, fmt.Errorf("build CommandNotRecognized pattern: %w", err)
	}

	c.sreqMu.Lock()
	defer c.sreqMu.Unlock()

	os, err := c.listenOneShot([]command.Instance{rspAny, cnrPattern})
	if err != nil {
		return command.Instance{}, err
	}

	frame, err := req.ToFrame()
	if err != nil {
		os.cancel()
		return command.Instance{}, err
	}
	if err := c.sender.Send(frame); err != nil {
		os.cancel()
		return command.Instance{}, fmt.Errorf("send %s: %w", class.Name, err)
	}

	result, err := os.wait(c.timeout)
	if err != nil {
		return command.Instance{}, fmt.Errorf("%s: %w", class.Name, err)
	}

	if result.Class() == c.notRecognized {
		return command.Instance{}, fmt.Errorf("%w: %s", ErrCommandNotRecognized, class.Name)
	}
	if !result.Matches(rspPattern) {
		return command.Instance{}, fmt.Errorf("%w: %s", ErrInvalidResponse, rspClass.Name)
	}
	return result, nil
}

// listenOneShot registers a single one-shot listener accepting any of
// patterns. Patterns may span several classes (and therefore several
// headers); whichever arrives first resolves the shared slot exactly once.
func (c *Core) listenOneShot(patterns []command.Instance) (*oneShot, error) {
	if len(patterns) == 0 {
		return nil, ErrNoPatterns
	}
	os := newOneShot()
	for header, group := range groupByHeader(patterns) {
		c.reg.add(header, &entry{patterns: group, oneShot: os})
	}
	return os, nil
}

// groupByHeader buckets patterns by the header they are dispatched under.
func groupByHeader(patterns []command.Instance) map[mt.Header][]command.Instance {
	out := make(map[mt.Header][]command.Instance)
	for _, p := range patterns {
		h := p.Class().Header
		out[h] = append(out[h], p)
	}
	return out
}

// WaitForResponse registers a one-shot listener for class, constrained by
// constraints, and blocks up to the core's timeout. Used by controllers
// that need to await an inbound class without having sent a triggering
// SREQ themselves.
func (c *Core) WaitForResponse(class *catalog.Class, constraints map[string]any) (command.Instance, error) {
	pattern, err := command.NewPartial(class, constraints)
	if err != nil {
		return command.Instance{}, err
	}
	return c.WaitForResponses([]command.Instance{pattern})
}

// WaitForResponses registers a single one-shot listener accepting any of
// patterns, which may belong to different classes, and blocks until the
// first match, cancellation, or the core's timeout.
func (c *Core) WaitForResponses(patterns []command.Instance) (command.Instance, error) {
	os, err := c.listenOneShot(patterns)
	if err != nil {
		return command.Instance{}, err
	}
	return os.wait(c.timeout)
}

// CallbackForResponse registers a persistent callback for class matching
// constraints, invoked for every future match until the core is closed or
// the transport is lost. The returned cancel function additionally stops
// the callback from firing.
func (c *Core) CallbackForResponse(class *catalog.Class, constraints map[string]any, fn func(command.Instance)) (func(), error) {
	pattern, err := command.NewPartial(class, constraints)
	if err != nil {
		return nil, err
	}
	return c.CallbackForResponses([]command.Instance{pattern}, fn)
}

// CallbackForResponses registers a persistent callback accepting any of
// patterns, which may belong to different classes.
// The patterns registered under each header are
// reduced to their maximal elements, so one inbound command triggers fn at
// most once per dispatch.
func (c *Core) CallbackForResponses(patterns []command.Instance, fn func(command.Instance)) (func(), error) {
	if len(patterns) == 0 {
		return nil, ErrNoPatterns
	}
	cb := &callbackListener{fn: fn}
	for header, group := range groupByHeader(patterns) {
		c.reg.add(header, &entry{patterns: group, cb: cb})
	}
	return func() { cb.fn = func(command.Instance) {} }, nil
}

// RequestCallbackRsp registers a one-shot listener for the expected
// callback before sending req, issues the request, and only after the Rsp
// resolves does it await the callback — preventing the race where the
// asynchronous callback arrives before the synchronous response completes.
// req may also be an AREQ-with-request class (such as
// SYS.ResetReq), in which case Request returns immediately and rsp is the
// zero Instance; only the callback wait remains.
func (c *Core) RequestCallbackRsp(
	req command.Instance,
	rspConstraints map[string]any,
	callbackClass *catalog.Class,
	callbackConstraints map[string]any,
) (rsp command.Instance, callbackResult command.Instance, err error) {
	cbPattern, err := command.NewPartial(callbackClass, callbackConstraints)
	if err != nil {
		return command.Instance{}, command.Instance{}, err
	}
	cbOneShot, err := c.listenOneShot([]command.Instance{cbPattern})
	if err != nil {
		return command.Instance{}, command.Instance{}, err
	}

	rsp, err = c.Request(req, rspConstraints)
	if err != nil {
		cbOneShot.cancel()
		return command.Instance{}, command.Instance{}, err
	}

	callbackResult, err = cbOneShot.wait(c.timeout)
	if err != nil {
		return rsp, command.Instance{}, fmt.Errorf("waiting for %s callback: %w", callbackClass.Name, err)
	}
	return rsp, callbackResult, nil
}

// Close cancels every pending one-shot listener and discards every
// callback listener. It does not close the underlying transport; callers
// compose it with transport.Close.
func (c *Core) Close() {
	c.reg.cancelAll()
}
