// Package znp is the glue between the correlation core, the transport, and
// whatever higher-level controller an embedding application supplies. znp
// owns attach, detach, reconnection, the radio bring-up sequence, and
// exposing the correlation core's request surface; Zigbee cluster and
// device logic stays with the embedding application.
package znp

import (
	"context"
	"fmt"

	"github.com/urmzd/go-znp/pkg/mt/catalog"
	"github.com/urmzd/go-znp/pkg/mt/command"
	"github.com/urmzd/go-znp/pkg/znp/config"
	"github.com/urmzd/go-znp/pkg/znp/correlation"
	"github.com/urmzd/go-znp/pkg/znp/transport"
)

// Application is implemented by whatever sits above the driver. Startup is
// called once after the initial Connect succeeds and again after every
// successful reconnection, with autoForm indicating whether network
// formation should be attempted (false on reconnect, since the network
// already exists on the radio). The driver's own bring-up sequence
// (RunStartup) has already completed by the time Startup is called.
type Application interface {
	Startup(ctx context.Context, autoForm bool) error
}

// NoopApplication is a zero-behavior Application, useful for tools that
// only need the attach/probe surface (cmd/znpprobe) and have no network
// controller of their own to start.
type NoopApplication struct{}

// Startup implements Application by doing nothing.
func (NoopApplication) Startup(context.Context, bool) error { return nil }

// Controller owns a live attachment to a ZNP radio: the transport, its
// correlation core, and the catalog both are built from.
type Controller struct {
	cat *catalog.Catalog
	cfg config.Config
	app Application
	t   *transport.Transport
}

// startupHook adapts a Controller into the transport's reconnection
// callback: it runs the driver bring-up sequence against the freshly
// attached core, then hands off to the embedding application.
type startupHook struct {
	c *Controller
}

func (h startupHook) Startup(ctx context.Context, autoForm bool) error {
	if err := RunStartup(ctx, h.c.Core(), h.c.cat, h.c.cfg, autoForm); err != nil {
		return err
	}
	return h.c.app.Startup(ctx, autoForm)
}

// Connect opens cfg's device — autodetecting it first when device.path is
// "auto" — and brings up the reconnecting transport over the default
// command catalog. The driver startup sequence and app.Startup(ctx, true)
// run once the initial attach succeeds.
func Connect(ctx context.Context, cfg config.Config, app Application) (*Controller, error) {
	cat, err := catalog.Default()
	if err != nil {
		return nil, fmt.Errorf("build default catalog: %w", err)
	}

	if cfg.DevicePath == "auto" {
		path, err := transport.Autodetect(cfg, cat)
		if err != nil {
			return nil, err
		}
		cfg.DevicePath = path
	}

	c := &Controller{cat: cat, cfg: cfg, app: app}

	t, err := transport.Connect(cfg, cat, startupHook{c})
	if err != nil {
		return nil, err
	}
	c.t = t

	if err := (startupHook{c}).Startup(ctx, true); err != nil {
		_ = t.Close()
		return nil, fmt.Errorf("startup: %w", err)
	}

	return c, nil
}

// Catalog returns the command catalog this controller was built from.
func (c *Controller) Catalog() *catalog.Catalog { return c.cat }

// Core returns the correlation core, the seam through which callers issue
// Request, WaitForResponse, and CallbackForResponse calls against specific
// command classes looked up from Catalog().
func (c *Controller) Core() *correlation.Core { return c.t.Core() }

// Close tears down the transport: the serial port, the dispatcher
// goroutine, and any pending reconnection attempt.
func (c *Controller) Close() error { return c.t.Close() }

// Connected reports whether the underlying transport has not been closed;
// it stays true while a reconnection attempt is in progress.
func (c *Controller) Connected() bool { return c.t.Connected() }

// Request is a thin convenience wrapper over Core().Request, kept here so
// most callers never need to import pkg/znp/correlation directly.
func (c *Controller) Request(req command.Instance, rspConstraints map[string]any) (command.Instance, error) {
	return c.Core().Request(req, rspConstraints)
}

// WaitForResponse blocks until an inbound command of class matching
// constraints arrives, the transport is lost, or the SREQ timeout elapses.
func (c *Controller) WaitForResponse(class *catalog.Class, constraints map[string]any) (command.Instance, error) {
	return c.Core().WaitForResponse(class, constraints)
}

// WaitForResponses blocks until the first inbound command matching any of
// patterns arrives.
func (c *Controller) WaitForResponses(patterns []command.Instance) (command.Instance, error) {
	return c.Core().WaitForResponses(patterns)
}

// CallbackForResponse invokes fn for every inbound command of class
// matching constraints until the returned cancel function is called or the
// connection is torn down.
func (c *Controller) CallbackForResponse(class *catalog.Class, constraints map[string]any, fn func(command.Instance)) (func(), error) {
	return c.Core().CallbackForResponse(class, constraints, fn)
}

// CallbackForResponses invokes fn for every inbound command matching any
// of patterns.
func (c *Controller) CallbackForResponses(patterns []command.Instance, fn func(command.Instance)) (func(), error) {
	return c.Core().CallbackForResponses(patterns, fn)
}

// NVRAMWrite issues the base SYS.NVWrite primitive: write value into the
// addressed NV item at offset, failing unless the radio reports success.
// Higher-level NVRAM conveniences are deliberately left to callers.
func (c *Controller) NVRAMWrite(sysID uint8, itemID, subID, offset uint16, value []byte) error {
	class, ok := c.cat.ByName("SYS.NVWrite.Req")
	if !ok {
		return fmt.Errorf("catalog is missing SYS.NVWrite.Req")
	}

	req, err := command.New(class, map[string]any{
		"SysId":  sysID,
		"ItemId": itemID,
		"SubId":  subID,
		"Offset": offset,
		"Value":  value,
	})
	if err != nil {
		return err
	}

	_, err = c.Core().Request(req, map[string]any{"Status": uint8(0)})
	if err != nil {
		return fmt.Errorf("nvram write item %#04x: %w", itemID, err)
	}
	return nil
}
