// Package config implements the recognized ZNP configuration options and
// validates raw JSON documents against them before they are decoded into
// a typed Config.
package config

import (
	"encoding/json"
	"fmt"
	"time"
)

// FlowControl selects the serial flow-control mode.
type FlowControl string

const (
	FlowControlNone     FlowControl = ""
	FlowControlHardware FlowControl = "hardware"
	FlowControlSoftware FlowControl = "software"
)

// Defaults applied when the corresponding configuration keys are omitted.
const (
	DefaultBaudRate           = 115200
	DefaultSREQTimeoutSeconds = 5
	DefaultReconnectDelaySecs = 5
)

// raw mirrors the on-disk JSON shape; Config is decoded from it after
// schema validation so zero values (omitted keys) can be told apart from
// explicit zero.
type raw struct {
	Device struct {
		Path        string  `json:"path"`
		BaudRate    *int    `json:"baudrate"`
		FlowControl *string `json:"flow_control"`
	} `json:"device"`
	ZNPConfig struct {
		TxPower                 *int     `json:"tx_power"`
		SREQTimeout             *float64 `json:"sreq_timeout"`
		AutoReconnect           *bool    `json:"auto_reconnect"`
		AutoReconnectRetryDelay *float64 `json:"auto_reconnect_retry_delay"`
	} `json:"znp_config"`
}

// Config is the validated, defaulted runtime configuration.
type Config struct {
	DevicePath              string // "auto" triggers probe-based autodetection
	BaudRate                int
	FlowControl             FlowControl
	TxPower                 *int // nil means "leave as-is"
	SREQTimeout             time.Duration
	AutoReconnect           bool
	AutoReconnectRetryDelay time.Duration
}

// ErrValidation wraps a schema or range validation failure.
var ErrValidation = fmt.Errorf("invalid znp configuration")

// Load validates doc against the recognized-options JSON Schema (Validate)
// and decodes it into a Config with
// the recognized-options table's defaults applied.
func Load(doc json.RawMessage) (Config, error) {
	if err := Validate(doc); err != nil {
		return Config{}, err
	}

	var r raw
	if err := json.Unmarshal(doc, &r); err != nil {
		return Config{}, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	cfg := Config{
		DevicePath:              r.Device.Path,
		BaudRate:                DefaultBaudRate,
		FlowControl:             FlowControlNone,
		SREQTimeout:             DefaultSREQTimeoutSeconds * time.Second,
		AutoReconnect:           true,
		AutoReconnectRetryDelay: DefaultReconnectDelaySecs * time.Second,
	}

	if r.Device.BaudRate != nil {
		cfg.BaudRate = *r.Device.BaudRate
	}
	if r.Device.FlowControl != nil {
		cfg.FlowControl = FlowControl(*r.Device.FlowControl)
	}
	if r.ZNPConfig.TxPower != nil {
		cfg.TxPower = r.ZNPConfig.TxPower
	}
	if r.ZNPConfig.SREQTimeout != nil {
		cfg.SREQTimeout = time.Duration(*r.ZNPConfig.SREQTimeout * float64(time.Second))
	}
	if r.ZNPConfig.AutoReconnect != nil {
		cfg.AutoReconnect = *r.ZNPConfig.AutoReconnect
	}
	if r.ZNPConfig.AutoReconnectRetryDelay != nil {
		cfg.AutoReconnectRetryDelay = time.Duration(*r.ZNPConfig.AutoReconnectRetryDelay * float64(time.Second))
	}

	if cfg.DevicePath == "" {
		return Config{}, fmt.Errorf("%w: device.path is required", ErrValidation)
	}
	if cfg.TxPower != nil && (*cfg.TxPower < -22 || *cfg.TxPower > 19) {
		return Config{}, fmt.Errorf("%w: znp_config.tx_power %d out of range [-22,19]", ErrValidation, *cfg.TxPower)
	}
	if cfg.SREQTimeout < 0 {
		return Config{}, fmt.Errorf("%w: znp_config.sreq_timeout must be non-negative", ErrValidation)
	}
	if cfg.AutoReconnectRetryDelay < 0 {
		return Config{}, fmt.Errorf("%w: znp_config.auto_reconnect_retry_delay must be non-negative", ErrValidation)
	}

	return cfg, nil
}
