package config

import (
	"testing"
	"time"
)

func TestLoad_AppliesDefaults(t *testing.T) {
	cfg, err := Load([]byte(`{"device": {"path": "/dev/ttyUSB0"}}`))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.BaudRate != DefaultBaudRate {
		t.Errorf("BaudRate = %d, want %d", cfg.BaudRate, DefaultBaudRate)
	}
	if cfg.SREQTimeout != DefaultSREQTimeoutSeconds*time.Second {
		t.Errorf("SREQTimeout = %v, want %v", cfg.SREQTimeout, DefaultSREQTimeoutSeconds*time.Second)
	}
	if !cfg.AutoReconnect {
		t.Error("expected AutoReconnect to default true")
	}
	if cfg.FlowControl != FlowControlNone {
		t.Errorf("FlowControl = %q, want none", cfg.FlowControl)
	}
}

func TestLoad_RejectsMissingPath(t *testing.T) {
	if _, err := Load([]byte(`{"device": {}}`)); err == nil {
		t.Fatal("expected validation error for missing device.path")
	}
}

func TestLoad_RejectsOutOfRangeTxPower(t *testing.T) {
	doc := []byte(`{"device": {"path": "auto"}, "znp_config": {"tx_power": 40}}`)
	if _, err := Load(doc); err == nil {
		t.Fatal("expected tx_power out of [-22,19] to be rejected")
	}
}

func TestLoad_RejectsUnknownFlowControlValue(t *testing.T) {
	doc := []byte(`{"device": {"path": "/dev/ttyUSB0", "flow_control": "telepathic"}}`)
	if _, err := Load(doc); err == nil {
		t.Fatal("expected an unrecognized flow_control value to be rejected")
	}
}

func TestLoad_HonorsExplicitValues(t *testing.T) {
	doc := []byte(`{
		"device": {"path": "auto", "baudrate": 57600, "flow_control": "hardware"},
		"znp_config": {"tx_power": -10, "sreq_timeout": 2.5, "auto_reconnect": false, "auto_reconnect_retry_delay": 1.5}
	}`)
	cfg, err := Load(doc)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.DevicePath != "auto" {
		t.Errorf("DevicePath = %q, want auto", cfg.DevicePath)
	}
	if cfg.BaudRate != 57600 {
		t.Errorf("BaudRate = %d, want 57600", cfg.BaudRate)
	}
	if cfg.FlowControl != FlowControlHardware {
		t.Errorf("FlowControl = %q, want hardware", cfg.FlowControl)
	}
	if cfg.TxPower == nil || *cfg.TxPower != -10 {
		t.Errorf("TxPower = %v, want -10", cfg.TxPower)
	}
	if cfg.SREQTimeout != 2500*time.Millisecond {
		t.Errorf("SREQTimeout = %v, want 2.5s", cfg.SREQTimeout)
	}
	if cfg.AutoReconnect {
		t.Error("expected AutoReconnect=false to be honored")
	}
	if cfg.AutoReconnectRetryDelay != 1500*time.Millisecond {
		t.Errorf("AutoReconnectRetryDelay = %v, want 1.5s", cfg.AutoReconnectRetryDelay)
	}
}
