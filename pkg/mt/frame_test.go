package mt

import (
	"bytes"
	"testing"
)

// TestEncode_CommandNotRecognized checks a known MT wire example: encoding
// CommandNotRecognized.Rsp(ErrorCode=0x01, RequestHeader=0xABCD) must
// yield "FE 03 60 00 01 CD AB" before the FCS byte.
func TestEncode_CommandNotRecognized(t *testing.T) {
	header := NewHeader(FrameTypeSRSP, SubsystemRPCError, 0x00)
	payload := []byte{0x01, 0xCD, 0xAB} // ErrorCode=0x01, RequestHeader LE(0xABCD)

	frame, err := NewGeneralFrame(header, payload)
	if err != nil {
		t.Fatalf("NewGeneralFrame: %v", err)
	}

	got, err := Encode(frame)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	want := []byte{0xFE, 0x03, 0x60, 0x00, 0x01, 0xCD, 0xAB}
	if !bytes.Equal(got[:len(got)-1], want) {
		t.Fatalf("prefix = % X, want % X", got[:len(got)-1], want)
	}
}

func TestNewGeneralFrame_RejectsOversizePayload(t *testing.T) {
	payload := make([]byte, MaxPayloadLen+1)
	_, err := NewGeneralFrame(NewHeader(FrameTypeAREQ, SubsystemSYS, 0x00), payload)
	if err == nil {
		t.Fatal("expected oversize payload to be rejected")
	}
}

func TestDecoder_RoundTrip(t *testing.T) {
	header := NewHeader(FrameTypeSREQ, SubsystemSYS, 0x01)
	payload := []byte{0xDE, 0xAD, 0xBE, 0xEF}
	frame, err := NewGeneralFrame(header, payload)
	if err != nil {
		t.Fatalf("NewGeneralFrame: %v", err)
	}

	wire, err := Encode(frame)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	d := NewDecoder()
	got := d.Feed(wire)
	if len(got) != 1 {
		t.Fatalf("expected 1 frame, got %d", len(got))
	}
	if got[0].Header != frame.Header {
		t.Fatalf("header = %v, want %v", got[0].Header, frame.Header)
	}
	if !bytes.Equal(got[0].Payload, frame.Payload) {
		t.Fatalf("payload = % X, want % X", got[0].Payload, frame.Payload)
	}
}

func TestDecoder_DiscardsBadFCS(t *testing.T) {
	header := NewHeader(FrameTypeSREQ, SubsystemSYS, 0x01)
	frame, _ := NewGeneralFrame(header, []byte{0x01})
	wire, _ := Encode(frame)
	wire[len(wire)-1] ^= 0xFF // corrupt FCS

	d := NewDecoder()
	if got := d.Feed(wire); len(got) != 0 {
		t.Fatalf("expected corrupted frame to be discarded, got %d frames", len(got))
	}
}

func TestDecoder_ResyncsAfterGarbage(t *testing.T) {
	header := NewHeader(FrameTypeSREQ, SubsystemSYS, 0x01)
	frame, _ := NewGeneralFrame(header, []byte{0x01})
	wire, _ := Encode(frame)

	d := NewDecoder()
	garbage := []byte{0x00, 0x11, 0x22, SOF, 0xFF} // stray SOF-looking junk then an oversize length
	got := d.Feed(garbage)
	if len(got) != 0 {
		t.Fatalf("expected no frames from garbage, got %d", len(got))
	}

	got = d.Feed(wire)
	if len(got) != 1 {
		t.Fatalf("expected decoder to resync and decode 1 frame, got %d", len(got))
	}
}

func TestDecoder_MultipleFramesInOneFeed(t *testing.T) {
	h1 := NewHeader(FrameTypeAREQ, SubsystemZDO, 0x01)
	h2 := NewHeader(FrameTypeSRSP, SubsystemSYS, 0x02)
	f1, _ := NewGeneralFrame(h1, []byte{0x01})
	f2, _ := NewGeneralFrame(h2, []byte{0x02, 0x03})
	w1, _ := Encode(f1)
	w2, _ := Encode(f2)

	d := NewDecoder()
	got := d.Feed(append(append([]byte{}, w1...), w2...))
	if len(got) != 2 {
		t.Fatalf("expected 2 frames, got %d", len(got))
	}
	if got[0].Header != h1 || got[1].Header != h2 {
		t.Fatalf("frames out of order or wrong header: %+v", got)
	}
}
