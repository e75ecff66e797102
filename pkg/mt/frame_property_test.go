package mt

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

// TestProperty_FrameRoundTrip checks that for every valid (header,
// payload) with 0 <= len(payload) <= 250, decoding an encoded frame
// reproduces it exactly.
func TestProperty_FrameRoundTrip(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		header := NewHeader(
			FrameType(rapid.IntRange(0, 7).Draw(t, "type")),
			Subsystem(rapid.IntRange(0, 31).Draw(t, "subsystem")),
			uint8(rapid.IntRange(0, 255).Draw(t, "id")),
		)
		payload := rapid.SliceOfN(rapid.Byte(), 0, MaxPayloadLen).Draw(t, "payload")

		frame, err := NewGeneralFrame(header, payload)
		assert.NoError(t, err)

		wire, err := Encode(frame)
		assert.NoError(t, err)

		d := NewDecoder()
		got := d.Feed(wire)
		assert.Len(t, got, 1)
		assert.Equal(t, frame.Header, got[0].Header)
		assert.Equal(t, frame.Payload, got[0].Payload)
	})
}

// TestProperty_HeaderSetterCommutativity checks that applying
// With{ID,Type,Subsystem} in any order yields the same header.
func TestProperty_HeaderSetterCommutativity(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		base := NewHeader(
			FrameType(rapid.IntRange(0, 7).Draw(t, "baseType")),
			Subsystem(rapid.IntRange(0, 31).Draw(t, "baseSubsystem")),
			uint8(rapid.IntRange(0, 255).Draw(t, "baseID")),
		)
		newType := FrameType(rapid.IntRange(0, 7).Draw(t, "type"))
		newSubsystem := Subsystem(rapid.IntRange(0, 31).Draw(t, "subsystem"))
		newID := uint8(rapid.IntRange(0, 255).Draw(t, "id"))

		a := base.WithID(newID).WithType(newType).WithSubsystem(newSubsystem)
		b := base.WithType(newType).WithSubsystem(newSubsystem).WithID(newID)
		c := base.WithSubsystem(newSubsystem).WithID(newID).WithType(newType)

		assert.Equal(t, a, b)
		assert.Equal(t, a, c)
		assert.Equal(t, newType, a.Type)
		assert.Equal(t, newSubsystem, a.Subsystem)
		assert.Equal(t, newID, a.ID)
	})
}
