package ipc

import (
	"bytes"
	"encoding/binary"
	"strings"
	"testing"
)

func TestEnvelopeRoundTrip(t *testing.T) {
	env, err := NewEnvelope("speech", map[string]any{"unit_id": "u1", "line": "Moving out."})
	if err != nil {
		t.Fatalf("NewEnvelope failed: %v", err)
	}

	var buf bytes.Buffer
	if err := WriteEnvelope(&buf, env); err != nil {
		t.Fatalf("WriteEnvelope failed: %v", err)
	}

	got, err := ReadEnvelope(&buf)
	if err != nil {
		t.Fatalf("ReadEnvelope failed: %v", err)
	}
	if got.Type != "speech" {
		t.Errorf("expected type speech, got %q", got.Type)
	}
	if !strings.Contains(string(got.Data), "Moving out.") {
		t.Errorf("payload lost in transit: %s", got.Data)
	}
}

func TestReadEnvelopeRejectsBadFrameLength(t *testing.T) {
	cases := map[string]uint32{
		"zero":      0,
		"oversized": maxFrameBytes + 1,
	}
	for name, frameLen := range cases {
		var buf bytes.Buffer
		if err := binary.Write(&buf, binary.LittleEndian, frameLen); err != nil {
			t.Fatalf("%s: prefix write failed: %v", name, err)
		}
		if _, err := ReadEnvelope(&buf); err == nil {
			t.Errorf("%s: frame length %d should be rejected", name, frameLen)
		}
	}
}

func TestReadEnvelopeTruncatedFrame(t *testing.T) {
	var buf bytes.Buffer
	if err := binary.Write(&buf, binary.LittleEndian, uint32(64)); err != nil {
		t.Fatalf("prefix write failed: %v", err)
	}
	buf.WriteString(`{"type":`) // far short of the declared 64 bytes

	if _, err := ReadEnvelope(&buf); err == nil {
		t.Error("truncated frame should be an error")
	}
}
