package ipc

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
)

// maxFrameBytes bounds a single envelope. Snapshot batches grow with the
// unit count, so the ceiling is generous; anything past it is a corrupted
// prefix or a misbehaving host.
const maxFrameBytes = 4 << 20

// Envelope is the framed wire unit exchanged with the host game: a type tag
// plus an opaque payload. Data stays raw so each handler decodes only its
// own message shape.
type Envelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

func NewEnvelope(msgType string, data any) (Envelope, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return Envelope{}, fmt.Errorf("encode %s payload: %w", msgType, err)
	}
	return Envelope{Type: msgType, Data: raw}, nil
}

// ReadEnvelope reads one envelope: a 4-byte little-endian frame length
// followed by that many bytes of JSON.
func ReadEnvelope(r io.Reader) (Envelope, error) {
	var frameLen uint32
	if err := binary.Read(r, binary.LittleEndian, &frameLen); err != nil {
		return Envelope{}, fmt.Errorf("read frame length: %w", err)
	}
	if frameLen == 0 || frameLen > maxFrameBytes {
		return Envelope{}, fmt.Errorf("frame length %d outside (0, %d]", frameLen, maxFrameBytes)
	}

	frame := make([]byte, frameLen)
	if _, err := io.ReadFull(r, frame); err != nil {
		return Envelope{}, fmt.Errorf("read %d-byte frame: %w", frameLen, err)
	}

	var env Envelope
	if err := json.Unmarshal(frame, &env); err != nil {
		return Envelope{}, fmt.Errorf("decode envelope: %w", err)
	}
	return env, nil
}

// WriteEnvelope frames and writes one envelope. The caller serializes
// concurrent writers; interleaved frames are unrecoverable.
func WriteEnvelope(w io.Writer, env Envelope) error {
	frame, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("encode envelope: %w", err)
	}
	if len(frame) > maxFrameBytes {
		return fmt.Errorf("envelope %s is %d bytes, over the %d byte frame limit", env.Type, len(frame), maxFrameBytes)
	}

	if err := binary.Write(w, binary.LittleEndian, uint32(len(frame))); err != nil {
		return fmt.Errorf("write frame length: %w", err)
	}
	if _, err := w.Write(frame); err != nil {
		return fmt.Errorf("write frame: %w", err)
	}
	return nil
}
