// Package tcpmux implements the wire framing of the aero-tcp-mux-v1
// subprotocol (spec §6): a pure encode/decode codec with no business logic.
// The VM core neither originates nor terminates these frames — it only
// frames/deframes at the boundary with the external TCP-mux relay. Grounded
// on the teacher's runtime_ipc.go request/response wire handling (fixed
// header, length-prefixed payload, read-then-dispatch), generalized from a
// JSON-over-Unix-socket protocol to a fixed binary frame header.
package tcpmux

import (
	"encoding/binary"
	"fmt"
	"io"
)

// MsgType discriminates aero-tcp-mux-v1 frame kinds.
type MsgType uint8

const (
	MsgOpen  MsgType = 1
	MsgData  MsgType = 2
	MsgClose MsgType = 3
	MsgError MsgType = 4
	MsgPing  MsgType = 5
	MsgPong  MsgType = 6
)

func (t MsgType) String() string {
	switch t {
	case MsgOpen:
		return "OPEN"
	case MsgData:
		return "DATA"
	case MsgClose:
		return "CLOSE"
	case MsgError:
		return "ERROR"
	case MsgPing:
		return "PING"
	case MsgPong:
		return "PONG"
	default:
		return fmt.Sprintf("MsgType(%d)", uint8(t))
	}
}

// PingPongStreamID is the reserved stream_id for PING/PONG frames.
const PingPongStreamID = 0

// headerSize is {msg_type: u8, stream_id: u32be, length: u32be}.
const headerSize = 1 + 4 + 4

// Frame is one aero-tcp-mux-v1 frame.
type Frame struct {
	Type     MsgType
	StreamID uint32
	Payload  []byte
}

// Encode serializes f as {msg_type: u8, stream_id: u32be, length: u32be,
// payload[length]}.
func Encode(f Frame) []byte {
	buf := make([]byte, headerSize+len(f.Payload))
	buf[0] = byte(f.Type)
	binary.BigEndian.PutUint32(buf[1:5], f.StreamID)
	binary.BigEndian.PutUint32(buf[5:9], uint32(len(f.Payload)))
	copy(buf[9:], f.Payload)
	return buf
}

// WriteFrame encodes f and writes it to w.
func WriteFrame(w io.Writer, f Frame) error {
	_, err := w.Write(Encode(f))
	return err
}

// Decode parses exactly one frame from buf, returning the frame and the
// number of bytes consumed. ok is false if buf does not yet hold a complete
// frame (the caller should read more and retry) — this is not a protocol
// violation, just a short read.
func Decode(buf []byte) (f Frame, consumed int, ok bool) {
	if len(buf) < headerSize {
		return Frame{}, 0, false
	}
	msgType := MsgType(buf[0])
	streamID := binary.BigEndian.Uint32(buf[1:5])
	length := binary.BigEndian.Uint32(buf[5:9])
	total := headerSize + int(length)
	if len(buf) < total {
		return Frame{}, 0, false
	}
	payload := append([]byte(nil), buf[headerSize:total]...)
	return Frame{Type: msgType, StreamID: streamID, Payload: payload}, total, true
}

// ReadFrame reads exactly one frame from r, blocking until the header and
// full payload have arrived.
func ReadFrame(r io.Reader) (Frame, error) {
	var hdr [headerSize]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		return Frame{}, err
	}
	msgType := MsgType(hdr[0])
	streamID := binary.BigEndian.Uint32(hdr[1:5])
	length := binary.BigEndian.Uint32(hdr[5:9])

	payload := make([]byte, length)
	if length > 0 {
		if _, err := io.ReadFull(r, payload); err != nil {
			return Frame{}, err
		}
	}
	return Frame{Type: msgType, StreamID: streamID, Payload: payload}, nil
}
