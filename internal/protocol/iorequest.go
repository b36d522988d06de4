package protocol

import "encoding/binary"

// RequestKind enumerates the CPU→I/O request kinds (spec §4.3).
type RequestKind uint8

const (
	ReqPortRead RequestKind = iota
	ReqPortWrite
	ReqMmioRead
	ReqMmioWrite
	ReqSerialNotify
)

// IORequest is one CPU↔I/O transport request record. Fixed-size and
// little-endian so it can be pushed/popped through an shm.Ring unchanged.
type IORequest struct {
	Kind          RequestKind
	CorrelationID uint64
	Port          uint16
	Size          uint8
	Addr          uint64 // port number (PortRead/Write) or physical address (Mmio*)
	Value         uint64 // write value, or serial byte for SerialNotify
}

// IORequestSize is the packed wire size of one IORequest.
const IORequestSize = 1 + 1 + 8 + 8 + 8 // kind, size, correlation_id, addr, value

// Encode serializes the request in packed little-endian form.
func (r IORequest) Encode() []byte {
	buf := make([]byte, IORequestSize)
	buf[0] = byte(r.Kind)
	buf[1] = r.Size
	binary.LittleEndian.PutUint64(buf[2:], r.CorrelationID)
	binary.LittleEndian.PutUint64(buf[10:], r.Addr)
	binary.LittleEndian.PutUint64(buf[18:], r.Value)
	return buf
}

// DecodeIORequest parses a packed little-endian request.
func DecodeIORequest(buf []byte) (IORequest, bool) {
	if len(buf) < IORequestSize {
		return IORequest{}, false
	}
	return IORequest{
		Kind:          RequestKind(buf[0]),
		Size:          buf[1],
		CorrelationID: binary.LittleEndian.Uint64(buf[2:]),
		Addr:          binary.LittleEndian.Uint64(buf[10:]),
		Value:         binary.LittleEndian.Uint64(buf[18:]),
	}, true
}

// IOResponseStatus enumerates outcomes posted back on the response ring.
type IOResponseStatus uint8

const (
	RespOK IOResponseStatus = iota
	RespProtocolViolation
)

// IOResponse is the I/O worker's reply, matched to its request by
// CorrelationID (spec §4.3: "responses may arrive out of order").
type IOResponse struct {
	CorrelationID uint64
	Status        IOResponseStatus
	Value         uint64
}

// IOResponseSize is the packed wire size of one IOResponse.
const IOResponseSize = 8 + 1 + 8

// Encode serializes the response in packed little-endian form.
func (r IOResponse) Encode() []byte {
	buf := make([]byte, IOResponseSize)
	binary.LittleEndian.PutUint64(buf[0:], r.CorrelationID)
	buf[8] = byte(r.Status)
	binary.LittleEndian.PutUint64(buf[9:], r.Value)
	return buf
}

// DecodeIOResponse parses a packed little-endian response.
func DecodeIOResponse(buf []byte) (IOResponse, bool) {
	if len(buf) < IOResponseSize {
		return IOResponse{}, false
	}
	return IOResponse{
		CorrelationID: binary.LittleEndian.Uint64(buf[0:]),
		Status:        IOResponseStatus(buf[8]),
		Value:         binary.LittleEndian.Uint64(buf[9:]),
	}, true
}
