package iotransport

import (
	"log"
	"time"

	"github.com/wilsonzlin/aero-sub000/internal/protocol"
	"github.com/wilsonzlin/aero-sub000/internal/shm"
)

// DeviceModel is the I/O worker's dispatch target for one request kind.
// Implementations live in the (out-of-scope) device layer — serial, PIC,
// PS/2, virtio control plane, HID bridge; the I/O worker only needs to route
// to them by kind.
type DeviceModel interface {
	PortRead(port uint16, size uint8) uint32
	PortWrite(port uint16, size uint8, value uint32)
	MmioRead(paddr uint64, size uint8) uint64
	MmioWrite(paddr uint64, size uint8, value uint64)
	SerialNotify(port uint16, b byte)
}

// Server is the I/O worker's side of the request/response ring pair.
type Server struct {
	reqRing  *shm.Ring
	respRing *shm.Ring
	devices  DeviceModel

	stop chan struct{}
	done chan struct{}
}

// NewServer wires a DeviceModel to the shared request/response rings.
func NewServer(reqRing, respRing *shm.Ring, devices DeviceModel) *Server {
	return &Server{
		reqRing:  reqRing,
		respRing: respRing,
		devices:  devices,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Run drains the request ring until Stop is called. It suspends on an empty
// request-ring wait (spec §5), polling with a short sleep between checks.
func (s *Server) Run() {
	defer close(s.done)
	for {
		select {
		case <-s.stop:
			return
		default:
		}
		raw, ok := s.reqRing.Pop()
		if !ok {
			time.Sleep(100 * time.Microsecond)
			continue
		}
		req, ok := protocol.DecodeIORequest(raw)
		if !ok {
			log.Printf("iotransport: dropping malformed request record (%d bytes)", len(raw))
			continue
		}
		s.dispatch(req)
	}
}

// Stop signals Run to return and waits for it to do so.
func (s *Server) Stop() {
	close(s.stop)
	<-s.done
}

func (s *Server) dispatch(req protocol.IORequest) {
	resp := protocol.IOResponse{CorrelationID: req.CorrelationID, Status: protocol.RespOK}
	switch req.Kind {
	case protocol.ReqPortRead:
		resp.Value = uint64(s.devices.PortRead(req.Port, req.Size))
	case protocol.ReqPortWrite:
		s.devices.PortWrite(req.Port, req.Size, uint32(req.Value))
	case protocol.ReqMmioRead:
		resp.Value = s.devices.MmioRead(req.Addr, req.Size)
	case protocol.ReqMmioWrite:
		s.devices.MmioWrite(req.Addr, req.Size, req.Value)
	case protocol.ReqSerialNotify:
		s.devices.SerialNotify(req.Port, byte(req.Value))
	default:
		resp.Status = protocol.RespProtocolViolation
		log.Printf("iotransport: unknown request kind %d (correlation %d)", req.Kind, req.CorrelationID)
	}
	if !s.respRing.TryPushSlice(resp.Encode()) {
		log.Printf("iotransport: response ring full, dropping reply for correlation %d", req.CorrelationID)
	}
}
