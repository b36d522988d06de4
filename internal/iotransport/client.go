// Package iotransport implements the CPU↔I/O request/response protocol
// (spec §4.3): the CPU worker's port/MMIO/serial calls serialize to request
// records on a shared request ring and block cooperatively on a response
// ring until a matching response arrives, correlated by id.
package iotransport

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/wilsonzlin/aero-sub000/internal/protocol"
	"github.com/wilsonzlin/aero-sub000/internal/shm"
)

// ErrStuck is returned when no response arrives before the deadline — the
// I/O worker is considered stuck (spec §4.3 Failure, §7 Peer disappearance).
type ErrStuck struct{ CorrelationID uint64 }

func (e ErrStuck) Error() string {
	return fmt.Sprintf("iotransport: no response for request %d before deadline", e.CorrelationID)
}

// Client is the CPU-side handle onto the request/response ring pair.
type Client struct {
	reqRing  *shm.Ring
	respRing *shm.Ring
	deadline time.Duration

	nextID atomic.Uint64

	mu      sync.Mutex
	waiters map[uint64]chan protocol.IOResponse

	pumpStop chan struct{}
	pumpDone chan struct{}
}

// NewClient wraps a request ring (CPU→I/O) and response ring (I/O→CPU) with
// the blocking-call protocol. The returned Client runs a background pump
// goroutine that drains respRing and wakes the matching waiter; call Close
// to stop it.
func NewClient(reqRing, respRing *shm.Ring, deadline time.Duration) *Client {
	c := &Client{
		reqRing:  reqRing,
		respRing: respRing,
		deadline: deadline,
		waiters:  make(map[uint64]chan protocol.IOResponse),
		pumpStop: make(chan struct{}),
		pumpDone: make(chan struct{}),
	}
	go c.pump()
	return c
}

// Close stops the response pump. Safe to call once.
func (c *Client) Close() {
	close(c.pumpStop)
	<-c.pumpDone
}

func (c *Client) pump() {
	defer close(c.pumpDone)
	for {
		select {
		case <-c.pumpStop:
			return
		default:
		}
		raw, ok := c.respRing.Pop()
		if !ok {
			time.Sleep(100 * time.Microsecond)
			continue
		}
		resp, ok := protocol.DecodeIOResponse(raw)
		if !ok {
			continue // protocol violation: malformed record, drop it (spec §7)
		}
		c.mu.Lock()
		ch, found := c.waiters[resp.CorrelationID]
		if found {
			delete(c.waiters, resp.CorrelationID)
		}
		c.mu.Unlock()
		if found {
			ch <- resp
		}
		// Unmatched correlation id: protocol violation, drop silently.
	}
}

// call pushes req onto the request ring (retrying with backoff while full)
// and waits for the matching response, or ErrStuck past the deadline.
func (c *Client) call(req protocol.IORequest) (protocol.IOResponse, error) {
	req.CorrelationID = c.nextID.Add(1)

	ch := make(chan protocol.IOResponse, 1)
	c.mu.Lock()
	c.waiters[req.CorrelationID] = ch
	c.mu.Unlock()

	backoff := time.Microsecond
	for !c.reqRing.TryPushSlice(req.Encode()) {
		time.Sleep(backoff)
		if backoff < time.Millisecond {
			backoff *= 2
		}
	}

	select {
	case resp := <-ch:
		return resp, nil
	case <-time.After(c.deadline):
		c.mu.Lock()
		delete(c.waiters, req.CorrelationID)
		c.mu.Unlock()
		return protocol.IOResponse{}, ErrStuck{CorrelationID: req.CorrelationID}
	}
}

// PortRead issues a blocking port I/O read.
func (c *Client) PortRead(port uint16, size uint8) (uint32, error) {
	resp, err := c.call(protocol.IORequest{Kind: protocol.ReqPortRead, Port: port, Size: size, Addr: uint64(port)})
	return uint32(resp.Value), err
}

// PortWrite issues a port I/O write. Devices that advertise themselves as
// write-posted still get a zero-payload ack path through the same call —
// the distinction is made by the I/O worker, which may reply immediately.
func (c *Client) PortWrite(port uint16, size uint8, value uint32) error {
	_, err := c.call(protocol.IORequest{Kind: protocol.ReqPortWrite, Port: port, Size: size, Addr: uint64(port), Value: uint64(value)})
	return err
}

// MmioRead issues a blocking MMIO read.
func (c *Client) MmioRead(paddr uint64, size uint8) (uint64, error) {
	resp, err := c.call(protocol.IORequest{Kind: protocol.ReqMmioRead, Size: size, Addr: paddr})
	return resp.Value, err
}

// MmioWrite issues an MMIO write.
func (c *Client) MmioWrite(paddr uint64, size uint8, value uint64) error {
	_, err := c.call(protocol.IORequest{Kind: protocol.ReqMmioWrite, Size: size, Addr: paddr, Value: value})
	return err
}

// SerialOutput notifies the I/O worker's serial device of an outgoing byte.
func (c *Client) SerialOutput(port uint16, b byte) error {
	_, err := c.call(protocol.IORequest{Kind: protocol.ReqSerialNotify, Port: port, Addr: uint64(port), Value: uint64(b)})
	return err
}
