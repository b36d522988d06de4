package iotransport

import (
	"testing"
	"time"

	"github.com/wilsonzlin/aero-sub000/internal/shm"
)

type fakeDevice struct {
	ports map[uint16]uint32
}

func (f *fakeDevice) PortRead(port uint16, size uint8) uint32    { return f.ports[port] }
func (f *fakeDevice) PortWrite(port uint16, size uint8, v uint32) { f.ports[port] = v }
func (f *fakeDevice) MmioRead(paddr uint64, size uint8) uint64    { return paddr + 1 }
func (f *fakeDevice) MmioWrite(paddr uint64, size uint8, v uint64) {}
func (f *fakeDevice) SerialNotify(port uint16, b byte)             {}

func newRingPair(t *testing.T) (*shm.Ring, *shm.Ring) {
	t.Helper()
	req, err := shm.NewRing(make([]byte, shm.RingSize(4096)), 4096)
	if err != nil {
		t.Fatal(err)
	}
	resp, err := shm.NewRing(make([]byte, shm.RingSize(4096)), 4096)
	if err != nil {
		t.Fatal(err)
	}
	return req, resp
}

func TestClientServerPortRoundTrip(t *testing.T) {
	reqRing, respRing := newRingPair(t)
	dev := &fakeDevice{ports: map[uint16]uint32{0x3F8: 0}}
	srv := NewServer(reqRing, respRing, dev)
	go srv.Run()
	defer srv.Stop()

	cli := NewClient(reqRing, respRing, time.Second)
	defer cli.Close()

	if err := cli.PortWrite(0x3F8, 1, 0x41); err != nil {
		t.Fatalf("PortWrite: %v", err)
	}
	got, err := cli.PortRead(0x3F8, 1)
	if err != nil {
		t.Fatalf("PortRead: %v", err)
	}
	if got != 0x41 {
		t.Fatalf("PortRead = 0x%X, want 0x41", got)
	}
}

func TestClientMmioRoundTrip(t *testing.T) {
	reqRing, respRing := newRingPair(t)
	dev := &fakeDevice{ports: map[uint16]uint32{}}
	srv := NewServer(reqRing, respRing, dev)
	go srv.Run()
	defer srv.Stop()

	cli := NewClient(reqRing, respRing, time.Second)
	defer cli.Close()

	got, err := cli.MmioRead(0x1000, 4)
	if err != nil {
		t.Fatalf("MmioRead: %v", err)
	}
	if got != 0x1001 {
		t.Fatalf("MmioRead = 0x%X, want 0x1001", got)
	}
}

func TestClientStuckWhenServerNeverResponds(t *testing.T) {
	reqRing, respRing := newRingPair(t)
	cli := NewClient(reqRing, respRing, 20*time.Millisecond)
	defer cli.Close()

	_, err := cli.PortRead(0x60, 1)
	if err == nil {
		t.Fatal("expected ErrStuck when no I/O worker is running")
	}
	if _, ok := err.(ErrStuck); !ok {
		t.Fatalf("err = %T, want ErrStuck", err)
	}
}

func TestConcurrentRequestsMatchByCorrelationID(t *testing.T) {
	reqRing, respRing := newRingPair(t)
	dev := &fakeDevice{ports: map[uint16]uint32{}}
	srv := NewServer(reqRing, respRing, dev)
	go srv.Run()
	defer srv.Stop()

	cli := NewClient(reqRing, respRing, time.Second)
	defer cli.Close()

	done := make(chan bool, 8)
	for i := 0; i < 8; i++ {
		port := uint16(i)
		go func() {
			if err := cli.PortWrite(port, 1, uint32(port)*10); err != nil {
				done <- false
				return
			}
			v, err := cli.PortRead(port, 1)
			done <- err == nil && v == uint32(port)*10
		}()
	}
	for i := 0; i < 8; i++ {
		if !<-done {
			t.Fatal("a concurrent request got the wrong value or errored")
		}
	}
}
