// Command aerovm is the coordinator entry point: it parses the worker
// topology, allocates shared memory, builds the init bundle, and runs the
// CPU/I/O/GPU workers under supervision (with the HID broker's drain loop
// running alongside, outside the supervisor) until one fails or the process
// is signalled (spec §2/§5). Grounded on the teacher's main.go startup
// sequence (parse args, build the system bus, wire peripherals, run) but
// re-pointed at five cooperating workers instead of one in-process chip set.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/wilsonzlin/aero-sub000/internal/config"
	"github.com/wilsonzlin/aero-sub000/internal/coordinator"
	"github.com/wilsonzlin/aero-sub000/internal/debugconsole"
	"github.com/wilsonzlin/aero-sub000/internal/debugcpu"
	"github.com/wilsonzlin/aero-sub000/internal/debugmonitor"
	"github.com/wilsonzlin/aero-sub000/internal/fb"
	"github.com/wilsonzlin/aero-sub000/internal/gpu"
	"github.com/wilsonzlin/aero-sub000/internal/hidbroker"
	"github.com/wilsonzlin/aero-sub000/internal/iotransport"
	"github.com/wilsonzlin/aero-sub000/internal/logging"
	"github.com/wilsonzlin/aero-sub000/internal/presenter/ebitenpresenter"
	"github.com/wilsonzlin/aero-sub000/internal/presenter/vulkanpresenter"
	"github.com/wilsonzlin/aero-sub000/internal/protocol"
	"github.com/wilsonzlin/aero-sub000/internal/scanout"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "aerovm:", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	log := logging.New("coordinator")

	cfg, err := config.Parse(args)
	if err != nil {
		return fmt.Errorf("parse config: %w", err)
	}

	regions, err := coordinator.AllocateRegions(cfg)
	if err != nil {
		return fmt.Errorf("allocate regions: %w", err)
	}
	defer regions.Close()

	bundles, err := coordinator.BuildInitBundles(regions, cfg.RingCapacity)
	if err != nil {
		return fmt.Errorf("build init bundles: %w", err)
	}

	cpuBundle := bundles.For(coordinator.RoleCPU)
	ioBundle := bundles.For(coordinator.RoleIO)
	gpuBundle := bundles.For(coordinator.RoleGPU)
	hidBundle := bundles.For(coordinator.RoleHID)

	scanoutState, err := scanout.NewScanoutState(gpuBundle.ScanoutState.Bytes())
	if err != nil {
		return fmt.Errorf("format scanout state: %w", err)
	}
	cursorState, err := scanout.NewCursorState(gpuBundle.CursorState.Bytes())
	if err != nil {
		return fmt.Errorf("format cursor state: %w", err)
	}
	sharedFB, err := fb.New(gpuBundle.SharedFramebuffer.Bytes(), 1920, 1080, protocol.FormatR8G8B8A8)
	if err != nil {
		return fmt.Errorf("format shared framebuffer: %w", err)
	}

	presenter, destroyPresenter := newPresenter(cfg, log)
	defer destroyPresenter()

	vramLen := uint64(gpuBundle.VRAM.Len())
	readback := gpu.NewReadback(scanoutState, cursorState, gpuBundle.GuestRAM, gpuBundle.VRAM, vramLen, sharedFB)
	submissions := gpu.NewSubmissionTracker(gpuBundle.GPUSubmissionRing, gpuBundle.GuestRAM, gpuBundle.VRAM, vramLen)
	gpuWorker := gpu.NewWorker(submissions, readback, presenter, sharedFB)

	ioServer := iotransport.NewServer(ioBundle.IORequestRing, ioBundle.IOResponseRing, noopDeviceModel{log: log.With("devices")})
	ioClient := iotransport.NewClient(cpuBundle.IORequestRing, cpuBundle.IOResponseRing, 2*time.Second)
	defer ioClient.Close()

	cpu := debugcpu.New(stubStep())
	cpu.StartRunning()

	monitor := debugmonitor.New(120, 40)
	go func() {
		for ev := range cpu.Events() {
			monitor.WriteEvent(ev)
		}
	}()

	console := debugconsole.New(cpu)
	console.OnExport = func() {
		transcript := monitor.Export()
		log.Info("debug transcript exported", logging.F("bytes", len(transcript)))
	}
	console.Start()
	defer console.Stop()

	go watchScreenshotSignal(gpuWorker, log)

	hidPort := &loggingHIDPort{log: log.With("hid")}
	broker := hidbroker.New(hidPort)
	stopDrain := broker.DrainLoop(hidBundle.HIDOutputRing, hidbroker.DefaultDrainInterval)
	defer stopDrain()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	bundles.MarkReady(coordinator.RoleCPU)
	bundles.MarkReady(coordinator.RoleIO)
	bundles.MarkReady(coordinator.RoleGPU)
	bundles.MarkReady(coordinator.RoleHID)
	if !bundles.WaitAllReady(5 * time.Second) {
		return fmt.Errorf("workers did not report ready in time")
	}

	sup := coordinator.NewSupervisor(log)
	return sup.Run(ctx, map[string]coordinator.WorkerFunc{
		"io":  func(ctx context.Context) error { return runIOWorker(ctx, ioServer) },
		"cpu": func(ctx context.Context) error { return runCPUWorker(ctx, cpu) },
		"gpu": func(ctx context.Context) error { return runGPUWorker(ctx, gpuWorker) },
	})
}

func runIOWorker(ctx context.Context, s *iotransport.Server) error {
	go s.Run()
	<-ctx.Done()
	s.Stop()
	return nil
}

func runCPUWorker(ctx context.Context, c *debugcpu.CPU) error {
	regs := func(string) (uint64, bool) { return 0, false }
	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}
		c.Tick(regs)
		time.Sleep(time.Millisecond)
	}
}

func runGPUWorker(ctx context.Context, w *gpu.Worker) error {
	ticker := time.NewTicker(16 * time.Millisecond) // ~60Hz cooperative frame tick
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			w.PumpSubmissions()
			if err := w.RenderFrame(); err != nil {
				continue // writer-stuck or resolve failure: last good frame persists
			}
			w.Present()
			w.TickVblank()
		}
	}
}

// watchScreenshotSignal saves a PNG of the current scanout to disk each time
// the process receives SIGUSR1, the way the teacher's debug_commands.go
// exposed a screenshot command on an operator signal/keystroke.
func watchScreenshotSignal(w *gpu.Worker, log *logging.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGUSR1)
	defer signal.Stop(sigCh)

	var requestID uint64
	for range sigCh {
		requestID++
		png, err := w.ScreenshotPNG(gpu.ScreenshotPNGRequest{
			ScreenshotRequest: gpu.ScreenshotRequest{RequestID: requestID, IncludeCursor: true},
			MaxWidth:          1920,
			MaxHeight:         1080,
		})
		if err != nil {
			log.Warn("screenshot failed", logging.F("error", err))
			continue
		}
		name := fmt.Sprintf("aerovm-screenshot-%d.png", requestID)
		if err := os.WriteFile(name, png, 0o644); err != nil {
			log.Warn("screenshot write failed", logging.F("error", err), logging.F("path", name))
			continue
		}
		log.Info("screenshot saved", logging.F("path", name), logging.F("bytes", len(png)))
	}
}

func newPresenter(cfg config.Config, log *logging.Logger) (gpu.Presenter, func()) {
	switch cfg.PresenterBackend {
	case "vulkan":
		backend := vulkanpresenter.New(1920, 1080)
		return backend, backend.Destroy
	default:
		backend := ebitenpresenter.New(1920, 1080)
		if err := backend.Start("aerovm"); err != nil {
			log.Warn("presenter window failed to start, frames will be dropped", logging.F("error", err))
		}
		return backend, func() {}
	}
}

// stubStep is the out-of-scope real instruction executor's placeholder
// (spec Non-goals: CPU instruction semantics). It advances rip by a fixed
// instruction length, matching SPEC_FULL's recorded Open Question decision.
func stubStep() debugcpu.StepFn {
	var rip uint64
	return func() (uint64, []byte) {
		r := rip
		rip += 4
		return r, nil
	}
}

// noopDeviceModel is the out-of-scope device layer's placeholder (serial,
// PIC, PS/2, virtio control plane — spec Non-goals).
type noopDeviceModel struct{ log *logging.Logger }

func (noopDeviceModel) PortRead(port uint16, size uint8) uint32     { return 0 }
func (noopDeviceModel) PortWrite(port uint16, size uint8, v uint32) {}
func (noopDeviceModel) MmioRead(paddr uint64, size uint8) uint64    { return 0 }
func (noopDeviceModel) MmioWrite(paddr uint64, size uint8, v uint64) {}
func (d noopDeviceModel) SerialNotify(port uint16, b byte) {
	d.log.Info("serial byte", logging.F("port", port), logging.F("byte", b))
}

// loggingHIDPort is the out-of-scope host-HID-device-enumeration boundary's
// placeholder: it accepts the broker's wire messages and logs them, the way
// a real I/O worker would route hid.* messages to its device table.
type loggingHIDPort struct{ log *logging.Logger }

func (p *loggingHIDPort) PostAttach(msg protocol.AttachMessage) error {
	p.log.Info("hid attach", logging.F("device_id", msg.DeviceID), logging.F("vendor", msg.VendorID), logging.F("product", msg.ProductID))
	return nil
}

func (p *loggingHIDPort) PostDetach(msg protocol.DetachMessage) error {
	p.log.Info("hid detach", logging.F("device_id", msg.DeviceID))
	return nil
}

func (p *loggingHIDPort) PostInputReport(msg protocol.InputReportMessage) error {
	p.log.Info("hid input report (copy fallback)", logging.F("device_id", msg.DeviceID), logging.F("report_id", msg.ReportID))
	return nil
}
