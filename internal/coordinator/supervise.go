package coordinator

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/wilsonzlin/aero-sub000/internal/logging"
)

// WorkerFunc is one worker's run loop: it must return promptly once ctx is
// cancelled, and any non-nil error is treated as the Fatal error kind of
// spec §7 ("unrecoverable ... do not attempt to continue").
type WorkerFunc func(ctx context.Context) error

// Supervisor runs a fixed set of named workers with golang.org/x/sync/errgroup
// (spec SPEC_FULL "Supervise worker goroutines with errgroup.Group; on first
// fatal worker error, cancel the rest and surface a banner"), generalizing
// the teacher's coprocessor_manager.go bare goroutine+channel worker model
// (CoprocWorker.stop/done) to a caller-supplied set of symmetric
// errgroup-supervised workers.
type Supervisor struct {
	log *logging.Logger
}

// NewSupervisor creates a Supervisor that logs its fatal banner through log.
func NewSupervisor(log *logging.Logger) *Supervisor {
	return &Supervisor{log: log}
}

// Run starts every named worker, waits for all to finish, and returns the
// first non-nil error (if any). On the first fatal error, the shared
// context is cancelled so well-behaved workers stop promptly; the banner is
// logged before Run returns.
func (s *Supervisor) Run(ctx context.Context, workers map[string]WorkerFunc) error {
	g, gctx := errgroup.WithContext(ctx)

	for name, fn := range workers {
		name, fn := name, fn
		g.Go(func() error {
			if err := fn(gctx); err != nil {
				return fmt.Errorf("worker %q: %w", name, err)
			}
			return nil
		})
	}

	err := g.Wait()
	if err != nil {
		s.log.Fatal("worker supervision stopped", logging.F("error", err))
	}
	return err
}
