// Package scheduler drives automatic key rotation: a deferred timer per key
// plus a periodic sweep that catches anything the timers missed (process
// restarts, clock jumps, timer races). Both paths funnel into the same
// rotation use case, so its per-key locking applies to scheduled rotations
// exactly as it does to manual ones.
package scheduler

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	auditDomain "github.com/tradeware/securecore/internal/audit/domain"
	auditService "github.com/tradeware/securecore/internal/audit/service"
	keyvaultDomain "github.com/tradeware/securecore/internal/keyvault/domain"
)

// Rotator performs a single key rotation. Implemented by the key use case;
// declared here so the scheduler does not depend on the usecase package.
type Rotator interface {
	RotateKey(ctx context.Context, keyID uuid.UUID, actorID string) (*keyvaultDomain.KeyRecord, error)
}

// KeySource lists key records for timer bootstrap and sweeps.
type KeySource interface {
	ListActive(ctx context.Context) ([]*keyvaultDomain.KeyRecord, error)
	ListDue(ctx context.Context, now time.Time) ([]*keyvaultDomain.KeyRecord, error)
}

// Scheduler manages per-key rotation timers and the sweep loop.
//
// Wiring note: the scheduler is the use case's RotationPlanner and the use
// case is the scheduler's Rotator. The cycle is broken by constructing the
// scheduler first and injecting the rotator with SetRotator before Start.
type Scheduler struct {
	keys          KeySource
	auditLog      auditService.Log
	logger        *slog.Logger
	sweepInterval time.Duration

	mu      sync.Mutex
	rotator Rotator
	timers  map[uuid.UUID]*time.Timer
	started bool

	done chan struct{}
	wg   sync.WaitGroup

	// now is injectable for tests.
	now func() time.Time
}

// NewScheduler creates a scheduler. sweepInterval <= 0 defaults to one hour.
func NewScheduler(
	keys KeySource,
	auditLog auditService.Log,
	sweepInterval time.Duration,
	logger *slog.Logger,
) *Scheduler {
	if sweepInterval <= 0 {
		sweepInterval = time.Hour
	}
	return &Scheduler{
		keys:          keys,
		auditLog:      auditLog,
		logger:        logger,
		sweepInterval: sweepInterval,
		timers:        make(map[uuid.UUID]*time.Timer),
		done:          make(chan struct{}),
		now:           time.Now,
	}
}

// SetRotator injects the rotation use case. Must be called before Start.
func (s *Scheduler) SetRotator(rotator Rotator) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rotator = rotator
}

// Start arms timers for every active key and launches the sweep loop.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.rotator == nil {
		s.mu.Unlock()
		return keyvaultDomain.ErrRotatorNotSet
	}
	if s.started {
		s.mu.Unlock()
		return nil
	}
	s.started = true
	s.mu.Unlock()

	records, err := s.keys.ListActive(ctx)
	if err != nil {
		return err
	}
	for _, record := range records {
		if !record.RotationScheduledAt.IsZero() {
			s.Schedule(record.ID, record.RotationScheduledAt)
		}
	}

	s.wg.Add(1)
	go s.sweepLoop()

	s.logger.Info("rotation scheduler started",
		"keys", len(records),
		"sweep_interval", s.sweepInterval,
	)
	return nil
}

// Schedule arms (or re-arms) the rotation timer for keyID at the given time.
// Implements the use case's RotationPlanner.
func (s *Scheduler) Schedule(keyID uuid.UUID, at time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if timer, ok := s.timers[keyID]; ok {
		timer.Stop()
	}
	delay := max(time.Until(at), 0)
	s.timers[keyID] = time.AfterFunc(delay, func() {
		s.fire(keyID)
	})
}

// Cancel disarms the rotation timer for keyID.
func (s *Scheduler) Cancel(keyID uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if timer, ok := s.timers[keyID]; ok {
		timer.Stop()
		delete(s.timers, keyID)
	}
}

// Stop cancels all timers and terminates the sweep loop.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return
	}
	s.started = false
	for keyID, timer := range s.timers {
		timer.Stop()
		delete(s.timers, keyID)
	}
	s.mu.Unlock()

	close(s.done)
	s.wg.Wait()
}

// Sweep rotates every active key whose scheduled time has elapsed. One key's
// failure is audited and logged but never stops the sweep. Returns the number
// of successful and failed rotations.
func (s *Scheduler) Sweep(ctx context.Context) (rotated, failed int) {
	records, err := s.keys.ListDue(ctx, s.now())
	if err != nil {
		s.logger.Error("rotation sweep failed to list due keys", "error", err)
		return 0, 0
	}

	for _, record := range records {
		if _, err := s.rotate(ctx, record.ID); err != nil {
			failed++
			continue
		}
		rotated++
	}

	if rotated > 0 || failed > 0 {
		s.logger.Info("rotation sweep finished", "rotated", rotated, "failed", failed)
	}
	return rotated, failed
}

// sweepLoop runs Sweep on the configured interval until Stop.
func (s *Scheduler) sweepLoop() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			s.Sweep(context.Background())
		}
	}
}

// fire handles a single expired timer.
func (s *Scheduler) fire(keyID uuid.UUID) {
	select {
	case <-s.done:
		return
	default:
	}
	_, _ = s.rotate(context.Background(), keyID)
}

// rotate runs one rotation as the system actor, auditing failures.
func (s *Scheduler) rotate(ctx context.Context, keyID uuid.UUID) (*keyvaultDomain.KeyRecord, error) {
	s.mu.Lock()
	rotator := s.rotator
	s.mu.Unlock()

	record, err := rotator.RotateKey(ctx, keyID, keyvaultDomain.SystemActor)
	if err != nil {
		s.logger.Error("scheduled rotation failed", "key_id", keyID, "error", err)
		s.auditLog.Append(ctx, auditDomain.OperationRotationFailed, auditDomain.SystemActor,
			"scheduled rotation failed",
			map[string]string{
				"key_id": keyID.String(),
				"error":  err.Error(),
			},
		)
		return nil, err
	}
	return record, nil
}
