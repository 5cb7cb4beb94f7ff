package worker

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/secmon-lab/portalos/pkg/usecase"
	"github.com/secmon-lab/portalos/pkg/utils/async"
	"github.com/secmon-lab/portalos/pkg/utils/logging"
)

// UpstreamProbeWorker periodically checks that the directory and every view
// answer, and keeps the latest results for the health endpoint.
//
// Single server instance: every replica probes on its own.
type UpstreamProbeWorker struct {
	client   *http.Client
	targets  []usecase.ProbeTarget
	interval time.Duration
	stopCh   chan struct{}
	doneCh   chan struct{}
	stopOnce sync.Once

	mu     sync.RWMutex
	last   []usecase.ProbeResult
	lastAt time.Time
}

func NewUpstreamProbeWorker(client *http.Client, targets []usecase.ProbeTarget, interval time.Duration) *UpstreamProbeWorker {
	if client == nil {
		client = http.DefaultClient
	}
	return &UpstreamProbeWorker{
		client:   client,
		targets:  targets,
		interval: interval,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// Start runs the first probe and the periodic loop in the background. It
// does not block server startup.
func (w *UpstreamProbeWorker) Start(ctx context.Context) {
	logging.From(ctx).Info("Upstream probe worker starting",
		"interval", w.interval.String(),
		"targets", len(w.targets))

	// Dispatch detaches its context; the loop still ends with ctx
	async.Dispatch(ctx, func(context.Context) error {
		w.run(ctx)
		return nil
	})
}

// Stop signals the worker to stop and waits for completion. It may be
// called more than once.
func (w *UpstreamProbeWorker) Stop() {
	w.stopOnce.Do(func() {
		close(w.stopCh)
		<-w.doneCh
		logging.Default().Info("Upstream probe worker stopped")
	})
}

// Last returns the results of the latest completed round, in target order
func (w *UpstreamProbeWorker) Last() ([]usecase.ProbeResult, time.Time) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return append([]usecase.ProbeResult(nil), w.last...), w.lastAt
}

func (w *UpstreamProbeWorker) run(ctx context.Context) {
	defer close(w.doneCh)

	w.probe(ctx)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			w.probe(ctx)
		case <-w.stopCh:
			return
		case <-ctx.Done():
			return
		}
	}
}

func (w *UpstreamProbeWorker) probe(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Stop interrupts a round in progress
	go func() {
		select {
		case <-w.stopCh:
			cancel()
		case <-ctx.Done():
		}
	}()

	results := usecase.Probe(ctx, w.client, w.targets)

	var failed int
	for _, r := range results {
		if r.OK() {
			continue
		}
		failed++
		logging.From(ctx).Warn("upstream unreachable",
			"target", r.Target.Name,
			"url", r.Target.URL,
			"status", r.Status,
			"error", r.Err,
		)
	}
	logging.From(ctx).Info("Upstream probe completed", "total", len(results), "failed", failed)

	w.mu.Lock()
	w.last = results
	w.lastAt = time.Now()
	w.mu.Unlock()
}
