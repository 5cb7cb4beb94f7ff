package usecase

import (
	"context"
	"net/http"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/portalos/pkg/domain/model"
	"github.com/secmon-lab/portalos/pkg/utils/safe"
	"golang.org/x/sync/errgroup"
)

const probeConcurrency = 4

// ProbeTarget is one remote endpoint the portal depends on
type ProbeTarget struct {
	Name string
	URL  string
}

// ProbeResult is the reachability of one ProbeTarget
type ProbeResult struct {
	Target  ProbeTarget
	Status  int
	Latency time.Duration
	Err     error
}

// OK reports whether the target answered with a non-error status
func (r ProbeResult) OK() bool {
	return r.Err == nil && r.Status < http.StatusBadRequest
}

// ProbeTargets lists the directory endpoint followed by every view URL
func ProbeTargets(directoryEndpoint string, catalog *model.ViewCatalog) []ProbeTarget {
	targets := []ProbeTarget{{Name: "directory", URL: directoryEndpoint}}
	for _, spec := range catalog.List() {
		targets = append(targets, ProbeTarget{Name: spec.ID.String(), URL: spec.URL})
	}
	return targets
}

// Probe requests every target concurrently. Results keep the order of targets.
func Probe(ctx context.Context, client *http.Client, targets []ProbeTarget) []ProbeResult {
	if client == nil {
		client = http.DefaultClient
	}

	results := make([]ProbeResult, len(targets))
	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(probeConcurrency)

	for i, target := range targets {
		eg.Go(func() error {
			results[i] = probe(ctx, client, target)
			return nil
		})
	}
	// probe never returns an error to the group
	_ = eg.Wait()

	return results
}

func probe(ctx context.Context, client *http.Client, target ProbeTarget) ProbeResult {
	result := ProbeResult{Target: target}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target.URL, nil)
	if err != nil {
		result.Err = goerr.Wrap(err, "failed to create request", goerr.V("url", target.URL))
		return result
	}

	start := time.Now()
	resp, err := client.Do(req)
	result.Latency = time.Since(start)
	if err != nil {
		result.Err = goerr.Wrap(model.ErrNetwork, "request failed",
			goerr.V("url", target.URL), goerr.V("error", err.Error()))
		return result
	}
	defer safe.Close(ctx, resp.Body)
	safe.Drain(ctx, resp.Body)

	result.Status = resp.StatusCode
	return result
}
