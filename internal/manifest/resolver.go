package manifest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"lingocast/internal/backend"
	"lingocast/internal/logging"
	"lingocast/internal/metrics"
)

// DiscoveryClient is the slice of the backend the resolver needs.
type DiscoveryClient interface {
	FetchManifest(ctx context.Context, jobID, protocol string) (string, error)
}

// Resolver polls manifest discovery per protocol with a bounded retry
// budget. Protocols are optional: a protocol that exhausts its budget or
// fails hard degrades alone, the session stays usable via the others.
type Resolver struct {
	client   DiscoveryClient
	attempts int
	interval time.Duration
	logger   *slog.Logger
}

// NewResolver constructs a resolver.
func NewResolver(client DiscoveryClient, attempts int, interval time.Duration, logger *slog.Logger) *Resolver {
	if attempts <= 0 {
		attempts = 8
	}
	if interval <= 0 {
		interval = 2 * time.Second
	}
	return &Resolver{
		client:   client,
		attempts: attempts,
		interval: interval,
		logger:   logging.NewComponentLogger(logger, "manifest"),
	}
}

// Resolve discovers manifests for all protocols concurrently, merging
// results into set as they arrive. onDiscovered runs after each addition.
// It blocks until every protocol either resolved or gave up, and returns
// backend.ErrTimeout-tagged detail when zero protocols resolved.
func (r *Resolver) Resolve(ctx context.Context, jobID string, protocols []Protocol, set *Set, onDiscovered func(Protocol)) error {
	if len(protocols) == 0 {
		return fmt.Errorf("no protocols configured")
	}

	var wg sync.WaitGroup
	wg.Add(len(protocols))
	for _, protocol := range protocols {
		go func(protocol Protocol) {
			defer wg.Done()
			r.resolveOne(ctx, jobID, protocol, set, onDiscovered)
		}(protocol)
	}
	wg.Wait()

	if set.Len() == 0 {
		return backend.Wrap(backend.ErrTimeout, jobID, "ready", "manifest discovery",
			fmt.Errorf("no protocol resolved within budget"))
	}
	return nil
}

func (r *Resolver) resolveOne(ctx context.Context, jobID string, protocol Protocol, set *Set, onDiscovered func(Protocol)) {
	for attempt := 1; attempt <= r.attempts; attempt++ {
		uri, err := r.client.FetchManifest(ctx, jobID, string(protocol))
		switch {
		case err == nil:
			metrics.ManifestDiscoveries.WithLabelValues(string(protocol), "resolved").Inc()
			set.Add(protocol, uri)
			r.logger.Info("manifest discovered",
				logging.String(logging.FieldJobID, jobID),
				logging.String(logging.FieldProtocol, string(protocol)),
				logging.Int("attempt", attempt),
			)
			if onDiscovered != nil {
				onDiscovered(protocol)
			}
			return
		case errors.Is(err, backend.ErrNotFound):
			// Not packaged yet; spend another attempt from the budget.
		case ctx.Err() != nil:
			return
		default:
			metrics.ManifestDiscoveries.WithLabelValues(string(protocol), "failed").Inc()
			r.logger.Warn("abandoning protocol after discovery failure",
				logging.String(logging.FieldJobID, jobID),
				logging.String(logging.FieldProtocol, string(protocol)),
				logging.Error(err),
			)
			return
		}

		if attempt == r.attempts {
			break
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(r.interval):
		}
	}

	metrics.ManifestDiscoveries.WithLabelValues(string(protocol), "timeout").Inc()
	r.logger.Warn("protocol discovery budget exhausted",
		logging.String(logging.FieldJobID, jobID),
		logging.String(logging.FieldProtocol, string(protocol)),
		logging.Int("attempts", r.attempts),
	)
}
