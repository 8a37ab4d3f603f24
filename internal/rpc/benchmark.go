package rpc

import (
	"context"
	"time"

	"github.com/Mohsinsiddi/w3oracle/internal/session"
	"github.com/sourcegraph/conc"
)

// Benchmark probes every URL in parallel. Results keep the order of urls.
func Benchmark(ctx context.Context, dial session.Dialer, urls []string, timeout time.Duration) []Endpoint {
	results := make([]Endpoint, len(urls))
	var wg conc.WaitGroup
	for i, u := range urls {
		wg.Go(func() {
			results[i] = Probe(ctx, dial, u, timeout)
		})
	}
	wg.Wait()
	return results
}

// Order returns urls in the order a session should try them. The failover
// strategy keeps the configured order without touching the network. The
// fastest strategy benchmarks first and ranks the results; a single URL is
// returned as is.
func Order(ctx context.Context, dial session.Dialer, urls []string, strategy Strategy, chainID int64, timeout time.Duration) []string {
	if strategy != StrategyFastest || len(urls) < 2 {
		return urls
	}
	return Rank(Benchmark(ctx, dial, urls, timeout), StrategyFastest, chainID)
}
