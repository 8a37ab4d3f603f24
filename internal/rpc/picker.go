// Package rpc probes the configured RPC endpoints and decides the order a
// session dials them in.
package rpc

import (
	"errors"
	"fmt"
	"slices"
	"time"
)

// ErrNoHealthyRPC is returned when no healthy RPC endpoint is available.
var ErrNoHealthyRPC = errors.New("no healthy RPC endpoint available")

// Strategy defines how endpoints are ordered.
type Strategy string

const (
	// StrategyFailover tries endpoints in the configured order.
	StrategyFailover Strategy = "failover"
	// StrategyFastest benchmarks endpoints and tries the best one first.
	StrategyFastest Strategy = "fastest"

	// Nodes more than this many blocks behind the best rank last among
	// the healthy ones.
	staleBlockThreshold = 3
)

// Strategies lists the accepted strategy names.
var Strategies = []Strategy{StrategyFailover, StrategyFastest}

// ParseStrategy validates a strategy name. Empty means failover.
func ParseStrategy(s string) (Strategy, error) {
	if s == "" {
		return StrategyFailover, nil
	}
	st := Strategy(s)
	if !slices.Contains(Strategies, st) {
		return "", fmt.Errorf("unknown RPC strategy %q, choose failover or fastest", s)
	}
	return st, nil
}

// Endpoint is a single RPC endpoint with its measured attributes.
type Endpoint struct {
	URL         string
	Latency     time.Duration
	BlockNumber uint64
	ChainID     int64
	Err         error
	Checked     bool // false when the endpoint was never probed
}

// Healthy reports whether the probe succeeded.
func (e Endpoint) Healthy() bool { return e.Checked && e.Err == nil }

// usable treats unprobed endpoints as candidates and rejects probed ones
// that failed or answered for another chain.
func (e Endpoint) usable(chainID int64) bool {
	if !e.Checked {
		return true
	}
	if e.Err != nil {
		return false
	}
	return chainID == 0 || e.ChainID == chainID
}

// Pick returns the endpoint Rank would put first, or ErrNoHealthyRPC when
// none is usable.
func Pick(endpoints []Endpoint, strategy Strategy, chainID int64) (*Endpoint, error) {
	ranked := rank(endpoints, strategy, chainID)
	if len(ranked) == 0 || !ranked[0].usable(chainID) {
		return nil, ErrNoHealthyRPC
	}
	return &ranked[0], nil
}

// Rank orders every endpoint URL. Usable endpoints come first, unusable ones
// keep their relative order at the end so a session can still fall back to
// them.
func Rank(endpoints []Endpoint, strategy Strategy, chainID int64) []string {
	ranked := rank(endpoints, strategy, chainID)
	urls := make([]string, len(ranked))
	for i, e := range ranked {
		urls[i] = e.URL
	}
	return urls
}

func rank(endpoints []Endpoint, strategy Strategy, chainID int64) []Endpoint {
	var good, bad []Endpoint
	for _, e := range endpoints {
		if e.usable(chainID) {
			good = append(good, e)
		} else {
			bad = append(bad, e)
		}
	}

	if strategy == StrategyFastest {
		var best uint64
		for _, e := range good {
			best = max(best, e.BlockNumber)
		}
		slices.SortStableFunc(good, func(a, b Endpoint) int {
			sa, sb := score(a, best), score(b, best)
			switch {
			case sa > sb:
				return -1
			case sa < sb:
				return 1
			}
			return 0
		})
	}
	return append(good, bad...)
}

// score is higher for faster, fresher endpoints. Stale nodes score below
// every fresh one.
func score(e Endpoint, bestBlock uint64) float64 {
	var s float64
	if ms := e.Latency.Milliseconds(); ms > 0 {
		s += 1000.0 / float64(ms)
	} else if e.Latency > 0 {
		s += 1000.0
	}
	if bestBlock > 0 {
		behind := bestBlock - e.BlockNumber
		if behind > staleBlockThreshold {
			return s - 1e6
		}
		s += float64(10 - behind)
	}
	return s
}
