package rpc_test

import (
	"errors"
	"testing"
	"time"

	"github.com/Mohsinsiddi/w3oracle/internal/rpc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// checked builds an endpoint that has been probed.
func checked(url string, latency time.Duration, block uint64, healthy bool) rpc.Endpoint {
	ep := rpc.Endpoint{URL: url, Latency: latency, BlockNumber: block, ChainID: 1337, Checked: true}
	if !healthy {
		ep.Err = errors.New("connection refused")
	}
	return ep
}

func TestPickFastest(t *testing.T) {
	endpoints := []rpc.Endpoint{
		checked("http://slow.rpc", 200*time.Millisecond, 100, true),
		checked("http://fast.rpc", 30*time.Millisecond, 100, true),
		checked("http://medium.rpc", 80*time.Millisecond, 100, true),
	}

	winner, err := rpc.Pick(endpoints, rpc.StrategyFastest, 1337)
	require.NoError(t, err)
	assert.Equal(t, "http://fast.rpc", winner.URL)

	assert.Equal(t,
		[]string{"http://fast.rpc", "http://medium.rpc", "http://slow.rpc"},
		rpc.Rank(endpoints, rpc.StrategyFastest, 1337))
}

func TestRankStaleNodesLast(t *testing.T) {
	endpoints := []rpc.Endpoint{
		checked("http://stale.rpc", 10*time.Millisecond, 990, true), // 10 blocks behind
		checked("http://fresh.rpc", 50*time.Millisecond, 1000, true),
	}

	got := rpc.Rank(endpoints, rpc.StrategyFastest, 0)
	assert.Equal(t, []string{"http://fresh.rpc", "http://stale.rpc"}, got, "stale node should rank last even if faster")
}

func TestRankFailoverKeepsOrder(t *testing.T) {
	endpoints := []rpc.Endpoint{
		checked("http://primary", 0, 100, false),
		checked("http://secondary", 90*time.Millisecond, 100, true),
		checked("http://tertiary", 10*time.Millisecond, 100, true),
	}

	winner, err := rpc.Pick(endpoints, rpc.StrategyFailover, 0)
	require.NoError(t, err)
	assert.Equal(t, "http://secondary", winner.URL, "should fail over to secondary when primary is down")

	assert.Equal(t,
		[]string{"http://secondary", "http://tertiary", "http://primary"},
		rpc.Rank(endpoints, rpc.StrategyFailover, 0))
}

func TestRankWrongChainLast(t *testing.T) {
	other := checked("http://mainnet.rpc", 5*time.Millisecond, 100, true)
	other.ChainID = 1
	endpoints := []rpc.Endpoint{other, checked("http://local.rpc", 40*time.Millisecond, 100, true)}

	assert.Equal(t, []string{"http://local.rpc", "http://mainnet.rpc"}, rpc.Rank(endpoints, rpc.StrategyFastest, 1337))
	assert.Equal(t, []string{"http://mainnet.rpc", "http://local.rpc"}, rpc.Rank(endpoints, rpc.StrategyFastest, 0),
		"chain id 0 skips the check")
}

func TestPickErrorsWhenAllUnhealthy(t *testing.T) {
	endpoints := []rpc.Endpoint{
		checked("http://rpc1", 100*time.Millisecond, 0, false),
		checked("http://rpc2", 200*time.Millisecond, 0, false),
	}

	_, err := rpc.Pick(endpoints, rpc.StrategyFastest, 0)
	assert.ErrorIs(t, err, rpc.ErrNoHealthyRPC)
	assert.Len(t, rpc.Rank(endpoints, rpc.StrategyFastest, 0), 2, "unhealthy endpoints are still listed")
}

func TestPickEmpty(t *testing.T) {
	_, err := rpc.Pick(nil, rpc.StrategyFastest, 0)
	assert.ErrorIs(t, err, rpc.ErrNoHealthyRPC)
}

func TestUncheckedTreatedAsCandidates(t *testing.T) {
	endpoints := []rpc.Endpoint{{URL: "http://rpc1"}, {URL: "http://rpc2"}}

	winner, err := rpc.Pick(endpoints, rpc.StrategyFastest, 1337)
	require.NoError(t, err)
	assert.Equal(t, "http://rpc1", winner.URL)
	assert.False(t, winner.Healthy())
}

func TestParseStrategy(t *testing.T) {
	s, err := rpc.ParseStrategy("")
	require.NoError(t, err)
	assert.Equal(t, rpc.StrategyFailover, s)

	s, err = rpc.ParseStrategy("fastest")
	require.NoError(t, err)
	assert.Equal(t, rpc.StrategyFastest, s)

	_, err = rpc.ParseStrategy("round-robin")
	assert.Error(t, err)
}
