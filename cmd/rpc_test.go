package cmd

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sync"
	"testing"

	"github.com/Mohsinsiddi/w3oracle/internal/config"
	"github.com/Mohsinsiddi/w3oracle/internal/contract"
	"github.com/Mohsinsiddi/w3oracle/internal/contract/contracttest"
	"github.com/Mohsinsiddi/w3oracle/internal/oracle"
	"github.com/Mohsinsiddi/w3oracle/internal/session"
	"github.com/Mohsinsiddi/w3oracle/internal/wallet"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fleet is a set of test nodes keyed by URL. Unknown URLs refuse to connect.
type fleet struct {
	mu    sync.Mutex
	nodes map[string]*contracttest.Node
	dials []string
}

func newFleet(urls ...string) *fleet {
	f := &fleet{nodes: map[string]*contracttest.Node{}}
	for _, u := range urls {
		f.nodes[u] = contracttest.NewNode(contract.DefaultBinding(), common.HexToAddress(devAddr))
	}
	return f
}

func (f *fleet) dial(ctx context.Context, url string) (session.Backend, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.dials = append(f.dials, url)
	n, ok := f.nodes[url]
	if !ok {
		return nil, errors.New("connection refused")
	}
	n.Reopen()
	return n, nil
}

func (f *fleet) run(t *testing.T, dir string, args ...string) (string, error) {
	t.Helper()
	a := newApp()
	a.dialFn = f.dial
	a.busyFn = func(io.Writer) oracle.Busy { return nopBusy{} }
	a.keystoreFn = func(*config.Config) wallet.KeystoreBackend { return wallet.NewInMemoryKeystore() }

	var out bytes.Buffer
	root := newRootCmd(a)
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(append([]string{"--config", dir}, args...))
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestRPCBenchmark(t *testing.T) {
	e := newEnv(t)
	f := newFleet("http://a")
	e.mustRun("config", "set", "rpc_urls", "http://down,http://a")

	out, err := f.run(t, e.dir, "rpc", "benchmark")
	require.NoError(t, err, out)
	assert.Contains(t, out, "http://down")
	assert.Contains(t, out, "down")
	assert.Contains(t, out, "1 of 2 healthy, strategy failover")
	assert.ElementsMatch(t, []string{"http://down", "http://a"}, f.dials)
}

func TestRPCBenchmarkNoneHealthy(t *testing.T) {
	e := newEnv(t)
	f := newFleet()
	e.mustRun("config", "set", "rpc_urls", "http://down")

	out, err := f.run(t, e.dir, "rpc", "benchmark")
	assert.Error(t, err)
	assert.Contains(t, out, "0 of 1 healthy")
}

func TestRPCStrategyOrdersSessionDials(t *testing.T) {
	e := newEnv(t)
	e.mustRun("config", "set", "rpc_urls", "http://down,http://a")

	f := newFleet("http://a")
	_, err := f.run(t, e.dir, "balance")
	require.NoError(t, err)
	assert.Equal(t, []string{"http://down", "http://a"}, f.dials, "failover dials in configured order")

	out := e.mustRun("rpc", "strategy", "fastest")
	assert.Contains(t, out, `"fastest"`)
	assert.Equal(t, "fastest\n", e.mustRun("rpc", "strategy"))

	f = newFleet("http://a")
	_, err = f.run(t, e.dir, "balance")
	require.NoError(t, err)
	require.Len(t, f.dials, 3)
	assert.ElementsMatch(t, []string{"http://down", "http://a"}, f.dials[:2], "both endpoints probed")
	assert.Equal(t, "http://a", f.dials[2], "session dials the healthy endpoint first")

	_, err = e.run("rpc", "strategy", "round-robin")
	assert.Error(t, err)
}
