package session_test

import (
	"context"
	"errors"
	"math/big"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Mohsinsiddi/w3oracle/internal/contract"
	"github.com/Mohsinsiddi/w3oracle/internal/contract/contracttest"
	"github.com/Mohsinsiddi/w3oracle/internal/session"
	"github.com/Mohsinsiddi/w3oracle/internal/wallet"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const devAddr = "0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266"

type dialer struct {
	node  *contracttest.Node
	delay time.Duration
	dials atomic.Int32
	// fail lists endpoints that refuse connections.
	fail map[string]bool
}

func (d *dialer) dial(ctx context.Context, url string) (session.Backend, error) {
	d.dials.Add(1)
	if d.delay > 0 {
		select {
		case <-time.After(d.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if d.fail[url] {
		return nil, errors.New("connection refused")
	}
	d.node.Reopen()
	return d.node, nil
}

func newDialer() *dialer {
	b := contract.DefaultBinding()
	return &dialer{node: contracttest.NewNode(b, common.HexToAddress(devAddr)), fail: map[string]bool{}}
}

func devSigner(t *testing.T) *wallet.Signer {
	t.Helper()
	ks := wallet.NewInMemoryKeystore()
	ref, err := ks.Store("dev", contracttest.DevKey0)
	require.NoError(t, err)
	w := &wallet.Wallet{Name: "dev", Address: devAddr, Type: wallet.TypeSigning, KeyRef: ref}
	return wallet.NewSigner(w, ks, nil)
}

func TestEnsureHandshakesOnce(t *testing.T) {
	d := newDialer()
	d.delay = 20 * time.Millisecond
	s := session.New(session.Options{Endpoints: []string{"http://a"}, Dial: d.dial, Signer: devSigner(t)})

	var wg sync.WaitGroup
	clients := make([]*session.Client, 8)
	for i := range clients {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			c, err := s.Ensure(context.Background())
			assert.NoError(t, err)
			clients[i] = c
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int32(1), d.dials.Load())
	for _, c := range clients {
		assert.Same(t, clients[0], c)
	}
	assert.True(t, s.Active())
}

func TestClientCarriesSigner(t *testing.T) {
	d := newDialer()
	s := session.New(session.Options{Endpoints: []string{"http://a"}, ChainID: contracttest.ChainID, Dial: d.dial, Signer: devSigner(t)})

	c, err := s.Ensure(context.Background())
	require.NoError(t, err)
	assert.Equal(t, common.HexToAddress(devAddr), c.From())
	assert.NotNil(t, c.Signer())
	assert.Equal(t, big.NewInt(contracttest.ChainID), c.ChainID())
	assert.Equal(t, "http://a", c.Endpoint())
}

func TestReadOnlySession(t *testing.T) {
	d := newDialer()
	s := session.New(session.Options{Endpoints: []string{"http://a"}, Dial: d.dial})

	c, err := s.Ensure(context.Background())
	require.NoError(t, err)
	assert.Nil(t, c.Signer())
	assert.Equal(t, common.Address{}, c.From())
}

func TestFailoverToNextEndpoint(t *testing.T) {
	d := newDialer()
	d.fail["http://down"] = true
	s := session.New(session.Options{Endpoints: []string{"http://down", "http://up"}, Dial: d.dial})

	c, err := s.Ensure(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "http://up", c.Endpoint())
	assert.Equal(t, int32(2), d.dials.Load())
}

func TestChainIDMismatch(t *testing.T) {
	d := newDialer()
	s := session.New(session.Options{Endpoints: []string{"http://a"}, ChainID: 1, Dial: d.dial})

	_, err := s.Ensure(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, contract.ErrConnection))
	assert.Contains(t, err.Error(), "want 1")
	assert.False(t, s.Active())
}

func TestFailedHandshakeIsRetried(t *testing.T) {
	d := newDialer()
	d.fail["http://a"] = true
	s := session.New(session.Options{Endpoints: []string{"http://a"}, Dial: d.dial})

	_, err := s.Ensure(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, contract.ErrConnection))

	d.fail["http://a"] = false
	_, err = s.Ensure(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(2), d.dials.Load())
}

func TestNoEndpoints(t *testing.T) {
	s := session.New(session.Options{})
	_, err := s.Ensure(context.Background())
	assert.True(t, errors.Is(err, session.ErrNoEndpoint))
	assert.True(t, errors.Is(err, contract.ErrConnection))
}

func TestHandshakeTimeout(t *testing.T) {
	d := newDialer()
	d.delay = time.Second
	s := session.New(session.Options{Endpoints: []string{"http://slow"}, HandshakeTimeout: 20 * time.Millisecond, Dial: d.dial})

	_, err := s.Ensure(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, contract.ErrTimeout))
}

func TestWatchOnlyWalletFailsHandshake(t *testing.T) {
	d := newDialer()
	w := &wallet.Wallet{Name: "watch", Address: devAddr, Type: wallet.TypeWatchOnly}
	s := session.New(session.Options{Endpoints: []string{"http://a"}, Dial: d.dial, Signer: wallet.NewSigner(w, wallet.NewInMemoryKeystore(), nil)})

	_, err := s.Ensure(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, wallet.ErrWatchOnly))
	assert.False(t, s.Active())
}

func TestCloseAndReensure(t *testing.T) {
	d := newDialer()
	s := session.New(session.Options{Endpoints: []string{"http://a"}, Dial: d.dial})

	first, err := s.Ensure(context.Background())
	require.NoError(t, err)
	s.Close()
	assert.False(t, s.Active())

	second, err := s.Ensure(context.Background())
	require.NoError(t, err)
	assert.NotSame(t, first, second)
	assert.Equal(t, int32(2), d.dials.Load())

	s.Close()
	s.Close()
}

func TestCloseAbortsHandshake(t *testing.T) {
	d := newDialer()
	d.delay = time.Minute
	s := session.New(session.Options{Endpoints: []string{"http://slow"}, HandshakeTimeout: time.Minute, Dial: d.dial})

	done := make(chan error, 1)
	go func() {
		_, err := s.Ensure(context.Background())
		done <- err
	}()
	require.Eventually(t, func() bool { return d.dials.Load() == 1 }, time.Second, time.Millisecond)
	assert.False(t, s.Active(), "Active must not wait for the handshake")

	closed := make(chan struct{})
	go func() {
		s.Close()
		close(closed)
	}()
	select {
	case <-closed:
	case <-time.After(time.Second):
		t.Fatal("Close blocked on the in-flight handshake")
	}

	err := <-done
	require.Error(t, err)
	assert.True(t, errors.Is(err, contract.ErrTimeout))
	assert.True(t, errors.Is(err, context.Canceled))
	assert.False(t, s.Active())
}

func TestEnsureHonoursCancelledContext(t *testing.T) {
	d := newDialer()
	d.delay = 200 * time.Millisecond
	s := session.New(session.Options{Endpoints: []string{"http://a"}, Dial: d.dial})

	started := make(chan struct{})
	go func() {
		close(started)
		_, _ = s.Ensure(context.Background())
	}()
	<-started
	time.Sleep(10 * time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := s.Ensure(ctx)
	require.Error(t, err)
	assert.True(t, errors.Is(err, contract.ErrTimeout))
}

func TestInvokerOverSession(t *testing.T) {
	d := newDialer()
	s := session.New(session.Options{Endpoints: []string{"http://a"}, Dial: d.dial, Signer: devSigner(t)})
	c, err := s.Ensure(context.Background())
	require.NoError(t, err)

	inv := contract.NewInvoker(contract.DefaultBinding(), c, contract.WithReceipt(time.Second), contract.WithPollInterval(5*time.Millisecond))
	out, err := inv.ContractCall(context.Background(), contract.QuestAnswer, nil, "q", "a")
	require.NoError(t, err)
	assert.Equal(t, uint64(1), out.Receipt.Status)
}
