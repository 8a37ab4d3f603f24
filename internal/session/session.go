// Package session owns the wallet-connected chain client shared by every
// oracle action. A Session is created once at startup, lazily performs the
// handshake on first use and is torn down with Close.
package session

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/Mohsinsiddi/w3oracle/internal/contract"
	"github.com/Mohsinsiddi/w3oracle/internal/wallet"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"go.uber.org/zap"
)

// ErrNoEndpoint is returned when no RPC endpoint is configured.
var ErrNoEndpoint = errors.New("no RPC endpoint configured")

// Backend is a chain client that can be handed to the invokers and closed.
type Backend interface {
	contract.Backend
	ChainID(ctx context.Context) (*big.Int, error)
	Close()
}

// Dialer connects to a single RPC endpoint.
type Dialer func(ctx context.Context, url string) (Backend, error)

// DialEthereum dials an Ethereum JSON-RPC endpoint.
func DialEthereum(ctx context.Context, url string) (Backend, error) {
	c, err := ethclient.DialContext(ctx, url)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// Options configures a Session.
type Options struct {
	// Endpoints are tried in order until one answers.
	Endpoints []string
	// ChainID, when non-zero, must match the node's chain id.
	ChainID int64
	// HandshakeTimeout bounds the whole handshake. Zero means no bound
	// beyond the caller's context.
	HandshakeTimeout time.Duration
	// Signer is nil for read-only sessions.
	Signer *wallet.Signer
	Dial   Dialer
	Logger *zap.Logger
}

// Client is a completed handshake. It is immutable once handed out.
type Client struct {
	backend  Backend
	chainID  *big.Int
	signer   *wallet.Signer
	endpoint string
}

// Backend implements contract.Conn.
func (c *Client) Backend() contract.Backend { return c.backend }

// ChainID implements contract.Conn.
func (c *Client) ChainID() *big.Int { return new(big.Int).Set(c.chainID) }

// From implements contract.Conn.
func (c *Client) From() common.Address {
	if c.signer == nil {
		return common.Address{}
	}
	return c.signer.Address()
}

// Signer implements contract.Conn.
func (c *Client) Signer() contract.TxSigner {
	if c.signer == nil {
		return nil
	}
	return c.signer
}

// Endpoint returns the RPC URL the client is connected to.
func (c *Client) Endpoint() string { return c.endpoint }

// Session hands out a shared Client, performing the handshake at most once
// at a time. Concurrent Ensure calls wait for the in-flight handshake and
// reuse its result; if it failed, the next caller starts its own.
type Session struct {
	opts Options
	log  *zap.Logger

	// sem is a one-slot lock that can be abandoned on context cancellation.
	// It serialises handshakes and teardown.
	sem chan struct{}

	mu     sync.Mutex
	client *Client
	// abort cancels the in-flight handshake, if any.
	abort context.CancelFunc
}

// New creates a session. No network activity happens until Ensure.
func New(opts Options) *Session {
	if opts.Dial == nil {
		opts.Dial = DialEthereum
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Session{
		opts: opts,
		log:  log.Named("session"),
		sem:  make(chan struct{}, 1),
	}
}

// Ensure returns a ready client, performing the handshake if needed.
func (s *Session) Ensure(ctx context.Context) (*Client, error) {
	select {
	case s.sem <- struct{}{}:
	case <-ctx.Done():
		return nil, handshakeErr(ctx.Err())
	}
	defer func() { <-s.sem }()

	if c := s.current(); c != nil {
		return c, nil
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	s.mu.Lock()
	s.abort = cancel
	s.mu.Unlock()

	c, err := s.handshake(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.abort = nil
	if err != nil {
		return nil, err
	}
	s.client = c
	return c, nil
}

func (s *Session) current() *Client {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.client
}

// Active reports whether a handshake has completed. It does not wait for
// one in flight.
func (s *Session) Active() bool {
	return s.current() != nil
}

// Close aborts an in-flight handshake and tears the client down. The session
// can be ensured again afterwards.
func (s *Session) Close() {
	s.mu.Lock()
	if s.abort != nil {
		s.abort()
	}
	s.mu.Unlock()

	s.sem <- struct{}{}
	defer func() { <-s.sem }()

	s.mu.Lock()
	c := s.client
	s.client = nil
	s.mu.Unlock()
	if c == nil {
		return
	}
	c.backend.Close()
	s.log.Debug("session closed", zap.String("endpoint", c.endpoint))
}

func (s *Session) handshake(ctx context.Context) (*Client, error) {
	if len(s.opts.Endpoints) == 0 {
		return nil, handshakeErr(ErrNoEndpoint)
	}
	if s.opts.HandshakeTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.opts.HandshakeTimeout)
		defer cancel()
	}

	var errs []error
	for _, url := range s.opts.Endpoints {
		backend, chainID, err := s.connect(ctx, url)
		if err != nil {
			s.log.Warn("endpoint rejected", zap.String("endpoint", url), zap.Error(err))
			errs = append(errs, fmt.Errorf("%s: %w", url, err))
			if ctx.Err() != nil {
				break
			}
			continue
		}

		if s.opts.Signer != nil {
			if err := s.opts.Signer.Unlock(); err != nil {
				backend.Close()
				return nil, handshakeErr(fmt.Errorf("unlocking wallet %q: %w", s.opts.Signer.Name(), err))
			}
		}

		s.log.Info("session ready",
			zap.String("endpoint", url),
			zap.Stringer("chain_id", chainID),
			zap.Bool("read_only", s.opts.Signer == nil))
		return &Client{backend: backend, chainID: chainID, signer: s.opts.Signer, endpoint: url}, nil
	}
	return nil, handshakeErr(errors.Join(errs...))
}

func (s *Session) connect(ctx context.Context, url string) (Backend, *big.Int, error) {
	backend, err := s.opts.Dial(ctx, url)
	if err != nil {
		return nil, nil, fmt.Errorf("dial: %w", err)
	}
	chainID, err := backend.ChainID(ctx)
	if err != nil {
		backend.Close()
		return nil, nil, fmt.Errorf("chain id: %w", err)
	}
	if s.opts.ChainID != 0 && chainID.Cmp(big.NewInt(s.opts.ChainID)) != 0 {
		backend.Close()
		return nil, nil, fmt.Errorf("chain id %s, want %d", chainID, s.opts.ChainID)
	}
	return backend, chainID, nil
}

func handshakeErr(err error) error {
	kind := contract.ErrConnection
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		kind = contract.ErrTimeout
	}
	return &contract.CallError{Kind: kind, Entrypoint: "handshake", Err: err}
}
