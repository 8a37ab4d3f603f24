package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/Mohsinsiddi/w3oracle/internal/config"
	"github.com/Mohsinsiddi/w3oracle/internal/contract"
	"github.com/Mohsinsiddi/w3oracle/internal/oracle"
	"github.com/Mohsinsiddi/w3oracle/internal/rpc"
	"github.com/Mohsinsiddi/w3oracle/internal/session"
	"github.com/Mohsinsiddi/w3oracle/internal/wallet"
	"go.uber.org/zap"
)

// defaultKeystore uses the OS keychain unless a file keyring password is set
// in the environment.
func defaultKeystore(cfg *config.Config) wallet.KeystoreBackend {
	if pw := os.Getenv(config.EnvKeyringPassword); pw != "" {
		if ks, err := wallet.NewFileKeystore(cfg.KeystoreDir(), pw); err == nil {
			return ks
		}
	}
	return wallet.DefaultKeystore()
}

func (a *app) walletManager() *wallet.Manager {
	return wallet.NewManager(
		wallet.WithStore(wallet.NewJSONStore(a.cfg.WalletsPath())),
		wallet.WithKeystore(a.keystoreFn(a.cfg)),
	)
}

// resolveWallet picks the wallet named by --wallet, then the configured
// default, then the manager's default. It returns nil when none is set up.
func (a *app) resolveWallet(mgr *wallet.Manager) (*wallet.Wallet, error) {
	name := a.walletNm
	if name == "" {
		name = a.cfg.DefaultWallet
	}
	if name != "" {
		return mgr.Get(name)
	}
	return mgr.Default(), nil
}

// newSession builds the session for this invocation. Without a wallet it is
// read-only; needSigner turns that into an error.
func (a *app) newSession(needSigner bool) (*session.Session, *wallet.Wallet, error) {
	opts := session.Options{
		Endpoints:        a.endpoints(),
		ChainID:          a.cfg.ChainID,
		HandshakeTimeout: a.cfg.HandshakeTimeout,
		Dial:             a.dialFn,
		Logger:           a.log,
	}
	if a.readOnly {
		if needSigner {
			return nil, nil, fmt.Errorf("%w: --read-only cannot broadcast", contract.ErrNoSigner)
		}
		return session.New(opts), nil, nil
	}

	mgr := a.walletManager()
	w, err := a.resolveWallet(mgr)
	if err != nil {
		return nil, nil, err
	}
	if w == nil {
		if needSigner {
			return nil, nil, fmt.Errorf("%w: add one with `w3oracle wallet add <name> --key <hex>`", contract.ErrNoSigner)
		}
		a.log.Debug("no wallet configured, session is read-only")
		return session.New(opts), nil, nil
	}

	if w.Type == wallet.TypeSigning {
		opts.Signer = wallet.NewSigner(w, mgr.Keystore(), a.keyCacheFn())
	} else if needSigner {
		return nil, nil, fmt.Errorf("%w: %q", wallet.ErrWatchOnly, w.Name)
	}
	a.log.Debug("wallet selected", zap.String("wallet", w.Name), zap.String("type", w.Type))
	return session.New(opts), w, nil
}

// endpoints returns the configured RPC URLs in dial order. The fastest
// strategy probes them first, bounded by the handshake timeout.
func (a *app) endpoints() []string {
	strategy, err := rpc.ParseStrategy(a.cfg.RPCStrategy)
	if err != nil || strategy != rpc.StrategyFastest {
		return a.cfg.RPCURLs
	}
	ctx, cancel := context.WithTimeout(context.Background(), a.cfg.HandshakeTimeout)
	defer cancel()
	urls := rpc.Order(ctx, a.dialFn, a.cfg.RPCURLs, strategy, a.cfg.ChainID, a.cfg.CallTimeout)
	a.log.Debug("endpoints ranked", zap.Strings("order", urls))
	return urls
}

func (a *app) invokerOptions() []contract.Option {
	opts := []contract.Option{
		contract.WithCallTimeout(a.cfg.CallTimeout),
		contract.WithGasLimit(a.cfg.GasLimit),
	}
	if a.cfg.WaitReceipt {
		opts = append(opts, contract.WithReceipt(a.cfg.ReceiptTimeout))
	}
	return append(opts, a.extraInvOpts...)
}

func (a *app) newRunner(sess *session.Session) *oracle.Runner {
	return oracle.NewRunner(sess,
		oracle.WithBusy(a.busyFn(a.errOut)),
		oracle.WithLogger(a.log),
		oracle.WithBinding(a.binding),
		oracle.WithInvokerOptions(a.invokerOptions()...),
	)
}
