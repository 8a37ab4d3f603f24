package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/Mohsinsiddi/w3oracle/internal/config"
	"github.com/Mohsinsiddi/w3oracle/internal/contract"
	"github.com/Mohsinsiddi/w3oracle/internal/logging"
	"github.com/Mohsinsiddi/w3oracle/internal/oracle"
	"github.com/Mohsinsiddi/w3oracle/internal/session"
	"github.com/Mohsinsiddi/w3oracle/internal/ui"
	"github.com/Mohsinsiddi/w3oracle/internal/wallet"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// Version is the current release. Overridable via build ldflags:
//
//	go build -ldflags "-X github.com/Mohsinsiddi/w3oracle/cmd.Version=1.2.3" .
var Version = "0.1.0"

// app carries what every command needs. Fields ending in Fn are seams the
// tests replace.
type app struct {
	cfgDir   string
	verbose  bool
	walletNm string
	rpcURLs  []string
	timeout  time.Duration
	yes      bool
	readOnly bool

	cfg     *config.Config
	log     *zap.Logger
	binding *contract.Binding
	out     io.Writer
	errOut  io.Writer

	extraInvOpts []contract.Option

	dialFn     session.Dialer
	keystoreFn func(cfg *config.Config) wallet.KeystoreBackend
	keyCacheFn func() *wallet.KeyCache
	busyFn     func(w io.Writer) oracle.Busy
	confirmFn  func(prompt string) bool
	pickFn     func(title string, items []ui.PickerItem) (string, error)
	studioFn   func(m ui.StudioModel) error
	stdin      io.Reader
}

func newApp() *app {
	return &app{
		dialFn:     session.DialEthereum,
		keystoreFn: defaultKeystore,
		keyCacheFn: wallet.DefaultKeyCache,
		busyFn:     func(w io.Writer) oracle.Busy { return ui.NewSpinner(w) },
		confirmFn:  ui.ConfirmDanger,
		pickFn:     ui.PickItem,
		studioFn:   ui.RunStudio,
		stdin:      os.Stdin,
		binding:    contract.DefaultBinding(),
		out:        os.Stdout,
		errOut:     os.Stderr,
	}
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "w3oracle",
		Short: "Terminal client for the oracle registry contract",
		Long: `w3oracle drives a deployed oracle registry contract from the terminal.

  Register an oracle, post question/answer pairs, pay for queries and read
  their answers. Reads are simulated; writes are signed with a wallet kept
  in the OS keychain and broadcast to the configured RPC endpoints.

Config lives in ~/.w3oracle/config.json (override with --config or
W3ORACLE_CONFIG_DIR); every key can also be set as W3ORACLE_<KEY>.`,
		Version:       Version,
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			a.out, a.errOut = cmd.OutOrStdout(), cmd.ErrOrStderr()
			if cmd.Name() == "help" || cmd.Name() == "completion" {
				return nil
			}
			return a.setup()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.log != nil {
				_ = a.log.Sync()
			}
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.cfgDir, "config", "", "config directory (default: $W3ORACLE_CONFIG_DIR or ~/.w3oracle)")
	pf.BoolVarP(&a.verbose, "verbose", "v", false, "debug logging")
	pf.StringVarP(&a.walletNm, "wallet", "w", "", "wallet to sign with (default: configured default wallet)")
	pf.StringSliceVar(&a.rpcURLs, "rpc", nil, "RPC endpoint(s) for this invocation, tried in order")
	pf.DurationVar(&a.timeout, "timeout", 0, "per-call timeout (default: config call_timeout)")
	pf.BoolVarP(&a.yes, "yes", "y", false, "do not ask before broadcasting or deleting")
	pf.BoolVar(&a.readOnly, "read-only", false, "connect without a wallet")

	root.AddCommand(actionCmds(a)...)
	root.AddCommand(
		newCallCmd(a),
		newSendCmd(a),
		newStudioCmd(a),
		newWalletCmd(a),
		newConfigCmd(a),
		newInfoCmd(a),
		newDecodeCmd(a),
		newConvertCmd(a),
		newWatchCmd(a),
		newRPCCmd(a),
	)
	return root
}

func (a *app) setup() error {
	cfg, err := config.Load(a.cfgDir)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if len(a.rpcURLs) > 0 {
		if err := cfg.Override(config.KeyRPCURLs, strings.Join(a.rpcURLs, ",")); err != nil {
			return err
		}
	}
	if a.timeout > 0 {
		if err := cfg.Override(config.KeyCallTimeout, a.timeout.String()); err != nil {
			return err
		}
	}
	a.cfg = cfg

	log, _, err := logging.New(logging.Options{Level: cfg.LogLevel, Debug: a.verbose, Path: cfg.LogFile})
	if err != nil {
		return err
	}
	a.log = log
	return nil
}

// Execute runs the root command.
func Execute() {
	a := newApp()
	root := newRootCmd(a)
	if err := root.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, renderError(err))
		os.Exit(1)
	}
}

// kindLabel names the error kind of err for display.
func kindLabel(err error) string {
	switch {
	case errors.Is(err, contract.ErrConnection):
		return "connection"
	case errors.Is(err, contract.ErrReverted):
		return "reverted"
	case errors.Is(err, contract.ErrDecode):
		return "decode"
	case errors.Is(err, contract.ErrTimeout):
		return "timeout"
	case errors.Is(err, contract.ErrInvalidArgument):
		return "invalid argument"
	case errors.Is(err, contract.ErrUnknownEntrypoint):
		return "unknown entrypoint"
	case errors.Is(err, contract.ErrNotReadOnly), errors.Is(err, contract.ErrNotWritable):
		return "wrong direction"
	case errors.Is(err, contract.ErrNoSigner):
		return "no signer"
	case errors.Is(err, wallet.ErrWalletNotFound), errors.Is(err, wallet.ErrWatchOnly), errors.Is(err, wallet.ErrInvalidKey):
		return "wallet"
	}
	return ""
}

func renderError(err error) string {
	return ui.Failure(kindLabel(err), err.Error())
}
