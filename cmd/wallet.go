package cmd

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/Mohsinsiddi/w3oracle/internal/ui"
	"github.com/Mohsinsiddi/w3oracle/internal/wallet"
	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"
)

func newWalletCmd(a *app) *cobra.Command {
	c := &cobra.Command{
		Use:   "wallet",
		Short: "Manage the wallets that sign oracle transactions",
	}
	c.AddCommand(
		newWalletAddCmd(a),
		newWalletGenerateCmd(a),
		newWalletListCmd(a),
		newWalletUseCmd(a),
		newWalletRemoveCmd(a),
		newWalletUnlockCmd(a),
		newWalletLockCmd(a),
	)
	return c
}

func newWalletAddCmd(a *app) *cobra.Command {
	var key string
	c := &cobra.Command{
		Use:   "add <name> [address]",
		Short: "Add a signing wallet (--key) or a watch-only address",
		Long: `Add a wallet.

  # Signing wallet, key stored in the OS keychain
  w3oracle wallet add alice --key 0xac09...

  # Read the key from stdin instead of the shell history
  w3oracle wallet add alice --key -

  # Watch-only: can run reads, cannot broadcast
  w3oracle wallet add bob 0xf39F...`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]
			mgr := a.walletManager()

			if key == "-" {
				line, err := bufio.NewReader(a.stdin).ReadString('\n')
				if err != nil && line == "" {
					return fmt.Errorf("reading key from stdin: %w", err)
				}
				key = strings.TrimSpace(line)
			}

			if key != "" {
				if err := mgr.AddWithKey(name, key); err != nil {
					return err
				}
				w, err := mgr.Get(name)
				if err != nil {
					return err
				}
				fmt.Fprintln(a.out, ui.Success(fmt.Sprintf("Signing wallet %q added: %s", name, ui.Addr(w.Address))))
				fmt.Fprintln(a.out, ui.Hint("Set as default with: w3oracle wallet use "+name))
				return nil
			}

			if len(args) < 2 {
				return fmt.Errorf("address required for a watch-only wallet\n  Usage: w3oracle wallet add <name> <address>\n  Or for signing: w3oracle wallet add <name> --key <private-key>")
			}
			address := args[1]
			if !common.IsHexAddress(address) {
				return fmt.Errorf("invalid address %q", address)
			}
			if err := mgr.Add(name, &wallet.Wallet{Name: name, Address: address, Type: wallet.TypeWatchOnly}); err != nil {
				return err
			}
			fmt.Fprintln(a.out, ui.Success(fmt.Sprintf("Watch-only wallet %q added: %s", name, ui.Addr(address))))
			return nil
		},
	}
	c.Flags().StringVar(&key, "key", "", "private key for a signing wallet, or - to read it from stdin")
	return c
}

func newWalletGenerateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "generate <name>",
		Short: "Generate a new signing wallet",
		Long: `Generate a fresh keypair and store the private key in the OS keychain.

The private key is displayed ONCE. Copy it to a password manager.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			w, hexKey, err := a.walletManager().Generate(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(a.out)
			fmt.Fprintf(a.out, "  %s  %s\n", ui.Meta("Wallet :"), ui.Val(w.Name))
			fmt.Fprintf(a.out, "  %s  %s\n\n", ui.Meta("Address:"), ui.Addr(w.Address))
			fmt.Fprintln(a.out, ui.DangerBox(
				ui.Warn("SAVE YOUR PRIVATE KEY. It is shown only once.")+"\n\n"+
					ui.Val(hexKey)+"\n\n"+
					ui.Hint("Fund it on the target chain before registering an oracle."),
			))
			return nil
		},
	}
}

func newWalletListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List wallets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			wallets := a.walletManager().List()
			if len(wallets) == 0 {
				fmt.Fprintln(a.out, ui.Info("No wallets configured yet."))
				fmt.Fprintln(a.out, ui.Hint("Add one with: w3oracle wallet add <name> --key <private-key>"))
				return nil
			}

			t := ui.NewTable([]ui.Column{
				{Title: "Name", Width: 16},
				{Title: "Address", Width: 44},
				{Title: "Type", Width: 12},
				{Title: "Default", Width: 8},
			})
			for _, w := range wallets {
				def := ""
				if w.Name == a.defaultWalletName(wallets) {
					def = "✓"
				}
				t.AddRow(ui.Row{w.Name, w.Address, walletTypeLabel(w.Type), def})
			}
			fmt.Fprint(a.out, t.Render())
			fmt.Fprintln(a.out, ui.Meta(fmt.Sprintf("%d wallet(s) configured", len(wallets))))
			return nil
		},
	}
}

// defaultWalletName prefers the configured default over the store's flag.
func (a *app) defaultWalletName(wallets []*wallet.Wallet) string {
	if a.cfg.DefaultWallet != "" {
		return a.cfg.DefaultWallet
	}
	for _, w := range wallets {
		if w.IsDefault {
			return w.Name
		}
	}
	return ""
}

func newWalletUseCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "use [name]",
		Short: "Set the default wallet (interactive picker without a name)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			mgr := a.walletManager()
			name := ""
			if len(args) > 0 {
				name = args[0]
			} else {
				wallets := mgr.List()
				current := a.defaultWalletName(wallets)
				items := make([]ui.PickerItem, len(wallets))
				for i, w := range wallets {
					items[i] = ui.PickerItem{
						Label:    w.Name,
						SubLabel: ui.TruncateAddr(w.Address) + "  " + walletTypeLabel(w.Type),
						Value:    w.Name,
						Current:  w.Name == current,
					}
				}
				picked, err := a.pickFn("Default wallet", items)
				if err != nil {
					return err
				}
				if picked == "" {
					fmt.Fprintln(a.out, ui.Meta("Cancelled."))
					return nil
				}
				name = picked
			}

			if err := mgr.SetDefault(name); err != nil {
				return err
			}
			a.cfg.DefaultWallet = name
			if err := a.cfg.Save(); err != nil {
				return fmt.Errorf("saving config: %w", err)
			}
			fmt.Fprintln(a.out, ui.Success(fmt.Sprintf("Default wallet set to %q.", name)))
			return nil
		},
	}
}

func newWalletRemoveCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <name>",
		Short: "Remove a wallet and its stored key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]
			if !a.yes && !a.confirmFn(fmt.Sprintf("Remove wallet %q and delete its key?", name)) {
				fmt.Fprintln(a.out, ui.Meta("Cancelled."))
				return nil
			}
			mgr := a.walletManager()
			w, err := mgr.Get(name)
			if err != nil {
				return err
			}
			if err := mgr.Remove(name); err != nil {
				return err
			}
			if w.KeyRef != "" {
				_ = a.keyCacheFn().Remove(w.KeyRef)
			}
			if a.cfg.DefaultWallet == name {
				a.cfg.DefaultWallet = ""
				if err := a.cfg.Save(); err != nil {
					return fmt.Errorf("saving config: %w", err)
				}
			}
			fmt.Fprintln(a.out, ui.Success(fmt.Sprintf("Wallet %q removed.", name)))
			return nil
		},
	}
}

func newWalletUnlockCmd(a *app) *cobra.Command {
	var all bool
	c := &cobra.Command{
		Use:   "unlock [name]",
		Short: "Cache wallet keys so writes skip the keychain prompt",
		Long: `Retrieve private keys from the OS keychain once and cache them in a
restricted session file so later writes run without a prompt.

  w3oracle wallet unlock          # default wallet
  w3oracle wallet unlock alice
  w3oracle wallet unlock --all`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			mgr := a.walletManager()
			var targets []*wallet.Wallet
			switch {
			case all:
				for _, w := range mgr.List() {
					if w.Type == wallet.TypeSigning {
						targets = append(targets, w)
					}
				}
			case len(args) > 0:
				w, err := mgr.Get(args[0])
				if err != nil {
					return err
				}
				targets = append(targets, w)
			default:
				w, err := a.resolveWallet(mgr)
				if err != nil {
					return err
				}
				if w != nil {
					targets = append(targets, w)
				}
			}
			if len(targets) == 0 {
				fmt.Fprintln(a.out, ui.Info("No signing wallets found."))
				return nil
			}

			cache := a.keyCacheFn()
			unlocked := 0
			for _, w := range targets {
				if w.Type != wallet.TypeSigning {
					fmt.Fprintln(a.out, ui.Warn(fmt.Sprintf("%-20s watch-only, skipped", w.Name)))
					continue
				}
				if _, ok := cache.Get(w.KeyRef); ok {
					fmt.Fprintln(a.out, ui.Meta(fmt.Sprintf("  %-20s already cached", w.Name)))
					continue
				}
				hexKey, err := mgr.Keystore().Retrieve(w.KeyRef)
				if err != nil {
					fmt.Fprintln(a.out, ui.Err(fmt.Sprintf("%-20s %v", w.Name, err)))
					continue
				}
				if err := cache.Put(w.KeyRef, hexKey); err != nil {
					return fmt.Errorf("caching key: %w", err)
				}
				fmt.Fprintln(a.out, ui.Success(fmt.Sprintf("%-20s unlocked", w.Name)))
				unlocked++
			}
			if unlocked > 0 {
				fmt.Fprintln(a.out, ui.Hint("Run 'w3oracle wallet lock' to clear the cache."))
			}
			return nil
		},
	}
	c.Flags().BoolVar(&all, "all", false, "unlock every signing wallet")
	return c
}

func newWalletLockCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "lock",
		Short: "Clear the key cache",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cache := a.keyCacheFn()
			if !cache.Active() {
				fmt.Fprintln(a.out, ui.Meta("No cached keys, nothing to clear."))
				return nil
			}
			if err := cache.Clear(); err != nil {
				return fmt.Errorf("clearing key cache: %w", err)
			}
			fmt.Fprintln(a.out, ui.Success("Key cache cleared."))
			return nil
		},
	}
}

// walletTypeLabel converts an internal wallet type to a user-facing label.
func walletTypeLabel(t string) string {
	if t == wallet.TypeSigning {
		return "read-write"
	}
	return t
}
