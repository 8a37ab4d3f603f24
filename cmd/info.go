package cmd

import (
	"fmt"
	"strings"

	"github.com/Mohsinsiddi/w3oracle/internal/ui"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/spf13/cobra"
)

func newInfoCmd(a *app) *cobra.Command {
	var connect bool
	c := &cobra.Command{
		Use:   "info",
		Short: "Show the bound contract, its entrypoints and the connection",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprint(a.out, ui.Banner())
			fmt.Fprintln(a.out, ui.KeyValueBlock("Contract", [][2]string{
				{"address", a.binding.Address().Hex()},
				{"abi", a.binding.Fingerprint()},
				{"rpc", strings.Join(a.cfg.RPCURLs, ", ")},
				{"chain id", fmt.Sprint(a.cfg.ChainID)},
			}))

			t := ui.NewTable([]ui.Column{
				{Title: "Entrypoint", Width: 18},
				{Title: "Selector", Width: 10},
				{Title: "Kind", Width: 8},
				{Title: "Inputs", Width: 44},
				{Title: "Outputs", Width: 16},
			})
			for _, m := range a.binding.Entrypoints() {
				kind := "read"
				if a.binding.IsWrite(m.Name) {
					kind = "write"
					if m.IsPayable() {
						kind = "payable"
					}
				}
				t.AddRow(ui.Row{m.Name, hexutil.Encode(m.ID), kind, argList(m.Inputs), argList(m.Outputs)})
			}
			fmt.Fprint(a.out, t.Render())

			if !connect {
				return nil
			}
			sess, w, err := a.newSession(false)
			if err != nil {
				return err
			}
			defer sess.Close()
			busy := a.busyFn(a.errOut)
			busy.Start("Connecting…")
			client, err := sess.Ensure(cmd.Context())
			busy.Stop()
			if err != nil {
				return err
			}
			pairs := [][2]string{
				{"endpoint", client.Endpoint()},
				{"chain id", client.ChainID().String()},
			}
			if w != nil {
				pairs = append(pairs, [2]string{"wallet", w.Name + " (" + walletTypeLabel(w.Type) + ")"})
			}
			if client.Signer() != nil {
				pairs = append(pairs, [2]string{"from", client.From().Hex()})
			} else {
				pairs = append(pairs, [2]string{"mode", "read-only"})
			}
			fmt.Fprintln(a.out, ui.KeyValueBlock("Connection", pairs))
			return nil
		},
	}
	c.Flags().BoolVar(&connect, "connect", false, "also perform the wallet handshake")
	return c
}

func argList(args abi.Arguments) string {
	parts := make([]string, len(args))
	for i, arg := range args {
		if arg.Name == "" {
			parts[i] = arg.Type.String()
		} else {
			parts[i] = arg.Type.String() + " " + arg.Name
		}
	}
	return strings.Join(parts, ", ")
}
