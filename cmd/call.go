package cmd

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/Mohsinsiddi/w3oracle/internal/contract"
	"github.com/Mohsinsiddi/w3oracle/internal/session"
	"github.com/Mohsinsiddi/w3oracle/internal/ui"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newCallCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "call <entrypoint> [args...]",
		Short: "Simulate a read entrypoint and print the decoded result",
		Long: `Call any read entrypoint of the oracle registry by name. Arguments are
given in declaration order; see 'w3oracle info' for the list.

Examples:
  w3oracle call get_oracle
  w3oracle call queryFee 0x5FbDB2315678afecb367f032d93F642f64180aa3
  w3oracle call getCheck 0x5FbDB2315678afecb367f032d93F642f64180aa3`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.invoke(cmd, args[0], args[1:], "", false)
		},
	}
}

func newSendCmd(a *app) *cobra.Command {
	var value string
	c := &cobra.Command{
		Use:   "send <entrypoint> [args...]",
		Short: "Broadcast a write entrypoint",
		Long: `Broadcast any state-changing entrypoint of the oracle registry by name.

Examples:
  w3oracle send respond 0x5FbD... 0x9c22... "forty-two"
  w3oracle send quest_answer "meaning?" "42"
  w3oracle send createQuery 0x5FbD... "meaning?" 100 1 1 --value 100`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.invoke(cmd, args[0], args[1:], value, true)
		},
	}
	c.Flags().StringVar(&value, "value", "", "value to attach, in wei")
	return c
}

func (a *app) invoke(cmd *cobra.Command, name string, rawArgs []string, rawValue string, write bool) error {
	args := make([]any, len(rawArgs))
	for i, s := range rawArgs {
		args[i] = s
	}
	req, err := contract.NewRequest(a.binding, name, args...)
	if err != nil {
		return err
	}
	value, err := contract.ParseValue(rawValue)
	if err != nil {
		return err
	}
	req = req.WithValue(value)

	// Fail before dialing when the direction is wrong.
	if write && a.binding.IsRead(name) {
		return &contract.CallError{Kind: contract.ErrNotWritable, Entrypoint: name}
	}
	if !write && a.binding.IsWrite(name) {
		return &contract.CallError{Kind: contract.ErrNotReadOnly, Entrypoint: name}
	}
	if write && !a.yes && !a.confirmFn(fmt.Sprintf("Broadcast %s to %s?", name, a.binding.Address().Hex())) {
		fmt.Fprintln(a.out, ui.Meta("Cancelled."))
		return nil
	}

	sess, _, err := a.newSession(write)
	if err != nil {
		return err
	}
	defer sess.Close()

	ctx := cmd.Context()
	busy := a.busyFn(a.errOut)
	busy.Start("Running " + name + "…")
	client, err := sess.Ensure(ctx)
	if err != nil {
		busy.Stop()
		return err
	}
	inv := contract.NewInvoker(a.binding, client, append(a.invokerOptions(), contract.WithLogger(a.log.With(zap.String("entrypoint", name))))...)
	res, err := inv.Invoke(ctx, req)
	busy.Stop()

	if res != nil {
		if pairs := resultPairs(a.binding, name, res, client); len(pairs) > 0 {
			fmt.Fprintln(a.out, ui.KeyValueBlock(name, pairs))
		}
	}
	return err
}

// resultPairs renders a result as named key/value rows, using output names
// from the contract description where it has them.
func resultPairs(b *contract.Binding, name string, res *contract.Result, client *session.Client) [][2]string {
	var pairs [][2]string
	if m, err := b.Method(name); err == nil {
		for i, v := range res.Values {
			pairs = append(pairs, [2]string{outputName(m.Outputs, i), formatValue(v)})
		}
	}
	if out := res.Outcome; out != nil {
		pairs = append(pairs, [2]string{"tx", out.TxHash.Hex()})
		if out.Receipt != nil {
			status := "success"
			if out.Receipt.Status == 0 {
				status = "failed"
			}
			pairs = append(pairs,
				[2]string{"status", status},
				[2]string{"block", out.Receipt.BlockNumber.String()},
				[2]string{"gas used", fmt.Sprintf("%d", out.Receipt.GasUsed)},
			)
		} else {
			pairs = append(pairs, [2]string{"status", "pending"})
		}
		pairs = append(pairs, [2]string{"from", client.From().Hex()})
	}
	return pairs
}

func outputName(args abi.Arguments, i int) string {
	if i < len(args) && args[i].Name != "" {
		return args[i].Name
	}
	if len(args) == 1 {
		return "result"
	}
	return fmt.Sprintf("out[%d]", i)
}

// formatValue renders a decoded ABI value.
func formatValue(v any) string {
	switch x := v.(type) {
	case common.Address:
		return x.Hex()
	case [32]byte:
		return common.Hash(x).Hex()
	case common.Hash:
		return x.Hex()
	case *big.Int:
		return x.String()
	case []byte:
		return "0x" + common.Bytes2Hex(x)
	case string:
		return x
	case bool:
		if x {
			return "true"
		}
		return "false"
	}
	s := fmt.Sprintf("%v", v)
	return strings.TrimSpace(s)
}
