package cmd

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/Mohsinsiddi/w3oracle/internal/contract"
	"github.com/Mohsinsiddi/w3oracle/internal/ui"
	"github.com/ethereum/go-ethereum/params"
	"github.com/spf13/cobra"
)

func newConvertCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "convert <amount> [unit]",
		Short: "Convert an amount to wei for --fee and --value",
		Long: `Convert between ETH, Gwei and Wei. Fees and attached values are always
given in wei; use this to work them out.

Units: eth, gwei, wei (default)

Examples:
  w3oracle convert 0.01 eth
  w3oracle convert 50 gwei
  w3oracle convert 100`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			unit := "wei"
			if len(args) > 1 {
				unit = args[1]
			}
			wei, err := toWei(args[0], unit)
			if err != nil {
				return err
			}
			fmt.Fprintln(a.out, ui.KeyValueBlock("Unit Conversion", [][2]string{
				{"input", args[0] + " " + strings.ToLower(unit)},
				{"wei", wei.String()},
				{"gwei", fromWei(wei, params.GWei, 9)},
				{"eth", fromWei(wei, params.Ether, 18)},
				{"hex", "0x" + wei.Text(16)},
			}))
			return nil
		},
	}
}

// toWei converts amount in unit to wei. Fractions below one wei are rejected.
func toWei(amount, unit string) (*big.Int, error) {
	var mult int64
	switch strings.ToLower(unit) {
	case "eth", "ether":
		mult = params.Ether
	case "gwei":
		mult = params.GWei
	case "wei":
		mult = params.Wei
	default:
		return nil, fmt.Errorf("%w: unknown unit %q, use eth, gwei or wei", contract.ErrInvalidArgument, unit)
	}

	r, ok := new(big.Rat).SetString(strings.TrimSpace(amount))
	if !ok || r.Sign() < 0 {
		return nil, fmt.Errorf("%w: invalid amount %q", contract.ErrInvalidArgument, amount)
	}
	r.Mul(r, new(big.Rat).SetInt64(mult))
	if !r.IsInt() {
		return nil, fmt.Errorf("%w: %s %s is not a whole number of wei", contract.ErrInvalidArgument, amount, unit)
	}
	return new(big.Int).Set(r.Num()), nil
}

func fromWei(wei *big.Int, per int64, decimals int) string {
	r := new(big.Rat).SetFrac(wei, big.NewInt(per))
	s := r.FloatString(decimals)
	if strings.Contains(s, ".") {
		s = strings.TrimRight(strings.TrimRight(s, "0"), ".")
	}
	return s
}
