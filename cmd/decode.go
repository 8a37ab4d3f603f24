package cmd

import (
	"fmt"
	"strings"

	"github.com/Mohsinsiddi/w3oracle/internal/contract"
	"github.com/Mohsinsiddi/w3oracle/internal/ui"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/spf13/cobra"
)

func newDecodeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "decode <calldata>",
		Short: "Decode oracle registry calldata into entrypoint and arguments",
		Long: `Decode raw calldata (hex) sent to the oracle registry. No RPC call needed.

Unknown selectors are shown as raw 32-byte words.

Examples:
  w3oracle decode 0x4d5f8d2b0000...`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pairs, err := decodeCalldata(a.binding, args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(a.out, ui.KeyValueBlock("Decoded Calldata", pairs))
			return nil
		},
	}
}

func decodeCalldata(b *contract.Binding, calldata string) ([][2]string, error) {
	clean := strings.TrimPrefix(strings.TrimPrefix(calldata, "0x"), "0X")
	if len(clean) < 8 {
		return nil, fmt.Errorf("%w: calldata shorter than a 4-byte selector", contract.ErrInvalidArgument)
	}
	data, err := hexutil.Decode("0x" + clean)
	if err != nil {
		return nil, fmt.Errorf("%w: calldata: %v", contract.ErrInvalidArgument, err)
	}

	parsed := b.ABI()
	m, err := parsed.MethodById(data[:4])
	if err != nil {
		pairs := [][2]string{{"selector", hexutil.Encode(data[:4])}, {"entrypoint", "unknown"}}
		for i, w := range splitHexWords(clean[8:]) {
			pairs = append(pairs, [2]string{fmt.Sprintf("word[%d]", i), "0x" + w})
		}
		return pairs, nil
	}

	vals, err := m.Inputs.Unpack(data[4:])
	if err != nil {
		return nil, fmt.Errorf("%w: %s arguments: %v", contract.ErrDecode, m.Name, err)
	}
	pairs := [][2]string{{"selector", hexutil.Encode(m.ID)}, {"entrypoint", m.Name}}
	for i, v := range vals {
		name := m.Inputs[i].Name
		if name == "" {
			name = fmt.Sprintf("arg[%d]", i)
		}
		pairs = append(pairs, [2]string{name, formatValue(v)})
	}
	return pairs, nil
}

// splitHexWords splits a hex string into 64-char (32-byte) words. A trailing
// partial word is kept.
func splitHexWords(hex string) []string {
	var words []string
	for len(hex) > 64 {
		words = append(words, hex[:64])
		hex = hex[64:]
	}
	if hex != "" {
		words = append(words, hex)
	}
	return words
}
