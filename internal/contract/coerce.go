package contract

import (
	"errors"
	"fmt"
	"math/big"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

// coerce converts a form value into the Go type the ABI packer expects.
// Values that are not strings are passed through untouched.
func coerce(typ abi.Type, v any) (any, error) {
	s, ok := v.(string)
	if !ok {
		return passthrough(typ, v)
	}
	if typ.T == abi.StringTy {
		return s, nil
	}
	s = strings.TrimSpace(s)

	switch typ.T {
	case abi.AddressTy:
		if !common.IsHexAddress(s) {
			return nil, fmt.Errorf("not a hex address: %q", s)
		}
		return common.HexToAddress(s), nil

	case abi.FixedBytesTy:
		if typ.Size != common.HashLength {
			return nil, fmt.Errorf("unsupported fixed bytes size %d", typ.Size)
		}
		raw := strings.TrimPrefix(s, "0x")
		if len(raw) == 0 || len(raw) > typ.Size*2 || !isHex(raw) {
			return nil, fmt.Errorf("expected up to %d hex bytes, got %q", typ.Size, s)
		}
		return [32]byte(common.HexToHash(raw)), nil

	case abi.UintTy, abi.IntTy:
		n, ok := new(big.Int).SetString(s, 0)
		if !ok {
			return nil, fmt.Errorf("invalid integer: %q", s)
		}
		if typ.T == abi.UintTy && n.Sign() < 0 {
			return nil, errors.New("negative value for unsigned type")
		}
		if n.BitLen() > typ.Size {
			return nil, fmt.Errorf("value overflows %s", typ.String())
		}
		return n, nil

	case abi.BoolTy:
		b, err := strconv.ParseBool(s)
		if err != nil {
			return nil, fmt.Errorf("invalid bool: %q", s)
		}
		return b, nil
	}
	return nil, fmt.Errorf("unsupported type %s", typ.String())
}

func passthrough(typ abi.Type, v any) (any, error) {
	switch typ.T {
	case abi.FixedBytesTy:
		if h, ok := v.(common.Hash); ok {
			return [32]byte(h), nil
		}
	case abi.UintTy, abi.IntTy:
		switch n := v.(type) {
		case int:
			return big.NewInt(int64(n)), nil
		case int64:
			return big.NewInt(n), nil
		case uint64:
			return new(big.Int).SetUint64(n), nil
		}
	}
	return v, nil
}

func isHex(s string) bool {
	for _, c := range s {
		switch {
		case c >= '0' && c <= '9', c >= 'a' && c <= 'f', c >= 'A' && c <= 'F':
		default:
			return false
		}
	}
	return true
}
