package contract

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// The helpers below take the (values, error) pair returned by CallStatic and
// convert it into a single Go-native value. A shape mismatch is reported as
// ErrDecode.

// Bool expects a single bool result.
func Bool(vals []any, err error) (bool, error) {
	return single[bool](vals, err)
}

// BigInt expects a single integer result.
func BigInt(vals []any, err error) (*big.Int, error) {
	return single[*big.Int](vals, err)
}

// String expects a single string result.
func String(vals []any, err error) (string, error) {
	return single[string](vals, err)
}

// Address expects a single address result.
func Address(vals []any, err error) (common.Address, error) {
	return single[common.Address](vals, err)
}

// Hash expects a single bytes32 result.
func Hash(vals []any, err error) (common.Hash, error) {
	b, err := single[[32]byte](vals, err)
	return common.Hash(b), err
}

// OptionalString expects the (present, payload) pair the contract uses to
// encode option(string).
func OptionalString(vals []any, err error) (Optional[string], error) {
	if err != nil {
		return None[string](), err
	}
	if len(vals) != 2 {
		return None[string](), decodeErr("expected 2 values, got %d", len(vals))
	}
	present, ok := vals[0].(bool)
	if !ok {
		return None[string](), decodeErr("option tag is %T, not bool", vals[0])
	}
	payload, ok := vals[1].(string)
	if !ok {
		return None[string](), decodeErr("option payload is %T, not string", vals[1])
	}
	if !present {
		return None[string](), nil
	}
	return Some(payload), nil
}

func single[T any](vals []any, err error) (T, error) {
	var zero T
	if err != nil {
		return zero, err
	}
	if len(vals) != 1 {
		return zero, decodeErr("expected 1 value, got %d", len(vals))
	}
	v, ok := vals[0].(T)
	if !ok {
		return zero, decodeErr("result is %T, not %T", vals[0], zero)
	}
	return v, nil
}

func decodeErr(format string, args ...any) error {
	return &CallError{Kind: ErrDecode, Entrypoint: "result", Err: fmt.Errorf(format, args...)}
}
