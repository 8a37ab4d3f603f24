package contract

import (
	"context"
	"math/big"
	"strings"
)

// Request names one entrypoint invocation: the arguments in declaration
// order and the value to attach. Value is ignored for read entrypoints.
type Request struct {
	Entrypoint string
	Args       []any
	Value      *big.Int
}

// NewRequest checks that name exists in binding and returns a request for it.
func NewRequest(b *Binding, name string, args ...any) (Request, error) {
	if _, err := b.Method(name); err != nil {
		return Request{}, err
	}
	return Request{Entrypoint: name, Args: args}, nil
}

// WithValue returns a copy of r carrying value.
func (r Request) WithValue(value *big.Int) Request {
	r.Value = value
	return r
}

// Result is what Invoke returns: decoded values for a read, or the outcome
// of a broadcast for a write.
type Result struct {
	Values  []any
	Outcome *Outcome
}

// Invoke dispatches r to CallStatic or ContractCall depending on whether the
// entrypoint mutates state. A write's values are decoded from the pre-flight
// return data.
func (i *Invoker) Invoke(ctx context.Context, r Request) (*Result, error) {
	if _, err := i.binding.Method(r.Entrypoint); err != nil {
		return nil, i.fail(err)
	}
	if i.binding.IsRead(r.Entrypoint) {
		if r.Value != nil && r.Value.Sign() != 0 {
			return nil, i.fail(invalidArg(r.Entrypoint, "value %s attached to a read entrypoint", r.Value))
		}
		vals, err := i.CallStatic(ctx, r.Entrypoint, r.Args...)
		if err != nil {
			return nil, err
		}
		return &Result{Values: vals}, nil
	}

	out, err := i.ContractCall(ctx, r.Entrypoint, r.Value, r.Args...)
	if err != nil {
		return &Result{Outcome: out}, err
	}
	vals, err := out.Decode()
	if err != nil {
		return &Result{Outcome: out}, i.fail(err)
	}
	return &Result{Values: vals, Outcome: out}, nil
}

// ParseValue parses an attached value as typed into a form. Empty means zero.
func ParseValue(s string) (*big.Int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return new(big.Int), nil
	}
	v, ok := new(big.Int).SetString(s, 0)
	if !ok {
		return nil, invalidArg("value", "invalid amount %q", s)
	}
	if v.Sign() < 0 {
		return nil, invalidArg("value", "negative amount %s", v)
	}
	return v, nil
}
