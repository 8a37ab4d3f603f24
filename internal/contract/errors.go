package contract

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/rpc"
)

// Error kinds. Every error returned by an Invoker matches exactly one of them
// with errors.Is.
var (
	ErrConnection        = errors.New("node unreachable")
	ErrReverted          = errors.New("call reverted")
	ErrDecode            = errors.New("undecodable result")
	ErrTimeout           = errors.New("call timed out")
	ErrInvalidArgument   = errors.New("invalid argument")
	ErrUnknownEntrypoint = errors.New("unknown entrypoint")
	ErrNotReadOnly       = errors.New("entrypoint is not read-only")
	ErrNotWritable       = errors.New("entrypoint does not change state")
	ErrNoSigner          = errors.New("no signing wallet in session")
)

// CallError describes a failed invocation of a contract entrypoint.
type CallError struct {
	Kind       error
	Entrypoint string
	Reason     string // revert reason, when the node reported one
	Err        error
}

func (e *CallError) Error() string {
	var sb strings.Builder
	sb.WriteString(e.Entrypoint)
	sb.WriteString(": ")
	sb.WriteString(e.Kind.Error())
	if e.Reason != "" {
		sb.WriteString(": ")
		sb.WriteString(e.Reason)
	} else if e.Err != nil && e.Err != e.Kind {
		sb.WriteString(": ")
		sb.WriteString(e.Err.Error())
	}
	return sb.String()
}

// Is reports whether target is the kind of this error.
func (e *CallError) Is(target error) bool { return e.Kind == target }

func (e *CallError) Unwrap() error { return e.Err }

// KindOf returns the error kind of err, or nil if err is not a CallError.
func KindOf(err error) error {
	var ce *CallError
	if errors.As(err, &ce) {
		return ce.Kind
	}
	return nil
}

func newCallError(kind error, entrypoint string, err error) *CallError {
	return &CallError{Kind: kind, Entrypoint: entrypoint, Err: err}
}

// classify maps a transport or node error onto an error kind.
func classify(entrypoint string, err error) *CallError {
	if err == nil {
		return nil
	}
	var ce *CallError
	if errors.As(err, &ce) {
		return ce
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return newCallError(ErrTimeout, entrypoint, err)
	}

	msg := err.Error()
	if isRevert(err, msg) {
		ce := newCallError(ErrReverted, entrypoint, err)
		ce.Reason = extractRevertReason(msg)
		return ce
	}
	return newCallError(ErrConnection, entrypoint, err)
}

// revertCode is the JSON-RPC error code nodes use for execution reverts.
const revertCode = 3

// isRevert reports whether err is the node aborting execution. Any other
// JSON-RPC error (unknown method, rate limit, funds) is a node failure.
func isRevert(err error, msg string) bool {
	var rpcErr rpc.Error
	if errors.As(err, &rpcErr) && rpcErr.ErrorCode() == revertCode {
		return true
	}
	return strings.Contains(msg, "revert")
}

// extractRevertReason tries to pull the revert reason out of an RPC error message.
func extractRevertReason(errMsg string) string {
	// Common pattern: "execution reverted: <reason>"
	if idx := strings.Index(errMsg, "execution reverted:"); idx >= 0 {
		return strings.TrimSpace(errMsg[idx+len("execution reverted:"):])
	}
	if idx := strings.Index(errMsg, "revert"); idx >= 0 {
		return strings.TrimSpace(errMsg[idx:])
	}
	return errMsg
}

func invalidArg(entrypoint string, format string, args ...any) *CallError {
	return newCallError(ErrInvalidArgument, entrypoint, fmt.Errorf(format, args...))
}
