package contract

import (
	"context"
	"errors"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"go.uber.org/zap"
)

// Defaults used when an Option does not override them.
const (
	DefaultCallTimeout    = 15 * time.Second
	DefaultReceiptTimeout = 3 * time.Minute
	DefaultGasLimit       = uint64(300_000)

	receiptPollInterval = 2 * time.Second
)

// Outcome is the raw result of a state-changing call.
type Outcome struct {
	Entrypoint string
	TxHash     common.Hash
	// Receipt is nil when the invoker does not wait for mining.
	Receipt *types.Receipt
	// Return is the data the pre-flight simulation returned.
	Return []byte

	binding *Binding
}

// Decode unpacks the pre-flight return data.
func (o *Outcome) Decode() ([]any, error) {
	return o.binding.Unpack(o.Entrypoint, o.Return)
}

// Invoker performs read and write calls against a bound contract over a
// session connection. It is safe for concurrent use.
type Invoker struct {
	binding        *Binding
	conn           Conn
	log            *zap.Logger
	callTimeout    time.Duration
	receiptTimeout time.Duration
	waitReceipt    bool
	gasLimit       uint64
	pollInterval   time.Duration
}

// Option configures an Invoker.
type Option func(*Invoker)

// WithLogger sets the logger failures are reported to.
func WithLogger(l *zap.Logger) Option {
	return func(i *Invoker) { i.log = l }
}

// WithCallTimeout bounds every single remote call.
func WithCallTimeout(d time.Duration) Option {
	return func(i *Invoker) { i.callTimeout = d }
}

// WithReceipt makes ContractCall wait up to timeout for the transaction to be
// mined.
func WithReceipt(timeout time.Duration) Option {
	return func(i *Invoker) {
		i.waitReceipt = true
		i.receiptTimeout = timeout
	}
}

// WithGasLimit sets the gas limit used when estimation fails.
func WithGasLimit(gas uint64) Option {
	return func(i *Invoker) { i.gasLimit = gas }
}

// WithPollInterval sets how often the receipt is polled.
func WithPollInterval(d time.Duration) Option {
	return func(i *Invoker) { i.pollInterval = d }
}

// NewInvoker creates an Invoker for binding over conn.
func NewInvoker(binding *Binding, conn Conn, opts ...Option) *Invoker {
	i := &Invoker{
		binding:        binding,
		conn:           conn,
		log:            zap.NewNop(),
		callTimeout:    DefaultCallTimeout,
		receiptTimeout: DefaultReceiptTimeout,
		gasLimit:       DefaultGasLimit,
		pollInterval:   receiptPollInterval,
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// Binding returns the contract binding the invoker calls.
func (i *Invoker) Binding() *Binding { return i.binding }

// CallStatic simulates a non-mutating entrypoint and decodes its result.
// Nothing is broadcast.
func (i *Invoker) CallStatic(ctx context.Context, name string, args ...any) ([]any, error) {
	if _, err := i.binding.Method(name); err != nil {
		return nil, i.fail(err)
	}
	if !i.binding.IsRead(name) {
		return nil, i.fail(newCallError(ErrNotReadOnly, name, ErrNotReadOnly))
	}

	data, err := i.binding.Pack(name, args...)
	if err != nil {
		return nil, i.fail(err)
	}

	raw, err := i.simulate(ctx, name, data, nil)
	if err != nil {
		return nil, i.fail(err)
	}

	vals, err := i.binding.Unpack(name, raw)
	if err != nil {
		return nil, i.fail(err)
	}
	i.log.Debug("static call", zap.String("entrypoint", name), zap.Int("result_values", len(vals)))
	return vals, nil
}

// ContractCall broadcasts a state-changing call with value attached.
// A pre-flight simulation runs first so that a remote abort is reported
// before anything is signed.
func (i *Invoker) ContractCall(ctx context.Context, name string, value *big.Int, args ...any) (*Outcome, error) {
	m, err := i.binding.Method(name)
	if err != nil {
		return nil, i.fail(err)
	}
	if m.IsConstant() {
		return nil, i.fail(newCallError(ErrNotWritable, name, ErrNotWritable))
	}
	if value == nil {
		value = new(big.Int)
	}
	if value.Sign() < 0 {
		return nil, i.fail(invalidArg(name, "negative value %s", value))
	}
	if value.Sign() > 0 && !m.IsPayable() {
		return nil, i.fail(invalidArg(name, "entrypoint is not payable, value %s", value))
	}
	signer := i.conn.Signer()
	if signer == nil {
		return nil, i.fail(newCallError(ErrNoSigner, name, ErrNoSigner))
	}

	data, err := i.binding.Pack(name, args...)
	if err != nil {
		return nil, i.fail(err)
	}

	ret, err := i.simulate(ctx, name, data, value)
	if err != nil {
		return nil, i.fail(err)
	}

	tx, err := i.buildTx(ctx, name, data, value)
	if err != nil {
		return nil, i.fail(err)
	}

	signed, err := signer.SignTx(tx, i.conn.ChainID())
	if err != nil {
		return nil, i.fail(newCallError(ErrNoSigner, name, err))
	}

	sendCtx, cancel := context.WithTimeout(ctx, i.callTimeout)
	err = i.conn.Backend().SendTransaction(sendCtx, signed)
	cancel()
	if err != nil {
		return nil, i.fail(classify(name, err))
	}

	out := &Outcome{Entrypoint: name, TxHash: signed.Hash(), Return: ret, binding: i.binding}
	i.log.Info("transaction sent",
		zap.String("entrypoint", name),
		zap.Stringer("tx", out.TxHash),
		zap.Stringer("value", value))

	if !i.waitReceipt {
		return out, nil
	}
	receipt, err := i.waitForReceipt(ctx, name, out.TxHash)
	out.Receipt = receipt
	if err != nil {
		return out, i.fail(err)
	}
	return out, nil
}

func (i *Invoker) simulate(ctx context.Context, name string, data []byte, value *big.Int) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, i.callTimeout)
	defer cancel()

	to := i.binding.Address()
	msg := ethereum.CallMsg{From: i.conn.From(), To: &to, Data: data, Value: value}
	raw, err := i.conn.Backend().CallContract(ctx, msg, nil)
	if err != nil {
		return nil, classify(name, err)
	}
	return raw, nil
}

// buildTx assembles an unsigned EIP-1559 transaction the same way for every
// entrypoint: estimated gas (falling back to the configured limit), tip equal
// to the suggested gas price and a fee cap of twice that.
func (i *Invoker) buildTx(ctx context.Context, name string, data []byte, value *big.Int) (*types.Transaction, error) {
	ctx, cancel := context.WithTimeout(ctx, i.callTimeout)
	defer cancel()

	backend := i.conn.Backend()
	from := i.conn.From()
	to := i.binding.Address()

	gas, err := backend.EstimateGas(ctx, ethereum.CallMsg{From: from, To: &to, Data: data, Value: value})
	if err != nil {
		if ctx.Err() != nil {
			return nil, classify(name, ctx.Err())
		}
		i.log.Debug("gas estimation failed, using fallback",
			zap.String("entrypoint", name), zap.Uint64("gas", i.gasLimit), zap.Error(err))
		gas = i.gasLimit
	}

	gasPrice, err := backend.SuggestGasPrice(ctx)
	if err != nil {
		return nil, classify(name, err)
	}

	nonce, err := backend.PendingNonceAt(ctx, from)
	if err != nil {
		return nil, classify(name, err)
	}

	return types.NewTx(&types.DynamicFeeTx{
		ChainID:   i.conn.ChainID(),
		Nonce:     nonce,
		GasTipCap: gasPrice,
		GasFeeCap: new(big.Int).Mul(gasPrice, big.NewInt(2)),
		Gas:       gas,
		To:        &to,
		Value:     value,
		Data:      data,
	}), nil
}

// waitForReceipt polls until the transaction is mined or the receipt timeout
// expires. A receipt with status 0 is reported as ErrReverted.
func (i *Invoker) waitForReceipt(ctx context.Context, name string, hash common.Hash) (*types.Receipt, error) {
	ctx, cancel := context.WithTimeout(ctx, i.receiptTimeout)
	defer cancel()

	ticker := time.NewTicker(i.pollInterval)
	defer ticker.Stop()

	for {
		receipt, err := i.conn.Backend().TransactionReceipt(ctx, hash)
		switch {
		case err == nil:
			if receipt.Status == types.ReceiptStatusFailed {
				ce := newCallError(ErrReverted, name, errors.New("transaction reverted"))
				ce.Reason = "tx " + hash.Hex() + " reverted"
				return receipt, ce
			}
			return receipt, nil
		case !errors.Is(err, ethereum.NotFound):
			return nil, classify(name, err)
		}

		select {
		case <-ctx.Done():
			return nil, classify(name, ctx.Err())
		case <-ticker.C:
		}
	}
}

// fail logs err once and returns it.
func (i *Invoker) fail(err error) error {
	ce := classify("", err)
	i.log.Warn("contract call failed",
		zap.String("entrypoint", ce.Entrypoint),
		zap.String("kind", ce.Kind.Error()),
		zap.String("reason", ce.Reason),
		zap.Error(ce.Err))
	return ce
}
