// Package contracttest provides an in-memory chain node that executes the
// oracle registry entrypoints, for tests that need a live backend.
package contracttest

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Mohsinsiddi/w3oracle/internal/contract"
	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
)

// Hardhat dev accounts #0 and #1. Never fund them on a real network.
const (
	DevKey0 = "ac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80"
	DevKey1 = "59c6995e998f97a5a0044966f0945389dc9e86dae88c7a8412f4603b6b78690d"
)

// ChainID is the chain id the node reports.
const ChainID = 1337

// RevertError is what the node returns when an entrypoint aborts.
type RevertError struct{ Reason string }

func (e *RevertError) Error() string { return "execution reverted: " + e.Reason }

// ErrorData implements rpc.DataError.
func (e *RevertError) ErrorData() interface{} { return e.Reason }

// ErrorCode implements rpc.Error.
func (e *RevertError) ErrorCode() int { return 3 }

// Node is a single-contract chain. All methods are safe for concurrent use.
type Node struct {
	binding *contract.Binding

	// Fault, when set, is consulted before every backend method; a non-nil
	// return is handed back to the caller instead of executing.
	Fault func(op string) error
	// Latency delays every backend method, honouring the context.
	Latency time.Duration
	// HoldReceipts leaves every receipt unavailable, as for a transaction
	// stuck in the mempool.
	HoldReceipts bool

	mu       sync.Mutex
	st       *state
	nonces   map[common.Address]uint64
	receipts map[common.Hash]*types.Receipt
	closed   bool

	calls atomic.Int64
	sent  atomic.Int64
}

type oracleState struct {
	fee    *big.Int
	expiry uint64
}

type queryState struct {
	oracle   common.Address
	question string
	fee      *big.Int
	answer   *string
}

// state is the contract storage plus the chain height.
type state struct {
	height         uint64
	creator        common.Address
	balance        *big.Int
	oracles        map[common.Address]*oracleState
	sourceOracle   map[common.Address]common.Address
	idQuery        map[common.Address]common.Hash
	questionAnswer map[string]string
	queries        map[common.Hash]*queryState
	querySeq       uint64
}

// NewNode deploys the oracle registry at binding's address, created by creator.
func NewNode(binding *contract.Binding, creator common.Address) *Node {
	return &Node{
		binding: binding,
		st: &state{
			height:         1,
			creator:        creator,
			balance:        new(big.Int),
			oracles:        make(map[common.Address]*oracleState),
			sourceOracle:   make(map[common.Address]common.Address),
			idQuery:        make(map[common.Address]common.Hash),
			questionAnswer: make(map[string]string),
			queries:        make(map[common.Hash]*queryState),
		},
		nonces:   make(map[common.Address]uint64),
		receipts: make(map[common.Hash]*types.Receipt),
	}
}

// Calls returns the number of backend method invocations so far.
func (n *Node) Calls() int64 { return n.calls.Load() }

// Sent returns the number of accepted transactions.
func (n *Node) Sent() int64 { return n.sent.Load() }

// Height returns the current block height.
func (n *Node) Height() uint64 {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.st.height
}

// AddQuery records an unanswered query directly in storage and returns its id.
func (n *Node) AddQuery(oracle common.Address, question string) common.Hash {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.st.newQuery(common.Address{}, oracle, question, new(big.Int))
}

// --- backend methods ---

// ChainID implements session.Backend.
func (n *Node) ChainID(ctx context.Context) (*big.Int, error) {
	if err := n.enter(ctx, "chainId"); err != nil {
		return nil, err
	}
	return big.NewInt(ChainID), nil
}

// BlockNumber reports the current height, as eth_blockNumber would.
func (n *Node) BlockNumber(ctx context.Context) (uint64, error) {
	if err := n.enter(ctx, "blockNumber"); err != nil {
		return 0, err
	}
	return n.Height(), nil
}

// Close implements session.Backend.
func (n *Node) Close() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.closed = true
}

// Reopen undoes Close, as a redial would.
func (n *Node) Reopen() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.closed = false
}

// CallContract implements contract.Backend.
func (n *Node) CallContract(ctx context.Context, call ethereum.CallMsg, _ *big.Int) ([]byte, error) {
	if err := n.enter(ctx, "call"); err != nil {
		return nil, err
	}
	if call.To == nil || *call.To != n.binding.Address() {
		return nil, nil // no code at address
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	sim := n.st.clone()
	return sim.execute(n.binding, call.From, valueOf(call.Value), call.Data)
}

// EstimateGas implements contract.Backend.
func (n *Node) EstimateGas(ctx context.Context, call ethereum.CallMsg) (uint64, error) {
	if err := n.enter(ctx, "estimateGas"); err != nil {
		return 0, err
	}
	return 90_000, nil
}

// SuggestGasPrice implements contract.Backend.
func (n *Node) SuggestGasPrice(ctx context.Context) (*big.Int, error) {
	if err := n.enter(ctx, "gasPrice"); err != nil {
		return nil, err
	}
	return big.NewInt(1_000_000_000), nil
}

// PendingNonceAt implements contract.Backend.
func (n *Node) PendingNonceAt(ctx context.Context, account common.Address) (uint64, error) {
	if err := n.enter(ctx, "nonce"); err != nil {
		return 0, err
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.nonces[account], nil
}

// SendTransaction implements contract.Backend. The transaction is mined
// immediately; a reverting call still consumes the nonce and yields a
// failed receipt, with storage left untouched.
func (n *Node) SendTransaction(ctx context.Context, tx *types.Transaction) error {
	if err := n.enter(ctx, "sendTransaction"); err != nil {
		return err
	}
	from, err := types.Sender(types.LatestSignerForChainID(big.NewInt(ChainID)), tx)
	if err != nil {
		return fmt.Errorf("invalid sender: %w", err)
	}

	n.mu.Lock()
	defer n.mu.Unlock()
	if tx.Nonce() != n.nonces[from] {
		return fmt.Errorf("nonce too low: have %d, want %d", tx.Nonce(), n.nonces[from])
	}
	if tx.To() == nil || *tx.To() != n.binding.Address() {
		return errors.New("unknown recipient")
	}
	n.nonces[from]++

	next := n.st.clone()
	status := types.ReceiptStatusSuccessful
	if _, err := next.execute(n.binding, from, tx.Value(), tx.Data()); err != nil {
		status = types.ReceiptStatusFailed
	} else {
		next.balance.Add(next.balance, tx.Value())
		n.st = next
	}
	n.st.height++

	receipt := &types.Receipt{
		Type:        tx.Type(),
		Status:      status,
		TxHash:      tx.Hash(),
		BlockNumber: new(big.Int).SetUint64(n.st.height),
		GasUsed:     21_000,
	}
	if !n.HoldReceipts {
		n.receipts[tx.Hash()] = receipt
	}
	n.sent.Add(1)
	return nil
}

// TransactionReceipt implements contract.Backend.
func (n *Node) TransactionReceipt(ctx context.Context, hash common.Hash) (*types.Receipt, error) {
	if err := n.enter(ctx, "receipt"); err != nil {
		return nil, err
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	r, ok := n.receipts[hash]
	if !ok {
		return nil, ethereum.NotFound
	}
	return r, nil
}

func (n *Node) enter(ctx context.Context, op string) error {
	n.calls.Add(1)
	if n.Latency > 0 {
		select {
		case <-time.After(n.Latency):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	n.mu.Lock()
	closed := n.closed
	n.mu.Unlock()
	if closed {
		return errors.New("client is closed")
	}
	if n.Fault != nil {
		return n.Fault(op)
	}
	return nil
}

func valueOf(v *big.Int) *big.Int {
	if v == nil {
		return new(big.Int)
	}
	return v
}

// --- signer ---

// KeySigner signs with a raw private key.
type KeySigner struct {
	key *ecdsa.PrivateKey
}

// NewKeySigner parses a hex private key. It panics on malformed input.
func NewKeySigner(hexKey string) *KeySigner {
	key, err := crypto.HexToECDSA(hexKey)
	if err != nil {
		panic(err)
	}
	return &KeySigner{key: key}
}

// Address implements contract.TxSigner.
func (s *KeySigner) Address() common.Address { return crypto.PubkeyToAddress(s.key.PublicKey) }

// SignTx implements contract.TxSigner.
func (s *KeySigner) SignTx(tx *types.Transaction, chainID *big.Int) (*types.Transaction, error) {
	return types.SignTx(tx, types.LatestSignerForChainID(chainID), s.key)
}

// Conn is a contract.Conn over a Node.
type Conn struct {
	Node *Node
	// Key is nil for a read-only connection.
	Key *KeySigner
}

// Backend implements contract.Conn.
func (c *Conn) Backend() contract.Backend { return c.Node }

// ChainID implements contract.Conn.
func (c *Conn) ChainID() *big.Int { return big.NewInt(ChainID) }

// From implements contract.Conn.
func (c *Conn) From() common.Address {
	if c.Key == nil {
		return common.Address{}
	}
	return c.Key.Address()
}

// Signer implements contract.Conn.
func (c *Conn) Signer() contract.TxSigner {
	if c.Key == nil {
		return nil
	}
	return c.Key
}

// --- contract execution ---

func (s *state) clone() *state {
	c := &state{
		height:         s.height,
		creator:        s.creator,
		balance:        new(big.Int).Set(s.balance),
		oracles:        make(map[common.Address]*oracleState, len(s.oracles)),
		sourceOracle:   make(map[common.Address]common.Address, len(s.sourceOracle)),
		idQuery:        make(map[common.Address]common.Hash, len(s.idQuery)),
		questionAnswer: make(map[string]string, len(s.questionAnswer)),
		queries:        make(map[common.Hash]*queryState, len(s.queries)),
		querySeq:       s.querySeq,
	}
	for k, v := range s.oracles {
		o := *v
		c.oracles[k] = &o
	}
	for k, v := range s.sourceOracle {
		c.sourceOracle[k] = v
	}
	for k, v := range s.idQuery {
		c.idQuery[k] = v
	}
	for k, v := range s.questionAnswer {
		c.questionAnswer[k] = v
	}
	for k, v := range s.queries {
		q := *v
		c.queries[k] = &q
	}
	return c
}

func (s *state) newQuery(sender, oracle common.Address, question string, fee *big.Int) common.Hash {
	s.querySeq++
	id := crypto.Keccak256Hash(sender.Bytes(), oracle.Bytes(), []byte(question), new(big.Int).SetUint64(s.querySeq).Bytes())
	s.queries[id] = &queryState{oracle: oracle, question: question, fee: fee}
	return id
}

func (s *state) liveOracle(o common.Address) (*oracleState, error) {
	or, ok := s.oracles[o]
	if !ok {
		return nil, &RevertError{"oracle does not exist"}
	}
	if s.height > or.expiry {
		return nil, &RevertError{"oracle expired"}
	}
	return or, nil
}

func (s *state) query(o common.Address, id common.Hash) (*queryState, error) {
	q, ok := s.queries[id]
	if !ok || q.oracle != o {
		return nil, &RevertError{"query does not exist"}
	}
	return q, nil
}

// execute runs one entrypoint against s. The caller discards s on error.
func (s *state) execute(b *contract.Binding, from common.Address, value *big.Int, data []byte) ([]byte, error) {
	if len(data) < 4 {
		return nil, &RevertError{"no selector"}
	}
	parsed := b.ABI()
	m, err := parsed.MethodById(data[:4])
	if err != nil {
		return nil, &RevertError{"unknown selector"}
	}
	args, err := m.Inputs.Unpack(data[4:])
	if err != nil {
		return nil, &RevertError{"bad calldata: " + err.Error()}
	}
	if value.Sign() > 0 && !m.IsPayable() {
		return nil, &RevertError{"value sent to non-payable entrypoint"}
	}

	out, err := s.dispatch(b.Address(), m, from, value, args)
	if err != nil {
		return nil, err
	}
	return pack(m, out...)
}

func (s *state) dispatch(self common.Address, m *abi.Method, from common.Address, value *big.Int, args []any) ([]any, error) {
	switch m.Name {
	case contract.RegisterOracle:
		fee, ttl := args[0].(*big.Int), args[1].(*big.Int)
		if or, ok := s.oracles[self]; ok && s.height <= or.expiry {
			return nil, &RevertError{"oracle already registered"}
		}
		s.oracles[self] = &oracleState{fee: new(big.Int).Set(fee), expiry: s.height + ttl.Uint64()}
		s.sourceOracle[self] = self
		return []any{self}, nil

	case contract.GetOracle:
		o, ok := s.sourceOracle[self]
		if !ok {
			return nil, &RevertError{"Not registered"}
		}
		return []any{o}, nil

	case contract.ExtendOracle:
		o, ttl := args[0].(common.Address), args[1].(*big.Int)
		or, err := s.liveOracle(o)
		if err != nil {
			return nil, err
		}
		or.expiry += ttl.Uint64()
		return nil, nil

	case contract.QuestAnswer:
		quest, answ := args[0].(string), args[1].(string)
		if value.Sign() > 0 {
			return []any{false}, nil
		}
		s.questionAnswer[quest] = answ
		return []any{true}, nil

	case contract.GetQuestion:
		q, err := s.query(args[0].(common.Address), args[1].([32]byte))
		if err != nil {
			return nil, err
		}
		return []any{q.question}, nil

	case contract.HasAnswer:
		q, ok := s.queries[args[1].([32]byte)]
		return []any{ok && q.oracle == args[0].(common.Address) && q.answer != nil}, nil

	case contract.GetAnswer:
		q, ok := s.queries[args[1].([32]byte)]
		if !ok || q.oracle != args[0].(common.Address) || q.answer == nil {
			return []any{false, ""}, nil
		}
		return []any{true, *q.answer}, nil

	case contract.ContractBalance:
		return []any{new(big.Int).Set(s.balance)}, nil

	case contract.GetQuery:
		id, ok := s.idQuery[from]
		if !ok {
			return nil, &RevertError{"No query"}
		}
		return []any{[32]byte(id)}, nil

	case contract.QueryFee:
		or, ok := s.oracles[args[0].(common.Address)]
		if !ok {
			return nil, &RevertError{"oracle does not exist"}
		}
		return []any{new(big.Int).Set(or.fee)}, nil

	case contract.CreateQuery:
		o, q, qfee := args[0].(common.Address), args[1].(string), args[2].(*big.Int)
		if qfee.Cmp(value) > 0 {
			return nil, &RevertError{"insufficient value for qfee"}
		}
		or, err := s.liveOracle(o)
		if err != nil {
			return nil, err
		}
		if qfee.Cmp(or.fee) < 0 {
			return nil, &RevertError{"query fee too low"}
		}
		answer, ok := s.questionAnswer[q]
		if !ok {
			return nil, &RevertError{"Not registered"}
		}
		id := s.newQuery(from, o, q, qfee)
		s.queries[id].answer = &answer
		s.idQuery[from] = id
		return []any{[32]byte(id)}, nil

	case contract.LookupAnswer:
		answer, ok := s.questionAnswer[args[0].(string)]
		if !ok {
			return nil, &RevertError{"Not registered"}
		}
		return []any{answer}, nil

	case contract.Respond:
		q, err := s.query(args[0].(common.Address), args[1].([32]byte))
		if err != nil {
			return nil, err
		}
		if q.answer != nil {
			return nil, &RevertError{"query already answered"}
		}
		r := args[2].(string)
		q.answer = &r
		return nil, nil

	case contract.GetCheck:
		_, ok := s.oracles[args[0].(common.Address)]
		return []any{ok}, nil

	case contract.ContractCreator:
		return []any{s.creator}, nil
	}
	return nil, &RevertError{"unhandled entrypoint " + m.Name}
}

func pack(m *abi.Method, vals ...any) ([]byte, error) {
	if len(m.Outputs) == 0 {
		return nil, nil
	}
	return m.Outputs.Pack(vals...)
}
