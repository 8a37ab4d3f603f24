package contract

import (
	"bytes"
	_ "embed"
	"encoding/hex"
	"fmt"
	"sort"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"golang.org/x/crypto/sha3"
)

// DefaultAddress is where the oracle registry is deployed on the testnet.
const DefaultAddress = "0x5FbDB2315678afecb367f032d93F642f64180aa3"

// Entrypoint names exposed by the oracle registry.
const (
	RegisterOracle  = "registerOracle"
	GetOracle       = "get_oracle"
	ExtendOracle    = "extendOracle"
	QuestAnswer     = "quest_answer"
	GetQuestion     = "getQuestion"
	HasAnswer       = "hasAnswer"
	GetAnswer       = "getAnswer"
	ContractBalance = "contract_balance"
	GetQuery        = "get_query"
	QueryFee        = "queryFee"
	CreateQuery     = "createQuery"
	LookupAnswer    = "get_answer"
	Respond         = "respond"
	GetCheck        = "getCheck"
	ContractCreator = "contract_creator"
)

//go:embed oracle.abi.json
var oracleABI []byte

// Binding pairs the oracle contract description with its deployed address.
type Binding struct {
	address common.Address
	abi     abi.ABI
}

// DefaultBinding returns the binding for the deployed oracle registry.
func DefaultBinding() *Binding {
	b, err := NewBinding(common.HexToAddress(DefaultAddress))
	if err != nil {
		// The embedded description is a compile-time constant.
		panic(err)
	}
	return b
}

// NewBinding parses the embedded contract description and binds it to address.
func NewBinding(address common.Address) (*Binding, error) {
	parsed, err := abi.JSON(bytes.NewReader(oracleABI))
	if err != nil {
		return nil, fmt.Errorf("parsing oracle ABI: %w", err)
	}
	return &Binding{address: address, abi: parsed}, nil
}

// Address returns the deployed contract address.
func (b *Binding) Address() common.Address { return b.address }

// ABI returns the parsed contract description.
func (b *Binding) ABI() abi.ABI { return b.abi }

// Fingerprint returns the SHA3-256 digest of the embedded description, so a
// user can check which revision of the contract interface the binary speaks.
func (b *Binding) Fingerprint() string {
	sum := sha3.Sum256(oracleABI)
	return "0x" + hex.EncodeToString(sum[:])
}

// Method looks up an entrypoint by name.
func (b *Binding) Method(name string) (abi.Method, error) {
	m, ok := b.abi.Methods[name]
	if !ok {
		return abi.Method{}, newCallError(ErrUnknownEntrypoint, name, fmt.Errorf("%q not in contract description", name))
	}
	return m, nil
}

// IsRead reports whether name is a non-mutating entrypoint.
func (b *Binding) IsRead(name string) bool {
	m, ok := b.abi.Methods[name]
	return ok && m.IsConstant()
}

// IsWrite reports whether name is a state-changing entrypoint.
func (b *Binding) IsWrite(name string) bool {
	m, ok := b.abi.Methods[name]
	return ok && !m.IsConstant()
}

// Entrypoints returns all entrypoints sorted by name.
func (b *Binding) Entrypoints() []abi.Method {
	out := make([]abi.Method, 0, len(b.abi.Methods))
	for _, m := range b.abi.Methods {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Pack coerces args to the entrypoint's declared input types and returns the
// calldata.
func (b *Binding) Pack(name string, args ...any) ([]byte, error) {
	m, err := b.Method(name)
	if err != nil {
		return nil, err
	}
	if len(args) != len(m.Inputs) {
		return nil, invalidArg(name, "expected %d argument(s), got %d", len(m.Inputs), len(args))
	}
	coerced := make([]any, len(args))
	for i, in := range m.Inputs {
		v, err := coerce(in.Type, args[i])
		if err != nil {
			return nil, invalidArg(name, "argument %d (%s %s): %v", i, in.Type.String(), in.Name, err)
		}
		coerced[i] = v
	}
	data, err := b.abi.Pack(name, coerced...)
	if err != nil {
		return nil, invalidArg(name, "packing: %v", err)
	}
	return data, nil
}

// Unpack decodes the return data of name.
func (b *Binding) Unpack(name string, data []byte) ([]any, error) {
	m, err := b.Method(name)
	if err != nil {
		return nil, err
	}
	if len(m.Outputs) == 0 {
		return nil, nil
	}
	out, err := m.Outputs.Unpack(data)
	if err != nil {
		return nil, newCallError(ErrDecode, name, err)
	}
	return out, nil
}
