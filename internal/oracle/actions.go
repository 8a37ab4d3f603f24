package oracle

import (
	"context"
	"strconv"

	"github.com/Mohsinsiddi/w3oracle/internal/contract"
)

// NoAnswer is shown in place of an answer that has not been posted.
const NoAnswer = "no answer yet"

// defaultTTL is the query and response TTL used when the form leaves them blank.
const defaultTTL = "1"

type runFunc func(ctx context.Context, inv *contract.Invoker, form Form) (Display, error)

// Action is one user-facing operation against the oracle registry.
type Action struct {
	Name        string
	Description string
	// Entrypoint is the first entrypoint the action calls.
	Entrypoint string
	Inputs     []Field
	// Optional lists inputs that may be left blank.
	Optional []Field
	Outputs  []Output
	// Writes is set when the action broadcasts a transaction.
	Writes bool

	run runFunc
}

// Label is the text shown while the action is in flight.
func (a Action) Label() string { return "Running " + a.Name + "…" }

var actions = []Action{
	{
		Name:        "register-oracle",
		Description: "Register the contract as an oracle",
		Entrypoint:  contract.RegisterOracle,
		Inputs:      []Field{FieldFee, FieldTTL},
		Outputs:     []Output{OutMessage, OutAddress, OutTx},
		Writes:      true,
		run:         registerOracle,
	},
	{
		Name:        "oracle-address",
		Description: "Show the registered oracle address",
		Entrypoint:  contract.GetOracle,
		Outputs:     []Output{OutMessage, OutAddress},
		run:         oracleAddress,
	},
	{
		Name:        "extend-oracle",
		Description: "Extend an oracle's TTL",
		Entrypoint:  contract.ExtendOracle,
		Inputs:      []Field{FieldAddress, FieldTTL},
		Outputs:     []Output{OutMessage, OutTx},
		Writes:      true,
		run:         extendOracle,
	},
	{
		Name:        "quest-answer",
		Description: "Record a question and its answer",
		Entrypoint:  contract.QuestAnswer,
		Inputs:      []Field{FieldQuestion, FieldAnswer, FieldValue},
		Optional:    []Field{FieldValue},
		Outputs:     []Output{OutMessage, OutTx},
		Writes:      true,
		run:         questAnswer,
	},
	{
		Name:        "get-question",
		Description: "Show the question of a query",
		Entrypoint:  contract.GetQuestion,
		Inputs:      []Field{FieldAddress, FieldQueryID},
		Outputs:     []Output{OutResult},
		run:         getQuestion,
	},
	{
		Name:        "has-answer",
		Description: "Check whether a query has been answered",
		Entrypoint:  contract.HasAnswer,
		Inputs:      []Field{FieldAddress, FieldQueryID},
		Outputs:     []Output{OutResult},
		run:         hasAnswer,
	},
	{
		Name:        "get-answer",
		Description: "Show the answer to a query",
		Entrypoint:  contract.GetAnswer,
		Inputs:      []Field{FieldAddress, FieldQueryID},
		Outputs:     []Output{OutResult},
		run:         getAnswer,
	},
	{
		Name:        "balance",
		Description: "Show the contract balance",
		Entrypoint:  contract.ContractBalance,
		Outputs:     []Output{OutBalance},
		run:         balance,
	},
	{
		Name:        "query-fee",
		Description: "Show an oracle's query fee",
		Entrypoint:  contract.QueryFee,
		Inputs:      []Field{FieldAddress},
		Outputs:     []Output{OutFee},
		run:         queryFee,
	},
	{
		Name:        "create-query",
		Description: "Pay for a query and fetch its answer",
		Entrypoint:  contract.CreateQuery,
		Inputs:      []Field{FieldAddress, FieldQuestion, FieldFee, FieldQueryTTL, FieldResponseTTL},
		Optional:    []Field{FieldQueryTTL, FieldResponseTTL},
		Outputs:     []Output{OutQueryID, OutAnswer, OutTx},
		Writes:      true,
		run:         createQuery,
	},
}

// Actions returns every action in menu order.
func Actions() []Action {
	out := make([]Action, len(actions))
	copy(out, actions)
	return out
}

// Lookup finds an action by name.
func Lookup(name string) (Action, bool) {
	for _, a := range actions {
		if a.Name == name {
			return a, true
		}
	}
	return Action{}, false
}

// IsOptional reports whether f may be left blank for a.
func (a Action) IsOptional(f Field) bool {
	for _, o := range a.Optional {
		if o == f {
			return true
		}
	}
	return false
}

func registerOracle(ctx context.Context, inv *contract.Invoker, form Form) (Display, error) {
	out, err := inv.ContractCall(ctx, contract.RegisterOracle, nil, form.Get(FieldFee), form.Get(FieldTTL))
	if err != nil {
		return nil, err
	}
	d := Display{OutMessage: "registered", OutTx: out.TxHash.Hex()}
	if addr, err := contract.Address(out.Decode()); err == nil {
		d[OutAddress] = addr.Hex()
	}
	return d, nil
}

func oracleAddress(ctx context.Context, inv *contract.Invoker, _ Form) (Display, error) {
	addr, err := contract.Address(inv.CallStatic(ctx, contract.GetOracle))
	if err != nil {
		return nil, err
	}
	return Display{OutMessage: addr.Hex(), OutAddress: addr.Hex()}, nil
}

func extendOracle(ctx context.Context, inv *contract.Invoker, form Form) (Display, error) {
	out, err := inv.ContractCall(ctx, contract.ExtendOracle, nil, form.Get(FieldAddress), form.Get(FieldTTL))
	if err != nil {
		return nil, err
	}
	return Display{OutMessage: "extend", OutTx: out.TxHash.Hex()}, nil
}

func questAnswer(ctx context.Context, inv *contract.Invoker, form Form) (Display, error) {
	value, err := contract.ParseValue(form.Get(FieldValue))
	if err != nil {
		return nil, err
	}
	out, err := inv.ContractCall(ctx, contract.QuestAnswer, value, form.Get(FieldQuestion), form.Get(FieldAnswer))
	if err != nil {
		return nil, err
	}
	accepted, err := contract.Bool(out.Decode())
	if err != nil {
		return nil, err
	}
	msg := "registered"
	if !accepted {
		msg = "rejected"
	}
	return Display{OutMessage: msg, OutTx: out.TxHash.Hex()}, nil
}

func getQuestion(ctx context.Context, inv *contract.Invoker, form Form) (Display, error) {
	q, err := contract.String(inv.CallStatic(ctx, contract.GetQuestion, form.Get(FieldAddress), form.Get(FieldQueryID)))
	if err != nil {
		return nil, err
	}
	return Display{OutResult: q}, nil
}

func hasAnswer(ctx context.Context, inv *contract.Invoker, form Form) (Display, error) {
	ok, err := contract.Bool(inv.CallStatic(ctx, contract.HasAnswer, form.Get(FieldAddress), form.Get(FieldQueryID)))
	if err != nil {
		return nil, err
	}
	return Display{OutResult: strconv.FormatBool(ok)}, nil
}

func getAnswer(ctx context.Context, inv *contract.Invoker, form Form) (Display, error) {
	answer, err := contract.OptionalString(inv.CallStatic(ctx, contract.GetAnswer, form.Get(FieldAddress), form.Get(FieldQueryID)))
	if err != nil {
		return nil, err
	}
	return Display{OutResult: answer.OrElse(NoAnswer)}, nil
}

func balance(ctx context.Context, inv *contract.Invoker, _ Form) (Display, error) {
	bal, err := contract.BigInt(inv.CallStatic(ctx, contract.ContractBalance))
	if err != nil {
		return nil, err
	}
	return Display{OutBalance: bal.String()}, nil
}

func queryFee(ctx context.Context, inv *contract.Invoker, form Form) (Display, error) {
	fee, err := contract.BigInt(inv.CallStatic(ctx, contract.QueryFee, form.Get(FieldAddress)))
	if err != nil {
		return nil, err
	}
	return Display{OutFee: fee.String()}, nil
}
