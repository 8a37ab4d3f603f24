package oracle

import (
	"context"
	"fmt"

	"github.com/Mohsinsiddi/w3oracle/internal/contract"
	"github.com/ethereum/go-ethereum/common"
)

// step is one stage of a multi-call action. It records what it learned in
// the shared display and returns an error to stop the pipeline.
type step struct {
	name string
	run  func(ctx context.Context, d Display) error
}

// pipeline runs steps in order and stops at the first failure. The display
// keeps whatever the completed steps produced.
func pipeline(ctx context.Context, steps ...step) (Display, error) {
	d := Display{}
	for _, s := range steps {
		if err := ctx.Err(); err != nil {
			return d, fmt.Errorf("%s: %w", s.name, err)
		}
		if err := s.run(ctx, d); err != nil {
			return d, err
		}
	}
	return d, nil
}

// createQuery pays for a query, then reads back the caller's query id and its
// answer. A failed payment never reaches the reads.
func createQuery(ctx context.Context, inv *contract.Invoker, form Form) (Display, error) {
	fee, err := contract.ParseValue(form.Get(FieldFee))
	if err != nil {
		return nil, err
	}
	oracle := form.Get(FieldAddress)
	var id common.Hash

	return pipeline(ctx,
		step{name: contract.CreateQuery, run: func(ctx context.Context, d Display) error {
			out, err := inv.ContractCall(ctx, contract.CreateQuery, fee,
				oracle,
				form.Get(FieldQuestion),
				fee,
				form.GetOr(FieldQueryTTL, defaultTTL),
				form.GetOr(FieldResponseTTL, defaultTTL))
			if err != nil {
				return err
			}
			d[OutTx] = out.TxHash.Hex()
			return nil
		}},
		step{name: contract.GetQuery, run: func(ctx context.Context, d Display) error {
			h, err := contract.Hash(inv.CallStatic(ctx, contract.GetQuery))
			if err != nil {
				return err
			}
			id = h
			d[OutQueryID] = h.Hex()
			return nil
		}},
		step{name: contract.GetAnswer, run: func(ctx context.Context, d Display) error {
			answer, err := contract.OptionalString(inv.CallStatic(ctx, contract.GetAnswer, oracle, id))
			if err != nil {
				return err
			}
			d[OutAnswer] = answer.OrElse(NoAnswer)
			return nil
		}},
	)
}
