package rpc

import (
	"context"
	"time"

	"github.com/Mohsinsiddi/w3oracle/internal/session"
)

// blockNumberer is implemented by clients that expose eth_blockNumber.
type blockNumberer interface {
	BlockNumber(ctx context.Context) (uint64, error)
}

// Probe dials url, asks for its chain id and head block and closes the
// connection. Latency covers the chain id round trip only.
func Probe(ctx context.Context, dial session.Dialer, url string, timeout time.Duration) Endpoint {
	ep := Endpoint{URL: url, Checked: true}
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	b, err := dial(ctx, url)
	if err != nil {
		ep.Err = err
		return ep
	}
	defer b.Close()

	start := time.Now()
	id, err := b.ChainID(ctx)
	ep.Latency = time.Since(start)
	if err != nil {
		ep.Err = err
		return ep
	}
	ep.ChainID = id.Int64()

	if bn, ok := b.(blockNumberer); ok {
		if ep.BlockNumber, err = bn.BlockNumber(ctx); err != nil {
			ep.Err = err
		}
	}
	return ep
}
