package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/Mohsinsiddi/w3oracle/internal/contract"
	"github.com/Mohsinsiddi/w3oracle/internal/session"
	"github.com/Mohsinsiddi/w3oracle/internal/ui"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newWatchCmd(a *app) *cobra.Command {
	var (
		address  string
		queryID  string
		interval time.Duration
		limit    time.Duration
	)
	c := &cobra.Command{
		Use:   "watch",
		Short: "Poll a query until its answer is posted",
		Long: `Poll getAnswer for a query every --interval until an answer is present,
then print it. Stops after --for, or on Ctrl+C.

Examples:
  w3oracle watch --address 0x5FbD... --query_id 0x9c22...
  w3oracle watch --address 0x5FbD... --query_id 0x9c22... --interval 1s --for 2m`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, _, err := a.newSession(false)
			if err != nil {
				return err
			}
			defer sess.Close()

			ctx := cmd.Context()
			if limit > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, limit)
				defer cancel()
			}

			busy := a.busyFn(a.errOut)
			busy.Start("Waiting for an answer…")
			answer, polls, err := a.pollAnswer(ctx, sess, address, queryID, interval)
			busy.Stop()
			if err != nil {
				return err
			}
			fmt.Fprintln(a.out, ui.KeyValueBlock("watch", [][2]string{
				{"query_id", queryID},
				{"answer", answer},
				{"polls", fmt.Sprint(polls)},
			}))
			return nil
		},
	}
	c.Flags().StringVar(&address, "address", "", "oracle address")
	c.Flags().StringVar(&queryID, "query_id", "", "query id (bytes32 hex)")
	c.Flags().DurationVar(&interval, "interval", 3*time.Second, "poll interval")
	c.Flags().DurationVar(&limit, "for", 0, "give up after this long (0 waits until interrupted)")
	return c
}

// pollAnswer calls getAnswer until it reports an answer. Reverts and decode
// failures stop the loop. Unreachable nodes and slow calls are logged and
// retried on the next tick.
func (a *app) pollAnswer(ctx context.Context, sess *session.Session, address, queryID string, interval time.Duration) (string, int, error) {
	if interval <= 0 {
		return "", 0, &contract.CallError{Kind: contract.ErrInvalidArgument, Entrypoint: "interval", Err: fmt.Errorf("must be positive, got %s", interval)}
	}
	client, err := sess.Ensure(ctx)
	if err != nil {
		return "", 0, err
	}
	inv := contract.NewInvoker(a.binding, client, a.invokerOptions()...)
	log := a.log.With(zap.String("query_id", queryID))

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for polls := 1; ; polls++ {
		ans, err := contract.OptionalString(inv.CallStatic(ctx, contract.GetAnswer, address, queryID))
		switch {
		case err == nil:
			if v, ok := ans.Get(); ok {
				return v, polls, nil
			}
			log.Debug("no answer yet", zap.Int("poll", polls))
		case contract.KindOf(err) == contract.ErrConnection,
			contract.KindOf(err) == contract.ErrTimeout && ctx.Err() == nil:
			log.Warn("poll failed", zap.Int("poll", polls), zap.Error(err))
		default:
			return "", polls, err
		}

		select {
		case <-ctx.Done():
			return "", polls, &contract.CallError{Kind: contract.ErrTimeout, Entrypoint: contract.GetAnswer, Err: ctx.Err()}
		case <-ticker.C:
		}
	}
}
