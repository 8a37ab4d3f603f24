package cmd

import (
	"context"
	"fmt"

	"github.com/Mohsinsiddi/w3oracle/internal/rpc"
	"github.com/Mohsinsiddi/w3oracle/internal/ui"
	"github.com/spf13/cobra"
)

func newRPCCmd(a *app) *cobra.Command {
	c := &cobra.Command{
		Use:   "rpc",
		Short: "Probe RPC endpoints and choose how they are dialed",
	}
	c.AddCommand(newRPCBenchmarkCmd(a), newRPCStrategyCmd(a))
	return c
}

func newRPCBenchmarkCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "benchmark",
		Short: "Probe every configured RPC endpoint",
		Long: `Dial every configured endpoint in parallel and report latency, head block
and chain id. The endpoint a session would use first is marked.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			strategy, err := rpc.ParseStrategy(a.cfg.RPCStrategy)
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), a.cfg.HandshakeTimeout)
			defer cancel()

			busy := a.busyFn(a.errOut)
			busy.Start(fmt.Sprintf("Probing %d endpoint(s)…", len(a.cfg.RPCURLs)))
			results := rpc.Benchmark(ctx, a.dialFn, a.cfg.RPCURLs, a.cfg.CallTimeout)
			busy.Stop()

			var first string
			if winner, err := rpc.Pick(results, strategy, a.cfg.ChainID); err == nil {
				first = winner.URL
			}

			t := ui.NewTable([]ui.Column{
				{Title: "RPC URL", Width: 40},
				{Title: "Latency", Width: 10},
				{Title: "Block #", Width: 10},
				{Title: "Chain", Width: 8},
				{Title: "Status", Width: 10},
				{Title: "First", Width: 6},
			})
			healthy := 0
			for _, r := range results {
				latency := fmt.Sprintf("%dms", r.Latency.Milliseconds())
				block := fmt.Sprint(r.BlockNumber)
				chain := fmt.Sprint(r.ChainID)
				status := ui.Success("healthy")
				switch {
				case r.Err != nil:
					status = ui.Err("down")
					latency, block, chain = "—", "—", "—"
				case a.cfg.ChainID != 0 && r.ChainID != a.cfg.ChainID:
					status = ui.Warn("wrong chain")
				default:
					healthy++
				}
				mark := ""
				if r.URL == first {
					mark = "✓"
				}
				t.AddRow(ui.Row{r.URL, latency, block, chain, status, mark})
			}
			fmt.Fprint(a.out, t.Render())
			fmt.Fprintln(a.out, ui.Meta(fmt.Sprintf("%d of %d healthy, strategy %s", healthy, len(results), strategy)))
			if first == "" {
				return fmt.Errorf("%w among %d configured", rpc.ErrNoHealthyRPC, len(results))
			}
			return nil
		},
	}
}

func newRPCStrategyCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "strategy [failover|fastest]",
		Short: "Show or set the endpoint dial order",
		Long: `failover dials endpoints in the configured order.
fastest probes them all first and dials the quickest healthy one first.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				fmt.Fprintln(a.out, a.cfg.RPCStrategy)
				return nil
			}
			if err := a.cfg.Set("rpc_strategy", args[0]); err != nil {
				return err
			}
			if err := a.cfg.Save(); err != nil {
				return fmt.Errorf("saving config: %w", err)
			}
			fmt.Fprintln(a.out, ui.Success(fmt.Sprintf("RPC strategy set to %q", args[0])))
			return nil
		},
	}
}
