package cmd

import (
	"context"

	"github.com/Mohsinsiddi/w3oracle/internal/oracle"
	"github.com/Mohsinsiddi/w3oracle/internal/ui"
	"github.com/spf13/cobra"
)

func newStudioCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "studio",
		Short: "Interactive form for every oracle action",
		Long: `Open a full-screen form with every oracle action on one page. Field values
are shared between actions, so a query id or address typed once can be
reused. Writes broadcast immediately without a confirmation prompt.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, w, err := a.newSession(false)
			if err != nil {
				return err
			}
			defer sess.Close()

			// The studio draws its own spinner; the runner stays quiet.
			runner := oracle.NewRunner(sess,
				oracle.WithLogger(a.log),
				oracle.WithBinding(a.binding),
				oracle.WithInvokerOptions(a.invokerOptions()...),
			)

			m := ui.NewStudioModel("Oracle Studio", studioActions(), studioDispatch(runner))
			m.Timeout = a.cfg.CallTimeout + a.cfg.ReceiptTimeout
			m.Contract = a.binding.Address().Hex()
			if w != nil {
				m.Wallet = w.Name + "  " + ui.TruncateAddr(w.Address)
			} else {
				m.Wallet = "read-only"
			}
			return a.studioFn(m)
		},
	}
}

func studioActions() []ui.StudioAction {
	acts := oracle.Actions()
	out := make([]ui.StudioAction, len(acts))
	for i, act := range acts {
		sa := ui.StudioAction{
			Name:        act.Name,
			Description: act.Description,
			Writes:      act.Writes,
		}
		for _, f := range act.Inputs {
			sa.Inputs = append(sa.Inputs, string(f))
		}
		for _, f := range act.Optional {
			sa.Optional = append(sa.Optional, string(f))
		}
		for _, o := range act.Outputs {
			sa.Outputs = append(sa.Outputs, string(o))
		}
		out[i] = sa
	}
	return out
}

// studioDispatch adapts the runner to the studio.
func studioDispatch(runner *oracle.Runner) ui.StudioDispatch {
	return func(ctx context.Context, name string, values map[string]string) ui.StudioResult {
		act, ok := oracle.Lookup(name)
		if !ok {
			return ui.StudioResult{Err: "unknown action " + name}
		}
		form := oracle.Form{}
		for k, v := range values {
			form[oracle.Field(k)] = v
		}
		d, err := runner.Run(ctx, act, form)
		res := ui.StudioResult{Pairs: d.Pairs(act.Outputs)}
		if err != nil {
			res.ErrKind = kindLabel(err)
			res.Err = err.Error()
		}
		return res
	}
}
