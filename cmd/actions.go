package cmd

import (
	"fmt"
	"strings"

	"github.com/Mohsinsiddi/w3oracle/internal/oracle"
	"github.com/Mohsinsiddi/w3oracle/internal/ui"
	"github.com/spf13/cobra"
)

// actionCmds returns one subcommand per oracle action, with a flag per input.
// Inputs are passed through as typed; the contract binding rejects values
// it cannot encode.
func actionCmds(a *app) []*cobra.Command {
	acts := oracle.Actions()
	cmds := make([]*cobra.Command, 0, len(acts))
	for _, act := range acts {
		cmds = append(cmds, newActionCmd(a, act))
	}
	return cmds
}

func newActionCmd(a *app, act oracle.Action) *cobra.Command {
	values := make(map[oracle.Field]*string, len(act.Inputs))
	c := &cobra.Command{
		Use:   act.Name,
		Short: act.Description,
		Long:  actionLong(act),
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			form := oracle.Form{}
			for f, v := range values {
				form[f] = *v
			}
			if act.Writes && !a.yes && !a.confirmFn(fmt.Sprintf("Broadcast %s to %s?", act.Entrypoint, a.binding.Address().Hex())) {
				fmt.Fprintln(a.out, ui.Meta("Cancelled."))
				return nil
			}

			sess, _, err := a.newSession(act.Writes)
			if err != nil {
				return err
			}
			defer sess.Close()

			d, err := a.newRunner(sess).Run(cmd.Context(), act, form)
			if pairs := d.Pairs(act.Outputs); len(pairs) > 0 {
				fmt.Fprintln(a.out, ui.KeyValueBlock(act.Name, pairs))
			}
			return err
		},
	}
	for _, f := range act.Inputs {
		v := new(string)
		values[f] = v
		usage := f.Usage()
		if act.IsOptional(f) {
			usage += " (optional)"
		}
		c.Flags().StringVar(v, string(f), "", usage)
	}
	return c
}

func actionLong(act oracle.Action) string {
	var sb strings.Builder
	sb.WriteString(act.Description + ".\n\n")
	kind := "Reads"
	if act.Writes {
		kind = "Broadcasts"
	}
	sb.WriteString(fmt.Sprintf("%s %s on the oracle registry.", kind, act.Entrypoint))
	if len(act.Outputs) > 0 {
		outs := make([]string, len(act.Outputs))
		for i, o := range act.Outputs {
			outs[i] = string(o)
		}
		sb.WriteString("\nShows: " + strings.Join(outs, ", ") + ".")
	}
	return sb.String()
}
