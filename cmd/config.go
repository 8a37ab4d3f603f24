package cmd

import (
	"fmt"

	"github.com/Mohsinsiddi/w3oracle/internal/config"
	"github.com/Mohsinsiddi/w3oracle/internal/ui"
	"github.com/spf13/cobra"
)

func newConfigCmd(a *app) *cobra.Command {
	c := &cobra.Command{
		Use:   "config",
		Short: "Manage configuration",
	}
	c.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "Show current configuration",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				pairs := make([][2]string, 0, len(config.Keys))
				for _, k := range config.Keys {
					v, err := a.cfg.Get(k)
					if err != nil {
						return err
					}
					pairs = append(pairs, [2]string{k, v})
				}
				fmt.Fprintln(a.out, ui.KeyValueBlock("Current Configuration", pairs))
				fmt.Fprintln(a.out, ui.Meta("Config directory: "+a.cfg.Dir()))
				return nil
			},
		},
		&cobra.Command{
			Use:   "get <key>",
			Short: "Print one config value",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				v, err := a.cfg.Get(args[0])
				if err != nil {
					return err
				}
				fmt.Fprintln(a.out, v)
				return nil
			},
		},
		&cobra.Command{
			Use:   "set <key> <value>",
			Short: "Set and save a config value",
			Long:  "Set and save a config value. Keys: " + fmt.Sprint(config.Keys),
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				if err := a.cfg.Set(args[0], args[1]); err != nil {
					return err
				}
				if err := a.cfg.Save(); err != nil {
					return err
				}
				v, _ := a.cfg.Get(args[0])
				fmt.Fprintln(a.out, ui.Success(fmt.Sprintf("%s set to %s", args[0], v)))
				return nil
			},
		},
		&cobra.Command{
			Use:   "add-rpc <url>",
			Short: "Append an RPC endpoint to the failover list",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				if err := a.cfg.AddRPC(args[0]); err != nil {
					fmt.Fprintln(a.out, ui.Warn(err.Error()))
					return nil
				}
				if err := a.cfg.Save(); err != nil {
					return err
				}
				fmt.Fprintln(a.out, ui.Success("RPC added: "+args[0]))
				return nil
			},
		},
		&cobra.Command{
			Use:   "remove-rpc <url>",
			Short: "Remove an RPC endpoint",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				if err := a.cfg.RemoveRPC(args[0]); err != nil {
					return err
				}
				if err := a.cfg.Save(); err != nil {
					return err
				}
				fmt.Fprintln(a.out, ui.Success("RPC removed: "+args[0]))
				return nil
			},
		},
	)
	return c
}
