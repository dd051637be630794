package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/comalice/uimachines/internal/production"
)

func (a *app) dotCommand() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "dot <widget>",
		Short: "Print a widget's state graph as Graphviz DOT",
		Long: `Print the state graph of a bundled widget as Graphviz DOT, with the
initial configuration highlighted. Pipe it into "dot -Tsvg" to render it.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			w, err := lookupWidget(args[0])
			if err != nil {
				return err
			}
			vis := production.DefaultVisualizer{}
			if asJSON {
				data, err := vis.ExportJSON(w.config())
				if err != nil {
					return err
				}
				_, err = fmt.Fprintln(cmd.OutOrStdout(), string(data))
				return err
			}
			_, err = fmt.Fprint(cmd.OutOrStdout(), vis.ExportDOT(w.config(), w.initial()))
			return err
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the descriptor as JSON instead")
	return cmd
}
