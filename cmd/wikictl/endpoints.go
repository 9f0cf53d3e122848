package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"wikidash/internal/endpoints"
)

var endpointsCmd = &cobra.Command{
	Use:   "endpoints",
	Short: "List the HTTP endpoints the server exposes",
	// Reads only the embedded registry, no configuration needed
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
	RunE: func(cmd *cobra.Command, args []string) error {
		registry, err := endpoints.NewRegistry()
		if err != nil {
			return err
		}

		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "KIND\tROUTE\tPARTIAL\tDESCRIPTION")
		for _, ep := range registry.List() {
			fmt.Fprintf(tw, "%s\t%s %s\t%v\t%s\n", ep.Kind, ep.Method, ep.Path, ep.Partial, ep.Description)
		}
		return tw.Flush()
	},
}

func init() {
	rootCmd.AddCommand(endpointsCmd)
}
