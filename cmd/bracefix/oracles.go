package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"bracefix/internal/oracle"
)

var oraclesCmd = &cobra.Command{
	Use:   "oracles",
	Short: "List the built-in validators",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return writeOracleList(cmd.OutOrStdout())
	},
}

func writeOracleList(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, name := range oracle.Names() {
		desc, _ := oracle.Describe(name)
		marker := ""
		if name == oracle.Default {
			marker = " (default)"
		}
		fmt.Fprintf(tw, "%s\t%s%s\n", name, desc, marker)
	}
	return tw.Flush()
}
