package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vybium/vybium-stark-verifier/internal/stark-verifier/variant"
)

var variantsCmd = &cobra.Command{
	Use:   "variants",
	Short: "List the accepted variant tags",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, _ []string) {
		for _, tag := range variant.Tags() {
			vr, _ := variant.Parse(tag)
			fmt.Fprintf(cmd.OutOrStdout(), "%-10s %s (%s)\n", tag, vr, vr.Field().Name())
		}
	},
}

func init() {
	rootCmd.AddCommand(variantsCmd)
}
