package main

import (
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/chid93/next-gen-prf/internal/quote"
)

var validateCmd = &cobra.Command{
	Use:   "validate VALUE",
	Short: "Validate a quote input value",
	Long:  "Checks VALUE against the rules of the insurable interest or insured acres input and prints the result.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name, _ := cmd.Flags().GetString("field")
		spec, ok := quote.SpecFor(quote.FieldName(name))
		if !ok {
			return eris.Errorf("validate: unknown field %q (want interest or acres)", name)
		}

		fe := spec.Validate(args[0])
		out := cmd.OutOrStdout()
		if !fe.HasError {
			_, _ = fmt.Fprintf(out, "%s: ok\n", spec.Label)
			return nil
		}
		_, _ = fmt.Fprintf(out, "%s: %s\n", spec.Label, fe.ErrorMessage)
		return nil
	},
}

func init() {
	validateCmd.Flags().String("field", string(quote.FieldAcres), "input to validate: interest or acres")
	rootCmd.AddCommand(validateCmd)
}
