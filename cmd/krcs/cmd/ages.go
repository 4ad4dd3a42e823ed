package cmd

import (
	"github.com/spf13/cobra"
)

func newAgesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "ages",
		Short: "Recompute child ages from their dates of birth",
		RunE: func(cmd *cobra.Command, _ []string) error {
			runner, err := newRunner(cmd)
			if err != nil {
				return err
			}
			_, err = runner.Ages(cmd.Context())
			return err
		},
	}
}
