package cmd

import (
	"github.com/spf13/cobra"
)

func newResetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Archive completed beneficiaries back to the verified stage",
		Long: `Reset drains the completed stage: each beneficiary's linked project
title is appended to its previous-projects history, the project link and
assignment date are cleared, and the record returns to the verified
stage for the next selection cycle.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			runner, err := newRunner(cmd)
			if err != nil {
				return err
			}
			_, err = runner.Reset(cmd.Context())
			return err
		},
	}
}
