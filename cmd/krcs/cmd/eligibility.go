package cmd

import (
	"github.com/spf13/cobra"
)

func newEligibilityCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "eligibility",
		Short: "Match beneficiaries against open project criteria",
		Long: `Eligibility evaluates every candidate beneficiary against each project
currently open for selection, using the configured matching rules over
resolved enum labels. Beneficiaries that match at least one project are
flagged eligible with the matched project names; confirmed-eligible
beneficiaries that stopped matching are demoted back to the verified
stage.`,
		Example: `  krcs eligibility
  krcs eligibility --dry-run --lang ru`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			runner, err := newRunner(cmd)
			if err != nil {
				return err
			}
			_, err = runner.Eligibility(cmd.Context())
			return err
		},
	}
}
