package cmd

import (
	"github.com/spf13/cobra"
)

func newDedupeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dedupe",
		Short: "Detect and flag duplicate records",
		Long: `Dedupe runs one of the duplicate checks against the CRM.

ids flags beneficiaries sharing a national ID or a normalized full name,
households flags beneficiaries with identical child compositions, and
payments deletes repeated payment records outright.`,
		Example: `  krcs dedupe ids
  krcs dedupe households --lang ky
  krcs dedupe payments --dry-run`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}

	cmd.AddCommand(newDedupeIDsCommand())
	cmd.AddCommand(newDedupeHouseholdsCommand())
	cmd.AddCommand(newDedupePaymentsCommand())
	return cmd
}

func newDedupeIDsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "ids",
		Short: "Flag beneficiaries sharing a national ID or full name",
		RunE: func(cmd *cobra.Command, _ []string) error {
			runner, err := newRunner(cmd)
			if err != nil {
				return err
			}
			_, err = runner.DedupeIDs(cmd.Context())
			return err
		},
	}
}

func newDedupeHouseholdsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "households",
		Short: "Flag households with identical child compositions",
		RunE: func(cmd *cobra.Command, _ []string) error {
			runner, err := newRunner(cmd)
			if err != nil {
				return err
			}
			_, err = runner.DedupeHouseholds(cmd.Context())
			return err
		},
	}
}

func newDedupePaymentsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "payments",
		Short: "Delete repeated payment records",
		RunE: func(cmd *cobra.Command, _ []string) error {
			runner, err := newRunner(cmd)
			if err != nil {
				return err
			}
			_, err = runner.DedupePayments(cmd.Context())
			return err
		},
	}
}
