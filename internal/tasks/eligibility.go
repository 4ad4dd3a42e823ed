package tasks

import (
	"context"
	"strings"

	"github.com/jackwharrison/krcs-bitrix/internal/recon"
	"github.com/jackwharrison/krcs-bitrix/pkg/bitrix"
	"github.com/jackwharrison/krcs-bitrix/pkg/logging"
)

// Eligibility cross-matches candidate beneficiaries against every project
// open for selection and writes each beneficiary's accumulated result back
// exactly once. A previously confirmed-eligible beneficiary that stopped
// matching is demoted to the verified stage in the same write.
func (r *Runner) Eligibility(ctx context.Context) (Summary, error) {
	summary := Summary{Task: "eligibility"}
	cfg := r.Config

	if err := cfg.ValidateEligibility(); err != nil {
		return summary, err
	}

	r.printf("Searching for projects in selection stage...")
	projects, err := r.Client.ListAll(ctx, cfg.ProjectEntityTypeID,
		bitrix.Filter{"stageId": cfg.Stages.ProjectSelection})
	if err != nil {
		return summary, err
	}
	r.printf("Found %d open project(s).", len(projects))

	all, err := r.Client.ListAll(ctx, cfg.BeneficiaryEntityTypeID, nil)
	if err != nil {
		return summary, err
	}
	r.printf("%d total beneficiaries loaded.", len(all))

	candidates := make([]bitrix.Record, 0, len(all))
	for _, ben := range all {
		stage := ben.StageID()
		if stage == cfg.Stages.Eligible || stage == cfg.Stages.Verified {
			candidates = append(candidates, ben)
		}
	}
	r.printf("Filtered to %d candidate beneficiaries.", len(candidates))

	projectLabels, err := r.Client.EnumLabels(ctx, cfg.ProjectEntityTypeID)
	if err != nil {
		return summary, err
	}
	benLabels, err := r.Client.EnumLabels(ctx, cfg.BeneficiaryEntityTypeID)
	if err != nil {
		return summary, err
	}

	matcher := recon.Matcher{
		Rules:    cfg.Rules,
		Labels:   projectLabels.Merge(benLabels),
		YesLabel: cfg.YesLabel,
	}
	decisions := matcher.Evaluate(projects, candidates, cfg.Stages.Eligible)

	reverted := 0
	for _, d := range decisions {
		fields := map[string]any{
			cfg.Fields.Eligible:     boolFlag(d.Eligible),
			cfg.Fields.ProgramCount: d.MatchCount,
			cfg.Fields.ProgramNames: strings.Join(d.ProjectTitles, ", "),
		}
		if d.RevertStage {
			fields["stageId"] = cfg.Stages.Verified
			reverted++
			logging.Info().Int64("id", d.ID).Msg("no open project matches, reverting to verified")
		}
		r.update(ctx, &summary, cfg.BeneficiaryEntityTypeID, d.ID, fields)
	}

	r.printf("Eligibility check complete: %d updated, %d reverted to verified, %d failed.",
		summary.Updated, reverted, summary.Failed())
	r.noteDryRun()
	return summary, nil
}

// boolFlag renders eligibility the way the CRM boolean user field expects.
func boolFlag(b bool) string {
	if b {
		return "Y"
	}
	return "N"
}
