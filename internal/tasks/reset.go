package tasks

import (
	"context"

	"github.com/jackwharrison/krcs-bitrix/pkg/bitrix"
	"github.com/jackwharrison/krcs-bitrix/pkg/logging"
)

// Reset archives completed beneficiaries: the linked project's title is
// appended to the previous-projects history, the link and assignment date
// are cleared, and the record returns to the verified stage, ready for the
// next selection cycle. Beneficiaries without a linked project are skipped.
func (r *Runner) Reset(ctx context.Context) (Summary, error) {
	summary := Summary{Task: "reset"}
	cfg := r.Config

	if err := cfg.ValidateReset(); err != nil {
		return summary, err
	}

	r.printf("Fetching all completed beneficiaries...")
	completed, err := r.Client.ListAll(ctx, cfg.BeneficiaryEntityTypeID,
		bitrix.Filter{"stageId": cfg.Stages.Completed})
	if err != nil {
		return summary, err
	}
	r.printf("%d total beneficiaries loaded.", len(completed))

	parentField := cfg.ProjectEntityTypeID.ParentField()

	for _, ben := range completed {
		projectID, ok := ben.ParentID(cfg.ProjectEntityTypeID)
		if !ok || projectID == 0 {
			logging.Debug().Int64("id", ben.ID()).Msg("no linked project, skipping")
			summary.Skipped++
			continue
		}

		project, err := r.Client.Get(ctx, cfg.ProjectEntityTypeID, projectID)
		if err != nil {
			logging.Err(err).Int64("id", ben.ID()).Int64("projectId", projectID).
				Msg("could not fetch project title")
			summary.Failures = append(summary.Failures, Failure{RecordID: ben.ID(), Err: err})
			continue
		}

		history := project.Title()
		if prev, ok := ben.NonEmpty(cfg.Fields.PreviousProjects); ok {
			history = prev + ", " + history
		}

		fields := map[string]any{
			cfg.Fields.PreviousProjects: history,
			parentField:                 nil,
			"stageId":                   cfg.Stages.Verified,
		}
		if cfg.Fields.AssignmentDate != "" {
			fields[cfg.Fields.AssignmentDate] = nil
		}
		r.update(ctx, &summary, cfg.BeneficiaryEntityTypeID, ben.ID(), fields)
	}

	r.printf("Reset complete: %d updated, %d skipped, %d failed.",
		summary.Updated, summary.Skipped, summary.Failed())
	r.noteDryRun()
	return summary, nil
}
