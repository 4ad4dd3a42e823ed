package tasks

import (
	"context"
	"strings"

	"github.com/jackwharrison/krcs-bitrix/internal/recon"
)

// DedupeIDs runs the national-ID/name duplicate check over beneficiaries
// and writes the unique/duplicate flag plus the matching reasons back.
func (r *Runner) DedupeIDs(ctx context.Context) (Summary, error) {
	summary := Summary{Task: "dedupe-ids"}
	cfg := r.Config

	if err := cfg.ValidateIDDedup(); err != nil {
		return summary, err
	}

	r.printf("Starting duplicate check...")
	beneficiaries, err := r.Client.ListAll(ctx, cfg.BeneficiaryEntityTypeID, nil)
	if err != nil {
		return summary, err
	}
	r.printf("%d total beneficiaries loaded.", len(beneficiaries))

	check := recon.IDNameCheck{
		NationalIDField: cfg.Fields.NationalID,
		FullNameField:   cfg.Fields.FullName,
		ActiveStage:     cfg.Stages.Registration,
		FlagField:       cfg.Fields.DuplicateFlag,
	}
	result := check.Evaluate(beneficiaries)
	r.printf("%d records eligible for duplicate checking.", len(result.Statuses))

	for _, status := range result.Statuses {
		flag := cfg.Enums.DuplicateFlag.Unique
		if status.Duplicate {
			flag = cfg.Enums.DuplicateFlag.Duplicate
		}
		fields := map[string]any{
			cfg.Fields.DuplicateFlag:   flag,
			cfg.Fields.DuplicateReason: status.ReasonText(),
		}
		r.update(ctx, &summary, cfg.BeneficiaryEntityTypeID, status.ID, fields)
	}

	for _, group := range result.Groups {
		summary.MergeRefs = append(summary.MergeRefs,
			mergeRef(cfg.PortalURL, cfg.BeneficiaryEntityTypeID, group.Members))
	}

	r.printf("Duplicate check complete: %d updated, %d skipped, %d failed.",
		summary.Updated, summary.Skipped, summary.Failed())
	r.printMergeRefs(&summary)
	r.noteDryRun()
	return summary, nil
}

// DedupeHouseholds runs household-composition deduplication: households
// with the exact same set of (child name, date of birth) pairs are flagged
// against each other, with the matching household names written for review.
func (r *Runner) DedupeHouseholds(ctx context.Context) (Summary, error) {
	summary := Summary{Task: "dedupe-households"}
	cfg := r.Config

	if err := cfg.ValidateHouseholdDedup(); err != nil {
		return summary, err
	}

	r.printf("Fetching all children...")
	children, err := r.Client.ListAll(ctx, cfg.ChildEntityTypeID, nil)
	if err != nil {
		return summary, err
	}

	beneficiaries, err := r.Client.ListAll(ctx, cfg.BeneficiaryEntityTypeID, nil)
	if err != nil {
		return summary, err
	}
	r.printf("%d total beneficiaries loaded.", len(beneficiaries))

	titles := make(map[int64]string, len(beneficiaries))
	for _, ben := range beneficiaries {
		titles[ben.ID()] = strings.TrimSpace(ben.Title())
	}

	r.printf("Detecting duplicates by child name + date of birth...")
	check := recon.HouseholdCheck{
		DOBField:    cfg.Fields.ChildDOB,
		ActiveStage: cfg.Stages.Registration,
		FlagField:   cfg.Fields.HouseholdFlag,
	}
	result := check.Evaluate(beneficiaries, children, cfg.BeneficiaryEntityTypeID)

	households := 0
	duplicates := 0
	for _, status := range result.Statuses {
		households++
		if status.Duplicate {
			duplicates++
		}
	}
	r.printf("Found %d households with children.", households)
	r.printf("Found %d potential duplicates.", duplicates)

	for _, status := range result.Statuses {
		flag := cfg.Enums.HouseholdFlag.Unique
		var matchNames []string
		if status.Duplicate {
			flag = cfg.Enums.HouseholdFlag.Duplicate
			for _, id := range status.Matches {
				if title := titles[id]; title != "" {
					matchNames = append(matchNames, title)
				}
			}
		}
		fields := map[string]any{
			cfg.Fields.HouseholdFlag:    flag,
			cfg.Fields.HouseholdMatches: strings.Join(matchNames, ", "),
		}
		r.update(ctx, &summary, cfg.BeneficiaryEntityTypeID, status.ID, fields)
	}

	for _, group := range result.Groups {
		summary.MergeRefs = append(summary.MergeRefs,
			mergeRef(cfg.PortalURL, cfg.BeneficiaryEntityTypeID, group.Members))
	}

	r.printf("Duplicate check complete: %d updated, %d skipped, %d failed.",
		summary.Updated, summary.Skipped, summary.Failed())
	r.printMergeRefs(&summary)
	r.noteDryRun()
	return summary, nil
}

// DedupePayments removes repeated payment records. The lowest-id record of
// each (national id, project type) signature survives; the rest are
// deleted one by one.
func (r *Runner) DedupePayments(ctx context.Context) (Summary, error) {
	summary := Summary{Task: "dedupe-payments"}
	cfg := r.Config

	if err := cfg.ValidatePaymentDedup(); err != nil {
		return summary, err
	}

	r.printf("Starting payment deduplication...")
	payments, err := r.Client.ListAll(ctx, cfg.PaymentEntityTypeID, nil)
	if err != nil {
		return summary, err
	}

	plan := recon.DedupePayments(payments, cfg.Fields.PaymentNationalID, cfg.Fields.PaymentProjectType)
	summary.Skipped = plan.Skipped

	for _, id := range plan.Delete {
		if r.DryRun {
			summary.Deleted++
			continue
		}
		if err := r.Client.Delete(ctx, cfg.PaymentEntityTypeID, id); err != nil {
			summary.Failures = append(summary.Failures, Failure{RecordID: id, Err: err})
			continue
		}
		summary.Deleted++
	}

	r.printf("Done. Deleted %d duplicate payments, %d failed, %d skipped.",
		summary.Deleted, summary.Failed(), summary.Skipped)
	r.noteDryRun()
	return summary, nil
}
