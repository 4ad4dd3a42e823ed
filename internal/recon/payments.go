package recon

import (
	"sort"

	"github.com/jackwharrison/krcs-bitrix/pkg/bitrix"
)

// PaymentPlan is the outcome of payment deduplication: which record
// survives per signature and which are queued for deletion.
type PaymentPlan struct {
	// Kept maps each observed (national id, project type) signature to the
	// id of the surviving record.
	Kept map[paymentKey]int64
	// Delete holds the ids queued for deletion, ascending.
	Delete []int64
	// Skipped counts records missing either signature field; they never
	// join deduplication.
	Skipped int
}

type paymentKey struct {
	NationalID  string
	ProjectType string
}

// DedupePayments finds repeated payments by (normalized national id,
// normalized project type). The upstream API does not guarantee a stable
// list order, so records are sorted by ascending id first: the lowest id
// always survives. This is a deliberate deviation from fetch-order
// first-seen-wins.
func DedupePayments(payments []bitrix.Record, nationalIDField, projectTypeField string) PaymentPlan {
	ordered := make([]bitrix.Record, len(payments))
	copy(ordered, payments)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].ID() < ordered[j].ID() })

	plan := PaymentPlan{Kept: make(map[paymentKey]int64)}

	for _, payment := range ordered {
		nationalID, ok := payment.NonEmpty(nationalIDField)
		if !ok {
			plan.Skipped++
			continue
		}
		projectType, ok := payment.NonEmpty(projectTypeField)
		if !ok {
			plan.Skipped++
			continue
		}

		key := paymentKey{
			NationalID:  Normalize(nationalID),
			ProjectType: Normalize(projectType),
		}
		if _, seen := plan.Kept[key]; seen {
			plan.Delete = append(plan.Delete, payment.ID())
			continue
		}
		plan.Kept[key] = payment.ID()
	}

	return plan
}
