package recon

import (
	"github.com/jackwharrison/krcs-bitrix/pkg/bitrix"
)

// HouseholdCheck configures household-composition deduplication: two
// beneficiary households are duplicates iff they carry the exact same
// multiset of (child name, date of birth) pairs.
type HouseholdCheck struct {
	// DOBField is the child record's date-of-birth field.
	DOBField string
	// ActiveStage scopes which households are compared against.
	ActiveStage string
	// FlagField marks households already flagged; skipped as candidates,
	// still visible as targets.
	FlagField string
}

// Evaluate groups households by composition signature. Beneficiaries with
// no children have no signature and are excluded from consideration
// entirely, never grouped and never flagged.
func (c HouseholdCheck) Evaluate(beneficiaries, children []bitrix.Record, beneficiaryType bitrix.EntityTypeID) DedupResult {
	signatures := BuildHouseholdSignatures(children, beneficiaryType, c.DOBField)

	index := make(signatureIndex)
	for _, ben := range beneficiaries {
		if ben.StageID() != c.ActiveStage {
			continue
		}
		sig, ok := signatures[ben.ID()]
		if !ok {
			continue
		}
		index.add(sig.Key(), ben.ID())
	}

	var result DedupResult
	collector := newGroupCollector()

	for _, ben := range beneficiaries {
		sig, ok := signatures[ben.ID()]
		if !ok {
			continue
		}
		if _, flagged := ben.NonEmpty(c.FlagField); flagged {
			continue
		}

		active := ben.StageID() == c.ActiveStage
		status := Status{ID: ben.ID()}

		others := othersWithSignature(index, sig.Key(), ben.ID(), active)
		if len(others) > 0 {
			status.Duplicate = true
			status.Reasons = []Reason{ReasonHousehold}
			status.Matches = mergeIDs(nil, others)
			collector.add(groupMembers(ben.ID(), others), ReasonHousehold)
		}

		result.Statuses = append(result.Statuses, status)
	}

	result.Groups = collector.groups()
	return result
}
