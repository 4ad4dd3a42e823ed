package recon

import (
	"sort"
	"strconv"
	"strings"

	"github.com/jackwharrison/krcs-bitrix/pkg/bitrix"
)

// Reason names why a pair of records was flagged.
type Reason string

// Duplicate reasons written to the review field.
const (
	ReasonNationalID Reason = "Duplicate National ID"
	ReasonName       Reason = "Duplicate Name"
	ReasonHousehold  Reason = "Duplicate Household Composition"
)

// Status is the per-record outcome of a duplicate check. Every evaluated
// candidate gets exactly one Status.
type Status struct {
	ID        int64
	Duplicate bool
	Reasons   []Reason
	// Matches holds the ids of the other records this one collided with,
	// ascending. Empty for unique records.
	Matches []int64
}

// ReasonText joins the reasons for the review field, original wording kept.
func (s Status) ReasonText() string {
	parts := make([]string, len(s.Reasons))
	for i, r := range s.Reasons {
		parts[i] = string(r)
	}
	return strings.Join(parts, ", ")
}

// DuplicateGroup is a set of records sharing a signature. Identity is the
// member id set: the same membership discovered through two different
// signature types is reported once, with the reasons merged.
type DuplicateGroup struct {
	// Members is the canonical ascending ordering of member ids.
	Members []int64
	Reasons []Reason
}

func (g DuplicateGroup) key() string {
	parts := make([]string, len(g.Members))
	for i, id := range g.Members {
		parts[i] = strconv.FormatInt(id, 10)
	}
	return strings.Join(parts, ",")
}

// DedupResult is the full outcome of one duplicate check.
type DedupResult struct {
	Statuses []Status
	Groups   []DuplicateGroup
}

// IDNameCheck configures the national-ID/name duplicate check over
// beneficiary records.
type IDNameCheck struct {
	NationalIDField string
	FullNameField   string
	// ActiveStage scopes cross-comparison: only records in this stage are
	// compared against.
	ActiveStage string
	// FlagField marks records already flagged; those are skipped as
	// candidates but stay visible as comparison targets.
	FlagField string
}

// signatureIndex maps a normalized signature to the ascending ids of the
// active records carrying it.
type signatureIndex map[string][]int64

func (idx signatureIndex) add(sig string, id int64) {
	idx[sig] = append(idx[sig], id)
}

// Evaluate runs the check. A record is a duplicate for two independent
// reasons, identical national ID or identical normalized full name,
// against any other active record; both reasons can apply at once and are
// reported jointly. Records missing a field simply cannot collide on it.
func (c IDNameCheck) Evaluate(records []bitrix.Record) DedupResult {
	idIndex := make(signatureIndex)
	nameIndex := make(signatureIndex)

	for _, rec := range records {
		if rec.StageID() != c.ActiveStage {
			continue
		}
		if id, ok := rec.NonEmpty(c.NationalIDField); ok {
			idIndex.add(Normalize(id), rec.ID())
		}
		if name, ok := rec.NonEmpty(c.FullNameField); ok {
			nameIndex.add(Normalize(name), rec.ID())
		}
	}

	var result DedupResult
	collector := newGroupCollector()

	for _, rec := range records {
		if _, flagged := rec.NonEmpty(c.FlagField); flagged {
			continue
		}
		active := rec.StageID() == c.ActiveStage
		status := Status{ID: rec.ID()}

		if id, ok := rec.NonEmpty(c.NationalIDField); ok {
			others := othersWithSignature(idIndex, Normalize(id), rec.ID(), active)
			if len(others) > 0 {
				status.Reasons = append(status.Reasons, ReasonNationalID)
				status.Matches = mergeIDs(status.Matches, others)
				collector.add(groupMembers(rec.ID(), others), ReasonNationalID)
			}
		}
		if name, ok := rec.NonEmpty(c.FullNameField); ok {
			others := othersWithSignature(nameIndex, Normalize(name), rec.ID(), active)
			if len(others) > 0 {
				status.Reasons = append(status.Reasons, ReasonName)
				status.Matches = mergeIDs(status.Matches, others)
				collector.add(groupMembers(rec.ID(), others), ReasonName)
			}
		}

		status.Duplicate = len(status.Reasons) > 0
		result.Statuses = append(result.Statuses, status)
	}

	result.Groups = collector.groups()
	return result
}

// othersWithSignature returns the active records sharing the signature,
// excluding the record itself. For a non-active record every active holder
// counts; for an active one, only the other holders.
func othersWithSignature(idx signatureIndex, sig string, self int64, selfActive bool) []int64 {
	holders := idx[sig]
	if len(holders) == 0 {
		return nil
	}
	others := make([]int64, 0, len(holders))
	for _, id := range holders {
		if selfActive && id == self {
			continue
		}
		others = append(others, id)
	}
	return others
}

// groupMembers builds the canonical ascending membership for one collision.
func groupMembers(self int64, others []int64) []int64 {
	members := append([]int64{self}, others...)
	sort.Slice(members, func(i, j int) bool { return members[i] < members[j] })
	// Collapse the self id when it already sits in the index.
	out := members[:0]
	for i, id := range members {
		if i > 0 && id == members[i-1] {
			continue
		}
		out = append(out, id)
	}
	return out
}

// mergeIDs unions two ascending-or-not id slices into one sorted set.
func mergeIDs(a, b []int64) []int64 {
	seen := make(map[int64]struct{}, len(a)+len(b))
	var out []int64
	for _, id := range a {
		if _, ok := seen[id]; !ok {
			seen[id] = struct{}{}
			out = append(out, id)
		}
	}
	for _, id := range b {
		if _, ok := seen[id]; !ok {
			seen[id] = struct{}{}
			out = append(out, id)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// groupCollector deduplicates groups by membership and merges reasons.
type groupCollector struct {
	byKey map[string]*DuplicateGroup
	order []string
}

func newGroupCollector() *groupCollector {
	return &groupCollector{byKey: make(map[string]*DuplicateGroup)}
}

func (gc *groupCollector) add(members []int64, reason Reason) {
	if len(members) < 2 {
		return
	}
	g := DuplicateGroup{Members: members}
	key := g.key()

	existing, ok := gc.byKey[key]
	if !ok {
		g.Reasons = []Reason{reason}
		gc.byKey[key] = &g
		gc.order = append(gc.order, key)
		return
	}
	for _, r := range existing.Reasons {
		if r == reason {
			return
		}
	}
	existing.Reasons = append(existing.Reasons, reason)
}

func (gc *groupCollector) groups() []DuplicateGroup {
	out := make([]DuplicateGroup, 0, len(gc.order))
	for _, key := range gc.order {
		out = append(out, *gc.byKey[key])
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Members[0] < out[j].Members[0] })
	return out
}
