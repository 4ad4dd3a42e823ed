package recon

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jackwharrison/krcs-bitrix/pkg/bitrix"
)

const (
	testNationalID = "ufCrm5PassportId"
	testFullName   = "ufCrm5FullName"
	testFlag       = "ufCrm5Duplicate"
	activeStage    = "DT1036_10:NEW"
	otherStage     = "DT1036_10:UC_WITHDRAWN"
)

func idNameCheck() IDNameCheck {
	return IDNameCheck{
		NationalIDField: testNationalID,
		FullNameField:   testFullName,
		ActiveStage:     activeStage,
		FlagField:       testFlag,
	}
}

func ben(id int64, stage, nationalID, name string) bitrix.Record {
	return bitrix.Record{
		"id":           float64(id),
		"stageId":      stage,
		testNationalID: nationalID,
		testFullName:   name,
	}
}

func TestIDNameCheckNationalIDPair(t *testing.T) {
	// B1 and B2 share a national ID; names differ.
	records := []bitrix.Record{
		ben(1, activeStage, "AA1", "Jane Doe"),
		ben(2, activeStage, "AA1", "Jane Doh"),
	}

	result := idNameCheck().Evaluate(records)

	require.Len(t, result.Statuses, 2)
	for _, status := range result.Statuses {
		assert.True(t, status.Duplicate)
		assert.Equal(t, []Reason{ReasonNationalID}, status.Reasons)
		assert.Equal(t, "Duplicate National ID", status.ReasonText())
	}

	require.Len(t, result.Groups, 1)
	assert.Equal(t, []int64{1, 2}, result.Groups[0].Members, "merge reference order is ascending by id")
}

func TestIDNameCheckJointReasons(t *testing.T) {
	// Same pair collides on both ID and name: one group, both reasons.
	records := []bitrix.Record{
		ben(5, activeStage, "BB2", "Aijan Usenova"),
		ben(3, activeStage, "BB2", "aijan usenova  "),
	}

	result := idNameCheck().Evaluate(records)

	require.Len(t, result.Groups, 1, "identical membership must never be reported twice")
	assert.Equal(t, []int64{3, 5}, result.Groups[0].Members)
	assert.ElementsMatch(t, []Reason{ReasonNationalID, ReasonName}, result.Groups[0].Reasons)

	for _, status := range result.Statuses {
		assert.Equal(t, "Duplicate National ID, Duplicate Name", status.ReasonText())
	}
}

func TestIDNameCheckEveryCandidateExactlyOnce(t *testing.T) {
	records := []bitrix.Record{
		ben(1, activeStage, "A", "one"),
		ben(2, activeStage, "B", "two"),
		ben(3, activeStage, "A", "three"),
		ben(4, activeStage, "", ""),
	}

	result := idNameCheck().Evaluate(records)

	seen := make(map[int64]int)
	for _, status := range result.Statuses {
		seen[status.ID]++
	}
	require.Len(t, seen, 4)
	for id, count := range seen {
		assert.Equal(t, 1, count, "record %d should have exactly one status", id)
	}

	// Record 4 has neither signature field: vacuously unique.
	assert.False(t, result.Statuses[3].Duplicate)
	assert.Empty(t, result.Statuses[3].Reasons)
}

func TestIDNameCheckIdempotent(t *testing.T) {
	records := []bitrix.Record{
		ben(1, activeStage, "A", "x"),
		ben(2, activeStage, "A", "y"),
		ben(3, activeStage, "C", "x"),
		ben(4, otherStage, "A", "z"),
	}

	first := idNameCheck().Evaluate(records)
	second := idNameCheck().Evaluate(records)
	assert.Equal(t, first, second)
}

func TestIDNameCheckFlaggedSkippedAsCandidateKeptAsTarget(t *testing.T) {
	flagged := ben(1, activeStage, "CC3", "someone")
	flagged[testFlag] = "132"
	fresh := ben(2, activeStage, "CC3", "someone else")

	result := idNameCheck().Evaluate([]bitrix.Record{flagged, fresh})

	// Only the fresh record is on the work list.
	require.Len(t, result.Statuses, 1)
	assert.Equal(t, int64(2), result.Statuses[0].ID)
	// But the flagged record is still a comparison target.
	assert.True(t, result.Statuses[0].Duplicate)
	assert.Equal(t, []int64{1}, result.Statuses[0].Matches)
}

func TestIDNameCheckInactiveNotComparedAgainst(t *testing.T) {
	records := []bitrix.Record{
		ben(1, otherStage, "DD4", "a"),
		ben(2, activeStage, "DD4", "b"),
	}

	result := idNameCheck().Evaluate(records)
	require.Len(t, result.Statuses, 2)

	byID := make(map[int64]Status)
	for _, status := range result.Statuses {
		byID[status.ID] = status
	}

	// The withdrawn record's own status is still computed against the
	// active set, so it comes out duplicate.
	assert.True(t, byID[1].Duplicate)
	// The active record only sees other active records: no match.
	assert.False(t, byID[2].Duplicate)
}

func TestIDNameCheckGroupsOfThree(t *testing.T) {
	records := []bitrix.Record{
		ben(9, activeStage, "EE5", "x"),
		ben(4, activeStage, "EE5", "y"),
		ben(7, activeStage, "EE5", "z"),
	}

	result := idNameCheck().Evaluate(records)
	require.Len(t, result.Groups, 1)
	assert.Equal(t, []int64{4, 7, 9}, result.Groups[0].Members)
}
