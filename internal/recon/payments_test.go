package recon

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jackwharrison/krcs-bitrix/pkg/bitrix"
)

const (
	payNationalID  = "ufCrm9PassportId"
	payProjectType = "ufCrm9ProjectType"
)

func payment(id int64, nationalID, projectType string) bitrix.Record {
	return bitrix.Record{
		"id":           float64(id),
		payNationalID:  nationalID,
		payProjectType: projectType,
	}
}

func TestDedupePaymentsTriple(t *testing.T) {
	payments := []bitrix.Record{
		payment(10, "123", "A"),
		payment(11, "123", "A"),
		payment(12, "123", "A"),
	}

	plan := DedupePayments(payments, payNationalID, payProjectType)

	assert.Equal(t, []int64{11, 12}, plan.Delete, "exactly two of three are deleted")
	require.Len(t, plan.Kept, 1)
	for _, kept := range plan.Kept {
		assert.Equal(t, int64(10), kept)
	}
}

func TestDedupePaymentsLowestIDSurvivesRegardlessOfOrder(t *testing.T) {
	payments := []bitrix.Record{
		payment(12, "123", "A"),
		payment(10, "123", "A"),
		payment(11, "123", "A"),
	}

	plan := DedupePayments(payments, payNationalID, payProjectType)
	assert.Equal(t, []int64{11, 12}, plan.Delete)
}

func TestDedupePaymentsNormalization(t *testing.T) {
	payments := []bitrix.Record{
		payment(1, " 123 ", "Cash"),
		payment(2, "123", "cash "),
	}

	plan := DedupePayments(payments, payNationalID, payProjectType)
	assert.Equal(t, []int64{2}, plan.Delete)
}

func TestDedupePaymentsMissingFieldsSkipped(t *testing.T) {
	payments := []bitrix.Record{
		payment(1, "", "A"),
		payment(2, "123", ""),
		payment(3, "123", "A"),
		payment(4, "123", "A"),
	}

	plan := DedupePayments(payments, payNationalID, payProjectType)

	assert.Equal(t, 2, plan.Skipped)
	assert.Equal(t, []int64{4}, plan.Delete)
}

func TestDedupePaymentsDistinctSignaturesKept(t *testing.T) {
	payments := []bitrix.Record{
		payment(1, "123", "A"),
		payment(2, "123", "B"),
		payment(3, "456", "A"),
	}

	plan := DedupePayments(payments, payNationalID, payProjectType)
	assert.Empty(t, plan.Delete)
	assert.Len(t, plan.Kept, 3)
}
