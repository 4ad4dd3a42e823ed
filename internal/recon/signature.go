// Package recon implements the matching core: signature construction,
// duplicate grouping and eligibility evaluation. Everything here is a pure
// function of the fetched snapshot: running twice over the same records
// yields identical results.
package recon

import (
	"sort"
	"strings"

	"github.com/jackwharrison/krcs-bitrix/pkg/bitrix"
)

// Normalize lowercases a value and trims surrounding whitespace. All
// signature comparison happens post-normalization.
func Normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// ChildKey is one child's contribution to a household signature.
type ChildKey struct {
	Name string
	DOB  string
}

// HouseholdSignature is the sorted sequence of a household's (child name,
// date of birth) pairs. Two households are duplicates iff the sequences are
// exactly equal: order-independent, count-sensitive.
type HouseholdSignature []ChildKey

// Key renders the signature as a comparable string. The unit separator
// keeps "ab"+"c" and "a"+"bc" distinct.
func (s HouseholdSignature) Key() string {
	var b strings.Builder
	for _, child := range s {
		b.WriteString(child.Name)
		b.WriteByte(0x1f)
		b.WriteString(child.DOB)
		b.WriteByte(0x1e)
	}
	return b.String()
}

// BuildHouseholdSignatures groups children by their parent beneficiary and
// produces one signature per household. Children without a parent reference
// are dropped; a household only appears here if it has at least one child.
func BuildHouseholdSignatures(children []bitrix.Record, parent bitrix.EntityTypeID, dobField string) map[int64]HouseholdSignature {
	byParent := make(map[int64][]ChildKey)
	for _, child := range children {
		parentID, ok := child.ParentID(parent)
		if !ok || parentID == 0 {
			continue
		}
		dob, _ := child.String(dobField)
		byParent[parentID] = append(byParent[parentID], ChildKey{
			Name: Normalize(child.Title()),
			DOB:  strings.TrimSpace(dob),
		})
	}

	signatures := make(map[int64]HouseholdSignature, len(byParent))
	for parentID, keys := range byParent {
		sort.Slice(keys, func(i, j int) bool {
			if keys[i].Name != keys[j].Name {
				return keys[i].Name < keys[j].Name
			}
			return keys[i].DOB < keys[j].DOB
		})
		signatures[parentID] = keys
	}
	return signatures
}
