package bitrix

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRecordPresenceVersusEmpty(t *testing.T) {
	rec := Record{
		"id":              float64(12),
		"stageId":         "DT1036_10:NEW",
		"ufCrm5Name":      "  Jane Doe ",
		"ufCrm5Empty":     "",
		"ufCrm5Nil":       nil,
		"parentId1040":    float64(3),
		"ufCrm5Numeric":   float64(42),
		"ufCrm5NumString": "17",
	}

	assert.Equal(t, int64(12), rec.ID())
	assert.Equal(t, "DT1036_10:NEW", rec.StageID())

	// Present with value.
	v, ok := rec.String("ufCrm5Name")
	assert.True(t, ok)
	assert.Equal(t, "  Jane Doe ", v)

	// Present but empty is still present.
	v, ok = rec.String("ufCrm5Empty")
	assert.True(t, ok)
	assert.Equal(t, "", v)

	// Explicit null and missing both read as absent.
	_, ok = rec.String("ufCrm5Nil")
	assert.False(t, ok)
	_, ok = rec.String("ufCrm5Missing")
	assert.False(t, ok)

	// NonEmpty trims and rejects empty values.
	v, ok = rec.NonEmpty("ufCrm5Name")
	assert.True(t, ok)
	assert.Equal(t, "Jane Doe", v)
	_, ok = rec.NonEmpty("ufCrm5Empty")
	assert.False(t, ok)

	// Numbers stringify without a decimal tail.
	v, _ = rec.String("ufCrm5Numeric")
	assert.Equal(t, "42", v)

	n, ok := rec.Int64("ufCrm5NumString")
	assert.True(t, ok)
	assert.Equal(t, int64(17), n)

	parent, ok := rec.ParentID(1040)
	assert.True(t, ok)
	assert.Equal(t, int64(3), parent)
}

func TestEntityTypeIDParentField(t *testing.T) {
	assert.Equal(t, "parentId1036", EntityTypeID(1036).ParentField())
}
