package bitrix

import (
	"fmt"
	"strconv"
	"strings"
)

// EntityTypeID identifies a smart-process entity type in the CRM.
// The concrete values (beneficiary, project, payment, child) come from
// configuration; the client is entity-type-agnostic beyond this number.
type EntityTypeID int64

// ParentField returns the CRM field name holding a reference to a parent
// record of this entity type, e.g. "parentId1036".
func (id EntityTypeID) ParentField() string {
	return fmt.Sprintf("parentId%d", id)
}

// Record is one CRM item in wire form: a mapping from field code to value.
// Records are transient: fetched fresh each run, never stored locally.
// Field access goes through the typed helpers below, which keep the
// "field not present" and "field present but empty" cases distinct.
type Record map[string]any

// ID returns the record's numeric id, or 0 if absent or malformed.
func (r Record) ID() int64 {
	n, _ := toInt64(r["id"])
	return n
}

// StageID returns the record's workflow stage, or "" if absent.
func (r Record) StageID() string {
	s, _ := r.String("stageId")
	return s
}

// Title returns the record's title, or "" if absent.
func (r Record) Title() string {
	s, _ := r.String("title")
	return s
}

// Has reports whether the field is present on the record, even if empty.
func (r Record) Has(field string) bool {
	v, ok := r[field]
	return ok && v != nil
}

// String returns the field's value rendered as a string. The second return
// reports presence: a present-but-empty field yields ("", true), a missing
// one ("", false).
func (r Record) String(field string) (string, bool) {
	v, ok := r[field]
	if !ok || v == nil {
		return "", false
	}
	return stringify(v), true
}

// NonEmpty returns the field's value trimmed of surrounding whitespace,
// and whether it is present with a non-empty value. Matching policies use
// this to exclude incomplete records from duplicate consideration.
func (r Record) NonEmpty(field string) (string, bool) {
	s, ok := r.String(field)
	if !ok {
		return "", false
	}
	s = strings.TrimSpace(s)
	return s, s != ""
}

// Int64 returns the field's value as an integer, if present and numeric.
func (r Record) Int64(field string) (int64, bool) {
	v, ok := r[field]
	if !ok || v == nil {
		return 0, false
	}
	return toInt64(v)
}

// ParentID returns the id of the record's parent of the given entity type.
func (r Record) ParentID(parent EntityTypeID) (int64, bool) {
	return r.Int64(parent.ParentField())
}

// stringify renders a wire value as a string. Numbers arrive from JSON as
// float64; integral values must not grow a ".000000" suffix because raw
// enum codes are compared as strings.
func stringify(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		if t == float64(int64(t)) {
			return strconv.FormatInt(int64(t), 10)
		}
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		if t {
			return "true"
		}
		return "false"
	case int64:
		return strconv.FormatInt(t, 10)
	case int:
		return strconv.Itoa(t)
	default:
		return fmt.Sprintf("%v", t)
	}
}

func toInt64(v any) (int64, bool) {
	switch t := v.(type) {
	case float64:
		return int64(t), true
	case int64:
		return t, true
	case int:
		return int64(t), true
	case string:
		n, err := strconv.ParseInt(strings.TrimSpace(t), 10, 64)
		if err != nil {
			return 0, false
		}
		return n, true
	default:
		return 0, false
	}
}
