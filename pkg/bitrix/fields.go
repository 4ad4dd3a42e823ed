package bitrix

import (
	"context"
	"encoding/json"
	"net/url"
	"strconv"
)

// FieldLabelTable maps field code → raw enum value → display label, for one
// entity type. Raw codes are not stable across portals, so eligibility
// matching compares resolved labels, never raw values. Built once per run
// and read-only thereafter.
type FieldLabelTable map[string]map[string]string

// Label resolves a raw enum value to its display label.
// The second return is false when either the field or the value is unknown.
func (t FieldLabelTable) Label(field, raw string) (string, bool) {
	values, ok := t[field]
	if !ok {
		return "", false
	}
	label, ok := values[raw]
	return label, ok
}

// Merge returns a table containing the entries of both tables. On field code
// collision the other table wins; beneficiary and project entity types use
// disjoint user-field codes in practice.
func (t FieldLabelTable) Merge(other FieldLabelTable) FieldLabelTable {
	merged := make(FieldLabelTable, len(t)+len(other))
	for field, values := range t {
		merged[field] = values
	}
	for field, values := range other {
		merged[field] = values
	}
	return merged
}

type fieldsResult struct {
	Fields map[string]fieldInfo `json:"fields"`
}

type fieldInfo struct {
	Type  string          `json:"type"`
	Title string          `json:"title"`
	Items json.RawMessage `json:"items"`
}

type enumItem struct {
	ID    json.Number `json:"ID"`
	Value string      `json:"VALUE"`
}

// EnumLabels fetches the field metadata for an entity type and builds the
// label table for its enumeration fields. Fields of any other type are
// skipped silently.
func (c *Client) EnumLabels(ctx context.Context, entityType EntityTypeID) (FieldLabelTable, error) {
	const method = "crm.item.fields"

	params := url.Values{}
	params.Set("entityTypeId", strconv.FormatInt(int64(entityType), 10))

	var result fieldsResult
	if err := c.call(ctx, method, params, nil, &result); err != nil {
		return nil, err
	}

	table := make(FieldLabelTable)
	for code, info := range result.Fields {
		if info.Type != "enumeration" || len(info.Items) == 0 {
			continue
		}
		values := decodeEnumItems(info.Items)
		if len(values) > 0 {
			table[code] = values
		}
	}
	return table, nil
}

// decodeEnumItems accepts both shapes the API emits for enum items: a list
// of {ID, VALUE} objects, or a plain {raw: label} object.
func decodeEnumItems(raw json.RawMessage) map[string]string {
	var list []enumItem
	if err := json.Unmarshal(raw, &list); err == nil {
		values := make(map[string]string, len(list))
		for _, item := range list {
			values[item.ID.String()] = item.Value
		}
		return values
	}

	var object map[string]string
	if err := json.Unmarshal(raw, &object); err == nil {
		return object
	}
	return nil
}
