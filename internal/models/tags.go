package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
)

// tagSeparator is the storage form; it matches the historical comma-joined columns.
const tagSeparator = ", "

// TagList is an ordered, de-duplicated list of free-text tags.
//
// It is stored as a single comma-joined text column and exposed in JSON as an array.
type TagList []string

// ParseTags splits a comma-separated string into trimmed, non-empty, unique tags.
// Duplicates are detected case-insensitively; the first spelling wins.
func ParseTags(raw string) TagList {
	return NormalizeTags(strings.Split(raw, ","))
}

// NormalizeTags trims, drops empties, and de-duplicates while preserving order.
func NormalizeTags(values []string) TagList {
	seen := make(map[string]struct{}, len(values))
	out := make(TagList, 0, len(values))
	for _, value := range values {
		value = strings.TrimSpace(value)
		if value == "" {
			continue
		}
		key := strings.ToLower(value)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, value)
	}
	return out
}

// String renders the storage form, e.g. "Oncology, Immunology".
func (t TagList) String() string {
	return strings.Join(NormalizeTags(t), tagSeparator)
}

// Value implements driver.Valuer. Empty lists are stored as NULL.
func (t TagList) Value() (driver.Value, error) {
	joined := t.String()
	if joined == "" {
		return nil, nil
	}
	return joined, nil
}

// Scan implements sql.Scanner.
func (t *TagList) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*t = nil
	case string:
		*t = ParseTags(v)
	case []byte:
		*t = ParseTags(string(v))
	default:
		return fmt.Errorf("tags: cannot scan %T", src)
	}
	return nil
}

// MarshalJSON always emits an array, never null.
func (t TagList) MarshalJSON() ([]byte, error) {
	return json.Marshal([]string(NormalizeTags(t)))
}

// UnmarshalJSON accepts either an array of strings or a comma-separated string.
func (t *TagList) UnmarshalJSON(data []byte) error {
	var list []string
	if err := json.Unmarshal(data, &list); err == nil {
		*t = NormalizeTags(list)
		return nil
	}

	var raw *string
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("tags: expected array or string: %w", err)
	}
	if raw == nil {
		*t = nil
		return nil
	}
	*t = ParseTags(*raw)
	return nil
}

// GormDataType keeps the column as text across dialects.
func (TagList) GormDataType() string {
	return "text"
}
