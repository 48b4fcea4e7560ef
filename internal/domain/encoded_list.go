package domain

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
)

// EncodedList is a list of strings persisted as a JSON-encoded TEXT column.
// Decoding is total: it never fails, falling back per these rules:
//
//   - valid JSON array        -> the array (nil items dropped)
//   - valid JSON string       -> one-element list
//   - empty string or NULL    -> empty list
//   - anything else           -> one-element list holding the raw value
type EncodedList []string

// DecodeList applies the fallback rules above to a raw column value.
func DecodeList(raw string) EncodedList {
	if strings.TrimSpace(raw) == "" {
		return EncodedList{}
	}

	var asAny any
	if err := json.Unmarshal([]byte(raw), &asAny); err != nil {
		// Not JSON at all: treat the raw value as a single entry.
		return EncodedList{raw}
	}

	switch v := asAny.(type) {
	case []any:
		out := make(EncodedList, 0, len(v))
		for _, item := range v {
			if item == nil {
				continue
			}
			out = append(out, fmt.Sprintf("%v", item))
		}
		return out
	case string:
		if v == "" {
			return EncodedList{}
		}
		return EncodedList{v}
	default:
		return EncodedList{raw}
	}
}

// SplitList builds an EncodedList from a delimiter-separated catalog value,
// trimming whitespace and dropping empty segments.
func SplitList(raw, sep string) EncodedList {
	parts := strings.Split(raw, sep)
	out := make(EncodedList, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

// Value implements driver.Valuer, encoding the list as a JSON array. An empty
// or nil list encodes as "[]" so the column is never NULL for new rows.
func (l EncodedList) Value() (driver.Value, error) {
	if l == nil {
		l = EncodedList{}
	}
	b, err := json.Marshal([]string(l))
	if err != nil {
		return nil, fmt.Errorf("encode list: %w", err)
	}
	return string(b), nil
}

// Scan implements sql.Scanner using the DecodeList fallback rules; it never
// rejects a stored value.
func (l *EncodedList) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*l = EncodedList{}
	case string:
		*l = DecodeList(v)
	case []byte:
		*l = DecodeList(string(v))
	default:
		*l = EncodedList{fmt.Sprintf("%v", v)}
	}
	return nil
}
