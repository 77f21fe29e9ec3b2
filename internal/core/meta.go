package core

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// MetaKind tags the shape of a meta value
type MetaKind int

const (
	MetaEmpty MetaKind = iota
	MetaText
	MetaList
)

// MetaValue is a custom field value that the API may send as a string, a list
// of strings, or not at all
type MetaValue struct {
	Kind MetaKind
	Text string
	List []string
}

// TextMeta builds a text meta value
func TextMeta(s string) MetaValue {
	return MetaValue{Kind: MetaText, Text: s}
}

// ListMeta builds a list meta value
func ListMeta(items ...string) MetaValue {
	return MetaValue{Kind: MetaList, List: items}
}

// IsEffectivelyEmpty reports whether the value carries no usable content
func (m MetaValue) IsEffectivelyEmpty() bool {
	switch m.Kind {
	case MetaText:
		return strings.TrimSpace(m.Text) == ""
	case MetaList:
		for _, item := range m.List {
			if strings.TrimSpace(item) != "" {
				return false
			}
		}
		return true
	default:
		return true
	}
}

// UnmarshalJSON maps null to Empty, strings to Text, arrays to List and any
// other JSON value to Text holding its raw encoding
func (m *MetaValue) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	switch {
	case len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")):
		*m = MetaValue{}
	case trimmed[0] == '"':
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return err
		}
		*m = TextMeta(s)
	case trimmed[0] == '[':
		var raw []json.RawMessage
		if err := json.Unmarshal(trimmed, &raw); err != nil {
			return err
		}
		items := make([]string, 0, len(raw))
		for _, r := range raw {
			var s string
			if err := json.Unmarshal(r, &s); err != nil {
				s = string(r)
			}
			items = append(items, s)
		}
		*m = ListMeta(items...)
	default:
		*m = TextMeta(string(trimmed))
	}
	return nil
}

// MarshalJSON writes the value back in its original shape
func (m MetaValue) MarshalJSON() ([]byte, error) {
	switch m.Kind {
	case MetaEmpty:
		return []byte("null"), nil
	case MetaText:
		return json.Marshal(m.Text)
	case MetaList:
		return json.Marshal(m.List)
	default:
		return nil, fmt.Errorf("unknown meta kind %d", m.Kind)
	}
}
