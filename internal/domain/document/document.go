// Package document defines the flat field map sent to the search engine.
package document

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Reserved document keys.
const (
	FieldID             = "id"
	FieldObjectID       = "ObjectID"
	FieldUniqueKey      = "UniqueKey"
	FieldClassName      = "ClassName"
	FieldClassHierarchy = "ClassHierarchy"
	FieldViewStatus     = "ViewStatus"
	// FieldText is the synthesized full-text field every term is matched against.
	FieldText = "_text"
)

// IsReserved reports whether key is managed by the document builder.
func IsReserved(key string) bool {
	switch key {
	case FieldID, FieldObjectID, FieldUniqueKey, FieldClassName, FieldClassHierarchy, FieldViewStatus, FieldText:
		return true
	}
	return false
}

// namespace scopes generated unique keys.
var namespace = uuid.MustParse("5a1c0f3e-9d8b-4c1e-a9f4-2b7e6d3c8a10")

// UniqueKey derives the engine document id of a composite identity. Stable across rebuilds.
func UniqueKey(identity string) string {
	return uuid.NewSHA1(namespace, []byte(identity)).String()
}

// Document is a flat field map for one record.
type Document map[string]any

// Identity returns the composite "ClassName-ID" identity.
func (d Document) Identity() string { return d.str(FieldID) }

// UniqueKey returns the engine document id.
func (d Document) UniqueKey() string { return d.str(FieldUniqueKey) }

// ClassName returns the record class.
func (d Document) ClassName() string { return d.str(FieldClassName) }

func (d Document) str(key string) string {
	if v, ok := d[key].(string); ok {
		return v
	}
	return ""
}

// Keys returns field names sorted.
func (d Document) Keys() []string {
	keys := make([]string, 0, len(d))
	for k := range d {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Flatten concatenates every value of d, recursing into lists and maps, joined by ", ".
// Keys are visited in sorted order and nil values are skipped.
func (d Document) Flatten() string {
	var parts []string
	for _, k := range d.Keys() {
		if part, ok := flatten(d[k]); ok {
			parts = append(parts, part)
		}
	}
	return strings.Join(parts, ", ")
}

// FlattenFields is Flatten restricted to fields, visited in the given order.
func (d Document) FlattenFields(fields []string) string {
	var parts []string
	for _, k := range fields {
		if part, ok := flatten(d[k]); ok {
			parts = append(parts, part)
		}
	}
	return strings.Join(parts, ", ")
}

func flatten(v any) (string, bool) {
	switch t := v.(type) {
	case nil:
		return "", false
	case []any:
		var parts []string
		for _, item := range t {
			if p, ok := flatten(item); ok {
				parts = append(parts, p)
			}
		}
		return strings.Join(parts, ", "), true
	case []string:
		return strings.Join(t, ", "), true
	case map[string]any:
		return Document(t).Flatten(), true
	default:
		return fmt.Sprint(t), true
	}
}

// DateLayout is the canonical date representation: ISO-8601 UTC with a Z suffix.
const DateLayout = "2006-01-02T15:04:05Z"

var dateInputLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// NormalizeDate converts v to DateLayout. Formatting an already normalized value is a no-op.
// ok is false when v is not a recognizable date.
func NormalizeDate(v any) (string, bool) {
	switch t := v.(type) {
	case time.Time:
		if t.IsZero() {
			return "", false
		}
		return t.UTC().Format(DateLayout), true
	case *time.Time:
		if t == nil {
			return "", false
		}
		return NormalizeDate(*t)
	case string:
		s := strings.TrimSpace(t)
		for _, layout := range dateInputLayouts {
			if parsed, err := time.Parse(layout, s); err == nil {
				return parsed.UTC().Format(DateLayout), true
			}
		}
	}
	return "", false
}
