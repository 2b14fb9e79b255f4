// Package filter holds ordered field filters of a search query.
package filter

import (
	"fmt"
	"reflect"
)

// MaxConditionsPerGroup is the maximum number of fields per filter group.
const MaxConditionsPerGroup = 32

// Condition is one field restricted to a list of accepted values.
type Condition struct {
	field  string
	values []any
}

// Field returns the filtered field.
func (c Condition) Field() string { return c.field }

// Values returns the accepted values (never empty).
func (c Condition) Values() []any { return c.values }

// Set is an insertion-ordered field -> values map. Setting a field twice replaces its values
// but keeps its original position.
type Set struct {
	conditions []Condition
}

// Add sets field to value, coercing scalars to a one-element list.
func (s *Set) Add(field string, value any) error {
	if field == "" {
		return fmt.Errorf("filter field is required")
	}
	values := Coerce(value)
	if len(values) == 0 {
		return fmt.Errorf("filter value is required for field %q", field)
	}
	for i := range s.conditions {
		if s.conditions[i].field == field {
			s.conditions[i].values = values
			return nil
		}
	}
	if len(s.conditions) >= MaxConditionsPerGroup {
		return fmt.Errorf("too many filters (max %d)", MaxConditionsPerGroup)
	}
	s.conditions = append(s.conditions, Condition{field: field, values: values})
	return nil
}

// Conditions returns conditions in insertion order.
func (s Set) Conditions() []Condition { return s.conditions }

// Len returns the number of filtered fields.
func (s Set) Len() int { return len(s.conditions) }

// IsEmpty reports whether no field is filtered.
func (s Set) IsEmpty() bool { return len(s.conditions) == 0 }

// Get returns the values of field.
func (s Set) Get(field string) ([]any, bool) {
	for _, c := range s.conditions {
		if c.field == field {
			return c.values, true
		}
	}
	return nil, false
}

// Coerce turns a scalar into a one-element list and any slice into []any.
// nil yields an empty list.
func Coerce(value any) []any {
	switch v := value.(type) {
	case nil:
		return nil
	case []any:
		return v
	case []string:
		out := make([]any, len(v))
		for i, s := range v {
			out[i] = s
		}
		return out
	}
	rv := reflect.ValueOf(value)
	if rv.Kind() == reflect.Slice || rv.Kind() == reflect.Array {
		out := make([]any, rv.Len())
		for i := range out {
			out[i] = rv.Index(i).Interface()
		}
		return out
	}
	return []any{value}
}
