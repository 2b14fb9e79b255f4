// Package record models the domain records that are synchronized into the search index.
package record

import (
	"fmt"
	"strconv"
	"strings"
)

// Visibility is the tri-state "show in search" flag of a record.
type Visibility int8

const (
	// VisibilityUnset means the flag was never set.
	VisibilityUnset Visibility = iota
	// VisibilityEnabled means the record explicitly opts in.
	VisibilityEnabled
	// VisibilityDisabled means the record explicitly opts out.
	VisibilityDisabled
)

// VisibilityFromBool maps a nullable boolean onto the tri-state flag.
func VisibilityFromBool(v *bool) Visibility {
	switch {
	case v == nil:
		return VisibilityUnset
	case *v:
		return VisibilityEnabled
	default:
		return VisibilityDisabled
	}
}

// String returns the flag name.
func (v Visibility) String() string {
	switch v {
	case VisibilityEnabled:
		return "enabled"
	case VisibilityDisabled:
		return "disabled"
	default:
		return "unset"
	}
}

// DefaultViewStatus is the view status of records visible to anyone.
const DefaultViewStatus = "null"

// Record is a domain record: a typed, identified attribute graph.
type Record struct {
	className    string
	id           int64
	showInSearch Visibility
	viewStatus   string
	attributes   map[string]any
}

// New validates and creates a Record.
func New(className string, id int64, show Visibility, viewStatus string, attrs map[string]any) (Record, error) {
	if className == "" {
		return Record{}, fmt.Errorf("class name is required")
	}
	if id <= 0 {
		return Record{}, fmt.Errorf("record id must be positive, got %d", id)
	}
	return Reconstruct(className, id, show, viewStatus, attrs), nil
}

// Reconstruct creates a Record without validation (storage hydration).
func Reconstruct(className string, id int64, show Visibility, viewStatus string, attrs map[string]any) Record {
	if viewStatus == "" {
		viewStatus = DefaultViewStatus
	}
	if attrs == nil {
		attrs = map[string]any{}
	}
	return Record{
		className:    className,
		id:           id,
		showInSearch: show,
		viewStatus:   viewStatus,
		attributes:   attrs,
	}
}

// ClassName returns the concrete class of the record.
func (r Record) ClassName() string { return r.className }

// ID returns the numeric record id.
func (r Record) ID() int64 { return r.id }

// ShowInSearch returns the tri-state visibility flag.
func (r Record) ShowInSearch() Visibility { return r.showInSearch }

// ViewStatus returns the computed visibility classification.
func (r Record) ViewStatus() string { return r.viewStatus }

// Attributes returns the raw attribute graph.
func (r Record) Attributes() map[string]any { return r.attributes }

// Identity returns the composite identity "ClassName-ID".
func (r Record) Identity() string { return Identity(r.className, r.id) }

// Excluded reports whether the record opted out of search explicitly.
// An unset flag is includable.
func (r Record) Excluded() bool { return r.showInSearch == VisibilityDisabled }

// Title returns the Title attribute, or "" when absent.
func (r Record) Title() string {
	if v, ok := r.attributes["Title"]; ok && v != nil {
		return fmt.Sprint(v)
	}
	return ""
}

// Resolve walks a dotted attribute path. Lists fan out, so a path can yield many values.
// ok is false when any step of the path is missing or null.
func (r Record) Resolve(path string) (values []any, ok bool) {
	if path == "" {
		return nil, false
	}
	if path == "ID" {
		return []any{r.id}, true
	}
	values = resolve(r.attributes, strings.Split(path, "."))
	return values, len(values) > 0
}

func resolve(node any, path []string) []any {
	if node == nil {
		return nil
	}
	if len(path) == 0 {
		if list, ok := node.([]any); ok {
			var out []any
			for _, item := range list {
				if item != nil {
					out = append(out, item)
				}
			}
			return out
		}
		return []any{node}
	}

	switch n := node.(type) {
	case map[string]any:
		next, ok := n[path[0]]
		if !ok {
			return nil
		}
		return resolve(next, path[1:])
	case []any:
		var out []any
		for _, item := range n {
			out = append(out, resolve(item, path)...)
		}
		return out
	default:
		return nil
	}
}

// Identity formats a composite identity.
func Identity(className string, id int64) string {
	return className + "-" + strconv.FormatInt(id, 10)
}

// ParseIdentity splits a composite identity into class name and id.
// Class names may contain dashes, so the id is taken after the last one.
func ParseIdentity(identity string) (string, int64, error) {
	i := strings.LastIndexByte(identity, '-')
	if i <= 0 || i == len(identity)-1 {
		return "", 0, fmt.Errorf("malformed identity %q", identity)
	}
	id, err := strconv.ParseInt(identity[i+1:], 10, 64)
	if err != nil {
		return "", 0, fmt.Errorf("malformed identity %q: %w", identity, err)
	}
	return identity[:i], id, nil
}
