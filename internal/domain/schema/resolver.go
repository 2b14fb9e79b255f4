package schema

import (
	"fmt"
	"sort"
	"strings"

	"github.com/gobwas/glob"

	"github.com/kailas-cloud/searchbridge/internal/domain"
)

// FieldDescriptor is one concrete resolution of a logical field name.
type FieldDescriptor struct {
	// Origin is the full name of the class that owns the path.
	Origin string
	// FullField is the dotted path relative to Origin ("Title", "Parent.Title").
	FullField string
	// Type is the declared type of the terminal field.
	Type string
	// Name is the document key: short origin name joined with FullField.
	Name string
	// AppliesTo lists the classes (and implicitly their descendants) that carry this field.
	AppliesTo []string
}

// Resolver turns logical field names into descriptors against a Registry.
type Resolver struct {
	registry *Registry
}

// NewResolver creates a resolver over reg.
func NewResolver(reg *Registry) *Resolver {
	return &Resolver{registry: reg}
}

// Registry returns the underlying class registry.
func (r *Resolver) Registry() *Registry { return r.registry }

// Resolve resolves field against the classes of one index. Accepted forms:
//
//	Short.path  a path rooted at a named class
//	path        a path rooted at every index class that has it
//	Short.*     a glob over "Short.field" of the index classes
//
// Underscores are treated as path delimiters. Unknown fields are a metadata error.
func (r *Resolver) Resolve(indexClasses []string, field string) ([]FieldDescriptor, error) {
	normalized := NormalizePath(field)
	if normalized == "" {
		return nil, domain.NewFieldError(field, "empty field name")
	}
	if strings.ContainsAny(normalized, "*?[{") {
		return r.resolveGlob(indexClasses, field, normalized)
	}

	head, rest, qualified := strings.Cut(normalized, ".")
	if qualified {
		if c := r.registry.lookup(head); c != nil {
			d, err := r.describe(c, rest)
			if err != nil {
				return nil, domain.NewFieldError(field, err.Error())
			}
			return []FieldDescriptor{d}, nil
		}
	}

	var out []FieldDescriptor
	for _, name := range indexClasses {
		c, err := r.registry.Class(name)
		if err != nil {
			return nil, err
		}
		d, err := r.describe(c, normalized)
		if err != nil {
			continue
		}
		out = append(out, d)
	}
	if len(out) == 0 {
		return nil, domain.NewFieldError(field, "not found on any indexed class")
	}
	return out, nil
}

// ResolveAll resolves every field and de-duplicates descriptors by document key.
func (r *Resolver) ResolveAll(indexClasses, fields []string) ([]FieldDescriptor, error) {
	seen := map[string]bool{}
	var out []FieldDescriptor
	for _, f := range fields {
		ds, err := r.Resolve(indexClasses, f)
		if err != nil {
			return nil, err
		}
		for _, d := range ds {
			if seen[d.Name] {
				continue
			}
			seen[d.Name] = true
			out = append(out, d)
		}
	}
	return out, nil
}

func (r *Resolver) resolveGlob(indexClasses []string, field, pattern string) ([]FieldDescriptor, error) {
	g, err := glob.Compile(pattern, '.')
	if err != nil {
		return nil, domain.NewFieldError(field, fmt.Sprintf("bad pattern: %v", err))
	}
	var out []FieldDescriptor
	for _, name := range indexClasses {
		c, err := r.registry.Class(name)
		if err != nil {
			return nil, err
		}
		for _, f := range r.registry.fieldNames(c) {
			if !g.Match(c.short + "." + f) {
				continue
			}
			d, err := r.describe(c, f)
			if err != nil {
				return nil, domain.NewFieldError(field, err.Error())
			}
			out = append(out, d)
		}
	}
	if len(out) == 0 {
		return nil, domain.NewFieldError(field, "pattern matched no fields")
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// describe walks path from c through relations down to a typed field. The
// descriptor is named after the ancestor that declares the first segment, so
// an inherited field resolves to one key across a class hierarchy.
func (r *Resolver) describe(c *Class, path string) (FieldDescriptor, error) {
	if path == "" {
		return FieldDescriptor{}, fmt.Errorf("missing field after class %s", c.short)
	}
	segments := strings.Split(path, ".")
	owner := r.registry.declaring(c, segments[0])
	cur := c
	for i, seg := range segments {
		if i == len(segments)-1 {
			typ, ok := r.registry.field(cur, seg)
			if !ok {
				return FieldDescriptor{}, fmt.Errorf("class %s has no field %s", cur.short, seg)
			}
			return FieldDescriptor{
				Origin:    owner.name,
				FullField: path,
				Type:      typ,
				Name:      owner.short + "." + path,
				AppliesTo: []string{owner.name},
			}, nil
		}
		next, ok := r.registry.relation(cur, seg)
		if !ok {
			return FieldDescriptor{}, fmt.Errorf("class %s has no relation %s", cur.short, seg)
		}
		cur = next
	}
	return FieldDescriptor{}, fmt.Errorf("unreachable path %s", path)
}

// NormalizePath converts underscore delimiters to dots.
func NormalizePath(field string) string {
	return strings.ReplaceAll(strings.TrimSpace(field), "_", ".")
}

// TypeMap maps declared field types to engine mapping types.
type TypeMap map[string]string

// FallbackType is the TypeMap key consulted for unmapped types.
const FallbackType = "*"

// Lookup returns the engine type for typ, falling back to the "*" entry, then to "text".
func (m TypeMap) Lookup(typ string) string {
	if t, ok := m[typ]; ok {
		return t
	}
	// parametrised ORM types like Varchar(255)
	if i := strings.IndexByte(typ, '('); i > 0 {
		if t, ok := m[typ[:i]]; ok {
			return t
		}
	}
	if t, ok := m[FallbackType]; ok {
		return t
	}
	return "text"
}

// DefaultTypeMap is used when configuration supplies none.
func DefaultTypeMap() TypeMap {
	return TypeMap{
		"*":           "text",
		"HTMLVarchar": "text",
		"Varchar":     "text",
		"Text":        "text",
		"HTMLText":    "text",
		"Enum":        "keyword",
		"PrimaryKey":  "integer",
		"ForeignKey":  "integer",
		"Int":         "integer",
		"Float":       "float",
		"Double":      "double",
		"Decimal":     "double",
		"Currency":    "double",
		"Boolean":     "boolean",
		"Date":        "date",
		"Datetime":    "date",
		"DBDatetime":  "date",
	}
}

// IsDateType reports whether typ is normalized as a date.
func IsDateType(typ string) bool {
	switch typ {
	case "Date", "Datetime", "DBDate", "DBDatetime":
		return true
	}
	return false
}
