// Package schema holds the class registry and the field resolver built on top of it.
package schema

import (
	"fmt"
	"sort"
	"strings"

	"github.com/kailas-cloud/searchbridge/internal/domain"
)

// PrimaryKeyType is the implicit type of every class's ID field.
const PrimaryKeyType = "PrimaryKey"

// ClassDef is the static definition of one domain class.
type ClassDef struct {
	Name    string
	Parent  string
	Fields  map[string]string // field name -> ORM type
	HasOne  map[string]string // relation name -> target class
	HasMany map[string]string // relation name -> target class
}

// Class is a registered class with resolved ancestry.
type Class struct {
	name     string
	short    string
	parent   string
	fields   map[string]string
	hasOne   map[string]string
	hasMany  map[string]string
	ancestry []string
}

// Name returns the full class name.
func (c *Class) Name() string { return c.name }

// ShortName returns the unqualified class name.
func (c *Class) ShortName() string { return c.short }

// Parent returns the parent class name ("" for roots).
func (c *Class) Parent() string { return c.parent }

// Ancestry returns class names from root to this class.
func (c *Class) Ancestry() []string { return c.ancestry }

// Registry is an immutable set of classes, built once from configuration.
type Registry struct {
	classes map[string]*Class
	byShort map[string]*Class
	order   []string
}

// NewRegistry validates class definitions and resolves their ancestry.
func NewRegistry(defs []ClassDef) (*Registry, error) {
	r := &Registry{
		classes: make(map[string]*Class, len(defs)),
		byShort: make(map[string]*Class, len(defs)),
	}
	for _, d := range defs {
		if d.Name == "" {
			return nil, fmt.Errorf("class name is required")
		}
		if _, dup := r.classes[d.Name]; dup {
			return nil, fmt.Errorf("duplicate class %q", d.Name)
		}
		c := &Class{
			name:    d.Name,
			short:   ShortName(d.Name),
			parent:  d.Parent,
			fields:  copyMap(d.Fields),
			hasOne:  copyMap(d.HasOne),
			hasMany: copyMap(d.HasMany),
		}
		if other, dup := r.byShort[c.short]; dup {
			return nil, fmt.Errorf("classes %q and %q share short name %q", other.name, c.name, c.short)
		}
		r.classes[c.name] = c
		r.byShort[c.short] = c
		r.order = append(r.order, c.name)
	}

	for _, name := range r.order {
		c := r.classes[name]
		ancestry, err := r.walkAncestry(c)
		if err != nil {
			return nil, err
		}
		c.ancestry = ancestry
		for rel, target := range c.hasOne {
			if r.lookup(target) == nil {
				return nil, fmt.Errorf("class %q relation %q: %w: %s", name, rel, domain.ErrUnknownClass, target)
			}
		}
		for rel, target := range c.hasMany {
			if r.lookup(target) == nil {
				return nil, fmt.Errorf("class %q relation %q: %w: %s", name, rel, domain.ErrUnknownClass, target)
			}
		}
	}
	return r, nil
}

func (r *Registry) walkAncestry(c *Class) ([]string, error) {
	var chain []string
	seen := map[string]bool{}
	for cur := c; cur != nil; {
		if seen[cur.name] {
			return nil, fmt.Errorf("class %q: inheritance cycle", c.name)
		}
		seen[cur.name] = true
		chain = append(chain, cur.name)
		if cur.parent == "" {
			break
		}
		parent := r.lookup(cur.parent)
		if parent == nil {
			return nil, fmt.Errorf("class %q parent: %w: %s", cur.name, domain.ErrUnknownClass, cur.parent)
		}
		cur = parent
	}
	for i, j := 0, len(chain)-1; i < j; i, j = i+1, j-1 {
		chain[i], chain[j] = chain[j], chain[i]
	}
	return chain, nil
}

func (r *Registry) lookup(name string) *Class {
	if c, ok := r.classes[name]; ok {
		return c
	}
	return r.byShort[name]
}

// Class looks up a class by full or short name.
func (r *Registry) Class(name string) (*Class, error) {
	c := r.lookup(name)
	if c == nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnknownClass, name)
	}
	return c, nil
}

// Classes returns all class names in definition order.
func (r *Registry) Classes() []string { return r.order }

// Ancestry returns the root-to-leaf class chain of name.
// Unregistered classes are their own single-element ancestry.
func (r *Registry) Ancestry(name string) []string {
	if c := r.lookup(name); c != nil {
		return c.ancestry
	}
	return []string{name}
}

// IsA reports whether class equals tag or descends from it.
func (r *Registry) IsA(class, tag string) bool {
	t := r.lookup(tag)
	for _, a := range r.Ancestry(class) {
		if a == tag || (t != nil && a == t.name) {
			return true
		}
	}
	return false
}

// Descendants returns name and every class inheriting from it, sorted.
func (r *Registry) Descendants(name string) []string {
	base := r.lookup(name)
	if base == nil {
		return []string{name}
	}
	var out []string
	for _, n := range r.order {
		if r.IsA(n, base.name) {
			out = append(out, n)
		}
	}
	sort.Strings(out)
	return out
}

// field looks up a field type on c or its ancestors.
func (r *Registry) field(c *Class, name string) (string, bool) {
	if name == "ID" {
		return PrimaryKeyType, true
	}
	for i := len(c.ancestry) - 1; i >= 0; i-- {
		if t, ok := r.classes[c.ancestry[i]].fields[name]; ok {
			return t, true
		}
	}
	return "", false
}

// relation looks up a has_one or has_many target on c or its ancestors.
func (r *Registry) relation(c *Class, name string) (*Class, bool) {
	for i := len(c.ancestry) - 1; i >= 0; i-- {
		a := r.classes[c.ancestry[i]]
		if t, ok := a.hasOne[name]; ok {
			return r.lookup(t), true
		}
		if t, ok := a.hasMany[name]; ok {
			return r.lookup(t), true
		}
	}
	return nil, false
}

// declaring returns the ancestor of c that declares name as a field or relation.
// ID belongs to the root class. Unknown names resolve to c.
func (r *Registry) declaring(c *Class, name string) *Class {
	if name == "ID" {
		return r.classes[c.ancestry[0]]
	}
	for i := len(c.ancestry) - 1; i >= 0; i-- {
		a := r.classes[c.ancestry[i]]
		if _, ok := a.fields[name]; ok {
			return a
		}
		if _, ok := a.hasOne[name]; ok {
			return a
		}
		if _, ok := a.hasMany[name]; ok {
			return a
		}
	}
	return c
}

// fieldNames returns every field (own and inherited, plus ID) of c, sorted.
func (r *Registry) fieldNames(c *Class) []string {
	set := map[string]struct{}{"ID": {}}
	for _, a := range c.ancestry {
		for f := range r.classes[a].fields {
			set[f] = struct{}{}
		}
	}
	out := make([]string, 0, len(set))
	for f := range set {
		out = append(out, f)
	}
	sort.Strings(out)
	return out
}

// ShortName strips the namespace from a class name ("App\Models\Page" -> "Page").
func ShortName(class string) string {
	if i := strings.LastIndexAny(class, `\/`); i >= 0 {
		return class[i+1:]
	}
	return class
}

func copyMap(m map[string]string) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
