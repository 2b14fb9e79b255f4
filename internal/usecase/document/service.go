// Package document builds flat engine documents from domain records.
package document

import (
	"fmt"

	domdoc "github.com/kailas-cloud/searchbridge/internal/domain/document"
	domidx "github.com/kailas-cloud/searchbridge/internal/domain/index"
	domrec "github.com/kailas-cloud/searchbridge/internal/domain/record"
	"github.com/kailas-cloud/searchbridge/internal/domain/schema"
)

// Factory flattens records into documents.
type Factory struct {
	resolver FieldResolver
	registry ClassRegistry
}

// New creates a document factory.
func New(resolver FieldResolver, registry ClassRegistry) *Factory {
	return &Factory{resolver: resolver, registry: registry}
}

// BuildItems builds one document per includable record. Records that opted out
// of search explicitly are skipped. Field metadata errors abort the batch; a
// value that cannot be resolved is omitted from that record's document.
func (f *Factory) BuildItems(idx *domidx.Descriptor, fields []string, records []domrec.Record) ([]domdoc.Document, error) {
	descs, err := f.resolver.ResolveAll(idx.Classes(), fields)
	if err != nil {
		return nil, fmt.Errorf("resolve fields of %s: %w", idx.Name(), err)
	}
	copies, err := f.copyTargets(idx)
	if err != nil {
		return nil, err
	}

	docs := make([]domdoc.Document, 0, len(records))
	for _, rec := range records {
		if rec.Excluded() {
			continue
		}
		docs = append(docs, f.build(rec, descs, copies))
	}
	return docs, nil
}

// copyTarget is one copy field with its sources resolved to document keys.
type copyTarget struct {
	dest    string
	sources []string
}

func (f *Factory) copyTargets(idx *domidx.Descriptor) ([]copyTarget, error) {
	targets := idx.CopyFieldTargets()
	if len(targets) == 0 {
		return nil, nil
	}
	out := make([]copyTarget, 0, len(targets))
	for _, dest := range targets {
		descs, err := f.resolver.ResolveAll(idx.Classes(), idx.CopyFields()[dest])
		if err != nil {
			return nil, fmt.Errorf("resolve copy field %s of %s: %w", dest, idx.Name(), err)
		}
		keys := make([]string, len(descs))
		for i, d := range descs {
			keys[i] = d.Name
		}
		out = append(out, copyTarget{dest: dest, sources: keys})
	}
	return out, nil
}

func (f *Factory) build(rec domrec.Record, descs []schema.FieldDescriptor, copies []copyTarget) domdoc.Document {
	doc := domdoc.Document{}
	for _, d := range descs {
		if !f.applies(rec.ClassName(), d) {
			continue
		}
		if v, ok := fieldValue(rec, d); ok {
			doc[d.Name] = v
		}
	}

	// Computed before writing so one target never feeds another.
	fill := make(map[string]string, len(copies)+1)
	if text := doc.Flatten(); text != "" {
		fill[domdoc.FieldText] = text
	}
	for _, c := range copies {
		if text := doc.FlattenFields(c.sources); text != "" {
			fill[c.dest] = text
		}
	}
	for dest, text := range fill {
		doc[dest] = text
	}

	doc[domdoc.FieldID] = rec.Identity()
	doc[domdoc.FieldObjectID] = rec.ID()
	doc[domdoc.FieldUniqueKey] = domdoc.UniqueKey(rec.Identity())
	doc[domdoc.FieldClassName] = rec.ClassName()
	doc[domdoc.FieldClassHierarchy] = f.registry.Ancestry(rec.ClassName())
	doc[domdoc.FieldViewStatus] = rec.ViewStatus()
	return doc
}

// applies reports whether class carries the field: it must be one of the
// descriptor's classes or inherit from one.
func (f *Factory) applies(class string, d schema.FieldDescriptor) bool {
	for _, tag := range d.AppliesTo {
		if f.registry.IsA(class, tag) {
			return true
		}
	}
	return false
}

// fieldValue resolves and normalizes one field. A single value is stored as a
// scalar, several as a list.
func fieldValue(rec domrec.Record, d schema.FieldDescriptor) (any, bool) {
	values, ok := rec.Resolve(d.FullField)
	if !ok {
		return nil, false
	}
	if schema.IsDateType(d.Type) {
		dates := make([]any, 0, len(values))
		for _, v := range values {
			if s, ok := domdoc.NormalizeDate(v); ok {
				dates = append(dates, s)
			}
		}
		values = dates
	}
	switch len(values) {
	case 0:
		return nil, false
	case 1:
		return values[0], true
	default:
		return values, true
	}
}
