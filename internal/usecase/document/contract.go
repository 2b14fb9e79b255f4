package document

import "github.com/kailas-cloud/searchbridge/internal/domain/schema"

// FieldResolver resolves logical field names against the classes of an index.
type FieldResolver interface {
	ResolveAll(indexClasses, fields []string) ([]schema.FieldDescriptor, error)
}

// ClassRegistry answers class hierarchy questions.
type ClassRegistry interface {
	IsA(class, tag string) bool
	Ancestry(name string) []string
}
