// Package schema declares entity layouts (collection name plus ordered field
// descriptors) and renders the DEFINE statements that install them. Entity
// definitions can be built in code or loaded from CUE files.
package schema

import (
	"fmt"
	"sort"
	"strings"

	"github.com/surq-db/surq/surql"
)

// Field describes one declared field of an entity.
type Field struct {
	// Name is the field's name in Go-facing code.
	Name string
	// StorageName is the column name in the database; empty means Name.
	StorageName string
	// Type is the database type (string, int, float, bool, datetime,
	// record<table>, array, object).
	Type string
	Required bool
	// Default is rendered as the field's VALUE clause when non-nil.
	Default any
	Indexed bool
}

// storage returns the effective column name.
func (f Field) storage() string {
	if f.StorageName != "" {
		return f.StorageName
	}
	return f.Name
}

// Entity is a declared collection layout. Fields keep declaration order.
type Entity struct {
	Collection string
	Schemafull bool
	Fields     []Field
}

// FieldNames returns storage names in declaration order.
func (e Entity) FieldNames() []string {
	names := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		names[i] = f.storage()
	}
	return names
}

// Builder assembles an Entity field by field.
type Builder struct {
	entity Entity
}

// NewEntity starts a builder for a collection. Entities default to
// schemafull.
func NewEntity(collection string) *Builder {
	return &Builder{entity: Entity{Collection: collection, Schemafull: true}}
}

// Schemaless disables field enforcement on the table definition.
func (b *Builder) Schemaless() *Builder {
	b.entity.Schemafull = false
	return b
}

// Field appends a field descriptor.
func (b *Builder) Field(f Field) *Builder {
	b.entity.Fields = append(b.entity.Fields, f)
	return b
}

// StringField appends a string field.
func (b *Builder) StringField(name string) *Builder {
	return b.Field(Field{Name: name, Type: "string"})
}

// IntField appends an int field.
func (b *Builder) IntField(name string) *Builder {
	return b.Field(Field{Name: name, Type: "int"})
}

// FloatField appends a float field.
func (b *Builder) FloatField(name string) *Builder {
	return b.Field(Field{Name: name, Type: "float"})
}

// BoolField appends a bool field.
func (b *Builder) BoolField(name string) *Builder {
	return b.Field(Field{Name: name, Type: "bool"})
}

// RecordField appends a record link field to another table.
func (b *Builder) RecordField(name, table string) *Builder {
	return b.Field(Field{Name: name, Type: "record<" + table + ">"})
}

// Build returns the assembled entity.
func (b *Builder) Build() Entity {
	return b.entity
}

// Registry holds entities keyed by collection name.
type Registry struct {
	entities map[string]Entity
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{entities: make(map[string]Entity)}
}

// Register adds an entity, rejecting duplicate collection names.
func (r *Registry) Register(e Entity) error {
	if e.Collection == "" {
		return fmt.Errorf("entity has no collection name")
	}
	if _, exists := r.entities[e.Collection]; exists {
		return fmt.Errorf("entity %q already registered", e.Collection)
	}
	r.entities[e.Collection] = e
	return nil
}

// Get looks up an entity by collection name.
func (r *Registry) Get(collection string) (Entity, bool) {
	e, ok := r.entities[collection]
	return e, ok
}

// Names returns registered collection names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.entities))
	for n := range r.entities {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// DefineTable renders the DEFINE TABLE statement for an entity.
func DefineTable(e Entity) string {
	kind := "SCHEMAFULL"
	if !e.Schemafull {
		kind = "SCHEMALESS"
	}
	return fmt.Sprintf("DEFINE TABLE %s %s;", e.Collection, kind)
}

// DefineFields renders one DEFINE FIELD statement per field, in declaration
// order. Required fields carry an ASSERT; defaults render as a VALUE clause.
func DefineFields(e Entity) ([]string, error) {
	stmts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		stmt := fmt.Sprintf("DEFINE FIELD %s ON %s TYPE %s", f.storage(), e.Collection, f.Type)
		if f.Required {
			stmt += " ASSERT $value != NONE"
		}
		if f.Default != nil {
			val, err := surql.ValueOf(f.Default)
			if err != nil {
				return nil, fmt.Errorf("field %s default: %w", f.Name, err)
			}
			stmt += " VALUE " + surql.Literal(val)
		}
		stmts = append(stmts, stmt+";")
	}
	return stmts, nil
}

// DefineIndexes renders DEFINE INDEX statements for every indexed field.
func DefineIndexes(e Entity) []string {
	var stmts []string
	for _, f := range e.Fields {
		if !f.Indexed {
			continue
		}
		stmts = append(stmts, fmt.Sprintf("DEFINE INDEX idx_%s_%s ON %s FIELDS %s;",
			e.Collection, f.storage(), e.Collection, f.storage()))
	}
	return stmts
}

// DDL renders the full statement bundle for an entity: table, fields,
// indexes.
func DDL(e Entity) (string, error) {
	stmts := []string{DefineTable(e)}
	fields, err := DefineFields(e)
	if err != nil {
		return "", err
	}
	stmts = append(stmts, fields...)
	stmts = append(stmts, DefineIndexes(e)...)
	return strings.Join(stmts, "\n"), nil
}
