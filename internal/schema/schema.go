// Package schema models the user-supplied target table schema and renders
// the statements the loader sends ahead of any data: the table existence
// check and the table creation DDL.
//
// A schema is written as comma-separated name:type pairs, e.g.
// "a:uint8, b:uint64". Whitespace anywhere in the string is insignificant.
// Declaration order is preserved; it drives both the CREATE column order
// and the column list embedded in the insert table reference.
package schema

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
)

// ErrInvalidSchema marks a schema string that failed to parse. The load
// aborts on it before any network call.
var ErrInvalidSchema = errors.New("invalid schema")

// Field is one column declaration.
type Field struct {
	Name string
	Type string
}

// Schema is an ordered column list. The zero value is not valid; use Parse.
type Schema struct {
	fields []Field
}

// Parse parses a schema string of the form "name:type, name:type, ...".
//
// Rules:
//   - All whitespace is stripped before parsing.
//   - Each comma-delimited field must split on ':' into exactly two
//     non-empty tokens.
//   - Duplicate column names are rejected rather than last-write-wins, so
//     declaration order is never silently lost.
func Parse(s string) (*Schema, error) {
	stripped := strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)

	if stripped == "" {
		return nil, fmt.Errorf("%w: empty schema", ErrInvalidSchema)
	}

	var (
		fields []Field
		seen   = map[string]struct{}{}
	)
	for _, field := range strings.Split(stripped, ",") {
		var elems []string
		for _, e := range strings.Split(field, ":") {
			if e != "" {
				elems = append(elems, e)
			}
		}
		if len(elems) != 2 {
			return nil, fmt.Errorf(
				"%w: field %q; expected format like a:uint8,b:uint64", ErrInvalidSchema, field)
		}
		name, typ := elems[0], elems[1]
		if _, dup := seen[name]; dup {
			return nil, fmt.Errorf("%w: duplicate column %q", ErrInvalidSchema, name)
		}
		seen[name] = struct{}{}
		fields = append(fields, Field{Name: name, Type: typ})
	}
	return &Schema{fields: fields}, nil
}

// Fields returns the columns in declaration order.
func (s *Schema) Fields() []Field { return s.fields }

// Columns returns the column names in declaration order.
func (s *Schema) Columns() []string {
	cols := make([]string, len(s.fields))
	for i, f := range s.fields {
		cols[i] = f.Name
	}
	return cols
}

// DefinitionList renders the "name type, name type" fragment used inside
// CREATE TABLE, in declaration order.
func (s *Schema) DefinitionList() string {
	parts := make([]string, len(s.fields))
	for i, f := range s.fields {
		parts[i] = f.Name + " " + f.Type
	}
	return strings.Join(parts, ", ")
}

// CreateTableSQL renders the creation statement for table.
func (s *Schema) CreateTableSQL(table string) string {
	return fmt.Sprintf("CREATE TABLE %s(%s) Engine = Fuse;", table, s.DefinitionList())
}

// TableRef renders the insert target reference carrying the column list,
// e.g. "t (a, b)". Used when the loader itself created the table.
func (s *Schema) TableRef(table string) string {
	return fmt.Sprintf("%s (%s)", table, strings.Join(s.Columns(), ", "))
}

// ExistsSQL renders the table existence check.
func ExistsSQL(table string) string {
	return fmt.Sprintf("SHOW TABLES LIKE '%s';", table)
}
