// Package metadata models result-set column descriptors and the JSON
// schema documents the SQL layer reports for query results.
package metadata

import (
	"fmt"
	"sort"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"

	"github.com/meshql/mongodbc/pkg/errors"
	"github.com/meshql/mongodbc/pkg/odbc"
	"github.com/meshql/mongodbc/pkg/types"
)

// TypeSet is the bsonType keyword, which the server writes either as a
// single string or as an array of strings.
type TypeSet []string

// UnmarshalBSONValue accepts both encodings.
func (ts *TypeSet) UnmarshalBSONValue(t bsontype.Type, data []byte) error {
	rv := bson.RawValue{Type: t, Value: data}
	switch t {
	case bsontype.String:
		*ts = TypeSet{rv.StringValue()}
		return nil
	case bsontype.Array:
		arr, err := rv.Array().Values()
		if err != nil {
			return err
		}
		out := make(TypeSet, 0, len(arr))
		for _, v := range arr {
			s, ok := v.StringValueOK()
			if !ok {
				return fmt.Errorf("bsonType array contains non-string element %v", v.Type)
			}
			out = append(out, s)
		}
		*ts = out
		return nil
	case bsontype.Null:
		*ts = nil
		return nil
	}
	return fmt.Errorf("bsonType must be a string or array of strings, got %v", t)
}

// JSONSchema is the subset of JSON schema the SQL layer emits for result
// sets. Nested structure beyond two levels (datasource then field) is not
// interpreted, only carried.
type JSONSchema struct {
	BsonType             TypeSet                `bson:"bsonType,omitempty"`
	Properties           map[string]*JSONSchema `bson:"properties,omitempty"`
	Required             []string               `bson:"required,omitempty"`
	Items                *JSONSchema            `bson:"items,omitempty"`
	AnyOf                []*JSONSchema          `bson:"anyOf,omitempty"`
	AdditionalProperties bool                   `bson:"additionalProperties,omitempty"`
}

// Simplified is a schema reduced to the set of BSON type names a value may
// take. An empty set means any type is possible.
type Simplified struct {
	Types map[string]bool
}

// Any reports whether the schema admits every type.
func (s *Simplified) Any() bool {
	return len(s.Types) == 0
}

// Simplify flattens a schema into the set of admissible type names.
// anyOf branches union together, and a schema with neither bsonType nor
// anyOf admits everything.
func (j *JSONSchema) Simplify() (*Simplified, error) {
	set := map[string]bool{}
	if len(j.AnyOf) > 0 {
		if len(j.BsonType) > 0 {
			return nil, fmt.Errorf("schema cannot carry both bsonType and anyOf")
		}
		for _, branch := range j.AnyOf {
			sub, err := branch.Simplify()
			if err != nil {
				return nil, err
			}
			if sub.Any() {
				return &Simplified{}, nil
			}
			for t := range sub.Types {
				set[t] = true
			}
		}
		return &Simplified{Types: set}, nil
	}
	for _, t := range j.BsonType {
		set[t] = true
	}
	return &Simplified{Types: set}, nil
}

// TypeInfo maps the simplified schema to the type catalog. A single
// concrete type maps directly; a type paired only with null or undefined
// keeps the concrete type (null shows through nullability, not the type
// code); anything broader degrades to the any type.
func (s *Simplified) TypeInfo() *types.TypeInfo {
	if s.Any() {
		return types.Any
	}
	concrete := ""
	count := 0
	for t := range s.Types {
		if t == "null" || t == "undefined" {
			continue
		}
		concrete = t
		count++
	}
	switch count {
	case 0:
		return types.Null
	case 1:
		return types.FromName(concrete)
	}
	return types.Any
}

// Nullability derives the ODBC nullability of a field given whether the
// enclosing document schema requires it.
func (s *Simplified) Nullability(required bool) odbc.Nullability {
	if !required {
		return odbc.Nullable
	}
	if s.Any() {
		return odbc.NullableUnknown
	}
	if s.Types["null"] || s.Types["undefined"] {
		return odbc.Nullable
	}
	return odbc.NoNulls
}

// FieldNullability resolves the nullability of a named field of an object
// schema.
func (j *JSONSchema) FieldNullability(field string) (odbc.Nullability, error) {
	fs, ok := j.Properties[field]
	if !ok {
		return odbc.NullableUnknown, errors.General(fmt.Errorf("unknown field %q in result schema", field))
	}
	simplified, err := fs.Simplify()
	if err != nil {
		return odbc.NullableUnknown, errors.General(err)
	}
	required := false
	for _, r := range j.Required {
		if r == field {
			required = true
			break
		}
	}
	return simplified.Nullability(required), nil
}

// ResultColumns flattens a result-set schema into ordered column
// descriptors. The top level maps datasource names to object schemas whose
// properties are the result fields; columns sort by datasource then field
// name so the projection order is deterministic.
func ResultColumns(catalog string, resultSchema *JSONSchema, mode types.Mode) ([]Column, error) {
	datasources := make([]string, 0, len(resultSchema.Properties))
	for ds := range resultSchema.Properties {
		datasources = append(datasources, ds)
	}
	sort.Strings(datasources)

	var cols []Column
	for _, ds := range datasources {
		dsSchema := resultSchema.Properties[ds]
		fields := make([]string, 0, len(dsSchema.Properties))
		for f := range dsSchema.Properties {
			fields = append(fields, f)
		}
		sort.Strings(fields)

		for _, f := range fields {
			simplified, err := dsSchema.Properties[f].Simplify()
			if err != nil {
				return nil, errors.General(err)
			}
			nullability, err := dsSchema.FieldNullability(f)
			if err != nil {
				return nil, err
			}
			cols = append(cols, NewColumn(catalog, ds, f, simplified.TypeInfo(), nullability, mode))
		}
	}
	return cols, nil
}
