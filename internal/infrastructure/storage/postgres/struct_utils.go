package postgres

import (
	"reflect"
	"slices"
	"sync"

	"github.com/Masterminds/squirrel"
)

// Builder returns a squirrel builder with PostgreSQL placeholders.
func Builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

// ExtractDBColumns returns the column names from T's "db" tags in field
// order, descending into embedded structs (entity.Document, entity.BaseEntity).
// Called once per repository at construction.
//
//	columns := ExtractDBColumns[product.Product]()
//	// ["id", "org_id", "version", "created_at", "updated_at", "name", ...]
func ExtractDBColumns[T any]() []string {
	var zero T
	meta := metadataFor(reflect.TypeOf(zero))
	return slices.Clone(meta.columns)
}

// Without returns cols minus the excluded names.
func Without(cols []string, exclude ...string) []string {
	out := make([]string, 0, len(cols))
	for _, c := range cols {
		if !slices.Contains(exclude, c) {
			out = append(out, c)
		}
	}
	return out
}

// typeMetadata is the cached reflection result for one struct type.
type typeMetadata struct {
	// columns in declaration order, embedded fields expanded in place
	columns []string
	// paths are field index paths parallel to columns
	paths [][]int
}

var typeCache sync.Map // map[reflect.Type]*typeMetadata

func metadataFor(t reflect.Type) *typeMetadata {
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if cached, ok := typeCache.Load(t); ok {
		return cached.(*typeMetadata)
	}

	meta := &typeMetadata{}
	if t.Kind() == reflect.Struct {
		collectFields(t, nil, meta)
	}
	typeCache.Store(t, meta)
	return meta
}

func collectFields(t reflect.Type, prefix []int, meta *typeMetadata) {
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		path := append(slices.Clone(prefix), i)

		if field.Anonymous && field.Type.Kind() == reflect.Struct {
			collectFields(field.Type, path, meta)
			continue
		}

		tag := field.Tag.Get("db")
		if tag == "" || tag == "-" {
			continue
		}
		meta.columns = append(meta.columns, tag)
		meta.paths = append(meta.paths, path)
	}
}

// StructToMap converts a struct to column -> value using "db" tags.
// Embedded structs are flattened.
func StructToMap(v any) map[string]any {
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Ptr {
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return nil
	}

	meta := metadataFor(rv.Type())
	res := make(map[string]any, len(meta.columns))
	for i, col := range meta.columns {
		res[col] = rv.FieldByIndex(meta.paths[i]).Interface()
	}
	return res
}

// ColumnValues returns the values of cols from v's "db" fields.
// Unknown columns yield nil.
func ColumnValues(v any, cols []string) map[string]any {
	all := StructToMap(v)
	out := make(map[string]any, len(cols))
	for _, c := range cols {
		out[c] = all[c]
	}
	return out
}
