package golang

import (
	"fmt"
	"strings"

	"github.com/dave/jennifer/jen"

	"github.com/Rana718/sqlir/internal/types"
)

const pgtypePkg = "github.com/jackc/pgx/v5/pgtype"

// goType is a Go type reference: Path is empty for predeclared types.
type goType struct {
	Path string
	Name string
}

func (t goType) code() *jen.Statement {
	if t.Path == "" {
		return jen.Id(t.Name)
	}
	return jen.Qual(t.Path, t.Name)
}

var builtinTypes = map[string]goType{
	"bool":        {Name: "bool"},
	"int2":        {Name: "int16"},
	"int4":        {Name: "int32"},
	"int8":        {Name: "int64"},
	"oid":         {Name: "uint32"},
	"float4":      {Name: "float32"},
	"float8":      {Name: "float64"},
	"numeric":     {Path: pgtypePkg, Name: "Numeric"},
	"money":       {Name: "string"},
	"text":        {Name: "string"},
	"varchar":     {Name: "string"},
	"bpchar":      {Name: "string"},
	"char":        {Name: "string"},
	"name":        {Name: "string"},
	"citext":      {Name: "string"},
	"uuid":        {Name: "string"},
	"bytea":       {Name: "[]byte"},
	"json":        {Name: "[]byte"},
	"jsonb":       {Name: "[]byte"},
	"date":        {Path: "time", Name: "Time"},
	"timestamp":   {Path: "time", Name: "Time"},
	"timestamptz": {Path: "time", Name: "Time"},
	"time":        {Path: pgtypePkg, Name: "Time"},
	"interval":    {Path: pgtypePkg, Name: "Interval"},
	"inet":        {Path: "net/netip", Name: "Prefix"},
	"cidr":        {Path: "net/netip", Name: "Prefix"},
}

// typeMap resolves database types to Go types. Overrides win (keyed by
// "schema.name" or a bare name matching any schema), then enums from the
// catalog, then the built-in table; anything else becomes any.
type typeMap struct {
	overrides map[string]goType
	enums     map[string]string
}

func newTypeMap(catalog *types.Catalog, overrides map[string]interface{}) (*typeMap, error) {
	tm := &typeMap{
		overrides: make(map[string]goType, len(overrides)),
		enums:     make(map[string]string),
	}
	for key, raw := range overrides {
		s, ok := raw.(string)
		if !ok || s == "" {
			return nil, fmt.Errorf("type override for %q must be a Go type name", key)
		}
		tm.overrides[key] = parseGoType(s)
	}
	for _, schema := range catalog.Schemas {
		for _, enum := range schema.Enums {
			tm.enums[schema.Name+"."+enum.Name] = enumTypeName(schema.Name, enum.Name)
		}
	}
	return tm, nil
}

// parseGoType reads "string", "time.Time" or "github.com/google/uuid.UUID".
func parseGoType(s string) goType {
	if i := strings.LastIndex(s, "."); i > 0 && !strings.HasPrefix(s, "[]") {
		return goType{Path: s[:i], Name: s[i+1:]}
	}
	return goType{Name: s}
}

func (tm *typeMap) lookup(schema, name string) (goType, bool) {
	key := schema + "." + name
	if t, ok := tm.overrides[key]; ok {
		return t, true
	}
	if t, ok := tm.overrides[name]; ok {
		return t, true
	}
	if n, ok := tm.enums[key]; ok {
		return goType{Name: n}, true
	}
	if schema == "pg_catalog" {
		if t, ok := builtinTypes[name]; ok {
			return t, true
		}
	}
	return goType{}, false
}

// sqlType maps a described parameter or column. Array types are named after
// their element with a leading underscore.
func (tm *typeMap) sqlType(t types.SQLType) *jen.Statement {
	if g, ok := tm.lookup(t.Schema, t.Name); ok {
		return g.code()
	}
	if elem := strings.TrimPrefix(t.Name, "_"); elem != t.Name {
		if g, ok := tm.lookup(t.Schema, elem); ok {
			return jen.Index().Add(g.code())
		}
	}
	return jen.Any()
}

func (tm *typeMap) columnType(t types.ColumnType) *jen.Statement {
	g, ok := tm.lookup(t.SchemaName, t.Name)
	elem := jen.Any()
	if ok {
		elem = g.code()
	}
	if !t.IsArray {
		return elem
	}
	dims := t.ArrayDimensions
	if dims < 1 {
		dims = 1
	}
	s := jen.Empty()
	for j := 0; j < dims; j++ {
		s = s.Index()
	}
	return s.Add(elem)
}

func enumTypeName(schema, name string) string {
	return modelName(schema, name)
}

func pointer(s *jen.Statement) *jen.Statement {
	return jen.Op("*").Add(s)
}
