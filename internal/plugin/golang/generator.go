// Package golang is the built-in generator. It receives the same request as
// a WebAssembly generator and answers with Go source for pgx/v5.
package golang

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/dave/jennifer/jen"

	"github.com/Rana718/sqlir/internal/config"
	"github.com/Rana718/sqlir/internal/types"
)

const (
	defaultPackage = "queries"
	header         = "Code generated by sqlir. DO NOT EDIT."

	pgxPkg    = "github.com/jackc/pgx/v5"
	pgconnPkg = "github.com/jackc/pgx/v5/pgconn"
)

type request struct {
	Catalog types.Catalog  `json:"catalog"`
	Queries []types.Query  `json:"queries"`
	Config  config.Codegen `json:"config"`
}

// Generator implements plugin.Module in process.
type Generator struct{}

func New() *Generator {
	return &Generator{}
}

// Invoke never fails for a well-formed request: generation problems are
// reported in the response, as a WebAssembly generator would.
func (g *Generator) Invoke(_ context.Context, payload []byte) (*types.Response, error) {
	var req request
	if err := json.Unmarshal(payload, &req); err != nil {
		return nil, fmt.Errorf("failed to decode generator request: %w", err)
	}

	files, err := Generate(&req.Catalog, req.Queries, req.Config)
	if err != nil {
		msg := err.Error()
		return &types.Response{Error: &msg}, nil
	}
	return &types.Response{Files: files}, nil
}

func (g *Generator) Close(context.Context) error { return nil }

type options struct {
	Package        string
	PointerOutputs bool
}

func parseOptions(raw map[string]interface{}) (options, error) {
	opts := options{Package: defaultPackage}
	if v, ok := raw["package"]; ok {
		s, ok := v.(string)
		if !ok || s == "" {
			return opts, fmt.Errorf("option package must be a non-empty string")
		}
		opts.Package = s
	}
	if v, ok := raw["pointer_outputs"]; ok {
		b, ok := v.(bool)
		if !ok {
			return opts, fmt.Errorf("option pointer_outputs must be a boolean")
		}
		opts.PointerOutputs = b
	}
	return opts, nil
}

// Generate renders db.go, models.go and one <file>.sql.go per query file.
func Generate(catalog *types.Catalog, queries []types.Query, cfg config.Codegen) ([]types.File, error) {
	opts, err := parseOptions(cfg.Options)
	if err != nil {
		return nil, err
	}
	tm, err := newTypeMap(catalog, cfg.Types)
	if err != nil {
		return nil, err
	}
	if err := checkNames(queries); err != nil {
		return nil, err
	}

	g := &generator{opts: opts, types: tm}
	var files []types.File

	for _, build := range []struct {
		name   string
		render func(*jen.File)
	}{
		{"db.go", g.db},
		{"models.go", func(f *jen.File) { g.models(f, catalog) }},
	} {
		f := g.newFile()
		build.render(f)
		file, err := render(build.name, f)
		if err != nil {
			return nil, err
		}
		files = append(files, file)
	}

	groups, order, err := groupByFile(queries)
	if err != nil {
		return nil, err
	}
	for _, name := range order {
		f := g.newFile()
		for _, q := range groups[name] {
			if err := g.query(f, q); err != nil {
				return nil, err
			}
		}
		file, err := render(name, f)
		if err != nil {
			return nil, err
		}
		files = append(files, file)
	}
	return files, nil
}

type generator struct {
	opts  options
	types *typeMap
}

func (g *generator) newFile() *jen.File {
	f := jen.NewFile(g.opts.Package)
	f.HeaderComment(header)
	return f
}

func render(name string, f *jen.File) (types.File, error) {
	var buf bytes.Buffer
	if err := f.Render(&buf); err != nil {
		return types.File{}, fmt.Errorf("failed to render %s: %w", name, err)
	}
	return types.File{Path: name, Content: buf.String()}, nil
}

func (g *generator) db(f *jen.File) {
	args := func() []jen.Code {
		return []jen.Code{jen.Qual("context", "Context"), jen.String(), jen.Op("...").Any()}
	}

	f.Comment("DBTX is satisfied by *pgx.Conn, *pgxpool.Pool and pgx.Tx.")
	f.Type().Id("DBTX").Interface(
		jen.Id("Exec").Params(args()...).Params(jen.Qual(pgconnPkg, "CommandTag"), jen.Error()),
		jen.Id("Query").Params(args()...).Params(jen.Qual(pgxPkg, "Rows"), jen.Error()),
		jen.Id("QueryRow").Params(args()...).Qual(pgxPkg, "Row"),
	)

	f.Func().Id("New").Params(jen.Id("db").Id("DBTX")).Op("*").Id("Queries").Block(
		jen.Return(jen.Op("&").Id("Queries").Values(jen.Dict{jen.Id("db"): jen.Id("db")})),
	)

	f.Type().Id("Queries").Struct(jen.Id("db").Id("DBTX"))

	f.Comment("WithTx runs the queries inside tx.")
	f.Func().Params(jen.Id("q").Op("*").Id("Queries")).Id("WithTx").Params(jen.Id("tx").Qual(pgxPkg, "Tx")).Op("*").Id("Queries").Block(
		jen.Return(jen.Op("&").Id("Queries").Values(jen.Dict{jen.Id("db"): jen.Id("tx")})),
	)
}

func (g *generator) models(f *jen.File, catalog *types.Catalog) {
	for _, schema := range catalog.Schemas {
		for _, enum := range schema.Enums {
			g.enum(f, schema.Name, enum)
		}
	}
	for _, schema := range catalog.Schemas {
		for _, model := range schema.Models {
			g.model(f, schema.Name, model)
		}
	}
}

func (g *generator) enum(f *jen.File, schema string, enum types.Enum) {
	typeName := enumTypeName(schema, enum.Name)

	names := make([]string, len(enum.Values))
	for i, v := range enum.Values {
		names[i] = typeName + pascal(v)
	}
	names = uniqueNames(names)

	f.Type().Id(typeName).String()
	f.Const().DefsFunc(func(group *jen.Group) {
		for i, v := range enum.Values {
			group.Id(names[i]).Id(typeName).Op("=").Lit(v)
		}
	})

	f.Func().Params(jen.Id("e").Id(typeName)).Id("Valid").Params().Bool().Block(
		jen.Switch(jen.Id("e")).BlockFunc(func(group *jen.Group) {
			if len(names) > 0 {
				cases := make([]jen.Code, len(names))
				for i, n := range names {
					cases[i] = jen.Id(n)
				}
				group.Case(cases...).Block(jen.Return(jen.True()))
			}
		}),
		jen.Return(jen.False()),
	)
}

func (g *generator) model(f *jen.File, schema string, model types.Model) {
	names := make([]string, len(model.Columns))
	for i, c := range model.Columns {
		names[i] = pascal(c.Name)
	}
	names = uniqueNames(names)

	f.Commentf("%s is the %s %s.%s.", modelName(schema, model.Name), model.Kind, schema, model.Name)
	f.Type().Id(modelName(schema, model.Name)).StructFunc(func(group *jen.Group) {
		for i, c := range model.Columns {
			t := g.types.columnType(c.Type)
			if c.IsNullable {
				t = pointer(t)
			}
			group.Id(names[i]).Add(t).Tag(map[string]string{"json": c.Name})
		}
	})
}

func (g *generator) query(f *jen.File, q types.Query) error {
	funcName := pascal(q.Name)
	constName := camel(q.Name)

	if q.Command != types.CommandExec && len(q.Outputs) == 0 {
		return fmt.Errorf("%s:%d: query %s is :%s but returns no columns", q.Path, q.Line, q.Name, q.Command)
	}
	if q.Command == types.CommandVal && len(q.Outputs) != 1 {
		return fmt.Errorf("%s:%d: query %s is :val but returns %d columns", q.Path, q.Line, q.Name, len(q.Outputs))
	}

	f.Const().Id(constName).Op("=").Lit(q.SQL)

	paramNames := make([]string, len(q.Parameters))
	for i, p := range q.Parameters {
		paramNames[i] = camel(p.Name)
	}
	paramNames = uniqueNames(paramNames)

	params := []jen.Code{jen.Id("ctx").Qual("context", "Context")}
	args := []jen.Code{jen.Id("ctx"), jen.Id(constName)}
	for i, p := range q.Parameters {
		t := g.types.sqlType(p.Type)
		if !p.NotNull {
			t = pointer(t)
		}
		params = append(params, jen.Id(paramNames[i]).Add(t))
		args = append(args, jen.Id(paramNames[i]))
	}

	rowType := funcName + "Row"
	fieldNames := make([]string, len(q.Outputs))
	for i, o := range q.Outputs {
		fieldNames[i] = pascal(o.Name)
	}
	fieldNames = uniqueNames(fieldNames)

	outputType := func(o types.OutputColumn) *jen.Statement {
		t := g.types.sqlType(o.Type)
		if g.opts.PointerOutputs {
			t = pointer(t)
		}
		return t
	}

	if q.Command == types.CommandOne || q.Command == types.CommandMany {
		f.Type().Id(rowType).StructFunc(func(group *jen.Group) {
			for i, o := range q.Outputs {
				group.Id(fieldNames[i]).Add(outputType(o)).Tag(map[string]string{"json": o.Name})
			}
		})
	}

	scanInto := func(target string) []jen.Code {
		dests := make([]jen.Code, len(fieldNames))
		for i, n := range fieldNames {
			dests[i] = jen.Op("&").Id(target).Dot(n)
		}
		return dests
	}

	f.Commentf("%s runs the query %s from %s:%d.", funcName, q.Name, filepath.Base(q.Path), q.Line)
	fn := f.Func().Params(jen.Id("q").Op("*").Id("Queries")).Id(funcName).Params(params...)

	switch q.Command {
	case types.CommandExec:
		fn.Error().Block(
			jen.List(jen.Id("_"), jen.Err()).Op(":=").Id("q").Dot("db").Dot("Exec").Call(args...),
			jen.Return(jen.Err()),
		)
	case types.CommandVal:
		fn.Params(outputType(q.Outputs[0]), jen.Error()).Block(
			jen.Id("row").Op(":=").Id("q").Dot("db").Dot("QueryRow").Call(args...),
			jen.Var().Id("v").Add(outputType(q.Outputs[0])),
			jen.Err().Op(":=").Id("row").Dot("Scan").Call(jen.Op("&").Id("v")),
			jen.Return(jen.Id("v"), jen.Err()),
		)
	case types.CommandOne:
		fn.Params(jen.Id(rowType), jen.Error()).Block(
			jen.Id("row").Op(":=").Id("q").Dot("db").Dot("QueryRow").Call(args...),
			jen.Var().Id("i").Id(rowType),
			jen.Err().Op(":=").Id("row").Dot("Scan").Call(scanInto("i")...),
			jen.Return(jen.Id("i"), jen.Err()),
		)
	case types.CommandMany:
		fn.Params(jen.Index().Id(rowType), jen.Error()).Block(
			jen.List(jen.Id("rows"), jen.Err()).Op(":=").Id("q").Dot("db").Dot("Query").Call(args...),
			jen.If(jen.Err().Op("!=").Nil()).Block(jen.Return(jen.Nil(), jen.Err())),
			jen.Defer().Id("rows").Dot("Close").Call(),
			jen.Var().Id("items").Index().Id(rowType),
			jen.For(jen.Id("rows").Dot("Next").Call()).Block(
				jen.Var().Id("i").Id(rowType),
				jen.If(jen.Err().Op(":=").Id("rows").Dot("Scan").Call(scanInto("i")...), jen.Err().Op("!=").Nil()).Block(
					jen.Return(jen.Nil(), jen.Err()),
				),
				jen.Id("items").Op("=").Append(jen.Id("items"), jen.Id("i")),
			),
			jen.Return(jen.Id("items"), jen.Id("rows").Dot("Err").Call()),
		)
	default:
		return fmt.Errorf("%s:%d: unsupported command %q", q.Path, q.Line, q.Command)
	}
	return nil
}

func checkNames(queries []types.Query) error {
	seen := make(map[string]types.Query, len(queries))
	for _, q := range queries {
		name := pascal(q.Name)
		if prev, ok := seen[name]; ok {
			return fmt.Errorf("duplicate query name %s (%s:%d and %s:%d)", q.Name, prev.Path, prev.Line, q.Path, q.Line)
		}
		seen[name] = q
	}
	return nil
}

// groupByFile buckets queries by their output file name, keeping query order
// within a file. File names come back sorted.
func groupByFile(queries []types.Query) (map[string][]types.Query, []string, error) {
	groups := make(map[string][]types.Query)
	sources := make(map[string]string)
	for _, q := range queries {
		base := filepath.Base(q.Path)
		name := strings.TrimSuffix(base, filepath.Ext(base)) + ".sql.go"
		if src, ok := sources[name]; ok && src != q.Path {
			return nil, nil, fmt.Errorf("query files %s and %s both generate %s", src, q.Path, name)
		}
		sources[name] = q.Path
		groups[name] = append(groups[name], q)
	}

	order := make([]string, 0, len(groups))
	for name := range groups {
		order = append(order, name)
	}
	sort.Strings(order)
	return groups, order, nil
}
