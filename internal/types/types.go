package types

// Command is the result shape a query declares with its @name directive.
type Command string

const (
	CommandExec Command = "exec"
	CommandOne  Command = "one"
	CommandMany Command = "many"
	CommandVal  Command = "val"
)

// Valid reports whether c is one of the four recognized kinds.
func (c Command) Valid() bool {
	switch c {
	case CommandExec, CommandOne, CommandMany, CommandVal:
		return true
	}
	return false
}

// SQLType is a resolved database type. ID is the native type id and is only
// stable within one database session.
type SQLType struct {
	ID     int64  `json:"id"`
	Schema string `json:"schema"`
	Name   string `json:"name"`
}

type Annotation struct {
	Value string `json:"value"`
	Line  int    `json:"line"`
}

type Parameter struct {
	Name    string  `json:"name"`
	Type    SQLType `json:"type"`
	NotNull bool    `json:"not_null"`
}

type OutputColumn struct {
	Name string  `json:"name"`
	Type SQLType `json:"type"`
}

// Query is a fully typed statement ready to be handed to a generator.
type Query struct {
	Name        string                `json:"name"`
	Command     Command               `json:"command"`
	SQL         string                `json:"query"`
	Path        string                `json:"path"`
	Line        int                   `json:"line"`
	Annotations map[string]Annotation `json:"annotations"`
	Parameters  []Parameter           `json:"parameters"`
	Outputs     []OutputColumn        `json:"output"`
}

type Catalog struct {
	Schemas []Schema `json:"schemas"`
}

type Schema struct {
	Name   string  `json:"name"`
	Enums  []Enum  `json:"enums"`
	Models []Model `json:"models"`
}

type Enum struct {
	Name   string   `json:"name"`
	Values []string `json:"values"`
}

// Model kinds as reported by the catalog query.
const (
	KindTable            = "table"
	KindView             = "view"
	KindMaterializedView = "materialized view"
	KindComposite        = "composite"
)

type Model struct {
	Name    string   `json:"name"`
	Kind    string   `json:"kind"`
	Columns []Column `json:"columns"`
}

type Column struct {
	Name               string     `json:"name"`
	Type               ColumnType `json:"type"`
	IsNullable         bool       `json:"is_nullable"`
	Default            *string    `json:"default"`
	IsUnique           bool       `json:"is_unique"`
	IsPrimaryKey       bool       `json:"is_primary_key"`
	IsForeignKey       bool       `json:"is_foreign_key"`
	ForeignTableSchema *string    `json:"foreign_table_schema"`
	ForeignTableName   *string    `json:"foreign_table_name"`
}

type ColumnType struct {
	Name            string `json:"name"`
	SchemaName      string `json:"schema_name"`
	Display         string `json:"display"`
	IsArray         bool   `json:"is_array"`
	IsComposite     bool   `json:"is_composite"`
	ArrayDimensions int    `json:"array_dimensions"`
}

// FindSchema returns the schema with the given name, or nil.
func (c *Catalog) FindSchema(name string) *Schema {
	for i := range c.Schemas {
		if c.Schemas[i].Name == name {
			return &c.Schemas[i]
		}
	}
	return nil
}

// Request is the payload sent to a generator module.
type Request struct {
	Catalog Catalog     `json:"catalog"`
	Queries []Query     `json:"queries"`
	Config  interface{} `json:"config"`
}

type File struct {
	Path    string `json:"path"`
	Content string `json:"content"`
}

// Response is the generator's tagged result: either Files or Error is set.
type Response struct {
	Files []File  `json:"files,omitempty"`
	Error *string `json:"error,omitempty"`
}
