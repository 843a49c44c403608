package etl

// ── Schema ─────────────────────────────────────────────────
// The column types of a product catalog file are fixed by position.
// Only the width of a row (the number of fields) comes from the header.

// FieldType is the semantic type of one column.
type FieldType int

const (
	FieldText FieldType = iota
	FieldInteger
	FieldCurrency
	FieldBoolean
)

func (t FieldType) String() string {
	switch t {
	case FieldInteger:
		return "integer"
	case FieldCurrency:
		return "currency"
	case FieldBoolean:
		return "boolean"
	default:
		return "text"
	}
}

// Column positions of the product catalog file.
const (
	ColCode = iota
	ColName
	ColDescription
	ColStock
	ColCost
	ColDiscontinued
)

// ProductFieldTypes maps each column position to its type:
// code, name, description, stock, cost, discontinued.
var ProductFieldTypes = []FieldType{FieldText, FieldText, FieldText, FieldInteger, FieldCurrency, FieldBoolean}

// Field describes a single column in a dataset.
type Field struct {
	Name string    `json:"name"`
	Type FieldType `json:"type"`
}

// Schema describes the shape of rows coming from a source.
type Schema struct {
	Fields []Field `json:"fields"`
}

// NewSchema names the fixed product column types after the header row.
// Columns beyond the typed ones are treated as text.
func NewSchema(header []string) *Schema {
	s := &Schema{Fields: make([]Field, len(header))}
	for i, h := range header {
		t := FieldText
		if i < len(ProductFieldTypes) {
			t = ProductFieldTypes[i]
		}
		s.Fields[i] = Field{Name: h, Type: t}
	}
	return s
}

// Width is the expected number of fields in a well-formed row.
func (s *Schema) Width() int {
	return len(s.Fields)
}

// FieldNames returns an ordered list of field names.
func (s *Schema) FieldNames() []string {
	names := make([]string, len(s.Fields))
	for i, f := range s.Fields {
		names[i] = f.Name
	}
	return names
}
