package model

import (
	"strconv"
)

// Document is a named tabular file: ordered sheets of ordered rows.
type Document struct {
	Name   string
	Sheets []*Sheet
}

// Sheet is one table of a Document. Row order is meaningful.
type Sheet struct {
	Name string
	Rows []Row
}

// Row keeps cells in column order.
type Row []Cell

// Cell is a column name and its scalar value.
type Cell struct {
	Column string
	Value  Value
}

type ValueKind int

const (
	ValueNull ValueKind = iota
	ValueString
	ValueNumber
	ValueBool
)

// Value is a tagged scalar read from a spreadsheet cell.
type Value struct {
	Kind ValueKind
	Str  string
	Num  float64
	Bool bool
}

func NullValue() Value            { return Value{Kind: ValueNull} }
func StringValue(s string) Value  { return Value{Kind: ValueString, Str: s} }
func NumberValue(n float64) Value { return Value{Kind: ValueNumber, Num: n} }
func BoolValue(b bool) Value      { return Value{Kind: ValueBool, Bool: b} }

// String renders the value deterministically. Numbers use the shortest
// representation, so 9 and 9.0 both render as "9". Null renders as "".
func (v Value) String() string {
	switch v.Kind {
	case ValueString:
		return v.Str
	case ValueNumber:
		return strconv.FormatFloat(v.Num, 'f', -1, 64)
	case ValueBool:
		return strconv.FormatBool(v.Bool)
	default:
		return ""
	}
}

// RowCount returns the number of rows across all sheets
func (d *Document) RowCount() int {
	n := 0
	for _, s := range d.Sheets {
		n += len(s.Rows)
	}
	return n
}
