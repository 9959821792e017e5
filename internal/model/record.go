package model

// FieldKind is the declared type of a tabular field
type FieldKind int

const (
	FieldString FieldKind = iota
	FieldNumeric
)

func (k FieldKind) String() string {
	switch k {
	case FieldNumeric:
		return "numeric"
	default:
		return "string"
	}
}

// Field maps one source column to one record field
type Field struct {
	Source   string    // Column name in the header row
	Kind     FieldKind // How the raw value is coerced
	RenameTo string    // Output name, Source is used when empty
}

// Name returns the field name seen by everything downstream of the parser
func (f Field) Name() string {
	if f.RenameTo != "" {
		return f.RenameTo
	}
	return f.Source
}

// Schema describes how rows of one dataset become records
type Schema struct {
	Fields []Field

	// KeepUndeclared passes columns that have no Field through as strings
	KeepUndeclared bool

	// Delimiter separates columns, a comma when zero
	Delimiter rune
}

// Lookup returns the field declared for a source column
func (s Schema) Lookup(column string) (Field, bool) {
	for _, f := range s.Fields {
		if f.Source == column {
			return f, true
		}
	}
	return Field{}, false
}

// GeoRecord is one parsed row keyed by output field name.
// Numeric fields hold float64, string fields hold string and a numeric
// field that could not be coerced holds nil.
type GeoRecord map[string]any

// Float returns a numeric field. ok is false for missing or non-numeric values.
func (r GeoRecord) Float(name string) (float64, bool) {
	v, ok := r[name].(float64)
	return v, ok
}

// CoordinateFields names the record fields holding a point's position
type CoordinateFields struct {
	Longitude string
	Latitude  string
}

// DefaultCoordinateFields are the names used by the bundled dataset presets
var DefaultCoordinateFields = CoordinateFields{Longitude: "longitude", Latitude: "latitude"}
