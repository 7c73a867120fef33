package types

// Schema defines the column layout of an exported clickstream table.
type Schema struct {
	// Version tracks schema evolution for downstream readers
	Version int `json:"version"`

	// Columns defines the columns in the schema, in table order
	Columns []ColumnDef `json:"columns"`
}

// ColumnDef defines a single column in the schema.
type ColumnDef struct {
	// Name is the column name
	Name string `json:"name"`

	// Type is the logical type: STRING, INT64, STRUCT
	Type string `json:"type"`

	// Nullable indicates whether the column can contain nulls
	Nullable bool `json:"nullable"`
}

// ClickstreamSchema returns the schema of the exported event table.
func ClickstreamSchema() Schema {
	return Schema{
		Version: 1,
		Columns: []ColumnDef{
			{Name: "timestamp", Type: "STRING"},
			{Name: "user_id", Type: "INT64"},
			{Name: "session_id", Type: "STRING"},
			{Name: "page_url", Type: "STRING"},
			{Name: "referrer_url", Type: "STRING"},
			{Name: "event_type", Type: "STRING"},
			{Name: "event_details", Type: "STRUCT"},
		},
	}
}

// ColumnNames returns the names of the schema's columns in order.
func (s Schema) ColumnNames() []string {
	names := make([]string, len(s.Columns))
	for i, c := range s.Columns {
		names[i] = c.Name
	}
	return names
}
