// Package table assembles generated events into a row-ordered table with
// one column per event field.
package table

import (
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"github.com/arkilian/clickgen/pkg/types"
)

// Table holds events in generation order alongside the export schema.
type Table struct {
	schema types.Schema
	rows   []types.Event
}

// FromEvents builds a table with one row per event, preserving order.
func FromEvents(events []types.Event) *Table {
	rows := make([]types.Event, len(events))
	copy(rows, events)
	return &Table{
		schema: types.ClickstreamSchema(),
		rows:   rows,
	}
}

// Schema returns the table schema.
func (t *Table) Schema() types.Schema {
	return t.schema
}

// Columns returns the column names in order.
func (t *Table) Columns() []string {
	return t.schema.ColumnNames()
}

// Len returns the number of rows.
func (t *Table) Len() int {
	return len(t.rows)
}

// Row returns the i-th row.
func (t *Table) Row(i int) types.Event {
	return t.rows[i]
}

// Rows returns the underlying rows. Callers must not modify the slice.
func (t *Table) Rows() []types.Event {
	return t.rows
}

// Head returns a table with at most the first n rows.
func (t *Table) Head(n int) *Table {
	if n < 0 {
		n = 0
	}
	if n > len(t.rows) {
		n = len(t.rows)
	}
	return &Table{schema: t.schema, rows: t.rows[:n]}
}

// Values renders row i as display strings in column order.
func (t *Table) Values(i int) []string {
	e := t.rows[i]
	return []string{
		e.FormattedTimestamp(),
		strconv.FormatInt(e.UserID, 10),
		e.SessionID,
		e.PageURL,
		e.ReferrerURL,
		string(e.EventType),
		e.Details.String(),
	}
}

// WritePreview writes an aligned preview of the first n rows, each prefixed
// with its row index.
func (t *Table) WritePreview(w io.Writer, n int) error {
	head := t.Head(n)
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	for _, c := range head.Columns() {
		fmt.Fprintf(tw, "\t%s", c)
	}
	fmt.Fprintln(tw)

	for i := 0; i < head.Len(); i++ {
		fmt.Fprintf(tw, "%d", i)
		for _, v := range head.Values(i) {
			fmt.Fprintf(tw, "\t%s", v)
		}
		fmt.Fprintln(tw)
	}
	return tw.Flush()
}
