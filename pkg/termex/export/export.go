// Package export writes reviewed terms as CSV rows.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/cognicore/termex/pkg/termex/internalerr"
	"github.com/cognicore/termex/pkg/termex/term"
)

// Notes is the note attached to every exported row.
const Notes = "Auto-extracted"

// Header is the CSV header row.
var Header = []string{"Source term", "Target term", "Frequency", "Context", "Notes"}

// Row is one exported term. Only the first context is exported.
type Row struct {
	SourceTerm string
	TargetTerm string
	Frequency  int
	Context    string
	Notes      string
}

// Rows converts the selected records, in the given order.
func Rows(records []*term.Record) []Row {
	var out []Row
	for _, rec := range records {
		if !rec.Selected {
			continue
		}
		out = append(out, Row{
			SourceTerm: rec.Term,
			Frequency:  rec.Frequency,
			Context:    rec.FirstContext(),
			Notes:      Notes,
		})
	}
	return out
}

func (r Row) fields() []string {
	return []string{r.SourceTerm, r.TargetTerm, strconv.Itoa(r.Frequency), r.Context, r.Notes}
}

// WriteCSV writes a header and one row per selected record. It returns
// internalerr.ErrNothingSelected, writing nothing, when no record is selected.
func WriteCSV(w io.Writer, records []*term.Record) error {
	rows := Rows(records)
	if len(rows) == 0 {
		return internalerr.ErrNothingSelected
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, row := range rows {
		if err := cw.Write(row.fields()); err != nil {
			return fmt.Errorf("write row %q: %w", row.SourceTerm, err)
		}
	}
	cw.Flush()
	return cw.Error()
}
