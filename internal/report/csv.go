package report

import (
	"encoding/csv"
	"io"
	"strconv"

	"modprof/internal/parse"
)

// WriteCSV emits the three report views as consecutive CSV sections for
// scripted consumption: the ordered rows, the per-operation aggregate, and
// the iteration total. Times are written unrounded.
func WriteCSV(w io.Writer, rep *parse.Report) error {
	cw := csv.NewWriter(w)

	records := [][]string{{"Module", "Name", "TOTAL TIME", "MODULE TOTAL TIME"}}
	for _, row := range rep.Rows {
		switch row.Kind {
		case parse.RowOp:
			records = append(records, []string{row.Module, row.Name, ftoa(row.TotalTime), ""})
		case parse.RowModuleSummary:
			records = append(records, []string{"", "", "", ftoa(row.ModuleTotalTime)})
		}
	}

	records = append(records, nil, []string{"Name", "TOTAL TIME", "PERCENT"})
	for _, row := range AggregateRows(rep) {
		records = append(records, []string{row.Name, ftoa(row.Total), ftoa(row.Percent)})
	}

	records = append(records, nil, []string{"TOTAL TIME"}, []string{ftoa(rep.IterationTotal)})

	for _, record := range records {
		if record == nil {
			// section separator
			if _, err := io.WriteString(w, "\n"); err != nil {
				return err
			}
			continue
		}
		if err := cw.Write(record); err != nil {
			return err
		}
		cw.Flush()
	}
	return cw.Error()
}

func ftoa(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
