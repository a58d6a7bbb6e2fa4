package export

import (
	"sort"

	"jobdash/internal/model"
)

const (
	ApplicationsFile  = "job_applications"
	AdverseEventsFile = "adverse_event_data"
)

// ApplicationColumns excludes the id and the resume blob.
var ApplicationColumns = []string{"Job Title", "Company", "Location", "Requirements", "Salary", "Date"}

func ApplicationsTable(apps []model.JobApplication) Table {
	rows := make([][]any, 0, len(apps))
	for _, a := range apps {
		rows = append(rows, []any{a.JobTitle, a.Company, a.Location, a.Requirements, a.Salary, a.Date})
	}
	return Table{Columns: ApplicationColumns, Rows: rows, Sheet: "Applications"}
}

// AdverseEventsTable uses the sorted union of keys across all reports.
func AdverseEventsTable(events []model.AdverseEvent) Table {
	seen := map[string]struct{}{}
	for _, e := range events {
		for k := range e {
			seen[k] = struct{}{}
		}
	}
	cols := make([]string, 0, len(seen))
	for k := range seen {
		cols = append(cols, k)
	}
	sort.Strings(cols)

	rows := make([][]any, 0, len(events))
	for _, e := range events {
		row := make([]any, len(cols))
		for i, c := range cols {
			row[i] = e[c]
		}
		rows = append(rows, row)
	}
	return Table{Columns: cols, Rows: rows}
}
