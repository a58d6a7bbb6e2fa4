package jobparse

import (
	"time"

	"jobdash/internal/model"
	"jobdash/internal/ner"
)

const dateLayout = "2006-01-02"

// Assemble merges extractor output and heuristic fields into a record ready
// to be stored. Company and Location come from the first entity of their
// category; everything else comes from fields. Date is always now.
func Assemble(entities []ner.Entity, fields Fields, resume []byte, now time.Time) model.JobApplication {
	app := model.JobApplication{
		JobTitle:     fields.Title,
		Requirements: fields.Requirements,
		Salary:       fields.Salary,
		Date:         now.Format(dateLayout),
	}

	for _, e := range entities {
		switch e.Category {
		case ner.Organization:
			if app.Company == "" {
				app.Company = e.Text
			}
		case ner.Location:
			if app.Location == "" {
				app.Location = e.Text
			}
		}
	}

	if len(resume) > 0 {
		app.Resume = resume
		app.HasResume = true
	}
	return app
}
