package model

// JobApplication is one tracked job application.
// Text fields default to the empty string; Resume is nil when no file was attached.
type JobApplication struct {
	ID           int64  `json:"id"`
	JobTitle     string `json:"job_title"`
	Company      string `json:"company"`
	Location     string `json:"location"`
	Requirements string `json:"requirements"`
	Salary       string `json:"salary"`
	Date         string `json:"date"`
	Resume       []byte `json:"-"`
	HasResume    bool   `json:"has_resume"`
}
