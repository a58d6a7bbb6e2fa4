package model

// AdverseEvent is a single openFDA report flattened to dotted-path keys
// (e.g. "patient.patientsex", "receivedate"). Lists are kept as []any.
type AdverseEvent map[string]any

// CountEntry is one bar of a categorical distribution.
type CountEntry struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}
