package veccoll

import (
	reportuc "github.com/kailas-cloud/veccoll/internal/usecase/report"
)

// Match is one nearest-neighbour hit. Lower Distance is closer.
type Match struct {
	ID       string
	Document string
	Metadata map[string]string
	Distance float64
	Score    float64
}

// SyncOutcome is the ingestion result of one collection.
type SyncOutcome struct {
	Name string
	Rows int
	Err  error
}

// SyncResult collects the outcome of every collection in a sync run.
type SyncResult struct {
	Outcomes []SyncOutcome
}

// Failed returns the outcomes that carry an error.
func (r SyncResult) Failed() []SyncOutcome {
	var out []SyncOutcome
	for _, o := range r.Outcomes {
		if o.Err != nil {
			out = append(out, o)
		}
	}
	return out
}

// ReportRow describes one collection. Expected and Dimension are nil when unknown.
type ReportRow struct {
	Name      string
	Provider  string
	Model     string
	Variant   string
	Source    string
	Live      int
	Expected  *int
	Dimension *int
	// Status is "ok", "mismatch", "unknown" or "error".
	Status string
	Err    error
}

func newReportRow(r reportuc.Row) ReportRow {
	return ReportRow{
		Name:      r.Name,
		Provider:  r.Provider,
		Model:     r.Model,
		Variant:   r.Variant,
		Source:    r.Source,
		Live:      r.Live,
		Expected:  r.Expected,
		Dimension: r.Dimension,
		Status:    r.Status(),
		Err:       r.Err,
	}
}
