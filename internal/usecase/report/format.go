package report

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"text/tabwriter"
)

// MaxFieldLen is the width at which text report fields are truncated.
const MaxFieldLen = 80

// Status values of a report row.
const (
	StatusOK       = "ok"
	StatusMismatch = "mismatch"
	StatusUnknown  = "unknown"
	StatusError    = "error"
)

// Status classifies the row for display.
func (r Row) Status() string {
	switch {
	case r.Err != nil:
		return StatusError
	case r.Expected == nil:
		return StatusUnknown
	case r.Matched():
		return StatusOK
	default:
		return StatusMismatch
	}
}

// Format renders rows as an aligned text table. Source paths under root are shown relative to it.
func Format(rows []Row, root string) string {
	if len(rows) == 0 {
		return "No collections found."
	}

	var b strings.Builder
	b.WriteString("Collections overview:\n")
	tw := tabwriter.NewWriter(&b, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "name\tcount\texpected\tstatus\tdimension\tprovider\tmodel\tvariant\tsource")
	for _, r := range rows {
		count := strconv.Itoa(r.Live)
		if r.Err != nil {
			count = "error: " + r.Err.Error()
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			truncate(r.Name),
			truncate(count),
			optInt(r.Expected),
			r.Status(),
			optInt(r.Dimension),
			truncate(r.Provider),
			truncate(r.Model),
			truncate(r.Variant),
			truncate(relativeSource(r.Source, root)),
		)
	}
	_ = tw.Flush()
	return strings.TrimRight(b.String(), "\n")
}

// JSONRow is the JSON rendering of a Row.
type JSONRow struct {
	Name        string            `json:"name"`
	Provider    string            `json:"provider,omitempty"`
	Model       string            `json:"model,omitempty"`
	Variant     string            `json:"variant,omitempty"`
	Source      string            `json:"source,omitempty"`
	Metadata    map[string]string `json:"metadata,omitempty"`
	Count       int               `json:"count"`
	Expected    *int              `json:"expected"`
	Dimension   *int              `json:"dimension"`
	Status      string            `json:"status"`
	Error       string            `json:"error,omitempty"`
	SourceError string            `json:"source_error,omitempty"`
}

// JSONRows converts rows for JSON encoding.
func JSONRows(rows []Row) []JSONRow {
	out := make([]JSONRow, 0, len(rows))
	for _, r := range rows {
		jr := JSONRow{
			Name:      r.Name,
			Provider:  r.Provider,
			Model:     r.Model,
			Variant:   r.Variant,
			Source:    r.Source,
			Metadata:  r.Metadata,
			Count:     r.Live,
			Expected:  r.Expected,
			Dimension: r.Dimension,
			Status:    r.Status(),
		}
		if r.Err != nil {
			jr.Error = r.Err.Error()
		}
		if r.SourceErr != nil {
			jr.SourceError = r.SourceErr.Error()
		}
		out = append(out, jr)
	}
	return out
}

// FormatJSON renders rows as an indented JSON array.
func FormatJSON(rows []Row) ([]byte, error) {
	data, err := json.MarshalIndent(JSONRows(rows), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal report: %w", err)
	}
	return data, nil
}

func truncate(s string) string {
	if len(s) <= MaxFieldLen {
		return s
	}
	return s[:MaxFieldLen-1] + "."
}

func optInt(v *int) string {
	if v == nil {
		return "-"
	}
	return strconv.Itoa(*v)
}

func relativeSource(src, root string) string {
	if src == "" || root == "" {
		return src
	}
	abs, err := filepath.Abs(src)
	if err != nil {
		return src
	}
	rel, err := filepath.Rel(root, abs)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return src
	}
	return rel
}
