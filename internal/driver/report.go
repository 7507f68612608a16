package driver

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"bracefix/internal/diag"
)

// ReportFormat selects how WriteReport renders a batch report.
type ReportFormat string

const (
	ReportText ReportFormat = "text"
	ReportJSON ReportFormat = "json"
	ReportYAML ReportFormat = "yaml"
)

// ParseReportFormat accepts text, json, yaml (and yml).
func ParseReportFormat(s string) (ReportFormat, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "text":
		return ReportText, nil
	case "json":
		return ReportJSON, nil
	case "yaml", "yml":
		return ReportYAML, nil
	}
	return "", fmt.Errorf("unknown report format %q (want text, json or yaml)", s)
}

type insertionView struct {
	Offset int    `json:"offset" yaml:"offset"`
	Source int    `json:"source" yaml:"source"`
	Char   string `json:"char" yaml:"char"`
}

type itemView struct {
	Location    string          `json:"location" yaml:"location"`
	Input       string          `json:"input" yaml:"input"`
	Status      Status          `json:"status" yaml:"status"`
	Output      string          `json:"output,omitempty" yaml:"output,omitempty"`
	Depth       int             `json:"depth" yaml:"depth"`
	Insertions  []insertionView `json:"insertions,omitempty" yaml:"insertions,omitempty"`
	Cached      bool            `json:"cached" yaml:"cached"`
	ElapsedMS   float64         `json:"elapsed_ms" yaml:"elapsed_ms"`
	Error       string          `json:"error,omitempty" yaml:"error,omitempty"`
	Diagnostics []string        `json:"diagnostics,omitempty" yaml:"diagnostics,omitempty"`
}

type reportView struct {
	RunID     string     `json:"run_id" yaml:"run_id"`
	Started   time.Time  `json:"started" yaml:"started"`
	ElapsedMS float64    `json:"elapsed_ms" yaml:"elapsed_ms"`
	Total     int        `json:"total" yaml:"total"`
	Valid     int        `json:"valid" yaml:"valid"`
	Fixed     int        `json:"fixed" yaml:"fixed"`
	Failed    int        `json:"failed" yaml:"failed"`
	Cached    int        `json:"cached" yaml:"cached"`
	Items     []itemView `json:"items" yaml:"items"`
}

func millis(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}

func viewOf(rep *Report) reportView {
	v := reportView{
		RunID:     rep.RunID,
		Started:   rep.Started,
		ElapsedMS: millis(rep.Elapsed),
		Total:     rep.Total,
		Valid:     rep.Valid,
		Fixed:     rep.Fixed,
		Failed:    rep.Failed,
		Cached:    rep.Cached,
		Items:     make([]itemView, len(rep.Items)),
	}
	for i, it := range rep.Items {
		iv := itemView{
			Location:  it.Loc.String(),
			Input:     it.Input,
			Status:    it.Status,
			Output:    it.Output,
			Depth:     it.Depth,
			Cached:    it.Cached,
			ElapsedMS: millis(it.Elapsed),
		}
		for _, ins := range it.Insertions {
			iv.Insertions = append(iv.Insertions, insertionView{Offset: ins.Offset, Source: ins.Source, Char: string(ins.Char)})
		}
		if it.Err != nil {
			iv.Error = it.Err.Error()
		}
		if len(it.Diagnostics) > 0 {
			iv.Diagnostics = strings.Split(diag.FormatShortDiagnostics(it.Diagnostics, false), "\n")
		}
		v.Items[i] = iv
	}
	return v
}

// WriteReport renders rep to w.
func WriteReport(w io.Writer, rep *Report, format ReportFormat) error {
	switch format {
	case ReportJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(viewOf(rep))
	case ReportYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(viewOf(rep)); err != nil {
			return err
		}
		return enc.Close()
	case ReportText, "":
		return writeTextReport(w, rep)
	}
	return fmt.Errorf("unknown report format %q", format)
}

func writeTextReport(w io.Writer, rep *Report) error {
	for _, it := range rep.Items {
		var line string
		switch it.Status {
		case StatusFixed:
			line = fmt.Sprintf("%s\tfixed\t%s -> %s (+%d)", it.Loc, it.Input, it.Output, it.Depth)
		case StatusValid:
			line = fmt.Sprintf("%s\tvalid\t%s", it.Loc, it.Input)
		default:
			msg := ""
			if it.Err != nil {
				msg = it.Err.Error()
			}
			line = fmt.Sprintf("%s\t%s\t%s", it.Loc, it.Status, msg)
		}
		if it.Cached {
			line += "\t(cached)"
		}
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintf(w, "run %s: %d total, %d valid, %d fixed, %d failed, %d cached in %.2f ms\n",
		rep.RunID, rep.Total, rep.Valid, rep.Fixed, rep.Failed, rep.Cached, millis(rep.Elapsed))
	return err
}
