package report

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"text/tabwriter"
)

// Writer serializes a set of report entries to disk, in one of two
// formats: "json" (the default, matching reporting.py's ReportWriter
// byte-for-byte in shape) or "table", a human-readable summary adapted
// from the docker-model-runner CLI's formatter package.
type Writer struct {
	Path   string
	Format string
}

// New builds a Writer. An empty format defaults to "json".
func New(path, format string) *Writer {
	if format == "" {
		format = "json"
	}
	return &Writer{Path: path, Format: format}
}

// Write renders entries and writes them to w.Path, creating parent
// directories as needed.
func (w *Writer) Write(entries []Entry) error {
	if dir := filepath.Dir(w.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}

	file, err := os.Create(w.Path)
	if err != nil {
		return err
	}
	defer file.Close()

	switch w.Format {
	case "table":
		return writeTable(file, entries)
	default:
		return writeJSON(file, entries)
	}
}

func writeJSON(w io.Writer, entries []Entry) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if entries == nil {
		entries = []Entry{}
	}
	return enc.Encode(entries)
}

func writeTable(w io.Writer, entries []Entry) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "INDEX\tMETHOD\tURL\tMATCHED\tHEADERS\tBODY\tSTATUS")
	for _, e := range entries {
		status := "-"
		if e.FinalStatus != nil {
			status = fmt.Sprintf("%d", *e.FinalStatus)
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%t\t%d/%d\t%d/%d\t%s\n",
			e.Index, e.Method, e.URL, e.Matched,
			e.Headers.Final, e.Headers.Original,
			e.Body.Final, e.Body.Original,
			status,
		)
	}
	return tw.Flush()
}
