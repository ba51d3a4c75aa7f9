package output

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	json "github.com/json-iterator/go"
	"github.com/zfogg/formdesk/internal/cli/config"
)

type Format string

const (
	FormatJSON  Format = "json"
	FormatTable Format = "table"
	FormatText  Format = "text"
)

var out io.Writer = color.Output

// SetWriter redirects all output. It returns a func restoring the previous
// writer.
func SetWriter(w io.Writer) func() {
	prev := out
	out = w
	return func() { out = prev }
}

// GetFormat returns the configured output format, text when unset or
// unknown.
func GetFormat() Format {
	switch Format(config.GetString("output.format")) {
	case FormatJSON:
		return FormatJSON
	case FormatTable:
		return FormatTable
	default:
		return FormatText
	}
}

func ValidFormat(format string) bool {
	switch Format(format) {
	case FormatJSON, FormatTable, FormatText:
		return true
	}
	return false
}

// Table is a list rendered as columns in table and text formats. Data is
// what the json format prints instead.
type Table struct {
	Headers []string
	Rows    [][]string
	Data    interface{}
}

// PrintTable renders t in the configured format.
func PrintTable(t Table) error {
	if GetFormat() == FormatJSON {
		return PrintJSON(t.Data)
	}
	if len(t.Rows) == 0 {
		PrintInfo("No results")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	bold := color.New(color.Bold)
	_, _ = bold.Fprintln(w, strings.Join(t.Headers, "\t"))
	for _, row := range t.Rows {
		_, _ = fmt.Fprintln(w, strings.Join(row, "\t"))
	}
	return w.Flush()
}

// PrintRecord prints a single object. Text and table formats list the
// fields in key order; json prints data.
func PrintRecord(title string, fields map[string]interface{}, data interface{}) error {
	if GetFormat() == FormatJSON {
		return PrintJSON(data)
	}

	if title != "" {
		_, _ = color.New(color.Bold, color.FgCyan).Fprintln(out, title)
	}
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	bold := color.New(color.Bold)
	for _, k := range keys {
		_, _ = bold.Fprint(w, k+":")
		_, _ = fmt.Fprintf(w, "\t%v\n", fields[k])
	}
	return w.Flush()
}

func PrintJSON(data interface{}) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(data)
}

func PrintSuccess(msg string, args ...interface{}) {
	_, _ = color.New(color.FgGreen).Fprintf(out, msg+"\n", args...)
}

func PrintError(msg string, args ...interface{}) {
	_, _ = color.New(color.FgRed).Fprintf(out, "Error: "+msg+"\n", args...)
}

func PrintInfo(msg string, args ...interface{}) {
	_, _ = color.New(color.FgCyan).Fprintf(out, msg+"\n", args...)
}

func PrintWarning(msg string, args ...interface{}) {
	_, _ = color.New(color.FgYellow).Fprintf(out, "Warning: "+msg+"\n", args...)
}

// Time formats t relative to now, e.g. "3 days ago" or "2 hours from now".
func Time(t *time.Time) string {
	if t == nil || t.IsZero() {
		return "-"
	}
	return humanize.Time(*t)
}

// Bytes formats a size as "1.2 kB".
func Bytes(n int64) string {
	if n < 0 {
		return "-"
	}
	return humanize.Bytes(uint64(n))
}

// Truncate shortens s to max runes, marking the cut with "...".
func Truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max || max < 4 {
		return s
	}
	return string(r[:max-3]) + "..."
}
