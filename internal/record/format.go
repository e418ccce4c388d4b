package record

import (
	"fmt"
	"strings"
	"text/tabwriter"
	"time"
)

// Listing modes.
const (
	ModeShort = "short"
	ModeLong  = "long"
	ModeTable = "table"
)

// FormatList renders records for display. Short mode prints one label
// per line; long mode prints every field of every record; table mode
// prints aligned columns.
func FormatList(recs []*Record, mode string) string {
	switch mode {
	case ModeLong:
		return formatLong(recs)
	case ModeTable:
		return formatTable(recs)
	default:
		var b strings.Builder
		for _, rec := range recs {
			fmt.Fprintln(&b, rec.Label)
		}
		return strings.TrimRight(b.String(), "\n")
	}
}

func formatLong(recs []*Record) string {
	var b strings.Builder
	for i, rec := range recs {
		if i > 0 {
			fmt.Fprintln(&b, strings.Repeat("-", 70))
		}
		fmt.Fprintf(&b, "Label            : %s\n", rec.Label)
		fmt.Fprintf(&b, "Timestamp        : %s\n", rec.Timestamp.Format("2006-01-02 15:04:05"))
		fmt.Fprintf(&b, "Reason           : %s\n", rec.Reason)
		fmt.Fprintf(&b, "Outcome          : %s\n", rec.Outcome)
		fmt.Fprintf(&b, "Duration         : %s\n", rec.Duration)
		fmt.Fprintf(&b, "Repository       : %s (%s)\n", rec.Repository.URL, rec.Repository.Kind)
		fmt.Fprintf(&b, "Main file        : %s\n", rec.MainFile)
		fmt.Fprintf(&b, "Version          : %s\n", rec.Version)
		fmt.Fprintf(&b, "Executable       : %s (%s)\n", rec.Executable.Name, rec.Executable.Path)
		fmt.Fprintf(&b, "Launch mode      : %s\n", rec.LaunchMode)
		fmt.Fprintf(&b, "Script arguments : %s\n", rec.ScriptArguments)
		fmt.Fprintf(&b, "Input data       : %s\n", strings.Join(rec.InputData, ", "))
		fmt.Fprintf(&b, "Output data      : %s\n", strings.Join(rec.OutputData, ", "))
		fmt.Fprintf(&b, "Tags             : %s\n", strings.Join(rec.Tags, ", "))
		if params := rec.Parameters.String(); params != "" {
			fmt.Fprintf(&b, "Parameters       :\n")
			for _, line := range strings.Split(strings.TrimRight(params, "\n"), "\n") {
				fmt.Fprintf(&b, "    %s\n", line)
			}
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

func formatTable(recs []*Record) string {
	var b strings.Builder
	w := tabwriter.NewWriter(&b, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "Label\tTimestamp\tDuration\tVersion\tTags")
	for _, rec := range recs {
		version := rec.Version
		if len(version) > 12 {
			version = version[:12]
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			rec.Label,
			rec.Timestamp.Format("2006-01-02 15:04:05"),
			rec.Duration.Round(time.Millisecond),
			version,
			strings.Join(rec.Tags, ","))
	}
	w.Flush()
	return strings.TrimRight(b.String(), "\n")
}
