package main

import (
	"fmt"
	"io"

	"github.com/jacksmith/finalizer/internal/cli"
	"github.com/jacksmith/finalizer/internal/ops"
)

// renderSummary prints one row per step followed by the overall outcome.
func renderSummary(w io.Writer, report *ops.Report) {
	tbl := cli.NewTable()
	tbl.SetMaxWidth(2, cli.DefaultMaxDetailWidth)
	for _, step := range report.Steps {
		tbl.AddRow(step.Name, statusText(step.Status), step.Detail)
	}
	tbl.Render(w)

	switch {
	case len(report.Steps) == 0:
		fmt.Fprintln(w, cli.Red("Nothing was done"))
	case report.SDKPresent:
		fmt.Fprintf(w, "SDK band %s is still installed\n", report.Band)
	case report.RebootRequired:
		fmt.Fprintln(w, cli.Yellow("Reboot required"))
	}
}

func statusText(status ops.StepStatus) string {
	s := string(status)
	switch status {
	case ops.StepDone:
		return cli.Green(s)
	case ops.StepFailed:
		return cli.Red(s)
	case ops.StepKept:
		return cli.Yellow(s)
	default:
		return cli.Gray(s)
	}
}
