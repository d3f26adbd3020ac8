package cli

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"

	"arkman.dev/cli/internal/application/services"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86"))
	okStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("46"))
	failStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	dimStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
)

func printTitle(w io.Writer, title string) {
	fmt.Fprintln(w, titleStyle.Render(title))
}

func printOK(w io.Writer, format string, args ...interface{}) {
	fmt.Fprintln(w, okStyle.Render("✅ "+fmt.Sprintf(format, args...)))
}

func printFail(w io.Writer, format string, args ...interface{}) {
	fmt.Fprintln(w, failStyle.Render("❌ "+fmt.Sprintf(format, args...)))
}

func printDetail(w io.Writer, format string, args ...interface{}) {
	fmt.Fprintln(w, dimStyle.Render("   "+fmt.Sprintf(format, args...)))
}

// failures turns a count of failed servers into the command's error
func failures(failed, total int) error {
	if failed == 0 {
		return nil
	}
	return fmt.Errorf("%d of %d servers failed", failed, total)
}

func printSyncReports(w io.Writer, reports []services.SyncReport) error {
	failed := 0
	for _, r := range reports {
		if r.Err != nil {
			failed++
			printFail(w, "%s: %v", r.Server.Name, r.Err)
			continue
		}

		if r.Failed() {
			failed++
			printFail(w, "%s", r.Server.Name)
		} else {
			printOK(w, "%s", r.Server.Name)
		}
		for _, f := range r.Files {
			switch {
			case f.Err != nil:
				printDetail(w, "%s: %v", f.File, f.Err)
			case f.Skipped:
				printDetail(w, "%s skipped (%s not found)", f.File, f.Path)
			default:
				printDetail(w, "%s -> %s", f.File, f.Path)
			}
		}
	}
	return failures(failed, len(reports))
}

func printCommandResults(w io.Writer, results []services.CommandResult) error {
	failed := 0
	for _, r := range results {
		if r.Err != nil {
			failed++
			printFail(w, "%v", r.Err)
			continue
		}
		printOK(w, "%s", r.Server.Name)
		if r.Response != "" {
			printDetail(w, "%s", r.Response)
		}
	}
	return failures(failed, len(results))
}
