package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/zarlcorp/core/pkg/zstyle"
	"github.com/zarlcorp/zseed/internal/generate"
	"github.com/zarlcorp/zseed/internal/identity"
	"github.com/zarlcorp/zseed/internal/store"
)

var accent = lipgloss.NewStyle().Foreground(zstyle.ZburnAccent).Bold(true)

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode json: %w", err)
	}
	return nil
}

func printResult(w io.Writer, r generate.Result) {
	switch {
	case r.Unknown:
		fmt.Fprintln(w, zstyle.StatusWarn.Render(r.Summary()))
	case r.OK():
		fmt.Fprintln(w, zstyle.StatusOK.Render(r.Summary()))
	default:
		fmt.Fprintln(w, zstyle.StatusErr.Render(r.Summary()))
	}
}

func printPerson(w io.Writer, p identity.Person) {
	fmt.Fprintln(w, accent.Render(p.DisplayName))
	field(w, "login", p.Login)
	field(w, "email", p.Email)
	field(w, "phone", p.Phone)
	field(w, "address", fmt.Sprintf("%s, %s, %s %s", p.Street, p.City, p.State, p.Zip))
	field(w, "registered", p.Registered.Format("2006-01-02 15:04:05"))
}

func field(w io.Writer, label, value string) {
	fmt.Fprintf(w, "%s %s\n", zstyle.MutedText.Render(fmt.Sprintf("%-10s", label)), value)
}

func printRun(w io.Writer, r store.Run) {
	status := zstyle.StatusOK.Render("ok")
	if !r.OK() {
		status = zstyle.StatusErr.Render(r.Code)
	}

	line := fmt.Sprintf("%s  %s  %-9s %d/%d  %s",
		accent.Render(r.ShortID()),
		r.Started.Format("2006-01-02 15:04"),
		r.Type, r.Count, r.Requested, status)
	if r.Plan != "" {
		line += "  " + zstyle.MutedText.Render("plan "+r.Plan)
	}
	if r.DryRun {
		line += "  " + zstyle.MutedText.Render("(dry run)")
	}
	fmt.Fprintln(w, line)
}
