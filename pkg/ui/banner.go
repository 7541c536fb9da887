package ui

import (
	"fmt"
	"io"

	"github.com/hostscope/hostscope/pkg/defaults"
)

// PrintBanner writes the tool banner to w. Suppressed by the callers
// in quiet mode and when w is not a terminal.
func PrintBanner(w io.Writer, tool string) {
	name := BannerStyle.Render(tool)
	version := VersionStyle.Render("v" + defaults.Version)
	fmt.Fprintf(w, "%s %s\n\n", name, version)
}
