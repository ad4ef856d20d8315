package renderer

import (
	"fmt"
	"strings"

	"github.com/etnz/taxlots"
)

// EventsMarkdown renders the realized events in their processing order.
func EventsMarkdown(events []taxlots.TaxEvent) string {
	var b strings.Builder

	fmt.Fprint(&b, "# Realized Events\n\n")
	if len(events) == 0 {
		fmt.Fprint(&b, "No realized event.\n")
		return b.String()
	}

	fmt.Fprintln(&b, "| Closed | Opened | Security | Kind | Quantity | Proceeds | Cost | Gain | Days | Category |")
	fmt.Fprintln(&b, "|:---|:---|:---|:---|---:|---:|---:|---:|---:|:---|")
	for _, ev := range events {
		opened := ev.OpenDate.String()
		if opened == "" {
			opened = "-"
		}
		category := ev.Category.String()
		if ev.TaxFree {
			category += " (tax free)"
		}
		fmt.Fprintf(&b, "| %s | %s | %s | %s | %s | %s | %s | %s | %d | %s |\n",
			ev.CloseDate,
			opened,
			ev.Security,
			kind(ev),
			ev.Quantity,
			ev.Proceeds,
			ev.Cost,
			ev.Gain.SignedString(),
			ev.HoldingDays,
			category,
		)
	}
	return b.String()
}

// kind describes what closed the lot.
func kind(ev taxlots.TaxEvent) string {
	if ev.IsShort() {
		return ev.Kind.String() + " short"
	}
	return ev.Kind.String()
}
