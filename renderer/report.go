// Package renderer formats tax reports as markdown.
package renderer

import (
	"fmt"
	"io"
	"strings"

	"github.com/etnz/taxlots"
)

// ReportMarkdown renders the yearly summaries of a report, the losses carried forward and the
// lots still open.
func ReportMarkdown(r *taxlots.Report) string {
	var b strings.Builder

	if r.Year != 0 {
		fmt.Fprintf(&b, "# Tax Report %d\n\n", r.Year)
	} else {
		fmt.Fprint(&b, "# Tax Report\n\n")
	}
	fmt.Fprintf(&b, "Reporting currency: %s\n\n", r.Currency)

	if len(r.Summaries) == 0 {
		fmt.Fprint(&b, "No realized gains or losses.\n\n")
	}
	for _, year := range r.Years() {
		fmt.Fprintf(&b, "## %d\n\n", year)
		fmt.Fprintln(&b, "| Category | Schedule | Events | Gains | Losses | Tax Free | Exemption | Carried In | Deducted | Net | Carried Out |")
		fmt.Fprintln(&b, "|:---|:---|---:|---:|---:|---:|---:|---:|---:|---:|---:|")
		for _, s := range r.Summaries {
			if s.Year != year {
				continue
			}
			fmt.Fprintf(&b, "| %s | %s | %d | %s | %s | %s | %s | %s | %s | %s | %s |\n",
				s.Category,
				s.Category.Schedule(),
				s.Events,
				s.Gains,
				s.Losses,
				s.TaxFree.SignedString(),
				s.Exemption,
				s.CarriedIn,
				s.Deductible,
				s.Net.SignedString(),
				s.CarriedOut,
			)
		}
		fmt.Fprintf(&b, "| **Total** | | | | | | | | | **%s** | |\n\n", r.Total(year).SignedString())
	}

	ConditionalBlock(&b, func(w io.Writer) bool {
		fmt.Fprint(w, "## Loss Carryforward\n\n")
		fmt.Fprintln(w, "| Category | Amount |")
		fmt.Fprintln(w, "|:---|---:|")
		n := 0
		for _, category := range taxlots.Categories {
			if amount := r.Carryforward.Get(category); !amount.IsZero() {
				fmt.Fprintf(w, "| %s | %s |\n", category, amount)
				n++
			}
		}
		fmt.Fprintln(w)
		return n > 0
	})

	ConditionalBlock(&b, func(w io.Writer) bool {
		fmt.Fprint(w, "## Open Lots\n\n")
		fmt.Fprint(w, OpenMarkdown(r.Open))
		return len(r.Open) > 0
	})

	return b.String()
}

// OpenMarkdown renders open lots as a table, oldest first for each security.
func OpenMarkdown(lots []taxlots.Lot) string {
	var b strings.Builder
	fmt.Fprintln(&b, "| Security | Class | Opened | Quantity | Cost | Unit Cost | Cost (converted) |")
	fmt.Fprintln(&b, "|:---|:---|:---|---:|---:|---:|---:|")
	for _, lot := range lots {
		fmt.Fprintf(&b, "| %s | %s | %s | %s | %s | %s | %s |\n",
			lot.Security,
			lot.Class,
			lot.Date,
			lot.Quantity,
			lot.Value,
			lot.UnitCost(),
			lot.Reporting,
		)
	}
	fmt.Fprintln(&b)
	return b.String()
}
