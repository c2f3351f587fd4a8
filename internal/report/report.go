// Package report renders a project summary from already-fetched data. It is
// a pure function of its inputs: no database access, no clock beyond the
// timestamp supplied by the caller.
package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/diewo77/impacttracker/internal/models"
)

// Input bundles the data a report needs.
type Input struct {
	Project     models.Project
	Indicators  []models.Indicator
	GeneratedAt time.Time
}

// Render produces a plain-text project report: budget usage, allocation
// table and per-indicator progress.
func Render(in Input) string {
	var b strings.Builder
	p := in.Project

	fmt.Fprintf(&b, "Rapport de projet — %s\n", p.Name)
	fmt.Fprintf(&b, "Généré le %s\n\n", in.GeneratedAt.Format("2006-01-02 15:04"))
	fmt.Fprintf(&b, "Statut: %s\n", p.Status)
	fmt.Fprintf(&b, "Budget: %.2f EUR\n", p.Budget)
	fmt.Fprintf(&b, "Dépensé: %.2f EUR", p.Spent)
	if p.Budget > 0 && p.Spent > p.Budget {
		b.WriteString(" (dépassement de budget)")
	}
	b.WriteString("\n\n")

	if len(p.Donors) > 0 {
		b.WriteString("Financements par donateur\n")
		for _, d := range p.Donors {
			fmt.Fprintf(&b, "  donateur %d: engagé %.2f, dépensé %.2f\n", d.UserID, d.CommittedAmount, d.SpentAmount)
		}
		fmt.Fprintf(&b, "  total engagé %.2f, total dépensé %.2f\n\n", p.DonorCommittedTotal(), p.DonorSpentTotal())
	}

	if len(in.Indicators) > 0 {
		b.WriteString("Indicateurs\n")
		var sum float64
		for i := range in.Indicators {
			ind := &in.Indicators[i]
			fmt.Fprintf(&b, "  %s: %.2f / %.2f %s (%.0f%%)\n", ind.Name, ind.CurrentValue, ind.TargetValue, ind.Unit, ind.Progress())
			sum += ind.Progress()
		}
		fmt.Fprintf(&b, "  progression moyenne: %.0f%%\n", sum/float64(len(in.Indicators)))
	}
	return b.String()
}
