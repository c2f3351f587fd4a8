package report

import (
	"strings"
	"testing"
	"time"

	"github.com/diewo77/impacttracker/internal/models"
)

func TestRenderFullReport(t *testing.T) {
	in := Input{
		Project: models.Project{
			Name:   "Accès à l'eau potable",
			Status: models.ProjectStatusEnCours,
			Budget: 50000,
			Spent:  5000,
			Donors: []models.DonorAllocation{
				{UserID: 4, CommittedAmount: 20000, SpentAmount: 5000},
			},
		},
		Indicators: []models.Indicator{
			{Name: "Forages réalisés", Unit: "forages", TargetValue: 10, CurrentValue: 3},
		},
		GeneratedAt: time.Date(2026, 3, 1, 10, 30, 0, 0, time.UTC),
	}

	out := Render(in)
	for _, want := range []string{
		"Rapport de projet — Accès à l'eau potable",
		"Généré le 2026-03-01 10:30",
		"Budget: 50000.00 EUR",
		"Dépensé: 5000.00 EUR",
		"donateur 4: engagé 20000.00, dépensé 5000.00",
		"Forages réalisés: 3.00 / 10.00 forages (30%)",
		"progression moyenne: 30%",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("report missing %q\n%s", want, out)
		}
	}
	if strings.Contains(out, "dépassement de budget") {
		t.Errorf("unexpected overspend marker\n%s", out)
	}
}

func TestRenderFlagsOverspend(t *testing.T) {
	out := Render(Input{
		Project:     models.Project{Name: "P", Budget: 1000, Spent: 1500},
		GeneratedAt: time.Now(),
	})
	if !strings.Contains(out, "dépassement de budget") {
		t.Errorf("expected overspend marker\n%s", out)
	}
}

func TestRenderWithoutIndicatorsOrDonors(t *testing.T) {
	out := Render(Input{
		Project:     models.Project{Name: "P", Budget: 1000},
		GeneratedAt: time.Now(),
	})
	if strings.Contains(out, "Indicateurs") || strings.Contains(out, "Financements") {
		t.Errorf("sections should be omitted when empty\n%s", out)
	}
}
