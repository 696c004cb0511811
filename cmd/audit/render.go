package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"guardian-audit/internal/domain/models"
)

// writeText renders a report as aligned plain text with localized labels
func writeText(w io.Writer, report *models.ScanReport, p models.Presentation) error {
	d := report.Device
	fmt.Fprintf(w, "Scan %s (%s, %s policy)\n", report.ID, report.Mode, report.Policy)
	fmt.Fprintf(w, "Device: %s %s, SDK %d, patch %s\n\n", d.Manufacturer, d.Model, d.SDKLevel, d.SecurityPatch)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, risk := range models.AllRisks {
		fmt.Fprintf(tw, "%s\t%d\n", p.RiskLabel(risk), report.Summary.ByRisk[risk])
	}
	if report.Summary.FailedPackages > 0 {
		fmt.Fprintf(tw, "failed\t%d\n", report.Summary.FailedPackages)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if len(report.Apps) > 0 {
		fmt.Fprintln(w)
		tw = tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "SCORE\tRISK\tPACKAGE\tSOURCE\tFINDINGS")
		for _, app := range report.Apps {
			fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%d\n",
				app.RiskScore, p.RiskLabel(app.Risk), app.PackageName,
				p.InstallSourceLabel(app.InstallSource), len(app.Findings))
		}
		if err := tw.Flush(); err != nil {
			return err
		}
	}

	if len(report.DeviceFindings) > 0 {
		fmt.Fprintf(w, "\nDevice findings (weight %d):\n", report.Summary.DeviceWeight)
		for _, f := range report.DeviceFindings {
			fmt.Fprintf(w, "  [%d] %s\n", f.Weight, f.Title)
		}
	}
	return nil
}
