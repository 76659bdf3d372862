package reporting

import (
	"fmt"
	"strings"
	"time"
)

// RenderMarkdown renders the report as a Markdown string.
func RenderMarkdown(r *Report) string {
	var sb strings.Builder

	sb.WriteString("# Daily Average Dynamic Price Report\n\n")
	sb.WriteString(fmt.Sprintf("Generated: %s\n\n", r.GeneratedAt.Format(time.RFC3339)))
	sb.WriteString(fmt.Sprintf("Lots: %d | Daily aggregates: %d\n\n", len(r.LotSummary), len(r.Aggregates)))

	sb.WriteString("## Per-Lot Summary\n\n")
	sb.WriteString("| Lot | Days | Observations | Min Avg | Mean Avg | Max Avg |\n")
	sb.WriteString("|-----|------|--------------|---------|----------|--------|\n")
	for _, s := range r.LotSummary {
		sb.WriteString(fmt.Sprintf("| %s | %d | %d | %.2f | %.2f | %.2f |\n",
			s.Lot, s.Days, s.Observations, s.MinAvgPrice, s.MeanAvgPrice, s.MaxAvgPrice))
	}
	sb.WriteString("\n")

	sb.WriteString("## Daily Series\n\n")
	sb.WriteString("| Window End | Lot | Avg Price | Count |\n")
	sb.WriteString("|------------|-----|-----------|-------|\n")
	for _, a := range r.Aggregates {
		sb.WriteString(fmt.Sprintf("| %s | %s | %.2f | %d |\n",
			a.WindowEnd.Format("2006-01-02 15:04"), a.Lot, a.AvgPrice, a.Count))
	}

	return sb.String()
}
