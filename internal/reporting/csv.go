package reporting

import (
	"fmt"
	"strings"
	"time"

	"github.com/TechieTojin/Summer-Analytics--Capstone-Project/internal/domain"
)

// RenderCSV renders the aggregate series as CSV. Rows are expected to be
// pre-sorted by ts; the plotting consumer reads them in order.
func RenderCSV(aggregates []*domain.WindowAggregate) string {
	var sb strings.Builder

	sb.WriteString("ts,lot,avg_price,count\n")

	for _, a := range aggregates {
		sb.WriteString(fmt.Sprintf("%s,%s,%.2f,%d\n",
			a.WindowEnd.Format(time.RFC3339),
			a.Lot,
			a.AvgPrice,
			a.Count,
		))
	}

	return sb.String()
}
