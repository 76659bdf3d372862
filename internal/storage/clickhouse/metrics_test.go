package clickhouse

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/TechieTojin/Summer-Analytics--Capstone-Project/internal/observability"
)

func TestObserveQuery_CountsErrorsPerOperation(t *testing.T) {
	errorsBefore := testutil.ToFloat64(
		observability.DefaultMetrics.DBQueryErrors.WithLabelValues("clickhouse", "insert_priced_observations"))

	observeQuery("insert_priced_observations", time.Now(), nil)
	observeQuery("insert_priced_observations", time.Now(), errors.New("socket closed"))

	errorsDelta := testutil.ToFloat64(
		observability.DefaultMetrics.DBQueryErrors.WithLabelValues("clickhouse", "insert_priced_observations")) - errorsBefore
	if errorsDelta != 1 {
		t.Errorf("expected query_errors_total +1 for the failed operation, got +%v", errorsDelta)
	}
}
