package reporting

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/TechieTojin/Summer-Analytics--Capstone-Project/internal/domain"
	"github.com/TechieTojin/Summer-Analytics--Capstone-Project/internal/storage"
)

// Output file names.
const (
	CSVFileName      = "daily_avg_prices.csv"
	MarkdownFileName = "PRICING_REPORT.md"
)

// Generator produces reports from stored aggregates.
type Generator struct {
	aggregateStore storage.AggregateStore
	now            func() time.Time // Injectable clock for deterministic output
}

// NewGenerator creates a new report generator.
func NewGenerator(aggStore storage.AggregateStore) *Generator {
	return &Generator{
		aggregateStore: aggStore,
		now:            func() time.Time { return time.Now().UTC() },
	}
}

// WithClock sets a custom clock function for deterministic output.
func (g *Generator) WithClock(now func() time.Time) *Generator {
	g.now = now
	return g
}

// Generate builds the report from all stored aggregates.
func (g *Generator) Generate(ctx context.Context) (*Report, error) {
	aggs, err := g.aggregateStore.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("load aggregates: %w", err)
	}

	// GetAll is (window end, lot)-ordered already; keep the sort local so
	// the report does not depend on store ordering guarantees.
	sort.Slice(aggs, func(i, j int) bool {
		if !aggs[i].WindowEnd.Equal(aggs[j].WindowEnd) {
			return aggs[i].WindowEnd.Before(aggs[j].WindowEnd)
		}
		return aggs[i].Lot < aggs[j].Lot
	})

	return &Report{
		GeneratedAt: g.now(),
		Aggregates:  aggs,
		LotSummary:  summarizeLots(aggs),
	}, nil
}

// WriteFiles generates the report and writes the CSV and Markdown renders
// under outputDir, creating it if needed.
func (g *Generator) WriteFiles(ctx context.Context, outputDir string) error {
	report, err := g.Generate(ctx)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	csvPath := filepath.Join(outputDir, CSVFileName)
	if err := os.WriteFile(csvPath, []byte(RenderCSV(report.Aggregates)), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", csvPath, err)
	}

	mdPath := filepath.Join(outputDir, MarkdownFileName)
	if err := os.WriteFile(mdPath, []byte(RenderMarkdown(report)), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", mdPath, err)
	}

	return nil
}

// summarizeLots condenses the series per lot. Input must be ts-sorted.
func summarizeLots(aggs []*domain.WindowAggregate) []LotSummary {
	byLot := make(map[string]*LotSummary)
	sums := make(map[string]float64)

	for _, a := range aggs {
		s, ok := byLot[a.Lot]
		if !ok {
			s = &LotSummary{Lot: a.Lot, MinAvgPrice: a.AvgPrice, MaxAvgPrice: a.AvgPrice}
			byLot[a.Lot] = s
		}
		s.Days++
		s.Observations += a.Count
		if a.AvgPrice < s.MinAvgPrice {
			s.MinAvgPrice = a.AvgPrice
		}
		if a.AvgPrice > s.MaxAvgPrice {
			s.MaxAvgPrice = a.AvgPrice
		}
		sums[a.Lot] += a.AvgPrice
	}

	lots := make([]string, 0, len(byLot))
	for lot := range byLot {
		lots = append(lots, lot)
	}
	sort.Strings(lots)

	result := make([]LotSummary, 0, len(lots))
	for _, lot := range lots {
		s := byLot[lot]
		s.MeanAvgPrice = sums[lot] / float64(s.Days)
		result = append(result, *s)
	}
	return result
}
