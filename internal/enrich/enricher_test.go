package enrich

import (
	"testing"
	"time"

	"github.com/TechieTojin/Summer-Analytics--Capstone-Project/internal/domain"
)

func TestEnrich_ParsesEventTimeAndDay(t *testing.T) {
	enricher := New(DefaultWeights())

	enriched, err := enricher.Enrich(&domain.Observation{
		SystemCodeNumber:       "BHMBCCMKT01",
		VehicleType:            "car",
		TrafficConditionNearby: "low",
		Timestamp:              "2016-10-04 08:59:00",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	wantTime := time.Date(2016, 10, 4, 8, 59, 0, 0, time.UTC)
	if !enriched.EventTime.Equal(wantTime) {
		t.Errorf("expected event time %v, got %v", wantTime, enriched.EventTime)
	}
	wantDay := time.Date(2016, 10, 4, 0, 0, 0, 0, time.UTC)
	if !enriched.Day.Equal(wantDay) {
		t.Errorf("expected day %v, got %v", wantDay, enriched.Day)
	}
}

func TestEnrich_MidnightBelongsToItsOwnDay(t *testing.T) {
	enricher := New(DefaultWeights())

	enriched, err := enricher.Enrich(&domain.Observation{
		Timestamp: "2016-10-05 00:00:00",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	wantDay := time.Date(2016, 10, 5, 0, 0, 0, 0, time.UTC)
	if !enriched.Day.Equal(wantDay) {
		t.Errorf("expected day %v, got %v", wantDay, enriched.Day)
	}
}

func TestEnrich_InvalidTimestamp(t *testing.T) {
	enricher := New(DefaultWeights())

	for _, ts := range []string{"", "04-10-2016 08:59:00", "2016-10-04T08:59:00Z", "not a time"} {
		if _, err := enricher.Enrich(&domain.Observation{Timestamp: ts}); err == nil {
			t.Errorf("timestamp %q: expected error, got nil", ts)
		}
	}
}

func TestWeights_KnownCategories(t *testing.T) {
	w := DefaultWeights()

	cases := []struct {
		vehicle string
		want    float64
	}{
		{"car", 1.0},
		{"bike", 0.5},
		{"truck", 1.5},
	}
	for _, c := range cases {
		if got := w.VehicleWeight(c.vehicle); got != c.want {
			t.Errorf("vehicle %q: expected %.1f, got %.1f", c.vehicle, c.want, got)
		}
	}

	traffic := []struct {
		condition string
		want      float64
	}{
		{"low", 0.5},
		{"medium", 1.0},
		{"high", 1.5},
	}
	for _, c := range traffic {
		if got := w.TrafficWeight(c.condition); got != c.want {
			t.Errorf("traffic %q: expected %.1f, got %.1f", c.condition, c.want, got)
		}
	}
}

func TestWeights_UnknownCategoriesFallBackToDefault(t *testing.T) {
	w := DefaultWeights()

	// "scooter" appears in the dataset but has no configured weight.
	if got := w.VehicleWeight("scooter"); got != 1.0 {
		t.Errorf("scooter: expected default 1.0, got %.1f", got)
	}
	if got := w.VehicleWeight("hovercraft"); got != 1.0 {
		t.Errorf("unknown vehicle: expected default 1.0, got %.1f", got)
	}
	if got := w.TrafficWeight("gridlock"); got != 1.0 {
		t.Errorf("unknown traffic: expected default 1.0, got %.1f", got)
	}
}

func TestEnrich_AttachesWeights(t *testing.T) {
	enricher := New(DefaultWeights())

	enriched, err := enricher.Enrich(&domain.Observation{
		VehicleType:            "truck",
		TrafficConditionNearby: "high",
		Timestamp:              "2016-10-04 12:00:00",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if enriched.VehicleWeight != 1.5 {
		t.Errorf("expected vehicle weight 1.5, got %.1f", enriched.VehicleWeight)
	}
	if enriched.TrafficWeight != 1.5 {
		t.Errorf("expected traffic weight 1.5, got %.1f", enriched.TrafficWeight)
	}
}
