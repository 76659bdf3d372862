package server

import (
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/TechieTojin/Summer-Analytics--Capstone-Project/internal/domain"
	"github.com/TechieTojin/Summer-Analytics--Capstone-Project/internal/storage/memory"
)

func testServer(t *testing.T) (*Server, *memory.AggregateStore, *memory.LatestPriceStore) {
	t.Helper()
	aggregateStore := memory.NewAggregateStore()
	latestPrices := memory.NewLatestPriceStore()
	srv := New(Options{
		AggregateStore: aggregateStore,
		LatestPrices:   latestPrices,
		Hub:            NewHub(log.New(io.Discard, "", 0)),
		Logger:         log.New(io.Discard, "", 0),
	})
	return srv, aggregateStore, latestPrices
}

func seedAggregate(t *testing.T, store *memory.AggregateStore, lot string, day int, price float64, count int) {
	t.Helper()
	err := store.Insert(context.Background(), &domain.WindowAggregate{
		WindowEnd: time.Date(2016, 10, day, 0, 0, 0, 0, time.UTC),
		Lot:       lot,
		AvgPrice:  price,
		Count:     count,
	})
	if err != nil {
		t.Fatalf("seed aggregate: %v", err)
	}
}

func TestHandleAggregates_SortedJSON(t *testing.T) {
	srv, store, _ := testServer(t)
	seedAggregate(t, store, "lot-B", 5, 12.00, 7)
	seedAggregate(t, store, "lot-A", 6, 11.50, 10)
	seedAggregate(t, store, "lot-A", 5, 10.25, 18)

	req := httptest.NewRequest(http.MethodGet, "/api/aggregates", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("expected application/json, got %s", ct)
	}

	var aggs []*domain.WindowAggregate
	if err := json.Unmarshal(rec.Body.Bytes(), &aggs); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(aggs) != 3 {
		t.Fatalf("expected 3 aggregates, got %d", len(aggs))
	}
	// (ts, lot) order: day5/lot-A, day5/lot-B, day6/lot-A.
	if aggs[0].Lot != "lot-A" || aggs[1].Lot != "lot-B" || aggs[2].Lot != "lot-A" {
		t.Errorf("wrong order: %s %s %s", aggs[0].Lot, aggs[1].Lot, aggs[2].Lot)
	}

	// Wire shape of one record.
	if !strings.Contains(rec.Body.String(), `"avg_price":10.25`) {
		t.Errorf("response missing avg_price field: %s", rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), `"ts":"2016-10-05T00:00:00Z"`) {
		t.Errorf("response missing ts field: %s", rec.Body.String())
	}
}

func TestHandleAggregates_LotFilter(t *testing.T) {
	srv, store, _ := testServer(t)
	seedAggregate(t, store, "lot-A", 5, 10.25, 18)
	seedAggregate(t, store, "lot-B", 5, 12.00, 7)

	req := httptest.NewRequest(http.MethodGet, "/api/aggregates?lot=lot-B", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	var aggs []*domain.WindowAggregate
	if err := json.Unmarshal(rec.Body.Bytes(), &aggs); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(aggs) != 1 || aggs[0].Lot != "lot-B" {
		t.Errorf("expected only lot-B, got %+v", aggs)
	}
}

func TestHandleLatestPrice(t *testing.T) {
	srv, _, latestPrices := testServer(t)

	err := latestPrices.Set(context.Background(), &domain.PricedObservation{
		EnrichedObservation: domain.EnrichedObservation{
			Observation: domain.Observation{SystemCodeNumber: "lot-A", Occupancy: 61, Capacity: 577, QueueLength: 1},
			EventTime:   time.Date(2016, 10, 4, 8, 0, 0, 0, time.UTC),
		},
		DynamicPrice: 11.42,
	})
	if err != nil {
		t.Fatalf("seed latest price: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/lots/lot-A/latest", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var latest domain.LatestPrice
	if err := json.Unmarshal(rec.Body.Bytes(), &latest); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if latest.Lot != "lot-A" || latest.DynamicPrice != 11.42 {
		t.Errorf("unexpected payload: %+v", latest)
	}
}

func TestHandleLatestPrice_UnknownLot(t *testing.T) {
	srv, _, _ := testServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/lots/lot-Z/latest", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}
}

func TestHealthz(t *testing.T) {
	srv, _, _ := testServer(t)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
	if rec.Body.String() != "ok" {
		t.Errorf("expected body ok, got %q", rec.Body.String())
	}
}

func TestStatus(t *testing.T) {
	srv, _, _ := testServer(t)

	req := httptest.NewRequest(http.MethodGet, "/status", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	var status StatusResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &status); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if status.Status != "running" {
		t.Errorf("expected status running, got %s", status.Status)
	}
}

func TestHub_BroadcastsPublishedAggregates(t *testing.T) {
	hub := NewHub(log.New(io.Discard, "", 0))
	defer hub.Close()

	ts := httptest.NewServer(hub)
	defer ts.Close()

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial websocket: %v", err)
	}
	defer conn.Close()

	// The subscriber registers asynchronously with the HTTP handshake.
	deadline := time.Now().Add(2 * time.Second)
	for hub.SubscriberCount() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("subscriber never registered")
		}
		time.Sleep(10 * time.Millisecond)
	}

	agg := &domain.WindowAggregate{
		WindowEnd: time.Date(2016, 10, 5, 0, 0, 0, 0, time.UTC),
		Lot:       "lot-A",
		AvgPrice:  10.25,
		Count:     18,
	}
	if err := hub.Publish(context.Background(), agg); err != nil {
		t.Fatalf("publish: %v", err)
	}

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, payload, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read message: %v", err)
	}

	var received domain.WindowAggregate
	if err := json.Unmarshal(payload, &received); err != nil {
		t.Fatalf("decode broadcast: %v", err)
	}
	if received.Lot != "lot-A" || received.AvgPrice != 10.25 {
		t.Errorf("unexpected broadcast: %+v", received)
	}
}

func TestHub_DisconnectRemovesSubscriber(t *testing.T) {
	hub := NewHub(log.New(io.Discard, "", 0))
	defer hub.Close()

	ts := httptest.NewServer(hub)
	defer ts.Close()

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial websocket: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for hub.SubscriberCount() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("subscriber never registered")
		}
		time.Sleep(10 * time.Millisecond)
	}

	conn.Close()

	deadline = time.Now().Add(2 * time.Second)
	for hub.SubscriberCount() != 0 {
		if time.Now().After(deadline) {
			t.Fatal("subscriber never removed after disconnect")
		}
		time.Sleep(10 * time.Millisecond)
	}
}
