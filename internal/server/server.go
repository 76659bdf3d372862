package server

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"os"
	"sort"
	"time"

	"github.com/TechieTojin/Summer-Analytics--Capstone-Project/internal/domain"
	"github.com/TechieTojin/Summer-Analytics--Capstone-Project/internal/observability"
	"github.com/TechieTojin/Summer-Analytics--Capstone-Project/internal/storage"
)

// Options configures the API server.
type Options struct {
	AggregateStore storage.AggregateStore
	LatestPrices   storage.LatestPriceStore
	Hub            *Hub
	Logger         *log.Logger
}

// Server serves aggregate and latest-price data over HTTP and WebSocket.
type Server struct {
	aggregateStore storage.AggregateStore
	latestPrices   storage.LatestPriceStore
	hub            *Hub
	logger         *log.Logger
	started        time.Time
}

// New creates an API server. Hub and LatestPrices are optional; the
// corresponding endpoints return 404 / 503 when absent.
func New(opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = log.New(os.Stdout, "[api] ", log.LstdFlags|log.Lshortfile)
	}
	return &Server{
		aggregateStore: opts.AggregateStore,
		latestPrices:   opts.LatestPrices,
		hub:            opts.Hub,
		logger:         logger,
		started:        time.Now(),
	}
}

// Handler builds the route table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	mux.Handle("GET /metrics", observability.Handler())

	mux.HandleFunc("GET /api/aggregates", s.handleAggregates)
	mux.HandleFunc("GET /api/lots/{lot}/latest", s.handleLatestPrice)
	mux.HandleFunc("GET /status", s.handleStatus)

	if s.hub != nil {
		mux.Handle("GET /ws", s.hub)
	}

	return mux
}

// ListenAndServe runs the server until the listener fails.
func (s *Server) ListenAndServe(addr string) error {
	s.logger.Printf("Starting HTTP server on %s", addr)
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	err := srv.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// handleAggregates returns closed daily windows as a JSON array ordered by
// window end then lot. An optional ?lot= query restricts to one lot.
func (s *Server) handleAggregates(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	lot := r.URL.Query().Get("lot")

	var (
		aggs []*domain.WindowAggregate
		err  error
	)
	if lot != "" {
		aggs, err = s.aggregateStore.GetByLot(ctx, lot)
	} else {
		aggs, err = s.aggregateStore.GetAll(ctx)
	}
	if err != nil {
		s.logger.Printf("Failed to load aggregates: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to load aggregates")
		return
	}

	sort.Slice(aggs, func(i, j int) bool {
		if !aggs[i].WindowEnd.Equal(aggs[j].WindowEnd) {
			return aggs[i].WindowEnd.Before(aggs[j].WindowEnd)
		}
		return aggs[i].Lot < aggs[j].Lot
	})

	writeJSON(w, http.StatusOK, aggs)
}

// handleLatestPrice returns the most recent dynamic price for one lot.
func (s *Server) handleLatestPrice(w http.ResponseWriter, r *http.Request) {
	if s.latestPrices == nil {
		writeError(w, http.StatusServiceUnavailable, "latest price cache not configured")
		return
	}

	lot := r.PathValue("lot")
	latest, err := s.latestPrices.Get(r.Context(), lot)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, http.StatusNotFound, "no price recorded for lot")
			return
		}
		s.logger.Printf("Failed to load latest price for %s: %v", lot, err)
		writeError(w, http.StatusInternalServerError, "failed to load latest price")
		return
	}

	writeJSON(w, http.StatusOK, latest)
}

// StatusResponse is the JSON response for the /status endpoint.
type StatusResponse struct {
	Status        string `json:"status"`
	Uptime        string `json:"uptime"`
	WSSubscribers int    `json:"ws_subscribers"`
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	resp := StatusResponse{
		Status: "running",
		Uptime: time.Since(s.started).String(),
	}
	if s.hub != nil {
		resp.WSSubscribers = s.hub.SubscriberCount()
	}
	writeJSON(w, http.StatusOK, resp)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
