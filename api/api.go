// Package api exposes the store over HTTP: raw feed passthrough, a
// WebSocket push channel, speed statistics, schedule reload and
// metrics.
package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/cK0nrad/tec-fetcher/store"
)

type Server struct {
	log   *zap.Logger
	store *store.Store

	upgrader websocket.Upgrader

	// pushInterval is the cadence of WebSocket snapshot pushes.
	pushInterval time.Duration
}

func New(log *zap.Logger, st *store.Store) *Server {
	return &Server{
		log:   log,
		store: st,
		upgrader: websocket.Upgrader{
			// Cross-origin browsers are the main consumer.
			CheckOrigin: func(*http.Request) bool { return true },
		},
		pushInterval: 5 * time.Second,
	}
}

// Handler builds the route table.
func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/", s.hello).Methods(http.MethodGet)
	r.HandleFunc("/raw", s.raw).Methods(http.MethodGet)
	r.HandleFunc("/ws", s.websocket)
	r.HandleFunc("/refresh_gtfs", s.refreshSchedule).Methods(http.MethodGet)
	r.HandleFunc("/avg_speed", s.avgSpeed).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
	r.Use(cors)
	return r
}

// ListenAndServe blocks serving the API on addr.
func (s *Server) ListenAndServe(addr string) error {
	s.log.Info("serving", zap.String("addr", addr))
	return http.ListenAndServe(addr, s.Handler())
}

func cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS, PUT")
		w.Header().Set("Access-Control-Allow-Headers", "*")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) hello(w http.ResponseWriter, _ *http.Request) {
	w.Write([]byte("Hello, World!"))
}

func (s *Server) raw(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/octet-stream")
	w.Write(s.store.RawData())
}

// websocket pushes the current snapshot as one binary frame: once on
// connect, then every push interval. A failed send ends the
// subscription.
func (s *Server) websocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	ticker := time.NewTicker(s.pushInterval)
	defer ticker.Stop()

	for {
		if err := conn.WriteMessage(websocket.BinaryMessage, s.store.RetrieveJSON()); err != nil {
			return
		}
		<-ticker.C
	}
}

func (s *Server) refreshSchedule(w http.ResponseWriter, r *http.Request) {
	if err := s.store.RefreshSchedule(r.URL.Query().Get("secret")); err != nil {
		http.Error(w, "Internal error", http.StatusInternalServerError)
		return
	}
	w.Write([]byte("OK"))
}

func (s *Server) avgSpeed(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(s.store.Speeds().Snapshot()); err != nil {
		s.log.Warn("encoding speed stats failed", zap.Error(err))
	}
}
