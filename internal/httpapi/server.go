package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"banana_bot/internal/config"
	"banana_bot/internal/logbus"
	"banana_bot/internal/model"
	"banana_bot/internal/ws"
)

// StateSource is what the monitor reads from the running scheduler.
type StateSource interface {
	State() model.EngineState
}

// History is the read side of the run history store.
type History interface {
	ListActions(ctx context.Context, account string, limit int) ([]model.ActionRecord, error)
	ListPrizes(ctx context.Context, account string, limit int) ([]model.PrizeRecord, error)
	PrizeCounts(ctx context.Context, account string) (map[string]int, error)
}

type Options struct {
	Cfg     config.ServerConfig
	Bus     *logbus.Bus
	Engine  StateSource
	History History
}

// Server is the read-only monitor. It never changes engine state.
type Server struct {
	cfg     config.ServerConfig
	bus     *logbus.Bus
	engine  StateSource
	history History
	ws      *ws.Handler
	started time.Time
}

func New(opts Options) *Server {
	return &Server{
		cfg:     opts.Cfg,
		bus:     opts.Bus,
		engine:  opts.Engine,
		history: opts.History,
		ws:      ws.NewHandler(opts.Bus, opts.Cfg.Cors.AllowOrigins),
		started: time.Now(),
	}
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.handleHealth)
	mux.Handle("/ws", s.ws)

	api := http.NewServeMux()
	api.HandleFunc("/api/v1/workers", s.handleWorkers)
	api.HandleFunc("/api/v1/prizes", s.handlePrizes)
	api.HandleFunc("/api/v1/actions", s.handleActions)

	mux.Handle("/api/", corsMiddleware(s.cfg.Cors, api))
	return mux
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"ok":     true,
		"uptime": time.Since(s.started).Round(time.Second).String(),
	})
}

func (s *Server) handleWorkers(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if s.engine == nil {
		writeJSON(w, http.StatusOK, map[string]any{"data": model.EngineState{}})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": s.engine.State()})
}

func (s *Server) handlePrizes(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if s.history == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{"error": "history is disabled"})
		return
	}
	account, limit, err := listQuery(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": err.Error()})
		return
	}
	prizes, err := s.history.ListPrizes(r.Context(), account, limit)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]any{"error": err.Error()})
		return
	}
	counts, err := s.history.PrizeCounts(r.Context(), account)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]any{"error": err.Error()})
		return
	}
	if prizes == nil {
		prizes = []model.PrizeRecord{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": prizes, "counts": counts})
}

func (s *Server) handleActions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if s.history == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{"error": "history is disabled"})
		return
	}
	account, limit, err := listQuery(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": err.Error()})
		return
	}
	actions, err := s.history.ListActions(r.Context(), account, limit)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]any{"error": err.Error()})
		return
	}
	if actions == nil {
		actions = []model.ActionRecord{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": actions})
}

func listQuery(r *http.Request) (string, int, error) {
	q := r.URL.Query()
	limit, err := parseInt(q.Get("limit"), 100)
	if err != nil {
		return "", 0, err
	}
	return strings.TrimSpace(q.Get("account")), limit, nil
}

func parseInt(v string, def int) (int, error) {
	if strings.TrimSpace(v) == "" {
		return def, nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return 0, err
	}
	return n, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
