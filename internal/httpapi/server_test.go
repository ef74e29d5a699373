package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"banana_bot/internal/config"
	"banana_bot/internal/model"
)

type fakeState struct{ st model.EngineState }

func (f fakeState) State() model.EngineState { return f.st }

type fakeHistory struct {
	account string
	limit   int
}

func (f *fakeHistory) ListActions(_ context.Context, account string, limit int) ([]model.ActionRecord, error) {
	f.account, f.limit = account, limit
	return []model.ActionRecord{{Account: account, Action: "click", OK: true}}, nil
}

func (f *fakeHistory) ListPrizes(_ context.Context, account string, limit int) ([]model.PrizeRecord, error) {
	f.account, f.limit = account, limit
	return nil, nil
}

func (f *fakeHistory) PrizeCounts(context.Context, string) (map[string]int, error) {
	return map[string]int{"Rare": 2}, nil
}

func newTestServer(h History) http.Handler {
	return New(Options{
		Cfg:     config.ServerConfig{Cors: config.CorsConfig{AllowOrigins: []string{"http://localhost:5173"}}},
		Engine:  fakeState{st: model.EngineState{RunID: "run-1", Workers: []model.WorkerState{{Account: "alice", Phase: model.PhaseScheduled}}}},
		History: h,
	}).Handler()
}

func TestWorkers(t *testing.T) {
	rec := httptest.NewRecorder()
	newTestServer(nil).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/workers", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var body struct {
		Data model.EngineState `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if body.Data.RunID != "run-1" || len(body.Data.Workers) != 1 || body.Data.Workers[0].Phase != model.PhaseScheduled {
		t.Fatalf("body = %+v", body.Data)
	}
}

func TestWorkers_RejectsWrites(t *testing.T) {
	rec := httptest.NewRecorder()
	newTestServer(nil).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/workers", nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestActions_Query(t *testing.T) {
	h := &fakeHistory{}
	rec := httptest.NewRecorder()
	newTestServer(h).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/actions?account=alice&limit=5", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	if h.account != "alice" || h.limit != 5 {
		t.Fatalf("query = %q %d", h.account, h.limit)
	}

	rec = httptest.NewRecorder()
	newTestServer(h).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/actions?limit=abc", nil))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("bad limit: status = %d", rec.Code)
	}
}

func TestPrizes_EmptyListIsArray(t *testing.T) {
	rec := httptest.NewRecorder()
	newTestServer(&fakeHistory{}).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/prizes", nil))
	var body struct {
		Data   []model.PrizeRecord `json:"data"`
		Counts map[string]int      `json:"counts"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if body.Data == nil || body.Counts["Rare"] != 2 {
		t.Fatalf("body = %+v", body)
	}
}

func TestHistoryDisabled(t *testing.T) {
	rec := httptest.NewRecorder()
	newTestServer(nil).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/prizes", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestCORS(t *testing.T) {
	req := httptest.NewRequest(http.MethodOptions, "/api/v1/workers", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	rec := httptest.NewRecorder()
	newTestServer(nil).ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d", rec.Code)
	}
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:5173" {
		t.Fatalf("allow origin = %q", got)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/v1/workers", nil)
	req.Header.Set("Origin", "http://evil.example")
	rec = httptest.NewRecorder()
	newTestServer(nil).ServeHTTP(rec, req)
	if rec.Header().Get("Access-Control-Allow-Origin") != "" {
		t.Fatal("foreign origin allowed")
	}
}
