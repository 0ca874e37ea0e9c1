package admin

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"threatsim/internal/config"
	"threatsim/internal/enemy"
	"threatsim/internal/scenario"
	"threatsim/internal/sim"
	"threatsim/internal/telemetry"
)

type nopWriter struct{}

func (nopWriter) WriteThreat(telemetry.ThreatRow) error { return nil }

func newTestServer(t *testing.T) (*Server, *sim.Simulator) {
	t.Helper()
	cfg := config.Default()
	cfg.Simulation.RadarDropout = 0
	sc := &scenario.Scenario{
		Name:     "test",
		Observer: scenario.Observer{X: 400, Y: 300},
		Bots: []scenario.Bot{
			{Name: "near", Behavior: enemy.BehaviorStationary, X: 450, Y: 300},
			{Name: "far", Behavior: enemy.BehaviorStationary, X: 100, Y: 300},
		},
	}
	if err := sc.Validate(); err != nil {
		t.Fatalf("scenario: %v", err)
	}
	s := sim.NewSimulator("battle-1", &cfg, sc, nopWriter{}, time.Millisecond)
	s.Step(context.Background())
	return NewServer(s, nil, nil), s
}

func get(t *testing.T, h http.Handler, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestHandleThreats(t *testing.T) {
	srv, _ := newTestServer(t)
	w := get(t, srv.Handler(), "/threats")
	if w.Code != http.StatusOK {
		t.Fatalf("expected status OK, got %v", w.Code)
	}
	var rows []telemetry.ThreatRow
	if err := json.NewDecoder(w.Body).Decode(&rows); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 threats, got %+v", rows)
	}
}

func TestHandleThreat(t *testing.T) {
	srv, _ := newTestServer(t)
	h := srv.Handler()

	w := get(t, h, "/threats/near")
	if w.Code != http.StatusOK {
		t.Fatalf("expected status OK, got %v", w.Code)
	}
	var row telemetry.ThreatRow
	if err := json.NewDecoder(w.Body).Decode(&row); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if row.Enemy != "near" || row.Distance != 50 {
		t.Fatalf("unexpected row %+v", row)
	}

	if w := get(t, h, "/threats/ghost"); w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown enemy, got %v", w.Code)
	}
}

func TestHandleNearest(t *testing.T) {
	srv, _ := newTestServer(t)
	h := srv.Handler()

	tests := []struct {
		name   string
		target string
		status int
		first  string
		count  int
	}{
		{"default origin", "/threats/nearest?k=1", http.StatusOK, "near", 1},
		{"explicit point", "/threats/nearest?x=90&y=300&k=2", http.StatusOK, "far", 2},
		{"bad k", "/threats/nearest?k=zero", http.StatusBadRequest, "", 0},
		{"bad x", "/threats/nearest?x=left", http.StatusBadRequest, "", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := get(t, h, tt.target)
			if w.Code != tt.status {
				t.Fatalf("expected %d, got %d", tt.status, w.Code)
			}
			if tt.status != http.StatusOK {
				return
			}
			var rows []telemetry.ThreatRow
			if err := json.NewDecoder(w.Body).Decode(&rows); err != nil {
				t.Fatalf("decode error: %v", err)
			}
			if len(rows) != tt.count || rows[0].Enemy != tt.first {
				t.Fatalf("unexpected rows %+v", rows)
			}
		})
	}
}

func TestHandleWithin(t *testing.T) {
	srv, _ := newTestServer(t)
	h := srv.Handler()

	tests := []struct {
		name   string
		target string
		status int
		want   []string
	}{
		{"around observer", "/threats/within?r=60", http.StatusOK, []string{"near"}},
		{"everything", "/threats/within?x=400&y=300&r=1000", http.StatusOK, []string{"near", "far"}},
		{"nothing", "/threats/within?x=800&y=0&r=10", http.StatusOK, nil},
		{"missing r", "/threats/within", http.StatusBadRequest, nil},
		{"negative r", "/threats/within?r=-1", http.StatusBadRequest, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := get(t, h, tt.target)
			if w.Code != tt.status {
				t.Fatalf("expected %d, got %d", tt.status, w.Code)
			}
			if tt.status != http.StatusOK {
				return
			}
			var rows []telemetry.ThreatRow
			if err := json.NewDecoder(w.Body).Decode(&rows); err != nil {
				t.Fatalf("decode error: %v", err)
			}
			if len(rows) != len(tt.want) {
				t.Fatalf("got %+v, want %v", rows, tt.want)
			}
			for i, name := range tt.want {
				if rows[i].Enemy != name {
					t.Fatalf("row %d = %s, want %s", i, rows[i].Enemy, name)
				}
			}
		})
	}
}

func TestHandleStateAndIndex(t *testing.T) {
	srv, _ := newTestServer(t)
	h := srv.Handler()

	w := get(t, h, "/state")
	var st telemetry.BattleStateRow
	if err := json.NewDecoder(w.Body).Decode(&st); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if st.BattleID != "battle-1" || st.Tracked != 2 {
		t.Fatalf("unexpected state %+v", st)
	}

	w = get(t, h, "/")
	if w.Code != http.StatusOK {
		t.Fatalf("expected status OK, got %v", w.Code)
	}
	body := w.Body.String()
	if !strings.Contains(body, "battle-1") || !strings.Contains(body, "<td>near</td>") {
		t.Fatalf("index missing battle data:\n%s", body)
	}
}

func TestHandleRetire(t *testing.T) {
	srv, s := newTestServer(t)
	h := srv.Handler()

	req := httptest.NewRequest(http.MethodPost, "/threats/near/retire", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	if w.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %v", w.Code)
	}
	s.Step(context.Background())
	if _, ok := s.Threat("near"); ok {
		t.Fatalf("retired enemy still reported")
	}

	req = httptest.NewRequest(http.MethodPost, "/threats/ghost/retire", nil)
	w = httptest.NewRecorder()
	h.ServeHTTP(w, req)
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %v", w.Code)
	}
}

func TestAccessLog(t *testing.T) {
	_, s := newTestServer(t)
	var buf bytes.Buffer
	srv := NewServer(s, &buf, nil)
	get(t, srv.Handler(), "/state")
	if !strings.Contains(buf.String(), "GET /state") {
		t.Fatalf("expected access log line, got %q", buf.String())
	}
}

func TestStream(t *testing.T) {
	srv, s := newTestServer(t)
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	c, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer c.Close()

	type frame struct {
		Type string                `json:"type"`
		Data []telemetry.ThreatRow `json:"data"`
	}
	got := make(chan frame, 1)
	go func() {
		var f frame
		if err := c.ReadJSON(&f); err == nil {
			got <- f
		}
	}()

	// The handler subscribes after the handshake, so keep ticking until a
	// frame arrives.
	deadline := time.After(2 * time.Second)
	for {
		s.Step(context.Background())
		select {
		case f := <-got:
			if f.Type != "threats" || len(f.Data) != 2 {
				t.Fatalf("unexpected frame %+v", f)
			}
			return
		case <-deadline:
			t.Fatalf("no frame received")
		case <-time.After(10 * time.Millisecond):
		}
	}
}
