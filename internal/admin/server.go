// Package admin serves a small HTTP surface over a running battle: an HTML
// summary, JSON views of the threat picture and a websocket tick stream.
package admin

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"html/template"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"threatsim/internal/geom"
	"threatsim/internal/sim"
	"threatsim/internal/telemetry"
)

//go:embed templates/index.html
var content embed.FS

const defaultNearest = 3

// Server exposes one simulator over HTTP.
type Server struct {
	Sim       *sim.Simulator
	tpl       *template.Template
	accessLog io.Writer
	log       *slog.Logger
	upgrader  websocket.Upgrader
}

// NewServer wraps a simulator. Access logs go to accessLog in combined log
// format; a nil writer disables them.
func NewServer(s *sim.Simulator, accessLog io.Writer, log *slog.Logger) *Server {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	tpl := template.Must(template.New("index.html").ParseFS(content, "templates/index.html"))
	return &Server{
		Sim:       s,
		tpl:       tpl,
		accessLog: accessLog,
		log:       log,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// Handler returns the routed handler.
func (s *Server) Handler() http.Handler {
	router := mux.NewRouter()
	router.HandleFunc("/", s.handleIndex).Methods(http.MethodGet)
	router.HandleFunc("/threats", s.handleThreats).Methods(http.MethodGet)
	router.HandleFunc("/threats/nearest", s.handleNearest).Methods(http.MethodGet)
	router.HandleFunc("/threats/within", s.handleWithin).Methods(http.MethodGet)
	router.HandleFunc("/threats/{name}", s.handleThreat).Methods(http.MethodGet)
	router.HandleFunc("/threats/{name}/retire", s.handleRetire).Methods(http.MethodPost)
	router.HandleFunc("/state", s.handleState).Methods(http.MethodGet)
	router.HandleFunc("/ws", s.handleStream).Methods(http.MethodGet)

	var h http.Handler = router
	if s.accessLog != nil {
		h = handlers.CombinedLoggingHandler(s.accessLog, h)
	}
	return handlers.CORS(handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost}))(h)
}

// Start serves on addr until ctx is cancelled.
func (s *Server) Start(ctx context.Context, addr string) error {
	srv := &http.Server{Addr: addr, Handler: s.Handler(), ReadHeaderTimeout: 5 * time.Second}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()
	s.log.Info("admin server listening", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	data := struct {
		BattleID string
		Scenario string
		State    telemetry.BattleStateRow
		Threats  []telemetry.ThreatRow
	}{
		BattleID: s.Sim.BattleID(),
		Scenario: s.Sim.Scenario().Name,
		State:    s.Sim.State(),
		Threats:  s.Sim.Threats(),
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.tpl.Execute(w, data); err != nil {
		s.log.Error("render index", "err", err)
	}
}

func (s *Server) handleThreats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.Sim.Threats())
}

func (s *Server) handleThreat(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	row, ok := s.Sim.Threat(name)
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "unknown enemy " + name})
		return
	}
	writeJSON(w, http.StatusOK, row)
}

func (s *Server) handleNearest(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	obs := s.Sim.Observer()
	x, err := floatParam(q.Get("x"), obs[0])
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "bad x: " + err.Error()})
		return
	}
	y, err := floatParam(q.Get("y"), obs[1])
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "bad y: " + err.Error()})
		return
	}
	k := defaultNearest
	if ks := q.Get("k"); ks != "" {
		k, err = strconv.Atoi(ks)
		if err != nil || k <= 0 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "k must be a positive integer"})
			return
		}
	}
	rows := s.Sim.NearestThreats(geom.V(x, y), k)
	if rows == nil {
		rows = []telemetry.ThreatRow{}
	}
	writeJSON(w, http.StatusOK, rows)
}

func (s *Server) handleWithin(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	obs := s.Sim.Observer()
	x, err := floatParam(q.Get("x"), obs[0])
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "bad x: " + err.Error()})
		return
	}
	y, err := floatParam(q.Get("y"), obs[1])
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "bad y: " + err.Error()})
		return
	}
	radius, err := strconv.ParseFloat(q.Get("r"), 64)
	if err != nil || radius < 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "r must be a non-negative number"})
		return
	}
	rows := s.Sim.ThreatsWithin(geom.V(x, y), radius)
	if rows == nil {
		rows = []telemetry.ThreatRow{}
	}
	writeJSON(w, http.StatusOK, rows)
}

func floatParam(s string, def float64) (float64, error) {
	if s == "" {
		return def, nil
	}
	return strconv.ParseFloat(s, 64)
}

func (s *Server) handleRetire(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	if !s.Sim.Retire(name) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "unknown enemy " + name})
		return
	}
	s.log.Info("retirement requested", "enemy", name)
	w.WriteHeader(http.StatusAccepted)
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.Sim.State())
}

// handleStream pushes every tick's threat rows as a JSON text frame until
// the client goes away.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	c, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("websocket upgrade failed", "err", err)
		return
	}
	defer c.Close()

	updates, unsubscribe := s.Sim.Subscribe()
	defer unsubscribe()

	// Reads are required to notice a client-side close.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := c.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-closed:
			return
		case <-r.Context().Done():
			return
		case rows, ok := <-updates:
			if !ok {
				return
			}
			msg := struct {
				Type string                `json:"type"`
				Data []telemetry.ThreatRow `json:"data"`
			}{Type: "threats", Data: rows}
			_ = c.SetWriteDeadline(time.Now().Add(5 * time.Second))
			if err := c.WriteJSON(msg); err != nil {
				s.log.Debug("websocket write failed", "err", err)
				return
			}
		}
	}
}
