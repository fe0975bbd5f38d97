package main

import (
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"BattleEngine/battle"
	"BattleEngine/scenario"
)

const maxScenarioBytes = 1 << 20

// battleRecord is a simulated battle kept by the API.
type battleRecord struct {
	ID      string              `json:"id"`
	Name    string              `json:"name,omitempty"`
	Engine  string              `json:"engine"`
	Seed    uint64              `json:"seed"`
	Created time.Time           `json:"created"`
	Took    time.Duration       `json:"took"`
	Report  battle.Report       `json:"report"`
	Output  battle.BattleOutput `json:"output"`
}

// Message is the envelope of every websocket frame.
type Message struct {
	Type    string      `json:"type"`
	Round   int         `json:"round,omitempty"`
	Payload interface{} `json:"payload"`
}

type server struct {
	catalog *scenario.Catalog
	logger  *zap.Logger
	router  *mux.Router

	mu      sync.RWMutex
	battles map[string]*battleRecord
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

func newServer(catalog *scenario.Catalog, logger *zap.Logger) *server {
	s := &server{
		catalog: catalog,
		logger:  logger,
		router:  mux.NewRouter(),
		battles: make(map[string]*battleRecord),
	}
	api := s.router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	api.HandleFunc("/units", s.handleUnits).Methods(http.MethodGet)
	api.HandleFunc("/battles", s.handleCreateBattle).Methods(http.MethodPost)
	api.HandleFunc("/battles/{id}", s.handleGetBattle).Methods(http.MethodGet)
	api.HandleFunc("/battles/{id}/stream", s.handleStreamBattle).Methods(http.MethodGet)
	s.router.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	})
	s.router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "not found")
	})
	return s
}

func serve(addr string, s *server) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.logger.Info("simulator API listening", zap.String("addr", addr))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func (s *server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *server) handleUnits(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.catalog.Units())
}

func (s *server) handleCreateBattle(w http.ResponseWriter, r *http.Request) {
	var sc scenario.Scenario
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxScenarioBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&sc); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if sc.Seed == 0 {
		sc.Seed = uint64(time.Now().UnixNano())
	}

	in, err := sc.Build(s.catalog)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{
			"error":    "invalid scenario",
			"problems": scenario.Problems(err),
		})
		return
	}
	engine, err := sc.NewEngine()
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	start := time.Now()
	out := battle.NewSimulator(engine, battle.WithLogger(s.logger)).Run(in)
	rec := &battleRecord{
		ID:      uuid.NewString(),
		Name:    sc.Name,
		Engine:  engine.Name(),
		Seed:    sc.Seed,
		Created: start,
		Took:    time.Since(start),
		Report:  battle.Summarize(in, out),
		Output:  out,
	}

	s.mu.Lock()
	s.battles[rec.ID] = rec
	s.mu.Unlock()

	s.logger.Info("battle simulated",
		zap.String("id", rec.ID),
		zap.String("engine", rec.Engine),
		zap.Int("rounds", rec.Report.Rounds),
		zap.String("winner", rec.Report.Winner),
		zap.Duration("took", rec.Took),
	)
	writeJSON(w, http.StatusCreated, rec)
}

func (s *server) lookup(id string) (*battleRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.battles[id]
	return rec, ok
}

func (s *server) handleGetBattle(w http.ResponseWriter, r *http.Request) {
	rec, ok := s.lookup(mux.Vars(r)["id"])
	if !ok {
		writeError(w, http.StatusNotFound, "battle not found")
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// handleStreamBattle replays a stored battle over a websocket: one message
// per round followed by the report.
func (s *server) handleStreamBattle(w http.ResponseWriter, r *http.Request) {
	rec, ok := s.lookup(mux.Vars(r)["id"])
	if !ok {
		writeError(w, http.StatusNotFound, "battle not found")
		return
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	for i, round := range rec.Output.Rounds {
		if err := conn.WriteJSON(Message{Type: "round", Round: i + 1, Payload: round}); err != nil {
			s.logger.Debug("stream aborted", zap.String("id", rec.ID), zap.Error(err))
			return
		}
	}
	if err := conn.WriteJSON(Message{Type: "report", Payload: rec.Report}); err != nil {
		return
	}
	_ = conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, "battle over"),
		time.Now().Add(time.Second))
}
